// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package script

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a kind of script error.
type ErrorCode int

// These constants are used to identify a specific Error.
const (
	// ErrMalformedPush indicates a data push declares more bytes than the
	// script has left.
	ErrMalformedPush ErrorCode = iota

	// ErrInvalidOpcode indicates a chunk can not be compiled: either an
	// unnamed opcode, or a push opcode used without data.
	ErrInvalidOpcode

	// ErrInvalidAsset indicates an asset tag or asset payload does not
	// follow the tag layout.
	ErrInvalidAsset

	// ErrInvalidSignature indicates a script signature is not a strict
	// DER signature followed by a defined hash type.
	ErrInvalidSignature

	// ErrInvalidASM indicates a disassembly token is neither an opcode
	// name nor hex data.
	ErrInvalidASM
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrMalformedPush:    "ErrMalformedPush",
	ErrInvalidOpcode:    "ErrInvalidOpcode",
	ErrInvalidAsset:     "ErrInvalidAsset",
	ErrInvalidSignature: "ErrInvalidSignature",
	ErrInvalidASM:       "ErrInvalidASM",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error identifies a script encoding violation.  Every Error is a
// malformed-structure failure.
type Error struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
	Err         error     // Underlying error
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	if e.Err != nil {
		return e.Description + ": " + e.Err.Error()
	}
	return e.Description
}

// Unwrap returns the underlying error, if any.
func (e Error) Unwrap() error {
	return e.Err
}

func scriptError(c ErrorCode, desc string, err error) Error {
	return Error{ErrorCode: c, Description: desc, Err: err}
}

// IsError returns whether err is an Error with a matching error code.
func IsError(err error, code ErrorCode) bool {
	var e Error
	return errors.As(err, &e) && e.ErrorCode == code
}
