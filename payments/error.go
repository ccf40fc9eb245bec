// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package payments

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a kind of payment construction error.
type ErrorCode int

// These constants are used to identify a specific Error.
const (
	// ErrInsufficientData indicates none of the fields a variant can work
	// from were supplied.
	ErrInsufficientData ErrorCode = iota

	// ErrMalformed indicates a script, signature, key, address or count
	// does not follow its format.
	ErrMalformed

	// ErrMismatch indicates two supplied or derived values for the same
	// quantity disagree.  Fields names both sides.
	ErrMismatch
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrInsufficientData: "ErrInsufficientData",
	ErrMalformed:        "ErrMalformed",
	ErrMismatch:         "ErrMismatch",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error provides a single type for errors returned by the payment
// constructors.
type Error struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
	Fields      []string  // Conflicting fields for ErrMismatch
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

// IsError returns whether err is an Error with a matching error code.
func IsError(err error, code ErrorCode) bool {
	var e Error
	return errors.As(err, &e) && e.ErrorCode == code
}

func insufficientData(t Type) Error {
	return Error{
		ErrorCode:   ErrInsufficientData,
		Description: fmt.Sprintf("%v: not enough data", t),
	}
}

func malformed(t Type, desc string, err error) Error {
	return Error{
		ErrorCode:   ErrMalformed,
		Description: fmt.Sprintf("%v: %s", t, desc),
		Err:         err,
	}
}

func mismatch(t Type, field, other string) Error {
	return Error{
		ErrorCode: ErrMismatch,
		Description: fmt.Sprintf("%v: %s does not match %s", t, field,
			other),
		Fields: []string{field, other},
	}
}
