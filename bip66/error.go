// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bip66

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the structural rule a DER signature violated.
type ErrorCode int

// These constants are used to identify a specific Error.
const (
	// ErrSigLength indicates the total signature length is outside of
	// [MinSigLen, MaxSigLen].
	ErrSigLength ErrorCode = iota

	// ErrSequence indicates the leading SEQUENCE tag or its length byte
	// is wrong.
	ErrSequence

	// ErrRTag indicates the first element is not tagged as an INTEGER.
	ErrRTag

	// ErrRLength indicates the R length is zero or runs past the S header.
	ErrRLength

	// ErrSTag indicates the second element is not tagged as an INTEGER.
	ErrSTag

	// ErrSLength indicates the S length is zero or does not end exactly
	// at the end of the signature.
	ErrSLength

	// ErrRNegative indicates the high bit of the first R byte is set.
	ErrRNegative

	// ErrRPadding indicates R carries an unnecessary leading zero byte.
	ErrRPadding

	// ErrSNegative indicates the high bit of the first S byte is set.
	ErrSNegative

	// ErrSPadding indicates S carries an unnecessary leading zero byte.
	ErrSPadding

	// ErrRSEmpty indicates R or S passed to Encode is empty.
	ErrRSEmpty

	// ErrRSTooLong indicates R or S passed to Encode exceeds
	// MaxIntegerLen bytes.
	ErrRSTooLong
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrSigLength: "ErrSigLength",
	ErrSequence:  "ErrSequence",
	ErrRTag:      "ErrRTag",
	ErrRLength:   "ErrRLength",
	ErrSTag:      "ErrSTag",
	ErrSLength:   "ErrSLength",
	ErrRNegative: "ErrRNegative",
	ErrRPadding:  "ErrRPadding",
	ErrSNegative: "ErrSNegative",
	ErrSPadding:  "ErrSPadding",
	ErrRSEmpty:   "ErrRSEmpty",
	ErrRSTooLong: "ErrRSTooLong",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error is returned by Decode and Encode when a signature or one of its
// integers breaks a DER rule.
type Error struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	return e.Description
}

func derError(c ErrorCode, desc string) Error {
	return Error{ErrorCode: c, Description: desc}
}

// IsError returns whether err is an Error with a matching error code.
func IsError(err error, code ErrorCode) bool {
	var e Error
	return errors.As(err, &e) && e.ErrorCode == code
}
