// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bip66 implements the strict DER signature encoding rules of BIP0066.
//
// A signature has the form:
//
//	0x30 <total len> 0x02 <len R> <R> 0x02 <len S> <S>
//
// R and S are minimal big-endian positive integers.  The trailing sighash
// byte used by scripts is not part of the encoding and must be removed before
// calling into this package.
package bip66

const (
	// MinSigLen is the length of the shortest valid signature, with one
	// byte R and S values.
	MinSigLen = 8 + 1

	// MaxSigLen is the length of the longest valid signature, with 33 byte
	// R and S values.
	MaxSigLen = 6 + 2*MaxIntegerLen + 1

	// MaxIntegerLen is the maximum length of R or S: 32 bytes plus the
	// zero byte that keeps a high-bit value positive.
	MaxIntegerLen = 33

	asn1SequenceID = 0x30
	asn1IntegerID  = 0x02
)

// Check reports whether sig is a strictly encoded DER signature.  It applies
// the same rules as Decode without allocating an error.
func Check(sig []byte) bool {
	_, _, err := parse(sig)
	return err == nil
}

// Decode validates sig and returns its R and S components.  The returned
// slices alias sig.
func Decode(sig []byte) (r, s []byte, err error) {
	return parse(sig)
}

func parse(sig []byte) ([]byte, []byte, error) {
	sigLen := len(sig)
	if sigLen < MinSigLen || sigLen > MaxSigLen {
		return nil, nil, derError(ErrSigLength,
			"DER sequence length is invalid")
	}
	if sig[0] != asn1SequenceID || int(sig[1]) != sigLen-2 {
		return nil, nil, derError(ErrSequence, "invalid DER sequence")
	}
	if sig[2] != asn1IntegerID {
		return nil, nil, derError(ErrRTag, "expected DER integer")
	}

	lenR := int(sig[3])
	if lenR == 0 || 5+lenR >= sigLen {
		return nil, nil, derError(ErrRLength, "invalid R length")
	}
	if sig[4+lenR] != asn1IntegerID {
		return nil, nil, derError(ErrSTag,
			"expected second DER integer")
	}

	lenS := int(sig[5+lenR])
	if lenS == 0 || 6+lenR+lenS != sigLen {
		return nil, nil, derError(ErrSLength, "invalid S length")
	}

	r := sig[4 : 4+lenR]
	s := sig[6+lenR:]

	if r[0]&0x80 != 0 {
		return nil, nil, derError(ErrRNegative, "R value is negative")
	}
	if lenR > 1 && r[0] == 0x00 && r[1]&0x80 == 0 {
		return nil, nil, derError(ErrRPadding,
			"R value excessively padded")
	}
	if s[0]&0x80 != 0 {
		return nil, nil, derError(ErrSNegative, "S value is negative")
	}
	if lenS > 1 && s[0] == 0x00 && s[1]&0x80 == 0 {
		return nil, nil, derError(ErrSPadding,
			"S value excessively padded")
	}

	return r, s, nil
}

// Encode wraps R and S in a DER sequence.  Both values must already be minimal
// positive big-endian integers; Encode does not pad or trim them.
func Encode(r, s []byte) ([]byte, error) {
	lenR, lenS := len(r), len(s)

	switch {
	case lenR == 0 || lenS == 0:
		return nil, derError(ErrRSEmpty, "R or S length is zero")
	case lenR > MaxIntegerLen || lenS > MaxIntegerLen:
		return nil, derError(ErrRSTooLong, "R or S length is too long")
	case r[0]&0x80 != 0:
		return nil, derError(ErrRNegative, "R value is negative")
	case s[0]&0x80 != 0:
		return nil, derError(ErrSNegative, "S value is negative")
	case lenR > 1 && r[0] == 0x00 && r[1]&0x80 == 0:
		return nil, derError(ErrRPadding, "R value excessively padded")
	case lenS > 1 && s[0] == 0x00 && s[1]&0x80 == 0:
		return nil, derError(ErrSPadding, "S value excessively padded")
	}

	sig := make([]byte, 6+lenR+lenS)
	sig[0] = asn1SequenceID
	sig[1] = byte(len(sig) - 2)
	sig[2] = asn1IntegerID
	sig[3] = byte(lenR)
	copy(sig[4:], r)
	sig[4+lenR] = asn1IntegerID
	sig[5+lenR] = byte(lenS)
	copy(sig[6+lenR:], s)

	return sig, nil
}

// IntegerFromBytes converts an unsigned big-endian value, such as one half of
// a 64 byte compact signature, to the minimal positive form Encode expects.
func IntegerFromBytes(v []byte) []byte {
	for len(v) > 1 && v[0] == 0x00 && v[1]&0x80 == 0 {
		v = v[1:]
	}
	if len(v) > 0 && v[0]&0x80 != 0 {
		out := make([]byte, len(v)+1)
		copy(out[1:], v)
		return out
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

// IntegerToBytes left pads or trims a decoded R or S to size bytes.  It
// returns false if the value does not fit.
func IntegerToBytes(v []byte, size int) ([]byte, bool) {
	for len(v) > 0 && v[0] == 0x00 {
		v = v[1:]
	}
	if len(v) > size {
		return nil, false
	}
	out := make([]byte, size)
	copy(out[size-len(v):], v)
	return out, true
}
