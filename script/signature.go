// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package script

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/txscript"
	"github.com/satorinet/evrwallet/bip66"
)

// CompactSigLen is the length of an r||s signature as returned by signers.
const CompactSigLen = 64

// pubKeyBytesLenUncompressed is the length of a serialized uncompressed
// public key.
const pubKeyBytesLenUncompressed = 65

// IsDefinedHashType reports whether hashType is one of ALL, NONE or SINGLE,
// optionally combined with ANYONECANPAY.
func IsDefinedHashType(hashType txscript.SigHashType) bool {
	base := hashType &^ txscript.SigHashAnyOneCanPay
	return base >= txscript.SigHashAll && base <= txscript.SigHashSingle
}

// IsCanonicalScriptSignature reports whether sig is a strict DER signature
// followed by exactly one defined hash type byte.
func IsCanonicalScriptSignature(sig []byte) bool {
	if len(sig) == 0 {
		return false
	}
	hashType := txscript.SigHashType(sig[len(sig)-1])
	if !IsDefinedHashType(hashType) {
		return false
	}
	return bip66.Check(sig[:len(sig)-1])
}

// IsCanonicalPubKey reports whether key is a valid compressed or uncompressed
// secp256k1 point.
func IsCanonicalPubKey(key []byte) bool {
	switch len(key) {
	case btcec.PubKeyBytesLenCompressed, pubKeyBytesLenUncompressed:
	default:
		return false
	}
	_, err := btcec.ParsePubKey(key)
	return err == nil
}

// EncodeSignature converts a 64 byte r||s signature into its script form: the
// DER encoding followed by the hash type byte.
func EncodeSignature(sig []byte,
	hashType txscript.SigHashType) ([]byte, error) {

	if !IsDefinedHashType(hashType) {
		str := fmt.Sprintf("invalid hash type 0x%x", uint32(hashType))
		return nil, scriptError(ErrInvalidSignature, str, nil)
	}
	if len(sig) != CompactSigLen {
		str := fmt.Sprintf("signature is %d bytes, want %d", len(sig),
			CompactSigLen)
		return nil, scriptError(ErrInvalidSignature, str, nil)
	}

	r := bip66.IntegerFromBytes(sig[:32])
	s := bip66.IntegerFromBytes(sig[32:])
	der, err := bip66.Encode(r, s)
	if err != nil {
		return nil, scriptError(ErrInvalidSignature,
			"unable to encode signature", err)
	}

	return append(der, byte(hashType)), nil
}

// DecodeSignature is the inverse of EncodeSignature.
func DecodeSignature(sig []byte) ([]byte, txscript.SigHashType, error) {
	if len(sig) == 0 {
		return nil, 0, scriptError(ErrInvalidSignature,
			"empty signature", nil)
	}

	hashType := txscript.SigHashType(sig[len(sig)-1])
	if !IsDefinedHashType(hashType) {
		str := fmt.Sprintf("invalid hash type 0x%x", uint32(hashType))
		return nil, 0, scriptError(ErrInvalidSignature, str, nil)
	}

	r, s, err := bip66.Decode(sig[:len(sig)-1])
	if err != nil {
		return nil, 0, scriptError(ErrInvalidSignature,
			"invalid DER signature", err)
	}

	rBytes, okR := bip66.IntegerToBytes(r, 32)
	sBytes, okS := bip66.IntegerToBytes(s, 32)
	if !okR || !okS {
		return nil, 0, scriptError(ErrInvalidSignature,
			"signature integer exceeds 32 bytes", nil)
	}

	compact := make([]byte, 0, CompactSigLen)
	compact = append(compact, rBytes...)
	compact = append(compact, sBytes...)

	return compact, hashType, nil
}
