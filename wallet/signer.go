// Copyright (c) 2020 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/satorinet/evrwallet/bip66"
	"github.com/satorinet/evrwallet/netparams"
	"github.com/satorinet/evrwallet/script"
)

// Signer produces signatures for a single key.
type Signer interface {
	// PubKey returns the serialized public key signatures verify with.
	PubKey() []byte

	// Sign signs a 32 byte hash, returning the 64 byte r||s form.
	Sign(hash []byte) ([]byte, error)
}

// PrivKeySigner is a Signer backed by a private key held in memory.
type PrivKeySigner struct {
	key        *btcec.PrivateKey
	compressed bool
}

// A compile time check to ensure PrivKeySigner implements Signer.
var _ Signer = (*PrivKeySigner)(nil)

// NewPrivKeySigner returns a signer for key.  The public key is serialized
// compressed when compressed is true.
func NewPrivKeySigner(key *btcec.PrivateKey, compressed bool) *PrivKeySigner {
	return &PrivKeySigner{key: key, compressed: compressed}
}

// SignerFromWIF returns a signer for a private key in wallet import format.
// The key must be encoded for net.
func SignerFromWIF(wif string, net *netparams.Params) (*PrivKeySigner,
	error) {

	if net == nil {
		net = &netparams.MainNetParams
	}
	decoded, err := btcutil.DecodeWIF(wif)
	if err != nil {
		return nil, err
	}
	if !decoded.IsForNet(net.Params) {
		return nil, fmt.Errorf("private key is not for network %s",
			net.Name)
	}
	return NewPrivKeySigner(decoded.PrivKey, decoded.CompressPubKey), nil
}

// PubKey returns the serialized public key.
func (s *PrivKeySigner) PubKey() []byte {
	if s.compressed {
		return s.key.PubKey().SerializeCompressed()
	}
	return s.key.PubKey().SerializeUncompressed()
}

// Sign returns the RFC6979 deterministic low-S signature of hash.
func (s *PrivKeySigner) Sign(hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash is %d bytes, want 32", len(hash))
	}

	der := ecdsa.Sign(s.key, hash).Serialize()
	r, sv, err := bip66.Decode(der)
	if err != nil {
		return nil, err
	}
	rBytes, okR := bip66.IntegerToBytes(r, 32)
	sBytes, okS := bip66.IntegerToBytes(sv, 32)
	if !okR || !okS {
		return nil, errors.New("signature integer exceeds 32 bytes")
	}

	sig := make([]byte, 0, script.CompactSigLen)
	sig = append(sig, rBytes...)
	return append(sig, sBytes...), nil
}

// Zero clears the private key from memory.
func (s *PrivKeySigner) Zero() {
	s.key.Zero()
}
