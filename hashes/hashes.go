// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package hashes provides the hash functions used to build and identify
// transactions and scripts.
package hashes

import (
	"crypto/sha1"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck
)

// Tag names a registered tagged hash domain.
type Tag string

// The registered tags.
const (
	TagBIP0340Challenge  Tag = "BIP0340/challenge"
	TagBIP0340Aux        Tag = "BIP0340/aux"
	TagBIP0340Nonce      Tag = "BIP0340/nonce"
	TagTapLeaf           Tag = "TapLeaf"
	TagTapBranch         Tag = "TapBranch"
	TagTapSighash        Tag = "TapSighash"
	TagTapTweak          Tag = "TapTweak"
	TagKeyAggList        Tag = "KeyAgg list"
	TagKeyAggCoefficient Tag = "KeyAgg coefficient"
)

var registeredTags = map[Tag]struct{}{
	TagBIP0340Challenge:  {},
	TagBIP0340Aux:        {},
	TagBIP0340Nonce:      {},
	TagTapLeaf:           {},
	TagTapBranch:         {},
	TagTapSighash:        {},
	TagTapTweak:          {},
	TagKeyAggList:        {},
	TagKeyAggCoefficient: {},
}

// Sha1 returns the SHA-1 digest of b.
func Sha1(b []byte) []byte {
	h := sha1.Sum(b)
	return h[:]
}

// Sha256 returns the SHA-256 digest of b.
func Sha256(b []byte) []byte {
	return chainhash.HashB(b)
}

// Ripemd160 returns the RIPEMD-160 digest of b.
func Ripemd160(b []byte) []byte {
	h := ripemd160.New()
	h.Write(b)
	return h.Sum(nil)
}

// Hash160 returns RIPEMD160(SHA256(b)).
func Hash160(b []byte) []byte {
	return btcutil.Hash160(b)
}

// Hash256 returns SHA256(SHA256(b)).
func Hash256(b []byte) []byte {
	return chainhash.DoubleHashB(b)
}

// TaggedHash returns SHA256(SHA256(tag) || SHA256(tag) || data) for one of
// the registered tags.
func TaggedHash(tag Tag, data []byte) ([]byte, error) {
	if _, ok := registeredTags[tag]; !ok {
		return nil, fmt.Errorf("unregistered hash tag %q", tag)
	}
	h := chainhash.TaggedHash([]byte(tag), data)
	return h[:], nil
}
