// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netparams

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
)

// EvrmoreMessagePrefix is prepended to messages signed with an Evrmore key.
const EvrmoreMessagePrefix = "\x18Evrmore Signed Message:\n"

// Params is used to group parameters for various networks such as the main
// network and test networks.  The embedded chaincfg.Params carries the address,
// WIF and BIP0032 prefixes; only those fields are set for Evrmore networks.
type Params struct {
	*chaincfg.Params
	MessagePrefix string
}

// MainNetParams contains parameters for the Evrmore main network.
var MainNetParams = Params{
	Params: &chaincfg.Params{
		Name:             "evrmore",
		PubKeyHashAddrID: 0x21,
		ScriptHashAddrID: 0x5c,
		PrivateKeyID:     0x80,
		HDPrivateKeyID:   [4]byte{0x04, 0x88, 0xad, 0xe4},
		HDPublicKeyID:    [4]byte{0x04, 0x88, 0xb2, 0x1e},
		HDCoinType:       175,
	},
	MessagePrefix: EvrmoreMessagePrefix,
}

// TestNetParams contains parameters for the Evrmore test network.
var TestNetParams = Params{
	Params: &chaincfg.Params{
		Name:             "evrmore-testnet",
		PubKeyHashAddrID: 0x6f,
		ScriptHashAddrID: 0xc4,
		PrivateKeyID:     0xef,
		HDPrivateKeyID:   [4]byte{0x04, 0x35, 0x83, 0x94},
		HDPublicKeyID:    [4]byte{0x04, 0x35, 0x87, 0xcf},
		HDCoinType:       1,
	},
	MessagePrefix: EvrmoreMessagePrefix,
}

// RegressionNetParams contains parameters for the Evrmore regression test
// network.  Its prefixes match the test network.
var RegressionNetParams = Params{
	Params: &chaincfg.Params{
		Name:             "evrmore-regtest",
		PubKeyHashAddrID: 0x6f,
		ScriptHashAddrID: 0xc4,
		PrivateKeyID:     0xef,
		HDPrivateKeyID:   [4]byte{0x04, 0x35, 0x83, 0x94},
		HDPublicKeyID:    [4]byte{0x04, 0x35, 0x87, 0xcf},
		HDCoinType:       1,
	},
	MessagePrefix: EvrmoreMessagePrefix,
}

// BitcoinMainNetParams wraps the Bitcoin main network parameters.
var BitcoinMainNetParams = Params{
	Params:        &chaincfg.MainNetParams,
	MessagePrefix: "\x18Bitcoin Signed Message:\n",
}

// ByName returns the parameters of a network by its name.
func ByName(name string) (*Params, error) {
	for _, p := range []*Params{
		&MainNetParams, &TestNetParams, &RegressionNetParams,
		&BitcoinMainNetParams,
	} {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown network %q", name)
}
