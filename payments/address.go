// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package payments

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/satorinet/evrwallet/netparams"
	"github.com/satorinet/evrwallet/script"
)

// hashLen is the payload size of a base58check address.
const hashLen = 20

// DecodeAddress returns the version byte and hash of a base58check address.
func DecodeAddress(addr string) (byte, []byte, error) {
	hash, version, err := base58.CheckDecode(addr)
	if err != nil {
		return 0, nil, malformed(NonStandard, "invalid address", err)
	}
	if len(hash) != hashLen {
		str := fmt.Sprintf("address payload is %d bytes, want %d",
			len(hash), hashLen)
		return 0, nil, malformed(NonStandard, str, nil)
	}
	return version, hash, nil
}

// EncodeAddress returns the base58check address for hash.
func EncodeAddress(hash []byte, version byte) string {
	return base58.CheckEncode(hash, version)
}

// AddressToScript returns the output script paying addr, tagged with asset
// when it is not nil.  The address version must be the P2PKH or P2SH version
// of net.
func AddressToScript(addr string, net *netparams.Params,
	asset *script.Asset) ([]byte, error) {

	if net == nil {
		net = &netparams.MainNetParams
	}
	version, hash, err := DecodeAddress(addr)
	if err != nil {
		return nil, err
	}

	var p *Payment
	switch version {
	case net.PubKeyHashAddrID:
		p, err = NewP2PKH(P2PKHArgs{Network: net, Hash: hash, Asset: asset})
	case net.ScriptHashAddrID:
		p, err = NewP2SH(P2SHArgs{Network: net, Hash: hash, Asset: asset})
	default:
		str := fmt.Sprintf("address %s has no output script on %s", addr,
			net.Name)
		return nil, malformed(NonStandard, str, nil)
	}
	if err != nil {
		return nil, err
	}
	return p.Output(), nil
}

// ScriptToAddress returns the address paid by a P2PKH or P2SH output.  Any
// asset tag is ignored.
func ScriptToAddress(pkScript []byte, net *netparams.Params) (string, error) {
	if net == nil {
		net = &netparams.MainNetParams
	}
	chunks, err := script.Decompile(script.StripAssetTag(pkScript))
	if err != nil {
		return "", malformed(NonStandard, "invalid output script", err)
	}
	if hash := p2pkhHash(chunks); hash != nil {
		return EncodeAddress(hash, net.PubKeyHashAddrID), nil
	}
	if hash := p2shHash(chunks); hash != nil {
		return EncodeAddress(hash, net.ScriptHashAddrID), nil
	}
	return "", malformed(NonStandard, "output script has no address", nil)
}
