// Copyright (c) 2020 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"bytes"
	"encoding/hex"
	"io"
	"strings"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/satorinet/evrwallet/netparams"
)

// Serialize writes the BIP0174 binary form.
func (p *Psbt) Serialize(w io.Writer) error {
	return p.packet.Serialize(w)
}

// Bytes returns the BIP0174 binary form.
func (p *Psbt) Bytes() ([]byte, error) {
	var b bytes.Buffer
	if err := p.packet.Serialize(&b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// B64Encode returns the base64 encoding of the binary form.
func (p *Psbt) B64Encode() (string, error) {
	return p.packet.B64Encode()
}

// ToHex returns the hex encoding of the binary form.
func (p *Psbt) ToHex() (string, error) {
	b, err := p.Bytes()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewPsbtFromRawBytes parses the BIP0174 binary form.
func NewPsbtFromRawBytes(b []byte, net *netparams.Params) (*Psbt, error) {
	packet, err := psbt.NewFromRawBytes(bytes.NewReader(b), false)
	if err != nil {
		return nil, err
	}
	return newPsbt(packet, net), nil
}

// NewPsbtFromBase64 parses the base64 encoding of the binary form.
func NewPsbtFromBase64(s string, net *netparams.Params) (*Psbt, error) {
	packet, err := psbt.NewFromRawBytes(
		strings.NewReader(strings.TrimSpace(s)), true,
	)
	if err != nil {
		return nil, err
	}
	return newPsbt(packet, net), nil
}

// NewPsbtFromHex parses the hex encoding of the binary form.
func NewPsbtFromHex(s string, net *netparams.Params) (*Psbt, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return NewPsbtFromRawBytes(b, net)
}
