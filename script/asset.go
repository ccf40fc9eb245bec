// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package script

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// AssetProtocolID prefixes every asset payload.
var AssetProtocolID = []byte("evrt")

// MaxAssetNameLen is the longest asset name accepted when building a tag.
const MaxAssetNameLen = 32

// Asset is the name and amount carried by an asset tagged output.
type Asset struct {
	Name   string
	Amount uint64
}

// String returns the asset formatted as "name:amount".
func (a *Asset) String() string {
	return fmt.Sprintf("%s:%d", a.Name, a.Amount)
}

// Validate checks the name fits the tag layout.
func (a *Asset) Validate() error {
	if len(a.Name) == 0 || len(a.Name) > MaxAssetNameLen {
		str := fmt.Sprintf("asset name length %d not in [1, %d]",
			len(a.Name), MaxAssetNameLen)
		return scriptError(ErrInvalidAsset, str, nil)
	}
	return nil
}

// AmountBytes returns the 8 byte little-endian amount.
func (a *Asset) AmountBytes() []byte {
	return binary.LittleEndian.AppendUint64(nil, a.Amount)
}

// Payload returns the data pushed by the asset tag:
//
//	"evrt" || len(name) || name || amount (8 bytes LE)
func (a *Asset) Payload() ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	payload := make([]byte, 0, len(AssetProtocolID)+1+len(a.Name)+8)
	payload = append(payload, AssetProtocolID...)
	payload = append(payload, byte(len(a.Name)))
	payload = append(payload, a.Name...)
	payload = binary.LittleEndian.AppendUint64(payload, a.Amount)

	return payload, nil
}

// ParseAssetPayload decodes the data pushed by an asset tag.
func ParseAssetPayload(payload []byte) (*Asset, error) {
	if !bytes.HasPrefix(payload, AssetProtocolID) {
		return nil, scriptError(ErrInvalidAsset,
			"asset payload missing protocol id", nil)
	}
	rest := payload[len(AssetProtocolID):]
	if len(rest) < 1 {
		return nil, scriptError(ErrInvalidAsset,
			"asset payload missing name length", nil)
	}

	nameLen := int(rest[0])
	if nameLen == 0 || len(rest) != 1+nameLen+8 {
		str := fmt.Sprintf("asset payload of %d bytes does not fit "+
			"name length %d", len(payload), nameLen)
		return nil, scriptError(ErrInvalidAsset, str, nil)
	}

	return &Asset{
		Name:   string(rest[1 : 1+nameLen]),
		Amount: binary.LittleEndian.Uint64(rest[1+nameLen:]),
	}, nil
}

// AssetTagChunks returns the chunks appended to a base template:
// OP_EVR_ASSET <payload> OP_DROP.
func AssetTagChunks(a *Asset) ([]Chunk, error) {
	payload, err := a.Payload()
	if err != nil {
		return nil, err
	}
	return []Chunk{Op(OP_EVR_ASSET), Push(payload), Op(OP_DROP)}, nil
}

// AppendAssetTag returns script followed by the tag for a.  A nil asset
// returns a copy of script.
func AppendAssetTag(script []byte, a *Asset) ([]byte, error) {
	out := append([]byte(nil), script...)
	if a == nil {
		return out, nil
	}

	chunks, err := AssetTagChunks(a)
	if err != nil {
		return nil, err
	}
	tag, err := Compile(chunks)
	if err != nil {
		return nil, err
	}

	return append(out, tag...), nil
}

// SplitAssetTag separates a script into its base template and trailing asset
// tag.  Scripts without a tag are returned whole with a nil asset.  A tag that
// is present but malformed is an error.
func SplitAssetTag(script []byte) ([]byte, *Asset, error) {
	chunks, offsets, err := decompile(script)
	if err != nil {
		return nil, nil, err
	}

	idx := -1
	for i, c := range chunks {
		if !c.IsPush() && c.Opcode == OP_EVR_ASSET {
			idx = i
			break
		}
	}
	if idx == -1 {
		return script, nil, nil
	}

	tag := chunks[idx:]
	if len(tag) != 3 || !tag[1].IsPush() || tag[2].IsPush() ||
		tag[2].Opcode != OP_DROP {

		return nil, nil, scriptError(ErrInvalidAsset,
			"asset tag must be OP_EVR_ASSET <payload> OP_DROP", nil)
	}

	asset, err := ParseAssetPayload(tag[1].Data)
	if err != nil {
		return nil, nil, err
	}

	return script[:offsets[idx]], asset, nil
}

// StripAssetTag returns the base template of script, ignoring any tag.
// Scripts that can not be split are returned unchanged.
func StripAssetTag(script []byte) []byte {
	base, _, err := SplitAssetTag(script)
	if err != nil {
		return script
	}
	return base
}

// ContainsAssetTag reports whether script holds the tag marker, the asset
// name and the encoded amount as contiguous byte sequences.
func ContainsAssetTag(script []byte, a *Asset) bool {
	return bytes.IndexByte(script, OP_EVR_ASSET) != -1 &&
		bytes.Contains(script, []byte(a.Name)) &&
		bytes.Contains(script, a.AmountBytes())
}
