// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package script

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSplitAssetTag parses the tag of an on-chain asset output and rebuilds
// the same bytes.
func TestSplitAssetTag(t *testing.T) {
	t.Parallel()

	script := hexToBytes(t, satoriP2PKH)

	base, asset, err := SplitAssetTag(script)
	require.NoError(t, err)
	require.Equal(t, &Asset{Name: "SATORI", Amount: 20000000}, asset)
	require.Equal(t, script[:25], base)
	require.Equal(t, base, StripAssetTag(script))
	require.True(t, ContainsAssetTag(script, asset))

	rebuilt, err := AppendAssetTag(base, asset)
	require.NoError(t, err)
	require.Equal(t, script, rebuilt)

	// Untagged scripts are returned whole.
	base2, asset2, err := SplitAssetTag(base)
	require.NoError(t, err)
	require.Nil(t, asset2)
	require.Equal(t, base, base2)

	untouched, err := AppendAssetTag(base, nil)
	require.NoError(t, err)
	require.Equal(t, base, untouched)
}

// TestSplitAssetTagInvalid ensures malformed tags are reported.
func TestSplitAssetTagInvalid(t *testing.T) {
	t.Parallel()

	script := hexToBytes(t, satoriP2PKH)

	testCases := []struct {
		name   string
		script []byte
	}{
		{
			name:   "missing drop",
			script: script[:len(script)-1],
		},
		{
			name:   "trailing opcode",
			script: append(bytes.Clone(script), OP_NOP),
		},
		{
			name: "wrong protocol id",
			script: func() []byte {
				s := bytes.Clone(script)
				s[27] = 'x'
				return s
			}(),
		},
		{
			name: "bad name length",
			script: func() []byte {
				s := bytes.Clone(script)
				s[31] = 7
				return s
			}(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := SplitAssetTag(tc.script)
			require.True(t, IsError(err, ErrInvalidAsset), "%v", err)
			require.Equal(t, tc.script, StripAssetTag(tc.script))
		})
	}
}

// TestAssetPayload checks payload layout and name validation.
func TestAssetPayload(t *testing.T) {
	t.Parallel()

	a := &Asset{Name: "EVR/SUB", Amount: 0x0102030405060708}
	payload, err := a.Payload()
	require.NoError(t, err)
	require.Equal(t, []byte("evrt\x07EVR/SUB"), payload[:12])
	require.Equal(t, []byte{8, 7, 6, 5, 4, 3, 2, 1}, payload[12:])

	parsed, err := ParseAssetPayload(payload)
	require.NoError(t, err)
	require.Equal(t, a, parsed)
	require.Equal(t, "EVR/SUB:72623859790382856", a.String())

	_, err = (&Asset{}).Payload()
	require.True(t, IsError(err, ErrInvalidAsset))

	long := &Asset{Name: strings.Repeat("A", MaxAssetNameLen+1)}
	_, err = AssetTagChunks(long)
	require.True(t, IsError(err, ErrInvalidAsset))

	_, err = ParseAssetPayload([]byte("evrt"))
	require.True(t, IsError(err, ErrInvalidAsset))
}
