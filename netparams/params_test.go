// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netparams

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/stretchr/testify/require"
)

// TestAddressPrefixes makes sure each network's pubkey hash version yields the
// leading base58 character wallets display.
func TestAddressPrefixes(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		params *Params
		prefix byte
	}{
		{&MainNetParams, 'E'},
		{&TestNetParams, 'm'},
		{&RegressionNetParams, 'm'},
		{&BitcoinMainNetParams, '1'},
	}

	hash := make([]byte, 20)
	for _, tc := range testCases {
		t.Run(tc.params.Name, func(t *testing.T) {
			addr := base58.CheckEncode(hash, tc.params.PubKeyHashAddrID)
			require.Equal(t, tc.prefix, addr[0])

			got, err := ByName(tc.params.Name)
			require.NoError(t, err)
			require.Same(t, tc.params, got)
		})
	}

	_, err := ByName("ravencoin")
	require.Error(t, err)
}
