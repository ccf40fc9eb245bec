// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"testing"

	"github.com/satorinet/evrwallet/netparams"
	"github.com/satorinet/evrwallet/payments"
	"github.com/stretchr/testify/require"
)

func TestMultisigAddress(t *testing.T) {
	t.Parallel()

	var pubKeys [][]byte
	for i := byte(1); i <= 16; i++ {
		pubKeys = append(pubKeys, testSigner(i).PubKey())
	}

	testCases := []struct {
		name     string
		required int
		keys     [][]byte
		net      *netparams.Params
		prefix   string
		wantErr  bool
	}{
		{
			name:     "2 of 3 mainnet",
			required: 2,
			keys:     pubKeys[:3],
			prefix:   "e",
		},
		{
			name:     "1 of 1 testnet",
			required: 1,
			keys:     pubKeys[:1],
			net:      &netparams.TestNetParams,
			prefix:   "2",
		},
		{
			name:     "15 of 15",
			required: 15,
			keys:     pubKeys[:15],
			prefix:   "e",
		},
		{
			name:     "no signatures",
			required: 0,
			keys:     pubKeys[:3],
			wantErr:  true,
		},
		{
			name:     "more signatures than keys",
			required: 4,
			keys:     pubKeys[:3],
			wantErr:  true,
		},
		{
			name:     "too many keys",
			required: 1,
			keys:     pubKeys,
			wantErr:  true,
		},
		{
			name:     "invalid key",
			required: 1,
			keys:     [][]byte{{0x02, 0x01}},
			wantErr:  true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			addr, redeemScript, err := MultisigAddress(
				tc.required, tc.keys, tc.net,
			)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.prefix, addr[:1])

			ms, err := payments.NewP2MS(payments.P2MSArgs{
				Output: redeemScript,
			})
			require.NoError(t, err)
			require.Equal(t, tc.required, ms.M())
			require.Equal(t, tc.keys, ms.PubKeys())

			pkScript, err := payments.AddressToScript(addr, tc.net, nil)
			require.NoError(t, err)
			p2sh, err := payments.NewP2SH(payments.P2SHArgs{
				Network: tc.net,
				Output:  pkScript,
				Redeem:  &payments.Redeem{Output: redeemScript},
			})
			require.NoError(t, err)
			require.Equal(t, addr, p2sh.Address())
		})
	}
}
