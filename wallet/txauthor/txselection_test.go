// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/satorinet/evrwallet/wallet/txrules"
	"github.com/stretchr/testify/require"
)

func testUtxo(seed byte, asset string, value btcutil.Amount) Utxo {
	return Utxo{
		OutPoint: *wire.NewOutPoint(&chainhash.Hash{seed}, 0),
		Asset:    asset,
		Value:    value,
	}
}

func outPoints(utxos []Utxo) []wire.OutPoint {
	ops := make([]wire.OutPoint, 0, len(utxos))
	for _, u := range utxos {
		ops = append(ops, u.OutPoint)
	}
	return ops
}

func TestSelectUtxos(t *testing.T) {
	t.Parallel()

	evr := testUtxo(1, "None", 1000000)
	satori := testUtxo(2, "SATORI", 10000000)

	// The pool of an address holding several asset outputs, including
	// dust, as reported by an indexer.
	indexerPool := []Utxo{
		testUtxo(10, "SATORI", 10000000),
		testUtxo(11, "CHUPPA_CHUB", 100000000),
		testUtxo(12, "SATORI", 1),
		testUtxo(13, "SATORI", 1000000),
		testUtxo(14, "SATORI", 20000000),
		testUtxo(15, "None", 600000),
		testUtxo(16, "None", 10000000),
		testUtxo(17, "SATORI", 2000000),
	}

	testCases := []struct {
		name       string
		pool       []Utxo
		recipients []Recipient
		want       []Utxo
		wantErr    error
		wantAsset  string
	}{
		{
			name: "asset and base asset",
			pool: []Utxo{evr, satori},
			recipients: []Recipient{
				{Asset: "SATORI", Amount: 2000000},
				{Asset: "EVR", Amount: 100000},
			},
			want: []Utxo{
				testUtxo(2, "SATORI", 10000000),
				testUtxo(1, "EVR", 1000000),
			},
		},
		{
			name: "insufficient asset",
			pool: []Utxo{evr, satori},
			recipients: []Recipient{
				{Asset: "SATORI", Amount: 20000000},
			},
			wantAsset: "SATORI",
		},
		{
			name: "largest first",
			pool: indexerPool,
			recipients: []Recipient{
				{Asset: "SATORI", Amount: 2000000},
				{Asset: "EVR", Amount: 100000},
			},
			want: []Utxo{
				testUtxo(14, "SATORI", 20000000),
				testUtxo(16, "EVR", 10000000),
			},
		},
		{
			name: "accumulates",
			pool: indexerPool,
			recipients: []Recipient{
				{Asset: "SATORI", Amount: 25000000},
				{Asset: "SATORI", Amount: 6000000},
			},
			want: []Utxo{
				testUtxo(14, "SATORI", 20000000),
				testUtxo(10, "SATORI", 10000000),
				testUtxo(17, "SATORI", 2000000),
				testUtxo(16, "EVR", 10000000),
			},
		},
		{
			name: "dust is never selected",
			pool: indexerPool,
			recipients: []Recipient{
				{Asset: "SATORI", Amount: 33000001},
			},
			wantAsset: "SATORI",
		},
		{
			name: "fee input added",
			pool: indexerPool,
			recipients: []Recipient{
				{Asset: "CHUPPA_CHUB", Amount: 1},
			},
			want: []Utxo{
				testUtxo(11, "CHUPPA_CHUB", 100000000),
				testUtxo(16, "EVR", 10000000),
			},
		},
		{
			name: "no fee input",
			pool: []Utxo{satori, testUtxo(3, "", 545)},
			recipients: []Recipient{
				{Asset: "SATORI", Amount: 1},
			},
			wantErr: ErrNoFeeInput,
		},
		{
			name:       "empty pool",
			recipients: []Recipient{{Asset: "EVR", Amount: 1}},
			wantErr:    ErrNoUtxos,
		},
		{
			name:    "no recipients",
			pool:    []Utxo{evr},
			wantErr: ErrNoRecipients,
		},
		{
			name:       "zero amount",
			pool:       []Utxo{evr},
			recipients: []Recipient{{Asset: "EVR"}},
			wantErr:    ErrInvalidRecipient,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := SelectUtxos(
				tc.pool, tc.recipients,
				txrules.DefaultDustThreshold,
			)
			switch {
			case tc.wantAsset != "":
				var fundsErr InsufficientFundsError
				require.ErrorAs(t, err, &fundsErr)
				require.Equal(t, tc.wantAsset, fundsErr.Asset)
				require.Contains(t, err.Error(), tc.wantAsset)

				var sourceErr InputSourceError
				require.ErrorAs(t, err, &sourceErr)
				return

			case tc.wantErr != nil:
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, outPoints(tc.want), outPoints(got))
			require.Equal(t, tc.want, got)
		})
	}
}

// TestSelectUtxosDustThreshold checks the threshold is inclusive.
func TestSelectUtxosDustThreshold(t *testing.T) {
	t.Parallel()

	pool := []Utxo{testUtxo(1, "EVR", 1000)}
	recipients := []Recipient{{Asset: "EVR", Amount: 1}}

	got, err := SelectUtxos(pool, recipients, 1000)
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = SelectUtxos(pool, recipients, 1001)
	var fundsErr InsufficientFundsError
	require.ErrorAs(t, err, &fundsErr)
	require.Equal(t, BaseAsset, fundsErr.Asset)
}

func TestNormalizeAsset(t *testing.T) {
	t.Parallel()

	require.Equal(t, "EVR", NormalizeAsset(""))
	require.Equal(t, "EVR", NormalizeAsset("None"))
	require.Equal(t, "EVR", NormalizeAsset("EVR"))
	require.Equal(t, "SATORI", NormalizeAsset("SATORI"))
}
