// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/satorinet/evrwallet/payments"
	"github.com/satorinet/evrwallet/script"
	"github.com/satorinet/evrwallet/wallet/txrules"
	"github.com/stretchr/testify/require"
)

const (
	// recipientAddr is a mainnet P2SH address.
	recipientAddr = "eEY5brnAULc9wnr2Evfr31rdUHpoZbn1Uq"

	// changeAddr is a mainnet P2PKH address.
	changeAddr = "EQ2dsWBZAJCUJsNTFm1aDY4BQHXTmFRGK5"
)

func addressScript(t *testing.T, addr string, asset string,
	amount btcutil.Amount) []byte {

	t.Helper()

	var a *script.Asset
	if asset != BaseAsset {
		a = &script.Asset{Name: asset, Amount: uint64(amount)}
	}
	pkScript, err := payments.AddressToScript(addr, nil, a)
	require.NoError(t, err)
	return pkScript
}

// TestNewUnsignedTransaction pays an asset and the base asset from one
// output of each, returning change of both.
func TestNewUnsignedTransaction(t *testing.T) {
	t.Parallel()

	inputs := []Utxo{
		testUtxo(1, "EVR", 10000000),
		testUtxo(2, "SATORI", 20000000),
	}
	recipients := []Recipient{
		{Address: recipientAddr, Asset: "SATORI", Amount: 2000000},
		{Address: recipientAddr, Asset: "EVR", Amount: 100000},
	}

	authored, err := NewUnsignedTransaction(
		inputs, recipients, changeAddr, 2000, nil,
	)
	require.NoError(t, err)

	// (2 * 180 + 2 * 34 + 10) * 2000
	require.Equal(t, btcutil.Amount(876000), authored.Fee)
	require.Equal(t, map[string]int{"EVR": 2, "SATORI": 3},
		authored.ChangeIndexes)

	tx := authored.Tx
	require.Equal(t, int32(1), tx.Version)
	require.Zero(t, tx.LockTime)
	require.Len(t, tx.Inputs, 2)
	for i, in := range tx.Inputs {
		require.Equal(t, inputs[i].OutPoint.Hash, in.Hash)
		require.Equal(t, inputs[i].OutPoint.Index, in.Index)
		require.Empty(t, in.Script)
	}

	want := []struct {
		value  int64
		script []byte
	}{
		{0, addressScript(t, recipientAddr, "SATORI", 2000000)},
		{100000, addressScript(t, recipientAddr, BaseAsset, 0)},
		{9024000, addressScript(t, changeAddr, BaseAsset, 0)},
		{0, addressScript(t, changeAddr, "SATORI", 18000000)},
	}
	require.Len(t, tx.Outputs, len(want))
	for i, w := range want {
		require.Equal(t, w.value, tx.Outputs[i].Value, "output %d", i)
		require.Equal(t, w.script, tx.Outputs[i].Script, "output %d", i)
	}

	require.Equal(t, btcutil.Amount(9124000), SumOutputValues(tx.Outputs))
	require.Equal(t, payments.P2SH, payments.Classify(tx.Outputs[0].Script))
	require.Equal(t, payments.P2PKH, payments.Classify(tx.Outputs[3].Script))
}

func TestNewUnsignedTransactionErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		inputs     []Utxo
		recipients []Recipient
		wantAsset  string
		wantErr    error
	}{
		{
			name:   "fee exceeds base input",
			inputs: []Utxo{testUtxo(1, "EVR", 500000)},
			recipients: []Recipient{
				{Address: recipientAddr, Asset: "EVR", Amount: 100000},
			},
			wantAsset: "EVR",
		},
		{
			name:   "asset without inputs",
			inputs: []Utxo{testUtxo(1, "EVR", 10000000)},
			recipients: []Recipient{
				{Address: recipientAddr, Asset: "SATORI", Amount: 1},
			},
			wantAsset: "SATORI",
		},
		{
			name: "asset short",
			inputs: []Utxo{
				testUtxo(1, "EVR", 10000000),
				testUtxo(2, "SATORI", 5),
			},
			recipients: []Recipient{
				{Address: recipientAddr, Asset: "SATORI", Amount: 6},
			},
			wantAsset: "SATORI",
		},
		{
			name:   "dust recipient",
			inputs: []Utxo{testUtxo(1, "EVR", 10000000)},
			recipients: []Recipient{
				{Address: recipientAddr, Asset: "EVR", Amount: 545},
			},
			wantErr: txrules.ErrOutputIsDust,
		},
		{
			name:   "zero amount",
			inputs: []Utxo{testUtxo(1, "EVR", 10000000)},
			recipients: []Recipient{
				{Address: recipientAddr, Asset: "SATORI"},
			},
			wantErr: ErrInvalidRecipient,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewUnsignedTransaction(
				tc.inputs, tc.recipients, changeAddr, 2000, nil,
			)
			if tc.wantAsset != "" {
				var fundsErr InsufficientFundsError
				require.ErrorAs(t, err, &fundsErr)
				require.Equal(t, tc.wantAsset, fundsErr.Asset)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
		})
	}

	_, err := NewUnsignedTransaction(
		[]Utxo{testUtxo(1, "EVR", 10000000)},
		[]Recipient{{Address: "not an address", Amount: 1000}},
		changeAddr, 2000, nil,
	)
	require.True(t, payments.IsError(err, payments.ErrMalformed))
}

// TestDustChange checks base asset change below the dust threshold is added
// to the fee.
func TestDustChange(t *testing.T) {
	t.Parallel()

	// One input, one output: 224 bytes at 10 per byte.
	inputs := []Utxo{testUtxo(1, "EVR", 100000+2240+100)}
	recipients := []Recipient{
		{Address: changeAddr, Asset: "EVR", Amount: 100000},
	}

	authored, err := NewUnsignedTransaction(
		inputs, recipients, changeAddr, 10, nil,
	)
	require.NoError(t, err)
	require.Len(t, authored.Tx.Outputs, 1)
	require.Empty(t, authored.ChangeIndexes)
	require.Equal(t, btcutil.Amount(2340), authored.Fee)
}
