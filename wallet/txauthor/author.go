// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txauthor provides transaction creation code for wallets.
package txauthor

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/davecgh/go-spew/spew"
	"github.com/satorinet/evrwallet/netparams"
	"github.com/satorinet/evrwallet/payments"
	"github.com/satorinet/evrwallet/script"
	"github.com/satorinet/evrwallet/txn"
	"github.com/satorinet/evrwallet/wallet/txrules"
	"github.com/satorinet/evrwallet/wallet/txsizes"
)

// BaseAsset names the base currency of the chain.
const BaseAsset = "EVR"

// NormalizeAsset maps the names indexers report for the base currency to
// BaseAsset.
func NormalizeAsset(name string) string {
	switch name {
	case "", "None":
		return BaseAsset
	}
	return name
}

// Utxo is a spendable output of a single asset.  Value is denominated in the
// units of Asset; for assets the base value of the output is zero.
type Utxo struct {
	OutPoint wire.OutPoint
	Asset    string
	Value    btcutil.Amount
	Height   int32

	// PrevTx is the full transaction holding the output.  It is required
	// to sign the input.
	PrevTx *txn.Tx
}

// Recipient is a requested payment of Amount units of Asset to Address.
type Recipient struct {
	Address string
	Asset   string
	Amount  btcutil.Amount
}

// InputSourceError describes the failure to provide enough input value from
// unspent transaction outputs to meet a target amount.  A typed error is used
// so input sources can provide their own implementations describing the reason
// for the error, for example, due to spendable policies or locked coins rather
// than the wallet not having enough available input value.
type InputSourceError interface {
	error
	InputSourceError()
}

// InsufficientFundsError is returned when the inputs of an asset can not pay
// the amount requested of it.
type InsufficientFundsError struct {
	Asset     string
	Target    btcutil.Amount
	Available btcutil.Amount
}

// InputSourceError implements InputSourceError.
func (InsufficientFundsError) InputSourceError() {}

func (e InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds for asset %s: amount: %d, "+
		"available amount: %d", e.Asset, int64(e.Target),
		int64(e.Available))
}

// AuthoredTx holds the state of a newly-created transaction and its change
// outputs.
type AuthoredTx struct {
	Tx *txn.Tx

	// Inputs are the outputs spent by Tx, in input order.
	Inputs []Utxo

	// Fee is the base asset paid to miners.
	Fee btcutil.Amount

	// ChangeIndexes maps each asset that received change to the index of
	// its change output.
	ChangeIndexes map[string]int
}

// assetTotals accumulates amounts per asset, remembering the order in which
// assets were first seen.
type assetTotals struct {
	order  []string
	totals map[string]btcutil.Amount
}

func newAssetTotals() *assetTotals {
	return &assetTotals{totals: make(map[string]btcutil.Amount)}
}

func (a *assetTotals) add(asset string, amount btcutil.Amount) {
	if _, ok := a.totals[asset]; !ok {
		a.order = append(a.order, asset)
	}
	a.totals[asset] += amount
}

// assetOutput returns the output paying amount of asset to addr.  Asset
// outputs carry a zero base value and the asset tag.
func assetOutput(addr, asset string, amount btcutil.Amount,
	net *netparams.Params) (*txn.Output, error) {

	if asset == BaseAsset {
		pkScript, err := payments.AddressToScript(addr, net, nil)
		if err != nil {
			return nil, err
		}
		return &txn.Output{Value: int64(amount), Script: pkScript}, nil
	}

	pkScript, err := payments.AddressToScript(addr, net, &script.Asset{
		Name:   asset,
		Amount: uint64(amount),
	})
	if err != nil {
		return nil, err
	}
	return &txn.Output{Script: pkScript}, nil
}

// NewUnsignedTransaction creates an unsigned transaction spending every input
// and paying every recipient.  The fee is charged at feeRate base units per
// estimated byte, where the size counts the inputs and the recipient outputs.
//
// Each asset with input left over after its recipients, and after the fee for
// the base asset, receives a change output paying changeAddress.  Base asset
// change below the dust threshold is left to the fee.  If the inputs of any
// asset, including the base asset after the fee, are short of its recipients,
// an InsufficientFundsError naming the asset is returned.
func NewUnsignedTransaction(inputs []Utxo, recipients []Recipient,
	changeAddress string, feeRate btcutil.Amount,
	net *netparams.Params) (*AuthoredTx, error) {

	if net == nil {
		net = &netparams.MainNetParams
	}

	tx := txn.New()
	tx.Version = txn.DefaultVersion
	tx.LockTime = 0

	in := newAssetTotals()
	for _, utxo := range inputs {
		op := utxo.OutPoint
		tx.AddInput(&op.Hash, op.Index, txn.DefaultSequence, nil)
		in.add(NormalizeAsset(utxo.Asset), utxo.Value)
	}

	out := newAssetTotals()
	for i, r := range recipients {
		asset := NormalizeAsset(r.Asset)
		if r.Amount <= 0 {
			return nil, fmt.Errorf("recipient %d: %w", i,
				ErrInvalidRecipient)
		}

		output, err := assetOutput(r.Address, asset, r.Amount, net)
		if err != nil {
			return nil, fmt.Errorf("recipient %d: %w", i, err)
		}
		if asset == BaseAsset {
			err := txrules.CheckOutput(
				output, txrules.DefaultDustThreshold,
			)
			if err != nil {
				return nil, fmt.Errorf("recipient %d: %w", i, err)
			}
		}
		if _, err := tx.AddOutput(output.Script, output.Value); err != nil {
			return nil, err
		}
		out.add(asset, r.Amount)
	}

	size := txsizes.EstimateSize(len(inputs), len(recipients))
	fee := txrules.FeeForSize(feeRate, size)

	// Assets are settled in the order they first appear over the inputs
	// and then the recipients.
	assets := append([]string(nil), in.order...)
	for _, asset := range out.order {
		if _, ok := in.totals[asset]; !ok {
			assets = append(assets, asset)
		}
	}
	if _, ok := in.totals[BaseAsset]; !ok && fee > 0 {
		assets = append(assets, BaseAsset)
	}

	authored := &AuthoredTx{
		Tx:            tx,
		Inputs:        inputs,
		Fee:           fee,
		ChangeIndexes: make(map[string]int),
	}
	for _, asset := range assets {
		change := in.totals[asset] - out.totals[asset]
		if asset == BaseAsset {
			change -= fee
		}
		if change < 0 {
			return nil, InsufficientFundsError{
				Asset:     asset,
				Target:    in.totals[asset] - change,
				Available: in.totals[asset],
			}
		}
		if change == 0 {
			continue
		}
		if asset == BaseAsset && txrules.IsDustAmount(
			change, txrules.DefaultDustThreshold) {

			log.Debugf("Leaving dust change of %v to the fee", change)
			authored.Fee += change
			continue
		}

		output, err := assetOutput(changeAddress, asset, change, net)
		if err != nil {
			return nil, fmt.Errorf("change address: %w", err)
		}
		idx, err := tx.AddOutput(output.Script, output.Value)
		if err != nil {
			return nil, err
		}
		authored.ChangeIndexes[asset] = idx
	}

	log.Debugf("Authored transaction %v with %d %s, %d %s and fee %v",
		newLogClosure(tx.TxID), len(tx.Inputs),
		pickNoun(len(tx.Inputs), "input", "inputs"), len(tx.Outputs),
		pickNoun(len(tx.Outputs), "output", "outputs"), authored.Fee)
	log.Tracef("Change outputs: %v", newLogClosure(func() string {
		return spew.Sdump(authored.ChangeIndexes)
	}))

	return authored, nil
}

// SumOutputValues sums up the base value of a list of outputs.
func SumOutputValues(outputs []*txn.Output) (totalOutput btcutil.Amount) {
	for _, out := range outputs {
		totalOutput += btcutil.Amount(out.Value)
	}
	return totalOutput
}
