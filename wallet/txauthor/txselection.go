// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"errors"
	"sort"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/satorinet/evrwallet/wallet/txrules"
)

var (
	// ErrNoUtxos is returned when selecting from an empty pool.
	ErrNoUtxos = errors.New("no utxos to select from")

	// ErrNoRecipients is returned when selecting for no recipients.
	ErrNoRecipients = errors.New("no recipients")

	// ErrInvalidRecipient is returned for a recipient without an amount.
	ErrInvalidRecipient = errors.New("recipient amount must be positive")

	// ErrNoFeeInput is returned when no base asset output is available to
	// pay the fee.
	ErrNoFeeInput = errors.New("no base asset utxo available to cover " +
		"transaction fees")
)

// inputState holds the outputs of one asset selected so far.
type inputState struct {
	// asset is the normalized asset the state selects for.
	asset string

	// targetAmount is the amount the recipients of the asset request.
	targetAmount btcutil.Amount

	// inputTotal is the total value of all selected inputs.
	inputTotal btcutil.Amount

	// inputs are the selected outputs, largest first.
	inputs []Utxo
}

// enoughInput returns true if the selected inputs pay the target amount.
func (t *inputState) enoughInput() bool {
	return t.inputTotal >= t.targetAmount
}

func (t *inputState) add(input Utxo) {
	input.Asset = t.asset
	t.inputs = append(t.inputs, input)
	t.inputTotal += input.Value
}

// spendable returns the non-dust outputs of asset in pool, largest first.
func spendable(pool []Utxo, asset string, dust btcutil.Amount) []Utxo {
	var candidates []Utxo
	for _, utxo := range pool {
		if NormalizeAsset(utxo.Asset) != asset {
			continue
		}
		if txrules.IsDustAmount(utxo.Value, dust) {
			continue
		}
		candidates = append(candidates, utxo)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Value > candidates[j].Value
	})

	return candidates
}

// SelectUtxos selects outputs from pool to pay recipients.  Recipients are
// grouped by asset in order of first appearance.  For each asset the outputs
// of that asset at or above the dust threshold are taken largest first until
// they cover the requested total; an InsufficientFundsError naming the asset
// is returned when the pool runs out first.
//
// When no base asset output was selected this way, the largest spendable base
// asset output is added so the transaction can pay its fee, or ErrNoFeeInput
// is returned if there is none.  The returned outputs carry normalized asset
// names.
func SelectUtxos(pool []Utxo, recipients []Recipient,
	dust btcutil.Amount) ([]Utxo, error) {

	if len(pool) == 0 {
		return nil, ErrNoUtxos
	}
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}

	var states []*inputState
	byAsset := make(map[string]*inputState)
	for _, r := range recipients {
		if r.Amount <= 0 {
			return nil, ErrInvalidRecipient
		}

		asset := NormalizeAsset(r.Asset)
		state, ok := byAsset[asset]
		if !ok {
			state = &inputState{asset: asset}
			byAsset[asset] = state
			states = append(states, state)
		}
		state.targetAmount += r.Amount
	}

	var selected []Utxo
	for _, state := range states {
		for _, utxo := range spendable(pool, state.asset, dust) {
			state.add(utxo)
			if state.enoughInput() {
				break
			}
		}
		if !state.enoughInput() {
			return nil, InsufficientFundsError{
				Asset:     state.asset,
				Target:    state.targetAmount,
				Available: state.inputTotal,
			}
		}

		log.Debugf("Selected %d %s for %v of %s",
			len(state.inputs),
			pickNoun(len(state.inputs), "utxo", "utxos"),
			state.targetAmount, state.asset)

		selected = append(selected, state.inputs...)
	}

	if _, ok := byAsset[BaseAsset]; !ok {
		candidates := spendable(pool, BaseAsset, dust)
		if len(candidates) == 0 {
			return nil, ErrNoFeeInput
		}

		fee := &inputState{asset: BaseAsset}
		fee.add(candidates[0])
		selected = append(selected, fee.inputs...)
	}

	return selected, nil
}
