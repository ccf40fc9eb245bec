// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txrules

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/satorinet/evrwallet/script"
	"github.com/satorinet/evrwallet/txn"
)

// DefaultDustThreshold is the smallest base asset value treated as
// spendable.
const DefaultDustThreshold btcutil.Amount = 546

// MaxAmount is the largest base asset value an output may carry.
const MaxAmount = btcutil.Amount(21e9 * btcutil.SatoshiPerBitcoin)

// IsDustAmount determines whether an amount is below the dust threshold.
func IsDustAmount(amount, threshold btcutil.Amount) bool {
	return amount < threshold
}

// IsDustOutput determines whether a transaction output is dust.  Outputs
// carrying an asset tag are never dust.
func IsDustOutput(output *txn.Output, threshold btcutil.Amount) bool {
	if _, asset, err := script.SplitAssetTag(output.Script); err == nil &&
		asset != nil {

		return false
	}
	return IsDustAmount(btcutil.Amount(output.Value), threshold)
}

// Transaction rule violations
var (
	ErrAmountNegative   = errors.New("transaction output amount is negative")
	ErrAmountExceedsMax = errors.New("transaction output amount exceeds maximum value")
	ErrOutputIsDust     = errors.New("transaction output is dust")
)

// CheckOutput performs simple consensus and policy tests on a transaction
// output.
func CheckOutput(output *txn.Output, threshold btcutil.Amount) error {
	if output.Value < 0 {
		return ErrAmountNegative
	}
	if output.Value > int64(MaxAmount) {
		return ErrAmountExceedsMax
	}
	if IsDustOutput(output, threshold) {
		return ErrOutputIsDust
	}
	return nil
}

// FeeForSize calculates the fee of a transaction of the given size at
// feeRate base units per byte.
func FeeForSize(feeRate btcutil.Amount, size int) btcutil.Amount {
	return feeRate * btcutil.Amount(size)
}
