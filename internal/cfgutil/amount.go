// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cfgutil

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/shopspring/decimal"
)

// amountDecimals is the number of decimal places of the base asset and of
// divisible assets.
const amountDecimals = 8

// AmountFlag embeds a btcutil.Amount and implements the flags.Marshaler and
// Unmarshaler interfaces so it can be used as a config struct field.
type AmountFlag struct {
	btcutil.Amount
}

// NewAmountFlag creates an AmountFlag with a default btcutil.Amount.
func NewAmountFlag(defaultValue btcutil.Amount) *AmountFlag {
	return &AmountFlag{defaultValue}
}

// MarshalFlag satisfies the flags.Marshaler interface.
func (a *AmountFlag) MarshalFlag() (string, error) {
	return FormatAmount(a.Amount), nil
}

// UnmarshalFlag satisfies the flags.Unmarshaler interface.
func (a *AmountFlag) UnmarshalFlag(value string) error {
	amount, err := ParseAmount(strings.TrimSuffix(value, " EVR"))
	if err != nil {
		return err
	}
	a.Amount = amount
	return nil
}

// ParseAmount parses a decimal amount in whole units, such as "1.5", into
// base units.  More than eight decimal places is an error, as is a negative
// amount.  Parsing is exact: no floating point rounding takes place.
func ParseAmount(value string) (btcutil.Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return AmountFromDecimal(d)
}

// AmountFromDecimal converts an amount in whole units into base units.
func AmountFromDecimal(d decimal.Decimal) (btcutil.Amount, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %v is negative", d)
	}
	units := d.Shift(amountDecimals)
	if !units.IsInteger() {
		return 0, fmt.Errorf("amount %v has more than %d decimal places",
			d, amountDecimals)
	}
	if units.GreaterThan(decimal.NewFromInt(btcutil.MaxSatoshi * 1000)) {
		return 0, fmt.Errorf("amount %v is too large", d)
	}
	return btcutil.Amount(units.IntPart()), nil
}

// FormatAmount formats base units as a decimal amount in whole units without
// trailing zeros.
func FormatAmount(amount btcutil.Amount) string {
	return decimal.New(int64(amount), -amountDecimals).String()
}
