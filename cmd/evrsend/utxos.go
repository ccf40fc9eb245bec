// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/satorinet/evrwallet/internal/cfgutil"
	"github.com/satorinet/evrwallet/script"
	"github.com/satorinet/evrwallet/txn"
	"github.com/satorinet/evrwallet/wallet/txauthor"
	"github.com/shopspring/decimal"
)

// utxoJSON is one entry of the utxo file, as returned by an address index
// with the raw previous transaction attached.
type utxoJSON struct {
	TxID   string          `json:"txid"`
	Vout   uint32          `json:"vout"`
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
	Height int32           `json:"height"`
	PrevTx string          `json:"prevtx"`
}

// readUtxos decodes a JSON array of utxos and checks each one against its
// previous transaction.
func readUtxos(r io.Reader) ([]txauthor.Utxo, error) {
	var entries []utxoJSON
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("unable to decode utxos: %w", err)
	}

	utxos := make([]txauthor.Utxo, 0, len(entries))
	for i := range entries {
		utxo, err := parseUtxo(&entries[i])
		if err != nil {
			return nil, fmt.Errorf("utxo %d: %w", i, err)
		}
		utxos = append(utxos, utxo)
	}
	return utxos, nil
}

func parseUtxo(e *utxoJSON) (txauthor.Utxo, error) {
	hash, err := chainhash.NewHashFromStr(e.TxID)
	if err != nil {
		return txauthor.Utxo{}, err
	}
	value, err := cfgutil.AmountFromDecimal(e.Amount)
	if err != nil {
		return txauthor.Utxo{}, err
	}
	prevTx, err := txn.FromHex(e.PrevTx)
	if err != nil {
		return txauthor.Utxo{}, fmt.Errorf("invalid prevtx: %w", err)
	}
	if prevTx.Hash() != *hash {
		return txauthor.Utxo{}, fmt.Errorf("prevtx is %v, want %v",
			prevTx.TxID(), e.TxID)
	}
	if int(e.Vout) >= len(prevTx.Outputs) {
		return txauthor.Utxo{}, fmt.Errorf("prevtx has no output %d",
			e.Vout)
	}

	asset := txauthor.NormalizeAsset(e.Asset)
	if err := checkSpentOutput(prevTx.Outputs[e.Vout], asset,
		value); err != nil {

		return txauthor.Utxo{}, err
	}

	return txauthor.Utxo{
		OutPoint: *wire.NewOutPoint(hash, e.Vout),
		Asset:    asset,
		Value:    value,
		Height:   e.Height,
		PrevTx:   prevTx,
	}, nil
}

// checkSpentOutput makes sure the output holds value of asset.
func checkSpentOutput(out *txn.Output, asset string,
	value btcutil.Amount) error {

	_, tag, err := script.SplitAssetTag(out.Script)
	if err != nil {
		return err
	}

	if asset == txauthor.BaseAsset {
		if tag != nil {
			return fmt.Errorf("output carries %v, not the base asset",
				tag)
		}
		if btcutil.Amount(out.Value) != value {
			return fmt.Errorf("output holds %v, not %v",
				btcutil.Amount(out.Value), value)
		}
		return nil
	}

	if tag == nil || tag.Name != asset {
		return fmt.Errorf("output does not carry %s", asset)
	}
	if btcutil.Amount(tag.Amount) != value {
		return fmt.Errorf("output holds %d %s, not %d", tag.Amount,
			asset, value)
	}
	return nil
}
