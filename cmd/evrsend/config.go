// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/satorinet/evrwallet/internal/cfgutil"
	"github.com/satorinet/evrwallet/netparams"
	"github.com/satorinet/evrwallet/payments"
	"github.com/satorinet/evrwallet/wallet/txauthor"
	"github.com/satorinet/evrwallet/wallet/txrules"
)

const (
	defaultLogFilename = "evrsend.log"
	defaultLogLevel    = "info"
	defaultFeeRate     = 1010
	maxFeeRate         = 100000
)

var defaultLogDir = filepath.Join(btcutil.AppDataDir("evrsend", false), "logs")

// config holds the command line options.
type config struct {
	TestNet bool `long:"testnet" description:"Use the Evrmore test network"`
	RegTest bool `long:"regtest" description:"Use the Evrmore regression test network"`

	UtxoFile   string   `short:"u" long:"utxos" description:"JSON file of spendable outputs"`
	Recipients []string `short:"r" long:"recipient" description:"Payment as address:amount[:asset], may be repeated"`
	Change     *cfgutil.ExplicitString `long:"change" description:"Change address, defaults to the address of the signing key"`
	FeeRate    int64    `long:"feerate" description:"Fee in base units per estimated byte"`
	Dust       *cfgutil.AmountFlag `long:"dust" description:"Smallest base asset output worth spending or creating"`

	Unsigned bool     `long:"unsigned" description:"Write the unsigned PSBT instead of signing"`
	Sign     string   `long:"sign" description:"Sign the base64 PSBT in this file"`
	Finalize []string `long:"finalize" description:"Combine and finalize the base64 PSBTs in these files"`
	Yes      bool     `short:"y" long:"yes" description:"Do not ask for confirmation"`

	LogDir     string `long:"logdir" description:"Directory to log output"`
	DebugLevel string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
}

// loadConfig parses args into a config and returns it with the selected
// network.
func loadConfig(args []string) (*config, *netparams.Params, error) {
	cfg := config{
		Change:     cfgutil.NewExplicitString(""),
		FeeRate:    defaultFeeRate,
		Dust:       cfgutil.NewAmountFlag(txrules.DefaultDustThreshold),
		LogDir:     defaultLogDir,
		DebugLevel: defaultLogLevel,
	}

	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, nil, err
	}

	if cfg.TestNet && cfg.RegTest {
		return nil, nil, errors.New("multiple networks may not be " +
			"used simultaneously")
	}
	net := &netparams.MainNetParams
	switch {
	case cfg.TestNet:
		net = &netparams.TestNetParams
	case cfg.RegTest:
		net = &netparams.RegressionNetParams
	}

	modes := 0
	if cfg.Sign != "" {
		modes++
	}
	if len(cfg.Finalize) > 0 {
		modes++
	}
	if len(cfg.Recipients) > 0 {
		modes++
	}
	switch {
	case modes == 0:
		return nil, nil, errors.New("one of --recipient, --sign or " +
			"--finalize is required")
	case modes > 1:
		return nil, nil, errors.New("--recipient, --sign and " +
			"--finalize may not be combined")
	case len(cfg.Recipients) > 0 && cfg.UtxoFile == "":
		return nil, nil, errors.New("--utxos is required to pay " +
			"recipients")
	case cfg.Unsigned && len(cfg.Recipients) == 0:
		return nil, nil, errors.New("--unsigned only applies to " +
			"--recipient")
	case cfg.Unsigned && !cfg.Change.ExplicitlySet():
		return nil, nil, errors.New("--unsigned requires --change")
	}

	if cfg.FeeRate < 0 {
		return nil, nil, fmt.Errorf("fee rate %d is negative", cfg.FeeRate)
	}
	if cfg.FeeRate > maxFeeRate {
		return nil, nil, fmt.Errorf("fee rate %d/byte is exceptionally "+
			"high", cfg.FeeRate)
	}
	if cfg.Change.ExplicitlySet() {
		_, err := payments.AddressToScript(cfg.Change.Value, net, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid change address: %w",
				err)
		}
	}

	return &cfg, net, nil
}

// parseRecipient parses a payment given as address:amount or
// address:amount:asset.
func parseRecipient(s string, net *netparams.Params) (txauthor.Recipient,
	error) {

	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return txauthor.Recipient{}, fmt.Errorf("recipient %q is not "+
			"address:amount[:asset]", s)
	}

	if _, err := payments.AddressToScript(parts[0], net, nil); err != nil {
		return txauthor.Recipient{}, fmt.Errorf("recipient %q: %w", s,
			err)
	}
	amount, err := cfgutil.ParseAmount(parts[1])
	if err != nil {
		return txauthor.Recipient{}, fmt.Errorf("recipient %q: %w", s,
			err)
	}
	if amount == 0 {
		return txauthor.Recipient{}, fmt.Errorf("recipient %q pays "+
			"nothing", s)
	}

	asset := txauthor.BaseAsset
	if len(parts) == 3 {
		asset = txauthor.NormalizeAsset(strings.TrimSpace(parts[2]))
	}

	return txauthor.Recipient{
		Address: parts[0],
		Asset:   asset,
		Amount:  amount,
	}, nil
}
