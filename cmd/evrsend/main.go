// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/satorinet/evrwallet/internal/cfgutil"
	"github.com/satorinet/evrwallet/internal/prompt"
	"github.com/satorinet/evrwallet/internal/zero"
	"github.com/satorinet/evrwallet/netparams"
	"github.com/satorinet/evrwallet/payments"
	"github.com/satorinet/evrwallet/wallet"
	"github.com/satorinet/evrwallet/wallet/txauthor"
)

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintln(os.Stderr)
	os.Exit(1)
}

func errContext(err error, context string) error {
	return fmt.Errorf("%s: %w", context, err)
}

func main() {
	cfg, net, err := loadConfig(os.Args[1:])
	if err != nil {
		var flagErr *flags.Error
		if errors.As(err, &flagErr) {
			// The parser already printed the message.
			if flagErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
			os.Exit(1)
		}
		fatalf("%v", err)
	}

	err = initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))
	if err != nil {
		fatalf("%v", err)
	}
	defer logRotator.Close()
	setLogLevels(cfg.DebugLevel)

	stdin := bufio.NewReader(os.Stdin)
	err = run(cfg, net, stdin, os.Stdout, prompt.PrivateKey)
	if err != nil {
		log.Errorf("%v", err)
		logRotator.Close()
		os.Exit(1)
	}
}

// keyReader reads a WIF encoded private key.
type keyReader func(*bufio.Reader) ([]byte, error)

// run executes the mode selected by cfg and writes its result to out.
func run(cfg *config, net *netparams.Params, stdin *bufio.Reader,
	out io.Writer, readKey keyReader) error {

	switch {
	case len(cfg.Finalize) > 0:
		return finalize(cfg, net, out)

	case cfg.Sign != "":
		b64, err := readPsbtFile(cfg.Sign)
		if err != nil {
			return err
		}
		signer, err := readSigner(stdin, net, readKey)
		if err != nil {
			return err
		}
		defer signer.Zero()

		signed, err := wallet.SignPsbt(b64, signer, net)
		if err != nil {
			return errContext(err, "failed to sign psbt")
		}
		_, err = fmt.Fprintln(out, signed)
		return err
	}

	return send(cfg, net, stdin, out, readKey)
}

// send pays the recipients from the utxo file.  It writes the unsigned PSBT
// or the signed transaction.
func send(cfg *config, net *netparams.Params, stdin *bufio.Reader,
	out io.Writer, readKey keyReader) error {

	recipients := make([]txauthor.Recipient, 0, len(cfg.Recipients))
	for _, s := range cfg.Recipients {
		r, err := parseRecipient(s, net)
		if err != nil {
			return err
		}
		recipients = append(recipients, r)
	}

	exists, err := cfgutil.FileExists(cfg.UtxoFile)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("utxo file %s not found", cfg.UtxoFile)
	}
	f, err := os.Open(cfg.UtxoFile)
	if err != nil {
		return errContext(err, "failed to open utxo file")
	}
	pool, err := readUtxos(f)
	f.Close()
	if err != nil {
		return err
	}

	utxos, err := txauthor.SelectUtxos(pool, recipients, cfg.Dust.Amount)
	if err != nil {
		return errContext(err, "failed to select utxos")
	}
	log.Infof("Selected %d of %d utxos", len(utxos), len(pool))

	var signer *wallet.PrivKeySigner
	if !cfg.Unsigned {
		signer, err = readSigner(stdin, net, readKey)
		if err != nil {
			return err
		}
		defer signer.Zero()
	}

	changeAddress := cfg.Change.Value
	if !cfg.Change.ExplicitlySet() {
		p, err := payments.NewP2PKH(payments.P2PKHArgs{
			Network: net,
			PubKey:  signer.PubKey(),
		})
		if err != nil {
			return err
		}
		changeAddress = p.Address()
	}

	unsigned, err := wallet.CreateUnsignedPsbt(
		utxos, recipients, changeAddress, btcutil.Amount(cfg.FeeRate),
		net,
	)
	if err != nil {
		return errContext(err, "failed to create transaction")
	}

	if !cfg.Yes {
		ok, err := confirmPsbt(stdin, unsigned, recipients, net)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("cancelled")
		}
	}

	if cfg.Unsigned {
		_, err := fmt.Fprintln(out, unsigned)
		return err
	}

	signed, err := wallet.SignPsbt(unsigned, signer, net)
	if err != nil {
		return errContext(err, "failed to sign transaction")
	}
	tx, err := wallet.FinalizePsbt(net, signed)
	if err != nil {
		return errContext(err, "failed to finalize transaction")
	}

	log.Infof("Signed transaction %v", tx.TxID())
	_, err = fmt.Fprintln(out, tx.ToHex())
	return err
}

// finalize combines the PSBT files of cfg and writes the signed transaction.
func finalize(cfg *config, net *netparams.Params, out io.Writer) error {
	b64s := make([]string, 0, len(cfg.Finalize))
	for _, path := range cfg.Finalize {
		b64, err := readPsbtFile(path)
		if err != nil {
			return err
		}
		b64s = append(b64s, b64)
	}

	tx, err := wallet.FinalizePsbt(net, b64s...)
	if err != nil {
		return errContext(err, "failed to finalize psbt")
	}
	_, err = fmt.Fprintln(out, tx.ToHex())
	return err
}

// confirmPsbt prints what the transaction pays and asks to continue.
func confirmPsbt(stdin *bufio.Reader, b64 string,
	recipients []txauthor.Recipient, net *netparams.Params) (bool, error) {

	p, err := wallet.NewPsbtFromBase64(b64, net)
	if err != nil {
		return false, err
	}
	fee, err := p.Fee()
	if err != nil {
		return false, err
	}

	for _, r := range recipients {
		fmt.Fprintf(os.Stderr, "Pay %s %s to %s\n",
			cfgutil.FormatAmount(r.Amount), r.Asset, r.Address)
	}
	fmt.Fprintf(os.Stderr, "Fee %s %s\n", cfgutil.FormatAmount(fee),
		txauthor.BaseAsset)

	return prompt.Confirm(stdin, "Continue", "no")
}

func readPsbtFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", errContext(err, "failed to read psbt")
	}
	return strings.TrimSpace(string(b)), nil
}

// readSigner prompts for a private key and clears the typed in copy once the
// signer is built.
func readSigner(stdin *bufio.Reader, net *netparams.Params,
	readKey keyReader) (*wallet.PrivKeySigner, error) {

	wif, err := readKey(stdin)
	if err != nil {
		return nil, errContext(err, "failed to read private key")
	}
	defer zero.Bytes(wif)

	signer, err := wallet.SignerFromWIF(string(wif), net)
	if err != nil {
		return nil, errContext(err, "invalid private key")
	}
	return signer, nil
}
