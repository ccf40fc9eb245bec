// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/satorinet/evrwallet/netparams"
	"github.com/satorinet/evrwallet/txn"
	"github.com/satorinet/evrwallet/wallet/txauthor"
)

// NewPsbtFromAuthoredTx returns a Psbt for an authored transaction with the
// previous transaction of every input attached.
func NewPsbtFromAuthoredTx(authored *txauthor.AuthoredTx,
	net *netparams.Params) (*Psbt, error) {

	p, err := NewPsbtFromTx(authored.Tx, net)
	if err != nil {
		return nil, err
	}

	for i, utxo := range authored.Inputs {
		if utxo.PrevTx == nil {
			return nil, &InputError{Index: i, Err: ErrMissingUtxo}
		}
		err := p.UpdateInput(i, &InputUpdate{NonWitnessUtxo: utxo.PrevTx})
		if err != nil {
			return nil, &InputError{Index: i, Err: err}
		}
	}

	return p, nil
}

// CreateUnsignedPsbt authors a transaction spending every utxo to the
// recipients, paying feeRate base units per estimated byte and returning
// change to changeAddress.  The result is the base64 encoded Psbt.
func CreateUnsignedPsbt(utxos []txauthor.Utxo,
	recipients []txauthor.Recipient, changeAddress string,
	feeRate btcutil.Amount, net *netparams.Params) (string, error) {

	authored, err := txauthor.NewUnsignedTransaction(
		utxos, recipients, changeAddress, feeRate, net,
	)
	if err != nil {
		return "", err
	}

	p, err := NewPsbtFromAuthoredTx(authored, net)
	if err != nil {
		return "", err
	}

	log.Infof("Created unsigned transaction %v spending %d %s with "+
		"fee %v", authored.Tx.TxID(), len(utxos),
		pickNoun(len(utxos), "input", "inputs"), authored.Fee)

	return p.B64Encode()
}

// SignPsbt signs every input of a base64 encoded Psbt that signer can sign.
// Inputs it can not sign are logged and left as they were; it is an error
// only when no input was signed.
func SignPsbt(b64 string, signer Signer, net *netparams.Params) (string,
	error) {

	p, err := NewPsbtFromBase64(b64, net)
	if err != nil {
		return "", err
	}

	err = p.SignAllInputs(signer)
	var batchErr *BatchError
	switch {
	case errors.As(err, &batchErr) &&
		len(batchErr.Errors) == p.InputCount():

		return "", fmt.Errorf("no inputs were signed: %w", err)

	case err != nil:
		log.Warnf("Unable to sign every input: %v", err)
	}

	return p.B64Encode()
}

// FinalizePsbt combines base64 encoded Psbts of the same transaction,
// finalizes every input and returns the signed transaction.
func FinalizePsbt(net *netparams.Params, b64s ...string) (*txn.Tx, error) {
	if len(b64s) == 0 {
		return nil, errors.New("no psbt to finalize")
	}

	packets := make([]*Psbt, 0, len(b64s))
	for i, b64 := range b64s {
		p, err := NewPsbtFromBase64(b64, net)
		if err != nil {
			return nil, fmt.Errorf("psbt %d: %w", i, err)
		}
		packets = append(packets, p)
	}

	p := packets[0]
	if err := p.Combine(packets[1:]...); err != nil {
		return nil, err
	}

	finalizeErr := p.FinalizeAllInputs()
	if finalizeErr != nil {
		log.Warnf("Unable to finalize every input: %v", finalizeErr)
	}

	tx, err := p.ExtractTransaction()
	if err != nil {
		return nil, errors.Join(err, finalizeErr)
	}

	log.Infof("Finalized transaction %v", tx.TxID())

	return tx, nil
}

// CreateTx authors, signs and finalizes a transaction spending every utxo
// with signer.  It returns the hex encoded signed transaction.
func CreateTx(signer Signer, utxos []txauthor.Utxo,
	recipients []txauthor.Recipient, changeAddress string,
	feeRate btcutil.Amount, net *netparams.Params) (string, error) {

	unsigned, err := CreateUnsignedPsbt(
		utxos, recipients, changeAddress, feeRate, net,
	)
	if err != nil {
		return "", err
	}
	signed, err := SignPsbt(unsigned, signer, net)
	if err != nil {
		return "", err
	}
	tx, err := FinalizePsbt(net, signed)
	if err != nil {
		return "", err
	}
	return tx.ToHex(), nil
}
