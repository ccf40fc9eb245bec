// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txsizes provides transaction size estimates used to compute fees.
package txsizes

import (
	"github.com/btcsuite/btcd/wire"
	"github.com/satorinet/evrwallet/txn"
)

// Fixed weights of the flat fee model.  Every input is charged as a
// worst-case redeem of any standard template and every recipient output as a
// P2PKH output.
const (
	// EstimatedInputSize is charged per transaction input.
	EstimatedInputSize = 180

	// EstimatedOutputSize is charged per recipient output.
	EstimatedOutputSize = 34

	// EstimatedOverhead is charged once per transaction.
	EstimatedOverhead = 10
)

// Worst case script and input/output size estimates.
const (
	// RedeemP2PKHSigScriptSize is the worst case (largest) serialize size
	// of a transaction input script that redeems a compressed P2PKH output.
	// It is calculated as:
	//
	//   - OP_DATA_73
	//   - 72 bytes DER signature + 1 byte sighash
	//   - OP_DATA_33
	//   - 33 bytes serialized compressed pubkey
	RedeemP2PKHSigScriptSize = 1 + 73 + 1 + 33

	// P2PKHPkScriptSize is the size of a transaction output script that
	// pays to a compressed pubkey hash.  It is calculated as:
	//
	//   - OP_DUP
	//   - OP_HASH160
	//   - OP_DATA_20
	//   - 20 bytes pubkey hash
	//   - OP_EQUALVERIFY
	//   - OP_CHECKSIG
	P2PKHPkScriptSize = 1 + 1 + 1 + 20 + 1 + 1

	// P2SHPkScriptSize is the size of a transaction output script that
	// pays to a script hash.  It is calculated as:
	//
	//   - OP_HASH160
	//   - OP_DATA_20
	//   - 20 bytes script hash
	//   - OP_EQUAL
	P2SHPkScriptSize = 1 + 1 + 20 + 1

	// RedeemP2PKHInputSize is the worst case (largest) serialize size of a
	// transaction input redeeming a compressed P2PKH output.  It is
	// calculated as:
	//
	//   - 32 bytes previous tx
	//   - 4 bytes output index
	//   - 1 byte compact int encoding value 107
	//   - 107 bytes signature script
	//   - 4 bytes sequence
	RedeemP2PKHInputSize = 32 + 4 + 1 + RedeemP2PKHSigScriptSize + 4

	// P2PKHOutputSize is the serialize size of a transaction output with a
	// P2PKH output script.  It is calculated as:
	//
	//   - 8 bytes output value
	//   - 1 byte compact int encoding value 25
	//   - 25 bytes P2PKH output script
	P2PKHOutputSize = 8 + 1 + P2PKHPkScriptSize
)

// AssetTagSize returns the number of bytes an asset tag with a name of
// nameLen bytes adds to an output script.  It is calculated as:
//
//   - OP_EVR_ASSET
//   - 1 byte push length
//   - 4 bytes protocol id
//   - 1 byte name length
//   - nameLen bytes name
//   - 8 bytes amount
//   - OP_DROP
func AssetTagSize(nameLen int) int {
	return 1 + 1 + 4 + 1 + nameLen + 8 + 1
}

// EstimateSize returns the flat fee model size of a transaction with
// inputCount inputs and outputCount recipient outputs.
func EstimateSize(inputCount, outputCount int) int {
	return inputCount*EstimatedInputSize +
		outputCount*EstimatedOutputSize + EstimatedOverhead
}

// SumOutputSerializeSizes sums up the serialized size of the supplied outputs.
func SumOutputSerializeSizes(outputs []*txn.Output) (serializeSize int) {
	for _, out := range outputs {
		serializeSize += 8 +
			wire.VarIntSerializeSize(uint64(len(out.Script))) +
			len(out.Script)
	}
	return serializeSize
}

// EstimateSerializeSize returns a worst case serialize size estimate for a
// signed transaction that spends inputCount number of compressed P2PKH outputs
// and contains each transaction output from outputs.  The estimated size is
// incremented for an additional P2PKH change output if addChangeOutput is true.
func EstimateSerializeSize(inputCount int, outputs []*txn.Output,
	addChangeOutput bool) int {

	changeSize := 0
	outputCount := len(outputs)
	if addChangeOutput {
		changeSize = P2PKHOutputSize
		outputCount++
	}

	// 8 additional bytes are for version and locktime
	return 8 + wire.VarIntSerializeSize(uint64(inputCount)) +
		wire.VarIntSerializeSize(uint64(outputCount)) +
		inputCount*RedeemP2PKHInputSize +
		SumOutputSerializeSizes(outputs) +
		changeSize
}
