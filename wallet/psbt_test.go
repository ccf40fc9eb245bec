// Copyright (c) 2020 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/satorinet/evrwallet/payments"
	"github.com/satorinet/evrwallet/script"
	"github.com/satorinet/evrwallet/txn"
	"github.com/stretchr/testify/require"
)

func testSigner(seed byte) *PrivKeySigner {
	key, _ := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{seed}, 32))
	return NewPrivKeySigner(key, true)
}

func p2pkhScript(t *testing.T, s Signer, asset *script.Asset) []byte {
	t.Helper()

	p, err := payments.NewP2PKH(payments.P2PKHArgs{
		PubKey: s.PubKey(),
		Asset:  asset,
	})
	require.NoError(t, err)
	return p.Output()
}

// fundingTx returns a transaction paying value to each script.
func fundingTx(t *testing.T, seed byte, value int64,
	pkScripts ...[]byte) *txn.Tx {

	t.Helper()

	tx := txn.New()
	tx.AddInput(&chainhash.Hash{seed}, 0, txn.DefaultSequence, []byte{0x51})
	for _, pkScript := range pkScripts {
		_, err := tx.AddOutput(pkScript, value)
		require.NoError(t, err)
	}
	return tx
}

// twoInputPsbt spends one output paying signer a and one paying signer b.
func twoInputPsbt(t *testing.T, a, b Signer) *Psbt {
	t.Helper()

	prev := fundingTx(t, 1, 50000,
		p2pkhScript(t, a, nil), p2pkhScript(t, b, nil))
	prevHash := prev.Hash()

	p := NewPsbt(nil)
	for i := uint32(0); i < 2; i++ {
		idx, err := p.AddInput(&prevHash, i, &InputUpdate{
			NonWitnessUtxo: prev,
		})
		require.NoError(t, err)
		require.Equal(t, int(i), idx)
	}
	_, err := p.AddOutput(&OutputArgs{
		Script: p2pkhScript(t, a, nil),
		Value:  90000,
	})
	require.NoError(t, err)

	return p
}

func requireState(t *testing.T, p *Psbt, index int, want InputState) {
	t.Helper()

	got, err := p.InputState(index)
	require.NoError(t, err)
	require.Equal(t, want, got, "input %d is %v", index, got)
}

// verifyInputs checks the input script of every input is a P2PKH spend whose
// signature verifies against the previous output script.
func verifyInputs(t *testing.T, tx *txn.Tx, prevScripts [][]byte) {
	t.Helper()

	for i, in := range tx.Inputs {
		chunks, err := script.Decompile(in.Script)
		require.NoError(t, err)
		require.Len(t, chunks, 2, "input %d", i)

		p, err := payments.NewP2PKH(payments.P2PKHArgs{
			Output: prevScripts[i],
			Input:  in.Script,
		})
		require.NoError(t, err, "input %d", i)

		compact, hashType, err := script.DecodeSignature(p.Signature())
		require.NoError(t, err)
		require.Equal(t, txscript.SigHashAll, hashType)

		// Signatures commit to the transaction without input scripts.
		unsigned := tx.Clone()
		for _, in := range unsigned.Inputs {
			in.Script = nil
		}
		hash, err := unsigned.HashForSignature(
			i, prevScripts[i], hashType,
		)
		require.NoError(t, err)

		pubKey, err := btcec.ParsePubKey(p.PubKey())
		require.NoError(t, err)
		der := p.Signature()[:len(p.Signature())-1]
		sig, err := ecdsa.ParseDERSignature(der)
		require.NoError(t, err)
		require.True(t, sig.Verify(hash, pubKey), "input %d", i)
		require.Len(t, compact, script.CompactSigLen)
	}
}

// TestInputStates walks a single P2PKH input through every state.
func TestInputStates(t *testing.T) {
	t.Parallel()

	signer := testSigner(1)
	prev := fundingTx(t, 1, 50000, p2pkhScript(t, signer, nil))
	prevHash := prev.Hash()

	p := NewPsbt(nil)
	_, err := p.AddInput(&prevHash, 0, nil)
	require.NoError(t, err)
	_, err = p.AddOutput(&OutputArgs{
		Address: "EQ2dsWBZAJCUJsNTFm1aDY4BQHXTmFRGK5",
		Value:   40000,
	})
	require.NoError(t, err)
	requireState(t, p, 0, InputEmpty)

	require.ErrorIs(t, p.SignInput(0, signer), ErrMissingUtxo)

	err = p.UpdateInput(0, &InputUpdate{NonWitnessUtxo: prev})
	require.NoError(t, err)
	requireState(t, p, 0, InputHasUtxo)

	fee, err := p.Fee()
	require.NoError(t, err)
	require.Equal(t, btcutil.Amount(10000), fee)

	require.NoError(t, p.SignInput(0, signer))
	requireState(t, p, 0, InputPartiallySigned)

	ok, err := p.ValidateSignaturesOfInput(0, nil)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = p.ValidateSignaturesOfInput(0, signer.PubKey())
	require.NoError(t, err)
	require.True(t, ok)
	_, err = p.ValidateSignaturesOfInput(0, testSigner(2).PubKey())
	require.ErrorIs(t, err, ErrNoSignatures)

	// Signing again replaces the signature.
	require.NoError(t, p.SignInput(0, signer))
	require.Len(t, p.Packet().Inputs[0].PartialSigs, 1)

	require.NoError(t, p.FinalizeInput(0))
	requireState(t, p, 0, InputFinalized)
	require.Nil(t, p.Packet().Inputs[0].PartialSigs)

	require.ErrorIs(t, p.SignInput(0, signer), ErrInputFinalized)
	require.ErrorIs(t, p.FinalizeInput(0), ErrInputFinalized)
	err = p.UpdateInput(0, &InputUpdate{RedeemScript: []byte{0x51}})
	require.ErrorIs(t, err, ErrInputFinalized)

	tx, err := p.ExtractTransaction()
	require.NoError(t, err)
	verifyInputs(t, tx, [][]byte{prev.Outputs[0].Script})

	_, err = p.InputState(1)
	require.ErrorIs(t, err, ErrInputIndex)
}

// TestFinalizeAllInputsPartial finalizes a packet where only one input is
// signed.
func TestFinalizeAllInputsPartial(t *testing.T) {
	t.Parallel()

	a, b := testSigner(1), testSigner(2)
	p := twoInputPsbt(t, a, b)

	err := p.SignAllInputs(a)
	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	require.Equal(t, []int{1}, batchErr.Indexes())
	require.ErrorIs(t, err, ErrKeyNotInScript)
	requireState(t, p, 0, InputPartiallySigned)
	requireState(t, p, 1, InputHasUtxo)

	err = p.FinalizeAllInputs()
	require.ErrorAs(t, err, &batchErr)
	require.Equal(t, []int{1}, batchErr.Indexes())
	require.ErrorIs(t, err, ErrIncompleteSignatures)
	requireState(t, p, 0, InputFinalized)
	requireState(t, p, 1, InputHasUtxo)

	_, err = p.ExtractTransaction()
	require.ErrorIs(t, err, ErrNotFinalized)

	// The remaining input can still be signed and finalized.
	require.NoError(t, p.SignAllInputs(b))
	require.NoError(t, p.FinalizeAllInputs())
	_, err = p.ExtractTransaction()
	require.NoError(t, err)
}

// TestCombine merges packets holding signatures of different inputs.
func TestCombine(t *testing.T) {
	t.Parallel()

	a, b := testSigner(1), testSigner(2)
	p := twoInputPsbt(t, a, b)

	first, err := p.Clone()
	require.NoError(t, err)
	second, err := p.Clone()
	require.NoError(t, err)

	require.NoError(t, first.SignInput(0, a))
	require.NoError(t, second.SignInput(1, b))

	require.NoError(t, first.Combine(second))
	requireState(t, first, 0, InputPartiallySigned)
	requireState(t, first, 1, InputPartiallySigned)

	// The other side is untouched.
	requireState(t, second, 0, InputHasUtxo)

	require.NoError(t, first.FinalizeAllInputs())
	tx, err := first.ExtractTransaction()
	require.NoError(t, err)
	verifyInputs(t, tx, [][]byte{
		p2pkhScript(t, a, nil), p2pkhScript(t, b, nil),
	})

	// Packets of different transactions do not combine.
	other := twoInputPsbt(t, a, b)
	require.NoError(t, other.SetLocktime(10))
	require.ErrorIs(t, p.Combine(other), ErrTxMismatch)

	// Conflicting scripts leave the receiver unchanged.
	left, err := p.Clone()
	require.NoError(t, err)
	right, err := p.Clone()
	require.NoError(t, err)
	require.NoError(t, left.UpdateInput(0, &InputUpdate{
		SighashType: txscript.SigHashAll,
	}))
	require.NoError(t, right.UpdateInput(0, &InputUpdate{
		SighashType: txscript.SigHashNone,
	}))
	require.NoError(t, left.SignInput(1, b))
	require.ErrorIs(t, left.Combine(right), ErrConflictingField)
	require.Equal(t, txscript.SigHashAll,
		left.Packet().Inputs[0].SighashType)
}

// TestP2SHMultisig signs a 2-of-3 P2SH input on separate copies.
func TestP2SHMultisig(t *testing.T) {
	t.Parallel()

	signers := []*PrivKeySigner{testSigner(1), testSigner(2), testSigner(3)}
	pubKeys := make([][]byte, 0, len(signers))
	for _, s := range signers {
		pubKeys = append(pubKeys, s.PubKey())
	}

	addr, redeemScript, err := MultisigAddress(2, pubKeys, nil)
	require.NoError(t, err)
	pkScript, err := payments.AddressToScript(addr, nil, nil)
	require.NoError(t, err)

	prev := fundingTx(t, 7, 100000, pkScript)
	prevHash := prev.Hash()

	p := NewPsbt(nil)
	_, err = p.AddInput(&prevHash, 0, &InputUpdate{NonWitnessUtxo: prev})
	require.NoError(t, err)
	_, err = p.AddOutput(&OutputArgs{Script: pkScript, Value: 90000})
	require.NoError(t, err)

	require.ErrorIs(t, p.SignInput(0, signers[0]), ErrMissingRedeemScript)
	err = p.UpdateInput(0, &InputUpdate{RedeemScript: []byte{0x51}})
	require.ErrorIs(t, err, ErrRedeemScriptMismatch)
	requireState(t, p, 0, InputHasUtxo)

	require.NoError(t, p.UpdateInput(0, &InputUpdate{
		RedeemScript: redeemScript,
	}))
	requireState(t, p, 0, InputHasScripts)

	// Signers 3 and 1 sign separate copies, out of key order.
	first, err := p.Clone()
	require.NoError(t, err)
	second, err := p.Clone()
	require.NoError(t, err)
	require.NoError(t, first.SignInput(0, signers[2]))
	require.NoError(t, second.SignInput(0, signers[0]))
	require.ErrorIs(t, first.SignInput(0, testSigner(4)),
		ErrKeyNotInScript)

	incomplete, err := first.Clone()
	require.NoError(t, err)
	require.ErrorIs(t, incomplete.FinalizeInput(0),
		ErrIncompleteSignatures)

	require.NoError(t, first.Combine(second))
	ok, err := first.ValidateSignaturesOfInput(0, nil)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, first.FinalizeInput(0))
	tx, err := first.ExtractTransaction()
	require.NoError(t, err)

	spend, err := payments.NewP2SH(payments.P2SHArgs{
		Output: pkScript,
		Input:  tx.Inputs[0].Script,
	})
	require.NoError(t, err)
	require.Equal(t, "p2sh-p2ms(2 of 3)", spend.Name())
	require.Equal(t, redeemScript, spend.Redeem().Output)

	// Signatures follow key order: signer 1 before signer 3.
	ms, err := payments.NewP2MS(payments.P2MSArgs{
		Output: redeemScript,
		Input:  spend.Redeem().Input,
	})
	require.NoError(t, err)
	sigs := ms.Signatures()
	require.Len(t, sigs, 2)

	unsigned := tx.Clone()
	unsigned.Inputs[0].Script = nil
	hash, err := unsigned.HashForSignature(0, redeemScript,
		txscript.SigHashAll)
	require.NoError(t, err)
	for i, keyIdx := range []int{0, 2} {
		der := sigs[i][:len(sigs[i])-1]
		sig, err := ecdsa.ParseDERSignature(der)
		require.NoError(t, err)
		pubKey, err := btcec.ParsePubKey(pubKeys[keyIdx])
		require.NoError(t, err)
		require.True(t, sig.Verify(hash, pubKey))
	}
}

// TestP2PKSpend signs and finalizes a bare public key output.
func TestP2PKSpend(t *testing.T) {
	t.Parallel()

	signer := testSigner(5)
	pk, err := payments.NewP2PK(payments.P2PKArgs{PubKey: signer.PubKey()})
	require.NoError(t, err)

	prev := fundingTx(t, 9, 1000, pk.Output())
	prevHash := prev.Hash()

	p := NewPsbt(nil)
	_, err = p.AddInput(&prevHash, 0, &InputUpdate{NonWitnessUtxo: prev})
	require.NoError(t, err)
	_, err = p.AddOutput(&OutputArgs{Script: pk.Output(), Value: 500})
	require.NoError(t, err)

	require.NoError(t, p.SignInput(0, signer))
	require.NoError(t, p.FinalizeInput(0))
	tx, err := p.ExtractTransaction()
	require.NoError(t, err)

	spend, err := payments.NewP2PK(payments.P2PKArgs{
		Output: pk.Output(),
		Input:  tx.Inputs[0].Script,
	})
	require.NoError(t, err)
	require.NotNil(t, spend.Signature())
}

// TestTransactionLocked checks the transaction can not change once signed.
func TestTransactionLocked(t *testing.T) {
	t.Parallel()

	a, b := testSigner(1), testSigner(2)
	p := twoInputPsbt(t, a, b)

	require.NoError(t, p.SetVersion(2))
	require.NoError(t, p.SetLocktime(100))
	require.NoError(t, p.SetInputSequence(0, 0xfffffffe))
	require.Equal(t, int32(2), p.Version())
	require.Equal(t, uint32(100), p.Locktime())

	require.NoError(t, p.SignInput(0, a))
	require.ErrorIs(t, p.SetVersion(1), ErrSignaturesExist)
	require.ErrorIs(t, p.SetLocktime(0), ErrSignaturesExist)
	require.ErrorIs(t, p.SetInputSequence(1, 0), ErrSignaturesExist)
	_, err := p.AddInput(&chainhash.Hash{9}, 0, nil)
	require.ErrorIs(t, err, ErrSignaturesExist)
	_, err = p.AddOutput(&OutputArgs{Script: []byte{0x51}})
	require.ErrorIs(t, err, ErrSignaturesExist)

	require.NoError(t, p.FinalizeInput(0))
	require.ErrorIs(t, p.SetVersion(1), ErrInputFinalized)
	_, err = p.AddOutput(&OutputArgs{Script: []byte{0x51}})
	require.ErrorIs(t, err, ErrInputFinalized)
}

func TestAddInputOutput(t *testing.T) {
	t.Parallel()

	signer := testSigner(1)
	satori := &script.Asset{Name: "SATORI", Amount: 5000000}
	tagged := p2pkhScript(t, signer, satori)
	prev := fundingTx(t, 1, 1000, tagged)
	prevHash := prev.Hash()

	p := NewPsbt(nil)
	_, err := p.AddInput(&prevHash, 0, nil)
	require.NoError(t, err)
	_, err = p.AddInput(&prevHash, 0, nil)
	require.ErrorIs(t, err, ErrDuplicateInput)

	// A previous transaction not holding the outpoint is rejected.
	_, err = p.AddInput(&prevHash, 1, &InputUpdate{NonWitnessUtxo: prev})
	require.ErrorIs(t, err, ErrPrevTxMismatch)
	err = p.UpdateInput(0, &InputUpdate{
		NonWitnessUtxo: fundingTx(t, 2, 1000, tagged),
	})
	require.ErrorIs(t, err, ErrPrevTxMismatch)
	require.Equal(t, 1, p.InputCount())

	err = p.UpdateInput(3, &InputUpdate{})
	require.ErrorIs(t, err, ErrInputIndex)
	err = p.UpdateOutput(0, &OutputUpdate{})
	require.ErrorIs(t, err, ErrOutputIndex)

	testCases := []struct {
		name    string
		out     OutputArgs
		want    []byte
		wantErr bool
	}{
		{
			name: "address with asset",
			out: OutputArgs{
				Address: payments.EncodeAddress(
					btcutil.Hash160(signer.PubKey()),
					0x21,
				),
				Asset: satori,
			},
			want: tagged,
		},
		{
			name: "script with asset",
			out: OutputArgs{
				Script: p2pkhScript(t, signer, nil),
				Asset:  satori,
			},
			want: tagged,
		},
		{
			name: "script already tagged",
			out: OutputArgs{
				Script: tagged,
				Asset:  satori,
			},
			wantErr: true,
		},
		{
			name: "address and script",
			out: OutputArgs{
				Address: "EQ2dsWBZAJCUJsNTFm1aDY4BQHXTmFRGK5",
				Script:  tagged,
			},
			wantErr: true,
		},
		{
			name:    "neither",
			out:     OutputArgs{Value: 1},
			wantErr: true,
		},
		{
			name: "negative value",
			out: OutputArgs{
				Script: []byte{0x51},
				Value:  -1,
			},
			wantErr: true,
		},
		{
			name: "testnet address",
			out: OutputArgs{
				Address: "mipcBbFg9gMiCh81Kj8tqqdgoZub1ZJRfn",
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			before := p.OutputCount()
			idx, err := p.AddOutput(&tc.out)
			if tc.wantErr {
				require.Error(t, err)
				require.Equal(t, before, p.OutputCount())
				return
			}
			require.NoError(t, err)
			require.Equal(t, before, idx)
			require.Equal(t, tc.want,
				p.UnsignedTx().Outputs[idx].Script)
		})
	}
}

func TestUpdateConflicts(t *testing.T) {
	t.Parallel()

	a, b := testSigner(1), testSigner(2)
	p := twoInputPsbt(t, a, b)

	err := p.UpdateInput(0, &InputUpdate{SighashType: txscript.SigHashAll})
	require.NoError(t, err)
	err = p.UpdateInput(0, &InputUpdate{SighashType: txscript.SigHashAll})
	require.NoError(t, err)
	err = p.UpdateInput(0, &InputUpdate{SighashType: txscript.SigHashNone})
	require.ErrorIs(t, err, ErrConflictingField)

	require.NoError(t, p.UpdateOutput(0, &OutputUpdate{
		WitnessScript: []byte{0x51},
	}))
	err = p.UpdateOutput(0, &OutputUpdate{WitnessScript: []byte{0x52}})
	require.ErrorIs(t, err, ErrConflictingField)

	// Witness spends are not signed.
	require.NoError(t, p.UpdateInput(1, &InputUpdate{
		WitnessScript: []byte{0x51},
	}))
	require.ErrorIs(t, p.SignInput(1, b), ErrUnsupportedSpend)
}

// TestEnvelopeRoundTrip encodes a signed packet with asset outputs and
// parses it back.
func TestEnvelopeRoundTrip(t *testing.T) {
	t.Parallel()

	a, b := testSigner(1), testSigner(2)
	p := twoInputPsbt(t, a, b)
	_, err := p.AddOutput(&OutputArgs{
		Address: "EQ2dsWBZAJCUJsNTFm1aDY4BQHXTmFRGK5",
		Asset:   &script.Asset{Name: "SATORI", Amount: 1},
	})
	require.NoError(t, err)
	require.NoError(t, p.SignInput(0, a))

	raw, err := p.Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte("psbt\xff"), raw[:5])

	b64, err := p.B64Encode()
	require.NoError(t, err)
	fromB64, err := NewPsbtFromBase64(b64, nil)
	require.NoError(t, err)

	hexStr, err := p.ToHex()
	require.NoError(t, err)
	fromHex, err := NewPsbtFromHex(hexStr, nil)
	require.NoError(t, err)

	for _, parsed := range []*Psbt{fromB64, fromHex} {
		got, err := parsed.Bytes()
		require.NoError(t, err)
		require.Equal(t, raw, got)
		require.Equal(t, p.UnsignedTx().TxID(), parsed.UnsignedTx().TxID())
		requireState(t, parsed, 0, InputPartiallySigned)
	}

	_, err = NewPsbtFromBase64("cHNidP8=", nil)
	require.Error(t, err)
	_, err = NewPsbtFromHex("00", nil)
	require.Error(t, err)
	_, err = NewPsbtFromRawBytes([]byte("psbu\xff"), nil)
	require.Error(t, err)
}

func TestFee(t *testing.T) {
	t.Parallel()

	a, b := testSigner(1), testSigner(2)
	p := twoInputPsbt(t, a, b)

	fee, err := p.Fee()
	require.NoError(t, err)
	require.Equal(t, btcutil.Amount(10000), fee)

	_, err = p.AddInput(&chainhash.Hash{3}, 0, nil)
	require.NoError(t, err)
	_, err = p.Fee()
	require.ErrorIs(t, err, ErrMissingUtxo)
}

func TestReadWitness(t *testing.T) {
	t.Parallel()

	witness, err := readWitness([]byte{0x02, 0x01, 0xaa, 0x00})
	require.NoError(t, err)
	require.Equal(t, [][]byte{{0xaa}, {}}, witness)

	_, err = readWitness([]byte{0x01, 0x01, 0xaa, 0x00})
	require.ErrorIs(t, err, txn.ErrTrailingBytes)
	_, err = readWitness([]byte{0x05})
	require.Error(t, err)
}
