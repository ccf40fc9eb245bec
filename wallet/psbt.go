// Copyright (c) 2020 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/satorinet/evrwallet/hashes"
	"github.com/satorinet/evrwallet/netparams"
	"github.com/satorinet/evrwallet/payments"
	"github.com/satorinet/evrwallet/script"
	"github.com/satorinet/evrwallet/txn"
)

var (
	// ErrInputIndex is returned for an input index outside the
	// transaction.
	ErrInputIndex = errors.New("input index out of range")

	// ErrOutputIndex is returned for an output index outside the
	// transaction.
	ErrOutputIndex = errors.New("output index out of range")

	// ErrInputFinalized is returned when modifying a finalized input, or
	// the transaction once any input is finalized.
	ErrInputFinalized = errors.New("input is finalized")

	// ErrSignaturesExist is returned when modifying a signed transaction.
	ErrSignaturesExist = errors.New("can not modify transaction, " +
		"signatures exist")

	// ErrDuplicateInput is returned when adding an outpoint twice.
	ErrDuplicateInput = errors.New("duplicate input")

	// ErrMissingUtxo is returned when an input has no previous transaction
	// attached.
	ErrMissingUtxo = errors.New("input has no previous transaction")

	// ErrPrevTxMismatch is returned when a previous transaction does not
	// hold the output spent by its input.
	ErrPrevTxMismatch = errors.New("previous transaction does not match " +
		"the spent outpoint")

	// ErrMissingRedeemScript is returned when spending a P2SH output
	// without its redeem script.
	ErrMissingRedeemScript = errors.New("p2sh input has no redeem script")

	// ErrRedeemScriptMismatch is returned when a redeem script does not
	// hash to the P2SH output it is attached to.
	ErrRedeemScriptMismatch = errors.New("redeem script does not match " +
		"the output script hash")

	// ErrUnsupportedSpend is returned for outputs that are not P2PK,
	// P2PKH, P2MS or P2SH wrapping one of those, and for witness spends.
	ErrUnsupportedSpend = errors.New("unsupported spend type")

	// ErrKeyNotInScript is returned when signing with a key the spent
	// script does not commit to.
	ErrKeyNotInScript = errors.New("key does not belong to the spent " +
		"script")

	// ErrNoSignatures is returned when validating an input without
	// matching signatures.
	ErrNoSignatures = errors.New("no signatures to validate")

	// ErrIncompleteSignatures is returned when finalizing an input that
	// lacks the signatures its script requires.
	ErrIncompleteSignatures = errors.New("not enough signatures to " +
		"finalize input")

	// ErrConflictingField is returned when two values for the same field
	// differ.
	ErrConflictingField = errors.New("conflicting field values")

	// ErrTxMismatch is returned when combining packets of different
	// transactions.
	ErrTxMismatch = errors.New("unsigned transactions differ")

	// ErrNotFinalized is returned when extracting a transaction with
	// inputs that are not finalized.
	ErrNotFinalized = errors.New("not all inputs are finalized")
)

// InputError is the failure of one input in a batch operation.
type InputError struct {
	Index int
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *InputError) Unwrap() error {
	return e.Err
}

// BatchError lists the inputs that failed in a batch operation.  The other
// inputs were processed.
type BatchError struct {
	Errors []*InputError
}

func (e *BatchError) Error() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%d %s failed", len(e.Errors),
		pickNoun(len(e.Errors), "input", "inputs"))
	for i, err := range e.Errors {
		sep := ": "
		if i > 0 {
			sep = "; "
		}
		b.WriteString(sep)
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap returns the input errors.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, err := range e.Errors {
		errs = append(errs, err)
	}
	return errs
}

// Indexes returns the indexes of the failed inputs.
func (e *BatchError) Indexes() []int {
	indexes := make([]int, 0, len(e.Errors))
	for _, err := range e.Errors {
		indexes = append(indexes, err.Index)
	}
	return indexes
}

// batchResult returns nil when no input failed.
func batchResult(errs []*InputError) error {
	if len(errs) == 0 {
		return nil
	}
	return &BatchError{Errors: errs}
}

// InputState is the signing progress of a single input.
type InputState uint8

const (
	// InputEmpty is an input without any metadata.
	InputEmpty InputState = iota

	// InputHasUtxo is an input with the spent output attached.
	InputHasUtxo

	// InputHasScripts is an input with a redeem or witness script.
	InputHasScripts

	// InputPartiallySigned is an input holding at least one signature.
	InputPartiallySigned

	// InputFinalized is an input with its final script.  No further
	// changes are accepted.
	InputFinalized
)

var inputStateStrings = map[InputState]string{
	InputEmpty:           "empty",
	InputHasUtxo:         "has utxo",
	InputHasScripts:      "has scripts",
	InputPartiallySigned: "partially signed",
	InputFinalized:       "finalized",
}

// String returns the InputState as a human-readable name.
func (s InputState) String() string {
	if str, ok := inputStateStrings[s]; ok {
		return str
	}
	return fmt.Sprintf("unknown InputState (%d)", uint8(s))
}

func inputState(in *psbt.PInput) InputState {
	switch {
	case in.FinalScriptSig != nil || in.FinalScriptWitness != nil:
		return InputFinalized
	case len(in.PartialSigs) > 0:
		return InputPartiallySigned
	case in.RedeemScript != nil || in.WitnessScript != nil:
		return InputHasScripts
	case in.NonWitnessUtxo != nil || in.WitnessUtxo != nil:
		return InputHasUtxo
	}
	return InputEmpty
}

// InputUpdate holds metadata merged into an input.  Nil fields are left
// untouched.
type InputUpdate struct {
	// NonWitnessUtxo is the full transaction holding the spent output.
	NonWitnessUtxo *txn.Tx

	// WitnessUtxo is the spent output alone.
	WitnessUtxo *txn.Output

	RedeemScript  []byte
	WitnessScript []byte

	// SighashType is used when non-zero.
	SighashType txscript.SigHashType
}

// OutputArgs describes an output added to a Psbt.  Exactly one of Address
// and Script must be set.  When Asset is set, the output carries its tag.
type OutputArgs struct {
	Address string
	Script  []byte
	Value   int64
	Asset   *script.Asset
}

// OutputUpdate holds metadata merged into an output.
type OutputUpdate struct {
	RedeemScript  []byte
	WitnessScript []byte
}

// Psbt is a partially signed transaction moving each input through the
// states InputEmpty, InputHasUtxo, InputHasScripts, InputPartiallySigned and
// InputFinalized.  A Psbt is not safe for concurrent mutation.
type Psbt struct {
	packet *psbt.Packet
	net    *netparams.Params
}

// NewPsbt returns an empty Psbt for a transaction of the default version.
func NewPsbt(net *netparams.Params) *Psbt {
	packet, _ := psbt.NewFromUnsignedTx(wire.NewMsgTx(txn.DefaultVersion))
	return newPsbt(packet, net)
}

// NewPsbtFromTx returns a Psbt for an unsigned transaction.
func NewPsbtFromTx(tx *txn.Tx, net *netparams.Params) (*Psbt, error) {
	packet, err := psbt.NewFromUnsignedTx(tx.ToMsgTx())
	if err != nil {
		return nil, err
	}
	return newPsbt(packet, net), nil
}

func newPsbt(packet *psbt.Packet, net *netparams.Params) *Psbt {
	if net == nil {
		net = &netparams.MainNetParams
	}
	return &Psbt{packet: packet, net: net}
}

// Packet returns the underlying BIP0174 packet.
func (p *Psbt) Packet() *psbt.Packet {
	return p.packet
}

// Network returns the network used for addresses.
func (p *Psbt) Network() *netparams.Params {
	return p.net
}

// Version returns the version of the unsigned transaction.
func (p *Psbt) Version() int32 {
	return p.packet.UnsignedTx.Version
}

// Locktime returns the locktime of the unsigned transaction.
func (p *Psbt) Locktime() uint32 {
	return p.packet.UnsignedTx.LockTime
}

// InputCount returns the number of inputs.
func (p *Psbt) InputCount() int {
	return len(p.packet.Inputs)
}

// OutputCount returns the number of outputs.
func (p *Psbt) OutputCount() int {
	return len(p.packet.Outputs)
}

// UnsignedTx returns a copy of the unsigned transaction.
func (p *Psbt) UnsignedTx() *txn.Tx {
	return txn.FromMsgTx(p.packet.UnsignedTx).Clone()
}

// Clone returns a deep copy.
func (p *Psbt) Clone() (*Psbt, error) {
	b, err := p.Bytes()
	if err != nil {
		return nil, err
	}
	return NewPsbtFromRawBytes(b, p.net)
}

// checkModifiable returns an error once the transaction can no longer
// change without invalidating signatures.
func (p *Psbt) checkModifiable() error {
	for i := range p.packet.Inputs {
		switch inputState(&p.packet.Inputs[i]) {
		case InputFinalized:
			return fmt.Errorf("input %d: %w", i, ErrInputFinalized)
		case InputPartiallySigned:
			return ErrSignaturesExist
		}
	}
	return nil
}

// SetVersion sets the transaction version.
func (p *Psbt) SetVersion(version int32) error {
	if err := p.checkModifiable(); err != nil {
		return err
	}
	p.packet.UnsignedTx.Version = version
	return nil
}

// SetLocktime sets the transaction locktime.
func (p *Psbt) SetLocktime(locktime uint32) error {
	if err := p.checkModifiable(); err != nil {
		return err
	}
	p.packet.UnsignedTx.LockTime = locktime
	return nil
}

// SetInputSequence sets the sequence of input index.
func (p *Psbt) SetInputSequence(index int, sequence uint32) error {
	if index < 0 || index >= len(p.packet.Inputs) {
		return ErrInputIndex
	}
	if err := p.checkModifiable(); err != nil {
		return err
	}
	p.packet.UnsignedTx.TxIn[index].Sequence = sequence
	return nil
}

// AddInput appends an input spending hash:index with the default sequence
// and applies update to it.  It returns the index of the new input.
func (p *Psbt) AddInput(hash *chainhash.Hash, index uint32,
	update *InputUpdate) (int, error) {

	if err := p.checkModifiable(); err != nil {
		return 0, err
	}
	for _, txIn := range p.packet.UnsignedTx.TxIn {
		op := txIn.PreviousOutPoint
		if op.Hash == *hash && op.Index == index {
			return 0, fmt.Errorf("%w: %v", ErrDuplicateInput, op)
		}
	}

	var in psbt.PInput
	if update != nil {
		err := p.updateInput(&in, wire.NewOutPoint(hash, index), update)
		if err != nil {
			return 0, err
		}
	}

	txIn := wire.NewTxIn(wire.NewOutPoint(hash, index), nil, nil)
	txIn.Sequence = txn.DefaultSequence
	p.packet.UnsignedTx.AddTxIn(txIn)
	p.packet.Inputs = append(p.packet.Inputs, in)

	return len(p.packet.Inputs) - 1, nil
}

// AddOutput appends an output and returns its index.
func (p *Psbt) AddOutput(out *OutputArgs) (int, error) {
	if err := p.checkModifiable(); err != nil {
		return 0, err
	}
	if out.Value < 0 {
		return 0, txn.ErrNegativeValue
	}

	var (
		pkScript []byte
		err      error
	)
	switch {
	case out.Address != "" && out.Script != nil:
		return 0, errors.New("output has both an address and a script")

	case out.Address != "":
		pkScript, err = payments.AddressToScript(
			out.Address, p.net, out.Asset,
		)
		if err != nil {
			return 0, err
		}

	case out.Script != nil:
		if out.Asset != nil {
			if _, a, err := script.SplitAssetTag(out.Script); err != nil ||
				a != nil {

				return 0, errors.New("output script already " +
					"carries an asset tag")
			}
		}
		pkScript, err = script.AppendAssetTag(out.Script, out.Asset)
		if err != nil {
			return 0, err
		}

	default:
		return 0, errors.New("output needs an address or a script")
	}

	p.packet.UnsignedTx.AddTxOut(wire.NewTxOut(out.Value, pkScript))
	p.packet.Outputs = append(p.packet.Outputs, psbt.POutput{})

	return len(p.packet.Outputs) - 1, nil
}

// input returns input index, failing when it is finalized.
func (p *Psbt) input(index int) (*psbt.PInput, error) {
	if index < 0 || index >= len(p.packet.Inputs) {
		return nil, fmt.Errorf("%w: %d", ErrInputIndex, index)
	}
	in := &p.packet.Inputs[index]
	if inputState(in) == InputFinalized {
		return nil, ErrInputFinalized
	}
	return in, nil
}

// InputState returns the state of input index.
func (p *Psbt) InputState(index int) (InputState, error) {
	if index < 0 || index >= len(p.packet.Inputs) {
		return 0, fmt.Errorf("%w: %d", ErrInputIndex, index)
	}
	return inputState(&p.packet.Inputs[index]), nil
}

// UpdateInput merges update into input index.  Fields already set to a
// different value are a conflict.
func (p *Psbt) UpdateInput(index int, update *InputUpdate) error {
	in, err := p.input(index)
	if err != nil {
		return err
	}

	// Work on a copy so a failed update leaves the input untouched.
	merged := *in
	op := &p.packet.UnsignedTx.TxIn[index].PreviousOutPoint
	if err := p.updateInput(&merged, op, update); err != nil {
		return err
	}
	*in = merged

	return nil
}

func (p *Psbt) updateInput(in *psbt.PInput, op *wire.OutPoint,
	update *InputUpdate) error {

	if update.NonWitnessUtxo != nil {
		prevTx := update.NonWitnessUtxo.ToMsgTx()
		if _, err := spentOutput(prevTx, op); err != nil {
			return err
		}
		if in.NonWitnessUtxo != nil &&
			in.NonWitnessUtxo.TxHash() != prevTx.TxHash() {

			return fmt.Errorf("%w: previous transaction",
				ErrConflictingField)
		}
		in.NonWitnessUtxo = prevTx
	}

	if update.WitnessUtxo != nil {
		out := wire.NewTxOut(
			update.WitnessUtxo.Value, update.WitnessUtxo.Script,
		)
		if in.WitnessUtxo != nil && !psbt.TxOutsEqual(in.WitnessUtxo, out) {
			return fmt.Errorf("%w: witness utxo", ErrConflictingField)
		}
		in.WitnessUtxo = out
	}

	err := mergeBytes(&in.RedeemScript, update.RedeemScript, "redeem script")
	if err != nil {
		return err
	}
	err = mergeBytes(&in.WitnessScript, update.WitnessScript,
		"witness script")
	if err != nil {
		return err
	}

	if update.SighashType != 0 {
		if in.SighashType != 0 && in.SighashType != update.SighashType {
			return fmt.Errorf("%w: sighash type", ErrConflictingField)
		}
		in.SighashType = update.SighashType
	}

	// A redeem script must match a P2SH output as soon as both are known.
	if in.RedeemScript != nil {
		prevOut, err := prevOutput(in, op)
		if err == nil {
			if _, err := signingScript(prevOut.PkScript,
				in.RedeemScript); err != nil &&
				!errors.Is(err, ErrUnsupportedSpend) {

				return err
			}
		}
	}

	return nil
}

// mergeBytes sets *dst to src when src is set, failing if *dst holds a
// different value.
func mergeBytes(dst *[]byte, src []byte, field string) error {
	if src == nil {
		return nil
	}
	if *dst != nil && !bytes.Equal(*dst, src) {
		return fmt.Errorf("%w: %s", ErrConflictingField, field)
	}
	*dst = src
	return nil
}

// UpdateOutput merges update into output index.
func (p *Psbt) UpdateOutput(index int, update *OutputUpdate) error {
	if index < 0 || index >= len(p.packet.Outputs) {
		return fmt.Errorf("%w: %d", ErrOutputIndex, index)
	}

	out := p.packet.Outputs[index]
	if err := mergeBytes(&out.RedeemScript, update.RedeemScript,
		"redeem script"); err != nil {

		return err
	}
	if err := mergeBytes(&out.WitnessScript, update.WitnessScript,
		"witness script"); err != nil {

		return err
	}

	if out.RedeemScript != nil {
		pkScript := p.packet.UnsignedTx.TxOut[index].PkScript
		_, err := signingScript(pkScript, out.RedeemScript)
		if err != nil && !errors.Is(err, ErrUnsupportedSpend) {
			return err
		}
	}

	p.packet.Outputs[index] = out
	return nil
}

// spentOutput returns the output of prevTx spent by op.
func spentOutput(prevTx *wire.MsgTx, op *wire.OutPoint) (*wire.TxOut, error) {
	if prevTx.TxHash() != op.Hash {
		return nil, fmt.Errorf("%w: hash %v, want %v", ErrPrevTxMismatch,
			prevTx.TxHash(), op.Hash)
	}
	if int(op.Index) >= len(prevTx.TxOut) {
		return nil, fmt.Errorf("%w: output %d of %d", ErrPrevTxMismatch,
			op.Index, len(prevTx.TxOut))
	}
	return prevTx.TxOut[op.Index], nil
}

// prevOutput returns the output spent by an input.  The full previous
// transaction is required: the spent value is not committed to by legacy
// signatures.
func prevOutput(in *psbt.PInput, op *wire.OutPoint) (*wire.TxOut, error) {
	if in.NonWitnessUtxo == nil {
		return nil, ErrMissingUtxo
	}
	return spentOutput(in.NonWitnessUtxo, op)
}

// signingScript returns the script committed to by signatures for an input
// spending pkScript: the redeem script for P2SH outputs and pkScript
// otherwise.
func signingScript(pkScript, redeemScript []byte) ([]byte, error) {
	if payments.Classify(pkScript) != payments.P2SH {
		return pkScript, nil
	}
	if redeemScript == nil {
		return nil, ErrMissingRedeemScript
	}

	base := script.StripAssetTag(pkScript)
	want, err := payments.NewP2SH(payments.P2SHArgs{Output: base})
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(want.Hash(), hashes.Hash160(redeemScript)) {
		return nil, ErrRedeemScriptMismatch
	}
	if payments.Classify(redeemScript) == payments.P2SH {
		return nil, fmt.Errorf("%w: nested p2sh", ErrUnsupportedSpend)
	}
	return redeemScript, nil
}

// hasKey reports whether the script commits to pubKey.
func hasKey(pkScript, pubKey []byte) (bool, error) {
	switch payments.Classify(pkScript) {
	case payments.P2PKH:
		pay, err := payments.NewP2PKH(payments.P2PKHArgs{Output: pkScript})
		if err != nil {
			return false, err
		}
		return bytes.Equal(pay.Hash(), hashes.Hash160(pubKey)), nil

	case payments.P2PK:
		pay, err := payments.NewP2PK(payments.P2PKArgs{Output: pkScript})
		if err != nil {
			return false, err
		}
		return bytes.Equal(pay.PubKey(), pubKey), nil

	case payments.P2MS:
		pay, err := payments.NewP2MS(payments.P2MSArgs{Output: pkScript})
		if err != nil {
			return false, err
		}
		for _, pk := range pay.PubKeys() {
			if bytes.Equal(pk, pubKey) {
				return true, nil
			}
		}
		return false, nil
	}

	return false, ErrUnsupportedSpend
}

// inputSigningData returns the script signatures commit to and the sighash
// type of input index.
func (p *Psbt) inputSigningData(index int,
	in *psbt.PInput) ([]byte, txscript.SigHashType, error) {

	if in.WitnessScript != nil {
		return nil, 0, fmt.Errorf("%w: witness script",
			ErrUnsupportedSpend)
	}

	op := &p.packet.UnsignedTx.TxIn[index].PreviousOutPoint
	prevOut, err := prevOutput(in, op)
	if err != nil {
		return nil, 0, err
	}
	sigScript, err := signingScript(prevOut.PkScript, in.RedeemScript)
	if err != nil {
		return nil, 0, err
	}

	hashType := in.SighashType
	if hashType == 0 {
		hashType = txscript.SigHashAll
	}
	return sigScript, hashType, nil
}

// SignInput signs input index with signer and records the signature under
// the signer's public key, replacing an earlier one.
func (p *Psbt) SignInput(index int, signer Signer) error {
	in, err := p.input(index)
	if err != nil {
		return err
	}

	sigScript, hashType, err := p.inputSigningData(index, in)
	if err != nil {
		return err
	}

	pubKey := signer.PubKey()
	ok, err := hasKey(sigScript, pubKey)
	if err != nil {
		return err
	}
	if !ok {
		return ErrKeyNotInScript
	}

	tx := txn.FromMsgTx(p.packet.UnsignedTx)
	hash, err := tx.HashForSignature(index, sigScript, hashType)
	if err != nil {
		return err
	}
	compact, err := signer.Sign(hash)
	if err != nil {
		return err
	}
	sig, err := script.EncodeSignature(compact, hashType)
	if err != nil {
		return err
	}

	partial := &psbt.PartialSig{PubKey: pubKey, Signature: sig}
	for i, existing := range in.PartialSigs {
		if bytes.Equal(existing.PubKey, pubKey) {
			in.PartialSigs[i] = partial
			return nil
		}
	}
	in.PartialSigs = append(in.PartialSigs, partial)

	log.Debugf("Signed input %d for key %x", index, pubKey)

	return nil
}

// SignAllInputs signs every input that is not finalized.  Inputs that can not
// be signed are reported in a *BatchError; the others are signed regardless.
func (p *Psbt) SignAllInputs(signer Signer) error {
	var errs []*InputError
	for i := range p.packet.Inputs {
		if inputState(&p.packet.Inputs[i]) == InputFinalized {
			continue
		}
		if err := p.SignInput(i, signer); err != nil {
			log.Debugf("Unable to sign input %d: %v", i, err)
			errs = append(errs, &InputError{Index: i, Err: err})
		}
	}
	return batchResult(errs)
}

// ValidateSignaturesOfInput verifies the signatures of input index.  When
// pubKey is not nil only its signature is checked.
func (p *Psbt) ValidateSignaturesOfInput(index int,
	pubKey []byte) (bool, error) {

	in, err := p.input(index)
	if err != nil {
		return false, err
	}

	var sigs []*psbt.PartialSig
	for _, sig := range in.PartialSigs {
		if pubKey == nil || bytes.Equal(sig.PubKey, pubKey) {
			sigs = append(sigs, sig)
		}
	}
	if len(sigs) == 0 {
		return false, ErrNoSignatures
	}

	sigScript, _, err := p.inputSigningData(index, in)
	if err != nil {
		return false, err
	}

	tx := txn.FromMsgTx(p.packet.UnsignedTx)
	for _, partial := range sigs {
		ok, err := verifySignature(tx, index, sigScript, partial)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func verifySignature(tx *txn.Tx, index int, sigScript []byte,
	partial *psbt.PartialSig) (bool, error) {

	_, hashType, err := script.DecodeSignature(partial.Signature)
	if err != nil {
		return false, err
	}
	hash, err := tx.HashForSignature(index, sigScript, hashType)
	if err != nil {
		return false, err
	}

	pubKey, err := btcec.ParsePubKey(partial.PubKey)
	if err != nil {
		return false, err
	}
	der := partial.Signature[:len(partial.Signature)-1]
	sig, err := ecdsa.ParseDERSignature(der)
	if err != nil {
		return false, err
	}

	return sig.Verify(hash, pubKey), nil
}

// FinalizeInput builds the final script of input index from its signatures,
// then drops the signatures and scripts.
func (p *Psbt) FinalizeInput(index int) error {
	in, err := p.input(index)
	if err != nil {
		return err
	}

	sigScript, err := p.finalScriptSig(index, in)
	if err != nil {
		return err
	}

	*in = psbt.PInput{
		NonWitnessUtxo: in.NonWitnessUtxo,
		WitnessUtxo:    in.WitnessUtxo,
		FinalScriptSig: sigScript,
		Unknowns:       in.Unknowns,
	}

	log.Debugf("Finalized input %d", index)

	return nil
}

// FinalizeAllInputs finalizes every input that is not finalized yet.  Inputs
// that can not be finalized are reported in a *BatchError; the others are
// finalized regardless.
func (p *Psbt) FinalizeAllInputs() error {
	var errs []*InputError
	for i := range p.packet.Inputs {
		if inputState(&p.packet.Inputs[i]) == InputFinalized {
			continue
		}
		if err := p.FinalizeInput(i); err != nil {
			log.Debugf("Unable to finalize input %d: %v", i, err)
			errs = append(errs, &InputError{Index: i, Err: err})
		}
	}
	return batchResult(errs)
}

func (p *Psbt) finalScriptSig(index int, in *psbt.PInput) ([]byte, error) {
	sigScript, _, err := p.inputSigningData(index, in)
	if err != nil {
		return nil, err
	}

	redeemInput, err := spendInput(p.net, sigScript, in.PartialSigs)
	if err != nil {
		return nil, err
	}

	op := &p.packet.UnsignedTx.TxIn[index].PreviousOutPoint
	prevOut, err := prevOutput(in, op)
	if err != nil {
		return nil, err
	}
	if payments.Classify(prevOut.PkScript) != payments.P2SH {
		return redeemInput, nil
	}

	pay, err := payments.NewP2SH(payments.P2SHArgs{
		Network: p.net,
		Output:  prevOut.PkScript,
		Redeem: &payments.Redeem{
			Network: p.net,
			Output:  sigScript,
			Input:   redeemInput,
		},
	})
	if err != nil {
		return nil, err
	}
	return pay.Input(), nil
}

// findSig returns the signature made by pubKey.
func findSig(sigs []*psbt.PartialSig, match func([]byte) bool) []byte {
	for _, sig := range sigs {
		if match(sig.PubKey) {
			return sig.Signature
		}
	}
	return nil
}

// spendInput returns the input script spending a P2PK, P2PKH or P2MS script
// with the given signatures.
func spendInput(net *netparams.Params, pkScript []byte,
	sigs []*psbt.PartialSig) ([]byte, error) {

	switch payments.Classify(pkScript) {
	case payments.P2PKH:
		out, err := payments.NewP2PKH(payments.P2PKHArgs{
			Network: net, Output: pkScript,
		})
		if err != nil {
			return nil, err
		}
		var pubKey []byte
		sig := findSig(sigs, func(pk []byte) bool {
			pubKey = pk
			return bytes.Equal(hashes.Hash160(pk), out.Hash())
		})
		if sig == nil {
			return nil, ErrIncompleteSignatures
		}
		pay, err := payments.NewP2PKH(payments.P2PKHArgs{
			Network:   net,
			Output:    pkScript,
			PubKey:    pubKey,
			Signature: sig,
		})
		if err != nil {
			return nil, err
		}
		return pay.Input(), nil

	case payments.P2PK:
		out, err := payments.NewP2PK(payments.P2PKArgs{
			Network: net, Output: pkScript,
		})
		if err != nil {
			return nil, err
		}
		sig := findSig(sigs, func(pk []byte) bool {
			return bytes.Equal(pk, out.PubKey())
		})
		if sig == nil {
			return nil, ErrIncompleteSignatures
		}
		pay, err := payments.NewP2PK(payments.P2PKArgs{
			Network:   net,
			Output:    pkScript,
			Signature: sig,
		})
		if err != nil {
			return nil, err
		}
		return pay.Input(), nil

	case payments.P2MS:
		out, err := payments.NewP2MS(payments.P2MSArgs{
			Network: net, Output: pkScript,
		})
		if err != nil {
			return nil, err
		}

		// Signatures are ordered like their keys.
		var ordered [][]byte
		for _, key := range out.PubKeys() {
			if len(ordered) == out.M() {
				break
			}
			sig := findSig(sigs, func(pk []byte) bool {
				return bytes.Equal(pk, key)
			})
			if sig != nil {
				ordered = append(ordered, sig)
			}
		}
		if len(ordered) < out.M() {
			return nil, fmt.Errorf("%w: have %d of %d",
				ErrIncompleteSignatures, len(ordered), out.M())
		}

		pay, err := payments.NewP2MS(payments.P2MSArgs{
			Network:    net,
			Output:     pkScript,
			Signatures: ordered,
		})
		if err != nil {
			return nil, err
		}
		return pay.Input(), nil
	}

	return nil, ErrUnsupportedSpend
}

// Combine merges the metadata of others into p.  All packets must share the
// same unsigned transaction.  Signatures are merged by public key; other
// fields are taken from whichever side has them and must agree when both
// do.  On error p is left unchanged.
func (p *Psbt) Combine(others ...*Psbt) error {
	var want bytes.Buffer
	if err := p.packet.UnsignedTx.SerializeNoWitness(&want); err != nil {
		return err
	}

	merged, err := p.Clone()
	if err != nil {
		return err
	}
	for _, other := range others {
		var got bytes.Buffer
		err := other.packet.UnsignedTx.SerializeNoWitness(&got)
		if err != nil {
			return err
		}
		if !bytes.Equal(want.Bytes(), got.Bytes()) {
			return ErrTxMismatch
		}

		for i := range merged.packet.Inputs {
			err := combineInput(
				&merged.packet.Inputs[i], &other.packet.Inputs[i],
			)
			if err != nil {
				return &InputError{Index: i, Err: err}
			}
		}
		for i := range merged.packet.Outputs {
			err := combineOutput(
				&merged.packet.Outputs[i], &other.packet.Outputs[i],
			)
			if err != nil {
				return fmt.Errorf("output %d: %w", i, err)
			}
		}
		merged.packet.Unknowns = combineUnknowns(
			merged.packet.Unknowns, other.packet.Unknowns,
		)
	}

	p.packet = merged.packet
	return nil
}

func combineInput(dst, src *psbt.PInput) error {
	if dst.NonWitnessUtxo == nil {
		dst.NonWitnessUtxo = src.NonWitnessUtxo
	} else if src.NonWitnessUtxo != nil &&
		dst.NonWitnessUtxo.TxHash() != src.NonWitnessUtxo.TxHash() {

		return fmt.Errorf("%w: previous transaction", ErrConflictingField)
	}

	if dst.WitnessUtxo == nil {
		dst.WitnessUtxo = src.WitnessUtxo
	} else if src.WitnessUtxo != nil &&
		!psbt.TxOutsEqual(dst.WitnessUtxo, src.WitnessUtxo) {

		return fmt.Errorf("%w: witness utxo", ErrConflictingField)
	}

	if dst.SighashType == 0 {
		dst.SighashType = src.SighashType
	} else if src.SighashType != 0 && src.SighashType != dst.SighashType {
		return fmt.Errorf("%w: sighash type", ErrConflictingField)
	}

	for _, f := range []struct {
		dst   *[]byte
		src   []byte
		field string
	}{
		{&dst.RedeemScript, src.RedeemScript, "redeem script"},
		{&dst.WitnessScript, src.WitnessScript, "witness script"},
		{&dst.FinalScriptSig, src.FinalScriptSig, "final script sig"},
		{&dst.FinalScriptWitness, src.FinalScriptWitness,
			"final script witness"},
	} {
		if err := mergeBytes(f.dst, f.src, f.field); err != nil {
			return err
		}
	}

	for _, sig := range src.PartialSigs {
		found := false
		for _, have := range dst.PartialSigs {
			if bytes.Equal(have.PubKey, sig.PubKey) {
				found = true
				break
			}
		}
		if !found {
			dst.PartialSigs = append(dst.PartialSigs, sig)
		}
	}

	dst.Bip32Derivation = combineDerivations(
		dst.Bip32Derivation, src.Bip32Derivation,
	)
	dst.Unknowns = combineUnknowns(dst.Unknowns, src.Unknowns)

	// A finalized side wins over partial data.
	if dst.FinalScriptSig != nil || dst.FinalScriptWitness != nil {
		dst.PartialSigs = nil
		dst.SighashType = 0
		dst.RedeemScript = nil
		dst.WitnessScript = nil
		dst.Bip32Derivation = nil
	}

	return nil
}

func combineOutput(dst, src *psbt.POutput) error {
	err := mergeBytes(&dst.RedeemScript, src.RedeemScript, "redeem script")
	if err != nil {
		return err
	}
	err = mergeBytes(&dst.WitnessScript, src.WitnessScript,
		"witness script")
	if err != nil {
		return err
	}
	dst.Bip32Derivation = combineDerivations(
		dst.Bip32Derivation, src.Bip32Derivation,
	)
	return nil
}

func combineDerivations(dst,
	src []*psbt.Bip32Derivation) []*psbt.Bip32Derivation {

	for _, d := range src {
		found := false
		for _, have := range dst {
			if bytes.Equal(have.PubKey, d.PubKey) {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, d)
		}
	}
	return dst
}

func combineUnknowns(dst, src []*psbt.Unknown) []*psbt.Unknown {
	for _, u := range src {
		found := false
		for _, have := range dst {
			if bytes.Equal(have.Key, u.Key) {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, u)
		}
	}
	return dst
}

// ExtractTransaction returns the signed transaction.  Every input must be
// finalized.
func (p *Psbt) ExtractTransaction() (*txn.Tx, error) {
	var pending []int
	for i := range p.packet.Inputs {
		if inputState(&p.packet.Inputs[i]) != InputFinalized {
			pending = append(pending, i)
		}
	}
	if len(pending) > 0 {
		return nil, fmt.Errorf("%w: inputs %v", ErrNotFinalized, pending)
	}

	tx := txn.FromMsgTx(p.packet.UnsignedTx).Clone()
	for i, in := range p.packet.Inputs {
		tx.Inputs[i].Script = append([]byte(nil), in.FinalScriptSig...)
		if in.FinalScriptWitness == nil {
			continue
		}
		witness, err := readWitness(in.FinalScriptWitness)
		if err != nil {
			return nil, &InputError{Index: i, Err: err}
		}
		tx.Inputs[i].Witness = witness
	}

	return tx, nil
}

// readWitness parses a serialized witness stack.
func readWitness(b []byte) ([][]byte, error) {
	r := bytes.NewReader(b)
	n, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, err
	}
	if n > uint64(len(b)) {
		return nil, fmt.Errorf("witness count %d exceeds its %d bytes",
			n, len(b))
	}

	witness := make([][]byte, 0, n)
	for i := uint64(0); i < n; i++ {
		item, err := wire.ReadVarBytes(
			r, 0, uint32(len(b)), "witness item",
		)
		if err != nil {
			return nil, err
		}
		witness = append(witness, item)
	}
	if r.Len() != 0 {
		return nil, txn.ErrTrailingBytes
	}
	return witness, nil
}

// Fee returns the inputs' value minus the outputs' value.  Every input needs
// its spent output attached.
func (p *Psbt) Fee() (btcutil.Amount, error) {
	for i := range p.packet.Inputs {
		in := &p.packet.Inputs[i]
		if in.NonWitnessUtxo == nil && in.WitnessUtxo == nil {
			return 0, &InputError{Index: i, Err: ErrMissingUtxo}
		}
	}
	return p.packet.GetTxFee()
}
