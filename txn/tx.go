// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txn provides the transaction model: an append-only list of inputs
// and outputs with the legacy and BIP0144 wire encodings and id computation.
//
// Asset tags travel inside output scripts, so the encoding is the Bitcoin one
// byte for byte.
package txn

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

const (
	// DefaultVersion is the version of transactions created by New.
	DefaultVersion = 1

	// DefaultSequence is the sequence number of a final input.
	DefaultSequence = wire.MaxTxInSequenceNum

	// CoinbaseIndex is the previous output index of a coinbase input.
	CoinbaseIndex = wire.MaxPrevOutIndex

	// pver is passed to the wire varint helpers, which ignore it.
	pver = 0

	// minTxInSize is the size of an input with an empty script:
	// 32 byte hash + 4 byte index + 1 byte varint + 4 byte sequence.
	minTxInSize = 32 + 4 + 1 + 4

	// minTxOutSize is the size of an output with an empty script:
	// 8 byte value + 1 byte varint.
	minTxOutSize = 8 + 1

	// maxElementSize bounds any single script or witness item read.
	maxElementSize = wire.MaxMessagePayload

	witnessMarker = 0x00
	witnessFlag   = 0x01
)

var (
	// ErrNegativeValue is returned when an output value is below zero.
	ErrNegativeValue = errors.New("output value is negative")

	// ErrTrailingBytes is returned when data remains after a transaction.
	ErrTrailingBytes = errors.New("unexpected data after transaction")

	// ErrSuperfluousWitness is returned when a witness encoded transaction
	// carries no witness data.
	ErrSuperfluousWitness = errors.New("transaction has superfluous " +
		"witness data")
)

// Input spends a previous output.
type Input struct {
	Hash     chainhash.Hash
	Index    uint32
	Sequence uint32
	Script   []byte
	Witness  [][]byte
}

// Output pays Value to the locking Script.
type Output struct {
	Value  int64
	Script []byte
}

// Tx is a transaction.  It is not safe for concurrent mutation.
type Tx struct {
	Version  int32
	LockTime uint32
	Inputs   []*Input
	Outputs  []*Output
}

// New returns an empty transaction with the default version.
func New() *Tx {
	return &Tx{Version: DefaultVersion}
}

// AddInput appends an input spending index of the transaction hash and
// returns its position.
func (tx *Tx) AddInput(hash *chainhash.Hash, index, sequence uint32,
	scriptSig []byte) int {

	tx.Inputs = append(tx.Inputs, &Input{
		Hash:     *hash,
		Index:    index,
		Sequence: sequence,
		Script:   scriptSig,
	})
	return len(tx.Inputs) - 1
}

// AddOutput appends an output and returns its position.
func (tx *Tx) AddOutput(pkScript []byte, value int64) (int, error) {
	if value < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeValue, value)
	}
	tx.Outputs = append(tx.Outputs, &Output{Value: value, Script: pkScript})
	return len(tx.Outputs) - 1, nil
}

// IsCoinbase reports whether the transaction has exactly one input spending
// the null outpoint.
func (tx *Tx) IsCoinbase() bool {
	if len(tx.Inputs) != 1 {
		return false
	}
	in := tx.Inputs[0]
	return in.Index == CoinbaseIndex && in.Hash == (chainhash.Hash{})
}

// HasWitness reports whether any input carries witness data.
func (tx *Tx) HasWitness() bool {
	for _, in := range tx.Inputs {
		if len(in.Witness) != 0 {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the transaction.
func (tx *Tx) Clone() *Tx {
	c := &Tx{
		Version:  tx.Version,
		LockTime: tx.LockTime,
		Inputs:   make([]*Input, 0, len(tx.Inputs)),
		Outputs:  make([]*Output, 0, len(tx.Outputs)),
	}
	for _, in := range tx.Inputs {
		ci := *in
		ci.Script = cloneBytes(in.Script)
		if in.Witness != nil {
			ci.Witness = make([][]byte, len(in.Witness))
			for i, item := range in.Witness {
				ci.Witness[i] = cloneBytes(item)
			}
		}
		c.Inputs = append(c.Inputs, &ci)
	}
	for _, out := range tx.Outputs {
		c.Outputs = append(c.Outputs, &Output{
			Value:  out.Value,
			Script: cloneBytes(out.Script),
		})
	}
	return c
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}

// SerializeSize returns the number of bytes Serialize writes.
func (tx *Tx) SerializeSize() int {
	return tx.serializeSize(tx.HasWitness())
}

func (tx *Tx) serializeSize(witness bool) int {
	n := 4 + 4 +
		wire.VarIntSerializeSize(uint64(len(tx.Inputs))) +
		wire.VarIntSerializeSize(uint64(len(tx.Outputs)))
	for _, in := range tx.Inputs {
		n += 32 + 4 + 4 + varBytesSize(in.Script)
	}
	for _, out := range tx.Outputs {
		n += 8 + varBytesSize(out.Script)
	}
	if witness {
		n += 2
		for _, in := range tx.Inputs {
			n += wire.VarIntSerializeSize(uint64(len(in.Witness)))
			for _, item := range in.Witness {
				n += varBytesSize(item)
			}
		}
	}
	return n
}

func varBytesSize(b []byte) int {
	return wire.VarIntSerializeSize(uint64(len(b))) + len(b)
}

// Serialize writes the transaction to w, using the BIP0144 encoding when any
// input has a witness.
func (tx *Tx) Serialize(w io.Writer) error {
	return tx.serialize(w, tx.HasWitness())
}

// SerializeNoWitness writes the legacy encoding, from which the id is
// computed.
func (tx *Tx) SerializeNoWitness(w io.Writer) error {
	return tx.serialize(w, false)
}

func (tx *Tx) serialize(w io.Writer, witness bool) error {
	var buf [8]byte

	binary.LittleEndian.PutUint32(buf[:4], uint32(tx.Version))
	if _, err := w.Write(buf[:4]); err != nil {
		return err
	}
	if witness {
		_, err := w.Write([]byte{witnessMarker, witnessFlag})
		if err != nil {
			return err
		}
	}

	err := wire.WriteVarInt(w, pver, uint64(len(tx.Inputs)))
	if err != nil {
		return err
	}
	for _, in := range tx.Inputs {
		if _, err := w.Write(in.Hash[:]); err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(buf[:4], in.Index)
		if _, err := w.Write(buf[:4]); err != nil {
			return err
		}
		if err := wire.WriteVarBytes(w, pver, in.Script); err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(buf[:4], in.Sequence)
		if _, err := w.Write(buf[:4]); err != nil {
			return err
		}
	}

	err = wire.WriteVarInt(w, pver, uint64(len(tx.Outputs)))
	if err != nil {
		return err
	}
	for _, out := range tx.Outputs {
		binary.LittleEndian.PutUint64(buf[:], uint64(out.Value))
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
		if err := wire.WriteVarBytes(w, pver, out.Script); err != nil {
			return err
		}
	}

	if witness {
		for _, in := range tx.Inputs {
			err := wire.WriteVarInt(w, pver, uint64(len(in.Witness)))
			if err != nil {
				return err
			}
			for _, item := range in.Witness {
				err := wire.WriteVarBytes(w, pver, item)
				if err != nil {
					return err
				}
			}
		}
	}

	binary.LittleEndian.PutUint32(buf[:4], tx.LockTime)
	_, err = w.Write(buf[:4])
	return err
}

// Bytes returns the serialized transaction.
func (tx *Tx) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(tx.SerializeSize())

	// Writes to a bytes.Buffer only fail when out of memory.
	_ = tx.Serialize(&buf)
	return buf.Bytes()
}

// ToHex returns the serialized transaction as hex.
func (tx *Tx) ToHex() string {
	return hex.EncodeToString(tx.Bytes())
}

// Hash returns the double SHA-256 of the legacy encoding.
func (tx *Tx) Hash() chainhash.Hash {
	var buf bytes.Buffer
	buf.Grow(tx.serializeSize(false))
	_ = tx.SerializeNoWitness(&buf)
	return chainhash.DoubleHashH(buf.Bytes())
}

// TxID returns the hash in its byte reversed hex display form.
func (tx *Tx) TxID() string {
	h := tx.Hash()
	return h.String()
}

type byteScanReader interface {
	io.Reader
	io.ByteScanner
}

// Deserialize reads a transaction in either encoding from r.  Readers that
// can not unread a byte are buffered, so r may be read past the end of the
// transaction.
func (tx *Tx) Deserialize(r io.Reader) error {
	br, ok := r.(byteScanReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return tx.deserialize(br)
}

func (tx *Tx) deserialize(r byteScanReader) error {
	var buf [8]byte

	if _, err := io.ReadFull(r, buf[:4]); err != nil {
		return err
	}
	tx.Version = int32(binary.LittleEndian.Uint32(buf[:4]))

	// A zero input count followed by the flag byte marks the BIP0144
	// encoding.
	var (
		count   uint64
		witness bool
	)
	marker, err := r.ReadByte()
	if err != nil {
		return err
	}
	switch {
	case marker != witnessMarker:
		if err := r.UnreadByte(); err != nil {
			return err
		}
		count, err = readCount(r, minTxInSize, "input")
		if err != nil {
			return err
		}

	default:
		flag, err := r.ReadByte()
		if err != nil {
			return err
		}
		if flag != witnessFlag {
			// Legacy encoding without inputs.
			if err := r.UnreadByte(); err != nil {
				return err
			}
			break
		}
		witness = true
		count, err = readCount(r, minTxInSize, "input")
		if err != nil {
			return err
		}
	}

	tx.Inputs = make([]*Input, 0, count)
	for i := uint64(0); i < count; i++ {
		in := new(Input)
		if _, err := io.ReadFull(r, in.Hash[:]); err != nil {
			return err
		}
		if _, err := io.ReadFull(r, buf[:4]); err != nil {
			return err
		}
		in.Index = binary.LittleEndian.Uint32(buf[:4])
		in.Script, err = wire.ReadVarBytes(r, pver, maxElementSize,
			"signature script")
		if err != nil {
			return err
		}
		if _, err := io.ReadFull(r, buf[:4]); err != nil {
			return err
		}
		in.Sequence = binary.LittleEndian.Uint32(buf[:4])
		tx.Inputs = append(tx.Inputs, in)
	}

	count, err = readCount(r, minTxOutSize, "output")
	if err != nil {
		return err
	}
	tx.Outputs = make([]*Output, 0, count)
	for i := uint64(0); i < count; i++ {
		out := new(Output)
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return err
		}
		out.Value = int64(binary.LittleEndian.Uint64(buf[:]))
		out.Script, err = wire.ReadVarBytes(r, pver, maxElementSize,
			"public key script")
		if err != nil {
			return err
		}
		tx.Outputs = append(tx.Outputs, out)
	}

	if witness {
		for _, in := range tx.Inputs {
			n, err := readCount(r, 1, "witness item")
			if err != nil {
				return err
			}
			if n == 0 {
				continue
			}
			in.Witness = make([][]byte, 0, n)
			for j := uint64(0); j < n; j++ {
				item, err := wire.ReadVarBytes(r, pver,
					maxElementSize, "witness item")
				if err != nil {
					return err
				}
				in.Witness = append(in.Witness, item)
			}
		}
		if !tx.HasWitness() {
			return ErrSuperfluousWitness
		}
	}

	if _, err := io.ReadFull(r, buf[:4]); err != nil {
		return err
	}
	tx.LockTime = binary.LittleEndian.Uint32(buf[:4])

	return nil
}

// readCount reads a varint element count and rejects counts that could not
// fit in a message given the minimum element size.
func readCount(r io.Reader, minSize int, name string) (uint64, error) {
	count, err := wire.ReadVarInt(r, pver)
	if err != nil {
		return 0, err
	}
	if max := uint64(maxElementSize / minSize); count > max {
		return 0, fmt.Errorf("too many %ss to fit into max message "+
			"size [count %d, max %d]", name, count, max)
	}
	return count, nil
}

// FromBytes parses a serialized transaction.  All of b must be consumed.
func FromBytes(b []byte) (*Tx, error) {
	r := bytes.NewReader(b)
	tx := new(Tx)
	if err := tx.deserialize(r); err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingBytes, r.Len())
	}
	return tx, nil
}

// FromHex parses a hex encoded transaction.
func FromHex(s string) (*Tx, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return FromBytes(b)
}

// ToMsgTx converts the transaction into its btcd wire form.
func (tx *Tx) ToMsgTx() *wire.MsgTx {
	msg := wire.NewMsgTx(tx.Version)
	msg.LockTime = tx.LockTime
	for _, in := range tx.Inputs {
		txIn := wire.NewTxIn(
			wire.NewOutPoint(&in.Hash, in.Index), in.Script,
			in.Witness,
		)
		txIn.Sequence = in.Sequence
		msg.AddTxIn(txIn)
	}
	for _, out := range tx.Outputs {
		msg.AddTxOut(wire.NewTxOut(out.Value, out.Script))
	}
	return msg
}

// FromMsgTx converts a btcd wire transaction.
func FromMsgTx(msg *wire.MsgTx) *Tx {
	tx := &Tx{Version: msg.Version, LockTime: msg.LockTime}
	for _, txIn := range msg.TxIn {
		tx.Inputs = append(tx.Inputs, &Input{
			Hash:     txIn.PreviousOutPoint.Hash,
			Index:    txIn.PreviousOutPoint.Index,
			Sequence: txIn.Sequence,
			Script:   txIn.SignatureScript,
			Witness:  txIn.Witness,
		})
	}
	for _, txOut := range msg.TxOut {
		tx.Outputs = append(tx.Outputs, &Output{
			Value:  txOut.Value,
			Script: txOut.PkScript,
		})
	}
	return tx
}

// HashForSignature returns the legacy signature hash of input idx spending
// an output locked by prevScript.
func (tx *Tx) HashForSignature(idx int, prevScript []byte,
	hashType txscript.SigHashType) ([]byte, error) {

	if idx < 0 || idx >= len(tx.Inputs) {
		return nil, fmt.Errorf("input index %d out of range [0, %d)",
			idx, len(tx.Inputs))
	}
	return txscript.CalcSignatureHash(prevScript, hashType, tx.ToMsgTx(), idx)
}
