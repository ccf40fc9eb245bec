// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txn

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/satorinet/evrwallet/script"
	"github.com/stretchr/testify/require"
)

func readTestTx(t *testing.T, name string) string {
	t.Helper()

	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return strings.TrimSpace(string(b))
}

// TestParseKnownTransactions parses two mainnet transactions, one of which
// carries asset outputs, and checks their ids and re-encoding.
func TestParseKnownTransactions(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		file     string
		id       string
		version  int32
		inputs   int
		outputs  int
		lockTime uint32
	}{
		{
			name:     "p2pkh spend",
			file:     "38bb346a.hex",
			id:       "38bb346a8ba44a93b637063cb4295329c870a20c349dcd1806d97165ca2625a5",
			version:  2,
			inputs:   1,
			outputs:  2,
			lockTime: 0x00126a07,
		},
		{
			name:     "multisig spend with assets",
			file:     "c25b5c39.hex",
			id:       "c25b5c39e03b28bebe5e4c072597942e6d0a834be82c7fd36cd72a02b4607690",
			version:  1,
			inputs:   4,
			outputs:  4,
			lockTime: 0,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			raw := readTestTx(t, tc.file)
			tx, err := FromHex(raw)
			require.NoError(t, err)

			require.Equal(t, tc.id, tx.TxID())
			require.Equal(t, tc.version, tx.Version)
			require.Len(t, tx.Inputs, tc.inputs)
			require.Len(t, tx.Outputs, tc.outputs)
			require.Equal(t, tc.lockTime, tx.LockTime)
			require.Equal(t, raw, tx.ToHex())
			require.Equal(t, len(raw)/2, tx.SerializeSize())

			// btcd agrees on the id.
			var msg wire.MsgTx
			err = msg.Deserialize(bytes.NewReader(tx.Bytes()))
			require.NoError(t, err)
			require.Equal(t, tc.id, msg.TxHash().String())
			require.Equal(t, tx, FromMsgTx(&msg))
		})
	}
}

// TestAssetOutputs checks asset tags survive parsing untouched.
func TestAssetOutputs(t *testing.T) {
	t.Parallel()

	tx, err := FromHex(readTestTx(t, "c25b5c39.hex"))
	require.NoError(t, err)

	testCases := []struct {
		index  int
		value  int64
		amount uint64
	}{
		{index: 0, value: 1000000},
		{index: 1, value: 0, amount: 20000000},
		{index: 2, value: 14734000},
		{index: 3, value: 0, amount: 5000000},
	}

	for _, tc := range testCases {
		out := tx.Outputs[tc.index]
		require.Equal(t, tc.value, out.Value)

		_, asset, err := script.SplitAssetTag(out.Script)
		require.NoError(t, err)
		if tc.amount == 0 {
			require.Nil(t, asset)
			continue
		}
		require.Equal(t, &script.Asset{
			Name: "SATORI", Amount: tc.amount,
		}, asset)
	}
}

// TestEmptyTxID checks the id of a transaction without inputs or outputs.
func TestEmptyTxID(t *testing.T) {
	t.Parallel()

	tx := New()
	want := chainhash.DoubleHashH([]byte{
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	})
	require.Equal(t, want.String(), tx.TxID())

	parsed, err := FromBytes(tx.Bytes())
	require.NoError(t, err)
	require.Empty(t, parsed.Inputs)
	require.Empty(t, parsed.Outputs)
}

// TestIsCoinbase covers the null outpoint rule.
func TestIsCoinbase(t *testing.T) {
	t.Parallel()

	var (
		null    chainhash.Hash
		nonNull = chainhash.Hash{0x01}
	)

	testCases := []struct {
		name   string
		inputs []Input
		want   bool
	}{
		{
			name:   "null outpoint",
			inputs: []Input{{Hash: null, Index: CoinbaseIndex}},
			want:   true,
		},
		{
			name:   "zero index",
			inputs: []Input{{Hash: null, Index: 0}},
		},
		{
			name:   "non zero hash",
			inputs: []Input{{Hash: nonNull, Index: CoinbaseIndex}},
		},
		{
			name: "two inputs",
			inputs: []Input{
				{Hash: null, Index: CoinbaseIndex},
				{Hash: null, Index: CoinbaseIndex},
			},
		},
		{
			name: "no inputs",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tx := New()
			for _, in := range tc.inputs {
				idx := tx.AddInput(&in.Hash, in.Index,
					DefaultSequence, nil)
				require.Equal(t, len(tx.Inputs)-1, idx)
			}
			_, err := tx.AddOutput([]byte{script.OP_TRUE}, 50)
			require.NoError(t, err)
			require.Equal(t, tc.want, tx.IsCoinbase())
		})
	}
}

// TestAddOutput checks positions and the negative value rule.
func TestAddOutput(t *testing.T) {
	t.Parallel()

	tx := New()
	idx, err := tx.AddOutput(nil, 0)
	require.NoError(t, err)
	require.Equal(t, 0, idx)

	idx, err = tx.AddOutput(nil, 1)
	require.NoError(t, err)
	require.Equal(t, 1, idx)

	_, err = tx.AddOutput(nil, -1)
	require.ErrorIs(t, err, ErrNegativeValue)
	require.Len(t, tx.Outputs, 2)
}

func witnessTx() *Tx {
	tx := New()
	tx.Version = 2
	tx.LockTime = 100
	tx.AddInput(&chainhash.Hash{0xaa}, 1, 0xfffffffe, []byte{})
	tx.AddInput(&chainhash.Hash{0xbb}, 0, DefaultSequence, []byte{0x51})
	tx.Inputs[0].Witness = [][]byte{{0x01, 0x02}, {0x03}}
	_, _ = tx.AddOutput([]byte{script.OP_TRUE}, 5000)
	return tx
}

// TestWitnessEncoding round trips the BIP0144 form and checks the id ignores
// witness data.
func TestWitnessEncoding(t *testing.T) {
	t.Parallel()

	tx := witnessTx()
	raw := tx.Bytes()
	require.Equal(t, []byte{0x00, 0x01}, raw[4:6])
	require.Equal(t, len(raw), tx.SerializeSize())

	parsed, err := FromBytes(raw)
	require.NoError(t, err)
	require.Equal(t, tx, parsed)

	var msg wire.MsgTx
	require.NoError(t, msg.Deserialize(bytes.NewReader(raw)))
	require.Equal(t, tx.TxID(), msg.TxHash().String())

	var legacy bytes.Buffer
	require.NoError(t, tx.SerializeNoWitness(&legacy))
	require.Equal(t, chainhash.DoubleHashH(legacy.Bytes()), tx.Hash())

	// Deserialize from a reader that can not unread.
	var viaReader Tx
	err = viaReader.Deserialize(struct{ io.Reader }{bytes.NewReader(raw)})
	require.NoError(t, err)
	require.Equal(t, tx, &viaReader)
}

// TestDeserializeErrors covers malformed encodings.
func TestDeserializeErrors(t *testing.T) {
	t.Parallel()

	tx := witnessTx()
	raw := tx.Bytes()

	stripped := tx.Clone()
	stripped.Inputs[0].Witness = nil
	legacy := stripped.Bytes()

	// Legacy body with the witness marker and empty witness stacks.
	superfluous := append([]byte{}, legacy[:4]...)
	superfluous = append(superfluous, 0x00, 0x01)
	superfluous = append(superfluous, legacy[4:len(legacy)-4]...)
	superfluous = append(superfluous, 0x00, 0x00)
	superfluous = append(superfluous, legacy[len(legacy)-4:]...)

	testCases := []struct {
		name string
		raw  []byte
		want error
	}{
		{
			name: "trailing byte",
			raw:  append(append([]byte{}, raw...), 0x00),
			want: ErrTrailingBytes,
		},
		{
			name: "superfluous witness",
			raw:  superfluous,
			want: ErrSuperfluousWitness,
		},
		{
			name: "truncated",
			raw:  raw[:len(raw)-1],
		},
		{
			name: "truncated input",
			raw:  legacy[:45],
		},
		{
			name: "empty",
			raw:  nil,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromBytes(tc.raw)
			require.Error(t, err)
			if tc.want != nil {
				require.ErrorIs(t, err, tc.want)
			}
		})
	}

	_, err := FromHex("zz")
	require.Error(t, err)
}

// TestSerializeShortWrite makes sure every write error is returned.
func TestSerializeShortWrite(t *testing.T) {
	t.Parallel()

	tx := witnessTx()
	size := tx.SerializeSize()
	for max := 0; max < size; max++ {
		err := tx.Serialize(newFixedWriter(max))
		require.Error(t, err, "max %d", max)
	}
	require.NoError(t, tx.Serialize(newFixedWriter(size)))
}

// TestClone makes sure a clone shares no memory with the original.
func TestClone(t *testing.T) {
	t.Parallel()

	tx := witnessTx()
	c := tx.Clone()
	require.Equal(t, tx, c)

	c.Inputs[0].Witness[0][0] = 0xff
	c.Inputs[1].Script[0] = 0x00
	c.Outputs[0].Script[0] = 0x00
	c.Inputs[0].Hash[0] = 0x00
	require.Equal(t, byte(0x01), tx.Inputs[0].Witness[0][0])
	require.Equal(t, byte(0x51), tx.Inputs[1].Script[0])
	require.Equal(t, byte(script.OP_TRUE), tx.Outputs[0].Script[0])
	require.Equal(t, byte(0xaa), tx.Inputs[0].Hash[0])
}

// TestHashForSignature checks the legacy sighash against btcd and the index
// bounds.
func TestHashForSignature(t *testing.T) {
	t.Parallel()

	tx, err := FromHex(readTestTx(t, "38bb346a.hex"))
	require.NoError(t, err)
	prevScript := tx.Outputs[0].Script

	got, err := tx.HashForSignature(0, prevScript, txscript.SigHashAll)
	require.NoError(t, err)

	want, err := txscript.CalcSignatureHash(
		prevScript, txscript.SigHashAll, tx.ToMsgTx(), 0,
	)
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Len(t, got, chainhash.HashSize)

	_, err = tx.HashForSignature(1, prevScript, txscript.SigHashAll)
	require.Error(t, err)
	_, err = tx.HashForSignature(-1, prevScript, txscript.SigHashAll)
	require.Error(t, err)
}
