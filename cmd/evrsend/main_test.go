// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/satorinet/evrwallet/txn"
	"github.com/stretchr/testify/require"
)

// testWIF owns both outputs in testdata/utxos.json.
const testWIF = "Kx8CrP9rBUzQ36USMLAcfJgDDAogpPmpG2ejnQhnrEV4bvCptaNP"

func testKey(*bufio.Reader) ([]byte, error) {
	return []byte(testWIF), nil
}

func runArgs(t *testing.T, args ...string) string {
	t.Helper()

	cfg, net, err := loadConfig(args)
	require.NoError(t, err)

	var out bytes.Buffer
	stdin := bufio.NewReader(strings.NewReader(""))
	require.NoError(t, run(cfg, net, stdin, &out, testKey))
	return strings.TrimSpace(out.String())
}

func sendArgs(extra ...string) []string {
	args := []string{
		"--utxos", filepath.Join("testdata", "utxos.json"),
		"-r", recipientAddr + ":0.02:SATORI",
		"-r", recipientAddr + ":0.001",
		"--change", changeAddr,
		"--feerate", "2000",
		"--yes",
	}
	return append(args, extra...)
}

// TestSend pays from the utxo file in one step and through separate
// create, sign and finalize steps.
func TestSend(t *testing.T) {
	t.Parallel()

	txHex := runArgs(t, sendArgs()...)
	tx, err := txn.FromHex(txHex)
	require.NoError(t, err)
	require.Len(t, tx.Inputs, 2)
	require.Len(t, tx.Outputs, 4)

	var total int64
	for _, out := range tx.Outputs {
		total += out.Value
	}
	require.Equal(t, int64(10000000-876000), total)
	for _, in := range tx.Inputs {
		require.NotEmpty(t, in.Script)
	}

	dir := t.TempDir()
	unsignedFile := filepath.Join(dir, "unsigned.psbt")
	signedFile := filepath.Join(dir, "signed.psbt")

	unsigned := runArgs(t, sendArgs("--unsigned")...)
	require.NoError(t, os.WriteFile(unsignedFile, []byte(unsigned), 0600))

	signed := runArgs(t, "--sign", unsignedFile)
	require.NoError(t, os.WriteFile(signedFile, []byte(signed), 0600))

	finalHex := runArgs(t, "--finalize", signedFile)
	require.Equal(t, txHex, finalHex)
}

func TestSendErrors(t *testing.T) {
	t.Parallel()

	// Not enough SATORI.
	cfg, net, err := loadConfig([]string{
		"--utxos", filepath.Join("testdata", "utxos.json"),
		"-r", recipientAddr + ":1:SATORI", "--yes",
	})
	require.NoError(t, err)
	stdin := bufio.NewReader(strings.NewReader(""))
	var out bytes.Buffer
	require.Error(t, run(cfg, net, stdin, &out, testKey))
	require.Zero(t, out.Len())

	// Declining the confirmation writes nothing.
	cfg, net, err = loadConfig(sendArgs()[:len(sendArgs())-1])
	require.NoError(t, err)
	stdin = bufio.NewReader(strings.NewReader("no\n"))
	require.Error(t, run(cfg, net, stdin, &out, testKey))
	require.Zero(t, out.Len())

	// Missing psbt file.
	cfg, net, err = loadConfig([]string{"--finalize", "missing.psbt"})
	require.NoError(t, err)
	require.Error(t, run(cfg, net, stdin, &out, testKey))
}
