// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/satorinet/evrwallet/netparams"
	"github.com/satorinet/evrwallet/wallet/txauthor"
	"github.com/stretchr/testify/require"
)

const (
	recipientAddr = "eEY5brnAULc9wnr2Evfr31rdUHpoZbn1Uq"
	changeAddr    = "EQ2dsWBZAJCUJsNTFm1aDY4BQHXTmFRGK5"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		args    []string
		net     *netparams.Params
		wantErr bool
	}{
		{
			name: "send",
			args: []string{"--utxos", "u.json", "-r",
				recipientAddr + ":1"},
			net: &netparams.MainNetParams,
		},
		{
			name: "sign on testnet",
			args: []string{"--testnet", "--sign", "p.psbt"},
			net:  &netparams.TestNetParams,
		},
		{
			name: "finalize on regtest",
			args: []string{"--regtest", "--finalize", "a",
				"--finalize", "b"},
			net: &netparams.RegressionNetParams,
		},
		{
			name: "unsigned with change",
			args: []string{"--utxos", "u.json", "-r",
				recipientAddr + ":1", "--unsigned", "--change",
				changeAddr},
			net: &netparams.MainNetParams,
		},
		{
			name:    "no mode",
			args:    []string{},
			wantErr: true,
		},
		{
			name: "two modes",
			args: []string{"--sign", "p.psbt", "--finalize",
				"p.psbt"},
			wantErr: true,
		},
		{
			name:    "two networks",
			args:    []string{"--testnet", "--regtest", "--sign", "p"},
			wantErr: true,
		},
		{
			name:    "recipients without utxos",
			args:    []string{"-r", recipientAddr + ":1"},
			wantErr: true,
		},
		{
			name: "unsigned without change",
			args: []string{"--utxos", "u.json", "-r",
				recipientAddr + ":1", "--unsigned"},
			wantErr: true,
		},
		{
			name: "change on another network",
			args: []string{"--testnet", "--utxos", "u.json", "-r",
				recipientAddr + ":1", "--change", changeAddr},
			wantErr: true,
		},
		{
			name: "fee rate too high",
			args: []string{"--sign", "p", "--feerate",
				"1000000"},
			wantErr: true,
		},
		{
			name:    "unknown flag",
			args:    []string{"--sign", "p", "--bogus"},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg, net, err := loadConfig(tc.args)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.net, net)
			require.Equal(t, int64(defaultFeeRate), cfg.FeeRate)
		})
	}
}

func TestParseRecipient(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		s       string
		want    txauthor.Recipient
		wantErr bool
	}{
		{
			name: "base asset",
			s:    recipientAddr + ":0.001",
			want: txauthor.Recipient{
				Address: recipientAddr,
				Asset:   txauthor.BaseAsset,
				Amount:  100000,
			},
		},
		{
			name: "asset",
			s:    changeAddr + ":0.02:SATORI",
			want: txauthor.Recipient{
				Address: changeAddr,
				Asset:   "SATORI",
				Amount:  btcutil.Amount(2000000),
			},
		},
		{
			name: "None is the base asset",
			s:    changeAddr + ":1:None",
			want: txauthor.Recipient{
				Address: changeAddr,
				Asset:   txauthor.BaseAsset,
				Amount:  100000000,
			},
		},
		{
			name:    "no amount",
			s:       recipientAddr,
			wantErr: true,
		},
		{
			name:    "zero amount",
			s:       recipientAddr + ":0",
			wantErr: true,
		},
		{
			name:    "bad address",
			s:       "Enope:1",
			wantErr: true,
		},
		{
			name:    "too many parts",
			s:       recipientAddr + ":1:SATORI:x",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseRecipient(tc.s, &netparams.MainNetParams)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
