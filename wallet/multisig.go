// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"errors"
	"fmt"

	"github.com/satorinet/evrwallet/netparams"
	"github.com/satorinet/evrwallet/payments"
)

// MultisigRedeemScript creates a multi-signature script that can be redeemed
// with required signatures of the passed public keys, in the given order.
func MultisigRedeemScript(required int, pubKeys [][]byte) ([]byte, error) {
	switch {
	case required < 1:
		return nil, errors.New("at least one signature is required")
	case required > len(pubKeys):
		return nil, fmt.Errorf("required signatures %d exceed the %d "+
			"public keys", required, len(pubKeys))
	case len(pubKeys) > payments.MaxMultisigKeys:
		return nil, fmt.Errorf("a maximum of %d public keys is allowed",
			payments.MaxMultisigKeys)
	}

	p, err := payments.NewP2MS(payments.P2MSArgs{
		M:       required,
		PubKeys: pubKeys,
	})
	if err != nil {
		return nil, err
	}
	return p.Output(), nil
}

// MultisigAddress returns the P2SH address of a multi-signature script over
// pubKeys along with the redeem script.
func MultisigAddress(required int, pubKeys [][]byte,
	net *netparams.Params) (string, []byte, error) {

	redeemScript, err := MultisigRedeemScript(required, pubKeys)
	if err != nil {
		return "", nil, err
	}

	p, err := payments.NewP2SH(payments.P2SHArgs{
		Network: net,
		Redeem:  &payments.Redeem{Output: redeemScript},
	})
	if err != nil {
		return "", nil, err
	}
	return p.Address(), redeemScript, nil
}
