// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package payments

import (
	"github.com/satorinet/evrwallet/script"
)

// Classify returns the template of an output script, ignoring any asset tag.
// Only structure is checked: key and count validity is left to the
// constructors.
func Classify(pkScript []byte) Type {
	chunks, err := script.Decompile(script.StripAssetTag(pkScript))
	if err != nil {
		return NonStandard
	}

	switch {
	case p2pkhHash(chunks) != nil:
		return P2PKH
	case p2shHash(chunks) != nil:
		return P2SH
	case isP2PK(chunks):
		return P2PK
	}
	if ms, ok := decodeMultisig(chunks); ok && ms.n == len(ms.pubKeys) &&
		checkMultisigCounts(ms.m, ms.n) == nil {

		return P2MS
	}
	return NonStandard
}

func isP2PK(chunks []script.Chunk) bool {
	return len(chunks) == 2 && chunks[0].IsPush() &&
		(len(chunks[0].Data) == 33 || len(chunks[0].Data) == 65) &&
		!chunks[1].IsPush() && chunks[1].Opcode == script.OP_CHECKSIG
}
