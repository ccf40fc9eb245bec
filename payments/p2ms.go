// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package payments

import (
	"fmt"

	"github.com/satorinet/evrwallet/netparams"
	"github.com/satorinet/evrwallet/script"
)

// MaxMultisigKeys is the largest number of keys in a bare multisig output.
const MaxMultisigKeys = 15

// P2MSArgs holds the known fields of a bare multisig payment.
//
//	output: m <pubkey_1> ... <pubkey_n> n OP_CHECKMULTISIG [asset tag]
//	input:  OP_0 <signature_1> ... <signature_m>
//
// An empty signature is a placeholder for one not yet collected and encodes
// as OP_0.
type P2MSArgs struct {
	Network    *netparams.Params
	M          int
	PubKeys    [][]byte
	Output     []byte
	Signatures [][]byte
	Input      []byte
	Asset      *script.Asset
}

// multisigOutput is the decoded form of an untagged multisig output.
type multisigOutput struct {
	m, n    int
	pubKeys [][]byte
}

// decodeMultisig parses an untagged multisig output.  Counts are returned as
// found; range checks are left to the caller.
func decodeMultisig(chunks []script.Chunk) (*multisigOutput, bool) {
	if len(chunks) < 4 {
		return nil, false
	}
	last := chunks[len(chunks)-1]
	if last.IsPush() || last.Opcode != script.OP_CHECKMULTISIG {
		return nil, false
	}
	if chunks[0].IsPush() || chunks[len(chunks)-2].IsPush() {
		return nil, false
	}
	m, ok := script.AsSmallInt(chunks[0].Opcode)
	if !ok {
		return nil, false
	}
	n, ok := script.AsSmallInt(chunks[len(chunks)-2].Opcode)
	if !ok {
		return nil, false
	}

	keys := chunks[1 : len(chunks)-2]
	pubKeys := make([][]byte, 0, len(keys))
	for _, c := range keys {
		if !c.IsPush() {
			return nil, false
		}
		pubKeys = append(pubKeys, c.Data)
	}

	return &multisigOutput{m: m, n: n, pubKeys: pubKeys}, true
}

// checkMultisigCounts enforces 1 <= m <= n <= MaxMultisigKeys.
func checkMultisigCounts(m, n int) error {
	if m < 1 || n < 1 || m > n || n > MaxMultisigKeys {
		str := fmt.Sprintf("invalid multisig counts: %d of %d", m, n)
		return malformed(P2MS, str, nil)
	}
	return nil
}

// multisigOutputScript builds the untagged output.
func multisigOutputScript(m int, pubKeys [][]byte) ([]byte, error) {
	if err := checkMultisigCounts(m, len(pubKeys)); err != nil {
		return nil, err
	}
	mOp, _ := script.SmallIntOpcode(m)
	nOp, _ := script.SmallIntOpcode(len(pubKeys))

	chunks := make([]script.Chunk, 0, len(pubKeys)+3)
	chunks = append(chunks, script.Op(mOp))
	for _, pk := range pubKeys {
		chunks = append(chunks, script.Push(pk))
	}
	chunks = append(chunks, script.Op(nOp),
		script.Op(script.OP_CHECKMULTISIG))

	return script.Compile(chunks)
}

// NewP2MS returns a bare multisig payment.
//
// The signature count must equal m.  Placeholders are accepted in either the
// signature list or the input only when WithAllowIncomplete is given.
func NewP2MS(a P2MSArgs, opts ...Option) (*Payment, error) {
	if a.M == 0 && a.PubKeys == nil && a.Output == nil &&
		a.Signatures == nil && a.Input == nil {

		return nil, insufficientData(P2MS)
	}
	o := newOptions(opts)
	p := newPayment(P2MS, a.Network, a.Asset)

	inputChunks := decompiled(a.Input)
	var decoded lazy[*multisigOutput]
	output := func() *multisigOutput {
		return decoded.get(func() *multisigOutput {
			if a.Output == nil {
				return nil
			}
			chunks, err := script.Decompile(
				script.StripAssetTag(a.Output),
			)
			if err != nil {
				return nil
			}
			ms, ok := decodeMultisig(chunks)
			if !ok {
				return nil
			}
			return ms
		})
	}

	p.resolve = resolvers{
		name: func() string {
			m, n := p.M(), p.N()
			if m == 0 || n == 0 {
				return P2MS.String()
			}
			return fmt.Sprintf("p2ms(%d of %d)", m, n)
		},
		m: func() int {
			if a.M != 0 {
				return a.M
			}
			if ms := output(); ms != nil {
				return ms.m
			}
			return 0
		},
		n: func() int {
			if a.PubKeys != nil {
				return len(a.PubKeys)
			}
			if ms := output(); ms != nil {
				return ms.n
			}
			return 0
		},
		pubKeys: func() [][]byte {
			if a.PubKeys != nil {
				return a.PubKeys
			}
			if ms := output(); ms != nil {
				return ms.pubKeys
			}
			return nil
		},
		output: func() []byte {
			if a.Output != nil {
				return a.Output
			}
			if a.M == 0 || a.PubKeys == nil {
				return nil
			}
			out, err := multisigOutputScript(a.M, a.PubKeys)
			if err != nil {
				return nil
			}
			out, err = script.AppendAssetTag(out, a.Asset)
			if err != nil {
				return nil
			}
			return out
		},
		signatures: func() [][]byte {
			if a.Signatures != nil {
				return a.Signatures
			}
			chunks := inputChunks()
			if len(chunks) < 1 {
				return nil
			}
			return inputSignatures(chunks)
		},
		input: func() []byte {
			if a.Input != nil {
				return a.Input
			}
			if a.Signatures == nil {
				return nil
			}
			chunks := make([]script.Chunk, 0, len(a.Signatures)+1)
			chunks = append(chunks, script.Op(script.OP_0))
			for _, sig := range a.Signatures {
				chunks = append(chunks, script.Push(sig))
			}
			in, err := script.Compile(chunks)
			if err != nil {
				return nil
			}
			return in
		},
		witness: func() [][]byte {
			if p.Input() == nil {
				return nil
			}
			return [][]byte{}
		},
	}

	return p.finish(o, func() error {
		if a.Output != nil {
			ms := output()
			if ms == nil {
				return malformed(P2MS, "output is invalid", nil)
			}
			if err := checkMultisigCounts(ms.m, ms.n); err != nil {
				return err
			}
			if len(ms.pubKeys) != ms.n {
				return malformed(P2MS, "output key count does "+
					"not match n", nil)
			}
			if a.M != 0 && a.M != ms.m {
				return mismatch(P2MS, "m", "output")
			}
			if a.PubKeys != nil && !stacksEqual(a.PubKeys,
				ms.pubKeys) {

				return mismatch(P2MS, "pubkeys", "output")
			}
			if err := checkAsset(P2MS, "output", a.Output,
				a.Asset); err != nil {

				return err
			}
		}

		if a.M != 0 || a.PubKeys != nil {
			if a.PubKeys != nil && len(a.PubKeys) == 0 {
				return malformed(P2MS, "no pubkeys", nil)
			}
			// Without keys or an output n is unknown.
			n := p.N()
			if n == 0 {
				n = MaxMultisigKeys
			}
			if err := checkMultisigCounts(p.M(), n); err != nil {
				return err
			}
		}

		for _, pk := range p.PubKeys() {
			if !script.IsCanonicalPubKey(pk) {
				return malformed(P2MS, "invalid pubkey", nil)
			}
		}

		if a.Signatures != nil {
			err := checkMultisigSigs(p.M(), "signatures",
				a.Signatures, o.allowIncomplete)
			if err != nil {
				return err
			}
		}

		if a.Input != nil {
			chunks := inputChunks()
			if len(chunks) < 2 || chunks[0].IsPush() ||
				chunks[0].Opcode != script.OP_0 {

				return malformed(P2MS, "input is invalid", nil)
			}
			for _, c := range chunks[1:] {
				if !c.IsPush() && c.Opcode != script.OP_0 {
					return malformed(P2MS,
						"input is invalid", nil)
				}
			}
			sigs := inputSignatures(chunks)
			if a.Signatures != nil && !stacksEqual(a.Signatures,
				sigs) {

				return mismatch(P2MS, "signatures", "input")
			}
			err := checkMultisigSigs(p.M(), "input", sigs,
				o.allowIncomplete)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// inputSignatures returns the signatures following the leading OP_0 of a
// multisig input, mapping OP_0 placeholders to empty slices.
func inputSignatures(chunks []script.Chunk) [][]byte {
	sigs := make([][]byte, 0, len(chunks)-1)
	for _, c := range chunks[1:] {
		if c.IsPush() {
			sigs = append(sigs, c.Data)
		} else {
			sigs = append(sigs, []byte{})
		}
	}
	return sigs
}

// checkMultisigSigs validates each signature and the count against m.  An m
// of zero means the count is unknown.
func checkMultisigSigs(m int, field string, sigs [][]byte,
	allowIncomplete bool) error {

	for i, sig := range sigs {
		if len(sig) == 0 {
			if allowIncomplete {
				continue
			}
			str := fmt.Sprintf("%s: missing signature %d", field, i)
			return malformed(P2MS, str, nil)
		}
		if !script.IsCanonicalScriptSignature(sig) {
			str := fmt.Sprintf("%s: signature %d is invalid", field,
				i)
			return malformed(P2MS, str, nil)
		}
	}
	if m != 0 && len(sigs) != m {
		return mismatch(P2MS, field, "m")
	}
	return nil
}
