// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package payments

import (
	"github.com/satorinet/evrwallet/netparams"
	"github.com/satorinet/evrwallet/script"
)

// P2PKArgs holds the known fields of a pay-to-pubkey payment.
//
//	output: <pubkey> OP_CHECKSIG [asset tag]
//	input:  <signature>
type P2PKArgs struct {
	Network   *netparams.Params
	Output    []byte
	PubKey    []byte
	Signature []byte
	Input     []byte
	Asset     *script.Asset
}

// NewP2PK returns a pay-to-pubkey payment.
func NewP2PK(a P2PKArgs, opts ...Option) (*Payment, error) {
	if a.Output == nil && a.PubKey == nil && a.Signature == nil &&
		a.Input == nil {

		return nil, insufficientData(P2PK)
	}
	o := newOptions(opts)
	p := newPayment(P2PK, a.Network, a.Asset)

	inputChunks := decompiled(a.Input)
	outputChunks := func() []script.Chunk {
		if a.Output == nil {
			return nil
		}
		return decompiled(script.StripAssetTag(a.Output))()
	}

	p.resolve = resolvers{
		output: func() []byte {
			if a.Output != nil {
				return a.Output
			}
			if a.PubKey == nil {
				return nil
			}
			out, err := script.AppendAssetTag(script.MustCompile(
				script.Push(a.PubKey), script.Op(script.OP_CHECKSIG),
			), a.Asset)
			if err != nil {
				return nil
			}
			return out
		},
		pubKey: func() []byte {
			if a.PubKey != nil {
				return a.PubKey
			}
			chunks := outputChunks()
			if len(chunks) != 2 || !chunks[0].IsPush() {
				return nil
			}
			return chunks[0].Data
		},
		signature: func() []byte {
			if a.Signature != nil {
				return a.Signature
			}
			chunks := inputChunks()
			if len(chunks) != 1 || !chunks[0].IsPush() {
				return nil
			}
			return chunks[0].Data
		},
		input: func() []byte {
			if a.Input != nil {
				return a.Input
			}
			if a.Signature == nil {
				return nil
			}
			return script.MustCompile(script.Push(a.Signature))
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
			chunks := outputChunks()
			if len(chunks) != 2 || !chunks[0].IsPush() ||
				chunks[1].Opcode != script.OP_CHECKSIG ||
				chunks[1].IsPush() {

				return malformed(P2PK, "output is invalid", nil)
			}
			if !script.IsCanonicalPubKey(chunks[0].Data) {
				return malformed(P2PK, "output pubkey is invalid",
					nil)
			}
			if a.PubKey != nil && !bytesEqual(a.PubKey,
				chunks[0].Data) {

				return mismatch(P2PK, "pubkey", "output")
			}
			if err := checkAsset(P2PK, "output", a.Output,
				a.Asset); err != nil {

				return err
			}
		}

		if a.PubKey != nil && !script.IsCanonicalPubKey(a.PubKey) {
			return malformed(P2PK, "pubkey is invalid", nil)
		}

		if a.Signature != nil {
			if !script.IsCanonicalScriptSignature(a.Signature) {
				return malformed(P2PK, "signature is invalid",
					nil)
			}
			if a.Input != nil && !bytesEqual(a.Input,
				script.MustCompile(script.Push(a.Signature))) {

				return mismatch(P2PK, "signature", "input")
			}
		}

		if a.Input != nil {
			chunks := inputChunks()
			if len(chunks) != 1 || !chunks[0].IsPush() {
				return malformed(P2PK, "input is invalid", nil)
			}
			if !script.IsCanonicalScriptSignature(chunks[0].Data) {
				return malformed(P2PK,
					"input has invalid signature", nil)
			}
		}

		return nil
	})
}
