// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package payments

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/satorinet/evrwallet/netparams"
	"github.com/satorinet/evrwallet/script"
)

// P2PKHArgs holds the known fields of a pay-to-pubkey-hash payment.
//
//	output: OP_DUP OP_HASH160 <hash160(pubkey)> OP_EQUALVERIFY OP_CHECKSIG
//	        [asset tag]
//	input:  <signature> <pubkey> [asset tag]
type P2PKHArgs struct {
	Network   *netparams.Params
	Address   string
	Hash      []byte
	Output    []byte
	PubKey    []byte
	Signature []byte
	Input     []byte
	Asset     *script.Asset
}

// p2pkhTemplate returns the untagged output for hash.
func p2pkhTemplate(hash []byte) []script.Chunk {
	return []script.Chunk{
		script.Op(script.OP_DUP),
		script.Op(script.OP_HASH160),
		script.Push(hash),
		script.Op(script.OP_EQUALVERIFY),
		script.Op(script.OP_CHECKSIG),
	}
}

// p2pkhHash returns the hash of an untagged P2PKH output, or nil.
func p2pkhHash(chunks []script.Chunk) []byte {
	want := p2pkhTemplate(make([]byte, 20))
	if len(chunks) != len(want) || !chunks[2].IsPush() ||
		len(chunks[2].Data) != 20 {

		return nil
	}
	for i, c := range chunks {
		if i != 2 && !c.Equal(want[i]) {
			return nil
		}
	}
	return chunks[2].Data
}

// NewP2PKH returns a pay-to-pubkey-hash payment.
func NewP2PKH(a P2PKHArgs, opts ...Option) (*Payment, error) {
	if a.Address == "" && a.Hash == nil && a.Output == nil &&
		a.PubKey == nil && a.Input == nil {

		return nil, insufficientData(P2PKH)
	}
	o := newOptions(opts)
	p := newPayment(P2PKH, a.Network, a.Asset)

	inputChunks := decompiled(a.Input)
	outputChunks := func() []script.Chunk {
		if a.Output == nil {
			return nil
		}
		return decompiled(script.StripAssetTag(a.Output))()
	}
	var addr lazy[*decodedAddress]
	address := func() *decodedAddress {
		return addr.get(func() *decodedAddress {
			if a.Address == "" {
				return nil
			}
			version, hash, err := DecodeAddress(a.Address)
			if err != nil {
				return nil
			}
			return &decodedAddress{version, hash}
		})
	}

	p.resolve = resolvers{
		hash: func() []byte {
			if a.Hash != nil {
				return a.Hash
			}
			if h := p2pkhHash(outputChunks()); h != nil {
				return h
			}
			if d := address(); d != nil {
				return d.hash
			}
			if pk := p.PubKey(); pk != nil {
				return btcutil.Hash160(pk)
			}
			return nil
		},
		address: func() string {
			if a.Address != "" {
				return a.Address
			}
			hash := p.Hash()
			if hash == nil {
				return ""
			}
			return EncodeAddress(hash, p.net.PubKeyHashAddrID)
		},
		output: func() []byte {
			if a.Output != nil {
				return a.Output
			}
			hash := p.Hash()
			if hash == nil {
				return nil
			}
			out, err := script.AppendAssetTag(
				script.MustCompile(p2pkhTemplate(hash)...), a.Asset,
			)
			if err != nil {
				return nil
			}
			return out
		},
		pubKey: func() []byte {
			if a.PubKey != nil {
				return a.PubKey
			}
			chunks := inputChunks()
			if len(chunks) < 2 || !chunks[1].IsPush() {
				return nil
			}
			return chunks[1].Data
		},
		signature: func() []byte {
			if a.Signature != nil {
				return a.Signature
			}
			chunks := inputChunks()
			if len(chunks) < 2 || !chunks[0].IsPush() {
				return nil
			}
			return chunks[0].Data
		},
		input: func() []byte {
			if a.Input != nil {
				return a.Input
			}
			if a.PubKey == nil || a.Signature == nil {
				return nil
			}
			in, err := p2pkhInput(a.Signature, a.PubKey, a.Asset)
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
		hc := hashCheck{kind: P2PKH}

		if a.Address != "" {
			d := address()
			if d == nil || len(d.hash) != 20 {
				return malformed(P2PKH, "invalid address", nil)
			}
			if d.version != p.net.PubKeyHashAddrID {
				str := fmt.Sprintf("address version 0x%02x is "+
					"not %s p2pkh", d.version, p.net.Name)
				return malformed(P2PKH, str, nil)
			}
			hc.add("address", d.hash)
		}

		if a.Hash != nil {
			if len(a.Hash) != 20 {
				return malformed(P2PKH, "hash must be 20 bytes",
					nil)
			}
			if err := hc.add("hash", a.Hash); err != nil {
				return err
			}
		}

		if a.Output != nil {
			h := p2pkhHash(outputChunks())
			if h == nil {
				return malformed(P2PKH, "output is invalid", nil)
			}
			if err := hc.add("output", h); err != nil {
				return err
			}
			if err := checkAsset(P2PKH, "output", a.Output,
				a.Asset); err != nil {

				return err
			}
		}

		if a.PubKey != nil {
			if !script.IsCanonicalPubKey(a.PubKey) {
				return malformed(P2PKH, "pubkey is invalid", nil)
			}
			err := hc.add("pubkey", btcutil.Hash160(a.PubKey))
			if err != nil {
				return err
			}
		}

		if a.Signature != nil &&
			!script.IsCanonicalScriptSignature(a.Signature) {

			return malformed(P2PKH, "signature is invalid", nil)
		}

		if a.Input != nil {
			if err := checkP2PKHInput(inputChunks(), a); err != nil {
				return err
			}
			pk := inputChunks()[1].Data
			if err := hc.add("input", btcutil.Hash160(pk)); err != nil {
				return err
			}
		}

		return nil
	})
}

type decodedAddress struct {
	version byte
	hash    []byte
}

// p2pkhInput builds the unlocking script, carrying the asset tag inline when
// one is given.
func p2pkhInput(sig, pubKey []byte, asset *script.Asset) ([]byte, error) {
	chunks := []script.Chunk{script.Push(sig), script.Push(pubKey)}
	if asset != nil {
		tag, err := script.AssetTagChunks(asset)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, tag...)
	}
	return script.Compile(chunks)
}

func checkP2PKHInput(chunks []script.Chunk, a P2PKHArgs) error {
	if len(chunks) != 2 && len(chunks) != 5 {
		return malformed(P2PKH, "input is invalid", nil)
	}
	if !chunks[0].IsPush() ||
		!script.IsCanonicalScriptSignature(chunks[0].Data) {

		return malformed(P2PKH, "input has invalid signature", nil)
	}
	if !chunks[1].IsPush() || !script.IsCanonicalPubKey(chunks[1].Data) {
		return malformed(P2PKH, "input has invalid pubkey", nil)
	}
	if a.Signature != nil && !bytesEqual(a.Signature, chunks[0].Data) {
		return mismatch(P2PKH, "signature", "input")
	}
	if a.PubKey != nil && !bytesEqual(a.PubKey, chunks[1].Data) {
		return mismatch(P2PKH, "pubkey", "input")
	}

	tag := chunks[2:]
	if len(tag) > 0 {
		raw, err := script.Compile(tag)
		if err != nil {
			return malformed(P2PKH, "input asset tag is invalid", err)
		}
		_, asset, err := script.SplitAssetTag(raw)
		if err != nil || asset == nil {
			return malformed(P2PKH, "input asset tag is invalid", err)
		}
	}
	if a.Asset == nil {
		return nil
	}

	want, err := script.AssetTagChunks(a.Asset)
	if err != nil {
		return malformed(P2PKH, "invalid asset", err)
	}
	if len(tag) != len(want) {
		return mismatch(P2PKH, "asset", "input")
	}
	for i := range want {
		if !want[i].Equal(tag[i]) {
			return mismatch(P2PKH, "asset", "input")
		}
	}
	return nil
}
