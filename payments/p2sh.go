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

// P2SHArgs holds the known fields of a pay-to-script-hash payment.
//
//	output: OP_HASH160 <hash160(redeem output)> OP_EQUAL [asset tag]
//	input:  <redeem input pushes ...> <redeem output>
//
// The asset tag only ever appears on the output.
type P2SHArgs struct {
	Network *netparams.Params
	Address string
	Hash    []byte
	Output  []byte
	Input   []byte
	Witness [][]byte
	Redeem  *Redeem
	Asset   *script.Asset
}

func p2shTemplate(hash []byte) []script.Chunk {
	return []script.Chunk{
		script.Op(script.OP_HASH160),
		script.Push(hash),
		script.Op(script.OP_EQUAL),
	}
}

// p2shHash returns the hash of an untagged P2SH output, or nil.
func p2shHash(chunks []script.Chunk) []byte {
	if len(chunks) != 3 || !chunks[1].IsPush() || len(chunks[1].Data) != 20 {
		return nil
	}
	want := p2shTemplate(chunks[1].Data)
	if !chunks[0].Equal(want[0]) || !chunks[2].Equal(want[2]) {
		return nil
	}
	return chunks[1].Data
}

// redeemName names the template of a redeem output, or returns "" when it
// is not a standard one.
func redeemName(output []byte) string {
	switch Classify(output) {
	case P2PK:
		return P2PK.String()
	case P2PKH:
		return P2PKH.String()
	case P2SH:
		return P2SH.String()
	case P2MS:
		chunks, err := script.Decompile(script.StripAssetTag(output))
		if err != nil {
			return ""
		}
		ms, _ := decodeMultisig(chunks)
		return fmt.Sprintf("p2ms(%d of %d)", ms.m, ms.n)
	}
	return ""
}

// NewP2SH returns a pay-to-script-hash payment.
func NewP2SH(a P2SHArgs, opts ...Option) (*Payment, error) {
	if a.Address == "" && a.Hash == nil && a.Output == nil &&
		a.Redeem == nil && a.Input == nil {

		return nil, insufficientData(P2SH)
	}
	o := newOptions(opts)

	net := a.Network
	if net == nil && a.Redeem != nil {
		net = a.Redeem.Network
	}
	p := newPayment(P2SH, net, a.Asset)

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

	// inputRedeem splits the input into the revealed redeem script and
	// the pushes that unlock it.
	var fromInput lazy[*Redeem]
	inputRedeem := func() *Redeem {
		return fromInput.get(func() *Redeem {
			chunks := inputChunks()
			if len(chunks) == 0 || !chunks[len(chunks)-1].IsPush() {
				return nil
			}
			input, err := script.Compile(chunks[:len(chunks)-1])
			if err != nil {
				return nil
			}
			witness := a.Witness
			if witness == nil {
				witness = [][]byte{}
			}
			output := chunks[len(chunks)-1].Data
			return &Redeem{
				Name:    redeemName(output),
				Network: p.net,
				Output:  output,
				Input:   input,
				Witness: witness,
			}
		})
	}

	p.resolve = resolvers{
		name: func() string {
			r := p.Redeem()
			if r == nil || r.Name == "" {
				return P2SH.String()
			}
			return P2SH.String() + "-" + r.Name
		},
		redeem: func() *Redeem {
			if a.Redeem == nil {
				return inputRedeem()
			}
			r := *a.Redeem
			if r.Network == nil {
				r.Network = p.net
			}
			if r.Name == "" && r.Output != nil {
				r.Name = redeemName(r.Output)
			}
			return &r
		},
		hash: func() []byte {
			if a.Hash != nil {
				return a.Hash
			}
			if h := p2shHash(outputChunks()); h != nil {
				return h
			}
			if d := address(); d != nil {
				return d.hash
			}
			if r := p.Redeem(); r != nil && r.Output != nil {
				return btcutil.Hash160(r.Output)
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
			return EncodeAddress(hash, p.net.ScriptHashAddrID)
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
				script.MustCompile(p2shTemplate(hash)...), a.Asset,
			)
			if err != nil {
				return nil
			}
			return out
		},
		input: func() []byte {
			if a.Input != nil {
				return a.Input
			}
			r := a.Redeem
			if r == nil || r.Input == nil || r.Output == nil {
				return nil
			}
			chunks, err := script.Decompile(r.Input)
			if err != nil {
				return nil
			}
			chunks = append(chunks, script.Push(r.Output))
			in, err := script.Compile(chunks)
			if err != nil {
				return nil
			}
			return in
		},
		witness: func() [][]byte {
			if a.Witness != nil {
				return a.Witness
			}
			if r := p.Redeem(); r != nil && r.Witness != nil {
				return r.Witness
			}
			if p.Input() != nil {
				return [][]byte{}
			}
			return nil
		},
	}

	return p.finish(o, func() error {
		hc := hashCheck{kind: P2SH}

		if a.Address != "" {
			d := address()
			if d == nil || len(d.hash) != 20 {
				return malformed(P2SH, "invalid address", nil)
			}
			if d.version != p.net.ScriptHashAddrID {
				str := fmt.Sprintf("address version 0x%02x is "+
					"not %s p2sh", d.version, p.net.Name)
				return malformed(P2SH, str, nil)
			}
			hc.add("address", d.hash)
		}

		if a.Hash != nil {
			if len(a.Hash) != 20 {
				return malformed(P2SH, "hash must be 20 bytes", nil)
			}
			if err := hc.add("hash", a.Hash); err != nil {
				return err
			}
		}

		if a.Output != nil {
			h := p2shHash(outputChunks())
			if h == nil {
				return malformed(P2SH, "output is invalid", nil)
			}
			if err := hc.add("output", h); err != nil {
				return err
			}
			if err := checkAsset(P2SH, "output", a.Output,
				a.Asset); err != nil {

				return err
			}
		}

		checkRedeem := func(field string, r *Redeem) error {
			if r.Output != nil {
				chunks, err := script.Decompile(r.Output)
				if err != nil || len(chunks) == 0 {
					return malformed(P2SH, field+" output "+
						"is invalid", err)
				}
				err = hc.add(field+".output",
					btcutil.Hash160(r.Output))
				if err != nil {
					return err
				}
			}

			if r.Input != nil {
				hasInput := len(r.Input) > 0
				hasWitness := len(r.Witness) > 0
				switch {
				case !hasInput && !hasWitness:
					return malformed(P2SH, field+" input "+
						"is empty", nil)
				case hasInput && hasWitness:
					return malformed(P2SH, field+" has "+
						"both input and witness", nil)
				case hasInput && !script.IsPushOnlyScript(r.Input):
					return malformed(P2SH, field+" input "+
						"is not push only", nil)
				}
			}

			return validateRedeem(p.net, r, opts)
		}

		if a.Input != nil {
			r := inputRedeem()
			if r == nil {
				return malformed(P2SH, "input is invalid", nil)
			}
			if err := checkRedeem("input", r); err != nil {
				return err
			}
		}

		if a.Redeem != nil {
			if a.Redeem.Network != nil && a.Redeem.Network != p.net {
				return mismatch(P2SH, "redeem.network", "network")
			}
			if a.Input != nil {
				r := inputRedeem()
				if a.Redeem.Output != nil &&
					!bytesEqual(a.Redeem.Output, r.Output) {

					return mismatch(P2SH, "redeem.output",
						"input")
				}
				if a.Redeem.Input != nil &&
					!bytesEqual(a.Redeem.Input, r.Input) {

					return mismatch(P2SH, "redeem.input",
						"input")
				}
			}
			if a.Output == nil && a.Redeem.Output != nil {
				_, tag, _ := script.SplitAssetTag(a.Redeem.Output)
				if tag != nil {
					err := checkAsset(P2SH, "redeem.output",
						a.Redeem.Output, a.Asset)
					if err != nil {
						return err
					}
				}
			}
			if err := checkRedeem("redeem", a.Redeem); err != nil {
				return err
			}
		}

		if a.Witness != nil && a.Redeem != nil &&
			a.Redeem.Witness != nil &&
			!stacksEqual(a.Witness, a.Redeem.Witness) {

			return mismatch(P2SH, "witness", "redeem.witness")
		}

		return nil
	})
}

// validateRedeem builds the payment matching a standard redeem output so its
// own rules apply to the redeem input.  Non-standard redeem scripts are only
// checked structurally.
func validateRedeem(net *netparams.Params, r *Redeem, opts []Option) error {
	if r.Output == nil {
		return nil
	}
	var input []byte
	if len(r.Input) > 0 {
		input = r.Input
	}

	var err error
	switch Classify(r.Output) {
	case P2PK:
		_, err = NewP2PK(P2PKArgs{
			Network: net, Output: r.Output, Input: input,
		}, opts...)
	case P2PKH:
		_, err = NewP2PKH(P2PKHArgs{
			Network: net, Output: r.Output, Input: input,
		}, opts...)
	case P2MS:
		_, err = NewP2MS(P2MSArgs{
			Network: net, Output: r.Output, Input: input,
		}, opts...)
	}
	return err
}
