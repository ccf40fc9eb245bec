// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package payments derives and cross-checks the locking and unlocking scripts
// of the standard payment templates.
//
// Each constructor takes the fields the caller knows and fills in everything
// reachable from them on first access.  With validation on (the default) all
// fields are derived during construction and every supplied value is compared
// with its independently derived counterpart, so a returned Payment is always
// consistent.
package payments

import (
	"sync"

	"github.com/satorinet/evrwallet/netparams"
	"github.com/satorinet/evrwallet/script"
)

// Type identifies a payment template.
type Type uint8

// The supported payment templates.
const (
	P2PK Type = iota
	P2PKH
	P2SH
	P2MS

	// NonStandard is only returned by Classify.
	NonStandard
)

var typeStrings = map[Type]string{
	P2PK:        "p2pk",
	P2PKH:       "p2pkh",
	P2SH:        "p2sh",
	P2MS:        "p2ms",
	NonStandard: "nonstandard",
}

// String returns the lower case template name.
func (t Type) String() string {
	if s, ok := typeStrings[t]; ok {
		return s
	}
	return "unknown"
}

type options struct {
	validate        bool
	allowIncomplete bool
}

// Option modifies how a payment is constructed.
type Option func(*options)

// WithoutValidation skips the cross checks done at construction.  Fields are
// still derived on first access.
func WithoutValidation() Option {
	return func(o *options) {
		o.validate = false
	}
}

// WithAllowIncomplete lets a multisig signature list hold empty placeholders
// for signatures that have not been collected yet.
func WithAllowIncomplete() Option {
	return func(o *options) {
		o.allowIncomplete = true
	}
}

func newOptions(opts []Option) options {
	o := options{validate: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// lazy computes a value once.  Concurrent callers block until the first
// computation is done.
type lazy[T any] struct {
	once sync.Once
	val  T
}

func (l *lazy[T]) get(f func() T) T {
	l.once.Do(func() {
		if f != nil {
			l.val = f()
		}
	})
	return l.val
}

// resolvers derive each field.  A nil resolver means the variant does not
// have the field.
type resolvers struct {
	name       func() string
	address    func() string
	hash       func() []byte
	output     func() []byte
	input      func() []byte
	witness    func() [][]byte
	pubKey     func() []byte
	signature  func() []byte
	pubKeys    func() [][]byte
	signatures func() [][]byte
	m          func() int
	n          func() int
	redeem     func() *Redeem
}

// Redeem is the script revealed by a P2SH spend, along with the data that
// unlocks it.
type Redeem struct {
	Name    string
	Network *netparams.Params
	Output  []byte
	Input   []byte
	Witness [][]byte
}

// Payment is an immutable payment template instance.  Accessors return nil or
// zero when the field can not be derived from what was supplied.
type Payment struct {
	kind    Type
	net     *netparams.Params
	asset   *script.Asset
	resolve resolvers

	name       lazy[string]
	address    lazy[string]
	hash       lazy[[]byte]
	output     lazy[[]byte]
	input      lazy[[]byte]
	witness    lazy[[][]byte]
	pubKey     lazy[[]byte]
	signature  lazy[[]byte]
	pubKeys    lazy[[][]byte]
	signatures lazy[[][]byte]
	m          lazy[int]
	n          lazy[int]
	redeem     lazy[*Redeem]
}

func newPayment(kind Type, net *netparams.Params,
	asset *script.Asset) *Payment {

	if net == nil {
		net = &netparams.MainNetParams
	}
	return &Payment{kind: kind, net: net, asset: asset}
}

// Type returns the template of the payment.
func (p *Payment) Type() Type { return p.kind }

// Network returns the network used for addresses.
func (p *Payment) Network() *netparams.Params { return p.net }

// Asset returns the asset tag the payment was built with, if any.
func (p *Payment) Asset() *script.Asset { return p.asset }

// Name returns the display name, for example "p2sh-p2ms(2 of 3)".
func (p *Payment) Name() string {
	if p.resolve.name == nil {
		return p.kind.String()
	}
	return p.name.get(p.resolve.name)
}

// Address returns the base58check address.
func (p *Payment) Address() string { return p.address.get(p.resolve.address) }

// Hash returns the 20 byte hash committed to by the output.
func (p *Payment) Hash() []byte { return p.hash.get(p.resolve.hash) }

// Output returns the locking script, including any asset tag.
func (p *Payment) Output() []byte { return p.output.get(p.resolve.output) }

// Input returns the unlocking script.
func (p *Payment) Input() []byte { return p.input.get(p.resolve.input) }

// Witness returns the witness stack.
func (p *Payment) Witness() [][]byte { return p.witness.get(p.resolve.witness) }

// PubKey returns the single public key of a P2PK or P2PKH payment.
func (p *Payment) PubKey() []byte { return p.pubKey.get(p.resolve.pubKey) }

// Signature returns the single signature of a P2PK or P2PKH payment.
func (p *Payment) Signature() []byte {
	return p.signature.get(p.resolve.signature)
}

// PubKeys returns the keys of a multisig payment.
func (p *Payment) PubKeys() [][]byte { return p.pubKeys.get(p.resolve.pubKeys) }

// Signatures returns the signatures of a multisig payment.  Empty entries
// are placeholders.
func (p *Payment) Signatures() [][]byte {
	return p.signatures.get(p.resolve.signatures)
}

// M returns the number of required multisig signatures.
func (p *Payment) M() int { return p.m.get(p.resolve.m) }

// N returns the number of multisig keys.
func (p *Payment) N() int { return p.n.get(p.resolve.n) }

// Redeem returns the redeem script of a P2SH payment.
func (p *Payment) Redeem() *Redeem { return p.redeem.get(p.resolve.redeem) }

// AsRedeem returns the payment in the form NewP2SH takes as its redeem.
func (p *Payment) AsRedeem() *Redeem {
	return &Redeem{
		Name:    p.Name(),
		Network: p.net,
		Output:  p.Output(),
		Input:   p.Input(),
		Witness: p.Witness(),
	}
}

// force derives every field so later reads never write.
func (p *Payment) force() {
	p.Name()
	p.Address()
	p.Hash()
	p.Output()
	p.Input()
	p.Witness()
	p.PubKey()
	p.Signature()
	p.PubKeys()
	p.Signatures()
	p.M()
	p.N()
	p.Redeem()
}

// finish validates the payment if requested.
func (p *Payment) finish(o options, validate func() error) (*Payment, error) {
	if !o.validate {
		return p, nil
	}
	if p.asset != nil {
		if err := p.asset.Validate(); err != nil {
			return nil, malformed(p.kind, "invalid asset", err)
		}
	}
	if err := validate(); err != nil {
		return nil, err
	}
	p.force()
	return p, nil
}

// hashCheck accumulates the hash a payment commits to from each source and
// reports the first disagreement.
type hashCheck struct {
	kind Type
	hash []byte
	src  string
}

func (h *hashCheck) add(src string, hash []byte) error {
	if h.hash != nil && !bytesEqual(h.hash, hash) {
		return mismatch(h.kind, src, h.src)
	}
	if h.hash == nil {
		h.hash, h.src = hash, src
	}
	return nil
}

// checkAsset verifies the tag for a is present in pkScript.
func checkAsset(kind Type, field string, pkScript []byte,
	a *script.Asset) error {

	if a == nil {
		return nil
	}
	if err := a.Validate(); err != nil {
		return malformed(kind, "invalid asset", err)
	}
	if !script.ContainsAssetTag(pkScript, a) {
		return mismatch(kind, "asset", field)
	}
	return nil
}

// decompiled memoizes the chunks of a script.  Malformed scripts decompile to
// nil.
func decompiled(b []byte) func() []script.Chunk {
	var l lazy[[]script.Chunk]
	return func() []script.Chunk {
		return l.get(func() []script.Chunk {
			if b == nil {
				return nil
			}
			chunks, err := script.Decompile(b)
			if err != nil {
				return nil
			}
			return chunks
		})
	}
}

func bytesEqual(a, b []byte) bool {
	return string(a) == string(b)
}

func stacksEqual(a, b [][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bytesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
