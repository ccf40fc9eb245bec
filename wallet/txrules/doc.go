// Copyright (c) 2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package txrules provides functions that help establish whether or not a
transaction abides by non-consensus rules used when authoring transactions.

Dust

An output is dust when its value is below the dust threshold, 546 base units
unless the caller picks another one.  Outputs carrying an asset tag hold a
zero base value and are exempt from the rule.

Fees

Fees are linear in the transaction size.  FeeForSize multiplies a size, as
returned by the txsizes package, by a per-byte fee rate.
*/
package txrules
