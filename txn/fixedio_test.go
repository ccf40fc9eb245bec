// Copyright (c) 2013-2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txn

import (
	"io"
)

// fixedWriter implements the io.Writer interface and intentionally allows
// testing of error paths by forcing short writes.
type fixedWriter struct {
	b   []byte
	pos int
}

// Write writes p unless it would overflow the fixed buffer.
func (w *fixedWriter) Write(p []byte) (int, error) {
	if w.pos+len(p) > len(w.b) {
		return 0, io.ErrShortWrite
	}
	n := copy(w.b[w.pos:], p)
	w.pos += n
	return n, nil
}

// newFixedWriter returns a writer that accepts at most max bytes.
func newFixedWriter(max int) *fixedWriter {
	return &fixedWriter{b: make([]byte, max)}
}
