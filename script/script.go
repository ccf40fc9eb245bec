// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package script converts between raw scripts and their chunked form, and
// provides the signature and asset tag encodings used inside scripts.
package script

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Chunk is one element of a script: either a bare opcode or a data push.  A
// chunk is a data push when Data is non-nil, in which case Opcode is unused.
type Chunk struct {
	Opcode byte
	Data   []byte
}

// Op returns an opcode chunk.
func Op(op byte) Chunk {
	return Chunk{Opcode: op}
}

// Push returns a data push chunk.  An empty push is represented by OP_0, which
// is also how Decompile returns it.
func Push(data []byte) Chunk {
	if len(data) == 0 {
		return Op(OP_0)
	}
	return Chunk{Data: data}
}

// IsPush reports whether the chunk pushes data.
func (c Chunk) IsPush() bool {
	return c.Data != nil
}

// Equal reports whether two chunks are identical.
func (c Chunk) Equal(o Chunk) bool {
	if c.IsPush() != o.IsPush() {
		return false
	}
	if c.IsPush() {
		return bytes.Equal(c.Data, o.Data)
	}
	return c.Opcode == o.Opcode
}

// pushDataLen returns the number of bytes needed to encode a push of n bytes,
// including the push opcode and its length field.
func pushDataLen(n int) int {
	switch {
	case n < OP_PUSHDATA1:
		return 1 + n
	case n <= 0xff:
		return 2 + n
	case n <= 0xffff:
		return 3 + n
	}
	return 5 + n
}

func appendPush(script, data []byte) []byte {
	n := len(data)
	switch {
	case n < OP_PUSHDATA1:
		script = append(script, byte(n))
	case n <= 0xff:
		script = append(script, OP_PUSHDATA1, byte(n))
	case n <= 0xffff:
		script = append(script, OP_PUSHDATA2)
		script = binary.LittleEndian.AppendUint16(script, uint16(n))
	default:
		script = append(script, OP_PUSHDATA4)
		script = binary.LittleEndian.AppendUint32(script, uint32(n))
	}
	return append(script, data...)
}

// Compile serializes chunks into a script.  Data pushes use the shortest
// length prefix for their size.  Opcode chunks must be named opcodes; a push
// opcode without data can not be encoded and is rejected.
func Compile(chunks []Chunk) ([]byte, error) {
	size := 0
	for i, c := range chunks {
		if c.IsPush() {
			size += pushDataLen(len(c.Data))
			continue
		}
		if !IsNamedOpcode(c.Opcode) || isPushOpcode(c.Opcode) {
			str := fmt.Sprintf("chunk %d: opcode 0x%02x can not be "+
				"compiled as a bare opcode", i, c.Opcode)
			return nil, scriptError(ErrInvalidOpcode, str, nil)
		}
		size++
	}

	script := make([]byte, 0, size)
	for _, c := range chunks {
		if !c.IsPush() {
			script = append(script, c.Opcode)
			continue
		}
		if len(c.Data) == 0 {
			script = append(script, OP_0)
			continue
		}
		script = appendPush(script, c.Data)
	}

	return script, nil
}

// MustCompile is like Compile but panics on error.  It is meant for scripts
// built from constant chunks.
func MustCompile(chunks ...Chunk) []byte {
	script, err := Compile(chunks)
	if err != nil {
		panic(err)
	}
	return script
}

// isPushOpcode reports whether op carries its own data length.
func isPushOpcode(op byte) bool {
	return op > OP_0 && op <= OP_PUSHDATA4
}

// tokenizer walks a raw script one chunk at a time.
type tokenizer struct {
	script []byte
	offset int
	chunk  Chunk
	err    error
}

// next parses the chunk at the current offset.  It returns false at the end
// of the script or on the first error.
func (t *tokenizer) next() bool {
	if t.err != nil || t.offset >= len(t.script) {
		return false
	}

	op := t.script[t.offset]
	if !isPushOpcode(op) {
		t.chunk = Op(op)
		t.offset++
		return true
	}

	var (
		dataLen int
		header  int
		rest    = t.script[t.offset+1:]
	)
	switch op {
	case OP_PUSHDATA1:
		if len(rest) < 1 {
			return t.fail(op, 1)
		}
		dataLen, header = int(rest[0]), 2
	case OP_PUSHDATA2:
		if len(rest) < 2 {
			return t.fail(op, 2)
		}
		dataLen = int(binary.LittleEndian.Uint16(rest))
		header = 3
	case OP_PUSHDATA4:
		if len(rest) < 4 {
			return t.fail(op, 4)
		}
		n := binary.LittleEndian.Uint32(rest)
		if uint64(n) > uint64(len(t.script)) {
			return t.fail(op, int(n))
		}
		dataLen, header = int(n), 5
	default:
		dataLen, header = int(op), 1
	}

	start := t.offset + header
	if start+dataLen > len(t.script) {
		return t.fail(op, dataLen)
	}

	data := make([]byte, dataLen)
	copy(data, t.script[start:start+dataLen])
	t.chunk = Chunk{Data: data}
	t.offset = start + dataLen
	return true
}

func (t *tokenizer) fail(op byte, want int) bool {
	str := fmt.Sprintf("opcode 0x%02x at offset %d requires %d bytes, "+
		"script has %d remaining", op, t.offset, want,
		len(t.script)-t.offset-1)
	t.err = scriptError(ErrMalformedPush, str, nil)
	return false
}

// Decompile splits a script into chunks.  It fails if a push declares more
// data than remains in the script.
func Decompile(script []byte) ([]Chunk, error) {
	chunks, _, err := decompile(script)
	return chunks, err
}

// decompile also returns the byte offset at which each chunk starts.
func decompile(script []byte) ([]Chunk, []int, error) {
	var (
		chunks  []Chunk
		offsets []int
		t       = tokenizer{script: script}
	)
	for {
		start := t.offset
		if !t.next() {
			break
		}
		chunks = append(chunks, t.chunk)
		offsets = append(offsets, start)
	}
	if t.err != nil {
		return nil, nil, t.err
	}
	return chunks, offsets, nil
}

// IsPushOnly reports whether every chunk only pushes data: a data push, OP_0,
// OP_1NEGATE or OP_1 through OP_16.
func IsPushOnly(chunks []Chunk) bool {
	for _, c := range chunks {
		if c.IsPush() {
			continue
		}
		if c.Opcode == OP_1NEGATE {
			continue
		}
		if _, ok := AsSmallInt(c.Opcode); ok {
			continue
		}
		return false
	}
	return true
}

// IsPushOnlyScript decompiles script and applies IsPushOnly.  Malformed
// scripts are not push only.
func IsPushOnlyScript(script []byte) bool {
	chunks, err := Decompile(script)
	if err != nil {
		return false
	}
	return IsPushOnly(chunks)
}
