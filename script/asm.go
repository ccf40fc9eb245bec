// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package script

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ToASM returns the one-line disassembly of chunks.  Data pushes are printed
// as hex and opcodes by name.
func ToASM(chunks []Chunk) string {
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteByte(' ')
		}
		if c.IsPush() {
			b.WriteString(hex.EncodeToString(c.Data))
			continue
		}
		if name, ok := OpcodeName(c.Opcode); ok {
			b.WriteString(name)
			continue
		}
		fmt.Fprintf(&b, "OP_UNKNOWN%d", c.Opcode)
	}
	return b.String()
}

// DisasmString decompiles script and returns its disassembly.  Malformed
// scripts produce the disassembly up to the failure followed by "[error]".
func DisasmString(script []byte) string {
	var (
		chunks []Chunk
		t      = tokenizer{script: script}
	)
	for t.next() {
		chunks = append(chunks, t.chunk)
	}
	asm := ToASM(chunks)
	if t.err != nil {
		if asm != "" {
			asm += " "
		}
		asm += "[error]"
	}
	return asm
}

// FromASM parses the output of ToASM back into chunks.
func FromASM(asm string) ([]Chunk, error) {
	fields := strings.Fields(asm)
	chunks := make([]Chunk, 0, len(fields))
	for _, field := range fields {
		if strings.HasPrefix(field, "OP_") {
			op, ok := OpcodeByName(field)
			if !ok {
				str := fmt.Sprintf("unknown opcode %q", field)
				return nil, scriptError(ErrInvalidASM, str, nil)
			}
			chunks = append(chunks, Op(op))
			continue
		}

		data, err := hex.DecodeString(field)
		if err != nil || len(data) == 0 {
			str := fmt.Sprintf("invalid data push %q", field)
			return nil, scriptError(ErrInvalidASM, str, err)
		}
		chunks = append(chunks, Push(data))
	}
	return chunks, nil
}
