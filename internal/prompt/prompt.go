// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build !js
// +build !js

package prompt

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"golang.org/x/term"
)

// PrivateKey prompts for a WIF encoded private key.  On a terminal the key is
// read without echo; otherwise one line is read from reader.  The caller
// should clear the returned bytes once done with them.
func PrivateKey(reader *bufio.Reader) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := reader.ReadBytes('\n')
		if err != nil && len(line) == 0 {
			return nil, err
		}
		key := bytes.TrimSpace(line)
		if len(key) == 0 {
			return nil, fmt.Errorf("no private key on standard input")
		}
		return key, nil
	}

	for {
		fmt.Print("Private key (WIF): ")
		key, err := term.ReadPassword(fd)
		if err != nil {
			return nil, err
		}
		fmt.Print("\n")
		key = bytes.TrimSpace(key)
		if len(key) == 0 {
			continue
		}

		return key, nil
	}
}
