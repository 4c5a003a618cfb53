// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package rpgm

import (
	"encoding/hex"
	"strconv"

	"github.com/pkg/errors"
)

// Key is the XOR mask applied to the header window. Only the first
// min(headerLength, len(Key)) bytes are ever used.
type Key []byte

// ParseKey splits s into 2-character chunks and parses each as a hex
// byte. A trailing single character is parsed on its own, so "abc"
// yields {0xab, 0x0c}.
func ParseKey(s string) (Key, error) {
	if len(s) == 0 {
		return nil, errors.Wrap(ErrInvalidKey, "empty key string")
	}

	key := make(Key, 0, (len(s)+1)/2)
	for i := 0; i < len(s); i += 2 {
		end := i + 2
		if end > len(s) {
			end = len(s)
		}

		v, err := strconv.ParseUint(s[i:end], 16, 8)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidKey, "chunk %d ('%s') is not hex", i/2, s[i:end])
		}
		key = append(key, byte(v))
	}

	return key, nil
}

// String returns the key as lowercase hex, the form used in System.json.
func (k Key) String() string {
	return hex.EncodeToString(k)
}

type KeyState int

const (
	KeyPending KeyState = iota
	KeyResolved
)

func (s KeyState) String() string {
	switch s {
	case KeyPending:
		return "pending"
	case KeyResolved:
		return "resolved"
	}

	return "???"
}

// keyStore only ever moves from KeyPending to KeyResolved.
type keyStore struct {
	state KeyState
	key   Key
}

func (ks *keyStore) isSet() bool {
	return ks.state == KeyResolved
}

func (ks *keyStore) resolve(k Key) error {
	switch ks.state {
	case KeyPending:
		if len(k) == 0 {
			return errors.Wrap(ErrInvalidKey, "zero-length key")
		}
		ks.key = append(Key(nil), k...)
		ks.state = KeyResolved
		return nil
	case KeyResolved:
		return errors.Wrapf(ErrKeyAlreadySet, "key is %s", ks.key)
	}

	return errors.Errorf("unknown key state %d", ks.state)
}
