// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package rpgm

import (
	"strings"

	"github.com/pkg/errors"
)

type AssetKind int

const (
	Image AssetKind = iota
	Audio
)

func (k AssetKind) String() string {
	switch k {
	case Image:
		return "image"
	case Audio:
		return "audio"
	}

	return "???"
}

type Operation int

const (
	OpDecrypt Operation = iota
	OpEncrypt
	OpRestoreHeader
)

func (op Operation) String() string {
	switch op {
	case OpDecrypt:
		return "decrypt"
	case OpEncrypt:
		return "encrypt"
	case OpRestoreHeader:
		return "restore"
	}

	return "???"
}

func ParseOperation(str string) (Operation, error) {
	switch strings.ToLower(str) {
	case "decrypt":
		return OpDecrypt, nil
	case "encrypt":
		return OpEncrypt, nil
	case "restore":
		return OpRestoreHeader, nil
	}

	return 0, errors.Wrapf(ErrInvalidOperation, "'%s'", str)
}

// Decrypter holds one key and one geometry. The key may be left pending,
// in which case the first operation tries to discover it. A Decrypter is
// not safe for concurrent use.
type Decrypter struct {
	Geometry Geometry
	// Strict rejects input to decrypt whose header isn't the synthetic one.
	Strict bool

	keys keyStore
}

// NewDecrypter returns a Decrypter using DefaultGeometry. An empty key
// leaves the key pending.
func NewDecrypter(key string) (*Decrypter, error) {
	d := &Decrypter{
		Geometry: DefaultGeometry,
	}

	if len(key) == 0 {
		return d, nil
	}

	err := d.SetKeyString(key)
	if err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Decrypter) SetKey(key Key) error {
	return d.keys.resolve(key)
}

func (d *Decrypter) SetKeyString(str string) error {
	key, err := ParseKey(str)
	if err != nil {
		return err
	}

	return d.keys.resolve(key)
}

func (d *Decrypter) KeyState() KeyState {
	return d.keys.state
}

// Key returns a copy of the key, if resolved.
func (d *Decrypter) Key() (Key, bool) {
	if !d.keys.isSet() {
		return nil, false
	}
	return append(Key(nil), d.keys.key...), true
}

// EnsureKey discovers the key from an obfuscated buffer, unless it is
// already set. Only images can be used: the known plaintext is an image
// header.
func (d *Decrypter) EnsureKey(buf []byte, kind AssetKind) error {
	return d.ensureKey(buf, kind, true)
}

func (d *Decrypter) ensureKey(buf []byte, kind AssetKind, obfuscated bool) error {
	if d.keys.isSet() {
		return nil
	}

	if kind != Image {
		return errors.Wrapf(ErrUnsupportedOperation, "%s files cannot self-derive a key", kind)
	}

	if obfuscated {
		if key, ok := KeyFromKnownHeader(buf, d.Geometry.HeaderLength); ok {
			return d.keys.resolve(key)
		}
	}

	if str, ok := KeyFromText(string(buf)); ok {
		key, err := ParseKey(str)
		if err != nil {
			return errors.Wrap(err, "discovered key")
		}
		return d.keys.resolve(key)
	}

	return ErrKeyNotFound
}

func (d *Decrypter) DecryptFile(buf []byte, kind AssetKind) ([]byte, error) {
	if len(buf) == 0 {
		return nil, ErrEmptyInput
	}

	if d.Strict && !VerifyHeader(buf, d.Geometry) {
		return nil, ErrInvalidHeader
	}

	err := d.ensureKey(buf, kind, true)
	if err != nil {
		return nil, err
	}

	return Decrypt(buf, d.keys.key, d.Geometry)
}

// EncryptFile takes a plain buffer, so only text discovery is tried when
// the key is pending.
func (d *Decrypter) EncryptFile(buf []byte, kind AssetKind) ([]byte, error) {
	if len(buf) == 0 {
		return nil, ErrEmptyInput
	}

	err := d.ensureKey(buf, kind, false)
	if err != nil {
		return nil, err
	}

	return Encrypt(buf, d.keys.key, d.Geometry)
}

func (d *Decrypter) RestoreHeader(buf []byte, kind AssetKind) ([]byte, error) {
	if len(buf) == 0 {
		return nil, ErrEmptyInput
	}

	err := d.ensureKey(buf, kind, true)
	if err != nil {
		return nil, err
	}

	return RestoreHeader(buf, d.Geometry.HeaderLength)
}

func (d *Decrypter) Modify(buf []byte, op Operation, kind AssetKind) ([]byte, error) {
	switch op {
	case OpDecrypt:
		return d.DecryptFile(buf, kind)
	case OpEncrypt:
		return d.EncryptFile(buf, kind)
	case OpRestoreHeader:
		return d.RestoreHeader(buf, kind)
	}

	return nil, errors.Wrapf(ErrInvalidOperation, "%d", op)
}
