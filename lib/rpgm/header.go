// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package rpgm

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"
)

// Geometry describes the synthetic header written in front of every
// obfuscated asset. Signature, Version and Remainder are hex strings
// whose concatenation must be exactly 2*HeaderLength characters.
type Geometry struct {
	HeaderLength int    `toml:"header_length"`
	Signature    string `toml:"signature"`
	Version      string `toml:"version"`
	Remainder    string `toml:"remainder"`
}

// DefaultGeometry gives "RPGMV\0\0\0" followed by version 0.3.1
var DefaultGeometry = Geometry{
	HeaderLength: 16,
	Signature:    "5250474d56000000",
	Version:      "000301",
	Remainder:    "0000000000",
}

// The first 16 bytes of any PNG: the signature plus the IHDR chunk header.
var pngHeader = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
}

// ReferenceHeader returns the known plaintext image header truncated, or
// zero-extended, to n bytes.
func ReferenceHeader(n int) []byte {
	if n < 0 {
		n = 0
	}
	hdr := make([]byte, n)
	copy(hdr, pngHeader)
	return hdr
}

func (g Geometry) Validate() error {
	if g.HeaderLength <= 0 {
		return errors.Wrapf(ErrInvalidGeometry, "header length %d", g.HeaderLength)
	}

	n := len(g.Signature) + len(g.Version) + len(g.Remainder)
	if n != 2*g.HeaderLength {
		return errors.Wrapf(ErrInvalidGeometry, "%d hex characters, expected %d", n, 2*g.HeaderLength)
	}

	return nil
}

// BuildSyntheticHeader parses the geometry's hex strings into exactly
// HeaderLength bytes.
func BuildSyntheticHeader(g Geometry) ([]byte, error) {
	err := g.Validate()
	if err != nil {
		return nil, err
	}

	str := g.Signature + g.Version + g.Remainder
	hdr := make([]byte, g.HeaderLength)
	for i := range hdr {
		v, err := strconv.ParseUint(str[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidGeometry, "byte %d ('%s')", i, str[i*2:i*2+2])
		}
		hdr[i] = byte(v)
	}

	return hdr, nil
}

// VerifyHeader reports whether candidate starts with the synthetic header.
func VerifyHeader(candidate []byte, g Geometry) bool {
	hdr, err := BuildSyntheticHeader(g)
	if err != nil || len(candidate) < len(hdr) {
		return false
	}

	return bytes.Equal(candidate[:len(hdr)], hdr)
}

// XORHeaderWindow returns a copy of buf with the first
// min(headerLength, len(key)) bytes XORed with key. Applying it twice
// with the same key gives back the original bytes.
func XORHeaderWindow(buf []byte, key Key, headerLength int) ([]byte, error) {
	if len(buf) == 0 {
		return nil, ErrEmptyInput
	}

	res := append([]byte(nil), buf...)

	limit := headerLength
	if len(key) < limit {
		limit = len(key)
	}
	if len(res) < limit {
		limit = len(res)
	}

	for i := 0; i < limit; i++ {
		res[i] ^= key[i]
	}

	return res, nil
}

// Decrypt drops the synthetic header and unmasks the true header which
// follows it. The rest of the payload is already plain.
func Decrypt(buf []byte, key Key, g Geometry) ([]byte, error) {
	if len(buf) == 0 {
		return nil, ErrEmptyInput
	}
	if g.HeaderLength <= 0 {
		return nil, errors.Wrapf(ErrInvalidGeometry, "header length %d", g.HeaderLength)
	}

	if len(buf) <= g.HeaderLength {
		return nil, errors.Wrapf(ErrEmptyInput, "no payload after %d byte header", g.HeaderLength)
	}

	return XORHeaderWindow(buf[g.HeaderLength:], key, g.HeaderLength)
}

// Encrypt masks the header window of a plain buffer and prepends the
// synthetic header.
func Encrypt(buf []byte, key Key, g Geometry) ([]byte, error) {
	hdr, err := BuildSyntheticHeader(g)
	if err != nil {
		return nil, err
	}

	masked, err := XORHeaderWindow(buf, key, g.HeaderLength)
	if err != nil {
		return nil, err
	}

	res := make([]byte, 0, len(hdr)+len(masked))
	res = append(res, hdr...)
	res = append(res, masked...)

	// Can't fail for a geometry that built a header above.
	if !VerifyHeader(res, g) {
		return nil, ErrHeaderConstructionFailed
	}

	return res, nil
}

// RestoreHeader replaces the leading 2*refLength bytes (synthetic header
// plus masked true header) with the reference image header, which makes
// an obfuscated image readable without knowing the key.
func RestoreHeader(buf []byte, refLength int) ([]byte, error) {
	if len(buf) == 0 {
		return nil, ErrEmptyInput
	}
	if refLength <= 0 {
		return nil, errors.Wrapf(ErrInvalidGeometry, "reference header length %d", refLength)
	}

	var rest []byte
	if len(buf) > 2*refLength {
		rest = buf[2*refLength:]
	}

	res := make([]byte, 0, refLength+len(rest))
	res = append(res, ReferenceHeader(refLength)...)
	res = append(res, rest...)

	return res, nil
}
