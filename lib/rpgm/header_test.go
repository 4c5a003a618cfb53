// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package rpgm

import (
	"bytes"
	"testing"
	"testing/quick"

	"github.com/pkg/errors"
)

var testKeyStr = "d41d8cd98f00b204e9800998ecf8427e"

var syntheticHeader = []byte{
	0x52, 0x50, 0x47, 0x4d, 0x56, 0x00, 0x00, 0x00,
	0x00, 0x03, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00,
}

func mustKey(t *testing.T, s string) Key {
	t.Helper()
	k, err := ParseKey(s)
	if err != nil {
		t.Fatal(err)
	}
	return k
}

func TestBuildSyntheticHeader(t *testing.T) {
	hdr, err := BuildSyntheticHeader(DefaultGeometry)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(hdr, syntheticHeader) {
		t.Errorf("got % x, expected % x", hdr, syntheticHeader)
	}
}

func TestBuildSyntheticHeaderInvalid(t *testing.T) {
	geoms := map[string]Geometry{
		"short":   {HeaderLength: 16, Signature: "5250474d56", Version: "000301", Remainder: "0000000000"},
		"long":    {HeaderLength: 16, Signature: "5250474d5600000000", Version: "000301", Remainder: "0000000000"},
		"nonhex":  {HeaderLength: 16, Signature: "5250474d560000zz", Version: "000301", Remainder: "0000000000"},
		"zerolen": {},
	}

	for name, g := range geoms {
		_, err := BuildSyntheticHeader(g)
		if !errors.Is(err, ErrInvalidGeometry) {
			t.Errorf("%s: expected ErrInvalidGeometry, got %v", name, err)
		}
	}
}

func TestVerifyHeader(t *testing.T) {
	if !VerifyHeader(append(syntheticHeader, 1, 2, 3), DefaultGeometry) {
		t.Error("synthetic header not verified")
	}

	if VerifyHeader(syntheticHeader[:15], DefaultGeometry) {
		t.Error("short header verified")
	}

	bad := append([]byte(nil), syntheticHeader...)
	bad[9] = 0x02
	if VerifyHeader(bad, DefaultGeometry) {
		t.Error("modified header verified")
	}
}

func TestXORHeaderWindowSelfInverse(t *testing.T) {
	f := func(buf []byte, key []byte) bool {
		if len(buf) == 0 {
			return true
		}

		once, err := XORHeaderWindow(buf, key, 16)
		if err != nil {
			return false
		}
		twice, err := XORHeaderWindow(once, key, 16)
		if err != nil {
			return false
		}

		return bytes.Equal(twice, buf)
	}

	if err := quick.Check(f, &quick.Config{MaxCount: 200}); err != nil {
		t.Error(err)
	}
}

func TestXORHeaderWindowDoesNotAlias(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	orig := append([]byte(nil), buf...)

	_, err := XORHeaderWindow(buf, Key{0xff, 0xff}, 16)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(buf, orig) {
		t.Errorf("input modified: % x", buf)
	}
}

func TestXORHeaderWindowShortKey(t *testing.T) {
	buf := bytes.Repeat([]byte{0xaa}, 24)
	key := mustKey(t, "0102030405")

	res, err := XORHeaderWindow(buf, key, 16)
	if err != nil {
		t.Fatal(err)
	}

	for i, v := range res {
		expected := byte(0xaa)
		if i < len(key) {
			expected ^= key[i]
		}
		if v != expected {
			t.Errorf("byte %d: got 0x%02x, expected 0x%02x", i, v, expected)
		}
	}
}

func TestXORHeaderWindowLongKey(t *testing.T) {
	buf := bytes.Repeat([]byte{0x00}, 20)
	key := Key(bytes.Repeat([]byte{0x11}, 20))

	res, err := XORHeaderWindow(buf, key, 16)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(res[:16], bytes.Repeat([]byte{0x11}, 16)) {
		t.Errorf("window not masked: % x", res[:16])
	}
	if !bytes.Equal(res[16:], []byte{0, 0, 0, 0}) {
		t.Errorf("bytes past window masked: % x", res[16:])
	}
}

func TestEmptyInput(t *testing.T) {
	key := mustKey(t, testKeyStr)

	_, err := XORHeaderWindow(nil, key, 16)
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("XORHeaderWindow: %v", err)
	}

	_, err = Decrypt([]byte{}, key, DefaultGeometry)
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Decrypt: %v", err)
	}

	_, err = Decrypt(syntheticHeader, key, DefaultGeometry)
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Decrypt header only: %v", err)
	}

	_, err = Encrypt(nil, key, DefaultGeometry)
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Encrypt: %v", err)
	}

	_, err = RestoreHeader(nil, 16)
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("RestoreHeader: %v", err)
	}
}

func TestEncryptKnownVector(t *testing.T) {
	key := mustKey(t, testKeyStr)
	rest := []byte("the rest of the file")
	plain := append(ReferenceHeader(16), rest...)

	enc, err := Encrypt(plain, key, DefaultGeometry)
	if err != nil {
		t.Fatal(err)
	}

	if len(enc) != 16+len(plain) {
		t.Fatalf("length %d, expected %d", len(enc), 16+len(plain))
	}

	if !bytes.Equal(enc[:16], syntheticHeader) {
		t.Errorf("synthetic header: % x", enc[:16])
	}

	for i := 0; i < 16; i++ {
		expected := pngHeader[i] ^ key[i]
		if enc[16+i] != expected {
			t.Errorf("masked byte %d: got 0x%02x, expected 0x%02x", i, enc[16+i], expected)
		}
	}

	if !bytes.Equal(enc[32:], rest) {
		t.Errorf("payload modified: %q", enc[32:])
	}
}

func TestRoundTrip(t *testing.T) {
	key := mustKey(t, testKeyStr)

	f := func(body []byte) bool {
		plain := append(ReferenceHeader(16), body...)

		enc, err := Encrypt(plain, key, DefaultGeometry)
		if err != nil {
			return false
		}

		dec, err := Decrypt(enc, key, DefaultGeometry)
		if err != nil {
			return false
		}

		return bytes.Equal(dec, plain)
	}

	if err := quick.Check(f, &quick.Config{MaxCount: 100}); err != nil {
		t.Error(err)
	}
}

func TestRestoreHeader(t *testing.T) {
	key := mustKey(t, testKeyStr)
	body := []byte{0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x00}
	plain := append(ReferenceHeader(16), body...)

	enc, err := Encrypt(plain, key, DefaultGeometry)
	if err != nil {
		t.Fatal(err)
	}

	restored, err := RestoreHeader(enc, 16)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(restored, plain) {
		t.Errorf("got % x, expected % x", restored, plain)
	}
}

func TestRestoreHeaderShortBuffer(t *testing.T) {
	restored, err := RestoreHeader([]byte{1, 2, 3}, 16)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(restored, pngHeader) {
		t.Errorf("got % x", restored)
	}
}

func TestReferenceHeaderExtend(t *testing.T) {
	hdr := ReferenceHeader(20)
	if !bytes.Equal(hdr[:16], pngHeader) || !bytes.Equal(hdr[16:], []byte{0, 0, 0, 0}) {
		t.Errorf("got % x", hdr)
	}

	if !bytes.Equal(ReferenceHeader(4), pngHeader[:4]) {
		t.Errorf("truncation: % x", ReferenceHeader(4))
	}
}
