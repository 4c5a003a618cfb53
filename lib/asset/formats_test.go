// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package asset

import (
	"testing"

	"github.com/usedbytes/rpgm-tools/lib/config"
	"github.com/usedbytes/rpgm-tools/lib/rpgm"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		kind      rpgm.AssetKind
		encrypted bool
	}{
		{"img/characters/Actor1.rpgmvp", rpgm.Image, true},
		{"img/characters/Actor1.png_", rpgm.Image, true},
		{"img/characters/Actor1.PNG", rpgm.Image, false},
		{"audio/bgm/Battle1.rpgmvo", rpgm.Audio, true},
		{"audio/bgm/Battle1.ogg_", rpgm.Audio, true},
		{"audio/se/Cursor.rpgmvm", rpgm.Audio, true},
		{"audio/se/Cursor.m4a", rpgm.Audio, false},
	}

	for _, tc := range tests {
		f, encrypted, ok := Classify(tc.name)
		if !ok {
			t.Errorf("%s: not recognised", tc.name)
			continue
		}
		if f.Kind != tc.kind || encrypted != tc.encrypted {
			t.Errorf("%s: got %s %v", tc.name, f.Kind, encrypted)
		}
	}

	if _, _, ok := Classify("data/System.json"); ok {
		t.Error("System.json recognised as an asset")
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		name     string
		op       rpgm.Operation
		engine   config.Engine
		expected string
	}{
		{"a/b.rpgmvp", rpgm.OpDecrypt, config.MV, "a/b.png"},
		{"a/b.png_", rpgm.OpDecrypt, config.MV, "a/b.png"},
		{"a/b.rpgmvp", rpgm.OpRestoreHeader, config.MZ, "a/b.png"},
		{"a/b.ogg_", rpgm.OpDecrypt, config.MZ, "a/b.ogg"},
		{"a/b.png", rpgm.OpEncrypt, config.MV, "a/b.rpgmvp"},
		{"a/b.png", rpgm.OpEncrypt, config.MZ, "a/b.png_"},
		{"a/b.m4a", rpgm.OpEncrypt, config.MV, "a/b.rpgmvm"},
		{"a/b.ogg", rpgm.OpEncrypt, config.MZ, "a/b.ogg_"},
	}

	for _, tc := range tests {
		out, err := OutputName(tc.name, tc.op, tc.engine)
		if err != nil {
			t.Errorf("%s %s: %v", tc.op, tc.name, err)
			continue
		}
		if out != tc.expected {
			t.Errorf("%s %s: got %s, expected %s", tc.op, tc.name, out, tc.expected)
		}
	}

	for _, bad := range []struct {
		name string
		op   rpgm.Operation
	}{
		{"a/b.png", rpgm.OpDecrypt},
		{"a/b.rpgmvp", rpgm.OpEncrypt},
		{"a/b.txt", rpgm.OpDecrypt},
	} {
		if _, err := OutputName(bad.name, bad.op, config.MV); err == nil {
			t.Errorf("%s %s: expected error", bad.op, bad.name)
		}
	}
}

func TestWants(t *testing.T) {
	if !Wants("x.rpgmvp", rpgm.OpRestoreHeader) {
		t.Error("restore should want encrypted images")
	}
	if Wants("x.rpgmvo", rpgm.OpRestoreHeader) {
		t.Error("restore shouldn't want audio")
	}
	if Wants("x.png", rpgm.OpDecrypt) {
		t.Error("decrypt shouldn't want plain files")
	}
	if !Wants("x.ogg", rpgm.OpEncrypt) {
		t.Error("encrypt should want plain audio")
	}
}
