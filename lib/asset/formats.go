// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package asset

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/usedbytes/rpgm-tools/lib/config"
	"github.com/usedbytes/rpgm-tools/lib/rpgm"
)

type Format struct {
	Ext   string
	Kind  rpgm.AssetKind
	MVExt string
	MZExt string
}

var formats = []Format{
	{Ext: ".png", Kind: rpgm.Image, MVExt: ".rpgmvp", MZExt: ".png_"},
	{Ext: ".ogg", Kind: rpgm.Audio, MVExt: ".rpgmvo", MZExt: ".ogg_"},
	{Ext: ".m4a", Kind: rpgm.Audio, MVExt: ".rpgmvm", MZExt: ".m4a_"},
}

func (f Format) EncryptedExt(engine config.Engine) string {
	if engine == config.MZ {
		return f.MZExt
	}
	return f.MVExt
}

// Classify finds the format of a file from its extension, and whether
// that extension is one of the encrypted ones.
func Classify(name string) (f Format, encrypted bool, ok bool) {
	ext := strings.ToLower(filepath.Ext(name))
	for _, format := range formats {
		switch ext {
		case format.Ext:
			return format, false, true
		case format.MVExt, format.MZExt:
			return format, true, true
		}
	}

	return Format{}, false, false
}

// Wants reports whether op applies to a file called name.
func Wants(name string, op rpgm.Operation) bool {
	f, encrypted, ok := Classify(name)
	if !ok {
		return false
	}

	switch op {
	case rpgm.OpDecrypt:
		return encrypted
	case rpgm.OpEncrypt:
		return !encrypted
	case rpgm.OpRestoreHeader:
		return encrypted && f.Kind == rpgm.Image
	}

	return false
}

// OutputName swaps the extension of name for the one op produces.
func OutputName(name string, op rpgm.Operation, engine config.Engine) (string, error) {
	f, encrypted, ok := Classify(name)
	if !ok {
		return "", errors.Errorf("unrecognised file type '%s'", name)
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))

	switch op {
	case rpgm.OpDecrypt, rpgm.OpRestoreHeader:
		if !encrypted {
			return "", errors.Errorf("'%s' isn't encrypted", name)
		}
		return base + f.Ext, nil
	case rpgm.OpEncrypt:
		if encrypted {
			return "", errors.Errorf("'%s' is already encrypted", name)
		}
		return base + f.EncryptedExt(engine), nil
	}

	return "", errors.Wrapf(rpgm.ErrInvalidOperation, "%d", op)
}
