// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package asset

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/usedbytes/log"
	"github.com/usedbytes/rpgm-tools/lib/rpgm"
)

// Places the key is kept, relative to the game directory
var keyFiles = []string{
	"data/System.json",
	"www/data/System.json",
	"js/rmmz_core.js",
	"js/rpg_core.js",
	"www/js/rpg_core.js",
}

// FindProjectKey looks through a game directory's System.json and core
// scripts for the key. It returns the key and the file it came from.
func FindProjectKey(dir string) (string, string, error) {
	for _, name := range keyFiles {
		fname := filepath.Join(dir, filepath.FromSlash(name))

		data, err := ioutil.ReadFile(fname)
		if os.IsNotExist(err) {
			continue
		} else if err != nil {
			return "", "", errors.Wrapf(err, "reading '%s'", fname)
		}

		log.Verbosef("Searching %s\n", fname)
		if key, ok := rpgm.KeyFromText(string(data)); ok {
			return key, fname, nil
		}
	}

	return "", "", errors.Wrapf(rpgm.ErrKeyNotFound, "in '%s'", dir)
}

// DiscoverKey finds the key for a game directory, a System.json or core
// script, or an encrypted image.
func DiscoverKey(path string, g rpgm.Geometry) (string, string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", "", err
	}

	if fi.IsDir() {
		key, src, err := FindProjectKey(path)
		if err == nil {
			return key, src, nil
		}

		// No System.json, try the first encrypted image instead.
		files, werr := CollectFiles([]string{path}, rpgm.OpRestoreHeader)
		if werr != nil || len(files) == 0 {
			return "", "", err
		}
		path = files[0].Path
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return "", "", err
	}

	f, encrypted, ok := Classify(path)
	if ok && encrypted {
		if f.Kind != rpgm.Image {
			return "", "", errors.Wrapf(rpgm.ErrUnsupportedOperation, "%s files cannot self-derive a key", f.Kind)
		}

		d := &rpgm.Decrypter{Geometry: g}
		err = d.EnsureKey(data, f.Kind)
		if err != nil {
			return "", "", errors.Wrapf(err, "'%s'", path)
		}
		key, _ := d.Key()
		return key.String(), path, nil
	}

	if key, ok := rpgm.KeyFromText(string(data)); ok {
		return key, path, nil
	}

	return "", "", errors.Wrapf(rpgm.ErrKeyNotFound, "in '%s'", path)
}
