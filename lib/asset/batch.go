// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package asset

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/usedbytes/log"
	"github.com/usedbytes/rpgm-tools/lib/config"
	"github.com/usedbytes/rpgm-tools/lib/rpgm"
)

type File struct {
	Path string
	// Root is the directory which Path is relative to in the output tree
	Root string
}

// CollectFiles expands paths (files or directories) into the files op
// applies to. Files named explicitly are always included.
func CollectFiles(paths []string, op rpgm.Operation) ([]File, error) {
	var files []File

	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return nil, err
		}

		if !fi.IsDir() {
			files = append(files, File{Path: p, Root: filepath.Dir(p)})
			continue
		}

		var found []File
		err = filepath.Walk(p, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if info.IsDir() || !Wants(info.Name(), op) {
				return nil
			}

			found = append(found, File{Path: path, Root: p})
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "walking '%s'", p)
		}

		sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })
		files = append(files, found...)
	}

	return files, nil
}

type Batch struct {
	Decrypter *rpgm.Decrypter
	Operation rpgm.Operation
	Engine    config.Engine
	// RestoreImages restores image headers instead of decrypting them
	RestoreImages bool
	// OutputDir, if set, receives the output tree. Otherwise outputs
	// are written next to their inputs.
	OutputDir string

	Manifest    *config.Manifest
	ManifestDir string

	// Progress is called after each file
	Progress func(f File)
}

func (b *Batch) operationFor(kind rpgm.AssetKind) rpgm.Operation {
	if b.Operation == rpgm.OpDecrypt && b.RestoreImages && kind == rpgm.Image {
		return rpgm.OpRestoreHeader
	}
	return b.Operation
}

func (b *Batch) outputPath(f File, op rpgm.Operation) (string, error) {
	out, err := OutputName(f.Path, op, b.Engine)
	if err != nil {
		return "", err
	}

	if len(b.OutputDir) == 0 {
		return out, nil
	}

	rel, err := filepath.Rel(f.Root, out)
	if err != nil {
		return "", err
	}

	return filepath.Join(b.OutputDir, rel), nil
}

func (b *Batch) manifestPath(path string) string {
	if len(b.ManifestDir) == 0 {
		return path
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	dir, err := filepath.Abs(b.ManifestDir)
	if err != nil {
		return abs
	}

	rel, err := filepath.Rel(dir, abs)
	if err != nil {
		return abs
	}
	return rel
}

// ProcessFile converts one file, and returns where the output went.
func (b *Batch) ProcessFile(f File) (string, error) {
	format, _, ok := Classify(f.Path)
	if !ok {
		return "", errors.Errorf("unrecognised file type '%s'", f.Path)
	}

	op := b.operationFor(format.Kind)
	if op == rpgm.OpRestoreHeader && format.Kind != rpgm.Image {
		return "", errors.Wrapf(rpgm.ErrUnsupportedOperation, "can't restore the header of %s file '%s'", format.Kind, f.Path)
	}

	out, err := b.outputPath(f, op)
	if err != nil {
		return "", err
	}

	data, err := ioutil.ReadFile(f.Path)
	if err != nil {
		return "", err
	}

	res, err := b.Decrypter.Modify(data, op, format.Kind)
	if err != nil {
		return "", errors.Wrapf(err, "%s '%s'", op, f.Path)
	}

	err = os.MkdirAll(filepath.Dir(out), 0755)
	if err != nil {
		return "", err
	}

	err = ioutil.WriteFile(out, res, 0644)
	if err != nil {
		return "", err
	}

	log.Verbosef("%s: %s -> %s (%d bytes)\n", op, f.Path, out, len(res))

	if b.Manifest != nil {
		b.Manifest.Add(b.manifestPath(f.Path), b.manifestPath(out), op.String(), res)
	}

	return out, nil
}

// primeKey resolves a pending key from the first encrypted image in
// files, so audio listed before it can still be decrypted.
func (b *Batch) primeKey(files []File) error {
	if _, ok := b.Decrypter.Key(); ok || b.Operation == rpgm.OpEncrypt {
		return nil
	}

	g := b.Decrypter.Geometry
	for _, f := range files {
		format, encrypted, ok := Classify(f.Path)
		if !ok || !encrypted || format.Kind != rpgm.Image {
			continue
		}

		data, err := ioutil.ReadFile(f.Path)
		if err != nil {
			return err
		}

		if b.Decrypter.Strict && !rpgm.VerifyHeader(data, g) {
			continue
		}

		key, ok := rpgm.KeyFromKnownHeader(data, g.HeaderLength)
		if !ok {
			continue
		}

		log.Verbosef("Key %s from %s\n", key, f.Path)
		return b.Decrypter.SetKey(key)
	}

	return nil
}

// Run processes files in order, stopping at the first error.
func (b *Batch) Run(files []File) error {
	err := b.primeKey(files)
	if err != nil {
		return err
	}

	for _, f := range files {
		_, err := b.ProcessFile(f)
		if err != nil {
			return err
		}

		if b.Progress != nil {
			b.Progress(f)
		}
	}

	if b.Manifest != nil {
		if key, ok := b.Decrypter.Key(); ok {
			b.Manifest.Key = key.String()
		}
	}

	return nil
}
