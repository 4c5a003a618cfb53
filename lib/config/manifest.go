// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/sigurn/crc16"
)

var crct *crc16.Table = crc16.MakeTable(crc16.CRC16_XMODEM)

func Checksum(data []byte) uint16 {
	return crc16.Checksum(data, crct)
}

// Entry records one file written by a batch run. Output is relative to
// the manifest's directory unless absolute.
type Entry struct {
	Source    string `toml:"source"`
	Output    string `toml:"output"`
	Operation string `toml:"operation"`
	Size      int    `toml:"size"`
	CRC       uint16 `toml:"crc"`
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s -> %s (%s, %d bytes, crc 0x%04x)", e.Source, e.Output, e.Operation, e.Size, e.CRC)
}

type Manifest struct {
	Key     string   `toml:"key,omitempty"`
	Entries []*Entry `toml:"file,omitempty"`
}

func (m *Manifest) Add(source, output, operation string, data []byte) *Entry {
	e := &Entry{
		Source:    source,
		Output:    output,
		Operation: operation,
		Size:      len(data),
		CRC:       Checksum(data),
	}
	m.Entries = append(m.Entries, e)
	return e
}

func (m *Manifest) WriteTOML(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}

	enc := toml.NewEncoder(f)
	err = enc.Encode(m)
	if err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func LoadManifest(filename string) (*Manifest, error) {
	var m Manifest
	_, err := toml.DecodeFile(filename, &m)
	if err != nil {
		return nil, errors.Wrapf(err, "loading manifest '%s'", filename)
	}

	return &m, nil
}

// Verify re-reads every output relative to dir, returning the entries
// which are missing or don't match.
func (m *Manifest) Verify(dir string) ([]*Entry, error) {
	var bad []*Entry

	for _, e := range m.Entries {
		fname := e.Output
		if !filepath.IsAbs(fname) {
			fname = filepath.Join(dir, fname)
		}

		data, err := ioutil.ReadFile(fname)
		if os.IsNotExist(err) {
			bad = append(bad, e)
			continue
		} else if err != nil {
			return nil, err
		}

		if len(data) != e.Size || Checksum(data) != e.CRC {
			bad = append(bad, e)
		}
	}

	return bad, nil
}
