// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package config

import (
	"fmt"
	"strconv"

	"github.com/usedbytes/rpgm-tools/lib/rpgm"
)

func stringIfNotEmpty(prefix, val string) string {
	if len(val) > 0 {
		return fmt.Sprintf("%s %s\n", prefix, val)
	}
	return ""
}

// Engine selects the file extensions used for encrypted output
type Engine string

const (
	MV Engine = "mv"
	MZ Engine = "mz"
)

func (e Engine) String() string {
	return string(e)
}

func (e *Engine) UnmarshalText(text []byte) error {
	str := Engine(text)
	switch str {
	case MV:
		*e = MV
	case MZ:
		*e = MZ
	default:
		return fmt.Errorf("unrecognised engine: %s", str)
	}

	return nil
}

func (e *Engine) MarshalText() ([]byte, error) {
	return []byte(string(*e)), nil
}

type Config struct {
	Key           string         `toml:"key,omitempty"`
	Engine        Engine         `toml:"engine,omitempty"`
	OutputDir     string         `toml:"output_dir,omitempty"`
	RestoreHeader bool           `toml:"restore_header"`
	Strict        bool           `toml:"strict"`
	Geometry      *rpgm.Geometry `toml:"geometry,omitempty"`
}

func Default() *Config {
	return &Config{
		Engine: MV,
	}
}

// ResolveGeometry fills anything missing from the [geometry] table with
// the defaults, and validates the result.
func (c *Config) ResolveGeometry() (rpgm.Geometry, error) {
	g := rpgm.DefaultGeometry
	if c.Geometry == nil {
		return g, nil
	}

	if c.Geometry.HeaderLength != 0 {
		g.HeaderLength = c.Geometry.HeaderLength
	}
	if len(c.Geometry.Signature) != 0 {
		g.Signature = c.Geometry.Signature
	}
	if len(c.Geometry.Version) != 0 {
		g.Version = c.Geometry.Version
	}
	if len(c.Geometry.Remainder) != 0 {
		g.Remainder = c.Geometry.Remainder
	}

	return g, g.Validate()
}

func (c *Config) String() string {
	var s string
	s += "Config:\n"
	s += stringIfNotEmpty("   Key:", c.Key)
	s += stringIfNotEmpty("   Engine:", c.Engine.String())
	s += stringIfNotEmpty("   OutputDir:", c.OutputDir)
	s += fmt.Sprintf("   RestoreHeader: %s\n", strconv.FormatBool(c.RestoreHeader))
	s += fmt.Sprintf("   Strict: %s\n", strconv.FormatBool(c.Strict))
	if c.Geometry != nil {
		s += fmt.Sprintf("   Geometry: %d %s %s %s\n", c.Geometry.HeaderLength,
			c.Geometry.Signature, c.Geometry.Version, c.Geometry.Remainder)
	}
	return s
}
