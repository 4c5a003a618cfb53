// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

func (c *Config) WriteTOML(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}

	enc := toml.NewEncoder(f)
	err = enc.Encode(c)
	if err != nil {
		f.Close()
		return err
	}

	err = f.Close()
	return err
}

func LoadConfig(filename string) (*Config, error) {
	var cfg = Default()
	_, err := toml.DecodeFile(filename, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "loading config '%s'", filename)
	}

	_, err = cfg.ResolveGeometry()
	if err != nil {
		return nil, errors.Wrapf(err, "config '%s'", filename)
	}

	return cfg, nil
}
