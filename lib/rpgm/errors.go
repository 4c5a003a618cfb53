// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package rpgm

import (
	"github.com/pkg/errors"
)

var (
	ErrEmptyInput               = errors.New("empty input")
	ErrInvalidKey               = errors.New("invalid key")
	ErrInvalidGeometry          = errors.New("invalid header geometry")
	ErrInvalidHeader            = errors.New("header doesn't match the synthetic header")
	ErrHeaderConstructionFailed = errors.New("header construction failed")
	ErrUnsupportedOperation     = errors.New("unsupported operation")
	ErrKeyNotFound              = errors.New("key not found")
	ErrKeyAlreadySet            = errors.New("key already set")
	ErrInvalidOperation         = errors.New("invalid operation")
)
