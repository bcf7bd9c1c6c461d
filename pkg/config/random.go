// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
)

// RandomSource draws uniformly distributed 32-bit values.
type RandomSource interface {
	Uint32() (uint32, error)
}

// CryptoRandom reads from crypto/rand.
type CryptoRandom struct{}

// Uint32 implements RandomSource.
func (CryptoRandom) Uint32() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// ErrExhausted is returned by a Sequence with no values left.
var ErrExhausted = errors.New("random sequence exhausted")

// Sequence replays fixed values. It makes selection reproducible.
type Sequence struct {
	Values []uint32
	// Repeat restarts from the first value when all were used.
	Repeat bool

	next int
}

// Uint32 implements RandomSource.
func (s *Sequence) Uint32() (uint32, error) {
	if s.next >= len(s.Values) {
		if !s.Repeat || len(s.Values) == 0 {
			return 0, ErrExhausted
		}
		s.next = 0
	}
	v := s.Values[s.next]
	s.next++
	return v, nil
}
