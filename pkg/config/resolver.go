// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/linuxboot/hackbgrt/pkg/log"
)

// Resolver picks one candidate out of a stream with probability
// proportional to its weight, holding only the current winner.
type Resolver struct {
	random    RandomSource
	weightSum uint64
	selected  *Candidate
	config    Config
	errs      *multierror.Error
}

// NewResolver returns a Resolver drawing from random.
func NewResolver(random RandomSource) *Resolver {
	return &Resolver{random: random}
}

// Offer considers c. It replaces the current winner if this is the first
// candidate or a fresh random value r satisfies
//
//	r <= 0xFFFFFFFF / (sum of weights so far) * c.Weight
//
// If the random source fails, c is not considered at all and the error is
// returned.
func (r *Resolver) Offer(c Candidate) (bool, error) {
	if c.Weight == 0 {
		return false, fmt.Errorf("weight must be positive")
	}
	rnd, err := r.random.Uint32()
	if err != nil {
		return false, fmt.Errorf("cannot draw random value: %w", err)
	}
	first := r.weightSum == 0
	r.weightSum += uint64(c.Weight)
	limit := uint64(0xffffffff) / r.weightSum * uint64(c.Weight)
	log.Debugf("candidate %s, random = %08x, limit = %08x", c, rnd, limit)
	if !first && uint64(rnd) > limit {
		return false, nil
	}
	selected := c
	r.selected = &selected
	return true, nil
}

// Reject records a directive that could not be parsed.
func (r *Resolver) Reject(err error) {
	log.Warnf("%v", err)
	r.errs = multierror.Append(r.errs, err)
}

// SetResolution records the requested screen resolution.
func (r *Resolver) SetResolution(x, y int) {
	r.config.ResolutionX, r.config.ResolutionY = x, y
}

// Config returns the resolved configuration: the current winner, or the
// Default one if no candidate was selected.
func (r *Resolver) Config() *Config {
	cfg := Default()
	if r.selected != nil {
		cfg.Action = r.selected.Action
		cfg.ImagePath = r.selected.ImagePath
		cfg.X, cfg.Y = r.selected.X, r.selected.Y
	}
	cfg.ResolutionX, cfg.ResolutionY = r.config.ResolutionX, r.config.ResolutionY
	return cfg
}

// Err returns all rejected directives and random source failures, or nil.
func (r *Resolver) Err() error {
	return r.errs.ErrorOrNil()
}
