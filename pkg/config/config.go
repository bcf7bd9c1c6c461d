// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config turns image directives into the one action hackbgrt
// performs on the BGRT.
//
// Directives come either from the lines of a configuration file or from a
// list of parameters. Every valid directive is a candidate; exactly one of
// them wins, picked by weighted random selection.
package config

import (
	"fmt"
	"strconv"
)

// Action is what to do with the BGRT.
type Action int

// Actions, Keep being the zero value.
const (
	Keep Action = iota
	Replace
	Remove
)

func (a Action) String() string {
	switch a {
	case Keep:
		return "keep"
	case Replace:
		return "replace"
	case Remove:
		return "remove"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Coordinate is an explicit image position in pixels or one of the
// sentinels CoordAuto and CoordNative.
type Coordinate int

// Coordinate sentinels. They lie above any position an explicit
// coordinate may take.
const (
	// CoordAuto centers the image.
	CoordAuto Coordinate = 0x10000001
	// CoordNative copies the position of the firmware's own image.
	CoordNative Coordinate = 0x10000002
	// CoordKeep is the name of CoordNative in the parameter grammar.
	CoordKeep = CoordNative

	maxCoordinate = 0x0fffffff
)

func (c Coordinate) String() string {
	switch c {
	case CoordAuto:
		return "auto"
	case CoordNative:
		return "native"
	}
	return strconv.Itoa(int(c))
}

// IsExplicit reports whether c is a position rather than a sentinel.
func (c Coordinate) IsExplicit() bool {
	return c != CoordAuto && c != CoordNative
}

// Candidate is a parsed directive.
type Candidate struct {
	Action Action
	// ImagePath is the bitmap to show. It is empty for Keep and Remove,
	// and for a Replace with the blank placeholder.
	ImagePath string
	X, Y      Coordinate
	Weight    uint32
}

func (c Candidate) String() string {
	return fmt.Sprintf("weight %d, action %s, x %s, y %s, path %q", c.Weight, c.Action, c.X, c.Y, c.ImagePath)
}

// Config is the resolved configuration.
type Config struct {
	Action    Action
	ImagePath string
	X, Y      Coordinate

	// ResolutionX and ResolutionY are recorded from the resolution
	// directive and not interpreted further.
	ResolutionX, ResolutionY int
}

// Default is the configuration used when no directive was selected.
func Default() *Config {
	return &Config{Action: Keep, X: CoordNative, Y: CoordNative}
}

// DirectiveError describes a rejected directive. Processing continues with
// the next directive.
type DirectiveError struct {
	// Source is the file name or "param".
	Source    string
	Line      int
	Directive string
	Err       error
}

func (e *DirectiveError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: invalid directive %q: %v", e.Source, e.Line, e.Directive, e.Err)
	}
	return fmt.Sprintf("%s: invalid directive %q: %v", e.Source, e.Directive, e.Err)
}

func (e *DirectiveError) Unwrap() error {
	return e.Err
}
