// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Errors wrapped by DirectiveError.
var (
	ErrUnknownKey   = errors.New("unknown key")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrMissingImage = errors.New("no image action or path")
)

// ParseCoordinate parses the value of an x= or y= key. present is false when
// the key was not given. Leading decimal digits give an explicit position;
// "native" or "keep", as well as any coordinate of a Keep action, give
// CoordNative; anything else gives CoordAuto.
func ParseCoordinate(s string, present bool, a Action) (Coordinate, error) {
	if present && s != "" && isDigit(s[0]) {
		end := 0
		for end < len(s) && isDigit(s[end]) {
			end++
		}
		v, err := strconv.ParseUint(s[:end], 10, 32)
		if err != nil || v > maxCoordinate {
			return 0, fmt.Errorf("coordinate %q is out of range", s)
		}
		return Coordinate(v), nil
	}
	if (present && (s == "native" || s == "keep")) || a == Keep {
		return CoordNative, nil
	}
	return CoordAuto, nil
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func parseWeight(s string, present bool) (uint32, error) {
	if !present {
		return 1, nil
	}
	w, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid weight %q", s)
	}
	if w == 0 {
		return 0, fmt.Errorf("weight must be positive")
	}
	return uint32(w), nil
}

// keySet collects key=value pairs of one directive, rejecting duplicates.
type keySet map[string]string

func (ks keySet) add(key, value string) error {
	if _, ok := ks[key]; ok {
		return fmt.Errorf("%w %q", ErrDuplicateKey, key)
	}
	ks[key] = value
	return nil
}

func (ks keySet) get(key string) (string, bool) {
	v, ok := ks[key]
	return v, ok
}

func (ks keySet) candidate(a Action, path string) (Candidate, error) {
	c := Candidate{Action: a, ImagePath: path}
	var err error
	weight, hasWeight := ks.get("weight")
	if c.Weight, err = parseWeight(weight, hasWeight); err != nil {
		return Candidate{}, err
	}
	x, hasX := ks.get("x")
	if c.X, err = ParseCoordinate(x, hasX, a); err != nil {
		return Candidate{}, err
	}
	y, hasY := ks.get("y")
	if c.Y, err = ParseCoordinate(y, hasY, a); err != nil {
		return Candidate{}, err
	}
	return c, nil
}

// ParseImageLine parses the value of an image= line of a configuration file,
// e.g. "n=2 x=native y=100 path=/EFI/HackBGRT/splash.bmp".
//
// Tokens are separated by blanks. The keys are n (or weight), x, y and
// path; the value of path runs to the end of the line. The flags remove,
// black and keep select an action when there is no path, in that order of
// precedence. black shows a blank placeholder image.
func ParseImageLine(line string) (Candidate, error) {
	ks := keySet{}
	flags := map[string]bool{}
	path, hasPath := "", false
	rest := strings.TrimSpace(line)
	for rest != "" {
		var tok string
		if strings.HasPrefix(rest, "path=") {
			tok, rest = rest, ""
		} else if i := strings.IndexAny(rest, " \t"); i >= 0 {
			tok, rest = rest[:i], strings.TrimLeft(rest[i:], " \t")
		} else {
			tok, rest = rest, ""
		}
		key, value, isPair := strings.Cut(tok, "=")
		if !isPair {
			switch tok {
			case "remove", "black", "keep":
				if flags[tok] {
					return Candidate{}, fmt.Errorf("%w %q", ErrDuplicateKey, tok)
				}
				flags[tok] = true
			default:
				return Candidate{}, fmt.Errorf("%w %q", ErrUnknownKey, tok)
			}
			continue
		}
		switch key {
		case "n":
			key = "weight"
		case "weight", "x", "y":
		case "path":
			if hasPath {
				return Candidate{}, fmt.Errorf("%w %q", ErrDuplicateKey, key)
			}
			path, hasPath = strings.TrimSpace(value), true
			continue
		default:
			return Candidate{}, fmt.Errorf("%w %q", ErrUnknownKey, key)
		}
		if err := ks.add(key, value); err != nil {
			return Candidate{}, err
		}
	}

	switch {
	case hasPath:
		if path == "" {
			return Candidate{}, fmt.Errorf("%w: empty path", ErrMissingImage)
		}
		return ks.candidate(Replace, path)
	case flags["remove"]:
		return ks.candidate(Remove, "")
	case flags["black"]:
		return ks.candidate(Replace, "")
	case flags["keep"]:
		return ks.candidate(Keep, "")
	}
	return Candidate{}, ErrMissingImage
}

// ParseParam parses a parameter string, e.g.
// "image=/EFI/HackBGRT/splash.bmp,x=keep,y=auto,weight=3".
//
// The keys are image, x, y and weight. image is required: keep and remove
// select those actions, any other value must be an absolute path.
func ParseParam(param string) (Candidate, error) {
	ks := keySet{}
	for _, field := range strings.Split(param, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(field), "=")
		if !ok {
			return Candidate{}, fmt.Errorf("%w %q", ErrUnknownKey, field)
		}
		switch key {
		case "image", "x", "y", "weight":
		default:
			return Candidate{}, fmt.Errorf("%w %q", ErrUnknownKey, key)
		}
		if err := ks.add(key, value); err != nil {
			return Candidate{}, err
		}
	}
	image, ok := ks.get("image")
	switch {
	case !ok || image == "":
		return Candidate{}, ErrMissingImage
	case image == "keep":
		return ks.candidate(Keep, "")
	case image == "remove":
		return ks.candidate(Remove, "")
	case strings.HasPrefix(image, "/"):
		return ks.candidate(Replace, image)
	}
	return Candidate{}, fmt.Errorf("image %q is neither keep, remove nor an absolute path", image)
}

// ParseResolution parses a resolution such as "1920x1080" or "-1x-1".
func ParseResolution(s string) (int, int, error) {
	xs, ys, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, fmt.Errorf("resolution %q is not WIDTHxHEIGHT", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid resolution width %q", xs)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid resolution height %q", ys)
	}
	return x, y, nil
}
