// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/linuxboot/hackbgrt/pkg/esp"
)

// Directive keywords of the configuration file.
const (
	ImageDirective      = "image="
	ResolutionDirective = "resolution="
	commentMarker       = "#"
)

// MaxLineLength is the longest line accepted in a configuration file.
const MaxLineLength = 4096

// ErrLineTooLong is wrapped by the DirectiveError of a line longer than
// MaxLineLength.
var ErrLineTooLong = fmt.Errorf("line is longer than %d bytes", MaxLineLength)

// ErrUnknownDirective is wrapped by the DirectiveError of a line that is
// neither a comment, an image= nor a resolution= line.
var ErrUnknownDirective = errors.New("unknown configuration directive")

// Read resolves the configuration file read from r. name is used in error
// messages.
//
// The file may be UTF-8 or, with a byte order mark, UTF-16. Blank lines and
// lines starting with # are skipped. Invalid lines are reported in the
// returned error, which is non-nil if any line was rejected; the returned
// Config is valid regardless. A read error stops processing and is returned
// along with the configuration resolved so far.
func Read(r io.Reader, name string, random RandomSource) (*Config, error) {
	res := NewResolver(random)
	decoded := bufio.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	var readErr error
	for lineNo := 1; ; lineNo++ {
		raw, tooLong, err := readLine(decoded)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = err
			}
			break
		}
		line := strings.Trim(raw, " \t\r")
		if tooLong {
			if len(line) > 32 {
				line = line[:32] + "..."
			}
			res.Reject(&DirectiveError{Source: name, Line: lineNo, Directive: line, Err: ErrLineTooLong})
			continue
		}
		if line == "" || strings.HasPrefix(line, commentMarker) {
			continue
		}
		reject := func(err error) {
			res.Reject(&DirectiveError{Source: name, Line: lineNo, Directive: line, Err: err})
		}
		switch {
		case strings.HasPrefix(line, ImageDirective):
			c, err := ParseImageLine(line[len(ImageDirective):])
			if err != nil {
				reject(err)
				continue
			}
			if _, err := res.Offer(c); err != nil {
				reject(err)
			}
		case strings.HasPrefix(line, ResolutionDirective):
			x, y, err := ParseResolution(line[len(ResolutionDirective):])
			if err != nil {
				reject(err)
				continue
			}
			res.SetResolution(x, y)
		default:
			reject(ErrUnknownDirective)
		}
	}
	cfg := res.Config()
	if readErr != nil {
		return cfg, fmt.Errorf("cannot read %s: %w", name, readErr)
	}
	return cfg, res.Err()
}

// FromParams resolves a list of parameter strings. Like Read, it returns a
// valid Config along with an error listing every rejected parameter.
func FromParams(params []string, random RandomSource) (*Config, error) {
	res := NewResolver(random)
	for i, p := range params {
		c, err := ParseParam(p)
		if err == nil {
			_, err = res.Offer(c)
		}
		if err != nil {
			res.Reject(&DirectiveError{Source: "param", Line: i + 1, Directive: p, Err: err})
		}
	}
	return res.Config(), res.Err()
}

// readLine returns the next line without its terminator. A line longer than
// MaxLineLength is consumed whole and only its beginning is returned.
func readLine(br *bufio.Reader) (string, bool, error) {
	var (
		line    []byte
		tooLong bool
	)
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if len(line) > 0 {
				return string(line), tooLong, nil
			}
			return "", false, err
		}
		if len(line)+len(chunk) > MaxLineLength {
			tooLong = true
		}
		if !tooLong {
			line = append(line, chunk...)
		} else if len(line) < MaxLineLength {
			line = append(line, chunk[:MaxLineLength-len(line)]...)
		}
		if !isPrefix {
			return string(line), tooLong, nil
		}
	}
}

// ReadFile resolves the configuration file at path on fsys.
func ReadFile(fsys esp.FS, path string, random RandomSource) (*Config, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open the configuration file '%s': %w", path, err)
	}
	defer f.Close()
	return Read(f, path, random)
}
