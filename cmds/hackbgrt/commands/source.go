// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"

	"github.com/linuxboot/hackbgrt/pkg/config"
	"github.com/linuxboot/hackbgrt/pkg/esp"
	"github.com/linuxboot/hackbgrt/pkg/log"
)

// Source selects the EFI system partition and where the directives come
// from.
type Source struct {
	ESPDir     string   `long:"esp" description:"directory holding the files of the EFI system partition"`
	ESPImage   string   `long:"esp-image" description:"disk image holding the EFI system partition"`
	Partition  int      `long:"partition" description:"partition of --esp-image holding the ESP, 0 if the image has no partition table" default:"1"`
	ConfigPath string   `short:"c" long:"config" description:"path of the configuration file on the ESP (default: /EFI/HackBGRT/config.txt)"`
	Params     []string `short:"p" long:"param" description:"image parameter like 'image=/logo.bmp,x=10,weight=2' (may be repeated); replaces the configuration file"`
	Random     []uint32 `long:"random" base:"0" description:"fixed values returned by the random source, cycled (may be repeated)"`
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenESP returns the selected ESP, or nil if none was given.
func (s *Source) OpenESP() (esp.FS, io.Closer, error) {
	switch {
	case s.ESPDir != "" && s.ESPImage != "":
		return nil, nil, ErrArgs{Err: fmt.Errorf("--esp and --esp-image are mutually exclusive")}
	case s.ESPDir != "":
		return esp.Dir(s.ESPDir), nopCloser{}, nil
	case s.ESPImage != "":
		img, err := esp.OpenImage(s.ESPImage, s.Partition)
		if err != nil {
			return nil, nil, err
		}
		return img, img, nil
	}
	return nil, nopCloser{}, nil
}

// RandomSource returns the random source selected by --random.
func (s *Source) RandomSource() config.RandomSource {
	if len(s.Random) == 0 {
		return config.CryptoRandom{}
	}
	return &config.Sequence{Values: s.Random, Repeat: true}
}

// Resolve resolves the parameters or, if there are none, the configuration
// file on fs. Rejected directives are logged and do not fail the
// resolution; an unreadable configuration file does.
func (s *Source) Resolve(fs esp.FS) (*config.Config, error) {
	random := s.RandomSource()
	var (
		cfg *config.Config
		err error
	)
	if len(s.Params) > 0 {
		cfg, err = config.FromParams(s.Params, random)
	} else {
		if fs == nil {
			return nil, ErrArgs{Err: fmt.Errorf("either --param, --esp or --esp-image is required")}
		}
		path := s.ConfigPath
		if path == "" {
			path = esp.DefaultConfigPath
		}
		cfg, err = config.ReadFile(fs, path, random)
	}
	if err != nil {
		// rejected directives were logged as they were read
		if !directivesOnly(err) {
			return nil, err
		}
	}
	log.Debugf("config: action %s, path %q, x %s, y %s, resolution %dx%d",
		cfg.Action, cfg.ImagePath, cfg.X, cfg.Y, cfg.ResolutionX, cfg.ResolutionY)
	return cfg, nil
}

// directivesOnly reports whether err merely lists rejected directives.
func directivesOnly(err error) bool {
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		return false
	}
	for _, e := range merr.Errors {
		var de *config.DirectiveError
		if !errors.As(e, &de) {
			return false
		}
	}
	return true
}
