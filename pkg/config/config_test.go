// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/linuxboot/hackbgrt/pkg/esp"
)

type mathRandom struct {
	r *rand.Rand
}

func (m mathRandom) Uint32() (uint32, error) {
	return m.r.Uint32(), nil
}

type failingRandom struct{}

func (failingRandom) Uint32() (uint32, error) {
	return 0, errors.New("no entropy")
}

func TestParseImageLine(t *testing.T) {
	for _, tc := range []struct {
		line string
		want Candidate
	}{
		{"path=/EFI/HackBGRT/splash.bmp", Candidate{Action: Replace, ImagePath: "/EFI/HackBGRT/splash.bmp", X: CoordAuto, Y: CoordAuto, Weight: 1}},
		{"n=3 x=native y=120 path=/a b.bmp", Candidate{Action: Replace, ImagePath: "/a b.bmp", X: CoordNative, Y: 120, Weight: 3}},
		{"x=0 y=0 path=/n=2.bmp", Candidate{Action: Replace, ImagePath: "/n=2.bmp", X: 0, Y: 0, Weight: 1}},
		{" weight=7\tremove", Candidate{Action: Remove, X: CoordAuto, Y: CoordAuto, Weight: 7}},
		{"black x=10", Candidate{Action: Replace, X: 10, Y: CoordAuto, Weight: 1}},
		{"keep x=10", Candidate{Action: Keep, X: 10, Y: CoordNative, Weight: 1}},
		{"keep", Candidate{Action: Keep, X: CoordNative, Y: CoordNative, Weight: 1}},
		{"remove keep", Candidate{Action: Remove, X: CoordAuto, Y: CoordAuto, Weight: 1}},
		{"x=42px y=keep black", Candidate{Action: Replace, X: 42, Y: CoordNative, Weight: 1}},
	} {
		t.Run(tc.line, func(t *testing.T) {
			got, err := ParseImageLine(tc.line)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("ParseImageLine(%q) mismatch (-want +got):\n%s", tc.line, diff)
			}
		})
	}
}

func TestParseImageLineErrors(t *testing.T) {
	for _, tc := range []struct {
		line string
		want error
	}{
		{"", ErrMissingImage},
		{"x=1 y=2", ErrMissingImage},
		{"path=", ErrMissingImage},
		{"z=1 keep", ErrUnknownKey},
		{"show", ErrUnknownKey},
		{"x=1 x=2 keep", ErrDuplicateKey},
		{"n=1 weight=2 keep", ErrDuplicateKey},
		{"black black", ErrDuplicateKey},
	} {
		_, err := ParseImageLine(tc.line)
		require.True(t, errors.Is(err, tc.want), "ParseImageLine(%q) = %v; want %v", tc.line, err, tc.want)
	}
	_, err := ParseImageLine("n=0 keep")
	require.Error(t, err)
	_, err = ParseImageLine("x=99999999999 keep")
	require.Error(t, err)
}

func TestParseParam(t *testing.T) {
	for _, tc := range []struct {
		param string
		want  Candidate
	}{
		{"image=/a.bmp", Candidate{Action: Replace, ImagePath: "/a.bmp", X: CoordAuto, Y: CoordAuto, Weight: 1}},
		{"image=/a.bmp,x=keep,y=12,weight=5", Candidate{Action: Replace, ImagePath: "/a.bmp", X: CoordKeep, Y: 12, Weight: 5}},
		{"image=keep", Candidate{Action: Keep, X: CoordKeep, Y: CoordKeep, Weight: 1}},
		{"image=remove,weight=2", Candidate{Action: Remove, X: CoordAuto, Y: CoordAuto, Weight: 2}},
		{"x=auto, image=/b.bmp", Candidate{Action: Replace, ImagePath: "/b.bmp", X: CoordAuto, Y: CoordAuto, Weight: 1}},
	} {
		got, err := ParseParam(tc.param)
		require.NoError(t, err, tc.param)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("ParseParam(%q) mismatch (-want +got):\n%s", tc.param, diff)
		}
	}
}

func TestParseParamErrors(t *testing.T) {
	for _, param := range []string{
		"",
		"x=1",
		"image=",
		"image=splash.bmp",
		"image=black",
		"image=/a.bmp,path=/b.bmp",
		"image=/a.bmp,image=/b.bmp",
		"image=/a.bmp,weight=x",
		"image=/a.bmp,weight=0",
		"image=/a.bmp,x",
	} {
		_, err := ParseParam(param)
		require.Error(t, err, param)
	}
}

func TestParseResolution(t *testing.T) {
	x, y, err := ParseResolution("1920x1080")
	require.NoError(t, err)
	require.Equal(t, 1920, x)
	require.Equal(t, 1080, y)

	x, y, err = ParseResolution("-1x-1")
	require.NoError(t, err)
	require.Equal(t, -1, x)
	require.Equal(t, -1, y)

	x, y, err = ParseResolution("1024 x -1")
	require.NoError(t, err)
	require.Equal(t, 1024, x)
	require.Equal(t, -1, y)

	for _, s := range []string{"", "1920", "x1080", "1920x", "ax b"} {
		_, _, err := ParseResolution(s)
		require.Error(t, err, s)
	}
}

func TestSelectionFollowsFormula(t *testing.T) {
	params := []string{"image=/a.bmp,weight=1", "image=/b.bmp,weight=1"}
	for _, tc := range []struct {
		name   string
		values []uint32
		want   string
	}{
		// the second candidate has limit 0xffffffff/2*1 = 0x7fffffff
		{"max", []uint32{0xffffffff, 0xffffffff}, "/a.bmp"},
		{"zero", []uint32{0xffffffff, 0}, "/b.bmp"},
		{"at limit", []uint32{0, 0x7fffffff}, "/b.bmp"},
		{"above limit", []uint32{0, 0x80000000}, "/a.bmp"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := FromParams(params, &Sequence{Values: tc.values})
			require.NoError(t, err)
			require.Equal(t, Replace, cfg.Action)
			require.Equal(t, tc.want, cfg.ImagePath)
		})
	}
}

func TestSelectionWeights(t *testing.T) {
	res := NewResolver(&Sequence{Values: []uint32{0, 0x55555554, 0x55555556}})
	// the first candidate is always taken
	ok, err := res.Offer(Candidate{Action: Keep, Weight: 2})
	require.NoError(t, err)
	require.True(t, ok)
	// sum 3, limit 0xffffffff/3*1 = 0x55555555
	ok, err = res.Offer(Candidate{Action: Remove, Weight: 1})
	require.NoError(t, err)
	require.True(t, ok)
	// sum 4, limit 0xffffffff/4*1 = 0x3fffffff
	ok, err = res.Offer(Candidate{Action: Replace, ImagePath: "/c.bmp", Weight: 1})
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, Remove, res.Config().Action)
}

func TestSelectionIsReproducible(t *testing.T) {
	params := []string{
		"image=/a.bmp,weight=3",
		"image=keep",
		"image=remove,weight=2",
		"image=/d.bmp,weight=9",
		"image=/e.bmp",
	}
	values := []uint32{0x12345678, 0x9abcdef0, 0x0fedcba9, 0x87654321, 0x2468ace0}
	first, err := FromParams(params, &Sequence{Values: values})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := FromParams(params, &Sequence{Values: values})
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestSelectionIsUniform(t *testing.T) {
	const (
		candidates = 5
		trials     = 50000
	)
	params := make([]string, candidates)
	for i := range params {
		params[i] = "image=/" + string(rune('a'+i)) + ".bmp"
	}
	random := mathRandom{rand.New(rand.NewSource(42))}
	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		cfg, err := FromParams(params, random)
		require.NoError(t, err)
		counts[cfg.ImagePath]++
	}
	require.Len(t, counts, candidates)
	for path, n := range counts {
		freq := float64(n) / trials
		require.InDelta(t, 1.0/candidates, freq, 0.02, "%s selected %d times", path, n)
	}
}

func TestRandomFailureBlocksCandidate(t *testing.T) {
	cfg, err := FromParams([]string{"image=remove"}, failingRandom{})
	require.Error(t, err)
	require.Equal(t, Default(), cfg)

	// a later candidate is still the first one considered
	seq := &Sequence{Values: []uint32{0xffffffff}}
	res := NewResolver(seq)
	_, err = res.Offer(Candidate{Action: Remove, Weight: 1})
	require.NoError(t, err)
	_, err = res.Offer(Candidate{Action: Keep, Weight: 1})
	require.True(t, errors.Is(err, ErrExhausted))
	require.Equal(t, Remove, res.Config().Action)
}

func TestFromParamsKeepsGoing(t *testing.T) {
	cfg, err := FromParams([]string{"image=/a.bmp,bogus=1", "image=remove", "image=nope"}, &Sequence{Values: []uint32{0}, Repeat: true})
	require.Equal(t, Remove, cfg.Action)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.Errors, 2)
	var derr *DirectiveError
	require.True(t, errors.As(merr.Errors[0], &derr))
	require.Equal(t, 1, derr.Line)
	require.True(t, errors.Is(derr, ErrUnknownKey))
}

const configFile = `# HackBGRT configuration
image= path=/EFI/HackBGRT/splash.bmp x=native
image= n=2 remove

# the resolution is recorded only
resolution=1024x768
bogus=1
image= z=1
`

func TestRead(t *testing.T) {
	cfg, err := Read(strings.NewReader(configFile), "config.txt", &Sequence{Values: []uint32{0, 0}})
	require.Equal(t, &Config{
		Action:      Remove,
		X:           CoordAuto,
		Y:           CoordAuto,
		ResolutionX: 1024,
		ResolutionY: 768,
	}, cfg)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.Errors, 2)
	var derr *DirectiveError
	require.True(t, errors.As(merr.Errors[0], &derr))
	require.Equal(t, 7, derr.Line)
	require.True(t, errors.Is(derr, ErrUnknownDirective))
	require.True(t, errors.As(merr.Errors[1], &derr))
	require.Equal(t, 8, derr.Line)
	require.Contains(t, derr.Error(), "config.txt:8")
}

func TestReadPathLine(t *testing.T) {
	// the path= value runs to the end of the line, so y=5 belongs to it
	cfg, err := Read(strings.NewReader("image= x=10 path=/splash.bmp y=5\n"), "config.txt", &Sequence{Values: []uint32{0xffffffff}})
	require.NoError(t, err)
	require.Equal(t, Replace, cfg.Action)
	require.Equal(t, "/splash.bmp y=5", cfg.ImagePath)
	require.Equal(t, Coordinate(10), cfg.X)
	require.Equal(t, CoordAuto, cfg.Y)
}

func TestReadLongLine(t *testing.T) {
	input := "image= path=/first.bmp\n" +
		"image= path=/" + strings.Repeat("a", 100000) + ".bmp\n" +
		"image= remove\n"
	cfg, err := Read(strings.NewReader(input), "config.txt", &Sequence{Values: []uint32{0xffffffff, 0}})
	require.Equal(t, Remove, cfg.Action)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr), "%v", err)
	require.Len(t, merr.Errors, 1)
	var derr *DirectiveError
	require.True(t, errors.As(merr.Errors[0], &derr))
	require.Equal(t, 2, derr.Line)
	require.True(t, errors.Is(derr, ErrLineTooLong))
	require.Less(t, len(derr.Directive), 64)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.txt"), []byte("image= keep\n"), 0o644))

	cfg, err := ReadFile(esp.Dir(dir), `\config.txt`, CryptoRandom{})
	require.NoError(t, err)
	require.Equal(t, Keep, cfg.Action)

	_, err = ReadFile(esp.Dir(dir), "/missing.txt", CryptoRandom{})
	require.True(t, errors.Is(err, os.ErrNotExist), "%v", err)
}

func TestReadUTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.String("image= black\r\n")
	require.NoError(t, err)

	cfg, err := Read(strings.NewReader(data), "config.txt", &Sequence{Values: []uint32{0}})
	require.NoError(t, err)
	require.Equal(t, Replace, cfg.Action)
	require.Equal(t, "", cfg.ImagePath)
}

func TestReadEmpty(t *testing.T) {
	cfg, err := Read(strings.NewReader("# nothing\n\n"), "config.txt", CryptoRandom{})
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestCoordinateString(t *testing.T) {
	require.Equal(t, "auto", CoordAuto.String())
	require.Equal(t, "native", CoordKeep.String())
	require.Equal(t, "17", Coordinate(17).String())
	require.True(t, Coordinate(0).IsExplicit())
	require.False(t, CoordAuto.IsExplicit())
}
