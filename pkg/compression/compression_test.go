// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestCompressorFromPath(t *testing.T) {
	for path, want := range map[string]string{
		"mem.bin.xz":  "XZ",
		"mem.bin.LZ4": "LZ4",
		"mem.zst":     "ZSTD",
		"mem.zstd":    "ZSTD",
	} {
		c := CompressorFromPath(path)
		if c == nil {
			t.Errorf("CompressorFromPath(%q) = nil; want %s", path, want)
			continue
		}
		if c.Name() != want {
			t.Errorf("CompressorFromPath(%q) = %s; want %s", path, c.Name(), want)
		}
	}
	if c := CompressorFromPath("mem.bin"); c != nil {
		t.Errorf("CompressorFromPath(mem.bin) = %s; want nil", c.Name())
	}
}

func TestEncodeDecode(t *testing.T) {
	data := make([]byte, 64<<10)
	rand.New(rand.NewSource(1)).Read(data[:1024])

	for _, c := range []Compressor{&XZ{}, &LZ4{}, &Zstd{}} {
		t.Run(c.Name(), func(t *testing.T) {
			encoded, err := c.Encode(data)
			if err != nil {
				t.Fatal(err)
			}
			if len(encoded) >= len(data) {
				t.Errorf("encoded size %d is not smaller than %d", len(encoded), len(data))
			}
			decoded, err := c.Decode(encoded)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(decoded, data) {
				t.Error("decoded data does not match")
			}
		})
	}
}
