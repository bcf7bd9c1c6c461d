// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arena

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/linuxboot/hackbgrt/pkg/compression"
	"github.com/linuxboot/hackbgrt/pkg/log"
)

// File is an Arena backed by a memory image on disk.
//
// Raw images are mapped and patched in place. Compressed images (.xz, .lz4,
// .zst) are decompressed into memory and compressed again by Save.
type File struct {
	*Arena

	path       string
	file       *os.File
	mapping    mmap.MMap
	compressor compression.Compressor
	readOnly   bool
}

// Open opens the memory image at path, mapped at the physical address base,
// with the heap starting heapOffset bytes into the image.
func Open(path string, base, heapOffset uint64, readOnly bool) (*File, error) {
	f := &File{
		path:       path,
		compressor: compression.CompressorFromPath(path),
		readOnly:   readOnly,
	}
	var buf []byte
	if f.compressor != nil {
		encoded, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read memory image: %w", err)
		}
		buf, err = f.compressor.Decode(encoded)
		if err != nil {
			return nil, fmt.Errorf("cannot decode %s memory image '%s': %w", f.compressor.Name(), path, err)
		}
		log.Debugf("decoded %s memory image '%s': %d bytes", f.compressor.Name(), path, len(buf))
	} else {
		flag, prot := os.O_RDWR, mmap.RDWR
		if readOnly {
			flag, prot = os.O_RDONLY, mmap.COPY
		}
		file, err := os.OpenFile(path, flag, 0)
		if err != nil {
			return nil, fmt.Errorf("cannot open memory image: %w", err)
		}
		m, err := mmap.Map(file, prot, 0)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("cannot map memory image '%s': %w", path, err)
		}
		f.file, f.mapping, buf = file, m, m
	}
	a, err := New(base, buf, heapOffset)
	if err != nil {
		f.Close()
		return nil, err
	}
	f.Arena = a
	return f, nil
}

// Save writes the patched memory back to the image.
func (f *File) Save() error {
	if f.readOnly {
		return fmt.Errorf("memory image '%s' was opened read-only", f.path)
	}
	if f.mapping != nil {
		return f.mapping.Flush()
	}
	encoded, err := f.compressor.Encode(f.Buf())
	if err != nil {
		return fmt.Errorf("cannot encode %s memory image: %w", f.compressor.Name(), err)
	}
	return os.WriteFile(f.path, encoded, 0o644)
}

// Close unmaps the image. Unsaved changes to compressed images are lost.
func (f *File) Close() error {
	if f.mapping == nil {
		return nil
	}
	err := f.mapping.Unmap()
	if cerr := f.file.Close(); err == nil {
		err = cerr
	}
	f.mapping = nil
	return err
}
