// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arena

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linuxboot/hackbgrt/pkg/compression"
	"github.com/linuxboot/hackbgrt/pkg/efi"
)

func TestBytes(t *testing.T) {
	buf := make([]byte, 0x100)
	a, err := New(0x1000, buf, 0x80)
	require.NoError(t, err)

	b, err := a.Bytes(0x1010, 4)
	require.NoError(t, err)
	b[0] = 0xaa
	require.Equal(t, byte(0xaa), buf[0x10])

	for _, tc := range []struct {
		addr uint64
		n    uint32
	}{
		{0xfff, 1},
		{0x10fd, 4},
		{0x1101, 0},
		{0x1000, 0x101},
	} {
		_, err := a.Bytes(tc.addr, tc.n)
		require.True(t, errors.Is(err, ErrOutOfRange), "%#x+%#x: %v", tc.addr, tc.n, err)
	}

	_, err = a.Bytes(0x1100, 0)
	require.NoError(t, err)
}

func TestAllocate(t *testing.T) {
	buf := make([]byte, 0x100)
	for i := range buf {
		buf[i] = 0xff
	}
	a, err := New(0x1000, buf, 0x81)
	require.NoError(t, err)

	addr, err := a.Allocate(efi.ACPIReclaimMemory, 0x38)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1088), addr)
	block, err := a.Bytes(addr, 0x38)
	require.NoError(t, err)
	require.Equal(t, make([]byte, 0x38), block)

	addr2, err := a.Allocate(efi.BootServicesData, 0x3a)
	require.NoError(t, err)
	require.Equal(t, uint64(0x10c0), addr2)

	_, err = a.Allocate(efi.BootServicesData, 8)
	require.True(t, errors.Is(err, ErrOutOfMemory))

	require.Equal(t, []Allocation{
		{Type: efi.ACPIReclaimMemory, Addr: 0x1088, Size: 0x38},
		{Type: efi.BootServicesData, Addr: 0x10c0, Size: 0x3a},
	}, a.Allocations())
	require.Equal(t, uint64(0x79), a.HeapUsed())
}

func TestNewBadHeap(t *testing.T) {
	_, err := New(0, make([]byte, 16), 17)
	require.Error(t, err)
}

func TestFileCompressed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mem.bin.xz")
	raw := make([]byte, 0x200)
	raw[0x10] = 0x42
	encoded, err := (&compression.XZ{}).Encode(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, encoded, 0o644))

	f, err := Open(path, 0x10000, 0x100, false)
	require.NoError(t, err)
	b, err := f.Bytes(0x10010, 1)
	require.NoError(t, err)
	require.Equal(t, byte(0x42), b[0])
	b[0] = 0x43
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	f, err = Open(path, 0x10000, 0x100, true)
	require.NoError(t, err)
	require.Equal(t, byte(0x43), f.Buf()[0x10])
	require.Error(t, f.Save())
}

func TestFileMapped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mem.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 0x1000), 0o644))

	f, err := Open(path, 0x80000, 0x800, false)
	require.NoError(t, err)
	addr, err := f.Allocate(efi.ACPIReclaimMemory, 4)
	require.NoError(t, err)
	b, err := f.Bytes(addr, 4)
	require.NoError(t, err)
	copy(b, "BGRT")
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "BGRT", string(raw[0x800:0x804]))
}
