// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package arena implements efi.Memory over an image of physical memory.
//
// The image covers the physical addresses [Base, Base+len(image)). Part of
// it, the heap, is reserved for allocations made while patching the tables;
// blocks are handed out in order and never freed.
package arena

import (
	"errors"
	"fmt"

	"github.com/linuxboot/hackbgrt/pkg/efi"
)

// Alignment of allocated blocks.
const Alignment = 8

var (
	// ErrOutOfRange is returned for accesses outside the memory image.
	ErrOutOfRange = errors.New("address range is outside of the memory image")
	// ErrOutOfMemory is returned when the heap is exhausted.
	ErrOutOfMemory = errors.New("out of memory")
)

// Allocation records a block handed out by Allocate.
type Allocation struct {
	Type efi.MemoryType
	Addr uint64
	Size uint32
}

// Arena is a memory image with a bump allocator.
type Arena struct {
	Base uint64

	buf         []byte
	heap, next  uint64
	allocations []Allocation
}

var _ efi.Memory = (*Arena)(nil)

// New returns an Arena over buf mapped at base. The heap spans from
// heapOffset to the end of buf.
func New(base uint64, buf []byte, heapOffset uint64) (*Arena, error) {
	if heapOffset > uint64(len(buf)) {
		return nil, fmt.Errorf("heap offset %#x is beyond the %#x bytes of memory", heapOffset, len(buf))
	}
	return &Arena{
		Base: base,
		buf:  buf,
		heap: base + heapOffset,
		next: base + heapOffset,
	}, nil
}

// Buf returns the whole memory image.
func (a *Arena) Buf() []byte {
	return a.buf
}

// Bytes implements efi.Memory.
func (a *Arena) Bytes(addr uint64, n uint32) ([]byte, error) {
	if addr < a.Base {
		return nil, fmt.Errorf("%#x+%#x: %w", addr, n, ErrOutOfRange)
	}
	off := addr - a.Base
	if off > uint64(len(a.buf)) || uint64(len(a.buf))-off < uint64(n) {
		return nil, fmt.Errorf("%#x+%#x: %w", addr, n, ErrOutOfRange)
	}
	return a.buf[off : off+uint64(n) : off+uint64(n)], nil
}

// Allocate implements efi.Memory.
func (a *Arena) Allocate(t efi.MemoryType, size uint32) (uint64, error) {
	addr := align(a.next)
	end := a.Base + uint64(len(a.buf))
	if addr > end || end-addr < uint64(size) {
		return 0, fmt.Errorf("%d bytes of %s: %w", size, t, ErrOutOfMemory)
	}
	off := addr - a.Base
	block := a.buf[off : off+uint64(size)]
	for i := range block {
		block[i] = 0
	}
	a.next = addr + uint64(size)
	a.allocations = append(a.allocations, Allocation{Type: t, Addr: addr, Size: size})
	return addr, nil
}

// Allocations returns the blocks allocated so far, in order.
func (a *Arena) Allocations() []Allocation {
	return a.allocations
}

// HeapUsed returns the number of heap bytes consumed, including padding.
func (a *Arena) HeapUsed() uint64 {
	return a.next - a.heap
}

func align(addr uint64) uint64 {
	return (addr + Alignment - 1) &^ (Alignment - 1)
}
