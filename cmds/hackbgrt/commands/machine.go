// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"fmt"

	"github.com/linuxboot/hackbgrt/pkg/arena"
	"github.com/linuxboot/hackbgrt/pkg/efi"
)

// Machine selects the memory image holding the firmware tables and the
// RSDPs the firmware registered in its system table.
type Machine struct {
	MemoryPath string   `short:"m" long:"memory" description:"path to the physical memory image; .xz, .lz4 and .zst images are decompressed" required:"true"`
	Base       uint64   `long:"base" base:"0" description:"physical address of the first byte of the memory image"`
	Heap       uint64   `long:"heap" base:"0" description:"offset of the free area of the memory image used for new tables and bitmaps"`
	RSDP       []uint64 `short:"r" long:"rsdp" base:"0" description:"physical address of an ACPI 2.0 RSDP (may be repeated)" required:"true"`
}

// Open opens the memory image. readOnly images are never written back.
func (m *Machine) Open(readOnly bool) (*arena.File, error) {
	f, err := arena.Open(m.MemoryPath, m.Base, m.Heap, readOnly)
	if err != nil {
		return nil, fmt.Errorf("unable to open the memory image '%s': %w", m.MemoryPath, err)
	}
	return f, nil
}

// SystemTable returns a system table listing the RSDPs.
func (m *Machine) SystemTable() *efi.SystemTable {
	st := &efi.SystemTable{}
	for _, addr := range m.RSDP {
		st.ConfigurationTables = append(st.ConfigurationTables, efi.ConfigurationTable{
			VendorGUID:  efi.ACPI20TableGUID,
			VendorTable: addr,
		})
	}
	return st
}
