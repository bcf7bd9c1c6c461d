// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package efi describes the firmware services hackbgrt relies on: the
// configuration tables of the system table, memory allocation and the
// current video mode.
package efi

import (
	"fmt"
)

// MemoryType is the EFI memory type of an allocation.
type MemoryType uint32

// Memory types used by hackbgrt.
const (
	BootServicesData  MemoryType = 4
	ACPIReclaimMemory MemoryType = 9
)

func (t MemoryType) String() string {
	switch t {
	case BootServicesData:
		return "EfiBootServicesData"
	case ACPIReclaimMemory:
		return "EfiACPIReclaimMemory"
	}
	return fmt.Sprintf("MemoryType(%d)", uint32(t))
}

// Memory is the physical memory the firmware tables live in.
type Memory interface {
	// Bytes returns the n bytes at the physical address addr. The slice
	// aliases the memory.
	Bytes(addr uint64, n uint32) ([]byte, error)

	// Allocate returns the address of a new zeroed block of size bytes.
	// Blocks are never freed: once linked into the ACPI tables they belong
	// to the firmware.
	Allocate(t MemoryType, size uint32) (uint64, error)
}

// ConfigurationTable is an entry of the EFI system table's configuration
// table array.
type ConfigurationTable struct {
	VendorGUID  GUID
	VendorTable uint64
}

// SystemTable is the part of the EFI system table used by hackbgrt.
type SystemTable struct {
	ConfigurationTables []ConfigurationTable
}

// Find returns the vendor table addresses registered under g, in order.
func (st *SystemTable) Find(g GUID) []uint64 {
	var addrs []uint64
	for _, ct := range st.ConfigurationTables {
		if ct.VendorGUID == g {
			addrs = append(addrs, ct.VendorTable)
		}
	}
	return addrs
}

// Display reports the resolution of the current video mode.
type Display interface {
	// Resolution returns the width and height in pixels. ok is false when
	// there is no usable graphics output.
	Resolution() (width, height int, ok bool)
}

// FixedDisplay is a Display with a known resolution. The zero value has no
// usable mode.
type FixedDisplay struct {
	Width, Height int
}

// Resolution implements Display.
func (d FixedDisplay) Resolution() (int, int, bool) {
	if d.Width <= 0 || d.Height <= 0 {
		return 0, 0, false
	}
	return d.Width, d.Height, true
}

// ResourceError is returned when a firmware allocation fails.
type ResourceError struct {
	What string
	Size uint32
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("failed to allocate %d bytes for %s: %v", e.Size, e.What, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}
