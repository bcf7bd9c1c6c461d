// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acpi

import "encoding/binary"

// XSDTSignature is the signature of the extended system description table.
const XSDTSignature = "XSDT"

// EntrySize is the width of one XSDT entry.
const EntrySize = 8

// XSDT is a view over an extended system description table: a header
// followed by an array of 64-bit table addresses.
type XSDT struct {
	Table
}

// XSDTSize returns the length of an XSDT holding count entries.
func XSDTSize(count int) uint32 {
	return uint32(HeaderSize + count*EntrySize)
}

// Count returns the number of entries according to the Length field.
func (x XSDT) Count() int {
	return int(x.Length()-HeaderSize) / EntrySize
}

// Entry returns the address stored in entry i.
func (x XSDT) Entry(i int) uint64 {
	return binary.LittleEndian.Uint64(x.Table[HeaderSize+i*EntrySize:])
}

// SetEntry stores addr in entry i.
func (x XSDT) SetEntry(i int, addr uint64) {
	binary.LittleEndian.PutUint64(x.Table[HeaderSize+i*EntrySize:], addr)
}

// Entries returns a copy of all entries.
func (x XSDT) Entries() []uint64 {
	entries := make([]uint64, x.Count())
	for i := range entries {
		entries[i] = x.Entry(i)
	}
	return entries
}

// Remove drops entry i: the following entries are shifted down, the vacated
// last slot is zeroed and Length shrinks by one entry. The checksum is left
// stale.
func (x XSDT) Remove(i int) {
	count := x.Count()
	for k := i + 1; k < count; k++ {
		x.SetEntry(k-1, x.Entry(k))
	}
	x.SetEntry(count-1, 0)
	x.SetLength(x.Length() - EntrySize)
}

// CopyTo copies the header and entries into dst, which must be zeroed and at
// least as long as the table, and returns dst as an XSDT with Length set to
// len(dst) and the checksum cleared.
func (x XSDT) CopyTo(dst []byte) XSDT {
	n := x.Length()
	if uint64(n) > uint64(len(dst)) {
		n = uint32(len(dst))
	}
	copy(dst, x.Table[:n])
	grown := XSDT{Table(dst)}
	grown.SetLength(uint32(len(dst)))
	grown.Table[checksumOffset] = 0
	return grown
}
