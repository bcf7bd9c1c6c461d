// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package acpi implements views over the ACPI tables involved in
// advertising the boot graphics: the RSDP, the XSDT and the BGRT.
//
// All views are plain byte slices pointing into firmware memory, so every
// setter writes straight through to that memory. Nothing is cached; callers
// re-validate checksums every time they look at a table.
//
// See the ACPI specification, chapter 5.2:
// * https://uefi.org/specs/ACPI/6.5/05_ACPI_Software_Programming_Model.html
package acpi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/fatih/camelcase"
)

// HeaderSize is the size of the header shared by all system description
// tables.
const HeaderSize = 36

const (
	lengthOffset   = 4
	checksumOffset = 9
)

// Header is the system description table header, serializable using
// encoding.Binary.
type Header struct {
	Signature       [4]byte
	Length          uint32
	Revision        uint8
	Checksum        uint8
	OEMID           [6]byte
	OEMTableID      [8]byte
	OEMRevision     uint32
	CreatorID       [4]byte
	CreatorRevision uint32
}

// Memory gives access to the firmware memory the tables live in.
type Memory interface {
	// Bytes returns the n bytes at the physical address addr. The slice
	// aliases the memory.
	Bytes(addr uint64, n uint32) ([]byte, error)
}

// Table is a view over a system description table.
type Table []byte

// ReadTable returns a view over the table at addr, sized by the Length field
// of its header.
func ReadTable(mem Memory, addr uint64) (Table, error) {
	if addr == 0 {
		return nil, &IntegrityError{Addr: addr, Reason: "null pointer"}
	}
	b, err := mem.Bytes(addr, HeaderSize)
	if err != nil {
		return nil, &IntegrityError{Addr: addr, Reason: "header out of memory", Err: err}
	}
	sig, length := Table(b).Signature(), Table(b).Length()
	if length < HeaderSize {
		return nil, &IntegrityError{Addr: addr, Signature: sig,
			Reason: fmt.Sprintf("length %d is shorter than the header", length)}
	}
	b, err = mem.Bytes(addr, length)
	if err != nil {
		return nil, &IntegrityError{Addr: addr, Signature: sig, Reason: "table out of memory", Err: err}
	}
	return Table(b), nil
}

// Signature returns the four character table signature.
func (t Table) Signature() string { return string(t[0:4]) }

// SetSignature sets the table signature.
func (t Table) SetSignature(sig string) { copy(t[0:4], sig) }

// Length returns the length of the table including the header.
func (t Table) Length() uint32 { return binary.LittleEndian.Uint32(t[lengthOffset:]) }

// SetLength sets the length of the table including the header.
func (t Table) SetLength(l uint32) { binary.LittleEndian.PutUint32(t[lengthOffset:], l) }

// Revision returns the table revision.
func (t Table) Revision() uint8 { return t[8] }

// SetRevision sets the table revision.
func (t Table) SetRevision(r uint8) { t[8] = r }

// Checksum returns the checksum byte.
func (t Table) Checksum() uint8 { return t[checksumOffset] }

// OEMID returns the OEM ID.
func (t Table) OEMID() string { return strings.TrimRight(string(t[10:16]), "\x00 ") }

// SetOEMID sets the OEM ID, padded with spaces.
func (t Table) SetOEMID(id string) { copyPadded(t[10:16], id) }

// OEMTableID returns the OEM table ID.
func (t Table) OEMTableID() string { return strings.TrimRight(string(t[16:24]), "\x00 ") }

// SetOEMTableID sets the OEM table ID, padded with spaces.
func (t Table) SetOEMTableID(id string) { copyPadded(t[16:24], id) }

// OEMRevision returns the OEM revision.
func (t Table) OEMRevision() uint32 { return binary.LittleEndian.Uint32(t[24:]) }

// SetOEMRevision sets the OEM revision.
func (t Table) SetOEMRevision(r uint32) { binary.LittleEndian.PutUint32(t[24:], r) }

// CreatorID returns the creator ID.
func (t Table) CreatorID() string { return strings.TrimRight(string(t[28:32]), "\x00 ") }

// SetCreatorID sets the creator ID.
func (t Table) SetCreatorID(id string) { copyPadded(t[28:32], id) }

// CreatorRevision returns the creator revision.
func (t Table) CreatorRevision() uint32 { return binary.LittleEndian.Uint32(t[32:]) }

// SetCreatorRevision sets the creator revision.
func (t Table) SetCreatorRevision(r uint32) { binary.LittleEndian.PutUint32(t[32:], r) }

// Header decodes the table header.
func (t Table) Header() (*Header, error) {
	var h Header
	if err := binary.Read(bytes.NewReader(t), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("cannot decode table header: %w", err)
	}
	return &h, nil
}

func copyPadded(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = ' '
	}
}

// Summary prints a multi-line summary of the header's content.
func (h Header) Summary() string {
	fields := []struct {
		name  string
		value interface{}
	}{
		{"Signature", string(h.Signature[:])},
		{"Length", h.Length},
		{"Revision", h.Revision},
		{"Checksum", fmt.Sprintf("%#02x", h.Checksum)},
		{"OEMID", string(h.OEMID[:])},
		{"OEMTableID", string(h.OEMTableID[:])},
		{"OEMRevision", h.OEMRevision},
		{"CreatorID", string(h.CreatorID[:])},
		{"CreatorRevision", h.CreatorRevision},
	}
	var s strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&s, "%-17s: %v\n", fieldName(f.name), f.value)
	}
	return s.String()
}

// fieldName turns a Go field name into words: "OEMTableID" -> "OEM Table ID".
func fieldName(name string) string {
	return strings.Join(camelcase.Split(name), " ")
}
