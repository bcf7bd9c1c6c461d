// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acpi

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// BGRTSignature is the signature of the boot graphics resource table.
const BGRTSignature = "BGRT"

// BGRTSize is the fixed size of the BGRT.
const BGRTSize = 56

// Values of the BGRT fields.
const (
	BGRTVersion       = 1
	BGRTStatusHidden  = 0
	BGRTStatusShown   = 1
	BGRTImageTypeBMP  = 0
	bgrtVersionOffset = HeaderSize
	bgrtStatusOffset  = HeaderSize + 2
	bgrtTypeOffset    = HeaderSize + 3
	bgrtAddressOffset = HeaderSize + 4
	bgrtXOffset       = HeaderSize + 12
	bgrtYOffset       = HeaderSize + 16
)

// Identity written into the BGRT tables created by hackbgrt.
const (
	BGRTOEMID           = "GRUB_2"
	BGRTOEMTableID      = "HackBGRT"
	BGRTOEMRevision     = 1
	BGRTCreatorID       = "ACPI"
	BGRTCreatorRevision = 20201214
)

// BGRT is a view over a boot graphics resource table.
type BGRT struct {
	Table
}

// ReadBGRT returns a view over the BGRT at addr. The signature is checked,
// the checksum is not.
func ReadBGRT(mem Memory, addr uint64) (BGRT, error) {
	b, err := mem.Bytes(addr, BGRTSize)
	if err != nil {
		return BGRT{}, &IntegrityError{Addr: addr, Signature: BGRTSignature, Reason: "out of memory", Err: err}
	}
	if t := Table(b); t.Signature() != BGRTSignature {
		return BGRT{}, &IntegrityError{Addr: addr, Signature: t.Signature(), Reason: "not a BGRT"}
	}
	return BGRT{Table(b)}, nil
}

// Init overwrites the header and the constant fields with the values used by
// hackbgrt. The image address and offsets are left untouched.
func (b BGRT) Init() {
	b.SetSignature(BGRTSignature)
	b.SetLength(BGRTSize)
	b.SetRevision(0)
	b.SetOEMID(BGRTOEMID)
	b.SetOEMTableID(BGRTOEMTableID)
	b.SetOEMRevision(BGRTOEMRevision)
	b.SetCreatorID(BGRTCreatorID)
	b.SetCreatorRevision(BGRTCreatorRevision)
	b.SetVersion(BGRTVersion)
	b.SetStatus(BGRTStatusShown)
	b.SetImageType(BGRTImageTypeBMP)
}

// Version returns the BGRT version.
func (b BGRT) Version() uint16 { return binary.LittleEndian.Uint16(b.Table[bgrtVersionOffset:]) }

// SetVersion sets the BGRT version.
func (b BGRT) SetVersion(v uint16) { binary.LittleEndian.PutUint16(b.Table[bgrtVersionOffset:], v) }

// Status returns the status byte; bit 0 tells whether the image is displayed.
func (b BGRT) Status() uint8 { return b.Table[bgrtStatusOffset] }

// SetStatus sets the status byte.
func (b BGRT) SetStatus(s uint8) { b.Table[bgrtStatusOffset] = s }

// ImageType returns the image type, 0 being a BMP.
func (b BGRT) ImageType() uint8 { return b.Table[bgrtTypeOffset] }

// SetImageType sets the image type.
func (b BGRT) SetImageType(t uint8) { b.Table[bgrtTypeOffset] = t }

// ImageAddress returns the physical address of the image.
func (b BGRT) ImageAddress() uint64 { return binary.LittleEndian.Uint64(b.Table[bgrtAddressOffset:]) }

// SetImageAddress sets the physical address of the image.
func (b BGRT) SetImageAddress(addr uint64) {
	binary.LittleEndian.PutUint64(b.Table[bgrtAddressOffset:], addr)
}

// ImageOffsetX returns the X position of the image.
func (b BGRT) ImageOffsetX() uint32 { return binary.LittleEndian.Uint32(b.Table[bgrtXOffset:]) }

// SetImageOffsetX sets the X position of the image.
func (b BGRT) SetImageOffsetX(x uint32) { binary.LittleEndian.PutUint32(b.Table[bgrtXOffset:], x) }

// ImageOffsetY returns the Y position of the image.
func (b BGRT) ImageOffsetY() uint32 { return binary.LittleEndian.Uint32(b.Table[bgrtYOffset:]) }

// SetImageOffsetY sets the Y position of the image.
func (b BGRT) SetImageOffsetY(y uint32) { binary.LittleEndian.PutUint32(b.Table[bgrtYOffset:], y) }

// Summary prints a multi-line summary of the BGRT fields following the
// header.
func (b BGRT) Summary() string {
	fields := []struct {
		name  string
		value string
	}{
		{"Version", fmt.Sprint(b.Version())},
		{"Status", fmt.Sprintf("%#02x", b.Status())},
		{"ImageType", fmt.Sprint(b.ImageType())},
		{"ImageAddress", fmt.Sprintf("%#x", b.ImageAddress())},
		{"ImageOffsetX", fmt.Sprint(b.ImageOffsetX())},
		{"ImageOffsetY", fmt.Sprint(b.ImageOffsetY())},
	}
	var s strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&s, "%-17s: %s\n", fieldName(f.name), f.value)
	}
	return s.String()
}
