// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acpi

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// RSDPSignature is the signature of the root system description pointer.
const RSDPSignature = "RSD PTR "

// Sizes of the RSDP revisions.
const (
	RSDPv1Size = 20
	RSDPv2Size = 36
)

const (
	rsdpChecksumOffset    = 8
	rsdpRevisionOffset    = 15
	rsdpLengthOffset      = 20
	rsdpXSDTOffset        = 24
	rsdpExtChecksumOffset = 32
)

// RSDP is a view over a root system description pointer of revision 2 or
// later.
type RSDP []byte

// ReadRSDP returns a view over the RSDP at addr. It does not validate it.
func ReadRSDP(mem Memory, addr uint64) (RSDP, error) {
	if addr == 0 {
		return nil, &IntegrityError{Addr: addr, Signature: "RSDP", Reason: "null pointer"}
	}
	b, err := mem.Bytes(addr, RSDPv2Size)
	if err != nil {
		return nil, &IntegrityError{Addr: addr, Signature: "RSDP", Reason: "out of memory", Err: err}
	}
	if length := RSDP(b).Length(); length > RSDPv2Size {
		b, err = mem.Bytes(addr, length)
		if err != nil {
			return nil, &IntegrityError{Addr: addr, Signature: "RSDP",
				Reason: fmt.Sprintf("length %d is out of memory", length), Err: err}
		}
	}
	return RSDP(b), nil
}

// Signature returns the eight character signature.
func (r RSDP) Signature() string { return string(r[0:8]) }

// OEMID returns the OEM ID.
func (r RSDP) OEMID() string { return strings.TrimRight(string(r[9:15]), "\x00 ") }

// Revision returns the ACPI revision: 0 for ACPI 1.0, 2 for later versions.
func (r RSDP) Revision() uint8 { return r[rsdpRevisionOffset] }

// Length returns the length of the whole structure.
func (r RSDP) Length() uint32 { return binary.LittleEndian.Uint32(r[rsdpLengthOffset:]) }

// XSDTAddress returns the physical address of the XSDT.
func (r RSDP) XSDTAddress() uint64 { return binary.LittleEndian.Uint64(r[rsdpXSDTOffset:]) }

// SetXSDTAddress sets the physical address of the XSDT.
func (r RSDP) SetXSDTAddress(addr uint64) { binary.LittleEndian.PutUint64(r[rsdpXSDTOffset:], addr) }

// Check returns an IntegrityError if the RSDP has a wrong signature, is older
// than revision 2, is shorter than the revision 2 structure or has a bad
// checksum.
func (r RSDP) Check(addr uint64) error {
	switch {
	case r.Signature() != RSDPSignature:
		return &IntegrityError{Addr: addr, Signature: "RSDP", Reason: "bad signature"}
	case r.Revision() < 2:
		return &IntegrityError{Addr: addr, Signature: "RSDP", Reason: "revision is older than 2"}
	case r.Length() < RSDPv2Size:
		return &IntegrityError{Addr: addr, Signature: "RSDP",
			Reason: fmt.Sprintf("length %d is shorter than %d", r.Length(), RSDPv2Size)}
	case !VerifyRSDP(r):
		return &IntegrityError{Addr: addr, Signature: "RSDP", Reason: "bad checksum"}
	}
	return nil
}
