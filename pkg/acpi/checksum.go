// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acpi

// Checksum8 does a 8 bit checksum of the slice passed in.
func Checksum8(buf []byte) uint8 {
	var sum uint8
	for _, val := range buf {
		sum += val
	}
	return sum
}

// span returns the first n bytes of b, or all of b if it is shorter.
func span(b []byte, n uint32) []byte {
	if uint64(n) > uint64(len(b)) {
		return b
	}
	return b[:n]
}

// Verify reports whether the bytes of the table, as far as its Length field
// reaches, sum up to zero.
func Verify(t Table) bool {
	if len(t) < HeaderSize {
		return false
	}
	return Checksum8(span(t, t.Length())) == 0
}

// Finalize updates the checksum byte so that Verify holds.
func Finalize(t Table) {
	t[checksumOffset] = 0
	t[checksumOffset] = -Checksum8(span(t, t.Length()))
}

// VerifyRSDP reports whether both checksums of an RSDP version 2 hold: the
// one over the 20 bytes of the version 1 structure and the extended one
// over Length bytes. Length must cover the whole revision 2 structure and
// lie within r.
func VerifyRSDP(r RSDP) bool {
	if len(r) < RSDPv2Size || r.Length() < RSDPv2Size || uint64(r.Length()) > uint64(len(r)) {
		return false
	}
	return Checksum8(r[:RSDPv1Size]) == 0 && Checksum8(span(r, r.Length())) == 0
}

// FinalizeRSDP recomputes both checksums of an RSDP version 2.
func FinalizeRSDP(r RSDP) {
	r[rsdpChecksumOffset] = 0
	r[rsdpChecksumOffset] = -Checksum8(r[:RSDPv1Size])
	r[rsdpExtChecksumOffset] = 0
	r[rsdpExtChecksumOffset] = -Checksum8(span(r, r.Length()))
}
