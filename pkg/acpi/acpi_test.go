// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acpi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flat is a Memory starting at address base.
type flat struct {
	base uint64
	buf  []byte
}

func (m flat) Bytes(addr uint64, n uint32) ([]byte, error) {
	if addr < m.base || addr-m.base+uint64(n) > uint64(len(m.buf)) {
		return nil, fmt.Errorf("%#x+%#x is out of range", addr, n)
	}
	off := addr - m.base
	return m.buf[off : off+uint64(n)], nil
}

func newTable(sig string, length uint32) Table {
	t := Table(make([]byte, length))
	t.SetSignature(sig)
	t.SetLength(length)
	return t
}

func TestFinalize(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		tab := Table(make([]byte, HeaderSize+rng.Intn(64)))
		rng.Read(tab)
		tab.SetLength(uint32(len(tab)))
		Finalize(tab)
		require.True(t, Verify(tab))
		// finalizing twice keeps the same checksum
		sum := tab.Checksum()
		Finalize(tab)
		require.Equal(t, sum, tab.Checksum())
	}
}

func TestVerifyUsesLength(t *testing.T) {
	tab := newTable("SSDT", HeaderSize)
	tab = append(tab, 0x55, 0x66)
	Finalize(tab)
	require.True(t, Verify(tab))
	tab[len(tab)-1]++
	require.True(t, Verify(tab), "bytes beyond Length are not summed")
	tab[0]++
	require.False(t, Verify(tab))
	require.False(t, Verify(tab[:10]))
}

func newRSDP(xsdt uint64) RSDP {
	r := RSDP(make([]byte, RSDPv2Size))
	copy(r, RSDPSignature)
	copy(r[9:15], "OEMOEM")
	r[rsdpRevisionOffset] = 2
	binary.LittleEndian.PutUint32(r[rsdpLengthOffset:], RSDPv2Size)
	r.SetXSDTAddress(xsdt)
	FinalizeRSDP(r)
	return r
}

func TestRSDPChecksums(t *testing.T) {
	r := newRSDP(0x1234)
	require.True(t, VerifyRSDP(r))
	require.Equal(t, uint8(0), Checksum8(r[:RSDPv1Size]))
	require.NoError(t, r.Check(0x10))

	r.SetXSDTAddress(0x5678)
	require.False(t, VerifyRSDP(r), "XSDT address is covered by the extended checksum")
	FinalizeRSDP(r)
	require.True(t, VerifyRSDP(r))

	r[rsdpChecksumOffset]++
	require.False(t, VerifyRSDP(r), "legacy checksum")
}

func TestRSDPCheck(t *testing.T) {
	for _, tc := range []struct {
		name   string
		modify func(RSDP)
		reason string
	}{
		{"signature", func(r RSDP) { r[0] = 'X' }, "bad signature"},
		{"revision", func(r RSDP) { r[rsdpRevisionOffset] = 0; FinalizeRSDP(r) }, "revision is older than 2"},
		{"checksum", func(r RSDP) { r[rsdpExtChecksumOffset]++ }, "bad checksum"},
		{"short length", func(r RSDP) {
			binary.LittleEndian.PutUint32(r[rsdpLengthOffset:], RSDPv1Size)
			FinalizeRSDP(r)
			r[rsdpExtChecksumOffset] = 0x5a
		}, "length 20 is shorter than 36"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := newRSDP(0x1000)
			tc.modify(r)
			err := r.Check(0x10)
			var ie *IntegrityError
			require.True(t, errors.As(err, &ie), "%v", err)
			require.Equal(t, tc.reason, ie.Reason)
			if tc.name != "revision" {
				require.False(t, VerifyRSDP(r))
			}
		})
	}
}

func TestReadRSDP(t *testing.T) {
	mem := flat{base: 0x1000, buf: make([]byte, 0x100)}
	copy(mem.buf, newRSDP(0x2000))
	r, err := ReadRSDP(mem, 0x1000)
	require.NoError(t, err)
	assert.Equal(t, "OEMOEM", r.OEMID())
	assert.Equal(t, uint64(0x2000), r.XSDTAddress())

	_, err = ReadRSDP(mem, 0)
	require.Error(t, err)
	_, err = ReadRSDP(mem, 0x10f0)
	require.Error(t, err)

	// a Length reaching beyond memory is not truncated to the revision 2 size
	binary.LittleEndian.PutUint32(mem.buf[rsdpLengthOffset:], 0x200)
	FinalizeRSDP(RSDP(mem.buf[:RSDPv2Size]))
	_, err = ReadRSDP(mem, 0x1000)
	var ie *IntegrityError
	require.True(t, errors.As(err, &ie), "%v", err)
	require.False(t, VerifyRSDP(RSDP(mem.buf[:RSDPv2Size])))
}

func TestReadTable(t *testing.T) {
	mem := flat{base: 0x1000, buf: make([]byte, 0x100)}
	tab := newTable("FACP", 0x40)
	copy(mem.buf, tab)

	got, err := ReadTable(mem, 0x1000)
	require.NoError(t, err)
	require.Len(t, got, 0x40)
	require.Equal(t, "FACP", got.Signature())

	got.SetOEMID("AB")
	require.Equal(t, "AB    ", string(mem.buf[10:16]), "views write through and pad with spaces")
	require.Equal(t, "AB", got.OEMID())

	for _, tc := range []struct {
		name   string
		addr   uint64
		length uint32
	}{
		{"null", 0, 0x40},
		{"header out of memory", 0x10f0, 0x40},
		{"short length", 0x1000, HeaderSize - 1},
		{"table out of memory", 0x1000, 0x101},
	} {
		t.Run(tc.name, func(t *testing.T) {
			Table(mem.buf).SetLength(tc.length)
			_, err := ReadTable(mem, tc.addr)
			var ie *IntegrityError
			require.True(t, errors.As(err, &ie), "%v", err)
		})
	}
}

func newXSDT(entries ...uint64) XSDT {
	x := XSDT{newTable(XSDTSignature, XSDTSize(len(entries)))}
	for i, e := range entries {
		x.SetEntry(i, e)
	}
	Finalize(x.Table)
	return x
}

func TestXSDTRemove(t *testing.T) {
	x := newXSDT(1, 2, 3, 4)
	x.Remove(1)
	require.Equal(t, []uint64{1, 3, 4}, x.Entries())
	require.Equal(t, XSDTSize(3), x.Length())
	require.Equal(t, uint64(0), binary.LittleEndian.Uint64(x.Table[XSDTSize(3):]))

	x.Remove(2)
	require.Equal(t, []uint64{1, 3}, x.Entries())
	x.Remove(0)
	x.Remove(0)
	require.Empty(t, x.Entries())
	require.Equal(t, uint32(HeaderSize), x.Length())
}

func TestXSDTCopyTo(t *testing.T) {
	x := newXSDT(0x10, 0x20)
	x.SetOEMID("OEMOEM")
	dst := make([]byte, XSDTSize(3))
	grown := x.CopyTo(dst)
	require.Equal(t, 3, grown.Count())
	require.Equal(t, []uint64{0x10, 0x20, 0}, grown.Entries())
	require.Equal(t, "OEMOEM", grown.OEMID())
	require.Equal(t, uint8(0), grown.Checksum())
	require.Equal(t, XSDTSize(2), x.Length(), "the source is left alone")

	grown.SetEntry(2, 0x30)
	Finalize(grown.Table)
	require.True(t, Verify(grown.Table))
}

func TestBGRTInit(t *testing.T) {
	mem := flat{base: 0x1000, buf: make([]byte, BGRTSize)}
	for i := range mem.buf {
		mem.buf[i] = 0xee
	}
	_, err := ReadBGRT(mem, 0x1000)
	require.Error(t, err, "signature is not checked yet")

	b := BGRT{Table(mem.buf)}
	b.SetImageAddress(0x8000)
	b.SetImageOffsetX(12)
	b.SetImageOffsetY(34)
	b.Init()
	Finalize(b.Table)

	b, err = ReadBGRT(mem, 0x1000)
	require.NoError(t, err)
	h, err := b.Header()
	require.NoError(t, err)
	assert.Equal(t, Header{
		Signature:       [4]byte{'B', 'G', 'R', 'T'},
		Length:          BGRTSize,
		Checksum:        b.Checksum(),
		OEMID:           [6]byte{'G', 'R', 'U', 'B', '_', '2'},
		OEMTableID:      [8]byte{'H', 'a', 'c', 'k', 'B', 'G', 'R', 'T'},
		OEMRevision:     BGRTOEMRevision,
		CreatorID:       [4]byte{'A', 'C', 'P', 'I'},
		CreatorRevision: BGRTCreatorRevision,
	}, *h)
	assert.True(t, Verify(b.Table))
	assert.Equal(t, uint16(1), b.Version())
	assert.Equal(t, uint8(1), b.Status())
	assert.Equal(t, uint8(0), b.ImageType())
	assert.Equal(t, uint64(0x8000), b.ImageAddress())
	assert.Equal(t, uint32(12), b.ImageOffsetX())
	assert.Equal(t, uint32(34), b.ImageOffsetY())

	assert.Contains(t, b.Summary(), "Image Offset X   : 12")
	assert.Contains(t, h.Summary(), "OEM Table ID     : HackBGRT")
}
