// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bmp loads the only bitmap flavour a BGRT may point to: an
// uncompressed 24 bits per pixel BMP with a BITMAPINFOHEADER and no palette.
//
// It is not a general purpose BMP decoder.
package bmp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/u-root/u-root/pkg/uio"
)

// Signature of a BMP file.
var Signature = [2]byte{'B', 'M'}

// Constants every accepted bitmap must match.
const (
	HeaderSize      = 54
	PixelDataOffset = HeaderSize
	DIBHeaderSize   = 40
	Planes          = 1
	BPP             = 24
	NoCompression   = 0
	NoPalette       = 0
	// PPM72DPI is 72 DPI expressed in pixels per meter.
	PPM72DPI = 2835
	// MaxDataSize is the largest pixel data size whose file size still
	// fits the 32-bit Size field.
	MaxDataSize = math.MaxUint32 - HeaderSize
)

// Header is the BMP file header followed by the BITMAPINFOHEADER,
// serializable using encoding.Binary.
type Header struct {
	Signature       [2]byte
	Size            uint32
	Reserved        uint32
	PixelDataOffset uint32
	DIBHeaderSize   uint32
	Width           uint32
	Height          uint32
	Planes          uint16
	BPP             uint16
	Compression     uint32
	DataSize        uint32
	PPMHoriz        uint32
	PPMVert         uint32
	PaletteColors   uint32
	ImportantColors uint32
}

// Bitmap is a header and the raw, row padded pixels.
type Bitmap struct {
	Header
	Pixels []byte
}

// FormatError is returned for bitmaps hackbgrt cannot hand to the firmware.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unsupported bitmap: %v", e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// PixelsSize returns the size of the pixel data of a width x height bitmap.
//
// Rows are padded with width%4 bytes. This only matches the 4 byte row
// alignment of BMP for some widths (1 among them); it is used to size the
// blank bitmap and nothing else.
func PixelsSize(width, height uint32) uint32 {
	return (BPP/8*width + width%4) * height
}

// TotalSize returns the file size of a width x height bitmap.
func TotalSize(width, height uint32) uint32 {
	return HeaderSize + PixelsSize(width, height)
}

// ReadHeader decodes a bitmap header from r.
func ReadHeader(r io.Reader) (*Header, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, &FormatError{Err: fmt.Errorf("cannot read header: %w", err)}
	}
	return &h, nil
}

// Validate checks the header against the format required for a BGRT image
// and returns a FormatError listing every mismatch.
func (h *Header) Validate() error {
	var result *multierror.Error
	check := func(name string, got, want uint64) {
		if got != want {
			result = multierror.Append(result, fmt.Errorf("%s is %d, want %d", name, got, want))
		}
	}
	if h.Signature != Signature {
		result = multierror.Append(result, fmt.Errorf("signature is %q, want %q", h.Signature[:], Signature[:]))
	}
	check("pixel data offset", uint64(h.PixelDataOffset), PixelDataOffset)
	check("DIB header size", uint64(h.DIBHeaderSize), DIBHeaderSize)
	check("planes", uint64(h.Planes), Planes)
	check("bits per pixel", uint64(h.BPP), BPP)
	check("compression", uint64(h.Compression), NoCompression)
	check("palette colors", uint64(h.PaletteColors), NoPalette)
	check("important colors", uint64(h.ImportantColors), NoPalette)
	if h.DataSize > MaxDataSize {
		result = multierror.Append(result, fmt.Errorf("data size %d exceeds %d", h.DataSize, uint32(MaxDataSize)))
	}
	if err := result.ErrorOrNil(); err != nil {
		return &FormatError{Err: err}
	}
	return nil
}

// Load reads a bitmap from r. The header is validated before any pixel data
// is read; exactly DataSize bytes of pixels follow it. Memory is only
// allocated for pixel data that is actually present.
func Load(r io.Reader) (*Bitmap, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	// the buffer grows with the data actually read, not with DataSize
	pixels, err := io.ReadAll(io.LimitReader(r, int64(h.DataSize)))
	if err == nil && uint64(len(pixels)) < uint64(h.DataSize) {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, &FormatError{Err: fmt.Errorf("cannot read %d bytes of pixels: %w", h.DataSize, err)}
	}
	return &Bitmap{Header: *h, Pixels: pixels}, nil
}

// Blank returns a 1x1 black bitmap.
func Blank() *Bitmap {
	return &Bitmap{
		Header: Header{
			Signature:       Signature,
			Size:            TotalSize(1, 1),
			PixelDataOffset: PixelDataOffset,
			DIBHeaderSize:   DIBHeaderSize,
			Width:           1,
			Height:          1,
			Planes:          Planes,
			BPP:             BPP,
			Compression:     NoCompression,
			DataSize:        PixelsSize(1, 1),
			PPMHoriz:        PPM72DPI,
			PPMVert:         PPM72DPI,
			PaletteColors:   NoPalette,
			ImportantColors: NoPalette,
		},
		// one black pixel and one byte of row padding
		Pixels: []byte{0x00, 0x00, 0x00, 0x00},
	}
}

// Len returns the number of bytes MarshalBinary produces.
func (b *Bitmap) Len() uint32 {
	return HeaderSize + uint32(len(b.Pixels))
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (b *Bitmap) MarshalBinary() ([]byte, error) {
	buf := uio.NewLittleEndianBuffer(make([]byte, 0, b.Len()))
	h := &b.Header
	buf.WriteBytes(h.Signature[:])
	buf.Write32(h.Size)
	buf.Write32(h.Reserved)
	buf.Write32(h.PixelDataOffset)
	buf.Write32(h.DIBHeaderSize)
	buf.Write32(h.Width)
	buf.Write32(h.Height)
	buf.Write16(h.Planes)
	buf.Write16(h.BPP)
	buf.Write32(h.Compression)
	buf.Write32(h.DataSize)
	buf.Write32(h.PPMHoriz)
	buf.Write32(h.PPMVert)
	buf.Write32(h.PaletteColors)
	buf.Write32(h.ImportantColors)
	buf.WriteBytes(b.Pixels)
	return buf.Data(), nil
}

// Summary prints a multi-line summary of the header's content.
func (h Header) Summary() string {
	var s strings.Builder
	fmt.Fprintf(&s, "Signature         : %q\n", h.Signature[:])
	fmt.Fprintf(&s, "File Size         : %d (%s)\n", h.Size, humanize.IBytes(uint64(h.Size)))
	fmt.Fprintf(&s, "Pixel Data Offset : %d\n", h.PixelDataOffset)
	fmt.Fprintf(&s, "DIB Header Size   : %d\n", h.DIBHeaderSize)
	fmt.Fprintf(&s, "Dimensions        : %dx%d\n", h.Width, h.Height)
	fmt.Fprintf(&s, "Planes            : %d\n", h.Planes)
	fmt.Fprintf(&s, "Bits Per Pixel    : %d\n", h.BPP)
	fmt.Fprintf(&s, "Compression       : %d\n", h.Compression)
	fmt.Fprintf(&s, "Data Size         : %d (%s)\n", h.DataSize, humanize.IBytes(uint64(h.DataSize)))
	fmt.Fprintf(&s, "Resolution (ppm)  : %dx%d\n", h.PPMHoriz, h.PPMVert)
	fmt.Fprintf(&s, "Palette Colors    : %d\n", h.PaletteColors)
	fmt.Fprintf(&s, "Important Colors  : %d\n", h.ImportantColors)
	return s.String()
}
