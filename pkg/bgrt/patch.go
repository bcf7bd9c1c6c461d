// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bgrt replaces, keeps or removes the boot graphics advertised to
// the operating system through the ACPI BGRT.
package bgrt

import (
	"fmt"
	"math"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/bytesextra"

	"github.com/linuxboot/hackbgrt/pkg/acpi"
	"github.com/linuxboot/hackbgrt/pkg/bmp"
	"github.com/linuxboot/hackbgrt/pkg/config"
	"github.com/linuxboot/hackbgrt/pkg/efi"
	"github.com/linuxboot/hackbgrt/pkg/esp"
	"github.com/linuxboot/hackbgrt/pkg/log"
)

// ErrorPause is how long Patcher.Stall is asked to wait after a failure so
// that the message can be read on the console.
const ErrorPause = time.Second

// Patcher applies a resolved configuration to the firmware tables.
type Patcher struct {
	Memory      efi.Memory
	SystemTable *efi.SystemTable
	// Display is used to center the image. It may be nil.
	Display efi.Display
	// FS holds the images referenced by the configuration. It may be nil
	// when only the blank image is used.
	FS esp.FS
	// Stall is called after a failure is reported. It may be nil.
	Stall func(time.Duration)
}

func (p *Patcher) pause() {
	if p.Stall != nil {
		p.Stall(ErrorPause)
	}
}

// image is a bitmap placed in firmware memory.
type image struct {
	addr          uint64
	width, height int
	// sized is false when the header of the bitmap could not be read.
	sized bool
}

// Patch applies cfg. Failures to load the image or to allocate memory are
// logged and degrade to fewer changes, down to removing the BGRT; they are
// also returned. The tables are consistent in every case.
func (p *Patcher) Patch(cfg *config.Config) error {
	if cfg.Action == config.Remove {
		log.Debugf("removing old BGRT")
		_, err := p.HandleTables(config.Remove, 0)
		return err
	}

	var result *multierror.Error
	log.Debugf("looking up old BGRT")
	bgrtAddr, err := p.HandleTables(config.Keep, 0)
	if err != nil {
		result = multierror.Append(result, err)
	}

	var (
		old          *image
		oldX, oldY   int
		table        acpi.BGRT
		tableErr     error
		haveOldTable = bgrtAddr != 0
	)
	if haveOldTable {
		table, tableErr = acpi.ReadBGRT(p.Memory, bgrtAddr)
		if tableErr != nil {
			log.Warnf("old BGRT is unusable: %v", tableErr)
			haveOldTable = false
		} else if acpi.Verify(table.Table) {
			log.Debugf("old BGRT: image at %#x, position (%d, %d)", table.ImageAddress(), table.ImageOffsetX(), table.ImageOffsetY())
			oldX, oldY = int(table.ImageOffsetX()), int(table.ImageOffsetY())
			if addr := table.ImageAddress(); addr != 0 {
				old = p.imageAt(addr)
			}
		} else {
			log.Warnf("old BGRT at %#x has a bad checksum, ignoring its image", bgrtAddr)
		}
	}

	if !haveOldTable {
		if cfg.Action == config.Keep {
			log.Debugf("no BGRT to keep")
			return result.ErrorOrNil()
		}
		log.Debugf("allocating new BGRT because there was no old one")
		bgrtAddr, table, err = p.allocateBGRT()
		if err != nil {
			log.Errorf("%v", err)
			p.pause()
			return multierror.Append(result, err).ErrorOrNil()
		}
	}

	table.Init()
	acpi.Finalize(table.Table)

	img := old
	if cfg.Action == config.Replace {
		img, err = p.loadImage(cfg.ImagePath)
		if err != nil {
			log.Errorf("%v", err)
			p.pause()
			result = multierror.Append(result, err)
		}
	}
	if img == nil {
		log.Debugf("no bitmap, no need for BGRT")
		if _, err := p.HandleTables(config.Remove, 0); err != nil {
			result = multierror.Append(result, err)
		}
		return result.ErrorOrNil()
	}
	table.SetImageAddress(img.addr)

	autoX, autoY := 0, 0
	if w, h, ok := p.resolution(); ok {
		log.Debugf("computing position from the %dx%d video mode", w, h)
		autoX = max0((w - img.width) / 2)
		autoY = max0((h*2/3 - img.height) / 2)
	} else if old != nil {
		log.Debugf("computing position from the old bitmap")
		oldWidth, oldHeight := old.width, old.height
		if !old.sized {
			oldWidth, oldHeight = img.width, img.height
		}
		autoX = max0(oldX + (oldWidth-img.width)/2)
		autoY = max0(oldY + (oldHeight-img.height)/2)
	}
	x := selectCoordinate(cfg.X, autoX, oldX)
	y := selectCoordinate(cfg.Y, autoY, oldY)
	table.SetImageOffsetX(uint32(x))
	table.SetImageOffsetY(uint32(y))
	acpi.Finalize(table.Table)

	log.Debugf("storing BGRT at %#x: image %#x at (%d, %d)", bgrtAddr, img.addr, x, y)
	if _, err := p.HandleTables(config.Replace, bgrtAddr); err != nil {
		if IsResourceError(err) {
			p.pause()
		}
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// selectCoordinate picks the configured value, the automatic one or the
// native one.
func selectCoordinate(value config.Coordinate, automatic, native int) int {
	switch value {
	case config.CoordAuto:
		return automatic
	case config.CoordNative:
		return native
	}
	return int(value)
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func (p *Patcher) resolution() (int, int, bool) {
	if p.Display == nil {
		return 0, 0, false
	}
	return p.Display.Resolution()
}

func (p *Patcher) allocateBGRT() (uint64, acpi.BGRT, error) {
	addr, err := p.Memory.Allocate(efi.ACPIReclaimMemory, acpi.BGRTSize)
	if err != nil {
		return 0, acpi.BGRT{}, &efi.ResourceError{What: "BGRT", Size: acpi.BGRTSize, Err: err}
	}
	buf, err := p.Memory.Bytes(addr, acpi.BGRTSize)
	if err != nil {
		return 0, acpi.BGRT{}, &efi.ResourceError{What: "BGRT", Size: acpi.BGRTSize, Err: err}
	}
	return addr, acpi.BGRT{Table: acpi.Table(buf)}, nil
}

// imageAt describes the bitmap the firmware placed at addr. The size is
// unknown (0x0) if its header cannot be read.
func (p *Patcher) imageAt(addr uint64) *image {
	img := &image{addr: addr}
	buf, err := p.Memory.Bytes(addr, bmp.HeaderSize)
	if err == nil {
		var h *bmp.Header
		if h, err = bmp.ReadHeader(bytesextra.NewReadWriteSeeker(buf)); err == nil {
			img.width, img.height, img.sized = int(h.Width), int(h.Height), true
			return img
		}
	}
	log.Warnf("cannot read the header of the old bitmap at %#x: %v", addr, err)
	return img
}

// loadImage loads the bitmap at path, or the blank one if path is empty,
// and copies it to firmware memory.
func (p *Patcher) loadImage(path string) (*image, error) {
	var b *bmp.Bitmap
	if path == "" {
		b = bmp.Blank()
	} else {
		log.Debugf("loading %s", path)
		if p.FS == nil {
			return nil, fmt.Errorf("cannot load BMP (%s): no file system", path)
		}
		f, err := p.FS.Open(path)
		if err != nil {
			return nil, fmt.Errorf("cannot load BMP (%s): %w", path, err)
		}
		b, err = bmp.Load(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("cannot load BMP (%s): %w", path, err)
		}
	}

	data, err := b.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) > math.MaxUint32 {
		return nil, fmt.Errorf("cannot load BMP (%s): %d bytes do not fit in memory", path, len(data))
	}
	size := uint32(len(data))
	addr, err := p.Memory.Allocate(efi.BootServicesData, size)
	if err != nil {
		return nil, &efi.ResourceError{What: "BMP", Size: size, Err: err}
	}
	buf, err := p.Memory.Bytes(addr, size)
	if err != nil {
		return nil, &efi.ResourceError{What: "BMP", Size: size, Err: err}
	}
	copy(buf, data)
	log.Debugf("bitmap %dx%d placed at %#x", b.Width, b.Height, addr)
	return &image{addr: addr, width: int(b.Width), height: int(b.Height), sized: true}, nil
}
