// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgrt

import (
	"errors"

	"github.com/hashicorp/go-multierror"

	"github.com/linuxboot/hackbgrt/pkg/acpi"
	"github.com/linuxboot/hackbgrt/pkg/config"
	"github.com/linuxboot/hackbgrt/pkg/efi"
	"github.com/linuxboot/hackbgrt/pkg/log"
)

// HandleTables updates the XSDT of every valid ACPI 2.0 RSDP for action:
//
//   - Keep returns the address of the first BGRT without changing anything.
//   - Remove deletes all BGRT entries.
//   - Replace points all BGRT entries to bgrt. If an XSDT has none, a copy
//     with one more entry is allocated and linked into the RSDP.
//
// It returns the BGRT address found or used, 0 if none. Tables that fail
// validation are skipped. The returned error collects allocation failures;
// each one aborts the mutation of its XSDT only.
func (p *Patcher) HandleTables(action config.Action, bgrt uint64) (uint64, error) {
	var result *multierror.Error
	for _, rsdpAddr := range p.SystemTable.Find(efi.ACPI20TableGUID) {
		if err := p.handleRSDP(rsdpAddr, action, &bgrt); err != nil {
			log.Errorf("%v", err)
			result = multierror.Append(result, err)
		}
	}
	return bgrt, result.ErrorOrNil()
}

func (p *Patcher) handleRSDP(rsdpAddr uint64, action config.Action, bgrt *uint64) error {
	rsdp, err := acpi.ReadRSDP(p.Memory, rsdpAddr)
	if err == nil {
		err = rsdp.Check(rsdpAddr)
	}
	if err != nil {
		log.Warnf("skipping RSDP: %v", err)
		return nil
	}
	log.Debugf("RSDP at %#x: revision = %d, OEM ID = %s", rsdpAddr, rsdp.Revision(), rsdp.OEMID())

	xsdtAddr := rsdp.XSDTAddress()
	if xsdtAddr == 0 {
		log.Debugf("* XSDT: missing")
		return nil
	}
	table, err := acpi.ReadTable(p.Memory, xsdtAddr)
	if err != nil {
		log.Warnf("* XSDT: %v", err)
		return nil
	}
	if table.Signature() != acpi.XSDTSignature {
		log.Debugf("* XSDT: bad signature %q", table.Signature())
		return nil
	}
	if action == config.Keep && !acpi.Verify(table) {
		log.Debugf("* XSDT: bad checksum")
		return nil
	}
	xsdt := acpi.XSDT{Table: table}
	log.Debugf("* XSDT at %#x: OEM ID = %s, entry count = %d", xsdtAddr, xsdt.OEMID(), xsdt.Count())

	matches := 0
	for j := 0; j < xsdt.Count(); j++ {
		entryAddr := xsdt.Entry(j)
		sig, err := p.Memory.Bytes(entryAddr, 4)
		if err != nil {
			log.Warnf(" - entry %d at %#x: %v", j, entryAddr, err)
			continue
		}
		if string(sig) != acpi.BGRTSignature {
			continue
		}
		log.Debugf(" - ACPI table %s at %#x (entry %d)", sig, entryAddr, j)
		switch action {
		case config.Keep:
			if *bgrt == 0 {
				log.Debugf(" -> returning first BGRT")
				*bgrt = entryAddr
			}
		case config.Remove:
			log.Debugf(" -> deleting BGRT (entry %d)", j)
			xsdt.Remove(j)
			j--
		case config.Replace:
			log.Debugf(" -> replacing BGRT (entry %d)", j)
			xsdt.SetEntry(j, *bgrt)
		}
		matches++
	}

	if action == config.Keep {
		return nil
	}
	if matches == 0 && action == config.Replace && *bgrt != 0 {
		log.Debugf(" - adding missing BGRT")
		grown, err := p.growXSDT(xsdt)
		if err != nil {
			return err
		}
		grown.SetEntry(grown.Count()-1, *bgrt)
		rsdp.SetXSDTAddress(grown.addr)
		acpi.FinalizeRSDP(rsdp)
		xsdt = grown.XSDT
	}
	acpi.Finalize(xsdt.Table)
	return nil
}

type allocatedXSDT struct {
	acpi.XSDT
	addr uint64
}

// growXSDT copies xsdt into a new allocation with room for one more entry.
func (p *Patcher) growXSDT(xsdt acpi.XSDT) (allocatedXSDT, error) {
	size := acpi.XSDTSize(xsdt.Count() + 1)
	addr, err := p.Memory.Allocate(efi.ACPIReclaimMemory, size)
	if err != nil {
		return allocatedXSDT{}, &efi.ResourceError{What: "XSDT", Size: size, Err: err}
	}
	buf, err := p.Memory.Bytes(addr, size)
	if err != nil {
		return allocatedXSDT{}, &efi.ResourceError{What: "XSDT", Size: size, Err: err}
	}
	return allocatedXSDT{XSDT: xsdt.CopyTo(buf), addr: addr}, nil
}

// IsResourceError reports whether err contains an allocation failure.
func IsResourceError(err error) bool {
	var re *efi.ResourceError
	return errors.As(err, &re)
}
