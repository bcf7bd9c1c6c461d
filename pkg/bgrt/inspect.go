// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgrt

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/linuxboot/hackbgrt/pkg/acpi"
	"github.com/linuxboot/hackbgrt/pkg/efi"
)

// EntryInfo describes an XSDT entry.
type EntryInfo struct {
	Index      int
	Addr       uint64
	Signature  string
	Length     uint32
	ChecksumOK bool
	Err        error
}

// RootInfo describes an ACPI 2.0 RSDP and the tables it leads to.
type RootInfo struct {
	Addr       uint64
	Err        error
	Revision   uint8
	OEMID      string
	XSDTAddr   uint64
	XSDTHeader *acpi.Header
	XSDTValid  bool
	Entries    []EntryInfo
}

// Inspect walks the tables without changing them. Unlike HandleTables it
// reports broken tables instead of skipping them.
func (p *Patcher) Inspect() []RootInfo {
	var roots []RootInfo
	for _, addr := range p.SystemTable.Find(efi.ACPI20TableGUID) {
		root := RootInfo{Addr: addr}
		roots = append(roots, p.inspectRoot(root))
	}
	return roots
}

func (p *Patcher) inspectRoot(root RootInfo) RootInfo {
	rsdp, err := acpi.ReadRSDP(p.Memory, root.Addr)
	if err != nil {
		root.Err = err
		return root
	}
	root.Revision, root.OEMID = rsdp.Revision(), rsdp.OEMID()
	if root.Err = rsdp.Check(root.Addr); root.Err != nil {
		return root
	}
	root.XSDTAddr = rsdp.XSDTAddress()
	t, err := acpi.ReadTable(p.Memory, root.XSDTAddr)
	if err != nil {
		root.Err = err
		return root
	}
	if root.XSDTHeader, err = t.Header(); err != nil {
		root.Err = err
		return root
	}
	root.XSDTValid = acpi.Verify(t)
	xsdt := acpi.XSDT{Table: t}
	for i, entryAddr := range xsdt.Entries() {
		e := EntryInfo{Index: i, Addr: entryAddr}
		if et, err := acpi.ReadTable(p.Memory, entryAddr); err != nil {
			e.Err = err
		} else {
			e.Signature, e.Length, e.ChecksumOK = et.Signature(), et.Length(), acpi.Verify(et)
		}
		root.Entries = append(root.Entries, e)
	}
	return root
}

// BGRTs returns the BGRT views referenced by the inspected XSDTs.
func (p *Patcher) BGRTs(roots []RootInfo) []acpi.BGRT {
	var tables []acpi.BGRT
	for _, root := range roots {
		for _, e := range root.Entries {
			if e.Signature != acpi.BGRTSignature {
				continue
			}
			if b, err := acpi.ReadBGRT(p.Memory, e.Addr); err == nil {
				tables = append(tables, b)
			}
		}
	}
	return tables
}

// OutputTables prints the inspected tables in an ASCII table format.
func OutputTables(w io.Writer, roots []RootInfo) {
	for _, root := range roots {
		h := table.NewWriter()
		h.SetOutputMirror(w)
		h.SetTitle("RSDP at %#x", root.Addr)
		h.AppendHeader(table.Row{"Revision", "OEM ID", "XSDT", "XSDT Checksum", "Status"})
		status := "ok"
		if root.Err != nil {
			status = root.Err.Error()
		}
		h.AppendRow(table.Row{root.Revision, root.OEMID, fmt.Sprintf("%#x", root.XSDTAddr), checkMark(root.XSDTValid), status})
		h.Render()

		if len(root.Entries) == 0 {
			continue
		}
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetTitle("XSDT entries")
		t.AppendHeader(table.Row{"#", "Signature", "Address", "Length", "Checksum"})
		for _, e := range root.Entries {
			if e.Err != nil {
				t.AppendRow(table.Row{e.Index, "", fmt.Sprintf("%#x", e.Addr), "", e.Err.Error()})
				continue
			}
			t.AppendRow(table.Row{
				e.Index,
				e.Signature,
				fmt.Sprintf("%#x", e.Addr),
				humanize.IBytes(uint64(e.Length)),
				checkMark(e.ChecksumOK),
			})
		}
		t.Render()
	}
}

func checkMark(ok bool) string {
	if ok {
		return "valid"
	}
	return "INVALID"
}
