// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package patch

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"

	"github.com/linuxboot/hackbgrt/cmds/hackbgrt/commands"
	"github.com/linuxboot/hackbgrt/pkg/bgrt"
	"github.com/linuxboot/hackbgrt/pkg/efi"
	"github.com/linuxboot/hackbgrt/pkg/log"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	commands.Machine `group:"Memory image"`
	commands.Source  `group:"Configuration"`

	Display string `short:"d" long:"display" description:"resolution of the current video mode as WIDTHxHEIGHT, used to center the image"`
	NoPause bool   `long:"no-pause" description:"do not wait after reporting a failure"`
	DryRun  bool   `short:"n" long:"dry-run" description:"patch a private copy of the memory image and print the result"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "applies the configuration to the BGRT of a memory image"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Resolves the configuration file (or the --param directives), then keeps,
replaces or removes the BGRT referenced by the XSDT of every given RSDP.
New tables and bitmaps are allocated in the area starting at --heap.`
}

// ParseDisplay parses a WIDTHxHEIGHT resolution.
func ParseDisplay(s string) (efi.FixedDisplay, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return efi.FixedDisplay{}, fmt.Errorf("resolution '%s' is not WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return efi.FixedDisplay{}, fmt.Errorf("invalid width in '%s': %w", s, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return efi.FixedDisplay{}, fmt.Errorf("invalid height in '%s': %w", s, err)
	}
	return efi.FixedDisplay{Width: width, Height: height}, nil
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if err := commands.NoArgs(args); err != nil {
		return err
	}
	if cmd.Heap == 0 {
		return commands.ErrArgs{Err: fmt.Errorf("--heap is required to patch")}
	}

	var display efi.Display
	if cmd.Display != "" {
		d, err := ParseDisplay(cmd.Display)
		if err != nil {
			return commands.ErrArgs{Err: err}
		}
		display = d
	}

	fs, closer, err := cmd.OpenESP()
	if err != nil {
		return err
	}
	defer closer.Close()

	cfg, err := cmd.Resolve(fs)
	if err != nil {
		return err
	}

	mem, err := cmd.Open(cmd.DryRun)
	if err != nil {
		return err
	}
	defer mem.Close()

	p := &bgrt.Patcher{
		Memory:      mem,
		SystemTable: cmd.SystemTable(),
		Display:     display,
		FS:          fs,
		Stall:       time.Sleep,
	}
	if cmd.NoPause {
		p.Stall = nil
	}

	// the tables are consistent even when Patch fails, so save regardless
	var result *multierror.Error
	if err := p.Patch(cfg); err != nil {
		result = multierror.Append(result, err)
	}
	for _, a := range mem.Allocations() {
		log.Infof("allocated %s at %#x for %s", humanize.IBytes(uint64(a.Size)), a.Addr, a.Type)
	}
	log.Debugf("heap used: %s", humanize.IBytes(mem.HeapUsed()))
	if cmd.DryRun {
		bgrt.OutputTables(os.Stdout, p.Inspect())
		return result.ErrorOrNil()
	}
	if err := mem.Save(); err != nil {
		result = multierror.Append(result, fmt.Errorf("unable to save the memory image: %w", err))
	}
	return result.ErrorOrNil()
}
