// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package show

import (
	"fmt"
	"os"

	"github.com/xaionaro-go/bytesextra"

	"github.com/linuxboot/hackbgrt/cmds/hackbgrt/commands"
	"github.com/linuxboot/hackbgrt/pkg/bgrt"
	"github.com/linuxboot/hackbgrt/pkg/bmp"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	commands.Machine `group:"Memory image"`

	Quiet bool `short:"q" long:"quiet" description:"only print the BGRT, not the XSDT entries"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "prints the XSDT entries and the BGRT of a memory image"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return ""
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if err := commands.NoArgs(args); err != nil {
		return err
	}

	mem, err := cmd.Open(true)
	if err != nil {
		return err
	}
	defer mem.Close()

	p := &bgrt.Patcher{Memory: mem, SystemTable: cmd.SystemTable()}
	roots := p.Inspect()
	if !cmd.Quiet {
		bgrt.OutputTables(os.Stdout, roots)
	}

	tables := p.BGRTs(roots)
	if len(tables) == 0 {
		fmt.Println("no BGRT")
		return nil
	}
	for _, t := range tables {
		h, err := t.Header()
		if err != nil {
			return err
		}
		fmt.Printf("%s%s", h.Summary(), t.Summary())

		buf, err := mem.Bytes(t.ImageAddress(), bmp.HeaderSize)
		if err != nil {
			fmt.Printf("image: %v\n", err)
			continue
		}
		bh, err := bmp.ReadHeader(bytesextra.NewReadWriteSeeker(buf))
		if err != nil {
			fmt.Printf("image: %v\n", err)
			continue
		}
		fmt.Print(bh.Summary())
		if err := bh.Validate(); err != nil {
			fmt.Printf("image: %v\n", err)
		}
	}
	return nil
}
