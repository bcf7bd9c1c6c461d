// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// hackbgrt changes the boot logo advertised by the firmware through the ACPI
// BGRT of a physical memory image.
//
// Synopsis:
//     hackbgrt patch -m MEMORY_IMAGE -r RSDP_ADDR --heap OFFSET [options]
//     hackbgrt show -m MEMORY_IMAGE -r RSDP_ADDR [options]
//     hackbgrt resolve [--esp DIR | --esp-image IMAGE] [options]
//
// An example:
//     hackbgrt resolve --esp /boot/efi
//     hackbgrt patch -m mem.bin --base 0x7f000000 --heap 0x100000 -r 0x7f000000 --esp /boot/efi -d 1920x1080
//     hackbgrt patch -m mem.bin.zst --heap 0x100000 -r 0x0 -p image=/EFI/HackBGRT/splash.bmp,x=0,y=0 --esp /boot/efi
//     hackbgrt show -m mem.bin --base 0x7f000000 -r 0x7f000000
//
// Description:
//     patch:   Keep, replace or remove the BGRT as configured
//     show:    Print the XSDT entries, the BGRT and its bitmap
//     resolve: Print the configuration picked from the directives
package main

import (
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/linuxboot/hackbgrt/cmds/hackbgrt/commands"
	"github.com/linuxboot/hackbgrt/cmds/hackbgrt/commands/patch"
	"github.com/linuxboot/hackbgrt/cmds/hackbgrt/commands/resolve"
	"github.com/linuxboot/hackbgrt/cmds/hackbgrt/commands/show"
	"github.com/linuxboot/hackbgrt/pkg/log"
)

var (
	knownCommands = map[string]commands.Command{
		"patch":   &patch.Command{},
		"show":    &show.Command{},
		"resolve": &resolve.Command{},
	}
)

var globalOptions struct {
	Verbose bool `short:"v" long:"verbose" description:"print debug messages"`
}

func main() {
	flagsParser := flags.NewParser(&globalOptions, flags.Default)
	for commandName, command := range knownCommands {
		_, err := flagsParser.AddCommand(commandName, command.ShortDescription(), command.LongDescription(), command)
		if err != nil {
			panic(err)
		}
	}
	flagsParser.CommandHandler = func(command flags.Commander, args []string) error {
		log.Verbose = globalOptions.Verbose
		return command.Execute(args)
	}

	// parse arguments and execute the appropriate command
	if _, err := flagsParser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		log.Fatalf("%v", err)
	}
}
