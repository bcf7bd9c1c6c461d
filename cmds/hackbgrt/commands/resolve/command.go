// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"fmt"

	"github.com/linuxboot/hackbgrt/cmds/hackbgrt/commands"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	commands.Source `group:"Configuration"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "prints the configuration selected from the directives"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Every valid image directive is a candidate, one of them is picked at
random according to its weight. Use --random to make the choice
reproducible.`
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if err := commands.NoArgs(args); err != nil {
		return err
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
	fmt.Printf("action:     %s\n", cfg.Action)
	if cfg.ImagePath != "" {
		fmt.Printf("image:      %s\n", cfg.ImagePath)
	}
	fmt.Printf("x:          %s\n", cfg.X)
	fmt.Printf("y:          %s\n", cfg.Y)
	if cfg.ResolutionX != 0 || cfg.ResolutionY != 0 {
		fmt.Printf("resolution: %dx%d\n", cfg.ResolutionX, cfg.ResolutionY)
	}
	return nil
}
