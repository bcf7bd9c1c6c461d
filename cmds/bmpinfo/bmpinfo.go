// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// bmpinfo checks whether bitmaps can be shown through the BGRT and prints
// their headers.
//
// Synopsis:
//     bmpinfo [-q] FILE...
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/linuxboot/hackbgrt/pkg/bmp"
	"github.com/linuxboot/hackbgrt/pkg/log"
)

var (
	quiet = flag.BoolP("quiet", "q", false, "only report invalid files")
	blank = flag.Bool("blank", false, "print the header of the blank placeholder image")
)

func check(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := bmp.Load(f)
	if err != nil {
		return err
	}
	if !*quiet {
		fmt.Printf("%s:\n%s", path, b.Summary())
	}
	return nil
}

func main() {
	flag.Parse()

	if *blank {
		fmt.Print(bmp.Blank().Summary())
		return
	}
	a := flag.Args()
	if len(a) == 0 {
		log.Fatalf("Usage: bmpinfo [-q] <bmp-file>...")
	}

	failed := false
	for _, path := range a {
		if err := check(path); err != nil {
			log.Errorf("%s: %v", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}
