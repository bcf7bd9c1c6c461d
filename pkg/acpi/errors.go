// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acpi

import "fmt"

// IntegrityError is returned when a table cannot be trusted: it is out of
// memory, has the wrong signature or a bad checksum.
type IntegrityError struct {
	Addr      uint64
	Signature string
	Reason    string
	Err       error
}

func (e *IntegrityError) Error() string {
	sig := e.Signature
	if sig == "" {
		sig = "table"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s at %#x: %s: %v", sig, e.Addr, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s at %#x: %s", sig, e.Addr, e.Reason)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}
