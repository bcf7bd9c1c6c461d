// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package efi

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// GUIDSize is the number of bytes in a GUID.
const GUIDSize = 16

// GUID is the mixed-endian GUID used to tag EFI configuration tables.
type GUID [GUIDSize]byte

// The first three groups are stored little-endian, the rest byte by byte.
var guidFields = [...]int{4, 2, 2, 1, 1, 1, 1, 1, 1, 1, 1}

func reverse(b []byte) {
	for i := 0; i < len(b)/2; i++ {
		other := len(b) - i - 1
		b[other], b[i] = b[i], b[other]
	}
}

// ParseGUID parses a GUID in registry format,
// e.g. 8868E871-E4F1-11D3-BC22-0080C73C8881.
func ParseGUID(s string) (GUID, error) {
	var g GUID
	decoded, err := hex.DecodeString(strings.ReplaceAll(s, "-", ""))
	if err != nil || len(decoded) != GUIDSize {
		return g, fmt.Errorf("malformed GUID %q", s)
	}
	copy(g[:], decoded)
	i := 0
	for _, l := range guidFields {
		reverse(g[i : i+l])
		i += l
	}
	return g, nil
}

// MustParseGUID parses a GUID or panics. Only use it for constants.
func MustParseGUID(s string) GUID {
	g, err := ParseGUID(s)
	if err != nil {
		panic(err)
	}
	return g
}

func (g GUID) String() string {
	i := 0
	for _, l := range guidFields {
		reverse(g[i : i+l])
		i += l
	}
	return strings.ToUpper(fmt.Sprintf("%x-%x-%x-%x-%x", g[0:4], g[4:6], g[6:8], g[8:10], g[10:16]))
}

// Well-known configuration table GUIDs.
var (
	ACPI20TableGUID = MustParseGUID("8868E871-E4F1-11D3-BC22-0080C73C8881")
	ACPITableGUID   = MustParseGUID("EB9D2D30-2D88-11D3-9A16-0090273FC14D")
)
