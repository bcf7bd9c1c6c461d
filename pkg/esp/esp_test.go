// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package esp

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	for in, want := range map[string]string{
		"/EFI/HackBGRT/splash.bmp":   "/EFI/HackBGRT/splash.bmp",
		`\EFI\HackBGRT\splash.bmp`:   "/EFI/HackBGRT/splash.bmp",
		"EFI/../../splash.bmp":       "/splash.bmp",
		"//EFI//HackBGRT/config.txt": "/EFI/HackBGRT/config.txt",
	} {
		require.Equal(t, want, Clean(in), in)
	}
}

func TestDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "EFI", "HackBGRT"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "EFI", "HackBGRT", "config.txt"), []byte("image= keep\n"), 0o644))

	f, err := Dir(root).Open(`\EFI\HackBGRT\config.txt`)
	require.NoError(t, err)
	defer f.Close()
	b, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, "image= keep\n", string(b))

	_, err = Dir(root).Open("/../missing.bmp")
	require.Error(t, err)
}
