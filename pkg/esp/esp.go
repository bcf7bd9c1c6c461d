// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package esp reads files from an EFI system partition, either a directory
// on the host or a FAT file system inside a disk image.
package esp

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	diskfs "github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/disk"
	"github.com/diskfs/go-diskfs/filesystem"
)

// DefaultConfigPath is where the configuration file lives on the ESP.
const DefaultConfigPath = "/EFI/HackBGRT/config.txt"

// FS gives read access to the files of an ESP.
type FS interface {
	// Open opens the file at name, an absolute path using / or \ as
	// separator.
	Open(name string) (io.ReadCloser, error)
}

// Clean turns name into a rooted slash separated path.
func Clean(name string) string {
	return path.Clean("/" + strings.ReplaceAll(name, `\`, "/"))
}

// Dir is an ESP mounted or copied to a host directory.
type Dir string

// Open implements FS.
func (d Dir) Open(name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(string(d), filepath.FromSlash(Clean(name))))
}

// Image is the FAT file system of a partition in a disk image.
type Image struct {
	disk *disk.Disk
	fs   filesystem.FileSystem
}

// OpenImage opens partition of the disk image at imagePath. Partition 0
// means the image holds the file system without a partition table.
func OpenImage(imagePath string, partition int) (*Image, error) {
	d, err := diskfs.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("cannot open disk image '%s': %w", imagePath, err)
	}
	fs, err := d.GetFilesystem(partition)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("cannot read file system of partition %d of '%s': %w", partition, imagePath, err)
	}
	return &Image{disk: d, fs: fs}, nil
}

// Open implements FS.
func (img *Image) Open(name string) (io.ReadCloser, error) {
	f, err := img.fs.OpenFile(Clean(name), os.O_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("cannot open '%s': %w", name, err)
	}
	return f, nil
}

// Close closes the disk image.
func (img *Image) Close() error {
	return img.disk.Close()
}
