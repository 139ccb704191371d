/*
   CartDrive - game cartridge bridge daemon
   Copyright (c) 2026, the CartDrive authors

   This file is part of CartDrive.

   CartDrive is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   CartDrive is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with CartDrive. If not, see <http://www.gnu.org/licenses/>.
*/

package cartridge

import (
	"bytes"
	"testing"

	"github.com/blueyonder1234/cartdrive/pkg/hashfs"
	"github.com/blueyonder1234/cartdrive/pkg/platform"
)

// the storage reader must behave as if the two areas were one flat
// byte-addressable space identical to the source image
func TestReadStorage(t *testing.T) {

	img := buildTestImage(t, testInstalledFw-1)
	c, _ := newTestCartridge(t, img, platform.FirmwareStock)
	loadNow(c)

	cases := []struct {
		name string
		off  uint64
		size int
	}{
		{"aligned", 0x400, 0x600},
		{"aligned whole normal area", 0, testBoundary},
		{"unaligned offset", 0x123, 0x200},
		{"unaligned size", 0x400, 0x1F3},
		{"unaligned both", 0x7FF, 0x3},
		{"single byte", 0x8001, 1},
		{"secure area aligned", testBoundary + 0x200, 0x200},
		{"secure area unaligned", testBoundary + 0x77, 0x99},
		{"area straddle aligned", testBoundary - 0x200, 0x400},
		{"area straddle unaligned", testBoundary - 0x33, 0x66},
		{"up to image end", testImageSize - 0x191, 0x191},
	}

	for _, tc := range cases {
		out := make([]byte, tc.size)
		if err := c.ReadStorage(out, int64(tc.off)); err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		if !bytes.Equal(out, img[tc.off:tc.off+uint64(tc.size)]) {
			t.Errorf("%s: read data does not match image", tc.name)
		}
	}
}

func TestReadStorageInvalid(t *testing.T) {

	c, _ := newTestCartridge(t,
		buildTestImage(t, testInstalledFw-1), platform.FirmwareStock)
	loadNow(c)

	cases := []struct {
		name string
		off  int64
		size int
	}{
		{"zero length", 0, 0},
		{"beyond end", testImageSize - 0x10, 0x11},
		{"far beyond end", testImageSize * 2, 0x200},
		{"negative offset", -1, 0x10},
	}

	for _, tc := range cases {
		if err := c.ReadStorage(make([]byte, tc.size), tc.off); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

// an unaligned read whose enclosing page block exceeds the scratch
// buffer is served in scratch-sized chunks
func TestReadStorageLargeUnaligned(t *testing.T) {

	const boundary = 0x1000

	img := make([]byte, boundary+ReadBufferSize+0x20000)
	for i := range img {
		img[i] = byte(i*31 + 7)
	}

	dev := newMemDevice(img)
	dev.boundary = boundary

	c := &Cartridge{
		dev:        dev,
		readBuf:    make([]byte, ReadBufferSize),
		status:     StatusLoaded,
		normalSize: boundary,
		secureSize: uint64(len(img)) - boundary,
		totalSize:  uint64(len(img)),
	}

	off := int64(boundary + 0x33)
	out := make([]byte, ReadBufferSize+0x10055)

	if err := c.ReadStorage(out, off); err != nil {
		t.Fatalf("ReadStorage: %v", err)
	}
	if !bytes.Equal(out, img[off:int(off)+len(out)]) {
		t.Error("large unaligned read does not match image")
	}
}

func TestReadStorageNotLoaded(t *testing.T) {

	c, dev := newTestCartridge(t,
		buildTestImage(t, testInstalledFw-1), platform.FirmwareStock)
	dev.inserted = false

	if err := c.ReadStorage(make([]byte, PageSize), 0); err == nil {
		t.Error("expected error without loaded cartridge")
	}
}

func TestFileSystemRead(t *testing.T) {

	img := buildTestImage(t, testInstalledFw-1)
	c, _ := newTestCartridge(t, img, platform.FirmwareStock)
	loadNow(c)

	fs, err := c.FileSystem(hashfs.TypeSecure)
	if err != nil {
		t.Fatalf("FileSystem: %v", err)
	}

	e, err := fs.EntryByName("data.bin")
	if err != nil {
		t.Fatalf("EntryByName: %v", err)
	}

	out := make([]byte, 0x100)
	if err := fs.ReadEntryData(e, out, 0x33); err != nil {
		t.Fatalf("ReadEntryData: %v", err)
	}

	start := uint64(testBoundary) + 0x200 + 0x33
	if !bytes.Equal(out, img[start:start+0x100]) {
		t.Error("entry data does not match image")
	}

	if err := fs.ReadEntryData(e, make([]byte, 0x10),
		int64(e.Size)-0xF); err == nil {
		t.Error("expected error for read beyond entry end")
	}
}
