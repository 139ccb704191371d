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

package slot

import (
	"fmt"
	"os"

	"github.com/blueyonder1234/cartdrive/pkg/cartridge"
	"github.com/blueyonder1234/cartdrive/pkg/hashfs"
)

/*
	secureAreaOffset derives the normal/secure area split of a raw
	cartridge image. An image file is one flat dump of both areas, but
	the transport contract exposes them as separate storage areas with
	independent sizes, so the split has to be recovered from the image
	itself: the secure area begins exactly at the secure partition's
	data, which the root partition's entry table locates.
*/
func secureAreaOffset(f *os.File) (int64, error) {

	raw := make([]byte, cartridge.HeaderLen)
	if _, err := f.ReadAt(raw, 0); err != nil {
		return 0, fmt.Errorf("cannot read image header: %v", err)
	}

	hdr, err := cartridge.ParseHeader(raw)
	if err != nil {
		return 0, err
	}

	partial := make([]byte, hashfs.HeaderLen)
	if _, err := f.ReadAt(partial, int64(hdr.RootFsAddress)); err != nil {
		return 0, fmt.Errorf("cannot read root partition header: %v", err)
	}

	rootHdr, err := hashfs.ParseHeader(partial)
	if err != nil {
		return 0, err
	}

	headerSize := hashfs.HeaderSize(rootHdr.EntryCount, rootHdr.NameTableSize)
	headerSize = (headerSize + cartridge.PageSize - 1) &^ (cartridge.PageSize - 1)

	// the header size comes from untrusted count fields; bound it
	// against the image before allocating anything of that size
	fi, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("cannot stat image: %v", err)
	}
	if hdr.RootFsAddress >= uint64(fi.Size()) ||
		headerSize > uint64(fi.Size())-hdr.RootFsAddress {
		return 0, fmt.Errorf(
			"root partition header of 0x%X bytes exceeds image at offset 0x%X",
			headerSize, hdr.RootFsAddress)
	}

	full := make([]byte, headerSize)
	if _, err := f.ReadAt(full, int64(hdr.RootFsAddress)); err != nil {
		return 0, fmt.Errorf("cannot read root partition header: %v", err)
	}

	root, err := hashfs.NewPartition(hashfs.TypeRoot.String(), hashfs.TypeRoot,
		hdr.RootFsAddress, 0, headerSize, full)
	if err != nil {
		return 0, err
	}

	secure, err := root.EntryByName(hashfs.TypeSecure.String())
	if err != nil {
		return 0, fmt.Errorf("image has no secure partition: %v", err)
	}

	return int64(root.DataOffset(secure)), nil
}
