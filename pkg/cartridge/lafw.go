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
	"encoding/binary"
	"fmt"
	"math/bits"

	log "github.com/sirupsen/logrus"

	"github.com/blueyonder1234/cartdrive/pkg/platform"
)

// signed reader firmware blob, located by content scan in the
// privileged process data segment
const (
	lafwMagic = 0x4C414657 // "LAFW"

	lafwBlobLen    = 0x7800
	lafwOffMagic   = 0x100
	lafwOffType    = 0x104
	lafwOffVersion = 0x110

	// the version field occupies the low 62 bits, the device type the
	// top 2
	lafwVersionMask = 1<<62 - 1

	lafwTypeRead    = 0xFF
	lafwTypeReadDev = 0xFFFF
)

/*
	scanFirmwareVersion locates the installed reader firmware blob in a
	data segment snapshot of the privileged storage-management process
	and derives its version by popcounting the packed version bitfield.
	Development units carry the dev variant of the blob, selected via
	the type field.
*/
func scanFirmwareVersion(mem platform.Memory, devUnit bool) (uint64, error) {

	data, err := mem.DataSegment()
	if err != nil {
		return 0, fmt.Errorf("cannot retrieve data segment snapshot: %v", err)
	}

	variant := uint32(lafwTypeRead)
	if devUnit {
		variant = lafwTypeReadDev
	}

	for off := 0; off+lafwBlobLen <= len(data); off++ {

		if binary.BigEndian.Uint32(data[off+lafwOffMagic:]) != lafwMagic {
			continue
		}

		if binary.LittleEndian.Uint32(data[off+lafwOffType:]) != variant {
			continue
		}

		packed := binary.LittleEndian.Uint64(data[off+lafwOffVersion:])
		version := uint64(bits.OnesCount64(packed & lafwVersionMask))

		log.WithFields(log.Fields{
			"version": version, "offset": off}).Debug("reader firmware located")

		return version, nil
	}

	return 0, fmt.Errorf(
		"unable to locate reader firmware blob (dev unit: %v)", devUnit)
}
