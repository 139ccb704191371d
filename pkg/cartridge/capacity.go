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

import "fmt"

// geometry codes from the cartridge header
const (
	RomSize1GiB  = 0xFA
	RomSize2GiB  = 0xF8
	RomSize4GiB  = 0xF0
	RomSize8GiB  = 0xE0
	RomSize16GiB = 0xE1
	RomSize32GiB = 0xE2
)

/*
	CapacityFromRomSize maps the header's geometry code to the raw byte
	capacity of the cartridge. Unrecognized codes are a hard error,
	there is no default capacity.
*/
func CapacityFromRomSize(code byte) (uint64, error) {
	switch code {
	case RomSize1GiB:
		return 1 << 30, nil
	case RomSize2GiB:
		return 1 << 31, nil
	case RomSize4GiB:
		return 1 << 32, nil
	case RomSize8GiB:
		return 1 << 33, nil
	case RomSize16GiB:
		return 1 << 34, nil
	case RomSize32GiB:
		return 1 << 35, nil
	}
	return 0, fmt.Errorf("invalid cartridge capacity code: 0x%02X", code)
}
