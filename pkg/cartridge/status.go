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

// Status is the slot state as seen by clients. There is exactly one
// status per cartridge context, and all transitions happen under the
// context lock.
type Status byte

const (
	// no cartridge present
	StatusNotInserted Status = iota

	// cartridge present, info not (yet) loaded
	StatusNotLoaded

	// cartridge present, header, geometry & partitions loaded
	StatusLoaded

	// cartridge demands a newer reader firmware than the installed one
	StatusFirmwareUpdateRequired

	// cartridge access is disabled on this system
	StatusAccessRestricted
)

//
func (s Status) String() string {
	switch s {
	case StatusNotInserted:
		return "not inserted"
	case StatusNotLoaded:
		return "inserted, not loaded"
	case StatusLoaded:
		return "inserted, loaded"
	case StatusFirmwareUpdateRequired:
		return "firmware update required"
	case StatusAccessRestricted:
		return "access restricted"
	}
	return "unknown"
}
