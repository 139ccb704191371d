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

package platform

// FirmwareType describes the system firmware flavor the daemon runs
// under. Under FirmwareBypass, the secure area size reported by the
// transport is untrustworthy and has to be recomputed from the
// cartridge capacity.
type FirmwareType int

const (
	FirmwareStock FirmwareType = iota
	FirmwareCustom
	FirmwareBypass
)

//
func (t FirmwareType) String() string {
	switch t {
	case FirmwareCustom:
		return "custom"
	case FirmwareBypass:
		return "bypass"
	}
	return "stock"
}

// Platform reports immutable properties of the host system.
type Platform interface {

	// DevelopmentUnit reports whether this is a development unit. It
	// selects the firmware blob variant looked for in privileged
	// process memory.
	DevelopmentUnit() bool

	// Firmware returns the active system firmware flavor.
	Firmware() FirmwareType
}

// Memory takes snapshots of the privileged storage-management
// process's memory. Snapshots are consumed by content scans only, no
// fixed-offset structure access happens on them.
type Memory interface {

	// DataSegment returns a snapshot of the process's data segment.
	DataSegment() ([]byte, error)

	// Full returns a full memory snapshot of the process.
	Full() ([]byte, error)
}

//
func NewStatic(dev bool, fw FirmwareType) *Static {
	return &Static{dev: dev, fw: fw}
}

// Static is a fixed Platform, configured once at daemon start.
type Static struct {
	dev bool
	fw  FirmwareType
}

//
func (s *Static) DevelopmentUnit() bool {
	return s.dev
}

//
func (s *Static) Firmware() FirmwareType {
	return s.fw
}
