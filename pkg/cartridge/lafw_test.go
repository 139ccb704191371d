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
	"testing"
)

func TestScanFirmwareVersion(t *testing.T) {

	mem := &memSnapshot{seg: testDataSegment(testInstalledFw)}

	got, err := scanFirmwareVersion(mem, false)
	if err != nil {
		t.Fatalf("scanFirmwareVersion: %v", err)
	}
	if got != testInstalledFw {
		t.Errorf("version: got %d, want %d", got, testInstalledFw)
	}
}

func TestScanFirmwareVersionDevUnit(t *testing.T) {

	seg := testDataSegment(testInstalledFw)

	// a production blob must not satisfy a dev unit scan
	if _, err := scanFirmwareVersion(&memSnapshot{seg: seg}, true); err == nil {
		t.Error("expected error for dev scan over production blob")
	}

	binary.LittleEndian.PutUint32(seg[0x1234+lafwOffType:], lafwTypeReadDev)

	got, err := scanFirmwareVersion(&memSnapshot{seg: seg}, true)
	if err != nil {
		t.Fatalf("scanFirmwareVersion: %v", err)
	}
	if got != testInstalledFw {
		t.Errorf("version: got %d, want %d", got, testInstalledFw)
	}
}

// the device type field occupies the top bits of the packed version
// word; they must not count towards the version
func TestScanFirmwareVersionMasksTypeBits(t *testing.T) {

	seg := testDataSegment(testInstalledFw)
	packed := binary.LittleEndian.Uint64(seg[0x1234+lafwOffVersion:])
	binary.LittleEndian.PutUint64(seg[0x1234+lafwOffVersion:], packed|3<<62)

	got, err := scanFirmwareVersion(&memSnapshot{seg: seg}, false)
	if err != nil {
		t.Fatalf("scanFirmwareVersion: %v", err)
	}
	if got != testInstalledFw {
		t.Errorf("version: got %d, want %d", got, testInstalledFw)
	}
}

func TestScanFirmwareVersionMissing(t *testing.T) {

	if _, err := scanFirmwareVersion(
		&memSnapshot{seg: make([]byte, 0x10000)}, false); err == nil {
		t.Error("expected error for segment without firmware blob")
	}
}
