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
)

func TestParseHeader(t *testing.T) {

	raw := buildTestImage(t, 1)[:HeaderLen]

	hdr, err := ParseHeader(raw)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}

	if hdr.RomSize != RomSize1GiB {
		t.Errorf("rom size: got 0x%02X, want 0x%02X", hdr.RomSize, RomSize1GiB)
	}
	if hdr.PackageID != testPackageID {
		t.Errorf("package ID: got %x, want %x", hdr.PackageID, testPackageID)
	}
	if hdr.ValidDataEndPage != testValidDataEndPage {
		t.Errorf("valid data end page: got %d, want %d",
			hdr.ValidDataEndPage, testValidDataEndPage)
	}
	if hdr.RootFsAddress != testRootOffset {
		t.Errorf("root fs address: got 0x%X, want 0x%X",
			hdr.RootFsAddress, testRootOffset)
	}
	if !bytes.Equal(hdr.Raw(), raw) {
		t.Error("Raw does not round-trip the header record")
	}
}

func TestParseHeaderBadMagic(t *testing.T) {

	raw := buildTestImage(t, 1)[:HeaderLen]
	raw[hdrOffMagic+3] = 'X'

	if _, err := ParseHeader(raw); err == nil {
		t.Error("expected error for bad magic word")
	}
}

func TestParseHeaderShort(t *testing.T) {
	if _, err := ParseHeader(make([]byte, HeaderLen-1)); err == nil {
		t.Error("expected error for short header")
	}
}

func TestCapacityFromRomSize(t *testing.T) {

	cases := []struct {
		code byte
		want uint64
	}{
		{RomSize1GiB, 1 << 30},
		{RomSize2GiB, 1 << 31},
		{RomSize4GiB, 1 << 32},
		{RomSize8GiB, 1 << 33},
		{RomSize16GiB, 1 << 34},
		{RomSize32GiB, 1 << 35},
	}

	for _, tc := range cases {
		got, err := CapacityFromRomSize(tc.code)
		if err != nil || got != tc.want {
			t.Errorf("code 0x%02X: got %d, %v, want %d",
				tc.code, got, err, tc.want)
		}
	}

	if _, err := CapacityFromRomSize(0x42); err == nil {
		t.Error("expected error for unknown capacity code")
	}
}

func TestAlignmentHelpers(t *testing.T) {

	if got := alignDown(0x7FF, PageSize); got != 0x600 {
		t.Errorf("alignDown: got 0x%X, want 0x600", got)
	}
	if got := alignUp(0x601, PageSize); got != 0x800 {
		t.Errorf("alignUp: got 0x%X, want 0x800", got)
	}
	if !isAligned(0x800, PageSize) || isAligned(0x801, PageSize) {
		t.Error("isAligned misjudges page alignment")
	}
}
