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

import "testing"

func TestDecryptInfo(t *testing.T) {

	hdr, err := ParseHeader(buildTestImage(t, 7)[:HeaderLen])
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}

	info, err := DecryptInfo(hdr, testKey)
	if err != nil {
		t.Fatalf("DecryptInfo: %v", err)
	}

	if info.FwVersion != 7 {
		t.Errorf("firmware field: got %d, want 7", info.FwVersion)
	}
	if info.AccessControl != 0x11223344 {
		t.Errorf("access control: got 0x%X, want 0x11223344",
			info.AccessControl)
	}
	if info.Wait1TimeRead != 100 || info.Wait2TimeRead != 200 ||
		info.Wait1TimeWrite != 300 || info.Wait2TimeWrite != 400 {
		t.Error("wait time fields do not match")
	}
	if info.FwMode != 2 {
		t.Errorf("firmware mode: got %d, want 2", info.FwMode)
	}
	if info.UppVersion != 5 {
		t.Errorf("upp version: got %d, want 5", info.UppVersion)
	}
	if info.CompatibilityType != 1 {
		t.Errorf("compatibility type: got %d, want 1", info.CompatibilityType)
	}
	for i, b := range info.UppHash {
		if b != byte(0xA0+i) {
			t.Fatalf("upp hash byte %d: got 0x%02X", i, b)
		}
	}
	if info.UppID != 0xDEADBEEF00112233 {
		t.Errorf("upp ID: got 0x%X", info.UppID)
	}
}

func TestDecryptInfoBadKey(t *testing.T) {

	hdr, err := ParseHeader(buildTestImage(t, 7)[:HeaderLen])
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}

	if _, err := DecryptInfo(hdr, []byte("short")); err == nil {
		t.Error("expected error for invalid key length")
	}

	// a wrong key of valid length decrypts to garbage, not an error;
	// content checks are the caller's business
	info, err := DecryptInfo(hdr, []byte("fedcba9876543210"))
	if err != nil {
		t.Fatalf("DecryptInfo with wrong key: %v", err)
	}
	if info.FwVersion == 7 && info.UppID == 0xDEADBEEF00112233 {
		t.Error("wrong key produced the original plaintext")
	}
}
