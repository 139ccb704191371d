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

package keys

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

//
func writeKeyFile(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "keys.txt")
	if err := os.WriteFile(file, []byte(content), 0600); err != nil {
		t.Fatalf("cannot write key file: %v", err)
	}
	return file
}

func TestLoad(t *testing.T) {

	file := writeKeyFile(t, `
# cartridge keys
card_info_key = 000102030405060708090a0b0c0d0e0f

other_key=CAFEBABE
`)

	s, err := Load(file)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	key, err := s.Get(PurposeInfo)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	if !bytes.Equal(key, want) {
		t.Errorf("key: got %x, want %x", key, want)
	}

	if _, err := s.Get("other_key"); err != nil {
		t.Errorf("Get other_key: %v", err)
	}
	if _, err := s.Get("nonexistent"); err == nil {
		t.Error("expected error for unknown purpose")
	}
}

func TestLoadMalformed(t *testing.T) {

	for _, content := range []string{
		"card_info_key 00112233",   // no separator
		"card_info_key = nothex",   // bad hex
		"= 00112233",               // empty purpose
	} {
		if _, err := Load(writeKeyFile(t, content)); err == nil {
			t.Errorf("expected error for %q", content)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestStaticCopiesKeys(t *testing.T) {

	src := map[string][]byte{PurposeInfo: {1, 2, 3}}
	s := NewStatic(src)

	src[PurposeInfo][0] = 99
	key, err := s.Get(PurposeInfo)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if key[0] != 1 {
		t.Error("store shares memory with the source map")
	}

	key[1] = 99
	again, _ := s.Get(PurposeInfo)
	if again[1] != 2 {
		t.Error("store shares memory with returned keys")
	}
}
