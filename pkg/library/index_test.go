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

package library

import (
	"os"
	"path/filepath"
	"testing"
)

//
func newTestIndex(t *testing.T, files []string) *Index {
	t.Helper()

	dir := t.TempDir()
	for _, f := range files {
		path := filepath.Join(dir, f)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("cannot create library subdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("image"), 0644); err != nil {
			t.Fatalf("cannot create library file: %v", err)
		}
	}

	i, err := NewIndex(filepath.Join(dir, ".index"), dir)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	t.Cleanup(i.Stop)

	if err := i.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	return i
}

func TestSearch(t *testing.T) {

	i := newTestIndex(t, []string{
		"Super Adventure.xci",
		"Racing Championship.xci.gz",
		"classics/Puzzle Adventure.xci.7z",
	})

	res, err := i.Search("adventure", 100)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Hits) != 2 {
		t.Fatalf("hits: got %d (%v), want 2", len(res.Hits), res.Hits)
	}
	if !res.Complete {
		t.Error("result undercut the limit but is marked incomplete")
	}

	found := map[string]bool{}
	for _, h := range res.Hits {
		found[h] = true
	}
	if !found["Super Adventure.xci"] ||
		!found[filepath.Join("classics", "Puzzle Adventure.xci.7z")] {
		t.Errorf("unexpected hits: %v", res.Hits)
	}

	res, err = i.Search("racing", 100)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Hits) != 1 || res.Hits[0] != "Racing Championship.xci.gz" {
		t.Errorf("hits: got %v", res.Hits)
	}
}

func TestSearchLimit(t *testing.T) {

	i := newTestIndex(t, []string{
		"Adventure One.xci",
		"Adventure Two.xci",
		"Adventure Three.xci",
	})

	res, err := i.Search("adventure", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Hits) != 2 {
		t.Errorf("hits: got %d, want 2", len(res.Hits))
	}
	if res.Complete {
		t.Error("truncated result marked complete")
	}
}

func TestSearchEmptyTerm(t *testing.T) {

	i := newTestIndex(t, []string{"Some Game.xci"})

	if _, err := i.Search("   ", 10); err == nil {
		t.Error("expected error for empty search term")
	}
}

func TestIndexSkipsHiddenFiles(t *testing.T) {

	i := newTestIndex(t, []string{
		"Visible Game.xci",
		".hidden.xci",
	})

	res, err := i.Search("xci", 100)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, h := range res.Hits {
		if h == ".hidden.xci" {
			t.Error("hidden file was indexed")
		}
	}
}
