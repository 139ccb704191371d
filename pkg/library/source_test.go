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
	"bytes"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveFile(t *testing.T) {

	i := newTestIndex(t, []string{"games/Some Game.xci"})

	src, err := Resolve("games/Some Game.xci", i)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	defer src.Close()

	data, err := ioutil.ReadAll(src)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(data, []byte("image")) {
		t.Errorf("data: got %q", data)
	}
}

func TestResolveRejectsEscapingPaths(t *testing.T) {

	i := newTestIndex(t, []string{"Some Game.xci"})

	// a file outside the library root must stay unreachable, however
	// the reference tries to climb to it
	outside := filepath.Join(filepath.Dir(i.Dir()), "outside.xci")
	if err := ioutil.WriteFile(outside, []byte("secret"), 0644); err != nil {
		t.Fatalf("cannot create outside file: %v", err)
	}
	defer os.Remove(outside)

	for _, ref := range []string{
		"../outside.xci",
		"games/../../outside.xci",
		"",
	} {
		src, err := Resolve(ref, i)
		if err != nil {
			continue
		}
		data, _ := ioutil.ReadAll(src)
		src.Close()
		if bytes.Equal(data, []byte("secret")) {
			t.Errorf("reference %q escaped the library root", ref)
		}
	}
}

func TestResolveWithoutLibrary(t *testing.T) {

	if _, err := Resolve("game.xci", nil); err == nil {
		t.Error("expected error without library index")
	}
}

func TestResolveHTTP(t *testing.T) {

	want := []byte("downloaded cartridge image")

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, req *http.Request) {
			w.Write(want)
		}))
	defer srv.Close()

	src, err := Resolve(srv.URL+"/game.xci", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	defer src.Close()

	data, err := ioutil.ReadAll(src)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(data, want) {
		t.Error("downloaded data does not match")
	}
}
