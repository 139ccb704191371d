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

package run

import (
	"bufio"
	"fmt"
	"io"
	"io/ioutil"
	"net/url"
	"os"
	"path/filepath"
)

//
func NewLoad() *Load {

	l := &Load{}
	l.Runner = *NewRunner(
		`load [-a|--address {address}] [-r|--ref {reference}] [-i|--input {file}]
      [-c|--compressor {type}]`,
		"load a cartridge image into the slot",
		`
Use the load command to insert a cartridge image. The image can come from
the daemon's library or from a URL (--ref), or be uploaded from a local
file (--input). Compressed images (gzip, zip, 7z) are unpacked by the
daemon.`,
		"", runnerHelpEpilogue, l.Run)

	l.AddBaseSettings()
	l.AddSetting(&l.Ref, "ref", "r", "", nil,
		"image reference, library path or http(s) URL", false)
	l.AddSetting(&l.Input, "input", "i", "", nil,
		"local image file to upload", false)
	l.AddSetting(&l.Compressor, "compressor", "c", "", nil,
		"compressor to use for unpacking, e.g. gzip, zip, 7z; "+
			"derived from file name when omitted", false)

	return l
}

//
type Load struct {
	Runner
	//
	Ref        string
	Input      string
	Compressor string
}

//
func (l *Load) Run() error {

	if err := l.ParseSettings(); err != nil {
		return err
	}

	if (l.Ref == "") == (l.Input == "") {
		return fmt.Errorf("specify either an image reference or an input file")
	}

	var resp io.ReadCloser
	var err error

	if l.Ref != "" {
		resp, err = l.apiCall("PUT",
			fmt.Sprintf("/load?ref=%s&compressor=%s",
				url.QueryEscape(l.Ref), url.QueryEscape(l.Compressor)),
			false, nil)

	} else {
		f, e := os.Open(l.Input)
		if e != nil {
			return e
		}
		defer f.Close()

		resp, err = l.apiCall("PUT",
			fmt.Sprintf("/load?name=%s&compressor=%s",
				url.QueryEscape(filepath.Base(l.Input)),
				url.QueryEscape(l.Compressor)),
			false, bufio.NewReader(f))
	}

	if err != nil {
		return err
	}
	defer resp.Close()

	msg, err := ioutil.ReadAll(resp)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", msg)
	return nil
}
