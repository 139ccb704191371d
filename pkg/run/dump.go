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
	"fmt"
	"io"
	"net/url"
	"os"
)

//
func NewDump() *Dump {

	d := &Dump{}
	d.Runner = *NewRunner(
		"dump [-a|--address {address}] [-p|--partition {name}] -f|--file {entry}",
		"hex dump an entry of a cartridge partition",
		`
Use the dump command to output a hex dump of a partition entry's data. The
data is read from the cartridge through the daemon.`,
		"", runnerHelpEpilogue, d.Run)

	d.AddBaseSettings()
	d.AddSetting(&d.Partition, "partition", "p", "", nil,
		"partition holding the entry, e.g. secure, normal", false)
	d.AddSetting(&d.File, "file", "f", "", nil,
		"entry to dump", true)

	return d
}

//
type Dump struct {
	Runner
	//
	Partition string
	File      string
}

//
func (d *Dump) Run() error {

	if err := d.ParseSettings(); err != nil {
		return err
	}

	resp, err := d.apiCall("GET",
		fmt.Sprintf("/dump?partition=%s&file=%s",
			url.QueryEscape(d.Partition), url.QueryEscape(d.File)),
		false, nil)
	if err != nil {
		return err
	}
	defer resp.Close()

	if _, err := io.Copy(os.Stdout, resp); err != nil {
		return err
	}

	fmt.Println()
	return nil
}
