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
	"io/ioutil"
)

//
func NewEject() *Eject {

	e := &Eject{}
	e.Runner = *NewRunner(
		"eject [-a|--address {address}]",
		"eject the cartridge from the slot",
		`
Use the eject command to remove the currently inserted cartridge image.`,
		"", runnerHelpEpilogue, e.Run)

	e.AddBaseSettings()
	return e
}

//
type Eject struct {
	Runner
}

//
func (e *Eject) Run() error {

	if err := e.ParseSettings(); err != nil {
		return err
	}

	resp, err := e.apiCall("PUT", "/eject", false, nil)
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
