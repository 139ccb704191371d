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
func NewLs() *Ls {

	l := &Ls{}
	l.Runner = *NewRunner(
		"ls [-a|--address {address}] [-p|--partition {name}]",
		"list entries of a cartridge partition",
		`
Use the ls command to list the entries of a cartridge partition. Without a
partition name, the root partition is listed, which shows the cartridge's
partitions themselves.`,
		"", runnerHelpEpilogue, l.Run)

	l.AddBaseSettings()
	l.AddSetting(&l.Partition, "partition", "p", "", nil,
		"partition to list, e.g. secure, normal, update", false)

	return l
}

//
type Ls struct {
	Runner
	//
	Partition string
}

//
func (l *Ls) Run() error {

	if err := l.ParseSettings(); err != nil {
		return err
	}

	resp, err := l.apiCall("GET",
		fmt.Sprintf("/ls?partition=%s", url.QueryEscape(l.Partition)),
		false, nil)
	if err != nil {
		return err
	}
	defer resp.Close()

	if _, err := io.Copy(os.Stdout, resp); err != nil {
		return err
	}

	return nil
}
