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
	"os"
)

//
func NewStatus() *Status {

	s := &Status{}
	s.Runner = *NewRunner(
		"status [-a|--address {address}] [--header] [--info]",
		"get cartridge status from daemon",
		`
Use the status command to check whether a cartridge is inserted and loaded,
and to retrieve its header and decrypted info block.`,
		"", runnerHelpEpilogue, s.Run)

	s.AddBaseSettings()
	s.AddSetting(&s.Header, "header", "", "", false,
		"also show cartridge header fields", false)
	s.AddSetting(&s.Info, "info", "", "", false,
		"also show decrypted cartridge info", false)

	return s
}

//
type Status struct {
	Runner
	//
	Header bool
	Info   bool
}

//
func (s *Status) Run() error {

	if err := s.ParseSettings(); err != nil {
		return err
	}

	paths := []string{"/status"}
	if s.Header {
		paths = append(paths, "/header")
	}
	if s.Info {
		paths = append(paths, "/info")
	}

	for _, p := range paths {
		resp, err := s.apiCall("GET", p, false, nil)
		if err != nil {
			return err
		}
		fmt.Println()
		_, err = io.Copy(os.Stdout, resp)
		resp.Close()
		if err != nil {
			return err
		}
	}

	fmt.Println()
	return nil
}
