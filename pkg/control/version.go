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

package control

import (
	"fmt"
	"net/http"

	"github.com/blueyonder1234/cartdrive/pkg/util"
)

//
type Version struct {
	Daemon   string `json:"daemon"`
	Firmware uint64 `json:"firmware"`
}

//
func (v *Version) String() string {
	return fmt.Sprintf("daemon:   %s\nfirmware: %d\n", v.Daemon, v.Firmware)
}

//
func (a *api) version(w http.ResponseWriter, req *http.Request) {

	ver := &Version{
		Daemon:   util.CartDriveVersion,
		Firmware: a.daemon.Cartridge().FirmwareVersion(),
	}

	if wantsJSON(req) {
		sendJSONReply(ver, http.StatusOK, w)
	} else {
		sendReply([]byte(ver.String()), http.StatusOK, w)
	}
}
