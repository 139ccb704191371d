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
	"strings"

	"github.com/blueyonder1234/cartdrive/pkg/cartridge"
)

//
type StatusReport struct {
	Status      string `json:"status"`
	Firmware    uint64 `json:"firmware"`
	TotalSize   uint64 `json:"totalSize,omitempty"`
	TrimmedSize uint64 `json:"trimmedSize,omitempty"`
	Capacity    uint64 `json:"capacity,omitempty"`
}

//
func (a *api) status(w http.ResponseWriter, req *http.Request) {

	cart := a.daemon.Cartridge()

	rep := &StatusReport{
		Status:   cart.Status().String(),
		Firmware: cart.FirmwareVersion(),
	}

	if cart.Status() == cartridge.StatusLoaded {
		rep.TotalSize, _ = cart.TotalSize()
		rep.TrimmedSize, _ = cart.TrimmedSize()
		rep.Capacity, _ = cart.Capacity()
	}

	if wantsJSON(req) {
		sendJSONReply(rep, http.StatusOK, w)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("status:   %s\n", rep.Status))
	sb.WriteString(fmt.Sprintf("firmware: %d\n", rep.Firmware))
	if cart.Status() == cartridge.StatusLoaded {
		sb.WriteString(fmt.Sprintf("total:    %d\n", rep.TotalSize))
		sb.WriteString(fmt.Sprintf("trimmed:  %d\n", rep.TrimmedSize))
		sb.WriteString(fmt.Sprintf("capacity: %d\n", rep.Capacity))
	}
	sendReply([]byte(sb.String()), http.StatusOK, w)
}

//
func (a *api) header(w http.ResponseWriter, req *http.Request) {

	hdr, err := a.daemon.Cartridge().Header()
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	if wantsJSON(req) {
		sendJSONReply(hdr, http.StatusOK, w)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("package ID:   %x\n", hdr.PackageID))
	sb.WriteString(fmt.Sprintf("rom size:     0x%02x\n", hdr.RomSize))
	sb.WriteString(fmt.Sprintf("valid pages:  %d\n", hdr.ValidDataEndPage))
	sb.WriteString(fmt.Sprintf("root fs:      offset 0x%x, size 0x%x\n",
		hdr.RootFsAddress, hdr.RootFsSize))
	sendReply([]byte(sb.String()), http.StatusOK, w)
}

//
func (a *api) info(w http.ResponseWriter, req *http.Request) {

	info, err := a.daemon.Cartridge().Info()
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	if wantsJSON(req) {
		sendJSONReply(info, http.StatusOK, w)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("firmware version: %d\n", info.FwVersion))
	sb.WriteString(fmt.Sprintf("firmware mode:    %d\n", info.FwMode))
	sb.WriteString(fmt.Sprintf("access control:   0x%x\n", info.AccessControl))
	sb.WriteString(fmt.Sprintf("update version:   %d\n", info.UppVersion))
	sb.WriteString(fmt.Sprintf("update ID:        0x%016x\n", info.UppID))
	sb.WriteString(fmt.Sprintf("compatibility:    %d\n", info.CompatibilityType))
	sendReply([]byte(sb.String()), http.StatusOK, w)
}
