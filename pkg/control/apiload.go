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
)

// maxUploadSize caps direct image uploads via the request body.
const maxUploadSize = 64 << 30

//
func (a *api) load(w http.ResponseWriter, req *http.Request) {

	var err error

	if ref := getArg(req, "ref"); ref != "" {
		err = a.daemon.Load(ref, getArg(req, "compressor"))

	} else {
		name := getArg(req, "name")
		if name == "" {
			handleError(fmt.Errorf("no image reference or name given"),
				http.StatusUnprocessableEntity, w)
			return
		}
		err = a.daemon.LoadFrom(
			http.MaxBytesReader(w, req.Body, maxUploadSize),
			name, getArg(req, "compressor"))
	}

	if handleError(err, http.StatusNotAcceptable, w) {
		return
	}

	sendReply([]byte("cartridge loaded"), http.StatusOK, w)
}

//
func (a *api) eject(w http.ResponseWriter, req *http.Request) {

	if handleError(a.daemon.Eject(), http.StatusUnprocessableEntity, w) {
		return
	}

	sendReply([]byte("cartridge ejected"), http.StatusOK, w)
}
