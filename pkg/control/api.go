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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/blueyonder1234/cartdrive/pkg/daemon"
)

//
func NewAPIServer(listen string, d *daemon.Daemon) *api {
	return &api{listen: listen, daemon: d}
}

/*
	api exposes daemon control over HTTP. All endpoints answer in
	plain text by default, JSON when the request accepts it.
*/
type api struct {
	listen string
	daemon *daemon.Daemon
	server *http.Server
}

//
func (a *api) Serve() error {

	router := mux.NewRouter().StrictSlash(true)

	router.HandleFunc("/version", a.version).Methods("GET")
	router.HandleFunc("/status", a.status).Methods("GET")
	router.HandleFunc("/header", a.header).Methods("GET")
	router.HandleFunc("/info", a.info).Methods("GET")
	router.HandleFunc("/ls", a.list).Methods("GET")
	router.HandleFunc("/dump", a.dump).Methods("GET")
	router.HandleFunc("/search", a.search).Methods("GET")
	router.HandleFunc("/load", a.load).Methods("PUT")
	router.HandleFunc("/eject", a.eject).Methods("PUT")

	a.server = &http.Server{
		Handler:      router,
		Addr:         a.listen,
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	log.WithField("address", a.listen).Info("API server listening")
	return a.server.ListenAndServe()
}

//
func (a *api) Stop() error {
	if a.server == nil {
		return nil
	}
	return a.server.Close()
}

//
func sendReply(body []byte, status int, w http.ResponseWriter) {
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Errorf("problem sending reply: %v", err)
	}
}

//
func sendJSONReply(obj interface{}, status int, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(obj); err != nil {
		log.Errorf("problem sending JSON reply: %v", err)
	}
}

//
func sendStreamReply(r io.Reader, status int, w http.ResponseWriter) {
	w.WriteHeader(status)
	if _, err := io.Copy(w, r); err != nil {
		log.Errorf("problem sending stream reply: %v", err)
	}
}

// handleError sends err to the client if it is non-nil, and reports
// whether it did so.
func handleError(err error, status int, w http.ResponseWriter) bool {
	if err == nil {
		return false
	}
	log.Errorf("%v", err)
	http.Error(w, fmt.Sprintf("%v", err), status)
	return true
}

//
func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json")
}

//
func getArg(req *http.Request, arg string) string {
	if args, ok := req.URL.Query()[arg]; ok && len(args) > 0 {
		return args[0]
	}
	return ""
}

//
func getIntArg(req *http.Request, arg string, def int) (int, error) {
	str := getArg(req, arg)
	if str == "" {
		return def, nil
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return def, fmt.Errorf("invalid argument '%s': %v", arg, err)
	}
	return val, nil
}
