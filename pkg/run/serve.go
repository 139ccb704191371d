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
	"net/http"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/blueyonder1234/cartdrive/pkg/control"
	"github.com/blueyonder1234/cartdrive/pkg/daemon"
)

//
func NewServe() *Serve {

	s := &Serve{}
	s.Runner = *NewRunner(
		`serve -s|--slot {dir} -k|--keys {file} --data-segment {file}
      [-l|--library {dir}] [-a|--address {address}] [--firmware {type}]`,
		"run the daemon",
		`
Use the serve command to run the cartridge daemon. It watches the slot
directory for cartridge images, brings inserted cartridges up, and serves
the control API.`,
		"", runnerHelpEpilogue, s.Run)

	s.AddSetting(&s.Address, "address", "a", "CARTDRIVE_ADDRESS",
		defaultAddress, "listen address for the control API, {host}:{port}",
		false)
	s.AddSetting(&s.SlotDir, "slot", "s", "", nil,
		"slot directory to watch for cartridge images", true)
	s.AddSetting(&s.KeyFile, "keys", "k", "", nil,
		"key store file", true)
	s.AddSetting(&s.LibraryDir, "library", "l", "", nil,
		"image library directory; omit to disable the library", false)
	s.AddSetting(&s.IndexDir, "index", "", "", nil,
		"search index directory, defaults to {library}/.index", false)
	s.AddSetting(&s.DataSegment, "data-segment", "", "", nil,
		"firmware data segment dump for version scanning", true)
	s.AddSetting(&s.FullMemory, "full-memory", "", "", nil,
		"full memory dump for key area scanning", false)
	s.AddSetting(&s.DevUnit, "dev", "", "", false,
		"treat the host as a development unit", false)
	s.AddSetting(&s.Firmware, "firmware", "", "", "stock",
		"host firmware type: stock, custom, or bypass", false)

	return s
}

//
type Serve struct {
	Runner
	//
	SlotDir     string
	KeyFile     string
	LibraryDir  string
	IndexDir    string
	DataSegment string
	FullMemory  string
	DevUnit     bool
	Firmware    string
}

//
func (s *Serve) Run() error {

	if err := s.ParseSettings(); err != nil {
		return err
	}

	d := daemon.NewDaemon(&daemon.Config{
		SlotDir:     s.SlotDir,
		LibraryDir:  s.LibraryDir,
		IndexDir:    s.IndexDir,
		KeyFile:     s.KeyFile,
		DataSegment: s.DataSegment,
		FullMemory:  s.FullMemory,
		DevUnit:     s.DevUnit,
		Firmware:    s.Firmware,
	})

	if err := d.Start(); err != nil {
		return err
	}
	defer d.Stop()

	api := control.NewAPIServer(s.Address, d)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("shutting down")
		if err := api.Stop(); err != nil {
			log.Errorf("problem stopping API server: %v", err)
		}
	}()

	if err := api.Serve(); err != http.ErrServerClosed {
		return err
	}

	return nil
}
