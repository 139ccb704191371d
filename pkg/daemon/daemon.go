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

package daemon

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/blueyonder1234/cartdrive/pkg/cartridge"
	"github.com/blueyonder1234/cartdrive/pkg/keys"
	"github.com/blueyonder1234/cartdrive/pkg/library"
	"github.com/blueyonder1234/cartdrive/pkg/platform"
	"github.com/blueyonder1234/cartdrive/pkg/slot"
)

//
type Config struct {
	SlotDir     string
	LibraryDir  string
	IndexDir    string
	KeyFile     string
	DataSegment string
	FullMemory  string
	DevUnit     bool
	Firmware    string
}

//
func NewDaemon(conf *Config) *Daemon {
	return &Daemon{conf: conf}
}

/*
	Daemon wires the cartridge slot, the cartridge context and the
	image library together and runs them until stopped.
*/
type Daemon struct {
	conf *Config
	dev  *slot.Device
	cart *cartridge.Cartridge
	lib  *library.Index
}

//
func (d *Daemon) Cartridge() *cartridge.Cartridge {
	return d.cart
}

//
func (d *Daemon) Library() *library.Index {
	return d.lib
}

//
func (d *Daemon) Start() error {

	fw, err := firmwareType(d.conf.Firmware)
	if err != nil {
		return err
	}

	ks, err := keys.Load(d.conf.KeyFile)
	if err != nil {
		return fmt.Errorf("cannot load key store: %v", err)
	}

	if d.dev, err = slot.NewDevice(d.conf.SlotDir); err != nil {
		return fmt.Errorf("cannot create slot device: %v", err)
	}

	d.cart, err = cartridge.NewCartridge(d.dev, ks,
		platform.NewStatic(d.conf.DevUnit, fw),
		platform.NewFileMemory(d.conf.DataSegment, d.conf.FullMemory))
	if err != nil {
		d.dev.Close()
		return fmt.Errorf("cannot create cartridge context: %v", err)
	}

	if d.conf.LibraryDir != "" {
		index := d.conf.IndexDir
		if index == "" {
			index = filepath.Join(d.conf.LibraryDir, ".index")
		}
		if d.lib, err = library.NewIndex(index, d.conf.LibraryDir); err != nil {
			return err
		}
		if err := d.lib.Start(); err != nil {
			return err
		}
	}

	if err := d.cart.Start(); err != nil {
		return err
	}

	go d.logStatusChanges()

	log.Info("daemon started")
	return nil
}

//
func (d *Daemon) Stop() {

	if d.cart != nil {
		d.cart.Stop()
	}

	if d.dev != nil {
		d.dev.Close()
	}

	if d.lib != nil {
		d.lib.Stop()
	}

	log.Info("daemon stopped")
}

// logStatusChanges follows the cartridge status signal. The signal
// carries no payload, so the current status is re-queried on every
// wakeup.
func (d *Daemon) logStatusChanges() {
	for range d.cart.Notify() {
		log.WithField("status", d.cart.Status()).Info("cartridge status changed")
	}
}

/*
	Load resolves an image reference via the library and inserts it
	into the slot, replacing any cartridge already present. Compressed
	images are unpacked on the way in; the slot only ever holds raw
	images.
*/
func (d *Daemon) Load(ref, compressor string) error {

	if d.cart == nil {
		return fmt.Errorf("daemon not started")
	}

	src, err := library.Resolve(ref, d.lib)
	if err != nil {
		return err
	}

	name, comp := library.SplitNameCompressor(filepath.Base(ref))
	if compressor != "" {
		comp = compressor
	}

	return d.insert(src, name, comp)
}

/*
	LoadFrom inserts an image read directly from in, e.g. an upload.
	The name is used for the slot image file, with any compressor
	extension stripped.
*/
func (d *Daemon) LoadFrom(in io.Reader, name, compressor string) error {

	if d.cart == nil {
		return fmt.Errorf("daemon not started")
	}

	n, comp := library.SplitNameCompressor(filepath.Base(name))
	if compressor != "" {
		comp = compressor
	}

	return d.insert(io.NopCloser(in), n, comp)
}

//
func (d *Daemon) insert(src io.ReadCloser, name, compressor string) error {

	img, err := library.NewImageReader(src, compressor)
	if err != nil {
		src.Close()
		return err
	}
	defer img.Close()

	if img.Name() != "" {
		name = img.Name()
	}
	if name == "" {
		name = "cartridge.xci"
	}

	return d.dev.Insert(img, name)
}

//
func (d *Daemon) Eject() error {
	if d.dev == nil {
		return fmt.Errorf("daemon not started")
	}
	return d.dev.Eject()
}

//
func firmwareType(s string) (platform.FirmwareType, error) {
	switch strings.ToLower(s) {
	case "", "stock":
		return platform.FirmwareStock, nil
	case "custom":
		return platform.FirmwareCustom, nil
	case "bypass":
		return platform.FirmwareBypass, nil
	}
	return 0, fmt.Errorf("unknown firmware type: '%s'", s)
}
