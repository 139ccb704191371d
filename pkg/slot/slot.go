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

/*
	Package slot provides the image-backed cartridge slot device. A
	slot is a watched directory: a raw cartridge image file appearing
	there is an insertion, the file going away is a removal. The
	filesystem watch doubles as the hardware detection signal.
*/
package slot

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/blueyonder1234/cartdrive/pkg/cartridge"
)

// RestrictedMarker disables cartridge access while present in the
// slot directory, the image-device analogue of a security patch that
// blocks the transport.
const RestrictedMarker = ".restricted"

//
func NewDevice(dir string) (*Device, error) {

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, err
	}

	d := &Device{
		dir:    abs,
		notify: make(chan struct{}, 1),
		done:   make(chan bool),
	}

	if d.watcher, err = fsnotify.NewWatcher(); err != nil {
		return nil, err
	}

	if err := d.watcher.Add(abs); err != nil {
		d.watcher.Close()
		return nil, err
	}

	go d.watch()

	log.WithField("dir", abs).Info("cartridge slot device ready")
	return d, nil
}

//
type Device struct {
	dir     string
	watcher *fsnotify.Watcher
	notify  chan struct{}
	done    chan bool
}

/*
	Close stops the slot watch and waits for the watch routine to
	finish. A closed device no longer signals detection events.
*/
func (d *Device) Close() {
	if d.watcher != nil {
		if err := d.watcher.Close(); err != nil {
			log.Errorf("cannot close slot watcher: %v", err)
		}
		<-d.done
		d.watcher = nil
	}
}

//
func (d *Device) watch() {

	for {
		select {

		case evt, ok := <-d.watcher.Events:
			if !ok {
				log.Debug("slot watch routine exiting")
				d.done <- true
				return
			}

			if strings.HasPrefix(filepath.Base(evt.Name), ".") {
				break // temp & marker files are not cartridges
			}

			log.WithFields(log.Fields{
				"path": evt.Name, "op": evt.Op}).Debug("slot event")

			// edge-triggered: collapse bursts into one pending signal
			select {
			case d.notify <- struct{}{}:
			default:
			}

		case err, ok := <-d.watcher.Errors:
			if ok {
				log.Errorf("slot watch error: %v", err)
			}
		}
	}
}

//
func (d *Device) Notify() <-chan struct{} {
	return d.notify
}

//
func (d *Device) Inserted() bool {
	return d.imagePath() != ""
}

// imagePath returns the path of the image currently in the slot, or
// the empty string. The first regular non-hidden file wins.
func (d *Device) imagePath() string {

	entries, err := os.ReadDir(d.dir)
	if err != nil {
		log.Errorf("cannot read slot directory: %v", err)
		return ""
	}

	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			return filepath.Join(d.dir, e.Name())
		}
	}

	return ""
}

/*
	Insert places a new cartridge image into the slot, replacing any
	image already there. The image is written to a hidden temp file
	first and renamed into place, so the detection signal only fires
	once the image is complete.
*/
func (d *Device) Insert(r io.Reader, name string) error {

	if name == "" || strings.HasPrefix(name, ".") ||
		name != filepath.Base(name) {
		return fmt.Errorf("invalid image name: '%s'", name)
	}

	tmp := filepath.Join(d.dir, ".incoming")

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("cannot write image: %v", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := d.Eject(); err != nil {
		os.Remove(tmp)
		return err
	}

	log.WithField("image", name).Info("inserting cartridge")
	return os.Rename(tmp, filepath.Join(d.dir, name))
}

// Eject removes the image currently in the slot, if any.
func (d *Device) Eject() error {

	img := d.imagePath()
	if img == "" {
		return nil
	}

	log.WithField("image", filepath.Base(img)).Info("ejecting cartridge")
	return os.Remove(img)
}

/*
	Acquire retrieves a handle for the image currently in the slot.
	While the restricted marker is present, acquisition fails on every
	try, mirroring a platform with cartridge access disabled.
*/
func (d *Device) Acquire() (cartridge.Handle, error) {

	if _, err := os.Stat(filepath.Join(d.dir, RestrictedMarker)); err == nil {
		return nil, fmt.Errorf("cartridge access disabled")
	}

	img := d.imagePath()
	if img == "" {
		return nil, fmt.Errorf("no cartridge in slot")
	}

	f, err := os.Open(img)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	boundary, err := secureAreaOffset(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("cannot derive area split of '%s': %v", img, err)
	}

	if boundary <= 0 || boundary >= info.Size() {
		f.Close()
		return nil, fmt.Errorf(
			"implausible area split 0x%X in image of %d bytes",
			boundary, info.Size())
	}

	return &handle{file: f, size: info.Size(), boundary: boundary}, nil
}

//
type handle struct {
	file     *os.File
	size     int64
	boundary int64
}

//
func (h *handle) OpenArea(a cartridge.Area) (cartridge.Session, error) {

	switch a {
	case cartridge.AreaNormal:
		return &session{file: h.file, base: 0, size: h.boundary}, nil
	case cartridge.AreaSecure:
		return &session{
			file: h.file, base: h.boundary, size: h.size - h.boundary}, nil
	}

	return nil, fmt.Errorf("cannot open storage area: %s", a)
}

//
func (h *handle) Close() {
	if h.file != nil {
		h.file.Close()
		h.file = nil
	}
}

//
type session struct {
	file *os.File
	base int64
	size int64
}

//
func (s *session) ReadAt(p []byte, off int64) error {

	if off < 0 || off+int64(len(p)) > s.size {
		return fmt.Errorf(
			"area read of %d bytes at 0x%X out of bounds", len(p), off)
	}

	_, err := s.file.ReadAt(p, s.base+off)
	return err
}

//
func (s *session) Size() (int64, error) {
	return s.size, nil
}

// Close is a no-op; the backing file belongs to the handle.
func (s *session) Close() {}
