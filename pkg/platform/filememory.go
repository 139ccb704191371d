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

package platform

import (
	"fmt"
	"io/ioutil"

	log "github.com/sirupsen/logrus"
)

//
func NewFileMemory(dataSegment, full string) *FileMemory {
	return &FileMemory{dataSegment: dataSegment, full: full}
}

// FileMemory reads privileged process memory snapshots from dump
// files. Each call re-reads the file, matching the snapshot-per-scan
// behavior of a live memory source.
type FileMemory struct {
	dataSegment string
	full        string
}

//
func (m *FileMemory) DataSegment() ([]byte, error) {
	return m.read(m.dataSegment, "data segment")
}

//
func (m *FileMemory) Full() ([]byte, error) {
	return m.read(m.full, "full memory")
}

//
func (m *FileMemory) read(file, what string) ([]byte, error) {

	if file == "" {
		return nil, fmt.Errorf("no %s snapshot configured", what)
	}

	b, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s snapshot: %v", what, err)
	}

	log.WithFields(log.Fields{"file": file, "size": len(b)}).Debugf(
		"%s snapshot read", what)

	return b, nil
}
