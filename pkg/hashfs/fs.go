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

package hashfs

import "fmt"

// ReadFunc reads cartridge storage at an absolute logical offset.
type ReadFunc func(p []byte, off int64) error

//
func NewFS(p *Partition, read ReadFunc) *FS {
	return &FS{part: p, read: read}
}

/*
	FS exposes a partition as a flat read-only filesystem. There is no
	mutating surface at all; partitions are immutable containers of
	named byte ranges.
*/
type FS struct {
	part *Partition
	read ReadFunc
}

//
func (f *FS) Partition() *Partition {
	return f.part
}

//
func (f *FS) Entries() []Entry {
	return f.part.Entries()
}

//
func (f *FS) EntryByName(name string) (*Entry, error) {
	return f.part.EntryByName(name)
}

// TotalDataSize returns the summed size of all entry data in the
// partition.
func (f *FS) TotalDataSize() uint64 {
	var total uint64
	for i := range f.part.entries {
		total += f.part.entries[i].Size
	}
	return total
}

/*
	ReadEntryData fills p with entry data starting at the given
	entry-relative offset. Short reads are not reported as success;
	requests extending past the entry are rejected outright.
*/
func (f *FS) ReadEntryData(e *Entry, p []byte, off int64) error {

	if e == nil || off < 0 || uint64(off)+uint64(len(p)) > e.Size {
		return fmt.Errorf(
			"invalid read of %d bytes at offset %d in entry", len(p), off)
	}

	if len(p) == 0 {
		return nil
	}

	return f.read(p, int64(f.part.DataOffset(e))+off)
}
