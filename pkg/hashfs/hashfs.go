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
	Package hashfs implements the hash-verified partition format used
	on game cartridges: a directory-like container of named byte-range
	entries, with a header consisting of a magic word, an entry table
	and a trailing name table.
*/
package hashfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Magic is the 4-byte ASCII code "HFS0", read big-endian.
const Magic = 0x48465330

// HeaderLen is the size of the fixed partition header preceding the
// entry table.
const HeaderLen = 0x10

// EntryLen is the size of one entry table record.
const EntryLen = 0x40

// HashLen is the size of the SHA-256 digests carried by entries.
const HashLen = 0x20

// Type tags a partition with its role on the cartridge.
type Type byte

const (
	TypeRoot Type = iota
	TypeUpdate
	TypeLogo
	TypeNormal
	TypeSecure
	TypeBoot
	typeCount
)

var typeNames = [typeCount]string{
	TypeRoot:   "root",
	TypeUpdate: "update",
	TypeLogo:   "logo",
	TypeNormal: "normal",
	TypeSecure: "secure",
	TypeBoot:   "boot",
}

//
func (t Type) String() string {
	if t < typeCount {
		return typeNames[t]
	}
	return "unknown"
}

// TypeFromName resolves a symbolic partition name against the fixed
// type table. The name must match exactly.
func TypeFromName(name string) (Type, error) {
	for t, n := range typeNames {
		if n == name {
			return Type(t), nil
		}
	}
	return typeCount, fmt.Errorf("no partition type for name '%s'", name)
}

// Header is the fixed part of a partition header.
type Header struct {
	EntryCount    uint32
	NameTableSize uint32
}

/*
	ParseHeader parses and validates the fixed part of a partition
	header. Entry count and name table size are left to the caller to
	judge, since a zero entry count is only illegal for the root
	partition.
*/
func ParseHeader(b []byte) (*Header, error) {

	if len(b) < HeaderLen {
		return nil, fmt.Errorf("short partition header: %d bytes", len(b))
	}

	if m := binary.BigEndian.Uint32(b); m != Magic {
		return nil, fmt.Errorf("invalid partition magic word: 0x%08X", m)
	}

	return &Header{
		EntryCount:    binary.LittleEndian.Uint32(b[0x4:]),
		NameTableSize: binary.LittleEndian.Uint32(b[0x8:]),
	}, nil
}

// HeaderSize returns the unaligned size of a full partition header
// with the given entry table and name table dimensions.
func HeaderSize(entryCount, nameTableSize uint32) uint64 {
	return HeaderLen + uint64(entryCount)*EntryLen + uint64(nameTableSize)
}

/*
	Entry is one named byte range within a partition. Offset is
	relative to the partition's data start, i.e. the end of its full
	header. The hash covers a window of the entry's data, located by
	HashTargetOffset/HashTargetSize.
*/
type Entry struct {
	Name             string
	Offset           uint64
	Size             uint64
	NameOffset       uint32
	HashTargetSize   uint32
	HashTargetOffset uint64
	Hash             [HashLen]byte
}

/*
	Partition is one parsed hash-verified partition. It is immutable
	after construction; the cartridge context exclusively owns all
	partitions of a loaded cartridge.
*/
type Partition struct {
	Name       string
	Type       Type
	Offset     uint64
	Size       uint64
	HeaderSize uint64

	raw     []byte
	entries []Entry
}

/*
	NewPartition builds a partition from its full raw header. The raw
	bytes must have passed ParseHeader already; entry records and their
	names are decoded here, with name table offsets checked against the
	declared name table size.
*/
func NewPartition(
	name string, typ Type, offset, size, headerSize uint64, raw []byte) (
	*Partition, error) {

	hdr, err := ParseHeader(raw)
	if err != nil {
		return nil, err
	}

	if uint64(len(raw)) < HeaderSize(hdr.EntryCount, hdr.NameTableSize) {
		return nil, fmt.Errorf(
			"partition header too small for %d entries + name table of %d",
			hdr.EntryCount, hdr.NameTableSize)
	}

	nameTable := raw[HeaderLen+uint64(hdr.EntryCount)*EntryLen:]
	nameTable = nameTable[:hdr.NameTableSize]

	p := &Partition{
		Name:       name,
		Type:       typ,
		Offset:     offset,
		Size:       size,
		HeaderSize: headerSize,
		raw:        raw,
		entries:    make([]Entry, hdr.EntryCount),
	}

	for i := range p.entries {

		b := raw[HeaderLen+i*EntryLen:]
		e := &p.entries[i]

		e.Offset = binary.LittleEndian.Uint64(b)
		e.Size = binary.LittleEndian.Uint64(b[0x8:])
		e.NameOffset = binary.LittleEndian.Uint32(b[0x10:])
		e.HashTargetSize = binary.LittleEndian.Uint32(b[0x14:])
		e.HashTargetOffset = binary.LittleEndian.Uint64(b[0x18:])
		copy(e.Hash[:], b[0x20:])

		if e.NameOffset >= hdr.NameTableSize {
			return nil, fmt.Errorf(
				"name offset of entry #%d outside name table", i)
		}

		n := nameTable[e.NameOffset:]
		if end := bytes.IndexByte(n, 0); end >= 0 {
			n = n[:end]
		}
		e.Name = string(n)
	}

	return p, nil
}

//
func (p *Partition) EntryCount() int {
	return len(p.entries)
}

//
func (p *Partition) Entry(i int) (*Entry, error) {
	if i < 0 || i >= len(p.entries) {
		return nil, fmt.Errorf(
			"no entry #%d in partition '%s'", i, p.Name)
	}
	return &p.entries[i], nil
}

// EntryByName scans the entry table for the given name.
func (p *Partition) EntryByName(name string) (*Entry, error) {
	for i := range p.entries {
		if p.entries[i].Name == name {
			return &p.entries[i], nil
		}
	}
	return nil, fmt.Errorf("no entry '%s' in partition '%s'", name, p.Name)
}

// Entries returns a copy of the entry table.
func (p *Partition) Entries() []Entry {
	return append([]Entry(nil), p.entries...)
}

// RawHeader returns a copy of the full raw partition header.
func (p *Partition) RawHeader() []byte {
	return append([]byte(nil), p.raw...)
}

// DataOffset returns the physical offset of the entry's data on the
// cartridge.
func (p *Partition) DataOffset(e *Entry) uint64 {
	return p.Offset + p.HeaderSize + e.Offset
}
