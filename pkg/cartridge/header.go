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

package cartridge

import (
	"encoding/binary"
	"fmt"
)

// PageSize is the alignment unit for all physical storage offsets and
// lengths on a cartridge.
const PageSize = 0x200

// HeaderLen is the size of the cartridge header record at physical
// offset 0 of the normal area.
const HeaderLen = 0x200

// HeaderMagic is the 4-byte ASCII code "HEAD", read big-endian.
const HeaderMagic = 0x48454144

// certificate region following the header; partition data can only
// start after it
const (
	CertificateOffset = 0x7000
	CertificateLen    = 0x200
)

// InfoLen is the size of the encrypted info sub-block embedded in the
// header.
const InfoLen = 0x70

// InitialDataLen is the size of the initial data block located in
// privileged process memory after secure area bring-up.
const InitialDataLen = 0x200

// header field offsets
const (
	hdrOffMagic       = 0x100
	hdrOffRomAreaPage = 0x104
	hdrOffBackupPage  = 0x108
	hdrOffKeyIndex    = 0x10C
	hdrOffRomSize     = 0x10D
	hdrOffVersion     = 0x10E
	hdrOffFlags       = 0x10F
	hdrOffPackageID   = 0x110
	hdrOffDataEndPage = 0x118
	hdrOffInfoIV      = 0x120
	hdrOffRootFsAddr  = 0x130
	hdrOffRootFsSize  = 0x138
	hdrOffRootFsHash  = 0x140
	hdrOffInitialHash = 0x160
	hdrOffSelSec      = 0x180
	hdrOffSelT1Key    = 0x184
	hdrOffSelKey      = 0x188
	hdrOffLimAreaPage = 0x18C
	hdrOffInfo        = 0x190
)

/*
	Header is the fixed-size cartridge header record read from physical
	offset 0 of the normal area. It is immutable once read, and replaced
	wholesale on each reload.
*/
type Header struct {
	Signature        [0x100]byte
	RomAreaStartPage uint32
	BackupAreaPage   uint32
	KeyIndex         byte
	RomSize          byte
	Version          byte
	Flags            byte
	PackageID        [8]byte
	ValidDataEndPage uint32
	InfoIV           [16]byte
	RootFsAddress    uint64
	RootFsSize       uint64
	RootFsHash       [32]byte
	InitialDataHash  [32]byte
	SelSec           uint32
	SelT1Key         uint32
	SelKey           uint32
	LimAreaPage      uint32
	RawInfo          [InfoLen]byte

	raw [HeaderLen]byte
}

/*
	ParseHeader parses and validates a raw cartridge header record. The
	magic word is verified here; all other sanity checks happen in the
	individual bring-up steps that consume the respective fields.
*/
func ParseHeader(b []byte) (*Header, error) {

	if len(b) < HeaderLen {
		return nil, fmt.Errorf("short cartridge header: %d bytes", len(b))
	}

	if m := binary.BigEndian.Uint32(b[hdrOffMagic:]); m != HeaderMagic {
		return nil, fmt.Errorf("invalid cartridge header magic word: 0x%08X", m)
	}

	h := &Header{
		RomAreaStartPage: binary.LittleEndian.Uint32(b[hdrOffRomAreaPage:]),
		BackupAreaPage:   binary.LittleEndian.Uint32(b[hdrOffBackupPage:]),
		KeyIndex:         b[hdrOffKeyIndex],
		RomSize:          b[hdrOffRomSize],
		Version:          b[hdrOffVersion],
		Flags:            b[hdrOffFlags],
		ValidDataEndPage: binary.LittleEndian.Uint32(b[hdrOffDataEndPage:]),
		RootFsAddress:    binary.LittleEndian.Uint64(b[hdrOffRootFsAddr:]),
		RootFsSize:       binary.LittleEndian.Uint64(b[hdrOffRootFsSize:]),
		SelSec:           binary.LittleEndian.Uint32(b[hdrOffSelSec:]),
		SelT1Key:         binary.LittleEndian.Uint32(b[hdrOffSelT1Key:]),
		SelKey:           binary.LittleEndian.Uint32(b[hdrOffSelKey:]),
		LimAreaPage:      binary.LittleEndian.Uint32(b[hdrOffLimAreaPage:]),
	}

	copy(h.Signature[:], b)
	copy(h.PackageID[:], b[hdrOffPackageID:])
	copy(h.InfoIV[:], b[hdrOffInfoIV:])
	copy(h.RootFsHash[:], b[hdrOffRootFsHash:])
	copy(h.InitialDataHash[:], b[hdrOffInitialHash:])
	copy(h.RawInfo[:], b[hdrOffInfo:])
	copy(h.raw[:], b)

	return h, nil
}

// Raw returns a copy of the raw header record.
func (h *Header) Raw() []byte {
	b := make([]byte, HeaderLen)
	copy(b, h.raw[:])
	return b
}

//
func alignDown(v, alignment uint64) uint64 {
	return v &^ (alignment - 1)
}

//
func alignUp(v, alignment uint64) uint64 {
	return (v + alignment - 1) &^ (alignment - 1)
}

//
func isAligned(v, alignment uint64) bool {
	return v&(alignment-1) == 0
}
