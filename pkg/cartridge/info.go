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
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
)

/*
	Info is the decrypted content of the header's embedded info
	sub-block.

	FwVersion holds the highest reader firmware version this cartridge
	does *not* support; the installed firmware must be strictly greater
	for the cartridge to load. This inverted reading is intentional
	upstream behavior and is preserved exactly.
*/
type Info struct {
	FwVersion         uint64
	AccessControl     uint32
	Wait1TimeRead     uint32
	Wait2TimeRead     uint32
	Wait1TimeWrite    uint32
	Wait2TimeWrite    uint32
	FwMode            uint32
	UppVersion        uint32
	CompatibilityType byte
	UppHash           [8]byte
	UppID             uint64
}

/*
	DecryptInfo decrypts and parses the info sub-block of the given
	header with the supplied AES-128 key. The IV is the byte reversal
	of the header's IV field. Beyond successful decryption, no content
	validation happens here.
*/
func DecryptInfo(hdr *Header, key []byte) (*Info, error) {

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cannot initialize info block cipher: %v", err)
	}

	iv := make([]byte, len(hdr.InfoIV))
	for i, b := range hdr.InfoIV {
		iv[len(iv)-i-1] = b
	}

	plain := make([]byte, InfoLen)
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, hdr.RawInfo[:])

	info := &Info{
		FwVersion:         binary.LittleEndian.Uint64(plain[0x00:]),
		AccessControl:     binary.LittleEndian.Uint32(plain[0x08:]),
		Wait1TimeRead:     binary.LittleEndian.Uint32(plain[0x0C:]),
		Wait2TimeRead:     binary.LittleEndian.Uint32(plain[0x10:]),
		Wait1TimeWrite:    binary.LittleEndian.Uint32(plain[0x14:]),
		Wait2TimeWrite:    binary.LittleEndian.Uint32(plain[0x18:]),
		FwMode:            binary.LittleEndian.Uint32(plain[0x1C:]),
		UppVersion:        binary.LittleEndian.Uint32(plain[0x20:]),
		CompatibilityType: plain[0x24],
		UppID:             binary.LittleEndian.Uint64(plain[0x30:]),
	}
	copy(info.UppHash[:], plain[0x28:])

	return info, nil
}
