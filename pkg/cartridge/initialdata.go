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
	"bytes"
	"crypto/sha256"
	"fmt"
)

/*
	InitialData retrieves the cartridge's initial data block, the key
	derivation seed material the privileged process keeps in memory
	once the secure area has been brought up. The block is located by
	content: an exact match of the header's 8-byte package id, verified
	by comparing the SHA-256 over the fixed-size window against the
	header's initial data hash. There is no fixed offset to go by.
*/
func (c *Cartridge) InitialData() ([]byte, error) {

	c.mx.Lock()
	defer c.mx.Unlock()

	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}

	// the block only exists in process memory after the secure area
	// has been mounted
	if err := c.openArea(AreaSecure); err != nil {
		return nil, fmt.Errorf("cannot open secure storage area: %v", err)
	}

	data, err := c.mem.Full()
	if err != nil {
		return nil, fmt.Errorf("cannot retrieve full memory snapshot: %v", err)
	}

	for off := 0; off+InitialDataLen <= len(data); off++ {

		if !bytes.Equal(data[off:off+8], c.header.PackageID[:]) {
			continue
		}

		sum := sha256.Sum256(data[off : off+InitialDataLen])
		if !bytes.Equal(sum[:], c.header.InitialDataHash[:]) {
			continue
		}

		return append([]byte(nil), data[off:off+InitialDataLen]...), nil
	}

	return nil, fmt.Errorf("unable to locate initial data block")
}
