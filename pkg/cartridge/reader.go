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
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// bounded retry at the handle acquisition step only; all other
// transport failures surface immediately
const (
	handleRetries      = 10
	handleRetryBackoff = 100 * time.Millisecond
)

/*
	readStorageArea reads cartridge storage at a logical offset within
	the flat address space formed by concatenating the normal and
	secure areas. Callers see one byte-addressable space; area
	selection, boundary straddling and page alignment are handled here.

	Physical reads must be page-aligned and area-exclusive. Unaligned
	requests go through the scratch buffer: the enclosing aligned block
	is read and the requested sub-range copied out, recursing for the
	remainder when the block exceeds the scratch buffer. Underlying
	read failures abort the whole call, partial results are never
	reported as success.

	Recursion depth is bounded by len(out) / ReadBufferSize, plus one
	level for the area split.

	Caller must hold the context lock.
*/
func (c *Cartridge) readStorageArea(out []byte, offset uint64) error {

	size := uint64(len(out))

	if c.status == StatusNotInserted || c.normalSize == 0 || c.secureSize == 0 ||
		size == 0 || offset > c.totalSize || size > c.totalSize-offset {
		return fmt.Errorf(
			"invalid storage read of %d bytes at offset 0x%X", size, offset)
	}

	area := AreaNormal
	if offset >= c.normalSize {
		area = AreaSecure
	}

	// handle reads that span both storage areas: normal area tail
	// first, then the secure area head
	if area == AreaNormal && offset+size > c.normalSize {

		diff := c.normalSize - offset

		if err := c.readStorageArea(out[:diff], offset); err != nil {
			return err
		}

		out = out[diff:]
		size -= diff
		offset = c.normalSize
		area = AreaSecure
	}

	if err := c.openArea(area); err != nil {
		return fmt.Errorf("cannot open %s storage area: %v", area, err)
	}

	base := offset
	if area == AreaSecure {
		base -= c.normalSize
	}

	if isAligned(base, PageSize) && isAligned(size, PageSize) {
		if err := c.session.ReadAt(out, int64(base)); err != nil {
			return fmt.Errorf(
				"aligned read of %d bytes at 0x%X from %s area failed: %v",
				size, base, area, err)
		}
		return nil
	}

	// read the enclosing page-aligned block through the scratch buffer
	blockStart := alignDown(base, PageSize)
	blockEnd := alignUp(base+size, PageSize)
	blockSize := blockEnd - blockStart

	dataStart := base - blockStart
	chunkSize := blockSize
	outChunkSize := size

	if blockSize > ReadBufferSize {
		chunkSize = ReadBufferSize
		outChunkSize = ReadBufferSize - dataStart
	}

	if err := c.session.ReadAt(c.readBuf[:chunkSize], int64(blockStart)); err != nil {
		return fmt.Errorf(
			"unaligned read of %d bytes at 0x%X from %s area failed: %v",
			chunkSize, blockStart, area, err)
	}

	copy(out, c.readBuf[dataStart:dataStart+outChunkSize])

	if blockSize > ReadBufferSize {
		return c.readStorageArea(out[outChunkSize:], offset+outChunkSize)
	}

	return nil
}

/*
	openArea ensures a storage session on the requested area. If a
	valid handle exists and the area is already open, this is a no-op;
	otherwise the previous session is torn down and a new handle and
	session are acquired.
*/
func (c *Cartridge) openArea(area Area) error {

	if c.status == StatusNotInserted ||
		(area != AreaNormal && area != AreaSecure) {
		return fmt.Errorf("invalid storage area request: %s", area)
	}

	if c.handle != nil && c.session != nil && c.area == area {
		return nil
	}

	c.closeArea()

	if err := c.acquireHandleAndSession(area); err != nil {
		log.Errorf("cannot acquire handle for %s storage area: %v", area, err)
		return err
	}

	c.area = area
	return nil
}

/*
	acquireHandleAndSession retrieves a cartridge handle and opens the
	given storage area on it, retrying up to 10 times with 100 ms
	backoff since the transport can fail transiently. When the retries
	are exhausted during initial bring-up of the normal area, the
	failure is recorded as access restricted rather than retried
	further: the usual cause is a security patch disabling cartridge
	access altogether.
*/
func (c *Cartridge) acquireHandleAndSession(area Area) error {

	var err error

	for i := 0; i < handleRetries; i++ {

		if err != nil {
			time.Sleep(handleRetryBackoff)
		}

		var h Handle
		if h, err = c.dev.Acquire(); err != nil {
			continue
		}

		var s Session
		if s, err = h.OpenArea(area); err != nil {
			h.Close() // handle may have gone invalid
			continue
		}

		c.handle = h
		c.session = s
		return nil
	}

	if c.status == StatusNotLoaded && area == AreaNormal {
		c.status = StatusAccessRestricted
	}

	return err
}

//
func (c *Cartridge) closeArea() {

	if c.session != nil {
		c.session.Close()
		c.session = nil
	}

	if c.handle != nil {
		c.handle.Close()
		c.handle = nil
	}

	c.area = AreaNone
}
