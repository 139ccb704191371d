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
	"encoding/hex"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/blueyonder1234/cartdrive/pkg/hashfs"
	"github.com/blueyonder1234/cartdrive/pkg/keys"
	"github.com/blueyonder1234/cartdrive/pkg/platform"
)

// per-page reserved block constant for the unused area at the end of
// the cartridge
const unusedAreaBlockSize = 0x24

//
func unusedAreaSize(capacity uint64) uint64 {
	return (capacity / PageSize) * unusedAreaBlockSize
}

/*
	loadInfo runs the secure bring-up sequence: header read, info block
	decryption, firmware version gate, geometry derivation, partition
	tree parse. On success the status becomes loaded; every failure
	terminal releases all partially acquired state first, so no
	dangling partitions or open sessions survive a failed load.

	Caller must hold the context lock.
*/
func (c *Cartridge) loadInfo() {

	if c.status == StatusLoaded {
		return
	}

	c.status = StatusNotLoaded

	defer func() {
		if c.status != StatusLoaded {
			c.freeInfo(false)
		}
	}()

	// this step fails with access restricted if a security patch
	// disabling cartridge access is active; acquireHandleAndSession
	// records that terminal
	if err := c.readHeader(); err != nil {
		log.Errorf("cannot read cartridge header: %v", err)
		return
	}

	if err := c.decryptInfo(); err != nil {
		log.Errorf("cannot decrypt cartridge info block: %v", err)
		return
	}

	// the info block names the maximum unsupported reader firmware
	// version, not the minimum supported one; the installed version
	// must be strictly greater
	if c.lafwVersion <= c.info.FwVersion {
		log.Errorf(
			"installed reader firmware does not meet cartridge requirement (%d <= %d)",
			c.lafwVersion, c.info.FwVersion)
		c.status = StatusFirmwareUpdateRequired
		return
	}

	if err := c.storageAreaSizes(); err != nil {
		log.Errorf("cannot retrieve storage area sizes: %v", err)
		return
	}

	capacity, err := CapacityFromRomSize(c.header.RomSize)
	if err != nil {
		log.Error(err)
		return
	}
	c.capacity = capacity

	if c.plat.Firmware() == platform.FirmwareBypass {
		// the transport maxes out the reported secure area size under
		// the bypass firmware; recompute it from the capacity
		c.secureSize = capacity - (c.normalSize + unusedAreaSize(capacity))
		c.totalSize = c.normalSize + c.secureSize
		log.WithField("size", c.secureSize).Debug(
			"secure area size recomputed for bypass firmware")
	}

	if err := c.loadPartitions(); err != nil {
		log.Errorf("cannot parse cartridge partitions: %v", err)
		return
	}

	c.status = StatusLoaded

	log.WithFields(log.Fields{
		"total":      c.totalSize,
		"capacity":   c.capacity,
		"partitions": len(c.partitions),
	}).Info("cartridge loaded")
}

/*
	freeInfo releases everything acquired during a load attempt:
	header, info block, geometry, all partitions, and the open storage
	session. With clearStatus, the status is reset to not inserted.

	Caller must hold the context lock.
*/
func (c *Cartridge) freeInfo(clearStatus bool) {

	c.header = nil
	c.info = nil
	c.normalSize, c.secureSize, c.totalSize = 0, 0, 0
	c.capacity = 0
	c.partitions = nil

	c.closeArea()

	if clearStatus {
		c.status = StatusNotInserted
	}
}

/*
	readHeader reads and validates the cartridge header from physical
	offset 0 of the normal area. It reads the session directly instead
	of going through readStorageArea, which depends on the area sizes
	not retrieved yet at this point.
*/
func (c *Cartridge) readHeader() error {

	if err := c.openArea(AreaNormal); err != nil {
		return err
	}

	raw := make([]byte, HeaderLen)
	if err := c.session.ReadAt(raw, 0); err != nil {
		return err
	}

	hdr, err := ParseHeader(raw)
	if err != nil {
		return err
	}

	c.header = hdr
	return nil
}

//
func (c *Cartridge) decryptInfo() error {

	key, err := c.keys.Get(keys.PurposeInfo)
	if err != nil {
		return err
	}

	info, err := DecryptInfo(c.header, key)
	if err != nil {
		return err
	}

	c.info = info
	return nil
}

// storageAreaSizes opens the normal and secure areas independently
// and queries their byte sizes from the transport.
func (c *Cartridge) storageAreaSizes() error {

	for _, area := range []Area{AreaNormal, AreaSecure} {

		if err := c.openArea(area); err != nil {
			return err
		}

		size, err := c.session.Size()
		c.closeArea()

		if err != nil || size <= 0 {
			return fmt.Errorf(
				"cannot retrieve %s storage area size: %v", area, err)
		}

		if area == AreaNormal {
			c.normalSize = uint64(size)
		} else {
			c.secureSize = uint64(size)
		}
	}

	c.totalSize = c.normalSize + c.secureSize
	return nil
}

/*
	loadPartitions parses the root partition from the header's declared
	offset/size/hash and recursively all its children, resolving each
	child's name via the root's name table. The result is a flat slice
	with the root at index 0 and the children in entry table order. Any
	failure aborts the entire load.
*/
func (c *Cartridge) loadPartitions() error {

	root, err := c.parsePartition("", c.header.RootFsAddress, 0,
		c.header.RootFsHash[:], 0, uint32(c.header.RootFsSize))
	if err != nil {
		return err
	}

	partitions := make([]*hashfs.Partition, 0, root.EntryCount()+1)
	partitions = append(partitions, root)

	for i, e := range root.Entries() {

		if e.Name == "" {
			return fmt.Errorf("empty name for root partition entry #%d", i)
		}

		p, err := c.parsePartition(e.Name, root.DataOffset(&e), e.Size,
			e.Hash[:], e.HashTargetOffset, e.HashTargetSize)
		if err != nil {
			return err
		}

		partitions = append(partitions, p)
	}

	c.partitions = partitions
	return nil
}

/*
	parsePartition reads and validates one hash-verified partition. An
	empty name designates the root: its symbolic name defaults to
	"root" and its size is computed from its last entry instead of
	being supplied. Child names must match the fixed type table
	exactly.
*/
func (c *Cartridge) parsePartition(name string, offset, size uint64,
	hash []byte, hashTargetOffset uint64, hashTargetSize uint32) (
	*hashfs.Partition, error) {

	root := name == ""

	if offset < CertificateOffset+CertificateLen ||
		offset >= c.totalSize ||
		!isAligned(offset, PageSize) ||
		(size != 0 && (!isAligned(size, PageSize) ||
			size > c.totalSize-offset)) {
		return nil, fmt.Errorf(
			"invalid partition location: offset 0x%X, size 0x%X", offset, size)
	}

	typ := hashfs.TypeRoot
	if root {
		name = typ.String()
	} else {
		var err error
		if typ, err = hashfs.TypeFromName(name); err != nil {
			return nil, err
		}
	}

	logger := log.WithFields(log.Fields{"partition": name, "offset": offset})

	partial := make([]byte, hashfs.HeaderLen)
	if err := c.readStorageArea(partial, offset); err != nil {
		return nil, fmt.Errorf(
			"cannot read partial header of partition '%s': %v", name, err)
	}

	hdr, err := hashfs.ParseHeader(partial)
	if err != nil {
		logger.Debugf("rejected partial header:\n%s", hex.Dump(partial))
		return nil, fmt.Errorf("partition '%s': %v", name, err)
	}

	// a zero entry count is legitimate except on the root; a zero
	// name table size never is
	if (root && hdr.EntryCount == 0) || hdr.NameTableSize == 0 {
		logger.Debugf("rejected partial header:\n%s", hex.Dump(partial))
		return nil, fmt.Errorf(
			"partition '%s': invalid entry count %d / name table size %d",
			name, hdr.EntryCount, hdr.NameTableSize)
	}

	headerSize := alignUp(
		hashfs.HeaderSize(hdr.EntryCount, hdr.NameTableSize), PageSize)

	// the header size is computed from untrusted count fields; bound
	// it against the storage before allocating anything of that size
	if headerSize > c.totalSize-offset {
		logger.Debugf("rejected partial header:\n%s", hex.Dump(partial))
		return nil, fmt.Errorf(
			"partition '%s': header of 0x%X bytes exceeds storage at offset 0x%X",
			name, headerSize, offset)
	}

	full := make([]byte, headerSize)
	if err := c.readStorageArea(full, offset); err != nil {
		return nil, fmt.Errorf(
			"cannot read full header of partition '%s': %v", name, err)
	}

	if len(hash) == hashfs.HashLen && hashTargetSize != 0 &&
		hashTargetOffset+uint64(hashTargetSize) <= headerSize {

		sum := sha256.Sum256(
			full[hashTargetOffset : hashTargetOffset+uint64(hashTargetSize)])

		if !bytes.Equal(sum[:], hash) {
			return nil, fmt.Errorf(
				"header hash mismatch for partition '%s'", name)
		}
	}

	p, err := hashfs.NewPartition(name, typ, offset, size, headerSize, full)
	if err != nil {
		return nil, fmt.Errorf("partition '%s': %v", name, err)
	}

	if root {
		last, err := p.Entry(p.EntryCount() - 1)
		if err != nil {
			return nil, err
		}
		p.Size = headerSize + last.Offset + last.Size
	}

	logger.WithFields(log.Fields{
		"size": p.Size, "entries": p.EntryCount()}).Debug("partition parsed")

	return p, nil
}
