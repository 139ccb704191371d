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
	"sync"
	"time"

	"github.com/blueyonder1234/cartdrive/pkg/hashfs"
	"github.com/blueyonder1234/cartdrive/pkg/keys"
	"github.com/blueyonder1234/cartdrive/pkg/platform"
)

// ReadBufferSize is the size of the scratch buffer for unaligned
// storage reads. Allocated once per cartridge context.
const ReadBufferSize = 0x800000

// settle delay after reinsertion; the slot hardware needs quiescence
// before it can be accessed again
const accessSettleTime = 3 * time.Second

/*
	NewCartridge creates a cartridge context for the given slot device.
	The installed reader firmware version is determined here, once, by
	scanning the privileged process data segment; failure to locate the
	firmware blob fails construction. Call Start to begin detection,
	and Stop to tear the context down.

	All mutation of the context happens on the detection goroutine,
	under a single lock shared with every query operation. Cartridge
	access is deliberately serialized: the underlying transport session
	is single-owner and stateful, only one area can be open at a time.
*/
func NewCartridge(dev Device, ks keys.Store, plat platform.Platform,
	mem platform.Memory) (*Cartridge, error) {

	if dev == nil || ks == nil || plat == nil || mem == nil {
		return nil, fmt.Errorf("nil cartridge collaborator")
	}

	fw, err := scanFirmwareVersion(mem, plat.DevelopmentUnit())
	if err != nil {
		return nil, err
	}

	return &Cartridge{
		dev:         dev,
		keys:        ks,
		plat:        plat,
		mem:         mem,
		lafwVersion: fw,
		readBuf:     make([]byte, ReadBufferSize),
		settle:      accessSettleTime,
		notify:      make(chan struct{}, 1),
		exit:        make(chan struct{}),
		release:     make(chan bool),
	}, nil
}

//
type Cartridge struct {
	mx sync.Mutex

	dev  Device
	keys keys.Store
	plat platform.Platform
	mem  platform.Memory

	lafwVersion uint64
	readBuf     []byte
	settle      time.Duration

	status  Status
	handle  Handle
	session Session
	area    Area

	header                           *Header
	info                             *Info
	normalSize, secureSize, totalSize uint64
	capacity                         uint64
	partitions                       []*hashfs.Partition

	notify  chan struct{}
	exit    chan struct{}
	release chan bool
	running bool
}

// FirmwareVersion returns the installed reader firmware version
// determined at construction.
func (c *Cartridge) FirmwareVersion() uint64 {
	return c.lafwVersion
}

/*
	Notify returns the status change signal. It is edge-triggered and
	level-reset: receivers must re-query the current status after being
	signaled, events are not queued.
*/
func (c *Cartridge) Notify() <-chan struct{} {
	return c.notify
}

//
func (c *Cartridge) Status() Status {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.status
}

// Header returns a copy of the loaded cartridge header.
func (c *Cartridge) Header() (*Header, error) {
	c.mx.Lock()
	defer c.mx.Unlock()

	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}

	h := *c.header
	return &h, nil
}

// Info returns a copy of the decrypted info block.
func (c *Cartridge) Info() (*Info, error) {
	c.mx.Lock()
	defer c.mx.Unlock()

	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}

	i := *c.info
	return &i, nil
}

// TotalSize returns the size of the logical address space, the
// concatenation of the normal and secure areas.
func (c *Cartridge) TotalSize() (uint64, error) {
	c.mx.Lock()
	defer c.mx.Unlock()

	if err := c.ensureLoaded(); err != nil {
		return 0, err
	}
	return c.totalSize, nil
}

// TrimmedSize returns the size of the meaningful data on the
// cartridge, header plus everything up to the header's valid data end.
func (c *Cartridge) TrimmedSize() (uint64, error) {
	c.mx.Lock()
	defer c.mx.Unlock()

	if err := c.ensureLoaded(); err != nil {
		return 0, err
	}
	return HeaderLen + uint64(c.header.ValidDataEndPage)*PageSize, nil
}

// Capacity returns the raw cartridge capacity derived from the
// header's geometry code.
func (c *Cartridge) Capacity() (uint64, error) {
	c.mx.Lock()
	defer c.mx.Unlock()

	if err := c.ensureLoaded(); err != nil {
		return 0, err
	}
	return c.capacity, nil
}

// ReadStorage fills p with cartridge data starting at the given
// logical offset. See readStorageArea for the alignment and area
// handling behind this.
func (c *Cartridge) ReadStorage(p []byte, off int64) error {

	if off < 0 {
		return fmt.Errorf("invalid storage read offset %d", off)
	}

	c.mx.Lock()
	defer c.mx.Unlock()
	return c.readStorageArea(p, uint64(off))
}

// Certificate returns a copy of the cartridge's device certificate
// region, read from its fixed location in the normal storage area.
func (c *Cartridge) Certificate() ([]byte, error) {
	c.mx.Lock()
	defer c.mx.Unlock()

	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}

	cert := make([]byte, CertificateLen)
	if err := c.readStorageArea(cert, CertificateOffset); err != nil {
		return nil, fmt.Errorf("cannot read certificate: %v", err)
	}

	return cert, nil
}

/*
	Partition returns the partition with the given type tag. The root
	partition is index 0 and resolved directly; other types scan the
	children by symbolic name. The returned partition is the loaded
	instance itself, stable across calls while the cartridge stays
	loaded, and must be treated as read-only.
*/
func (c *Cartridge) Partition(t hashfs.Type) (*hashfs.Partition, error) {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.partition(t)
}

//
func (c *Cartridge) partition(t hashfs.Type) (*hashfs.Partition, error) {

	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}

	if t == hashfs.TypeRoot {
		return c.partitions[0], nil
	}

	for _, p := range c.partitions[1:] {
		if p.Name == t.String() {
			return p, nil
		}
	}

	return nil, fmt.Errorf("no '%s' partition on cartridge", t)
}

// FileSystem returns a read-only filesystem over the partition with
// the given type tag.
func (c *Cartridge) FileSystem(t hashfs.Type) (*hashfs.FS, error) {

	p, err := c.Partition(t)
	if err != nil {
		return nil, err
	}

	return hashfs.NewFS(p, c.ReadStorage), nil
}

// EntryInfo resolves an entry of the given partition to its absolute
// storage offset and size.
func (c *Cartridge) EntryInfo(t hashfs.Type, name string) (uint64, uint64, error) {
	c.mx.Lock()
	defer c.mx.Unlock()

	p, err := c.partition(t)
	if err != nil {
		return 0, 0, err
	}

	e, err := p.EntryByName(name)
	if err != nil {
		return 0, 0, err
	}

	return p.DataOffset(e), e.Size, nil
}

//
func (c *Cartridge) ensureLoaded() error {
	if c.status != StatusLoaded {
		return fmt.Errorf("no cartridge loaded: %s", c.status)
	}
	return nil
}

//
func (c *Cartridge) signalStatusChange() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}
