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
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/blueyonder1234/cartdrive/pkg/keys"
	"github.com/blueyonder1234/cartdrive/pkg/platform"
)

// synthetic image geometry: three child partitions behind a root
// partition, secure area starting at the secure partition's data
const (
	testRootOffset = 0x8000
	testBoundary   = 0x8A00
	testImageSize  = 0x9000

	testValidDataEndPage = 0x47
	testInstalledFw      = 12
)

var (
	testKey       = []byte("0123456789abcdef")
	testPackageID = [8]byte{0xC5, 0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD}
	testInfoIV    = [16]byte{
		0x0F, 0x0E, 0x0D, 0x0C, 0x0B, 0x0A, 0x09, 0x08,
		0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01, 0x00}
)

type testPart struct {
	name      string
	offset    uint64 // absolute
	size      uint64
	entrySize uint64
}

//
func testParts() []testPart {
	return []testPart{
		{"update", 0x8200, 0x400, 0x200},
		{"normal", 0x8600, 0x400, 0x200},
		{"secure", 0x8A00, 0x600, 0x400},
	}
}

/*
	buildTestImage assembles a complete synthetic cartridge image:
	header with encrypted info block, root partition, and the three
	child partitions, all hash-chained the way bring-up verifies them.
	cardFw is the firmware requirement field of the info block.
*/
func buildTestImage(t *testing.T, cardFw uint64) []byte {
	t.Helper()

	img := make([]byte, testImageSize)
	for i := range img {
		img[i] = byte(i*31 + 7)
	}

	// child partitions, one entry each
	for _, p := range testParts() {
		writePartitionHeader(img[p.offset:], []partEntry{
			{name: "data.bin", size: p.entrySize},
		})
	}

	// root partition referencing the children
	var rootEntries []partEntry
	for _, p := range testParts() {
		sum := sha256.Sum256(img[p.offset : p.offset+childHeaderLen()])
		rootEntries = append(rootEntries, partEntry{
			name:           p.name,
			offset:         p.offset - (testRootOffset + PageSize),
			size:           p.size,
			hashTargetSize: uint32(childHeaderLen()),
			hash:           sum,
		})
	}
	rootLen := writePartitionHeader(img[testRootOffset:], rootEntries)
	rootSum := sha256.Sum256(img[testRootOffset : testRootOffset+rootLen])

	// cartridge header
	binary.BigEndian.PutUint32(img[hdrOffMagic:], HeaderMagic)
	img[hdrOffRomSize] = RomSize1GiB
	copy(img[hdrOffPackageID:], testPackageID[:])
	binary.LittleEndian.PutUint32(img[hdrOffDataEndPage:], testValidDataEndPage)
	binary.LittleEndian.PutUint64(img[hdrOffRootFsAddr:], testRootOffset)
	binary.LittleEndian.PutUint64(img[hdrOffRootFsSize:], rootLen)
	copy(img[hdrOffRootFsHash:], rootSum[:])

	// the decryption IV is the byte reversal of the stored one
	var stored [16]byte
	for i, b := range testInfoIV {
		stored[len(stored)-i-1] = b
	}
	copy(img[hdrOffInfoIV:], stored[:])

	plain := testInfoPlain(cardFw)
	block, err := aes.NewCipher(testKey)
	if err != nil {
		t.Fatalf("cannot create test cipher: %v", err)
	}
	cipher.NewCBCEncrypter(block, testInfoIV[:]).CryptBlocks(
		img[hdrOffInfo:hdrOffInfo+InfoLen], plain)

	// initial data block hash; the block itself lives in the fake
	// memory snapshot, see newTestCartridge
	initSum := sha256.Sum256(testInitialData())
	copy(img[hdrOffInitialHash:], initSum[:])

	return img
}

//
func testInfoPlain(cardFw uint64) []byte {
	plain := make([]byte, InfoLen)
	binary.LittleEndian.PutUint64(plain[0x00:], cardFw)
	binary.LittleEndian.PutUint32(plain[0x08:], 0x11223344) // access control
	binary.LittleEndian.PutUint32(plain[0x0C:], 100)
	binary.LittleEndian.PutUint32(plain[0x10:], 200)
	binary.LittleEndian.PutUint32(plain[0x14:], 300)
	binary.LittleEndian.PutUint32(plain[0x18:], 400)
	binary.LittleEndian.PutUint32(plain[0x1C:], 2) // fw mode
	binary.LittleEndian.PutUint32(plain[0x20:], 5) // upp version
	plain[0x24] = 1                                // compatibility type
	for i := 0; i < 8; i++ {
		plain[0x28+i] = byte(0xA0 + i)
	}
	binary.LittleEndian.PutUint64(plain[0x30:], 0xDEADBEEF00112233)
	return plain
}

//
func testInitialData() []byte {
	block := make([]byte, InitialDataLen)
	copy(block, testPackageID[:])
	for i := 8; i < len(block); i++ {
		block[i] = byte(i * 13)
	}
	return block
}

type partEntry struct {
	name           string
	offset         uint64
	size           uint64
	hashTargetSize uint32
	hash           [32]byte
}

// writePartitionHeader serializes a partition header into b and
// returns its unaligned length.
func writePartitionHeader(b []byte, entries []partEntry) uint64 {

	binary.BigEndian.PutUint32(b, 0x48465330)
	binary.LittleEndian.PutUint32(b[0x4:], uint32(len(entries)))

	var names []byte
	for i, e := range entries {
		rec := b[0x10+i*0x40:]
		binary.LittleEndian.PutUint64(rec, e.offset)
		binary.LittleEndian.PutUint64(rec[0x8:], e.size)
		binary.LittleEndian.PutUint32(rec[0x10:], uint32(len(names)))
		binary.LittleEndian.PutUint32(rec[0x14:], e.hashTargetSize)
		binary.LittleEndian.PutUint64(rec[0x18:], 0) // hash target offset
		copy(rec[0x20:0x40], e.hash[:])
		names = append(names, e.name...)
		names = append(names, 0)
	}

	binary.LittleEndian.PutUint32(b[0x8:], uint32(len(names)))
	copy(b[0x10+len(entries)*0x40:], names)

	return 0x10 + uint64(len(entries))*0x40 + uint64(len(names))
}

// childHeaderLen is the unaligned header length of the single-entry
// child partitions built by buildTestImage.
func childHeaderLen() uint64 {
	return 0x10 + 0x40 + uint64(len("data.bin")+1)
}

/*
	memDevice is an in-memory slot device. The boundary splits the flat
	image into the normal and secure areas the way a real transport
	exposes them.
*/
type memDevice struct {
	image       []byte
	boundary    int64
	inserted    bool
	notify      chan struct{}
	denyAcquire bool
	acquireFail int // remaining transient failures
}

//
func newMemDevice(img []byte) *memDevice {
	return &memDevice{
		image:    img,
		boundary: testBoundary,
		inserted: true,
		notify:   make(chan struct{}, 1),
	}
}

func (d *memDevice) Inserted() bool          { return d.inserted }
func (d *memDevice) Notify() <-chan struct{} { return d.notify }

func (d *memDevice) Acquire() (Handle, error) {
	if d.denyAcquire {
		return nil, fmt.Errorf("cartridge access disabled")
	}
	if d.acquireFail > 0 {
		d.acquireFail--
		return nil, fmt.Errorf("transient transport failure")
	}
	return &memHandle{dev: d}, nil
}

// signal mimics a hardware detection event.
func (d *memDevice) signal() {
	select {
	case d.notify <- struct{}{}:
	default:
	}
}

type memHandle struct {
	dev *memDevice
}

func (h *memHandle) OpenArea(a Area) (Session, error) {
	switch a {
	case AreaNormal:
		return &memSession{data: h.dev.image[:h.dev.boundary]}, nil
	case AreaSecure:
		return &memSession{data: h.dev.image[h.dev.boundary:]}, nil
	}
	return nil, fmt.Errorf("cannot open storage area: %s", a)
}

func (h *memHandle) Close() {}

type memSession struct {
	data []byte
}

func (s *memSession) ReadAt(p []byte, off int64) error {
	if off < 0 || off+int64(len(p)) > int64(len(s.data)) {
		return fmt.Errorf(
			"area read of %d bytes at 0x%X out of bounds", len(p), off)
	}
	copy(p, s.data[off:])
	return nil
}

func (s *memSession) Size() (int64, error) { return int64(len(s.data)), nil }
func (s *memSession) Close()               {}

type memSnapshot struct {
	seg  []byte
	full []byte
}

func (m *memSnapshot) DataSegment() ([]byte, error) { return m.seg, nil }
func (m *memSnapshot) Full() ([]byte, error)        { return m.full, nil }

// testDataSegment embeds a reader firmware blob with the given
// popcount version at an arbitrary interior offset.
func testDataSegment(version int) []byte {

	seg := make([]byte, lafwBlobLen+0x4000)
	off := 0x1234

	binary.BigEndian.PutUint32(seg[off+lafwOffMagic:], lafwMagic)
	binary.LittleEndian.PutUint32(seg[off+lafwOffType:], lafwTypeRead)
	binary.LittleEndian.PutUint64(
		seg[off+lafwOffVersion:], 1<<uint(version)-1)

	return seg
}

//
func testFullMemory() []byte {
	full := make([]byte, 0x3000)
	for i := range full {
		full[i] = byte(i * 17)
	}
	copy(full[0x1100:], testInitialData())
	return full
}

//
func newTestCartridge(
	t *testing.T, img []byte, fw platform.FirmwareType) (*Cartridge, *memDevice) {
	t.Helper()

	dev := newMemDevice(img)

	c, err := NewCartridge(dev,
		keys.NewStatic(map[string][]byte{keys.PurposeInfo: testKey}),
		platform.NewStatic(false, fw),
		&memSnapshot{seg: testDataSegment(testInstalledFw), full: testFullMemory()})
	if err != nil {
		t.Fatalf("cannot create cartridge context: %v", err)
	}

	c.settle = 0
	return c, dev
}

// loadNow runs a synchronous bring-up outside the detection routine.
func loadNow(c *Cartridge) {
	c.mx.Lock()
	c.loadInfo()
	c.mx.Unlock()
}
