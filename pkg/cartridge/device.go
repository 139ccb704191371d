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

//
type Area byte

const (
	AreaNone Area = iota
	AreaNormal
	AreaSecure
)

//
func (a Area) String() string {
	switch a {
	case AreaNormal:
		return "normal"
	case AreaSecure:
		return "secure"
	}
	return "none"
}

/*
	Device is the block transport for a cartridge slot. The transport
	session is single-owner and stateful, only one storage area can be
	open at a time, so all calls into a Device and its derived handles
	and sessions must be serialized by the caller.
*/
type Device interface {

	// Inserted reports whether a cartridge is currently present in
	// the slot.
	Inserted() bool

	// Acquire retrieves a cartridge handle. This can fail transiently,
	// most commonly while a security patch disabling cartridge access
	// is active, so callers are expected to retry a bounded number of
	// times.
	Acquire() (Handle, error)

	// Notify returns the hardware detection signal. The channel fires
	// on both insertion and removal; receivers must re-check Inserted
	// after waking up.
	Notify() <-chan struct{}
}

//
type Handle interface {

	// OpenArea opens a storage session for the given area. On failure
	// the handle may have become invalid and must be closed.
	OpenArea(a Area) (Session, error)

	Close()
}

//
type Session interface {

	// ReadAt fills p with data starting at the given area-relative
	// offset. Offset and length must be aligned to the storage page
	// size.
	ReadAt(p []byte, off int64) error

	// Size returns the byte size of the open area.
	Size() (int64, error)

	Close()
}
