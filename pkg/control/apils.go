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

package control

import (
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	"github.com/blueyonder1234/cartdrive/pkg/hashfs"
)

// dumpChunkSize is the read granularity when streaming entry data.
const dumpChunkSize = 0x100000

//
func (a *api) list(w http.ResponseWriter, req *http.Request) {

	fs, err := a.getFS(req)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	if wantsJSON(req) {
		sendJSONReply(fs.Entries(), http.StatusOK, w)
		return
	}

	read, write := io.Pipe()
	go func() {
		WriteEntryList(write, fs)
		write.Close()
	}()

	sendStreamReply(read, http.StatusOK, w)
}

//
func (a *api) dump(w http.ResponseWriter, req *http.Request) {

	fs, err := a.getFS(req)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	name := getArg(req, "file")
	if name == "" {
		handleError(fmt.Errorf("no file given"),
			http.StatusUnprocessableEntity, w)
		return
	}

	entry, err := fs.EntryByName(name)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	read, write := io.Pipe()

	go func() {
		d := hex.Dumper(write)
		buf := make([]byte, dumpChunkSize)
		for off := int64(0); off < int64(entry.Size); off += dumpChunkSize {
			chunk := buf
			if rest := int64(entry.Size) - off; rest < dumpChunkSize {
				chunk = buf[:rest]
			}
			if err := fs.ReadEntryData(entry, chunk, off); err != nil {
				fmt.Fprintf(write, "\nerror reading '%s': %v\n", name, err)
				break
			}
			d.Write(chunk)
		}
		d.Close()
		write.Close()
	}()

	sendStreamReply(read, http.StatusOK, w)
}

// getFS opens the file system of the partition named in the request,
// the root partition when none is given.
func (a *api) getFS(req *http.Request) (*hashfs.FS, error) {

	typ := hashfs.TypeRoot
	if name := getArg(req, "partition"); name != "" {
		var err error
		if typ, err = hashfs.TypeFromName(name); err != nil {
			return nil, err
		}
	}

	return a.daemon.Cartridge().FileSystem(typ)
}

//
func WriteEntryList(w io.Writer, fs *hashfs.FS) {

	p := fs.Partition()
	fmt.Fprintf(w, "\n%s (offset 0x%x, size 0x%x)\n\n", p.Name, p.Offset, p.Size)

	for _, e := range fs.Entries() {
		fmt.Fprintf(w, "%-40s%12d\n", e.Name, e.Size)
	}
	fmt.Fprintf(w, "\n%d entries, %d bytes\n\n",
		p.EntryCount(), fs.TotalDataSize())
}
