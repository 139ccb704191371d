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

package library

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// upper bound for downloaded images; local library files are not
// limited
const maxDownloadSize = 64 << 30

/*
	Resolve turns an image reference into a byte stream. HTTP(S) URLs
	are fetched; anything else is a path relative to the library root.
	References escaping the library root are rejected.
*/
func Resolve(ref string, i *Index) (io.ReadCloser, error) {

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return NewHTTPSource(ref)
	}

	if i == nil {
		return nil, fmt.Errorf("no library configured")
	}

	path := filepath.Join(i.dir, filepath.Clean("/"+ref))
	if !strings.HasPrefix(path, i.dir+string(filepath.Separator)) {
		return nil, fmt.Errorf("invalid image reference: %s", ref)
	}

	return NewFileSource(path)
}

//
func NewFileSource(file string) (*FileSource, error) {
	if f, err := os.Open(file); err != nil {
		return nil, err
	} else {
		return &FileSource{file: f, reader: bufio.NewReader(f)}, nil
	}
}

//
type FileSource struct {
	file   *os.File
	reader io.Reader
}

//
func (fs *FileSource) Read(p []byte) (n int, err error) {
	return fs.reader.Read(p)
}

//
func (fs *FileSource) Close() error {
	return fs.file.Close()
}

//
func NewHTTPSource(url string) (*HTTPSource, error) {
	if resp, err := http.Get(url); err != nil {
		return nil, err
	} else {
		return &HTTPSource{
			url:      url,
			response: resp,
			reader:   io.LimitReader(resp.Body, maxDownloadSize)}, nil
	}
}

//
type HTTPSource struct {
	url      string
	response *http.Response
	reader   io.Reader
}

//
func (hs *HTTPSource) Read(p []byte) (n int, err error) {
	return hs.reader.Read(p)
}

//
func (hs *HTTPSource) Close() error {
	return hs.response.Body.Close()
}
