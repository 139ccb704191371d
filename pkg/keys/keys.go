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

package keys

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// PurposeInfo is the purpose tag for the key that decrypts the
// header's embedded info sub-block.
const PurposeInfo = "card_info_key"

// Store looks up key material by purpose tag.
type Store interface {
	Get(purpose string) ([]byte, error)
}

//
func NewStatic(keys map[string][]byte) *Static {
	s := &Static{keys: make(map[string][]byte)}
	for p, k := range keys {
		s.keys[p] = append([]byte(nil), k...)
	}
	return s
}

//
type Static struct {
	keys map[string][]byte
}

//
func (s *Static) Get(purpose string) ([]byte, error) {
	if k, ok := s.keys[purpose]; ok {
		return append([]byte(nil), k...), nil
	}
	return nil, fmt.Errorf("no key material for purpose '%s'", purpose)
}

/*
	Load reads a key file into a static store. The file uses the common
	one-key-per-line format:

		purpose_tag = hex_key_data

	Blank lines and lines starting with '#' are skipped. Malformed
	lines fail the load, a key store with silently missing entries is
	worse than no store.
*/
func Load(file string) (*Static, error) {

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s := &Static{keys: make(map[string][]byte)}
	scanner := bufio.NewScanner(f)
	line := 0

	for scanner.Scan() {
		line++

		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		parts := strings.SplitN(text, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed key file line %d", line)
		}

		purpose := strings.TrimSpace(parts[0])
		key, err := hex.DecodeString(strings.TrimSpace(parts[1]))
		if err != nil || purpose == "" {
			return nil, fmt.Errorf("malformed key file line %d", line)
		}

		s.keys[purpose] = key
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"file": file, "keys": len(s.keys)}).Debug(
		"key store loaded")

	return s, nil
}
