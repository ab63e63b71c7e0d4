// seehuhn.de/go/psd - a library for reading and writing PSD and PSB files
// Copyright (C) 2025  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package smartobject

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"

	"golang.org/x/exp/maps"
)

// Linkage describes where the data of a linked asset is kept.
type Linkage int

// These are the supported linkage kinds.
const (
	// Embedded assets are stored inside the document.
	Embedded Linkage = iota

	// External assets are referenced by file path.  A copy of the data is
	// kept, so that the document can be written without access to the
	// original file.
	External
)

func (l Linkage) String() string {
	switch l {
	case Embedded:
		return "embedded"
	case External:
		return "external"
	default:
		return fmt.Sprintf("Linkage(%d)", int(l))
	}
}

// Asset is an entry of the linked-asset table of a document.
type Asset struct {
	// Hash is the hex encoded SHA-256 hash of Data.
	Hash string

	// Name is the file name of the asset.
	Name string

	Data    []byte
	Linkage Linkage

	// Path is the location of an external asset.
	Path string

	// Width and Height are the native dimensions of the asset in pixels.
	Width, Height int

	// FileType is the four character file type code, for example "png ".
	FileType string

	refs int
}

// Refs returns the number of layers which reference the asset.
func (a *Asset) Refs() int {
	return a.refs
}

// Hash returns the key under which data is stored in a [Store].
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Store is the linked-asset table of a document.  Assets are identified by
// the hash of their data, so that identical assets are stored only once.
// Each entry counts the layers which refer to it.
type Store struct {
	assets map[string]*Asset
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{assets: make(map[string]*Asset)}
}

// Add inserts an asset and takes one reference to it.  If an asset with
// the same data is already present, the existing entry is used and the
// fields of a are ignored.  The hash of the data is returned.
func (s *Store) Add(a *Asset) string {
	h := Hash(a.Data)
	if old, ok := s.assets[h]; ok {
		old.refs++
		return h
	}
	entry := *a
	entry.Hash = h
	entry.refs = 1
	s.assets[h] = &entry
	return h
}

// Retain takes an additional reference to the asset with the given hash.
func (s *Store) Retain(hash string) error {
	a, ok := s.assets[hash]
	if !ok {
		return fmt.Errorf("unknown asset %q", hash)
	}
	a.refs++
	return nil
}

// Release drops a reference to the asset with the given hash.  The asset
// is removed once the last reference is released.
func (s *Store) Release(hash string) {
	a, ok := s.assets[hash]
	if !ok {
		return
	}
	a.refs--
	if a.refs <= 0 {
		delete(s.assets, hash)
	}
}

// Get returns the asset with the given hash, or nil if there is none.
func (s *Store) Get(hash string) *Asset {
	return s.assets[hash]
}

// Len returns the number of assets in the store.
func (s *Store) Len() int {
	return len(s.assets)
}

// Hashes returns the hashes of all assets, in sorted order.
func (s *Store) Hashes() []string {
	keys := maps.Keys(s.assets)
	slices.Sort(keys)
	return keys
}
