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

// Package tagged implements the "additional layer information" blocks of
// PSD and PSB files.
//
// Tagged blocks appear at the end of each layer record and at the end of
// the layer and mask information section.  Each block is identified by a
// four character key.  This package provides a generic representation
// which keeps unknown blocks byte-for-byte, together with codecs for the
// blocks used by the document model.
package tagged

import (
	"bytes"
	"fmt"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/internal/binio"
)

// These are the keys of some well-known tagged blocks.
const (
	KeyUnicodeName     = "luni"
	KeyLayerID         = "lyid"
	KeySectionDivider  = "lsct"
	KeyNestedSection   = "lsdk"
	KeyProtection      = "lspf"
	KeyPlacedLayer     = "PlLd"
	KeyPlacedLayerData = "SoLd"
	KeyLinked          = "lnk2"
	KeyLinkedData      = "lnkD"
	KeyLinked3         = "lnk3"
	KeyLinkedExternal  = "lnkE"
	KeyLayers16        = "Lr16"
	KeyLayers32        = "Lr32"
	KeyLayers          = "Layr"
)

// largeKeys lists the blocks which use 64-bit length fields in PSB files.
var largeKeys = map[string]bool{
	"LMsk": true, "Lr16": true, "Lr32": true, "Layr": true,
	"Mt16": true, "Mt32": true, "Mtrn": true, "Alph": true,
	"FMsk": true, "lnk2": true, "FEid": true, "FXid": true,
	"PxSD": true, "cinf": true,
}

// HasLargeLength reports whether the block with the given key uses a 64-bit
// length field in files of version v.
func HasLargeLength(key string, v psd.Version) bool {
	return v == psd.PSB && largeKeys[key]
}

// Block is a single tagged block.
type Block struct {
	// Signature is "8BIM" or "8B64".  The empty string is written as "8BIM".
	Signature string

	Key  string
	Data []byte
}

// Blocks is a list of tagged blocks, in file order.
type Blocks []*Block

// ReadList reads tagged blocks until the end of the (sub-)reader r.
// If fewer bytes than a block header remain, these are skipped.
// The data of each block is followed by padding to a multiple of align
// bytes.
func ReadList(r *binio.Reader, v psd.Version, align int) (Blocks, error) {
	var res Blocks
	for r.Remaining() >= 12 {
		blk, err := readBlock(r, v, align)
		if err != nil {
			return nil, err
		}
		res = append(res, blk)
	}
	if r.Remaining() > 0 {
		err := r.Skip(r.Remaining())
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

func readBlock(r *binio.Reader, v psd.Version, align int) (*Block, error) {
	sig, err := r.ReadSignature("8BIM", "8B64")
	if err != nil {
		return nil, err
	}
	key, err := r.ReadKey()
	if err != nil {
		return nil, err
	}
	var n int64
	if HasLargeLength(key, v) {
		n, err = r.ReadLength(psd.PSB)
	} else {
		n, err = r.ReadLength(psd.PSD)
	}
	if err != nil {
		return nil, err
	}
	data, err := r.ReadBytes(n)
	if err != nil {
		return nil, fmt.Errorf("tagged block %q: %w", key, err)
	}
	if pad := binio.PadLength(n, align); pad > 0 && r.Remaining() >= pad {
		err = r.Skip(pad)
		if err != nil {
			return nil, err
		}
	}
	return &Block{Signature: sig, Key: key, Data: data}, nil
}

// WriteList appends the blocks to w.  The data of each block is padded to
// a multiple of align bytes and the padding is included in the block
// length.
func WriteList(w *binio.Writer, v psd.Version, align int, blocks Blocks) {
	for _, blk := range blocks {
		sig := blk.Signature
		if sig == "" {
			sig = "8BIM"
		}
		w.WriteKey(sig)
		w.WriteKey(blk.Key)
		n := int64(len(blk.Data))
		padded := n + binio.PadLength(n, align)
		if HasLargeLength(blk.Key, v) {
			w.WriteLength(psd.PSB, padded)
		} else {
			w.WriteLength(psd.PSD, padded)
		}
		w.Write(blk.Data)
		w.Pad(n, align)
	}
}

// Get returns the first block with the given key, or nil if there is none.
func (b Blocks) Get(key string) *Block {
	for _, blk := range b {
		if blk.Key == key {
			return blk
		}
	}
	return nil
}

// Set stores data under the given key.  An existing block keeps its
// position in the list, otherwise a new block is appended.
func (b *Blocks) Set(key string, data []byte) {
	if blk := b.Get(key); blk != nil {
		blk.Data = data
		return
	}
	*b = append(*b, &Block{Signature: "8BIM", Key: key, Data: data})
}

// Delete removes all blocks with the given keys.
func (b *Blocks) Delete(keys ...string) {
	out := (*b)[:0]
outer:
	for _, blk := range *b {
		for _, key := range keys {
			if blk.Key == key {
				continue outer
			}
		}
		out = append(out, blk)
	}
	clear((*b)[len(out):])
	*b = out
}

// Clone returns a deep copy of b.
func (b Blocks) Clone() Blocks {
	if b == nil {
		return nil
	}
	res := make(Blocks, len(b))
	for i, blk := range b {
		res[i] = &Block{
			Signature: blk.Signature,
			Key:       blk.Key,
			Data:      bytes.Clone(blk.Data),
		}
	}
	return res
}

// newReader returns a reader which is limited to the data of a block.
func newReader(key string, data []byte) *binio.Reader {
	section := "tagged block " + key
	r := binio.NewReader(bytes.NewReader(data), section)
	sr, _ := r.Sub(section, int64(len(data)))
	return sr
}
