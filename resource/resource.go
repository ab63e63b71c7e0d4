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

// Package resource implements the image resources section of PSD and PSB
// files.
//
// The section is a sequence of blocks, each identified by a 16-bit ID.
// Blocks which this package does not interpret are kept byte-for-byte, so
// that they can be written back unchanged.
package resource

import (
	"fmt"

	"seehuhn.de/go/psd/internal/binio"
)

// These are the IDs of some well-known resource blocks.
const (
	IDResolutionInfo   uint16 = 1005
	IDAlphaNames       uint16 = 1006
	IDLayerState       uint16 = 1024
	IDLayerGroups      uint16 = 1026
	IDThumbnail        uint16 = 1036
	IDICCProfile       uint16 = 1039
	IDUnicodeAlphaName uint16 = 1045
	IDVersionInfo      uint16 = 1057
	IDXMP              uint16 = 1060
	IDLayerSelection   uint16 = 1069
	IDLayerGroupsOn    uint16 = 1072
)

var blockNames = map[uint16]string{
	IDResolutionInfo:   "ResolutionInfo",
	IDAlphaNames:       "AlphaNames",
	IDLayerState:       "LayerState",
	IDLayerGroups:      "LayerGroups",
	IDThumbnail:        "Thumbnail",
	IDICCProfile:       "ICCProfile",
	IDUnicodeAlphaName: "UnicodeAlphaNames",
	IDVersionInfo:      "VersionInfo",
	IDXMP:              "XMP",
	IDLayerSelection:   "LayerSelectionIDs",
	IDLayerGroupsOn:    "LayerGroupsEnabled",
}

// Name returns a human readable name for a resource ID.
func Name(id uint16) string {
	if name, ok := blockNames[id]; ok {
		return name
	}
	return fmt.Sprintf("Resource(%d)", id)
}

// Block is a single image resource block.
type Block struct {
	// Signature is normally "8BIM".  The empty string is written as "8BIM".
	Signature string

	ID   uint16
	Name string
	Data []byte
}

// Blocks is the list of image resources of a document, in file order.
type Blocks []*Block

var signatures = []string{"8BIM", "MeSa", "AgHg", "PHUT", "DCSR"}

// Decode reads the image resources section, including the leading length
// field.
func Decode(r *binio.Reader) (Blocks, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	sr, err := r.Sub("image resources", int64(n))
	if err != nil {
		return nil, err
	}

	var res Blocks
	for sr.Remaining() > 0 {
		blk, err := readBlock(sr)
		if err != nil {
			return nil, err
		}
		res = append(res, blk)
	}
	return res, sr.Finish()
}

func readBlock(r *binio.Reader) (*Block, error) {
	sig, err := r.ReadSignature(signatures...)
	if err != nil {
		return nil, err
	}
	id, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	name, err := r.ReadPascalString(2)
	if err != nil {
		return nil, err
	}
	size, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	data, err := r.ReadBytes(int64(size))
	if err != nil {
		return nil, err
	}
	// Some writers omit the padding after the last block.
	if pad := binio.PadLength(int64(size), 2); pad > 0 && r.Remaining() >= pad {
		if err := r.Skip(pad); err != nil {
			return nil, err
		}
	}
	return &Block{Signature: sig, ID: id, Name: name, Data: data}, nil
}

// Encode appends the image resources section, including the leading length
// field, to w.
func (b Blocks) Encode(w *binio.Writer) {
	body := binio.NewWriter()
	for _, blk := range b {
		sig := blk.Signature
		if sig == "" {
			sig = "8BIM"
		}
		body.WriteKey(sig)
		body.WriteUint16(blk.ID)
		body.WritePascalString(blk.Name, 2)
		body.WriteUint32(uint32(len(blk.Data)))
		body.Write(blk.Data)
		body.Pad(int64(len(blk.Data)), 2)
	}
	w.WriteUint32(uint32(body.Len()))
	w.Write(body.Bytes())
}

// Size returns the number of bytes needed to encode the section, not
// counting the length field.
func (b Blocks) Size() int64 {
	var total int64
	for _, blk := range b {
		nameLen := int64(len(binio.PascalStringBytes(blk.Name))) + 1
		total += 4 + 2 + nameLen + binio.PadLength(nameLen, 2)
		total += 4 + int64(len(blk.Data)) + binio.PadLength(int64(len(blk.Data)), 2)
	}
	return total
}

// Get returns the first block with the given ID, or nil if there is none.
func (b Blocks) Get(id uint16) *Block {
	for _, blk := range b {
		if blk.ID == id {
			return blk
		}
	}
	return nil
}

// Set stores data under the given ID.  An existing block keeps its position
// in the list, otherwise a new block is appended.
func (b *Blocks) Set(id uint16, data []byte) {
	if blk := b.Get(id); blk != nil {
		blk.Data = data
		return
	}
	*b = append(*b, &Block{Signature: "8BIM", ID: id, Data: data})
}

// Delete removes all blocks with the given ID.
func (b *Blocks) Delete(id uint16) {
	out := (*b)[:0]
	for _, blk := range *b {
		if blk.ID != id {
			out = append(out, blk)
		}
	}
	clear((*b)[len(out):])
	*b = out
}

// Clone returns a copy of the list which shares no blocks with b.
func (b Blocks) Clone() Blocks {
	if b == nil {
		return nil
	}
	res := make(Blocks, len(b))
	for i, blk := range b {
		c := *blk
		c.Data = append([]byte(nil), blk.Data...)
		res[i] = &c
	}
	return res
}
