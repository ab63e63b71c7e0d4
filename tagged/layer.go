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

package tagged

import (
	"errors"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/internal/binio"
)

// DecodeUnicodeName decodes the data of a "luni" block.
func DecodeUnicodeName(data []byte) (string, error) {
	return newReader(KeyUnicodeName, data).ReadUnicodeString()
}

// EncodeUnicodeName encodes the data of a "luni" block.
func EncodeUnicodeName(name string) []byte {
	w := binio.NewWriter()
	w.WriteUnicodeString(name, false)
	w.Pad(int64(w.Len()), 4)
	return w.Bytes()
}

// DecodeLayerID decodes the data of a "lyid" block.
func DecodeLayerID(data []byte) (uint32, error) {
	return newReader(KeyLayerID, data).ReadUint32()
}

// EncodeLayerID encodes the data of a "lyid" block.
func EncodeLayerID(id uint32) []byte {
	w := binio.NewWriter()
	w.WriteUint32(id)
	return w.Bytes()
}

// Locks is the set of protection flags of a layer.
type Locks uint32

// These are the protection flags stored in "lspf" blocks.
const (
	LockTransparency Locks = 1 << 0
	LockComposite    Locks = 1 << 1
	LockPosition     Locks = 1 << 2
	LockAll          Locks = 1 << 31
)

// DecodeLocks decodes the data of a "lspf" block.
func DecodeLocks(data []byte) (Locks, error) {
	x, err := newReader(KeyProtection, data).ReadUint32()
	return Locks(x), err
}

// EncodeLocks encodes the data of a "lspf" block.
func EncodeLocks(l Locks) []byte {
	w := binio.NewWriter()
	w.WriteUint32(uint32(l))
	return w.Bytes()
}

// DividerType distinguishes the layer records which make up a group.
type DividerType uint32

// These are the possible values of [DividerType].
const (
	DividerOther        DividerType = 0
	DividerOpenFolder   DividerType = 1
	DividerClosedFolder DividerType = 2
	DividerBoundary     DividerType = 3
)

// SectionDivider is the content of a "lsct" block.
//
// Groups are stored as a flat list of layer records: a bounding divider
// record, followed by the children, followed by a record for the group
// itself with type [DividerOpenFolder] or [DividerClosedFolder].
type SectionDivider struct {
	Type DividerType

	// BlendMode is the blend mode of the group, or the empty string if
	// the block does not store a blend mode.
	BlendMode psd.BlendMode

	// SubType is 0 for normal groups and 1 for scene groups.
	SubType uint32
}

var errDivider = errors.New("invalid section divider type")

// DecodeSectionDivider decodes the data of a "lsct" or "lsdk" block.
func DecodeSectionDivider(data []byte) (*SectionDivider, error) {
	r := newReader(KeySectionDivider, data)
	t, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if t > uint32(DividerBoundary) {
		return nil, r.Wrap(errDivider)
	}
	res := &SectionDivider{Type: DividerType(t)}
	if r.Remaining() < 8 {
		return res, nil
	}
	_, err = r.ReadSignature("8BIM")
	if err != nil {
		return nil, err
	}
	key, err := r.ReadKey()
	if err != nil {
		return nil, err
	}
	res.BlendMode = psd.BlendMode(key)
	if r.Remaining() >= 4 {
		res.SubType, err = r.ReadUint32()
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Encode encodes the data of a "lsct" block.
func (d *SectionDivider) Encode() []byte {
	w := binio.NewWriter()
	w.WriteUint32(uint32(d.Type))
	if d.BlendMode != "" || d.SubType != 0 {
		blend := d.BlendMode
		if blend == "" {
			blend = psd.BlendPassThrough
		}
		w.WriteKey("8BIM")
		w.WriteKey(string(blend))
		if d.SubType != 0 {
			w.WriteUint32(d.SubType)
		}
	}
	return w.Bytes()
}
