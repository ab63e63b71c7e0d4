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
	"seehuhn.de/go/psd/descriptor"
	"seehuhn.de/go/psd/internal/binio"
)

// PlacedLayer is the content of a "PlLd" block, the legacy description of a
// smart object layer.
type PlacedLayer struct {
	// ID is the unique ID of the linked file, see [LinkedFile].
	ID string

	Page, TotalPages uint32
	AntiAlias        uint32

	// Type is 0 for unknown, 1 for vector, 2 for raster and 3 for image
	// stack content.
	Type uint32

	// Transform gives the x and y coordinates of the top-left, top-right,
	// bottom-right and bottom-left corners of the placed content.
	Transform [8]float64

	Warp *descriptor.Descriptor
}

const placedVersion = 3

// DecodePlacedLayer decodes the data of a "PlLd" block.
func DecodePlacedLayer(data []byte) (*PlacedLayer, error) {
	r := newReader(KeyPlacedLayer, data)
	_, err := r.ReadSignature("plcL")
	if err != nil {
		return nil, err
	}
	version, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if version != placedVersion {
		return nil, r.Error("unsupported placed layer version %d", version)
	}

	res := &PlacedLayer{}
	res.ID, err = r.ReadPascalString(1)
	if err != nil {
		return nil, err
	}
	for _, p := range []*uint32{&res.Page, &res.TotalPages, &res.AntiAlias, &res.Type} {
		*p, err = r.ReadUint32()
		if err != nil {
			return nil, err
		}
	}
	for i := range res.Transform {
		res.Transform[i], err = r.ReadFloat64()
		if err != nil {
			return nil, err
		}
	}
	warpVersion, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if warpVersion != 0 {
		return nil, r.Error("unsupported warp version %d", warpVersion)
	}
	res.Warp, err = descriptor.ReadVersioned(r)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Encode encodes the data of a "PlLd" block.
func (p *PlacedLayer) Encode() []byte {
	w := binio.NewWriter()
	w.WriteKey("plcL")
	w.WriteUint32(placedVersion)
	w.WritePascalString(p.ID, 1)
	w.WriteUint32(p.Page)
	w.WriteUint32(p.TotalPages)
	w.WriteUint32(p.AntiAlias)
	w.WriteUint32(p.Type)
	for _, x := range p.Transform {
		w.WriteFloat64(x)
	}
	w.WriteUint32(0) // warp version
	warp := p.Warp
	if warp == nil {
		warp = descriptor.New("warp")
	}
	warp.WriteVersioned(w)
	w.Pad(int64(w.Len()), 4)
	return w.Bytes()
}

// DecodePlacedLayerData decodes the data of a "SoLd" block.
func DecodePlacedLayerData(data []byte) (*descriptor.Descriptor, error) {
	r := newReader(KeyPlacedLayerData, data)
	_, err := r.ReadSignature("soLD")
	if err != nil {
		return nil, err
	}
	version, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if version != 4 && version != 5 {
		return nil, r.Error("unsupported placed layer data version %d", version)
	}
	return descriptor.ReadVersioned(r)
}

// EncodePlacedLayerData encodes the data of a "SoLd" block.
func EncodePlacedLayerData(d *descriptor.Descriptor) []byte {
	w := binio.NewWriter()
	w.WriteKey("soLD")
	w.WriteUint32(4)
	d.WriteVersioned(w)
	w.Pad(int64(w.Len()), 4)
	return w.Bytes()
}
