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

package resource

import (
	"errors"
	"math"

	"seehuhn.de/go/psd/internal/binio"
)

// ResolutionUnit is the unit used for displaying a resolution.
type ResolutionUnit uint16

// These are the resolution units defined by the file format.
const (
	PixelsPerInch ResolutionUnit = 1
	PixelsPerCM   ResolutionUnit = 2
)

// Resolution is the content of the ResolutionInfo resource.
//
// The resolutions are always stored in pixels per inch; the units only
// determine how the values are presented to the user.
type Resolution struct {
	HRes, VRes         float64
	HResUnit, VResUnit ResolutionUnit

	// WidthUnit and HeightUnit are the units used for displaying the image
	// dimensions (1=inches, 2=cm, 3=points, 4=picas, 5=columns).
	WidthUnit, HeightUnit uint16
}

var errResolution = errors.New("malformed resolution info")

// Resolution returns the document resolution, or nil if the document does
// not specify one.
func (b Blocks) Resolution() (*Resolution, error) {
	blk := b.Get(IDResolutionInfo)
	if blk == nil {
		return nil, nil
	}
	data := blk.Data
	if len(data) < 16 {
		return nil, errResolution
	}
	fixed := func(b []byte) float64 {
		x := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
		return float64(x) / 65536
	}
	u16 := func(b []byte) uint16 {
		return uint16(b[0])<<8 | uint16(b[1])
	}
	res := &Resolution{
		HRes:       fixed(data[0:4]),
		HResUnit:   ResolutionUnit(u16(data[4:6])),
		WidthUnit:  u16(data[6:8]),
		VRes:       fixed(data[8:12]),
		VResUnit:   ResolutionUnit(u16(data[12:14])),
		HeightUnit: u16(data[14:16]),
	}
	return res, nil
}

// SetResolution stores the document resolution.  A nil value removes the
// resource.
func (b *Blocks) SetResolution(res *Resolution) {
	if res == nil {
		b.Delete(IDResolutionInfo)
		return
	}
	toFixed := func(x float64) uint32 {
		x = math.Round(x * 65536)
		if x < 0 {
			return 0
		} else if x > math.MaxUint32 {
			return math.MaxUint32
		}
		return uint32(x)
	}
	w := binio.NewWriter()
	w.WriteUint32(toFixed(res.HRes))
	w.WriteUint16(uint16(res.HResUnit))
	w.WriteUint16(res.WidthUnit)
	w.WriteUint32(toFixed(res.VRes))
	w.WriteUint16(uint16(res.VResUnit))
	w.WriteUint16(res.HeightUnit)
	b.Set(IDResolutionInfo, w.Bytes())
}
