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

package compression

import (
	"fmt"

	"seehuhn.de/go/psd"
)

// predict replaces the samples in every row by the difference to the
// previous sample in the same row.
//
// For 32-bit data the bytes of each row are first reordered, so that the
// most significant bytes of all samples come first, followed by the second
// bytes, and so on.  The differences are then taken byte by byte across the
// whole reordered row.
func predict(plane []byte, p *Params) error {
	rowBytes := p.RowBytes()
	switch p.Depth {
	case psd.Depth8:
		for y := range p.Height {
			row := plane[y*rowBytes : (y+1)*rowBytes]
			for x := len(row) - 1; x > 0; x-- {
				row[x] -= row[x-1]
			}
		}
	case psd.Depth16:
		for y := range p.Height {
			row := plane[y*rowBytes : (y+1)*rowBytes]
			for x := p.Width - 1; x > 0; x-- {
				cur := uint16(row[2*x])<<8 | uint16(row[2*x+1])
				prev := uint16(row[2*x-2])<<8 | uint16(row[2*x-1])
				d := cur - prev
				row[2*x] = byte(d >> 8)
				row[2*x+1] = byte(d)
			}
		}
	case psd.Depth32:
		tmp := make([]byte, rowBytes)
		for y := range p.Height {
			row := plane[y*rowBytes : (y+1)*rowBytes]
			for x := range p.Width {
				for b := range 4 {
					tmp[b*p.Width+x] = row[4*x+b]
				}
			}
			for i := len(tmp) - 1; i > 0; i-- {
				tmp[i] -= tmp[i-1]
			}
			copy(row, tmp)
		}
	default:
		return fmt.Errorf("prediction not supported for %d-bit data", p.Depth)
	}
	return nil
}

// unpredict reverses the transformation applied by predict.
func unpredict(plane []byte, p *Params) error {
	rowBytes := p.RowBytes()
	switch p.Depth {
	case psd.Depth8:
		for y := range p.Height {
			row := plane[y*rowBytes : (y+1)*rowBytes]
			for x := 1; x < len(row); x++ {
				row[x] += row[x-1]
			}
		}
	case psd.Depth16:
		for y := range p.Height {
			row := plane[y*rowBytes : (y+1)*rowBytes]
			for x := 1; x < p.Width; x++ {
				cur := uint16(row[2*x])<<8 | uint16(row[2*x+1])
				prev := uint16(row[2*x-2])<<8 | uint16(row[2*x-1])
				v := cur + prev
				row[2*x] = byte(v >> 8)
				row[2*x+1] = byte(v)
			}
		}
	case psd.Depth32:
		tmp := make([]byte, rowBytes)
		for y := range p.Height {
			row := plane[y*rowBytes : (y+1)*rowBytes]
			for i := 1; i < len(row); i++ {
				row[i] += row[i-1]
			}
			for x := range p.Width {
				for b := range 4 {
					tmp[4*x+b] = row[b*p.Width+x]
				}
			}
			copy(row, tmp)
		}
	default:
		return fmt.Errorf("prediction not supported for %d-bit data", p.Depth)
	}
	return nil
}
