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

package document

import (
	"image"
	"math"
	"slices"

	"golang.org/x/image/draw"

	"seehuhn.de/go/psd"
)

// Resample scales a channel plane of size w x h to size nw x nh, using
// bilinear interpolation.  The input is not modified.
func Resample[T psd.Sample](plane []T, w, h, nw, nh int) []T {
	if nw == w && nh == h {
		return slices.Clone(plane)
	}
	if w <= 0 || h <= 0 || nw <= 0 || nh <= 0 {
		return make([]T, max(nw, 0)*max(nh, 0))
	}

	switch psd.DepthOf[T]() {
	case psd.Depth8:
		src := image.NewGray(image.Rect(0, 0, w, h))
		for i, x := range plane {
			src.Pix[i] = uint8(x)
		}
		dst := image.NewGray(image.Rect(0, 0, nw, nh))
		draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		res := make([]T, nw*nh)
		for i, x := range dst.Pix {
			res[i] = T(x)
		}
		return res

	case psd.Depth16:
		src := image.NewGray16(image.Rect(0, 0, w, h))
		for i, x := range plane {
			v := uint16(x)
			src.Pix[2*i] = byte(v >> 8)
			src.Pix[2*i+1] = byte(v)
		}
		dst := image.NewGray16(image.Rect(0, 0, nw, nh))
		draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		res := make([]T, nw*nh)
		for i := range res {
			res[i] = T(uint16(dst.Pix[2*i])<<8 | uint16(dst.Pix[2*i+1]))
		}
		return res

	default:
		return resampleFloat(plane, w, h, nw, nh)
	}
}

// resampleFloat is the bilinear filter for 32-bit planes, which have no
// corresponding image type.  Pixel centres are aligned as in
// [draw.BiLinear].
func resampleFloat[T psd.Sample](plane []T, w, h, nw, nh int) []T {
	res := make([]T, nw*nh)
	sx := float64(w) / float64(nw)
	sy := float64(h) / float64(nh)
	for y := range nh {
		fy := (float64(y)+0.5)*sy - 0.5
		y0, ty := clampedIndex(fy, h)
		y1 := min(y0+1, h-1)
		for x := range nw {
			fx := (float64(x)+0.5)*sx - 0.5
			x0, tx := clampedIndex(fx, w)
			x1 := min(x0+1, w-1)

			a := float64(plane[y0*w+x0])*(1-tx) + float64(plane[y0*w+x1])*tx
			b := float64(plane[y1*w+x0])*(1-tx) + float64(plane[y1*w+x1])*tx
			res[y*nw+x] = T(float32(a*(1-ty) + b*ty))
		}
	}
	return res
}

func clampedIndex(f float64, n int) (int, float64) {
	if f <= 0 {
		return 0, 0
	}
	i := int(math.Floor(f))
	if i >= n-1 {
		return n - 1, 0
	}
	return i, f - float64(i)
}
