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
	"bytes"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/file"
)

// unrenderable returns the reason why the content of l cannot be computed
// for a document with the given colour mode, or the empty string if the
// layer can be rendered.
func unrenderable[T psd.Sample](l *SmartObjectLayer[T], mode psd.ColorMode) string {
	g := l.geom
	switch {
	case mode != psd.RGB && mode != psd.Grayscale:
		return "colour mode " + mode.String()
	case !g.Transform.IsAffine():
		return "perspective transformation"
	case g.Warp != nil && !g.Warp.IsIdentity():
		return "warped"
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(l.asset.Data)); err != nil {
		return "unsupported asset format"
	}
	return ""
}

// renderSmartObject computes the pixels of a smart-object layer for the
// rectangle r.  Raster assets with an affine placement and no warp are
// rendered for RGB and grayscale documents.  In all other cases the
// result is fully transparent.
func renderSmartObject[T psd.Sample](l *SmartObjectLayer[T], mode psd.ColorMode, r file.Rect) map[psd.ChannelID][]T {
	w, h := r.Width(), r.Height()
	n := max(mode.NumColorChannels(), 1)
	res := make(map[psd.ChannelID][]T, n+1)
	for i := range n {
		res[psd.ChannelID(i)] = make([]T, w*h)
	}
	alpha := make([]T, w*h)
	res[psd.ChannelTransparency] = alpha
	if w == 0 || h == 0 {
		return res
	}

	if unrenderable(l, mode) != "" {
		return res
	}
	g := l.geom
	src, _, err := image.Decode(bytes.NewReader(l.asset.Data))
	if err != nil {
		return res
	}
	sb := src.Bounds()
	if sb.Empty() {
		return res
	}

	m := matrix.Translate(-float64(sb.Min.X), -float64(sb.Min.Y)).
		Mul(matrix.Scale(g.Width/float64(sb.Dx()), g.Height/float64(sb.Dy()))).
		Mul(g.Transform.Affine()).
		Mul(matrix.Translate(-float64(r.Left), -float64(r.Top)))
	s2d := f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
	dst := image.NewNRGBA64(image.Rect(0, 0, w, h))
	draw.BiLinear.Transform(dst, s2d, src, sb, draw.Over, nil)

	for y := range h {
		for x := range w {
			c := dst.NRGBA64At(x, y)
			i := y*w + x
			alpha[i] = fromUint16[T](c.A)
			if mode == psd.Grayscale {
				gray := color.Gray16Model.Convert(color.RGBA64{R: c.R, G: c.G, B: c.B, A: 0xffff}).(color.Gray16)
				res[0][i] = fromUint16[T](gray.Y)
			} else {
				res[0][i] = fromUint16[T](c.R)
				res[1][i] = fromUint16[T](c.G)
				res[2][i] = fromUint16[T](c.B)
			}
		}
	}
	return res
}

// fromUint16 converts a 16-bit colour value to the sample type T.
func fromUint16[T psd.Sample](v uint16) T {
	switch psd.DepthOf[T]() {
	case psd.Depth8:
		return T(v >> 8)
	case psd.Depth16:
		return T(v)
	default:
		return T(float32(v) / 0xffff)
	}
}

func toUnit[T psd.Sample](v T) float64 {
	return float64(v) / float64(psd.MaxValue[T]())
}

func fromUnit[T psd.Sample](x float64) T {
	x = min(max(x, 0), 1)
	if psd.DepthOf[T]() == psd.Depth32 {
		return T(float32(x))
	}
	return T(math.Round(x * float64(psd.MaxValue[T]())))
}

// Flatten computes the merged image of the document, one plane per
// channel.  Visible layers are composited from bottom to top over a white
// background, taking opacity, transparency and layer masks into account.
// All blend modes are treated as normal blending.
func (d *Document[T]) Flatten() [][]T {
	n := d.numChannels()
	size := d.width * d.height
	acc := make([][]float64, n)
	for c := range acc {
		white := 1.0
		if d.ColorMode == psd.Lab && c > 0 {
			white = 0.5
		}
		acc[c] = make([]float64, size)
		for i := range acc[c] {
			acc[c][i] = white
		}
	}

	d.flattenLayers(d.root, acc, 1)

	res := make([][]T, n)
	for c, plane := range acc {
		res[c] = make([]T, size)
		for i, x := range plane {
			res[c][i] = fromUnit[T](x)
		}
	}
	return res
}

func (d *Document[T]) flattenLayers(layers []Layer[T], acc [][]float64, opacity float64) {
	for _, l := range layers {
		b := l.Common()
		if !b.Visible {
			continue
		}
		op := opacity * float64(b.Opacity) / 255
		switch l := l.(type) {
		case *GroupLayer[T]:
			d.flattenLayers(l.children, acc, op)
		case *ImageLayer[T]:
			planes := make(map[psd.ChannelID][]T, len(l.channels))
			for id, ch := range l.channels {
				planes[id] = ch.data
			}
			d.blend(acc, layerRect[T](l), planes, b.mask, op)
		case *SmartObjectLayer[T]:
			r := l.rect()
			var planes map[psd.ChannelID][]T
			if pv := l.preview; pv != nil && pv.rect == r {
				planes = pv.channels
			} else {
				planes = renderSmartObject(l, d.ColorMode, r)
			}
			d.blend(acc, r, planes, b.mask, op)
		}
	}
}

// blend composites the channels of one layer onto acc.
func (d *Document[T]) blend(acc [][]float64, r file.Rect, planes map[psd.ChannelID][]T, mask *Mask[T], opacity float64) {
	w, h := r.Width(), r.Height()
	for _, p := range planes {
		if len(p) != w*h {
			return
		}
	}
	alpha := planes[psd.ChannelTransparency]
	var mr file.Rect
	if mask != nil {
		if mask.consumed || mask.disabled {
			mask = nil
		} else {
			mr = centeredRect(mask.center, mask.width, mask.height)
		}
	}

	for y := max(int(r.Top), 0); y < min(int(r.Bottom), d.height); y++ {
		for x := max(int(r.Left), 0); x < min(int(r.Right), d.width); x++ {
			i := (y-int(r.Top))*w + x - int(r.Left)
			a := opacity
			if alpha != nil {
				a *= toUnit(alpha[i])
			}
			if mask != nil {
				mv := float64(mask.defaultColor) / 255
				if x >= int(mr.Left) && x < int(mr.Right) && y >= int(mr.Top) && y < int(mr.Bottom) {
					mv = toUnit(mask.data[(y-int(mr.Top))*mask.width+x-int(mr.Left)])
				}
				a *= 1 - float64(mask.density)/255*(1-mv)
			}
			if a <= 0 {
				continue
			}
			j := y*d.width + x
			for c := range acc {
				p := planes[psd.ChannelID(c)]
				if p == nil {
					continue
				}
				acc[c][j] = acc[c][j]*(1-a) + toUnit(p[i])*a
			}
		}
	}
}
