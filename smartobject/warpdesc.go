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
	"fmt"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/psd/descriptor"
)

// Descriptor converts the warp into the "warp" descriptor stored in
// placed layer blocks.
func (w *Warp) Descriptor() *descriptor.Descriptor {
	d := descriptor.New("warp")
	style := w.Style
	if style == "" {
		style = StyleNone
	}
	if style == StyleNone && !w.IsIdentity() {
		style = StyleCustom
	}
	d.Set("warpStyle", descriptor.Enum{Type: "warpStyle", Value: style})
	d.Set("warpValue", descriptor.Double(w.Value))
	d.Set("warpPerspective", descriptor.Double(w.Perspective))
	d.Set("warpPerspectiveOther", descriptor.Double(w.PerspectiveOther))
	rot := w.Rotate
	if rot == "" {
		rot = "Hrzn"
	}
	d.Set("warpRotate", descriptor.Enum{Type: "Ornt", Value: rot})

	b := descriptor.New("classFloatRect")
	b.Set("Top ", descriptor.Double(w.Bounds.LLy))
	b.Set("Left", descriptor.Double(w.Bounds.LLx))
	b.Set("Btom", descriptor.Double(w.Bounds.URy))
	b.Set("Rght", descriptor.Double(w.Bounds.URx))
	d.Set("bounds", b)

	d.Set("uOrder", descriptor.Integer(4))
	d.Set("vOrder", descriptor.Integer(4))

	if style == StyleCustom {
		env := descriptor.New("customEnvelopeWarp")
		if len(w.SliceX) > 0 || len(w.SliceY) > 0 {
			env.Set("quiltSliceX", descriptor.UnitFloats{Unit: descriptor.UnitPixels, Values: w.SliceX})
			env.Set("quiltSliceY", descriptor.UnitFloats{Unit: descriptor.UnitPixels, Values: w.SliceY})
		}
		if w.Cols != 4 || w.Rows != 4 {
			env.Set("deformNumCols", descriptor.Integer(w.Cols))
			env.Set("deformNumRows", descriptor.Integer(w.Rows))
		}
		env.Set("meshPoints", meshPoints(w.Points))
		d.Set("customEnvelopeWarp", env)
	}
	return d
}

func meshPoints(pts []vec.Vec2) *descriptor.ObjectArray {
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return &descriptor.ObjectArray{
		Count:   uint32(len(pts)),
		ClassID: "rationalPoint",
		Items: []descriptor.Item{
			{Key: "Hrzn", Value: descriptor.UnitFloats{Unit: descriptor.UnitPixels, Values: xs}},
			{Key: "Vrtc", Value: descriptor.UnitFloats{Unit: descriptor.UnitPixels, Values: ys}},
		},
	}
}

// WarpFromDescriptor converts a "warp" descriptor into a Warp.
// If the descriptor has no bounds, the rectangle [0, w] x [0, h] is used.
func WarpFromDescriptor(d *descriptor.Descriptor, w, h float64) (*Warp, error) {
	bounds := rect.Rect{URx: w, URy: h}
	if b, err := d.Desc("bounds"); err == nil {
		top, err1 := b.Double("Top ")
		left, err2 := b.Double("Left")
		bottom, err3 := b.Double("Btom")
		right, err4 := b.Double("Rght")
		if err1 == nil && err2 == nil && err3 == nil && err4 == nil && right > left && bottom > top {
			bounds = rect.Rect{LLx: left, LLy: top, URx: right, URy: bottom}
		}
	}

	cols, rows := 4, 4
	if env, err := d.Desc("customEnvelopeWarp"); err == nil {
		if n, err := env.Int("deformNumCols"); err == nil {
			cols = int(n)
		}
		if n, err := env.Int("deformNumRows"); err == nil {
			rows = int(n)
		}
	}
	res := newGridWarp(bounds, 4, 4)

	style, err := d.Enum("warpStyle")
	if err != nil {
		return nil, err
	}
	res.Style = style.Value
	res.Value, _ = d.Double("warpValue")
	res.Perspective, _ = d.Double("warpPerspective")
	res.PerspectiveOther, _ = d.Double("warpPerspectiveOther")
	if rot, err := d.Enum("warpRotate"); err == nil {
		res.Rotate = rot.Value
	}

	if res.Style != StyleCustom {
		return res, nil
	}
	env, err := d.Desc("customEnvelopeWarp")
	if err != nil {
		return nil, err
	}
	val, ok := env.Get("meshPoints")
	if !ok {
		return nil, fmt.Errorf("custom warp without mesh points")
	}
	arr, ok := val.(*descriptor.ObjectArray)
	if !ok {
		return nil, fmt.Errorf("unexpected mesh point type %T", val)
	}
	var xs, ys []float64
	for _, item := range arr.Items {
		uf, ok := item.Value.(descriptor.UnitFloats)
		if !ok {
			continue
		}
		switch item.Key {
		case "Hrzn":
			xs = uf.Values
		case "Vrtc":
			ys = uf.Values
		}
	}
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("mesh has %d x and %d y coordinates", len(xs), len(ys))
	}
	res.SliceX, _ = env.Doubles("quiltSliceX")
	res.SliceY, _ = env.Doubles("quiltSliceY")
	if len(res.SliceX) >= 2 && len(res.SliceY) >= 2 && len(xs) != cols*rows {
		cols = 3*(len(res.SliceX)-1) + 1
		rows = 3*(len(res.SliceY)-1) + 1
	}
	res.Cols, res.Rows = cols, rows
	res.Points = make([]vec.Vec2, len(xs))
	for i := range xs {
		res.Points[i] = vec.Vec2{X: xs[i], Y: ys[i]}
	}
	if err := res.Check(); err != nil {
		return nil, err
	}
	return res, nil
}
