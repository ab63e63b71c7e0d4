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
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// boundsSamples is the number of grid cells per direction used to sample
// a warped surface when computing its bounds.
const boundsSamples = 16

// Geometry describes how a linked asset is placed on the canvas.
//
// The asset, of size Width x Height pixels, is first deformed by Warp and
// then mapped to canvas coordinates by Transform.  The placed bounds are
// not stored, they are always derived from these two.
type Geometry struct {
	Width, Height float64

	Transform Matrix3
	Warp      *Warp
}

// NewGeometry returns the geometry of an asset of the given size, which is
// placed unchanged at the origin of the canvas.
func NewGeometry(width, height float64) *Geometry {
	return &Geometry{
		Width:     width,
		Height:    height,
		Transform: Identity3,
		Warp:      NewWarp(width, height),
	}
}

// Clone returns a deep copy of g.
func (g *Geometry) Clone() *Geometry {
	res := *g
	res.Warp = g.Warp.Clone()
	return &res
}

func (g *Geometry) warp() *Warp {
	if g.Warp == nil {
		return NewWarp(g.Width, g.Height)
	}
	return g.Warp
}

// Corners returns the placed corners of the asset, in the order top left,
// top right, bottom right, bottom left.
func (g *Geometry) Corners() [4]vec.Vec2 {
	w := g.warp()
	var res [4]vec.Vec2
	for i, uv := range [4][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}} {
		res[i] = g.Transform.Apply(w.Eval(uv[0], uv[1]))
	}
	return res
}

// Bounds returns the bounding box of the placed asset in canvas
// coordinates.  LLx and LLy are the left and top edges.
func (g *Geometry) Bounds() rect.Rect {
	w := g.warp()
	var pts []vec.Vec2
	if w.IsIdentity() {
		c := g.Corners()
		pts = c[:]
		if !g.Transform.IsAffine() {
			pts = append(pts, g.transformAll(w.Outline(boundsSamples))...)
		}
	} else {
		pts = g.transformAll(w.Sample(boundsSamples))
	}

	res := rect.Rect{
		LLx: math.Inf(1), LLy: math.Inf(1),
		URx: math.Inf(-1), URy: math.Inf(-1),
	}
	for _, p := range pts {
		res.LLx = min(res.LLx, p.X)
		res.LLy = min(res.LLy, p.Y)
		res.URx = max(res.URx, p.X)
		res.URy = max(res.URy, p.Y)
	}
	return res
}

func (g *Geometry) transformAll(pts []vec.Vec2) []vec.Vec2 {
	for i, p := range pts {
		pts[i] = g.Transform.Apply(p)
	}
	return pts
}

// Center returns the centre of the placed bounds.
func (g *Geometry) Center() vec.Vec2 {
	b := g.Bounds()
	return vec.Vec2{X: (b.LLx + b.URx) / 2, Y: (b.LLy + b.URy) / 2}
}

// Size returns the width and height of the placed bounds.
func (g *Geometry) Size() (float64, float64) {
	b := g.Bounds()
	return b.Dx(), b.Dy()
}

// Transformed applies the transformation m after the current placement.
func (g *Geometry) Transformed(m Matrix3) {
	g.Transform = g.Transform.Mul(m).Normalize()
}

// aboutPivot returns the transformation which applies m with pivot as the
// fixed point.
func aboutPivot(m matrix.Matrix, pivot vec.Vec2) Matrix3 {
	a := matrix.Translate(-pivot.X, -pivot.Y).Mul(m).Mul(matrix.Translate(pivot.X, pivot.Y))
	return FromAffine(a)
}

// Rotate rotates the placed asset by the given angle, in degrees, around
// pivot.  Positive angles rotate clockwise on the canvas, where the y-axis
// points down.
func (g *Geometry) Rotate(deg float64, pivot vec.Vec2) {
	g.Transformed(aboutPivot(matrix.RotateDeg(deg), pivot))
}

// Scale scales the placed asset by the factors sx and sy, keeping pivot
// fixed.
func (g *Geometry) Scale(sx, sy float64, pivot vec.Vec2) {
	g.Transformed(aboutPivot(matrix.Scale(sx, sy), pivot))
}

// Move translates the placed asset.
func (g *Geometry) Move(dx, dy float64) {
	g.Transformed(Translate3(dx, dy))
}

// ResetTransform restores the identity placement.  The warp is not
// changed.
func (g *Geometry) ResetTransform() {
	g.Transform = Identity3
}

// ResetWarp restores an untouched warp mesh.  The placement transform is
// not changed.
func (g *Geometry) ResetWarp() {
	g.Warp = NewWarp(g.Width, g.Height)
}

// PlacedCorners returns the corners of the asset rectangle under the
// placement transform, ignoring the warp, as the 8 coordinates x0, y0,
// ..., x3, y3.  This is the form used in placed layer blocks.
func (g *Geometry) PlacedCorners() [8]float64 {
	var res [8]float64
	for i, p := range [4]vec.Vec2{
		{X: 0, Y: 0}, {X: g.Width, Y: 0}, {X: g.Width, Y: g.Height}, {X: 0, Y: g.Height},
	} {
		q := g.Transform.Apply(p)
		res[2*i] = q.X
		res[2*i+1] = q.Y
	}
	return res
}

// SetPlacedCorners recovers the placement transform from the placed
// corners of the asset rectangle.
func (g *Geometry) SetPlacedCorners(c [8]float64) error {
	var quad [4]vec.Vec2
	for i := range quad {
		quad[i] = vec.Vec2{X: c[2*i], Y: c[2*i+1]}
	}
	m, err := QuadToQuad(g.Width, g.Height, quad)
	if err != nil {
		return err
	}
	g.Transform = m.Normalize()
	return nil
}

// Resize changes the native size of the asset, keeping the placed
// geometry.  The warp is rescaled to the new asset rectangle and the
// placement transform absorbs the change of scale.
func (g *Geometry) Resize(width, height float64) error {
	if !(width > 0 && height > 0) {
		return fmt.Errorf("invalid asset size %gx%g", width, height)
	}
	if width == g.Width && height == g.Height {
		return nil
	}
	fx := width / g.Width
	fy := height / g.Height

	w := g.warp().Clone()
	for i, p := range w.Points {
		w.Points[i] = vec.Vec2{X: p.X * fx, Y: p.Y * fy}
	}
	for i, x := range w.SliceX {
		w.SliceX[i] = x * fx
	}
	for i, y := range w.SliceY {
		w.SliceY[i] = y * fy
	}
	w.Bounds = rect.Rect{
		LLx: w.Bounds.LLx * fx, LLy: w.Bounds.LLy * fy,
		URx: w.Bounds.URx * fx, URy: w.Bounds.URy * fy,
	}

	g.Transform = FromAffine(matrix.Scale(1/fx, 1/fy)).Mul(g.Transform).Normalize()
	g.Warp = w
	g.Width, g.Height = width, height
	return nil
}
