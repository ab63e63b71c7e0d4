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
	"errors"
	"fmt"
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Warp styles.  Only [StyleNone] and [StyleCustom] are evaluated; the
// preset envelope styles are carried through unchanged and are treated
// like an untouched mesh when computing bounds.
const (
	StyleNone   = "warpNone"
	StyleCustom = "warpCustom"
)

// Warp is a bezier mesh which deforms the asset before the placement
// transform is applied.
//
// The mesh consists of Rows x Cols control points in asset pixel
// coordinates.  Every 4x4 block of points, with neighbouring blocks
// sharing their boundary rows and columns, forms a bicubic bezier patch.
type Warp struct {
	Style string

	// Value, Perspective and PerspectiveOther are the parameters of the
	// preset envelope styles.
	Value            float64
	Perspective      float64
	PerspectiveOther float64

	// Rotate is the orientation of a preset envelope, either "Hrzn" or
	// "Vrtc".
	Rotate string

	Cols, Rows int
	Points     []vec.Vec2

	// SliceX and SliceY hold the positions of the extra grid lines of a
	// mesh with more than one patch per direction.
	SliceX, SliceY []float64

	// Bounds is the rectangle which the untouched mesh covers.
	Bounds rect.Rect
}

// NewWarp returns an untouched 4x4 mesh covering the rectangle
// [0, w] x [0, h].
func NewWarp(w, h float64) *Warp {
	return newGridWarp(rect.Rect{URx: w, URy: h}, 4, 4)
}

func newGridWarp(bounds rect.Rect, cols, rows int) *Warp {
	res := &Warp{
		Style:  StyleNone,
		Rotate: "Hrzn",
		Cols:   cols,
		Rows:   rows,
		Points: make([]vec.Vec2, 0, cols*rows),
		Bounds: bounds,
	}
	for j := range rows {
		y := bounds.LLy + bounds.Dy()*float64(j)/float64(rows-1)
		for i := range cols {
			x := bounds.LLx + bounds.Dx()*float64(i)/float64(cols-1)
			res.Points = append(res.Points, vec.Vec2{X: x, Y: y})
		}
	}
	return res
}

// Clone returns a deep copy of w.
func (w *Warp) Clone() *Warp {
	if w == nil {
		return nil
	}
	res := *w
	res.Points = append([]vec.Vec2(nil), w.Points...)
	res.SliceX = append([]float64(nil), w.SliceX...)
	res.SliceY = append([]float64(nil), w.SliceY...)
	return &res
}

// Check verifies that the mesh has a valid shape.
func (w *Warp) Check() error {
	if w.Cols < 4 || w.Rows < 4 || (w.Cols-1)%3 != 0 || (w.Rows-1)%3 != 0 {
		return fmt.Errorf("invalid warp mesh size %dx%d", w.Cols, w.Rows)
	}
	if len(w.Points) != w.Cols*w.Rows {
		return fmt.Errorf("warp mesh has %d points, want %d", len(w.Points), w.Cols*w.Rows)
	}
	for _, p := range w.Points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return errors.New("warp mesh point is not finite")
		}
	}
	return nil
}

// evaluated reports whether the mesh points describe the deformation.
func (w *Warp) evaluated() bool {
	return w.Style == StyleNone || w.Style == StyleCustom || w.Style == ""
}

// IsIdentity reports whether the warp leaves the asset unchanged.
func (w *Warp) IsIdentity() bool {
	if w.Style == StyleNone {
		return true
	}
	if !w.evaluated() {
		return w.Value == 0 && w.Perspective == 0 && w.PerspectiveOther == 0
	}
	ref := newGridWarp(w.Bounds, w.Cols, w.Rows)
	if len(ref.Points) != len(w.Points) {
		return false
	}
	const eps = 1e-6
	for i, p := range w.Points {
		q := ref.Points[i]
		if math.Abs(p.X-q.X) > eps || math.Abs(p.Y-q.Y) > eps {
			return false
		}
	}
	return true
}

// Eval returns the point of the warped surface at the parameters (u, v),
// where (0, 0) is the top left and (1, 1) the bottom right corner of the
// asset.
func (w *Warp) Eval(u, v float64) vec.Vec2 {
	if !w.evaluated() || w.Check() != nil {
		b := w.Bounds
		return vec.Vec2{X: b.LLx + u*b.Dx(), Y: b.LLy + v*b.Dy()}
	}

	nu := (w.Cols - 1) / 3
	nv := (w.Rows - 1) / 3
	pu, s := patchIndex(u, nu)
	pv, t := patchIndex(v, nv)

	bu := bernstein(s)
	bv := bernstein(t)
	var res vec.Vec2
	for j := range 4 {
		row := (3*pv + j) * w.Cols
		for i := range 4 {
			p := w.Points[row+3*pu+i]
			f := bu[i] * bv[j]
			res.X += f * p.X
			res.Y += f * p.Y
		}
	}
	return res
}

// patchIndex splits the mesh parameter u into the index of a patch and the
// parameter within that patch.
func patchIndex(u float64, n int) (int, float64) {
	u = min(max(u, 0), 1) * float64(n)
	k := min(int(math.Floor(u)), n-1)
	return k, u - float64(k)
}

func bernstein(t float64) [4]float64 {
	s := 1 - t
	return [4]float64{s * s * s, 3 * s * s * t, 3 * s * t * t, t * t * t}
}

// Sample returns (n+1) x (n+1) points of the warped surface, in row-major
// order.  The corners of the surface are always included.
func (w *Warp) Sample(n int) []vec.Vec2 {
	n = max(n, 1)
	res := make([]vec.Vec2, 0, (n+1)*(n+1))
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			res = append(res, w.Eval(float64(i)/float64(n), float64(j)/float64(n)))
		}
	}
	return res
}

// Outline returns points along the boundary of the warped surface, with n
// segments per edge, in clockwise order starting at the top left corner.
func (w *Warp) Outline(n int) []vec.Vec2 {
	n = max(n, 1)
	res := make([]vec.Vec2, 0, 4*n)
	for i := range n {
		res = append(res, w.Eval(float64(i)/float64(n), 0))
	}
	for i := range n {
		res = append(res, w.Eval(1, float64(i)/float64(n)))
	}
	for i := range n {
		res = append(res, w.Eval(1-float64(i)/float64(n), 1))
	}
	for i := range n {
		res = append(res, w.Eval(0, 1-float64(i)/float64(n)))
	}
	return res
}
