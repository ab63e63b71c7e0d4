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
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
)

// Matrix3 is a projective transformation of the plane.
//
// If M = [a b c d e f g h i] is a Matrix3, then a vector (x, y) is
// transformed into (x'/w', y'/w'), where
//
//	(x' y' w') = (x y 1) * / a b c \
//	                       | d e f |
//	                       \ g h i /
//
// For affine transformations c = f = 0 and i = 1, and the layout of the
// coefficients agrees with [matrix.Matrix].
type Matrix3 [9]float64

// Identity3 is the identity transformation.
var Identity3 = Matrix3{1, 0, 0, 0, 1, 0, 0, 0, 1}

// FromAffine converts an affine transformation into a Matrix3.
func FromAffine(m matrix.Matrix) Matrix3 {
	return Matrix3{m[0], m[1], 0, m[2], m[3], 0, m[4], m[5], 1}
}

// Translate3 returns the translation by (dx, dy).
func Translate3(dx, dy float64) Matrix3 {
	return FromAffine(matrix.Translate(dx, dy))
}

// Apply applies the transformation to the given point.
func (M Matrix3) Apply(p vec.Vec2) vec.Vec2 {
	x := p.X*M[0] + p.Y*M[3] + M[6]
	y := p.X*M[1] + p.Y*M[4] + M[7]
	w := p.X*M[2] + p.Y*M[5] + M[8]
	if w != 1 && w != 0 {
		x /= w
		y /= w
	}
	return vec.Vec2{X: x, Y: y}
}

// Mul multiplies two matrices and returns the result.
// The result is equivalent to first applying M and then B.
func (M Matrix3) Mul(B Matrix3) Matrix3 {
	var res Matrix3
	for i := range 3 {
		for j := range 3 {
			res[3*i+j] = M[3*i]*B[j] + M[3*i+1]*B[3+j] + M[3*i+2]*B[6+j]
		}
	}
	return res
}

// IsAffine reports whether the matrix describes an affine transformation.
func (M Matrix3) IsAffine() bool {
	return M[2] == 0 && M[5] == 0 && M[8] != 0
}

// Affine returns the affine part of M.  The result is only meaningful if
// [Matrix3.IsAffine] returns true.
func (M Matrix3) Affine() matrix.Matrix {
	s := M[8]
	return matrix.Matrix{M[0] / s, M[1] / s, M[3] / s, M[4] / s, M[6] / s, M[7] / s}
}

var errSingular = errors.New("singular matrix")

// Inv computes the inverse of M.
func (M Matrix3) Inv() (Matrix3, error) {
	a, b, c := M[0], M[1], M[2]
	d, e, f := M[3], M[4], M[5]
	g, h, i := M[6], M[7], M[8]

	A := e*i - f*h
	B := f*g - d*i
	C := d*h - e*g
	det := a*A + b*B + c*C
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return Matrix3{}, errSingular
	}
	inv := 1 / det
	res := Matrix3{
		A, c*h - b*i, b*f - c*e,
		B, a*i - c*g, c*d - a*f,
		C, b*g - a*h, a*e - b*d,
	}
	for k := range res {
		res[k] *= inv
	}
	return res, nil
}

// Normalize scales M so that the bottom right coefficient is 1.
func (M Matrix3) Normalize() Matrix3 {
	s := M[8]
	if s == 0 || s == 1 {
		return M
	}
	for k := range M {
		M[k] /= s
	}
	return M
}

// QuadToQuad returns the projective transformation which maps the
// rectangle [0, w] x [0, h] onto the quadrilateral with the given corners.
// The corners are given in the order top left, top right, bottom right,
// bottom left.
func QuadToQuad(w, h float64, corners [4]vec.Vec2) (Matrix3, error) {
	if w <= 0 || h <= 0 {
		return Matrix3{}, errors.New("empty source rectangle")
	}
	x0, y0 := corners[0].X, corners[0].Y
	x1, y1 := corners[1].X, corners[1].Y
	x2, y2 := corners[2].X, corners[2].Y
	x3, y3 := corners[3].X, corners[3].Y

	// Map the unit square onto the quadrilateral, following Heckbert,
	// "Fundamentals of Texture Mapping and Image Warping", 1989.
	var sq Matrix3
	dx3 := x0 - x1 + x2 - x3
	dy3 := y0 - y1 + y2 - y3
	if math.Abs(dx3) < 1e-12 && math.Abs(dy3) < 1e-12 {
		sq = Matrix3{
			x1 - x0, y1 - y0, 0,
			x3 - x0, y3 - y0, 0,
			x0, y0, 1,
		}
	} else {
		dx1, dx2 := x1-x2, x3-x2
		dy1, dy2 := y1-y2, y3-y2
		det := dx1*dy2 - dx2*dy1
		if det == 0 {
			return Matrix3{}, errSingular
		}
		g := (dx3*dy2 - dx2*dy3) / det
		hh := (dx1*dy3 - dx3*dy1) / det
		sq = Matrix3{
			x1 - x0 + g*x1, y1 - y0 + g*y1, g,
			x3 - x0 + hh*x3, y3 - y0 + hh*y3, hh,
			x0, y0, 1,
		}
	}
	return FromAffine(matrix.Scale(1/w, 1/h)).Mul(sq), nil
}
