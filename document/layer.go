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
	"fmt"
	"math"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/file"
	"seehuhn.de/go/psd/tagged"
)

// Kind identifies the variant of a layer.
type Kind int

// These are the layer variants.
const (
	KindImage Kind = iota
	KindGroup
	KindSmartObject
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindGroup:
		return "group"
	case KindSmartObject:
		return "smart object"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Layer is a node of the layer tree.  The implementations are
// [*ImageLayer], [*GroupLayer] and [*SmartObjectLayer].
type Layer[T psd.Sample] interface {
	// Common returns the properties shared by all layer variants.
	Common() *Base[T]

	Kind() Kind

	// Width and Height give the extent of the layer in pixels.
	Width() int
	Height() int

	// Center returns the centre of the layer in canvas coordinates.
	Center() vec.Vec2
}

// Base holds the properties shared by all layer variants.
type Base[T psd.Sample] struct {
	// Name is the name of the layer.  It must not be empty.
	Name string

	// Opacity ranges from 0 (transparent) to 255 (opaque).
	Opacity uint8

	BlendMode psd.BlendMode
	Visible   bool

	// Clipping indicates that the layer is clipped to the layer below.
	Clipping bool

	Locks tagged.Locks

	// ID is the layer ID stored in the file.  If the ID is 0, or if it is
	// used by more than one layer, a new ID is allocated when the document
	// is written.
	ID uint32

	// Blocks are additional tagged blocks which are written unchanged.
	Blocks tagged.Blocks

	mask *Mask[T]

	doc    *Document[T]
	parent *GroupLayer[T]
}

func newBase[T psd.Sample](name string, blend psd.BlendMode) Base[T] {
	return Base[T]{
		Name:      name,
		Opacity:   255,
		BlendMode: blend,
		Visible:   true,
	}
}

// Common implements the [Layer] interface.
func (b *Base[T]) Common() *Base[T] {
	return b
}

// Parent returns the group which contains the layer, or nil if the layer
// is at the top level of the document or not part of a document.
func (b *Base[T]) Parent() *GroupLayer[T] {
	return b.parent
}

// Document returns the document which contains the layer, or nil if the
// layer has not been added to a document.
func (b *Base[T]) Document() *Document[T] {
	return b.doc
}

// extent stores the position and size of image and group layers.
type extent struct {
	center        vec.Vec2
	width, height int
}

// Width implements the [Layer] interface.
func (e *extent) Width() int {
	return e.width
}

// Height implements the [Layer] interface.
func (e *extent) Height() int {
	return e.height
}

// Center implements the [Layer] interface.
func (e *extent) Center() vec.Vec2 {
	return e.center
}

// SetCenter moves the layer, so that its centre is at the given position.
func (e *extent) SetCenter(c vec.Vec2) {
	e.center = c
}

// GroupLayer is a layer which contains other layers.
//
// The extent of a group is not stored.  It is the bounding box of all
// layers in the group.
type GroupLayer[T psd.Sample] struct {
	Base[T]

	// Open indicates whether the group is expanded in the layers panel.
	Open bool

	children []Layer[T]
}

// NewGroupLayer allocates a new, empty group.
func NewGroupLayer[T psd.Sample](name string) *GroupLayer[T] {
	return &GroupLayer[T]{
		Base: newBase[T](name, psd.BlendPassThrough),
		Open: true,
	}
}

// Kind implements the [Layer] interface.
func (g *GroupLayer[T]) Kind() Kind {
	return KindGroup
}

// Children returns the layers in the group, from the bottom-most to the
// top-most layer.
func (g *GroupLayer[T]) Children() []Layer[T] {
	return append([]Layer[T](nil), g.children...)
}

func (g *GroupLayer[T]) bounds() file.Rect {
	var res file.Rect
	for _, l := range g.children {
		r := layerRect(l)
		if r.IsEmpty() {
			continue
		}
		if res.IsEmpty() {
			res = r
			continue
		}
		res.Top = min(res.Top, r.Top)
		res.Left = min(res.Left, r.Left)
		res.Bottom = max(res.Bottom, r.Bottom)
		res.Right = max(res.Right, r.Right)
	}
	return res
}

// Width implements the [Layer] interface.
func (g *GroupLayer[T]) Width() int {
	return g.bounds().Width()
}

// Height implements the [Layer] interface.
func (g *GroupLayer[T]) Height() int {
	return g.bounds().Height()
}

// Center implements the [Layer] interface.
func (g *GroupLayer[T]) Center() vec.Vec2 {
	return rectCenter(g.bounds())
}

// layerRect returns the pixel rectangle covered by a layer.
func layerRect[T psd.Sample](l Layer[T]) file.Rect {
	return centeredRect(l.Center(), l.Width(), l.Height())
}

func centeredRect(c vec.Vec2, width, height int) file.Rect {
	left := int32(math.Round(c.X - float64(width)/2))
	top := int32(math.Round(c.Y - float64(height)/2))
	return file.Rect{
		Top:    top,
		Left:   left,
		Bottom: top + int32(height),
		Right:  left + int32(width),
	}
}

func rectCenter(r file.Rect) vec.Vec2 {
	return vec.Vec2{
		X: float64(r.Left) + float64(r.Width())/2,
		Y: float64(r.Top) + float64(r.Height())/2,
	}
}
