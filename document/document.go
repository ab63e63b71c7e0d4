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

// Package document implements an in-memory model of layered PSD and PSB
// images.
//
// A [Document] holds the canvas properties and a tree of layers.  The
// document is generic over the sample type, which determines the bit
// depth: uint8 for 8-bit, uint16 for 16-bit and float32 for 32-bit
// documents.  Layers are either image layers, which own their pixel data,
// groups, or smart-object layers, which show a linked asset.
//
// Documents are read with [Read] or [ReadFile] and written with
// [Document.Encode] or [Document.WriteFile].  A document and its layers
// must not be used concurrently from different goroutines without external
// synchronisation.
package document

import (
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/resource"
	"seehuhn.de/go/psd/smartobject"
	"seehuhn.de/go/psd/tagged"
)

// Document is a layered image.
type Document[T psd.Sample] struct {
	width, height int

	ColorMode psd.ColorMode

	// Version is the container format used when the document is written,
	// unless overridden in the write options.
	Version psd.Version

	// ICCProfile is the colour profile of the document, or nil.
	ICCProfile []byte

	// Resources are additional image resources which are written
	// unchanged.  The ICC profile is stored in the ICCProfile field
	// instead.
	Resources resource.Blocks

	// ColorModeData holds the palette of indexed colour documents and the
	// duotone parameters of duotone documents.
	ColorModeData []byte

	// Assets is the table of linked assets used by smart-object layers.
	Assets *smartobject.Store

	// GlobalBlocks are additional global tagged blocks which are written
	// unchanged.
	GlobalBlocks tagged.Blocks

	// Composite is the merged image, one plane per channel in the order
	// of the colour mode, or nil.
	Composite [][]T

	root []Layer[T]
}

// New allocates a new, empty document.
func New[T psd.Sample](mode psd.ColorMode, width, height int) (*Document[T], error) {
	if !mode.IsValid() {
		return nil, psd.Invalid("new document", "invalid colour mode %d", mode)
	}
	if mode == psd.Bitmap {
		return nil, psd.Invalid("new document", "bitmap documents are not supported")
	}
	d := &Document[T]{
		ColorMode: mode,
		Version:   psd.PSD,
		Assets:    smartobject.NewStore(),
	}
	if mode == psd.Indexed {
		d.ColorModeData = grayPalette()
	}
	err := d.SetCanvasSize(width, height)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// grayPalette returns a 256 entry palette of gray values.  Palettes are
// stored as 256 red, 256 green and 256 blue values.
func grayPalette() []byte {
	res := make([]byte, 768)
	for i := range 256 {
		res[i] = byte(i)
		res[256+i] = byte(i)
		res[512+i] = byte(i)
	}
	return res
}

// Depth returns the bit depth of the document.
func (d *Document[T]) Depth() psd.Depth {
	return psd.DepthOf[T]()
}

// Width returns the width of the canvas in pixels.
func (d *Document[T]) Width() int {
	return d.width
}

// Height returns the height of the canvas in pixels.
func (d *Document[T]) Height() int {
	return d.height
}

// SetCanvasSize changes the size of the canvas.  The layers are not
// changed.  Sizes which exceed the limits of the document's container
// version give a [*psd.LimitError].
func (d *Document[T]) SetCanvasSize(width, height int) error {
	if width < 1 || height < 1 {
		return psd.Invalid("set canvas size", "invalid canvas size %dx%d", width, height)
	}
	v := d.Version
	for _, dim := range []struct {
		what string
		val  int
	}{{"canvas width", width}, {"canvas height", height}} {
		err := psd.CheckLimit(dim.what, int64(dim.val), int64(v.MaxDimension()), v)
		if err != nil {
			return err
		}
	}
	d.width, d.height = width, height
	return nil
}

// NewImageLayer allocates an image layer with the colour mode of the
// document, placed at the top left corner of the canvas.  The layer is
// not added to the document.
func (d *Document[T]) NewImageLayer(name string, width, height int) (*ImageLayer[T], error) {
	center := vec.Vec2{X: float64(width) / 2, Y: float64(height) / 2}
	return NewImageLayer[T](d.ColorMode, name, width, height, center)
}
