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
	"slices"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/psd"
)

// MaxFeather is the largest supported mask feather radius, in pixels.
const MaxFeather = 1000

// Mask is the layer mask of a layer.
//
// The mask has its own position and size.  Outside of its bounds the mask
// takes the value DefaultColor, which is 255 (fully visible) for new masks.
type Mask[T psd.Sample] struct {
	extent

	data     []T
	consumed bool

	density         uint8
	feather         float64
	defaultColor    uint8
	disabled        bool
	relativeToLayer bool
}

func newMask[T psd.Sample](data []T, width, height int, center vec.Vec2) *Mask[T] {
	return &Mask[T]{
		extent:  extent{center: center, width: width, height: height},
		data:         data,
		density:      255,
		defaultColor: 255,
	}
}

// Density returns the opacity of the mask, from 0 to 255.
func (m *Mask[T]) Density() uint8 {
	return m.density
}

// Feather returns the feather radius of the mask, in pixels.
func (m *Mask[T]) Feather() float64 {
	return m.feather
}

// DefaultColor returns the mask value outside of the mask bounds.  This is
// either 0 or 255.
func (m *Mask[T]) DefaultColor() uint8 {
	return m.defaultColor
}

// Disabled reports whether the mask is switched off.
func (m *Mask[T]) Disabled() bool {
	return m.disabled
}

// RelativeToLayer reports whether the mask moves together with the layer.
func (m *Mask[T]) RelativeToLayer() bool {
	return m.relativeToLayer
}

// SetMask attaches a mask to l, replacing any existing mask.  The mask
// covers the bounds of the layer and data must hold Width*Height samples.
// The mask parameters are reset to their defaults.
func SetMask[T psd.Sample](l Layer[T], data []T) error {
	return SetMaskRect(l, data, l.Width(), l.Height(), l.Center())
}

// SetMaskRect attaches a mask with the given size and position to l.
func SetMaskRect[T psd.Sample](l Layer[T], data []T, width, height int, center vec.Vec2) error {
	if width < 0 || height < 0 {
		return psd.Invalid("set mask", "invalid mask size %dx%d", width, height)
	}
	if len(data) != width*height {
		return psd.Invalid("set mask", "%d samples, want %dx%d=%d",
			len(data), width, height, width*height)
	}
	l.Common().setMask(newMask(data, width, height, center))
	return nil
}

// setMaskChannel replaces the data of the mask, keeping its parameters.
// If l has no mask, a new mask with the bounds of the layer is created.
func setMaskChannel[T psd.Sample](l Layer[T], data []T) error {
	m := l.Common().mask
	if m == nil {
		return SetMask(l, data)
	}
	if len(data) != m.width*m.height {
		return psd.Invalid("set mask", "%d samples, want %dx%d=%d",
			len(data), m.width, m.height, m.width*m.height)
	}
	m.data = data
	m.consumed = false
	return nil
}

func (b *Base[T]) setMask(m *Mask[T]) {
	b.mask = m
}

// Mask returns the layer mask, or nil if the layer has no mask.
func (b *Base[T]) Mask() *Mask[T] {
	return b.mask
}

// RemoveMask removes the layer mask.
func (b *Base[T]) RemoveMask() {
	b.mask = nil
}

// MaskData returns the samples of the layer mask.  The consume argument
// has the same meaning as for [ImageLayer.GetChannel].
func (b *Base[T]) MaskData(consume bool) ([]T, error) {
	m, err := b.needMask("get mask")
	if err != nil {
		return nil, err
	}
	if m.consumed {
		return nil, &psd.ValidationError{
			Op:  "get mask",
			Err: fmt.Errorf("mask: %w", psd.ErrChannelConsumed),
		}
	}
	if !consume {
		return slices.Clone(m.data), nil
	}
	data := m.data
	m.data = nil
	m.consumed = true
	return data, nil
}

func (b *Base[T]) needMask(op string) (*Mask[T], error) {
	if b.mask == nil {
		return nil, psd.Invalid(op, "layer %q has no mask", b.Name)
	}
	return b.mask, nil
}

// SetMaskDensity sets the opacity of the mask.  The value must be in the
// range 0 to 255.
func (b *Base[T]) SetMaskDensity(density int) error {
	m, err := b.needMask("set mask density")
	if err != nil {
		return err
	}
	if density < 0 || density > math.MaxUint8 {
		return psd.Invalid("set mask density", "density %d outside the range 0-255", density)
	}
	m.density = uint8(density)
	return nil
}

// SetMaskFeather sets the feather radius of the mask, in pixels.
func (b *Base[T]) SetMaskFeather(radius float64) error {
	m, err := b.needMask("set mask feather")
	if err != nil {
		return err
	}
	if !(radius >= 0 && radius <= MaxFeather) {
		return psd.Invalid("set mask feather", "feather %g outside the range 0-%d", radius, MaxFeather)
	}
	m.feather = radius
	return nil
}

// SetMaskDefaultColor sets the mask value outside of the mask bounds.
// Only the values 0 and 255 are allowed.
func (b *Base[T]) SetMaskDefaultColor(color int) error {
	m, err := b.needMask("set mask default color")
	if err != nil {
		return err
	}
	if color != 0 && color != 255 {
		return psd.Invalid("set mask default color", "default colour must be 0 or 255, not %d", color)
	}
	m.defaultColor = uint8(color)
	return nil
}

// SetMaskDisabled switches the mask off or on.
func (b *Base[T]) SetMaskDisabled(disabled bool) error {
	m, err := b.needMask("set mask disabled")
	if err != nil {
		return err
	}
	m.disabled = disabled
	return nil
}

// SetMaskRelativeToLayer sets whether the mask moves together with the
// layer.
func (b *Base[T]) SetMaskRelativeToLayer(relative bool) error {
	m, err := b.needMask("set mask relative")
	if err != nil {
		return err
	}
	m.relativeToLayer = relative
	return nil
}

// rescale resamples the mask by the factors fx and fy.  The mask centre is
// scaled relative to the given origin.
func (m *Mask[T]) rescale(fx, fy float64, origin vec.Vec2) error {
	if m.consumed {
		return &psd.ValidationError{
			Op:  "rescale mask",
			Err: fmt.Errorf("mask: %w", psd.ErrChannelConsumed),
		}
	}
	nw := scaledSize(m.width, fx)
	nh := scaledSize(m.height, fy)
	m.data = Resample(m.data, m.width, m.height, nw, nh)
	m.width, m.height = nw, nh
	m.center = vec.Vec2{
		X: origin.X + (m.center.X-origin.X)*fx,
		Y: origin.Y + (m.center.Y-origin.Y)*fy,
	}
	return nil
}

func scaledSize(n int, f float64) int {
	return max(int(math.Round(float64(n)*f)), 0)
}
