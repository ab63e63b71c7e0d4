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
	"slices"

	"golang.org/x/exp/maps"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/file"
)

// ImageLayer is a layer which holds pixel data.
//
// The layer owns one buffer per channel.  Each buffer holds Width*Height
// samples, one row after another.
type ImageLayer[T psd.Sample] struct {
	Base[T]
	extent

	mode     psd.ColorMode
	channels map[psd.ChannelID]*channel[T]
}

// channel is the pixel data of one channel.  After the data has been
// extracted with consume=true, data is nil and consumed is set.
type channel[T psd.Sample] struct {
	data     []T
	consumed bool
}

// NewImageLayer allocates a new image layer without pixel data.  The layer
// is centred at the given position.
func NewImageLayer[T psd.Sample](mode psd.ColorMode, name string, width, height int, center vec.Vec2) (*ImageLayer[T], error) {
	if width < 0 || height < 0 {
		return nil, psd.Invalid("new image layer", "invalid size %dx%d", width, height)
	}
	if !mode.IsValid() || mode == psd.Bitmap {
		return nil, psd.Invalid("new image layer", "unsupported colour mode %s", mode)
	}
	return &ImageLayer[T]{
		Base:     newBase[T](name, psd.BlendNormal),
		extent:   extent{center: center, width: width, height: height},
		mode:     mode,
		channels: make(map[psd.ChannelID]*channel[T]),
	}, nil
}

// Kind implements the [Layer] interface.
func (l *ImageLayer[T]) Kind() Kind {
	return KindImage
}

// ColorMode returns the colour mode of the layer.
func (l *ImageLayer[T]) ColorMode() psd.ColorMode {
	return l.mode
}

// SetSize changes the declared size of the layer.  This fails if the
// layer still holds pixel data, so that data is always extracted before
// and re-set after the size changes.
func (l *ImageLayer[T]) SetSize(width, height int) error {
	if width < 0 || height < 0 {
		return psd.Invalid("set size", "invalid size %dx%d", width, height)
	}
	if width == l.width && height == l.height {
		return nil
	}
	for _, id := range l.ChannelIDs() {
		if !l.channels[id].consumed {
			return psd.Invalid("set size", "layer %q still holds data for channel %s",
				l.Name, psd.ChannelName(l.mode, id))
		}
	}
	l.width, l.height = width, height
	return nil
}

// ChannelIDs returns the IDs of the colour and transparency channels of
// the layer, in the order colour channels first, then transparency.
func (l *ImageLayer[T]) ChannelIDs() []psd.ChannelID {
	return sortedIDs(l.channels)
}

func sortedIDs[V any](m map[psd.ChannelID]V) []psd.ChannelID {
	ids := maps.Keys(m)
	slices.SortFunc(ids, compareChannels)
	return ids
}

// compareChannels orders colour channels before the special channels.
func compareChannels(a, b psd.ChannelID) int {
	if (a < 0) != (b < 0) {
		if a < 0 {
			return 1
		}
		return -1
	}
	if a < 0 {
		return int(b) - int(a)
	}
	return int(a) - int(b)
}

// validID reports whether id is a colour or transparency channel of the
// layer's colour mode.
func (l *ImageLayer[T]) validID(id psd.ChannelID) bool {
	if id == psd.ChannelTransparency {
		return true
	}
	n := l.mode.NumColorChannels()
	if n == 0 {
		n = file.MaxChannels - 1
	}
	return id >= 0 && int(id) < n
}

func (l *ImageLayer[T]) requiredIDs() []psd.ChannelID {
	n := l.mode.NumColorChannels()
	if n == 0 {
		n = 1
	}
	res := make([]psd.ChannelID, n)
	for i := range res {
		res[i] = psd.ChannelID(i)
	}
	return res
}

// GetChannel returns the pixel data of a channel.  The mask channels
// [psd.ChannelUserMask] and [psd.ChannelRealUserMask] address the layer
// mask.
//
// If consume is false, a copy of the data is returned.  If consume is
// true, the layer's buffer is handed over to the caller and subsequent
// accesses fail with [psd.ErrChannelConsumed], until new data is set.
func (l *ImageLayer[T]) GetChannel(id psd.ChannelID, consume bool) ([]T, error) {
	if id.IsMask() {
		return l.MaskData(consume)
	}
	ch, ok := l.channels[id]
	if !ok {
		return nil, psd.Invalid("get channel", "layer %q has no %s channel",
			l.Name, psd.ChannelName(l.mode, id))
	}
	if ch.consumed {
		return nil, &psd.ValidationError{
			Op:  "get channel",
			Err: fmt.Errorf("%s: %w", psd.ChannelName(l.mode, id), psd.ErrChannelConsumed),
		}
	}
	if !consume {
		return slices.Clone(ch.data), nil
	}
	data := ch.data
	ch.data = nil
	ch.consumed = true
	return data, nil
}

// GetChannelByIndex returns the pixel data of a channel, given by its
// position.  Non-negative indices address the channels in the order
// returned by [ImageLayer.ChannelIDs].  Negative indices are channel IDs,
// so that -1 is the transparency channel and -2 is the layer mask.
func (l *ImageLayer[T]) GetChannelByIndex(idx int, consume bool) ([]T, error) {
	id, err := l.indexToID(idx)
	if err != nil {
		return nil, err
	}
	return l.GetChannel(id, consume)
}

func (l *ImageLayer[T]) indexToID(idx int) (psd.ChannelID, error) {
	if idx < 0 {
		if idx < int(psd.ChannelRealUserMask) {
			return 0, psd.Invalid("channel index", "invalid channel index %d", idx)
		}
		return psd.ChannelID(idx), nil
	}
	ids := l.ChannelIDs()
	if idx >= len(ids) {
		return 0, psd.Invalid("channel index", "channel index %d out of range (layer has %d channels)",
			idx, len(ids))
	}
	return ids[idx], nil
}

// SetChannel replaces the pixel data of a channel.  The layer takes
// ownership of data, which must hold Width*Height samples.  Mask channel
// IDs set the layer mask; a missing mask is created with the bounds of the
// layer.
func (l *ImageLayer[T]) SetChannel(id psd.ChannelID, data []T) error {
	if id.IsMask() {
		return setMaskChannel(l, data)
	}
	if !l.validID(id) {
		return psd.Invalid("set channel", "channel %d is not valid for colour mode %s", id, l.mode)
	}
	if want := l.width * l.height; len(data) != want {
		return psd.Invalid("set channel", "channel %s: %d samples, want %dx%d=%d",
			psd.ChannelName(l.mode, id), len(data), l.width, l.height, want)
	}
	l.channels[id] = &channel[T]{data: data}
	return nil
}

// SetChannelByIndex is like [ImageLayer.SetChannel], but the channel is
// given by its position as described for [ImageLayer.GetChannelByIndex].
func (l *ImageLayer[T]) SetChannelByIndex(idx int, data []T) error {
	id, err := l.indexToID(idx)
	if err != nil {
		return err
	}
	return l.SetChannel(id, data)
}

// ImageData returns copies of all channels, including the layer mask.
func (l *ImageLayer[T]) ImageData() (map[psd.ChannelID][]T, error) {
	res := make(map[psd.ChannelID][]T, len(l.channels)+1)
	for _, id := range l.ChannelIDs() {
		data, err := l.GetChannel(id, false)
		if err != nil {
			return nil, err
		}
		res[id] = data
	}
	if l.mask != nil {
		data, err := l.MaskData(false)
		if err != nil {
			return nil, err
		}
		res[psd.ChannelUserMask] = data
	}
	return res, nil
}

// SetImageData replaces all channels of the layer.
//
// The map must contain exactly the colour channels of the layer's colour
// mode, optionally together with a transparency channel.  All buffers must
// hold Width*Height samples.  A mask channel in the map, given either as
// [psd.ChannelUserMask] or [psd.ChannelRealUserMask], becomes the layer
// mask, positioned at the bounds of the layer.  At most one mask channel
// may be given.  The layer takes ownership of the buffers.  If an error is
// returned, the layer is unchanged.
func (l *ImageLayer[T]) SetImageData(data map[psd.ChannelID][]T) error {
	for _, id := range l.requiredIDs() {
		if _, ok := data[id]; !ok {
			return psd.Invalid("set image data", "%s channel missing", psd.ChannelName(l.mode, id))
		}
	}
	want := l.width * l.height
	ids := sortedIDs(data)
	var maskID psd.ChannelID
	hasMask := false
	for _, id := range ids {
		if id.IsMask() {
			if hasMask {
				return psd.Invalid("set image data", "ambiguous mask: both channel %d and %d given", maskID, id)
			}
			maskID, hasMask = id, true
		} else if !l.validID(id) || (id >= 0 && int(id) >= len(l.requiredIDs()) && l.mode != psd.Multichannel) {
			return psd.Invalid("set image data", "unexpected channel %d for colour mode %s", id, l.mode)
		}
		if len(data[id]) != want {
			return psd.Invalid("set image data", "channel %s: %d samples, want %dx%d=%d",
				psd.ChannelName(l.mode, id), len(data[id]), l.width, l.height, want)
		}
	}

	channels := make(map[psd.ChannelID]*channel[T], len(data))
	for _, id := range ids {
		if id.IsMask() {
			continue
		}
		channels[id] = &channel[T]{data: data[id]}
	}
	l.channels = channels
	if hasMask {
		l.setMask(newMask(data[maskID], l.width, l.height, l.center))
	}
	return nil
}

// hasData reports whether the layer holds any pixel data.
func (l *ImageLayer[T]) hasData() bool {
	return len(l.channels) > 0
}
