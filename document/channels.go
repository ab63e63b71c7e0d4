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
	"seehuhn.de/go/psd"
)

// GetChannel returns the pixel data of a channel of l.  Mask channels are
// available for all layer kinds, colour and transparency channels only for
// image layers.  See [ImageLayer.GetChannel] for details.
func GetChannel[T psd.Sample](l Layer[T], id psd.ChannelID, consume bool) ([]T, error) {
	if id.IsMask() {
		return l.Common().MaskData(consume)
	}
	img, err := needImage(l, "get channel")
	if err != nil {
		return nil, err
	}
	return img.GetChannel(id, consume)
}

// GetChannelByIndex returns the pixel data of a channel of l, given by its
// position.  See [ImageLayer.GetChannelByIndex] for details.
func GetChannelByIndex[T psd.Sample](l Layer[T], idx int, consume bool) ([]T, error) {
	if idx < 0 && psd.ChannelID(idx).IsMask() {
		return l.Common().MaskData(consume)
	}
	img, err := needImage(l, "get channel")
	if err != nil {
		return nil, err
	}
	return img.GetChannelByIndex(idx, consume)
}

// SetChannel replaces the pixel data of a channel of l.
// See [ImageLayer.SetChannel] for details.
func SetChannel[T psd.Sample](l Layer[T], id psd.ChannelID, data []T) error {
	if id.IsMask() {
		return setMaskChannel(l, data)
	}
	img, err := needImage(l, "set channel")
	if err != nil {
		return err
	}
	return img.SetChannel(id, data)
}

// ImageData returns copies of all channels of l.
func ImageData[T psd.Sample](l Layer[T]) (map[psd.ChannelID][]T, error) {
	img, err := needImage(l, "get image data")
	if err != nil {
		return nil, err
	}
	return img.ImageData()
}

// SetImageData replaces all channels of l.
// See [ImageLayer.SetImageData] for details.
func SetImageData[T psd.Sample](l Layer[T], data map[psd.ChannelID][]T) error {
	img, err := needImage(l, "set image data")
	if err != nil {
		return err
	}
	return img.SetImageData(data)
}

func needImage[T psd.Sample](l Layer[T], op string) (*ImageLayer[T], error) {
	img, ok := l.(*ImageLayer[T])
	if !ok {
		return nil, &psd.CapabilityError{Op: op, Kind: l.Kind().String()}
	}
	return img, nil
}

// Rescale resamples all channels and the mask of the layer to the new
// size.  The centre of the layer is kept fixed, the mask is scaled about
// the centre of the layer.
//
// The channel data is extracted, the declared size is updated, and then
// the resampled data is set again.  If a channel has been extracted
// before, an error is returned and the layer is unchanged.
func (l *ImageLayer[T]) Rescale(width, height int) error {
	if width < 0 || height < 0 {
		return psd.Invalid("rescale", "invalid size %dx%d", width, height)
	}
	for _, id := range l.ChannelIDs() {
		if l.channels[id].consumed {
			_, err := l.GetChannel(id, false)
			return err
		}
	}
	if l.mask != nil && l.mask.consumed {
		_, err := l.MaskData(false)
		return err
	}

	oldW, oldH := l.width, l.height
	ids := l.ChannelIDs()
	planes := make(map[psd.ChannelID][]T, len(ids))
	for _, id := range ids {
		data, err := l.GetChannel(id, true)
		if err != nil {
			return err
		}
		planes[id] = data
	}

	err := l.SetSize(width, height)
	if err != nil {
		return err
	}

	for _, id := range ids {
		err := l.SetChannel(id, Resample(planes[id], oldW, oldH, width, height))
		if err != nil {
			return err
		}
	}

	if l.mask != nil && oldW > 0 && oldH > 0 {
		fx := float64(width) / float64(oldW)
		fy := float64(height) / float64(oldH)
		err := l.mask.rescale(fx, fy, l.center)
		if err != nil {
			return err
		}
	}
	return nil
}
