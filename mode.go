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

package psd

import "fmt"

// ColorMode is the colour mode of a document.
type ColorMode uint16

// These are the colour modes defined by the file format.
const (
	Bitmap       ColorMode = 0
	Grayscale    ColorMode = 1
	Indexed      ColorMode = 2
	RGB          ColorMode = 3
	CMYK         ColorMode = 4
	Multichannel ColorMode = 7
	Duotone      ColorMode = 8
	Lab          ColorMode = 9
)

// IsValid reports whether m is one of the known colour modes.
func (m ColorMode) IsValid() bool {
	switch m {
	case Bitmap, Grayscale, Indexed, RGB, CMYK, Multichannel, Duotone, Lab:
		return true
	}
	return false
}

// NumColorChannels returns the number of colour channels each layer has in
// this colour mode, not counting transparency and masks.
// For [Multichannel] documents the number is not fixed, and 0 is returned.
func (m ColorMode) NumColorChannels() int {
	switch m {
	case Bitmap, Grayscale, Indexed, Duotone:
		return 1
	case RGB, Lab:
		return 3
	case CMYK:
		return 4
	default:
		return 0
	}
}

func (m ColorMode) String() string {
	switch m {
	case Bitmap:
		return "Bitmap"
	case Grayscale:
		return "Grayscale"
	case Indexed:
		return "Indexed"
	case RGB:
		return "RGB"
	case CMYK:
		return "CMYK"
	case Multichannel:
		return "Multichannel"
	case Duotone:
		return "Duotone"
	case Lab:
		return "Lab"
	default:
		return fmt.Sprintf("ColorMode(%d)", uint16(m))
	}
}

// Depth is the number of bits per channel sample.
type Depth uint16

// These are the bit depths supported by the file format.
const (
	Depth1  Depth = 1
	Depth8  Depth = 8
	Depth16 Depth = 16
	Depth32 Depth = 32
)

// IsValid reports whether d is a supported bit depth.
func (d Depth) IsValid() bool {
	return d == Depth1 || d == Depth8 || d == Depth16 || d == Depth32
}

// BytesPerSample returns the number of bytes used for one sample.
// For 1-bit images, 1 is returned.
func (d Depth) BytesPerSample() int {
	switch d {
	case Depth16:
		return 2
	case Depth32:
		return 4
	default:
		return 1
	}
}

// RowBytes returns the number of bytes in one uncompressed scanline of a
// channel with the given width.
func (d Depth) RowBytes(width int) int {
	if d == Depth1 {
		return (width + 7) / 8
	}
	return width * d.BytesPerSample()
}

// ChannelID identifies a channel of a layer.
// Non-negative values are colour channels, in the order given by the colour
// mode (e.g. 0=red, 1=green, 2=blue for RGB documents).
type ChannelID int16

// These are the special channel IDs used in layer records.
const (
	ChannelTransparency ChannelID = -1
	ChannelUserMask     ChannelID = -2
	ChannelRealUserMask ChannelID = -3
)

// IsMask reports whether the channel belongs to the mask family.
func (id ChannelID) IsMask() bool {
	return id == ChannelUserMask || id == ChannelRealUserMask
}

var channelNames = map[ColorMode][]string{
	Bitmap:    {"bitmap"},
	Grayscale: {"gray"},
	Indexed:   {"index"},
	Duotone:   {"gray"},
	RGB:       {"red", "green", "blue"},
	CMYK:      {"cyan", "magenta", "yellow", "black"},
	Lab:       {"L", "a", "b"},
}

// ChannelName returns a human readable name for a channel of a layer in
// a document with the given colour mode.
func ChannelName(m ColorMode, id ChannelID) string {
	switch id {
	case ChannelTransparency:
		return "alpha"
	case ChannelUserMask:
		return "mask"
	case ChannelRealUserMask:
		return "real mask"
	}
	names := channelNames[m]
	if id >= 0 && int(id) < len(names) {
		return names[id]
	}
	return fmt.Sprintf("channel %d", id)
}

// ParseChannelName is the inverse of [ChannelName].
func ParseChannelName(m ColorMode, name string) (ChannelID, bool) {
	switch name {
	case "alpha":
		return ChannelTransparency, true
	case "mask":
		return ChannelUserMask, true
	case "real mask":
		return ChannelRealUserMask, true
	}
	for i, n := range channelNames[m] {
		if n == name {
			return ChannelID(i), true
		}
	}
	return 0, false
}
