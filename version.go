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

import (
	"fmt"
	"math"
)

// Version distinguishes between the PSD and the PSB container formats.
type Version uint16

// These are the container versions found in the file header.
const (
	PSD Version = 1
	PSB Version = 2
)

// ParseVersion converts the version field of the file header.
func ParseVersion(x uint16) (Version, error) {
	v := Version(x)
	if v != PSD && v != PSB {
		return 0, fmt.Errorf("%w %d", errVersion, x)
	}
	return v, nil
}

func (v Version) String() string {
	switch v {
	case PSD:
		return "PSD"
	case PSB:
		return "PSB"
	default:
		return fmt.Sprintf("Version(%d)", uint16(v))
	}
}

// LengthSize returns the number of bytes used for the variable-width length
// fields of the format.
func (v Version) LengthSize() int {
	if v == PSB {
		return 8
	}
	return 4
}

// MaxDimension returns the maximal width and height of a canvas or a layer.
func (v Version) MaxDimension() int {
	if v == PSB {
		return 300_000
	}
	return 30_000
}

// MaxLength returns the largest value representable in a variable-width
// length field.
func (v Version) MaxLength() int64 {
	if v == PSB {
		return math.MaxInt64
	}
	return math.MaxUint32
}

// RLECountSize returns the number of bytes used for each entry of the
// scanline byte count table of RLE compressed channels.
func (v Version) RLECountSize() int {
	if v == PSB {
		return 4
	}
	return 2
}
