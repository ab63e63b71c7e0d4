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

// Package compression implements the compression methods used for channel
// image data in PSD and PSB files.
//
// Channel data is always handled as uncompressed, big-endian sample bytes,
// one row after another.  Use [psd.DecodeSamples] and [psd.EncodeSamples] to
// convert between this representation and sample values.
package compression

import (
	"errors"
	"fmt"

	"seehuhn.de/go/psd"
)

// Method is the compression method of a channel.
type Method uint16

// These are the compression methods defined by the file format.
const (
	Raw           Method = 0
	RLE           Method = 1
	Zip           Method = 2
	ZipPrediction Method = 3
)

// IsValid reports whether m is a known compression method.
func (m Method) IsValid() bool {
	return m <= ZipPrediction
}

func (m Method) String() string {
	switch m {
	case Raw:
		return "raw"
	case RLE:
		return "rle"
	case Zip:
		return "zip"
	case ZipPrediction:
		return "zip+prediction"
	default:
		return fmt.Sprintf("Method(%d)", uint16(m))
	}
}

// ParseMethod converts the name of a compression method, as returned by
// [Method.String], back into a Method.
func ParseMethod(name string) (Method, error) {
	for m := Raw; m <= ZipPrediction; m++ {
		if m.String() == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown compression method %q", name)
}

// DefaultMethod returns the method used when the caller has not chosen one:
// RLE for 1- and 8-bit data, zip for 16- and 32-bit data.
func DefaultMethod(depth psd.Depth) Method {
	if depth == psd.Depth16 || depth == psd.Depth32 {
		return Zip
	}
	return RLE
}

const maxPixels = 300_000 * 300_000

// Params describes the layout of a channel plane.
type Params struct {
	// Width and Height are the dimensions of the plane in pixels.
	Width, Height int

	// Depth is the number of bits per sample.
	Depth psd.Depth

	// Version selects the width of the RLE byte count table.
	Version psd.Version
}

// Validate checks that the parameters describe a valid channel plane.
func (p *Params) Validate() error {
	if p.Width < 0 || p.Height < 0 {
		return fmt.Errorf("invalid plane size %dx%d", p.Width, p.Height)
	}
	if int64(p.Width)*int64(p.Height) > maxPixels {
		return fmt.Errorf("plane size %dx%d too large", p.Width, p.Height)
	}
	if !p.Depth.IsValid() {
		return fmt.Errorf("invalid bit depth %d", p.Depth)
	}
	if p.Version != psd.PSD && p.Version != psd.PSB {
		return fmt.Errorf("invalid version %d", p.Version)
	}
	return nil
}

// RowBytes returns the number of bytes in one uncompressed row.
func (p *Params) RowBytes() int {
	return p.Depth.RowBytes(p.Width)
}

// PlaneBytes returns the size of the uncompressed plane.
func (p *Params) PlaneBytes() int {
	return p.RowBytes() * p.Height
}

var errSize = errors.New("wrong amount of channel data")

// Decode decompresses a channel plane.
// The result contains the uncompressed, big-endian sample data.
func Decode(data []byte, m Method, p *Params) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Width == 0 || p.Height == 0 {
		return []byte{}, nil
	}

	switch m {
	case Raw:
		n := p.PlaneBytes()
		if len(data) < n {
			return nil, fmt.Errorf("raw: %w: got %d bytes, want %d", errSize, len(data), n)
		}
		res := make([]byte, n)
		copy(res, data)
		return res, nil
	case RLE:
		return decodeRLE(data, p)
	case Zip:
		return inflate(data, p.PlaneBytes())
	case ZipPrediction:
		res, err := inflate(data, p.PlaneBytes())
		if err != nil {
			return nil, err
		}
		err = unpredict(res, p)
		if err != nil {
			return nil, err
		}
		return res, nil
	default:
		return nil, fmt.Errorf("unsupported compression method %d", m)
	}
}

// Encode compresses a channel plane.
// The plane must contain the uncompressed, big-endian sample data.
func Encode(plane []byte, m Method, p *Params) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if n := p.PlaneBytes(); len(plane) != n {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", errSize, len(plane), n)
	}
	if p.Width == 0 || p.Height == 0 {
		return []byte{}, nil
	}

	switch m {
	case Raw:
		res := make([]byte, len(plane))
		copy(res, plane)
		return res, nil
	case RLE:
		return encodeRLE(plane, p), nil
	case Zip:
		return deflate(plane)
	case ZipPrediction:
		tmp := make([]byte, len(plane))
		copy(tmp, plane)
		err := predict(tmp, p)
		if err != nil {
			return nil, err
		}
		return deflate(tmp)
	default:
		return nil, fmt.Errorf("unsupported compression method %d", m)
	}
}
