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
	"unsafe"
)

// Sample is the type constraint for the in-memory representation of
// channel samples: uint8 for 8-bit documents, uint16 for 16-bit documents
// and float32 for 32-bit documents.
type Sample interface {
	~uint8 | ~uint16 | ~float32
}

// DepthOf returns the bit depth which corresponds to the sample type T.
func DepthOf[T Sample]() Depth {
	var zero T
	switch unsafe.Sizeof(zero) {
	case 1:
		return Depth8
	case 2:
		return Depth16
	default:
		return Depth32
	}
}

// DecodeSamples converts big-endian channel data to samples.
func DecodeSamples[T Sample](data []byte) ([]T, error) {
	depth := DepthOf[T]()
	size := depth.BytesPerSample()
	if len(data)%size != 0 {
		return nil, fmt.Errorf("%d bytes of channel data is not a multiple of %d", len(data), size)
	}
	res := make([]T, len(data)/size)
	switch depth {
	case Depth8:
		for i, b := range data {
			res[i] = T(b)
		}
	case Depth16:
		for i := range res {
			res[i] = T(uint16(data[2*i])<<8 | uint16(data[2*i+1]))
		}
	case Depth32:
		for i := range res {
			b := data[4*i : 4*i+4]
			bits := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
			res[i] = T(math.Float32frombits(bits))
		}
	}
	return res, nil
}

// EncodeSamples converts samples to big-endian channel data.
func EncodeSamples[T Sample](samples []T) []byte {
	depth := DepthOf[T]()
	res := make([]byte, len(samples)*depth.BytesPerSample())
	switch depth {
	case Depth8:
		for i, x := range samples {
			res[i] = uint8(x)
		}
	case Depth16:
		for i, x := range samples {
			v := uint16(x)
			res[2*i] = byte(v >> 8)
			res[2*i+1] = byte(v)
		}
	case Depth32:
		for i, x := range samples {
			bits := math.Float32bits(float32(x))
			res[4*i] = byte(bits >> 24)
			res[4*i+1] = byte(bits >> 16)
			res[4*i+2] = byte(bits >> 8)
			res[4*i+3] = byte(bits)
		}
	}
	return res
}

// MaxValue returns the sample value which represents full intensity.
func MaxValue[T Sample]() T {
	switch DepthOf[T]() {
	case Depth8:
		return T(math.MaxUint8)
	case Depth16:
		v := uint16(math.MaxUint16)
		return T(v)
	default:
		return T(1)
	}
}
