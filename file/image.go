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

package file

import (
	"fmt"
	"io"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/compression"
	"seehuhn.de/go/psd/internal/binio"
)

// ImageData is the merged image, which is stored at the end of the file.
type ImageData struct {
	Compression compression.Method

	// Channels holds one plane of uncompressed, big-endian sample data
	// per channel, in the order given by the colour mode.
	Channels [][]byte
}

// imageParams returns the layout of the merged image data.  All channels
// are compressed together, as if they were a single plane of height
// Height*Channels.
func imageParams(h *Header) *compression.Params {
	return &compression.Params{
		Width:   int(h.Width),
		Height:  int(h.Height) * int(h.Channels),
		Depth:   h.Depth,
		Version: h.Version,
	}
}

func readImageData(r *binio.Reader, h *Header) (*ImageData, error) {
	start := r.Pos()
	data, err := r.ReadRest()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) < 2 {
		return nil, &psd.FormatError{Section: r.Section(), Pos: start, Err: io.ErrUnexpectedEOF}
	}

	img := &ImageData{
		Compression: compression.Method(uint16(data[0])<<8 | uint16(data[1])),
	}
	if !img.Compression.IsValid() {
		return nil, &psd.FormatError{
			Section: r.Section(),
			Pos:     start,
			Err:     fmt.Errorf("unknown compression method %d", uint16(img.Compression)),
		}
	}
	p := imageParams(h)
	plane, err := compression.Decode(data[2:], img.Compression, p)
	if err != nil {
		return nil, &psd.FormatError{Section: r.Section(), Pos: start + 2, Err: err}
	}

	n := h.Depth.RowBytes(int(h.Width)) * int(h.Height)
	img.Channels = make([][]byte, h.Channels)
	for i := range img.Channels {
		img.Channels[i] = plane[i*n : (i+1)*n : (i+1)*n]
	}
	return img, nil
}

func (img *ImageData) encode(h *Header) ([]byte, error) {
	n := h.Depth.RowBytes(int(h.Width)) * int(h.Height)
	plane := make([]byte, 0, n*len(img.Channels))
	for _, c := range img.Channels {
		plane = append(plane, c...)
	}
	body, err := compression.Encode(plane, img.Compression, imageParams(h))
	if err != nil {
		return nil, psd.Invalid("encode", "merged image: %w", err)
	}
	w := binio.NewWriter()
	w.WriteUint16(uint16(img.Compression))
	w.Write(body)
	return w.Bytes(), nil
}
