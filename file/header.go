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
	"errors"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/internal/binio"
)

// MaxChannels is the maximal number of channels in a document.
const MaxChannels = 56

// HeaderSize is the size of the file header in bytes.
const HeaderSize = 26

// Header is the fixed-size header at the start of a PSD or PSB file.
type Header struct {
	Version psd.Version

	// Channels is the number of channels of the merged image, including
	// alpha channels.
	Channels uint16

	Height, Width uint32
	Depth         psd.Depth
	ColorMode     psd.ColorMode
}

// ReadHeader reads and checks the file header.
func ReadHeader(r *binio.Reader) (*Header, error) {
	_, err := r.ReadSignature("8BPS")
	if err != nil {
		return nil, err
	}
	x, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	v, err := psd.ParseVersion(x)
	if err != nil {
		return nil, r.Wrap(err)
	}
	err = r.Skip(6)
	if err != nil {
		return nil, err
	}

	h := &Header{Version: v}
	h.Channels, err = r.ReadUint16()
	if err != nil {
		return nil, err
	}
	h.Height, err = r.ReadUint32()
	if err != nil {
		return nil, err
	}
	h.Width, err = r.ReadUint32()
	if err != nil {
		return nil, err
	}
	depth, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	h.Depth = psd.Depth(depth)
	mode, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	h.ColorMode = psd.ColorMode(mode)

	err = h.check()
	if err != nil {
		return nil, &psd.FormatError{Section: "header", Pos: 0, Err: err}
	}
	return h, nil
}

var errEmpty = errors.New("empty canvas")

func (h *Header) check() error {
	if h.Channels < 1 || h.Channels > MaxChannels {
		return psd.Invalid("header", "invalid number of channels %d", h.Channels)
	}
	if h.Width == 0 || h.Height == 0 {
		return errEmpty
	}
	maxDim := uint32(h.Version.MaxDimension())
	if h.Width > maxDim || h.Height > maxDim {
		return &psd.LimitError{
			What:    "canvas size",
			Value:   int64(max(h.Width, h.Height)),
			Max:     int64(maxDim),
			Version: h.Version,
		}
	}
	if !h.Depth.IsValid() {
		return psd.Invalid("header", "unsupported bit depth %d", h.Depth)
	}
	if !h.ColorMode.IsValid() {
		return psd.Invalid("header", "unsupported colour mode %d", h.ColorMode)
	}
	if h.ColorMode == psd.Bitmap && h.Depth != psd.Depth1 {
		return psd.Invalid("header", "bitmap documents must have 1-bit depth")
	}
	return nil
}

// Write appends the header to w.
func (h *Header) Write(w *binio.Writer) {
	w.WriteKey("8BPS")
	w.WriteUint16(uint16(h.Version))
	w.Write(make([]byte, 6))
	w.WriteUint16(h.Channels)
	w.WriteUint32(h.Height)
	w.WriteUint32(h.Width)
	w.WriteUint16(uint16(h.Depth))
	w.WriteUint16(uint16(h.ColorMode))
}
