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

package binio

import (
	"bytes"
	"math"

	"seehuhn.de/go/psd"
)

// Writer accumulates binary data in memory.
//
// Sections of a PSD file are prefixed by their length, so each section is
// first assembled in a Writer and then copied to the output.  Writing to
// a Writer never fails.
type Writer struct {
	bytes.Buffer
	buf [8]byte
}

// NewWriter allocates a new, empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteUint8 appends a single byte.
func (w *Writer) WriteUint8(x uint8) {
	w.WriteByte(x)
}

// WriteBool appends a boolean as a single byte.
func (w *Writer) WriteBool(x bool) {
	if x {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
}

// WriteUint16 appends a big-endian uint16 value.
func (w *Writer) WriteUint16(x uint16) {
	w.buf[0] = byte(x >> 8)
	w.buf[1] = byte(x)
	w.Write(w.buf[:2])
}

// WriteInt16 appends a big-endian int16 value.
func (w *Writer) WriteInt16(x int16) {
	w.WriteUint16(uint16(x))
}

// WriteUint32 appends a big-endian uint32 value.
func (w *Writer) WriteUint32(x uint32) {
	w.buf[0] = byte(x >> 24)
	w.buf[1] = byte(x >> 16)
	w.buf[2] = byte(x >> 8)
	w.buf[3] = byte(x)
	w.Write(w.buf[:4])
}

// WriteInt32 appends a big-endian int32 value.
func (w *Writer) WriteInt32(x int32) {
	w.WriteUint32(uint32(x))
}

// WriteUint64 appends a big-endian uint64 value.
func (w *Writer) WriteUint64(x uint64) {
	w.WriteUint32(uint32(x >> 32))
	w.WriteUint32(uint32(x))
}

// WriteInt64 appends a big-endian int64 value.
func (w *Writer) WriteInt64(x int64) {
	w.WriteUint64(uint64(x))
}

// WriteFloat64 appends a big-endian IEEE 754 double.
func (w *Writer) WriteFloat64(x float64) {
	w.WriteUint64(math.Float64bits(x))
}

// WriteLength appends a length field, which is 32 bits wide in PSD files
// and 64 bits wide in PSB files.  The caller must check that n fits.
func (w *Writer) WriteLength(v psd.Version, n int64) {
	if v == psd.PSB {
		w.WriteUint64(uint64(n))
	} else {
		w.WriteUint32(uint32(n))
	}
}

// WriteKey appends a four character code.
// Shorter keys are padded with spaces, longer keys are truncated.
func (w *Writer) WriteKey(key string) {
	var b [4]byte
	copy(b[:], "    ")
	copy(b[:], key)
	w.Write(b[:])
}

// Pad appends zero bytes to extend a field of length n to a multiple of
// align bytes.
func (w *Writer) Pad(n int64, align int) {
	for range PadLength(n, align) {
		w.WriteByte(0)
	}
}

// WriteSection appends the length of body, followed by body and the padding
// needed to extend body to a multiple of align bytes.  The padding is
// included in the length.
func (w *Writer) WriteSection(v psd.Version, body []byte, align int) {
	n := int64(len(body))
	w.WriteLength(v, n+PadLength(n, align))
	w.Write(body)
	w.Pad(n, align)
}
