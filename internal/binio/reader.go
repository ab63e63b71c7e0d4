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

// Package binio implements reading and writing of the big-endian binary
// primitives used throughout PSD and PSB files.
package binio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"seehuhn.de/go/psd"
)

// Reader allows to read data from a PSD file.
//
// A Reader keeps track of the absolute file position, so that errors can
// report where in the file a problem was found.  Sub-readers obtained with
// [Reader.Sub] are restricted to a region of the parent's input.
type Reader struct {
	r       io.Reader
	parent  *Reader
	section string

	pos   int64
	limit int64 // -1 if unlimited
	buf   [8]byte
}

// NewReader allocates a new Reader which starts at file position 0.
func NewReader(r io.Reader, section string) *Reader {
	switch r.(type) {
	case *bytes.Reader, *bufio.Reader:
	default:
		r = bufio.NewReaderSize(r, 64*1024)
	}
	return &Reader{r: r, section: section, limit: -1}
}

// Sub returns a reader for the next n bytes of input.
// The parent must not be used until the sub-reader has been finished
// with [Reader.Finish].
func (r *Reader) Sub(section string, n int64) (*Reader, error) {
	if n < 0 || (r.limit >= 0 && r.pos+n > r.limit) {
		return nil, r.Error("%s: length %d exceeds the enclosing section", section, n)
	}
	if section == "" {
		section = r.section
	}
	return &Reader{
		parent:  r,
		section: section,
		pos:     r.pos,
		limit:   r.pos + n,
	}, nil
}

// Tail returns a reader for the remaining input of r, reported as the
// given section.  Like for [Reader.Sub], the parent must not be used while
// the tail reader is in use.
func (r *Reader) Tail(section string) *Reader {
	return &Reader{
		parent:  r,
		section: section,
		pos:     r.pos,
		limit:   r.limit,
	}
}

// Finish skips all remaining bytes of a sub-reader.
func (r *Reader) Finish() error {
	if r.limit < 0 {
		return nil
	}
	return r.Skip(r.limit - r.pos)
}

// Section returns the name of the section which is currently being read.
func (r *Reader) Section() string {
	return r.section
}

// Pos returns the current absolute file position.
func (r *Reader) Pos() int64 {
	return r.pos
}

// Remaining returns the number of bytes left in a sub-reader,
// or -1 if the reader is not limited.
func (r *Reader) Remaining() int64 {
	if r.limit < 0 {
		return -1
	}
	return r.limit - r.pos
}

// Read implements the [io.Reader] interface.
func (r *Reader) Read(p []byte) (int, error) {
	if r.limit >= 0 {
		left := r.limit - r.pos
		if left <= 0 {
			return 0, io.EOF
		}
		if int64(len(p)) > left {
			p = p[:left]
		}
	}
	var n int
	var err error
	if r.parent != nil {
		n, err = r.parent.Read(p)
	} else {
		n, err = r.r.Read(p)
	}
	r.pos += int64(n)
	return n, err
}

// ReadFull fills buf.  It is an error if fewer than len(buf) bytes are
// available.
func (r *Reader) ReadFull(buf []byte) error {
	start := r.pos
	_, err := io.ReadFull(r, buf)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return r.errorAt(start, err)
	}
	return nil
}

// ReadBytes reads the next n bytes of input into a new slice.
func (r *Reader) ReadBytes(n int64) ([]byte, error) {
	if n < 0 || (r.limit >= 0 && n > r.limit-r.pos) {
		return nil, r.Error("cannot read %d bytes: %w", n, io.ErrUnexpectedEOF)
	}
	if n <= 1<<24 {
		buf := make([]byte, n)
		err := r.ReadFull(buf)
		if err != nil {
			return nil, err
		}
		return buf, nil
	}

	// Don't trust large lengths from an unlimited stream: grow the buffer
	// only as data arrives.
	start := r.pos
	buf := &bytes.Buffer{}
	k, err := io.CopyN(buf, r, n)
	if err == io.EOF || (err == nil && k < n) {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, r.errorAt(start, err)
	}
	return buf.Bytes(), nil
}

// ReadRest reads all remaining input.
func (r *Reader) ReadRest() ([]byte, error) {
	if r.limit >= 0 {
		return r.ReadBytes(r.limit - r.pos)
	}
	start := r.pos
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, r.errorAt(start, err)
	}
	return data, nil
}

// Skip discards the next n bytes of input.
func (r *Reader) Skip(n int64) error {
	if n < 0 {
		return r.Error("negative skip %d", n)
	} else if n == 0 {
		return nil
	}
	start := r.pos
	k, err := io.CopyN(io.Discard, r, n)
	if err == io.EOF || (err == nil && k < n) {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return r.errorAt(start, err)
	}
	return nil
}

// SkipPadding skips the padding after a field of length n which is aligned
// to a multiple of align bytes.
func (r *Reader) SkipPadding(n int64, align int) error {
	return r.Skip(PadLength(n, align))
}

// ReadUint8 reads a single uint8 value.
func (r *Reader) ReadUint8() (uint8, error) {
	err := r.ReadFull(r.buf[:1])
	if err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

// ReadBool reads a single byte and interprets it as a boolean.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadUint8()
	return b != 0, err
}

// ReadUint16 reads a big-endian uint16 value.
func (r *Reader) ReadUint16() (uint16, error) {
	err := r.ReadFull(r.buf[:2])
	if err != nil {
		return 0, err
	}
	return uint16(r.buf[0])<<8 | uint16(r.buf[1]), nil
}

// ReadInt16 reads a big-endian int16 value.
func (r *Reader) ReadInt16() (int16, error) {
	val, err := r.ReadUint16()
	return int16(val), err
}

// ReadUint32 reads a big-endian uint32 value.
func (r *Reader) ReadUint32() (uint32, error) {
	err := r.ReadFull(r.buf[:4])
	if err != nil {
		return 0, err
	}
	b := r.buf
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// ReadInt32 reads a big-endian int32 value.
func (r *Reader) ReadInt32() (int32, error) {
	val, err := r.ReadUint32()
	return int32(val), err
}

// ReadUint64 reads a big-endian uint64 value.
func (r *Reader) ReadUint64() (uint64, error) {
	hi, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	lo, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

// ReadInt64 reads a big-endian int64 value.
func (r *Reader) ReadInt64() (int64, error) {
	val, err := r.ReadUint64()
	return int64(val), err
}

// ReadFloat64 reads a big-endian IEEE 754 double.
func (r *Reader) ReadFloat64() (float64, error) {
	val, err := r.ReadUint64()
	return math.Float64frombits(val), err
}

// ReadLength reads a length field, which is 32 bits wide in PSD files and
// 64 bits wide in PSB files.
func (r *Reader) ReadLength(v psd.Version) (int64, error) {
	if v == psd.PSB {
		pos := r.pos
		val, err := r.ReadUint64()
		if err != nil {
			return 0, err
		}
		if val > math.MaxInt64 {
			return 0, r.errorAt(pos, errors.New("length out of range"))
		}
		return int64(val), nil
	}
	val, err := r.ReadUint32()
	return int64(val), err
}

// ReadKey reads a four character code.
func (r *Reader) ReadKey() (string, error) {
	err := r.ReadFull(r.buf[:4])
	if err != nil {
		return "", err
	}
	return string(r.buf[:4]), nil
}

// ReadSignature reads a four character code and checks that it is one of
// the given values.
func (r *Reader) ReadSignature(want ...string) (string, error) {
	pos := r.pos
	sig, err := r.ReadKey()
	if err != nil {
		return "", err
	}
	for _, w := range want {
		if sig == w {
			return sig, nil
		}
	}
	return "", r.errorAt(pos, fmt.Errorf("invalid signature %q", sig))
}

// Error returns a [psd.FormatError] for the current position.
func (r *Reader) Error(format string, a ...any) error {
	return r.errorAt(r.pos, fmt.Errorf(format, a...))
}

func (r *Reader) errorAt(pos int64, err error) error {
	var fe *psd.FormatError
	if errors.As(err, &fe) {
		return err
	}
	return &psd.FormatError{Section: r.section, Pos: pos, Err: err}
}

// Wrap converts err into a [psd.FormatError] for the current position, unless
// it already is one.
func (r *Reader) Wrap(err error) error {
	if err == nil {
		return nil
	}
	return r.errorAt(r.pos, err)
}

// PadLength returns the number of padding bytes needed to extend a field of
// length n to a multiple of align bytes.
func PadLength(n int64, align int) int64 {
	if align <= 1 {
		return 0
	}
	a := int64(align)
	return (a - n%a) % a
}
