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

package memfile

import (
	"errors"
	"io"
)

// ErrFull is returned by [MemFile.Write] when the size limit of the file
// is reached.
var ErrFull = errors.New("memfile: size limit reached")

// MemFile is a temporary in-memory file.
//
// This type implements the [io.ReadWriteSeeker] interface.
type MemFile struct {
	// Data are the file contents.
	Data []byte

	// Offset is the current file offset.
	Offset int64

	// Limit, if positive, is the maximal size of the file.  Writes which
	// would grow the file beyond this size are truncated and fail with
	// [ErrFull].
	Limit int64
}

// New creates a new MemFile.
func New() *MemFile {
	return &MemFile{}
}

// NewLimited creates a new MemFile which holds at most limit bytes.
func NewLimited(limit int64) *MemFile {
	return &MemFile{Limit: limit}
}

// Write writes data to the file.
// This implements the [io.Writer] interface.
func (f *MemFile) Write(p []byte) (n int, err error) {
	if f.Limit > 0 && f.Offset+int64(len(p)) > f.Limit {
		keep := max(f.Limit-f.Offset, 0)
		p = p[:keep]
		err = ErrFull
	}

	if f.Offset > int64(len(f.Data)) {
		f.Data = append(f.Data, make([]byte, f.Offset-int64(len(f.Data)))...)
	}
	if f.Offset == int64(len(f.Data)) {
		f.Data = append(f.Data, p...)
		n = len(p)
	} else {
		n = copy(f.Data[f.Offset:], p)
		if n < len(p) {
			f.Data = append(f.Data, p[n:]...)
			n = len(p)
		}
	}

	f.Offset += int64(n)
	return n, err
}

// Read reads data from the file.
// This implements the [io.Reader] interface.
func (f *MemFile) Read(p []byte) (n int, err error) {
	if f.Offset >= int64(len(f.Data)) {
		return 0, io.EOF
	}
	n = copy(p, f.Data[f.Offset:])
	f.Offset += int64(n)
	if n < len(p) {
		err = io.EOF
	}
	return
}

// Seek sets the offset in the file.
// This implements the [io.Seeker] interface.
func (f *MemFile) Seek(offset int64, whence int) (int64, error) {
	var newOffset int64
	switch whence {
	case io.SeekStart:
		newOffset = offset
	case io.SeekCurrent:
		newOffset = f.Offset + offset
	case io.SeekEnd:
		newOffset = int64(len(f.Data)) + offset
	default:
		return 0, errInvalidWhence
	}

	if newOffset < 0 {
		return 0, errInvalidOffset
	}

	f.Offset = newOffset
	return newOffset, nil
}

// Bytes returns the file contents.
func (f *MemFile) Bytes() []byte {
	return f.Data
}

var (
	errInvalidWhence = errors.New("invalid whence")
	errInvalidOffset = errors.New("invalid offset")
)
