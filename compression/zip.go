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

package compression

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// inflate decompresses a zlib stream which must contain exactly n bytes.
func inflate(data []byte, n int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}
	defer zr.Close()

	// The buffer grows with the data actually present, so that a short
	// stream cannot cause a large allocation.
	buf := &bytes.Buffer{}
	_, err = io.Copy(buf, io.LimitReader(zr, int64(n)))
	if err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}
	if buf.Len() < n {
		return nil, fmt.Errorf("zip: %w: stream shorter than %d bytes", errSize, n)
	}
	res := buf.Bytes()

	// Photoshop never writes trailing data, but some other writers append
	// padding.  Only the checksum is verified here.
	_, err = io.Copy(io.Discard, zr)
	if err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}
	return res, nil
}

func deflate(data []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw, err := zlib.NewWriterLevel(buf, zlib.DefaultCompression)
	if err != nil {
		return nil, err
	}
	_, err = zw.Write(data)
	if err != nil {
		return nil, err
	}
	err = zw.Close()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
