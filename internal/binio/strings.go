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
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var utf16be = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// ReadPascalString reads a length-prefixed string in the Windows-1252
// encoding.  The total length including the length byte is padded to a
// multiple of pad bytes.
func (r *Reader) ReadPascalString(pad int) (string, error) {
	n, err := r.ReadUint8()
	if err != nil {
		return "", err
	}
	raw, err := r.ReadBytes(int64(n))
	if err != nil {
		return "", err
	}
	err = r.SkipPadding(int64(n)+1, pad)
	if err != nil {
		return "", err
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", r.Error("invalid Pascal string: %w", err)
	}
	return string(s), nil
}

// ReadUnicodeString reads a string which is stored as a 32-bit count of
// UTF-16 code units, followed by the UTF-16BE data.  Trailing zero code
// units are removed.
func (r *Reader) ReadUnicodeString() (string, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return "", err
	}
	raw, err := r.ReadBytes(2 * int64(n))
	if err != nil {
		return "", err
	}
	s, err := utf16be.NewDecoder().Bytes(raw)
	if err != nil {
		return "", r.Error("invalid unicode string: %w", err)
	}
	return strings.TrimRight(string(s), "\x00"), nil
}

// PascalStringBytes converts s to Windows-1252.  Characters which cannot be
// represented are replaced by '?' and the result is truncated to 255 bytes.
func PascalStringBytes(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, c := range s {
		b, ok := charmap.Windows1252.EncodeRune(c)
		if !ok {
			b = '?'
		}
		out = append(out, b)
		if len(out) == 255 {
			break
		}
	}
	return out
}

// WritePascalString writes s as a length-prefixed Windows-1252 string,
// padded to a multiple of pad bytes.
func (w *Writer) WritePascalString(s string, pad int) {
	b := PascalStringBytes(s)
	w.WriteUint8(uint8(len(b)))
	w.Write(b)
	w.Pad(int64(len(b))+1, pad)
}

// WriteUnicodeString writes s as a 32-bit count of UTF-16 code units,
// followed by the UTF-16BE data.  If terminate is set, a zero code unit is
// appended.
func (w *Writer) WriteUnicodeString(s string, terminate bool) {
	if terminate {
		s += "\x00"
	}
	raw, err := utf16be.NewEncoder().Bytes([]byte(strings.ToValidUTF8(s, "\uFFFD")))
	if err != nil {
		raw = nil
	}
	w.WriteUint32(uint32(len(raw) / 2))
	w.Write(raw)
}
