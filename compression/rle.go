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

import "fmt"

// decodeRLE decodes PackBits compressed data, preceded by a table with the
// compressed length of every row.
func decodeRLE(data []byte, p *Params) ([]byte, error) {
	countSize := p.Version.RLECountSize()
	tableSize := p.Height * countSize
	if len(data) < tableSize {
		return nil, fmt.Errorf("rle: truncated byte count table")
	}

	rowBytes := p.RowBytes()
	res := make([]byte, rowBytes*p.Height)
	pos := tableSize
	for y := range p.Height {
		count := readCount(data[y*countSize:], countSize)
		if count > len(data)-pos {
			return nil, fmt.Errorf("rle: row %d: %d bytes of data missing", y, count-(len(data)-pos))
		}
		err := unpackRow(res[y*rowBytes:(y+1)*rowBytes], data[pos:pos+count])
		if err != nil {
			return nil, fmt.Errorf("rle: row %d: %w", y, err)
		}
		pos += count
	}
	return res, nil
}

func readCount(b []byte, size int) int {
	if size == 2 {
		return int(b[0])<<8 | int(b[1])
	}
	return int(b[0])<<24 | int(b[1])<<16 | int(b[2])<<8 | int(b[3])
}

// unpackRow decodes one PackBits row.  The encoded data must decode to
// exactly len(dst) bytes.
func unpackRow(dst, src []byte) error {
	i, j := 0, 0
	for i < len(src) {
		length := src[i]
		i++

		switch {
		case length < 128:
			count := int(length) + 1 // 1, ..., 128
			if i+count > len(src) {
				return fmt.Errorf("literal run exceeds row data")
			}
			if j+count > len(dst) {
				return fmt.Errorf("%w: row longer than %d bytes", errSize, len(dst))
			}
			copy(dst[j:], src[i:i+count])
			i += count
			j += count

		case length > 128:
			count := 257 - int(length) // 2, ..., 128
			if i >= len(src) {
				return fmt.Errorf("missing value of replicated run")
			}
			if j+count > len(dst) {
				return fmt.Errorf("%w: row longer than %d bytes", errSize, len(dst))
			}
			val := src[i]
			i++
			for k := range count {
				dst[j+k] = val
			}
			j += count

		default: // length == 128 is a no-op
		}
	}
	if j != len(dst) {
		return fmt.Errorf("%w: row has %d bytes, want %d", errSize, j, len(dst))
	}
	return nil
}

// encodeRLE compresses every row with PackBits and prepends the table of
// compressed row lengths.
func encodeRLE(plane []byte, p *Params) []byte {
	countSize := p.Version.RLECountSize()
	rowBytes := p.RowBytes()

	res := make([]byte, p.Height*countSize, p.Height*countSize+len(plane)+len(plane)/64)
	for y := range p.Height {
		start := len(res)
		res = packRow(res, plane[y*rowBytes:(y+1)*rowBytes])
		count := len(res) - start
		if countSize == 2 {
			res[2*y] = byte(count >> 8)
			res[2*y+1] = byte(count)
		} else {
			res[4*y] = byte(count >> 24)
			res[4*y+1] = byte(count >> 16)
			res[4*y+2] = byte(count >> 8)
			res[4*y+3] = byte(count)
		}
	}
	return res
}

// packRow appends the PackBits encoding of row to dst.
// Runs of three or more identical bytes are stored as replicated runs,
// everything else as literal runs of at most 128 bytes.
func packRow(dst, row []byte) []byte {
	for len(row) > 0 {
		run := 1
		for run < len(row) && run < 128 && row[run] == row[0] {
			run++
		}
		if run >= 3 {
			dst = append(dst, byte(257-run), row[0])
			row = row[run:]
			continue
		}

		lit := 0
		for lit < len(row) && lit < 128 {
			if lit+2 < len(row) && row[lit] == row[lit+1] && row[lit+1] == row[lit+2] {
				break
			}
			lit++
		}
		dst = append(dst, byte(lit-1))
		dst = append(dst, row[:lit]...)
		row = row[lit:]
	}
	return dst
}
