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

package resource

import (
	"bytes"

	"seehuhn.de/go/xmp"
)

// XMP returns the XMP metadata of the document, or nil if there is none.
func (b Blocks) XMP() (*xmp.Packet, error) {
	blk := b.Get(IDXMP)
	if blk == nil || len(blk.Data) == 0 {
		return nil, nil
	}
	return xmp.Read(bytes.NewReader(blk.Data))
}

// SetXMP stores XMP metadata.  A nil packet removes the existing metadata.
func (b *Blocks) SetXMP(packet *xmp.Packet) error {
	if packet == nil {
		b.Delete(IDXMP)
		return nil
	}
	buf := &bytes.Buffer{}
	err := packet.Write(buf, nil)
	if err != nil {
		return err
	}
	b.Set(IDXMP, buf.Bytes())
	return nil
}
