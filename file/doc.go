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

// Package file implements the section structure of PSD and PSB files.
//
// A file consists of five sections, in this order:
//   - the fixed-size [Header]
//   - the colour mode data
//   - the image resources (see package seehuhn.de/go/psd/resource)
//   - the layer and mask information, holding the [LayerRecord]s, their
//     channel image data and the global tagged blocks
//   - the merged [ImageData]
//
// [Decode] reads all sections into a [Sections] value and [Sections.Encode]
// writes them back.  Channel data is decompressed on reading and
// compressed on writing, so that the channels of a [LayerRecord] always
// hold raw big-endian samples.
//
// The container version in the header selects the width of most length
// fields: 32 bits for PSD files and 64 bits for PSB files.
package file
