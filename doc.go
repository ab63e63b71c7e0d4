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

// Package psd provides support for reading and writing Photoshop PSD and PSB
// files.
//
// A PSD file is a container with a fixed sequence of sections: the file
// header, the colour mode data, the image resources, the layer and mask
// information, and the merged image data.  The large document format (PSB)
// uses the same layout, but with 64-bit length fields in many places.  The
// [Version] read from the file header selects the field widths for all
// subsequent sections.
//
// This package defines the types shared by all parts of the library: the
// container [Version], [ColorMode], [Depth], [ChannelID] and [BlendMode],
// together with the error types returned by the codecs and by the document
// model.
//
// The subpackages implement the different layers of the library:
//
//	compression  channel compression (raw, RLE, zip, zip with prediction)
//	descriptor   action descriptors, used by smart object layers
//	resource     image resource blocks (ICC profile, XMP, ...)
//	tagged       tagged blocks (additional layer information)
//	file         the binary section codec
//	smartobject  smart object geometry and linked assets
//	document     the layer tree, with reading and writing of documents
//
// Most users will only need the document package:
//
//	doc, err := document.ReadFile[uint8]("in.psd")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	layer := doc.Find("Group", "Layer 1")
//	... modify the document ...
//	err = doc.WriteFile("out.psd", nil)
package psd
