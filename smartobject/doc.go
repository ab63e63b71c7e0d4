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

// Package smartobject implements the geometry and the asset bookkeeping
// of smart-object layers.
//
// A smart-object layer shows a linked asset, for example an embedded PNG
// image or an external PSD file.  The asset is deformed by a bezier warp
// mesh ([Warp]) and then placed on the canvas by a projective
// transformation ([Matrix3]).  Both are combined in a [Geometry], which
// derives the placed bounds on demand.
//
// The assets of a document are kept in a [Store], which identifies assets
// by the SHA-256 hash of their data and counts the layers referring to
// each asset.
package smartobject
