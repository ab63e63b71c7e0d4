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

package document

import (
	"crypto/rand"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/file"
	"seehuhn.de/go/psd/smartobject"
)

// SmartObjectLayer is a layer which shows a linked asset.
//
// The pixels of the layer are not stored.  They are derived from the
// asset, which is first deformed by a warp mesh and then placed on the
// canvas by a projective transformation.  The bounds of the layer are
// always computed from the asset size, the warp and the transformation.
//
// Pixels read from a file are written back unchanged as long as the
// placement and the asset stay the same.  Otherwise the layer content is
// rendered from the asset.  This is only possible for raster assets with
// an affine placement and no warp, in RGB and grayscale documents.  In
// all other cases the written layer is fully transparent, and Photoshop
// recomputes the pixels when the file is opened.
//
// While the layer is part of a document, the asset data is kept in the
// document's asset store and shared with all other layers which show
// identical data.
type SmartObjectLayer[T psd.Sample] struct {
	Base[T]

	geom *smartobject.Geometry

	hash  string
	asset *smartobject.Asset

	filename string
	path     string
	linkage  smartobject.Linkage

	// InstanceID identifies the placement of the asset in this layer.
	InstanceID string

	// preview is the rendered layer content read from a file.  It is
	// reused when the file is written, until the placement or the asset
	// changes.
	preview *preview[T]
}

type preview[T psd.Sample] struct {
	rect     file.Rect
	channels map[psd.ChannelID][]T
}

// NewSmartObject creates a smart-object layer which shows the asset data.
// The file name is recorded in the linked-asset table.  The asset must be
// a PSD, PSB, PNG, JPEG, GIF, TIFF, BMP or WebP file, so that its size can
// be determined.  The asset is placed unchanged with its top left corner
// at the origin of the canvas.
func NewSmartObject[T psd.Sample](name string, data []byte, filename string, linkage smartobject.Linkage) (*SmartObjectLayer[T], error) {
	a, err := newAsset(data, filename, "", linkage)
	if err != nil {
		return nil, err
	}
	return newSmartObject[T](name, a, linkage, filename, "")
}

// NewSmartObjectFromFile is like [NewSmartObject], but reads the asset
// from a file.  For external linkage the path is stored in the document.
func NewSmartObjectFromFile[T psd.Sample](name string, path string, linkage smartobject.Linkage) (*SmartObjectLayer[T], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	a, err := newAsset(data, filepath.Base(path), path, linkage)
	if err != nil {
		return nil, err
	}
	return newSmartObject[T](name, a, linkage, a.Name, path)
}

func newSmartObject[T psd.Sample](name string, a *smartobject.Asset, linkage smartobject.Linkage, filename, path string) (*SmartObjectLayer[T], error) {
	id, err := newInstanceID()
	if err != nil {
		return nil, err
	}
	return &SmartObjectLayer[T]{
		Base:       newBase[T](name, psd.BlendNormal),
		geom:       smartobject.NewGeometry(float64(a.Width), float64(a.Height)),
		hash:       a.Hash,
		asset:      a,
		filename:   filename,
		path:       path,
		linkage:    linkage,
		InstanceID: id,
	}, nil
}

func newAsset(data []byte, filename, path string, linkage smartobject.Linkage) (*smartobject.Asset, error) {
	if len(data) == 0 {
		return nil, psd.Invalid("new smart object", "empty asset")
	}
	info, err := smartobject.Probe(data)
	if err != nil {
		return nil, &psd.ValidationError{Op: "new smart object", Err: err}
	}
	return &smartobject.Asset{
		Hash:     smartobject.Hash(data),
		Name:     filename,
		Data:     data,
		Linkage:  linkage,
		Path:     path,
		Width:    info.Width,
		Height:   info.Height,
		FileType: info.FileType,
	}, nil
}

// newInstanceID returns a random UUID string.
func newInstanceID() (string, error) {
	var b [16]byte
	_, err := rand.Read(b[:])
	if err != nil {
		return "", err
	}
	b[6] = b[6]&0x0f | 0x40
	b[8] = b[8]&0x3f | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16]), nil
}

// Kind implements the [Layer] interface.
func (l *SmartObjectLayer[T]) Kind() Kind {
	return KindSmartObject
}

// rect returns the pixel rectangle covered by the placed asset.
func (l *SmartObjectLayer[T]) rect() file.Rect {
	const eps = 1e-6
	b := l.geom.Bounds()
	return file.Rect{
		Left:   int32(math.Floor(b.LLx + eps)),
		Top:    int32(math.Floor(b.LLy + eps)),
		Right:  int32(math.Ceil(b.URx - eps)),
		Bottom: int32(math.Ceil(b.URy - eps)),
	}
}

// Width implements the [Layer] interface.
func (l *SmartObjectLayer[T]) Width() int {
	return l.rect().Width()
}

// Height implements the [Layer] interface.
func (l *SmartObjectLayer[T]) Height() int {
	return l.rect().Height()
}

// Center implements the [Layer] interface.
func (l *SmartObjectLayer[T]) Center() vec.Vec2 {
	return rectCenter(l.rect())
}

// Geometry returns a copy of the placement of the asset.
func (l *SmartObjectLayer[T]) Geometry() *smartobject.Geometry {
	return l.geom.Clone()
}

// Matrix returns the placement transformation.
func (l *SmartObjectLayer[T]) Matrix() smartobject.Matrix3 {
	return l.geom.Transform
}

// Transform applies m after the current placement transformation.
func (l *SmartObjectLayer[T]) Transform(m smartobject.Matrix3) error {
	if _, err := m.Inv(); err != nil {
		return psd.Invalid("transform", "singular transformation matrix")
	}
	l.geom.Transformed(m)
	l.discardPreview()
	return nil
}

// Rotate rotates the layer by the given angle, in degrees, around pivot.
func (l *SmartObjectLayer[T]) Rotate(deg float64, pivot vec.Vec2) {
	l.geom.Rotate(deg, pivot)
	l.discardPreview()
}

// Scale scales the layer, keeping pivot fixed.
func (l *SmartObjectLayer[T]) Scale(sx, sy float64, pivot vec.Vec2) error {
	if sx == 0 || sy == 0 || math.IsNaN(sx) || math.IsNaN(sy) {
		return psd.Invalid("scale", "invalid scale factors %g, %g", sx, sy)
	}
	l.geom.Scale(sx, sy, pivot)
	l.discardPreview()
	return nil
}

// Move translates the layer.
func (l *SmartObjectLayer[T]) Move(dx, dy float64) {
	l.geom.Move(dx, dy)
	l.discardPreview()
}

// ResetTransform restores the identity placement.  The warp is kept.
func (l *SmartObjectLayer[T]) ResetTransform() {
	l.geom.ResetTransform()
	l.discardPreview()
}

// ResetWarp restores the untouched warp mesh.  The placement is kept.
func (l *SmartObjectLayer[T]) ResetWarp() {
	l.geom.ResetWarp()
	l.discardPreview()
}

// Warp returns a copy of the warp mesh.
func (l *SmartObjectLayer[T]) Warp() *smartobject.Warp {
	if l.geom.Warp == nil {
		return smartobject.NewWarp(l.geom.Width, l.geom.Height)
	}
	return l.geom.Warp.Clone()
}

// SetWarp replaces the warp mesh.  The mesh points are given in asset
// pixel coordinates.
func (l *SmartObjectLayer[T]) SetWarp(w *smartobject.Warp) error {
	if w == nil {
		l.ResetWarp()
		return nil
	}
	err := w.Check()
	if err != nil {
		return &psd.ValidationError{Op: "set warp", Err: err}
	}
	w = w.Clone()
	if w.Style == smartobject.StyleNone || w.Style == "" {
		w.Style = smartobject.StyleCustom
	}
	l.geom.Warp = w
	l.discardPreview()
	return nil
}

// discardPreview drops the pixels read from the file, so that the layer
// content is rendered from the asset when it is next needed.
func (l *SmartObjectLayer[T]) discardPreview() {
	l.preview = nil
}

// Hash returns the content hash of the linked asset.
func (l *SmartObjectLayer[T]) Hash() string {
	return l.hash
}

// OriginalSize returns the native size of the asset, in pixels.
func (l *SmartObjectLayer[T]) OriginalSize() (int, int) {
	return l.asset.Width, l.asset.Height
}

// Filename returns the file name of the asset.
func (l *SmartObjectLayer[T]) Filename() string {
	return l.filename
}

// Filepath returns the location of an external asset, or the empty string
// for embedded assets.
func (l *SmartObjectLayer[T]) Filepath() string {
	return l.path
}

// Linkage returns whether the asset is embedded or external.
func (l *SmartObjectLayer[T]) Linkage() smartobject.Linkage {
	return l.linkage
}

// AssetData returns the content of the linked asset.  The returned slice
// must not be modified.
func (l *SmartObjectLayer[T]) AssetData() []byte {
	return l.asset.Data
}

// Replace links the layer to new asset data.  The placement and the warp
// are kept, so that the new asset covers the same area of the canvas.
func (l *SmartObjectLayer[T]) Replace(data []byte, filename string) error {
	a, err := newAsset(data, filename, "", l.linkage)
	if err != nil {
		return err
	}
	return l.replace(a, filename, "")
}

// ReplaceFile is like [SmartObjectLayer.Replace], but reads the new asset
// from a file.
func (l *SmartObjectLayer[T]) ReplaceFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	a, err := newAsset(data, filepath.Base(path), path, l.linkage)
	if err != nil {
		return err
	}
	return l.replace(a, a.Name, path)
}

func (l *SmartObjectLayer[T]) replace(a *smartobject.Asset, filename, path string) error {
	if doc := l.doc; doc != nil && a.Hash != l.hash {
		if have := doc.Assets.Get(a.Hash); have != nil && have.Linkage != l.linkage {
			return psd.Invalid("replace", "asset %s is already used as %s", a.Hash, have.Linkage)
		}
	}
	err := l.geom.Resize(float64(a.Width), float64(a.Height))
	if err != nil {
		return &psd.ValidationError{Op: "replace", Err: err}
	}
	if doc := l.doc; doc != nil {
		h := doc.Assets.Add(a)
		doc.Assets.Release(l.hash)
		a = doc.Assets.Get(h)
	}
	l.hash = a.Hash
	l.asset = a
	l.filename = filename
	l.path = path
	l.discardPreview()
	return nil
}

// checkLinkage reports an error if the asset of l is already used with a
// different linkage, either in the document or among the layers recorded
// in pending.
func (d *Document[T]) checkLinkage(op string, l *SmartObjectLayer[T], pending map[string]smartobject.Linkage) error {
	have, ok := pending[l.hash]
	if !ok {
		if a := d.Assets.Get(l.hash); a != nil {
			have, ok = a.Linkage, true
		}
	}
	if ok && have != l.linkage {
		return psd.Invalid(op, "layer %q: asset %s is already used as %s", l.Name, l.hash, have)
	}
	pending[l.hash] = l.linkage
	return nil
}

// attach moves the asset of the layer into the store of doc.
func (l *SmartObjectLayer[T]) attach(doc *Document[T]) {
	h := doc.Assets.Add(l.asset)
	l.asset = doc.Assets.Get(h)
}

// detach takes a private copy of the asset metadata and releases the
// store entry.
func (l *SmartObjectLayer[T]) detach(doc *Document[T]) {
	a := *l.asset
	l.asset = &a
	doc.Assets.Release(l.hash)
}
