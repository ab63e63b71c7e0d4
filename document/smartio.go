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
	"fmt"

	"github.com/sirupsen/logrus"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/descriptor"
	"seehuhn.de/go/psd/file"
	"seehuhn.de/go/psd/smartobject"
	"seehuhn.de/go/psd/tagged"
)

// smartObject converts a layer record with placed-layer blocks into a
// smart-object layer.  If the linked asset is not available, nil is
// returned and the layer is read as an image layer.
func (rd *treeReader[T]) smartObject(rec *file.LayerRecord) (*SmartObjectLayer[T], error) {
	var desc *descriptor.Descriptor
	var placed *tagged.PlacedLayer
	var err error
	if blk := rec.Blocks.Get(tagged.KeyPlacedLayerData); blk != nil {
		desc, err = tagged.DecodePlacedLayerData(blk.Data)
		if err != nil {
			return nil, err
		}
	}
	if blk := rec.Blocks.Get(tagged.KeyPlacedLayer); blk != nil {
		placed, err = tagged.DecodePlacedLayer(blk.Data)
		if err != nil {
			return nil, err
		}
	}

	var linkID, instance string
	if desc != nil {
		linkID, _ = desc.Text("Idnt")
		instance, _ = desc.Text("placed")
	}
	if linkID == "" && placed != nil {
		linkID = placed.ID
	}
	log := rd.log.WithFields(logrus.Fields{"layer": rec.Name, "link": linkID})
	f := rd.links[linkID]
	if f == nil || len(f.Data) == 0 {
		log.Warn("linked asset not available, reading smart object as image layer")
		return nil, nil
	}

	var width, height float64
	if desc != nil {
		if sz, err := desc.Desc("Sz  "); err == nil {
			width, _ = sz.Double("Wdth")
			height, _ = sz.Double("Hght")
		}
	}
	if !(width > 0 && height > 0) {
		info, err := smartobject.Probe(f.Data)
		if err != nil {
			log.WithError(err).Warn("unknown asset size, reading smart object as image layer")
			return nil, nil
		}
		width, height = float64(info.Width), float64(info.Height)
	}

	linkage := smartobject.Embedded
	var path string
	if f.Kind == tagged.LinkExternal {
		linkage = smartobject.External
		if f.FileDesc != nil {
			path, _ = f.FileDesc.Text("fullPath")
		}
	}
	asset := &smartobject.Asset{
		Name:     f.Name,
		Data:     f.Data,
		Linkage:  linkage,
		Path:     path,
		Width:    int(width + 0.5),
		Height:   int(height + 0.5),
		FileType: f.FileType,
	}

	geom := smartobject.NewGeometry(width, height)
	var corners []float64
	var warpDesc *descriptor.Descriptor
	if desc != nil {
		corners, err = desc.Doubles("nonAffineTransform")
		if err != nil || len(corners) != 8 {
			corners, _ = desc.Doubles("Trnf")
		}
		warpDesc, _ = desc.Desc("warp")
	}
	if len(corners) != 8 && placed != nil {
		corners = placed.Transform[:]
	}
	if warpDesc == nil && placed != nil {
		warpDesc = placed.Warp
	}
	if len(corners) == 8 {
		err = geom.SetPlacedCorners([8]float64(corners))
		if err != nil {
			return nil, &psd.FormatError{Section: "placed layer", Err: err}
		}
	}
	if warpDesc != nil {
		w, err := smartobject.WarpFromDescriptor(warpDesc, width, height)
		if err != nil {
			return nil, &psd.FormatError{Section: "placed layer", Err: err}
		}
		geom.Warp = w
	}

	if instance == "" {
		instance, err = newInstanceID()
		if err != nil {
			return nil, err
		}
	}

	h := rd.doc.Assets.Add(asset)
	so := &SmartObjectLayer[T]{
		Base:       newBase[T]("", psd.BlendNormal),
		geom:       geom,
		hash:       h,
		asset:      rd.doc.Assets.Get(h),
		filename:   f.Name,
		path:       path,
		linkage:    linkage,
		InstanceID: instance,
	}
	err = rd.fillBase(&so.Base, rec)
	if err != nil {
		return nil, err
	}

	pv := &preview[T]{rect: rec.Rect, channels: make(map[psd.ChannelID][]T)}
	for _, ch := range rec.Channels {
		if ch.ID.IsMask() {
			continue
		}
		samples, err := psd.DecodeSamples[T](ch.Data)
		if err != nil {
			return nil, &psd.FormatError{Section: "channel image data", Err: err}
		}
		pv.channels[ch.ID] = samples
	}
	so.preview = pv
	return so, nil
}

// placedData returns the "SoLd" descriptor of a smart-object layer.
func (l *SmartObjectLayer[T]) placedData() *descriptor.Descriptor {
	corners := l.geom.PlacedCorners()
	size := descriptor.New("Pnt ")
	size.Set("Wdth", descriptor.Double(l.geom.Width))
	size.Set("Hght", descriptor.Double(l.geom.Height))

	d := descriptor.New("null")
	d.Set("Idnt", descriptor.String(l.hash))
	d.Set("placed", descriptor.String(l.InstanceID))
	d.Set("PgNm", descriptor.Integer(1))
	d.Set("totalPages", descriptor.Integer(1))
	d.Set("frameCount", descriptor.Integer(1))
	d.Set("Annt", descriptor.Integer(antiAliasHigh))
	d.Set("Type", descriptor.Integer(placedRaster))
	d.Set("Trnf", descriptor.DoubleList(corners[:]))
	d.Set("nonAffineTransform", descriptor.DoubleList(corners[:]))
	d.Set("warp", l.Warp().Descriptor())
	d.Set("Sz  ", size)
	d.Set("Rslt", descriptor.UnitFloat{Unit: descriptor.UnitDensity, Value: 72})
	return d
}

const (
	antiAliasHigh = 16
	placedRaster  = 2
)

// placedLayer returns the legacy "PlLd" record of a smart-object layer.
func (l *SmartObjectLayer[T]) placedLayer() *tagged.PlacedLayer {
	return &tagged.PlacedLayer{
		ID:         l.hash,
		Page:       1,
		TotalPages: 1,
		AntiAlias:  antiAliasHigh,
		Type:       placedRaster,
		Transform:  l.geom.PlacedCorners(),
		Warp:       l.Warp().Descriptor(),
	}
}

// linkedFile returns the entry of the linked-asset table for the asset
// with the given hash.
func linkedFile(a *smartobject.Asset) *tagged.LinkedFile {
	f := &tagged.LinkedFile{
		Kind:     tagged.LinkData,
		ID:       a.Hash,
		Name:     a.Name,
		FileType: fourCC(a.FileType),
		Creator:  "    ",
		Data:     a.Data,
	}
	if a.Linkage == smartobject.External {
		f.Kind = tagged.LinkExternal
		fd := descriptor.New("ExternalFileLink")
		fd.Set("fullPath", descriptor.String(a.Path))
		fd.Set("originalPath", descriptor.String(a.Path))
		fd.Set("relPath", descriptor.String(a.Name))
		f.FileDesc = fd
	}
	return f
}

func fourCC(s string) string {
	if len(s) == 4 {
		return s
	}
	return fmt.Sprintf("%-4.4s", s)
}
