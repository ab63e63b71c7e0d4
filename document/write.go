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
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/compression"
	"seehuhn.de/go/psd/file"
	"seehuhn.de/go/psd/resource"
	"seehuhn.de/go/psd/smartobject"
	"seehuhn.de/go/psd/tagged"
)

// WriteOptions controls how a document is written.
// A nil pointer selects the default options.
type WriteOptions struct {
	// Version selects the container format.  If this is zero, the
	// Version field of the document is used.
	Version psd.Version

	// Compression selects the compression method per bit depth.  Depths
	// which are not listed use [compression.DefaultMethod].
	Compression map[psd.Depth]compression.Method

	// Merged enables writing of the merged image.  If the document has no
	// Composite, the merged image is computed from the layers.
	Merged bool

	// Log, if set, receives diagnostic messages.
	Log logrus.FieldLogger
}

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// groupBoundaryName is the name of the record which marks the start of a
// group.
const groupBoundaryName = "</Layer group>"

// layerResources are image resources which describe the layers of a file.
// They are not carried over, since the layers may have changed.
var layerResources = []uint16{
	resource.IDLayerState,
	resource.IDLayerGroups,
	resource.IDLayerSelection,
	resource.IDLayerGroupsOn,
}

// Encode writes the document to w.
//
// The document is validated and converted to the file format before
// anything is written.  If the document cannot be represented in the
// selected container version, a [*psd.LimitError] is returned.  Channels
// which have been extracted and not replaced give a
// [*psd.ValidationError].  The document is not modified.
func (d *Document[T]) Encode(w io.Writer, opt *WriteOptions) error {
	s, err := d.Sections(opt)
	if err != nil {
		return err
	}
	return s.Encode(w, &file.WriteOptions{Log: logOf(opt)})
}

// WriteFile writes the document to the named file.
//
// The data is first written to a temporary file in the same directory,
// which then replaces the destination.  If an error occurs, an existing
// file at path is left unchanged.
func (d *Document[T]) WriteFile(path string, opt *WriteOptions) (err error) {
	s, err := d.Sections(opt)
	if err != nil {
		return err
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	buf := bufio.NewWriter(tmp)
	err = s.Encode(buf, &file.WriteOptions{Log: logOf(opt)})
	if err != nil {
		return err
	}
	err = buf.Flush()
	if err != nil {
		return err
	}
	err = tmp.Sync()
	if err != nil {
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	err = os.Rename(tmpName, path)
	if err != nil {
		return err
	}
	logOf(opt).WithField("path", path).Debug("wrote document")
	return nil
}

func logOf(opt *WriteOptions) logrus.FieldLogger {
	if opt == nil || opt.Log == nil {
		return discard
	}
	return opt.Log
}

// Sections converts the document into the sections of a PSD or PSB file.
// The result shares no mutable state with the document.
func (d *Document[T]) Sections(opt *WriteOptions) (*file.Sections, error) {
	if opt == nil {
		opt = &WriteOptions{}
	}
	log := logOf(opt)
	v := opt.Version
	if v == 0 {
		v = d.Version
	}
	if v == 0 {
		v = psd.PSD
	}
	depth := d.Depth()
	method, ok := opt.Compression[depth]
	if !ok {
		method = compression.DefaultMethod(depth)
	}
	if !method.IsValid() {
		return nil, psd.Invalid("write", "invalid compression method %d", method)
	}

	s := &file.Sections{
		Header: file.Header{
			Version:   v,
			Channels:  uint16(d.numChannels()),
			Height:    uint32(d.height),
			Width:     uint32(d.width),
			Depth:     depth,
			ColorMode: d.ColorMode,
		},
		ColorModeData: d.ColorModeData,
	}

	s.Resources = d.Resources.Clone()
	for _, id := range layerResources {
		s.Resources.Delete(id)
	}
	err := s.Resources.SetICCProfile(d.ICCProfile, d.ColorMode)
	if err != nil {
		return nil, err
	}

	lw := &layerWriter[T]{
		doc:    d,
		method: method,
		log:    log,
	}
	lw.allocateIDs()
	err = lw.writeLayers(d.root)
	if err != nil {
		return nil, err
	}
	s.LayerInfo.Layers = lw.records

	s.LayerInfo.Blocks = d.GlobalBlocks.Clone()
	s.LayerInfo.Blocks.Delete(linkKeys...)
	if len(lw.assets) > 0 {
		var files []*tagged.LinkedFile
		for _, h := range d.Assets.Hashes() {
			if a, ok := lw.assets[h]; ok {
				files = append(files, linkedFile(a))
			}
		}
		s.LayerInfo.Blocks.Set(tagged.KeyLinked, tagged.EncodeLinkedFiles(files))
	}

	if opt.Merged {
		planes := d.Composite
		if !d.compositeValid() {
			log.Debug("computing merged image from the layers")
			planes = d.Flatten()
		}
		img := &file.ImageData{Compression: method}
		for _, p := range planes {
			img.Channels = append(img.Channels, psd.EncodeSamples(p))
		}
		s.Image = img
		s.Header.Channels = uint16(len(planes))
	}

	err = s.Validate()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// numChannels returns the number of channels of the merged image.
func (d *Document[T]) numChannels() int {
	if d.compositeValid() {
		return len(d.Composite)
	}
	n := d.ColorMode.NumColorChannels()
	if n > 0 {
		return n
	}
	n = 1
	d.Walk(func(_ []string, l Layer[T]) error {
		if img, ok := l.(*ImageLayer[T]); ok {
			for _, id := range img.ChannelIDs() {
				n = max(n, int(id)+1)
			}
		}
		return nil
	})
	return n
}

// compositeValid reports whether the Composite field can be written as the
// merged image.
func (d *Document[T]) compositeValid() bool {
	if len(d.Composite) == 0 || len(d.Composite) > file.MaxChannels {
		return false
	}
	if len(d.Composite) < d.ColorMode.NumColorChannels() {
		return false
	}
	for _, p := range d.Composite {
		if len(p) != d.width*d.height {
			return false
		}
	}
	return true
}

type layerWriter[T psd.Sample] struct {
	doc    *Document[T]
	method compression.Method
	log    logrus.FieldLogger

	records []*file.LayerRecord
	assets  map[string]*smartobject.Asset

	ids    map[*Base[T]]uint32
	nextID uint32
}

// allocateIDs chooses the layer IDs to write.  Layers keep their ID
// unless it is zero or already used by a layer further down.
func (lw *layerWriter[T]) allocateIDs() {
	lw.ids = make(map[*Base[T]]uint32)
	used := make(map[uint32]bool)
	var maxID uint32
	lw.doc.Walk(func(_ []string, l Layer[T]) error {
		maxID = max(maxID, l.Common().ID)
		return nil
	})
	lw.nextID = maxID + 1
	lw.doc.Walk(func(_ []string, l Layer[T]) error {
		b := l.Common()
		id := b.ID
		if id == 0 || used[id] {
			id = lw.newID()
		}
		used[id] = true
		lw.ids[b] = id
		return nil
	})
}

func (lw *layerWriter[T]) newID() uint32 {
	id := lw.nextID
	lw.nextID++
	return id
}

// writeLayers appends the records for the given layers, from bottom to top.
func (lw *layerWriter[T]) writeLayers(layers []Layer[T]) error {
	for _, l := range layers {
		var err error
		switch l := l.(type) {
		case *GroupLayer[T]:
			err = lw.writeGroup(l)
		case *ImageLayer[T]:
			err = lw.writeImage(l)
		case *SmartObjectLayer[T]:
			err = lw.writeSmartObject(l)
		default:
			err = fmt.Errorf("unexpected layer type %T", l)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (lw *layerWriter[T]) writeGroup(g *GroupLayer[T]) error {
	boundary := &file.LayerRecord{
		BlendMode: psd.BlendNormal,
		Opacity:   255,
		Flags:     file.FlagBit4Useful | file.FlagPixelDataIrrelevant,
		Name:      groupBoundaryName,
		Channels:  lw.emptyChannels(),
	}
	div := &tagged.SectionDivider{Type: tagged.DividerBoundary}
	boundary.Blocks = tagged.Blocks{
		{Signature: "8BIM", Key: tagged.KeySectionDivider, Data: div.Encode()},
		{Signature: "8BIM", Key: tagged.KeyUnicodeName, Data: tagged.EncodeUnicodeName(groupBoundaryName)},
		{Signature: "8BIM", Key: tagged.KeyLayerID, Data: tagged.EncodeLayerID(lw.newID())},
	}
	lw.records = append(lw.records, boundary)

	err := lw.writeLayers(g.children)
	if err != nil {
		return err
	}

	rec := &file.LayerRecord{Channels: lw.emptyChannels()}
	err = lw.fillRecord(rec, &g.Base)
	if err != nil {
		return err
	}
	rec.Flags |= file.FlagBit4Useful | file.FlagPixelDataIrrelevant
	if rec.BlendMode == psd.BlendPassThrough {
		rec.BlendMode = psd.BlendNormal
	}
	div = &tagged.SectionDivider{Type: tagged.DividerClosedFolder, BlendMode: g.BlendMode}
	if g.Open {
		div.Type = tagged.DividerOpenFolder
	}
	rec.Blocks = append(tagged.Blocks{
		{Signature: "8BIM", Key: tagged.KeySectionDivider, Data: div.Encode()},
	}, rec.Blocks...)
	lw.records = append(lw.records, rec)
	return nil
}

// emptyChannels returns the channel list of a record without pixels.
func (lw *layerWriter[T]) emptyChannels() []*file.Channel {
	res := []*file.Channel{{ID: psd.ChannelTransparency, Compression: lw.method}}
	for i := range max(lw.doc.ColorMode.NumColorChannels(), 1) {
		res = append(res, &file.Channel{ID: psd.ChannelID(i), Compression: lw.method})
	}
	return res
}

func (lw *layerWriter[T]) writeImage(l *ImageLayer[T]) error {
	for _, id := range l.requiredIDs() {
		if _, ok := l.channels[id]; !ok {
			return &psd.ValidationError{
				Op:  "write",
				Err: fmt.Errorf("layer %q: %s channel missing", l.Name, psd.ChannelName(l.mode, id)),
			}
		}
	}
	rec := &file.LayerRecord{Rect: layerRect[T](l)}
	for _, id := range writeOrder(l.ChannelIDs()) {
		ch := l.channels[id]
		if ch.consumed {
			return &psd.ValidationError{
				Op: "write",
				Err: fmt.Errorf("layer %q: %s: %w",
					l.Name, psd.ChannelName(l.mode, id), psd.ErrChannelConsumed),
			}
		}
		rec.Channels = append(rec.Channels, &file.Channel{
			ID:          id,
			Compression: lw.method,
			Data:        psd.EncodeSamples(ch.data),
		})
	}
	err := lw.fillRecord(rec, &l.Base)
	if err != nil {
		return err
	}
	lw.records = append(lw.records, rec)
	return nil
}

// writeOrder puts the transparency channel in front of the colour
// channels.
func writeOrder(ids []psd.ChannelID) []psd.ChannelID {
	n := len(ids)
	if n > 0 && ids[n-1] == psd.ChannelTransparency {
		return append([]psd.ChannelID{psd.ChannelTransparency}, ids[:n-1]...)
	}
	return ids
}

func (lw *layerWriter[T]) writeSmartObject(l *SmartObjectLayer[T]) error {
	r := l.rect()
	rec := &file.LayerRecord{Rect: r}

	var planes map[psd.ChannelID][]T
	if pv := l.preview; pv != nil && pv.rect == r {
		planes = pv.channels
	} else {
		log := lw.log.WithField("layer", l.Name)
		if why := unrenderable(l, lw.doc.ColorMode); why != "" {
			log.WithField("reason", why).Debug("smart object content cannot be rendered, writing transparent pixels")
		} else {
			log.Debug("rendering smart object")
		}
		planes = renderSmartObject(l, lw.doc.ColorMode, r)
	}
	for _, id := range writeOrder(sortedIDs(planes)) {
		rec.Channels = append(rec.Channels, &file.Channel{
			ID:          id,
			Compression: lw.method,
			Data:        psd.EncodeSamples(planes[id]),
		})
	}

	err := lw.fillRecord(rec, &l.Base)
	if err != nil {
		return err
	}
	rec.Blocks = append(tagged.Blocks{
		{Signature: "8BIM", Key: tagged.KeyPlacedLayer, Data: l.placedLayer().Encode()},
		{Signature: "8BIM", Key: tagged.KeyPlacedLayerData, Data: tagged.EncodePlacedLayerData(l.placedData())},
	}, rec.Blocks...)
	lw.records = append(lw.records, rec)

	if lw.assets == nil {
		lw.assets = make(map[string]*smartobject.Asset)
	}
	lw.assets[l.hash] = l.asset
	return nil
}

// fillRecord sets the fields of rec which are shared by all layer kinds.
func (lw *layerWriter[T]) fillRecord(rec *file.LayerRecord, b *Base[T]) error {
	rec.BlendMode = b.BlendMode
	if !rec.BlendMode.IsValid() {
		return psd.Invalid("write", "layer %q: invalid blend mode %q", b.Name, b.BlendMode)
	}
	rec.Opacity = b.Opacity
	if b.Clipping {
		rec.Clipping = 1
	}
	if !b.Visible {
		rec.Flags |= file.FlagHidden
	}
	if b.Locks&(tagged.LockTransparency|tagged.LockAll) != 0 {
		rec.Flags |= file.FlagTransparencyProtected
	}
	rec.Name = b.Name

	rec.Blocks = tagged.Blocks{
		{Signature: "8BIM", Key: tagged.KeyUnicodeName, Data: tagged.EncodeUnicodeName(b.Name)},
		{Signature: "8BIM", Key: tagged.KeyLayerID, Data: tagged.EncodeLayerID(lw.ids[b])},
	}
	if b.Locks != 0 {
		rec.Blocks = append(rec.Blocks, &tagged.Block{
			Signature: "8BIM", Key: tagged.KeyProtection, Data: tagged.EncodeLocks(b.Locks),
		})
	}
	extra := b.Blocks.Clone()
	extra.Delete(layerKeys...)
	rec.Blocks = append(rec.Blocks, extra...)

	if m := b.mask; m != nil {
		if m.consumed {
			return &psd.ValidationError{
				Op:  "write",
				Err: fmt.Errorf("layer %q: mask: %w", b.Name, psd.ErrChannelConsumed),
			}
		}
		fm := &file.Mask{
			Rect:         centeredRect(m.center, m.width, m.height),
			DefaultColor: m.defaultColor,
		}
		if m.relativeToLayer {
			fm.Flags |= file.MaskRelative
		}
		if m.disabled {
			fm.Flags |= file.MaskDisabled
		}
		if m.density != 255 {
			fm.Params |= file.ParamUserDensity
			fm.UserDensity = m.density
		}
		if m.feather != 0 {
			fm.Params |= file.ParamUserFeather
			fm.UserFeather = m.feather
		}
		if fm.Params != 0 {
			fm.Flags |= file.MaskHasParams
		}
		rec.Mask = fm
		rec.Channels = append(rec.Channels, &file.Channel{
			ID:          psd.ChannelUserMask,
			Compression: lw.method,
			Data:        psd.EncodeSamples(m.data),
		})
	}
	return nil
}
