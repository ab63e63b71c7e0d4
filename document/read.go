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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/file"
	"seehuhn.de/go/psd/internal/binio"
	"seehuhn.de/go/psd/resource"
	"seehuhn.de/go/psd/smartobject"
	"seehuhn.de/go/psd/tagged"
)

// ReadOptions controls how a document is read.
// A nil pointer selects the default options.
type ReadOptions struct {
	// SkipComposite disables reading of the merged image.
	SkipComposite bool

	// Log, if set, receives diagnostic messages.
	Log logrus.FieldLogger
}

// layerKeys are the tagged blocks which are represented by fields of the
// layer model.
var layerKeys = []string{
	tagged.KeyUnicodeName,
	tagged.KeyLayerID,
	tagged.KeySectionDivider,
	tagged.KeyNestedSection,
	tagged.KeyProtection,
	tagged.KeyPlacedLayer,
	tagged.KeyPlacedLayerData,
}

// linkKeys are the global tagged blocks which hold linked assets.
var linkKeys = []string{
	tagged.KeyLinked,
	tagged.KeyLinkedData,
	tagged.KeyLinked3,
	tagged.KeyLinkedExternal,
}

// ReadFile reads a document from a file.
func ReadFile[T psd.Sample](path string, opt *ReadOptions) (*Document[T], error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	return Read[T](bufio.NewReader(fd), opt)
}

// Read reads a document from r.
//
// The bit depth of the file must match the sample type T.  Use [Probe] to
// find the bit depth of a file before reading it.  Malformed files give a
// [*psd.FormatError].
func Read[T psd.Sample](r io.Reader, opt *ReadOptions) (*Document[T], error) {
	if opt == nil {
		opt = &ReadOptions{}
	}
	s, err := file.Decode(r, &file.ReadOptions{
		SkipMergedImage: opt.SkipComposite,
		Log:             opt.Log,
	})
	if err != nil {
		return nil, err
	}
	return FromSections[T](s, opt.Log)
}

// Probe reads the file header of a PSD or PSB file.
func Probe(path string) (*file.Header, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	return file.ReadHeader(binio.NewReader(bufio.NewReader(fd), "header"))
}

// FromSections converts decoded file sections into a document.
func FromSections[T psd.Sample](s *file.Sections, log logrus.FieldLogger) (*Document[T], error) {
	if log == nil {
		log = discard
	}
	h := &s.Header
	if h.ColorMode == psd.Bitmap || h.Depth == psd.Depth1 {
		return nil, psd.Invalid("read", "bitmap documents are not supported")
	}
	if want := psd.DepthOf[T](); h.Depth != want {
		return nil, psd.Invalid("read", "file has bit depth %d, want %d", h.Depth, want)
	}

	d := &Document[T]{
		width:         int(h.Width),
		height:        int(h.Height),
		ColorMode:     h.ColorMode,
		Version:       h.Version,
		ColorModeData: s.ColorModeData,
		Assets:        smartobject.NewStore(),
	}

	d.Resources = s.Resources.Clone()
	d.ICCProfile = d.Resources.ICCProfile()
	d.Resources.Delete(resource.IDICCProfile)

	links, err := readLinks(s.LayerInfo.Blocks)
	if err != nil {
		return nil, err
	}
	d.GlobalBlocks = s.LayerInfo.Blocks.Clone()
	d.GlobalBlocks.Delete(linkKeys...)

	rd := &treeReader[T]{
		doc:   d,
		links: links,
		log:   log,
	}
	err = rd.build(s.LayerInfo.Layers)
	if err != nil {
		return nil, err
	}

	if img := s.Image; img != nil {
		n := h.ColorMode.NumColorChannels()
		for i, plane := range img.Channels {
			if i >= n && n > 0 {
				log.WithField("channels", len(img.Channels)-n).Debug("ignoring extra channels of the merged image")
				break
			}
			samples, err := psd.DecodeSamples[T](plane)
			if err != nil {
				return nil, &psd.FormatError{Section: "image data", Err: err}
			}
			d.Composite = append(d.Composite, samples)
		}
	}

	return d, nil
}

// readLinks decodes the linked-asset tables of a file.  The result maps
// the IDs used in the file to the table entries.
func readLinks(blocks tagged.Blocks) (map[string]*tagged.LinkedFile, error) {
	res := make(map[string]*tagged.LinkedFile)
	for _, blk := range blocks {
		found := false
		for _, key := range linkKeys {
			found = found || blk.Key == key
		}
		if !found {
			continue
		}
		files, err := tagged.DecodeLinkedFiles(blk.Key, blk.Data)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			res[f.ID] = f
		}
	}
	return res, nil
}

type treeReader[T psd.Sample] struct {
	doc   *Document[T]
	links map[string]*tagged.LinkedFile
	log   logrus.FieldLogger
}

// build assembles the layer tree from the flat list of layer records.
// The records are listed from bottom to top.  A group consists of a
// boundary record, the records of the children, and the group record.
func (rd *treeReader[T]) build(records []*file.LayerRecord) error {
	type frame struct {
		layers []Layer[T]
	}
	stack := []*frame{{}}

	for i, rec := range records {
		div, err := sectionDivider(rec)
		if err != nil {
			return &psd.FormatError{Section: "layer record", Err: fmt.Errorf("layer %d: %w", i, err)}
		}

		var l Layer[T]
		switch {
		case div != nil && div.Type == tagged.DividerBoundary:
			stack = append(stack, &frame{})
			continue

		case div != nil && (div.Type == tagged.DividerOpenFolder || div.Type == tagged.DividerClosedFolder):
			if len(stack) < 2 {
				return &psd.FormatError{
					Section: "layer record",
					Err:     fmt.Errorf("layer %d: group without start marker", i),
				}
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			g := NewGroupLayer[T]("")
			g.Open = div.Type == tagged.DividerOpenFolder
			g.children = top.layers
			for _, child := range g.children {
				child.Common().parent = g
			}
			err = rd.fillBase(&g.Base, rec)
			if err != nil {
				return err
			}
			if div.BlendMode != "" {
				g.BlendMode = div.BlendMode
			}
			l = g

		default:
			l, err = rd.leaf(rec)
			if err != nil {
				return err
			}
		}

		top := stack[len(stack)-1]
		top.layers = append(top.layers, l)
	}
	if len(stack) != 1 {
		return &psd.FormatError{
			Section: "layer and mask information",
			Err:     errors.New("unterminated layer group"),
		}
	}

	d := rd.doc
	d.root = stack[0].layers
	walk(d.root, nil, func(_ []string, l Layer[T]) error {
		l.Common().doc = d
		return nil
	})
	return nil
}

func sectionDivider(rec *file.LayerRecord) (*tagged.SectionDivider, error) {
	for _, key := range []string{tagged.KeySectionDivider, tagged.KeyNestedSection} {
		if blk := rec.Blocks.Get(key); blk != nil {
			return tagged.DecodeSectionDivider(blk.Data)
		}
	}
	return nil, nil
}

// leaf converts a layer record into an image or smart-object layer.
func (rd *treeReader[T]) leaf(rec *file.LayerRecord) (Layer[T], error) {
	if rec.Blocks.Get(tagged.KeyPlacedLayerData) != nil || rec.Blocks.Get(tagged.KeyPlacedLayer) != nil {
		so, err := rd.smartObject(rec)
		if err != nil {
			return nil, err
		}
		if so != nil {
			return so, nil
		}
	}

	w, h := rec.Rect.Width(), rec.Rect.Height()
	l := &ImageLayer[T]{
		Base:     newBase[T]("", psd.BlendNormal),
		extent:   extent{center: rectCenter(rec.Rect), width: w, height: h},
		mode:     rd.doc.ColorMode,
		channels: make(map[psd.ChannelID]*channel[T]),
	}
	err := rd.fillBase(&l.Base, rec)
	if err != nil {
		return nil, err
	}
	for _, ch := range rec.Channels {
		if ch.ID.IsMask() {
			continue
		}
		if !l.validID(ch.ID) {
			rd.log.WithFields(logrus.Fields{
				"layer":   l.Name,
				"channel": ch.ID,
			}).Warn("ignoring channel which does not match the colour mode")
			continue
		}
		samples, err := psd.DecodeSamples[T](ch.Data)
		if err != nil {
			return nil, &psd.FormatError{Section: "channel image data", Err: err}
		}
		l.channels[ch.ID] = &channel[T]{data: samples}
	}
	return l, nil
}

// fillBase copies the properties shared by all layer kinds from the layer
// record.
func (rd *treeReader[T]) fillBase(b *Base[T], rec *file.LayerRecord) error {
	b.Name = rec.Name
	if blk := rec.Blocks.Get(tagged.KeyUnicodeName); blk != nil {
		name, err := tagged.DecodeUnicodeName(blk.Data)
		if err != nil {
			return err
		}
		b.Name = name
	}
	if b.Name == "" {
		b.Name = "Layer"
	}
	b.Opacity = rec.Opacity
	b.BlendMode = rec.BlendMode
	b.Visible = rec.Flags&file.FlagHidden == 0
	b.Clipping = rec.Clipping != 0

	if blk := rec.Blocks.Get(tagged.KeyLayerID); blk != nil {
		id, err := tagged.DecodeLayerID(blk.Data)
		if err != nil {
			return err
		}
		b.ID = id
	}
	if blk := rec.Blocks.Get(tagged.KeyProtection); blk != nil {
		locks, err := tagged.DecodeLocks(blk.Data)
		if err != nil {
			return err
		}
		b.Locks = locks
	} else if rec.Flags&file.FlagTransparencyProtected != 0 {
		b.Locks = tagged.LockTransparency
	}

	b.Blocks = rec.Blocks.Clone()
	b.Blocks.Delete(layerKeys...)
	if len(b.Blocks) == 0 {
		b.Blocks = nil
	}

	return rd.readMask(b, rec)
}

func (rd *treeReader[T]) readMask(b *Base[T], rec *file.LayerRecord) error {
	m := rec.Mask
	if m == nil {
		return nil
	}
	if m.Real != nil {
		rd.log.WithField("layer", b.Name).Debug("dropping real user mask")
	}
	ch := rec.Channel(psd.ChannelUserMask)
	if ch == nil {
		rd.log.WithField("layer", b.Name).Debug("ignoring mask without mask channel")
		return nil
	}
	data, err := psd.DecodeSamples[T](ch.Data)
	if err != nil {
		return &psd.FormatError{Section: "channel image data", Err: err}
	}
	mask := newMask(data, m.Rect.Width(), m.Rect.Height(), rectCenter(m.Rect))
	mask.defaultColor = m.DefaultColor
	mask.disabled = m.Flags&file.MaskDisabled != 0
	mask.relativeToLayer = m.Flags&file.MaskRelative != 0
	if m.Params&file.ParamUserDensity != 0 {
		mask.density = m.UserDensity
	}
	if m.Params&file.ParamUserFeather != 0 {
		mask.feather = m.UserFeather
	}
	b.mask = mask
	return nil
}
