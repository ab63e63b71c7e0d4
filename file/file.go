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

package file

import (
	"bytes"
	"errors"
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/compression"
	"seehuhn.de/go/psd/internal/binio"
	"seehuhn.de/go/psd/resource"
	"seehuhn.de/go/psd/tagged"
)

// Sections holds the decoded content of a PSD or PSB file.
type Sections struct {
	Header        Header
	ColorModeData []byte
	Resources     resource.Blocks
	LayerInfo     LayerMaskInfo

	// Image is the merged image, or nil if the file has no merged image
	// or if it was not read.
	Image *ImageData
}

// LayerMaskInfo is the content of the layer and mask information section.
type LayerMaskInfo struct {
	// Layers lists the layer records in file order, from the bottom-most
	// layer to the top-most layer.
	Layers []*LayerRecord

	// AbsoluteAlpha indicates that the first alpha channel of the merged
	// image contains the transparency data.  It is stored as the sign of
	// the layer count.
	AbsoluteAlpha bool

	GlobalMask []byte

	// Blocks are the global tagged blocks.  The blocks which hold the
	// layers of 16- and 32-bit documents are not included.
	Blocks tagged.Blocks
}

// ReadOptions controls how a file is decoded.
// The zero value, or a nil pointer, selects the default options.
type ReadOptions struct {
	// SkipMergedImage disables reading of the merged image data.
	SkipMergedImage bool

	// Log, if set, receives diagnostic messages.
	Log logrus.FieldLogger
}

// WriteOptions controls how a file is encoded.
type WriteOptions struct {
	// Log, if set, receives diagnostic messages.
	Log logrus.FieldLogger
}

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

func logger(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return discard
	}
	return l
}

// Decode reads a PSD or PSB file.
//
// If the file is malformed, a [*psd.FormatError] is returned which
// identifies the section and the byte offset of the problem.
func Decode(r io.Reader, opt *ReadOptions) (*Sections, error) {
	if opt == nil {
		opt = &ReadOptions{}
	}
	log := logger(opt.Log)

	br := binio.NewReader(r, "header")
	h, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}
	v := h.Version
	s := &Sections{Header: *h}
	log.WithFields(logrus.Fields{
		"version": v,
		"width":   h.Width,
		"height":  h.Height,
		"depth":   h.Depth,
		"mode":    h.ColorMode,
	}).Debug("read header")

	cr := br.Tail("colour mode data")
	n, err := cr.ReadUint32()
	if err != nil {
		return nil, err
	}
	cr, err = cr.Sub("", int64(n))
	if err != nil {
		return nil, err
	}
	s.ColorModeData, err = cr.ReadBytes(int64(n))
	if err != nil {
		return nil, err
	}

	s.Resources, err = resource.Decode(br.Tail("image resources"))
	if err != nil {
		return nil, err
	}
	log.WithField("count", len(s.Resources)).Debug("read image resources")

	lr := br.Tail("layer and mask information")
	lmLen, err := lr.ReadLength(v)
	if err != nil {
		return nil, err
	}
	lr, err = lr.Sub("", lmLen)
	if err != nil {
		return nil, err
	}
	err = s.LayerInfo.read(lr, h, log)
	if err != nil {
		return nil, err
	}
	err = lr.Finish()
	if err != nil {
		return nil, err
	}

	if opt.SkipMergedImage {
		return s, nil
	}
	s.Image, err = readImageData(br.Tail("image data"), h)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (info *LayerMaskInfo) read(r *binio.Reader, h *Header, log logrus.FieldLogger) error {
	v := h.Version
	if r.Remaining() == 0 {
		return nil
	}

	n, err := r.ReadLength(v)
	if err != nil {
		return err
	}
	lr, err := r.Sub("layer info", n)
	if err != nil {
		return err
	}
	var jobs []channelJob
	if n > 0 {
		info.Layers, info.AbsoluteAlpha, jobs, err = readLayerInfo(lr, v)
		if err != nil {
			return err
		}
	}
	err = lr.Finish()
	if err != nil {
		return err
	}

	if r.Remaining() >= 4 {
		n, err := r.ReadUint32()
		if err != nil {
			return err
		}
		gr, err := r.Sub("global layer mask info", int64(n))
		if err != nil {
			return err
		}
		info.GlobalMask, err = gr.ReadBytes(int64(n))
		if err != nil {
			return err
		}
	}

	info.Blocks, err = tagged.ReadList(r, v, 4)
	if err != nil {
		return err
	}
	for _, key := range []string{tagged.KeyLayers16, tagged.KeyLayers32, tagged.KeyLayers} {
		blk := info.Blocks.Get(key)
		if blk == nil || len(info.Layers) > 0 {
			continue
		}
		section := "tagged block " + key
		br := binio.NewReader(bytes.NewReader(blk.Data), section)
		sr, _ := br.Sub(section, int64(len(blk.Data)))
		info.Layers, info.AbsoluteAlpha, jobs, err = readLayerInfo(sr, v)
		if err != nil {
			return err
		}
		log.WithField("key", key).Debug("layers stored in tagged block")
	}
	info.Blocks.Delete(tagged.KeyLayers16, tagged.KeyLayers32, tagged.KeyLayers)

	log.WithFields(logrus.Fields{
		"layers":   len(info.Layers),
		"channels": len(jobs),
		"blocks":   len(info.Blocks),
	}).Debug("read layer and mask information")

	return decodeChannels(jobs, v, h.Depth)
}

// readLayerInfo reads the content of the layer info section: the layer
// count, the layer records and the channel data.
func readLayerInfo(r *binio.Reader, v psd.Version) ([]*LayerRecord, bool, []channelJob, error) {
	count, err := r.ReadInt16()
	if err != nil {
		return nil, false, nil, err
	}
	absAlpha := count < 0
	n := int(count)
	if n < 0 {
		n = -n
	}

	layers := make([]*LayerRecord, n)
	info := make([][]channelInfo, n)
	for i := range layers {
		layers[i], info[i], err = readLayerRecord(r, v)
		if err != nil {
			return nil, false, nil, err
		}
	}
	jobs, err := readChannelData(r, layers, info)
	if err != nil {
		return nil, false, nil, err
	}
	return layers, absAlpha, jobs, nil
}

// Encode writes the sections as a PSD or PSB file, depending on the
// version given in the header.
//
// All sections are validated and compressed before the first byte is
// written.  If the document exceeds the limits of the file format, a
// [*psd.LimitError] is returned and nothing is written to w.
func (s *Sections) Encode(w io.Writer, opt *WriteOptions) error {
	if opt == nil {
		opt = &WriteOptions{}
	}
	log := logger(opt.Log)

	err := s.Validate()
	if err != nil {
		return err
	}
	h := &s.Header
	v := h.Version

	lm, err := s.LayerInfo.encode(h)
	if err != nil {
		return err
	}
	err = psd.CheckLimit("layer and mask information length", int64(len(lm)), v.MaxLength(), v)
	if err != nil {
		return err
	}
	err = psd.CheckLimit("image resources length", s.Resources.Size(), math.MaxUint32, v)
	if err != nil {
		return err
	}

	var image []byte
	if s.Image != nil {
		image, err = s.Image.encode(h)
		if err != nil {
			return err
		}
	}

	out := binio.NewWriter()
	h.Write(out)
	out.WriteUint32(uint32(len(s.ColorModeData)))
	out.Write(s.ColorModeData)
	s.Resources.Encode(out)
	out.WriteLength(v, int64(len(lm)))
	log.WithField("bytes", out.Len()).Debug("writing header and resources")

	for _, chunk := range [][]byte{out.Bytes(), lm, image} {
		_, err = w.Write(chunk)
		if err != nil {
			return err
		}
	}
	log.WithFields(logrus.Fields{
		"layers":     len(s.LayerInfo.Layers),
		"layerBytes": len(lm),
		"imageBytes": len(image),
	}).Debug("wrote file")
	return nil
}

// encode returns the body of the layer and mask information section.
func (info *LayerMaskInfo) encode(h *Header) ([]byte, error) {
	v := h.Version

	var content []byte
	if len(info.Layers) > 0 {
		comp, err := encodeChannels(info.Layers, v, h.Depth)
		if err != nil {
			return nil, err
		}
		for i, l := range info.Layers {
			for j := range l.Channels {
				err := psd.CheckLimit("channel data length", int64(len(comp[i][j]))+2, v.MaxLength(), v)
				if err != nil {
					return nil, err
				}
			}
		}
		content = writeLayerInfo(v, info, comp)
	}

	w := binio.NewWriter()
	blocks := info.Blocks
	wrapped := content != nil && (h.Depth == psd.Depth16 || h.Depth == psd.Depth32)
	if wrapped {
		key := tagged.KeyLayers16
		if h.Depth == psd.Depth32 {
			key = tagged.KeyLayers32
		}
		blocks = append(tagged.Blocks{{Signature: "8BIM", Key: key, Data: content}}, blocks...)
		w.WriteLength(v, 0)
	} else if content != nil {
		n := int64(len(content))
		err := psd.CheckLimit("layer info length", n+binio.PadLength(n, 4), v.MaxLength(), v)
		if err != nil {
			return nil, err
		}
		w.WriteSection(v, content, 4)
	} else {
		w.WriteLength(v, 0)
	}

	w.WriteUint32(uint32(len(info.GlobalMask)))
	w.Write(info.GlobalMask)

	for _, blk := range blocks {
		limit := int64(math.MaxUint32)
		if tagged.HasLargeLength(blk.Key, v) {
			limit = math.MaxInt64
		}
		err := psd.CheckLimit("tagged block "+blk.Key+" length", int64(len(blk.Data))+3, limit, v)
		if err != nil {
			return nil, err
		}
	}
	tagged.WriteList(w, v, 4, blocks)
	return w.Bytes(), nil
}

func writeLayerInfo(v psd.Version, info *LayerMaskInfo, comp [][][]byte) []byte {
	w := binio.NewWriter()
	count := int16(len(info.Layers))
	if info.AbsoluteAlpha {
		count = -count
	}
	w.WriteInt16(count)
	for i, l := range info.Layers {
		sizes := make([]int64, len(comp[i]))
		for j, data := range comp[i] {
			sizes[j] = int64(len(data))
		}
		writeLayerRecord(w, v, l, sizes)
	}
	for i, l := range info.Layers {
		for j, ch := range l.Channels {
			w.WriteUint16(uint16(ch.Compression))
			w.Write(comp[i][j])
		}
	}
	return w.Bytes()
}

// Validate checks that the sections can be written.  Values which exceed
// the limits of the container version give a [*psd.LimitError], other
// problems give a [*psd.ValidationError].
func (s *Sections) Validate() error {
	h := &s.Header
	v := h.Version
	if v != psd.PSD && v != psd.PSB {
		return psd.Invalid("validate", "invalid version %d", v)
	}
	err := h.check()
	if errors.Is(err, errEmpty) {
		return &psd.ValidationError{Op: "validate", Err: err}
	} else if err != nil {
		return err
	}

	err = psd.CheckLimit("colour mode data length", int64(len(s.ColorModeData)), math.MaxUint32, v)
	if err != nil {
		return err
	}
	if h.ColorMode == psd.Indexed && len(s.ColorModeData) != 768 {
		return psd.Invalid("validate", "indexed colour documents need a 768 byte palette")
	}

	layers := s.LayerInfo.Layers
	err = psd.CheckLimit("layer count", int64(len(layers)), math.MaxInt16, v)
	if err != nil {
		return err
	}
	maxDim := int64(v.MaxDimension())
	for i, l := range layers {
		if l.Rect.Right < l.Rect.Left || l.Rect.Bottom < l.Rect.Top {
			return psd.Invalid("validate", "layer %d: invalid rectangle %v", i, l.Rect)
		}
		err = checkRect("layer", l.Rect, maxDim, v)
		if err != nil {
			return err
		}
		if l.Mask != nil {
			err = checkRect("mask", l.Mask.Rect, maxDim, v)
			if err != nil {
				return err
			}
		}
		if len(l.Channels) > MaxChannels {
			return psd.Invalid("validate", "layer %d: too many channels (%d)", i, len(l.Channels))
		}
		for _, ch := range l.Channels {
			if !ch.Compression.IsValid() {
				return psd.Invalid("validate", "layer %d: invalid compression method %d",
					i, ch.Compression)
			}
			rect := l.ChannelRect(ch.ID)
			want := h.Depth.RowBytes(rect.Width()) * rect.Height()
			if len(ch.Data) != want {
				return psd.Invalid("validate", "layer %d channel %d: %d bytes of data, want %d",
					i, ch.ID, len(ch.Data), want)
			}
		}
	}

	if img := s.Image; img != nil {
		if len(img.Channels) != int(h.Channels) {
			return psd.Invalid("validate", "merged image has %d channels, want %d",
				len(img.Channels), h.Channels)
		}
		want := h.Depth.RowBytes(int(h.Width)) * int(h.Height)
		for i, plane := range img.Channels {
			if len(plane) != want {
				return psd.Invalid("validate", "merged image channel %d: %d bytes of data, want %d",
					i, len(plane), want)
			}
		}
		if !img.Compression.IsValid() {
			return psd.Invalid("validate", "invalid compression method %d", img.Compression)
		}
	}
	return nil
}

func checkRect(what string, r Rect, maxDim int64, v psd.Version) error {
	err := psd.CheckLimit(what+" width", int64(r.Width()), maxDim, v)
	if err != nil {
		return err
	}
	return psd.CheckLimit(what+" height", int64(r.Height()), maxDim, v)
}

// DefaultCompression returns the compression method used for new channels
// if the caller does not choose one.
func DefaultCompression(depth psd.Depth) compression.Method {
	return compression.DefaultMethod(depth)
}
