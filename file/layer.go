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
	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/compression"
	"seehuhn.de/go/psd/internal/binio"
	"seehuhn.de/go/psd/tagged"
)

// Rect is a rectangle in canvas coordinates.  Top and Left are inclusive,
// Bottom and Right are exclusive.
type Rect struct {
	Top, Left, Bottom, Right int32
}

// Width returns the width of the rectangle, or 0 if the rectangle is empty.
func (r Rect) Width() int {
	return max(int(r.Right)-int(r.Left), 0)
}

// Height returns the height of the rectangle, or 0 if the rectangle is
// empty.
func (r Rect) Height() int {
	return max(int(r.Bottom)-int(r.Top), 0)
}

// IsEmpty reports whether the rectangle contains no pixels.
func (r Rect) IsEmpty() bool {
	return r.Width() == 0 || r.Height() == 0
}

func readRect(r *binio.Reader) (Rect, error) {
	var res Rect
	for _, p := range []*int32{&res.Top, &res.Left, &res.Bottom, &res.Right} {
		x, err := r.ReadInt32()
		if err != nil {
			return Rect{}, err
		}
		*p = x
	}
	return res, nil
}

func writeRect(w *binio.Writer, r Rect) {
	w.WriteInt32(r.Top)
	w.WriteInt32(r.Left)
	w.WriteInt32(r.Bottom)
	w.WriteInt32(r.Right)
}

// LayerFlags are the flags stored in a layer record.
type LayerFlags uint8

// These are the defined bits of [LayerFlags].
const (
	FlagTransparencyProtected LayerFlags = 1 << 0
	FlagHidden                LayerFlags = 1 << 1
	FlagBit4Useful            LayerFlags = 1 << 3
	FlagPixelDataIrrelevant   LayerFlags = 1 << 4
)

// Channel is the image data of one channel of a layer.
type Channel struct {
	ID psd.ChannelID

	// Compression is the method used in the file.  When writing, the
	// channel is compressed using this method.
	Compression compression.Method

	// Data is the uncompressed, big-endian sample data.  The size of the
	// plane is given by the layer rectangle, or by the mask rectangle for
	// mask channels.
	Data []byte
}

// LayerRecord describes a single layer.
type LayerRecord struct {
	Rect     Rect
	Channels []*Channel

	BlendMode psd.BlendMode
	Opacity   uint8

	// Clipping is 0 for base layers and 1 for layers which are clipped to
	// the layer below.
	Clipping uint8

	Flags LayerFlags
	Mask  *Mask

	// BlendingRanges is the raw blending ranges data.  If nil, the default
	// ranges are written.
	BlendingRanges []byte

	// Name is the legacy layer name.  The full unicode name is normally
	// stored in a "luni" tagged block.
	Name string

	Blocks tagged.Blocks
}

// Channel returns the channel with the given ID, or nil if the layer has
// no such channel.
func (l *LayerRecord) Channel(id psd.ChannelID) *Channel {
	for _, c := range l.Channels {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// ChannelRect returns the rectangle covered by the given channel.
func (l *LayerRecord) ChannelRect(id psd.ChannelID) Rect {
	switch id {
	case psd.ChannelUserMask:
		if l.Mask == nil {
			return Rect{}
		}
		return l.Mask.Rect
	case psd.ChannelRealUserMask:
		if l.Mask == nil || l.Mask.Real == nil {
			return Rect{}
		}
		return l.Mask.Real.Rect
	default:
		return l.Rect
	}
}

// MaskFlags are the flags of a layer mask.
type MaskFlags uint8

// These are the defined bits of [MaskFlags].
const (
	MaskRelative  MaskFlags = 1 << 0
	MaskDisabled  MaskFlags = 1 << 1
	MaskInvert    MaskFlags = 1 << 2
	MaskVector    MaskFlags = 1 << 3
	MaskHasParams MaskFlags = 1 << 4
)

// MaskParams indicates which optional mask parameters are present.
type MaskParams uint8

// These are the defined bits of [MaskParams].
const (
	ParamUserDensity   MaskParams = 1 << 0
	ParamUserFeather   MaskParams = 1 << 1
	ParamVectorDensity MaskParams = 1 << 2
	ParamVectorFeather MaskParams = 1 << 3
)

// Mask is the layer mask data of a layer record.
type Mask struct {
	Rect         Rect
	DefaultColor uint8
	Flags        MaskFlags

	// Params indicates which of the following fields are stored.
	Params        MaskParams
	UserDensity   uint8
	UserFeather   float64
	VectorDensity uint8
	VectorFeather float64

	Real *RealMask
}

// RealMask describes the real user mask, which is present if a layer has
// both a vector mask and a pixel mask.
type RealMask struct {
	Flags        MaskFlags
	DefaultColor uint8
	Rect         Rect
}

// maskShortSize is the largest mask record without a real user mask.  In
// longer records the parameters follow the real user mask.
const maskShortSize = 28

func readMask(r *binio.Reader) (*Mask, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	sr, err := r.Sub("layer mask data", int64(n))
	if err != nil {
		return nil, err
	}

	m := &Mask{}
	m.Rect, err = readRect(sr)
	if err != nil {
		return nil, err
	}
	m.DefaultColor, err = sr.ReadUint8()
	if err != nil {
		return nil, err
	}
	flags, err := sr.ReadUint8()
	if err != nil {
		return nil, err
	}
	m.Flags = MaskFlags(flags)

	hasParams := m.Flags&MaskHasParams != 0
	if hasParams && n <= maskShortSize {
		err = m.readParams(sr)
		if err != nil {
			return nil, err
		}
		hasParams = false
	}

	if sr.Remaining() >= 18 {
		rm := &RealMask{}
		flags, err := sr.ReadUint8()
		if err != nil {
			return nil, err
		}
		rm.Flags = MaskFlags(flags)
		rm.DefaultColor, err = sr.ReadUint8()
		if err != nil {
			return nil, err
		}
		rm.Rect, err = readRect(sr)
		if err != nil {
			return nil, err
		}
		m.Real = rm
		hasParams = hasParams || rm.Flags&MaskHasParams != 0
	}

	if hasParams {
		err = m.readParams(sr)
		if err != nil {
			return nil, err
		}
	}

	return m, sr.Finish()
}

func (m *Mask) readParams(r *binio.Reader) error {
	p, err := r.ReadUint8()
	if err != nil {
		return err
	}
	m.Params = MaskParams(p)
	if m.Params&ParamUserDensity != 0 {
		m.UserDensity, err = r.ReadUint8()
		if err != nil {
			return err
		}
	}
	if m.Params&ParamUserFeather != 0 {
		m.UserFeather, err = r.ReadFloat64()
		if err != nil {
			return err
		}
	}
	if m.Params&ParamVectorDensity != 0 {
		m.VectorDensity, err = r.ReadUint8()
		if err != nil {
			return err
		}
	}
	if m.Params&ParamVectorFeather != 0 {
		m.VectorFeather, err = r.ReadFloat64()
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Mask) writeParams(w *binio.Writer) {
	w.WriteUint8(uint8(m.Params))
	if m.Params&ParamUserDensity != 0 {
		w.WriteUint8(m.UserDensity)
	}
	if m.Params&ParamUserFeather != 0 {
		w.WriteFloat64(m.UserFeather)
	}
	if m.Params&ParamVectorDensity != 0 {
		w.WriteUint8(m.VectorDensity)
	}
	if m.Params&ParamVectorFeather != 0 {
		w.WriteFloat64(m.VectorFeather)
	}
}

// writeMask writes the mask record.  Without a real user mask the
// parameters follow the flags, otherwise they follow the real user mask.
// Records without a real user mask only keep the vector parameters if the
// record stays within the short size.
func writeMask(w *binio.Writer, m *Mask) {
	if m == nil {
		w.WriteUint32(0)
		return
	}

	params := m.Params
	if m.Real == nil && paramsSize(params) > maskShortSize-18 {
		params &= ParamUserDensity | ParamUserFeather
	}
	mm := *m
	mm.Params = params

	body := binio.NewWriter()
	writeRect(body, m.Rect)
	body.WriteUint8(m.DefaultColor)
	flags := m.Flags &^ MaskHasParams
	if params != 0 {
		flags |= MaskHasParams
	}
	body.WriteUint8(uint8(flags))
	if m.Real == nil {
		if params != 0 {
			mm.writeParams(body)
		}
	} else {
		body.WriteUint8(uint8(m.Real.Flags &^ MaskHasParams))
		body.WriteUint8(m.Real.DefaultColor)
		writeRect(body, m.Real.Rect)
		if params != 0 {
			mm.writeParams(body)
		}
	}
	for body.Len() < 20 {
		body.WriteByte(0)
	}
	w.WriteUint32(uint32(body.Len()))
	w.Write(body.Bytes())
}

// paramsSize returns the number of bytes used by the mask parameters,
// including the leading parameter byte.
func paramsSize(p MaskParams) int {
	if p == 0 {
		return 0
	}
	n := 1
	if p&ParamUserDensity != 0 {
		n++
	}
	if p&ParamUserFeather != 0 {
		n += 8
	}
	if p&ParamVectorDensity != 0 {
		n++
	}
	if p&ParamVectorFeather != 0 {
		n += 8
	}
	return n
}

// DefaultBlendingRanges returns the blending ranges written for layers
// which do not specify their own: the full range for the composite gray
// channel and four colour channels.
func DefaultBlendingRanges() []byte {
	res := make([]byte, 0, 40)
	for range 10 {
		res = append(res, 0, 0, 255, 255)
	}
	return res
}

// channelInfo is the entry of the channel table in a layer record.
type channelInfo struct {
	id     psd.ChannelID
	length int64
}

// readLayerRecord reads a layer record.  The channel lengths are returned
// separately, since the channel data follows after all layer records.
func readLayerRecord(r *binio.Reader, v psd.Version) (*LayerRecord, []channelInfo, error) {
	l := &LayerRecord{}
	var err error
	l.Rect, err = readRect(r)
	if err != nil {
		return nil, nil, err
	}
	if l.Rect.Width() > v.MaxDimension() || l.Rect.Height() > v.MaxDimension() {
		return nil, nil, r.Error("layer size %dx%d exceeds the %s limit",
			l.Rect.Width(), l.Rect.Height(), v)
	}

	nChan, err := r.ReadUint16()
	if err != nil {
		return nil, nil, err
	}
	if nChan > MaxChannels {
		return nil, nil, r.Error("too many channels (%d)", nChan)
	}
	info := make([]channelInfo, nChan)
	for i := range info {
		id, err := r.ReadInt16()
		if err != nil {
			return nil, nil, err
		}
		n, err := r.ReadLength(v)
		if err != nil {
			return nil, nil, err
		}
		info[i] = channelInfo{id: psd.ChannelID(id), length: n}
	}

	_, err = r.ReadSignature("8BIM", "8B64")
	if err != nil {
		return nil, nil, err
	}
	blend, err := r.ReadKey()
	if err != nil {
		return nil, nil, err
	}
	l.BlendMode = psd.BlendMode(blend)
	var buf [4]byte
	err = r.ReadFull(buf[:])
	if err != nil {
		return nil, nil, err
	}
	l.Opacity = buf[0]
	l.Clipping = buf[1]
	l.Flags = LayerFlags(buf[2])

	extraLen, err := r.ReadUint32()
	if err != nil {
		return nil, nil, err
	}
	er, err := r.Sub("layer extra data", int64(extraLen))
	if err != nil {
		return nil, nil, err
	}
	l.Mask, err = readMask(er)
	if err != nil {
		return nil, nil, err
	}
	if m := l.Mask; m != nil {
		rects := []Rect{m.Rect}
		if m.Real != nil {
			rects = append(rects, m.Real.Rect)
		}
		for _, rect := range rects {
			if rect.Width() > v.MaxDimension() || rect.Height() > v.MaxDimension() {
				return nil, nil, er.Error("mask size %dx%d exceeds the %s limit",
					rect.Width(), rect.Height(), v)
			}
		}
	}
	rangesLen, err := er.ReadUint32()
	if err != nil {
		return nil, nil, err
	}
	l.BlendingRanges, err = er.ReadBytes(int64(rangesLen))
	if err != nil {
		return nil, nil, err
	}
	l.Name, err = er.ReadPascalString(4)
	if err != nil {
		return nil, nil, err
	}
	l.Blocks, err = tagged.ReadList(er, v, 1)
	if err != nil {
		return nil, nil, err
	}
	err = er.Finish()
	if err != nil {
		return nil, nil, err
	}

	l.Channels = make([]*Channel, nChan)
	for i, ci := range info {
		l.Channels[i] = &Channel{ID: ci.id}
	}
	return l, info, nil
}

// writeLayerRecord appends a layer record.  The lengths of the compressed
// channels, excluding the compression method field, are given by sizes.
func writeLayerRecord(w *binio.Writer, v psd.Version, l *LayerRecord, sizes []int64) {
	writeRect(w, l.Rect)
	w.WriteUint16(uint16(len(l.Channels)))
	for i, c := range l.Channels {
		w.WriteInt16(int16(c.ID))
		w.WriteLength(v, sizes[i]+2)
	}
	w.WriteKey("8BIM")
	blend := l.BlendMode
	if blend == "" {
		blend = psd.BlendNormal
	}
	w.WriteKey(string(blend))
	w.WriteUint8(l.Opacity)
	w.WriteUint8(l.Clipping)
	w.WriteUint8(uint8(l.Flags))
	w.WriteUint8(0)

	extra := binio.NewWriter()
	writeMask(extra, l.Mask)
	ranges := l.BlendingRanges
	if ranges == nil {
		ranges = DefaultBlendingRanges()
	}
	extra.WriteUint32(uint32(len(ranges)))
	extra.Write(ranges)
	extra.WritePascalString(l.Name, 4)
	tagged.WriteList(extra, v, 4, l.Blocks)

	w.WriteUint32(uint32(extra.Len()))
	w.Write(extra.Bytes())
}
