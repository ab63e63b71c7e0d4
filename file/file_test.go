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
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sirupsen/logrus"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/compression"
	"seehuhn.de/go/psd/internal/binio"
	"seehuhn.de/go/psd/resource"
	"seehuhn.de/go/psd/tagged"
)

var cmpOpts = []cmp.Option{cmpopts.EquateEmpty(), cmpopts.EquateNaNs()}

// pattern returns n bytes of deterministic test data.
func pattern(n int, seed byte) []byte {
	res := make([]byte, n)
	for i := range res {
		res[i] = byte(i/7) + seed
	}
	return res
}

func testSections(v psd.Version, depth psd.Depth) *Sections {
	h := Header{
		Version:   v,
		Channels:  3,
		Height:    12,
		Width:     20,
		Depth:     depth,
		ColorMode: psd.RGB,
	}
	plane := func(r Rect, seed byte) []byte {
		return pattern(depth.RowBytes(r.Width())*r.Height(), seed)
	}

	r1 := Rect{Top: 1, Left: 2, Bottom: 9, Right: 17}
	m1 := Rect{Top: 2, Left: 3, Bottom: 6, Right: 8}
	l1 := &LayerRecord{
		Rect: r1,
		Channels: []*Channel{
			{ID: psd.ChannelTransparency, Compression: compression.RLE, Data: plane(r1, 1)},
			{ID: 0, Compression: compression.Raw, Data: plane(r1, 2)},
			{ID: 1, Compression: compression.Zip, Data: plane(r1, 3)},
			{ID: 2, Compression: compression.ZipPrediction, Data: plane(r1, 4)},
			{ID: psd.ChannelUserMask, Compression: compression.RLE, Data: plane(m1, 5)},
		},
		BlendMode: psd.BlendMultiply,
		Opacity:   200,
		Flags:     FlagBit4Useful,
		Mask: &Mask{
			Rect:         m1,
			DefaultColor: 255,
			Flags:        MaskRelative | MaskHasParams,
			Params:       ParamUserDensity | ParamUserFeather,
			UserDensity:  128,
			UserFeather:  2.5,
		},
		BlendingRanges: DefaultBlendingRanges(),
		Name:           "Layer 1",
		Blocks: tagged.Blocks{
			{Signature: "8BIM", Key: tagged.KeyUnicodeName, Data: tagged.EncodeUnicodeName("Ebene 1")},
			{Signature: "8BIM", Key: tagged.KeyLayerID, Data: tagged.EncodeLayerID(7)},
		},
	}

	l2 := &LayerRecord{
		Rect: Rect{},
		Channels: []*Channel{
			{ID: psd.ChannelTransparency, Compression: compression.Raw},
		},
		BlendMode:      psd.BlendNormal,
		Opacity:        255,
		Clipping:       1,
		Flags:          FlagHidden,
		BlendingRanges: DefaultBlendingRanges(),
		Name:           "empty",
	}

	n := depth.RowBytes(int(h.Width)) * int(h.Height)
	return &Sections{
		Header: h,
		Resources: resource.Blocks{
			{Signature: "8BIM", ID: resource.IDLayerState, Data: []byte{0, 1}},
		},
		LayerInfo: LayerMaskInfo{
			Layers: []*LayerRecord{l1, l2},
			Blocks: tagged.Blocks{
				{Signature: "8BIM", Key: "Patt", Data: []byte{1, 2, 3, 4}},
			},
		},
		Image: &ImageData{
			Compression: compression.RLE,
			Channels:    [][]byte{pattern(n, 10), pattern(n, 20), pattern(n, 30)},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, v := range []psd.Version{psd.PSD, psd.PSB} {
		for _, depth := range []psd.Depth{psd.Depth8, psd.Depth16, psd.Depth32} {
			t.Run(fmt.Sprintf("%s-%d", v, depth), func(t *testing.T) {
				in := testSections(v, depth)
				buf := &bytes.Buffer{}
				err := in.Encode(buf, nil)
				if err != nil {
					t.Fatal(err)
				}
				out, err := Decode(bytes.NewReader(buf.Bytes()), nil)
				if err != nil {
					t.Fatal(err)
				}
				if d := cmp.Diff(in, out, cmpOpts...); d != "" {
					t.Errorf("round trip failed (-want +got):\n%s", d)
				}
			})
		}
	}
}

func TestHighDepthLayerBlock(t *testing.T) {
	for _, depth := range []psd.Depth{psd.Depth16, psd.Depth32} {
		in := testSections(psd.PSD, depth)
		buf := &bytes.Buffer{}
		err := in.Encode(buf, nil)
		if err != nil {
			t.Fatal(err)
		}

		key := tagged.KeyLayers16
		if depth == psd.Depth32 {
			key = tagged.KeyLayers32
		}
		if !bytes.Contains(buf.Bytes(), []byte("8BIM"+key)) {
			t.Errorf("%d bit: no %s block", depth, key)
		}
	}
}

func TestAbsoluteAlpha(t *testing.T) {
	in := testSections(psd.PSD, psd.Depth8)
	in.LayerInfo.AbsoluteAlpha = true
	buf := &bytes.Buffer{}
	err := in.Encode(buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Decode(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !out.LayerInfo.AbsoluteAlpha || len(out.LayerInfo.Layers) != 2 {
		t.Errorf("absolute alpha lost: %v, %d layers",
			out.LayerInfo.AbsoluteAlpha, len(out.LayerInfo.Layers))
	}
}

func TestRealMask(t *testing.T) {
	in := testSections(psd.PSB, psd.Depth8)
	l := in.LayerInfo.Layers[0]
	l.Mask.Flags = MaskVector
	l.Mask.Params = 0
	l.Mask.Real = &RealMask{
		Flags:        MaskRelative,
		DefaultColor: 0,
		Rect:         Rect{Top: 0, Left: 0, Bottom: 3, Right: 4},
	}
	l.Channels = append(l.Channels, &Channel{
		ID:          psd.ChannelRealUserMask,
		Compression: compression.Zip,
		Data:        pattern(12, 99),
	})

	buf := &bytes.Buffer{}
	err := in.Encode(buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Decode(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(in, out, cmpOpts...); d != "" {
		t.Errorf("round trip failed (-want +got):\n%s", d)
	}
}

func TestMaskParamsAfterRealMask(t *testing.T) {
	body := binio.NewWriter()
	writeRect(body, Rect{Top: 0, Left: 0, Bottom: 10, Right: 10})
	body.WriteUint8(255)
	body.WriteUint8(uint8(MaskVector | MaskHasParams))
	body.WriteUint8(uint8(MaskRelative))
	body.WriteUint8(0)
	writeRect(body, Rect{Top: 1, Left: 2, Bottom: 5, Right: 6})
	body.WriteUint8(uint8(ParamUserFeather))
	body.WriteFloat64(3.5)

	rec := binio.NewWriter()
	rec.WriteUint32(uint32(body.Len()))
	rec.Write(body.Bytes())
	data := rec.Bytes()
	if len(data) != 4+45 {
		t.Fatalf("test record has %d bytes", len(data))
	}

	m, err := readMask(binio.NewReader(bytes.NewReader(data), "mask"))
	if err != nil {
		t.Fatal(err)
	}
	want := &Mask{
		Rect:         Rect{Top: 0, Left: 0, Bottom: 10, Right: 10},
		DefaultColor: 255,
		Flags:        MaskVector | MaskHasParams,
		Params:       ParamUserFeather,
		UserFeather:  3.5,
		Real: &RealMask{
			Flags: MaskRelative,
			Rect:  Rect{Top: 1, Left: 2, Bottom: 5, Right: 6},
		},
	}
	if d := cmp.Diff(want, m); d != "" {
		t.Errorf("decoded mask (-want +got):\n%s", d)
	}

	out := binio.NewWriter()
	writeMask(out, m)
	if d := cmp.Diff(data, out.Bytes()); d != "" {
		t.Errorf("encoded mask (-want +got):\n%s", d)
	}
}

func TestMaskVectorParamsDropped(t *testing.T) {
	m := &Mask{
		Rect:          Rect{Bottom: 4, Right: 4},
		Flags:         MaskHasParams,
		Params:        ParamUserDensity | ParamUserFeather | ParamVectorDensity | ParamVectorFeather,
		UserDensity:   10,
		UserFeather:   1,
		VectorDensity: 20,
		VectorFeather: 2,
	}
	w := binio.NewWriter()
	writeMask(w, m)
	got, err := readMask(binio.NewReader(bytes.NewReader(w.Bytes()), "mask"))
	if err != nil {
		t.Fatal(err)
	}
	if got.Real != nil || got.Params != ParamUserDensity|ParamUserFeather ||
		got.UserDensity != 10 || got.UserFeather != 1 {
		t.Errorf("unexpected mask %+v", got)
	}
}

func TestNoLayers(t *testing.T) {
	in := testSections(psd.PSD, psd.Depth16)
	in.LayerInfo = LayerMaskInfo{}
	in.Image = nil
	buf := &bytes.Buffer{}
	err := in.Encode(buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Decode(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(in, out, cmpOpts...); d != "" {
		t.Errorf("round trip failed (-want +got):\n%s", d)
	}
}

func TestSkipMergedImage(t *testing.T) {
	in := testSections(psd.PSD, psd.Depth8)
	buf := &bytes.Buffer{}
	err := in.Encode(buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Decode(bytes.NewReader(buf.Bytes()), &ReadOptions{SkipMergedImage: true})
	if err != nil {
		t.Fatal(err)
	}
	if out.Image != nil {
		t.Error("merged image was read")
	}
	if len(out.LayerInfo.Layers) != 2 {
		t.Errorf("got %d layers", len(out.LayerInfo.Layers))
	}
}

func TestTruncated(t *testing.T) {
	in := testSections(psd.PSD, psd.Depth8)
	buf := &bytes.Buffer{}
	err := in.Encode(buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	testCases := []struct {
		n       int
		section string
	}{
		{0, "header"},
		{10, "header"},
		{HeaderSize + 2, "colour mode data"},
		{HeaderSize + 4 + 3, "image resources"},
		{HeaderSize + 4 + 4 + 2, "image resources"},
	}
	for _, tc := range testCases {
		_, err := Decode(bytes.NewReader(data[:tc.n]), nil)
		var fe *psd.FormatError
		if !errors.As(err, &fe) {
			t.Errorf("%d bytes: unexpected error %v", tc.n, err)
			continue
		}
		if fe.Section != tc.section {
			t.Errorf("%d bytes: section %q, want %q", tc.n, fe.Section, tc.section)
		}
	}

	// every prefix which ends before the merged image must fail
	imageLen, _ := in.Image.encode(&in.Header)
	for n := 0; n < len(data)-len(imageLen); n += 7 {
		_, err := Decode(bytes.NewReader(data[:n]), nil)
		var fe *psd.FormatError
		if !errors.As(err, &fe) {
			t.Fatalf("%d bytes: unexpected error %v", n, err)
		}
		if fe.Pos > int64(n) {
			t.Errorf("%d bytes: error position %d after end of data", n, fe.Pos)
		}
	}
}

func TestBadHeader(t *testing.T) {
	in := testSections(psd.PSD, psd.Depth8)
	buf := &bytes.Buffer{}
	err := in.Encode(buf, nil)
	if err != nil {
		t.Fatal(err)
	}

	data := bytes.Clone(buf.Bytes())
	copy(data, "8BPX")
	_, err = Decode(bytes.NewReader(data), nil)
	var fe *psd.FormatError
	if !errors.As(err, &fe) || fe.Section != "header" || fe.Pos != 0 {
		t.Errorf("bad signature: unexpected error %v", err)
	}

	data = bytes.Clone(buf.Bytes())
	data[5] = 3 // version
	_, err = Decode(bytes.NewReader(data), nil)
	if !errors.As(err, &fe) {
		t.Errorf("bad version: unexpected error %v", err)
	}

	data = bytes.Clone(buf.Bytes())
	data[23] = 12 // depth
	_, err = Decode(bytes.NewReader(data), nil)
	if !errors.As(err, &fe) {
		t.Errorf("bad depth: unexpected error %v", err)
	}
}

func TestLimits(t *testing.T) {
	wide := func(v psd.Version) *Sections {
		r := Rect{Bottom: 1, Right: 40000}
		return &Sections{
			Header: Header{
				Version:   v,
				Channels:  1,
				Height:    1,
				Width:     40000,
				Depth:     psd.Depth8,
				ColorMode: psd.Grayscale,
			},
			LayerInfo: LayerMaskInfo{
				Layers: []*LayerRecord{{
					Rect:     r,
					Channels: []*Channel{{ID: 0, Compression: compression.Raw, Data: make([]byte, 40000)}},
					Opacity:  255,
				}},
			},
		}
	}

	buf := &bytes.Buffer{}
	err := wide(psd.PSD).Encode(buf, nil)
	var le *psd.LimitError
	if !errors.As(err, &le) {
		t.Fatalf("PSD: unexpected error %v", err)
	}
	if le.Version != psd.PSD || le.Max != 30000 {
		t.Errorf("wrong limit error %v", le)
	}
	if buf.Len() != 0 {
		t.Errorf("%d bytes written despite error", buf.Len())
	}

	err = wide(psd.PSB).Encode(buf, nil)
	if err != nil {
		t.Errorf("PSB: %v", err)
	}
}

func TestValidate(t *testing.T) {
	s := testSections(psd.PSD, psd.Depth8)
	s.Header.Width = 0
	var ve *psd.ValidationError
	if err := s.Validate(); !errors.As(err, &ve) {
		t.Errorf("empty canvas: unexpected error %v", err)
	}

	s = testSections(psd.PSD, psd.Depth8)
	s.LayerInfo.Layers[0].Channels[1].Data = make([]byte, 3)
	if err := s.Validate(); !errors.As(err, &ve) {
		t.Errorf("wrong data size: unexpected error %v", err)
	}

	s = testSections(psd.PSD, psd.Depth8)
	s.Image.Channels = s.Image.Channels[:2]
	if err := s.Validate(); !errors.As(err, &ve) {
		t.Errorf("wrong channel count: unexpected error %v", err)
	}

	s = testSections(psd.PSD, psd.Depth8)
	s.Header.ColorMode = psd.Bitmap
	if err := s.Validate(); !errors.As(err, &ve) {
		t.Errorf("8-bit bitmap: unexpected error %v", err)
	}
}

func TestLogging(t *testing.T) {
	in := testSections(psd.PSD, psd.Depth8)
	buf := &bytes.Buffer{}

	logBuf := &bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(logBuf)
	log.SetLevel(logrus.DebugLevel)

	err := in.Encode(buf, &WriteOptions{Log: log})
	if err != nil {
		t.Fatal(err)
	}
	_, err = Decode(bytes.NewReader(buf.Bytes()), &ReadOptions{Log: log})
	if err != nil {
		t.Fatal(err)
	}
	for _, msg := range []string{"wrote file", "read header", "read layer and mask information"} {
		if !strings.Contains(logBuf.String(), msg) {
			t.Errorf("log message %q missing", msg)
		}
	}
}

func FuzzDecode(f *testing.F) {
	for _, v := range []psd.Version{psd.PSD, psd.PSB} {
		for _, depth := range []psd.Depth{psd.Depth8, psd.Depth16} {
			buf := &bytes.Buffer{}
			err := testSections(v, depth).Encode(buf, nil)
			if err != nil {
				f.Fatal(err)
			}
			f.Add(buf.Bytes())
		}
	}
	f.Fuzz(func(t *testing.T, data []byte) {
		s1, err := Decode(bytes.NewReader(data), nil)
		if err != nil {
			return
		}

		// The first write normalises padding and flags, after that the
		// encoding must be stable.
		buf := &bytes.Buffer{}
		err = s1.Encode(buf, nil)
		if err != nil {
			return
		}
		s2, err := Decode(bytes.NewReader(buf.Bytes()), nil)
		if err != nil {
			t.Fatal(err)
		}
		buf = &bytes.Buffer{}
		err = s2.Encode(buf, nil)
		if err != nil {
			t.Fatal(err)
		}
		s3, err := Decode(bytes.NewReader(buf.Bytes()), nil)
		if err != nil {
			t.Fatal(err)
		}
		if d := cmp.Diff(s2, s3, cmpOpts...); d != "" {
			t.Errorf("round trip failed (-want +got):\n%s", d)
		}
	})
}
