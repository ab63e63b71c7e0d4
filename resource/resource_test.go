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

package resource

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/language"
	"seehuhn.de/go/icc"
	"seehuhn.de/go/xmp"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/internal/binio"
)

func TestRoundTrip(t *testing.T) {
	in := Blocks{
		{Signature: "8BIM", ID: IDResolutionInfo, Data: make([]byte, 16)},
		{Signature: "8BIM", ID: 4000, Name: "plug-in", Data: []byte{1, 2, 3}},
		{Signature: "MeSa", ID: 7000, Name: "ab", Data: []byte{}},
	}

	w := binio.NewWriter()
	in.Encode(w)
	if got := int64(w.Len()) - 4; got != in.Size() {
		t.Errorf("Size() = %d, encoded %d bytes", in.Size(), got)
	}

	out, err := Decode(binio.NewReader(bytes.NewReader(w.Bytes()), "image resources"))
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(in, out); d != "" {
		t.Errorf("round trip failed (-want +got):\n%s", d)
	}
}

func TestPadding(t *testing.T) {
	b := Blocks{{ID: 1, Data: []byte{9}}}
	w := binio.NewWriter()
	b.Encode(w)
	want := []byte{
		0, 0, 0, 14,
		'8', 'B', 'I', 'M', 0, 1,
		0, 0, // empty name, padded to even
		0, 0, 0, 1, 9, 0, // data, padded to even
	}
	if d := cmp.Diff(want, w.Bytes()); d != "" {
		t.Error(d)
	}
}

func TestMissingFinalPadding(t *testing.T) {
	data := []byte{
		0, 0, 0, 13,
		'8', 'B', 'I', 'M', 0, 1,
		0, 0,
		0, 0, 0, 1, 9,
	}
	out, err := Decode(binio.NewReader(bytes.NewReader(data), "image resources"))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || !bytes.Equal(out[0].Data, []byte{9}) {
		t.Errorf("unexpected result %v", out)
	}
}

func TestBadSignature(t *testing.T) {
	data := []byte{0, 0, 0, 12, 'X', 'X', 'X', 'X', 0, 1, 0, 0, 0, 0, 0, 0}
	_, err := Decode(binio.NewReader(bytes.NewReader(data), "image resources"))
	var fe *psd.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if fe.Pos != 4 {
		t.Errorf("error at byte %d, want 4", fe.Pos)
	}
}

func TestSetKeepsOrder(t *testing.T) {
	var b Blocks
	b.Set(1, []byte{1})
	b.Set(2, []byte{2})
	b.Set(1, []byte{3})
	if len(b) != 2 || b[0].ID != 1 || b[0].Data[0] != 3 {
		t.Errorf("unexpected blocks %v", b)
	}
	b.Delete(1)
	if len(b) != 1 || b[0].ID != 2 {
		t.Errorf("unexpected blocks %v", b)
	}
}

func TestICCProfile(t *testing.T) {
	var b Blocks
	err := b.SetICCProfile(icc.SRGBv4Profile, psd.RGB)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b.ICCProfile(), icc.SRGBv4Profile) {
		t.Error("profile not stored")
	}

	err = b.SetICCProfile(icc.SRGBv2Profile, psd.CMYK)
	var ve *psd.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("RGB profile accepted for CMYK document: %v", err)
	}
	if !bytes.Equal(b.ICCProfile(), icc.SRGBv4Profile) {
		t.Error("failed call modified the profile")
	}

	err = b.SetICCProfile([]byte("not a profile"), psd.RGB)
	if !errors.As(err, &ve) {
		t.Errorf("garbage accepted: %v", err)
	}

	err = b.SetICCProfile(nil, psd.RGB)
	if err != nil || b.ICCProfile() != nil {
		t.Error("profile not removed")
	}
}

func TestXMP(t *testing.T) {
	packet := xmp.NewPacket()
	dc := &xmp.DublinCore{}
	dc.Title.Set(language.Und, "Layered Image")
	dc.Creator.Append(xmp.NewProperName("Test Author"))
	err := packet.Set(dc)
	if err != nil {
		t.Fatal(err)
	}

	var b Blocks
	err = b.SetXMP(packet)
	if err != nil {
		t.Fatal(err)
	}

	w := binio.NewWriter()
	b.Encode(w)
	b2, err := Decode(binio.NewReader(bytes.NewReader(w.Bytes()), "image resources"))
	if err != nil {
		t.Fatal(err)
	}
	packet2, err := b2.XMP()
	if err != nil {
		t.Fatal(err)
	}

	var dc1, dc2 xmp.DublinCore
	packet.Get(&dc1)
	packet2.Get(&dc2)
	if d := cmp.Diff(dc1, dc2); d != "" {
		t.Errorf("round trip failed (-want +got):\n%s", d)
	}
}

func TestResolution(t *testing.T) {
	var b Blocks
	if res, err := b.Resolution(); res != nil || err != nil {
		t.Errorf("unexpected resolution %v, %v", res, err)
	}

	in := &Resolution{
		HRes: 300, VRes: 72.5,
		HResUnit: PixelsPerInch, VResUnit: PixelsPerCM,
		WidthUnit: 1, HeightUnit: 2,
	}
	b.SetResolution(in)
	out, err := b.Resolution()
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(in, out); d != "" {
		t.Error(d)
	}

	b.Set(IDResolutionInfo, []byte{1, 2})
	_, err = b.Resolution()
	if err == nil {
		t.Error("short resolution info accepted")
	}
}

func FuzzDecode(f *testing.F) {
	b := Blocks{{ID: 1005, Name: "x", Data: []byte{1, 2, 3}}}
	w := binio.NewWriter()
	b.Encode(w)
	f.Add(w.Bytes())
	f.Fuzz(func(t *testing.T, data []byte) {
		b, err := Decode(binio.NewReader(bytes.NewReader(data), "image resources"))
		if err != nil {
			return
		}
		w := binio.NewWriter()
		b.Encode(w)
		b2, err := Decode(binio.NewReader(bytes.NewReader(w.Bytes()), "image resources"))
		if err != nil {
			t.Fatal(err)
		}
		if d := cmp.Diff(b, b2); d != "" {
			t.Errorf("round trip failed (-want +got):\n%s", d)
		}
	})
}
