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

package tagged

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/descriptor"
	"seehuhn.de/go/psd/internal/binio"
)

func TestListRoundTrip(t *testing.T) {
	in := Blocks{
		{Signature: "8BIM", Key: "luni", Data: EncodeUnicodeName("Ebene 1")},
		{Signature: "8BIM", Key: "lnk2", Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{Signature: "8B64", Key: "xxxx", Data: []byte{}},
	}
	for _, v := range []psd.Version{psd.PSD, psd.PSB} {
		w := binio.NewWriter()
		WriteList(w, v, 4, in)
		r := binio.NewReader(bytes.NewReader(w.Bytes()), "tagged blocks")
		sr, err := r.Sub("", int64(w.Len()))
		if err != nil {
			t.Fatal(err)
		}
		out, err := ReadList(sr, v, 4)
		if err != nil {
			t.Fatal(err)
		}
		if d := cmp.Diff(in, out); d != "" {
			t.Errorf("%s: round trip failed (-want +got):\n%s", v, d)
		}
	}
}

func TestLengthWidth(t *testing.T) {
	blocks := Blocks{
		{Key: "lnk2", Data: []byte{1, 2, 3, 4}},
		{Key: "luni", Data: []byte{1, 2, 3, 4}},
	}

	w := binio.NewWriter()
	WriteList(w, psd.PSD, 4, blocks)
	if w.Len() != 2*(12+4) {
		t.Errorf("PSD: %d bytes", w.Len())
	}

	w = binio.NewWriter()
	WriteList(w, psd.PSB, 4, blocks)
	if w.Len() != (16+4)+(12+4) {
		t.Errorf("PSB: %d bytes", w.Len())
	}
}

func TestPaddingIncluded(t *testing.T) {
	w := binio.NewWriter()
	WriteList(w, psd.PSD, 4, Blocks{{Key: "lyid", Data: []byte{1}}})
	want := []byte{'8', 'B', 'I', 'M', 'l', 'y', 'i', 'd', 0, 0, 0, 4, 1, 0, 0, 0}
	if d := cmp.Diff(want, w.Bytes()); d != "" {
		t.Error(d)
	}
}

func TestTrailingBytes(t *testing.T) {
	w := binio.NewWriter()
	WriteList(w, psd.PSD, 2, Blocks{{Key: "lyid", Data: []byte{0, 0, 0, 7}}})
	w.Write([]byte{0, 0, 0})
	r := binio.NewReader(bytes.NewReader(w.Bytes()), "tagged blocks")
	sr, _ := r.Sub("", int64(w.Len()))
	out, err := ReadList(sr, psd.PSD, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || sr.Remaining() != 0 {
		t.Errorf("got %d blocks, %d bytes left", len(out), sr.Remaining())
	}
}

func TestBlocksSetDelete(t *testing.T) {
	var b Blocks
	b.Set("luni", []byte{1})
	b.Set("lyid", []byte{2})
	b.Set("luni", []byte{3})
	if len(b) != 2 || b[0].Key != "luni" || b[0].Data[0] != 3 {
		t.Errorf("unexpected blocks %v", b)
	}
	b.Delete("luni", "lsct")
	if len(b) != 1 || b.Get("luni") != nil {
		t.Errorf("unexpected blocks %v", b)
	}
}

func TestSimpleBlocks(t *testing.T) {
	name, err := DecodeUnicodeName(EncodeUnicodeName("Ümlaut ☃"))
	if err != nil || name != "Ümlaut ☃" {
		t.Errorf("luni: %q, %v", name, err)
	}

	id, err := DecodeLayerID(EncodeLayerID(12345))
	if err != nil || id != 12345 {
		t.Errorf("lyid: %d, %v", id, err)
	}

	locks, err := DecodeLocks(EncodeLocks(LockPosition | LockTransparency))
	if err != nil || locks != LockPosition|LockTransparency {
		t.Errorf("lspf: %x, %v", locks, err)
	}

	_, err = DecodeLayerID([]byte{1, 2})
	if err == nil {
		t.Error("truncated lyid accepted")
	}
}

func TestSectionDivider(t *testing.T) {
	testCases := []*SectionDivider{
		{Type: DividerBoundary},
		{Type: DividerOpenFolder, BlendMode: psd.BlendPassThrough},
		{Type: DividerClosedFolder, BlendMode: psd.BlendMultiply, SubType: 1},
	}
	for _, in := range testCases {
		out, err := DecodeSectionDivider(in.Encode())
		if err != nil {
			t.Fatal(err)
		}
		if d := cmp.Diff(in, out); d != "" {
			t.Error(d)
		}
	}

	_, err := DecodeSectionDivider([]byte{0, 0, 0, 9})
	if err == nil {
		t.Error("invalid divider type accepted")
	}
}

func testWarp() *descriptor.Descriptor {
	warp := descriptor.New("warp")
	warp.Set("warpStyle", descriptor.Enum{Type: "warpStyle", Value: "warpNone"})
	warp.Set("warpValue", descriptor.Double(0))
	return warp
}

func TestPlacedLayer(t *testing.T) {
	in := &PlacedLayer{
		ID:         "9f3b2c1a-5d4e-4f60-8a7b-1c2d3e4f5a6b",
		Page:       1,
		TotalPages: 1,
		AntiAlias:  16,
		Type:       2,
		Transform:  [8]float64{0, 0, 100, 0, 100, 50, 0, 50},
		Warp:       testWarp(),
	}
	data := in.Encode()
	if len(data)%4 != 0 {
		t.Errorf("block not padded: %d bytes", len(data))
	}
	out, err := DecodePlacedLayer(data)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(in, out); d != "" {
		t.Errorf("round trip failed (-want +got):\n%s", d)
	}

	data[7] = 9 // version
	_, err = DecodePlacedLayer(data)
	if err == nil {
		t.Error("wrong version accepted")
	}
}

func TestPlacedLayerData(t *testing.T) {
	in := descriptor.New("null")
	in.Set("Idnt", descriptor.String("9f3b2c1a"))
	in.Set("warp", testWarp())
	out, err := DecodePlacedLayerData(EncodePlacedLayerData(in))
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(in, out); d != "" {
		t.Errorf("round trip failed (-want +got):\n%s", d)
	}
}

func TestLinkedFiles(t *testing.T) {
	fileDesc := descriptor.New("ExternalFileLink")
	fileDesc.Set("fullPath", descriptor.String("/tmp/asset.png"))

	in := []*LinkedFile{
		{
			Kind:     LinkData,
			Version:  7,
			ID:       "a1",
			Name:     "asset.png",
			FileType: "png ",
			Creator:  "    ",
			Data:     []byte("embedded bytes"),
			Locked:   true,
		},
		{
			Kind:         LinkExternal,
			Version:      7,
			ID:           "b2",
			Name:         "photo.jpg",
			FileType:     "JPEG",
			Creator:      "8BIM",
			OpenDesc:     testWarp(),
			FileDesc:     fileDesc,
			Modified:     Date{Year: 2024, Month: 5, Day: 17, Hour: 12, Minute: 30, Seconds: 1.5},
			Data:         []byte{1, 2, 3},
			ChildDocID:   "child",
			AssetModTime: 42.5,
		},
		{
			Kind:     LinkData,
			Version:  4,
			ID:       "c3",
			Name:     "old.tif",
			FileType: "TIFF",
			Creator:  "    ",
			Data:     []byte{9},
		},
	}
	data := EncodeLinkedFiles(in)
	out, err := DecodeLinkedFiles(KeyLinked, data)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(in, out); d != "" {
		t.Errorf("round trip failed (-want +got):\n%s", d)
	}
}

func TestLinkedFilesTruncated(t *testing.T) {
	data := EncodeLinkedFiles([]*LinkedFile{{
		Kind: LinkData, Version: 7, ID: "x", FileType: "png ", Creator: "    ",
		Data: bytes.Repeat([]byte{7}, 100),
	}})
	_, err := DecodeLinkedFiles(KeyLinked, data[:len(data)-60])
	if err == nil {
		t.Error("truncated table accepted")
	}
}

func FuzzReadList(f *testing.F) {
	w := binio.NewWriter()
	WriteList(w, psd.PSB, 4, Blocks{
		{Key: "lnk2", Data: []byte{1, 2, 3}},
		{Key: "luni", Data: EncodeUnicodeName("x")},
	})
	f.Add(w.Bytes(), true)
	f.Fuzz(func(t *testing.T, data []byte, large bool) {
		v := psd.PSD
		if large {
			v = psd.PSB
		}
		r := binio.NewReader(bytes.NewReader(data), "tagged blocks")
		sr, _ := r.Sub("", int64(len(data)))
		blocks, err := ReadList(sr, v, 1)
		if err != nil {
			return
		}
		w := binio.NewWriter()
		WriteList(w, v, 1, blocks)
		r = binio.NewReader(bytes.NewReader(w.Bytes()), "tagged blocks")
		sr, _ = r.Sub("", int64(w.Len()))
		blocks2, err := ReadList(sr, v, 1)
		if err != nil {
			t.Fatal(err)
		}
		if d := cmp.Diff(blocks, blocks2); d != "" {
			t.Errorf("round trip failed (-want +got):\n%s", d)
		}
	})
}
