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

package descriptor

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"seehuhn.de/go/psd/internal/binio"
)

func testDescriptor() *Descriptor {
	warp := New("warp")
	warp.Set("warpStyle", Enum{Type: "warpStyle", Value: "warpNone"})
	warp.Set("warpValue", Double(0))
	warp.Set("bounds", &Descriptor{
		ClassID: "classFloatRect",
		Items: []Item{
			{"Top ", Double(0)},
			{"Left", Double(0)},
			{"Btom", Double(100)},
			{"Rght", Double(200)},
		},
	})
	warp.Set("customEnvelopeWarp", &Descriptor{
		ClassID: "customEnvelopeWarp",
		Items: []Item{
			{"meshPoints", &ObjectArray{
				Count:   16,
				ClassID: "rationalPoint",
				Items: []Item{
					{"Hrzn", UnitFloats{Unit: UnitPixels, Values: []float64{0, 1, 2}}},
					{"Vrtc", UnitFloats{Unit: UnitPixels, Values: []float64{3, 4, 5}}},
				},
			}},
		},
	})

	d := New("null")
	d.Name = "Smart Object"
	d.Set("Idnt", String("a8c1e7b6-1f3a-4c2b-9e55-0f0d3d2a1b7c"))
	d.Set("placed", String("a8c1e7b6"))
	d.Set("PgNm", Integer(1))
	d.Set("totalPages", Integer(1))
	d.Set("frameCount", LargeInteger(1<<40))
	d.Set("Annt", Bool(true))
	d.Set("Trnf", DoubleList([]float64{0, 0, 10, 0, 10, 10, 0, 10}))
	d.Set("Sz  ", &Descriptor{ClassID: "Pnt ", Items: []Item{
		{"Wdth", Double(10)},
		{"Hght", Double(10)},
	}})
	d.Set("Rslt", UnitFloat{Unit: UnitDensity, Value: 72})
	d.Set("warp", warp)
	d.Set("type", Class{Name: "", ClassID: "Lyr "})
	d.Set("raw", RawData{1, 2, 3})
	d.Set("alias", Alias{4, 5})
	d.Set("ref", Reference{
		{Kind: "prop", ClassID: "Lyr ", Key: "Nm  "},
		{Kind: "Enmr", ClassID: "Lyr ", Type: "Ordn", Enum: "Trgt"},
		{Kind: "Idnt", ID: 7},
		{Kind: "indx", ID: 2},
		{Kind: "rele", ClassID: "Lyr ", Offset: 3},
		{Kind: "name", ClassID: "Lyr ", Value: "Layer 1"},
		{Kind: "Clss", ClassID: "Dcmn"},
	})
	return d
}

func TestRoundTrip(t *testing.T) {
	d := testDescriptor()

	w := binio.NewWriter()
	d.WriteVersioned(w)

	r := binio.NewReader(bytes.NewReader(w.Bytes()), "descriptor")
	d2, err := ReadVersioned(r)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(d, d2); diff != "" {
		t.Errorf("round trip failed (-want +got):\n%s", diff)
	}
	if r.Pos() != int64(w.Len()) {
		t.Errorf("read %d bytes, wrote %d", r.Pos(), w.Len())
	}
}

func TestKeyLength(t *testing.T) {
	w := binio.NewWriter()
	writeID(w, "Hrzn")
	writeID(w, "warp")
	writeID(w, "customEnvelopeWarp")
	want := []byte{0, 0, 0, 0, 'H', 'r', 'z', 'n', 0, 0, 0, 4, 'w', 'a', 'r', 'p', 0, 0, 0, 18}
	want = append(want, "customEnvelopeWarp"...)
	if d := cmp.Diff(want, w.Bytes()); d != "" {
		t.Error(d)
	}
}

func TestAccessors(t *testing.T) {
	d := testDescriptor()

	x, err := d.Double("Rslt")
	if err != nil || x != 72 {
		t.Errorf("Rslt: %g, %v", x, err)
	}
	n, err := d.Int("frameCount")
	if err != nil || n != 1<<40 {
		t.Errorf("frameCount: %d, %v", n, err)
	}
	s, err := d.Text("Idnt")
	if err != nil || s != "a8c1e7b6-1f3a-4c2b-9e55-0f0d3d2a1b7c" {
		t.Errorf("Idnt: %q, %v", s, err)
	}
	b, err := d.Bool("Annt")
	if err != nil || !b {
		t.Errorf("Annt: %t, %v", b, err)
	}
	trnf, err := d.Doubles("Trnf")
	if err != nil || len(trnf) != 8 || trnf[2] != 10 {
		t.Errorf("Trnf: %v, %v", trnf, err)
	}
	warp, err := d.Desc("warp")
	if err != nil {
		t.Fatal(err)
	}
	style, err := warp.Enum("warpStyle")
	if err != nil || style.Value != "warpNone" {
		t.Errorf("warpStyle: %v, %v", style, err)
	}

	_, err = d.Double("missing")
	if !errors.Is(err, ErrMissing) {
		t.Errorf("unexpected error %v", err)
	}
	_, err = d.Text("PgNm")
	if err == nil {
		t.Error("wrong type accepted")
	}
}

func TestSetReplaces(t *testing.T) {
	d := New("null")
	d.Set("a", Integer(1))
	d.Set("b", Integer(2))
	d.Set("a", Integer(3))
	want := []Item{{"a", Integer(3)}, {"b", Integer(2)}}
	if diff := cmp.Diff(want, d.Items); diff != "" {
		t.Error(diff)
	}
	d.Delete("a")
	if _, ok := d.Get("a"); ok {
		t.Error("key not deleted")
	}
}

func TestUnknownType(t *testing.T) {
	w := binio.NewWriter()
	w.WriteUnicodeString("", false)
	writeID(w, "null")
	w.WriteUint32(1)
	writeID(w, "key ")
	w.WriteKey("xxxx")

	_, err := Read(binio.NewReader(bytes.NewReader(w.Bytes()), "descriptor"))
	if err == nil {
		t.Error("unknown value type accepted")
	}
}

func TestTruncated(t *testing.T) {
	w := binio.NewWriter()
	testDescriptor().Write(w)
	data := w.Bytes()
	for _, n := range []int{0, 3, 10, len(data) / 2, len(data) - 1} {
		_, err := Read(binio.NewReader(bytes.NewReader(data[:n]), "descriptor"))
		if err == nil {
			t.Errorf("truncated descriptor (%d of %d bytes) accepted", n, len(data))
		}
	}
}

func FuzzRead(f *testing.F) {
	w := binio.NewWriter()
	testDescriptor().Write(w)
	f.Add(w.Bytes())
	f.Fuzz(func(t *testing.T, data []byte) {
		d, err := Read(binio.NewReader(bytes.NewReader(data), "descriptor"))
		if err != nil {
			return
		}
		w := binio.NewWriter()
		d.Write(w)
		d2, err := Read(binio.NewReader(bytes.NewReader(w.Bytes()), "descriptor"))
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(d, d2, cmpopts.EquateNaNs()); diff != "" {
			t.Errorf("round trip failed (-want +got):\n%s", diff)
		}
	})
}
