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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/smartobject"
)

func fill[T psd.Sample](n int, v T) []T {
	res := make([]T, n)
	for i := range res {
		res[i] = v
	}
	return res
}

func ramp(n int) []uint8 {
	res := make([]uint8, n)
	for i := range res {
		res[i] = uint8(i * 7)
	}
	return res
}

func newRGBLayer(t *testing.T, name string, w, h int) *ImageLayer[uint8] {
	t.Helper()
	l, err := NewImageLayer[uint8](psd.RGB, name, w, h, vec.Vec2{X: float64(w) / 2, Y: float64(h) / 2})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestConsumeOnce(t *testing.T) {
	l := newRGBLayer(t, "a", 4, 3)
	in := ramp(12)
	err := l.SetChannel(0, in)
	if err != nil {
		t.Fatal(err)
	}

	copied, err := l.GetChannel(0, false)
	if err != nil {
		t.Fatal(err)
	}
	copied[0] = 99
	again, err := l.GetChannel(0, false)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(ramp(12), again); diff != "" {
		t.Errorf("copy is shared with the layer:\n%s", diff)
	}

	out, err := l.GetChannel(0, true)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(ramp(12), out); diff != "" {
		t.Errorf("consumed data differs:\n%s", diff)
	}
	for _, consume := range []bool{false, true} {
		_, err = l.GetChannel(0, consume)
		if !errors.Is(err, psd.ErrChannelConsumed) {
			t.Errorf("consume=%t: got %v, want ErrChannelConsumed", consume, err)
		}
	}

	err = l.SetChannel(0, ramp(12))
	if err != nil {
		t.Fatal(err)
	}
	_, err = l.GetChannel(0, true)
	if err != nil {
		t.Errorf("channel not available after set: %v", err)
	}
}

func TestShapeInvariant(t *testing.T) {
	l := newRGBLayer(t, "a", 4, 3)
	for _, n := range []int{0, 11, 13, 16} {
		err := l.SetChannel(1, make([]uint8, n))
		var ve *psd.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%d samples: got %v, want ValidationError", n, err)
		}
	}
	if len(l.ChannelIDs()) != 0 {
		t.Errorf("channels set after failed calls: %v", l.ChannelIDs())
	}

	err := l.SetImageData(map[psd.ChannelID][]uint8{
		0: make([]uint8, 12),
		1: make([]uint8, 12),
		2: make([]uint8, 10),
	})
	var ve *psd.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("got %v, want ValidationError", err)
	}
	if l.Width() != 4 || l.Height() != 3 {
		t.Errorf("layer resized to %dx%d", l.Width(), l.Height())
	}

	err = l.SetChannel(3, make([]uint8, 12))
	if !errors.As(err, &ve) {
		t.Errorf("channel 3 of RGB: got %v, want ValidationError", err)
	}
}

func TestChannelCompleteness(t *testing.T) {
	l := newRGBLayer(t, "a", 2, 2)

	err := l.SetImageData(map[psd.ChannelID][]uint8{
		0: {1, 2, 3, 4},
		2: {1, 2, 3, 4},
	})
	var ve *psd.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("missing green: got %v, want ValidationError", err)
	}

	in := map[psd.ChannelID][]uint8{
		0:                       {1, 2, 3, 4},
		1:                       {5, 6, 7, 8},
		2:                       {9, 10, 11, 12},
		psd.ChannelTransparency: {255, 255, 0, 0},
		psd.ChannelUserMask:     {0, 128, 255, 64},
	}
	err = l.SetImageData(in)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]psd.ChannelID{0, 1, 2, psd.ChannelTransparency}, l.ChannelIDs()); diff != "" {
		t.Errorf("channel IDs (-want +got):\n%s", diff)
	}
	m := l.Mask()
	if m == nil {
		t.Fatal("mask channel did not become the layer mask")
	}
	if m.Width() != 2 || m.Height() != 2 || m.Center() != l.Center() {
		t.Errorf("mask placed at %v, %dx%d", m.Center(), m.Width(), m.Height())
	}

	out, err := l.ImageData()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("image data (-want +got):\n%s", diff)
	}

	l = newRGBLayer(t, "b", 2, 2)
	err = l.SetImageData(map[psd.ChannelID][]uint8{
		0:                       {1, 2, 3, 4},
		1:                       {5, 6, 7, 8},
		2:                       {9, 10, 11, 12},
		psd.ChannelRealUserMask: {10, 20, 30, 40},
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]psd.ChannelID{0, 1, 2}, l.ChannelIDs()); diff != "" {
		t.Errorf("channel IDs (-want +got):\n%s", diff)
	}
	if l.Mask() == nil {
		t.Fatal("real user mask channel did not become the layer mask")
	}
	out, err = l.ImageData()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]uint8{10, 20, 30, 40}, out[psd.ChannelUserMask]); diff != "" {
		t.Errorf("mask samples (-want +got):\n%s", diff)
	}

	err = l.SetImageData(map[psd.ChannelID][]uint8{
		0:                       {1, 2, 3, 4},
		1:                       {5, 6, 7, 8},
		2:                       {9, 10, 11, 12},
		psd.ChannelUserMask:     {0, 0, 0, 0},
		psd.ChannelRealUserMask: {1, 1, 1, 1},
	})
	if !errors.As(err, &ve) {
		t.Errorf("two masks: got %v, want ValidationError", err)
	}
	if diff := cmp.Diff([]psd.ChannelID{0, 1, 2}, l.ChannelIDs()); diff != "" {
		t.Errorf("layer changed after failed update (-want +got):\n%s", diff)
	}
}

func TestChannelByIndex(t *testing.T) {
	l := newRGBLayer(t, "a", 1, 2)
	for i := range 3 {
		err := l.SetChannelByIndex(-1, []uint8{1, 2})
		if err != nil {
			t.Fatal(err)
		}
		err = l.SetChannel(psd.ChannelID(i), []uint8{uint8(i), uint8(i)})
		if err != nil {
			t.Fatal(err)
		}
	}
	got, err := l.GetChannelByIndex(2, false)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]uint8{2, 2}, got); diff != "" {
		t.Errorf("index 2:\n%s", diff)
	}
	got, err = l.GetChannelByIndex(3, false)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]uint8{1, 2}, got); diff != "" {
		t.Errorf("index 3:\n%s", diff)
	}
	_, err = l.GetChannelByIndex(4, false)
	if err == nil {
		t.Error("index 4 accepted")
	}
	_, err = l.GetChannelByIndex(-2, false)
	if err == nil {
		t.Error("mask index accepted for layer without mask")
	}
}

func TestCapability(t *testing.T) {
	g := NewGroupLayer[uint8]("g")
	png := testPNG(t, 8, 6, 0)
	so, err := NewSmartObject[uint8]("so", png, "a.png", smartobject.Embedded)
	if err != nil {
		t.Fatal(err)
	}

	for _, l := range []Layer[uint8]{g, so} {
		_, err := GetChannel(l, 0, false)
		var ce *psd.CapabilityError
		if !errors.As(err, &ce) {
			t.Errorf("%s: get: got %v, want CapabilityError", l.Kind(), err)
		}
		err = SetChannel(l, 0, []uint8{1})
		if !errors.As(err, &ce) {
			t.Errorf("%s: set: got %v, want CapabilityError", l.Kind(), err)
		}
		err = SetImageData(l, map[psd.ChannelID][]uint8{0: {1}})
		if !errors.As(err, &ce) {
			t.Errorf("%s: set image data: got %v, want CapabilityError", l.Kind(), err)
		}

		// masks are available for all kinds
		data := fill(4, uint8(200))
		err = SetMaskRect(l, data, 2, 2, vec.Vec2{X: 1, Y: 1})
		if err != nil {
			t.Fatal(err)
		}
		got, err := GetChannel(l, psd.ChannelUserMask, true)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(fill(4, uint8(200)), got); diff != "" {
			t.Errorf("%s: mask:\n%s", l.Kind(), diff)
		}
		_, err = GetChannel(l, psd.ChannelUserMask, false)
		if !errors.Is(err, psd.ErrChannelConsumed) {
			t.Errorf("%s: got %v, want ErrChannelConsumed", l.Kind(), err)
		}
	}
}

func TestMaskParameters(t *testing.T) {
	l := newRGBLayer(t, "a", 2, 2)
	err := l.SetMaskDensity(10)
	if err == nil {
		t.Error("density set on layer without mask")
	}

	err = SetMask[uint8](l, []uint8{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	m := l.Mask()
	if m.Density() != 255 || m.Feather() != 0 || m.DefaultColor() != 255 {
		t.Errorf("unexpected defaults %d %g %d", m.Density(), m.Feather(), m.DefaultColor())
	}

	type check struct {
		name string
		err  error
	}
	good := []check{
		{"density 0", l.SetMaskDensity(0)},
		{"density 255", l.SetMaskDensity(255)},
		{"feather 0", l.SetMaskFeather(0)},
		{"feather 1000", l.SetMaskFeather(MaxFeather)},
		{"default 0", l.SetMaskDefaultColor(0)},
	}
	for _, c := range good {
		if c.err != nil {
			t.Errorf("%s: %v", c.name, c.err)
		}
	}
	bad := []check{
		{"density -1", l.SetMaskDensity(-1)},
		{"density 256", l.SetMaskDensity(256)},
		{"feather -0.5", l.SetMaskFeather(-0.5)},
		{"feather 1000.5", l.SetMaskFeather(1000.5)},
		{"default 128", l.SetMaskDefaultColor(128)},
	}
	for _, c := range bad {
		var ve *psd.ValidationError
		if !errors.As(c.err, &ve) {
			t.Errorf("%s: got %v, want ValidationError", c.name, c.err)
		}
	}
	if m.Density() != 255 || m.Feather() != MaxFeather || m.DefaultColor() != 0 {
		t.Errorf("failed setters changed the mask: %d %g %d", m.Density(), m.Feather(), m.DefaultColor())
	}

	// replacing the mask data keeps the parameters
	err = l.SetChannel(psd.ChannelUserMask, []uint8{5, 6, 7, 8})
	if err != nil {
		t.Fatal(err)
	}
	if l.Mask() != m || m.Feather() != MaxFeather {
		t.Error("mask parameters lost")
	}

	l.RemoveMask()
	if l.Mask() != nil {
		t.Error("mask not removed")
	}
}

func TestSetSize(t *testing.T) {
	l := newRGBLayer(t, "a", 2, 2)
	err := l.SetChannel(0, []uint8{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	err = l.SetSize(3, 3)
	if err == nil {
		t.Fatal("resized layer which holds data")
	}
	_, err = l.GetChannel(0, true)
	if err != nil {
		t.Fatal(err)
	}
	err = l.SetSize(3, 3)
	if err != nil {
		t.Fatal(err)
	}
	err = l.SetChannel(0, make([]uint8, 9))
	if err != nil {
		t.Error(err)
	}
}

func TestRescale(t *testing.T) {
	l := newRGBLayer(t, "a", 4, 4)
	err := l.SetImageData(map[psd.ChannelID][]uint8{
		0: fill(16, uint8(10)),
		1: fill(16, uint8(20)),
		2: fill(16, uint8(30)),
	})
	if err != nil {
		t.Fatal(err)
	}
	err = SetMask[uint8](l, fill(16, uint8(255)))
	if err != nil {
		t.Fatal(err)
	}
	center := l.Center()

	err = l.Rescale(8, 2)
	if err != nil {
		t.Fatal(err)
	}
	if l.Width() != 8 || l.Height() != 2 || l.Center() != center {
		t.Errorf("got %dx%d at %v", l.Width(), l.Height(), l.Center())
	}
	data, err := l.ImageData()
	if err != nil {
		t.Fatal(err)
	}
	want := map[psd.ChannelID][]uint8{
		0:                   fill(16, uint8(10)),
		1:                   fill(16, uint8(20)),
		2:                   fill(16, uint8(30)),
		psd.ChannelUserMask: fill(16, uint8(255)),
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Errorf("rescaled data (-want +got):\n%s", diff)
	}
	m := l.Mask()
	if m.Width() != 8 || m.Height() != 2 || m.Center() != center {
		t.Errorf("mask %dx%d at %v", m.Width(), m.Height(), m.Center())
	}

	_, err = l.GetChannel(1, true)
	if err != nil {
		t.Fatal(err)
	}
	err = l.Rescale(4, 4)
	if !errors.Is(err, psd.ErrChannelConsumed) {
		t.Errorf("got %v, want ErrChannelConsumed", err)
	}
	if l.Width() != 8 {
		t.Error("failed rescale changed the layer")
	}
}

func TestResample(t *testing.T) {
	t.Run("uint8", func(t *testing.T) {
		got := Resample([]uint8{0, 0, 200, 200}, 2, 2, 4, 4)
		if len(got) != 16 {
			t.Fatalf("%d samples", len(got))
		}
		if got[0] != 0 || got[15] != 200 {
			t.Errorf("corners %d, %d", got[0], got[15])
		}
		for y := range 4 {
			for x := range 3 {
				if got[y*4+x] != got[y*4+x+1] {
					t.Errorf("row %d not constant: %v", y, got[y*4:y*4+4])
				}
			}
		}
	})
	t.Run("uint16", func(t *testing.T) {
		got := Resample(fill(6, uint16(40000)), 3, 2, 5, 7)
		if len(got) != 35 {
			t.Fatalf("%d samples", len(got))
		}
		for i, x := range got {
			if x < 39999 || x > 40001 {
				t.Errorf("sample %d: %d", i, x)
			}
		}
	})
	t.Run("float32", func(t *testing.T) {
		got := Resample([]float32{0, 1}, 2, 1, 4, 1)
		want := []float32{0, 0.25, 0.75, 1}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Error(diff)
		}
	})
	t.Run("empty", func(t *testing.T) {
		got := Resample[uint8](nil, 0, 0, 3, 2)
		if diff := cmp.Diff(make([]uint8, 6), got); diff != "" {
			t.Error(diff)
		}
	})
}
