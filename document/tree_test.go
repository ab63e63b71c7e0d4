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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/psd"
)

func names[T psd.Sample](layers []Layer[T]) []string {
	var res []string
	for _, l := range layers {
		res = append(res, l.Common().Name)
	}
	return res
}

func TestGroupMove(t *testing.T) {
	d, err := New[uint8](psd.RGB, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	g := NewGroupLayer[uint8]("group")
	err = d.AddLayer(nil, g)
	if err != nil {
		t.Fatal(err)
	}
	a := newRGBLayer(t, "A", 2, 2)
	b := newRGBLayer(t, "B", 2, 2)
	for _, l := range []Layer[uint8]{a, b} {
		err = d.AddLayer(g, l)
		if err != nil {
			t.Fatal(err)
		}
	}

	err = d.MoveLayer(b, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"A"}, names(g.Children())); diff != "" {
		t.Errorf("group after first move:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"group", "B"}, names(d.Layers())); diff != "" {
		t.Errorf("root after first move:\n%s", diff)
	}
	if b.Parent() != nil {
		t.Error("B still has a parent")
	}

	err = d.MoveLayer(b, g)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"A", "B"}, names(g.Children())); diff != "" {
		t.Errorf("final order:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"group"}, names(d.Layers())); diff != "" {
		t.Errorf("final root:\n%s", diff)
	}
	if b.Parent() != g {
		t.Error("wrong parent")
	}
}

func TestMoveIntoItself(t *testing.T) {
	d, err := New[uint8](psd.RGB, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	outer := NewGroupLayer[uint8]("outer")
	inner := NewGroupLayer[uint8]("inner")
	err = d.AddLayer(nil, outer)
	if err != nil {
		t.Fatal(err)
	}
	err = d.AddLayer(outer, inner)
	if err != nil {
		t.Fatal(err)
	}

	for _, target := range []*GroupLayer[uint8]{outer, inner} {
		err = d.MoveLayer(outer, target)
		var ve *psd.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("move into %s: got %v, want ValidationError", target.Name, err)
		}
	}
	if d.Find("outer", "inner") != inner {
		t.Error("tree changed by failed move")
	}

	err = d.MoveLayerPath([]string{"outer", "inner"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"outer", "inner"}, names(d.Layers())); diff != "" {
		t.Error(diff)
	}
}

func TestAddLayer(t *testing.T) {
	d, err := New[uint8](psd.RGB, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	other, err := New[uint8](psd.RGB, 10, 10)
	if err != nil {
		t.Fatal(err)
	}

	gray, err := NewImageLayer[uint8](psd.Grayscale, "gray", 1, 1, vec.Vec2{})
	if err != nil {
		t.Fatal(err)
	}
	foreign := NewGroupLayer[uint8]("foreign")
	err = other.AddLayer(nil, foreign)
	if err != nil {
		t.Fatal(err)
	}

	var ve *psd.ValidationError
	if err := d.AddLayer(nil, gray); !errors.As(err, &ve) {
		t.Errorf("colour mode mismatch: got %v", err)
	}
	if err := d.AddLayer(nil, newRGBLayer(t, "", 1, 1)); !errors.As(err, &ve) {
		t.Errorf("empty name: got %v", err)
	}
	if err := d.AddLayer(foreign, newRGBLayer(t, "x", 1, 1)); !errors.As(err, &ve) {
		t.Errorf("foreign parent: got %v", err)
	}
	if err := d.AddLayer(nil, foreign); !errors.As(err, &ve) {
		t.Errorf("layer of another document: got %v", err)
	}

	// a group with an invalid child is rejected as a whole
	g := NewGroupLayer[uint8]("g")
	g.children = []Layer[uint8]{gray}
	gray.parent = g
	if err := d.AddLayer(nil, g); !errors.As(err, &ve) {
		t.Errorf("invalid child: got %v", err)
	}
	if len(d.Layers()) != 0 || g.Document() != nil {
		t.Error("document changed by failed calls")
	}

	l := newRGBLayer(t, "x", 1, 1)
	err = d.AddLayer(nil, l)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.AddLayer(nil, l); !errors.As(err, &ve) {
		t.Errorf("layer added twice: got %v", err)
	}
	if l.Document() != d {
		t.Error("wrong document")
	}
}

func TestWalkAndFind(t *testing.T) {
	d, err := New[uint8](psd.RGB, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	bg := newRGBLayer(t, "background", 10, 10)
	g := NewGroupLayer[uint8]("g")
	sub := NewGroupLayer[uint8]("sub")
	mustAdd := func(parent *GroupLayer[uint8], l Layer[uint8]) {
		t.Helper()
		err := d.AddLayer(parent, l)
		if err != nil {
			t.Fatal(err)
		}
	}
	mustAdd(nil, bg)
	mustAdd(nil, g)
	mustAdd(g, newRGBLayer(t, "x", 1, 1))
	mustAdd(g, sub)
	mustAdd(sub, newRGBLayer(t, "y", 1, 1))
	mustAdd(nil, newRGBLayer(t, "top", 1, 1))

	var paths []string
	err = d.Walk(func(path []string, l Layer[uint8]) error {
		paths = append(paths, strings.Join(path, "/"))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"background", "g", "g/x", "g/sub", "g/sub/y", "top"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("walk order (-want +got):\n%s", diff)
	}

	count := 0
	err = d.Walk(func(path []string, l Layer[uint8]) error {
		count++
		if l == Layer[uint8](sub) {
			return ErrStop
		}
		return nil
	})
	if err != nil || count != 4 {
		t.Errorf("stopped walk: %v, %d calls", err, count)
	}

	if d.Find("g", "sub", "y") == nil || d.FindIn(g, "sub", "y") == nil {
		t.Error("nested layer not found")
	}
	if d.Find("g", "y") != nil || d.Find("x") != nil || d.Find() != nil {
		t.Error("found layer at wrong path")
	}

	err = d.RemoveLayerPath("g", "sub")
	if err != nil {
		t.Fatal(err)
	}
	if d.Find("g", "sub") != nil || sub.Document() != nil {
		t.Error("group not removed")
	}
	if err := d.RemoveLayerPath("g", "sub"); err == nil {
		t.Error("removed missing layer")
	}
}

func TestGroupBounds(t *testing.T) {
	d, err := New[uint8](psd.RGB, 100, 100)
	if err != nil {
		t.Fatal(err)
	}
	g := NewGroupLayer[uint8]("g")
	err = d.AddLayer(nil, g)
	if err != nil {
		t.Fatal(err)
	}
	if g.Width() != 0 || g.Height() != 0 {
		t.Errorf("empty group is %dx%d", g.Width(), g.Height())
	}

	a, err := NewImageLayer[uint8](psd.RGB, "a", 10, 10, vec.Vec2{X: 15, Y: 15})
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewImageLayer[uint8](psd.RGB, "b", 20, 4, vec.Vec2{X: 40, Y: 50})
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range []Layer[uint8]{a, b} {
		err = d.AddLayer(g, l)
		if err != nil {
			t.Fatal(err)
		}
	}
	if g.Width() != 40 || g.Height() != 42 {
		t.Errorf("group is %dx%d, want 40x42", g.Width(), g.Height())
	}
	if diff := cmp.Diff(vec.Vec2{X: 30, Y: 31}, g.Center()); diff != "" {
		t.Errorf("centre:\n%s", diff)
	}
}
