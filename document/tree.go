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
	"slices"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/smartobject"
)

// ErrStop can be returned by the callback of [Document.Walk] to end the
// traversal early.  Walk then returns nil.
var ErrStop = errors.New("stop walking")

// Layers returns the top-level layers of the document, from the
// bottom-most to the top-most layer.
func (d *Document[T]) Layers() []Layer[T] {
	return slices.Clone(d.root)
}

// Walk calls fn for every layer in the document.  Layers are visited depth
// first, from bottom to top, with each group visited before its children.
// The path argument gives the names of the enclosing groups, followed by
// the name of the layer itself.
func (d *Document[T]) Walk(fn func(path []string, l Layer[T]) error) error {
	err := walk(d.root, nil, fn)
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

func walk[T psd.Sample](layers []Layer[T], prefix []string, fn func([]string, Layer[T]) error) error {
	for _, l := range layers {
		path := append(slices.Clip(prefix), l.Common().Name)
		err := fn(path, l)
		if err != nil {
			return err
		}
		if g, ok := l.(*GroupLayer[T]); ok {
			err = walk(g.children, path, fn)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Find locates a layer by the names of the enclosing groups and the name
// of the layer.  If several layers at the same level have the same name,
// the bottom-most of these is used.  If no layer matches, nil is returned.
func (d *Document[T]) Find(path ...string) Layer[T] {
	return find(d.root, path)
}

// FindIn is like [Document.Find], but the path is resolved relative to the
// group g.
func (d *Document[T]) FindIn(g *GroupLayer[T], path ...string) Layer[T] {
	if g == nil {
		return d.Find(path...)
	}
	return find(g.children, path)
}

func find[T psd.Sample](layers []Layer[T], path []string) Layer[T] {
	if len(path) == 0 {
		return nil
	}
	for _, l := range layers {
		if l.Common().Name != path[0] {
			continue
		}
		if len(path) == 1 {
			return l
		}
		if g, ok := l.(*GroupLayer[T]); ok {
			return find(g.children, path[1:])
		}
		return nil
	}
	return nil
}

// siblings returns the list which holds the children of parent.
func (d *Document[T]) siblings(parent *GroupLayer[T]) *[]Layer[T] {
	if parent == nil {
		return &d.root
	}
	return &parent.children
}

// AddLayer inserts l as the top-most child of parent.  If parent is nil,
// the layer is added at the top level of the document.  If l is a group,
// its children are added together with it.
//
// This fails if the layer is already part of a document, if the parent is
// not part of this document, or if the colour mode of an image layer does
// not match the colour mode of the document.
func (d *Document[T]) AddLayer(parent *GroupLayer[T], l Layer[T]) error {
	if l == nil {
		return psd.Invalid("add layer", "missing layer")
	}
	if parent != nil && parent.doc != d {
		return psd.Invalid("add layer", "group %q is not part of this document", parent.Name)
	}

	// validate the whole subtree before changing anything
	seen := make(map[*Base[T]]bool)
	links := make(map[string]smartobject.Linkage)
	err := walk([]Layer[T]{l}, nil, func(_ []string, sub Layer[T]) error {
		b := sub.Common()
		if seen[b] || b.doc != nil || (b.parent != nil && sub == l) {
			return psd.Invalid("add layer", "layer %q is already part of a layer tree", b.Name)
		}
		seen[b] = true
		if b.Name == "" {
			return psd.Invalid("add layer", "layer name must not be empty")
		}
		if img, ok := sub.(*ImageLayer[T]); ok && img.mode != d.ColorMode {
			return psd.Invalid("add layer", "layer %q has colour mode %s, document has %s",
				b.Name, img.mode, d.ColorMode)
		}
		if so, ok := sub.(*SmartObjectLayer[T]); ok {
			return d.checkLinkage("add layer", so, links)
		}
		return nil
	})
	if err != nil {
		return err
	}

	d.attachTree(l)
	l.Common().parent = parent
	list := d.siblings(parent)
	*list = append(*list, l)
	return nil
}

// attachTree marks l and all its descendants as part of d.
func (d *Document[T]) attachTree(l Layer[T]) {
	walk([]Layer[T]{l}, nil, func(_ []string, sub Layer[T]) error {
		sub.Common().doc = d
		if so, ok := sub.(*SmartObjectLayer[T]); ok {
			so.attach(d)
		}
		return nil
	})
}

// RemoveLayer removes l, together with all its descendants, from the
// document.  Linked assets which are no longer used by any layer are
// removed from the asset table.  The removed layers keep their data and
// can be added to a document again.
func (d *Document[T]) RemoveLayer(l Layer[T]) error {
	if l == nil || l.Common().doc != d {
		return psd.Invalid("remove layer", "layer is not part of this document")
	}
	d.unlink(l)
	walk([]Layer[T]{l}, nil, func(_ []string, sub Layer[T]) error {
		sub.Common().doc = nil
		if so, ok := sub.(*SmartObjectLayer[T]); ok {
			so.detach(d)
		}
		return nil
	})
	return nil
}

// unlink removes l from the child list of its parent.
func (d *Document[T]) unlink(l Layer[T]) {
	b := l.Common()
	list := d.siblings(b.parent)
	if i := slices.Index(*list, l); i >= 0 {
		*list = slices.Delete(*list, i, i+1)
	}
	b.parent = nil
}

// MoveLayer moves l, together with its descendants, to become the
// top-most child of newParent.  If newParent is nil, the layer is moved to
// the top level of the document.  Moving a group into itself or into one
// of its descendants is not allowed.
func (d *Document[T]) MoveLayer(l Layer[T], newParent *GroupLayer[T]) error {
	if l == nil || l.Common().doc != d {
		return psd.Invalid("move layer", "layer is not part of this document")
	}
	if newParent != nil {
		if newParent.doc != d {
			return psd.Invalid("move layer", "group %q is not part of this document", newParent.Name)
		}
		for g := newParent; g != nil; g = g.parent {
			if Layer[T](g) == l {
				return psd.Invalid("move layer", "cannot move %q into itself", l.Common().Name)
			}
		}
	}
	d.unlink(l)
	l.Common().parent = newParent
	list := d.siblings(newParent)
	*list = append(*list, l)
	return nil
}

// MoveLayerPath is like [Document.MoveLayer], but the layers are given by
// their paths.  An empty parent path denotes the top level.
func (d *Document[T]) MoveLayerPath(path []string, parentPath []string) error {
	l := d.Find(path...)
	if l == nil {
		return psd.Invalid("move layer", "no layer at %q", path)
	}
	var parent *GroupLayer[T]
	if len(parentPath) > 0 {
		g, ok := d.Find(parentPath...).(*GroupLayer[T])
		if !ok {
			return psd.Invalid("move layer", "no group at %q", parentPath)
		}
		parent = g
	}
	return d.MoveLayer(l, parent)
}

// RemoveLayerPath is like [Document.RemoveLayer], but the layer is given by
// its path.
func (d *Document[T]) RemoveLayerPath(path ...string) error {
	l := d.Find(path...)
	if l == nil {
		return psd.Invalid("remove layer", "no layer at %q", path)
	}
	return d.RemoveLayer(l)
}
