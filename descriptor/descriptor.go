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

// Package descriptor implements the "action descriptor" structures which
// Photoshop uses to store structured data inside of tagged blocks.
//
// A [Descriptor] is an ordered list of key/value pairs, together with a
// name and a class ID.  Values are represented by the Go types [Double],
// [Integer], [LargeInteger], [Bool], [String], [UnitFloat], [UnitFloats],
// [Enum], [Class], [RawData], [Alias], [List], [ObjectArray], [Reference],
// and *[Descriptor].
package descriptor

import (
	"errors"
	"fmt"
)

// Version is the descriptor version stored in front of top-level
// descriptors.
const Version = 16

// Value is one of the value types which can be stored in a [Descriptor].
type Value interface {
	osType() string
}

// Descriptor is an ordered collection of key/value pairs.
type Descriptor struct {
	Name    string
	ClassID string
	Items   []Item
}

// Item is a single entry of a [Descriptor].
type Item struct {
	Key   string
	Value Value
}

// New allocates a new, empty descriptor with the given class ID.
func New(classID string) *Descriptor {
	return &Descriptor{ClassID: classID}
}

func (d *Descriptor) osType() string { return "Objc" }

// Double is a 64-bit floating point value.
type Double float64

func (Double) osType() string { return "doub" }

// Integer is a 32-bit integer value.
type Integer int32

func (Integer) osType() string { return "long" }

// LargeInteger is a 64-bit integer value.
type LargeInteger int64

func (LargeInteger) osType() string { return "comp" }

// Bool is a boolean value.
type Bool bool

func (Bool) osType() string { return "bool" }

// String is a unicode text value.
type String string

func (String) osType() string { return "TEXT" }

// UnitFloat is a floating point value together with a unit.
type UnitFloat struct {
	Unit  Unit
	Value float64
}

func (UnitFloat) osType() string { return "UntF" }

// UnitFloats is a sequence of floating point values which share a unit.
type UnitFloats struct {
	Unit   Unit
	Values []float64
}

func (UnitFloats) osType() string { return "UnFl" }

// Enum is an enumerated value.
type Enum struct {
	Type  string
	Value string
}

func (Enum) osType() string { return "enum" }

// Class refers to a class by name and ID.
type Class struct {
	Name    string
	ClassID string
}

func (Class) osType() string { return "type" }

// RawData is an opaque sequence of bytes.
type RawData []byte

func (RawData) osType() string { return "tdta" }

// Alias is a file system alias record.
type Alias []byte

func (Alias) osType() string { return "alis" }

// List is an ordered list of values.
type List []Value

func (List) osType() string { return "VlLs" }

// ObjectArray is an array of objects which all have the same structure.
// It is used for example to store the points of a warp mesh.
type ObjectArray struct {
	Count   uint32
	Name    string
	ClassID string
	Items   []Item
}

func (*ObjectArray) osType() string { return "ObAr" }

// Reference is a list of reference items, which together identify an
// object inside the application.
type Reference []RefItem

func (Reference) osType() string { return "obj " }

// RefItem is one element of a [Reference].
// Kind is one of "prop", "Clss", "Enmr", "rele", "Idnt", "indx" and "name";
// the remaining fields are used as required by the kind.
type RefItem struct {
	Kind    string
	Name    string
	ClassID string
	Key     string // "prop"
	Type    string // "Enmr"
	Enum    string // "Enmr"
	Offset  uint32 // "rele"
	ID      int32  // "Idnt", "indx"
	Value   string // "name"
}

// Unit is the unit of a [UnitFloat] or [UnitFloats] value.
type Unit string

// These are the units defined by the file format.
const (
	UnitAngle      Unit = "#Ang"
	UnitDensity    Unit = "#Rsl"
	UnitDistance   Unit = "#Rlt"
	UnitNone       Unit = "#Nne"
	UnitPercent    Unit = "#Prc"
	UnitPixels     Unit = "#Pxl"
	UnitPoints     Unit = "#Pnt"
	UnitMillimeter Unit = "#Mlm"
)

// ErrMissing is returned by the typed accessors if a key is not present.
var ErrMissing = errors.New("missing descriptor key")

// Get returns the value stored under the given key.
func (d *Descriptor) Get(key string) (Value, bool) {
	for _, item := range d.Items {
		if item.Key == key {
			return item.Value, true
		}
	}
	return nil, false
}

// Set stores a value under the given key.  An existing entry is replaced in
// place, otherwise the new entry is appended.
func (d *Descriptor) Set(key string, val Value) {
	for i, item := range d.Items {
		if item.Key == key {
			d.Items[i].Value = val
			return
		}
	}
	d.Items = append(d.Items, Item{Key: key, Value: val})
}

// Delete removes the entry with the given key, if present.
func (d *Descriptor) Delete(key string) {
	for i, item := range d.Items {
		if item.Key == key {
			d.Items = append(d.Items[:i], d.Items[i+1:]...)
			return
		}
	}
}

func (d *Descriptor) lookup(key string) (Value, error) {
	val, ok := d.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrMissing, key)
	}
	return val, nil
}

func wrongType(key string, val Value, want string) error {
	return fmt.Errorf("descriptor key %q: expected %s, got %s", key, want, val.osType())
}

// Double returns a floating point value.  Integer values and unit floats are
// converted as needed.
func (d *Descriptor) Double(key string) (float64, error) {
	val, err := d.lookup(key)
	if err != nil {
		return 0, err
	}
	switch v := val.(type) {
	case Double:
		return float64(v), nil
	case UnitFloat:
		return v.Value, nil
	case Integer:
		return float64(v), nil
	case LargeInteger:
		return float64(v), nil
	default:
		return 0, wrongType(key, val, "number")
	}
}

// Int returns an integer value.
func (d *Descriptor) Int(key string) (int64, error) {
	val, err := d.lookup(key)
	if err != nil {
		return 0, err
	}
	switch v := val.(type) {
	case Integer:
		return int64(v), nil
	case LargeInteger:
		return int64(v), nil
	default:
		return 0, wrongType(key, val, "integer")
	}
}

// Bool returns a boolean value.
func (d *Descriptor) Bool(key string) (bool, error) {
	val, err := d.lookup(key)
	if err != nil {
		return false, err
	}
	v, ok := val.(Bool)
	if !ok {
		return false, wrongType(key, val, "bool")
	}
	return bool(v), nil
}

// Text returns a string value.
func (d *Descriptor) Text(key string) (string, error) {
	val, err := d.lookup(key)
	if err != nil {
		return "", err
	}
	v, ok := val.(String)
	if !ok {
		return "", wrongType(key, val, "TEXT")
	}
	return string(v), nil
}

// Enum returns an enumerated value.
func (d *Descriptor) Enum(key string) (Enum, error) {
	val, err := d.lookup(key)
	if err != nil {
		return Enum{}, err
	}
	v, ok := val.(Enum)
	if !ok {
		return Enum{}, wrongType(key, val, "enum")
	}
	return v, nil
}

// Desc returns a nested descriptor.
func (d *Descriptor) Desc(key string) (*Descriptor, error) {
	val, err := d.lookup(key)
	if err != nil {
		return nil, err
	}
	v, ok := val.(*Descriptor)
	if !ok {
		return nil, wrongType(key, val, "descriptor")
	}
	return v, nil
}

// List returns a list value.
func (d *Descriptor) List(key string) (List, error) {
	val, err := d.lookup(key)
	if err != nil {
		return nil, err
	}
	v, ok := val.(List)
	if !ok {
		return nil, wrongType(key, val, "list")
	}
	return v, nil
}

// Doubles returns a list of floating point values.  Both lists of doubles
// and [UnitFloats] values are accepted.
func (d *Descriptor) Doubles(key string) ([]float64, error) {
	val, err := d.lookup(key)
	if err != nil {
		return nil, err
	}
	switch v := val.(type) {
	case UnitFloats:
		return v.Values, nil
	case List:
		res := make([]float64, len(v))
		for i, x := range v {
			switch x := x.(type) {
			case Double:
				res[i] = float64(x)
			case UnitFloat:
				res[i] = x.Value
			default:
				return nil, wrongType(key, x, "number")
			}
		}
		return res, nil
	default:
		return nil, wrongType(key, val, "list of numbers")
	}
}

// DoubleList converts a slice of floats into a [List] of [Double] values.
func DoubleList(xx []float64) List {
	res := make(List, len(xx))
	for i, x := range xx {
		res[i] = Double(x)
	}
	return res
}
