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
	"fmt"

	"seehuhn.de/go/psd/internal/binio"
)

// maxItems limits the number of entries read for a single descriptor or
// list, to avoid huge allocations for corrupted files.
const maxItems = 1 << 20

// Read reads a descriptor, without the leading version number.
func Read(r *binio.Reader) (*Descriptor, error) {
	return readDescriptor(r, 0)
}

// ReadVersioned reads the descriptor version followed by a descriptor.
func ReadVersioned(r *binio.Reader) (*Descriptor, error) {
	v, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if v != Version {
		return nil, r.Error("unsupported descriptor version %d", v)
	}
	return Read(r)
}

// Write appends the descriptor to w, without a version number.
func (d *Descriptor) Write(w *binio.Writer) {
	w.WriteUnicodeString(d.Name, false)
	writeID(w, d.ClassID)
	w.WriteUint32(uint32(len(d.Items)))
	for _, item := range d.Items {
		writeID(w, item.Key)
		writeValue(w, item.Value)
	}
}

// WriteVersioned appends the descriptor version and the descriptor to w.
func (d *Descriptor) WriteVersioned(w *binio.Writer) {
	w.WriteUint32(Version)
	d.Write(w)
}

const maxDepth = 64

func readDescriptor(r *binio.Reader, depth int) (*Descriptor, error) {
	if depth > maxDepth {
		return nil, r.Error("descriptors nested too deeply")
	}
	name, err := r.ReadUnicodeString()
	if err != nil {
		return nil, err
	}
	classID, err := readID(r)
	if err != nil {
		return nil, err
	}
	items, err := readItems(r, depth)
	if err != nil {
		return nil, err
	}
	return &Descriptor{Name: name, ClassID: classID, Items: items}, nil
}

func readItems(r *binio.Reader, depth int) ([]Item, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if n > maxItems {
		return nil, r.Error("too many descriptor items (%d)", n)
	}
	items := make([]Item, 0, min(n, 64))
	for range n {
		key, err := readID(r)
		if err != nil {
			return nil, err
		}
		val, err := readValue(r, depth)
		if err != nil {
			return nil, fmt.Errorf("descriptor key %q: %w", key, err)
		}
		items = append(items, Item{Key: key, Value: val})
	}
	return items, nil
}

// readID reads a length-denoted key.  A length of zero denotes a four byte
// key.
func readID(r *binio.Reader) (string, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return "", err
	}
	if n == 0 {
		n = 4
	} else if n > 1024 {
		return "", r.Error("descriptor key too long (%d bytes)", n)
	}
	key, err := r.ReadBytes(int64(n))
	if err != nil {
		return "", err
	}
	return string(key), nil
}

func writeID(w *binio.Writer, key string) {
	if len(key) == 4 && charIDs[key] {
		w.WriteUint32(0)
	} else {
		w.WriteUint32(uint32(len(key)))
	}
	w.WriteString(key)
}

func readValue(r *binio.Reader, depth int) (Value, error) {
	osType, err := r.ReadKey()
	if err != nil {
		return nil, err
	}
	return readTyped(r, osType, depth+1)
}

func readTyped(r *binio.Reader, osType string, depth int) (Value, error) {
	switch osType {
	case "Objc", "GlbO":
		return readDescriptor(r, depth)

	case "doub":
		x, err := r.ReadFloat64()
		return Double(x), err

	case "long":
		x, err := r.ReadInt32()
		return Integer(x), err

	case "comp":
		x, err := r.ReadInt64()
		return LargeInteger(x), err

	case "bool":
		x, err := r.ReadBool()
		return Bool(x), err

	case "TEXT":
		s, err := r.ReadUnicodeString()
		return String(s), err

	case "UntF":
		unit, err := r.ReadKey()
		if err != nil {
			return nil, err
		}
		x, err := r.ReadFloat64()
		if err != nil {
			return nil, err
		}
		return UnitFloat{Unit: Unit(unit), Value: x}, nil

	case "UnFl":
		unit, err := r.ReadKey()
		if err != nil {
			return nil, err
		}
		n, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		if n > maxItems {
			return nil, r.Error("too many unit floats (%d)", n)
		}
		vals := make([]float64, n)
		for i := range vals {
			vals[i], err = r.ReadFloat64()
			if err != nil {
				return nil, err
			}
		}
		return UnitFloats{Unit: Unit(unit), Values: vals}, nil

	case "enum":
		typ, err := readID(r)
		if err != nil {
			return nil, err
		}
		val, err := readID(r)
		if err != nil {
			return nil, err
		}
		return Enum{Type: typ, Value: val}, nil

	case "type", "GlbC", "Clss":
		name, err := r.ReadUnicodeString()
		if err != nil {
			return nil, err
		}
		classID, err := readID(r)
		if err != nil {
			return nil, err
		}
		return Class{Name: name, ClassID: classID}, nil

	case "tdta", "alis":
		n, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		data, err := r.ReadBytes(int64(n))
		if err != nil {
			return nil, err
		}
		if osType == "alis" {
			return Alias(data), nil
		}
		return RawData(data), nil

	case "VlLs":
		n, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		if n > maxItems {
			return nil, r.Error("list too long (%d)", n)
		}
		list := make(List, 0, min(n, 64))
		for range n {
			val, err := readValue(r, depth)
			if err != nil {
				return nil, err
			}
			list = append(list, val)
		}
		return list, nil

	case "ObAr":
		count, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		name, err := r.ReadUnicodeString()
		if err != nil {
			return nil, err
		}
		classID, err := readID(r)
		if err != nil {
			return nil, err
		}
		items, err := readItems(r, depth)
		if err != nil {
			return nil, err
		}
		return &ObjectArray{Count: count, Name: name, ClassID: classID, Items: items}, nil

	case "obj ":
		return readReference(r)

	default:
		return nil, r.Error("unknown descriptor type %q", osType)
	}
}

func readReference(r *binio.Reader) (Reference, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if n > maxItems {
		return nil, r.Error("reference too long (%d)", n)
	}
	ref := make(Reference, 0, min(n, 16))
	for range n {
		kind, err := r.ReadKey()
		if err != nil {
			return nil, err
		}
		item := RefItem{Kind: kind}
		switch kind {
		case "Idnt", "indx":
			item.ID, err = r.ReadInt32()
			if err != nil {
				return nil, err
			}
			ref = append(ref, item)
			continue
		case "prop", "Clss", "Enmr", "rele", "name":
		default:
			return nil, r.Error("unknown reference type %q", kind)
		}

		item.Name, err = r.ReadUnicodeString()
		if err != nil {
			return nil, err
		}
		item.ClassID, err = readID(r)
		if err != nil {
			return nil, err
		}
		switch kind {
		case "prop":
			item.Key, err = readID(r)
		case "Enmr":
			item.Type, err = readID(r)
			if err == nil {
				item.Enum, err = readID(r)
			}
		case "rele":
			item.Offset, err = r.ReadUint32()
		case "name":
			item.Value, err = r.ReadUnicodeString()
		}
		if err != nil {
			return nil, err
		}
		ref = append(ref, item)
	}
	return ref, nil
}

func writeValue(w *binio.Writer, val Value) {
	w.WriteKey(val.osType())
	writeTyped(w, val)
}

func writeTyped(w *binio.Writer, val Value) {
	switch v := val.(type) {
	case *Descriptor:
		v.Write(w)
	case Double:
		w.WriteFloat64(float64(v))
	case Integer:
		w.WriteInt32(int32(v))
	case LargeInteger:
		w.WriteInt64(int64(v))
	case Bool:
		w.WriteBool(bool(v))
	case String:
		w.WriteUnicodeString(string(v), false)
	case UnitFloat:
		w.WriteKey(string(v.Unit))
		w.WriteFloat64(v.Value)
	case UnitFloats:
		w.WriteKey(string(v.Unit))
		w.WriteUint32(uint32(len(v.Values)))
		for _, x := range v.Values {
			w.WriteFloat64(x)
		}
	case Enum:
		writeID(w, v.Type)
		writeID(w, v.Value)
	case Class:
		w.WriteUnicodeString(v.Name, false)
		writeID(w, v.ClassID)
	case RawData:
		w.WriteUint32(uint32(len(v)))
		w.Write(v)
	case Alias:
		w.WriteUint32(uint32(len(v)))
		w.Write(v)
	case List:
		w.WriteUint32(uint32(len(v)))
		for _, x := range v {
			writeValue(w, x)
		}
	case *ObjectArray:
		w.WriteUint32(v.Count)
		w.WriteUnicodeString(v.Name, false)
		writeID(w, v.ClassID)
		w.WriteUint32(uint32(len(v.Items)))
		for _, item := range v.Items {
			writeID(w, item.Key)
			writeValue(w, item.Value)
		}
	case Reference:
		w.WriteUint32(uint32(len(v)))
		for _, item := range v {
			w.WriteKey(item.Kind)
			switch item.Kind {
			case "Idnt", "indx":
				w.WriteInt32(item.ID)
				continue
			}
			w.WriteUnicodeString(item.Name, false)
			writeID(w, item.ClassID)
			switch item.Kind {
			case "prop":
				writeID(w, item.Key)
			case "Enmr":
				writeID(w, item.Type)
				writeID(w, item.Enum)
			case "rele":
				w.WriteUint32(item.Offset)
			case "name":
				w.WriteUnicodeString(item.Value, false)
			}
		}
	}
}
