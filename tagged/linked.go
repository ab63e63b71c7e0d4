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
	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/descriptor"
	"seehuhn.de/go/psd/internal/binio"
)

// These are the kinds of linked files.
const (
	LinkData     = "liFD" // file contents embedded in the document
	LinkExternal = "liFE" // reference to an external file
	LinkAlias    = "liFA" // alias record
)

const linkedVersion = 7

// Date is a modification date stored in a linked file record.
type Date struct {
	Year                     uint32
	Month, Day, Hour, Minute uint8
	Seconds                  float64
}

// LinkedFile is one entry of the linked layer table.  The table holds the
// source files of smart object layers.
type LinkedFile struct {
	// Kind is one of [LinkData], [LinkExternal] and [LinkAlias].
	Kind string

	// Version is the record version.  Zero is written as version 7.
	Version uint32

	// ID is the unique ID which smart object layers use to refer to this
	// entry.
	ID string

	// Name is the original file name.
	Name string

	FileType string
	Creator  string

	// OpenDesc optionally stores the parameters used to open the file.
	OpenDesc *descriptor.Descriptor

	// FileDesc describes the location of an external file, using the keys
	// "fullPath", "originalPath" and "relPath".
	FileDesc *descriptor.Descriptor
	Modified Date

	// Data is the file content.  For external files this is an optional
	// cached copy.
	Data []byte

	ChildDocID   string
	AssetModTime float64
	Locked       bool

	// Extra holds the unparsed remainder of alias records.
	Extra []byte
}

// DecodeLinkedFiles decodes the data of a "lnk2", "lnkD", "lnk3" or "lnkE"
// block.
func DecodeLinkedFiles(key string, data []byte) ([]*LinkedFile, error) {
	r := newReader(key, data)
	var res []*LinkedFile
	for r.Remaining() >= 8 {
		n, err := r.ReadUint64()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			continue
		}
		if n > uint64(r.Remaining()) {
			return nil, r.Error("linked file record too long (%d bytes)", n)
		}
		sr, err := r.Sub("", int64(n))
		if err != nil {
			return nil, err
		}
		item, err := readLinkedFile(sr)
		if err != nil {
			return nil, err
		}
		err = sr.Finish()
		if err != nil {
			return nil, err
		}
		res = append(res, item)
		if pad := binio.PadLength(int64(n), 4); pad > 0 && r.Remaining() >= pad {
			err = r.Skip(pad)
			if err != nil {
				return nil, err
			}
		}
	}
	return res, nil
}

func readLinkedFile(r *binio.Reader) (*LinkedFile, error) {
	kind, err := r.ReadSignature(LinkData, LinkExternal, LinkAlias)
	if err != nil {
		return nil, err
	}
	version, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if version < 1 || version > linkedVersion {
		return nil, r.Error("unsupported linked file version %d", version)
	}
	f := &LinkedFile{Kind: kind, Version: version}

	f.ID, err = r.ReadPascalString(1)
	if err != nil {
		return nil, err
	}
	f.Name, err = r.ReadUnicodeString()
	if err != nil {
		return nil, err
	}
	f.FileType, err = r.ReadKey()
	if err != nil {
		return nil, err
	}
	f.Creator, err = r.ReadKey()
	if err != nil {
		return nil, err
	}
	size, err := r.ReadLength(psd.PSB)
	if err != nil {
		return nil, err
	}
	hasDesc, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	if hasDesc {
		f.OpenDesc, err = descriptor.ReadVersioned(r)
		if err != nil {
			return nil, err
		}
	}

	switch kind {
	case LinkExternal:
		f.FileDesc, err = descriptor.ReadVersioned(r)
		if err != nil {
			return nil, err
		}
		if version > 3 {
			f.Modified.Year, err = r.ReadUint32()
			if err != nil {
				return nil, err
			}
			for _, p := range []*uint8{&f.Modified.Month, &f.Modified.Day, &f.Modified.Hour, &f.Modified.Minute} {
				*p, err = r.ReadUint8()
				if err != nil {
					return nil, err
				}
			}
			f.Modified.Seconds, err = r.ReadFloat64()
			if err != nil {
				return nil, err
			}
		}
		fileSize, err := r.ReadLength(psd.PSB)
		if err != nil {
			return nil, err
		}
		if version > 2 {
			f.Data, err = r.ReadBytes(fileSize)
			if err != nil {
				return nil, err
			}
		}
	case LinkAlias:
		f.Extra, err = r.ReadBytes(r.Remaining())
		return f, err
	case LinkData:
		f.Data, err = r.ReadBytes(size)
		if err != nil {
			return nil, err
		}
	}

	if version >= 5 {
		f.ChildDocID, err = r.ReadUnicodeString()
		if err != nil {
			return nil, err
		}
	}
	if version >= 6 {
		f.AssetModTime, err = r.ReadFloat64()
		if err != nil {
			return nil, err
		}
	}
	if version >= 7 {
		f.Locked, err = r.ReadBool()
		if err != nil {
			return nil, err
		}
	}
	if kind == LinkExternal && version == 2 {
		f.Data, err = r.ReadBytes(size)
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

// EncodeLinkedFiles encodes the data of a linked layer table block.
func EncodeLinkedFiles(files []*LinkedFile) []byte {
	w := binio.NewWriter()
	for _, f := range files {
		item := f.encode()
		w.WriteUint64(uint64(len(item)))
		w.Write(item)
		w.Pad(int64(len(item)), 4)
	}
	return w.Bytes()
}

func (f *LinkedFile) encode() []byte {
	version := f.Version
	if version == 0 {
		version = linkedVersion
	}
	kind := f.Kind
	if kind == "" {
		kind = LinkData
	}

	w := binio.NewWriter()
	w.WriteKey(kind)
	w.WriteUint32(version)
	w.WritePascalString(f.ID, 1)
	w.WriteUnicodeString(f.Name, false)
	w.WriteKey(f.FileType)
	w.WriteKey(f.Creator)
	w.WriteUint64(uint64(len(f.Data)))
	w.WriteBool(f.OpenDesc != nil)
	if f.OpenDesc != nil {
		f.OpenDesc.WriteVersioned(w)
	}

	switch kind {
	case LinkExternal:
		fileDesc := f.FileDesc
		if fileDesc == nil {
			fileDesc = descriptor.New("ExternalFileLink")
		}
		fileDesc.WriteVersioned(w)
		if version > 3 {
			m := f.Modified
			w.WriteUint32(m.Year)
			w.WriteUint8(m.Month)
			w.WriteUint8(m.Day)
			w.WriteUint8(m.Hour)
			w.WriteUint8(m.Minute)
			w.WriteFloat64(m.Seconds)
		}
		w.WriteUint64(uint64(len(f.Data)))
		if version > 2 {
			w.Write(f.Data)
		}
	case LinkAlias:
		w.Write(f.Extra)
		return w.Bytes()
	default:
		w.Write(f.Data)
	}

	if version >= 5 {
		w.WriteUnicodeString(f.ChildDocID, false)
	}
	if version >= 6 {
		w.WriteFloat64(f.AssetModTime)
	}
	if version >= 7 {
		w.WriteBool(f.Locked)
	}
	if kind == LinkExternal && version == 2 {
		w.Write(f.Data)
	}
	return w.Bytes()
}
