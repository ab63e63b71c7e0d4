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

package memfile

import (
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadWriteSeek(t *testing.T) {
	f := New()
	_, err := f.Write([]byte("hello world"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.Seek(6, io.SeekStart)
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.Write([]byte("there!"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("hello there!", string(f.Bytes())); diff != "" {
		t.Error(diff)
	}

	_, err = f.Seek(-6, io.SeekEnd)
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 10)
	n, err := f.Read(buf)
	if err != io.EOF || string(buf[:n]) != "there!" {
		t.Errorf("read %q, %v", buf[:n], err)
	}

	_, err = f.Seek(-1, io.SeekStart)
	if err == nil {
		t.Error("negative offset accepted")
	}
}

func TestLimit(t *testing.T) {
	f := NewLimited(4)
	n, err := f.Write([]byte("abcdef"))
	if !errors.Is(err, ErrFull) || n != 4 {
		t.Errorf("wrote %d bytes, %v", n, err)
	}
	if string(f.Data) != "abcd" {
		t.Errorf("data %q", f.Data)
	}
	n, err = f.Write([]byte("x"))
	if !errors.Is(err, ErrFull) || n != 0 {
		t.Errorf("wrote %d bytes, %v", n, err)
	}
}
