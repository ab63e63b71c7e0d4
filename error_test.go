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

package psd

import (
	"errors"
	"io"
	"testing"
)

func TestFormatError(t *testing.T) {
	err := error(&FormatError{Section: "header", Pos: 12, Err: io.ErrUnexpectedEOF})
	want := "not a valid PSD file: header: unexpected EOF (at byte 12)"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("cause not unwrapped")
	}
}

func TestValidationError(t *testing.T) {
	err := Invalid("set channel", "want %d samples, got %d", 12, 10)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Op != "set channel" {
		t.Fatalf("unexpected error %#v", err)
	}
	if err.Error() != "set channel: want 12 samples, got 10" {
		t.Errorf("wrong message %q", err.Error())
	}

	wrapped := &ValidationError{Op: "get channel", Err: ErrChannelConsumed}
	if !errors.Is(wrapped, ErrChannelConsumed) {
		t.Error("ErrChannelConsumed not found")
	}
}

func TestCheckLimit(t *testing.T) {
	if err := CheckLimit("width", 30000, 30000, PSD); err != nil {
		t.Errorf("value at the limit rejected: %v", err)
	}
	err := CheckLimit("width", 30001, 30000, PSD)
	var le *LimitError
	if !errors.As(err, &le) {
		t.Fatalf("got %v, want LimitError", err)
	}
	if le.Value != 30001 || le.Max != 30000 || le.Version != PSD {
		t.Errorf("wrong fields %+v", le)
	}
	if err.Error() != "width 30001 exceeds the PSD limit of 30000" {
		t.Errorf("wrong message %q", err.Error())
	}
}

func TestCapabilityError(t *testing.T) {
	err := &CapabilityError{Op: "set channel", Kind: "group"}
	if err.Error() != "set channel: not supported for group layers" {
		t.Errorf("wrong message %q", err.Error())
	}
}
