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
	"fmt"
	"strconv"
)

var (
	// ErrChannelConsumed is returned when a channel is accessed after its
	// data has been extracted with consume=true.
	ErrChannelConsumed = errors.New("channel already extracted")

	errVersion = errors.New("unsupported file version")
)

// FormatError indicates that a PSD or PSB file could not be parsed.
type FormatError struct {
	// Section names the part of the file where the problem was found.
	Section string

	// Pos is the byte offset of the problem, or 0 if unknown.
	Pos int64

	Err error
}

func (err *FormatError) Error() string {
	middle := ""
	if err.Section != "" {
		middle = ": " + err.Section
	}
	if err.Err != nil {
		middle += ": " + err.Err.Error()
	}
	tail := ""
	if err.Pos > 0 {
		tail = " (at byte " + strconv.FormatInt(err.Pos, 10) + ")"
	}
	return "not a valid PSD file" + middle + tail
}

func (err *FormatError) Unwrap() error {
	return err.Err
}

// ValidationError indicates that an argument or a document does not satisfy
// the constraints of the document model.  The operation which returned the
// error has not modified the document.
type ValidationError struct {
	Op  string
	Err error
}

func (err *ValidationError) Error() string {
	if err.Op == "" {
		return "invalid: " + err.Err.Error()
	}
	return err.Op + ": " + err.Err.Error()
}

func (err *ValidationError) Unwrap() error {
	return err.Err
}

// Invalid returns a new [ValidationError] for the operation op.
func Invalid(op string, format string, a ...any) error {
	return &ValidationError{Op: op, Err: fmt.Errorf(format, a...)}
}

// CapabilityError indicates that an operation is not supported for a given
// kind of layer.
type CapabilityError struct {
	Op   string
	Kind string
}

func (err *CapabilityError) Error() string {
	return err.Op + ": not supported for " + err.Kind + " layers"
}

// LimitError indicates that a value exceeds the addressable limits of the
// container format.
type LimitError struct {
	What    string
	Value   int64
	Max     int64
	Version Version
}

func (err *LimitError) Error() string {
	return fmt.Sprintf("%s %d exceeds the %s limit of %d",
		err.What, err.Value, err.Version, err.Max)
}

// CheckLimit returns a [LimitError] if val is larger than max.
func CheckLimit(what string, val, max int64, v Version) error {
	if val > max {
		return &LimitError{What: what, Value: val, Max: max, Version: v}
	}
	return nil
}
