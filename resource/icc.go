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

package resource

import (
	"errors"

	"seehuhn.de/go/icc"

	"seehuhn.de/go/psd"
)

// ICCProfile returns the embedded ICC profile, or nil if the document has
// none.
func (b Blocks) ICCProfile() []byte {
	blk := b.Get(IDICCProfile)
	if blk == nil {
		return nil
	}
	return blk.Data
}

// SetICCProfile embeds an ICC profile into the document.  The profile is
// checked with [CheckICCProfile] first.  A nil profile removes the
// existing profile.
func (b *Blocks) SetICCProfile(profile []byte, mode psd.ColorMode) error {
	if profile == nil {
		b.Delete(IDICCProfile)
		return nil
	}
	err := CheckICCProfile(profile, mode)
	if err != nil {
		return err
	}
	b.Set(IDICCProfile, profile)
	return nil
}

// CheckICCProfile verifies that profile is a valid ICC profile, and that
// its colour space can be used with the given colour mode.
func CheckICCProfile(profile []byte, mode psd.ColorMode) error {
	if len(profile) == 0 {
		return &psd.ValidationError{Op: "ICC profile", Err: errors.New("empty profile")}
	}
	p, err := icc.Decode(profile)
	if err != nil {
		return &psd.ValidationError{Op: "ICC profile", Err: err}
	}

	var ok bool
	switch mode {
	case psd.Grayscale, psd.Duotone:
		ok = p.ColorSpace == icc.GraySpace
	case psd.RGB, psd.Indexed:
		ok = p.ColorSpace == icc.RGBSpace
	case psd.CMYK:
		ok = p.ColorSpace == icc.CMYKSpace
	case psd.Lab:
		ok = p.ColorSpace == icc.CIELabSpace
	default:
		ok = true
	}
	if !ok {
		return psd.Invalid("ICC profile", "%v profile cannot be used for %s documents",
			p.ColorSpace, mode)
	}
	return nil
}
