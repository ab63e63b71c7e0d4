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

// BlendMode is the four character key of a layer blend mode.
type BlendMode string

// These are the blend modes supported by the file format.
const (
	BlendPassThrough  BlendMode = "pass"
	BlendNormal       BlendMode = "norm"
	BlendDissolve     BlendMode = "diss"
	BlendDarken       BlendMode = "dark"
	BlendMultiply     BlendMode = "mul "
	BlendColorBurn    BlendMode = "idiv"
	BlendLinearBurn   BlendMode = "lbrn"
	BlendDarkerColor  BlendMode = "dkCl"
	BlendLighten      BlendMode = "lite"
	BlendScreen       BlendMode = "scrn"
	BlendColorDodge   BlendMode = "div "
	BlendLinearDodge  BlendMode = "lddg"
	BlendLighterColor BlendMode = "lgCl"
	BlendOverlay      BlendMode = "over"
	BlendSoftLight    BlendMode = "sLit"
	BlendHardLight    BlendMode = "hLit"
	BlendVividLight   BlendMode = "vLit"
	BlendLinearLight  BlendMode = "lLit"
	BlendPinLight     BlendMode = "pLit"
	BlendHardMix      BlendMode = "hMix"
	BlendDifference   BlendMode = "diff"
	BlendExclusion    BlendMode = "smud"
	BlendSubtract     BlendMode = "fsub"
	BlendDivide       BlendMode = "fdiv"
	BlendHue          BlendMode = "hue "
	BlendSaturation   BlendMode = "sat "
	BlendColor        BlendMode = "colr"
	BlendLuminosity   BlendMode = "lum "
)

var blendNames = map[BlendMode]string{
	BlendPassThrough:  "PassThrough",
	BlendNormal:       "Normal",
	BlendDissolve:     "Dissolve",
	BlendDarken:       "Darken",
	BlendMultiply:     "Multiply",
	BlendColorBurn:    "ColorBurn",
	BlendLinearBurn:   "LinearBurn",
	BlendDarkerColor:  "DarkerColor",
	BlendLighten:      "Lighten",
	BlendScreen:       "Screen",
	BlendColorDodge:   "ColorDodge",
	BlendLinearDodge:  "LinearDodge",
	BlendLighterColor: "LighterColor",
	BlendOverlay:      "Overlay",
	BlendSoftLight:    "SoftLight",
	BlendHardLight:    "HardLight",
	BlendVividLight:   "VividLight",
	BlendLinearLight:  "LinearLight",
	BlendPinLight:     "PinLight",
	BlendHardMix:      "HardMix",
	BlendDifference:   "Difference",
	BlendExclusion:    "Exclusion",
	BlendSubtract:     "Subtract",
	BlendDivide:       "Divide",
	BlendHue:          "Hue",
	BlendSaturation:   "Saturation",
	BlendColor:        "Color",
	BlendLuminosity:   "Luminosity",
}

// IsValid reports whether b is a known blend mode key.
func (b BlendMode) IsValid() bool {
	_, ok := blendNames[b]
	return ok
}

func (b BlendMode) String() string {
	if name, ok := blendNames[b]; ok {
		return name
	}
	return "BlendMode(" + string(b) + ")"
}
