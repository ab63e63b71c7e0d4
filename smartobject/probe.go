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

package smartobject

import (
	"bytes"
	"errors"
	"image"
	"path/filepath"
	"strings"

	// image formats which can be used as linked assets
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/file"
	"seehuhn.de/go/psd/internal/binio"
)

// Info describes the native size and type of an asset.
type Info struct {
	Width, Height int

	// FileType is the four character file type code.
	FileType string
}

var fileTypes = map[string]string{
	"png":  "png ",
	"jpeg": "JPEG",
	"gif":  "GIFf",
	"tiff": "TIFF",
	"bmp":  "BMPf",
	"webp": "WEBP",
}

// ErrUnknownFormat is returned by [Probe] if the asset type is not
// recognised.
var ErrUnknownFormat = errors.New("unknown asset format")

// Probe determines the native dimensions and the file type of an asset.
// Supported are PNG, JPEG, GIF, TIFF, BMP, WebP and PSD/PSB files.
func Probe(data []byte) (*Info, error) {
	if bytes.HasPrefix(data, []byte("8BPS")) {
		h, err := file.ReadHeader(binio.NewReader(bytes.NewReader(data), "header"))
		if err != nil {
			return nil, err
		}
		ft := "8BPS"
		if h.Version == psd.PSB {
			ft = "8BPB"
		}
		return &Info{Width: int(h.Width), Height: int(h.Height), FileType: ft}, nil
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return nil, ErrUnknownFormat
	} else if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.New("asset has no pixels")
	}
	ft, ok := fileTypes[format]
	if !ok {
		ft = strings.ToUpper(format + "    ")[:4]
	}
	return &Info{Width: cfg.Width, Height: cfg.Height, FileType: ft}, nil
}

// FileTypeFromName guesses the file type code from a file name.
func FileTypeFromName(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch ext {
	case "jpg", "jpeg":
		return fileTypes["jpeg"]
	case "tif", "tiff":
		return fileTypes["tiff"]
	case "psd":
		return "8BPS"
	case "psb":
		return "8BPB"
	}
	if ft, ok := fileTypes[ext]; ok {
		return ft
	}
	return "    "
}
