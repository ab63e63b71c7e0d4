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

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v2"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/document"
	"seehuhn.de/go/psd/file"
)

func newTreeCommand(opt *options) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "tree <file>",
		Short: "Show the layer tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := decodeFile(args[0], true, opt.log)
			if err != nil {
				return err
			}
			info, err := describe(s, opt.log)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format {
			case "yaml":
				return yaml.NewEncoder(out).Encode(info)
			case "text":
				fancy := false
				if f, ok := out.(*os.File); ok {
					fancy = term.IsTerminal(int(f.Fd()))
				}
				printTree(out, info, fancy)
				return nil
			default:
				return fmt.Errorf("unknown output format %q", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text or yaml)")
	return cmd
}

// docInfo summarizes a document.
type docInfo struct {
	Version string       `yaml:"version"`
	Mode    string       `yaml:"mode"`
	Depth   int          `yaml:"depth"`
	Width   int          `yaml:"width"`
	Height  int          `yaml:"height"`
	Assets  int          `yaml:"assets,omitempty"`
	Layers  []*layerInfo `yaml:"layers,omitempty"`
}

// layerInfo summarizes one node of the layer tree.
type layerInfo struct {
	Name     string       `yaml:"name"`
	Kind     string       `yaml:"kind"`
	Size     []int        `yaml:"size,flow"`
	Center   []float64    `yaml:"center,flow"`
	Opacity  uint8        `yaml:"opacity"`
	Blend    string       `yaml:"blend"`
	Hidden   bool         `yaml:"hidden,omitempty"`
	Clipping bool         `yaml:"clipping,omitempty"`
	Locks    uint32       `yaml:"locks,omitempty"`
	Mask     bool         `yaml:"mask,omitempty"`
	Open     bool         `yaml:"open,omitempty"`
	Asset    string       `yaml:"asset,omitempty"`
	Children []*layerInfo `yaml:"children,omitempty"`
}

// describe converts the file sections into a document and summarizes it.
func describe(s *file.Sections, log logrus.FieldLogger) (*docInfo, error) {
	switch s.Header.Depth {
	case psd.Depth8:
		d, err := document.FromSections[uint8](s, log)
		if err != nil {
			return nil, err
		}
		return summarize(d), nil
	case psd.Depth16:
		d, err := document.FromSections[uint16](s, log)
		if err != nil {
			return nil, err
		}
		return summarize(d), nil
	case psd.Depth32:
		d, err := document.FromSections[float32](s, log)
		if err != nil {
			return nil, err
		}
		return summarize(d), nil
	default:
		return nil, fmt.Errorf("unsupported bit depth %d", s.Header.Depth)
	}
}

func summarize[T psd.Sample](d *document.Document[T]) *docInfo {
	return &docInfo{
		Version: d.Version.String(),
		Mode:    d.ColorMode.String(),
		Depth:   int(d.Depth()),
		Width:   d.Width(),
		Height:  d.Height(),
		Assets:  d.Assets.Len(),
		Layers:  summarizeLayers(d.Layers()),
	}
}

func summarizeLayers[T psd.Sample](layers []document.Layer[T]) []*layerInfo {
	var res []*layerInfo
	for _, l := range layers {
		b := l.Common()
		c := l.Center()
		info := &layerInfo{
			Name:     b.Name,
			Kind:     l.Kind().String(),
			Size:     []int{l.Width(), l.Height()},
			Center:   []float64{c.X, c.Y},
			Opacity:  b.Opacity,
			Blend:    b.BlendMode.String(),
			Hidden:   !b.Visible,
			Clipping: b.Clipping,
			Locks:    uint32(b.Locks),
			Mask:     b.Mask() != nil,
		}
		switch l := l.(type) {
		case *document.GroupLayer[T]:
			info.Open = l.Open
			info.Children = summarizeLayers(l.Children())
		case *document.SmartObjectLayer[T]:
			info.Asset = l.Filename()
		}
		res = append(res, info)
	}
	return res
}

// printTree writes the layer tree as indented text, top-most layer first.
// If fancy is set, box drawing characters are used.
func printTree(w io.Writer, info *docInfo, fancy bool) {
	fmt.Fprintf(w, "%s %s %d-bit, %dx%d\n",
		info.Version, info.Mode, info.Depth, info.Width, info.Height)
	branch, last, cont, empty := "|-- ", "`-- ", "|   ", "    "
	if fancy {
		branch, last, cont = "├── ", "└── ", "│   "
	}
	var rec func(layers []*layerInfo, prefix string)
	rec = func(layers []*layerInfo, prefix string) {
		for i := len(layers) - 1; i >= 0; i-- {
			l := layers[i]
			head, next := branch, cont
			if i == 0 {
				head, next = last, empty
			}
			fmt.Fprintf(w, "%s%s%s\n", prefix, head, layerLine(l))
			rec(l.Children, prefix+next)
		}
	}
	rec(info.Layers, "")
}

func layerLine(l *layerInfo) string {
	var extra []string
	if l.Hidden {
		extra = append(extra, "hidden")
	}
	if l.Clipping {
		extra = append(extra, "clipped")
	}
	if l.Mask {
		extra = append(extra, "mask")
	}
	if l.Asset != "" {
		extra = append(extra, "asset "+l.Asset)
	}
	if l.Opacity != 255 {
		extra = append(extra, fmt.Sprintf("opacity %d", l.Opacity))
	}
	if l.Blend != psd.BlendNormal.String() && l.Kind != document.KindGroup.String() {
		extra = append(extra, strings.ToLower(l.Blend))
	}
	res := fmt.Sprintf("%s [%s %dx%d]", l.Name, l.Kind, l.Size[0], l.Size[1])
	if len(extra) > 0 {
		res += " (" + strings.Join(extra, ", ") + ")"
	}
	return res
}
