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
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/document"
	"seehuhn.de/go/psd/file"
	"seehuhn.de/go/psd/smartobject"
)

func newExtractCommand(opt *options) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file> <dir>",
		Short: "Write the linked assets of smart objects to a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := decodeFile(args[0], true, opt.log)
			if err != nil {
				return err
			}
			store, err := assets(s, opt.log)
			if err != nil {
				return err
			}
			names, err := extractAssets(store, args[1])
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// assets returns the linked-asset table of a file.
func assets(s *file.Sections, log logrus.FieldLogger) (*smartobject.Store, error) {
	switch s.Header.Depth {
	case psd.Depth8:
		d, err := document.FromSections[uint8](s, log)
		if err != nil {
			return nil, err
		}
		return d.Assets, nil
	case psd.Depth16:
		d, err := document.FromSections[uint16](s, log)
		if err != nil {
			return nil, err
		}
		return d.Assets, nil
	case psd.Depth32:
		d, err := document.FromSections[float32](s, log)
		if err != nil {
			return nil, err
		}
		return d.Assets, nil
	default:
		return nil, fmt.Errorf("unsupported bit depth %d", s.Header.Depth)
	}
}

// extractAssets writes every asset of the store into dir.  Assets are named
// after their original file name, prefixed with the start of the hash to
// keep the names unique.  The names of the new files are returned.
func extractAssets(store *smartobject.Store, dir string) ([]string, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, err
	}
	var res []string
	for _, hash := range store.Hashes() {
		a := store.Get(hash)
		name := filepath.Base(a.Name)
		if name == "." || name == string(filepath.Separator) {
			name = "asset"
		}
		name = hash[:8] + "-" + name
		err := os.WriteFile(filepath.Join(dir, name), a.Data, 0o644)
		if err != nil {
			return res, err
		}
		res = append(res, name)
	}
	return res, nil
}
