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

	"github.com/spf13/cobra"

	"seehuhn.de/go/psd/file"
	"seehuhn.de/go/psd/resource"
)

func newResourcesCommand(opt *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resources <file>",
		Short: "List the image resources and global tagged blocks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := decodeFile(args[0], true, opt.log)
			if err != nil {
				return err
			}
			listResources(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func listResources(w io.Writer, s *file.Sections) {
	fmt.Fprintln(w, "image resources:")
	for _, blk := range s.Resources {
		name := resource.Name(blk.ID)
		if blk.Name != "" {
			name += fmt.Sprintf(" %q", blk.Name)
		}
		fmt.Fprintf(w, "  %5d %-24s %8d bytes\n", blk.ID, name, len(blk.Data))
	}

	if packet, err := s.Resources.XMP(); err == nil && packet != nil {
		fmt.Fprintln(w, "  XMP packet present")
	}

	fmt.Fprintln(w, "global tagged blocks:")
	for _, blk := range s.LayerInfo.Blocks {
		fmt.Fprintf(w, "  %-4s %8d bytes\n", blk.Key, len(blk.Data))
	}
	fmt.Fprintf(w, "%d layer records\n", len(s.LayerInfo.Layers))
}
