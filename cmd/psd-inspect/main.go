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

// Psd-inspect shows the structure of PSD and PSB files.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"seehuhn.de/go/psd/file"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "psd-inspect:", err)
		os.Exit(1)
	}
}

type options struct {
	logLevel  string
	logFormat string
	log       *logrus.Logger
}

func newRootCommand() *cobra.Command {
	opt := &options{}
	cmd := &cobra.Command{
		Use:           "psd-inspect",
		Short:         "Show the structure of PSD and PSB files",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(opt.logLevel, opt.logFormat)
			if err != nil {
				return err
			}
			opt.log = log
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opt.logLevel, "log-level", "warning", "log level (debug, info, warning, error)")
	cmd.PersistentFlags().StringVar(&opt.logFormat, "log-format", "text", "log format (text or json)")

	cmd.AddCommand(newTreeCommand(opt))
	cmd.AddCommand(newResourcesCommand(opt))
	cmd.AddCommand(newExtractCommand(opt))

	return cmd
}

func newLogger(level, format string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(lvl)
	switch format {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return log, nil
}

// decodeFile reads the sections of a PSD or PSB file.
func decodeFile(path string, skipImage bool, log logrus.FieldLogger) (*file.Sections, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	log.WithField("file", path).Debug("decoding")
	return file.Decode(bufio.NewReader(fd), &file.ReadOptions{
		SkipMergedImage: skipImage,
		Log:             log,
	})
}
