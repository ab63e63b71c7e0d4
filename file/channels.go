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

package file

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"seehuhn.de/go/psd"
	"seehuhn.de/go/psd/compression"
	"seehuhn.de/go/psd/internal/binio"
)

// channelJob is the compressed data of a single channel, waiting to be
// decoded.
type channelJob struct {
	layer int
	ch    *Channel
	rect  Rect
	data  []byte
	pos   int64
}

// readChannelData reads the compressed channel data which follows the
// layer records.  Decompression is done separately, by decodeChannels.
func readChannelData(r *binio.Reader, layers []*LayerRecord, info [][]channelInfo) ([]channelJob, error) {
	var jobs []channelJob
	for i, l := range layers {
		for j, ci := range info[i] {
			ch := l.Channels[j]
			if ci.length == 0 {
				if !l.ChannelRect(ch.ID).IsEmpty() {
					return nil, r.Error("layer %d channel %d: missing image data", i, ch.ID)
				}
				ch.Compression = compression.Raw
				jobs = append(jobs, channelJob{
					layer: i,
					ch:    ch,
					rect:  l.ChannelRect(ch.ID),
					pos:   r.Pos(),
				})
				continue
			}
			if ci.length < 2 {
				return nil, r.Error("layer %d channel %d: invalid length %d", i, ch.ID, ci.length)
			}
			pos := r.Pos()
			method, err := r.ReadUint16()
			if err != nil {
				return nil, err
			}
			ch.Compression = compression.Method(method)
			if !ch.Compression.IsValid() {
				return nil, r.Error("layer %d channel %d: unknown compression method %d",
					i, ch.ID, method)
			}
			data, err := r.ReadBytes(ci.length - 2)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, channelJob{
				layer: i,
				ch:    ch,
				rect:  l.ChannelRect(ch.ID),
				data:  data,
				pos:   pos,
			})
		}
	}
	return jobs, nil
}

// decodeChannels decompresses the channel data in parallel.  Each job
// stores its result in its own channel, so the result does not depend on
// the order in which the jobs complete.
func decodeChannels(jobs []channelJob, v psd.Version, depth psd.Depth) error {
	g := &errgroup.Group{}
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, job := range jobs {
		g.Go(func() error {
			p := &compression.Params{
				Width:   job.rect.Width(),
				Height:  job.rect.Height(),
				Depth:   depth,
				Version: v,
			}
			if job.data == nil {
				job.ch.Data = make([]byte, p.PlaneBytes())
				return nil
			}
			plane, err := compression.Decode(job.data, job.ch.Compression, p)
			if err != nil {
				return &psd.FormatError{
					Section: "channel image data",
					Pos:     job.pos,
					Err:     fmt.Errorf("layer %d channel %d: %w", job.layer, job.ch.ID, err),
				}
			}
			job.ch.Data = plane
			return nil
		})
	}
	return g.Wait()
}

// encodeChannels compresses the channel data of all layers in parallel.
// The result is indexed by layer and channel.
func encodeChannels(layers []*LayerRecord, v psd.Version, depth psd.Depth) ([][][]byte, error) {
	res := make([][][]byte, len(layers))
	g := &errgroup.Group{}
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, l := range layers {
		res[i] = make([][]byte, len(l.Channels))
		for j, ch := range l.Channels {
			rect := l.ChannelRect(ch.ID)
			g.Go(func() error {
				p := &compression.Params{
					Width:   rect.Width(),
					Height:  rect.Height(),
					Depth:   depth,
					Version: v,
				}
				data, err := compression.Encode(ch.Data, ch.Compression, p)
				if err != nil {
					return psd.Invalid("encode", "layer %d channel %d: %w", i, ch.ID, err)
				}
				res[i][j] = data
				return nil
			})
		}
	}
	err := g.Wait()
	if err != nil {
		return nil, err
	}
	return res, nil
}
