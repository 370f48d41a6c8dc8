// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package discordant

import (
	"context"
	"io"

	"github.com/golang/snappy"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/svbreak/sv"
	"github.com/klauspost/compress/gzip"
	pkgerrors "github.com/pkg/errors"
)

// Reader reads observations.  It implements sv.Source.
type Reader struct {
	r    *tsv.Reader
	name string
	line int
	cur  sv.Observation
	err  error

	closers []func() error
	ctx     context.Context
	in      file.File
}

var _ sv.Source = (*Reader)(nil)

// NewReader returns a Reader for uncompressed text from r.  name is used in
// error messages.
func NewReader(r io.Reader, name string) *Reader {
	tr := tsv.NewReader(r)
	tr.HasHeaderRow = true
	tr.UseHeaderNames = true
	return &Reader{r: tr, name: name, line: 1}
}

// Open opens path for reading.  Compressed input is detected by extension.
func Open(ctx context.Context, path string) (*Reader, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	var (
		reader  = io.Reader(in.Reader(ctx))
		closers []func() error
	)
	switch {
	case fileio.DetermineType(path) == fileio.Gzip:
		gz, err := gzip.NewReader(reader)
		if err != nil {
			_ = in.Close(ctx)
			return nil, errors.E(err, "gzip", path)
		}
		reader = gz
		closers = append(closers, gz.Close)
	case compressionFor(path) == compressSnappy:
		reader = snappy.NewReader(reader)
	}
	r := NewReader(reader, path)
	r.closers = closers
	r.ctx = ctx
	r.in = in
	return r, nil
}

// Scan implements sv.Source.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	var row row
	if err := r.r.Read(&row); err != nil {
		if err != io.EOF {
			r.err = pkgerrors.Wrapf(err, "%s:%d", r.name, r.line+1)
		}
		return false
	}
	r.line++
	o, err := row.observation()
	if err != nil {
		r.err = pkgerrors.Wrapf(err, "%s:%d", r.name, r.line)
		return false
	}
	r.cur = o
	return true
}

// Observation implements sv.Source.
func (r *Reader) Observation() sv.Observation { return r.cur }

// Err implements sv.Source.
func (r *Reader) Err() error { return r.err }

// Close implements sv.Source.
func (r *Reader) Close() error {
	err := r.err
	for _, c := range r.closers {
		if e := c(); e != nil && err == nil {
			err = e
		}
	}
	r.closers = nil
	if r.in != nil {
		if e := r.in.Close(r.ctx); e != nil && err == nil {
			err = errors.E(e, "close", r.name)
		}
		r.in = nil
	}
	return err
}

// ReadAll reads all observations from path.
func ReadAll(ctx context.Context, path string) ([]sv.Observation, error) {
	r, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	var obs []sv.Observation
	for r.Scan() {
		obs = append(obs, r.Observation())
	}
	return obs, r.Close()
}
