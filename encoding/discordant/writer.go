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
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/bgzf"
	"github.com/grailbio/svbreak/sv"
)

// Writer writes observations.
type Writer struct {
	rw *tsv.RowWriter
	n  int

	// Set by Create.
	dst      file.File
	bgzfW    *bgzf.Writer
	snappyW  *snappy.Writer
	finished bool
}

// NewWriter returns a Writer that writes uncompressed text to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{rw: tsv.NewRowWriter(w)}
}

// Create creates path and returns a Writer for it.  The output is compressed
// according to path's extension (see the package doc).  parallelism is the
// number of bgzf compression goroutines.
func Create(ctx context.Context, path string, parallelism int) (*Writer, error) {
	dst, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.E(err, "create", path)
	}
	w := &Writer{dst: dst}
	switch compressionFor(path) {
	case compressBGZF:
		w.bgzfW = bgzf.NewWriter(dst.Writer(ctx), parallelism)
		w.rw = tsv.NewRowWriter(w.bgzfW)
	case compressSnappy:
		w.snappyW = snappy.NewBufferedWriter(dst.Writer(ctx))
		w.rw = tsv.NewRowWriter(w.snappyW)
	default:
		w.rw = tsv.NewRowWriter(dst.Writer(ctx))
	}
	return w, nil
}

// Write appends o.
func (w *Writer) Write(o sv.Observation) error {
	r := newRow(&o)
	w.n++
	return w.rw.Write(&r)
}

// N returns the number of observations written.
func (w *Writer) N() int { return w.n }

// Close flushes the output, and closes the file if the Writer was made by
// Create.  The Writer must not be used afterwards.
func (w *Writer) Close(ctx context.Context) (err error) {
	if w.finished {
		return nil
	}
	w.finished = true
	err = w.rw.Flush()
	if w.bgzfW != nil {
		if e := w.bgzfW.Close(); e != nil && err == nil {
			err = e
		}
	}
	if w.snappyW != nil {
		if e := w.snappyW.Close(); e != nil && err == nil {
			err = e
		}
	}
	if w.dst != nil {
		if e := w.dst.Close(ctx); e != nil && err == nil {
			err = errors.E(e, "close", w.dst.Name())
		}
	}
	return
}
