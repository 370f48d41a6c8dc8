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

package bamprovider

import (
	"context"
	"io"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"v.io/x/lib/vlog"
)

// BAMProvider implements Provider for BAM files.  The path may be an S3 URL,
// in which case the data will be read from S3.  Otherwise the data will be
// read from the local filesystem.
type BAMProvider struct {
	// Path of the *.bam file.  Must be nonempty.
	Path string
	// Parallelism is passed to bam.NewReader.
	Parallelism int
	err         errors.Once

	mu      sync.Mutex
	nActive int
	header  *sam.Header
}

type bamIterator struct {
	provider *BAMProvider
	ctx      context.Context
	in       file.File
	reader   *bam.Reader
	rec      *sam.Record
	err      error
	done     bool
}

// failedIterator is returned when the file cannot be opened.  It yields no
// records.
type failedIterator struct {
	err error
}

func (i *failedIterator) Scan() bool          { return false }
func (i *failedIterator) Record() *sam.Record { panic("failedIterator.Record") }
func (i *failedIterator) Err() error          { return i.err }
func (i *failedIterator) Close() error        { return i.err }

func (b *BAMProvider) readers() int {
	if b.Parallelism <= 0 {
		return 1
	}
	return b.Parallelism
}

// GetHeader implements the Provider interface.
func (b *BAMProvider) GetHeader() (*sam.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.header != nil {
		return b.header, nil
	}
	ctx := vcontext.Background()
	in, err := file.Open(ctx, b.Path)
	if err != nil {
		b.err.Set(err)
		return nil, err
	}
	defer in.Close(ctx) // nolint: errcheck
	bamReader, err := bam.NewReader(in.Reader(ctx), 1)
	if err != nil {
		b.err.Set(err)
		return nil, err
	}
	defer bamReader.Close() // nolint: errcheck
	b.header = bamReader.Header()
	return b.header, nil
}

// NewIterator implements the Provider interface.
func (b *BAMProvider) NewIterator() Iterator {
	ctx := vcontext.Background()
	in, err := file.Open(ctx, b.Path)
	if err != nil {
		b.err.Set(err)
		return &failedIterator{err: err}
	}
	reader, err := bam.NewReader(in.Reader(ctx), b.readers())
	if err != nil {
		b.err.Set(err)
		in.Close(ctx) // nolint: errcheck
		return &failedIterator{err: err}
	}
	b.mu.Lock()
	b.nActive++
	if b.header == nil {
		b.header = reader.Header()
	}
	b.mu.Unlock()
	return &bamIterator{provider: b, ctx: ctx, in: in, reader: reader}
}

// Close implements the Provider interface.
func (b *BAMProvider) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.nActive > 0 {
		vlog.Fatalf("%d iterators still active for %+v", b.nActive, b.Path)
	}
	return b.err.Err()
}

// Scan implements the Iterator interface.
func (i *bamIterator) Scan() bool {
	if i.done {
		return false
	}
	rec, err := i.reader.Read()
	if err != nil {
		i.done = true
		if err != io.EOF {
			i.err = err
		}
		i.rec = nil
		return false
	}
	i.rec = rec
	return true
}

// Record implements the Iterator interface.
func (i *bamIterator) Record() *sam.Record {
	return i.rec
}

// Err implements the Iterator interface.
func (i *bamIterator) Err() error {
	return i.err
}

// Close implements the Iterator interface.
func (i *bamIterator) Close() error {
	if e := i.reader.Close(); e != nil && i.err == nil {
		i.err = e
	}
	if e := i.in.Close(i.ctx); e != nil && i.err == nil {
		i.err = e
	}
	i.done = true
	b := i.provider
	b.err.Set(i.err)
	b.mu.Lock()
	b.nActive--
	if b.nActive < 0 {
		vlog.Fatalf("Negative active count for %+v", b.Path)
	}
	b.mu.Unlock()
	return i.err
}
