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

package main

import (
	"context"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/svbreak/encoding/bamprovider"
	"github.com/grailbio/svbreak/encoding/discordant"
	"github.com/grailbio/svbreak/sv"
)

type extractFlags struct {
	extract     sv.ExtractOpts
	out         string
	parallelism int
}

type callFlags struct {
	extract     sv.ExtractOpts
	call        sv.Opts
	format      string
	out         string
	parallelism int
}

// openBAM returns a Source of the observations in the BAM file at path.  The
// returned function closes the source and the provider.
func openBAM(ctx context.Context, path string, opts sv.ExtractOpts, parallelism int) (sv.Source, *sv.Extractor, func() error, error) {
	ex, err := sv.NewExtractor(ctx, opts)
	if err != nil {
		return nil, nil, nil, err
	}
	provider := bamprovider.NewProvider(path, bamprovider.ProviderOpts{Parallelism: parallelism})
	src, err := sv.NewBAMSource(provider, ex)
	if err != nil {
		_ = provider.Close()
		return nil, nil, nil, err
	}
	closer := func() error {
		err := src.Close()
		if e := provider.Close(); e != nil && err == nil {
			err = e
		}
		return err
	}
	return src, ex, closer, nil
}

func logExtractStats(path string, s sv.ExtractStats) {
	log.Printf("%s: %d records, %d discordant observations (unpaired %d, unmapped %d, duplicate %d, non-unique %d, flags %d, mapq %d, concordant %d, excluded %d, out of region %d)",
		path, s.Records, s.Observations, s.Unpaired, s.Unmapped, s.Duplicate, s.NonUnique,
		s.Filtered, s.LowMapQ, s.Concordant, s.Excluded, s.OutOfRegion)
}

// extract writes the observations of the BAM at path to opts.out, and returns
// their number.
func extract(ctx context.Context, path string, opts extractFlags) (n int, err error) {
	src, ex, closeSrc, err := openBAM(ctx, path, opts.extract, opts.parallelism)
	if err != nil {
		return 0, err
	}
	defer func() {
		if e := closeSrc(); e != nil && err == nil {
			err = e
		}
	}()
	w, err := discordant.Create(ctx, opts.out, opts.parallelism)
	if err != nil {
		return 0, err
	}
	defer func() {
		if e := w.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	for src.Scan() {
		if err = w.Write(src.Observation()); err != nil {
			return w.N(), err
		}
	}
	logExtractStats(path, ex.Stats())
	log.Printf("wrote %d observations to %s", w.N(), opts.out)
	return w.N(), src.Err()
}

// call finds breakpoint pairs in the BAM or observation file at path and
// writes them to opts.out.
func call(ctx context.Context, path string, opts callFlags) (stats sv.CallStats, err error) {
	format, err := sv.ParseFormat(opts.format)
	if err != nil {
		return
	}
	if err = opts.call.Validate(); err != nil {
		return
	}
	var (
		src      sv.Source
		ex       *sv.Extractor
		closeSrc func() error
	)
	if strings.HasSuffix(path, ".bam") {
		if src, ex, closeSrc, err = openBAM(ctx, path, opts.extract, opts.parallelism); err != nil {
			return
		}
	} else {
		var r *discordant.Reader
		if r, err = discordant.Open(ctx, path); err != nil {
			return
		}
		src, closeSrc = r, r.Close
	}
	defer func() {
		if e := closeSrc(); e != nil && err == nil {
			err = e
		}
	}()
	out, err := sv.CreatePairWriter(ctx, opts.out, format, opts.parallelism)
	if err != nil {
		return
	}
	defer func() {
		if e := out.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	stats, err = sv.Call(ctx, src, opts.call, out)
	if ex != nil {
		logExtractStats(path, ex.Stats())
	}
	if err == nil {
		log.Printf("wrote %d breakpoint pairs to %s", stats.Pairs, opts.out)
	}
	return
}
