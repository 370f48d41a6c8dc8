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

package sv

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/svbreak/encoding/bamprovider"
	"github.com/grailbio/svbreak/interval"
)

// ExtractOpts controls which alignment records become observations.
type ExtractOpts struct {
	// MinMapQ is the minimum mapping quality.
	MinMapQ int
	// FilterFlags drops records with any of these SAM flag bits set.  Ignored
	// when <= 0.
	FilterFlags int
	// RequiredFlags drops records without all of these SAM flag bits set.
	// Ignored when <= 0.
	RequiredFlags int
	// MinIntraDist is the smallest gap between the two mates of a pair on
	// the same reference for the pair to be discordant.
	MinIntraDist int
	// ExcludeBEDPath, if set, names a BED file of regions; records whose
	// alignment or mate alignment touches one of them are dropped.
	ExcludeBEDPath string
	// Region, if set, restricts records to those aligned within it.  Syntax
	// is "chr", "chr:pos" or "chr:start-end" (1-based, closed).
	Region string
}

// DefaultExtractOpts sets the default values to ExtractOpts.
var DefaultExtractOpts = ExtractOpts{
	MinIntraDist: 5000,
}

// ExtractStats counts the records seen by an Extractor.
type ExtractStats struct {
	Records      int
	Unpaired     int
	Unmapped     int
	Duplicate    int
	NonUnique    int
	Filtered     int
	LowMapQ      int
	Concordant   int
	Excluded     int
	OutOfRegion  int
	Observations int
}

// Extractor turns alignment records of discordant read pairs into
// observations.
type Extractor struct {
	opts ExtractOpts
	// fromMask and toMask share the excluded regions, but keep separate
	// sequential-access state.
	fromMask *interval.BEDUnion
	toMask   *interval.BEDUnion
	region   *interval.Span
	stats    ExtractStats
}

var (
	tagNH = sam.NewTag("NH")
	tagMC = sam.NewTag("MC")
)

// NewExtractor creates an Extractor, loading the exclusion BED if one is
// named.
func NewExtractor(ctx context.Context, opts ExtractOpts) (*Extractor, error) {
	e := &Extractor{opts: opts}
	if opts.ExcludeBEDPath != "" {
		mask, err := interval.NewBEDUnionFromPath(ctx, opts.ExcludeBEDPath)
		if err != nil {
			return nil, err
		}
		log.Printf("sv: excluding regions on %d references from %s", mask.NRef(), opts.ExcludeBEDPath)
		toMask := mask.Clone()
		e.fromMask, e.toMask = &mask, &toMask
	}
	if opts.Region != "" {
		region, err := interval.ParseRegionString(opts.Region)
		if err != nil {
			return nil, err
		}
		e.region = &region
	}
	return e, nil
}

// Stats returns the counters accumulated so far.
func (e *Extractor) Stats() ExtractStats { return e.stats }

// uniquelyMapped returns whether r is the only alignment of its read.
func uniquelyMapped(r *sam.Record) bool {
	if r.Flags&(sam.Secondary|sam.Supplementary) != 0 {
		return false
	}
	aux := r.AuxFields.Get(tagNH)
	if aux == nil {
		return true
	}
	switch v := aux.Value().(type) {
	case int8:
		return v <= 1
	case uint8:
		return v <= 1
	case int16:
		return v <= 1
	case uint16:
		return v <= 1
	case int32:
		return v <= 1
	case uint32:
		return v <= 1
	}
	return true
}

// mateSpan returns the span of r's mate.  The MC tag gives the mate's CIGAR;
// without it, only the mate's first base is known.
func mateSpan(r *sam.Record) interval.Span {
	end := r.MatePos + 1
	if aux := r.AuxFields.Get(tagMC); aux != nil {
		if s, ok := aux.Value().(string); ok {
			if cigar, err := sam.ParseCigar([]byte(s)); err == nil {
				if refLen, _ := cigar.Lengths(); refLen > 0 {
					end = r.MatePos + refLen
				}
			}
		}
	}
	return interval.NewSpan(r.MateRef.Name(), r.MatePos, end)
}

// Observe returns the observation for r and true if r belongs to a
// discordant read pair that passes the filters.  r is not retained.
func (e *Extractor) Observe(r *sam.Record) (Observation, bool) {
	e.stats.Records++
	opts := &e.opts
	switch {
	case r.Flags&sam.Paired == 0:
		e.stats.Unpaired++
		return Observation{}, false
	case r.Flags&(sam.Unmapped|sam.MateUnmapped) != 0 || r.Ref == nil || r.MateRef == nil:
		e.stats.Unmapped++
		return Observation{}, false
	case r.Flags&sam.Duplicate != 0:
		e.stats.Duplicate++
		return Observation{}, false
	case !uniquelyMapped(r):
		e.stats.NonUnique++
		return Observation{}, false
	case opts.FilterFlags > 0 && int(r.Flags)&opts.FilterFlags != 0,
		opts.RequiredFlags > 0 && int(r.Flags)&opts.RequiredFlags != opts.RequiredFlags:
		e.stats.Filtered++
		return Observation{}, false
	case int(r.MapQ) < opts.MinMapQ:
		e.stats.LowMapQ++
		return Observation{}, false
	}
	from := interval.NewSpan(r.Ref.Name(), r.Pos, r.End())
	to := mateSpan(r)
	if r.Ref.ID() == r.MateRef.ID() {
		var gap int
		if to.Start0 >= from.Start0 {
			gap = to.Start0 - from.End
		} else {
			gap = from.Start0 - to.End
		}
		if gap <= opts.MinIntraDist {
			e.stats.Concordant++
			return Observation{}, false
		}
	}
	if e.region != nil && !e.region.Overlaps(from) {
		e.stats.OutOfRegion++
		return Observation{}, false
	}
	if e.fromMask != nil && (e.fromMask.Intersects(from) || e.toMask.Intersects(to)) {
		e.stats.Excluded++
		return Observation{}, false
	}
	e.stats.Observations++
	return Observation{
		// Copied, since r's storage goes back to the free pool.
		ReadID:   string(append([]byte(nil), r.Name...)),
		From:     from,
		To:       to,
		Negative: r.Flags&sam.Reverse != 0,
	}, true
}

type bamSource struct {
	iter bamprovider.Iterator
	ex   *Extractor
	cur  Observation
}

// NewBAMSource returns a Source of the observations ex extracts from
// provider's records.  The caller must close the Source, and then the
// provider.
func NewBAMSource(provider bamprovider.Provider, ex *Extractor) (Source, error) {
	header, err := provider.GetHeader()
	if err != nil {
		return nil, err
	}
	if !bamprovider.IsCoordinateSorted(header) {
		log.Printf("sv: warning: BAM sort order is %v, not coordinate; breakpoints may be split or missed", header.SortOrder)
	}
	if ex.region != nil && bamprovider.RefByName(header, ex.region.RefName) == nil {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("sv: region reference %q is not in the BAM header", ex.region.RefName))
	}
	return &bamSource{iter: provider.NewIterator(), ex: ex}, nil
}

func (s *bamSource) Scan() bool {
	for s.iter.Scan() {
		r := s.iter.Record()
		obs, ok := s.ex.Observe(r)
		sam.PutInFreePool(r)
		if ok {
			s.cur = obs
			return true
		}
	}
	return false
}

func (s *bamSource) Observation() Observation { return s.cur }
func (s *bamSource) Err() error               { return s.iter.Err() }
func (s *bamSource) Close() error             { return s.iter.Close() }
