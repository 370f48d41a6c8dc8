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
	"strings"

	"github.com/grailbio/svbreak/interval"
	"github.com/grailbio/svbreak/sv"
	"github.com/pkg/errors"
)

// row is the text form of an sv.Observation.
type row struct {
	Read      string `tsv:"READ"`
	FromChrom string `tsv:"FROM_CHROM"`
	FromStart int64  `tsv:"FROM_START"`
	FromEnd   int64  `tsv:"FROM_END"`
	ToChrom   string `tsv:"TO_CHROM"`
	ToStart   int64  `tsv:"TO_START"`
	ToEnd     int64  `tsv:"TO_END"`
	Strand    string `tsv:"STRAND"`
}

func newRow(o *sv.Observation) row {
	strand := "+"
	if o.Negative {
		strand = "-"
	}
	return row{
		Read:      o.ReadID,
		FromChrom: o.From.RefName,
		FromStart: int64(o.From.Start0),
		FromEnd:   int64(o.From.End),
		ToChrom:   o.To.RefName,
		ToStart:   int64(o.To.Start0),
		ToEnd:     int64(o.To.End),
		Strand:    strand,
	}
}

func parseSpan(ref string, start, end int64) (interval.Span, error) {
	if ref == "" {
		return interval.Span{}, errors.New("empty reference name")
	}
	if start < 0 || end < start {
		return interval.Span{}, errors.Errorf("invalid span %s:%d-%d", ref, start, end)
	}
	return interval.NewSpan(ref, int(start), int(end)), nil
}

func (r *row) observation() (sv.Observation, error) {
	var (
		o   = sv.Observation{ReadID: r.Read}
		err error
	)
	if r.Read == "" {
		return o, errors.New("empty read name")
	}
	if o.From, err = parseSpan(r.FromChrom, r.FromStart, r.FromEnd); err != nil {
		return o, errors.Wrap(err, "from")
	}
	if o.To, err = parseSpan(r.ToChrom, r.ToStart, r.ToEnd); err != nil {
		return o, errors.Wrap(err, "to")
	}
	switch r.Strand {
	case "+":
	case "-":
		o.Negative = true
	default:
		return o, errors.Errorf("invalid strand %q", r.Strand)
	}
	return o, nil
}

// compression is the compression scheme implied by a path's extension.
type compression int

const (
	compressNone compression = iota
	compressBGZF
	compressSnappy
)

func compressionFor(path string) compression {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return compressBGZF
	case strings.HasSuffix(path, ".sz"):
		return compressSnappy
	}
	return compressNone
}
