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
	"encoding/binary"
	"fmt"
	"io"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/bgzf"
	"github.com/grailbio/svbreak/interval"
)

func init() {
	recordiozstd.Init()
}

// Breakpoint summarizes one side of a reported pair.
type Breakpoint struct {
	From      interval.Span
	To        interval.Span
	PosStrand int
	NegStrand int
	Evidence  int
}

func newBreakpoint(c *Candidate) Breakpoint {
	return Breakpoint{
		From:      c.From,
		To:        c.To,
		PosStrand: c.PosStrand,
		NegStrand: c.NegStrand,
		Evidence:  c.EvidenceCount(),
	}
}

// PairRecord is one reported breakpoint pair.
type PairRecord struct {
	// ID fingerprints the read pairs supporting both sides.  It does not
	// depend on the order in which the sides are listed.
	ID         uint64
	Candidate  Breakpoint
	Reciprocal Breakpoint
}

// Reporter selects the candidates to report.
type Reporter struct {
	MinEvidence int
}

// NewReporter creates a Reporter that ignores candidates with fewer than
// minEvidence read pairs.
func NewReporter(minEvidence int) *Reporter {
	return &Reporter{MinEvidence: minEvidence}
}

// Pairs returns a record for each candidate in index that has enough evidence
// and a partner, in index order.  Two candidates linked to each other are
// reported once, from the side that comes first in the index.
func (r *Reporter) Pairs(index *BreakpointIndex) []PairRecord {
	type key struct{ a, b Handle }
	seen := make(map[key]struct{})
	var pairs []PairRecord
	index.Each(func(c *Candidate) bool {
		if c.EvidenceCount() < r.MinEvidence {
			return true
		}
		partner := index.Reciprocal(c)
		if partner == nil {
			return true
		}
		k := key{c.Handle(), partner.Handle()}
		if k.a > k.b {
			k.a, k.b = k.b, k.a
		}
		if _, ok := seen[k]; ok {
			return true
		}
		seen[k] = struct{}{}
		pairs = append(pairs, PairRecord{
			ID:         pairID(c, partner),
			Candidate:  newBreakpoint(c),
			Reciprocal: newBreakpoint(partner),
		})
		return true
	})
	return pairs
}

// pairID hashes the union of both evidence sets.
func pairID(a, b *Candidate) uint64 {
	ids := a.Evidence()
	if b != a {
		ids = mergeSorted(ids, b.Evidence())
	}
	h := seahash.New()
	for _, id := range ids {
		h.Write([]byte(id)) // nolint: errcheck
		h.Write([]byte{0})  // nolint: errcheck
	}
	return h.Sum64()
}

// mergeSorted merges two sorted string lists, dropping duplicates.
func mergeSorted(a, b []string) []string {
	r := make([]string, 0, len(a)+len(b))
	for len(a) > 0 || len(b) > 0 {
		switch {
		case len(b) == 0 || (len(a) > 0 && a[0] < b[0]):
			r = append(r, a[0])
			a = a[1:]
		case len(a) == 0 || b[0] < a[0]:
			r = append(r, b[0])
			b = b[1:]
		default:
			r = append(r, a[0])
			a, b = a[1:], b[1:]
		}
	}
	return r
}

// Format is an output format for PairRecords.
type Format int

const (
	// FormatTSV is plain tab-separated text.
	FormatTSV Format = iota
	// FormatTSVBGZ is FormatTSV compressed with bgzf.
	FormatTSVBGZ
	// FormatRio is a zstd-compressed recordio file of binary records.
	FormatRio
)

// ParseFormat parses "tsv", "tsv-bgz" or "rio".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "tsv":
		return FormatTSV, nil
	case "tsv-bgz":
		return FormatTSVBGZ, nil
	case "rio":
		return FormatRio, nil
	}
	return FormatTSV, fmt.Errorf("unknown output format %q (must be tsv, tsv-bgz, or rio)", s)
}

func (f Format) String() string {
	switch f {
	case FormatTSV:
		return "tsv"
	case FormatTSVBGZ:
		return "tsv-bgz"
	case FormatRio:
		return "rio"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// PairWriter writes PairRecords.
type PairWriter interface {
	Write(r *PairRecord) error
	// Close flushes the output.  It must be called once, also after a Write
	// error.
	Close(ctx context.Context) error
}

// pairColumns is the TSV header.  Coordinates are 0-based half-open.
const pairColumns = "#ID\tFROM_CHROM\tFROM_START\tFROM_END\tTO_CHROM\tTO_START\tTO_END\tPOS_STRAND\tNEG_STRAND\tEVIDENCE" +
	"\tRECIP_FROM_CHROM\tRECIP_FROM_START\tRECIP_FROM_END\tRECIP_TO_CHROM\tRECIP_TO_START\tRECIP_TO_END\tRECIP_POS_STRAND\tRECIP_NEG_STRAND\tRECIP_EVIDENCE"

type tsvPairWriter struct {
	w       *tsv.Writer
	bgzfW   *bgzf.Writer
	dst     file.File
	started bool
}

// NewTSVPairWriter returns a PairWriter that writes TSV to w.  Close does not
// close w.
func NewTSVPairWriter(w io.Writer) PairWriter {
	return &tsvPairWriter{w: tsv.NewWriter(w)}
}

func writeSpan(w *tsv.Writer, s interval.Span) {
	w.WriteString(s.RefName)
	w.WriteUint32(uint32(s.Start0))
	w.WriteUint32(uint32(s.End))
}

func writeBreakpoint(w *tsv.Writer, b *Breakpoint) {
	writeSpan(w, b.From)
	writeSpan(w, b.To)
	w.WriteUint32(uint32(b.PosStrand))
	w.WriteUint32(uint32(b.NegStrand))
	w.WriteUint32(uint32(b.Evidence))
}

func (pw *tsvPairWriter) writeHeader() error {
	pw.started = true
	pw.w.WriteString(pairColumns)
	return pw.w.EndLine()
}

func (pw *tsvPairWriter) Write(r *PairRecord) error {
	if !pw.started {
		if err := pw.writeHeader(); err != nil {
			return err
		}
	}
	pw.w.WriteString(fmt.Sprintf("%016x", r.ID))
	writeBreakpoint(pw.w, &r.Candidate)
	writeBreakpoint(pw.w, &r.Reciprocal)
	return pw.w.EndLine()
}

func (pw *tsvPairWriter) Close(ctx context.Context) (err error) {
	if !pw.started {
		err = pw.writeHeader()
	}
	if e := pw.w.Flush(); e != nil && err == nil {
		err = e
	}
	if pw.bgzfW != nil {
		if e := pw.bgzfW.Close(); e != nil && err == nil {
			err = e
		}
	}
	if pw.dst != nil {
		if e := pw.dst.Close(ctx); e != nil && err == nil {
			err = errors.E(e, "close", pw.dst.Name())
		}
	}
	return
}

const (
	pairTrailerVersion = 1
	// pairsRioHeader tags recordio files written by rioPairWriter.
	pairsRioHeader = "svbreak.PairRecord"
)

type rioPairWriter struct {
	w   recordio.Writer
	dst file.File
	n   int
}

func (pw *rioPairWriter) Write(r *PairRecord) error {
	pw.w.Append(r)
	pw.n++
	return nil
}

func (pw *rioPairWriter) Close(ctx context.Context) error {
	trailer := make([]byte, 16)
	binary.LittleEndian.PutUint64(trailer[:8], pairTrailerVersion)
	binary.LittleEndian.PutUint64(trailer[8:], uint64(pw.n))
	pw.w.SetTrailer(trailer)
	err := pw.w.Finish()
	if e := pw.dst.Close(ctx); e != nil && err == nil {
		err = errors.E(e, "close", pw.dst.Name())
	}
	return err
}

// CreatePairWriter creates path and returns a PairWriter in the given
// format.  parallelism is the number of bgzf compression goroutines.
func CreatePairWriter(ctx context.Context, path string, format Format, parallelism int) (PairWriter, error) {
	dst, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.E(err, "create", path)
	}
	switch format {
	case FormatTSV:
		return &tsvPairWriter{w: tsv.NewWriter(dst.Writer(ctx)), dst: dst}, nil
	case FormatTSVBGZ:
		bw := bgzf.NewWriter(dst.Writer(ctx), parallelism)
		return &tsvPairWriter{w: tsv.NewWriter(bw), bgzfW: bw, dst: dst}, nil
	case FormatRio:
		w := recordio.NewWriter(dst.Writer(ctx), recordio.WriterOpts{
			Marshal:      marshalPairRecord,
			Transformers: []string{recordiozstd.Name},
		})
		w.AddHeader(pairsRioHeader, true)
		w.AddHeader(recordio.KeyTrailer, true)
		return &rioPairWriter{w: w, dst: dst}, nil
	}
	_ = dst.Close(ctx)
	return nil, fmt.Errorf("unsupported format %v", format)
}

// ReadPairsRio reads all records from a file written with FormatRio.
func ReadPairsRio(ctx context.Context, path string) (pairs []PairRecord, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	scanner := recordio.NewScanner(in.Reader(ctx), recordio.ScannerOpts{
		Unmarshal: unmarshalPairRecord,
	})
	if t := scanner.Trailer(); len(t) == 16 {
		if v := binary.LittleEndian.Uint64(t[:8]); v != pairTrailerVersion {
			return nil, fmt.Errorf("%s: unrecognized trailer version: got %d, want %d", path, v, pairTrailerVersion)
		}
		pairs = make([]PairRecord, 0, binary.LittleEndian.Uint64(t[8:]))
	}
	for scanner.Scan() {
		pairs = append(pairs, *scanner.Get().(*PairRecord))
	}
	if e := scanner.Err(); e != nil {
		return nil, errors.E(e, "read", path)
	}
	return pairs, nil
}

func appendUvarint(buf []byte, v int) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], uint64(v))
	return append(buf, tmp[:n]...)
}

func appendSpan(buf []byte, s interval.Span) []byte {
	buf = appendUvarint(buf, len(s.RefName))
	buf = append(buf, s.RefName...)
	buf = appendUvarint(buf, s.Start0)
	return appendUvarint(buf, s.End)
}

func appendBreakpoint(buf []byte, b *Breakpoint) []byte {
	buf = appendSpan(buf, b.From)
	buf = appendSpan(buf, b.To)
	buf = appendUvarint(buf, b.PosStrand)
	buf = appendUvarint(buf, b.NegStrand)
	return appendUvarint(buf, b.Evidence)
}

func marshalPairRecord(scratch []byte, v interface{}) ([]byte, error) {
	r := v.(*PairRecord)
	buf := scratch[:0]
	var id [8]byte
	binary.LittleEndian.PutUint64(id[:], r.ID)
	buf = append(buf, id[:]...)
	buf = appendBreakpoint(buf, &r.Candidate)
	return appendBreakpoint(buf, &r.Reciprocal), nil
}

// recordDecoder consumes a marshaled PairRecord.  The first error sticks.
type recordDecoder struct {
	in  []byte
	err error
}

func (d *recordDecoder) uvarint() int {
	if d.err != nil {
		return 0
	}
	v, n := binary.Uvarint(d.in)
	if n <= 0 {
		d.err = fmt.Errorf("corrupt pair record")
		return 0
	}
	d.in = d.in[n:]
	return int(v)
}

func (d *recordDecoder) span() interval.Span {
	n := d.uvarint()
	if d.err != nil || n > len(d.in) {
		d.err = fmt.Errorf("corrupt pair record")
		return interval.Span{}
	}
	ref := string(d.in[:n])
	d.in = d.in[n:]
	start := d.uvarint()
	return interval.Span{RefName: ref, Start0: start, End: d.uvarint()}
}

func (d *recordDecoder) breakpoint() Breakpoint {
	var b Breakpoint
	b.From = d.span()
	b.To = d.span()
	b.PosStrand = d.uvarint()
	b.NegStrand = d.uvarint()
	b.Evidence = d.uvarint()
	return b
}

func unmarshalPairRecord(in []byte) (interface{}, error) {
	if len(in) < 8 {
		return nil, fmt.Errorf("corrupt pair record: %d bytes", len(in))
	}
	r := &PairRecord{ID: binary.LittleEndian.Uint64(in[:8])}
	d := recordDecoder{in: in[8:]}
	r.Candidate = d.breakpoint()
	r.Reciprocal = d.breakpoint()
	if d.err != nil {
		return nil, d.err
	}
	return r, nil
}
