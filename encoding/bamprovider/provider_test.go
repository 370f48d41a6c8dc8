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

package bamprovider_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/svbreak/encoding/bamprovider"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func newTestRecords(t *testing.T) (*sam.Header, []*sam.Record) {
	chr1, err := sam.NewReference("chr1", "", "", 100000, nil, nil)
	assert.NoError(t, err)
	chr2, err := sam.NewReference("chr2", "", "", 100000, nil, nil)
	assert.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{chr1, chr2})
	assert.NoError(t, err)
	header.Version = "1.5"
	header.SortOrder = sam.Coordinate

	cigar := []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 4)}
	var recs []*sam.Record
	for _, r := range []struct {
		name    string
		ref     *sam.Reference
		pos     int
		mateRef *sam.Reference
		matePos int
	}{
		{"a", chr1, 100, chr2, 5000},
		{"b", chr1, 120, chr1, 9000},
		{"a", chr2, 5000, chr1, 100},
	} {
		rec, err := sam.NewRecord(r.name, r.ref, r.mateRef, r.pos, r.matePos, 0, 60, cigar,
			[]byte("ACGT"), []byte{30, 30, 30, 30}, nil)
		assert.NoError(t, err)
		rec.Flags = sam.Paired
		recs = append(recs, rec)
	}
	return header, recs
}

func TestBAMProvider(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	header, recs := newTestRecords(t)

	path := filepath.Join(tempDir, "test.bam")
	f, err := os.Create(path)
	assert.NoError(t, err)
	w, err := bam.NewWriter(f, header, 1)
	assert.NoError(t, err)
	for _, r := range recs {
		assert.NoError(t, w.Write(r))
	}
	assert.NoError(t, w.Close())
	assert.NoError(t, f.Close())

	p := bamprovider.NewProvider(path, bamprovider.ProviderOpts{Parallelism: 2})
	h, err := p.GetHeader()
	assert.NoError(t, err)
	expect.EQ(t, len(h.Refs()), 2)
	expect.True(t, bamprovider.IsCoordinateSorted(h))
	expect.EQ(t, bamprovider.RefByName(h, "chr2").Name(), "chr2")
	expect.True(t, bamprovider.RefByName(h, "chrM") == nil)

	iter := p.NewIterator()
	var names []string
	var positions []int
	for iter.Scan() {
		r := iter.Record()
		names = append(names, r.Name)
		positions = append(positions, r.Pos)
	}
	assert.NoError(t, iter.Close())
	assert.NoError(t, p.Close())
	expect.EQ(t, names, []string{"a", "b", "a"})
	expect.EQ(t, positions, []int{100, 120, 5000})
}

func TestBAMProviderMissingFile(t *testing.T) {
	p := bamprovider.NewProvider("/nonexistent/path/test.bam")
	_, err := p.GetHeader()
	expect.True(t, err != nil)
	iter := p.NewIterator()
	expect.False(t, iter.Scan())
	expect.True(t, iter.Close() != nil)
	expect.True(t, p.Close() != nil)
}

func TestFakeProvider(t *testing.T) {
	header, recs := newTestRecords(t)
	p := bamprovider.NewFakeProvider(header, recs)
	h, err := p.GetHeader()
	assert.NoError(t, err)
	expect.EQ(t, h, header)

	iter := p.NewIterator()
	n := 0
	for iter.Scan() {
		r := iter.Record()
		r.Name = "modified"
		n++
	}
	assert.NoError(t, iter.Close())
	assert.NoError(t, p.Close())
	expect.EQ(t, n, 3)
	// Records handed out are copies.
	expect.EQ(t, recs[0].Name, "a")
}
