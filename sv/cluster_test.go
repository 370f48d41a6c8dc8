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

package sv_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/grailbio/svbreak/interval"
	"github.com/grailbio/svbreak/sv"
	"github.com/grailbio/testutil/expect"
)

func span(ref string, start0, end int) interval.Span {
	return interval.Span{RefName: ref, Start0: start0, End: end}
}

func obs(id string, from, to interval.Span, negative bool) sv.Observation {
	return sv.Observation{ReadID: id, From: from, To: to, Negative: negative}
}

func TestClusterThreeReads(t *testing.T) {
	index := sv.NewBreakpointIndex()
	buf := sv.NewClusterBuffer(sv.Opts{Extend: 0, MinEvidence: 2}, index)
	buf.Add(obs("r1", span("chr1", 100, 150), span("chr1", 5000, 5050), false))
	buf.Add(obs("r2", span("chr1", 120, 170), span("chr1", 5010, 5060), true))
	expect.EQ(t, len(buf.Active()), 1)
	expect.EQ(t, index.Len(), 0)

	// r3 does not overlap the first candidate, which is finalized.
	buf.Add(obs("r3", span("chr1", 900, 950), span("chr1", 9000, 9050), false))
	expect.EQ(t, index.Len(), 1)
	expect.EQ(t, len(buf.Active()), 1)

	buf.Done()
	expect.EQ(t, len(buf.Active()), 0)
	expect.EQ(t, index.Len(), 1)
	c := index.Get(0)
	expect.EQ(t, c.From, span("chr1", 100, 170))
	expect.EQ(t, c.To, span("chr1", 5000, 5060))
	expect.EQ(t, c.EvidenceCount(), 2)
	expect.EQ(t, c.Evidence(), []string{"r1", "r2"})
	expect.EQ(t, c.PosStrand, 1)
	expect.EQ(t, c.NegStrand, 1)
	expect.EQ(t, c.Handle(), sv.Handle(0))
	expect.EQ(t, buf.Stats(), sv.ClusterStats{
		Observations: 3,
		Created:      2,
		Finalized:    1,
		Discarded:    1,
	})
}

func TestClusterExtend(t *testing.T) {
	index := sv.NewBreakpointIndex()
	buf := sv.NewClusterBuffer(sv.Opts{Extend: 100, MinEvidence: 1}, index)
	buf.Add(obs("r1", span("chr1", 50, 100), span("chr2", 1000, 1050), false))
	// Only overlaps r1 after padding.
	buf.Add(obs("r2", span("chr1", 250, 300), span("chr2", 1200, 1250), false))
	buf.Done()
	expect.EQ(t, index.Len(), 1)
	c := index.Get(0)
	expect.EQ(t, c.From, span("chr1", 0, 400))
	expect.EQ(t, c.To, span("chr2", 900, 1350))
	expect.EQ(t, c.EvidenceCount(), 2)
}

func TestClusterToMismatch(t *testing.T) {
	index := sv.NewBreakpointIndex()
	buf := sv.NewClusterBuffer(sv.Opts{MinEvidence: 1}, index)
	buf.Add(obs("r1", span("chr1", 100, 150), span("chr2", 1000, 1050), false))
	// Same From, different To: a separate candidate, and r1's stays active.
	buf.Add(obs("r2", span("chr1", 110, 160), span("chr3", 1000, 1050), false))
	buf.Add(obs("r3", span("chr1", 120, 170), span("chr2", 1040, 1090), true))
	active := buf.Active()
	expect.EQ(t, len(active), 2)
	expect.EQ(t, active[0].Evidence(), []string{"r1", "r3"})
	expect.EQ(t, active[1].Evidence(), []string{"r2"})
}

func TestClusterMultipleMatchMerge(t *testing.T) {
	index := sv.NewBreakpointIndex()
	buf := sv.NewClusterBuffer(sv.Opts{MinEvidence: 1}, index)
	buf.Add(obs("a", span("chr1", 100, 150), span("chr2", 1000, 1050), false))
	buf.Add(obs("b", span("chr1", 120, 170), span("chr2", 2000, 2050), true))
	expect.EQ(t, len(buf.Active()), 2)
	// c bridges both candidates.
	buf.Add(obs("c", span("chr1", 140, 160), span("chr2", 1040, 2010), false))
	active := buf.Active()
	expect.EQ(t, len(active), 1)
	m := active[0]
	expect.EQ(t, m.Evidence(), []string{"a", "b", "c"})
	expect.EQ(t, m.From, span("chr1", 100, 170))
	expect.EQ(t, m.To, span("chr2", 1000, 2050))
	expect.EQ(t, m.PosStrand, 2)
	expect.EQ(t, m.NegStrand, 1)
	expect.EQ(t, buf.Stats().Merged, 1)

	// b now belongs to the merged candidate.
	buf.Add(obs("b", span("chr1", 165, 200), span("chr2", 2040, 2060), true))
	expect.EQ(t, len(buf.Active()), 1)
	expect.EQ(t, buf.Stats().MateExtensions, 1)
	buf.Done()
	expect.EQ(t, index.Len(), 1)
	expect.EQ(t, index.Get(0).From, span("chr1", 100, 200))
	expect.EQ(t, index.Get(0).To, span("chr2", 1000, 2060))
	expect.EQ(t, index.Get(0).EvidenceCount(), 3)
}

func TestClusterMateOnOtherReference(t *testing.T) {
	index := sv.NewBreakpointIndex()
	buf := sv.NewClusterBuffer(sv.Opts{MinEvidence: 2}, index)
	for _, o := range []sv.Observation{
		obs("r1", span("chr1", 100, 150), span("chr5", 5000, 5050), false),
		obs("r2", span("chr1", 120, 170), span("chr5", 5010, 5060), false),
		obs("r1", span("chr5", 5000, 5050), span("chr1", 100, 150), true),
		obs("r2", span("chr5", 5010, 5060), span("chr1", 120, 170), true),
	} {
		buf.Add(o)
	}
	buf.Done()
	expect.EQ(t, index.Len(), 2)
	expect.EQ(t, index.Get(0).From, span("chr1", 100, 170))
	expect.EQ(t, index.Get(1).From, span("chr5", 5000, 5060))
	expect.EQ(t, index.Get(1).To, span("chr1", 100, 170))
	expect.EQ(t, index.Get(1).NegStrand, 2)
	expect.EQ(t, buf.Stats().MateExtensions, 0)
}

func TestClusterMateNearby(t *testing.T) {
	index := sv.NewBreakpointIndex()
	buf := sv.NewClusterBuffer(sv.Opts{Extend: 100, MinEvidence: 1}, index)
	buf.Add(obs("r1", span("chr1", 100, 150), span("chr1", 300, 301), false))
	buf.Add(obs("r1", span("chr1", 200, 250), span("chr1", 100, 150), true))
	buf.Done()
	expect.EQ(t, index.Len(), 1)
	c := index.Get(0)
	expect.EQ(t, c.From, span("chr1", 0, 350))
	expect.EQ(t, c.To, span("chr1", 0, 401))
	expect.EQ(t, c.EvidenceCount(), 1)
	expect.EQ(t, c.PosStrand, 1)
	expect.EQ(t, c.NegStrand, 0)
}

// randomObservations returns n observations sorted by From, with To on one
// of a few references.
func randomObservations(r *rand.Rand, n int) []sv.Observation {
	refs := []string{"chr2", "chr3", "chr4"}
	var result []sv.Observation
	pos := 0
	for i := 0; i < n; i++ {
		pos += r.Intn(300)
		toPos := r.Intn(20000)
		result = append(result, obs(
			fmt.Sprintf("r%d", i),
			span("chr1", pos, pos+50+r.Intn(50)),
			span(refs[r.Intn(len(refs))], toPos, toPos+50),
			r.Intn(2) == 0))
	}
	return result
}

func TestClusterRandom(t *testing.T) {
	r := rand.New(rand.NewSource(0))
	for iter := 0; iter < 20; iter++ {
		input := randomObservations(r, 500)
		minEvidence := 1 + iter%3
		index := sv.NewBreakpointIndex()
		buf := sv.NewClusterBuffer(sv.Opts{Extend: 200, MinEvidence: minEvidence}, index)
		evicted := map[*sv.Candidate]bool{}
		var prev []*sv.Candidate
		for _, o := range input {
			buf.Add(o)
			active := buf.Active()
			cur := map[*sv.Candidate]bool{}
			for _, c := range active {
				cur[c] = true
				// Everything still active overlaps the current observation.
				expect.True(t, c.From.Overlaps(o.From.Pad(200)), "%v vs. %v", c, o)
				expect.False(t, evicted[c], "evicted candidate %v came back", c)
			}
			for _, c := range prev {
				if !cur[c] {
					evicted[c] = true
				}
			}
			prev = active
		}
		buf.Done()

		seen := map[string]bool{}
		total := 0
		index.Each(func(c *sv.Candidate) bool {
			expect.True(t, c.EvidenceCount() >= minEvidence, "%v", c)
			expect.EQ(t, c.PosStrand+c.NegStrand, c.EvidenceCount())
			for _, id := range c.Evidence() {
				expect.False(t, seen[id], "read %s in two candidates", id)
				seen[id] = true
			}
			total += c.EvidenceCount()
			return true
		})
		stats := buf.Stats()
		expect.EQ(t, stats.Observations, len(input))
		expect.EQ(t, stats.Created, stats.Finalized+stats.Discarded+stats.Merged)
		if minEvidence == 1 {
			expect.EQ(t, total, len(input))
		}
	}
}
