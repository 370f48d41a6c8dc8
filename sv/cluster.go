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
	"github.com/grailbio/base/log"
)

// ClusterStats counts what a ClusterBuffer did with its input.
type ClusterStats struct {
	// Observations is the number of calls to Add.
	Observations int
	// MateExtensions counts observations absorbed by the active candidate
	// already holding their read pair.
	MateExtensions int
	// Created is the number of candidates started.
	Created int
	// Merged counts active candidates folded into another one because a
	// single observation matched both.
	Merged int
	// Finalized is the number of candidates moved into the index.
	Finalized int
	// Discarded is the number of candidates dropped for lack of evidence.
	Discarded int
}

// ClusterBuffer is the single-pass sweep that groups observations into
// candidates.  Observations must arrive in coordinate order of From (see
// Source).
type ClusterBuffer struct {
	opts   Opts
	index  *BreakpointIndex
	active []*Candidate
	// owner maps each read-pair ID of an active candidate to that candidate.
	owner map[string]*Candidate
	stats ClusterStats
}

// NewClusterBuffer creates a buffer that finalizes candidates into index.
func NewClusterBuffer(opts Opts, index *BreakpointIndex) *ClusterBuffer {
	return &ClusterBuffer{
		opts:  opts,
		index: index,
		owner: make(map[string]*Candidate),
	}
}

// Add processes one observation.
//
// If the observation's read pair already supports an active candidate whose
// From overlaps the observation (e.g. its mate aligned nearby), that
// candidate's spans are widened to cover it and nothing else happens.
// Otherwise every active candidate is visited in order: those whose From no
// longer overlaps the observation are evicted; the first one whose From and To
// both overlap the observation absorbs it, and any further matching candidate
// is merged into that first one.  If none matches, the observation starts a
// new candidate.
//
// An owning candidate whose From does not overlap the observation has been
// passed by the sweep; it is evicted below like any other, and the
// observation may start the candidate for the other end of the pair.
func (b *ClusterBuffer) Add(obs Observation) {
	b.stats.Observations++
	from := obs.From.Pad(b.opts.Extend)
	to := obs.To.Pad(b.opts.Extend)

	// An owner the sweep has moved past holds the far end of the pair; let
	// step 2 evict it so this observation can start the other end's candidate.
	if c, ok := b.owner[obs.ReadID]; ok && c.From.Overlaps(from) {
		if to.RefName == c.To.RefName {
			c.ExtendTo(to)
		}
		c.ExtendFrom(from)
		b.stats.MateExtensions++
		return
	}

	var match *Candidate
	n := 0
	for _, c := range b.active {
		if !c.From.Overlaps(from) {
			b.evict(c)
			continue
		}
		if c.To.Overlaps(to) {
			if match == nil {
				c.ExtendFrom(from)
				c.ExtendTo(to)
				c.AddEvidence(obs.ReadID, obs.Negative)
				b.owner[obs.ReadID] = c
				match = c
			} else {
				match.Combine(c)
				for id := range c.evidence {
					b.owner[id] = match
				}
				b.stats.Merged++
				continue
			}
		}
		b.active[n] = c
		n++
	}
	for i := n; i < len(b.active); i++ {
		b.active[i] = nil
	}
	b.active = b.active[:n]

	if match == nil {
		c := NewCandidate(from, to)
		c.AddEvidence(obs.ReadID, obs.Negative)
		b.owner[obs.ReadID] = c
		b.active = append(b.active, c)
		b.stats.Created++
	}
}

func (b *ClusterBuffer) evict(c *Candidate) {
	for id := range c.evidence {
		if b.owner[id] == c {
			delete(b.owner, id)
		}
	}
	if c.EvidenceCount() < b.opts.MinEvidence {
		b.stats.Discarded++
		return
	}
	b.index.Insert(c)
	b.stats.Finalized++
	log.Debug.Printf("sv: finalized %v", c)
}

// Done evicts all remaining active candidates.  The buffer is empty, and may
// be reused, afterwards.
func (b *ClusterBuffer) Done() {
	for i, c := range b.active {
		b.evict(c)
		b.active[i] = nil
	}
	b.active = b.active[:0]
}

// Active returns the candidates currently in the working set, in the order
// they were created.  The candidates must not be modified.
func (b *ClusterBuffer) Active() []*Candidate {
	return append([]*Candidate(nil), b.active...)
}

// Stats returns the counters accumulated so far.
func (b *ClusterBuffer) Stats() ClusterStats { return b.stats }
