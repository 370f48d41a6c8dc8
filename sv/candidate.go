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
	"fmt"
	"sort"

	"github.com/grailbio/svbreak/interval"
)

// Handle identifies a Candidate stored in a BreakpointIndex.
type Handle int

// NoHandle is the Handle of a candidate that is not in an index, and the
// reciprocal of a candidate with no partner.
const NoHandle Handle = -1

// Candidate is a cluster of discordant read pairs that support the same
// breakpoint pair.  From is the region where the reads align; To is the
// region where their mates align.
type Candidate struct {
	From      interval.Span
	To        interval.Span
	PosStrand int
	NegStrand int

	evidence   map[string]bool // read ID -> negative strand
	handle     Handle
	reciprocal Handle
}

// NewCandidate creates a candidate with no evidence.
func NewCandidate(from, to interval.Span) *Candidate {
	return &Candidate{
		From:       from,
		To:         to,
		evidence:   make(map[string]bool),
		handle:     NoHandle,
		reciprocal: NoHandle,
	}
}

// AddEvidence records read pair readID.  The strand counters are only
// updated the first time readID is seen, so adding both mates of a pair (or
// the same read twice) counts once.  It returns whether readID is new.
func (c *Candidate) AddEvidence(readID string, negative bool) bool {
	if _, ok := c.evidence[readID]; ok {
		return false
	}
	c.evidence[readID] = negative
	if negative {
		c.NegStrand++
	} else {
		c.PosStrand++
	}
	return true
}

// ExtendFrom widens From to cover s.  s must be on From's reference.
func (c *Candidate) ExtendFrom(s interval.Span) { c.From = c.From.Union(s) }

// ExtendTo widens To to cover s.  s must be on To's reference.
func (c *Candidate) ExtendTo(s interval.Span) { c.To = c.To.Union(s) }

// ContainsEvidence returns whether readID supports c.
func (c *Candidate) ContainsEvidence(readID string) bool {
	_, ok := c.evidence[readID]
	return ok
}

// EvidenceCount returns the number of distinct read pairs supporting c.
func (c *Candidate) EvidenceCount() int { return len(c.evidence) }

// Evidence returns the read-pair IDs supporting c, sorted.
func (c *Candidate) Evidence() []string {
	ids := make([]string, 0, len(c.evidence))
	for id := range c.evidence {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Combine merges other into c: the spans become the unions and the evidence
// sets are unioned.  The strand counters of the read pairs that are new to c
// are added to c's, so PosStrand+NegStrand stays equal to EvidenceCount.
// other is left unchanged.  Both candidates must have their From (and To)
// spans on the same references.
func (c *Candidate) Combine(other *Candidate) {
	c.ExtendFrom(other.From)
	c.ExtendTo(other.To)
	for id, neg := range other.evidence {
		c.AddEvidence(id, neg)
	}
}

// Handle returns c's handle in the index it was inserted into, or NoHandle.
func (c *Candidate) Handle() Handle { return c.handle }

// SetReciprocal links c to its partner h.  An existing link is never
// replaced; SetReciprocal returns whether the link was made.
func (c *Candidate) SetReciprocal(h Handle) bool {
	if c.reciprocal != NoHandle {
		return false
	}
	c.reciprocal = h
	return true
}

// Reciprocal returns the handle of c's partner, or NoHandle.  Use
// BreakpointIndex.Reciprocal to get the partner itself.
func (c *Candidate) Reciprocal() Handle { return c.reciprocal }

// HasReciprocal returns whether c has been linked to a partner.
func (c *Candidate) HasReciprocal() bool { return c.reciprocal != NoHandle }

func (c *Candidate) String() string {
	return fmt.Sprintf("%v -> %v [+%d -%d n=%d]", c.From, c.To, c.PosStrand, c.NegStrand, len(c.evidence))
}
