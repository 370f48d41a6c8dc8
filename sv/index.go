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

	storeinterval "github.com/biogo/store/interval"
	"github.com/grailbio/svbreak/interval"
)

// Field selects which span of a Candidate an index query runs against.
type Field int

const (
	// FromField selects Candidate.From.
	FromField Field = iota
	// ToField selects Candidate.To.
	ToField
	nField
)

func (f Field) span(c *Candidate) interval.Span {
	if f == FromField {
		return c.From
	}
	return c.To
}

// treeEntry is the interval-tree element for one span of one candidate.
type treeEntry struct {
	h Handle
	r storeinterval.IntRange
}

func (e treeEntry) Overlap(b storeinterval.IntRange) bool { return e.r.End > b.Start && e.r.Start < b.End }
func (e treeEntry) Range() storeinterval.IntRange          { return e.r }
func (e treeEntry) ID() uintptr                            { return uintptr(e.h) }

// spanQuery adapts a half-open span to storeinterval.IntOverlapper.
type spanQuery storeinterval.IntRange

func (q spanQuery) Overlap(b storeinterval.IntRange) bool { return q.End > b.Start && q.Start < b.End }

// BreakpointIndex stores finalized candidates and answers overlap queries on
// either span.  Candidates are owned by the index once inserted; use Update
// to modify their spans.
type BreakpointIndex struct {
	entries []*Candidate
	// keys[f][h] is the range under which entries[h] is stored in
	// trees[f].
	keys  [nField][]treeEntry
	trees [nField]map[string]*storeinterval.IntTree
}

// NewBreakpointIndex creates an empty index.
func NewBreakpointIndex() *BreakpointIndex {
	idx := &BreakpointIndex{}
	for f := range idx.trees {
		idx.trees[f] = make(map[string]*storeinterval.IntTree)
	}
	return idx
}

// Insert adds c and returns its handle.  c must not already be in an index.
func (idx *BreakpointIndex) Insert(c *Candidate) Handle {
	if c.handle != NoHandle {
		panic(fmt.Sprintf("internal error: candidate %v inserted twice", c))
	}
	h := Handle(len(idx.entries))
	c.handle = h
	idx.entries = append(idx.entries, c)
	for f := Field(0); f < nField; f++ {
		idx.keys[f] = append(idx.keys[f], treeEntry{})
		idx.insertTree(f, h)
	}
	return h
}

func (idx *BreakpointIndex) insertTree(f Field, h Handle) {
	s := f.span(idx.entries[h])
	e := treeEntry{h: h, r: storeinterval.IntRange{Start: s.Start0, End: s.End}}
	tree := idx.trees[f][s.RefName]
	if tree == nil {
		tree = &storeinterval.IntTree{}
		idx.trees[f][s.RefName] = tree
	}
	if err := tree.Insert(e, false); err != nil {
		panic(fmt.Sprintf("internal error: insert %v: %v", s, err))
	}
	idx.keys[f][h] = e
}

func (idx *BreakpointIndex) deleteTree(f Field, h Handle) {
	ref := f.span(idx.entries[h]).RefName
	if err := idx.trees[f][ref].Delete(idx.keys[f][h], false); err != nil {
		panic(fmt.Sprintf("internal error: delete %v: %v", idx.entries[h], err))
	}
}

// Get returns the candidate with handle h.
func (idx *BreakpointIndex) Get(h Handle) *Candidate { return idx.entries[h] }

// Len returns the number of candidates in the index.
func (idx *BreakpointIndex) Len() int { return len(idx.entries) }

// Reciprocal returns c's partner, or nil.
func (idx *BreakpointIndex) Reciprocal(c *Candidate) *Candidate {
	if c.reciprocal == NoHandle {
		return nil
	}
	return idx.entries[c.reciprocal]
}

// Query returns the candidates whose span f overlaps s, ordered by span start
// and then by handle.
func (idx *BreakpointIndex) Query(f Field, s interval.Span) []*Candidate {
	tree := idx.trees[f][s.RefName]
	if tree == nil {
		return nil
	}
	var r []*Candidate
	for _, hit := range tree.Get(spanQuery{Start: s.Start0, End: s.End}) {
		c := idx.entries[hit.(treeEntry).h]
		if f.span(c).Overlaps(s) {
			r = append(r, c)
		}
	}
	return r
}

// Each calls fn on every candidate in insertion order until fn returns false.
// fn may call Update, but must not Insert.
func (idx *BreakpointIndex) Each(fn func(c *Candidate) bool) {
	for _, c := range idx.entries {
		if !fn(c) {
			return
		}
	}
}

// Update calls fn on the candidate with handle h and reindexes it, so that
// later queries see the spans fn left.  fn must not change the reference of
// either span.
func (idx *BreakpointIndex) Update(h Handle, fn func(c *Candidate)) {
	for f := Field(0); f < nField; f++ {
		idx.deleteTree(f, h)
	}
	c := idx.entries[h]
	from, to := c.From.RefName, c.To.RefName
	fn(c)
	if c.From.RefName != from || c.To.RefName != to {
		panic(fmt.Sprintf("internal error: update moved %v across references", c))
	}
	for f := Field(0); f < nField; f++ {
		idx.insertTree(f, h)
	}
}
