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

// MatchStats counts the outcome of FindReciprocalMatches.
type MatchStats struct {
	// Visited is the number of candidates examined.
	Visited int
	// Linked is the number of candidates that found a partner.
	Linked int
	// Folded is the number of extra partners combined into the first one.
	Folded int
}

// FindReciprocalMatches links each candidate A in index to a candidate B
// describing the other side of the same rearrangement: B.From overlaps A.To
// and B.To overlaps A.From.  When several such B exist, the later ones are
// combined into the first (in Query order) and the first is linked.
//
// Links are made in both directions, but an existing link is never replaced:
// if B is already linked elsewhere, only A -> B is set.  A candidate that was
// linked back by an earlier partner still runs its own query; every match
// other than that partner is combined into the partner.  Each candidate is
// combined into a given partner at most once.
func FindReciprocalMatches(index *BreakpointIndex) MatchStats {
	var (
		stats  MatchStats
		folded = make(map[[2]Handle]struct{})
	)
	fold := func(target *Candidate, extra []*Candidate) {
		var todo []*Candidate
		for _, b := range extra {
			key := [2]Handle{target.Handle(), b.Handle()}
			if _, ok := folded[key]; ok {
				continue
			}
			folded[key] = struct{}{}
			todo = append(todo, b)
		}
		if len(todo) == 0 {
			return
		}
		index.Update(target.Handle(), func(c *Candidate) {
			for _, b := range todo {
				c.Combine(b)
			}
		})
		stats.Folded += len(todo)
	}
	index.Each(func(a *Candidate) bool {
		stats.Visited++
		partner := index.Reciprocal(a)
		var (
			target = partner
			extra  []*Candidate
		)
		for _, b := range index.Query(FromField, a.To) {
			if b == a || b == partner || !b.To.Overlaps(a.From) {
				continue
			}
			if target == nil {
				target = b
			} else {
				extra = append(extra, b)
			}
		}
		if target == nil {
			return true
		}
		fold(target, extra)
		if partner != nil {
			return true
		}
		a.SetReciprocal(target.Handle())
		target.SetReciprocal(a.Handle())
		stats.Linked++
		log.Debug.Printf("sv: reciprocal %v <-> %v", a, target)
		return true
	})
	return stats
}
