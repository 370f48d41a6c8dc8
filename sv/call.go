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

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// ctxCheckInterval is the number of observations between context checks.
const ctxCheckInterval = 1 << 16

// CallStats summarizes a Call.
type CallStats struct {
	Cluster ClusterStats
	Match   MatchStats
	// Pairs is the number of records written.
	Pairs int
}

// Call runs breakpoint detection over src and writes the reported pairs to
// out.  It does not close src or out.
func Call(ctx context.Context, src Source, opts Opts, out PairWriter) (stats CallStats, err error) {
	if err = opts.Validate(); err != nil {
		return
	}
	index := NewBreakpointIndex()
	buf := NewClusterBuffer(opts, index)
	for n := 0; src.Scan(); n++ {
		if n%ctxCheckInterval == 0 {
			if err = ctx.Err(); err != nil {
				return
			}
		}
		buf.Add(src.Observation())
	}
	if err = src.Err(); err != nil {
		return stats, errors.E(err, "sv: reading observations")
	}
	buf.Done()
	stats.Cluster = buf.Stats()
	log.Printf("sv: %d observations, %d candidates created, %d merged, %d finalized, %d discarded",
		stats.Cluster.Observations, stats.Cluster.Created, stats.Cluster.Merged,
		stats.Cluster.Finalized, stats.Cluster.Discarded)

	if err = ctx.Err(); err != nil {
		return
	}
	stats.Match = FindReciprocalMatches(index)
	log.Printf("sv: %d of %d candidates linked to a reciprocal, %d folded",
		stats.Match.Linked, stats.Match.Visited, stats.Match.Folded)

	pairs := NewReporter(opts.MinEvidence).Pairs(index)
	for i := range pairs {
		if err = out.Write(&pairs[i]); err != nil {
			return stats, errors.E(err, "sv: writing pairs")
		}
		stats.Pairs++
	}
	log.Printf("sv: %d breakpoint pairs reported", stats.Pairs)
	return
}
