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

	"github.com/grailbio/svbreak/interval"
)

// Observation is one discordant read: From is where the read aligns, To is
// where its mate aligns (or is estimated to align), and ReadID names the read
// pair.  Both mates of a pair share a ReadID.
type Observation struct {
	ReadID   string
	From     interval.Span
	To       interval.Span
	Negative bool
}

func (o Observation) String() string {
	strand := '+'
	if o.Negative {
		strand = '-'
	}
	return fmt.Sprintf("%s %v -> %v (%c)", o.ReadID, o.From, o.To, strand)
}

// Source yields observations in coordinate order of From: nondecreasing
// From.Start0 within a reference, and each reference in one contiguous run.
// This ordering is not checked.
type Source interface {
	// Scan advances to the next observation, returning false at the end of
	// the input or on error.
	Scan() bool
	// Observation returns the current observation.
	Observation() Observation
	// Err returns the first error encountered, if any.
	Err() error
	// Close releases the source's resources and returns Err().
	Close() error
}

// SliceSource is a Source over an in-memory slice.
type SliceSource struct {
	obs []Observation
	cur Observation
}

// NewSliceSource returns a Source yielding obs in order.
func NewSliceSource(obs []Observation) *SliceSource {
	return &SliceSource{obs: obs}
}

// Scan implements Source.
func (s *SliceSource) Scan() bool {
	if len(s.obs) == 0 {
		return false
	}
	s.cur = s.obs[0]
	s.obs = s.obs[1:]
	return true
}

// Observation implements Source.
func (s *SliceSource) Observation() Observation { return s.cur }

// Err implements Source.
func (s *SliceSource) Err() error { return nil }

// Close implements Source.
func (s *SliceSource) Close() error { return nil }
