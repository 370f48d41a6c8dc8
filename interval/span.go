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

package interval

import (
	"fmt"
)

// Span is a half-open interval [Start0, End) on the reference sequence
// RefName.  Spans are values; operations return new Spans instead of
// modifying the receiver.
type Span struct {
	RefName string
	Start0  int
	End     int
}

// NewSpan returns the span [start0, end) on refName.  It panics if
// end < start0.
func NewSpan(refName string, start0, end int) Span {
	if end < start0 {
		panic(fmt.Sprintf("internal error: interval.NewSpan: inverted span %s:%d-%d", refName, start0, end))
	}
	return Span{RefName: refName, Start0: start0, End: end}
}

// Len returns the number of bases covered by s.
func (s Span) Len() int {
	return s.End - s.Start0
}

// Overlaps returns whether s and other share at least one base.
func (s Span) Overlaps(other Span) bool {
	return s.RefName == other.RefName && s.Start0 < other.End && other.Start0 < s.End
}

// Union returns the smallest span covering both s and other.  Both spans must
// be on the same reference; callers are expected to check with Overlaps (or
// by comparing RefName) first.
func (s Span) Union(other Span) Span {
	if s.RefName != other.RefName {
		panic(fmt.Sprintf("internal error: interval.Span.Union: reference mismatch (%v vs. %v)", s, other))
	}
	u := s
	if other.Start0 < u.Start0 {
		u.Start0 = other.Start0
	}
	if other.End > u.End {
		u.End = other.End
	}
	return u
}

// Pad widens s by n bases on both sides.  The start is clamped at zero.
func (s Span) Pad(n int) Span {
	p := s
	p.Start0 -= n
	if p.Start0 < 0 {
		p.Start0 = 0
	}
	p.End += n
	return p
}

// String renders s as "ref:start0-end".
func (s Span) String() string {
	return fmt.Sprintf("%s:%d-%d", s.RefName, s.Start0, s.End)
}
