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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
)

// PosType is the type used to store BED endpoints.  int32 is what BAM is
// limited to.
type PosType int32

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = math.MaxInt32

// searchPosTypes returns the index of the first element of a which is >= x,
// or len(a).
func searchPosTypes(a []PosType, x PosType) int {
	return sort.Search(len(a), func(i int) bool { return a[i] >= x })
}

// expsearchPosTypes is searchPosTypes for a caller which knows the answer is
// at least idx.  It probes a[idx], a[idx+1], a[idx+3], a[idx+7], ... before
// falling back to binary search, which is cheaper than a full binary search
// when queries arrive in coordinate order.
func expsearchPosTypes(a []PosType, x PosType, idx int) int {
	nextIncr := 1
	startIdx := idx
	endIdx := len(a)
	for idx < endIdx {
		if a[idx] >= x {
			endIdx = idx
			break
		}
		startIdx = idx + 1
		idx += nextIncr
		nextIncr *= 2
	}
	for startIdx < endIdx {
		midIdx := int(uint(startIdx+endIdx) >> 1)
		if a[midIdx] >= x {
			endIdx = midIdx
		} else {
			startIdx = midIdx + 1
		}
	}
	return startIdx
}

// BEDUnion is the union of the intervals in a BED file.  For each reference,
// the merged intervals are stored as a flat sorted endpoint sequence
// {start_0, end_0, start_1, end_1, ...}, so that a position p is covered iff
// the number of endpoints <= p is odd.
//
// A BEDUnion caches the last queried reference and endpoint index to make
// coordinate-ordered queries cheap.  It is therefore not safe for concurrent
// use; call Clone to get an independent query state.
type BEDUnion struct {
	// nameMap maps a reference name to its endpoint sequence.  Always
	// initialized.
	nameMap map[string][]PosType
	// lastRefName and lastEndpoints describe the most recently queried
	// reference.
	lastRefName   string
	lastEndpoints []PosType
	// lastPosPlus1 is 1 + the start of the last query on lastRefName, and
	// lastIdx is searchPosTypes(lastEndpoints, lastPosPlus1).
	lastPosPlus1 PosType
	lastIdx      int
}

func newBEDUnion() BEDUnion {
	return BEDUnion{nameMap: make(map[string][]PosType)}
}

// NewBEDUnion loads the intervals from a BED file sorted by reference and
// start position, merging touching and overlapping intervals and dropping
// empty ones.  Only the first three columns are read.
func NewBEDUnion(r io.Reader) (BEDUnion, error) {
	u := newBEDUnion()
	scanner := bufio.NewScanner(r)
	var (
		lineIdx   int
		totBases  int
		prevRef   string
		endpoints []PosType
		curStart  PosType = -1
		curEnd    PosType = -1
	)
	// flushPrev saves the pending interval and endpoint sequence of prevRef.
	flushPrev := func() {
		if prevRef == "" {
			return
		}
		if curEnd != -1 {
			endpoints = append(endpoints, curStart, curEnd)
		}
		u.nameMap[prevRef] = endpoints
	}
	for scanner.Scan() {
		lineIdx++
		line := scanner.Bytes()
		if len(line) == 0 || line[0] == '#' || bytes.HasPrefix(line, []byte("track")) || bytes.HasPrefix(line, []byte("browser")) {
			continue
		}
		tokens := bytes.Fields(line)
		if len(tokens) < 3 {
			return BEDUnion{}, fmt.Errorf("interval.NewBEDUnion: line %d has fewer than 3 columns", lineIdx)
		}
		start, err := strconv.Atoi(string(tokens[1]))
		if err != nil {
			return BEDUnion{}, fmt.Errorf("interval.NewBEDUnion: line %d: %v", lineIdx, err)
		}
		end, err := strconv.Atoi(string(tokens[2]))
		if err != nil {
			return BEDUnion{}, fmt.Errorf("interval.NewBEDUnion: line %d: %v", lineIdx, err)
		}
		if start < 0 || end < start || end >= PosTypeMax {
			return BEDUnion{}, fmt.Errorf("interval.NewBEDUnion: invalid coordinate pair [%d, %d) on line %d", start, end, lineIdx)
		}
		if refName := string(tokens[0]); refName != prevRef {
			flushPrev()
			if _, found := u.nameMap[refName]; found {
				return BEDUnion{}, fmt.Errorf("interval.NewBEDUnion: unsorted input (split reference %s) on line %d", refName, lineIdx)
			}
			prevRef = refName
			endpoints = nil
			curStart, curEnd = -1, -1
		}
		if start == end {
			continue
		}
		switch {
		case curEnd == -1:
			curStart, curEnd = PosType(start), PosType(end)
			totBases += end - start
		case PosType(start) > curEnd:
			endpoints = append(endpoints, curStart, curEnd)
			curStart, curEnd = PosType(start), PosType(end)
			totBases += end - start
		case PosType(start) < curStart:
			return BEDUnion{}, fmt.Errorf("interval.NewBEDUnion: unsorted input on line %d", lineIdx)
		case PosType(end) > curEnd:
			totBases += end - int(curEnd)
			curEnd = PosType(end)
		}
	}
	if err := scanner.Err(); err != nil {
		return BEDUnion{}, err
	}
	flushPrev()
	log.Printf("BED loaded, %d base(s) covered on %d reference(s)", totBases, len(u.nameMap))
	return u, nil
}

// NewBEDUnionFromPath is a wrapper for NewBEDUnion that takes a path instead
// of an io.Reader.  Gzipped files are detected by extension.
func NewBEDUnionFromPath(ctx context.Context, path string) (u BEDUnion, err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, in, &err)
	reader := io.Reader(in.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(reader); err != nil {
			return
		}
		defer func() {
			if e := gz.Close(); e != nil && err == nil {
				err = e
			}
		}()
		reader = gz
	}
	return NewBEDUnion(reader)
}

// NRef returns the number of references mentioned by the BED.
func (u *BEDUnion) NRef() int {
	return len(u.nameMap)
}

func (u *BEDUnion) endpointIndex(refName string, posPlus1 PosType) (endpoints []PosType, idx int) {
	if refName != u.lastRefName || u.lastEndpoints == nil {
		u.lastRefName = refName
		u.lastEndpoints = u.nameMap[refName]
		if u.lastEndpoints == nil {
			return nil, 0
		}
		u.lastIdx = searchPosTypes(u.lastEndpoints, posPlus1)
	} else if posPlus1 >= u.lastPosPlus1 {
		u.lastIdx = expsearchPosTypes(u.lastEndpoints, posPlus1, u.lastIdx)
	} else {
		u.lastIdx = searchPosTypes(u.lastEndpoints, posPlus1)
	}
	u.lastPosPlus1 = posPlus1
	return u.lastEndpoints, u.lastIdx
}

// Intersects returns whether any covered base lies in s.
func (u *BEDUnion) Intersects(s Span) bool {
	endpoints, idx := u.endpointIndex(s.RefName, PosType(s.Start0)+1)
	if endpoints == nil {
		return false
	}
	if idx&1 == 1 {
		return true
	}
	return idx < len(endpoints) && int(endpoints[idx]) < s.End
}

// Clone returns a BEDUnion which shares the interval set, but has its own
// query state.
func (u *BEDUnion) Clone() BEDUnion {
	return BEDUnion{nameMap: u.nameMap}
}
