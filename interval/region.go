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
	"strconv"
	"strings"
)

// ParseRegionString parses a region string of one of the forms
//   [ref name]:[1-based first pos]-[last pos]
//   [ref name]:[1-based pos]
//   [ref name]
// returning the equivalent 0-based half-open Span.  The span
// [0, PosTypeMax - 1) is returned if there is no positional restriction.
func ParseRegionString(region string) (Span, error) {
	if len(region) == 0 {
		return Span{}, fmt.Errorf("interval.ParseRegionString: empty region string")
	}
	colonPos := strings.LastIndexByte(region, ':')
	if colonPos == -1 {
		return Span{RefName: region, Start0: 0, End: PosTypeMax - 1}, nil
	}
	if colonPos == 0 {
		return Span{}, fmt.Errorf("interval.ParseRegionString: empty reference name in %q", region)
	}
	result := Span{RefName: region[:colonPos]}
	rangeStr := strings.Replace(region[colonPos+1:], ",", "", -1)
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		pos1, err := strconv.ParseInt(rangeStr, 10, 32)
		if err != nil {
			return Span{}, err
		}
		if pos1 <= 0 {
			return Span{}, fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr)
		}
		result.Start0 = int(pos1 - 1)
		result.End = int(pos1)
		return result, nil
	}
	start1, err := strconv.Atoi(rangeStr[:dashPos])
	if err != nil {
		return Span{}, err
	}
	if start1 <= 0 {
		return Span{}, fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr[:dashPos])
	}
	end, err := strconv.Atoi(rangeStr[dashPos+1:])
	if err != nil {
		return Span{}, err
	}
	if end < start1 || end >= PosTypeMax {
		return Span{}, fmt.Errorf("interval.ParseRegionString: invalid range string %v", rangeStr)
	}
	result.Start0 = start1 - 1
	result.End = end
	return result, nil
}
