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

	"github.com/grailbio/base/errors"
)

// Opts controls clustering and reporting.
type Opts struct {
	// Extend is the number of bases added to both sides of each
	// observation's from- and to-spans before clustering.  Larger values
	// merge more distant reads into the same candidate, at the cost of
	// breakpoint resolution.
	Extend int
	// MinEvidence is the minimum number of distinct read pairs a candidate
	// needs to be kept after clustering, and to be reported.
	MinEvidence int
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	Extend:      1000,
	MinEvidence: 2,
}

// Validate returns an error if opts is unusable.
func (opts *Opts) Validate() error {
	if opts.Extend < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("sv: extend must be >= 0, got %d", opts.Extend))
	}
	if opts.MinEvidence < 1 {
		return errors.E(errors.Invalid, fmt.Sprintf("sv: min-evidence must be >= 1, got %d", opts.MinEvidence))
	}
	return nil
}
