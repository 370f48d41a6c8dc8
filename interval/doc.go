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

/*Package interval provides the genomic coordinate types shared by the
  breakpoint finder: Span, a half-open interval on a named reference, and
  BEDUnion, a merged set of BED intervals used to mask problematic regions.

  All coordinates are 0-based and half-open, matching BAM and BED.  Region
  strings typed by users are 1-based and closed, matching samtools.
*/
package interval
