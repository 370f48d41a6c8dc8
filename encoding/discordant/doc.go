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

// Package discordant reads and writes discordant-read observations as
// tab-separated text, one observation per line:
//
//   READ  FROM_CHROM  FROM_START  FROM_END  TO_CHROM  TO_START  TO_END  STRAND
//
// Coordinates are 0-based half-open and STRAND is "+" or "-".  The first line
// is a header naming the columns.  Files ending in ".gz" are bgzf-compressed;
// files ending in ".sz" use the snappy framing format, which is faster for
// intermediate files.
package discordant
