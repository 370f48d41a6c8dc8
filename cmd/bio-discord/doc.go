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

/*
bio-discord finds structural-variant breakpoints supported by discordant read
pairs in a coordinate-sorted BAM file.

A read pair is discordant when its mates align to different references, or to
the same reference more than -intradist bases apart.  Reads of such pairs are
clustered by where they and their mates align; a cluster is reported together
with the cluster for the other end of the same rearrangement, when both have at
least -min-evidence read pairs.

Subcommands:

  extract  writes the discordant reads of a BAM as an observation TSV.
  call     reads a BAM or an observation TSV and writes breakpoint pairs.

Sample usage:

  bio-discord call -exclude blacklist.bed -out pairs.tsv.gz -format tsv-bgz sample.bam

or, keeping the observations for reuse with different clustering options:

  bio-discord extract -out sample.obs.tsv.sz sample.bam
  bio-discord call -extend 500 -min-evidence 3 -out pairs.tsv sample.obs.tsv.sz

Output coordinates are 0-based half-open, as in BEDPE.
*/
package main
