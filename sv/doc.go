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

/*Package sv finds candidate structural-variant breakpoints from discordant
  read pairs.

  A discordant read pair is a pair whose mates map to different references,
  or too far apart on the same reference to be explained by the fragment
  size.  Each such read contributes one Observation: the span it aligns to
  ("from"), the span its mate aligns to ("to"), its name, and its strand.

  Breakpoint detection runs in two passes.

  Pass 1 (ClusterBuffer) consumes observations in the order of a
  coordinate-sorted BAM, i.e. nondecreasing from.Start0 within each
  reference.  It keeps a small working set of active Candidates.  A new
  observation joins the first active candidate whose from-span and to-span
  both overlap it; otherwise it starts a new candidate.  Any active candidate
  whose from-span does not overlap the current observation can never overlap
  a later one either, so it is retired: kept in the BreakpointIndex if it has
  at least MinEvidence distinct read pairs, dropped otherwise.

  For example, with Extend=0 and MinEvidence=2,
    r1 chr1:[100,150) -> chr5:[5000,5050)
    r2 chr1:[120,170) -> chr5:[5010,5060)
    r3 chr1:[900,950) -> chr9:[9000,9050)
  produce one candidate chr1:[100,170) -> chr5:[5000,5060) with evidence
  {r1, r2}; r3's candidate has one read pair and is discarded.

  Pass 2 (FindReciprocalMatches) looks, for each finalized candidate A, for
  candidates B whose from-span overlaps A's to-span and whose to-span
  overlaps A's from-span: the other end of the same rearrangement.  All such
  B are folded into the first one found, and A and B are linked.

  The Reporter finally emits each linked pair once.
*/
package sv
