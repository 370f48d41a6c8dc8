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

// Package bamprovider supplies the alignment records scanned by the
// breakpoint finder.
//
// A Provider reads a coordinate-sorted BAM file (from the local filesystem or
// any path understood by github.com/grailbio/base/file, such as S3) and hands
// out Iterators over its records in file order.  NewFakeProvider serves
// in-memory records for tests.
package bamprovider
