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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

const testBED = `track name=blacklist
chr1	100	200
chr1	150	250
chr1	250	300
chr1	400	400
chr1	500	600
chr2	10	20
chr3	7	7
`

func TestNewBEDUnion(t *testing.T) {
	u, err := NewBEDUnion(strings.NewReader(testBED))
	assert.NoError(t, err)
	expect.EQ(t, u.nameMap["chr1"], []PosType{100, 300, 500, 600})
	expect.EQ(t, u.nameMap["chr2"], []PosType{10, 20})
	_, found := u.nameMap["chr3"]
	expect.True(t, found)
	expect.EQ(t, u.NRef(), 3)
}

func TestNewBEDUnionUnsorted(t *testing.T) {
	for _, bed := range []string{
		"chr1\t100\t200\nchr2\t1\t2\nchr1\t300\t400\n",
		"chr1\t100\t200\nchr1\t50\t60\n",
		"chr1\t100\n",
		"chr1\t100\t50\n",
	} {
		_, err := NewBEDUnion(strings.NewReader(bed))
		expect.True(t, err != nil, "bed %q", bed)
	}
}

func TestBEDUnionQueries(t *testing.T) {
	u, err := NewBEDUnion(strings.NewReader(testBED))
	assert.NoError(t, err)

	tests := []struct {
		span       Span
		intersects bool
	}{
		{Span{"chr1", 0, 100}, false},
		{Span{"chr1", 0, 101}, true},
		{Span{"chr1", 150, 160}, true},
		{Span{"chr1", 299, 310}, true},
		{Span{"chr1", 300, 500}, false},
		{Span{"chr1", 300, 501}, true},
		{Span{"chr1", 600, 700}, false},
		// Out-of-order query falls back to binary search.
		{Span{"chr1", 120, 130}, true},
		{Span{"chr2", 0, 5}, false},
		{Span{"chr2", 15, 16}, true},
		{Span{"chr3", 0, 100}, false},
		{Span{"chr4", 0, 100}, false},
	}
	for _, tt := range tests {
		expect.EQ(t, u.Intersects(tt.span), tt.intersects, "span %v", tt.span)
	}

	c := u.Clone()
	expect.True(t, c.Intersects(Span{"chr2", 0, 11}))
}

func TestNewBEDUnionFromPathGzip(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(tempDir, "exclude.bed.gz")
	f, err := os.Create(path)
	assert.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(testBED))
	assert.NoError(t, err)
	assert.NoError(t, gz.Close())
	assert.NoError(t, f.Close())

	u, err := NewBEDUnionFromPath(vcontext.Background(), path)
	assert.NoError(t, err)
	expect.EQ(t, u.nameMap["chr1"], []PosType{100, 300, 500, 600})
}
