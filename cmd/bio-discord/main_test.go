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

package main

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/svbreak/encoding/discordant"
	"github.com/grailbio/svbreak/sv"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestMain(m *testing.M) {
	shutdown := grail.Init()
	code := m.Run()
	shutdown()
	os.Exit(code)
}

// writeTestBAM writes two read pairs joining chr1:~100 and chr2:~5000, plus
// one concordant pair.
func writeTestBAM(t *testing.T, path string) {
	chr1, err := sam.NewReference("chr1", "", "", 100000, nil, nil)
	assert.NoError(t, err)
	chr2, err := sam.NewReference("chr2", "", "", 100000, nil, nil)
	assert.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{chr1, chr2})
	assert.NoError(t, err)
	header.Version = "1.5"
	header.SortOrder = sam.Coordinate

	mc, err := sam.NewAux(sam.NewTag("MC"), "50M")
	assert.NoError(t, err)
	f, err := os.Create(path)
	assert.NoError(t, err)
	w, err := bam.NewWriter(f, header, 1)
	assert.NoError(t, err)
	for _, r := range []struct {
		name    string
		ref     *sam.Reference
		pos     int
		mateRef *sam.Reference
		matePos int
		flags   sam.Flags
	}{
		{"r1", chr1, 100, chr2, 5000, sam.Read1},
		{"c1", chr1, 110, chr1, 400, sam.Read1},
		{"r2", chr1, 120, chr2, 5010, sam.Read1 | sam.Reverse},
		{"c1", chr1, 400, chr1, 110, sam.Read2 | sam.Reverse},
		{"r1", chr2, 5000, chr1, 100, sam.Read2 | sam.Reverse},
		{"r2", chr2, 5010, chr1, 120, sam.Read2},
	} {
		rec, err := sam.NewRecord(r.name, r.ref, r.mateRef, r.pos, r.matePos, 0, 60,
			[]sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 50)},
			bytes.Repeat([]byte{'A'}, 50), bytes.Repeat([]byte{30}, 50), []sam.Aux{mc})
		assert.NoError(t, err)
		rec.Flags = sam.Paired | r.flags
		assert.NoError(t, w.Write(rec))
	}
	assert.NoError(t, w.Close())
	assert.NoError(t, f.Close())
}

func TestExtractAndCall(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	bamPath := filepath.Join(tempDir, "test.bam")
	writeTestBAM(t, bamPath)

	obsPath := filepath.Join(tempDir, "test.obs.tsv.sz")
	n, err := extract(ctx, bamPath, extractFlags{
		extract:     sv.DefaultExtractOpts,
		out:         obsPath,
		parallelism: 2,
	})
	assert.NoError(t, err)
	expect.EQ(t, n, 4)
	obs, err := discordant.ReadAll(ctx, obsPath)
	assert.NoError(t, err)
	assert.EQ(t, len(obs), 4)
	expect.EQ(t, obs[0].To.String(), "chr2:5000-5050")
	expect.True(t, obs[1].Negative)

	flags := callFlags{
		extract:     sv.DefaultExtractOpts,
		call:        sv.DefaultOpts,
		format:      "tsv",
		parallelism: 2,
	}
	// Calling from the BAM and from the extracted observations gives the
	// same result.
	flags.out = filepath.Join(tempDir, "from-bam.tsv")
	stats, err := call(ctx, bamPath, flags)
	assert.NoError(t, err)
	expect.EQ(t, stats.Pairs, 1)
	fromBAM, err := ioutil.ReadFile(flags.out)
	assert.NoError(t, err)

	flags.out = filepath.Join(tempDir, "from-obs.tsv")
	stats, err = call(ctx, obsPath, flags)
	assert.NoError(t, err)
	expect.EQ(t, stats.Pairs, 1)
	fromObs, err := ioutil.ReadFile(flags.out)
	assert.NoError(t, err)
	expect.EQ(t, string(fromObs), string(fromBAM))

	lines := strings.Split(strings.TrimSpace(string(fromBAM)), "\n")
	assert.EQ(t, len(lines), 2)
	expect.EQ(t, strings.Split(lines[1], "\t")[1:10],
		[]string{"chr1", "0", "1170", "chr2", "4000", "6060", "1", "1", "2"})
}

func TestCallErrors(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	flags := callFlags{
		extract: sv.DefaultExtractOpts,
		call:    sv.DefaultOpts,
		format:  "vcf",
		out:     filepath.Join(tempDir, "out.tsv"),
	}
	_, err := call(ctx, filepath.Join(tempDir, "missing.bam"), flags)
	expect.True(t, err != nil)

	flags.format = "tsv"
	_, err = call(ctx, filepath.Join(tempDir, "missing.bam"), flags)
	expect.True(t, err != nil)
	_, err = call(ctx, filepath.Join(tempDir, "missing.tsv"), flags)
	expect.True(t, err != nil)

	flags.call.MinEvidence = 0
	_, err = call(ctx, filepath.Join(tempDir, "missing.tsv"), flags)
	expect.True(t, err != nil)
}
