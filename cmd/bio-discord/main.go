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
	"flag"
	"fmt"
	"runtime"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/svbreak/sv"
	"v.io/x/lib/cmdline"
)

func addExtractFlags(fs *flag.FlagSet, opts *sv.ExtractOpts) {
	fs.IntVar(&opts.MinMapQ, "mapq", sv.DefaultExtractOpts.MinMapQ, "Reads with MAPQ below this level are skipped")
	fs.IntVar(&opts.FilterFlags, "filter-flags", sv.DefaultExtractOpts.FilterFlags, "Reads with a FLAG bit intersecting this value are skipped; ignored if <= 0")
	fs.IntVar(&opts.RequiredFlags, "required-flags", sv.DefaultExtractOpts.RequiredFlags, "Reads without all of these FLAG bits are skipped; ignored if <= 0")
	fs.IntVar(&opts.MinIntraDist, "intradist", sv.DefaultExtractOpts.MinIntraDist, "Minimum distance between the mates of a pair on the same reference for it to be discordant")
	fs.StringVar(&opts.ExcludeBEDPath, "exclude", "", "BED file of regions to ignore; reads or mates touching them are skipped")
	fs.StringVar(&opts.Region, "region", "", "Restrict to reads aligned in this region. Format as <contig>:<1-based first pos>-<last pos>, <contig>:<1-based pos>, or just <contig>")
}

func newCmdExtract() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "extract",
		Short:    "Write the discordant reads of a BAM file as observations",
		ArgsName: "bampath",
	}
	opts := extractFlags{}
	addExtractFlags(&cmd.Flags, &opts.extract)
	cmd.Flags.StringVar(&opts.out, "out", "discord.obs.tsv.gz", "Output path. A .gz suffix selects bgzf compression, .sz selects snappy")
	cmd.Flags.IntVar(&opts.parallelism, "parallelism", runtime.NumCPU(), "Number of BAM decompression and bgzf compression goroutines")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("extract takes one pathname argument, but got %v", argv)
		}
		_, err := extract(vcontext.Background(), argv[0], opts)
		return err
	})
	return cmd
}

func newCmdCall() *cmdline.Command {
	cmd := &cmdline.Command{
		Name: "call",
		Short: `Find breakpoint pairs in a BAM file or an observation file.
Inputs ending in .bam are read as alignments, anything else as observations
written by "extract"`,
		ArgsName: "path",
	}
	opts := callFlags{}
	addExtractFlags(&cmd.Flags, &opts.extract)
	cmd.Flags.IntVar(&opts.call.Extend, "extend", sv.DefaultOpts.Extend, "Bases added to both sides of each read and mate span before clustering")
	cmd.Flags.IntVar(&opts.call.MinEvidence, "min-evidence", sv.DefaultOpts.MinEvidence, "Minimum number of read pairs for a breakpoint to be kept")
	cmd.Flags.StringVar(&opts.format, "format", "tsv", "Output format; 'tsv', 'tsv-bgz', and 'rio' supported")
	cmd.Flags.StringVar(&opts.out, "out", "discord.pairs.tsv", "Output path")
	cmd.Flags.IntVar(&opts.parallelism, "parallelism", runtime.NumCPU(), "Number of BAM decompression and bgzf compression goroutines")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("call takes one pathname argument, but got %v", argv)
		}
		_, err := call(vcontext.Background(), argv[0], opts)
		return err
	})
	return cmd
}

func main() {
	shutdown := grail.Init()
	defer shutdown()
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(&cmdline.Command{
		Name:     "bio-discord",
		Short:    "Find structural-variant breakpoints from discordant read pairs",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdExtract(),
			newCmdCall(),
		},
	})
}
