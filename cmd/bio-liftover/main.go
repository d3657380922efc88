package main

/*
bio-liftover converts genomic positions between assemblies using UCSC chain
files, and inspects or filters the chain files themselves.
*/

import (
	"context"
	"flag"
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/liftover/liftover"
	"v.io/x/lib/cmdline"
)

const chainArgsHelp = `The chain file is named either by a path, or by a pair of assembly names
such as "hg19 hg38". A pair is resolved with the -search-dir, -cache-dir and
-web flags; see the "locate" command.`

func addLocateFlags(fs *flag.FlagSet, opts *liftover.LocateOpts) {
	fs.StringVar(&opts.SearchDir, "search-dir", opts.SearchDir, "Directory searched first for <from>To<To>.over.chain[.gz]. Empty disables the search")
	fs.StringVar(&opts.CacheDir, "cache-dir", opts.CacheDir, "Directory holding downloaded chain files. Empty disables the cache")
	fs.BoolVar(&opts.UseWeb, "web", opts.UseWeb, "Download missing chain files")
	fs.BoolVar(&opts.WriteCache, "write-cache", opts.WriteCache, "Keep downloaded chain files in -cache-dir")
	fs.StringVar(&opts.BaseURL, "base-url", opts.BaseURL, "Root of the chain file download tree")
}

// openIndex loads the chain file named by chainArgs, which is either a path
// or a pair of assembly names.
func openIndex(ctx context.Context, chainArgs []string, opts liftover.LocateOpts) (*liftover.Index, error) {
	switch len(chainArgs) {
	case 1:
		return liftover.Open(ctx, chainArgs[0])
	case 2:
		return liftover.OpenPair(ctx, chainArgs[0], chainArgs[1], opts)
	}
	return nil, fmt.Errorf("expected a chain path or a pair of assembly names, but got %v", chainArgs)
}

func newCmdConvert() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "convert",
		Short:    "Convert positions listed in a TSV file",
		ArgsName: "chainpath|fromdb todb inputpath",
		Long: `Each row of the input TSV holds a chromosome, a position and a strand ('+'
or '-'). Lines starting with '#' are skipped. For every input row, the output
TSV has one row per converted position, best chain first:

  #CHROM POS STRAND TARGET_CHROM TARGET_POS TARGET_STRAND SCORE

Rows that cannot be converted are written to -unmapped, with a REASON column
of either "unknown_chrom" or "no_match".

` + chainArgsHelp,
	}
	opts := convertOpts{locate: liftover.DefaultLocateOpts()}
	cmd.Flags.BoolVar(&opts.oneBased, "one-based", false, "Input and output positions are 1-based")
	cmd.Flags.StringVar(&opts.outPath, "out", "", "Output TSV path. Defaults to stdout")
	cmd.Flags.StringVar(&opts.unmappedPath, "unmapped", "", "TSV path for rows that could not be converted. Empty discards them")
	addLocateFlags(&cmd.Flags, &opts.locate)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 && len(argv) != 3 {
			return fmt.Errorf("convert takes chainpath inputpath or fromdb todb inputpath, but got %v", argv)
		}
		return convert(vcontext.Background(), env, argv[:len(argv)-1], argv[len(argv)-1], opts)
	})
	return cmd
}

func newCmdStats() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "stats",
		Short:    "Print per-chromosome statistics of a chain file",
		ArgsName: "chainpath|fromdb todb",
		Long: `Prints, for each source chromosome, its size and the number of chains, blocks
and aligned bases starting on it.

` + chainArgsHelp,
	}
	opts := liftover.DefaultLocateOpts()
	addLocateFlags(&cmd.Flags, &opts)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		idx, err := openIndex(vcontext.Background(), argv, opts)
		if err != nil {
			return err
		}
		return writeStats(env.Stdout, idx)
	})
	return cmd
}

func newCmdLocate() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "locate",
		Short:    "Print the path of the chain file converting fromdb to todb",
		ArgsName: "fromdb todb",
		Long: `The file is looked up, in order, as <from>To<To>.over.chain.gz and
<from>To<To>.over.chain in -search-dir, as <from>To<To>.over.chain.gz in
-cache-dir, and finally downloaded from -base-url.`,
	}
	opts := liftover.DefaultLocateOpts()
	addLocateFlags(&cmd.Flags, &opts)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("locate takes fromdb todb, but got %v", argv)
		}
		path, err := liftover.Locate(vcontext.Background(), argv[0], argv[1], opts)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(env.Stdout, path)
		return err
	})
	return cmd
}

func newCmdFilter() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "filter",
		Short:    "Copy the chains that pass the given filters",
		ArgsName: "srcpath destpath",
		Long:     `The output is gzip-compressed if destpath ends in .gz.`,
	}
	opts := filterOpts{}
	cmd.Flags.StringVar(&opts.chroms, "chrom", "", "Comma-separated list of source chromosomes to keep. Empty keeps all")
	cmd.Flags.Int64Var(&opts.minScore, "min-score", 0, "Drop chains scoring below this value")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("filter takes srcpath destpath, but got %v", argv)
		}
		return filter(vcontext.Background(), argv[0], argv[1], opts)
	})
	return cmd
}

func newCmdChecksum() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "checksum",
		Short:    "Print an order-independent checksum of a chain file",
		ArgsName: "path",
		Long: `The checksum is a JSON summary with, per source chromosome, the number of
chains and blocks and sums of their hashes. Two files holding the same chains
in any order, compressed or not, have the same checksum.`,
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("checksum takes a path, but got %v", argv)
		}
		return checksum(vcontext.Background(), argv[0], env.Stdout)
	})
	return cmd
}

func main() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-liftover",
			Short:    "Convert genomic positions between assemblies using UCSC chain files",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdConvert(),
				newCmdStats(),
				newCmdLocate(),
				newCmdFilter(),
				newCmdChecksum(),
			},
		})
}
