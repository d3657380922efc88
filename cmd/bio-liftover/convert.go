package main

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/liftover/encoding/chain"
	"github.com/grailbio/liftover/liftover"
	"v.io/x/lib/cmdline"
)

type convertOpts struct {
	oneBased     bool
	outPath      string
	unmappedPath string
	locate       liftover.LocateOpts
}

// inputRow is one position to convert.
type inputRow struct {
	Chrom  string
	Pos    int64
	Strand string
}

// Reasons reported in the unmapped TSV.
const (
	reasonUnknownChrom = "unknown_chrom"
	reasonNoMatch      = "no_match"
)

type convertStats struct {
	rows, mapped, unknownChrom, noMatch int
}

// convertTSV converts every row read from in.  Results go to out, and rows
// with no result to unmapped, which may be nil.
func convertTSV(idx *liftover.Index, in io.Reader, out, unmapped io.Writer, oneBased bool) (convertStats, error) {
	var (
		stats    convertStats
		offset   int64
		unmapTSV *tsv.Writer
	)
	if oneBased {
		offset = 1
	}
	r := tsv.NewReader(in)
	r.Comment = '#'
	outTSV := tsv.NewWriter(out)
	outTSV.WriteString("#CHROM\tPOS\tSTRAND\tTARGET_CHROM\tTARGET_POS\tTARGET_STRAND\tSCORE")
	if err := outTSV.EndLine(); err != nil {
		return stats, err
	}
	if unmapped != nil {
		unmapTSV = tsv.NewWriter(unmapped)
		unmapTSV.WriteString("#CHROM\tPOS\tSTRAND\tREASON")
		if err := unmapTSV.EndLine(); err != nil {
			return stats, err
		}
	}
	writeUnmapped := func(row inputRow, reason string) error {
		if unmapTSV == nil {
			return nil
		}
		unmapTSV.WriteString(row.Chrom)
		unmapTSV.WriteInt64(row.Pos)
		unmapTSV.WriteString(row.Strand)
		unmapTSV.WriteString(reason)
		return unmapTSV.EndLine()
	}
	for {
		var row inputRow
		if err := r.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return stats, err
		}
		stats.rows++
		strand, err := chain.ParseStrand(row.Strand)
		if err != nil {
			return stats, fmt.Errorf("row %d: %v", stats.rows, err)
		}
		results, ok := idx.Convert(row.Chrom, row.Pos-offset, strand)
		switch {
		case !ok:
			stats.unknownChrom++
			err = writeUnmapped(row, reasonUnknownChrom)
		case len(results) == 0:
			stats.noMatch++
			err = writeUnmapped(row, reasonNoMatch)
		default:
			stats.mapped++
			for _, res := range results {
				outTSV.WriteString(row.Chrom)
				outTSV.WriteInt64(row.Pos)
				outTSV.WriteByte(byte(strand))
				outTSV.WriteString(res.Chrom)
				outTSV.WriteInt64(res.Pos + offset)
				outTSV.WriteByte(byte(res.Strand))
				outTSV.WriteInt64(res.Score)
				if err = outTSV.EndLine(); err != nil {
					break
				}
			}
		}
		if err != nil {
			return stats, err
		}
	}
	if unmapTSV != nil {
		if err := unmapTSV.Flush(); err != nil {
			return stats, err
		}
	}
	return stats, outTSV.Flush()
}

// createOutput opens path for writing, or returns stdout if path is empty.
// The returned function closes the file.
func createOutput(ctx context.Context, path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return f.Writer(ctx), func() error { return f.Close(ctx) }, nil
}

func convert(ctx context.Context, env *cmdline.Env, chainArgs []string, inPath string, opts convertOpts) (err error) {
	idx, err := openIndex(ctx, chainArgs, opts.locate)
	if err != nil {
		return err
	}
	in, err := file.Open(ctx, inPath)
	if err != nil {
		return err
	}
	defer in.Close(ctx) // nolint: errcheck

	out, closeOut, err := createOutput(ctx, opts.outPath, env.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if e := closeOut(); e != nil && err == nil {
			err = e
		}
	}()
	var unmapped io.Writer
	if opts.unmappedPath != "" {
		var closeUnmapped func() error
		if unmapped, closeUnmapped, err = createOutput(ctx, opts.unmappedPath, nil); err != nil {
			return err
		}
		defer func() {
			if e := closeUnmapped(); e != nil && err == nil {
				err = e
			}
		}()
	}
	stats, err := convertTSV(idx, in.Reader(ctx), out, unmapped, opts.oneBased)
	if err != nil {
		return fmt.Errorf("%s: %v", inPath, err)
	}
	log.Printf("converted %d of %d rows (%d on unknown chromosomes, %d without a match)",
		stats.mapped, stats.rows, stats.unknownChrom, stats.noMatch)
	return nil
}
