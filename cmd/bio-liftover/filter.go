package main

import (
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/liftover/encoding/chain"
	"github.com/klauspost/compress/gzip"
)

type filterOpts struct {
	chroms   string
	minScore int64
}

// chainFilter reports whether a chain should be kept.
type chainFilter func(c *chain.Chain) bool

func newChainFilter(opts filterOpts) chainFilter {
	var keep map[string]bool
	if opts.chroms != "" {
		keep = map[string]bool{}
		for _, name := range strings.Split(opts.chroms, ",") {
			keep[name] = true
		}
	}
	return func(c *chain.Chain) bool {
		if keep != nil && !keep[c.SourceName] {
			return false
		}
		return c.Score >= opts.minScore
	}
}

// filterChains copies the chains read from r that pass keep to w.  It
// returns the number of chains read and written.
func filterChains(r chain.LineReader, w io.Writer, keep chainFilter) (nIn, nOut int, err error) {
	sc := chain.NewScanner(r)
	cw := chain.NewWriter(w)
	var c chain.Chain
	for sc.Scan(&c) {
		nIn++
		if !keep(&c) {
			continue
		}
		nOut++
		if err = cw.Write(&c); err != nil {
			return nIn, nOut, err
		}
	}
	if err = sc.Err(); err != nil {
		return nIn, nOut, err
	}
	return nIn, nOut, cw.Flush()
}

func filter(ctx context.Context, srcPath, dstPath string, opts filterOpts) (err error) {
	in, err := chain.Open(ctx, srcPath)
	if err != nil {
		return err
	}
	defer in.Close() // nolint: errcheck

	out, err := file.Create(ctx, dstPath)
	if err != nil {
		return err
	}
	defer func() {
		if e := out.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	w := out.Writer(ctx)
	var gz *gzip.Writer
	if fileio.DetermineType(dstPath) == fileio.Gzip {
		gz = gzip.NewWriter(w)
		w = gz
	}
	nIn, nOut, err := filterChains(in, w, newChainFilter(opts))
	if err != nil {
		return err
	}
	if gz != nil {
		if err = gz.Close(); err != nil {
			return err
		}
	}
	log.Printf("%s: kept %d of %d chains", dstPath, nOut, nIn)
	return nil
}
