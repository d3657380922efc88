package main

import (
	"io"

	"github.com/grailbio/base/tsv"
	"github.com/grailbio/liftover/liftover"
)

func writeStats(w io.Writer, idx *liftover.Index) error {
	out := tsv.NewWriter(w)
	out.WriteString("#CHROM\tSIZE\tCHAINS\tBLOCKS\tALIGNED")
	if err := out.EndLine(); err != nil {
		return err
	}
	for _, s := range idx.Stats() {
		out.WriteString(s.Name)
		out.WriteInt64(s.Size)
		out.WriteInt64(int64(s.Chains))
		out.WriteInt64(int64(s.Blocks))
		out.WriteInt64(s.Aligned)
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	return out.Flush()
}
