package liftover

import (
	"fmt"
	"sort"

	"github.com/grailbio/liftover/encoding/chain"
)

// Result is one converted position.
type Result struct {
	Chrom  string
	Pos    int64
	Strand chain.Strand
	// Score of the chain that produced the result.
	Score int64
}

// Convert maps the 0-based position pos on source chromosome chrom to the
// target assembly.  It returns one Result per block containing pos, highest
// chain score first; results with equal scores keep block order.
//
// The bool result is false iff chrom is not a source chromosome of any
// chain.  A known chromosome with no block at pos yields an empty slice and
// true.
//
// Positions on reverse-strand chains are reported on the target's forward
// coordinate system, and the result strand is flipped relative to strand.
//
// REQUIRES: strand.Valid()
func (idx *Index) Convert(chrom string, pos int64, strand chain.Strand) ([]Result, bool) {
	if !strand.Valid() {
		panic(fmt.Sprintf("liftover.Convert: invalid strand %q", byte(strand)))
	}
	hits, ok := idx.Query(chrom, pos)
	if !ok {
		return nil, false
	}
	results := make([]Result, len(hits))
	for i, h := range hits {
		c := &idx.chains[h.Chain]
		mapped := h.TargetFrom + (pos - h.SourceFrom)
		rs := strand
		if c.TargetStrand == chain.Reverse {
			mapped = c.TargetSize - 1 - mapped
			rs = strand.Flip()
		}
		results[i] = Result{Chrom: c.TargetName, Pos: mapped, Strand: rs, Score: c.Score}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results, true
}
