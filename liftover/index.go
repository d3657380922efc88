package liftover

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/liftover/encoding/chain"
	"github.com/grailbio/liftover/interval"
)

// ChainID identifies a chain owned by an Index.  IDs are dense, starting at
// zero, in the order the chains were given to NewIndex.
type ChainID int32

// blockRef locates one aligned block: Index.chains[chain].Blocks[block].
// Interval payloads are indices into Index.refs.
type blockRef struct {
	chain ChainID
	block int32
}

// Index maps source chromosome positions to the chain blocks that cover
// them.  It is immutable once built and safe for concurrent use.
type Index struct {
	chains      []chain.Chain
	refs        []blockRef
	trees       map[string]*interval.Tree
	sourceSizes map[string]int64
	targetSizes map[string]int64
}

// NewIndex builds an Index over chains.  The Index takes ownership of the
// slice; the caller must not modify it afterwards.
//
// Every chain naming a given source (resp. target) chromosome must agree on
// its size.  Disagreement is reported as an errors.Integrity error.
func NewIndex(chains []chain.Chain) (*Index, error) {
	if len(chains) > math.MaxInt32 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("liftover.NewIndex: too many chains (%d)", len(chains)))
	}
	idx := &Index{
		chains:      chains,
		trees:       map[string]*interval.Tree{},
		sourceSizes: map[string]int64{},
		targetSizes: map[string]int64{},
	}
	for i := range chains {
		c := &chains[i]
		if err := checkSize(idx.sourceSizes, "source", c.SourceName, c.SourceSize); err != nil {
			return nil, err
		}
		if err := checkSize(idx.targetSizes, "target", c.TargetName, c.TargetSize); err != nil {
			return nil, err
		}
		tree, ok := idx.trees[c.SourceName]
		if !ok {
			tree = interval.NewTree(0, interval.PosType(c.SourceSize))
			idx.trees[c.SourceName] = tree
		}
		for j, b := range c.Blocks {
			if len(idx.refs) == math.MaxUint32 {
				return nil, errors.E(errors.Invalid, "liftover.NewIndex: too many blocks")
			}
			payload := uint32(len(idx.refs))
			idx.refs = append(idx.refs, blockRef{chain: ChainID(i), block: int32(j)})
			if err := tree.Insert(interval.PosType(b.SourceFrom), interval.PosType(b.SourceTo), payload); err != nil {
				return nil, errors.E(errors.Integrity, fmt.Sprintf("liftover.NewIndex: chain %q", c.String()), err)
			}
		}
		if log.At(log.Debug) {
			log.Debug.Printf("liftover: indexed chain %d (%s:%d-%d, %d blocks)",
				i, c.SourceName, c.SourceStart, c.SourceEnd, len(c.Blocks))
		}
	}
	for _, tree := range idx.trees {
		tree.Build()
	}
	log.Printf("liftover: indexed %d chains, %d blocks over %d source chromosomes",
		len(chains), len(idx.refs), len(idx.trees))
	return idx, nil
}

func checkSize(sizes map[string]int64, side, name string, size int64) error {
	prev, ok := sizes[name]
	if !ok {
		sizes[name] = size
		return nil
	}
	if prev != size {
		return errors.E(errors.Integrity, fmt.Sprintf(
			"liftover: chains disagree on the size of %s chromosome %s (%d vs %d)", side, name, prev, size))
	}
	return nil
}

// Load reads a chain file from r and indexes it.
func Load(r io.Reader) (*Index, error) {
	chains, err := chain.Read(r)
	if err != nil {
		return nil, err
	}
	return NewIndex(chains)
}

// Open reads and indexes the chain file at path.  See chain.Open for the
// supported paths.
func Open(ctx context.Context, path string) (*Index, error) {
	chains, err := chain.ReadPath(ctx, path)
	if err != nil {
		return nil, err
	}
	idx, err := NewIndex(chains)
	if err != nil {
		return nil, errors.E(err, path)
	}
	return idx, nil
}

// Hit is an aligned block that covers a queried position.
type Hit struct {
	SourceFrom, SourceTo int64
	TargetFrom, TargetTo int64
	Chain                ChainID
}

// Query returns every block on source chromosome chrom that contains the
// 0-based position pos, ordered by block start.  The bool result is false
// iff no chain starts on chrom.
func (idx *Index) Query(chrom string, pos int64) ([]Hit, bool) {
	tree, ok := idx.trees[chrom]
	if !ok {
		return nil, false
	}
	entries := tree.Query(interval.PosType(pos), nil)
	hits := make([]Hit, len(entries))
	for i, e := range entries {
		ref := idx.refs[e.Payload]
		b := &idx.chains[ref.chain].Blocks[ref.block]
		hits[i] = Hit{
			SourceFrom: b.SourceFrom,
			SourceTo:   b.SourceTo,
			TargetFrom: b.TargetFrom,
			TargetTo:   b.TargetTo,
			Chain:      ref.chain,
		}
	}
	return hits, true
}

// Chain returns the chain with the given ID.  The result must not be
// modified.
func (idx *Index) Chain(id ChainID) *chain.Chain { return &idx.chains[id] }

// NumChains returns the number of indexed chains.
func (idx *Index) NumChains() int { return len(idx.chains) }

// SourceChroms returns the source chromosome names, sorted.
func (idx *Index) SourceChroms() []string {
	names := make([]string, 0, len(idx.trees))
	for name := range idx.trees {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SourceSize returns the size of the named source chromosome.
func (idx *Index) SourceSize(name string) (int64, bool) {
	size, ok := idx.sourceSizes[name]
	return size, ok
}

// TargetSize returns the size of the named target chromosome.
func (idx *Index) TargetSize(name string) (int64, bool) {
	size, ok := idx.targetSizes[name]
	return size, ok
}

// ChromStats summarizes the chains starting on one source chromosome.
type ChromStats struct {
	Name   string
	Size   int64
	Chains int
	Blocks int
	// Aligned is the total length of the blocks.
	Aligned int64
}

// Stats returns one ChromStats per source chromosome, sorted by name.
func (idx *Index) Stats() []ChromStats {
	byName := map[string]*ChromStats{}
	for i := range idx.chains {
		c := &idx.chains[i]
		s, ok := byName[c.SourceName]
		if !ok {
			s = &ChromStats{Name: c.SourceName, Size: c.SourceSize}
			byName[c.SourceName] = s
		}
		s.Chains++
		s.Blocks += len(c.Blocks)
		for _, b := range c.Blocks {
			s.Aligned += b.Len()
		}
	}
	stats := make([]ChromStats, 0, len(byName))
	for _, s := range byName {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}
