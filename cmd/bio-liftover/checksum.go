package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"hash"
	"io"
	"sort"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/unsafe"
	"github.com/grailbio/liftover/encoding/chain"
)

// chromChecksum is the checksum of the chains starting on one source
// chromosome.  Every field is a sum, so the checksum does not depend on the
// order of the chains in the file.
type chromChecksum struct {
	// Name of the source chromosome.
	Name string
	// NChains is the number of chains.
	NChains int64
	// NBlocks is the number of aligned blocks.
	NBlocks int64
	// SumScore is the sum of chain scores.
	SumScore int64
	// SumHeader is the sum of the hashes of the chain headers.
	SumHeader uint64
	// SumBlocks is the sum of the hashes of each chain's block list.
	SumBlocks uint64
}

type fileChecksum struct {
	Chroms []chromChecksum
}

func (c *chromChecksum) add(ch *chain.Chain, h hash.Hash64) {
	c.NChains++
	c.NBlocks += int64(len(ch.Blocks))
	c.SumScore += ch.Score

	h.Reset()
	h.Write(unsafe.StringToBytes(ch.String())) // nolint: errcheck
	c.SumHeader += h.Sum64()

	h.Reset()
	var buf [32]byte
	for _, b := range ch.Blocks {
		binary.LittleEndian.PutUint64(buf[0:], uint64(b.SourceFrom))
		binary.LittleEndian.PutUint64(buf[8:], uint64(b.SourceTo))
		binary.LittleEndian.PutUint64(buf[16:], uint64(b.TargetFrom))
		binary.LittleEndian.PutUint64(buf[24:], uint64(b.TargetTo))
		h.Write(buf[:]) // nolint: errcheck
	}
	c.SumBlocks += h.Sum64()
}

// checksumChains computes the checksum of the chains read from r.
func checksumChains(r chain.LineReader) (fileChecksum, error) {
	byName := map[string]*chromChecksum{}
	h := seahash.New()
	sc := chain.NewScanner(r)
	var c chain.Chain
	for sc.Scan(&c) {
		csum, ok := byName[c.SourceName]
		if !ok {
			csum = &chromChecksum{Name: c.SourceName}
			byName[c.SourceName] = csum
		}
		csum.add(&c, h)
	}
	if err := sc.Err(); err != nil {
		return fileChecksum{}, err
	}
	fc := fileChecksum{Chroms: make([]chromChecksum, 0, len(byName))}
	for _, csum := range byName {
		fc.Chroms = append(fc.Chroms, *csum)
	}
	sort.Slice(fc.Chroms, func(i, j int) bool { return fc.Chroms[i].Name < fc.Chroms[j].Name })
	return fc, nil
}

func checksum(ctx context.Context, path string, w io.Writer) error {
	in, err := chain.Open(ctx, path)
	if err != nil {
		return err
	}
	defer in.Close() // nolint: errcheck
	fc, err := checksumChains(in)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
