// Package chain reads and writes UCSC chain files, the pairwise alignment
// format used by liftOver to convert coordinates between genome assemblies.
// See http://genome.ucsc.edu/goldenPath/help/chain.html.  Briefly, a chain
// file is a sequence of stanzas of the form
//
//   chain 4900 chrY 58368225 + 25985403 25985638 chr5 151006098 - 43257292 43257528 1
//   9       1       0
//   10      0       5
//   ...
//   48
//
// The header names the source ("reference" in UCSC terms) and target
// ("query") sequences, and every body line except the last one is a
// "size sourceGap targetGap" triple.  The final line holds only the size of
// the last ungapped block.
//
// All coordinates are 0-based, half-open.  Target coordinates of a chain on
// the '-' strand are relative to the reverse complement of the target
// sequence.
package chain

import "fmt"

// Strand is the orientation of a chain's target sequence.
type Strand byte

const (
	// Forward is the '+' strand.
	Forward Strand = '+'
	// Reverse is the '-' strand.
	Reverse Strand = '-'
)

// ParseStrand converts "+" or "-" to a Strand.
func ParseStrand(s string) (Strand, error) {
	switch s {
	case "+":
		return Forward, nil
	case "-":
		return Reverse, nil
	}
	return 0, fmt.Errorf("chain.ParseStrand: invalid strand %q", s)
}

// Valid reports whether s is Forward or Reverse.
func (s Strand) Valid() bool {
	return s == Forward || s == Reverse
}

// Flip returns the opposite strand.
//
// REQUIRES: s.Valid().
func (s Strand) Flip() Strand {
	if s == Forward {
		return Reverse
	}
	return Forward
}

func (s Strand) String() string {
	return string(s)
}

// Block is an ungapped aligned segment.  Source and target spans have the
// same length.
type Block struct {
	SourceFrom, SourceTo int64
	TargetFrom, TargetTo int64
}

// Len returns the number of aligned bases in the block.
func (b Block) Len() int64 { return b.SourceTo - b.SourceFrom }

// Chain is a single chain stanza.  The source strand is always '+'.
//
// Blocks cover [SourceStart, SourceEnd) together with the gaps between them;
// gaps are not stored.  The last block ends at SourceEnd and TargetEnd.
type Chain struct {
	Score int64

	SourceName  string
	SourceSize  int64
	SourceStart int64
	SourceEnd   int64

	TargetName   string
	TargetSize   int64
	TargetStrand Strand
	TargetStart  int64
	TargetEnd    int64

	// ID is the optional 13th header field.  It is meaningful only if HasID
	// is set; a chain without an id and a chain with an empty id are
	// different things.
	ID    string
	HasID bool

	Blocks []Block
}

// String returns the chain header line, without the trailing newline.
func (c *Chain) String() string {
	s := fmt.Sprintf("chain %d %s %d + %d %d %s %d %c %d %d",
		c.Score, c.SourceName, c.SourceSize, c.SourceStart, c.SourceEnd,
		c.TargetName, c.TargetSize, c.TargetStrand, c.TargetStart, c.TargetEnd)
	if c.HasID {
		s += " " + c.ID
	}
	return s
}
