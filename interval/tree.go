package interval

import (
	"fmt"
	"math"
	"sort"

	"github.com/grailbio/base/errors"
)

// PosType is the type used to represent interval coordinates.  It is 64 bits
// wide since whole-genome alignments describe assemblies whose sequences do
// not all fit in BAM's int32.
type PosType int64

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = math.MaxInt64

// Entry is a half-open interval [Start, End) with an opaque payload.  The
// payload is typically an index into a slice owned by the caller.
type Entry struct {
	Start, End PosType
	Payload    uint32
}

// Contains reports whether pos lies in [e.Start, e.End).
func (e Entry) Contains(pos PosType) bool {
	return e.Start <= pos && pos < e.End
}

// node is an Entry plus the largest End in the implicit subtree rooted at
// the node.
type node struct {
	Entry
	maxEnd PosType
}

// Tree is a static interval index over the domain [min, max).  It is filled
// with Insert, finalized once with Build, and then answers point queries in
// O(log n + k) time.  Overlapping and duplicate intervals are all kept.
//
// Build sorts the entries by (Start, End) and lays them out as an implicit
// balanced binary tree: the node at index i has level k if the lowest k bits
// of i are 1 and bit k is 0; its children are i - 2^(k-1) and i + 2^(k-1).
// Each node also records the maximum End in its subtree, which lets a query
// skip every subtree that ends at or before the query position.
// (This is the layout used by Heng Li's cgranges.)
//
// Insert and Build are not threadsafe.  After Build, a Tree is immutable and
// any number of goroutines may Query it concurrently.
type Tree struct {
	min, max PosType
	nodes    []node
	maxLevel int
	built    bool
}

// NewTree returns an empty Tree over [min, max).
func NewTree(min, max PosType) *Tree {
	if max < min {
		panic(fmt.Sprintf("interval.NewTree: invalid domain [%d, %d)", min, max))
	}
	return &Tree{min: min, max: max, maxLevel: -1}
}

// Domain returns the [min, max) bounds given to NewTree.
func (t *Tree) Domain() (min, max PosType) {
	return t.min, t.max
}

// Insert adds [start, end) with the given payload.  Empty and reversed
// intervals (start >= end) are dropped without error, since they contain no
// position.  Intervals extending outside the domain are rejected.
//
// REQUIRES: Build has not been called.
func (t *Tree) Insert(start, end PosType, payload uint32) error {
	if t.built {
		panic("interval.Tree.Insert: called after Build")
	}
	if start >= end {
		return nil
	}
	if start < t.min || end > t.max {
		return errors.E(errors.Invalid, fmt.Sprintf(
			"interval.Tree.Insert: [%d, %d) is outside the domain [%d, %d)", start, end, t.min, t.max))
	}
	t.nodes = append(t.nodes, node{Entry: Entry{Start: start, End: end, Payload: payload}})
	return nil
}

// Len returns the number of stored intervals.
func (t *Tree) Len() int { return len(t.nodes) }

// Build finalizes the tree.  Calling it more than once is harmless.
func (t *Tree) Build() {
	if t.built {
		return
	}
	t.built = true
	nodes := t.nodes
	// Stable, so that identical intervals are reported in insertion order.
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Start != nodes[j].Start {
			return nodes[i].Start < nodes[j].Start
		}
		return nodes[i].End < nodes[j].End
	})
	n := len(nodes)
	if n == 0 {
		t.maxLevel = -1
		return
	}
	// Leaves, i.e. the even indices.  last tracks the maxEnd of the
	// rightmost node at the current level, which stands in for right
	// children beyond n.
	var lastIdx int
	var last PosType
	for i := 0; i < n; i += 2 {
		lastIdx = i
		last = nodes[i].End
		nodes[i].maxEnd = last
	}
	k := 1
	for ; 1<<uint(k) <= n; k++ {
		x := 1 << uint(k-1)
		i0 := (x << 1) - 1
		step := x << 2
		for i := i0; i < n; i += step {
			e := nodes[i].End
			if el := nodes[i-x].maxEnd; el > e {
				e = el
			}
			er := last
			if i+x < n {
				er = nodes[i+x].maxEnd
			}
			if er > e {
				e = er
			}
			nodes[i].maxEnd = e
		}
		// Move lastIdx to its parent.
		if (lastIdx>>uint(k))&1 != 0 {
			lastIdx -= x
		} else {
			lastIdx += x
		}
		if lastIdx < n && nodes[lastIdx].maxEnd > last {
			last = nodes[lastIdx].maxEnd
		}
	}
	t.maxLevel = k - 1
}

// smallSubtreeLevel is the subtree height below which Query scans the
// subtree linearly instead of descending.
const smallSubtreeLevel = 3

type queryFrame struct {
	idx, level int
	// leftDone is set once the left subtree of idx has been scheduled.
	leftDone bool
}

// Query appends to dst every entry that contains pos, i.e. Start <= pos <
// End, and returns the extended slice.  Entries are appended in (Start, End)
// order.
//
// REQUIRES: Build has been called.
func (t *Tree) Query(pos PosType, dst []Entry) []Entry {
	if !t.built {
		panic("interval.Tree.Query: called before Build")
	}
	if t.maxLevel < 0 || pos < t.min || pos >= t.max {
		return dst
	}
	nodes := t.nodes
	n := len(nodes)
	var stackBuf [64]queryFrame
	stack := append(stackBuf[:0], queryFrame{idx: (1 << uint(t.maxLevel)) - 1, level: t.maxLevel})
	for len(stack) > 0 {
		z := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if z.level <= smallSubtreeLevel {
			i0 := z.idx >> uint(z.level) << uint(z.level)
			i1 := i0 + (1 << uint(z.level+1)) - 1
			if i1 > n {
				i1 = n
			}
			for i := i0; i < i1 && nodes[i].Start <= pos; i++ {
				if pos < nodes[i].End {
					dst = append(dst, nodes[i].Entry)
				}
			}
			continue
		}
		if !z.leftDone {
			// Revisit this node after its left subtree.
			stack = append(stack, queryFrame{idx: z.idx, level: z.level, leftDone: true})
			left := z.idx - (1 << uint(z.level-1))
			if left >= n || nodes[left].maxEnd > pos {
				stack = append(stack, queryFrame{idx: left, level: z.level - 1})
			}
			continue
		}
		if z.idx < n && nodes[z.idx].Start <= pos {
			if pos < nodes[z.idx].End {
				dst = append(dst, nodes[z.idx].Entry)
			}
			stack = append(stack, queryFrame{idx: z.idx + (1 << uint(z.level-1)), level: z.level - 1})
		}
	}
	return dst
}

// Do calls fn on every entry in (Start, End) order until fn returns false.
//
// REQUIRES: Build has been called.
func (t *Tree) Do(fn func(e Entry) bool) {
	if !t.built {
		panic("interval.Tree.Do: called before Build")
	}
	for i := range t.nodes {
		if !fn(t.nodes[i].Entry) {
			return
		}
	}
}
