package chain

import (
	"bufio"
	"io"
	"strconv"
)

// Writer writes chains in the UCSC chain format.  Output is buffered; call
// Flush when done.
type Writer struct {
	w   *bufio.Writer
	buf []byte
	err error
}

// NewWriter constructs a Writer that writes chains to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write writes c as one stanza followed by a blank line.  Gap lengths are
// recomputed from consecutive blocks, so any chain produced by Parse
// round-trips, except that zero-length segments are merged into the
// surrounding gaps.
func (w *Writer) Write(c *Chain) error {
	if w.err != nil {
		return w.err
	}
	b := append(w.buf[:0], c.String()...)
	b = append(b, '\n')
	if len(c.Blocks) > 0 && (c.Blocks[0].SourceFrom != c.SourceStart || c.Blocks[0].TargetFrom != c.TargetStart) {
		// The chain started with a zero-length segment.
		b = append(b, "0\t"...)
		b = strconv.AppendInt(b, c.Blocks[0].SourceFrom-c.SourceStart, 10)
		b = append(b, '\t')
		b = strconv.AppendInt(b, c.Blocks[0].TargetFrom-c.TargetStart, 10)
		b = append(b, '\n')
	}
	for i, blk := range c.Blocks {
		b = strconv.AppendInt(b, blk.Len(), 10)
		var nextSource, nextTarget int64
		if i+1 < len(c.Blocks) {
			nextSource, nextTarget = c.Blocks[i+1].SourceFrom, c.Blocks[i+1].TargetFrom
		} else if blk.SourceTo == c.SourceEnd && blk.TargetTo == c.TargetEnd {
			b = append(b, '\n')
			break
		} else {
			// The chain ended with a zero-length segment.
			nextSource, nextTarget = c.SourceEnd, c.TargetEnd
		}
		b = append(b, '\t')
		b = strconv.AppendInt(b, nextSource-blk.SourceTo, 10)
		b = append(b, '\t')
		b = strconv.AppendInt(b, nextTarget-blk.TargetTo, 10)
		b = append(b, '\n')
		if i+1 == len(c.Blocks) {
			b = append(b, "0\n"...)
		}
	}
	if len(c.Blocks) == 0 {
		if c.SourceStart != c.SourceEnd || c.TargetStart != c.TargetEnd {
			b = append(b, "0\t"...)
			b = strconv.AppendInt(b, c.SourceEnd-c.SourceStart, 10)
			b = append(b, '\t')
			b = strconv.AppendInt(b, c.TargetEnd-c.TargetStart, 10)
			b = append(b, '\n')
		}
		b = append(b, "0\n"...)
	}
	b = append(b, '\n')
	w.buf = b
	_, w.err = w.w.Write(b)
	return w.err
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.err = w.w.Flush()
	return w.err
}
