package chain

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	gunsafe "github.com/grailbio/base/unsafe"
)

const (
	headerFields       = 12
	headerFieldsWithID = 13
)

var chainKeyword = []byte("chain")

// LineReader produces successive lines of text.  ReadLine returns io.EOF
// once the input is exhausted.  The returned slice excludes the line
// terminator and is only valid until the next call.
//
// Any line source works: an in-memory buffer, a decompressing reader, a
// network stream.  NewLineReader adapts an io.Reader.
type LineReader interface {
	ReadLine() ([]byte, error)
}

// lineNumberer is implemented by LineReaders that track their position.  It
// is used only to make error messages more useful.
type lineNumberer interface {
	LineNumber() int
}

type lineReader struct {
	r    *bufio.Reader
	line []byte
	n    int
}

// NewLineReader returns a LineReader over r.  Both "\n" and "\r\n" line
// endings are accepted, and there is no limit on line length.
func NewLineReader(r io.Reader) LineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 64<<10)}
}

func (lr *lineReader) ReadLine() ([]byte, error) {
	lr.line = lr.line[:0]
	for {
		frag, err := lr.r.ReadSlice('\n')
		lr.line = append(lr.line, frag...)
		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF {
			if len(lr.line) == 0 {
				return nil, io.EOF
			}
			// Last line lacks a terminator.
			err = nil
		}
		if err != nil {
			return nil, err
		}
		lr.n++
		return bytes.TrimRight(lr.line, "\r\n"), nil
	}
}

// LineNumber returns the 1-based number of the line most recently returned
// by ReadLine.
func (lr *lineReader) LineNumber() int { return lr.n }

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.  Callers that need to detect surplus tokens pass
// one more slot than the largest valid count.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// isHeader reports whether line starts with the "chain" token.
func isHeader(line []byte) bool {
	return bytes.HasPrefix(line, chainKeyword) &&
		(len(line) == len(chainKeyword) || line[len(chainKeyword)] <= ' ')
}

func linePrefix(r LineReader) string {
	if n, ok := r.(lineNumberer); ok {
		return fmt.Sprintf("chain: line %d: ", n.LineNumber())
	}
	return "chain: "
}

// formatError reports a syntactically malformed line.
func formatError(r LineReader, format string, args ...interface{}) error {
	return errors.E(errors.Invalid, linePrefix(r)+fmt.Sprintf(format, args...))
}

// consistencyError reports well-formed lines that disagree with each other.
func consistencyError(r LineReader, format string, args ...interface{}) error {
	return errors.E(errors.Integrity, linePrefix(r)+fmt.Sprintf(format, args...))
}

func parseInt(tok []byte) (int64, bool) {
	v, err := strconv.ParseInt(gunsafe.BytesToString(tok), 10, 64)
	return v, err == nil
}

// Parse reads one chain stanza.  header is the "chain ..." line, already
// consumed from r; Parse consumes the body lines up to and including the
// terminating single-number line, leaving r positioned at the next stanza.
//
// Malformed input yields an errors.Invalid error; block sizes that do not
// add up to the extents declared in the header yield errors.Integrity.
func Parse(header []byte, r LineReader) (Chain, error) {
	var (
		c      Chain
		tokens [headerFieldsWithID + 1][]byte
	)
	n := getTokens(tokens[:], header)
	if (n != headerFields && n != headerFieldsWithID) || !bytes.Equal(tokens[0], chainKeyword) {
		return c, formatError(r, "expected %d or %d header fields starting with 'chain' in %q",
			headerFields, headerFieldsWithID, header)
	}
	fields := []struct {
		dst  *int64
		name string
		idx  int
	}{
		{&c.Score, "score", 1},
		{&c.SourceSize, "source size", 3},
		{&c.SourceStart, "source start", 5},
		{&c.SourceEnd, "source end", 6},
		{&c.TargetSize, "target size", 8},
		{&c.TargetStart, "target start", 10},
		{&c.TargetEnd, "target end", 11},
	}
	for _, f := range fields {
		v, ok := parseInt(tokens[f.idx])
		if !ok {
			return c, formatError(r, "invalid %s %q in %q", f.name, tokens[f.idx], header)
		}
		*f.dst = v
	}
	if string(tokens[4]) != "+" {
		return c, formatError(r, "source strand must be '+', found %q in %q", tokens[4], header)
	}
	switch string(tokens[9]) {
	case "+":
		c.TargetStrand = Forward
	case "-":
		c.TargetStrand = Reverse
	default:
		return c, formatError(r, "target strand must be '+' or '-', found %q in %q", tokens[9], header)
	}
	c.SourceName = string(tokens[2])
	c.TargetName = string(tokens[7])
	if n == headerFieldsWithID {
		c.ID = string(tokens[12])
		c.HasID = true
	}
	if c.SourceSize <= 0 || c.SourceStart < 0 || c.SourceStart > c.SourceEnd || c.SourceEnd > c.SourceSize {
		return c, formatError(r, "invalid source range %d-%d (size %d) in %q",
			c.SourceStart, c.SourceEnd, c.SourceSize, header)
	}
	if c.TargetSize <= 0 || c.TargetStart < 0 || c.TargetStart > c.TargetEnd || c.TargetEnd > c.TargetSize {
		return c, formatError(r, "invalid target range %d-%d (size %d) in %q",
			c.TargetStart, c.TargetEnd, c.TargetSize, header)
	}

	// header aliases the reader's buffer, which the body reads below reuse;
	// error messages from here on name the chain by its reconstructed header.
	sourceFrom, targetFrom := c.SourceStart, c.TargetStart
	var body [4][]byte
	var vals [3]int64
	for {
		line, err := r.ReadLine()
		if err == io.EOF {
			return c, formatError(r, "unexpected end of input in chain %q", c.String())
		}
		if err != nil {
			return c, err
		}
		nBody := getTokens(body[:], line)
		if nBody != 1 && nBody != 3 {
			return c, formatError(r, "expected 1 or 3 numbers in alignment line %q of chain %q", line, c.String())
		}
		vals = [3]int64{}
		for i := 0; i < nBody; i++ {
			v, ok := parseInt(body[i])
			if !ok || v < 0 {
				return c, formatError(r, "invalid number %q in alignment line of chain %q", body[i], c.String())
			}
			vals[i] = v
		}
		size, sourceGap, targetGap := vals[0], vals[1], vals[2]
		// Written as subtractions so that huge values cannot overflow.
		if size > c.SourceEnd-sourceFrom || size > c.TargetEnd-targetFrom ||
			sourceGap > c.SourceEnd-sourceFrom-size || targetGap > c.TargetEnd-targetFrom-size {
			return c, consistencyError(r, "alignment line %d %d %d runs past the end of chain %q",
				size, sourceGap, targetGap, c.String())
		}
		if size > 0 {
			c.Blocks = append(c.Blocks, Block{
				SourceFrom: sourceFrom,
				SourceTo:   sourceFrom + size,
				TargetFrom: targetFrom,
				TargetTo:   targetFrom + size,
			})
		}
		if nBody == 1 {
			if sourceFrom+size != c.SourceEnd || targetFrom+size != c.TargetEnd {
				return c, consistencyError(r, "alignment blocks end at %d/%d, but chain %q declares %d/%d",
					sourceFrom+size, targetFrom+size, c.String(), c.SourceEnd, c.TargetEnd)
			}
			break
		}
		sourceFrom += size + sourceGap
		targetFrom += size + targetGap
	}
	return c, nil
}

// Scanner reads chain stanzas one at a time.  Empty lines, lines starting
// with '#', and any other line outside a stanza are skipped.  Scanners are
// not threadsafe.
type Scanner struct {
	r   LineReader
	err error
}

// NewScanner constructs a Scanner reading from r.
func NewScanner(r LineReader) *Scanner {
	return &Scanner{r: r}
}

// Scan reads the next stanza into c.  It returns false at the end of input
// or on error; once it returns false it never returns true again.  Err
// distinguishes the two cases.
func (s *Scanner) Scan(c *Chain) bool {
	if s.err != nil {
		return false
	}
	for {
		line, err := s.r.ReadLine()
		if err != nil {
			s.err = err
			return false
		}
		if len(line) == 0 || line[0] == '#' || !isHeader(line) {
			continue
		}
		if *c, s.err = Parse(line, s.r); s.err != nil {
			return false
		}
		return true
	}
}

// Err returns the scanning error, if any.
func (s *Scanner) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}

// ReadAll reads every chain from r, in order.  An input without any stanza
// yields an empty result and no error.  Any malformed stanza fails the whole
// read.
func ReadAll(r LineReader) ([]Chain, error) {
	var (
		chains []Chain
		c      Chain
	)
	s := NewScanner(r)
	for s.Scan(&c) {
		chains = append(chains, c)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return chains, nil
}

// Read is ReadAll over an io.Reader.
func Read(r io.Reader) ([]Chain, error) {
	return ReadAll(NewLineReader(r))
}
