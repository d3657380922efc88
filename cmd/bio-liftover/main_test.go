package main

import (
	"bytes"
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/liftover/encoding/chain"
	"github.com/grailbio/liftover/liftover"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

const testChains = `chain 100 chr1 1000 + 100 200 chrA 2000 + 500 610 1
50 0 10
50

chain 40 chr1 1000 + 150 160 chrB 500 - 0 10 2
10

chain 7 chr2 300 + 0 10 chrA 2000 + 0 10 3
10
`

func testIndex(t *testing.T) *liftover.Index {
	idx, err := liftover.Load(strings.NewReader(testChains))
	require.NoError(t, err)
	return idx
}

func TestConvertTSV(t *testing.T) {
	input := `# chrom	pos	strand
chr1	120	+
chr1	155	-
chr1	50	+
chrX	5	+
`
	var out, unmapped bytes.Buffer
	stats, err := convertTSV(testIndex(t), strings.NewReader(input), &out, &unmapped, false)
	assert.NoError(t, err)
	expect.EQ(t, stats, convertStats{rows: 4, mapped: 2, unknownChrom: 1, noMatch: 1})
	expect.EQ(t, out.String(), `#CHROM	POS	STRAND	TARGET_CHROM	TARGET_POS	TARGET_STRAND	SCORE
chr1	120	+	chrA	520	+	100
chr1	155	-	chrA	565	-	100
chr1	155	-	chrB	494	+	40
`)
	expect.EQ(t, unmapped.String(), `#CHROM	POS	STRAND	REASON
chr1	50	+	no_match
chrX	5	+	unknown_chrom
`)
}

func TestConvertTSVOneBased(t *testing.T) {
	var out bytes.Buffer
	stats, err := convertTSV(testIndex(t), strings.NewReader("chr1\t101\t+\nchr1\t100\t+\n"), &out, nil, true)
	assert.NoError(t, err)
	expect.EQ(t, stats, convertStats{rows: 2, mapped: 1, noMatch: 1})
	expect.EQ(t, out.String(), "#CHROM\tPOS\tSTRAND\tTARGET_CHROM\tTARGET_POS\tTARGET_STRAND\tSCORE\n"+
		"chr1\t101\t+\tchrA\t501\t+\t100\n")
}

func TestConvertTSVBadStrand(t *testing.T) {
	var out bytes.Buffer
	_, err := convertTSV(testIndex(t), strings.NewReader("chr1\t120\t.\n"), &out, nil, false)
	expect.NotNil(t, err)
}

func TestWriteStats(t *testing.T) {
	var out bytes.Buffer
	assert.NoError(t, writeStats(&out, testIndex(t)))
	expect.EQ(t, out.String(), `#CHROM	SIZE	CHAINS	BLOCKS	ALIGNED
chr1	1000	2	3	110
chr2	300	1	1	10
`)
}

func TestFilterChains(t *testing.T) {
	var out bytes.Buffer
	keep := newChainFilter(filterOpts{chroms: "chr1", minScore: 50})
	nIn, nOut, err := filterChains(chain.NewLineReader(strings.NewReader(testChains)), &out, keep)
	assert.NoError(t, err)
	expect.EQ(t, nIn, 3)
	expect.EQ(t, nOut, 1)
	chains, err := chain.Read(&out)
	assert.NoError(t, err)
	assert.EQ(t, len(chains), 1)
	expect.EQ(t, chains[0].ID, "1")
	expect.EQ(t, len(chains[0].Blocks), 2)
}

func TestFilterGzip(t *testing.T) {
	ctx := context.Background()
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	src := filepath.Join(dir, "in.over.chain")
	assert.NoError(t, ioutil.WriteFile(src, []byte(testChains), 0644))
	dst := filepath.Join(dir, "out.over.chain.gz")
	assert.NoError(t, filter(ctx, src, dst, filterOpts{minScore: 10}))

	idx, err := openIndex(ctx, []string{dst}, liftover.LocateOpts{})
	assert.NoError(t, err)
	expect.EQ(t, idx.NumChains(), 2)
	expect.EQ(t, idx.SourceChroms(), []string{"chr1"})
}

func TestOpenIndexPair(t *testing.T) {
	ctx := context.Background()
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	assert.NoError(t, ioutil.WriteFile(filepath.Join(dir, "hg19ToHg38.over.chain"), []byte(testChains), 0644))

	idx, err := openIndex(ctx, []string{"hg19", "hg38"}, liftover.LocateOpts{SearchDir: dir})
	assert.NoError(t, err)
	expect.EQ(t, idx.NumChains(), 3)

	_, err = openIndex(ctx, []string{"a", "b", "c"}, liftover.LocateOpts{})
	expect.NotNil(t, err)
}

func TestChecksum(t *testing.T) {
	sum := func(data string) fileChecksum {
		fc, err := checksumChains(chain.NewLineReader(strings.NewReader(data)))
		require.NoError(t, err)
		return fc
	}
	stanzas := strings.SplitAfter(testChains, "\n\n")
	assert.EQ(t, len(stanzas), 3)
	want := sum(testChains)
	assert.EQ(t, len(want.Chroms), 2)
	expect.EQ(t, want.Chroms[0].Name, "chr1")
	expect.EQ(t, want.Chroms[0].NChains, int64(2))
	expect.EQ(t, want.Chroms[0].NBlocks, int64(3))
	expect.EQ(t, want.Chroms[0].SumScore, int64(140))

	// Order does not matter.
	expect.EQ(t, sum(stanzas[2]+"\n"+stanzas[1]+stanzas[0]), want)

	// Rewriting through filter preserves the checksum.
	ctx := context.Background()
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	src := filepath.Join(dir, "in.over.chain")
	assert.NoError(t, ioutil.WriteFile(src, []byte(testChains), 0644))
	dst := filepath.Join(dir, "out.over.chain.gz")
	assert.NoError(t, filter(ctx, src, dst, filterOpts{}))
	var a, b bytes.Buffer
	assert.NoError(t, checksum(ctx, src, &a))
	assert.NoError(t, checksum(ctx, dst, &b))
	expect.EQ(t, a.String(), b.String())

	// Any change to a block changes the checksum.
	changed := sum(strings.Replace(testChains, "50 0 10\n50", "49 1 11\n50", 1))
	expect.EQ(t, changed.Chroms[1], want.Chroms[1])
	expect.True(t, changed.Chroms[0].SumBlocks != want.Chroms[0].SumBlocks)
}
