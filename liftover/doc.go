/*Package liftover converts point coordinates between genome assemblies using
UCSC chain files.

An Index is built from the chains of one file (see package
github.com/grailbio/liftover/encoding/chain).  For each source chromosome it
keeps an interval.Tree over the aligned blocks, so that a query costs
O(log n + k) for k covering blocks.  Typical use:

  idx, err := liftover.OpenPair(ctx, "hg19", "hg38", liftover.DefaultLocateOpts())
  ...
  results, ok := idx.Convert("chr1", 1000000, chain.Forward)
  if !ok {
    // chr1 is not a source chromosome of the chain file.
  }
  for _, r := range results { // best chain first
    ...
  }

All positions are 0-based.
*/
package liftover
