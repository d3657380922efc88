/*Package interval implements a static index over possibly-overlapping
  half-open intervals, optimized for point queries against large sets of
  genomic coordinates such as the aligned blocks of a chain file.
  (Note that, unlike an interval-union, overlapping intervals are tracked
  separately; every stored interval containing a query position is returned.)
  Coordinates are PosType, currently int64.
*/
package interval
