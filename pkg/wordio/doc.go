// Package wordio tokenizes one large flat text file in parallel.
//
// The file is divided into byte ranges (SplitByCount, SplitBySize) and every range is
// scanned by its own WordStream. Streams never coordinate: ownership of the tokens that
// straddle a boundary is decided from byte offsets alone, so the union of the owned
// tokens of all ranges equals a single pass over the file.
//
// Key pieces:
// - ByteRange, SplitByCount, SplitBySize: the partition algebra
// - WordStream: pull-based scanner with bounded memory and optional lookaround context
// - Partitions, PartitionsBySize: one stream per range, the unit of parallel work
package wordio
