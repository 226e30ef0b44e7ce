// Package parquetrange adapts the chunked-iteration idiom used to stream
// decoded rows out of this module's Query results into the standard
// library's iter.Seq2 shape, so callers can range over query output
// without holding every record's backing chunk alive longer than needed.
package parquetrange

import (
	"errors"
	"io"
	"iter"

	"github.com/parquet-go/parquetquery"
)

// IterConfig controls how RecordChunks reads from a Source.
type IterConfig struct {
	ReuseRows bool // Whether to reuse the same slice for each chunk read
	ChunkSize int  // Number of records to read at a time
}

// Source is anything that can be read in bounded chunks of records, the
// role parquet.GenericReader[T].Read played for the teacher's package. A
// *Query's Run result can be adapted into a Source with NewSliceSource; a
// reader that streams results without materializing them all up front can
// implement Source directly.
type Source interface {
	// Read fills into with up to len(into) records, returning how many
	// were read and io.EOF once exhausted (mirroring io.Reader).
	Read(into []parquetquery.Record) (int, error)
}

// SliceSource adapts an already-materialized []Record (e.g. the result of
// Query.Run) into a Source, for callers that want to post-process a query
// result in bounded chunks instead of ranging over the whole slice at
// once.
type SliceSource struct {
	records []parquetquery.Record
	pos     int
}

// NewSliceSource wraps records as a Source.
func NewSliceSource(records []parquetquery.Record) *SliceSource {
	return &SliceSource{records: records}
}

func (s *SliceSource) Read(into []parquetquery.Record) (int, error) {
	if s.pos >= len(s.records) {
		return 0, io.EOF
	}
	n := copy(into, s.records[s.pos:])
	s.pos += n
	if s.pos >= len(s.records) {
		return n, io.EOF
	}
	return n, nil
}

// RecordChunks reads src in chunks of config.ChunkSize, yielding each chunk
// as it's filled. When ReuseRows is true the same backing slice is reused
// across iterations (the caller must fully consume or copy a chunk before
// the next iteration starts) — the exact reuse-vs-allocate tradeoff the
// teacher's GenericRows offered for parquet.GenericReader.Read.
func RecordChunks(src Source, config IterConfig) iter.Seq2[[]parquetquery.Record, error] {
	return func(yield func([]parquetquery.Record, error) bool) {
		var chunk []parquetquery.Record
		if config.ReuseRows {
			chunk = make([]parquetquery.Record, config.ChunkSize)
		}

		done := false
		for !done {
			if !config.ReuseRows {
				chunk = make([]parquetquery.Record, config.ChunkSize)
			}

			n, err := src.Read(chunk)
			switch {
			case err == nil:

			// a Source returns io.EOF once exhausted, same contract as
			// io.Reader; this is the expected terminal condition, not a
			// failure.
			case errors.Is(err, io.EOF):
				done = true
				// Read doesn't shrink chunk's length on a partial fill, so
				// slice it down to what was actually read.
				chunk = chunk[:n]

			default:
				yield(nil, err)
				return
			}

			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// Flatten turns a sequence of record chunks into a sequence of individual
// records, stopping at the first error (domain-agnostic: unchanged from
// the teacher's generic helper of the same name).
func Flatten[T any, S ~[]T](seq iter.Seq2[S, error]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for vs, err := range seq {
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, v := range vs {
				if !yield(v, nil) {
					return
				}
			}
		}
	}
}
