package parquetquery

import (
	"context"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// newIndexFilterStage implements the index-filter stage flavor (§4.D):
// primes offset + column indices for path, uses fastFilter to reject
// outright, then walks the pages the input range spans, building runs of
// consecutive matching pages and flushing each run as a narrowed RowRange
// with tightened bounds. It never reads page data.
func newIndexFilterStage(path string, p Predicate, logger log.Logger) rowStage {
	return func(ctx context.Context, r *RowRange) ([]*RowRange, error) {
		if fastFilter(p, r) {
			return nil, nil
		}

		offsets, err := r.PrimeOffsetIndex(ctx, path)
		if err != nil {
			return nil, err
		}
		columns, err := r.PrimeColumnIndex(ctx, path)
		if err != nil {
			return nil, err
		}
		if offsets.NumPages() == 0 {
			return nil, nil
		}

		startPage := r.FindRelevantPageIndex(path, r.Low())
		endPage := r.FindRelevantPageIndex(path, r.High())

		var (
			results                  []*RowRange
			runOpen                  bool
			runLow, runHigh          int64
			runMin, runMax           Value
		)

		flush := func() {
			if !runOpen {
				return
			}
			lo, hi := maxInt64(runLow, r.Low()), minInt64(runHigh, r.High())
			if lo <= hi {
				results = append(results, r.Extend(lo, hi, path, runMin, runMax))
			}
			runOpen = false
		}

		for pageNo := startPage; pageNo <= endPage && pageNo < offsets.NumPages(); pageNo++ {
			pageMin, pageMax := columns.MinValues[pageNo], columns.MaxValues[pageNo]
			firstRow, lastRow := offsets.PageBounds(pageNo, r.NumRows())

			if pageMatches(p, pageMin, pageMax) {
				if !runOpen {
					runOpen = true
					runLow, runHigh = firstRow, lastRow
					runMin, runMax = pageMin, pageMax
				} else {
					runHigh = lastRow
					if !pageMin.IsNull() && (runMin.IsNull() || Compare(pageMin, runMin) < 0) {
						runMin = pageMin
					}
					if !pageMax.IsNull() && (runMax.IsNull() || Compare(pageMax, runMax) > 0) {
						runMax = pageMax
					}
				}
			} else {
				flush()
			}
		}
		flush()

		level.Debug(logger).Log("msg", "index filter", "path", path, "row_group", r.RowGroup(),
			"in_low", r.Low(), "in_high", r.High(), "emitted", len(results))
		return results, nil
	}
}

// pageMatches reports whether a page's [pageMin, pageMax] statistics leave
// open the possibility that p matches some row on the page — the
// page-scoped counterpart of fastFilter, applied per candidate page rather
// than to the whole RowRange's aggregate bounds.
func pageMatches(p Predicate, pageMin, pageMax Value) bool {
	switch p := p.(type) {
	case *ValuePredicate:
		return !boundsDisprove(pageMin, pageMax, p.V, p.V, true, true)
	case *RangePredicate:
		return !boundsDisprove(pageMin, pageMax, p.Min, p.Max, p.HasMin, p.HasMax)
	default:
		return true
	}
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
