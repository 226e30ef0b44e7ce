package parquetquery

import (
	"context"

	"github.com/go-kit/log"
)

// newValueFilterStage implements the value-filter stage flavor (§4.D): a
// split-by-page sub-stage followed by a scan-page sub-stage, run in
// sequence for each input RowRange.
func newValueFilterStage(p Predicate, logger log.Logger) rowStage {
	path, ok := singlePath(p)
	return func(ctx context.Context, r *RowRange) ([]*RowRange, error) {
		if !ok {
			return nil, &InvariantError{Msg: "value filter stage requires a single-path predicate"}
		}
		pieces, err := splitByPage(ctx, r, p, path)
		if err != nil {
			return nil, err
		}
		var out []*RowRange
		for _, piece := range pieces {
			scanned, err := scanPage(ctx, piece, p, path)
			if err != nil {
				return nil, err
			}
			out = append(out, scanned...)
		}
		return out, nil
	}
}

// splitByPage is the value-filter stage's first sub-stage: drop outright
// if statistics disprove p, pass through unchanged if statistics already
// prove p, otherwise split into one RowRange per page the input touches.
func splitByPage(ctx context.Context, r *RowRange, p Predicate, path string) ([]*RowRange, error) {
	if fastFilter(p, r) {
		return nil, nil
	}
	if fastPass(p, r) {
		return []*RowRange{r}, nil
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

	var pieces []*RowRange
	for pageNo := startPage; pageNo <= endPage && pageNo < offsets.NumPages(); pageNo++ {
		firstRow, lastRow := offsets.PageBounds(pageNo, r.NumRows())
		lo, hi := maxInt64(firstRow, r.Low()), minInt64(lastRow, r.High())
		if lo > hi {
			continue
		}
		if columns != nil && pageNo < columns.NumPages() {
			pieces = append(pieces, r.Extend(lo, hi, path, columns.MinValues[pageNo], columns.MaxValues[pageNo]))
		} else {
			pieces = append(pieces, r.Extend(lo, hi, "", Value{}, Value{}))
		}
	}
	return pieces, nil
}

// scanPage is the value-filter stage's second sub-stage: for a RowRange
// already confined to a single page, drop it if the page's statistics
// disprove p, otherwise fetch the page and evaluate the predicate row by
// row, emitting contiguous matching runs.
func scanPage(ctx context.Context, r *RowRange, p Predicate, path string) ([]*RowRange, error) {
	if fastFilter(p, r) {
		return nil, nil
	}
	if fastPass(p, r) {
		return []*RowRange{r}, nil
	}

	startPage := r.FindRelevantPageIndex(path, r.Low())
	endPage := r.FindRelevantPageIndex(path, r.High())
	if startPage != endPage {
		return nil, &InvariantError{Msg: "value-filter scan stage: range spans a page boundary"}
	}

	page, err := r.PageData(ctx, path, startPage)
	if err != nil {
		return nil, err
	}

	var (
		results         []*RowRange
		runOpen         bool
		runLow, runHigh int64
		runMin, runMax  Value
	)
	flush := func() {
		if !runOpen {
			return
		}
		results = append(results, r.Extend(runLow, runHigh, path, runMin, runMax))
		runOpen = false
	}

	row := make(map[string]Value, 1)
	for rowIdx := r.Low(); rowIdx <= r.High(); rowIdx++ {
		off := rowIdx - page.FirstRowIndex
		if off < 0 || int(off) >= len(page.Values) {
			flush()
			continue
		}
		v := page.Values[off]
		row[path] = v
		if evaluate(p, row) {
			if !runOpen {
				runOpen = true
				runLow, runHigh = rowIdx, rowIdx
				runMin, runMax = v, v
			} else {
				runHigh = rowIdx
				if Compare(v, runMin) < 0 {
					runMin = v
				}
				if Compare(v, runMax) > 0 {
					runMax = v
				}
			}
		} else {
			flush()
		}
	}
	flush()
	return results, nil
}
