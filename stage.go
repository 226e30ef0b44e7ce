package parquetquery

import (
	"context"

	"github.com/go-kit/log"
	"github.com/parquet-go/parquetquery/internal/stream"
)

// rowStage is one filter-stage operator: a transducer from one input
// RowRange to zero or more output RowRanges (§4.D's state machine —
// Arrived -> (FastFiltered|FastPassed|Split -> (Scanned -> Matched*|Dropped))
// — terminal states are exactly the slice rowStage returns).
type rowStage = stream.Stage[*RowRange]

// compileStage turns one compiled Predicate into the rowStage that
// implements its filter-stage flavor (§4.D).
func compileStage(p Predicate, fanout int, logger log.Logger) rowStage {
	switch p := p.(type) {
	case *ValuePredicate:
		if p.IndexOnly {
			return newIndexFilterStage(p.Path, p, logger)
		}
		return newValueFilterStage(p, logger)
	case *RangePredicate:
		if p.IndexOnly {
			return newIndexFilterStage(p.Path, p, logger)
		}
		return newValueFilterStage(p, logger)
	case *PathPredicate:
		return identityStage
	case *AndPredicate:
		return newAndStage(p, fanout, logger)
	case *OrPredicate:
		return newOrStage(p, fanout, logger)
	default:
		return identityStage
	}
}

// identityStage passes its input through unchanged — used for
// field-load-only PathPredicate nodes, which always match (§3).
func identityStage(_ context.Context, r *RowRange) ([]*RowRange, error) {
	return []*RowRange{r}, nil
}

// emitBitmap tracks, relative to an input range's [lowIndex, highIndex],
// which row positions have already been claimed by some output range. It
// backs the Or composite's union-of-intervals-with-first-wins emission
// (§4.D): whenever a child emits, we scan its interval and only pass
// through the still-unclaimed sub-intervals.
type emitBitmap struct {
	base   int64
	claimed []bool
}

func newEmitBitmap(low, high int64) *emitBitmap {
	return &emitBitmap{base: low, claimed: make([]bool, high-low+1)}
}

// claim marks [low, high] as claimed and returns the still-unclaimed
// sub-intervals within it, in ascending order.
func (b *emitBitmap) claim(low, high int64) [][2]int64 {
	var out [][2]int64
	i := low - b.base
	end := high - b.base
	for i <= end {
		for i <= end && b.claimed[i] {
			i++
		}
		if i > end {
			break
		}
		start := i
		for i <= end && !b.claimed[i] {
			b.claimed[i] = true
			i++
		}
		out = append(out, [2]int64{start + b.base, i - 1 + b.base})
	}
	return out
}
