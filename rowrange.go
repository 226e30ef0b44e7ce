package parquetquery

import (
	"context"
	"sync"

	"github.com/parquet-go/parquetquery/internal/cache"
)

// rowRangeShared is the per-(reader,rowGroup) state a RowRange lineage
// shares: fetched offset/column indices. Every RowRange derived from a
// common root via extend points at the same rowRangeShared, so narrowing
// never triggers a refetch of indices an ancestor already primed — the
// "prototype-style inheritance" described in DESIGN.md.
type rowRangeShared struct {
	mu          sync.Mutex
	offsetIndex map[string]*OffsetIndex
	columnIndex map[string]*ColumnIndex
}

// RowRange is a contiguous row interval inside one row group, carrying
// lazily-fetched offset/column indices and per-path tightened min/max
// bounds. It is never mutated in place: every narrowing (Extend) produces
// a new, independent RowRange value that happens to share its ancestor's
// fetched indices and chains to it for bound lookups.
type RowRange struct {
	reader   Reader
	rowGroup int
	numRows  int64

	lowIndex, highIndex int64

	parent *RowRange
	// tightenedMin/tightenedMax hold only THIS node's own overrides; a
	// lookup that misses here walks to parent, then to the row-group
	// statistic, never copying ancestor maps.
	tightenedMin map[string]Value
	tightenedMax map[string]Value

	shared *rowRangeShared
	cache  *cache.Cache
}

// newRootRowRange is called once per (reader, rowGroup) at ingestion.
func newRootRowRange(reader Reader, rg RowGroupMeta, c *cache.Cache) *RowRange {
	return &RowRange{
		reader:   reader,
		rowGroup: rg.No,
		numRows:  rg.NumRows,
		lowIndex: 0, highIndex: rg.NumRows - 1,
		shared: &rowRangeShared{
			offsetIndex: make(map[string]*OffsetIndex),
			columnIndex: make(map[string]*ColumnIndex),
		},
		cache: c,
	}
}

// RowGroup returns the zero-based row-group ordinal this range belongs to.
func (r *RowRange) RowGroup() int { return r.rowGroup }

// Low returns the inclusive low row index of this range.
func (r *RowRange) Low() int64 { return r.lowIndex }

// High returns the inclusive high row index of this range.
func (r *RowRange) High() int64 { return r.highIndex }

// Len returns the number of rows this range covers.
func (r *RowRange) Len() int64 { return r.highIndex - r.lowIndex + 1 }

// NumRows returns the total row count of the owning row group (not just
// this range), needed to resolve the last page's bounds.
func (r *RowRange) NumRows() int64 { return r.numRows }

// Reader returns the Reader this range was sourced from.
func (r *RowRange) Reader() Reader { return r.reader }

// MinValue returns the tightened minimum for path if a prior filter has
// narrowed it, else the row-group statistic, else a null Value.
func (r *RowRange) MinValue(path string) Value {
	for n := r; n != nil; n = n.parent {
		if v, ok := n.tightenedMin[path]; ok {
			return v
		}
	}
	if col, ok := r.reader.RowGroups()[r.rowGroup].Columns[path]; ok && col.HasStats {
		return col.Min
	}
	return Value{}
}

// MaxValue returns the tightened maximum for path, mirroring MinValue.
func (r *RowRange) MaxValue(path string) Value {
	for n := r; n != nil; n = n.parent {
		if v, ok := n.tightenedMax[path]; ok {
			return v
		}
	}
	if col, ok := r.reader.RowGroups()[r.rowGroup].Columns[path]; ok && col.HasStats {
		return col.Max
	}
	return Value{}
}

// Extend produces a derived RowRange over [lowIndex, highIndex], inheriting
// this range's fetched indices. If path is non-empty, low/high are recorded
// as the tightened bounds for path in the derived range only.
func (r *RowRange) Extend(lowIndex, highIndex int64, path string, low, high Value) *RowRange {
	if lowIndex > highIndex {
		panic(&InvariantError{Msg: "Extend: lowIndex > highIndex"})
	}
	if !low.IsNull() && !high.IsNull() && Compare(low, high) > 0 {
		panic(&InvariantError{Msg: "Extend: tightened min > max for path " + path})
	}
	child := &RowRange{
		reader: r.reader, rowGroup: r.rowGroup, numRows: r.numRows,
		lowIndex: lowIndex, highIndex: highIndex,
		parent: r, shared: r.shared, cache: r.cache,
	}
	if path != "" {
		child.tightenedMin = map[string]Value{path: low}
		child.tightenedMax = map[string]Value{path: high}
	}
	return child
}

// PrimeOffsetIndex idempotently fetches and caches the offset index for
// path, returning the already-primed copy on subsequent calls.
func (r *RowRange) PrimeOffsetIndex(ctx context.Context, path string) (*OffsetIndex, error) {
	r.shared.mu.Lock()
	if idx, ok := r.shared.offsetIndex[path]; ok {
		r.shared.mu.Unlock()
		return idx, nil
	}
	r.shared.mu.Unlock()

	key := offsetIndexKey(r.reader.ID(), r.rowGroup, path)
	idx, err := cache.FetchDurable(ctx, r.cache, key, func(ctx context.Context) (*OffsetIndex, error) {
		return r.reader.ReadOffsetIndex(ctx, r.rowGroup, path)
	})
	if err != nil {
		return nil, &ReaderError{Op: "ReadOffsetIndex", Err: err}
	}

	r.shared.mu.Lock()
	r.shared.offsetIndex[path] = idx
	r.shared.mu.Unlock()
	return idx, nil
}

// PrimeColumnIndex idempotently fetches and caches the column index for
// path.
func (r *RowRange) PrimeColumnIndex(ctx context.Context, path string) (*ColumnIndex, error) {
	r.shared.mu.Lock()
	if idx, ok := r.shared.columnIndex[path]; ok {
		r.shared.mu.Unlock()
		return idx, nil
	}
	r.shared.mu.Unlock()

	key := columnIndexKey(r.reader.ID(), r.rowGroup, path)
	idx, err := cache.FetchDurable(ctx, r.cache, key, func(ctx context.Context) (*ColumnIndex, error) {
		return r.reader.ReadColumnIndex(ctx, r.rowGroup, path)
	})
	if err != nil {
		return nil, &ReaderError{Op: "ReadColumnIndex", Err: err}
	}

	r.shared.mu.Lock()
	r.shared.columnIndex[path] = idx
	r.shared.mu.Unlock()
	return idx, nil
}

// PageData fetches the decoded values of one page. Unlike offset/column
// indices, pages are never retained on the RowRange: the cache's
// short-scope tier drops a page once its in-flight fetch has been
// delivered to every caller waiting on it (§4.G).
func (r *RowRange) PageData(ctx context.Context, path string, pageNo int) (*PageData, error) {
	offsets, err := r.PrimeOffsetIndex(ctx, path)
	if err != nil {
		return nil, err
	}
	key := pageKey(r.reader.ID(), r.rowGroup, path, pageNo)
	data, err := cache.FetchShortScope(ctx, r.cache, key, func(ctx context.Context) (*PageData, error) {
		return r.reader.ReadPage(ctx, r.rowGroup, path, offsets, pageNo)
	})
	if err != nil {
		return nil, &ReaderError{Op: "ReadPage", Err: err}
	}
	return data, nil
}

// FindRelevantPageIndex returns the unique page index p such that
// page[p].FirstRowIndex <= rowIndex < page[p+1].FirstRowIndex (the last
// page is considered to extend to the end of the row group). The offset
// index for path must already be primed.
//
// Edge policy: ties within the index break toward the later page, which
// falls out of the loop condition below (FirstRowIndex <= rowIndex moves
// the lower bound past a tied page rather than stopping on it) — the same
// behavior the spec calls out explicitly for the two-candidate case.
func (r *RowRange) FindRelevantPageIndex(path string, rowIndex int64) int {
	r.shared.mu.Lock()
	idx := r.shared.offsetIndex[path]
	r.shared.mu.Unlock()
	return findPageForRow(idx, rowIndex)
}

func findPageForRow(idx *OffsetIndex, rowIndex int64) int {
	n := idx.NumPages()
	if n == 0 {
		return 0
	}
	lo, hi := 0, n
	for lo < hi {
		mid := lo + (hi-lo)/2
		if idx.Locations[mid].FirstRowIndex <= rowIndex {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == 0 {
		return 0
	}
	return lo - 1
}
