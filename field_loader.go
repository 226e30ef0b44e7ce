package parquetquery

import (
	"context"
	"sync"

	"github.com/segmentio/encoding/json"
	"golang.org/x/sync/errgroup"
)

// FieldSpec is a single requested output column (§4.E's "requested field
// list"): the path to load, and whether it is a source column whose value
// is a JSON blob to be parsed and merged into the record rather than
// stored verbatim.
type FieldSpec struct {
	Path   string
	Source bool
}

// Record is one reconstructed row: plain leaf paths map to their decoded
// Value's native Go representation, and source columns contribute their
// parsed-JSON keys directly rather than the raw blob (§4.E: "omitting the
// raw field").
type Record map[string]any

// FieldLoader plans minimal page reads across every requested path for a
// surviving RowRange and reconstructs records from the pages it fetches
// (§4.E, component E).
type FieldLoader struct {
	fields []FieldSpec
}

// NewFieldLoader builds a loader for the given field list. fields must be
// non-empty; ParsePhases-style validation is the caller's job, since a
// FieldLoader is constructed once per Query rather than per predicate.
func NewFieldLoader(fields []FieldSpec) *FieldLoader {
	return &FieldLoader{fields: fields}
}

// Load reconstructs every record covered by r, priming offset indices for
// every requested path, splitting r along the multi-path page boundaries
// described in §4.E, and materializing each sub-range's rows.
func (fl *FieldLoader) Load(ctx context.Context, r *RowRange) ([]Record, error) {
	offsets := make(map[string]*OffsetIndex, len(fl.fields))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range fl.fields {
		f := f
		g.Go(func() error {
			idx, err := r.PrimeOffsetIndex(gctx, f.Path)
			if err != nil {
				return err
			}
			mu.Lock()
			offsets[f.Path] = idx
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	subranges := splitMultiPath(r, fl.fields, offsets)

	var records []Record
	for _, sub := range subranges {
		recs, err := fl.loadSubrange(ctx, sub)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	return records, nil
}

// splitMultiPath implements §4.E's multi-path page split: each path's page
// boundaries are event points; the range is cut at the smallest next-page
// first_row_index across all fields so that within every emitted sub-range
// each requested path sits within a single page.
func splitMultiPath(r *RowRange, fields []FieldSpec, offsets map[string]*OffsetIndex) []*RowRange {
	pageIdx := make(map[string]int, len(fields))
	for _, f := range fields {
		pageIdx[f.Path] = r.FindRelevantPageIndex(f.Path, r.Low())
	}

	var out []*RowRange
	low := r.Low()
	for low <= r.High() {
		nextEvent := int64(-1)
		nextField := ""
		for _, f := range fields {
			idx := offsets[f.Path]
			p := pageIdx[f.Path]
			if p+1 >= idx.NumPages() {
				continue
			}
			candidate := idx.Locations[p+1].FirstRowIndex
			if candidate > r.High() {
				continue
			}
			if nextEvent == -1 || candidate < nextEvent {
				nextEvent = candidate
				nextField = f.Path
			}
		}
		if nextEvent == -1 {
			out = append(out, r.Extend(low, r.High(), "", Value{}, Value{}))
			break
		}
		out = append(out, r.Extend(low, nextEvent-1, "", Value{}, Value{}))
		pageIdx[nextField]++
		low = nextEvent
	}
	return out
}

// loadSubrange fetches the current page for every requested path
// concurrently, then materializes one Record per row index in
// [sub.Low(), sub.High()].
func (fl *FieldLoader) loadSubrange(ctx context.Context, sub *RowRange) ([]Record, error) {
	pages := make(map[string]*PageData, len(fl.fields))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range fl.fields {
		f := f
		g.Go(func() error {
			pageNo := sub.FindRelevantPageIndex(f.Path, sub.Low())
			data, err := sub.PageData(gctx, f.Path, pageNo)
			if err != nil {
				return err
			}
			mu.Lock()
			pages[f.Path] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]Record, 0, sub.Len())
	for rowIdx := sub.Low(); rowIdx <= sub.High(); rowIdx++ {
		rec := make(Record, len(fl.fields))
		for _, f := range fl.fields {
			page := pages[f.Path]
			off := rowIdx - page.FirstRowIndex
			if off < 0 || int(off) >= len(page.Values) {
				continue
			}
			v := page.Values[off]
			if f.Source {
				if err := mergeSourceJSON(rec, v); err != nil {
					return nil, err
				}
				continue
			}
			rec[f.Path] = valueToAny(v)
		}
		records = append(records, rec)
	}
	return records, nil
}

// mergeSourceJSON parses v (a JSON-blob column's value) and merges its
// top-level keys into rec, per §4.E: "parse once and merge its keys into
// the record, omitting the raw field". A null or non-string value
// contributes nothing.
func mergeSourceJSON(rec Record, v Value) error {
	if v.IsNull() || v.Kind() != KindString {
		return nil
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(v.String()), &doc); err != nil {
		return &InvariantError{Msg: "source column is not a JSON object: " + err.Error()}
	}
	for k, val := range doc {
		rec[k] = val
	}
	return nil
}

// valueToAny converts a Value to its native Go representation for
// inclusion in a Record; a null Value contributes a nil entry.
func valueToAny(v Value) any {
	switch v.Kind() {
	case KindInt64:
		return v.Int64()
	case KindFloat64:
		return v.Float64()
	case KindString:
		return v.String()
	case KindBool:
		return v.Bool()
	default:
		return nil
	}
}
