package parquetquery

import (
	"context"
	"fmt"
	"sync"
)

// fakePage/fakeColumn/fakeGroup/fakeReader are a minimal in-package Reader
// fixture for unit tests that need access to this package's unexported
// functions (fastFilter, compileStage, etc.) and therefore cannot import
// the parquetquerytest fixture package without creating an import cycle.
type fakePage struct {
	firstRow int64
	min, max Value
	values   []Value
}

type fakeColumn struct {
	min, max Value
	hasStats bool
	pages    []fakePage
}

type fakeGroup struct {
	numRows int64
	columns map[string]fakeColumn
}

type fakeReader struct {
	id     string
	groups []fakeGroup
	mu     sync.Mutex
	calls  map[string]int
}

func newFakeReader(id string, groups ...fakeGroup) *fakeReader {
	return &fakeReader{id: id, groups: groups, calls: make(map[string]int)}
}

func (r *fakeReader) ID() string { return r.id }

func (r *fakeReader) RowGroups() []RowGroupMeta {
	out := make([]RowGroupMeta, len(r.groups))
	for i, g := range r.groups {
		cols := make(map[string]ColumnMeta, len(g.columns))
		for path, c := range g.columns {
			cols[path] = ColumnMeta{Path: path, Min: c.min, Max: c.max, HasStats: c.hasStats}
		}
		out[i] = RowGroupMeta{No: i, NumRows: g.numRows, Columns: cols}
	}
	return out
}

func (r *fakeReader) ReadOffsetIndex(_ context.Context, rowGroup int, path string) (*OffsetIndex, error) {
	r.mu.Lock()
	r.calls[fmt.Sprintf("offset:%d:%s", rowGroup, path)]++
	r.mu.Unlock()
	c, ok := r.groups[rowGroup].columns[path]
	if !ok {
		return nil, &SchemaError{Path: path}
	}
	idx := &OffsetIndex{Locations: make([]PageLocation, len(c.pages))}
	for i, p := range c.pages {
		idx.Locations[i] = PageLocation{FirstRowIndex: p.firstRow}
	}
	return idx, nil
}

func (r *fakeReader) ReadColumnIndex(_ context.Context, rowGroup int, path string) (*ColumnIndex, error) {
	r.mu.Lock()
	r.calls[fmt.Sprintf("column:%d:%s", rowGroup, path)]++
	r.mu.Unlock()
	c, ok := r.groups[rowGroup].columns[path]
	if !ok {
		return nil, &SchemaError{Path: path}
	}
	idx := &ColumnIndex{MinValues: make([]Value, len(c.pages)), MaxValues: make([]Value, len(c.pages))}
	for i, p := range c.pages {
		idx.MinValues[i] = p.min
		idx.MaxValues[i] = p.max
	}
	return idx, nil
}

func (r *fakeReader) ReadPage(_ context.Context, rowGroup int, path string, _ *OffsetIndex, pageNo int) (*PageData, error) {
	r.mu.Lock()
	r.calls[fmt.Sprintf("page:%d:%s:%d", rowGroup, path, pageNo)]++
	r.mu.Unlock()
	c, ok := r.groups[rowGroup].columns[path]
	if !ok || pageNo < 0 || pageNo >= len(c.pages) {
		return nil, &SchemaError{Path: path}
	}
	p := c.pages[pageNo]
	return &PageData{FirstRowIndex: p.firstRow, Values: p.values}, nil
}

func intValues(xs ...int64) []Value {
	vs := make([]Value, len(xs))
	for i, x := range xs {
		vs[i] = Int64(x)
	}
	return vs
}

// quantityFixture mirrors the §8 worked example: two row groups sharing a
// "quantity" and "name" column.
func quantityFixture() *fakeReader {
	return newFakeReader("quantity-fixture",
		fakeGroup{
			numRows: 6,
			columns: map[string]fakeColumn{
				"quantity": {
					min: Int64(20), max: Int64(30), hasStats: true,
					pages: []fakePage{
						{firstRow: 0, min: Int64(20), max: Int64(30), values: intValues(20, 25, 28, 30)},
						{firstRow: 4, min: Int64(25), max: Int64(29), values: intValues(29, 25)},
					},
				},
				"name": {
					pages: []fakePage{
						{firstRow: 0, values: []Value{
							String("chicago"), String("dallas"), String("denver"),
							String("austin"), String("reno"), String("miles"),
						}},
					},
				},
			},
		},
		fakeGroup{
			numRows: 5,
			columns: map[string]fakeColumn{
				"quantity": {
					min: Int64(15), max: Int64(30), hasStats: true,
					pages: []fakePage{
						{firstRow: 0, min: Int64(20), max: Int64(20), values: intValues(20)},
						{firstRow: 1, min: Int64(15), max: Int64(17), values: intValues(15, 17)},
						{firstRow: 3, min: Int64(18), max: Int64(30), values: intValues(18, 30)},
					},
				},
				"name": {
					pages: []fakePage{
						{firstRow: 0, values: []Value{
							String("omaha"), String("tulsa"), String("boise"),
							String("salem"), String("flint"),
						}},
					},
				},
			},
		},
	)
}
