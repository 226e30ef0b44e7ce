// Package parquetquerytest provides an in-memory, hand-built
// parquetquery.Reader fixture for tests: row groups, pages, and their
// statistics are constructed from literal Go slices rather than read from
// a real file, mirroring how the teacher's own test suite builds fixtures.
package parquetquerytest

import (
	"context"
	"fmt"
	"sync"

	"github.com/parquet-go/parquetquery"
)

// PageBuilder describes one page of one column.
type PageBuilder struct {
	FirstRowIndex int64
	Min, Max      parquetquery.Value // zero Value (IsNull) means "no statistic"
	Values        []parquetquery.Value
}

// ColumnBuilder describes one column's pages within a row group, plus the
// row-group-level statistic recorded for it.
type ColumnBuilder struct {
	Path     string
	Min, Max parquetquery.Value
	HasStats bool
	Pages    []PageBuilder
}

// RowGroupBuilder describes one row group.
type RowGroupBuilder struct {
	NumRows int64
	Columns []ColumnBuilder
}

// Reader is an in-memory parquetquery.Reader built from RowGroupBuilders.
// It counts every ReadOffsetIndex/ReadColumnIndex/ReadPage call it serves,
// so tests can assert on the exact fetch counts pruning is supposed to
// guarantee (§8 properties 6 and 7).
type Reader struct {
	id        string
	rowGroups []parquetquery.RowGroupMeta
	columns   []map[string]ColumnBuilder // per row group, by path

	mu    sync.Mutex
	calls map[string]int
}

// NewReader builds a Reader named id from the given row groups.
func NewReader(id string, groups []RowGroupBuilder) *Reader {
	r := &Reader{id: id, calls: make(map[string]int)}
	for no, g := range groups {
		cols := make(map[string]parquetquery.ColumnMeta, len(g.Columns))
		byPath := make(map[string]ColumnBuilder, len(g.Columns))
		for _, c := range g.Columns {
			cols[c.Path] = parquetquery.ColumnMeta{Path: c.Path, Min: c.Min, Max: c.Max, HasStats: c.HasStats}
			byPath[c.Path] = c
		}
		r.rowGroups = append(r.rowGroups, parquetquery.RowGroupMeta{No: no, NumRows: g.NumRows, Columns: cols})
		r.columns = append(r.columns, byPath)
	}
	return r
}

func (r *Reader) ID() string                             { return r.id }
func (r *Reader) RowGroups() []parquetquery.RowGroupMeta { return r.rowGroups }

func (r *Reader) count(kind string, rowGroup int, path string, pageNo int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[fmt.Sprintf("%s:%d:%s:%d", kind, rowGroup, path, pageNo)]++
}

// CallCount returns how many times ReadPage/ReadOffsetIndex/ReadColumnIndex
// was actually invoked (as opposed to served from cache) for the given
// coordinates. kind is "offset", "column", or "page".
func (r *Reader) CallCount(kind string, rowGroup int, path string, pageNo int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[fmt.Sprintf("%s:%d:%s:%d", kind, rowGroup, path, pageNo)]
}

func (r *Reader) column(rowGroup int, path string) (ColumnBuilder, bool) {
	if rowGroup < 0 || rowGroup >= len(r.columns) {
		return ColumnBuilder{}, false
	}
	c, ok := r.columns[rowGroup][path]
	return c, ok
}

func (r *Reader) ReadOffsetIndex(_ context.Context, rowGroup int, path string) (*parquetquery.OffsetIndex, error) {
	r.count("offset", rowGroup, path, 0)
	c, ok := r.column(rowGroup, path)
	if !ok {
		return nil, &parquetquery.SchemaError{Path: path}
	}
	idx := &parquetquery.OffsetIndex{Locations: make([]parquetquery.PageLocation, len(c.Pages))}
	for i, p := range c.Pages {
		idx.Locations[i] = parquetquery.PageLocation{FirstRowIndex: p.FirstRowIndex}
	}
	return idx, nil
}

func (r *Reader) ReadColumnIndex(_ context.Context, rowGroup int, path string) (*parquetquery.ColumnIndex, error) {
	r.count("column", rowGroup, path, 0)
	c, ok := r.column(rowGroup, path)
	if !ok {
		return nil, &parquetquery.SchemaError{Path: path}
	}
	idx := &parquetquery.ColumnIndex{
		MinValues: make([]parquetquery.Value, len(c.Pages)),
		MaxValues: make([]parquetquery.Value, len(c.Pages)),
	}
	for i, p := range c.Pages {
		idx.MinValues[i] = p.Min
		idx.MaxValues[i] = p.Max
	}
	return idx, nil
}

func (r *Reader) ReadPage(_ context.Context, rowGroup int, path string, _ *parquetquery.OffsetIndex, pageNo int) (*parquetquery.PageData, error) {
	r.count("page", rowGroup, path, pageNo)
	c, ok := r.column(rowGroup, path)
	if !ok || pageNo < 0 || pageNo >= len(c.Pages) {
		return nil, &parquetquery.SchemaError{Path: path}
	}
	p := c.Pages[pageNo]
	return &parquetquery.PageData{FirstRowIndex: p.FirstRowIndex, Values: p.Values}, nil
}

// QuantityNameReader builds the §8 end-to-end scenario fixture: two row
// groups sharing a "quantity" and "name" column.
//
// Group0: 6 rows. quantity pages start at rows [0,4], mins [20,25], maxes
// [30,29]; name is a single page covering the whole group.
// Group1: 5 rows. quantity pages start at rows [0,1,3], mins [20,15,18],
// maxes [20,17,30]; name is a single page covering the whole group.
func QuantityNameReader() *Reader {
	group0Quantity := []int64{20, 25, 28, 30, 29, 25}
	group0Names := []string{"chicago", "dallas", "denver", "austin", "reno", "miles"}
	group1Quantity := []int64{20, 15, 17, 18, 30}
	group1Names := []string{"omaha", "tulsa", "boise", "salem", "flint"}

	toValues := func(xs []int64) []parquetquery.Value {
		vs := make([]parquetquery.Value, len(xs))
		for i, x := range xs {
			vs[i] = parquetquery.Int64(x)
		}
		return vs
	}
	toStringValues := func(xs []string) []parquetquery.Value {
		vs := make([]parquetquery.Value, len(xs))
		for i, x := range xs {
			vs[i] = parquetquery.String(x)
		}
		return vs
	}

	groups := []RowGroupBuilder{
		{
			NumRows: 6,
			Columns: []ColumnBuilder{
				{
					Path: "quantity", HasStats: true,
					Min: parquetquery.Int64(20), Max: parquetquery.Int64(30),
					Pages: []PageBuilder{
						{FirstRowIndex: 0, Min: parquetquery.Int64(20), Max: parquetquery.Int64(30), Values: toValues(group0Quantity[0:4])},
						{FirstRowIndex: 4, Min: parquetquery.Int64(25), Max: parquetquery.Int64(29), Values: toValues(group0Quantity[4:6])},
					},
				},
				{
					Path: "name", HasStats: false,
					Pages: []PageBuilder{
						{FirstRowIndex: 0, Values: toStringValues(group0Names)},
					},
				},
			},
		},
		{
			NumRows: 5,
			Columns: []ColumnBuilder{
				{
					Path: "quantity", HasStats: true,
					Min: parquetquery.Int64(15), Max: parquetquery.Int64(30),
					Pages: []PageBuilder{
						{FirstRowIndex: 0, Min: parquetquery.Int64(20), Max: parquetquery.Int64(20), Values: toValues(group1Quantity[0:1])},
						{FirstRowIndex: 1, Min: parquetquery.Int64(15), Max: parquetquery.Int64(17), Values: toValues(group1Quantity[1:3])},
						{FirstRowIndex: 3, Min: parquetquery.Int64(18), Max: parquetquery.Int64(30), Values: toValues(group1Quantity[3:5])},
					},
				},
				{
					Path: "name", HasStats: false,
					Pages: []PageBuilder{
						{FirstRowIndex: 0, Values: toStringValues(group1Names)},
					},
				},
			},
		},
	}
	return NewReader("quantity-name-fixture", groups)
}
