package parquetquery

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/parquet-go/parquetquery/internal/cache"
	"github.com/parquet-go/parquetquery/internal/stream"
)

// QuerySpec is the public, declarative query surface (§6): ordered filter
// phases, the fields to materialize, an optional sort key, and optional
// post-filter/transform stages run on the materialized records.
type QuerySpec struct {
	Filter []Phase
	Fields []FieldSpec
	Sort   *SortSpec
	Post   []PostStage
}

// QueryOption configures a Query at construction time.
type QueryOption func(*Query)

// WithFanout overrides the default per-stage concurrency bound (§4.F).
func WithFanout(n int) QueryOption {
	return func(q *Query) { q.fanout = n }
}

// WithLogger attaches a structured logger for pruning/fetch diagnostics.
func WithLogger(logger log.Logger) QueryOption {
	return func(q *Query) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// WithCache attaches a pre-built, possibly shared, Cache instance. Queries
// that share a Cache across invocations against the same Reader get the
// durable LRU's cross-query reuse described in §4.G.
func WithCache(c *cache.Cache) QueryOption {
	return func(q *Query) { q.cache = c }
}

// Query is a parsed, ready-to-run QuerySpec.
type Query struct {
	spec       QuerySpec
	predicates []Predicate
	loader     *FieldLoader

	fanout int
	logger log.Logger
	cache  *cache.Cache

	mu      sync.Mutex
	explain explainStats
}

// explainStats accumulates the counters Explain renders; Run populates it
// as it goes, one row group at a time.
type explainStats struct {
	rowGroups []rowGroupExplain
}

type rowGroupExplain struct {
	no          int
	rootRows    int64
	survivingIn int
	records     int
}

// NewQuery parses spec's filter phases and validates its field list,
// returning a Query ready to Run against any Reader whose row groups carry
// the requested paths.
func NewQuery(spec QuerySpec, opts ...QueryOption) (*Query, error) {
	if len(spec.Fields) == 0 {
		return nil, &SpecError{Msg: "query requires at least one field"}
	}
	predicates, err := ParsePhases(spec.Filter)
	if err != nil {
		return nil, err
	}
	q := &Query{
		spec:       spec,
		predicates: predicates,
		loader:     NewFieldLoader(spec.Fields),
		fanout:     stream.DefaultFanout,
		logger:     log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.cache == nil {
		q.cache = cache.New(cache.DefaultDurableSize, cache.Hooks{}, q.logger)
	}
	return q, nil
}

// Run executes the query against reader end to end: for every row group it
// seeds a root RowRange, threads it through the compiled filter phases, and
// loads records from whatever survives. Records are returned in
// (row-group, row-index) emission order unless spec.Sort imposes a global
// order. Each invocation is stamped with a UUID correlating its log lines.
func (q *Query) Run(ctx context.Context, reader Reader) ([]Record, error) {
	reqID := uuid.New().String()
	logger := log.With(q.logger, "request_id", reqID)

	q.mu.Lock()
	q.explain = explainStats{}
	q.mu.Unlock()

	stages := make([]rowStage, len(q.predicates))
	for i, p := range q.predicates {
		stages[i] = compileStage(p, q.fanout, logger)
	}

	rowGroups := reader.RowGroups()
	batches := make([][]Record, len(rowGroups))

	for i, rg := range rowGroups {
		root := newRootRowRange(reader, rg, q.cache)

		in := make(chan *RowRange, 1)
		in <- root
		close(in)

		out, wait := stream.Chain(ctx, in, stages, q.fanout)

		var surviving []*RowRange
		for r := range out {
			surviving = append(surviving, r)
		}
		if err := wait(); err != nil {
			return nil, err
		}

		level.Debug(logger).Log("msg", "filter phases complete", "row_group", rg.No,
			"surviving_ranges", len(surviving))

		var records []Record
		for _, r := range surviving {
			recs, err := q.loader.Load(ctx, r)
			if err != nil {
				return nil, err
			}
			records = append(records, recs...)
		}
		batches[i] = records

		q.mu.Lock()
		q.explain.rowGroups = append(q.explain.rowGroups, rowGroupExplain{
			no: rg.No, rootRows: rg.NumRows, survivingIn: len(surviving), records: len(records),
		})
		q.mu.Unlock()
	}

	var records []Record
	if q.spec.Sort != nil {
		records = sortRecords(batches, *q.spec.Sort)
	} else {
		for _, b := range batches {
			records = append(records, b...)
		}
	}

	records, err := runPostStages(records, q.spec.Post)
	if err != nil {
		return nil, err
	}

	level.Info(logger).Log("msg", "query complete", "row_groups", len(rowGroups), "records", len(records))
	return records, nil
}

// Explain renders the pruning plan observed by the most recent Run as a
// table: one row per row group, the surviving RowRange count entering the
// field loader, and the records it produced.
func (q *Query) Explain() string {
	q.mu.Lock()
	defer q.mu.Unlock()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"row group", "rows", "surviving ranges", "records"})
	for _, rg := range q.explain.rowGroups {
		table.Append([]string{
			fmt.Sprintf("%d", rg.no),
			fmt.Sprintf("%d", rg.rootRows),
			fmt.Sprintf("%d", rg.survivingIn),
			fmt.Sprintf("%d", rg.records),
		})
	}
	table.Render()
	return buf.String()
}
