package parquetquery

// PostStage is a post-filter/transform step run on fully-materialized
// records, after the field loader and any sort stage (§4.F: "Optional
// user-supplied post stages (filter/transform) run last"). The spec's
// `script` field is implemented here as a plain Go function rather than an
// embedded scripting language — this module is a Go library, and every
// caller is already in a position to pass a closure.
type PostStage struct {
	kind      postKind
	filterFn  func(Record) bool
	transform func(Record) (Record, error)
}

type postKind int

const (
	postFilter postKind = iota
	postTransform
)

// PostFilter builds a post stage that keeps only records for which fn
// returns true.
func PostFilter(fn func(Record) bool) PostStage {
	return PostStage{kind: postFilter, filterFn: fn}
}

// PostTransform builds a post stage that maps each record through fn,
// which may add, remove, or rewrite fields. An error from fn stops the
// post stages and is returned by Run with no records.
func PostTransform(fn func(Record) (Record, error)) PostStage {
	return PostStage{kind: postTransform, transform: fn}
}

// runPostStages threads records through stages in order, exactly the way
// filter phases thread RowRanges through each other: stage i's output is
// stage i+1's input.
func runPostStages(records []Record, stages []PostStage) ([]Record, error) {
	for _, st := range stages {
		next := make([]Record, 0, len(records))
		switch st.kind {
		case postFilter:
			for _, r := range records {
				if st.filterFn(r) {
					next = append(next, r)
				}
			}
		case postTransform:
			for _, r := range records {
				out, err := st.transform(r)
				if err != nil {
					return nil, err
				}
				next = append(next, out)
			}
		}
		records = next
	}
	return records, nil
}
