package parquetquery

// fastFilter reports whether row-group/page statistics PROVE that p cannot
// match any row in r. It returns false (cannot prove) far more often than
// it returns true, by design: it only ever uses r's effective bounds
// (RowRange.MinValue/MaxValue), never page data (§4.C).
func fastFilter(p Predicate, r *RowRange) bool {
	switch p := p.(type) {
	case *ValuePredicate:
		rowMin, rowMax := r.MinValue(p.Path), r.MaxValue(p.Path)
		return boundsDisprove(rowMin, rowMax, p.V, p.V, true, true)
	case *RangePredicate:
		rowMin, rowMax := r.MinValue(p.Path), r.MaxValue(p.Path)
		return boundsDisprove(rowMin, rowMax, p.Min, p.Max, p.HasMin, p.HasMax)
	case *AndPredicate:
		for _, c := range p.Children {
			if fastFilter(c, r) {
				return true
			}
		}
		return false
	case *OrPredicate:
		for _, c := range p.Children {
			if !fastFilter(c, r) {
				return false
			}
		}
		return true
	case *PathPredicate:
		return false
	default:
		return false
	}
}

// boundsDisprove implements the shared shape of the Range/Value fastFilter
// rule: rowMin > max OR rowMax < min (whichever bound is defined). A Value
// predicate calls this with min=max=v and both bounds "defined".
func boundsDisprove(rowMin, rowMax, min, max Value, hasMin, hasMax bool) bool {
	if hasMax && !rowMin.IsNull() && Compare(rowMin, max) > 0 {
		return true
	}
	if hasMin && !rowMax.IsNull() && Compare(rowMax, min) < 0 {
		return true
	}
	return false
}

// fastPass reports whether r can be emitted without reading any page
// values: every row in r is guaranteed to satisfy p given r's effective
// bounds alone (§4.C).
func fastPass(p Predicate, r *RowRange) bool {
	switch p := p.(type) {
	case *ValuePredicate:
		rowMin, rowMax := r.MinValue(p.Path), r.MaxValue(p.Path)
		if rowMin.IsNull() || rowMax.IsNull() {
			return false
		}
		return Compare(rowMin, p.V) == 0 && Compare(rowMax, p.V) == 0
	case *RangePredicate:
		rowMin, rowMax := r.MinValue(p.Path), r.MaxValue(p.Path)
		if rowMin.IsNull() || rowMax.IsNull() {
			return false
		}
		if p.HasMin && Compare(p.Min, rowMin) > 0 {
			return false
		}
		if p.HasMax && Compare(rowMax, p.Max) > 0 {
			return false
		}
		return true
	case *AndPredicate:
		for _, c := range p.Children {
			if !fastPass(c, r) {
				return false
			}
		}
		return true
	case *OrPredicate:
		// A conservative (but correct) rule: if any single child passes
		// outright, the whole Or does. Mixed partial-pass children still
		// require a value scan, handled by the Or composite stage.
		for _, c := range p.Children {
			if fastPass(c, r) {
				return true
			}
		}
		return false
	case *PathPredicate:
		return true
	default:
		return false
	}
}

// evaluate checks p against a single decoded row value at path — used by
// the scan-page sub-stage once page data has actually been read (§4.D).
// It is never used for index-only predicates, whose page data is never
// fetched in the first place.
func evaluate(p Predicate, row map[string]Value) bool {
	switch p := p.(type) {
	case *ValuePredicate:
		v, ok := row[p.Path]
		return ok && !v.IsNull() && Compare(v, p.V) == 0
	case *RangePredicate:
		v, ok := row[p.Path]
		if !ok || v.IsNull() {
			return false
		}
		if p.HasMin && Compare(v, p.Min) < 0 {
			return false
		}
		if p.HasMax && Compare(v, p.Max) > 0 {
			return false
		}
		return true
	case *AndPredicate:
		for _, c := range p.Children {
			if !evaluate(c, row) {
				return false
			}
		}
		return true
	case *OrPredicate:
		for _, c := range p.Children {
			if evaluate(c, row) {
				return true
			}
		}
		return false
	case *PathPredicate:
		return true
	default:
		return false
	}
}

// predicatePaths returns the set of column paths p reads, used to decide
// which columns a value-filter stage must fetch page data for.
func predicatePaths(p Predicate) []string {
	switch p := p.(type) {
	case *ValuePredicate:
		return []string{p.Path}
	case *RangePredicate:
		return []string{p.Path}
	case *PathPredicate:
		return []string{p.Path}
	case *AndPredicate:
		var out []string
		for _, c := range p.Children {
			out = append(out, predicatePaths(c)...)
		}
		return out
	case *OrPredicate:
		var out []string
		for _, c := range p.Children {
			out = append(out, predicatePaths(c)...)
		}
		return out
	default:
		return nil
	}
}

// singlePath returns the sole column path a predicate reads, and whether
// it is truly single-path (false for multi-child And/Or spanning more
// than one path, which the value-filter stage cannot support —
// newValueFilterStage returns an InvariantError for such a predicate).
func singlePath(p Predicate) (string, bool) {
	paths := predicatePaths(p)
	if len(paths) == 0 {
		return "", false
	}
	first := paths[0]
	for _, p := range paths[1:] {
		if p != first {
			return "", false
		}
	}
	return first, true
}
