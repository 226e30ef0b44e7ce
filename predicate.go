package parquetquery

// PredicateSpec is the declarative, user-supplied shape of one predicate
// node (§4.A). A nil pointer means the key was not supplied; an empty but
// non-nil slice for And/Or means the key was supplied empty, which is a
// SpecError (an empty and/or can never match or prune meaningfully).
type PredicateSpec struct {
	Path  string
	Value *Value
	Min   *Value
	Max   *Value
	And   []PredicateSpec
	Or    []PredicateSpec
	Index bool
	// Source marks path as a JSON-blob column whose value should be parsed
	// and merged into the record rather than stored under Path verbatim.
	Source bool
}

// Phase is one user-declared pruning step: either a single predicate
// object, or (when len > 1) a list interpreted as an implicit And.
type Phase []PredicateSpec

// Predicate is the compiled form of a PredicateSpec: a tagged variant,
// dispatched by type switch rather than through an interface method set
// with per-variant overrides, so the set of variants stays closed and
// exhaustively checkable (see DESIGN.md).
type Predicate interface {
	predicate()
}

// ValuePredicate matches rows whose column at Path equals V exactly.
type ValuePredicate struct {
	Path      string
	V         Value
	IndexOnly bool
	Source    bool
}

// RangePredicate matches rows whose column at Path falls within
// [Min, Max] inclusive; either bound may be absent (zero Value, IsNull).
type RangePredicate struct {
	Path      string
	Min, Max  Value
	HasMin    bool
	HasMax    bool
	IndexOnly bool
	Source    bool
}

// AndPredicate matches rows matched by every child.
type AndPredicate struct{ Children []Predicate }

// OrPredicate matches rows matched by at least one child.
type OrPredicate struct{ Children []Predicate }

// PathPredicate is a field-load-only node: it always matches, carried
// through the filter phases purely to request that Path participate in
// source-column handling without imposing a value constraint.
type PathPredicate struct {
	Path   string
	Source bool
}

func (*ValuePredicate) predicate() {}
func (*RangePredicate) predicate() {}
func (*AndPredicate) predicate()   {}
func (*OrPredicate) predicate()    {}
func (*PathPredicate) predicate()  {}

// ParsePhases compiles a declarative filter specification into a list of
// compiled phase roots, in declaration order. Each phase is compiled
// independently; composing them into a pipeline is Query's job (query.go),
// not this function's — a phase sees already-pruned RowRanges from the
// previous phase, which is meaningful and must not be collapsed into one
// flat And across all phases.
func ParsePhases(phases []Phase) ([]Predicate, error) {
	out := make([]Predicate, 0, len(phases))
	for _, phase := range phases {
		if len(phase) == 0 {
			return nil, &SpecError{Msg: "phase has no predicates"}
		}
		if len(phase) == 1 {
			p, err := parseOne(phase[0])
			if err != nil {
				return nil, err
			}
			out = append(out, p)
			continue
		}
		children := make([]Predicate, 0, len(phase))
		for _, spec := range phase {
			p, err := parseOne(spec)
			if err != nil {
				return nil, err
			}
			children = append(children, p)
		}
		out = append(out, &AndPredicate{Children: children})
	}
	return out, nil
}

func parseOne(spec PredicateSpec) (Predicate, error) {
	hasValue := spec.Value != nil
	hasRange := spec.Min != nil || spec.Max != nil
	hasAnd := spec.And != nil
	hasOr := spec.Or != nil
	isLeaf := hasValue || hasRange

	switch {
	case hasValue && hasRange:
		return nil, &SpecError{Msg: "predicate has both value and min/max"}
	case hasAnd && hasOr:
		return nil, &SpecError{Msg: "predicate has both and and or"}
	case (hasAnd || hasOr) && isLeaf:
		return nil, &SpecError{Msg: "predicate mixes and/or composition with value/min/max"}
	}

	if hasAnd {
		if len(spec.And) == 0 {
			return nil, &SpecError{Msg: "empty and"}
		}
		children := make([]Predicate, 0, len(spec.And))
		for _, child := range spec.And {
			c, err := parseOne(child)
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
		return &AndPredicate{Children: children}, nil
	}

	if hasOr {
		if len(spec.Or) == 0 {
			return nil, &SpecError{Msg: "empty or"}
		}
		children := make([]Predicate, 0, len(spec.Or))
		for _, child := range spec.Or {
			c, err := parseOne(child)
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
		return &OrPredicate{Children: children}, nil
	}

	if spec.Path == "" {
		return nil, &SpecError{Msg: "predicate requires a path"}
	}

	// Source predicates bypass index-only pruning (§9 open question):
	// a source column's "value" is a JSON blob we must parse, so
	// index==true on it can only ever mean "index-only on the raw bytes",
	// which is never what a caller intends.
	indexOnly := spec.Index && !spec.Source

	switch {
	case hasValue:
		return &ValuePredicate{Path: spec.Path, V: *spec.Value, IndexOnly: indexOnly, Source: spec.Source}, nil
	case hasRange:
		rp := &RangePredicate{Path: spec.Path, IndexOnly: indexOnly, Source: spec.Source}
		if spec.Min != nil {
			rp.Min, rp.HasMin = *spec.Min, true
		}
		if spec.Max != nil {
			rp.Max, rp.HasMax = *spec.Max, true
		}
		return rp, nil
	default:
		return &PathPredicate{Path: spec.Path, Source: spec.Source}, nil
	}
}
