package parquetquery

import (
	"container/heap"
	"fmt"
	"sort"
	"strings"
)

// SortSpec requests a global sort of the emitted record stream by a single
// field (§1 Non-goals: "no cross-row-group ordering beyond what an
// explicit sort stage imposes" — this is that stage).
type SortSpec struct {
	Path string
	Desc bool
}

// sortRecords sorts every batch in place by spec, then k-way merges the
// batches into one globally sorted slice. Each batch is, in practice, the
// record set produced by one (reader, rowGroup) pair: the merge mirrors
// the teacher's merge.go strategy of repeatedly picking the smallest
// not-yet-emitted value across a set of already-locally-sorted sources,
// implemented with container/heap rather than re-sorting the concatenation
// from scratch.
func sortRecords(batches [][]Record, spec SortSpec) []Record {
	live := make([][]Record, 0, len(batches))
	for _, b := range batches {
		if len(b) == 0 {
			continue
		}
		sortBatch(b, spec)
		live = append(live, b)
	}
	if len(live) == 0 {
		return nil
	}
	if len(live) == 1 {
		return live[0]
	}
	return heapMerge(live, spec)
}

func sortBatch(b []Record, spec SortSpec) {
	sort.SliceStable(b, func(i, j int) bool {
		cmp := compareRecordKeys(b[i][spec.Path], b[j][spec.Path])
		if spec.Desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

// mergeCursor tracks one batch's next unread position, the unit of work
// the merge heap orders on.
type mergeCursor struct {
	batch []Record
	pos   int
}

type mergeHeap struct {
	cursors []*mergeCursor
	spec    SortSpec
}

func (h *mergeHeap) Len() int { return len(h.cursors) }
func (h *mergeHeap) Less(i, j int) bool {
	a := h.cursors[i].batch[h.cursors[i].pos][h.spec.Path]
	b := h.cursors[j].batch[h.cursors[j].pos][h.spec.Path]
	cmp := compareRecordKeys(a, b)
	if h.spec.Desc {
		return cmp > 0
	}
	return cmp < 0
}
func (h *mergeHeap) Swap(i, j int) { h.cursors[i], h.cursors[j] = h.cursors[j], h.cursors[i] }
func (h *mergeHeap) Push(x any)    { h.cursors = append(h.cursors, x.(*mergeCursor)) }
func (h *mergeHeap) Pop() any {
	old := h.cursors
	n := len(old)
	item := old[n-1]
	h.cursors = old[:n-1]
	return item
}

func heapMerge(batches [][]Record, spec SortSpec) []Record {
	total := 0
	h := &mergeHeap{spec: spec}
	for _, b := range batches {
		total += len(b)
		h.cursors = append(h.cursors, &mergeCursor{batch: b})
	}
	heap.Init(h)

	out := make([]Record, 0, total)
	for h.Len() > 0 {
		cur := h.cursors[0]
		out = append(out, cur.batch[cur.pos])
		cur.pos++
		if cur.pos >= len(cur.batch) {
			heap.Pop(h)
		} else {
			heap.Fix(h, 0)
		}
	}
	return out
}

// compareRecordKeys orders two record-key values of possibly differing
// dynamic type. Unlike Compare on Value, this never panics — sort keys
// come from merged JSON source columns as well as typed fields, so the
// Kind-exhaustive contract Value.Compare relies on doesn't hold here;
// nulls/missing keys sort first, then ties break by a stable type-name
// fallback so the order is at least deterministic across mismatched
// types.
func compareRecordKeys(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	switch av := a.(type) {
	case int64:
		if bv, ok := b.(int64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case !av && bv:
				return -1
			case av && !bv:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b))
}
