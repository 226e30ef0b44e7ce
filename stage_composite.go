package parquetquery

import (
	"context"
	"sort"

	"github.com/go-kit/log"
	"golang.org/x/sync/errgroup"
)

// newAndStage implements the And composite (§4.D): primes every child's
// paths in parallel, then runs the children's stages serially, the
// downstream of child i feeding child i+1.
func newAndStage(p *AndPredicate, fanout int, logger log.Logger) rowStage {
	childStages := make([]rowStage, len(p.Children))
	for i, c := range p.Children {
		childStages[i] = compileStage(c, fanout, logger)
	}
	children := p.Children

	return func(ctx context.Context, r *RowRange) ([]*RowRange, error) {
		g, gctx := errgroup.WithContext(ctx)
		for _, c := range children {
			c := c
			g.Go(func() error { return primePredicate(gctx, c, r) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		current := []*RowRange{r}
		for _, stage := range childStages {
			var next []*RowRange
			for _, cr := range current {
				out, err := stage(ctx, cr)
				if err != nil {
					return nil, err
				}
				next = append(next, out...)
			}
			current = next
			if len(current) == 0 {
				break
			}
		}
		return current, nil
	}
}

// newOrStage implements the Or composite (§4.D, §9 "OR ordering" open
// question): every child runs as an independent sub-pipeline over the same
// input RowRange, in parallel; their emitted ranges are unioned over the
// row-index domain via an emitBitmap so every input row is emitted at
// most once, with earlier children (in declaration order) winning ties.
func newOrStage(p *OrPredicate, fanout int, logger log.Logger) rowStage {
	childStages := make([]rowStage, len(p.Children))
	for i, c := range p.Children {
		childStages[i] = compileStage(c, fanout, logger)
	}

	return func(ctx context.Context, r *RowRange) ([]*RowRange, error) {
		childRanges := make([][]*RowRange, len(childStages))
		g, gctx := errgroup.WithContext(ctx)
		for i, stage := range childStages {
			i, stage := i, stage
			g.Go(func() error {
				out, err := stage(gctx, r)
				if err != nil {
					return err
				}
				childRanges[i] = out
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		bitmap := newEmitBitmap(r.Low(), r.High())
		var out []*RowRange
		for _, ranges := range childRanges {
			for _, cr := range ranges {
				for _, iv := range bitmap.claim(cr.Low(), cr.High()) {
					if iv[0] == cr.Low() && iv[1] == cr.High() {
						out = append(out, cr)
					} else {
						out = append(out, r.Extend(iv[0], iv[1], "", Value{}, Value{}))
					}
				}
			}
		}

		sort.Slice(out, func(i, j int) bool { return out[i].Low() < out[j].Low() })
		return out, nil
	}
}

// primePredicate fetches the offset/column indices every leaf under p will
// need, so the And stage's serial scan doesn't pay fetch latency for each
// child in turn. The first fetch error is returned and fails the And stage.
func primePredicate(ctx context.Context, p Predicate, r *RowRange) error {
	switch p := p.(type) {
	case *ValuePredicate:
		return primePath(ctx, r, p.Path)
	case *RangePredicate:
		return primePath(ctx, r, p.Path)
	case *PathPredicate:
		return primePath(ctx, r, p.Path)
	case *AndPredicate:
		g, gctx := errgroup.WithContext(ctx)
		for _, c := range p.Children {
			c := c
			g.Go(func() error { return primePredicate(gctx, c, r) })
		}
		return g.Wait()
	case *OrPredicate:
		g, gctx := errgroup.WithContext(ctx)
		for _, c := range p.Children {
			c := c
			g.Go(func() error { return primePredicate(gctx, c, r) })
		}
		return g.Wait()
	default:
		return nil
	}
}

func primePath(ctx context.Context, r *RowRange, path string) error {
	if _, err := r.PrimeOffsetIndex(ctx, path); err != nil {
		return err
	}
	_, err := r.PrimeColumnIndex(ctx, path)
	return err
}
