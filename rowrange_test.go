package parquetquery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parquet-go/parquetquery/internal/cache"
)

func newTestCache() *cache.Cache {
	return cache.New(cache.DefaultDurableSize, cache.Hooks{}, nil)
}

func TestRowRangeRootBounds(t *testing.T) {
	reader := quantityFixture()
	root := newRootRowRange(reader, reader.RowGroups()[0], newTestCache())

	require.Equal(t, int64(0), root.Low())
	require.Equal(t, int64(5), root.High())
	require.Equal(t, int64(6), root.Len())
	require.Equal(t, 0, root.RowGroup())
}

func TestRowRangeExtendInheritsSharedIndices(t *testing.T) {
	reader := quantityFixture()
	c := newTestCache()
	root := newRootRowRange(reader, reader.RowGroups()[0], c)

	_, err := root.PrimeOffsetIndex(context.Background(), "quantity")
	require.NoError(t, err)

	child := root.Extend(0, 3, "quantity", Int64(20), Int64(30))
	require.Equal(t, int64(20), child.MinValue("quantity").Int64())
	require.Equal(t, int64(30), child.MaxValue("quantity").Int64())

	// The child shares its parent's already-primed offset index: priming
	// again must not trigger another reader call.
	_, err = child.PrimeOffsetIndex(context.Background(), "quantity")
	require.NoError(t, err)
	require.Equal(t, 1, reader.calls["offset:0:quantity"])
}

func TestRowRangeMinMaxFallsBackToRowGroupStats(t *testing.T) {
	reader := quantityFixture()
	root := newRootRowRange(reader, reader.RowGroups()[0], newTestCache())

	require.Equal(t, int64(20), root.MinValue("quantity").Int64())
	require.Equal(t, int64(30), root.MaxValue("quantity").Int64())
}

func TestRowRangeExtendPanicsOnInvertedBounds(t *testing.T) {
	reader := quantityFixture()
	root := newRootRowRange(reader, reader.RowGroups()[0], newTestCache())

	require.Panics(t, func() {
		root.Extend(3, 1, "", Value{}, Value{})
	})
}

func TestRowRangeExtendPanicsOnInvertedTightenedBounds(t *testing.T) {
	reader := quantityFixture()
	root := newRootRowRange(reader, reader.RowGroups()[0], newTestCache())

	require.Panics(t, func() {
		root.Extend(0, 3, "quantity", Int64(30), Int64(20))
	})
}

func TestFindRelevantPageIndex(t *testing.T) {
	reader := quantityFixture()
	root := newRootRowRange(reader, reader.RowGroups()[0], newTestCache())
	_, err := root.PrimeOffsetIndex(context.Background(), "quantity")
	require.NoError(t, err)

	require.Equal(t, 0, root.FindRelevantPageIndex("quantity", 0))
	require.Equal(t, 0, root.FindRelevantPageIndex("quantity", 3))
	require.Equal(t, 1, root.FindRelevantPageIndex("quantity", 4))
	require.Equal(t, 1, root.FindRelevantPageIndex("quantity", 5))
}

func TestPrimeOffsetIndexDeduplicatesAcrossLineage(t *testing.T) {
	reader := quantityFixture()
	c := newTestCache()
	root := newRootRowRange(reader, reader.RowGroups()[0], c)
	childA := root.Extend(0, 3, "", Value{}, Value{})
	childB := root.Extend(4, 5, "", Value{}, Value{})

	ctx := context.Background()
	_, err := childA.PrimeOffsetIndex(ctx, "quantity")
	require.NoError(t, err)
	_, err = childB.PrimeOffsetIndex(ctx, "quantity")
	require.NoError(t, err)
	_, err = root.PrimeOffsetIndex(ctx, "quantity")
	require.NoError(t, err)

	require.Equal(t, 1, reader.calls["offset:0:quantity"])
}

func TestPageDataFetchesThroughOffsetIndex(t *testing.T) {
	reader := quantityFixture()
	root := newRootRowRange(reader, reader.RowGroups()[0], newTestCache())

	page, err := root.PageData(context.Background(), "quantity", 1)
	require.NoError(t, err)
	require.Equal(t, int64(4), page.FirstRowIndex)
	require.Equal(t, []Value{Int64(29), Int64(25)}, page.Values)
}
