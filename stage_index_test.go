package parquetquery

import (
	"context"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/require"
)

func TestIndexFilterStageScenario2(t *testing.T) {
	reader := quantityFixture()
	root := newRootRowRange(reader, reader.RowGroups()[1], newTestCache())

	p := &RangePredicate{Path: "quantity", Min: Int64(5), Max: Int64(18), HasMin: true, HasMax: true, IndexOnly: true}
	stage := newIndexFilterStage("quantity", p, log.NewNopLogger())

	out, err := stage(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, int64(1), out[0].Low())
	require.Equal(t, int64(4), out[0].High())

	// Index-only pruning must never read page data.
	require.Equal(t, 0, reader.calls["page:1:quantity:0"])
	require.Equal(t, 0, reader.calls["page:1:quantity:1"])
	require.Equal(t, 0, reader.calls["page:1:quantity:2"])
}

func TestIndexFilterStageScenario3TwoRanges(t *testing.T) {
	reader := quantityFixture()
	root0 := newRootRowRange(reader, reader.RowGroups()[0], newTestCache())
	root1 := newRootRowRange(reader, reader.RowGroups()[1], newTestCache())

	p := &RangePredicate{Path: "quantity", Min: Int64(18), Max: Int64(20), HasMin: true, HasMax: true, IndexOnly: true}
	stage := newIndexFilterStage("quantity", p, log.NewNopLogger())

	out0, err := stage(context.Background(), root0)
	require.NoError(t, err)
	require.Len(t, out0, 1)
	require.Equal(t, int64(0), out0[0].Low())
	require.Equal(t, int64(3), out0[0].High())

	out1, err := stage(context.Background(), root1)
	require.NoError(t, err)
	require.Len(t, out1, 2)
	require.Equal(t, int64(0), out1[0].Low())
	require.Equal(t, int64(0), out1[0].High())
	require.Equal(t, int64(3), out1[1].Low())
	require.Equal(t, int64(4), out1[1].High())
}

func TestIndexFilterStageDisprovenByRowGroupStats(t *testing.T) {
	reader := quantityFixture()
	root := newRootRowRange(reader, reader.RowGroups()[0], newTestCache())

	p := &RangePredicate{Path: "quantity", Min: Int64(5), Max: Int64(10), HasMin: true, HasMax: true, IndexOnly: true}
	stage := newIndexFilterStage("quantity", p, log.NewNopLogger())

	out, err := stage(context.Background(), root)
	require.NoError(t, err)
	require.Empty(t, out)
	require.Equal(t, 0, reader.calls["offset:0:quantity"])
}
