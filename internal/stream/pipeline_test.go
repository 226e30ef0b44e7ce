package stream

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func collect(ch <-chan int) []int {
	var out []int
	for v := range ch {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func TestRunAppliesStageToEveryItem(t *testing.T) {
	in := make(chan int, 5)
	for i := 1; i <= 5; i++ {
		in <- i
	}
	close(in)

	double := func(_ context.Context, item int) ([]int, error) {
		return []int{item * 2}, nil
	}

	out, wait := Run(context.Background(), in, double, 2)
	got := collect(out)
	require.NoError(t, wait())
	require.Equal(t, []int{2, 4, 6, 8, 10}, got)
}

func TestRunDropsFilteredItems(t *testing.T) {
	in := make(chan int, 3)
	in <- 1
	in <- 2
	in <- 3
	close(in)

	onlyEven := func(_ context.Context, item int) ([]int, error) {
		if item%2 == 0 {
			return []int{item}, nil
		}
		return nil, nil
	}

	out, wait := Run(context.Background(), in, onlyEven, 0)
	got := collect(out)
	require.NoError(t, wait())
	require.Equal(t, []int{2}, got)
}

func TestRunPreservesPartialOutputOnError(t *testing.T) {
	in := make(chan int, 4)
	for i := 1; i <= 4; i++ {
		in <- i
	}
	close(in)

	boom := errors.New("boom")
	var processed int32
	stage := func(_ context.Context, item int) ([]int, error) {
		atomic.AddInt32(&processed, 1)
		if item == 3 {
			return nil, boom
		}
		return []int{item}, nil
	}

	out, wait := Run(context.Background(), in, stage, 1)
	got := collect(out)
	err := wait()

	require.ErrorIs(t, err, boom)
	// At least the items that succeeded before the failing one was
	// scheduled must have been flushed.
	require.NotEmpty(t, got)
}

func TestChainComposesStagesInOrder(t *testing.T) {
	in := make(chan int, 1)
	in <- 1
	close(in)

	addOne := func(_ context.Context, item int) ([]int, error) { return []int{item + 1}, nil }
	timesTen := func(_ context.Context, item int) ([]int, error) { return []int{item * 10}, nil }

	out, wait := Chain(context.Background(), in, []Stage[int]{addOne, timesTen}, 0)
	got := collect(out)
	require.NoError(t, wait())
	require.Equal(t, []int{20}, got)
}
