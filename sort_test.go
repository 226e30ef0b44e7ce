package parquetquery

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortRecordsMergesMultipleBatches(t *testing.T) {
	batches := [][]Record{
		{{"q": int64(3)}, {"q": int64(1)}, {"q": int64(9)}},
		{{"q": int64(2)}, {"q": int64(8)}},
	}
	out := sortRecords(batches, SortSpec{Path: "q"})

	var got []int64
	for _, r := range out {
		got = append(got, r["q"].(int64))
	}
	require.Equal(t, []int64{1, 2, 3, 8, 9}, got)
}

func TestSortRecordsDescending(t *testing.T) {
	batches := [][]Record{{{"q": int64(1)}, {"q": int64(5)}, {"q": int64(3)}}}
	out := sortRecords(batches, SortSpec{Path: "q", Desc: true})

	var got []int64
	for _, r := range out {
		got = append(got, r["q"].(int64))
	}
	require.Equal(t, []int64{5, 3, 1}, got)
}

func TestSortRecordsSkipsEmptyBatches(t *testing.T) {
	batches := [][]Record{nil, {{"q": int64(1)}}, {}}
	out := sortRecords(batches, SortSpec{Path: "q"})
	require.Len(t, out, 1)
}

func TestCompareRecordKeysHandlesNil(t *testing.T) {
	require.Equal(t, 0, compareRecordKeys(nil, nil))
	require.Equal(t, -1, compareRecordKeys(nil, int64(1)))
	require.Equal(t, 1, compareRecordKeys(int64(1), nil))
}
