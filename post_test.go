package parquetquery

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunPostStagesFilter(t *testing.T) {
	records := []Record{{"q": int64(1)}, {"q": int64(2)}, {"q": int64(3)}}
	out, err := runPostStages(records, []PostStage{
		PostFilter(func(r Record) bool { return r["q"].(int64) > 1 }),
	})
	require.NoError(t, err)
	require.Equal(t, []Record{{"q": int64(2)}, {"q": int64(3)}}, out)
}

func TestRunPostStagesTransform(t *testing.T) {
	records := []Record{{"q": int64(1)}}
	out, err := runPostStages(records, []PostStage{
		PostTransform(func(r Record) (Record, error) {
			r["doubled"] = r["q"].(int64) * 2
			return r, nil
		}),
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), out[0]["doubled"])
}

func TestRunPostStagesTransformError(t *testing.T) {
	boom := errors.New("boom")
	_, err := runPostStages([]Record{{"q": int64(1)}}, []PostStage{
		PostTransform(func(r Record) (Record, error) { return nil, boom }),
	})
	require.ErrorIs(t, err, boom)
}

func TestRunPostStagesChaining(t *testing.T) {
	records := []Record{{"q": int64(1)}, {"q": int64(2)}}
	out, err := runPostStages(records, []PostStage{
		PostFilter(func(r Record) bool { return r["q"].(int64) > 0 }),
		PostTransform(func(r Record) (Record, error) {
			r["seen"] = true
			return r, nil
		}),
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, true, out[0]["seen"])
}
