package rangeio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCoalesceMergesWithinGap(t *testing.T) {
	wants := []Want{
		{Offset: 0, Length: 100, Index: 0},
		{Offset: 150, Length: 100, Index: 1}, // gap = 50, within default
	}
	ranges := Coalesce(wants, DefaultMaxGapBytes, DefaultMaxRequestSize)
	require.Len(t, ranges, 1)
	require.Equal(t, uint64(0), ranges[0].Start)
	require.Equal(t, uint64(250), ranges[0].Length)
	require.Len(t, ranges[0].Inner, 2)
}

func TestCoalesceSplitsBeyondGap(t *testing.T) {
	wants := []Want{
		{Offset: 0, Length: 100, Index: 0},
		{Offset: 100 + 40000, Length: 100, Index: 1},
	}
	ranges := Coalesce(wants, DefaultMaxGapBytes, DefaultMaxRequestSize)
	require.Len(t, ranges, 2)
}

func TestCoalesceIsOrderIndependent(t *testing.T) {
	a := []Want{
		{Offset: 500, Length: 10, Index: 1},
		{Offset: 0, Length: 10, Index: 0},
	}
	ranges := Coalesce(a, 0, DefaultMaxRequestSize)
	require.Len(t, ranges, 2)
	require.Equal(t, uint64(0), ranges[0].Start)
	require.Equal(t, uint64(500), ranges[1].Start)
}

func TestCoalesceRespectsMaxRequestSize(t *testing.T) {
	wants := []Want{
		{Offset: 0, Length: 10, Index: 0},
		{Offset: 10, Length: 10, Index: 1},
		{Offset: 20, Length: 10, Index: 2},
	}
	// cap tight enough that all three can't share one range
	ranges := Coalesce(wants, DefaultMaxGapBytes, 20)
	require.GreaterOrEqual(t, len(ranges), 2)
	for _, r := range ranges {
		require.LessOrEqual(t, r.Length, uint64(20))
	}
}

func TestCoalesceSingleWant(t *testing.T) {
	ranges := Coalesce([]Want{{Offset: 42, Length: 8, Index: 0}}, DefaultMaxGapBytes, DefaultMaxRequestSize)
	require.Len(t, ranges, 1)
	require.Equal(t, uint64(42), ranges[0].Start)
	require.Equal(t, uint64(8), ranges[0].Length)
}

func TestCoalesceEmpty(t *testing.T) {
	require.Nil(t, Coalesce(nil, DefaultMaxGapBytes, DefaultMaxRequestSize))
}

// Range count should equal 1 + the number of gaps exceeding the threshold
// when no size cap applies.
func TestCoalesceMinimality(t *testing.T) {
	wants := []Want{
		{Offset: 0, Length: 1000, Index: 0},
		{Offset: 1000, Length: 1000, Index: 1}, // contiguous
		{Offset: 2000 + 100000, Length: 1000, Index: 2}, // big gap
		{Offset: 3000 + 100000, Length: 1000, Index: 3}, // contiguous with prior
	}
	ranges := Coalesce(wants, DefaultMaxGapBytes, DefaultMaxRequestSize)
	require.Len(t, ranges, 2)
}
