package gaze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompress(t *testing.T) {
	runs := Compress([]string{"a", "a", "b", "c", "c", "c", "a"})
	assert.Equal(t, []Run[string]{
		{Label: "a", Start: 0, Length: 2},
		{Label: "b", Start: 2, Length: 1},
		{Label: "c", Start: 3, Length: 3},
		{Label: "a", Start: 6, Length: 1},
	}, runs)
	assert.Equal(t, 5, runs[2].End())
}

func TestCompress_Empty(t *testing.T) {
	assert.Nil(t, Compress([]int(nil)))
	assert.Empty(t, Expand[int](nil))
}

func TestCompress_RoundTrip(t *testing.T) {
	cases := [][]Label{
		{LabelFixation},
		{LabelSaccade, LabelSaccade},
		{LabelFixation, LabelSaccade, LabelFixation},
		{LabelFixation, LabelFixation, LabelSaccade, LabelSaccade, LabelSaccade, LabelFixation},
	}
	for _, labels := range cases {
		got := Expand(Compress(labels))
		require.Equal(t, labels, got)
	}

	bools := []bool{true, false, false, true, true, false, true}
	assert.Equal(t, bools, Expand(Compress(bools)))
}

func TestRunsOf(t *testing.T) {
	runs := Compress([]bool{false, true, true, false, true})
	fast := RunsOf(runs, true)
	assert.Equal(t, []Run[bool]{{Label: true, Start: 1, Length: 2}, {Label: true, Start: 4, Length: 1}}, fast)
	assert.Empty(t, RunsOf(Compress([]bool{false, false}), true))
}
