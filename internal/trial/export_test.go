package trial

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gaze.report/internal/gaze"
)

func TestWriteFixationsCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFixationsCSV(&buf, []gaze.Fixation{
		{X: 100.5, Y: 20, TimeStart: 0, TimeEnd: 0.1, DurationSeconds: 0.1, StartIndex: 0, EndIndex: 2},
		{X: 7, Y: 8, TimeStart: 0.2, TimeEnd: 0.3, DurationSamples: 5, StartIndex: 4, EndIndex: 8},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"x,y,time_start,time_end,duration_seconds,duration_samples,start_index,end_index\n"+
			"100.5,20,0,0.1,0.1,0,0,2\n"+
			"7,8,0.2,0.3,0,5,4,8\n",
		buf.String())
}

func TestWriteFixationsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFixationsCSV(&buf, nil))
	assert.Equal(t, "x,y,time_start,time_end,duration_seconds,duration_samples,start_index,end_index\n", buf.String())
}
