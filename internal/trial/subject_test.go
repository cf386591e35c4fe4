package trial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gaze.report/internal/fsutil"
)

const subjectRoot = "/data/exp_alice_1700000000.5_timer"

func newSubjectFS(t *testing.T) *fsutil.MemoryFileSystem {
	t.Helper()
	mfs := fsutil.NewMemoryFileSystem()
	mfs.AddFile(subjectRoot+"/trials_order.txt", []byte("[3, 1, 2]\n"))
	for _, n := range []string{"0", "1", "2", "3"} {
		mfs.AddFile(subjectRoot+"/trial_"+n+".csv", []byte(exportCSV))
	}
	return mfs
}

func TestOpenSubject(t *testing.T) {
	s, err := OpenSubject(newSubjectFS(t), subjectRoot, fullHD)
	require.NoError(t, err)

	assert.Equal(t, "alice", s.Name)
	assert.True(t, s.WithTimer)
	assert.Equal(t, []int{0, 3, 1, 2}, s.TrialsOrder)
	assert.Equal(t, time.Unix(1700000000, 500000000).Unix(), s.Timestamp.Unix())
	assert.Equal(t, "Subject: alice, Trial 2, with timer", s.Title(2))
}

func TestOpenSubjectErrors(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()

	_, err := OpenSubject(mfs, "/data/badname", fullHD)
	assert.ErrorContains(t, err, "must be named")

	_, err = OpenSubject(mfs, "/data/exp_bob_notatime", fullHD)
	assert.ErrorContains(t, err, "invalid timestamp")

	_, err = OpenSubject(mfs, "/data/exp_bob_1700000000", fullHD)
	assert.ErrorContains(t, err, "trials_order.txt")

	mfs.AddFile("/data/exp_bob_1700000000/trials_order.txt", []byte("not json"))
	_, err = OpenSubject(mfs, "/data/exp_bob_1700000000", fullHD)
	assert.ErrorContains(t, err, "failed to parse")
}

func TestSubjectWithoutTimer(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.AddFile("/d/exp_carol_1700000000/trials_order.txt", []byte("[]"))
	s, err := OpenSubject(mfs, "/d/exp_carol_1700000000", fullHD)
	require.NoError(t, err)
	assert.False(t, s.WithTimer)
	assert.Equal(t, []int{0}, s.TrialsOrder)
	assert.Equal(t, "Subject: carol, Trial 0, without timer", s.Title(0))
}

func TestSubjectLoadTrial(t *testing.T) {
	s, err := OpenSubject(newSubjectFS(t), subjectRoot, fullHD)
	require.NoError(t, err)

	samples, rep, err := s.LoadTrial(1)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 0.0, samples[0].Time)
	assert.InDelta(t, 0.016666, samples[1].Time, 1e-9)
	assert.Equal(t, 1, rep.Invalid)

	require.NoError(t, s.ValidateAll())

	_, _, err = s.LoadTrial(9)
	assert.Error(t, err)
	_, _, err = s.LoadTrial(-1)
	assert.Error(t, err)
}
