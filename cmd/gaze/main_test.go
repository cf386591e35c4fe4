package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gaze.report/internal/db"
	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/testutil"
)

const idtConfig = `{"method":"idt","dispersion_threshold":10,"duration_threshold":0.1}`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "detection.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newSubject(t *testing.T) string {
	t.Helper()
	trials := map[int][]gaze.Sample{
		0: testutil.TwoClusterTrial(),
		1: testutil.TwoClusterTrial(),
		2: testutil.TwoClusterTrial()[:4],
	}
	return testutil.WriteSubject(t, t.TempDir(), "alice", true, trials, []int{2, 1})
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"version"}, &out))
	assert.True(t, strings.HasPrefix(out.String(), "gaze dev"))
}

func TestRunUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run([]string{"frobnicate"}, &out))
	assert.Contains(t, out.String(), "Usage: gaze")
	assert.Error(t, run(nil, &out))
}

func TestDetectRequiresSubject(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"detect"}, &out)
	assert.ErrorContains(t, err, "-subject")
}

func TestDetectJSON(t *testing.T) {
	subject := newSubject(t)
	cfg := writeConfigFile(t, idtConfig)

	var out bytes.Buffer
	require.NoError(t, run([]string{"detect", "-subject", subject, "-config", cfg, "-trial", "1", "-json"}, &out))

	var res trialResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, 1, res.Trial)
	assert.Equal(t, gaze.MethodDispersion, res.Method)
	assert.Equal(t, "Subject: alice, Trial 1, with timer", res.Title)
	assert.Equal(t, 9, res.Preprocess.Kept)
	assert.Len(t, res.Fixations, 2)
	assert.Equal(t, 2, res.Summary.FixationCount)
	assert.Len(t, res.Windows, 6)
	assert.Nil(t, res.Transitions)
}

func TestDetectVelocityZeroTimeDelta(t *testing.T) {
	samples := []gaze.Sample{
		{Time: 0, X: 100, Y: 100}, {Time: 0.1, X: 100, Y: 100}, {Time: 0.1, X: 100, Y: 100},
		{Time: 0.2, X: 100, Y: 100}, {Time: 0.3, X: 100, Y: 100},
	}
	subject := testutil.WriteSubject(t, t.TempDir(), "bob", false, map[int][]gaze.Sample{0: samples}, []int{0})
	cfg := writeConfigFile(t, `{"method":"smt"}`)

	var out bytes.Buffer
	require.NoError(t, run([]string{"detect", "-subject", subject, "-config", cfg, "-json"}, &out))

	var res trialResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, gaze.MethodVelocity, res.Method)
	assert.Equal(t, []int{1}, res.ZeroDeltas)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], gaze.ErrZeroTimeDelta.Error())
}

func TestDetectTable(t *testing.T) {
	subject := newSubject(t)
	cfg := writeConfigFile(t, idtConfig)

	var out bytes.Buffer
	require.NoError(t, run([]string{"detect", "-subject", subject, "-config", cfg}, &out))
	assert.Contains(t, out.String(), "fixations")
	assert.Contains(t, out.String(), "idt")
}

func TestDetectOutputsAndDatabase(t *testing.T) {
	subject := newSubject(t)
	outDir := filepath.Join(t.TempDir(), "out")
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	var out bytes.Buffer
	require.NoError(t, run([]string{
		"detect", "-subject", subject, "-method", "smt",
		"-out", outDir, "-plot", "-units", "deg/s", "-db", dbPath, "-json",
	}, &out))

	var res trialResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, gaze.MethodVelocity, res.Method)
	require.Len(t, res.Files, 4)
	for _, f := range res.Files {
		info, err := os.Stat(f)
		require.NoError(t, err, f)
		assert.NotZero(t, info.Size(), f)
	}
	assert.FileExists(t, filepath.Join(outDir, "alice_trial_0_smt_velocity.html"))

	require.NotEmpty(t, res.RunID)
	database, err := db.NewDB(dbPath)
	require.NoError(t, err)
	defer database.Close()
	stored, err := db.NewRunStore(database).Get(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Subject)
	assert.Equal(t, gaze.MethodVelocity, stored.Method)
	assert.Equal(t, len(res.Fixations), stored.FixationCount)
}

func TestDetectPlotNeedsOut(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"detect", "-subject", newSubject(t), "-plot"}, &out)
	assert.ErrorContains(t, err, "-out")
}

func TestDetectCache(t *testing.T) {
	subject := newSubject(t)
	cfg := writeConfigFile(t, idtConfig)
	cacheDir := filepath.Join(t.TempDir(), "cache")
	args := []string{"detect", "-subject", subject, "-config", cfg, "-cache", cacheDir, "-json"}

	var first, second bytes.Buffer
	require.NoError(t, run(args, &first))
	require.NoError(t, run(args, &second))

	var a, b trialResult
	require.NoError(t, json.Unmarshal(first.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Bytes(), &b))
	assert.False(t, a.Cached)
	assert.True(t, b.Cached)
	assert.Equal(t, a.Fixations, b.Fixations)
}

func TestBatch(t *testing.T) {
	subject := newSubject(t)
	cfg := writeConfigFile(t, `{
		"dispersion_threshold": 10,
		"duration_threshold": 0.1,
		"workers": 2,
		"aoi_regions": [
			{"name": "left", "side": -1, "min_x": 0, "max_x": 200, "min_y": 0, "max_y": 200},
			{"name": "right", "side": 1, "min_x": 250, "max_x": 400, "min_y": 250, "max_y": 400}
		]
	}`)

	var out bytes.Buffer
	require.NoError(t, run([]string{"batch", "-subject", subject, "-config", cfg, "-json"}, &out))

	var res batchResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	require.Len(t, res.Trials, 3)
	assert.Equal(t, []int{0, 2, 1}, []int{res.Trials[0].Trial, res.Trials[1].Trial, res.Trials[2].Trial})
	assert.Equal(t, 2, res.Trials[0].Summary.FixationCount)
	require.NotNil(t, res.Trials[0].Transitions)
	assert.Equal(t, 2, *res.Trials[0].Transitions)
	require.Len(t, res.MeanTransitionsPerWindow, 6)
	assert.Zero(t, res.MeanTransitionsPerWindow[5])
}

func TestSweepCSV(t *testing.T) {
	subject := newSubject(t)
	cfg := writeConfigFile(t, idtConfig)

	var out bytes.Buffer
	require.NoError(t, run([]string{
		"sweep", "-subject", subject, "-config", cfg,
		"-dispersion", "5,10", "-duration", "0.05:0.1:0.05",
	}, &out))

	rows, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "dispersion_threshold", rows[0][0])
	assert.Equal(t, []string{"5", "0.05"}, rows[1][:2])
	assert.Equal(t, []string{"10", "0.1"}, rows[4][:2])
}

func TestSweepBadValues(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"sweep", "-subject", newSubject(t), "-dispersion", "a,b"}, &out)
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "m.db")
	var out bytes.Buffer
	require.NoError(t, run([]string{"migrate", "-db", dbPath, "up"}, &out))
	assert.Contains(t, out.String(), "Current version: 2")
}
