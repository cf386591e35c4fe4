// Package testutil provides shared test fixtures: synthetic trials and
// on-disk subject directories.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/gaze.report/internal/gaze"
)

// SubjectTimestamp is the unix time encoded in fixture subject names.
const SubjectTimestamp = 1700000000

// TwoClusterTrial returns two stable gaze clusters, at (100,100) and
// (300,300), split by a jump after 0.15 s. IDT with dispersion 10 and
// duration 0.1 finds one fixation in each.
func TwoClusterTrial() []gaze.Sample {
	return []gaze.Sample{
		{Time: 0.00, X: 100, Y: 100},
		{Time: 0.05, X: 101, Y: 100},
		{Time: 0.10, X: 100, Y: 101},
		{Time: 0.15, X: 101, Y: 101},
		{Time: 0.20, X: 300, Y: 300},
		{Time: 0.25, X: 301, Y: 300},
		{Time: 0.30, X: 300, Y: 301},
		{Time: 0.35, X: 301, Y: 301},
		{Time: 0.40, X: 300, Y: 300},
	}
}

// TrialCSV renders samples in the tracker export format. Times are
// written as microseconds and every row is marked valid.
func TrialCSV(samples []gaze.Sample) string {
	var b strings.Builder
	b.WriteString(",timestamp_us,x,y,validity\n")
	for i, s := range samples {
		fmt.Fprintf(&b, "%d,%.0f,%g,%g,Valid\n", i, s.Time*1e6, s.X, s.Y)
	}
	return b.String()
}

// WriteSubject creates a subject directory for name under parent holding
// one CSV per entry of trials and a trials_order.txt listing order. It
// returns the subject root.
func WriteSubject(t *testing.T, parent, name string, withTimer bool, trials map[int][]gaze.Sample, order []int) string {
	t.Helper()
	dir := fmt.Sprintf("exp_%s_%d", name, SubjectTimestamp)
	if withTimer {
		dir += "_timer"
	}
	root := filepath.Join(parent, dir)
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatalf("create subject dir: %v", err)
	}

	if order == nil {
		order = []int{}
	}
	orderJSON, err := json.Marshal(order)
	if err != nil {
		t.Fatalf("encode trial order: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "trials_order.txt"), orderJSON, 0644); err != nil {
		t.Fatalf("write trial order: %v", err)
	}
	for n, samples := range trials {
		path := filepath.Join(root, fmt.Sprintf("trial_%d.csv", n))
		if err := os.WriteFile(path, []byte(TrialCSV(samples)), 0644); err != nil {
			t.Fatalf("write trial %d: %v", n, err)
		}
	}
	return root
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}
