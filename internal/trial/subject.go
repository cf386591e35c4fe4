package trial

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/gaze.report/internal/fsutil"
	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/security"
)

// TrialsOrderFile lists the presentation order of trials after trial 0.
const TrialsOrderFile = "trials_order.txt"

// Subject is one recording session directory named
// "<prefix>_<name>_<unix timestamp>[...timer]".
type Subject struct {
	Root      string
	Name      string
	Timestamp time.Time
	WithTimer bool
	// TrialsOrder always starts with trial 0, followed by the contents of
	// trials_order.txt.
	TrialsOrder []int

	fs     fsutil.FileSystem
	screen Screen
}

// OpenSubject parses the directory name and trial order of a subject.
func OpenSubject(fs fsutil.FileSystem, root string, screen Screen) (*Subject, error) {
	root = filepath.Clean(root)
	base := filepath.Base(root)
	parts := strings.Split(base, "_")
	if len(parts) < 3 {
		return nil, fmt.Errorf("subject directory %q must be named <prefix>_<name>_<timestamp>", base)
	}
	ts, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return nil, fmt.Errorf("subject directory %q: invalid timestamp %q: %w", base, parts[2], err)
	}

	data, err := fs.ReadFile(filepath.Join(root, TrialsOrderFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", TrialsOrderFile, err)
	}
	var order []int
	if err := json.Unmarshal(bytes.TrimSpace(data), &order); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", TrialsOrderFile, err)
	}

	sec, frac := splitSeconds(ts)
	return &Subject{
		Root:        root,
		Name:        parts[1],
		Timestamp:   time.Unix(sec, frac),
		WithTimer:   strings.HasSuffix(base, "timer"),
		TrialsOrder: append([]int{0}, order...),
		fs:          fs,
		screen:      screen,
	}, nil
}

func splitSeconds(ts float64) (int64, int64) {
	sec := int64(ts)
	return sec, int64((ts - float64(sec)) * 1e9)
}

func (s *Subject) String() string {
	return fmt.Sprintf("Subject(name=%s, timestamp=%s, with_timer=%t)",
		s.Name, s.Timestamp.Format(time.RFC3339), s.WithTimer)
}

// TrialPath returns the CSV path of trial n.
func (s *Subject) TrialPath(n int) (string, error) {
	name, err := security.TrialFileName(n)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, name), nil
}

// LoadRaw reads trial n without preprocessing.
func (s *Subject) LoadRaw(n int) ([]RawSample, error) {
	path, err := s.TrialPath(n)
	if err != nil {
		return nil, err
	}
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trial %d: %w", n, err)
	}
	raw, err := ReadCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("trial %d: %w", n, err)
	}
	return raw, nil
}

// LoadTrial reads and preprocesses trial n.
func (s *Subject) LoadTrial(n int) ([]gaze.Sample, Report, error) {
	raw, err := s.LoadRaw(n)
	if err != nil {
		return nil, Report{}, err
	}
	samples, rep, err := Preprocess(raw, s.screen)
	if err != nil {
		return nil, rep, fmt.Errorf("trial %d: %w", n, err)
	}
	return samples, rep, nil
}

// ValidateAll loads every trial in TrialsOrder and returns the first error.
func (s *Subject) ValidateAll() error {
	for _, n := range s.TrialsOrder {
		if _, _, err := s.LoadTrial(n); err != nil {
			return err
		}
	}
	return nil
}

// Title returns the display title for trial n.
func (s *Subject) Title(n int) string {
	timer := "without timer"
	if s.WithTimer {
		timer = "with timer"
	}
	return fmt.Sprintf("Subject: %s, Trial %d, %s", s.Name, n, timer)
}
