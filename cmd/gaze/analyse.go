package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/gaze.report/internal/cache"
	"github.com/banshee-data/gaze.report/internal/db"
	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/metrics"
	"github.com/banshee-data/gaze.report/internal/monitoring"
	"github.com/banshee-data/gaze.report/internal/plot"
	"github.com/banshee-data/gaze.report/internal/trial"
)

// trialResult is the analysis of one trial.
type trialResult struct {
	Trial                int                     `json:"trial"`
	Title                string                  `json:"title"`
	Method               gaze.Method             `json:"method"`
	Preprocess           trial.Report            `json:"preprocess"`
	Cached               bool                    `json:"cached"`
	RunID                string                  `json:"run_id,omitempty"`
	Summary              metrics.Summary         `json:"summary"`
	Windows              []metrics.WindowSummary `json:"windows"`
	Transitions          *int                    `json:"transitions,omitempty"`
	TransitionsPerWindow []int                   `json:"transitions_per_window,omitempty"`
	ZeroDeltas           []int                   `json:"zero_deltas,omitempty"`
	Warnings             []string                `json:"warnings,omitempty"`
	Files                []string                `json:"files,omitempty"`
	Fixations            []gaze.Fixation         `json:"fixations"`
}

func (e *env) methodParams() interface{} {
	if e.cfg.GetMethod() == gaze.MethodVelocity {
		return e.cfg.VelocityConfig()
	}
	return e.cfg.DispersionConfig()
}

// segment runs the segmenter through the cache when one is open. The full
// result is nil on a cache hit.
func (e *env) segment(samples []gaze.Sample) ([]gaze.Fixation, *gaze.Result, bool, error) {
	var full *gaze.Result
	compute := func() ([]gaze.Fixation, error) {
		res, err := e.seg.Segment(samples)
		if err != nil {
			return nil, err
		}
		full = res
		return res.Fixations, nil
	}
	if e.cache == nil {
		fixations, err := compute()
		return fixations, full, false, err
	}

	key, err := cache.Key(e.cfg.GetMethod(), e.methodParams(), samples)
	if err != nil {
		return nil, nil, false, err
	}
	fixations, hit, err := e.cache.GetOrCompute(key, compute)
	return fixations, full, hit, err
}

func (e *env) analyseTrial(n int) (*trialResult, error) {
	samples, rep, err := e.subject.LoadTrial(n)
	if err != nil {
		return nil, err
	}
	fixations, full, hit, err := e.segment(samples)
	if err != nil {
		return nil, fmt.Errorf("trial %d: %w", n, err)
	}
	if fixations == nil {
		fixations = []gaze.Fixation{}
	}

	res := &trialResult{
		Trial:      n,
		Title:      e.subject.Title(n),
		Method:     e.cfg.GetMethod(),
		Preprocess: rep,
		Cached:     hit,
		Summary:    metrics.Summarize(fixations),
		Fixations:  fixations,
	}
	if res.Method == gaze.MethodVelocity {
		var zd *gaze.ZeroDeltaError
		if errors.As(gaze.CheckTimeDeltas(samples), &zd) {
			monitoring.Logf("%s: %v", res.Title, zd)
			res.ZeroDeltas = zd.Indices
			res.Warnings = append(res.Warnings, zd.Error())
		}
	}
	window, duration := e.cfg.GetTimeWindowSeconds(), e.cfg.GetTrialDurationSeconds()
	if res.Windows, err = metrics.Windowed(fixations, window, duration); err != nil {
		return nil, err
	}
	if regions := e.cfg.AOIRegions; len(regions) > 0 {
		count := metrics.Transitions(fixations, regions)
		res.Transitions = &count
		if res.TransitionsPerWindow, err = metrics.TransitionsPerWindow(fixations, regions, window, duration); err != nil {
			return nil, err
		}
	}

	if e.runs != nil {
		if res.RunID, err = e.storeRun(res, len(samples)); err != nil {
			return nil, fmt.Errorf("trial %d: store run: %w", n, err)
		}
	}
	if e.out != nil {
		if res.Files, err = e.writeOutputs(res, samples, full); err != nil {
			return nil, fmt.Errorf("trial %d: %w", n, err)
		}
	}
	return res, nil
}

func (e *env) storeRun(res *trialResult, sampleCount int) (string, error) {
	params, err := json.Marshal(e.methodParams())
	if err != nil {
		return "", err
	}
	summary, err := json.Marshal(res.Summary)
	if err != nil {
		return "", err
	}
	run := &db.Run{
		Subject:     e.subject.Name,
		Trial:       res.Trial,
		Method:      res.Method,
		ParamsJSON:  params,
		SummaryJSON: summary,
		SampleCount: sampleCount,
	}
	if err := e.runs.Insert(run, res.Fixations); err != nil {
		return "", err
	}
	return run.RunID, nil
}

// writeOutputs saves the fixation CSV and, with -plot, the scanpath and
// velocity plots. The velocity plot needs SMT diagnostics, so a cached
// SMT result is segmented again.
func (e *env) writeOutputs(res *trialResult, samples []gaze.Sample, full *gaze.Result) ([]string, error) {
	base := fmt.Sprintf("%s_trial_%d_%s", e.subject.Name, res.Trial, res.Method)
	var files []string
	save := func(name string, render func(io.Writer) error) error {
		path, err := e.out.Save(name, render)
		if err != nil {
			return err
		}
		files = append(files, path)
		return nil
	}

	if err := save(base+"_fixations.csv", func(w io.Writer) error {
		return trial.WriteFixationsCSV(w, res.Fixations)
	}); err != nil {
		return nil, err
	}
	if !e.plots {
		return files, nil
	}

	width, height := e.cfg.GetScreenWidth(), e.cfg.GetScreenHeight()
	if err := save(base+"_scanpath.png", func(w io.Writer) error {
		return plot.ScanpathPNG(w, res.Fixations, res.Title, width, height)
	}); err != nil {
		return nil, err
	}

	if res.Method != gaze.MethodVelocity {
		return files, nil
	}
	if full == nil {
		var err error
		if full, err = e.seg.Segment(samples); err != nil {
			return nil, err
		}
	}
	if err := save(base+"_velocity.png", func(w io.Writer) error {
		return plot.VelocityPNG(w, samples, full.Velocity, res.Title, e.unit)
	}); err != nil {
		return nil, err
	}
	if err := save(base+"_velocity.html", func(w io.Writer) error {
		return plot.VelocityChartHTML(w, samples, full.Velocity, res.Title, e.unit)
	}); err != nil {
		return nil, err
	}
	monitoring.Logf("%s: %d accepted and %d rejected saccade candidates",
		res.Title, len(full.Velocity.Accepted()), len(full.Velocity.Rejected()))
	return files, nil
}
