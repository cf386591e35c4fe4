package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/gaze.report/internal/metrics"
	"github.com/banshee-data/gaze.report/internal/monitoring"
)

func runDetect(args []string, stdout io.Writer) error {
	fs := newFlagSet("detect")
	common := addCommonFlags(fs)
	trialNum := fs.Int("trial", 0, "trial number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := newEnv(common)
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := e.analyseTrial(*trialNum)
	if err != nil {
		return err
	}
	if *common.jsonOut {
		return writeJSON(stdout, res)
	}
	printResults(stdout, []*trialResult{res})
	return nil
}

// batchResult is the JSON output of `gaze batch`.
type batchResult struct {
	Subject                  string         `json:"subject"`
	Trials                   []*trialResult `json:"trials"`
	MeanTransitionsPerWindow []float64      `json:"mean_transitions_per_window,omitempty"`
}

func runBatch(args []string, stdout io.Writer) error {
	fs := newFlagSet("batch")
	common := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := newEnv(common)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	order := e.subject.TrialsOrder
	results := make([]*trialResult, len(order))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.GetWorkers())
	for i, n := range order {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := e.analyseTrial(n)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := batchResult{Subject: e.subject.String(), Trials: results}
	if len(e.cfg.AOIRegions) > 0 {
		counts := make([][]int, len(results))
		for i, r := range results {
			counts[i] = r.TransitionsPerWindow
		}
		if out.MeanTransitionsPerWindow, err = metrics.MeanPerWindow(counts); err != nil {
			return err
		}
	}
	for _, st := range e.timings.Snapshot() {
		monitoring.Logf("%s: %d calls, %.3fs total", st.Name, st.Calls, st.Total.Seconds())
	}

	if *common.jsonOut {
		return writeJSON(stdout, out)
	}
	fmt.Fprintln(stdout, out.Subject)
	printResults(stdout, results)
	if len(out.MeanTransitionsPerWindow) > 0 {
		fmt.Fprintf(stdout, "mean transitions per window: %v\n", out.MeanTransitionsPerWindow)
	}
	return nil
}

func printResults(w io.Writer, results []*trialResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "trial\tmethod\tkept\tdropped\tfixations\tavg dur (s)\tavg dur (samples)\tavg saccade\tscanpath (s)\ttransitions\tcached")
	for _, r := range results {
		transitions := "-"
		if r.Transitions != nil {
			transitions = fmt.Sprint(*r.Transitions)
		}
		s := r.Summary
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%.3f\t%.1f\t%.1f\t%.3f\t%s\t%t\n",
			r.Trial, r.Method, r.Preprocess.Kept, r.Preprocess.Dropped(), s.FixationCount,
			s.AverageDurationSeconds, s.AverageDurationSamples, s.AverageSaccadeLength,
			s.ScanpathDurationSeconds, transitions, r.Cached)
	}
	tw.Flush()
	for _, r := range results {
		for _, f := range r.Files {
			fmt.Fprintf(w, "wrote %s\n", f)
		}
		if r.RunID != "" {
			fmt.Fprintf(w, "trial %d stored as run %s\n", r.Trial, r.RunID)
		}
	}
}
