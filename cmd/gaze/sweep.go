package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/banshee-data/gaze.report/internal/sweep"
)

func runSweep(args []string, stdout io.Writer) error {
	fs := newFlagSet("sweep")
	common := addCommonFlags(fs)
	trialNum := fs.Int("trial", 0, "trial number")
	dispersion := fs.String("dispersion", "", "IDT dispersion thresholds: min:max:step or a comma list")
	duration := fs.String("duration", "", "IDT duration thresholds (s): min:max:step or a comma list")
	threshold := fs.String("threshold", "", "SMT velocity thresholds: min:max:step or a comma list")
	width := fs.String("width", "", "SMT peak window widths: min:max:step or a comma list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := newEnv(common)
	if err != nil {
		return err
	}
	defer e.Close()

	grid := sweep.Grid{
		Method:     e.cfg.GetMethod(),
		Dispersion: e.cfg.DispersionConfig(),
		Velocity:   e.cfg.VelocityConfig(),
	}
	for _, axis := range []struct {
		flag string
		dst  *[]float64
	}{
		{*dispersion, &grid.DispersionThresholds},
		{*duration, &grid.DurationThresholds},
		{*threshold, &grid.VelocityThresholds},
		{*width, &grid.PeakWindowWidths},
	} {
		if *axis.dst, err = sweep.ParseValues(axis.flag); err != nil {
			return err
		}
	}

	samples, _, err := e.subject.LoadTrial(*trialNum)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	runner := sweep.Runner{Workers: e.cfg.GetWorkers(), Timings: e.timings}
	results, err := runner.Run(ctx, samples, grid)
	if err != nil {
		return err
	}

	if *common.jsonOut {
		return writeJSON(stdout, results)
	}
	if e.out == nil {
		return sweep.WriteCSV(stdout, grid.Method, results)
	}
	name := fmt.Sprintf("%s_trial_%d_%s_sweep.csv", e.subject.Name, *trialNum, grid.Method)
	path, err := e.out.Save(name, func(out io.Writer) error {
		return sweep.WriteCSV(out, grid.Method, results)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %d combinations to %s\n", len(results), path)
	return nil
}
