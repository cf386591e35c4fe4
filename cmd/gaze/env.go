package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/banshee-data/gaze.report/internal/cache"
	"github.com/banshee-data/gaze.report/internal/config"
	"github.com/banshee-data/gaze.report/internal/db"
	"github.com/banshee-data/gaze.report/internal/fsutil"
	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/monitoring"
	"github.com/banshee-data/gaze.report/internal/plot"
	"github.com/banshee-data/gaze.report/internal/timeutil"
	"github.com/banshee-data/gaze.report/internal/trial"
	"github.com/banshee-data/gaze.report/internal/units"
)

const defaultDBPath = "gaze.db"

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

// commonFlags are shared by detect, batch and sweep.
type commonFlags struct {
	subject    *string
	configPath *string
	method     *string
	outDir     *string
	dbPath     *string
	cacheDir   *string
	plots      *bool
	units      *string
	jsonOut    *bool
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		subject:    fs.String("subject", "", "subject directory (<prefix>_<name>_<timestamp>[_timer])"),
		configPath: fs.String("config", "", "detection config JSON (defaults apply to omitted fields)"),
		method:     fs.String("method", "", "segmentation method override: idt or smt"),
		outDir:     fs.String("out", "", "directory for fixation CSVs and plots"),
		dbPath:     fs.String("db", "", "SQLite database to store runs in"),
		cacheDir:   fs.String("cache", "", "badger directory caching segmentations"),
		plots:      fs.Bool("plot", false, "write scanpath and velocity plots to -out"),
		units:      fs.String("units", "", "speed units for velocity plots: "+units.GetValidUnitsString()),
		jsonOut:    fs.Bool("json", false, "print results as JSON"),
	}
}

// loadConfig reads the config file, if any, and applies the method
// override.
func loadConfig(path, method string) (*config.DetectionConfig, error) {
	cfg := config.EmptyDetectionConfig()
	if path != "" {
		var err error
		if cfg, err = config.LoadDetectionConfig(path); err != nil {
			return nil, err
		}
	}
	if method == "" {
		return cfg, nil
	}
	override, err := json.Marshal(map[string]string{"method": method})
	if err != nil {
		return nil, err
	}
	return cfg.WithOverrides(override)
}

// env holds everything one invocation needs to analyse trials.
type env struct {
	cfg     *config.DetectionConfig
	subject *trial.Subject
	seg     gaze.Segmenter
	timings *monitoring.Timings
	cache   *cache.Cache
	db      *db.DB
	runs    *db.RunStore
	out     *plot.Writer
	plots   bool
	unit    string
}

func newEnv(f *commonFlags) (*env, error) {
	if *f.subject == "" {
		return nil, fmt.Errorf("-subject is required")
	}
	cfg, err := loadConfig(*f.configPath, *f.method)
	if err != nil {
		return nil, err
	}
	unit := *f.units
	if unit == "" {
		unit = units.SpeedUnitFor(cfg.GetUseAngularVelocity())
	}
	if !units.IsValid(unit) {
		return nil, fmt.Errorf("invalid units %q, expected one of: %s", unit, units.GetValidUnitsString())
	}
	if *f.plots && *f.outDir == "" {
		return nil, fmt.Errorf("-plot needs -out")
	}

	screen := trial.Screen{Width: cfg.GetScreenWidth(), Height: cfg.GetScreenHeight()}
	subject, err := trial.OpenSubject(fsutil.OSFileSystem{}, *f.subject, screen)
	if err != nil {
		return nil, err
	}

	seg, err := cfg.Segmenter()
	if err != nil {
		return nil, err
	}
	timings := monitoring.NewTimings(timeutil.RealClock{})

	e := &env{
		cfg:     cfg,
		subject: subject,
		seg:     monitoring.TimedSegmenter{Segmenter: seg, Timings: timings},
		timings: timings,
		plots:   *f.plots,
		unit:    unit,
	}
	if *f.outDir != "" {
		e.out = &plot.Writer{FS: fsutil.OSFileSystem{}, Dir: *f.outDir}
	}
	if *f.cacheDir != "" {
		if e.cache, err = cache.Open(cache.Config{Path: *f.cacheDir, TTL: cfg.GetCacheTTL()}); err != nil {
			return nil, err
		}
	}
	if *f.dbPath != "" {
		if e.db, err = db.NewDB(*f.dbPath); err != nil {
			e.Close()
			return nil, err
		}
		e.runs = db.NewRunStore(e.db)
	}
	return e, nil
}

func (e *env) Close() {
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			monitoring.Logf("close cache: %v", err)
		}
	}
	if e.db != nil {
		e.db.Close()
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
