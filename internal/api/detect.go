package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/banshee-data/gaze.report/internal/cache"
	"github.com/banshee-data/gaze.report/internal/config"
	"github.com/banshee-data/gaze.report/internal/db"
	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/metrics"
	"github.com/banshee-data/gaze.report/internal/monitoring"
)

// detectRequest is the body of POST /api/detect and POST /charts/velocity.
// Samples are cleaned [time_seconds, x, y] triples in time order.
type detectRequest struct {
	Method  string          `json:"method,omitempty"`
	Samples [][3]float64    `json:"samples"`
	Config  json.RawMessage `json:"config,omitempty"`
	Subject string          `json:"subject,omitempty"`
	Trial   int             `json:"trial,omitempty"`
	Store   bool            `json:"store,omitempty"`
}

type detectResponse struct {
	RunID       string                  `json:"run_id,omitempty"`
	Method      gaze.Method             `json:"method"`
	SampleCount int                     `json:"sample_count"`
	Cached      bool                    `json:"cached"`
	Fixations   []gaze.Fixation         `json:"fixations"`
	Summary     metrics.Summary         `json:"summary"`
	Windows     []metrics.WindowSummary `json:"windows,omitempty"`
	Transitions *int                    `json:"transitions,omitempty"`
	ZeroDeltas  []int                   `json:"zero_deltas,omitempty"`
	Warnings    []string                `json:"warnings,omitempty"`
}

func decodeDetectRequest(w http.ResponseWriter, r *http.Request) (*detectRequest, error) {
	var req detectRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %v", err)
	}
	if req.Trial < 0 {
		return nil, fmt.Errorf("trial must not be negative, got %d", req.Trial)
	}
	return &req, nil
}

// samples converts the posted triples, rejecting decreasing timestamps.
func (req *detectRequest) samples() ([]gaze.Sample, error) {
	out := make([]gaze.Sample, len(req.Samples))
	for i, s := range req.Samples {
		out[i] = gaze.Sample{Time: s[0], X: s[1], Y: s[2]}
		if i > 0 && out[i].Time < out[i-1].Time {
			return nil, fmt.Errorf("samples[%d]: time %v is before %v", i, out[i].Time, out[i-1].Time)
		}
	}
	return out, nil
}

// requestConfig applies the request's method and config overrides to the server
// defaults.
func (s *Server) requestConfig(req *detectRequest) (*config.DetectionConfig, error) {
	cfg, err := s.cfg.WithOverrides(req.Config)
	if err != nil {
		return nil, err
	}
	if req.Method != "" {
		m, err := gaze.ParseMethod(req.Method)
		if err != nil {
			return nil, err
		}
		method := string(m)
		cfg.Method = &method
	}
	return cfg, nil
}

// methodParams returns the parameters that determine the output of the
// configured method. They are part of the cache key and stored with runs.
func methodParams(cfg *config.DetectionConfig) interface{} {
	if cfg.GetMethod() == gaze.MethodVelocity {
		return cfg.VelocityConfig()
	}
	return cfg.DispersionConfig()
}

// segment runs the configured segmenter, going through the cache when one
// is attached.
func (s *Server) segment(cfg *config.DetectionConfig, samples []gaze.Sample) ([]gaze.Fixation, bool, error) {
	seg, err := cfg.Segmenter()
	if err != nil {
		return nil, false, err
	}
	seg = monitoring.TimedSegmenter{Segmenter: seg, Timings: s.timings}
	compute := func() ([]gaze.Fixation, error) {
		res, err := seg.Segment(samples)
		if err != nil {
			return nil, err
		}
		return res.Fixations, nil
	}

	if s.cache == nil {
		fixations, err := compute()
		return fixations, false, err
	}
	key, err := cache.Key(cfg.GetMethod(), methodParams(cfg), samples)
	if err != nil {
		return nil, false, err
	}
	return s.cache.GetOrCompute(key, compute)
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	req, err := decodeDetectRequest(w, r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	samples, err := req.samples()
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	cfg, err := s.requestConfig(req)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Store && s.runs == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "run storage is not configured")
		return
	}

	fixations, hit, err := s.segment(cfg, samples)
	if err != nil {
		if errors.Is(err, gaze.ErrInvalidConfig) {
			badRequest(w, err.Error())
			return
		}
		internalServerError(w, fmt.Sprintf("detection failed: %v", err))
		return
	}
	if fixations == nil {
		fixations = []gaze.Fixation{}
	}

	resp := detectResponse{
		Method:      cfg.GetMethod(),
		SampleCount: len(samples),
		Cached:      hit,
		Fixations:   fixations,
		Summary:     metrics.Summarize(fixations),
	}
	resp.Windows, err = metrics.Windowed(fixations, cfg.GetTimeWindowSeconds(), cfg.GetTrialDurationSeconds())
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if len(cfg.AOIRegions) > 0 {
		n := metrics.Transitions(fixations, cfg.AOIRegions)
		resp.Transitions = &n
	}
	if resp.Method == gaze.MethodVelocity {
		var zd *gaze.ZeroDeltaError
		if errors.As(gaze.CheckTimeDeltas(samples), &zd) {
			monitoring.Logf("detect: %v", zd)
			resp.ZeroDeltas = zd.Indices
			resp.Warnings = append(resp.Warnings, zd.Error())
		}
	}

	if req.Store {
		runID, err := s.storeRun(req, cfg, len(samples), fixations, resp.Summary)
		if err != nil {
			internalServerError(w, fmt.Sprintf("failed to store run: %v", err))
			return
		}
		resp.RunID = runID
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) storeRun(req *detectRequest, cfg *config.DetectionConfig, sampleCount int, fixations []gaze.Fixation, summary metrics.Summary) (string, error) {
	params, err := json.Marshal(methodParams(cfg))
	if err != nil {
		return "", err
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return "", err
	}
	run := &db.Run{
		Subject:     req.Subject,
		Trial:       req.Trial,
		Method:      cfg.GetMethod(),
		ParamsJSON:  params,
		SummaryJSON: summaryJSON,
		SampleCount: sampleCount,
	}
	if err := s.runs.Insert(run, fixations); err != nil {
		return "", err
	}
	return run.RunID, nil
}
