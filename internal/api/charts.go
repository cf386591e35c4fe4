package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/monitoring"
	"github.com/banshee-data/gaze.report/internal/plot"
	"github.com/banshee-data/gaze.report/internal/units"
)

func writeHTML(w http.ResponseWriter, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		monitoring.Logf("failed to write chart: %v", err)
	}
}

// velocityChart segments the posted samples with SMT, whatever the
// configured method, and renders the velocity profile. The optional
// units query parameter selects the speed unit.
func (s *Server) velocityChart(w http.ResponseWriter, r *http.Request) {
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

	velCfg := cfg.VelocityConfig()
	unit := r.URL.Query().Get("units")
	if unit == "" {
		unit = units.SpeedUnitFor(velCfg.UseAngularVelocity)
	}
	if !units.IsValid(unit) {
		badRequest(w, fmt.Sprintf("invalid units %q, expected one of: %s", unit, units.GetValidUnitsString()))
		return
	}

	seg := monitoring.TimedSegmenter{Segmenter: gaze.VelocitySegmenter{Config: velCfg}, Timings: s.timings}
	res, err := seg.Segment(samples)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	title := "Velocity profile"
	if req.Subject != "" {
		title = fmt.Sprintf("Subject: %s, Trial %d", req.Subject, req.Trial)
	}
	var buf bytes.Buffer
	if err := plot.VelocityChartHTML(&buf, samples, res.Velocity, title, unit); err != nil {
		internalServerError(w, err.Error())
		return
	}
	writeHTML(w, &buf)
}

func (s *Server) scanpathChart(w http.ResponseWriter, r *http.Request) {
	if !s.requireRuns(w) {
		return
	}
	id := r.PathValue("id")
	run, err := s.runs.Get(id)
	if err != nil {
		writeRunError(w, id, err)
		return
	}
	fixations, err := s.runs.Fixations(id)
	if err != nil {
		writeRunError(w, id, err)
		return
	}

	title := fmt.Sprintf("Subject: %s, Trial %d (%s)", run.Subject, run.Trial, run.Method)
	var buf bytes.Buffer
	if err := plot.ScanpathChartHTML(&buf, fixations, title, s.cfg.GetScreenWidth(), s.cfg.GetScreenHeight()); err != nil {
		internalServerError(w, err.Error())
		return
	}
	writeHTML(w, &buf)
}
