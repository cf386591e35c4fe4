package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/gaze.report/internal/cache"
	"github.com/banshee-data/gaze.report/internal/config"
	"github.com/banshee-data/gaze.report/internal/db"
	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/metrics"
)

// twoClusterSamples holds two stable clusters split by a jump at index 4.
var twoClusterSamples = [][3]float64{
	{0.00, 100, 100}, {0.05, 101, 100}, {0.10, 100, 101}, {0.15, 101, 101},
	{0.20, 300, 300}, {0.25, 301, 300}, {0.30, 300, 301}, {0.35, 301, 301},
	{0.40, 300, 300},
}

var idtOverrides = json.RawMessage(`{"dispersion_threshold":10,"duration_threshold":0.1}`)

func setupTestServer(t *testing.T, withDB bool) *Server {
	t.Helper()
	var dbInst *db.DB
	if withDB {
		var err error
		dbInst, err = db.NewDB(filepath.Join(t.TempDir(), "api.db"))
		if err != nil {
			t.Fatalf("failed to create test DB: %v", err)
		}
		t.Cleanup(func() { dbInst.Close() })
	}
	return NewServer(dbInst, nil, config.DefaultDetectionConfig())
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func doRequest(handler http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeDetect(t *testing.T, w *httptest.ResponseRecorder) detectResponse {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp detectResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestDetectDispersion(t *testing.T) {
	mux := setupTestServer(t, false).ServeMux()

	w := postJSON(t, mux, "/api/detect", detectRequest{
		Method:  "idt",
		Samples: twoClusterSamples,
		Config:  idtOverrides,
	})
	resp := decodeDetect(t, w)

	if resp.Method != gaze.MethodDispersion {
		t.Errorf("method = %q, want idt", resp.Method)
	}
	if len(resp.Fixations) != 2 {
		t.Fatalf("expected 2 fixations, got %d", len(resp.Fixations))
	}
	if resp.Summary.FixationCount != 2 {
		t.Errorf("summary fixation_count = %d, want 2", resp.Summary.FixationCount)
	}
	if resp.SampleCount != len(twoClusterSamples) {
		t.Errorf("sample_count = %d", resp.SampleCount)
	}
	// default 10 s windows over a 60 s trial
	if len(resp.Windows) != 6 {
		t.Errorf("expected 6 windows, got %d", len(resp.Windows))
	}
	if resp.Windows[0].Summary.FixationCount != 2 {
		t.Errorf("first window fixation_count = %d, want 2", resp.Windows[0].Summary.FixationCount)
	}
	if resp.Transitions != nil {
		t.Errorf("expected no transitions without AOI regions, got %d", *resp.Transitions)
	}
	if resp.Cached {
		t.Error("expected uncached result without a cache")
	}
}

func TestDetectTransitions(t *testing.T) {
	cfg := config.DefaultDetectionConfig()
	cfg.AOIRegions = []metrics.Region{
		{Name: "left", Side: metrics.SideLeft, MinX: 0, MaxX: 200, MinY: 0, MaxY: 200},
		{Name: "right", Side: metrics.SideRight, MinX: 250, MaxX: 400, MinY: 250, MaxY: 400},
	}
	mux := NewServer(nil, nil, cfg).ServeMux()

	resp := decodeDetect(t, postJSON(t, mux, "/api/detect", detectRequest{
		Samples: twoClusterSamples,
		Config:  idtOverrides,
	}))
	if resp.Transitions == nil {
		t.Fatal("expected transitions with AOI regions")
	}
	// left then right: the first fixation counts as a change
	if *resp.Transitions != 2 {
		t.Errorf("transitions = %d, want 2", *resp.Transitions)
	}
}

func TestDetectVelocity(t *testing.T) {
	mux := setupTestServer(t, false).ServeMux()
	samples := [][3]float64{
		{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 50, 0}, {4, 100, 0}, {5, 100, 0}, {6, 100, 0},
	}
	resp := decodeDetect(t, postJSON(t, mux, "/api/detect", detectRequest{
		Method:  "smt",
		Samples: samples,
		Config:  json.RawMessage(`{"use_angular_velocity":false,"velocity_threshold":1,"peak_window_width":1}`),
	}))
	if resp.Method != gaze.MethodVelocity {
		t.Errorf("method = %q, want smt", resp.Method)
	}
	if len(resp.Fixations) == 0 {
		t.Error("expected fixations")
	}
}

func TestDetectVelocityZeroTimeDelta(t *testing.T) {
	mux := setupTestServer(t, false).ServeMux()
	samples := [][3]float64{
		{0, 100, 100}, {0.1, 100, 100}, {0.1, 100, 100}, {0.2, 100, 100}, {0.3, 100, 100},
	}

	resp := decodeDetect(t, postJSON(t, mux, "/api/detect", detectRequest{Method: "smt", Samples: samples}))
	if len(resp.ZeroDeltas) != 1 || resp.ZeroDeltas[0] != 1 {
		t.Errorf("zero_deltas = %v, want [1]", resp.ZeroDeltas)
	}
	if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], gaze.ErrZeroTimeDelta.Error()) {
		t.Errorf("warnings = %q, want a zero time delta warning", resp.Warnings)
	}

	resp = decodeDetect(t, postJSON(t, mux, "/api/detect", detectRequest{Method: "idt", Samples: samples, Config: idtOverrides}))
	if resp.ZeroDeltas != nil || resp.Warnings != nil {
		t.Errorf("idt should not report velocity warnings, got %v %q", resp.ZeroDeltas, resp.Warnings)
	}

	c, err := cache.Open(cache.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	cached := NewServer(nil, c, config.DefaultDetectionConfig()).ServeMux()
	body := detectRequest{Method: "smt", Samples: samples}
	decodeDetect(t, postJSON(t, cached, "/api/detect", body))
	resp = decodeDetect(t, postJSON(t, cached, "/api/detect", body))
	if !resp.Cached {
		t.Fatal("second request should hit the cache")
	}
	if len(resp.ZeroDeltas) != 1 {
		t.Errorf("cached zero_deltas = %v, want [1]", resp.ZeroDeltas)
	}
}

func TestDetectCached(t *testing.T) {
	c, err := cache.Open(cache.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	mux := NewServer(nil, c, config.DefaultDetectionConfig()).ServeMux()

	body := detectRequest{Samples: twoClusterSamples, Config: idtOverrides}
	first := decodeDetect(t, postJSON(t, mux, "/api/detect", body))
	second := decodeDetect(t, postJSON(t, mux, "/api/detect", body))

	if first.Cached {
		t.Error("first request should miss the cache")
	}
	if !second.Cached {
		t.Error("second request should hit the cache")
	}
	if len(first.Fixations) != len(second.Fixations) {
		t.Errorf("cached fixations differ: %d vs %d", len(first.Fixations), len(second.Fixations))
	}

	// different parameters must not share an entry
	other := decodeDetect(t, postJSON(t, mux, "/api/detect", detectRequest{
		Samples: twoClusterSamples,
		Config:  json.RawMessage(`{"dispersion_threshold":11,"duration_threshold":0.1}`),
	}))
	if other.Cached {
		t.Error("changed parameters should miss the cache")
	}
}

func TestDetectBadRequests(t *testing.T) {
	mux := setupTestServer(t, false).ServeMux()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"decreasing time", `{"samples":[[0.2,1,1],[0.1,1,1]]}`},
		{"unknown method", `{"method":"hmm","samples":[]}`},
		{"negative threshold", `{"samples":[],"config":{"dispersion_threshold":-1}}`},
		{"negative trial", `{"samples":[],"trial":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/detect", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d: %s", w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), `"error"`) {
				t.Errorf("expected JSON error body, got %s", w.Body.String())
			}
		})
	}
}

func TestDetectEmptySamples(t *testing.T) {
	mux := setupTestServer(t, false).ServeMux()
	resp := decodeDetect(t, postJSON(t, mux, "/api/detect", detectRequest{Samples: [][3]float64{}}))
	if resp.Fixations == nil || len(resp.Fixations) != 0 {
		t.Errorf("expected empty fixation list, got %v", resp.Fixations)
	}
}

func TestDetectStoreWithoutDatabase(t *testing.T) {
	mux := setupTestServer(t, false).ServeMux()
	w := postJSON(t, mux, "/api/detect", detectRequest{Samples: twoClusterSamples, Store: true})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}

	w = doRequest(mux, http.MethodGet, "/api/runs")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 for runs, got %d", w.Code)
	}
}

func TestStoredRunLifecycle(t *testing.T) {
	mux := setupTestServer(t, true).ServeMux()

	resp := decodeDetect(t, postJSON(t, mux, "/api/detect", detectRequest{
		Samples: twoClusterSamples,
		Config:  idtOverrides,
		Subject: "alice",
		Trial:   3,
		Store:   true,
	}))
	if resp.RunID == "" {
		t.Fatal("expected run_id for stored run")
	}

	w := doRequest(mux, http.MethodGet, "/api/runs")
	if w.Code != http.StatusOK {
		t.Fatalf("list runs: status %d", w.Code)
	}
	var runs []db.Run
	if err := json.Unmarshal(w.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != resp.RunID {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	w = doRequest(mux, http.MethodGet, "/api/runs/"+resp.RunID)
	var run db.Run
	if err := json.Unmarshal(w.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if run.Subject != "alice" || run.Trial != 3 || run.FixationCount != 2 || run.SampleCount != 9 {
		t.Errorf("unexpected run: %+v", run)
	}
	var params gaze.DispersionConfig
	if err := json.Unmarshal(run.ParamsJSON, &params); err != nil || params.DispersionThreshold != 10 {
		t.Errorf("unexpected params %s: %v", run.ParamsJSON, err)
	}

	w = doRequest(mux, http.MethodGet, "/api/runs/"+resp.RunID+"/fixations")
	var fixations []gaze.Fixation
	if err := json.Unmarshal(w.Body.Bytes(), &fixations); err != nil {
		t.Fatalf("decode fixations: %v", err)
	}
	if len(fixations) != 2 {
		t.Errorf("expected 2 stored fixations, got %d", len(fixations))
	}

	w = doRequest(mux, http.MethodGet, "/charts/runs/"+resp.RunID+"/scanpath")
	if w.Code != http.StatusOK {
		t.Errorf("scanpath chart: status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Subject: alice, Trial 3") {
		t.Error("scanpath chart missing title")
	}

	w = doRequest(mux, http.MethodDelete, "/api/runs/"+resp.RunID)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete: expected 204, got %d", w.Code)
	}
	for _, path := range []string{"/api/runs/" + resp.RunID, "/api/runs/" + resp.RunID + "/fixations"} {
		if w := doRequest(mux, http.MethodGet, path); w.Code != http.StatusNotFound {
			t.Errorf("GET %s after delete: expected 404, got %d", path, w.Code)
		}
	}
	if w := doRequest(mux, http.MethodDelete, "/api/runs/"+resp.RunID); w.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", w.Code)
	}
}

func TestListRunsLimit(t *testing.T) {
	mux := setupTestServer(t, true).ServeMux()
	for i := 0; i < 3; i++ {
		decodeDetect(t, postJSON(t, mux, "/api/detect", detectRequest{Samples: twoClusterSamples, Store: true}))
	}

	w := doRequest(mux, http.MethodGet, "/api/runs?limit=2")
	var runs []db.Run
	if err := json.Unmarshal(w.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}

	if w := doRequest(mux, http.MethodGet, "/api/runs?limit=abc"); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", w.Code)
	}
}

func TestVelocityChart(t *testing.T) {
	mux := setupTestServer(t, false).ServeMux()
	body := detectRequest{
		Samples: [][3]float64{{0, 0, 0}, {0.01, 0, 0}, {0.02, 200, 0}, {0.03, 400, 0}, {0.04, 400, 0}},
		Subject: "bob",
		Trial:   1,
	}

	w := postJSON(t, mux, "/charts/velocity?units=deg/s", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Subject: bob, Trial 1") {
		t.Error("chart missing title")
	}

	if w := postJSON(t, mux, "/charts/velocity?units=furlongs", body); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad units, got %d", w.Code)
	}
}

func TestShowConfigAndTimings(t *testing.T) {
	s := setupTestServer(t, false)
	mux := s.ServeMux()
	decodeDetect(t, postJSON(t, mux, "/api/detect", detectRequest{Samples: twoClusterSamples}))

	w := doRequest(mux, http.MethodGet, "/api/config")
	var cfg config.DetectionConfig
	if err := json.Unmarshal(w.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.GetMethod() != gaze.MethodDispersion {
		t.Errorf("config method = %q", cfg.GetMethod())
	}

	if _, ok := s.Timings().Get("segment.idt"); !ok {
		t.Error("expected segment.idt timing after a detection")
	}
	w = doRequest(mux, http.MethodGet, "/api/timings")
	if !strings.Contains(w.Body.String(), "segment.idt") {
		t.Errorf("timings response missing segment.idt: %s", w.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux := setupTestServer(t, false).ServeMux()
	if w := doRequest(mux, http.MethodGet, "/api/detect"); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	w := doRequest(h, http.MethodGet, "/anything")
	if w.Code != http.StatusTeapot {
		t.Errorf("expected status 418, got %d", w.Code)
	}
}

func TestStatusCodeColor(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, colorBoldGreen},
		{302, colorYellow},
		{404, colorBoldRed},
		{500, colorBoldRed},
	}
	for _, tt := range tests {
		if got := statusCodeColor(tt.code); !strings.HasPrefix(got, tt.want) {
			t.Errorf("statusCodeColor(%d) = %q", tt.code, got)
		}
	}
	if got := statusCodeColor(100); got != "100" {
		t.Errorf("statusCodeColor(100) = %q", got)
	}
}
