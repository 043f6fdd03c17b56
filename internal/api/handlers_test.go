// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/config"
	"github.com/tomtom215/wayfinder/internal/database"
	"github.com/tomtom215/wayfinder/internal/evaluate"
	"github.com/tomtom215/wayfinder/internal/graph"
	"github.com/tomtom215/wayfinder/internal/models"
	"github.com/tomtom215/wayfinder/internal/navigator"
	"github.com/tomtom215/wayfinder/internal/recommend"
	"github.com/tomtom215/wayfinder/internal/reports"
	"github.com/tomtom215/wayfinder/internal/stage"
)

const testGraph = `{
  "directory_relationships": {
    "A": {"context_tags": ["x", "y"], "primary_connections": ["B", "C"]},
    "B": {"context_tags": ["y", "z"], "primary_connections": ["A"]},
    "C": {}
  },
  "professional_growth_pathways": {
    "S1": {"recommended_resources": ["B"], "skill_focus": ["learning"]},
    "S2": {"recommended_resources": ["C"], "skill_focus": ["leading"]}
  }
}`

type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
	Meta   map[string]any   `json:"metadata"`
}

// setupTestServer builds the full stack over a sqlite store, an in-memory
// archive and a graph without a source file.
func setupTestServer(t *testing.T, requireConsent bool) http.Handler {
	t.Helper()

	g, err := graph.Load(strings.NewReader(testGraph))
	if err != nil {
		t.Fatalf("graph.Load: %v", err)
	}
	holder := graph.NewHolder(g, "", zerolog.Nop())

	hasher, err := database.NewHasher(database.HashSHA256, "test-salt")
	if err != nil {
		t.Fatal(err)
	}
	store, err := database.New(&config.DatabaseConfig{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "wayfinder.db"),
	}, hasher, zerolog.Nop())
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := recommend.DefaultConfig()
	cfg.Reranker.LearningRate = 0.01
	cfg.Reranker.MaxIterations = 100
	cfg.Reranker.Patience = 10
	cfg.Reranker.SyntheticSamples = 100
	engine, err := recommend.NewEngine(cfg, holder, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	classifier := stage.NewDefault()
	evaluator, err := evaluate.New(cfg, holder, classifier, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	archive, err := reports.Open(reports.Config{}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = archive.Close() })

	nav, err := navigator.New(navigator.Deps{
		Graphs:     holder,
		Store:      store,
		Engine:     engine,
		Classifier: classifier,
		Evaluator:  evaluator,
		Archive:    archive,
	}, navigator.Options{RequireConsent: requireConsent}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	mwCfg := DefaultChiMiddlewareConfig()
	mwCfg.RateLimitDisabled = true
	return NewRouter(NewHandler(nav), NewChiMiddleware(mwCfg), zerolog.Nop()).SetupChi()
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") && bytes.HasPrefix(rec.Body.Bytes(), []byte("{")) {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode envelope: %v (%s)", method, target, err, rec.Body.String())
		}
	}
	return rec, env
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d, body = %s", rec.Code, want, rec.Body.String())
	}
}

const interactionBody = `{"user_identifier":"alice","current_directory":"A","target_directory":"B","professional_stage":"S1","interaction_duration":30}`

func TestHealth(t *testing.T) {
	t.Parallel()
	h := setupTestServer(t, false)

	rec, env := do(t, h, http.MethodGet, "/api/v1/health/live", "")
	expectStatus(t, rec, http.StatusOK)
	if env.Status != "success" {
		t.Errorf("live status = %q", env.Status)
	}

	rec, env = do(t, h, http.MethodGet, "/api/v1/health/ready", "")
	expectStatus(t, rec, http.StatusOK)
	if env.Status != "ready" {
		t.Errorf("ready status = %q", env.Status)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestRecommendationsEndpoint(t *testing.T) {
	t.Parallel()
	h := setupTestServer(t, false)

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"missing current", "/api/v1/recommendations?stage=S1", http.StatusBadRequest, ErrCodeValidation},
		{"bad limit", "/api/v1/recommendations?current=A&limit=abc", http.StatusBadRequest, ErrCodeValidation},
		{"negative limit", "/api/v1/recommendations?current=A&limit=-1", http.StatusBadRequest, ErrCodeValidation},
		{"path separator", "/api/v1/recommendations?current=a%2Fb", http.StatusBadRequest, ErrCodeValidation},
		{"ok", "/api/v1/recommendations?current=A&stage=S1&limit=2", http.StatusOK, ""},
		{"unknown directory", "/api/v1/recommendations?current=nope&stage=unknown", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec, env := do(t, h, http.MethodGet, tt.target, "")
			expectStatus(t, rec, tt.status)
			if tt.code != "" && (env.Error == nil || env.Error.Code != tt.code) {
				t.Errorf("error = %+v, want code %s", env.Error, tt.code)
			}
		})
	}

	_, env := do(t, h, http.MethodGet, "/api/v1/recommendations?current=A&stage=S1", "")
	var res models.RecommendationResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatal(err)
	}
	if res.Mode != models.ModeRuleBased || len(res.Recommendations) != 2 || res.Recommendations[0].ResourceID != "B" {
		t.Errorf("result = %+v", res)
	}
	if res.Recommendations[0].Score != 0.75 {
		t.Errorf("B score = %v, want 0.75", res.Recommendations[0].Score)
	}
}

func TestClassifyEndpoints(t *testing.T) {
	t.Parallel()
	h := setupTestServer(t, false)

	rec, env := do(t, h, http.MethodPost, "/api/v1/stages/classify", `{"interactions":[{"context_metadata":{}},{}]}`)
	expectStatus(t, rec, http.StatusOK)
	var got ClassifyResponse
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Stage != stage.Default || got.Interactions != 2 {
		t.Errorf("classify = %+v", got)
	}

	rec, env = do(t, h, http.MethodPost, "/api/v1/stages/classify", `{"interactions":`)
	expectStatus(t, rec, http.StatusBadRequest)
	if env.Error.Code != ErrCodeBadRequest {
		t.Errorf("malformed body code = %s", env.Error.Code)
	}

	for i := 0; i < 2; i++ {
		rec, _ = do(t, h, http.MethodPost, "/api/v1/interactions", interactionBody)
		expectStatus(t, rec, http.StatusCreated)
	}
	rec, env = do(t, h, http.MethodGet, "/api/v1/users/alice/stage", "")
	expectStatus(t, rec, http.StatusOK)
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Interactions != 2 {
		t.Errorf("stored user classify = %+v", got)
	}

	rec, env = do(t, h, http.MethodGet, "/api/v1/stages/distribution?stage=S1", "")
	expectStatus(t, rec, http.StatusOK)
	var report stage.Report
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatal(err)
	}
	if report.TotalInteractions != 2 {
		t.Errorf("distribution = %+v", report)
	}

	rec, _ = do(t, h, http.MethodGet, "/api/v1/stages/distribution?from=yesterday", "")
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestInteractionAndConsentEndpoints(t *testing.T) {
	t.Parallel()
	h := setupTestServer(t, true)

	rec, env := do(t, h, http.MethodPost, "/api/v1/interactions", interactionBody)
	expectStatus(t, rec, http.StatusBadRequest)
	if env.Error.Code != ErrCodeValidation {
		t.Errorf("no-consent code = %s", env.Error.Code)
	}

	rec, _ = do(t, h, http.MethodGet, "/api/v1/consent/alice", "")
	expectStatus(t, rec, http.StatusNotFound)

	rec, _ = do(t, h, http.MethodPost, "/api/v1/consent", `{"user_identifier":"alice"}`)
	expectStatus(t, rec, http.StatusCreated)
	rec, env = do(t, h, http.MethodPost, "/api/v1/consent", `{"user_identifier":"alice"}`)
	expectStatus(t, rec, http.StatusConflict)
	if env.Error.Code != ErrCodeConflict {
		t.Errorf("repeat consent code = %s", env.Error.Code)
	}

	rec, env = do(t, h, http.MethodGet, "/api/v1/consent/alice", "")
	expectStatus(t, rec, http.StatusOK)
	var consent models.ConsentRecord
	if err := json.Unmarshal(env.Data, &consent); err != nil {
		t.Fatal(err)
	}
	if consent.ConsentVersion != "1.0" || consent.AnonymizationLevel != database.DefaultAnonymizationLevel {
		t.Errorf("consent = %+v", consent)
	}

	rec, env = do(t, h, http.MethodPost, "/api/v1/interactions", `{"user_identifier":"alice"}`)
	expectStatus(t, rec, http.StatusBadRequest)
	if env.Error.Details == nil {
		t.Error("validation failure should carry details")
	}

	rec, env = do(t, h, http.MethodPost, "/api/v1/interactions", interactionBody)
	expectStatus(t, rec, http.StatusCreated)
	var ack InteractionResponse
	if err := json.Unmarshal(env.Data, &ack); err != nil || ack.InteractionID == "" {
		t.Errorf("ack = %+v, %v", ack, err)
	}

	rec, env = do(t, h, http.MethodGet, "/api/v1/interactions/summary", "")
	expectStatus(t, rec, http.StatusOK)
	var sum models.InteractionSummary
	if err := json.Unmarshal(env.Data, &sum); err != nil {
		t.Fatal(err)
	}
	if sum.TotalInteractions != 1 || sum.ByStage["S1"] != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestExportImportEndpoints(t *testing.T) {
	t.Parallel()
	src := setupTestServer(t, false)
	dst := setupTestServer(t, false)

	for i := 0; i < 3; i++ {
		rec, _ := do(t, src, http.MethodPost, "/api/v1/interactions", interactionBody)
		expectStatus(t, rec, http.StatusCreated)
	}

	rec, _ := do(t, src, http.MethodGet, "/api/v1/interactions/export?format=csv", "")
	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("csv content type = %q", ct)
	}
	if lines := strings.Count(strings.TrimSpace(rec.Body.String()), "\n"); lines != 3 {
		t.Errorf("csv has %d data lines, want 3", lines)
	}

	rec, _ = do(t, src, http.MethodGet, "/api/v1/interactions/export?format=xml", "")
	expectStatus(t, rec, http.StatusBadRequest)

	rec, _ = do(t, src, http.MethodGet, "/api/v1/interactions/export", "")
	expectStatus(t, rec, http.StatusOK)
	if rec.Header().Get("X-Record-Count") != "3" {
		t.Errorf("X-Record-Count = %q", rec.Header().Get("X-Record-Count"))
	}
	exported := rec.Body.String()

	rec, env := do(t, dst, http.MethodPost, "/api/v1/interactions/import", exported)
	expectStatus(t, rec, http.StatusCreated)
	var imp ImportResponse
	if err := json.Unmarshal(env.Data, &imp); err != nil || imp.Imported != 3 {
		t.Errorf("import = %+v, %v", imp, err)
	}

	rec, _ = do(t, dst, http.MethodPost, "/api/v1/interactions/import", exported)
	expectStatus(t, rec, http.StatusBadRequest)

	rec, _ = do(t, dst, http.MethodGet, "/api/v1/interactions/export", "")
	if !bytes.Equal(rec.Body.Bytes(), []byte(exported)) {
		t.Error("re-exported records differ from the original export")
	}
}

func TestModelEndpoints(t *testing.T) {
	t.Parallel()
	h := setupTestServer(t, false)

	rec, env := do(t, h, http.MethodPost, "/api/v1/validation/run", "")
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	if env.Error.Code != ErrCodeInsufficientData {
		t.Errorf("empty validation code = %s", env.Error.Code)
	}

	rec, _ = do(t, h, http.MethodGet, "/api/v1/reports/bogus/latest", "")
	expectStatus(t, rec, http.StatusBadRequest)
	rec, _ = do(t, h, http.MethodGet, "/api/v1/reports/training/latest", "")
	expectStatus(t, rec, http.StatusNotFound)

	rec, env = do(t, h, http.MethodPost, "/api/v1/training/run", "")
	expectStatus(t, rec, http.StatusOK)
	var report recommend.TrainingReport
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatal(err)
	}
	if report.Version != 1 || !report.Synthetic {
		t.Errorf("training report = %+v", report)
	}

	rec, env = do(t, h, http.MethodGet, "/api/v1/training/status", "")
	expectStatus(t, rec, http.StatusOK)
	var status recommend.TrainingStatus
	if err := json.Unmarshal(env.Data, &status); err != nil {
		t.Fatal(err)
	}
	if !status.HasModel || status.ModelVersion != 1 {
		t.Errorf("status = %+v", status)
	}

	rec, env = do(t, h, http.MethodGet, "/api/v1/reports/training/latest", "")
	expectStatus(t, rec, http.StatusOK)
	var entry reports.Entry
	if err := json.Unmarshal(env.Data, &entry); err != nil {
		t.Fatal(err)
	}
	if entry.Kind != reports.KindTraining || !bytes.Contains(entry.Report, []byte(`"model_version":1`)) {
		t.Errorf("entry = %+v", entry)
	}

	rec, env = do(t, h, http.MethodGet, "/api/v1/reports/training?limit=5", "")
	expectStatus(t, rec, http.StatusOK)
	var entries []reports.Entry
	if err := json.Unmarshal(env.Data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != entry.ID {
		t.Errorf("listed reports = %+v", entries)
	}
	rec, _ = do(t, h, http.MethodGet, "/api/v1/reports/training?limit=0", "")
	expectStatus(t, rec, http.StatusBadRequest)

	// Checkpointing is off in the fixture, so the list is empty but present.
	rec, env = do(t, h, http.MethodGet, "/api/v1/training/checkpoints", "")
	expectStatus(t, rec, http.StatusOK)
	if string(env.Data) != "[]" {
		t.Errorf("checkpoints = %s, want []", env.Data)
	}

	_, env = do(t, h, http.MethodGet, "/api/v1/recommendations?current=A&stage=S1", "")
	var res models.RecommendationResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatal(err)
	}
	if res.Mode != models.ModeHybrid || res.ModelVersion != 1 {
		t.Errorf("mode after training = %s v%d", res.Mode, res.ModelVersion)
	}
}

func TestGraphEndpoints(t *testing.T) {
	t.Parallel()
	h := setupTestServer(t, false)

	rec, env := do(t, h, http.MethodGet, "/api/v1/graph", "")
	expectStatus(t, rec, http.StatusOK)
	var got struct {
		Version int64         `json:"version"`
		Summary graph.Summary `json:"summary"`
	}
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Version != 1 || got.Summary.TotalDirectories != 3 {
		t.Errorf("graph = %+v", got)
	}

	// The holder has no source file, so reload is a state error.
	rec, env = do(t, h, http.MethodPost, "/api/v1/graph/reload", "")
	expectStatus(t, rec, http.StatusInternalServerError)
	if env.Error.Message != "Internal error" {
		t.Errorf("5xx message leaks detail: %q", env.Error.Message)
	}
}

func TestRouterFallbacks(t *testing.T) {
	t.Parallel()
	h := setupTestServer(t, false)

	rec, env := do(t, h, http.MethodGet, "/api/v1/nope", "")
	expectStatus(t, rec, http.StatusNotFound)
	if env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("not found envelope = %+v", env)
	}

	rec, _ = do(t, h, http.MethodDelete, "/api/v1/graph", "")
	expectStatus(t, rec, http.StatusMethodNotAllowed)

	rec, _ = do(t, h, http.MethodGet, "/metrics", "")
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Error("metrics output missing api_requests_total")
	}
}
