// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package navigator

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/config"
	"github.com/tomtom215/wayfinder/internal/database"
	"github.com/tomtom215/wayfinder/internal/evaluate"
	"github.com/tomtom215/wayfinder/internal/events"
	"github.com/tomtom215/wayfinder/internal/graph"
	"github.com/tomtom215/wayfinder/internal/models"
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

type fixture struct {
	nav     *Navigator
	store   *database.DB
	bus     *events.Bus
	archive *reports.Archive
	path    string
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	path := filepath.Join(t.TempDir(), "graph.json")
	if err := os.WriteFile(path, []byte(testGraph), 0o600); err != nil {
		t.Fatal(err)
	}
	holder, err := graph.OpenHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenHolder: %v", err)
	}

	hasher, err := database.NewHasher(database.HashSHA256, "test-salt")
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
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
		t.Fatalf("NewEngine: %v", err)
	}
	classifier := stage.NewDefault()
	evaluator, err := evaluate.New(cfg, holder, classifier, zerolog.Nop())
	if err != nil {
		t.Fatalf("evaluate.New: %v", err)
	}
	archive, err := reports.Open(reports.Config{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("reports.Open: %v", err)
	}
	t.Cleanup(func() { _ = archive.Close() })
	bus := events.NewBus(events.DefaultConfig(), zerolog.Nop())
	t.Cleanup(func() { _ = bus.Close() })

	nav, err := New(Deps{
		Graphs:     holder,
		Store:      store,
		Engine:     engine,
		Classifier: classifier,
		Evaluator:  evaluator,
		Archive:    archive,
		Bus:        bus,
	}, opts, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &fixture{nav: nav, store: store, bus: bus, archive: archive, path: path}
}

func subscribe(t *testing.T, bus *events.Bus, topic string) <-chan *message.Message {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ch, err := bus.Subscribe(ctx, topic)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	return ch
}

func receive(t *testing.T, ch <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-ch:
		msg.Ack()
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func input(user, target, stageLabel string) database.RecordInput {
	return database.RecordInput{
		UserIdentifier:   user,
		CurrentDirectory: "A",
		TargetDirectory:  target,
		Stage:            stageLabel,
		Duration:         30,
	}
}

func TestNewRequiresDeps(t *testing.T) {
	t.Parallel()

	_, err := New(Deps{}, Options{}, zerolog.Nop())
	if !errors.Is(err, models.ErrConfig) {
		t.Errorf("New() error = %v, want ErrConfig", err)
	}
}

func TestGetRecommendations(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	res, err := f.nav.GetRecommendations(context.Background(), "A", "S1", 5)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if len(res.Recommendations) != 2 || res.Recommendations[0].ResourceID != "B" {
		t.Errorf("recommendations = %+v, want B first of 2", res.Recommendations)
	}
}

func TestLogInteractionConsent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{RequireConsent: true})
	ctx := context.Background()
	recorded := subscribe(t, f.bus, events.TopicInteractionRecorded)

	if _, err := f.nav.LogInteraction(ctx, input("alice", "B", "S1")); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("LogInteraction() without consent error = %v, want ErrValidation", err)
	}

	rec, err := f.nav.RecordConsent(ctx, database.ConsentInput{UserIdentifier: "alice"})
	if err != nil {
		t.Fatalf("RecordConsent() error = %v", err)
	}
	if rec.ConsentVersion != "1.0" {
		t.Errorf("ConsentVersion = %q, want default 1.0", rec.ConsentVersion)
	}

	id, err := f.nav.LogInteraction(ctx, input("alice", "B", "S1"))
	if err != nil {
		t.Fatalf("LogInteraction() error = %v", err)
	}

	evt, err := events.Decode[events.InteractionRecorded](receive(t, recorded))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if evt.InteractionID != id || evt.UserHash != f.store.HashUser("alice") || evt.TargetDirectory != "B" {
		t.Errorf("event = %+v", evt)
	}

	got, err := f.nav.GetConsent(ctx, "alice")
	if err != nil || got.UserHash != rec.UserHash {
		t.Errorf("GetConsent() = %+v, %v", got, err)
	}
}

func TestLogInteractionWithoutConsentPolicy(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	if _, err := f.nav.LogInteraction(context.Background(), input("bob", "C", "S2")); err != nil {
		t.Fatalf("LogInteraction() error = %v", err)
	}
	sum, err := f.nav.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if sum.TotalInteractions != 1 || sum.UniqueUsers != 1 {
		t.Errorf("Summary() = %+v", sum)
	}
}

func TestRunValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	ctx := context.Background()

	if _, err := f.nav.RunValidation(ctx); !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("RunValidation() on empty store error = %v, want ErrInsufficientData", err)
	}

	for i := 0; i < 10; i++ {
		if _, err := f.nav.LogInteraction(ctx, input("carol", "B", "S1")); err != nil {
			t.Fatal(err)
		}
	}
	report, err := f.nav.RunValidation(ctx)
	if err != nil {
		t.Fatalf("RunValidation() error = %v", err)
	}
	if report.Configuration.TotalSamples != 10 || report.Configuration.TestSamples != 2 {
		t.Errorf("configuration = %+v", report.Configuration)
	}
	if report.Overall.Precision != 1 {
		t.Errorf("precision = %v, want 1", report.Overall.Precision)
	}

	entry, err := f.nav.LatestReport(ctx, reports.KindValidation)
	if err != nil {
		t.Fatalf("LatestReport() error = %v", err)
	}
	if !bytes.Contains(entry.Report, []byte(`"overall_metrics"`)) {
		t.Errorf("archived report = %s", entry.Report)
	}
}

func TestDetectStages(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	ctx := context.Background()
	for _, user := range []string{"u1", "u2", "u1"} {
		if _, err := f.nav.LogInteraction(ctx, input(user, "B", "S1")); err != nil {
			t.Fatal(err)
		}
	}

	report, err := f.nav.DetectStages(ctx, database.InteractionQuery{})
	if err != nil {
		t.Fatalf("DetectStages() error = %v", err)
	}
	if report.TotalInteractions != 3 || report.Histogram[stage.Default] != 3 {
		t.Errorf("report = %+v", report)
	}
	if len(report.Users[stage.Default]) != 2 {
		t.Errorf("users = %v, want 2 distinct", report.Users[stage.Default])
	}
	if _, err := f.nav.LatestReport(ctx, reports.KindStages); err != nil {
		t.Errorf("LatestReport(stages) error = %v", err)
	}

	s, n, err := f.nav.ClassifyStoredUser(ctx, "u1")
	if err != nil || s != stage.Default || n != 2 {
		t.Errorf("ClassifyStoredUser() = %q, %d, %v", s, n, err)
	}
	if _, _, err := f.nav.ClassifyStoredUser(ctx, ""); !errors.Is(err, models.ErrValidation) {
		t.Errorf("ClassifyStoredUser(\"\") error = %v, want ErrValidation", err)
	}
}

func TestTrainArchivesAndPublishes(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	ctx := context.Background()
	trained := subscribe(t, f.bus, events.TopicModelTrained)

	report, err := f.nav.Train(ctx)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if !report.Synthetic || report.Version != 1 {
		t.Errorf("report = %+v, want synthetic v1", report)
	}

	evt, err := events.Decode[events.ModelTrained](receive(t, trained))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if evt.Version != 1 || !evt.Synthetic {
		t.Errorf("event = %+v", evt)
	}
	if _, err := f.nav.LatestReport(ctx, reports.KindTraining); err != nil {
		t.Errorf("LatestReport(training) error = %v", err)
	}
	if st := f.nav.TrainingStatus(); !st.HasModel || st.ModelVersion != 1 {
		t.Errorf("TrainingStatus() = %+v", st)
	}
}

func TestReloadGraph(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	ctx := context.Background()
	reloaded := subscribe(t, f.bus, events.TopicGraphReloaded)

	updated := strings.Replace(testGraph, `"C": {}`, `"C": {}, "D": {}`, 1)
	if err := os.WriteFile(f.path, []byte(updated), 0o600); err != nil {
		t.Fatal(err)
	}
	sum, err := f.nav.ReloadGraph(ctx)
	if err != nil {
		t.Fatalf("ReloadGraph() error = %v", err)
	}
	if sum.TotalDirectories != 4 || f.nav.GraphVersion() != 2 {
		t.Errorf("summary = %+v, version = %d", sum, f.nav.GraphVersion())
	}

	evt, err := events.Decode[events.GraphReloaded](receive(t, reloaded))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if evt.Version != 2 || evt.Directories != 4 {
		t.Errorf("event = %+v", evt)
	}

	if err := os.WriteFile(f.path, []byte(`{broken`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := f.nav.ReloadGraph(ctx); !errors.Is(err, models.ErrConfig) {
		t.Errorf("ReloadGraph() of broken file error = %v, want ErrConfig", err)
	}
	if f.nav.Graph().TotalDirectories != 4 {
		t.Error("failed reload must keep the previous graph")
	}
}

func TestExportImport(t *testing.T) {
	t.Parallel()

	src := newFixture(t, Options{})
	dst := newFixture(t, Options{})
	ctx := context.Background()

	for _, target := range []string{"B", "C"} {
		if _, err := src.nav.LogInteraction(ctx, input("dave", target, "S1")); err != nil {
			t.Fatal(err)
		}
	}

	var buf bytes.Buffer
	n, err := src.nav.Export(ctx, &buf, "json", database.InteractionQuery{})
	if err != nil || n != 2 {
		t.Fatalf("Export() = %d, %v", n, err)
	}
	n, err = dst.nav.Import(ctx, &buf)
	if err != nil || n != 2 {
		t.Fatalf("Import() = %d, %v", n, err)
	}
	if err := dst.nav.Ready(ctx); err != nil {
		t.Errorf("Ready() error = %v", err)
	}
}
