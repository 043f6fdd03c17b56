// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package navigator is the public surface of Wayfinder. It ties the
// resource graph, the interaction store, the recommendation engine, the
// stage classifier and the evaluator together, and archives and announces
// what they produce.
package navigator

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/database"
	"github.com/tomtom215/wayfinder/internal/evaluate"
	"github.com/tomtom215/wayfinder/internal/events"
	"github.com/tomtom215/wayfinder/internal/graph"
	"github.com/tomtom215/wayfinder/internal/metrics"
	"github.com/tomtom215/wayfinder/internal/models"
	"github.com/tomtom215/wayfinder/internal/recommend"
	"github.com/tomtom215/wayfinder/internal/recommend/storage"
	"github.com/tomtom215/wayfinder/internal/reports"
	"github.com/tomtom215/wayfinder/internal/resilience"
	"github.com/tomtom215/wayfinder/internal/stage"
)

// Deps are the components a Navigator coordinates. Archive and Bus are
// optional.
type Deps struct {
	Graphs     *graph.Holder
	Store      *database.DB
	Engine     *recommend.Engine
	Classifier *stage.Classifier
	Evaluator  *evaluate.Evaluator
	Archive    *reports.Archive
	Bus        *events.Bus
}

// Options are the navigator policies.
type Options struct {
	// RequireConsent rejects interactions from users without consent.
	RequireConsent bool

	// ConsentVersion is recorded when a consent request names none.
	ConsentVersion string

	// Evaluation configures RunValidation.
	Evaluation evaluate.Options
}

// Navigator is safe for concurrent use.
type Navigator struct {
	graphs     *graph.Holder
	store      *database.DB
	engine     *recommend.Engine
	classifier *stage.Classifier
	evaluator  *evaluate.Evaluator
	archive    *reports.Archive
	bus        *events.Bus

	loader *resilience.Breaker[[]models.Interaction]
	opts   Options
	logger zerolog.Logger
	now    func() time.Time
}

// New wires the navigator and registers the store as the engine's source
// of training data.
func New(deps Deps, opts Options, logger zerolog.Logger) (*Navigator, error) {
	if deps.Graphs == nil || deps.Store == nil || deps.Engine == nil || deps.Classifier == nil || deps.Evaluator == nil {
		return nil, models.ConfigError("new navigator", "graph, store, engine, classifier and evaluator are required")
	}
	if opts.Evaluation.TestSize == 0 {
		opts.Evaluation = evaluate.DefaultOptions()
	}
	if opts.ConsentVersion == "" {
		opts.ConsentVersion = "1.0"
	}

	logger = logger.With().Str("component", "navigator").Logger()
	n := &Navigator{
		graphs:     deps.Graphs,
		store:      deps.Store,
		engine:     deps.Engine,
		classifier: deps.Classifier,
		evaluator:  deps.Evaluator,
		archive:    deps.Archive,
		bus:        deps.Bus,
		loader:     resilience.NewBreaker[[]models.Interaction]("interaction_store", resilience.DefaultBreakerConfig(), logger),
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
	n.engine.SetDataProvider(recommend.DataProviderFunc(func(ctx context.Context) ([]models.Interaction, error) {
		return n.store.LoadInteractions(ctx, database.InteractionQuery{})
	}))
	metrics.GraphDirectories.Set(float64(n.graphs.Current().Len()))
	return n, nil
}

// Engine returns the recommendation engine.
func (n *Navigator) Engine() *recommend.Engine {
	return n.engine
}

// GetRecommendations ranks the next directories for a user at current in
// stage. Unknown directories and stages yield neutral rankings.
func (n *Navigator) GetRecommendations(ctx context.Context, current, stageLabel string, limit int) (*models.RecommendationResult, error) {
	return n.engine.Recommend(ctx, current, stageLabel, limit)
}

// ClassifyUser returns the stage a user's recent interactions indicate.
func (n *Navigator) ClassifyUser(interactions []models.Interaction) string {
	s := n.classifier.ClassifyUser(interactions)
	metrics.StageClassifications.WithLabelValues(s).Inc()
	return s
}

// ClassifyStoredUser classifies a user from their stored interactions and
// returns the stage with the number of interactions it was derived from.
func (n *Navigator) ClassifyStoredUser(ctx context.Context, userIdentifier string) (string, int, error) {
	if userIdentifier == "" {
		return "", 0, models.ValidationError("classify user", "user identifier is required")
	}
	interactions, err := n.loadInteractions(ctx, database.InteractionQuery{UserHash: n.store.HashUser(userIdentifier)})
	if err != nil {
		return "", 0, err
	}
	return n.ClassifyUser(interactions), len(interactions), nil
}

// LogInteraction records one interaction and returns its id. With consent
// required, users without a consent record are rejected.
func (n *Navigator) LogInteraction(ctx context.Context, in database.RecordInput) (string, error) {
	if n.opts.RequireConsent && in.UserIdentifier != "" {
		ok, err := n.store.HasConsent(ctx, in.UserIdentifier)
		if err != nil {
			return "", err
		}
		if !ok {
			metrics.InteractionsRejected.WithLabelValues("consent").Inc()
			return "", models.ValidationError("log interaction", "user has not consented to interaction logging")
		}
	}

	id, err := n.store.RecordInteraction(ctx, in)
	if err != nil {
		return "", err
	}

	n.publish(ctx, events.TopicInteractionRecorded, events.InteractionRecorded{
		InteractionID:    id,
		UserHash:         n.store.HashUser(in.UserIdentifier),
		CurrentDirectory: in.CurrentDirectory,
		TargetDirectory:  in.TargetDirectory,
		Stage:            in.Stage,
		Timestamp:        n.now().UTC(),
	})
	return id, nil
}

// RecordConsent stores a user's consent. Consent is write-once.
func (n *Navigator) RecordConsent(ctx context.Context, in database.ConsentInput) (models.ConsentRecord, error) {
	return n.store.RecordConsent(ctx, in, n.opts.ConsentVersion)
}

// GetConsent returns a user's consent record.
func (n *Navigator) GetConsent(ctx context.Context, userIdentifier string) (models.ConsentRecord, error) {
	return n.store.GetConsent(ctx, userIdentifier)
}

// RunValidation replays the held-out share of the interaction log and
// archives the report.
func (n *Navigator) RunValidation(ctx context.Context) (*evaluate.Report, error) {
	interactions, err := n.loadInteractions(ctx, database.InteractionQuery{})
	if err != nil {
		return nil, err
	}
	report, err := n.evaluator.Validate(ctx, interactions, n.opts.Evaluation)
	if err != nil {
		return nil, err
	}
	n.archiveReport(ctx, reports.KindValidation, report)
	return report, nil
}

// DetectStages classifies every stored interaction matching q and archives
// the stage distribution.
func (n *Navigator) DetectStages(ctx context.Context, q database.InteractionQuery) (*stage.Report, error) {
	interactions, err := n.loadInteractions(ctx, q)
	if err != nil {
		return nil, err
	}
	d := n.classifier.ClassifyAll(interactions)
	for s, count := range d.Histogram {
		metrics.StageClassifications.WithLabelValues(s).Add(float64(count))
	}
	report := stage.NewReport(d, n.now())
	n.archiveReport(ctx, reports.KindStages, report)
	return &report, nil
}

// Train retrains the re-ranker, archives the training report and announces
// the new model.
func (n *Navigator) Train(ctx context.Context) (*recommend.TrainingReport, error) {
	report, err := n.engine.Train(ctx)
	if err != nil {
		return nil, err
	}
	n.archiveReport(ctx, reports.KindTraining, report)
	n.publish(ctx, events.TopicModelTrained, events.ModelTrained{
		Version:        report.Version,
		MSE:            report.MSE,
		R2:             report.R2,
		Synthetic:      report.Synthetic,
		BelowThreshold: report.BelowThreshold,
		Timestamp:      report.TrainedAt,
	})
	if report.BelowThreshold {
		n.logger.Warn().
			Int("version", report.Version).
			Float64("r2", report.R2).
			Float64("threshold", report.Threshold).
			Msg("trained model is below the performance threshold")
	}
	return report, nil
}

// TrainingStatus returns the engine's training state.
func (n *Navigator) TrainingStatus() recommend.TrainingStatus {
	return n.engine.Status()
}

// Export writes the interactions matching q in format and returns the
// number written.
func (n *Navigator) Export(ctx context.Context, w io.Writer, format string, q database.InteractionQuery) (int, error) {
	return n.store.Export(ctx, w, format, q)
}

// Import reads a JSON export and reinserts its records verbatim.
func (n *Navigator) Import(ctx context.Context, r io.Reader) (int, error) {
	records, err := database.ReadExportJSON(r)
	if err != nil {
		return 0, err
	}
	return n.store.ImportInteractions(ctx, records)
}

// Summary aggregates the interaction log.
func (n *Navigator) Summary(ctx context.Context) (*models.InteractionSummary, error) {
	return n.store.Summary(ctx)
}

// Graph describes the published resource graph.
func (n *Navigator) Graph() graph.Summary {
	return n.graphs.Current().Summarize()
}

// GraphVersion returns the published graph version.
func (n *Navigator) GraphVersion() int64 {
	return n.graphs.Version()
}

// ReloadGraph re-reads the graph file. A failed reload keeps the current
// graph.
func (n *Navigator) ReloadGraph(ctx context.Context) (graph.Summary, error) {
	if n.graphs.Path() == "" {
		metrics.GraphReloads.WithLabelValues("error").Inc()
		return graph.Summary{}, models.StateError("reload graph", "graph has no source file")
	}
	g, err := n.graphs.Reload()
	if err != nil {
		metrics.GraphReloads.WithLabelValues("error").Inc()
		return graph.Summary{}, err
	}
	n.GraphReloaded(ctx, g)
	return g.Summarize(), nil
}

// GraphReloaded records a graph published by any reload path.
func (n *Navigator) GraphReloaded(ctx context.Context, g *graph.Graph) {
	metrics.GraphReloads.WithLabelValues("success").Inc()
	metrics.GraphDirectories.Set(float64(g.Len()))
	n.engine.InvalidateCache()
	n.publish(ctx, events.TopicGraphReloaded, events.GraphReloaded{
		Version:     n.graphs.Version(),
		Directories: g.Len(),
		Timestamp:   n.now().UTC(),
	})
}

// LatestReport returns the newest archived report of kind.
func (n *Navigator) LatestReport(ctx context.Context, kind string) (reports.Entry, error) {
	if n.archive == nil {
		return reports.Entry{}, models.NotFoundError("latest report", "report archive is disabled")
	}
	return n.archive.Latest(ctx, kind)
}

// ListReports returns up to limit archived reports of kind, newest first.
func (n *Navigator) ListReports(ctx context.Context, kind string, limit int) ([]reports.Entry, error) {
	if n.archive == nil {
		return nil, models.NotFoundError("list reports", "report archive is disabled")
	}
	return n.archive.List(ctx, kind, limit)
}

// Checkpoints lists the persisted re-ranker versions, oldest first. It is
// empty when checkpointing is disabled.
func (n *Navigator) Checkpoints(ctx context.Context) ([]storage.ModelMetadata, error) {
	return n.engine.Checkpoints(ctx)
}

// Ready reports whether the store answers.
func (n *Navigator) Ready(ctx context.Context) error {
	return n.store.Ping(ctx)
}

// loadInteractions reads the store through the circuit breaker.
func (n *Navigator) loadInteractions(ctx context.Context, q database.InteractionQuery) ([]models.Interaction, error) {
	interactions, err := n.loader.Execute(func() ([]models.Interaction, error) {
		return n.store.LoadInteractions(ctx, q)
	})
	if resilience.IsOpen(err) {
		return nil, models.StorageError("load interactions", err)
	}
	return interactions, err
}

func (n *Navigator) archiveReport(ctx context.Context, kind string, report any) {
	if n.archive == nil {
		return
	}
	if _, err := n.archive.Put(ctx, kind, report); err != nil {
		n.logger.Error().Err(err).Str("kind", kind).Msg("failed to archive report")
	}
}

func (n *Navigator) publish(ctx context.Context, topic string, payload any) {
	if n.bus == nil {
		return
	}
	if err := n.bus.Publish(ctx, topic, payload); err != nil && !errors.Is(err, events.ErrClosed) {
		n.logger.Warn().Err(err).Str("topic", topic).Msg("failed to publish event")
	}
}
