// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/wayfinder/internal/events"
	"github.com/tomtom215/wayfinder/internal/models"
	"github.com/tomtom215/wayfinder/internal/recommend"
)

// Trainer retrains the reranker. Satisfied by *navigator.Navigator.
type Trainer interface {
	Train(ctx context.Context) (*recommend.TrainingReport, error)
}

// Subscriber delivers bus messages. Satisfied by *events.Bus.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Retrain triggers.
const (
	TriggerStartup      = "startup"
	TriggerSchedule     = "schedule"
	TriggerInteractions = "interactions"
)

// RetrainServiceConfig controls when retraining runs.
type RetrainServiceConfig struct {
	// Schedule is a standard cron expression or descriptor (@weekly).
	// Empty disables scheduled retraining.
	Schedule string

	// TrainOnStartup queues one run as soon as the service starts.
	TrainOnStartup bool

	// Timeout bounds a single run. Zero means no bound beyond ctx.
	Timeout time.Duration

	// RetrainAfterInteractions queues a run after this many
	// InteractionRecorded events. Zero disables the trigger.
	RetrainAfterInteractions int

	// MinRetrainInterval is the minimum gap between interaction-triggered
	// runs. Scheduled and startup runs are not throttled.
	MinRetrainInterval time.Duration
}

// RetrainService runs reranker training from three triggers. Requests are
// coalesced: while a run is queued or in progress further requests are
// dropped, so at most one run follows the current one.
type RetrainService struct {
	trainer  Trainer
	bus      Subscriber
	cfg      RetrainServiceConfig
	schedule cron.Schedule
	limiter  *rate.Limiter
	logger   zerolog.Logger

	pending atomic.Int64
	queue   chan string
	runs    atomic.Int64
}

// NewRetrainService validates the schedule and builds the service. bus may
// be nil, which disables the interaction trigger.
func NewRetrainService(trainer Trainer, bus Subscriber, cfg RetrainServiceConfig, logger zerolog.Logger) (*RetrainService, error) {
	if trainer == nil {
		return nil, models.ConfigError("retrain service", "trainer is required")
	}
	if cfg.RetrainAfterInteractions < 0 {
		return nil, models.ConfigError("retrain service", "retrain_after_interactions must be >= 0")
	}

	s := &RetrainService{
		trainer: trainer,
		bus:     bus,
		cfg:     cfg,
		logger:  logger.With().Str("service", "retrain").Logger(),
		queue:   make(chan string, 1),
	}
	if cfg.Schedule != "" {
		sched, err := cron.ParseStandard(cfg.Schedule)
		if err != nil {
			return nil, models.ConfigError("retrain service", "invalid schedule %q: %v", cfg.Schedule, err)
		}
		s.schedule = sched
	}

	limit := rate.Inf
	if cfg.MinRetrainInterval > 0 {
		limit = rate.Every(cfg.MinRetrainInterval)
	}
	s.limiter = rate.NewLimiter(limit, 1)
	return s, nil
}

// Runs returns how many training runs have completed, successful or not.
func (s *RetrainService) Runs() int64 {
	return s.runs.Load()
}

// Serve implements suture.Service.
func (s *RetrainService) Serve(ctx context.Context) error {
	var messages <-chan *message.Message
	if s.bus != nil && s.cfg.RetrainAfterInteractions > 0 {
		msgs, err := s.bus.Subscribe(ctx, events.TopicInteractionRecorded)
		if err != nil {
			return fmt.Errorf("retrain service: %w", err)
		}
		messages = msgs
	}

	if s.schedule != nil {
		c := cron.New(cron.WithLocation(time.UTC), cron.WithLogger(cronLogger{s.logger}))
		c.Schedule(s.schedule, cron.FuncJob(func() { s.request(TriggerSchedule) }))
		c.Start()
		defer func() { <-c.Stop().Done() }()
		s.logger.Info().Str("schedule", s.cfg.Schedule).Msg("Scheduled retraining enabled")
	}

	worker := make(chan struct{})
	go func() {
		defer close(worker)
		s.work(ctx)
	}()
	defer func() { <-worker }()

	if s.cfg.TrainOnStartup {
		s.request(TriggerStartup)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				// Bus closed; keep serving the other triggers.
				messages = nil
				continue
			}
			msg.Ack()
			s.observeInteraction()
		}
	}
}

func (s *RetrainService) observeInteraction() {
	if s.pending.Add(1) < int64(s.cfg.RetrainAfterInteractions) {
		return
	}
	if !s.limiter.Allow() {
		return
	}
	s.pending.Store(0)
	s.request(TriggerInteractions)
}

// request queues a run unless one is already queued.
func (s *RetrainService) request(trigger string) {
	select {
	case s.queue <- trigger:
	default:
		s.logger.Debug().Str("trigger", trigger).Msg("Retraining already queued")
	}
}

func (s *RetrainService) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case trigger := <-s.queue:
			s.run(ctx, trigger)
		}
	}
}

func (s *RetrainService) run(ctx context.Context, trigger string) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	defer s.runs.Add(1)

	log := s.logger.With().Str("trigger", trigger).Logger()
	report, err := s.trainer.Train(ctx)
	switch {
	case err == nil:
		log.Info().
			Int("version", report.Version).
			Float64("r2", report.R2).
			Bool("synthetic", report.Synthetic).
			Msg("Retraining completed")
	case errors.Is(err, recommend.ErrTrainingInProgress):
		log.Debug().Msg("Retraining skipped, run already in progress")
	case errors.Is(err, models.ErrInsufficientData):
		log.Info().Err(err).Msg("Retraining skipped")
	case ctx.Err() != nil:
		log.Warn().Err(err).Msg("Retraining canceled")
	default:
		log.Error().Err(err).Msg("Retraining failed")
	}
}

// String implements fmt.Stringer.
func (s *RetrainService) String() string {
	return "retrain-service"
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
