package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/iho/gosettle/internal/usecase"
)

// Reconciler replays settlement inputs and reports drift.
type Reconciler interface {
	Reconcile(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	cron       *cron.Cron
	reconciler Reconciler
	logger     zerolog.Logger
	timeout    time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
}

// New creates a Scheduler. Overlapping runs of the same job are skipped.
func New(reconciler Reconciler, logger zerolog.Logger) *Scheduler {
	logger = logger.With().Str("component", "scheduler").Logger()
	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		reconciler: reconciler,
		logger:     logger,
		timeout:    5 * time.Minute,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// RegisterReconcile schedules reconciliation. An empty spec disables it.
func (s *Scheduler) RegisterReconcile(spec string) error {
	if spec == "" {
		return nil
	}

	if _, err := s.cron.AddFunc(spec, s.RunReconcileNow); err != nil {
		return fmt.Errorf("register reconcile job: %w", err)
	}

	s.logger.Info().Str("schedule", spec).Msg("reconcile job registered")
	return nil
}

// Start starts the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop cancels running jobs and waits for them to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		s.logger.Info().Msg("scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn().Msg("scheduler stop timed out")
	}
}

// RunReconcileNow runs one reconciliation synchronously.
func (s *Scheduler) RunReconcileNow() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	report, err := s.reconciler.Reconcile(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("reconciliation failed")
		return
	}

	if report.Consistent {
		s.logger.Info().
			Int64("generation", report.Generation).
			Int("weeks", report.WeeksChecked).
			Msg("reconciliation consistent")
		return
	}

	for _, d := range report.Discrepancies {
		s.logger.Warn().
			Str("scope", d.Scope).
			Str("field", d.Field).
			Str("stored", d.Stored).
			Str("replayed", d.Replayed).
			Msg("settlement drift")
	}
	s.logger.Error().
		Int64("generation", report.Generation).
		Int("discrepancies", len(report.Discrepancies)).
		Msg("reconciliation found drift")
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
