package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler runs named jobs on cron specs with a leading seconds field.
// A job still running when its next tick fires is skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu  sync.RWMutex
	ctx context.Context
}

// NewScheduler creates a Scheduler. Jobs only fire once Run is called.
func NewScheduler(logger *slog.Logger) *Scheduler {
	logger = logger.With(slog.String("component", "scheduler"))
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
		ctx:    context.Background(),
	}
}

// Add registers job under spec. Errors returned by the job are logged.
func (s *Scheduler) Add(name, spec string, job func(context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx := s.runContext()
		if ctx.Err() != nil {
			return
		}
		s.logger.InfoContext(ctx, "job started", slog.String("job", name))
		if err := job(ctx); err != nil {
			s.logger.ErrorContext(ctx, "job failed",
				slog.String("job", name),
				slog.String("error", err.Error()),
			)
			return
		}
		s.logger.InfoContext(ctx, "job finished", slog.String("job", name))
	})
	if err != nil {
		return fmt.Errorf("scheduler: job %q spec %q: %w", name, spec, err)
	}
	s.logger.Info("job registered", slog.String("job", name), slog.String("spec", spec))
	return nil
}

// Len reports how many jobs are registered.
func (s *Scheduler) Len() int { return len(s.cron.Entries()) }

// Run starts the cron loop and blocks until ctx is cancelled, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.logger.InfoContext(ctx, "scheduler started", slog.Int("jobs", s.Len()))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) runContext() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, slog.String("error", err.Error()))...)
}
