// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const flushTimeout = 2 * time.Minute

// Flusher persists pending state; it reports whether anything was written.
type Flusher interface {
	Flush(ctx context.Context) (bool, error)
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron    *cron.Cron
	flusher Flusher
	spec    string
	logger  *slog.Logger
}

// NewScheduler creates a scheduler that flushes the vocabulary on spec
// (standard 5-field format or a descriptor such as "@every 5m").
func NewScheduler(flusher Flusher, spec string, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:    c,
		flusher: flusher,
		spec:    spec,
		logger:  logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.flushVocabulary); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.String("vocabulary_flush", s.spec),
	)
	return nil
}

// Stop stops the scheduler and flushes one last time once running jobs have
// finished.
func (s *Scheduler) Stop(ctx context.Context) {
	s.logger.Info("cron scheduler stopping")
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	s.flush(ctx)
}

// RunNow triggers the vocabulary flush synchronously.
func (s *Scheduler) RunNow() {
	s.flushVocabulary()
}

func (s *Scheduler) flushVocabulary() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	s.flush(ctx)
}

func (s *Scheduler) flush(ctx context.Context) {
	wrote, err := s.flusher.Flush(ctx)
	if err != nil {
		s.logger.Error("failed to flush vocabulary", slog.Any("error", err))
		return
	}
	if wrote {
		s.logger.Info("vocabulary flushed")
	}
}
