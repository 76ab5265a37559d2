package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Dosada05/volley-tournament/services"
	"github.com/Dosada05/volley-tournament/storage"
)

const jobTimeout = 2 * time.Minute

// RatingRetrier re-applies rating batches that failed at tournament completion.
type RatingRetrier interface {
	RetryPending(ctx context.Context) (int, error)
}

type Archiver interface {
	Archive(ctx context.Context) (*storage.UploadResult, error)
}

type Config struct {
	RatingRetrySpec string // пусто: задача отключена
	ArchiveSpec     string
}

type Scheduler struct {
	cron     *cron.Cron
	ratings  RatingRetrier
	archiver Archiver
	cfg      Config
	logger   *slog.Logger
	ctx      context.Context
}

func NewScheduler(ratings RatingRetrier, archiver Archiver, cfg Config, logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	return &Scheduler{
		cron:     c,
		ratings:  ratings,
		archiver: archiver,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "scheduler")),
		ctx:      context.Background(),
	}
}

// Start registers the configured jobs and starts the cron loop. ctx is
// passed to every job run.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = ctx

	if s.cfg.RatingRetrySpec != "" && s.ratings != nil {
		if _, err := s.cron.AddFunc(s.cfg.RatingRetrySpec, s.runRatingRetry); err != nil {
			return fmt.Errorf("failed to schedule rating retry job %q: %w", s.cfg.RatingRetrySpec, err)
		}
	}
	if s.cfg.ArchiveSpec != "" && s.archiver != nil {
		if _, err := s.cron.AddFunc(s.cfg.ArchiveSpec, s.runArchive); err != nil {
			return fmt.Errorf("failed to schedule archive job %q: %w", s.cfg.ArchiveSpec, err)
		}
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started", slog.Int("jobs", len(s.cron.Entries())))
	return nil
}

// Stop waits for running jobs up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) {
	s.logger.Info("stopping cron scheduler")
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("cron scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("cron scheduler stop timed out", slog.Any("error", ctx.Err()))
	}
}

func (s *Scheduler) runRatingRetry() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	applied, err := s.ratings.RetryPending(ctx)
	if err != nil {
		s.logger.Error("rating retry job failed", slog.Int("applied", applied), slog.Any("error", err))
		return
	}
	if applied == 0 {
		s.logger.Debug("no pending rating batches")
		return
	}
	s.logger.Info("pending rating batches applied", slog.Int("applied", applied))
}

func (s *Scheduler) runArchive() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	result, err := s.archiver.Archive(ctx)
	if err != nil {
		if errors.Is(err, services.ErrArchiveUnavailable) {
			s.logger.Warn("archive job skipped: storage not configured")
			return
		}
		s.logger.Error("archive job failed", slog.Any("error", err))
		return
	}
	s.logger.Info("archive job completed", slog.String("key", result.Key))
}

// RunRatingRetryNow triggers the rating retry job outside the schedule.
func (s *Scheduler) RunRatingRetryNow() {
	if s.ratings != nil {
		s.runRatingRetry()
	}
}

func (s *Scheduler) RunArchiveNow() {
	if s.archiver != nil {
		s.runArchive()
	}
}
