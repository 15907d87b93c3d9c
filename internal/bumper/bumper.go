// Package bumper coordinates the thread store and the forum client: batch adds,
// titled listings and rate-limited bump passes.
package bumper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"bumpbot/internal/metrics"
	"bumpbot/internal/models"
	"bumpbot/internal/storage"
)

const (
	// DefaultBumpDelay separates consecutive bump requests
	DefaultBumpDelay = 5 * time.Second
	// DefaultTitleDelay separates consecutive title lookups
	DefaultTitleDelay = 3 * time.Second

	bumpAllKey = "bump-all"
)

// Forum is the subset of the forum API the service needs
type Forum interface {
	Bump(ctx context.Context, threadID string) models.BumpResult
	Title(ctx context.Context, threadID string) (string, error)
}

// Service is the bump orchestrator
type Service struct {
	store      storage.Storage
	forum      Forum
	logger     *zap.Logger
	bumpDelay  time.Duration
	titleDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	passes     singleflight.Group
}

// Option customizes a Service
type Option func(*Service)

// WithDelays overrides the inter-request delays
func WithDelays(bump, title time.Duration) Option {
	return func(s *Service) {
		s.bumpDelay = bump
		s.titleDelay = title
	}
}

// WithSleep replaces the context-aware sleep used between requests
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) {
		s.sleep = sleep
	}
}

// New creates the orchestrator
func New(store storage.Storage, forum Forum, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:      store,
		forum:      forum,
		logger:     logger.Named("bumper"),
		bumpDelay:  DefaultBumpDelay,
		titleDelay: DefaultTitleDelay,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseIDs splits comma-separated input into trimmed tokens, sorting them into
// digit-only ids and rejected tokens. Empty tokens are dropped.
func ParseIDs(raw string) (ids, invalid []string) {
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if IsThreadID(token) {
			ids = append(ids, token)
		} else {
			invalid = append(invalid, token)
		}
	}
	return ids, invalid
}

// IsThreadID reports whether s is a non-empty run of ASCII digits
func IsThreadID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// AddMany stores every valid id from comma-separated input
func (s *Service) AddMany(ctx context.Context, raw string) (models.AddResult, error) {
	var result models.AddResult

	ids, invalid := ParseIDs(raw)
	result.Invalid = invalid

	for _, id := range ids {
		added, err := s.store.AddThread(ctx, id)
		if err != nil {
			return result, fmt.Errorf("failed to add thread %s: %w", id, err)
		}
		if added {
			result.Added = append(result.Added, id)
		} else {
			result.Duplicates = append(result.Duplicates, id)
		}
	}

	s.logger.Info("Threads added",
		zap.Strings("added", result.Added),
		zap.Strings("duplicates", result.Duplicates),
		zap.Int("invalid", len(result.Invalid)),
	)
	return result, nil
}

// Remove stops tracking a thread
func (s *Service) Remove(ctx context.Context, threadID string) error {
	if err := s.store.RemoveThread(ctx, threadID); err != nil {
		return fmt.Errorf("failed to remove thread %s: %w", threadID, err)
	}
	s.logger.Info("Thread removed", zap.String("thread_id", threadID))
	return nil
}

// List returns the stored ids without touching the forum
func (s *Service) List(ctx context.Context) ([]string, error) {
	ids, err := s.store.ListThreads(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	metrics.SetThreadsTracked(len(ids))
	return ids, nil
}

// ListWithTitles returns every thread with its current title, pausing between lookups
func (s *Service) ListWithTitles(ctx context.Context) ([]models.Thread, error) {
	ids, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	threads := make([]models.Thread, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			if err := s.sleep(ctx, s.titleDelay); err != nil {
				return threads, err
			}
		}

		thread := models.Thread{ID: id}
		title, err := s.forum.Title(ctx, id)
		if err != nil {
			s.logger.Warn("Failed to fetch thread title",
				zap.String("thread_id", id),
				zap.Error(err),
			)
			thread.Title = models.UnknownTitle
			thread.TitleErr = err
		} else {
			thread.Title = title
		}
		metrics.IncTitleFetch(err == nil)
		threads = append(threads, thread)
	}
	return threads, nil
}

// BumpAll bumps every stored thread in listing order. A call made while a pass
// is already running waits for that pass and receives its results.
func (s *Service) BumpAll(ctx context.Context) ([]models.BumpResult, error) {
	v, err, shared := s.passes.Do(bumpAllKey, func() (interface{}, error) {
		return s.bumpPass(ctx)
	})
	if shared {
		metrics.IncBumpPassCoalesced()
	}
	results, _ := v.([]models.BumpResult)
	return results, err
}

func (s *Service) bumpPass(ctx context.Context) ([]models.BumpResult, error) {
	passID := uuid.NewString()
	logger := s.logger.With(zap.String("pass_id", passID))
	started := time.Now()

	ids, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	logger.Info("Bump pass started", zap.Int("threads", len(ids)))

	results := make([]models.BumpResult, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			if err := s.sleep(ctx, s.bumpDelay); err != nil {
				logger.Warn("Bump pass interrupted", zap.Int("done", len(results)), zap.Error(err))
				return results, err
			}
		}

		result := s.forum.Bump(ctx, id)
		metrics.IncBumpResult(result.Status.String())

		fields := []zap.Field{
			zap.String("thread_id", id),
			zap.Stringer("status", result.Status),
		}
		switch result.Status {
		case models.BumpStatusBumped, models.BumpStatusRateLimited:
			logger.Info("Thread bump finished", append(fields, zap.Duration("remaining", result.Remaining))...)
		default:
			logger.Warn("Thread bump failed", append(fields,
				zap.Int("http_status", result.HTTPStatus),
				zap.String("raw", result.Raw),
				zap.Error(result.Err),
			)...)
		}
		results = append(results, result)
	}

	elapsed := time.Since(started)
	metrics.ObserveBumpPass(elapsed)
	logger.Info("Bump pass finished", zap.Int("threads", len(results)), zap.Duration("elapsed", elapsed))
	return results, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
