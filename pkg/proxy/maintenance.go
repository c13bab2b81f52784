package proxy

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

// newScheduler builds the cron scheduler running cache maintenance every
// CleanupInterval. A panicking job is recovered by the chain and logged.
func (s *Service) newScheduler() (*cron.Cron, error) {
	logger := cronLogger{logger: s.logger.With("job", "cache-maintenance")}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	spec := fmt.Sprintf("@every %s", s.opts.CleanupInterval)
	if _, err := c.AddFunc(spec, s.runMaintenance); err != nil {
		return nil, fmt.Errorf("failed to schedule cache maintenance: %w", err)
	}

	s.logger.Debug("cache maintenance scheduled", "interval", s.opts.CleanupInterval)
	return c, nil
}

// runMaintenance evicts expired cache entries.
func (s *Service) runMaintenance() {
	if s.cache == nil {
		return
	}

	start := time.Now()
	evicted := s.cache.EvictExpired()
	if evicted > 0 {
		s.logger.Info("expired cache entries evicted",
			"evicted", evicted,
			"remaining", s.cache.Len(),
			"duration", time.Since(start),
		)
		return
	}
	s.logger.Debug("cache maintenance completed, nothing expired")
}

// NextMaintenance returns when the next cache sweep runs, or nil when the
// service is stopped or the cache is disabled.
func (s *Service) NextMaintenance() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.scheduler == nil {
		return nil
	}
	entries := s.scheduler.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
