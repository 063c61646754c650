package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/marksync/internal/cache"
	"github.com/MrSnakeDoc/marksync/internal/logger"
)

const (
	// DefaultCacheTTL bounds how long an unused conditional-fetch entry is kept.
	DefaultCacheTTL = 30 * time.Minute
)

// CacheSweeper periodically evicts stale conditional-fetch entries so the
// cache does not grow with every query ever typed.
type CacheSweeper struct {
	cache    *cache.Cache
	logger   logger.Logger
	interval time.Duration
	ttl      time.Duration
	stopCh   chan struct{}
}

func NewCacheSweeper(c *cache.Cache, log logger.Logger, interval, ttl time.Duration) *CacheSweeper {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if interval <= 0 {
		interval = ttl / 2
	}
	return &CacheSweeper{
		cache:    c,
		logger:   log,
		interval: interval,
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep.
func (s *CacheSweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (s *CacheSweeper) Stop() {
	close(s.stopCh)
}

// Sweep evicts entries older than the TTL and returns how many went.
func (s *CacheSweeper) Sweep() int {
	n := s.cache.Sweep(s.ttl)
	if n > 0 {
		s.logger.Info("cache sweep completed",
			logger.Int("evicted", n),
			logger.Int("remaining", s.cache.Len()))
	} else {
		s.logger.Debug("no cache entries to sweep")
	}
	return n
}
