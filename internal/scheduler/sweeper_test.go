package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/MrSnakeDoc/marksync/internal/cache"
	"github.com/MrSnakeDoc/marksync/internal/logger"
	"github.com/MrSnakeDoc/marksync/internal/remote"
)

func TestCacheSweeper_Sweep(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := cache.New(nil, func() time.Time { return now })

	fetch := func(context.Context, string) remote.Result[int] {
		return remote.Result[int]{Kind: remote.KindOK, Value: 1, ETag: `"e"`}
	}
	cache.Request(context.Background(), c, "search:old", fetch)
	now = now.Add(45 * time.Minute)
	cache.Request(context.Background(), c, "search:recent", fetch)

	s := NewCacheSweeper(c, logger.Nop(), time.Hour, 30*time.Minute)

	if n := s.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}
