package engine

import (
	"context"
	"sync"
	"testing"
)

func TestSequenceGuardAcceptsOnlyNewer(t *testing.T) {
	var g SequenceGuard
	s1, s2, s3 := g.Next(), g.Next(), g.Next()
	if !(s1 < s2 && s2 < s3) {
		t.Fatalf("Next() not increasing: %d %d %d", s1, s2, s3)
	}

	steps := []struct {
		seq  uint64
		want bool
	}{
		{s2, true},
		{s1, false},
		{s2, false},
		{s3, true},
		{s2, false},
	}
	for _, st := range steps {
		if got := g.Accept(st.seq); got != st.want {
			t.Errorf("Accept(%d) = %v, want %v", st.seq, got, st.want)
		}
	}
	if g.Watermark() != s3 {
		t.Errorf("Watermark() = %d, want %d", g.Watermark(), s3)
	}
}

func TestSequenceGuardConcurrentNext(t *testing.T) {
	var g SequenceGuard
	seen := make(map[uint64]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := g.Next()
			mu.Lock()
			seen[s] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	if len(seen) != 100 {
		t.Errorf("got %d distinct stamps, want 100", len(seen))
	}
}

func TestSlotExchangeCancelsPrevious(t *testing.T) {
	var s Slot
	a := s.Exchange(context.Background(), 1)
	b := s.Exchange(context.Background(), 2)

	if !a.Cancelled() {
		t.Error("first token not cancelled by Exchange")
	}
	if b.Cancelled() {
		t.Error("current token cancelled")
	}

	s.Release(a)
	if !s.Busy() {
		t.Error("releasing a stale token freed the slot")
	}
	s.Release(b)
	if s.Busy() {
		t.Error("slot still busy after releasing the owner")
	}
}
