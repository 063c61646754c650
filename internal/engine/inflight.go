package engine

import (
	"context"
	"sync"
)

// Token is the cancellation handle of one bookmark request.
type Token struct {
	ctx    context.Context
	cancel context.CancelFunc
	seq    uint64
}

func (t *Token) Context() context.Context { return t.ctx }

// Seq is the sequence stamp the request was issued with.
func (t *Token) Seq() uint64 { return t.seq }

// Cancelled reports whether a newer request superseded this one.
func (t *Token) Cancelled() bool { return t.ctx.Err() != nil }

// Slot holds the single in-flight bookmark request.
type Slot struct {
	mu      sync.Mutex
	current *Token
}

// Exchange cancels the current request, if any, and installs a new token
// derived from parent.
func (s *Slot) Exchange(parent context.Context, seq uint64) *Token {
	ctx, cancel := context.WithCancel(parent)
	tok := &Token{ctx: ctx, cancel: cancel, seq: seq}

	s.mu.Lock()
	prev := s.current
	s.current = tok
	s.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
	return tok
}

// Release frees the slot if tok still owns it and releases the context.
func (s *Slot) Release(tok *Token) {
	s.mu.Lock()
	if s.current == tok {
		s.current = nil
	}
	s.mu.Unlock()
	tok.cancel()
}

// Busy reports whether a request currently owns the slot.
func (s *Slot) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// CancelAll cancels the current request. Used on shutdown.
func (s *Slot) CancelAll() {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.mu.Unlock()
	if prev != nil {
		prev.cancel()
	}
}
