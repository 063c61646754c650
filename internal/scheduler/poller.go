package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/marksync/internal/engine"
	"github.com/MrSnakeDoc/marksync/internal/logger"
)

// Engine is what the poller drives.
type Engine interface {
	FetchMetadata(ctx context.Context) engine.MetadataOutcome
	FetchBookmarks(ctx context.Context)
	Triggers() <-chan struct{}
	FetchKey() engine.FetchKey
	RequestRefetch()
}

// Poller runs the Machine on one goroutine and executes its actions.
// Metadata fetches are awaited before the timer is re-armed. Bookmark
// fetches run in their own goroutines so a newer trigger can supersede them.
type Poller struct {
	engine  Engine
	logger  logger.Logger
	machine *Machine

	mu sync.Mutex // guards machine and started

	visibility chan bool
	stopCh     chan struct{}
	stopOnce   sync.Once
	started    bool
	done       chan struct{}
	fetches    sync.WaitGroup
}

// NewPoller creates a poller. now may be nil.
func NewPoller(e Engine, log logger.Logger, iv Intervals, now func() time.Time) *Poller {
	if log == nil {
		log = logger.Nop()
	}
	return &Poller{
		engine:     e,
		logger:     log,
		machine:    NewMachine(iv, now),
		visibility: make(chan bool, 1),
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start mounts the machine and begins polling.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	p.started = true
	p.mu.Unlock()
	ctx, cancel := context.WithCancel(ctx)

	metaDone := make(chan engine.MetadataOutcome, 1)
	bookDone := make(chan struct{}, 16)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
		timerC = nil
	}

	exec := func(a Action) {
		if a.FetchMetadata {
			p.fetches.Add(1)
			go func() {
				defer p.fetches.Done()
				out := p.engine.FetchMetadata(ctx)
				select {
				case metaDone <- out:
				case <-ctx.Done():
				}
			}()
		}
		if a.FetchBookmarks {
			p.fetches.Add(1)
			go func() {
				defer p.fetches.Done()
				p.engine.FetchBookmarks(ctx)
				select {
				case bookDone <- struct{}{}:
				case <-ctx.Done():
				}
			}()
		}
		if a.SignalRefetch {
			p.engine.RequestRefetch()
		}
		if a.StopTimer {
			stopTimer()
		}
		if a.ArmTimer {
			stopTimer()
			timer = time.NewTimer(a.Delay)
			timerC = timer.C
		}
	}

	step := func(transition func(m *Machine) Action) {
		p.mu.Lock()
		a := transition(p.machine)
		p.mu.Unlock()
		exec(a)
	}

	p.logger.Info("poller started")
	step((*Machine).Mount)

	go func() {
		defer close(p.done)
		defer cancel()
		defer stopTimer()
		for {
			select {
			case <-timerC:
				timerC = nil
				step((*Machine).Tick)
			case out := <-metaDone:
				step(func(m *Machine) Action { return m.MetadataSettled(out) })
				p.logger.Debug("metadata cycle settled",
					logger.Bool("applied", out.Applied),
					logger.Bool("busy", out.Busy),
					logger.Bool("unauthorized", out.Unauthorized))
			case <-p.engine.Triggers():
				key := p.engine.FetchKey()
				step(func(m *Machine) Action { return m.Trigger(key) })
			case <-bookDone:
				p.mu.Lock()
				p.machine.BookmarksSettled()
				p.mu.Unlock()
			case v := <-p.visibility:
				step(func(m *Machine) Action { return m.VisibilityChanged(v) })
				p.logger.Debug("visibility changed", logger.Bool("visible", v))
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// SetVisible reports client visibility. Only the latest value is kept if
// the loop is busy.
func (p *Poller) SetVisible(v bool) {
	for {
		select {
		case p.visibility <- v:
			return
		default:
		}
		select {
		case <-p.visibility:
		default:
		}
	}
}

// State returns the machine state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.machine.State()
}

// Stop ends the loop and waits for running fetches to return.
func (p *Poller) Stop() {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return
	}
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	<-p.done
	p.fetches.Wait()
	p.logger.Info("poller stopped")
}
