// Package scheduler decides when metadata and bookmarks are fetched.
package scheduler

import (
	"time"

	"github.com/MrSnakeDoc/marksync/internal/engine"
)

const (
	DefaultNormalInterval = 15 * time.Second
	DefaultBusyInterval   = 3 * time.Second
	DefaultHiddenInterval = 2 * time.Minute
)

// Intervals configure the metadata cadence. A zero Hidden interval pauses
// polling while the client is hidden.
type Intervals struct {
	Normal time.Duration
	Busy   time.Duration
	Hidden time.Duration
}

func (iv Intervals) withDefaults() Intervals {
	if iv.Normal <= 0 {
		iv.Normal = DefaultNormalInterval
	}
	if iv.Busy <= 0 {
		iv.Busy = DefaultBusyInterval
	}
	if iv.Hidden < 0 {
		iv.Hidden = 0
	}
	return iv
}

// Action is what the driver must do after a transition. Several fields can
// be set at once; they are executed in declaration order.
type Action struct {
	FetchMetadata  bool
	FetchBookmarks bool
	SignalRefetch  bool
	StopTimer      bool
	ArmTimer       bool
	Delay          time.Duration
}

// State reports what the machine is waiting for.
type State struct {
	Mounted           bool          `json:"mounted"`
	Visible           bool          `json:"visible"`
	Busy              bool          `json:"busy"`
	MetadataFetching  bool          `json:"metadata_fetching"`
	BookmarksFetching bool          `json:"bookmarks_fetching"`
	LastMetadata      time.Time     `json:"last_metadata"`
	NextDelay         time.Duration `json:"next_delay"`
}

// Machine is the polling state machine. It does no I/O and reads time only
// through now, so every transition can be tested with a fake clock. It is
// not safe for concurrent use.
type Machine struct {
	intervals Intervals
	now       func() time.Time

	mounted           bool
	ready             bool // first metadata cycle settled
	visible           bool
	busy              bool
	metadataFetching  bool
	bookmarksInFlight int
	lastMetadata      time.Time
	nextDelay         time.Duration

	lastKey    engine.FetchKey
	hasLastKey bool
}

func NewMachine(iv Intervals, now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{intervals: iv.withDefaults(), now: now, visible: true}
}

// Mount starts the first metadata cycle. The initial bookmark fetch follows
// once it settles.
func (m *Machine) Mount() Action {
	if m.mounted {
		return Action{}
	}
	m.mounted = true
	m.metadataFetching = true
	return Action{FetchMetadata: true}
}

// Tick is the metadata timer firing.
func (m *Machine) Tick() Action {
	if !m.mounted || m.metadataFetching {
		return Action{}
	}
	if !m.visible && m.intervals.Hidden == 0 {
		return Action{StopTimer: true}
	}
	m.metadataFetching = true
	return Action{FetchMetadata: true}
}

// MetadataSettled re-arms the timer after a metadata cycle. A bookmark
// refetch is signalled after every cycle except an unauthorized one.
func (m *Machine) MetadataSettled(out engine.MetadataOutcome) Action {
	m.metadataFetching = false
	m.ready = true
	m.lastMetadata = m.now()
	if out.Applied {
		m.busy = out.Busy
	}

	a := m.rearm()
	a.SignalRefetch = !out.Unauthorized
	return a
}

// Trigger is a bookmark-fetch signal. It returns FetchBookmarks once per
// distinct key. Signals before the first metadata cycle settles are dropped
// because that cycle ends with a refetch of its own.
func (m *Machine) Trigger(key engine.FetchKey) Action {
	if !m.ready {
		return Action{}
	}
	if m.hasLastKey && key == m.lastKey {
		return Action{}
	}
	m.lastKey = key
	m.hasLastKey = true
	m.bookmarksInFlight++
	return Action{FetchBookmarks: true}
}

// BookmarksSettled records the end of one bookmark fetch, superseded or not.
func (m *Machine) BookmarksSettled() {
	if m.bookmarksInFlight > 0 {
		m.bookmarksInFlight--
	}
}

// VisibilityChanged adjusts the cadence. Regaining visibility after more
// than the normal interval fetches metadata at once.
func (m *Machine) VisibilityChanged(visible bool) Action {
	if visible == m.visible {
		return Action{}
	}
	m.visible = visible
	if !m.mounted || m.metadataFetching {
		// MetadataSettled picks the right interval.
		return Action{}
	}
	if visible && m.now().Sub(m.lastMetadata) > m.intervals.Normal {
		m.metadataFetching = true
		return Action{FetchMetadata: true, StopTimer: true}
	}
	return m.rearm()
}

func (m *Machine) rearm() Action {
	d := m.interval()
	m.nextDelay = d
	if d == 0 {
		return Action{StopTimer: true}
	}
	return Action{ArmTimer: true, Delay: d}
}

func (m *Machine) interval() time.Duration {
	switch {
	case !m.visible:
		return m.intervals.Hidden
	case m.busy:
		return m.intervals.Busy
	default:
		return m.intervals.Normal
	}
}

func (m *Machine) State() State {
	return State{
		Mounted:           m.mounted,
		Visible:           m.visible,
		Busy:              m.busy,
		MetadataFetching:  m.metadataFetching,
		BookmarksFetching: m.bookmarksInFlight > 0,
		LastMetadata:      m.lastMetadata,
		NextDelay:         m.nextDelay,
	}
}
