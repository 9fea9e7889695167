// Package session sequences a recording from preparation through capture,
// pauses and conversion.
package session

import (
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// ErrCancelled is reported when a session is stopped before it recorded.
var ErrCancelled = errors.New("session: cancelled before recording")

// Machine is an event-driven session state machine. Events are applied in
// order on a single goroutine; events that do not apply to the current
// state are ignored.
type Machine struct {
	state     atomic.Int32
	logger    *slog.Logger
	now       func() time.Time
	events    chan any
	listeners []Listener
	clock     activeClock

	sendMu sync.RWMutex // guards closed against sends
	closed bool
	done   chan struct{}

	errMu sync.Mutex
	err   error
}

var _ Contract = (*Machine)(nil)

type (
	evtPrepare     struct{}
	evtStart       struct{}
	evtPause       struct{}
	evtResume      struct{}
	evtStop        struct{}
	evtConvert     struct{}
	evtComplete    struct{}
	evtFail        struct{ err error }
	evtTick        struct{ now time.Time }
	evtAddListener struct{ l Listener }
)

// New starts the event loop. now may be nil.
func New(logger *slog.Logger, now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	m := &Machine{logger: logger, now: now, events: make(chan any, 64), done: make(chan struct{})}
	go func() {
		defer close(m.done)
		defer func() {
			if r := recover(); r != nil {
				if logger != nil {
					logger.Error("session fsm panic", "error", r, "stack", string(debug.Stack()))
				}
			}
		}()
		m.loop()
	}()
	return m
}

func (m *Machine) loop() {
	for ev := range m.events {
		switch e := ev.(type) {
		case evtAddListener:
			m.listeners = append(m.listeners, e.l)
		case evtPrepare:
			if m.Current() == StateIdle {
				m.transition(StatePreStart)
			}
		case evtStart:
			if m.Current() == StatePreStart {
				m.transition(StateRecording)
			}
		case evtPause:
			if m.Current() == StateRecording {
				m.transition(StatePaused)
			}
		case evtResume:
			if m.Current() == StatePaused {
				m.transition(StateRecording)
			}
		case evtStop:
			switch m.Current() {
			case StateRecording, StatePaused:
				m.transition(StateStopping)
			case StatePreStart:
				m.fail(ErrCancelled)
			}
		case evtConvert:
			if m.Current() == StateStopping {
				m.transition(StateConverting)
			}
		case evtComplete:
			if m.Current() == StateConverting {
				m.transition(StateDone)
			}
		case evtFail:
			if !m.Current().Terminal() {
				m.fail(e.err)
			}
		case evtTick:
			m.clock.update(m.Current() == StateRecording, e.now)
		}
	}
}

func (m *Machine) fail(err error) {
	m.errMu.Lock()
	m.err = err
	m.errMu.Unlock()
	m.transition(StateFailed)
}

func (m *Machine) transition(next State) {
	prev := m.Current()
	if prev == next {
		return
	}
	m.state.Store(int32(next))
	m.clock.update(next == StateRecording, m.now())
	if m.logger != nil {
		m.logger.Debug("session state transition", "from", prev.String(), "to", next.String())
	}
	for _, l := range m.listeners {
		m.notify(l, prev, next)
	}
}

// notify isolates a panicking listener from the loop.
func (m *Machine) notify(l Listener, prev, next State) {
	defer func() {
		if r := recover(); r != nil && m.logger != nil {
			m.logger.Error("session listener panic", "error", r, "stack", string(debug.Stack()))
		}
	}()
	l(prev, next)
}

// send drops events after Close.
func (m *Machine) send(ev any) {
	m.sendMu.RLock()
	defer m.sendMu.RUnlock()
	if m.closed {
		return
	}
	m.events <- ev
}

func (m *Machine) AddListener(l Listener) { m.send(evtAddListener{l: l}) }
func (m *Machine) Current() State         { return State(m.state.Load()) }
func (m *Machine) EventPrepare()          { m.send(evtPrepare{}) }
func (m *Machine) EventStart()            { m.send(evtStart{}) }
func (m *Machine) EventPause()            { m.send(evtPause{}) }
func (m *Machine) EventResume()           { m.send(evtResume{}) }
func (m *Machine) EventStop()             { m.send(evtStop{}) }
func (m *Machine) EventConvert()          { m.send(evtConvert{}) }
func (m *Machine) EventComplete()         { m.send(evtComplete{}) }
func (m *Machine) EventFail(err error)    { m.send(evtFail{err: err}) }
func (m *Machine) Tick(now time.Time)     { m.send(evtTick{now: now}) }

// Err returns the failure that moved the session to StateFailed.
func (m *Machine) Err() error {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	return m.err
}

// Times returns the current recording stretch and the total recorded time
// without pauses.
func (m *Machine) Times() (session, total time.Duration) { return m.clock.values() }

// Close stops the event loop after pending events are applied.
func (m *Machine) Close() {
	m.sendMu.Lock()
	if m.closed {
		m.sendMu.Unlock()
		return
	}
	m.closed = true
	close(m.events)
	m.sendMu.Unlock()
	<-m.done
}
