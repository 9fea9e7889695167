package session

import "time"

// State enumerates the lifecycle of one recording session.
type State int32

const (
	StateIdle State = iota
	StatePreStart
	StateRecording
	StatePaused
	StateStopping
	StateConverting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreStart:
		return "prestart"
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	case StateStopping:
		return "stopping"
	case StateConverting:
		return "converting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// Listener is called on each successful state transition, on the machine
// goroutine.
type Listener func(prev, next State)

// Contract is what the recorder drives.
type Contract interface {
	AddListener(Listener)
	Current() State
	Err() error
	EventPrepare()
	EventStart()
	EventPause()
	EventResume()
	EventStop()
	EventConvert()
	EventComplete()
	EventFail(err error)
	Tick(now time.Time)
	Times() (session, total time.Duration)
	Close()
}
