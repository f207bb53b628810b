// Package player wraps an embedded video player behind a session with an
// identity-keyed lifecycle: one live session per video, polled position sync,
// and a bounded wait for the out-of-band player library to become ready.
package player

import "sync"

// State mirrors the playback states reported by the embedded player.
type State int

const (
	StateUnstarted State = iota
	StateEnded
	StatePlaying
	StatePaused
	StateBuffering
	StateCued
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateEnded:
		return "ended"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateCued:
		return "cued"
	}
	return "unknown"
}

// EmbeddedPlayer is the raw command and state surface of the underlying
// player instance. Calls may fail at any time (player destroyed, library
// mid-load); sessions treat every read as best-effort.
type EmbeddedPlayer interface {
	CurrentTime() (float64, error)
	Duration() (float64, error)
	State() (State, error)
	SeekTo(seconds float64) error
	Play() error
	Pause() error
	Destroy() error
}

// Loader reports readiness of the external player library and constructs
// player instances once it is. The library loads out-of-band, so Ready may
// stay false indefinitely.
type Loader interface {
	Ready() bool
	NewPlayer(videoID string) (EmbeddedPlayer, error)
}

// Adapter owns at most one live Session at a time. Switching video identity
// tears the previous session down before the new one begins.
type Adapter struct {
	loader Loader
	opts   Options

	mu      sync.Mutex
	session *Session
}

func NewAdapter(loader Loader, opts Options) *Adapter {
	return &Adapter{loader: loader, opts: opts.withDefaults()}
}

// Load tears down any existing session and starts a new one for videoID.
// Initialization proceeds in the background; the returned session may not be
// ready yet.
func (a *Adapter) Load(videoID string) *Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session != nil {
		a.session.Close()
	}
	a.session = NewSession(videoID, a.loader, a.opts)
	return a.session
}

// Session returns the current session, or nil if none has been loaded.
func (a *Adapter) Session() *Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// Close tears down the current session, if any. Safe to call repeatedly.
func (a *Adapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session != nil {
		a.session.Close()
		a.session = nil
	}
}
