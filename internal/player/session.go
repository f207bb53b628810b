package player

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrNotReady is returned by commands issued before the session finished
// initializing (or after the readiness wait expired).
var ErrNotReady = errors.New("player session not ready")

// Options bound the readiness wait and set the position sync cadence.
type Options struct {
	// ReadyTimeout is how long to wait for the external player library
	// before abandoning initialization. The session then stays not-ready;
	// no error is surfaced.
	ReadyTimeout time.Duration
	// ReadyPollInterval is the cadence of readiness checks during the wait.
	ReadyPollInterval time.Duration
	// SyncInterval is the position/duration polling cadence once ready.
	// 100ms keeps cue capture close to what the user heard.
	SyncInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = 10 * time.Second
	}
	if o.ReadyPollInterval <= 0 {
		o.ReadyPollInterval = 100 * time.Millisecond
	}
	if o.SyncInterval <= 0 {
		o.SyncInterval = 100 * time.Millisecond
	}
	return o
}

// Session is the live handle to one embedded player instance, scoped to a
// single video identity. Position and duration are polled in the background;
// reads return the last good value and never fail.
type Session struct {
	videoID string
	loader  Loader
	opts    Options

	mu       sync.Mutex
	player   EmbeddedPlayer
	ready    bool
	position float64
	duration float64
	state    State

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// NewSession starts initializing a session for videoID. Construction returns
// immediately; the readiness wait and position sync run in the background.
func NewSession(videoID string, loader Loader, opts Options) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		videoID: videoID,
		loader:  loader,
		opts:    opts.withDefaults(),
		state:   StateUnstarted,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

func (s *Session) VideoID() string { return s.videoID }

func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	if !s.awaitLoader(ctx) {
		return
	}

	p, err := s.loader.NewPlayer(s.videoID)
	if err != nil {
		slog.Debug("player: construction failed, session stays not-ready",
			"video_id", s.videoID, "error", err)
		return
	}

	s.mu.Lock()
	s.player = p
	s.ready = true
	s.mu.Unlock()

	ticker := time.NewTicker(s.opts.SyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sync()
		}
	}
}

// awaitLoader polls the loader until it reports ready, the bounded wait
// expires, or the session is closed.
func (s *Session) awaitLoader(ctx context.Context) bool {
	if s.loader.Ready() {
		return true
	}
	deadline := time.NewTimer(s.opts.ReadyTimeout)
	defer deadline.Stop()
	poll := time.NewTicker(s.opts.ReadyPollInterval)
	defer poll.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			slog.Debug("player: readiness wait expired", "video_id", s.videoID)
			return false
		case <-poll.C:
			if s.loader.Ready() {
				return true
			}
		}
	}
}

// sync refreshes position, duration, and playback state. Every read is
// best-effort: a failing call leaves the last good value in place.
func (s *Session) sync() {
	s.mu.Lock()
	p := s.player
	s.mu.Unlock()
	if p == nil {
		return
	}

	pos, posErr := p.CurrentTime()
	dur, durErr := p.Duration()
	st, stErr := p.State()

	s.mu.Lock()
	defer s.mu.Unlock()
	if posErr == nil {
		s.position = pos
	}
	if durErr == nil {
		s.duration = dur
	}
	if stErr == nil {
		s.state = st
	}
}

// Ready reports whether the session finished initializing and is live.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// CurrentTime returns the last polled playback position in seconds.
func (s *Session) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Duration returns the last polled duration, or 0 if unknown.
func (s *Session) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Playing reports whether playback is currently running.
func (s *Session) Playing() bool {
	return s.State() == StatePlaying
}

func (s *Session) Seek(seconds float64) error {
	p, err := s.livePlayer()
	if err != nil {
		return err
	}
	return p.SeekTo(seconds)
}

func (s *Session) Play() error {
	p, err := s.livePlayer()
	if err != nil {
		return err
	}
	return p.Play()
}

func (s *Session) Pause() error {
	p, err := s.livePlayer()
	if err != nil {
		return err
	}
	return p.Pause()
}

func (s *Session) livePlayer() (EmbeddedPlayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready || s.player == nil {
		return nil, ErrNotReady
	}
	return s.player, nil
}

// Close stops the sync loop and destroys the underlying player. Idempotent;
// teardown errors are swallowed. Close returns only after the background
// loop has exited, so a successor session never overlaps this one.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done

		s.mu.Lock()
		p := s.player
		s.player = nil
		s.ready = false
		s.mu.Unlock()

		if p != nil {
			if err := p.Destroy(); err != nil {
				slog.Debug("player: destroy failed during teardown",
					"video_id", s.videoID, "error", err)
			}
		}
	})
}
