package realtime

import (
	"sync"

	"github.com/cuetube/cuetube/internal/player"
)

// stateFromShell maps the playback state codes the embedded player reports
// (-1 unstarted, 0 ended, 1 playing, 2 paused, 3 buffering, 5 cued) onto the
// engine's state enum.
func stateFromShell(code int) player.State {
	switch code {
	case 0:
		return player.StateEnded
	case 1:
		return player.StatePlaying
	case 2:
		return player.StatePaused
	case 3:
		return player.StateBuffering
	case 5:
		return player.StateCued
	}
	return player.StateUnstarted
}

// remoteLoader is the connection's view of the page's player library. Ready
// flips once the shell reports the library loaded and stays set for the
// connection's lifetime; tick frames keep the position cache fresh.
type remoteLoader struct {
	sess *session

	mu    sync.Mutex
	ready bool
	pos   float64
	dur   float64
	state player.State
}

func (l *remoteLoader) setReady(duration float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ready = true
	if duration > 0 {
		l.dur = duration
	}
}

func (l *remoteLoader) tick(pos, dur float64, state player.State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pos = pos
	if dur > 0 {
		l.dur = dur
	}
	l.state = state
}

func (l *remoteLoader) Ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ready
}

func (l *remoteLoader) NewPlayer(videoID string) (player.EmbeddedPlayer, error) {
	return &remotePlayer{loader: l}, nil
}

// remotePlayer commands the embedded player over the websocket and answers
// state reads from the loader's tick cache. Commands update the cache
// optimistically; the next tick corrects any drift.
type remotePlayer struct {
	loader *remoteLoader
}

func (p *remotePlayer) CurrentTime() (float64, error) {
	p.loader.mu.Lock()
	defer p.loader.mu.Unlock()
	return p.loader.pos, nil
}

func (p *remotePlayer) Duration() (float64, error) {
	p.loader.mu.Lock()
	defer p.loader.mu.Unlock()
	return p.loader.dur, nil
}

func (p *remotePlayer) State() (player.State, error) {
	p.loader.mu.Lock()
	defer p.loader.mu.Unlock()
	return p.loader.state, nil
}

func (p *remotePlayer) SeekTo(seconds float64) error {
	p.loader.mu.Lock()
	p.loader.pos = seconds
	p.loader.mu.Unlock()
	p.loader.sess.sendJSON(seekMsg{Type: "seek", Time: seconds})
	return nil
}

func (p *remotePlayer) Play() error {
	p.loader.mu.Lock()
	p.loader.state = player.StatePlaying
	p.loader.mu.Unlock()
	p.loader.sess.sendJSON(commandMsg{Type: "play"})
	return nil
}

func (p *remotePlayer) Pause() error {
	p.loader.mu.Lock()
	p.loader.state = player.StatePaused
	p.loader.mu.Unlock()
	p.loader.sess.sendJSON(commandMsg{Type: "pause"})
	return nil
}

func (p *remotePlayer) Destroy() error {
	p.loader.sess.sendJSON(commandMsg{Type: "unload"})
	return nil
}
