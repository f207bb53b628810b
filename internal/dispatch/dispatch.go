// Package dispatch turns raw keystrokes into hotcue set/jump actions and
// play/pause toggles against the live store and player session.
package dispatch

import (
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/cuetube/cuetube/internal/hotcue"
)

// FlashDuration is how long the transient "triggered" signal stays lit after
// a set or jump before it is cleared.
const FlashDuration = 250 * time.Millisecond

// Player is the slice of the player session the dispatcher needs.
type Player interface {
	Ready() bool
	CurrentTime() float64
	Playing() bool
	Seek(seconds float64) error
	Play() error
	Pause() error
}

// Action classifies what a keystroke did.
type Action int

const (
	ActionIgnored Action = iota
	ActionSet
	ActionJump
	ActionToggle
)

func (a Action) String() string {
	switch a {
	case ActionSet:
		return "set"
	case ActionJump:
		return "jump"
	case ActionToggle:
		return "toggle"
	}
	return "ignored"
}

// KeyEvent is one keystroke as reported by the page shell. Key is the
// lowercased key value; space is " ". FromTextInput marks events whose focus
// target was a text-input-like element.
type KeyEvent struct {
	Key           string
	FromTextInput bool
}

// Config wires a dispatcher to its collaborators. Flash, if set, receives
// the transient trigger signal: on=true at the keystroke, on=false after
// FlashDuration (or Config.FlashDuration when overridden).
type Config struct {
	Store         *hotcue.Store
	Player        Player
	Flash         func(key string, on bool)
	FlashDuration time.Duration
}

type Dispatcher struct {
	store         *hotcue.Store
	player        Player
	flash         func(key string, on bool)
	flashDuration time.Duration
}

func New(cfg Config) *Dispatcher {
	d := &Dispatcher{
		store:         cfg.Store,
		player:        cfg.Player,
		flash:         cfg.Flash,
		flashDuration: cfg.FlashDuration,
	}
	if d.flashDuration <= 0 {
		d.flashDuration = FlashDuration
	}
	return d
}

// HandleKey classifies and executes one keystroke. Set vs jump is decided by
// store presence at this exact event; there is no debounce. HandleKey never
// panics out: the page's global key handling must survive anything the
// player throws at us.
func (d *Dispatcher) HandleKey(ev KeyEvent) (action Action) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("dispatch: key handler panic", "key", ev.Key, "panic", r)
			action = ActionIgnored
		}
	}()

	if ev.FromTextInput {
		return ActionIgnored
	}

	key := strings.ToLower(ev.Key)
	if len(key) == 1 && hotcue.IsCueKey(rune(key[0])) && d.player.Ready() {
		if cue, ok := d.store.Get(key); ok {
			return d.jump(key, cue)
		}
		return d.set(key)
	}

	if key == " " && d.player.Ready() {
		return d.toggle()
	}

	return ActionIgnored
}

func (d *Dispatcher) jump(key string, cue hotcue.Cue) Action {
	if err := d.player.Seek(cue.Time); err != nil {
		slog.Warn("dispatch: jump seek failed", "key", key, "time", cue.Time, "error", err)
		return ActionIgnored
	}
	if err := d.player.Play(); err != nil {
		slog.Warn("dispatch: jump play failed", "key", key, "error", err)
	}
	d.flashKey(key)
	return ActionJump
}

func (d *Dispatcher) set(key string) Action {
	t := d.player.CurrentTime()
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		slog.Warn("dispatch: unusable current time, cue not set", "key", key, "time", t)
		return ActionIgnored
	}
	d.store.Set(key, t, "")
	d.flashKey(key)
	return ActionSet
}

func (d *Dispatcher) toggle() Action {
	var err error
	if d.player.Playing() {
		err = d.player.Pause()
	} else {
		err = d.player.Play()
	}
	if err != nil {
		slog.Warn("dispatch: play/pause toggle failed", "error", err)
		return ActionIgnored
	}
	return ActionToggle
}

func (d *Dispatcher) flashKey(key string) {
	if d.flash == nil {
		return
	}
	d.flash(key, true)
	time.AfterFunc(d.flashDuration, func() { d.flash(key, false) })
}
