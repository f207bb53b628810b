// Package scrub translates pointer gestures over the progress track into
// seek commands: a drag previews while moving and seeks once on release, a
// plain click seeks once immediately. One interaction never seeks twice.
package scrub

import (
	"log/slog"
	"sync"
)

// Player is the slice of the player session the controller needs.
type Player interface {
	Ready() bool
	Duration() float64
	Seek(seconds float64) error
}

// Controller is the idle → dragging → idle state machine for the track.
// Fractions are pointer positions relative to track width and are clamped
// to [0,1] before use.
type Controller struct {
	player Player

	mu            sync.Mutex
	dragging      bool
	preview       float64
	suppressClick bool
}

func New(player Player) *Controller {
	return &Controller{player: player}
}

// PointerDown begins a drag at the given track fraction. No seek is issued;
// the preview time starts tracking the pointer. No-op while the player is
// not ready or the duration is unknown.
func (c *Controller) PointerDown(fraction float64) {
	duration, ok := c.usableDuration()
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dragging = true
	c.preview = clamp(fraction) * duration
}

// PointerMove updates the preview time while dragging. Outside a drag it
// does nothing.
func (c *Controller) PointerMove(fraction float64) {
	duration, ok := c.usableDuration()
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dragging {
		return
	}
	c.preview = clamp(fraction) * duration
}

// PointerUp ends the drag and issues exactly one seek to the release
// position. The click event the browser fires for the same interaction is
// suppressed so the gesture cannot seek twice.
func (c *Controller) PointerUp(fraction float64) {
	c.mu.Lock()
	if !c.dragging {
		c.mu.Unlock()
		return
	}
	c.dragging = false
	c.suppressClick = true
	duration, ok := c.usableDurationLocked()
	if !ok {
		c.mu.Unlock()
		return
	}
	target := clamp(fraction) * duration
	c.preview = target
	c.mu.Unlock()

	c.seek(target)
}

// Click seeks to the clicked fraction, unless this click trails a drag that
// already seeked on release.
func (c *Controller) Click(fraction float64) {
	c.mu.Lock()
	if c.suppressClick {
		c.suppressClick = false
		c.mu.Unlock()
		return
	}
	duration, ok := c.usableDurationLocked()
	if !ok {
		c.mu.Unlock()
		return
	}
	target := clamp(fraction) * duration
	c.mu.Unlock()

	c.seek(target)
}

// Dragging reports whether a drag is in progress.
func (c *Controller) Dragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging
}

// PreviewTime returns the live preview position for rendering during a drag.
func (c *Controller) PreviewTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preview
}

func (c *Controller) usableDuration() (float64, bool) {
	if !c.player.Ready() {
		return 0, false
	}
	duration := c.player.Duration()
	if duration <= 0 {
		return 0, false
	}
	return duration, true
}

// usableDurationLocked exists because Player reads don't need c.mu but
// callers holding it still want the same check.
func (c *Controller) usableDurationLocked() (float64, bool) {
	return c.usableDuration()
}

func (c *Controller) seek(target float64) {
	if err := c.player.Seek(target); err != nil {
		slog.Warn("scrub: seek failed", "target", target, "error", err)
	}
}

func clamp(fraction float64) float64 {
	if fraction < 0 {
		return 0
	}
	if fraction > 1 {
		return 1
	}
	return fraction
}
