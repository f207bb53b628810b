// Package editor coordinates the live hotcue set against its last-saved
// snapshot: dirty detection, persistence, discard, and the navigation guard
// that keeps unsaved edits from being dropped silently.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cuetube/cuetube/internal/api"
	"github.com/cuetube/cuetube/internal/hotcue"
)

var (
	// ErrSaveInFlight is returned when a save is attempted while one is
	// already running.
	ErrSaveInFlight = errors.New("save already in progress")

	// ErrUnsavedChanges blocks destructive navigation until the caller
	// resolves the dirty state via Save or Discard.
	ErrUnsavedChanges = errors.New("unsaved hotcue changes")
)

// Saver persists a video's hotcue set. *api.Client satisfies it.
type Saver interface {
	SaveVideo(ctx context.Context, req api.SaveRequest) error
}

// Coordinator owns the saved snapshot for one video's editing session. The
// snapshot is only ever replaced here: on initial load and after a
// successful save.
type Coordinator struct {
	store    *hotcue.Store
	saver    Saver
	videoID  string
	videoURL string
	username string

	mu       sync.Mutex
	snapshot hotcue.Set
	saving   bool

	notices *Board
}

func NewCoordinator(store *hotcue.Store, saver Saver, videoID, videoURL, username string) *Coordinator {
	return &Coordinator{
		store:    store,
		saver:    saver,
		videoID:  videoID,
		videoURL: videoURL,
		username: username,
		snapshot: hotcue.Set{},
		notices:  NewBoard(),
	}
}

func (c *Coordinator) VideoID() string { return c.videoID }

// Notices exposes the session's notice board.
func (c *Coordinator) Notices() *Board { return c.notices }

// LoadSaved installs the set loaded from the persistence collaborator as
// both the live set and the saved snapshot.
func (c *Coordinator) LoadSaved(set hotcue.Set) {
	c.store.Replace(set)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = set.Clone()
}

// HasUnsavedChanges reports whether the live set differs from the saved
// snapshot in key set, any time, or any label. Exact equality, no epsilon.
func (c *Coordinator) HasUnsavedChanges() bool {
	live := c.store.All()
	c.mu.Lock()
	defer c.mu.Unlock()
	return !live.Equal(c.snapshot)
}

// Saving reports whether a save is in flight.
func (c *Coordinator) Saving() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saving
}

// Save submits the full current set. On success the snapshot is replaced
// with a deep copy of what was submitted; on failure it is left untouched,
// so the dirty state stays true. Re-entrant saves are refused while one is
// in flight.
func (c *Coordinator) Save(ctx context.Context) error {
	c.mu.Lock()
	if c.saving {
		c.mu.Unlock()
		return ErrSaveInFlight
	}
	c.saving = true
	c.mu.Unlock()

	submitted := c.store.All()
	err := c.saver.SaveVideo(ctx, api.SaveRequest{
		YouTubeURL: c.videoURL,
		VideoID:    c.videoID,
		Hotcues:    submitted,
		Username:   c.username,
	})

	c.mu.Lock()
	c.saving = false
	if err != nil {
		c.mu.Unlock()
		c.notices.Post(NoticeError, saveFailureMessage(err))
		return err
	}
	c.snapshot = submitted.Clone()
	c.mu.Unlock()

	c.notices.Post(NoticeSuccess, "Hotcues saved")
	return nil
}

// Discard resets the live set back to the saved snapshot, dropping unsaved
// edits.
func (c *Coordinator) Discard() {
	c.mu.Lock()
	snapshot := c.snapshot.Clone()
	c.mu.Unlock()
	c.store.Replace(snapshot)
}

// GuardNavigation is called by the hosting shell before switching videos or
// leaving the page. It returns ErrUnsavedChanges while edits are pending;
// the caller must then offer save-then-proceed or discard-then-proceed.
func (c *Coordinator) GuardNavigation() error {
	if c.HasUnsavedChanges() {
		return ErrUnsavedChanges
	}
	return nil
}

func saveFailureMessage(err error) string {
	switch {
	case errors.Is(err, api.ErrUnreachable):
		return "Could not reach the server. Check your connection and try again."
	case errors.Is(err, api.ErrTimeout):
		return "Saving timed out. Try again."
	}
	var verr *api.ValidationError
	if errors.As(err, &verr) {
		return fmt.Sprintf("Save rejected: %s", verr.Error())
	}
	return fmt.Sprintf("Saving failed: %v", err)
}
