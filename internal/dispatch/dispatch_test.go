package dispatch

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuetube/cuetube/internal/hotcue"
)

type stubPlayer struct {
	ready       bool
	currentTime float64
	playing     bool
	seeks       []float64
	plays       int
	pauses      int
	panicOnSeek bool
}

func (p *stubPlayer) Ready() bool          { return p.ready }
func (p *stubPlayer) CurrentTime() float64 { return p.currentTime }
func (p *stubPlayer) Playing() bool        { return p.playing }

func (p *stubPlayer) Seek(seconds float64) error {
	if p.panicOnSeek {
		panic("player destroyed")
	}
	p.seeks = append(p.seeks, seconds)
	return nil
}

func (p *stubPlayer) Play() error  { p.plays++; return nil }
func (p *stubPlayer) Pause() error { p.pauses++; return nil }

func TestHandleKey_SetOnUnboundKey(t *testing.T) {
	store := hotcue.NewStore()
	p := &stubPlayer{ready: true, currentTime: 7.25}
	d := New(Config{Store: store, Player: p})

	action := d.HandleKey(KeyEvent{Key: "w"})

	assert.Equal(t, ActionSet, action)
	cue, ok := store.Get("w")
	require.True(t, ok)
	assert.Equal(t, hotcue.Cue{Time: 7.25}, cue)
	assert.Empty(t, p.seeks)
	assert.Zero(t, p.plays)
}

func TestHandleKey_JumpOnBoundKey(t *testing.T) {
	store := hotcue.NewStore()
	store.Set("q", 12.5, "")
	p := &stubPlayer{ready: true, currentTime: 99}
	d := New(Config{Store: store, Player: p})

	action := d.HandleKey(KeyEvent{Key: "q"})

	assert.Equal(t, ActionJump, action)
	assert.Equal(t, []float64{12.5}, p.seeks)
	assert.Equal(t, 1, p.plays)
	cue, _ := store.Get("q")
	assert.Equal(t, hotcue.Cue{Time: 12.5}, cue, "jump must not mutate the store")
}

func TestHandleKey_SetThenJumpSameKey(t *testing.T) {
	store := hotcue.NewStore()
	p := &stubPlayer{ready: true, currentTime: 3.5}
	d := New(Config{Store: store, Player: p})

	require.Equal(t, ActionSet, d.HandleKey(KeyEvent{Key: "a"}))

	p.currentTime = 88
	require.Equal(t, ActionJump, d.HandleKey(KeyEvent{Key: "a"}))
	assert.Equal(t, []float64{3.5}, p.seeks, "second press seeks to the originally set time")
}

func TestHandleKey_IgnoresTextInputFocus(t *testing.T) {
	store := hotcue.NewStore()
	p := &stubPlayer{ready: true, currentTime: 5}
	d := New(Config{Store: store, Player: p})

	assert.Equal(t, ActionIgnored, d.HandleKey(KeyEvent{Key: "q", FromTextInput: true}))
	assert.Zero(t, store.Len())
	assert.Empty(t, p.seeks)
}

func TestHandleKey_IgnoredWhenPlayerNotReady(t *testing.T) {
	store := hotcue.NewStore()
	d := New(Config{Store: store, Player: &stubPlayer{ready: false}})

	assert.Equal(t, ActionIgnored, d.HandleKey(KeyEvent{Key: "q"}))
	assert.Equal(t, ActionIgnored, d.HandleKey(KeyEvent{Key: " "}))
	assert.Zero(t, store.Len())
}

func TestHandleKey_SpaceToggles(t *testing.T) {
	store := hotcue.NewStore()
	p := &stubPlayer{ready: true, playing: true}
	d := New(Config{Store: store, Player: p})

	assert.Equal(t, ActionToggle, d.HandleKey(KeyEvent{Key: " "}))
	assert.Equal(t, 1, p.pauses)

	p.playing = false
	assert.Equal(t, ActionToggle, d.HandleKey(KeyEvent{Key: " "}))
	assert.Equal(t, 1, p.plays)
}

func TestHandleKey_NonAlphabetKeysIgnored(t *testing.T) {
	store := hotcue.NewStore()
	p := &stubPlayer{ready: true, currentTime: 5}
	d := New(Config{Store: store, Player: p})

	for _, key := range []string{"1", "!", "Enter", "Escape", "ArrowLeft", ""} {
		assert.Equal(t, ActionIgnored, d.HandleKey(KeyEvent{Key: key}), "key %q", key)
	}
	assert.Zero(t, store.Len())
}

func TestHandleKey_UppercaseLowered(t *testing.T) {
	store := hotcue.NewStore()
	p := &stubPlayer{ready: true, currentTime: 2.5}
	d := New(Config{Store: store, Player: p})

	assert.Equal(t, ActionSet, d.HandleKey(KeyEvent{Key: "Q"}))
	_, ok := store.Get("q")
	assert.True(t, ok)
}

func TestHandleKey_UnusableCurrentTime(t *testing.T) {
	store := hotcue.NewStore()
	p := &stubPlayer{ready: true, currentTime: math.NaN()}
	d := New(Config{Store: store, Player: p})

	assert.Equal(t, ActionIgnored, d.HandleKey(KeyEvent{Key: "q"}))
	assert.Zero(t, store.Len())
}

func TestHandleKey_PlayerPanicDoesNotEscape(t *testing.T) {
	store := hotcue.NewStore()
	store.Set("q", 1, "")
	p := &stubPlayer{ready: true, panicOnSeek: true}
	d := New(Config{Store: store, Player: p})

	assert.NotPanics(t, func() {
		assert.Equal(t, ActionIgnored, d.HandleKey(KeyEvent{Key: "q"}))
	})
}

func TestHandleKey_FlashSignalClearsAfterDuration(t *testing.T) {
	store := hotcue.NewStore()
	p := &stubPlayer{ready: true, currentTime: 1}

	var mu sync.Mutex
	var events []string
	d := New(Config{
		Store:  store,
		Player: p,
		Flash: func(key string, on bool) {
			mu.Lock()
			defer mu.Unlock()
			if on {
				events = append(events, key+":on")
			} else {
				events = append(events, key+":off")
			}
		},
		FlashDuration: 10 * time.Millisecond,
	})

	d.HandleKey(KeyEvent{Key: "q"})

	mu.Lock()
	assert.Equal(t, []string{"q:on"}, events)
	mu.Unlock()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 2 && events[1] == "q:off"
	}, time.Second, 2*time.Millisecond)
}

func TestHandleKey_RapidRepeatsLastWriteWins(t *testing.T) {
	store := hotcue.NewStore()
	p := &stubPlayer{ready: true, currentTime: 1}
	d := New(Config{Store: store, Player: p})

	// Each press re-evaluates against the live store: the first press sets,
	// the rest jump to that time regardless of the playhead moving on.
	d.HandleKey(KeyEvent{Key: "z"})
	p.currentTime = 2
	d.HandleKey(KeyEvent{Key: "z"})
	p.currentTime = 3
	d.HandleKey(KeyEvent{Key: "z"})

	cue, _ := store.Get("z")
	assert.Equal(t, hotcue.Cue{Time: 1}, cue)
	assert.Equal(t, []float64{1, 1}, p.seeks)
}
