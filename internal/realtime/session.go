package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/cuetube/cuetube/internal/dispatch"
	"github.com/cuetube/cuetube/internal/editor"
	"github.com/cuetube/cuetube/internal/hotcue"
	"github.com/cuetube/cuetube/internal/player"
	"github.com/cuetube/cuetube/internal/scrub"
)

// inbound is the envelope for every message the page shell forwards. Fields
// beyond Type are populated per message type.
type inbound struct {
	Type          string          `json:"type"`
	VideoID       string          `json:"videoId,omitempty"`
	YouTubeURL    string          `json:"youtubeUrl,omitempty"`
	Hotcues       json.RawMessage `json:"hotcues,omitempty"`
	Key           string          `json:"key,omitempty"`
	FromTextInput bool            `json:"fromTextInput,omitempty"`
	Action        string          `json:"action,omitempty"`
	Fraction      float64         `json:"fraction,omitempty"`
	Time          float64         `json:"time,omitempty"`
	Duration      float64         `json:"duration,omitempty"`
	State         int             `json:"state,omitempty"`
	Name          string          `json:"name,omitempty"`
	ID            string          `json:"id,omitempty"`
}

type seekMsg struct {
	Type string  `json:"type"`
	Time float64 `json:"time"`
}

type commandMsg struct {
	Type string `json:"type"`
}

type flashMsg struct {
	Type string `json:"type"`
	Key  string `json:"key"`
	On   bool   `json:"on"`
}

type dirtyMsg struct {
	Type  string `json:"type"`
	Dirty bool   `json:"dirty"`
}

type previewMsg struct {
	Type string  `json:"type"`
	Time float64 `json:"time"`
}

type noticeMsg struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type navigationMsg struct {
	Type    string `json:"type"`
	Allowed bool   `json:"allowed"`
	Message string `json:"message,omitempty"`
}

// session is the engine instance behind one websocket connection: player
// session tracking, the live hotcue store, keyboard dispatch, scrub gestures,
// and save coordination for the currently loaded video.
type session struct {
	username string
	saver    editor.Saver
	opts     player.Options
	send     func([]byte) bool

	mu         sync.Mutex
	loader     *remoteLoader
	adapter    *player.Adapter
	playSess   *player.Session
	store      *hotcue.Store
	dispatcher *dispatch.Dispatcher
	scrubber   *scrub.Controller
	coord      *editor.Coordinator
}

func newSession(username string, saver editor.Saver, opts player.Options, send func([]byte) bool) *session {
	s := &session{username: username, saver: saver, opts: opts, send: send}
	s.loader = &remoteLoader{sess: s}
	s.adapter = player.NewAdapter(s.loader, opts)
	return s
}

// handle processes one inbound frame. Called serially from the read pump.
func (s *session) handle(raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		slog.Debug("realtime: dropping unparseable frame", "user", s.username, "error", err)
		return
	}

	switch msg.Type {
	case "load":
		s.handleLoad(msg)
	case "ready":
		s.loader.setReady(msg.Duration)
	case "tick":
		s.loader.tick(msg.Time, msg.Duration, stateFromShell(msg.State))
	case "key":
		s.handleKey(msg)
	case "pointer":
		s.handlePointer(msg)
	case "label":
		s.handleLabel(msg)
	case "clear":
		s.handleClear(msg)
	case "save":
		s.handleSave()
	case "discard":
		s.handleDiscard()
	case "navigate":
		s.handleNavigate()
	case "dismiss":
		s.handleDismiss(msg.ID)
	default:
		slog.Debug("realtime: unknown frame type", "user", s.username, "type", msg.Type)
	}
}

// handleLoad switches the engine to a new video. The navigation guard runs
// first: with unsaved edits pending the switch is refused and the shell must
// save or discard before retrying.
func (s *session) handleLoad(msg inbound) {
	if msg.VideoID == "" {
		return
	}

	s.mu.Lock()
	coord := s.coord
	s.mu.Unlock()
	if coord != nil && coord.VideoID() != msg.VideoID {
		if err := coord.GuardNavigation(); err != nil {
			s.sendJSON(navigationMsg{Type: "navigation", Allowed: false,
				Message: "You have unsaved hotcue changes. Save or discard them first."})
			return
		}
	}

	store := hotcue.NewStore()
	playSess := s.adapter.Load(msg.VideoID)
	coord = editor.NewCoordinator(store, s.saver, msg.VideoID, msg.YouTubeURL, s.username)
	coord.LoadSaved(hotcue.Normalize(msg.Hotcues))

	s.mu.Lock()
	s.store = store
	s.playSess = playSess
	s.coord = coord
	s.dispatcher = dispatch.New(dispatch.Config{
		Store:  store,
		Player: playSess,
		Flash: func(key string, on bool) {
			s.sendJSON(flashMsg{Type: "flash", Key: key, On: on})
		},
	})
	s.scrubber = scrub.New(playSess)
	s.mu.Unlock()

	s.sendJSON(navigationMsg{Type: "navigation", Allowed: true})
	s.sendDirty()
}

func (s *session) handleKey(msg inbound) {
	s.mu.Lock()
	d := s.dispatcher
	s.mu.Unlock()
	if d == nil {
		return
	}
	if action := d.HandleKey(dispatch.KeyEvent{Key: msg.Key, FromTextInput: msg.FromTextInput}); action == dispatch.ActionSet {
		s.sendDirty()
	}
}

func (s *session) handlePointer(msg inbound) {
	s.mu.Lock()
	sc := s.scrubber
	s.mu.Unlock()
	if sc == nil {
		return
	}
	switch msg.Action {
	case "down":
		sc.PointerDown(msg.Fraction)
		s.sendPreview(sc)
	case "move":
		sc.PointerMove(msg.Fraction)
		s.sendPreview(sc)
	case "up":
		sc.PointerUp(msg.Fraction)
	case "click":
		sc.Click(msg.Fraction)
	}
}

func (s *session) sendPreview(sc *scrub.Controller) {
	if sc.Dragging() {
		s.sendJSON(previewMsg{Type: "preview", Time: sc.PreviewTime()})
	}
}

func (s *session) handleLabel(msg inbound) {
	s.mu.Lock()
	store := s.store
	s.mu.Unlock()
	if store == nil {
		return
	}
	if store.UpdateLabel(msg.Key, msg.Name) {
		s.sendDirty()
	}
}

func (s *session) handleClear(msg inbound) {
	s.mu.Lock()
	store := s.store
	s.mu.Unlock()
	if store == nil {
		return
	}
	store.Clear(msg.Key)
	s.sendDirty()
}

// handleSave runs the save off the read pump so a slow collaborator does not
// stall keystroke handling. The coordinator's latch refuses re-entry; a
// teardown mid-save does not cancel the request.
func (s *session) handleSave() {
	s.mu.Lock()
	coord := s.coord
	s.mu.Unlock()
	if coord == nil {
		return
	}
	go func() {
		err := coord.Save(context.Background())
		if errors.Is(err, editor.ErrSaveInFlight) {
			return
		}
		s.flushNotices(coord)
		s.sendDirty()
	}()
}

func (s *session) handleDiscard() {
	s.mu.Lock()
	coord := s.coord
	s.mu.Unlock()
	if coord == nil {
		return
	}
	coord.Discard()
	s.sendDirty()
}

func (s *session) handleNavigate() {
	s.mu.Lock()
	coord := s.coord
	s.mu.Unlock()
	if coord == nil {
		s.sendJSON(navigationMsg{Type: "navigation", Allowed: true})
		return
	}
	if err := coord.GuardNavigation(); err != nil {
		s.sendJSON(navigationMsg{Type: "navigation", Allowed: false,
			Message: "You have unsaved hotcue changes. Save or discard them first."})
		return
	}
	s.sendJSON(navigationMsg{Type: "navigation", Allowed: true})
}

func (s *session) handleDismiss(id string) {
	s.mu.Lock()
	coord := s.coord
	s.mu.Unlock()
	if coord == nil {
		return
	}
	coord.Notices().Dismiss(id)
}

func (s *session) sendDirty() {
	s.mu.Lock()
	coord := s.coord
	s.mu.Unlock()
	if coord == nil {
		return
	}
	s.sendJSON(dirtyMsg{Type: "dirty", Dirty: coord.HasUnsavedChanges()})
}

func (s *session) flushNotices(coord *editor.Coordinator) {
	for _, n := range coord.Notices().Active() {
		s.sendJSON(noticeMsg{Type: "notice", ID: n.ID, Kind: string(n.Kind), Message: n.Message})
	}
}

func (s *session) sendJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("realtime: encode outbound frame", "error", err)
		return
	}
	if !s.send(b) {
		slog.Warn("realtime: outbound buffer full, frame dropped", "user", s.username)
	}
}

// close tears the player session down. An in-flight save keeps running; it
// holds only its own references.
func (s *session) close() {
	s.adapter.Close()
}
