package editor

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// NoticeTTL is how long a notice stays visible before expiring on its own.
const NoticeTTL = 5 * time.Second

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a dismissable, auto-expiring user-facing message.
type Notice struct {
	ID      string     `json:"id"`
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`

	expiresAt time.Time
}

// Board holds the active notices for one editing session.
type Board struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	notices []Notice
}

func NewBoard() *Board {
	return &Board{ttl: NoticeTTL, now: time.Now}
}

// Post adds a notice and returns it.
func (b *Board) Post(kind NoticeKind, message string) Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := Notice{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		expiresAt: b.now().Add(b.ttl),
	}
	b.notices = append(b.notices, n)
	return n
}

// Active returns the notices that have not expired or been dismissed,
// pruning the rest.
func (b *Board) Active() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	kept := b.notices[:0]
	for _, n := range b.notices {
		if n.expiresAt.After(now) {
			kept = append(kept, n)
		}
	}
	b.notices = kept
	out := make([]Notice, len(kept))
	copy(out, kept)
	return out
}

// Dismiss removes a notice before its expiry.
func (b *Board) Dismiss(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, n := range b.notices {
		if n.ID == id {
			b.notices = append(b.notices[:i], b.notices[i+1:]...)
			return
		}
	}
}
