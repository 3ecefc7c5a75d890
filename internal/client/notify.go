package client

import (
	"sync"
	"time"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
)

// NotificationTTL is how long a notification stays visible.
const NotificationTTL = 5 * time.Second

type Notification struct {
	ID        int64     `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Notifier holds transient notifications until they expire.
type Notifier struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	seq   int64
	items []Notification
}

func NewNotifier(ttl time.Duration) *Notifier {
	return &Notifier{ttl: ttl, now: time.Now}
}

func (n *Notifier) Push(kind Kind, message string) Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.seq++
	note := Notification{
		ID:        n.seq,
		Kind:      kind,
		Message:   message,
		ExpiresAt: n.now().Add(n.ttl),
	}
	n.items = append(n.items, note)
	return note
}

// Active drops expired notifications and returns the rest, oldest first.
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	kept := n.items[:0]
	for _, note := range n.items {
		if now.Before(note.ExpiresAt) {
			kept = append(kept, note)
		}
	}
	n.items = kept
	return append([]Notification(nil), kept...)
}
