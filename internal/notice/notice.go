// Package notice holds the short messages shown to the operator after an
// action: informational signals and failures, some of which expire.
package notice

import (
	"sync"
	"time"
)

// Level classifies a notice.
type Level int

const (
	Info Level = iota
	Success
	Error
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Notice is one message. A zero TTL means it stays until replaced or
// dismissed.
type Notice struct {
	Level   Level
	Message string
	TTL     time.Duration
}

// Notifier receives notices.
type Notifier interface {
	Notify(n Notice)
}

// Func adapts a function to Notifier.
type Func func(Notice)

func (f Func) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Notifier = Func(func(Notice) {})

type posted struct {
	id      uint64
	notice  Notice
	expires time.Time
}

// Board keeps the notices currently on screen. It is safe for concurrent
// use.
type Board struct {
	mu      sync.RWMutex
	items   []posted
	nextID  uint64
	limit   int
	now     func() time.Time
	changed func()
}

// NewBoard returns a board holding at most limit notices; older ones are
// dropped first. onChange, if set, runs after every post.
func NewBoard(limit int, onChange func()) *Board {
	if limit <= 0 {
		limit = 3
	}
	return &Board{limit: limit, now: time.Now, changed: onChange}
}

// Notify posts n.
func (b *Board) Notify(n Notice) {
	b.mu.Lock()
	b.nextID++
	p := posted{id: b.nextID, notice: n}
	if n.TTL > 0 {
		p.expires = b.now().Add(n.TTL)
	}
	b.items = append(b.items, p)
	if len(b.items) > b.limit {
		b.items = b.items[len(b.items)-b.limit:]
	}
	changed := b.changed
	b.mu.Unlock()
	if changed != nil {
		changed()
	}
}

// Active returns unexpired notices, oldest first, and prunes the rest.
func (b *Board) Active() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	kept := b.items[:0]
	var out []Notice
	for _, p := range b.items {
		if !p.expires.IsZero() && !now.Before(p.expires) {
			continue
		}
		kept = append(kept, p)
		out = append(out, p.notice)
	}
	b.items = kept
	return out
}

// Dismiss clears every notice.
func (b *Board) Dismiss() {
	b.mu.Lock()
	b.items = nil
	b.mu.Unlock()
}
