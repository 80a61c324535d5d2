package blockdates

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/velourdrapes/backoffice/internal/api"
	"github.com/velourdrapes/backoffice/internal/mutation"
	"github.com/velourdrapes/backoffice/internal/notice"
	"github.com/velourdrapes/backoffice/internal/state"
)

// Key is the cache key of the blocked set.
var Key = state.Key{"blockedDates"}

// FailureNoticeTTL is how long calendar failure and info notices stay on
// screen.
const FailureNoticeTTL = 5 * time.Second

// AlreadyBlockedMessage is posted when a toggle unblocks a blocked day.
const AlreadyBlockedMessage = "This date is already blocked. Unblocking now."

// Manager owns the blocked set.
type Manager struct {
	remote api.Remote
	cache  state.Querier
	coord  *mutation.Coordinator
	notify notice.Notifier
	logger *zap.Logger
}

// Option customizes a Manager.
type Option func(*Manager)

// WithNotifier routes informational and failure notices.
func WithNotifier(n notice.Notifier) Option {
	return func(m *Manager) {
		if n != nil {
			m.notify = n
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager wires a manager.
func NewManager(remote api.Remote, cache state.Querier, coord *mutation.Coordinator, opts ...Option) *Manager {
	m := &Manager{
		remote: remote,
		cache:  cache,
		coord:  coord,
		notify: notice.Discard,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dates returns the cached set without fetching.
func (m *Manager) Dates() (Set, bool) {
	return state.Value[Set](m.cache, Key)
}

// Load returns the set, fetching it if the cache has nothing fresh.
func (m *Manager) Load(ctx context.Context) (Set, error) {
	return state.FetchAs(ctx, m.cache, Key, func(ctx context.Context) (Set, error) {
		values, err := m.remote.GetBlockedDates(ctx)
		if err != nil {
			return Set{}, err
		}
		set, perr := ParseSet(values)
		if perr != nil {
			m.logger.Warn("skipped unparseable blocked date", zap.Error(perr))
		}
		return set, nil
	})
}

// Refresh discards the cached set and loads it again.
func (m *Manager) Refresh(ctx context.Context) (Set, error) {
	m.cache.Invalidate(Key)
	return m.Load(ctx)
}

// SetAll replaces the whole set. The new set shows at once and the previous
// one comes back if the server rejects it.
func (m *Manager) SetAll(ctx context.Context, next Set) error {
	spec := mutation.Spec[Set, struct{}]{
		Name: "set blocked dates",
		Keys: []state.Key{Key},
		Optimistic: func(_ state.Key, _ any, _ bool, next Set) (any, bool) {
			return next, true
		},
		Invoke: func(ctx context.Context, next Set) (struct{}, error) {
			return struct{}{}, m.remote.SetBlockedDates(ctx, next.Strings())
		},
		Settle: []state.Key{Key},
	}
	if _, err := mutation.Run(ctx, m.coord, spec, next); err != nil {
		m.notify.Notify(notice.Notice{
			Level:   notice.Error,
			Message: api.MessageOf(err),
			TTL:     FailureNoticeTTL,
		})
		return err
	}
	return nil
}

// Add blocks the day of t. It is a no-op when the day is already blocked.
func (m *Manager) Add(ctx context.Context, t time.Time) error {
	current, err := m.current(ctx)
	if err != nil {
		return err
	}
	day := DayOf(t)
	if current.Contains(day) {
		return nil
	}
	return m.SetAll(ctx, current.With(day))
}

// Remove unblocks the day of t.
func (m *Manager) Remove(ctx context.Context, t time.Time) error {
	current, err := m.current(ctx)
	if err != nil {
		return err
	}
	return m.SetAll(ctx, current.Without(DayOf(t)))
}

// Toggle unblocks a blocked day, posting AlreadyBlockedMessage first, and
// blocks an open one. It reports whether the day ends up blocked.
func (m *Manager) Toggle(ctx context.Context, t time.Time) (bool, error) {
	current, err := m.current(ctx)
	if err != nil {
		return false, err
	}
	day := DayOf(t)
	if current.Contains(day) {
		m.notify.Notify(notice.Notice{Level: notice.Info, Message: AlreadyBlockedMessage, TTL: FailureNoticeTTL})
		if err := m.SetAll(ctx, current.Without(day)); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := m.SetAll(ctx, current.With(day)); err != nil {
		return false, err
	}
	return true, nil
}

// current prefers the cached set, stale or not, like the calendar on
// screen; it only fetches when nothing has been loaded yet.
func (m *Manager) current(ctx context.Context) (Set, error) {
	if set, ok := m.Dates(); ok {
		return set, nil
	}
	return m.Load(ctx)
}
