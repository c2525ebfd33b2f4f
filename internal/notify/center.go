// Package notify holds in-flight user notifications and expires the
// transient ones after their display duration.
package notify

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/access2chakri-ai/docushield-sub000/internal/core/domain"
	"github.com/access2chakri-ai/docushield-sub000/internal/observability/metrics"
)

const service = "docushield-client"

type entry struct {
	notification domain.Notification
	timer        *time.Timer
}

// Center is the single sink for notifications. Transient entries
// dismiss themselves after their duration; persistent ones stay until
// dismissed explicitly.
type Center struct {
	logger          *slog.Logger
	metrics         *metrics.ClientMetrics
	defaultDuration time.Duration

	mu        sync.Mutex
	active    map[string]*entry
	listeners []func(domain.Notification)
	closed    bool
}

func NewCenter(logger *slog.Logger, m *metrics.ClientMetrics, defaultDuration time.Duration) *Center {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultDuration <= 0 {
		defaultDuration = 5 * time.Second
	}
	return &Center{
		logger:          logger,
		metrics:         m,
		defaultDuration: defaultDuration,
		active:          make(map[string]*entry),
	}
}

// Push stores a notification and returns its id. Missing fields get
// defaults: a generated id, an info kind, and the center's display
// duration for transient entries.
func (c *Center) Push(n domain.Notification) string {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Kind == "" {
		n.Kind = domain.NotifyInfo
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if !n.Persistent && n.Duration <= 0 {
		n.Duration = c.defaultDuration
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return n.ID
	}

	e := &entry{notification: n}
	if !n.Persistent {
		id := n.ID
		e.timer = time.AfterFunc(n.Duration, func() { c.Dismiss(id) })
	}
	c.active[n.ID] = e
	listeners := make([]func(domain.Notification), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	c.metrics.RecordNotification(service, string(n.Kind))
	c.logger.Debug("notification_pushed",
		"notification_id", n.ID,
		"kind", string(n.Kind),
		"category", n.Category,
		"title", n.Title,
	)

	for _, listener := range listeners {
		listener(n)
	}
	return n.ID
}

// Dismiss removes a notification. Dismissing an unknown or already
// expired id is a no-op, so the auto-expiry timer and a manual dismiss
// cannot conflict.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.active[id]
	if !ok {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(c.active, id)
}

// DismissAll clears every active notification.
func (c *Center) DismissAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, e := range c.active {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(c.active, id)
	}
}

// Active returns the live notifications, oldest first.
func (c *Center) Active() []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.Notification, 0, len(c.active))
	for _, e := range c.active {
		out = append(out, e.notification)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// OnPush registers a callback invoked for every pushed notification.
// Callbacks run on the pusher's goroutine and must not block.
func (c *Center) OnPush(fn func(domain.Notification)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Close stops the expiry timers and rejects further pushes.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	for id, e := range c.active {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(c.active, id)
	}
}
