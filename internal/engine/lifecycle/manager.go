// internal/engine/lifecycle/manager.go
package lifecycle

import (
	"context"
	"sort"
	"sync"
	"time"

	"proactive-notify/internal/common/logger"
	"proactive-notify/internal/common/metrics"
	"proactive-notify/internal/models"
)

// DeliverySink is where due notifications are dispatched. Implementations
// live in internal/delivery; delivery is fire-and-forget and a failing sink
// never affects manager state.
type DeliverySink interface {
	Name() string
	Deliver(ctx context.Context, n *models.Notification) error
}

// ActionFunc receives action tokens the manager does not handle internally
// (everything except snooze and dismiss), together with the notification's
// typed detail payload.
type ActionFunc func(token string, detail models.Detail)

// entry pairs a live notification with its insertion sequence, which breaks
// priority ties in ListActive.
type entry struct {
	notification *models.Notification
	seq          int
}

// Manager owns the live notification set and the armed timers. It is an
// explicitly constructed instance: hosts build one, hold it for the process
// lifetime, and pass it by reference. All state is guarded by an internal
// mutex because timer callbacks run on their own goroutines.
type Manager struct {
	mu     sync.Mutex
	live   map[string]*entry
	timers map[string]*time.Timer
	seq    int

	sink     DeliverySink
	onAction ActionFunc
	clock    func() time.Time
	logger   logger.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the wall clock, for tests.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithActionFunc installs the callback for externally handled action tokens.
func WithActionFunc(fn ActionFunc) Option {
	return func(m *Manager) { m.onAction = fn }
}

func NewManager(sink DeliverySink, log logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		live:   make(map[string]*entry),
		timers: make(map[string]*time.Timer),
		sink:   sink,
		clock:  time.Now,
		logger: log.WithFields(map[string]interface{}{"component": "lifecycle"}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Ingest inserts a notification into the live set. Insertion is idempotent:
// an ID already present is a no-op, which is how re-synthesis of an
// unchanged cause deduplicates. A future ScheduledFor arms a timer; a
// missing or past one dispatches immediately.
func (m *Manager) Ingest(n models.Notification) {
	m.mu.Lock()

	if _, exists := m.live[n.ID]; exists {
		m.mu.Unlock()
		return
	}

	now := m.clock()
	if n.Expired(now) {
		m.mu.Unlock()
		return
	}

	stored := n
	m.seq++
	m.live[n.ID] = &entry{notification: &stored, seq: m.seq}

	delay := stored.DueAt(now).Sub(now)
	if delay > 0 {
		m.armLocked(stored.ID, delay)
		m.mu.Unlock()
		return
	}

	due := stored
	m.mu.Unlock()
	m.dispatch(&due)
}

// armLocked arms the dispatch timer for id. Caller holds the lock.
func (m *Manager) armLocked(id string, delay time.Duration) {
	m.timers[id] = time.AfterFunc(delay, func() { m.fire(id) })
	metrics.TimersArmed.Inc()
	m.logger.Debug("timer armed", map[string]interface{}{
		"notificationId": id,
		"delay":          delay.String(),
	})
}

// fire runs on the timer goroutine. The timer-map check under the lock is
// what makes cancellation race-free: Cancel removes the entry before the
// lock is released, so a timer that fires afterwards finds nothing and
// returns without dispatching.
func (m *Manager) fire(id string) {
	m.mu.Lock()
	if _, armed := m.timers[id]; !armed {
		m.mu.Unlock()
		return
	}
	delete(m.timers, id)
	metrics.TimersArmed.Dec()

	ent, ok := m.live[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	n := *ent.notification
	m.mu.Unlock()

	m.dispatch(&n)
}

// dispatch hands a due notification to the sink. Callers pass a copy taken
// under the lock; the sink never holds a pointer into the live set, so
// MarkRead and snooze can mutate the stored struct while a delivery is in
// flight. Failures are logged and swallowed; there is no retry and no
// state rollback.
func (m *Manager) dispatch(n *models.Notification) {
	if m.sink == nil {
		return
	}
	if err := m.sink.Deliver(context.Background(), n); err != nil {
		metrics.DeliveryFailures.WithLabelValues(m.sink.Name()).Inc()
		m.logger.WithError(err).Error("delivery failed", map[string]interface{}{
			"notificationId": n.ID,
			"sink":           m.sink.Name(),
		})
		return
	}
	metrics.NotificationsDelivered.WithLabelValues(string(n.Type)).Inc()
}

// Cancel clears any armed timer and removes the notification. Timer
// invalidation and removal happen under one lock acquisition, so from the
// caller's perspective cancellation is atomic. Cancelling an absent ID is a
// no-op.
func (m *Manager) Cancel(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelLocked(id)
}

func (m *Manager) cancelLocked(id string) {
	if t, ok := m.timers[id]; ok {
		t.Stop()
		delete(m.timers, id)
		metrics.TimersArmed.Dec()
	}
	delete(m.live, id)
}

// MarkRead flags a notification as acknowledged. Unlike Cancel it keeps the
// notification in the live set for UI display.
func (m *Manager) MarkRead(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markReadLocked(id)
}

func (m *Manager) markReadLocked(id string) {
	ent, ok := m.live[id]
	if !ok {
		return
	}
	readAt := m.clock()
	ent.notification.Read = true
	ent.notification.ReadAt = &readAt
}

// SweepExpired removes every notification whose expiry has passed. The
// caller drives the cadence; the manager schedules nothing beyond the
// per-notification timers.
func (m *Manager) SweepExpired(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, ent := range m.live {
		if ent.notification.Expired(now) {
			m.cancelLocked(id)
			removed++
			metrics.NotificationsExpired.Inc()
		}
	}
	if removed > 0 {
		m.logger.Info("expired notifications pruned", map[string]interface{}{
			"removed": removed,
		})
	}
	return removed
}

// ListActive returns the live set ordered by priority descending (urgent
// first), ties broken by insertion order.
func (m *Manager) ListActive() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]*entry, 0, len(m.live))
	for _, ent := range m.live {
		entries = append(entries, ent)
	}
	sort.Slice(entries, func(i, j int) bool {
		ri, rj := entries[i].notification.Priority.Rank(), entries[j].notification.Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return entries[i].seq < entries[j].seq
	})

	out := make([]models.Notification, 0, len(entries))
	for _, ent := range entries {
		out = append(out, *ent.notification)
	}
	return out
}

// Shutdown stops every armed timer. Pending notifications are not
// dispatched.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.timers {
		t.Stop()
		delete(m.timers, id)
		metrics.TimersArmed.Dec()
	}
}
