// internal/engine/lifecycle/manager_test.go
package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proactive-notify/internal/common/logger"
	"proactive-notify/internal/models"
)

var testNow = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

// captureSink records every delivered notification ID.
type captureSink struct {
	mu        sync.Mutex
	delivered []string
	err       error
}

func (s *captureSink) Name() string { return "capture" }

func (s *captureSink) Deliver(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.delivered = append(s.delivered, n.ID)
	return nil
}

func (s *captureSink) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.delivered...)
}

func newTestManager(t *testing.T, sink DeliverySink, opts ...Option) *Manager {
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewManager(sink, logger.NewTestLogger(t), opts...)
}

func reminder(id string) models.Notification {
	return models.Notification{
		ID:       id,
		Type:     models.TypeReminder,
		Priority: models.PriorityHigh,
		Title:    "Upcoming",
	}
}

func scheduledAt(n models.Notification, at time.Time) models.Notification {
	n.ScheduledFor = &at
	return n
}

func expiringAt(n models.Notification, at time.Time) models.Notification {
	n.ExpiresAt = &at
	return n
}

func TestIngest_ImmediateDispatch(t *testing.T) {
	sink := &captureSink{}
	m := newTestManager(t, sink)
	defer m.Shutdown()

	m.Ingest(reminder("n1"))
	assert.Equal(t, []string{"n1"}, sink.ids())
	assert.Len(t, m.ListActive(), 1)
}

func TestIngest_PastScheduleDispatchesImmediately(t *testing.T) {
	sink := &captureSink{}
	m := newTestManager(t, sink)
	defer m.Shutdown()

	m.Ingest(scheduledAt(reminder("n1"), testNow.Add(-5*time.Minute)))
	assert.Equal(t, []string{"n1"}, sink.ids())
}

func TestIngest_Idempotent(t *testing.T) {
	sink := &captureSink{}
	m := newTestManager(t, sink)
	defer m.Shutdown()

	m.Ingest(reminder("n1"))
	m.Ingest(reminder("n1"))
	m.Ingest(reminder("n1"))

	assert.Equal(t, []string{"n1"}, sink.ids())
	assert.Len(t, m.ListActive(), 1)
}

func TestIngest_FutureScheduleFiresTimer(t *testing.T) {
	sink := &captureSink{}
	m := newTestManager(t, sink)
	defer m.Shutdown()

	m.Ingest(scheduledAt(reminder("n1"), testNow.Add(30*time.Millisecond)))
	assert.Empty(t, sink.ids())

	require.Eventually(t, func() bool {
		return len(sink.ids()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"n1"}, sink.ids())

	// Fired notifications stay in the live set for read tracking.
	assert.Len(t, m.ListActive(), 1)
}

func TestCancel_BeforeTimerFires(t *testing.T) {
	sink := &captureSink{}
	m := newTestManager(t, sink)
	defer m.Shutdown()

	m.Ingest(scheduledAt(reminder("n1"), testNow.Add(60*time.Millisecond)))
	m.Cancel("n1")

	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, sink.ids(), "sink must never be invoked after cancellation")
	assert.Empty(t, m.ListActive())
}

func TestCancel_AbsentIDIsNoOp(t *testing.T) {
	m := newTestManager(t, &captureSink{})
	defer m.Shutdown()
	m.Cancel("missing")
	assert.Empty(t, m.ListActive())
}

func TestMarkRead(t *testing.T) {
	sink := &captureSink{}
	m := newTestManager(t, sink)
	defer m.Shutdown()

	m.Ingest(reminder("n1"))
	m.MarkRead("n1")

	active := m.ListActive()
	require.Len(t, active, 1, "mark-read keeps the notification, unlike cancel")
	assert.True(t, active[0].Read)
	require.NotNil(t, active[0].ReadAt)
	assert.Equal(t, testNow, *active[0].ReadAt)
}

func TestHandleAction_Snooze(t *testing.T) {
	sink := &captureSink{}
	m := newTestManager(t, sink)
	defer m.Shutdown()

	original := testNow.Add(50 * time.Millisecond)
	m.Ingest(scheduledAt(reminder("n1"), original))
	m.HandleAction("n1", "snooze:10")

	// Re-armed ten minutes after the original schedule; nothing fires now.
	time.Sleep(120 * time.Millisecond)
	assert.Empty(t, sink.ids())

	active := m.ListActive()
	require.Len(t, active, 1, "snooze re-arms the same notification, it never duplicates")
	require.NotNil(t, active[0].ScheduledFor)
	assert.Equal(t, original.Add(10*time.Minute), *active[0].ScheduledFor)
}

func TestHandleAction_Dismiss(t *testing.T) {
	sink := &captureSink{}
	m := newTestManager(t, sink)
	defer m.Shutdown()

	m.Ingest(reminder("n1"))
	m.HandleAction("n1", "dismiss")
	assert.Empty(t, m.ListActive())
}

func TestHandleAction_ForwardsExternalTokens(t *testing.T) {
	sink := &captureSink{}

	var mu sync.Mutex
	var gotToken string
	var gotDetail models.Detail
	onAction := func(token string, detail models.Detail) {
		mu.Lock()
		defer mu.Unlock()
		gotToken = token
		gotDetail = detail
	}

	m := newTestManager(t, sink, WithActionFunc(onAction))
	defer m.Shutdown()

	n := reminder("n1")
	n.Detail = models.ReminderDetail{EventID: "e1"}
	m.Ingest(n)
	m.HandleAction("n1", "view-event:e1")

	mu.Lock()
	assert.Equal(t, "view-event:e1", gotToken)
	assert.Equal(t, models.ReminderDetail{EventID: "e1"}, gotDetail)
	mu.Unlock()

	active := m.ListActive()
	require.Len(t, active, 1)
	assert.True(t, active[0].Read, "handled actions mark the notification read")
}

func TestHandleAction_UnknownTokenIgnored(t *testing.T) {
	sink := &captureSink{}
	m := newTestManager(t, sink)
	defer m.Shutdown()

	m.Ingest(reminder("n1"))
	m.HandleAction("n1", "teleport:home")

	active := m.ListActive()
	require.Len(t, active, 1, "unknown tokens never remove the notification")
	assert.True(t, active[0].Read)
}

func TestHandleAction_UnknownNotification(t *testing.T) {
	m := newTestManager(t, &captureSink{})
	defer m.Shutdown()
	m.HandleAction("missing", "dismiss") // must not panic
}

func TestSweepExpired(t *testing.T) {
	sink := &captureSink{}
	m := newTestManager(t, sink)
	defer m.Shutdown()

	m.Ingest(expiringAt(reminder("stale"), testNow.Add(10*time.Minute)))
	m.Ingest(expiringAt(reminder("fresh"), testNow.Add(2*time.Hour)))
	m.Ingest(reminder("forever"))

	removed := m.SweepExpired(testNow.Add(30 * time.Minute))
	assert.Equal(t, 1, removed)

	ids := make([]string, 0)
	for _, n := range m.ListActive() {
		ids = append(ids, n.ID)
	}
	assert.ElementsMatch(t, []string{"fresh", "forever"}, ids)
}

func TestSweepExpired_CancelsArmedTimers(t *testing.T) {
	sink := &captureSink{}
	m := newTestManager(t, sink)
	defer m.Shutdown()

	n := scheduledAt(reminder("n1"), testNow.Add(60*time.Millisecond))
	m.Ingest(expiringAt(n, testNow.Add(90*time.Millisecond)))

	removed := m.SweepExpired(testNow.Add(2 * time.Minute))
	assert.Equal(t, 1, removed)

	time.Sleep(120 * time.Millisecond)
	assert.Empty(t, sink.ids(), "swept notifications must not fire later")
}

func TestIngest_AlreadyExpiredIsDropped(t *testing.T) {
	sink := &captureSink{}
	m := newTestManager(t, sink)
	defer m.Shutdown()

	m.Ingest(expiringAt(reminder("n1"), testNow.Add(-time.Minute)))
	assert.Empty(t, sink.ids())
	assert.Empty(t, m.ListActive())
}

func TestListActive_Ordering(t *testing.T) {
	sink := &captureSink{}
	m := newTestManager(t, sink)
	defer m.Shutdown()

	low := reminder("low")
	low.Priority = models.PriorityLow
	urgent := reminder("urgent")
	urgent.Priority = models.PriorityUrgent
	mediumA := reminder("medium-a")
	mediumA.Priority = models.PriorityMedium
	mediumB := reminder("medium-b")
	mediumB.Priority = models.PriorityMedium

	m.Ingest(low)
	m.Ingest(mediumA)
	m.Ingest(urgent)
	m.Ingest(mediumB)

	active := m.ListActive()
	require.Len(t, active, 4)
	assert.Equal(t, "urgent", active[0].ID)
	assert.Equal(t, "medium-a", active[1].ID, "ties break by insertion order")
	assert.Equal(t, "medium-b", active[2].ID)
	assert.Equal(t, "low", active[3].ID)
}

func TestDispatch_SinkFailureIsSwallowed(t *testing.T) {
	sink := &captureSink{err: errors.New("permission denied")}
	m := newTestManager(t, sink)
	defer m.Shutdown()

	m.Ingest(reminder("n1"))

	// The failure is logged and swallowed; internal state is unaffected.
	assert.Len(t, m.ListActive(), 1)
	m.Ingest(reminder("n2"))
	assert.Len(t, m.ListActive(), 2)
}

// snapshotSink keeps the exact notification pointer it was handed.
type snapshotSink struct {
	mu   sync.Mutex
	seen *models.Notification
}

func (s *snapshotSink) Name() string { return "snapshot" }

func (s *snapshotSink) Deliver(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = n
	return nil
}

func (s *snapshotSink) notification() *models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen
}

func TestDispatch_SinkReceivesSnapshot(t *testing.T) {
	sink := &snapshotSink{}
	m := newTestManager(t, sink)
	defer m.Shutdown()

	m.Ingest(reminder("n1"))
	require.NotNil(t, sink.notification())

	m.MarkRead("n1")

	// The sink got a copy taken under the lock, so marking the live
	// notification read does not reach through to the delivered one.
	assert.False(t, sink.notification().Read)
	active := m.ListActive()
	require.Len(t, active, 1)
	assert.True(t, active[0].Read)
}

// readingSink reads lifecycle-mutated fields during delivery, so running
// this test with -race flags any sink that aliases the live set.
type readingSink struct {
	delivered chan struct{}
}

func (s *readingSink) Name() string { return "reading" }

func (s *readingSink) Deliver(_ context.Context, n *models.Notification) error {
	_ = n.Read
	_ = n.ReadAt
	_ = n.ScheduledFor
	close(s.delivered)
	return nil
}

func TestFire_ConcurrentMarkReadIsSafe(t *testing.T) {
	sink := &readingSink{delivered: make(chan struct{})}
	m := NewManager(sink, logger.NewTestLogger(t))
	defer m.Shutdown()

	m.Ingest(scheduledAt(reminder("n1"), time.Now().Add(20*time.Millisecond)))

	done := make(chan struct{})
	go func() {
		defer close(done)
		deadline := time.Now().Add(200 * time.Millisecond)
		for time.Now().Before(deadline) {
			m.MarkRead("n1")
		}
	}()

	select {
	case <-sink.delivered:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
	<-done
}
