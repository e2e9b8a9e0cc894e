// internal/engine/lifecycle/actions.go
package lifecycle

import (
	"strconv"
	"strings"
	"time"

	"proactive-notify/internal/common/errors"
	"proactive-notify/internal/common/metrics"
)

// The fixed action-token vocabulary. Snooze and dismiss are handled inside
// the manager; everything else is forwarded to the injected ActionFunc.
const (
	tokenViewEvent       = "view-event"
	tokenNavigate        = "navigate"
	tokenPrepareMeeting  = "prepare-meeting"
	tokenShowChecklist   = "show-checklist"
	tokenViewTodayEvents = "view-today-events"
	tokenPlayBriefing    = "play-briefing"
	tokenResolveConflict = "resolve-conflict"
	tokenReschedule      = "reschedule"
	tokenSnooze          = "snooze"
	tokenDismiss         = "dismiss"
)

// HandleAction interprets an action token against a live notification.
// Unrecognized tokens are logged and ignored, never fatal. After handling,
// the notification is marked read (dismiss removes it instead).
func (m *Manager) HandleAction(id, token string) {
	m.mu.Lock()
	ent, ok := m.live[id]
	if !ok {
		m.mu.Unlock()
		m.logger.Warn("action on unknown notification", map[string]interface{}{
			"notificationId": id,
			"token":          token,
		})
		return
	}
	detail := ent.notification.Detail

	verb, arg := splitToken(token)
	switch verb {
	case tokenSnooze:
		minutes, err := strconv.Atoi(arg)
		if err != nil || minutes <= 0 {
			minutes = 10
		}
		m.snoozeLocked(ent, minutes)
		m.markReadLocked(id)
		m.mu.Unlock()
		return

	case tokenDismiss:
		m.cancelLocked(id)
		m.mu.Unlock()
		return

	case tokenViewEvent, tokenNavigate, tokenPrepareMeeting, tokenShowChecklist,
		tokenViewTodayEvents, tokenPlayBriefing, tokenResolveConflict, tokenReschedule:
		m.markReadLocked(id)
		fn := m.onAction
		m.mu.Unlock()
		// Fire-and-forget: the manager does not wait on, or care about, the
		// host's side effect.
		if fn != nil {
			fn(token, detail)
		}
		return

	default:
		m.markReadLocked(id)
		m.mu.Unlock()
		m.logger.WithError(errors.NewUnknownActionTokenError(token)).Warn("ignoring action", map[string]interface{}{
			"notificationId": id,
		})
		return
	}
}

// snoozeLocked shifts the notification's schedule forward from its original
// ScheduledFor and re-arms the timer. Snoozing is cancel-plus-re-arm, never
// a second notification. Caller holds the lock.
func (m *Manager) snoozeLocked(ent *entry, minutes int) {
	n := ent.notification

	if t, ok := m.timers[n.ID]; ok {
		t.Stop()
		delete(m.timers, n.ID)
		metrics.TimersArmed.Dec()
	}

	now := m.clock()
	base := now
	if n.ScheduledFor != nil {
		base = *n.ScheduledFor
	}
	shifted := base.Add(time.Duration(minutes) * time.Minute)
	n.ScheduledFor = &shifted

	delay := shifted.Sub(now)
	if delay <= 0 {
		// The shifted instant already passed; deliver without re-arming.
		due := *n
		go m.dispatch(&due)
		return
	}
	m.armLocked(n.ID, delay)

	m.logger.Info("notification snoozed", map[string]interface{}{
		"notificationId": n.ID,
		"minutes":        minutes,
		"scheduledFor":   shifted,
	})
}

// splitToken splits "verb:argument" tokens; bare verbs get an empty
// argument. Compound arguments (resolve-conflict:<id1>:<id2>) stay joined
// for the callback to parse.
func splitToken(token string) (string, string) {
	parts := strings.SplitN(token, ":", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
