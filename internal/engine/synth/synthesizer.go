// internal/engine/synth/synthesizer.go
package synth

import (
	"fmt"
	"time"

	"proactive-notify/internal/common/metrics"
	"proactive-notify/internal/engine/conflict"
	"proactive-notify/internal/engine/timewindow"
	"proactive-notify/internal/models"
)

// Config holds the derivation windows, all in minutes.
type Config struct {
	ReminderLeadMinutes   int // reminder fires within (0, lead] of the event
	TravelWindowMinutes   int // departure alert fires within (0, window] of departure
	PrepWindowLowMinutes  int // prep nudge fires within (low, high] of the event
	PrepWindowHighMinutes int
	BriefingWindowMinutes int // briefing fires within (0, window] of its set time
	Conflict              conflict.Config
}

// DefaultConfig mirrors the product defaults: 15-minute reminders, 60-minute
// departure horizon, prep nudges an hour out, 5-minute briefing window.
func DefaultConfig() Config {
	return Config{
		ReminderLeadMinutes:   15,
		TravelWindowMinutes:   60,
		PrepWindowLowMinutes:  45,
		PrepWindowHighMinutes: 60,
		BriefingWindowMinutes: 5,
		Conflict:              conflict.DefaultConfig(),
	}
}

// Synthesizer derives candidate notifications from an event snapshot. It is
// stateless: every call computes from scratch, and deduplication across
// calls rests entirely on deterministic notification IDs.
type Synthesizer struct {
	config   Config
	travel   TravelEstimator
	detector *conflict.Detector
}

func NewSynthesizer(config Config, travel TravelEstimator) *Synthesizer {
	if config.ReminderLeadMinutes <= 0 {
		config.ReminderLeadMinutes = 15
	}
	if config.TravelWindowMinutes <= 0 {
		config.TravelWindowMinutes = 60
	}
	if config.PrepWindowHighMinutes <= 0 {
		config.PrepWindowLowMinutes = 45
		config.PrepWindowHighMinutes = 60
	}
	if config.BriefingWindowMinutes <= 0 {
		config.BriefingWindowMinutes = 5
	}
	if travel == nil {
		travel = HeuristicTravelEstimator
	}
	return &Synthesizer{
		config:   config,
		travel:   travel,
		detector: conflict.NewDetector(config.Conflict),
	}
}

// Synthesize computes the full candidate batch for one context snapshot.
// Derivations run independently and their outputs concatenate in a fixed
// order: reminders, travel alerts, prep nudges, briefing, conflicts. A
// malformed event is skipped by the derivation that needed the missing
// field; it never suppresses the rest of the batch.
func (s *Synthesizer) Synthesize(events []models.Event, uc models.UserContext) []models.Notification {
	var out []models.Notification

	if uc.Preferences.RemindersOn {
		for _, ev := range events {
			if n := s.deriveReminder(ev, uc); n != nil {
				out = append(out, *n)
			}
		}
	}

	if uc.Preferences.TravelAlertsOn {
		for _, ev := range events {
			if n := s.deriveTravelAlert(ev, uc); n != nil {
				out = append(out, *n)
			}
		}
	}

	if uc.Preferences.PrepNudgesOn {
		for _, ev := range events {
			if n := s.derivePrepNudge(ev, uc); n != nil {
				out = append(out, *n)
			}
		}
	}

	if uc.Preferences.DailyBriefingOn {
		if n := s.deriveBriefing(events, uc); n != nil {
			out = append(out, *n)
		}
	}

	if uc.Preferences.ConflictsOn {
		out = append(out, s.deriveConflicts(events, uc)...)
	}

	for _, n := range out {
		metrics.NotificationsSynthesized.WithLabelValues(string(n.Type)).Inc()
	}
	return out
}

func (s *Synthesizer) deriveReminder(ev models.Event, uc models.UserContext) *models.Notification {
	if !ev.Timed() || ev.ID == "" {
		return nil
	}

	minutesOut := timewindow.MinutesUntil(uc.Now, ev.Start)
	if minutesOut <= 0 || minutesOut > s.config.ReminderLeadMinutes {
		return nil
	}

	// The scheduling instant is fixed at lead-time before the event. When
	// that instant already passed, the notification is simply due now.
	scheduledFor := ev.Start.Add(-time.Duration(s.config.ReminderLeadMinutes) * time.Minute)
	expiresAt := ev.Start

	return &models.Notification{
		ID:       "reminder-" + ev.ID,
		Type:     models.TypeReminder,
		Priority: models.PriorityHigh,
		Title:    "Upcoming: " + ev.Title,
		Message:  fmt.Sprintf("%s starts in %d minutes.", ev.Title, minutesOut),
		Actions: []models.Action{
			{ID: "view", Label: "View", Token: "view-event:" + ev.ID, Style: models.StylePrimary},
			{ID: "dismiss", Label: "Dismiss", Token: "dismiss", Style: models.StyleSecondary},
		},
		Detail: models.ReminderDetail{
			EventID:    ev.ID,
			EventTitle: ev.Title,
			EventStart: ev.Start,
			MinutesOut: minutesOut,
		},
		ScheduledFor: &scheduledFor,
		ExpiresAt:    &expiresAt,
	}
}

func (s *Synthesizer) deriveBriefing(events []models.Event, uc models.UserContext) *models.Notification {
	briefingTime := uc.Preferences.BriefingTime
	if briefingTime.IsZero() {
		return nil
	}

	today := todaysEvents(events, uc.Now)
	if len(today) == 0 {
		return nil
	}

	minutesOut := timewindow.MinutesUntil(uc.Now, briefingTime)
	if minutesOut <= 0 || minutesOut > s.config.BriefingWindowMinutes {
		return nil
	}

	firstStart := earliestStart(today)
	message := fmt.Sprintf("You have %d events today.", len(today))
	if !firstStart.IsZero() {
		message = fmt.Sprintf("You have %d events today. First up at %s.",
			len(today), firstStart.In(uc.Loc()).Format("15:04"))
	}

	return &models.Notification{
		ID:       "briefing-" + timewindow.StartOfDay(uc.Now.In(uc.Loc())).Format("2006-01-02"),
		Type:     models.TypeBriefing,
		Priority: models.PriorityMedium,
		Title:    "Your daily briefing",
		Message:  message,
		Actions: []models.Action{
			{ID: "view-all", Label: "View today", Token: "view-today-events", Style: models.StylePrimary},
			{ID: "play-briefing", Label: "Play briefing", Token: "play-briefing", Style: models.StyleSecondary},
		},
		Detail: models.BriefingDetail{
			Day:        timewindow.StartOfDay(uc.Now.In(uc.Loc())),
			EventCount: len(today),
			FirstStart: firstStart,
		},
		ScheduledFor: &briefingTime,
	}
}

func (s *Synthesizer) deriveConflicts(events []models.Event, uc models.UserContext) []models.Notification {
	records := s.detector.Detect(todaysEvents(events, uc.Now), uc.Now)

	out := make([]models.Notification, 0, len(records))
	for _, rec := range records {
		metrics.ConflictsDetected.WithLabelValues(string(rec.Kind)).Inc()

		eventIDs := make([]string, 0, len(rec.Events))
		for _, ref := range rec.Events {
			eventIDs = append(eventIDs, ref.ID)
		}

		n := models.Notification{
			Type:           models.TypeConflict,
			Priority:       models.PriorityUrgent,
			ActionRequired: true,
			Detail: models.ConflictDetail{
				Kind:       string(rec.Kind),
				EventIDs:   eventIDs,
				Suggestion: rec.Suggestion,
			},
		}

		switch rec.Kind {
		case conflict.KindTooMany:
			n.ID = "conflict-overload-" + timewindow.StartOfDay(uc.Now.In(uc.Loc())).Format("2006-01-02")
			n.Title = "Busy day ahead"
			n.Message = rec.Suggestion
			n.Actions = []models.Action{
				{ID: "view-all", Label: "View today", Token: "view-today-events", Style: models.StylePrimary},
			}
		default:
			first, second := rec.Events[0], rec.Events[1]
			n.ID = fmt.Sprintf("conflict-%s-%s", first.ID, second.ID)
			n.Title = "Schedule conflict"
			n.Message = fmt.Sprintf("%q and %q clash: %s", first.Title, second.Title, rec.Suggestion)
			n.Actions = []models.Action{
				{ID: "resolve", Label: "Resolve", Token: fmt.Sprintf("resolve-conflict:%s:%s", first.ID, second.ID), Style: models.StylePrimary},
				{ID: "reschedule", Label: "Reschedule", Token: "reschedule:" + first.ID, Style: models.StyleSecondary},
			}
		}

		out = append(out, n)
	}
	return out
}

func todaysEvents(events []models.Event, now time.Time) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, ev := range events {
		anchor := ev.Start
		if anchor.IsZero() {
			anchor = ev.End
		}
		if timewindow.WithinDay(anchor, now) {
			out = append(out, ev)
		}
	}
	return out
}

func earliestStart(events []models.Event) time.Time {
	var first time.Time
	for _, ev := range events {
		if ev.Start.IsZero() {
			continue
		}
		if first.IsZero() || ev.Start.Before(first) {
			first = ev.Start
		}
	}
	return first
}
