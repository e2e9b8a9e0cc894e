// internal/models/event.go
package models

import "time"

// Event is a single calendar event as supplied by the event source.
// The engine never mutates events; it only derives notifications from them.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"` // zero value means "no start time"
	End         time.Time `json:"end"`   // zero value means "no end time"
	AllDay      bool      `json:"allDay"`
	Location    string    `json:"location,omitempty"`
	Attendees   int       `json:"attendees,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Timed reports whether the event has both a start and an end instant.
// All-day events and events missing timing fields are excluded from
// overlap checks.
func (e Event) Timed() bool {
	return !e.AllDay && !e.Start.IsZero() && !e.End.IsZero()
}

// Preferences holds the per-user notification settings supplied by the host.
type Preferences struct {
	BriefingTime    time.Time `json:"briefingTime"` // when the daily briefing should fire
	RemindersOn     bool      `json:"remindersOn"`
	TravelAlertsOn  bool      `json:"travelAlertsOn"`
	PrepNudgesOn    bool      `json:"prepNudgesOn"`
	DailyBriefingOn bool      `json:"dailyBriefingOn"`
	ConflictsOn     bool      `json:"conflictsOn"`
}

// DefaultPreferences enables every derivation; BriefingTime stays zero and
// suppresses the briefing until the host sets it.
func DefaultPreferences() Preferences {
	return Preferences{
		RemindersOn:     true,
		TravelAlertsOn:  true,
		PrepNudgesOn:    true,
		DailyBriefingOn: true,
		ConflictsOn:     true,
	}
}

// UserContext is the per-invocation snapshot threaded through every
// derivation. The engine never reads the system clock; Now is the only
// notion of "current time" it has.
type UserContext struct {
	Now         time.Time
	Location    *time.Location
	Preferences Preferences
}

// Loc returns the context timezone, defaulting to UTC.
func (uc UserContext) Loc() *time.Location {
	if uc.Location != nil {
		return uc.Location
	}
	return time.UTC
}
