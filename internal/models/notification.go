// internal/models/notification.go
package models

import "time"

// Type classifies a notification by the derivation that produced it.
type Type string

const (
	TypeReminder   Type = "reminder"
	TypeAlert      Type = "alert"
	TypeSuggestion Type = "suggestion"
	TypeBriefing   Type = "briefing"
	TypeConflict   Type = "conflict"
)

// Priority orders notifications for display. It never gates delivery.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank maps a priority to a sortable weight, urgent first.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// ActionStyle hints how an action should be presented.
type ActionStyle string

const (
	StylePrimary   ActionStyle = "primary"
	StyleSecondary ActionStyle = "secondary"
)

// Action is one user-selectable response to a notification. Token is an
// opaque string interpreted by the lifecycle manager.
type Action struct {
	ID    string      `json:"id"`
	Label string      `json:"label"`
	Token string      `json:"token"`
	Style ActionStyle `json:"style"`
}

// Detail is the typed payload attached to a notification. Each derivation
// attaches the concrete detail type it produced, replacing the loosely
// typed metadata bags this engine used to carry.
type Detail interface {
	DetailKind() string
}

// ReminderDetail accompanies a pre-event reminder.
type ReminderDetail struct {
	EventID    string    `json:"eventId"`
	EventTitle string    `json:"eventTitle"`
	EventStart time.Time `json:"eventStart"`
	MinutesOut int       `json:"minutesOut"`
}

func (ReminderDetail) DetailKind() string { return "reminder" }

// TravelDetail accompanies a departure alert.
type TravelDetail struct {
	EventID       string    `json:"eventId"`
	Location      string    `json:"location"`
	TravelMinutes int       `json:"travelMinutes"`
	DepartAt      time.Time `json:"departAt"`
}

func (TravelDetail) DetailKind() string { return "travel" }

// PrepDetail accompanies a meeting-preparation nudge.
type PrepDetail struct {
	EventID   string   `json:"eventId"`
	Checklist []string `json:"checklist"`
}

func (PrepDetail) DetailKind() string { return "prep" }

// BriefingDetail accompanies the daily briefing.
type BriefingDetail struct {
	Day        time.Time `json:"day"`
	EventCount int       `json:"eventCount"`
	FirstStart time.Time `json:"firstStart,omitempty"`
}

func (BriefingDetail) DetailKind() string { return "briefing" }

// ConflictDetail accompanies a conflict notification. EventIDs holds the
// pair that clashed, or every same-day event for an overload record.
type ConflictDetail struct {
	Kind       string   `json:"kind"` // overlap, back-to-back, too-many
	EventIDs   []string `json:"events"`
	Suggestion string   `json:"suggestion,omitempty"`
}

func (ConflictDetail) DetailKind() string { return "conflict" }

// Notification is the central entity of the engine. IDs are derived
// deterministically from the cause, so re-synthesis of an unchanged cause
// produces the same ID and deduplicates on ingest.
type Notification struct {
	ID             string     `json:"id"`
	Type           Type       `json:"type"`
	Priority       Priority   `json:"priority"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	ActionRequired bool       `json:"actionRequired"`
	Actions        []Action   `json:"actions,omitempty"`
	Detail         Detail     `json:"detail,omitempty"`
	ScheduledFor   *time.Time `json:"scheduledFor,omitempty"` // nil means due immediately
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	Read           bool       `json:"read"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
}

// DueAt returns the instant the notification becomes due; a missing
// schedule means "now".
func (n *Notification) DueAt(now time.Time) time.Time {
	if n.ScheduledFor == nil {
		return now
	}
	return *n.ScheduledFor
}

// Expired reports whether the notification's expiry has passed.
func (n *Notification) Expired(now time.Time) bool {
	return n.ExpiresAt != nil && now.After(*n.ExpiresAt)
}
