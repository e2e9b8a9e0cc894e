// internal/engine/synth/prep.go
package synth

import (
	"fmt"
	"strings"
	"time"

	"proactive-notify/internal/engine/timewindow"
	"proactive-notify/internal/models"
)

var meetingKeywords = []string{
	"meeting", "standup", "sync", "1:1", "review", "call", "interview", "retro",
}

// looksLikeMeeting reports whether the event warrants a preparation nudge.
func looksLikeMeeting(ev models.Event) bool {
	if ev.Attendees > 1 {
		return true
	}
	title := strings.ToLower(ev.Title)
	for _, kw := range meetingKeywords {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

func hasVirtualIndicator(ev models.Event) bool {
	haystack := strings.ToLower(ev.Location + " " + ev.Description)
	for _, kw := range onlineKeywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// buildChecklist assembles preparation tasks from what the event actually
// carries, plus two generic items every meeting gets.
func buildChecklist(ev models.Event) []string {
	var items []string
	if ev.Attendees > 0 {
		items = append(items, fmt.Sprintf("Review the attendee list (%d attending)", ev.Attendees))
	}
	if ev.Description != "" {
		items = append(items, "Read through the agenda")
	}
	if hasVirtualIndicator(ev) {
		items = append(items, "Test your conferencing setup")
	} else {
		items = append(items, "Confirm the room location")
	}
	items = append(items,
		"Gather notes from the last session",
		"Silence other notifications",
	)
	return items
}

func (s *Synthesizer) derivePrepNudge(ev models.Event, uc models.UserContext) *models.Notification {
	if ev.ID == "" || ev.Start.IsZero() || ev.AllDay || !looksLikeMeeting(ev) {
		return nil
	}

	minutesOut := timewindow.MinutesUntil(uc.Now, ev.Start)
	if minutesOut <= s.config.PrepWindowLowMinutes || minutesOut > s.config.PrepWindowHighMinutes {
		return nil
	}

	scheduledFor := ev.Start.Add(-time.Duration(s.config.PrepWindowHighMinutes) * time.Minute)
	expiresAt := ev.Start
	checklist := buildChecklist(ev)

	return &models.Notification{
		ID:       "prep-" + ev.ID,
		Type:     models.TypeSuggestion,
		Priority: models.PriorityMedium,
		Title:    "Prepare for " + ev.Title,
		Message:  fmt.Sprintf("%s starts in %d minutes. %d preparation steps suggested.", ev.Title, minutesOut, len(checklist)),
		Actions: []models.Action{
			{ID: "prepare", Label: "Prepare now", Token: "prepare-meeting:" + ev.ID, Style: models.StylePrimary},
			{ID: "checklist", Label: "Show checklist", Token: "show-checklist:" + ev.ID, Style: models.StyleSecondary},
		},
		Detail: models.PrepDetail{
			EventID:   ev.ID,
			Checklist: checklist,
		},
		ScheduledFor: &scheduledFor,
		ExpiresAt:    &expiresAt,
	}
}
