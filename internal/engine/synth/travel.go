// internal/engine/synth/travel.go
package synth

import (
	"fmt"
	"strings"
	"time"

	"proactive-notify/internal/engine/timewindow"
	"proactive-notify/internal/models"
)

// TravelEstimator estimates travel minutes to an event location. Injected so
// hosts can swap in a real routing provider; the default is a coarse
// keyword heuristic.
type TravelEstimator func(location string) int

var onlineKeywords = []string{
	"zoom", "meet.google", "google meet", "teams", "webex", "online", "virtual", "http",
}

var metroAreas = []string{
	"new york", "san francisco", "los angeles", "chicago", "seattle",
	"boston", "austin", "london", "downtown",
}

// HeuristicTravelEstimator is the default estimator: 5 minutes for anything
// that looks like an online meeting, 45 for a known metro area, 30 otherwise.
func HeuristicTravelEstimator(location string) int {
	loc := strings.ToLower(location)
	for _, kw := range onlineKeywords {
		if strings.Contains(loc, kw) {
			return 5
		}
	}
	for _, metro := range metroAreas {
		if strings.Contains(loc, metro) {
			return 45
		}
	}
	return 30
}

func (s *Synthesizer) deriveTravelAlert(ev models.Event, uc models.UserContext) *models.Notification {
	if ev.ID == "" || ev.Location == "" || ev.AllDay || ev.Start.IsZero() {
		return nil
	}

	travelMinutes := s.travel(ev.Location)
	departAt := ev.Start.Add(-time.Duration(travelMinutes) * time.Minute)

	minutesOut := timewindow.MinutesUntil(uc.Now, departAt)
	if minutesOut <= 0 || minutesOut > s.config.TravelWindowMinutes {
		return nil
	}

	expiresAt := ev.Start
	return &models.Notification{
		ID:             "travel-" + ev.ID,
		Type:           models.TypeAlert,
		Priority:       models.PriorityUrgent,
		Title:          "Time to leave soon",
		Message:        fmt.Sprintf("Leave in %d minutes for %s (%d min travel to %s).", minutesOut, ev.Title, travelMinutes, ev.Location),
		ActionRequired: true,
		Actions: []models.Action{
			{ID: "navigate", Label: "Navigate", Token: "navigate:" + ev.Location, Style: models.StylePrimary},
			{ID: "snooze", Label: "Snooze 10 min", Token: "snooze:10", Style: models.StyleSecondary},
		},
		Detail: models.TravelDetail{
			EventID:       ev.ID,
			Location:      ev.Location,
			TravelMinutes: travelMinutes,
			DepartAt:      departAt,
		},
		ScheduledFor: &departAt,
		ExpiresAt:    &expiresAt,
	}
}
