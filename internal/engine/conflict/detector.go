// internal/engine/conflict/detector.go
package conflict

import (
	"fmt"
	"sort"
	"time"

	"proactive-notify/internal/engine/timewindow"
	"proactive-notify/internal/models"
)

// Kind tags a detected scheduling problem.
type Kind string

const (
	KindOverlap    Kind = "overlap"
	KindBackToBack Kind = "back-to-back"
	KindTooMany    Kind = "too-many"
)

const (
	SuggestionOverlap    = "These events overlap. Consider adjusting or cancelling one of them."
	SuggestionBackToBack = "These events run back to back. Consider adding buffer time between them."
)

// EventRef is the slice of an event a conflict record needs to reference.
type EventRef struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Record is one detected conflict. Overlap and back-to-back records carry
// exactly two events; too-many carries every event that counted toward the
// overload threshold.
type Record struct {
	Kind       Kind       `json:"kind"`
	Events     []EventRef `json:"events"`
	Suggestion string     `json:"suggestion"`
}

// Config holds the detection thresholds.
type Config struct {
	BackToBackGapMinutes int // gaps shorter than this are flagged
	DailyOverloadCount   int // counts above this trigger too-many
	MaxConflicts         int // result truncation, scan order
}

// DefaultConfig mirrors the product defaults: 5-minute buffer, 6 events per
// day, first 3 conflicts reported.
func DefaultConfig() Config {
	return Config{
		BackToBackGapMinutes: 5,
		DailyOverloadCount:   6,
		MaxConflicts:         3,
	}
}

type Detector struct {
	config Config
}

func NewDetector(config Config) *Detector {
	if config.BackToBackGapMinutes <= 0 {
		config.BackToBackGapMinutes = 5
	}
	if config.DailyOverloadCount <= 0 {
		config.DailyOverloadCount = 6
	}
	if config.MaxConflicts <= 0 {
		config.MaxConflicts = 3
	}
	return &Detector{config: config}
}

// Detect finds overlaps, insufficient buffers, and daily overload among the
// given day's events. Timed events are sorted by start and scanned pairwise;
// all-day and untimed events are excluded from the pairwise checks but still
// count toward the overload threshold when they fall inside the day window.
//
// The result is truncated to the first MaxConflicts records in scan order,
// not ranked by severity. When more conflicts exist same-day, the most
// urgent one may be dropped; the ordering is kept as shipped because the
// truncation predates this rewrite and the UI is built around it.
func (d *Detector) Detect(events []models.Event, day time.Time) []Record {
	timed := make([]models.Event, 0, len(events))
	dayCount := 0

	for _, ev := range events {
		if inDay(ev, day) {
			dayCount++
		}
		if ev.Timed() && timewindow.WithinDay(ev.Start, day) {
			timed = append(timed, ev)
		}
	}

	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].Start.Before(timed[j].Start)
	})

	var records []Record
	for i := 0; i+1 < len(timed); i++ {
		current, next := timed[i], timed[i+1]

		if current.End.After(next.Start) {
			records = append(records, Record{
				Kind:       KindOverlap,
				Events:     []EventRef{ref(current), ref(next)},
				Suggestion: SuggestionOverlap,
			})
		} else if timewindow.MinutesBetween(current.End, next.Start) < d.config.BackToBackGapMinutes {
			records = append(records, Record{
				Kind:       KindBackToBack,
				Events:     []EventRef{ref(current), ref(next)},
				Suggestion: SuggestionBackToBack,
			})
		}
	}

	if dayCount > d.config.DailyOverloadCount {
		refs := make([]EventRef, 0, dayCount)
		for _, ev := range events {
			if inDay(ev, day) {
				refs = append(refs, ref(ev))
			}
		}
		records = append(records, Record{
			Kind:   KindTooMany,
			Events: refs,
			Suggestion: fmt.Sprintf(
				"You have %d events today. Consider rescheduling non-essential ones.", dayCount),
		})
	}

	if len(records) > d.config.MaxConflicts {
		records = records[:d.config.MaxConflicts]
	}
	return records
}

// inDay reports whether an event counts toward the day's overload total.
func inDay(ev models.Event, day time.Time) bool {
	if ev.Start.IsZero() && ev.End.IsZero() {
		return false
	}
	if !ev.Start.IsZero() {
		return timewindow.WithinDay(ev.Start, day)
	}
	return timewindow.WithinDay(ev.End, day)
}

func ref(ev models.Event) EventRef {
	return EventRef{ID: ev.ID, Title: ev.Title, Start: ev.Start, End: ev.End}
}
