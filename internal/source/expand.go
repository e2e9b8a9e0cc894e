// internal/source/expand.go
package source

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"proactive-notify/internal/common/logger"
	"proactive-notify/internal/models"
)

// expandAll turns parsed VEVENTs into concrete engine events within
// [from, to). Recurring events are expanded occurrence by occurrence and
// RECURRENCE-ID overrides replace the matching base occurrence.
func expandAll(parsed []parsedEvent, from, to time.Time, maxOcc int, log logger.Logger) []models.Event {
	bases := make(map[string]parsedEvent)
	overrides := make(map[string][]parsedEvent)
	for _, ev := range parsed {
		if ev.RecurrenceID != nil {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		bases[ev.UID] = ev
	}

	var out []models.Event
	for _, ev := range bases {
		if ev.RawRRule == "" {
			if overlapsRange(ev.Start, ev.End, from, to) {
				out = append(out, toEvent(ev, ev.Start, ev.End, false))
			}
			continue
		}
		occs, hitCap := expandRecurring(ev, overrides[ev.UID], from, to, maxOcc)
		if hitCap {
			log.Warn("recurrence expansion hit occurrence cap", map[string]interface{}{
				"uid": ev.UID,
				"cap": maxOcc,
			})
		}
		out = append(out, occs...)
	}

	// Detached overrides whose base never appeared in the feed.
	for uid, ovs := range overrides {
		if _, ok := bases[uid]; ok {
			continue
		}
		for _, ov := range ovs {
			if overlapsRange(ov.Start, ov.End, from, to) {
				out = append(out, toEvent(ov, ov.Start, ov.End, true))
			}
		}
	}
	return out
}

func expandRecurring(ev parsedEvent, overrides []parsedEvent, from, to time.Time, maxOcc int) ([]models.Event, bool) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	rangeStart := from.In(ev.Start.Location())
	rangeEnd := to.In(ev.Start.Location())
	occTimes := set.Between(rangeStart, rangeEnd, true)

	hitCap := false
	if len(occTimes) > maxOcc {
		occTimes = occTimes[:maxOcc]
		hitCap = true
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]models.Event, 0, len(occTimes))
	for _, start := range occTimes {
		end := start.Add(dur)
		occEv := ev
		if ov, ok := overrideForStart(overrides, start); ok {
			occEv = ov
			start = ov.Start
			end = ov.End
		}
		out = append(out, toEvent(occEv, start, end, true))
	}
	return out, hitCap
}

func overrideForStart(overrides []parsedEvent, start time.Time) (parsedEvent, bool) {
	for _, ov := range overrides {
		if ov.RecurrenceID != nil && ov.RecurrenceID.In(start.Location()).Equal(start) {
			return ov, true
		}
	}
	return parsedEvent{}, false
}

func overlapsRange(start, end, from, to time.Time) bool {
	return start.Before(to) && end.After(from)
}

// toEvent builds an engine event with a deterministic ID so repeated
// refreshes re-synthesize the same notification IDs. Recurring instances
// fold the occurrence start into the ID to keep instances distinct.
func toEvent(ev parsedEvent, start, end time.Time, instance bool) models.Event {
	id := fmt.Sprintf("%s/%s", ev.SourceID, ev.UID)
	if instance {
		id += "/" + start.UTC().Format("20060102T150405Z")
	}
	return models.Event{
		ID:          id,
		Title:       ev.Summary,
		Start:       start,
		End:         end,
		AllDay:      ev.AllDay,
		Location:    ev.Location,
		Attendees:   ev.Attendees,
		Description: ev.Description,
	}
}
