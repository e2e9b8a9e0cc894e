// internal/source/ics.go
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	apperrors "proactive-notify/internal/common/errors"
	"proactive-notify/internal/common/logger"
	"proactive-notify/internal/models"
	"proactive-notify/pkg/registry"
)

const (
	defaultTimeout        = 15 * time.Second
	defaultMaxOccurrences = 500
	maxFeedBytes          = 10 << 20
)

// Config tunes the ICS source adapter.
type Config struct {
	Timeout        time.Duration
	MaxOccurrences int // per recurring event, within the requested range
}

// DefaultConfig returns the adapter defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:        defaultTimeout,
		MaxOccurrences: defaultMaxOccurrences,
	}
}

// ICSSource fetches ICS feeds listed in a source registry and flattens
// them into engine events for a requested time range.
type ICSSource struct {
	sources []registry.CalendarSource
	client  *http.Client
	config  Config
	logger  logger.Logger
}

// NewICSSource creates a source over the given registry entries. Disabled
// entries are filtered out here so callers can pass the registry as-is.
func NewICSSource(sources []registry.CalendarSource, cfg Config, log logger.Logger) *ICSSource {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = defaultMaxOccurrences
	}
	enabled := make([]registry.CalendarSource, 0, len(sources))
	for _, s := range sources {
		if s.Enabled {
			enabled = append(enabled, s)
		}
	}
	return &ICSSource{
		sources: enabled,
		client:  &http.Client{Timeout: cfg.Timeout},
		config:  cfg,
		logger:  log,
	}
}

// EventsBetween fetches every enabled feed and returns the occurrences
// that fall inside [from, to). Feeds that fail to fetch or parse are
// logged and skipped; an error is returned only when every feed failed.
func (s *ICSSource) EventsBetween(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	var (
		events  []models.Event
		lastErr error
		failed  int
	)
	for _, src := range s.sources {
		evs, err := s.eventsFromFeed(ctx, src, from, to)
		if err != nil {
			s.logger.Warn("skipping calendar source", map[string]interface{}{
				"source": src.ID,
				"error":  err.Error(),
			})
			lastErr = err
			failed++
			continue
		}
		events = append(events, evs...)
	}
	if failed > 0 && failed == len(s.sources) {
		return nil, lastErr
	}
	return events, nil
}

func (s *ICSSource) eventsFromFeed(ctx context.Context, src registry.CalendarSource, from, to time.Time) ([]models.Event, error) {
	body, err := s.fetch(ctx, src)
	if err != nil {
		return nil, apperrors.NewEventSourceFetchFailedError(src.ID, err)
	}
	parsed, err := parseFeed(src, body)
	if err != nil {
		return nil, apperrors.NewEventSourceParseFailedError(src.ID, err)
	}
	events := expandAll(parsed, from, to, s.config.MaxOccurrences, s.logger)
	s.logger.Debug("calendar source loaded", map[string]interface{}{
		"source": src.ID,
		"raw":    len(parsed),
		"events": len(events),
	})
	return events, nil
}

func (s *ICSSource) fetch(ctx context.Context, src registry.CalendarSource) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/calendar, */*;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
}

// parsedEvent is one VEVENT lifted out of an ICS feed, before recurrence
// expansion. Overrides of a recurring event carry a RecurrenceID.
type parsedEvent struct {
	SourceID     string
	UID          string
	Summary      string
	Description  string
	Location     string
	Attendees    int
	Start        time.Time
	End          time.Time
	AllDay       bool
	RawRRule     string
	ExDates      []time.Time
	RecurrenceID *time.Time
}

func parseFeed(src registry.CalendarSource, body []byte) ([]parsedEvent, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	loc := time.UTC
	if src.Timezone != "" {
		if l, lerr := time.LoadLocation(src.Timezone); lerr == nil {
			loc = l
		}
	}

	var out []parsedEvent
	for _, ve := range cal.Events() {
		ev, err := parseEvent(src.ID, ve, loc)
		if err != nil {
			// One malformed VEVENT should not sink the whole feed.
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func parseEvent(sourceID string, ve *ical.VEvent, loc *time.Location) (parsedEvent, error) {
	ev := parsedEvent{SourceID: sourceID}

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		ev.UID = p.Value
	}
	if ev.UID == "" {
		return ev, fmt.Errorf("event has no UID")
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		ev.Location = p.Value
	}
	ev.Attendees = len(ve.Attendees())

	dtstart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtstart == nil {
		return ev, fmt.Errorf("event %s has no DTSTART", ev.UID)
	}
	ev.AllDay = isDateOnly(dtstart)

	start, err := propTime(dtstart, loc)
	if err != nil {
		return ev, fmt.Errorf("event %s: bad DTSTART: %w", ev.UID, err)
	}
	ev.Start = start

	if dtend := ve.GetProperty(ical.ComponentPropertyDtEnd); dtend != nil {
		end, eerr := propTime(dtend, loc)
		if eerr != nil {
			return ev, fmt.Errorf("event %s: bad DTEND: %w", ev.UID, eerr)
		}
		ev.End = end
	} else if ev.AllDay {
		ev.End = ev.Start.Add(24 * time.Hour)
	} else {
		// Zero-duration events still get a well-formed interval.
		ev.End = ev.Start.Add(30 * time.Minute)
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.RawRRule = p.Value
	}
	for _, p := range ve.Properties {
		if ical.ComponentProperty(p.IANAToken) != ical.ComponentPropertyExdate {
			continue
		}
		for _, v := range strings.Split(p.Value, ",") {
			if t, terr := parseICSTime(strings.TrimSpace(v), loc); terr == nil {
				ev.ExDates = append(ev.ExDates, t)
			}
		}
	}
	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, terr := parseICSTime(p.Value, loc); terr == nil {
			ev.RecurrenceID = &t
		}
	}
	return ev, nil
}

// isDateOnly reports whether a DTSTART/DTEND property is date-valued,
// either via VALUE=DATE or by lacking a time component.
func isDateOnly(p *ical.IANAProperty) bool {
	for _, v := range p.ICalParameters["VALUE"] {
		if v == "DATE" {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}

func propTime(p *ical.IANAProperty, fallback *time.Location) (time.Time, error) {
	loc := fallback
	if tzids := p.ICalParameters["TZID"]; len(tzids) > 0 {
		if l, err := time.LoadLocation(tzids[0]); err == nil {
			loc = l
		}
	}
	return parseICSTime(p.Value, loc)
}

func parseICSTime(value string, loc *time.Location) (time.Time, error) {
	if strings.HasSuffix(value, "Z") {
		return time.Parse("20060102T150405Z", value)
	}
	if strings.Contains(value, "T") {
		return time.ParseInLocation("20060102T150405", value, loc)
	}
	return time.ParseInLocation("20060102", value, loc)
}
