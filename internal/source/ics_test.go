// internal/source/ics_test.go
package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proactive-notify/internal/common/logger"
	"proactive-notify/internal/models"
	"proactive-notify/pkg/registry"
)

const feedFixture = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//test//EN
BEGIN:VEVENT
UID:simple-1
SUMMARY:Design Review
DESCRIPTION:Agenda attached
LOCATION:Room 4A
DTSTART:20250610T140000Z
DTEND:20250610T150000Z
ATTENDEE:mailto:a@example.com
ATTENDEE:mailto:b@example.com
END:VEVENT
BEGIN:VEVENT
UID:allday-1
SUMMARY:Company Holiday
DTSTART;VALUE=DATE:20250611
DTEND;VALUE=DATE:20250612
END:VEVENT
BEGIN:VEVENT
UID:daily-1
SUMMARY:Standup
DTSTART:20250610T090000Z
DTEND:20250610T091500Z
RRULE:FREQ=DAILY;COUNT=5
EXDATE:20250612T090000Z
END:VEVENT
BEGIN:VEVENT
UID:daily-1
SUMMARY:Standup (moved)
RECURRENCE-ID:20250611T090000Z
DTSTART:20250611T100000Z
DTEND:20250611T101500Z
END:VEVENT
END:VCALENDAR
`

func icsBody() []byte {
	return []byte(strings.ReplaceAll(feedFixture, "\n", "\r\n"))
}

func testSource(id string) registry.CalendarSource {
	return registry.CalendarSource{ID: id, URL: "http://example.invalid/cal.ics", Enabled: true}
}

func TestParseFeed(t *testing.T) {
	parsed, err := parseFeed(testSource("work"), icsBody())
	require.NoError(t, err)
	require.Len(t, parsed, 4)

	byUID := make(map[string][]parsedEvent)
	for _, ev := range parsed {
		byUID[ev.UID] = append(byUID[ev.UID], ev)
	}

	simple := byUID["simple-1"][0]
	assert.Equal(t, "Design Review", simple.Summary)
	assert.Equal(t, "Room 4A", simple.Location)
	assert.Equal(t, "Agenda attached", simple.Description)
	assert.Equal(t, 2, simple.Attendees)
	assert.False(t, simple.AllDay)
	assert.Equal(t, time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC), simple.Start)
	assert.Equal(t, time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC), simple.End)

	allday := byUID["allday-1"][0]
	assert.True(t, allday.AllDay)

	require.Len(t, byUID["daily-1"], 2)
	var base, override parsedEvent
	for _, ev := range byUID["daily-1"] {
		if ev.RecurrenceID != nil {
			override = ev
		} else {
			base = ev
		}
	}
	assert.Equal(t, "FREQ=DAILY;COUNT=5", base.RawRRule)
	require.Len(t, base.ExDates, 1)
	assert.Equal(t, time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC), base.ExDates[0])
	require.NotNil(t, override.RecurrenceID)
	assert.Equal(t, time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC), *override.RecurrenceID)
}

func TestParseFeed_SkipsEventWithoutUID(t *testing.T) {
	fixture := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//test//EN\r\n" +
		"BEGIN:VEVENT\r\nSUMMARY:No UID\r\nDTSTART:20250610T090000Z\r\nEND:VEVENT\r\n" +
		"END:VCALENDAR\r\n"
	parsed, err := parseFeed(testSource("work"), []byte(fixture))
	require.NoError(t, err)
	assert.Empty(t, parsed)
}

func TestExpandAll_RecurrenceWithExdateAndOverride(t *testing.T) {
	parsed, err := parseFeed(testSource("work"), icsBody())
	require.NoError(t, err)

	from := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	events := expandAll(parsed, from, to, 100, logger.NewNoOpLogger())

	var standups []models.Event
	for _, ev := range events {
		if strings.Contains(ev.ID, "daily-1") {
			standups = append(standups, ev)
		}
	}
	sort.Slice(standups, func(i, j int) bool { return standups[i].Start.Before(standups[j].Start) })

	// COUNT=5 minus the EXDATE on the 12th, with the 11th moved to 10:00.
	require.Len(t, standups, 4)
	assert.Equal(t, time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC), standups[0].Start)
	assert.Equal(t, time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC), standups[1].Start)
	assert.Equal(t, "Standup (moved)", standups[1].Title)
	assert.Equal(t, time.Date(2025, 6, 13, 9, 0, 0, 0, time.UTC), standups[2].Start)
	assert.Equal(t, time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC), standups[3].Start)

	// Instance IDs stay distinct across occurrences.
	seen := make(map[string]bool)
	for _, ev := range standups {
		assert.False(t, seen[ev.ID], "duplicate event ID %s", ev.ID)
		seen[ev.ID] = true
	}
}

func TestExpandAll_RangeFiltering(t *testing.T) {
	parsed, err := parseFeed(testSource("work"), icsBody())
	require.NoError(t, err)

	// A window that only covers June 13.
	from := time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	events := expandAll(parsed, from, to, 100, logger.NewNoOpLogger())

	require.Len(t, events, 1)
	assert.Equal(t, "Standup", events[0].Title)
	assert.Equal(t, time.Date(2025, 6, 13, 9, 0, 0, 0, time.UTC), events[0].Start)
}

func TestEventsBetween_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write(icsBody())
	}))
	defer srv.Close()

	src := registry.CalendarSource{ID: "work", URL: srv.URL, Enabled: true}
	ics := NewICSSource([]registry.CalendarSource{src}, DefaultConfig(), logger.NewNoOpLogger())

	from := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)
	events, err := ics.EventsBetween(context.Background(), from, to)
	require.NoError(t, err)

	// The simple event and the first standup occurrence.
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.True(t, strings.HasPrefix(ev.ID, "work/"))
	}
}

func TestEventsBetween_SkipsFailingSource(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(icsBody())
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	ics := NewICSSource([]registry.CalendarSource{
		{ID: "bad", URL: bad.URL, Enabled: true},
		{ID: "good", URL: good.URL, Enabled: true},
	}, DefaultConfig(), logger.NewNoOpLogger())

	from := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)
	events, err := ics.EventsBetween(context.Background(), from, to)
	require.NoError(t, err)
	assert.NotEmpty(t, events)
}

func TestEventsBetween_AllSourcesFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	ics := NewICSSource([]registry.CalendarSource{
		{ID: "bad", URL: bad.URL, Enabled: true},
	}, DefaultConfig(), logger.NewNoOpLogger())

	_, err := ics.EventsBetween(context.Background(), time.Now(), time.Now().Add(24*time.Hour))
	require.Error(t, err)
}

func TestNewICSSource_FiltersDisabled(t *testing.T) {
	ics := NewICSSource([]registry.CalendarSource{
		{ID: "on", URL: "http://example.invalid/a.ics", Enabled: true},
		{ID: "off", URL: "http://example.invalid/b.ics", Enabled: false},
	}, DefaultConfig(), logger.NewNoOpLogger())
	assert.Len(t, ics.sources, 1)
}
