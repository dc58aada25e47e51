package ics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datestack/internal/model"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC) }

func render(t *testing.T, events []model.Event) *ical.Calendar {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, events, Options{Name: "My Mac", Now: fixedNow}))

	cal, err := ical.ParseCalendar(strings.NewReader(buf.String()))
	require.NoError(t, err)
	return cal
}

func TestWrite_TimedNaiveEvent(t *testing.T) {
	events := []model.Event{{
		Title:        "Team Sync",
		StartTime:    model.NewTimestamp(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), true),
		EndTime:      model.NewTimestamp(time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC), true),
		Location:     model.StringPtr("Room A"),
		Notes:        model.StringPtr("bring laptop"),
		ExternalID:   model.StringPtr("abc-123"),
		CalendarName: model.StringPtr("Work"),
	}}

	cal := render(t, events)
	require.Len(t, cal.Events(), 1)
	ve := cal.Events()[0]

	assert.Equal(t, "abc-123", ve.Id())
	assert.Equal(t, "Team Sync", ve.GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "20240301T100000", ve.GetProperty(ical.ComponentPropertyDtStart).Value)
	assert.Equal(t, "20240301T110000", ve.GetProperty(ical.ComponentPropertyDtEnd).Value)
	assert.Equal(t, "Room A", ve.GetProperty(ical.ComponentPropertyLocation).Value)
	assert.Equal(t, "bring laptop", ve.GetProperty(ical.ComponentPropertyDescription).Value)
	assert.Equal(t, "Work", ve.GetProperty(ical.ComponentPropertyCategories).Value)
}

func TestWrite_ZonedEventInUTC(t *testing.T) {
	zone := time.FixedZone("", 9*3600)
	cal := render(t, []model.Event{{
		Title:     "Call",
		StartTime: model.NewTimestamp(time.Date(2024, 3, 1, 18, 0, 0, 0, zone), false),
	}})

	ve := cal.Events()[0]
	assert.Equal(t, "20240301T090000Z", ve.GetProperty(ical.ComponentPropertyDtStart).Value)
	assert.Nil(t, ve.GetProperty(ical.ComponentPropertyDtEnd))
}

func TestWrite_AllDayEvent(t *testing.T) {
	cal := render(t, []model.Event{{
		Title:     "Holiday",
		StartTime: model.NewTimestamp(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), true),
		AllDay:    true,
	}})

	ve := cal.Events()[0]
	start := ve.GetProperty(ical.ComponentPropertyDtStart)
	assert.Equal(t, "20240302", start.Value)
	assert.Equal(t, "20240303", ve.GetProperty(ical.ComponentPropertyDtEnd).Value)
}

func TestWrite_SkipsEventsWithoutStart(t *testing.T) {
	cal := render(t, []model.Event{{Title: "Ghost"}})
	assert.Empty(t, cal.Events())
}

func TestUID(t *testing.T) {
	ev := model.Event{
		Title:        "Standup",
		StartTime:    model.NewTimestamp(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), true),
		CalendarName: model.StringPtr("Work"),
	}

	first := UID(ev)
	assert.Equal(t, first, UID(ev))
	assert.Len(t, first, 36)

	other := ev
	other.Title = "Retro"
	assert.NotEqual(t, first, UID(other))

	ev.ExternalID = model.StringPtr(" uid-1 ")
	assert.Equal(t, "uid-1", UID(ev))

	assert.NotPanics(t, func() { UID(model.Event{Title: "no start"}) })
}
