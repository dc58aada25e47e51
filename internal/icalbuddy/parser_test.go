package icalbuddy

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datestack/internal/model"
)

func TestParse_FullRoundTrip(t *testing.T) {
	out := "|||Team Sync :: 2024-03-01T10:00:00 - 2024-03-01T11:00:00 :: location: Room A :: notes: bring laptop :: uid: abc-123"

	events, stats := newTestParser().Parse(out, false)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "Team Sync", ev.Title)
	assert.Equal(t, "2024-03-01T10:00:00", ev.StartTime.String())
	require.NotNil(t, ev.EndTime)
	assert.Equal(t, "2024-03-01T11:00:00", ev.EndTime.String())
	assert.Equal(t, "Room A", model.Deref(ev.Location))
	assert.Equal(t, "bring laptop", model.Deref(ev.Notes))
	assert.Equal(t, "abc-123", model.Deref(ev.ExternalID))
	assert.False(t, ev.AllDay)
	assert.Nil(t, ev.CalendarName)

	assert.Equal(t, Stats{Records: 1, Fragments: 1, Events: 1}, stats)
}

func TestParse_HeaderScoping(t *testing.T) {
	out := "Work:\n---\n|||Standup :: 2024-01-15T09:00:00 - 2024-01-15T09:30:00"

	events := ParseOutput(out, false)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].CalendarName)
	assert.Equal(t, "Work", *events[0].CalendarName)
}

func TestParse_AllDaySingleInstant(t *testing.T) {
	events, stats := newTestParser().Parse("Home:\n------\n|||Holiday :: 2024-03-02", true)
	require.Len(t, events, 1)

	assert.True(t, events[0].AllDay)
	assert.Equal(t, "2024-03-02T00:00:00", events[0].StartTime.String())
	assert.Nil(t, events[0].EndTime)
	assert.Equal(t, 1, stats.OpenEnded)
}

func TestParse_DroppedFragments(t *testing.T) {
	out := "|||Only a title\n" +
		"|||Broken :: garbled nonsense\n" +
		"|||Kept :: 2024-03-01T10:00:00"

	events, stats := newTestParser().Parse(out, false)
	require.Len(t, events, 1)
	assert.Equal(t, "Kept", events[0].Title)

	assert.Equal(t, 3, stats.Records)
	assert.Equal(t, 3, stats.Fragments)
	assert.Equal(t, 1, stats.DroppedShort)
	assert.Equal(t, 1, stats.DroppedNoStart)
	assert.Equal(t, 2, stats.Dropped())
}

func TestParse_MultipleFragmentsPerRecord(t *testing.T) {
	out := "Work:\n" +
		"|||A :: 2024-03-01T09:00:00|||B :: 2024-03-01T10:00:00 - 10:30:00 :: uid: b"

	events := ParseOutput(out, false)
	require.Len(t, events, 2)
	assert.Equal(t, "A", events[0].Title)
	assert.Equal(t, "B", events[1].Title)
	assert.Equal(t, "2024-03-01T10:30:00", events[1].EndTime.String())
	assert.Equal(t, "b", model.Deref(events[1].ExternalID))
	assert.Equal(t, "Work", model.Deref(events[0].CalendarName))
	assert.Equal(t, "Work", model.Deref(events[1].CalendarName))
}

func TestParse_WrappedNotesAndAnsi(t *testing.T) {
	out := "\x1b[1mPersonal:\x1b[0m\n" +
		"------------------------\n" +
		"|||\x1b[33mOffsite\x1b[0m :: 2024-04-10T09:00:00 - 2024-04-10T17:00:00 :: notes: agenda is\n" +
		"       in the shared doc :: location: HQ\n"

	events := ParseOutput(out, false)
	require.Len(t, events, 1)
	assert.Equal(t, "Offsite", events[0].Title)
	assert.Equal(t, "agenda is in the shared doc", model.Deref(events[0].Notes))
	assert.Equal(t, "HQ", model.Deref(events[0].Location))
	assert.Equal(t, "Personal", model.Deref(events[0].CalendarName))
}

func TestParse_Labels(t *testing.T) {
	out := "|||X :: 2024-03-01 :: LOCATION:  Room 1  :: Uid:u-1 :: attendees: bob ::  :: notes:"

	events := ParseOutput(out, false)
	require.Len(t, events, 1)
	assert.Equal(t, "Room 1", model.Deref(events[0].Location))
	assert.Equal(t, "u-1", model.Deref(events[0].ExternalID))
	require.NotNil(t, events[0].Notes)
	assert.Equal(t, "", *events[0].Notes)
}

func TestParse_EmptyOutput(t *testing.T) {
	for _, out := range []string{"", "  \n\n", "\x1b[0m"} {
		events, stats := newTestParser().Parse(out, false)
		assert.NotNil(t, events)
		assert.Empty(t, events)
		assert.Zero(t, stats.Events)
	}
}

func TestExtract_UntitledPlaceholder(t *testing.T) {
	ev := newTestParser().extract([]string{"   ", "2024-03-01T10:00:00"}, false, nil)
	assert.Equal(t, UntitledPlaceholder, ev.Title)
	require.NotNil(t, ev.StartTime)
}

func TestExtract_EmptyDatetimeField(t *testing.T) {
	ev := newTestParser().extract([]string{"Title", "  "}, false, nil)
	assert.Nil(t, ev.StartTime)
	assert.Nil(t, ev.EndTime)
}

func TestExtract_CalendarNameCopied(t *testing.T) {
	cal := "Work"
	ev := newTestParser().extract([]string{"T", "2024-03-01"}, false, &cal)
	cal = "Changed"
	assert.Equal(t, "Work", model.Deref(ev.CalendarName))
}

func TestParse_ConcurrentCalls(t *testing.T) {
	p := newTestParser()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out := fmt.Sprintf("Cal%d:\n|||Event %d :: 2024-03-0%dT10:00:00", i, i, i+1)
			events, _ := p.Parse(out, i%2 == 0)
			if assert.Len(t, events, 1) {
				assert.Equal(t, fmt.Sprintf("Cal%d", i), model.Deref(events[0].CalendarName))
				assert.Equal(t, i%2 == 0, events[0].AllDay)
			}
		}(i)
	}
	wg.Wait()
}
