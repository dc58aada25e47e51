// Package ics renders parsed events as an iCalendar document.
package ics

import (
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	appLog "datestack/internal/log"
	"datestack/internal/model"
)

const (
	ProductID = "-//datestack//datestack client//EN"

	floatingLayout = "20060102T150405"
)

// uidNamespace seeds generated UIDs so that the same event renders with the
// same UID on every run.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://datestack.local/events"))

type Options struct {
	// Name becomes X-WR-CALNAME when set.
	Name string
	// Now stamps DTSTAMP; defaults to time.Now.
	Now func() time.Time
}

// Build converts events into a calendar. Events without a start are
// skipped. Naive timestamps are written as floating local times, zoned ones
// in UTC, and all-day events as DATE values.
func Build(events []model.Event, opts Options) *ical.Calendar {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	stamp := now().UTC()

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	skipped := 0
	for _, ev := range events {
		if ev.StartTime == nil {
			skipped++
			continue
		}

		ve := cal.AddEvent(UID(ev))
		ve.SetDtStampTime(stamp)
		ve.SetSummary(ev.Title)

		start := ev.StartTime
		switch {
		case ev.AllDay:
			ve.SetAllDayStartAt(start.Time)
			end := start.Time.AddDate(0, 0, 1)
			if ev.EndTime != nil && ev.EndTime.Time.After(start.Time) {
				end = ev.EndTime.Time
			}
			ve.SetAllDayEndAt(end)
		default:
			setTime(ve, ical.ComponentPropertyDtStart, start)
			if ev.EndTime != nil {
				setTime(ve, ical.ComponentPropertyDtEnd, ev.EndTime)
			}
		}

		if ev.Location != nil && *ev.Location != "" {
			ve.SetLocation(*ev.Location)
		}
		if ev.Notes != nil && *ev.Notes != "" {
			ve.SetDescription(*ev.Notes)
		}
		if ev.CalendarName != nil && *ev.CalendarName != "" {
			ve.SetProperty(ical.ComponentPropertyCategories, *ev.CalendarName)
		}
	}

	if skipped > 0 {
		appLog.Debug("ics render skipped events without start", "skipped", skipped)
	}
	return cal
}

// Write renders events to w.
func Write(w io.Writer, events []model.Event, opts Options) error {
	_, err := io.WriteString(w, Build(events, opts).Serialize())
	return err
}

func setTime(ve *ical.VEvent, prop ical.ComponentProperty, ts *model.Timestamp) {
	if ts.Naive {
		ve.SetProperty(prop, ts.Time.Format(floatingLayout))
		return
	}
	if prop == ical.ComponentPropertyDtEnd {
		ve.SetEndAt(ts.Time)
		return
	}
	ve.SetStartAt(ts.Time)
}

// UID is the event's external id when it has one, otherwise a name-based
// UUID over its calendar, title and start.
func UID(ev model.Event) string {
	if ev.ExternalID != nil && strings.TrimSpace(*ev.ExternalID) != "" {
		return strings.TrimSpace(*ev.ExternalID)
	}
	start := ""
	if ev.StartTime != nil {
		start = ev.StartTime.String()
	}
	key := strings.Join([]string{model.Deref(ev.CalendarName), ev.Title, start}, "\x00")
	return uuid.NewSHA1(uidNamespace, []byte(key)).String()
}
