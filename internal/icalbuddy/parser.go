package icalbuddy

import (
	"strings"

	"datestack/internal/flexdate"
	appLog "datestack/internal/log"
	"datestack/internal/model"
)

// UntitledPlaceholder replaces an empty title field.
const UntitledPlaceholder = "Untitled"

// Stats describes what a single Parse call saw and discarded.
type Stats struct {
	Records   int
	Fragments int

	// DroppedShort counts fragments with fewer than two fields.
	DroppedShort int
	// DroppedNoStart counts fragments whose datetime field gave no start.
	DroppedNoStart int
	// OpenEnded counts returned events that have no end time.
	OpenEnded int

	Events int
}

// Dropped is the total number of fragments that produced no event.
func (s Stats) Dropped() int {
	return s.DroppedShort + s.DroppedNoStart
}

// Parser converts icalBuddy output into events. The zero value is not
// usable; construct it with NewParser. A Parser may be shared between
// goroutines.
type Parser struct {
	dates *flexdate.Parser
}

type ParserOption func(*Parser)

// WithDateParser sets the flexible parser used for datetime fields.
func WithDateParser(dp *flexdate.Parser) ParserOption {
	return func(p *Parser) {
		if dp != nil {
			p.dates = dp
		}
	}
}

func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{dates: flexdate.New()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = NewParser()

// ParseOutput parses with a default Parser and discards the statistics.
func ParseOutput(output string, allDay bool) []model.Event {
	events, _ := defaultParser.Parse(output, allDay)
	return events
}

// Parse turns one captured icalBuddy run into events, tagging each with
// allDay. The result is never nil.
func (p *Parser) Parse(output string, allDay bool) ([]model.Event, Stats) {
	events := make([]model.Event, 0)
	var stats Stats

	if strings.TrimSpace(output) == "" {
		return events, stats
	}

	records := AssembleRecords(Sanitize(output))
	stats.Records = len(records)

	for _, rec := range records {
		fragments, short := splitRecord(rec.Text)
		stats.Fragments += len(fragments) + short
		stats.DroppedShort += short

		for _, fields := range fragments {
			ev := p.extract(fields, allDay, rec.Calendar)
			if ev.StartTime == nil {
				stats.DroppedNoStart++
				continue
			}
			if ev.EndTime == nil {
				stats.OpenEnded++
			}
			events = append(events, ev)
		}
	}
	stats.Events = len(events)

	if stats.Dropped() > 0 {
		appLog.Debug("icalbuddy fragments dropped",
			"all_day", allDay,
			"short", stats.DroppedShort,
			"no_start", stats.DroppedNoStart,
			"kept", stats.Events,
		)
	}

	return events, stats
}

// labeledFields route fields after the title and datetime, matched on a
// case-insensitive prefix in this order.
var labeledFields = []struct {
	prefix string
	set    func(ev *model.Event, value string)
}{
	{"location:", func(ev *model.Event, v string) { ev.Location = &v }},
	{"notes:", func(ev *model.Event, v string) { ev.Notes = &v }},
	{"uid:", func(ev *model.Event, v string) { ev.ExternalID = &v }},
}

func (p *Parser) extract(fields []string, allDay bool, calendar *string) model.Event {
	title := strings.TrimSpace(fields[0])
	if title == "" {
		title = UntitledPlaceholder
	}

	ev := model.Event{
		Title:  title,
		AllDay: allDay,
	}
	if calendar != nil {
		ev.CalendarName = model.StringPtr(*calendar)
	}

	if dt := strings.TrimSpace(fields[1]); dt != "" {
		ev.StartTime, ev.EndTime = p.ResolveRange(dt, allDay)
	}

	for _, field := range fields[2:] {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		for _, lf := range labeledFields {
			if value, ok := cutLabel(field, lf.prefix); ok {
				lf.set(&ev, value)
				break
			}
		}
	}

	return ev
}

func cutLabel(field, prefix string) (string, bool) {
	if len(field) < len(prefix) || !strings.EqualFold(field[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(field[len(prefix):]), true
}
