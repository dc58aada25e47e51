// Package flexdate parses the loosely formatted date and time strings that
// calendar exports produce. Parse never returns an error: unrecognized input
// is reported through the boolean result.
package flexdate

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"datestack/internal/model"
)

// Kind describes which components the input text carried.
type Kind int

const (
	DateTime Kind = iota
	Date
	TimeOfDay
)

func (k Kind) String() string {
	switch k {
	case Date:
		return "date"
	case TimeOfDay:
		return "time"
	default:
		return "datetime"
	}
}

// Result is a successfully parsed instant.
type Result struct {
	Time time.Time
	// Naive is true when the text had no UTC offset or zone.
	Naive bool
	Kind  Kind
}

// Timestamp converts r into the canonical model representation.
func (r Result) Timestamp() *model.Timestamp {
	return model.NewTimestamp(r.Time, r.Naive)
}

// Clock supplies the reference date for bare times of day.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

type FixedClock struct {
	FixedNow time.Time
}

func (c FixedClock) Now() time.Time {
	return c.FixedNow
}

// Parser is safe for concurrent use; it holds no mutable state.
type Parser struct {
	clock Clock
}

type Option func(*Parser)

// WithClock overrides the clock used to date bare times of day.
func WithClock(c Clock) Option {
	return func(p *Parser) {
		if c != nil {
			p.clock = c
		}
	}
}

func New(opts ...Option) *Parser {
	p := &Parser{clock: SystemClock{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var (
	zonedLayouts = []string{
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04Z07:00",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04Z07:00",
		"2006-01-02T15:04:05-0700",
		"2006-01-02 15:04:05-0700",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
	}
	dateLayouts = []string{
		"2006-01-02",
		"2006/01/02",
	}
	timeLayouts = []string{
		"15:04:05",
		"15:04",
		"3:04 PM",
		"3:04PM",
		"3:04 pm",
		"3:04pm",
		"3 PM",
		"3PM",
		"3pm",
	}
)

// Parse tries the ISO forms first, then bare dates and times of day, then
// free-form text. A bare time of day is placed on the clock's current date.
func (p *Parser) Parse(text string) (Result, bool) {
	if r, ok := p.ParseStrict(text); ok {
		return r, true
	}
	return parseFreeform(strings.TrimSpace(text))
}

// ParseStrict is Parse without the free-form fallback.
func (p *Parser) ParseStrict(text string) (Result, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, false
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return Result{Time: t, Kind: DateTime}, true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return Result{Time: t, Naive: true, Kind: DateTime}, true
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return Result{Time: t, Naive: true, Kind: Date}, true
		}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			now := p.clock.Now()
			anchored := time.Date(now.Year(), now.Month(), now.Day(),
				t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
			return Result{Time: anchored, Naive: true, Kind: TimeOfDay}, true
		}
	}

	return Result{}, false
}

// OnDate moves a time-of-day result onto the calendar date of day, keeping
// its wall clock. The result is naive.
func (r Result) OnDate(day time.Time) Result {
	t := r.Time
	return Result{
		Time:  time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC),
		Naive: true,
		Kind:  DateTime,
	}
}

// probeZones are two fixed zones with different offsets. Text without an
// offset lands in whichever zone it is parsed in with the same wall clock;
// anything else either keeps its own zone or shifts between the two.
var probeZones = [2]*time.Location{
	time.FixedZone("flexdate-east", 3*3600),
	time.FixedZone("flexdate-west", -5*3600),
}

// utcNames are the zero-offset zone names that really mean UTC. Other
// abbreviations dateparse cannot resolve come back with a zero offset and
// are treated as naive.
var utcNames = map[string]bool{"": true, "UTC": true, "GMT": true, "Z": true}

func parseFreeform(text string) (res Result, ok bool) {
	if text == "" || !strings.ContainsAny(text, "0123456789") {
		return Result{}, false
	}
	// Bare numbers are epoch values or noise, never a calendar date.
	if strings.Trim(text, "0123456789") == "" {
		return Result{}, false
	}

	defer func() {
		if r := recover(); r != nil {
			res, ok = Result{}, false
		}
	}()

	var parsed [2]time.Time
	for i, loc := range probeZones {
		t, err := dateparse.ParseIn(text, loc)
		if err != nil {
			return Result{}, false
		}
		parsed[i] = t
	}

	a, b := parsed[0], parsed[1]
	if a.Location() == probeZones[0] && b.Location() == probeZones[1] && sameWallClock(a, b) {
		return Result{Time: wallClock(a), Naive: true, Kind: DateTime}, true
	}

	name, offset := a.Zone()
	if offset == 0 && !utcNames[name] {
		return Result{Time: wallClock(a), Naive: true, Kind: DateTime}, true
	}
	return Result{Time: a, Kind: DateTime}, true
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func sameWallClock(a, b time.Time) bool {
	return wallClock(a).Equal(wallClock(b))
}
