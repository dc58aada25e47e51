package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is one calendar entry recovered from a calendar export. Optional
// text attributes are nil when the export did not carry the labeled field.
type Event struct {
	Title string `json:"title"`

	// StartTime is always set on events returned by the parser.
	StartTime *Timestamp `json:"start_time"`
	EndTime   *Timestamp `json:"end_time"`

	AllDay bool `json:"all_day"`

	Location   *string `json:"location"`
	Notes      *string `json:"notes"`
	ExternalID *string `json:"external_id"`

	// CalendarName is the section header the event appeared under, nil if
	// it preceded any header.
	CalendarName *string `json:"calendar_name"`
}

// Timestamp is an instant as it was written in the source text. Naive
// timestamps carried no offset and are rendered without one.
type Timestamp struct {
	Time  time.Time
	Naive bool
}

// NewTimestamp wraps t. When naive is true the wall clock of t is kept and
// its location is ignored.
func NewTimestamp(t time.Time, naive bool) *Timestamp {
	return &Timestamp{Time: t, Naive: naive}
}

// String renders the canonical form: 2006-01-02T15:04:05, with .ffffff when
// microseconds are non-zero and a ±hh:mm offset for non-naive values.
func (ts Timestamp) String() string {
	t := ts.Time
	out := t.Format("2006-01-02T15:04:05")
	if us := t.Nanosecond() / 1000; us != 0 {
		out += fmt.Sprintf(".%06d", us)
	}
	if !ts.Naive {
		out += t.Format("-07:00")
	}
	return out
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

// Date returns the calendar date portion as 2006-01-02.
func (ts Timestamp) Date() string {
	return ts.Time.Format("2006-01-02")
}

// StringPtr returns a pointer to s; used for the optional text attributes.
func StringPtr(s string) *string {
	return &s
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
