package icalbuddy

import (
	"strings"

	"datestack/internal/flexdate"
	"datestack/internal/model"
)

const (
	atSeparator    = " at "
	rangeSeparator = " - "
)

// ResolveRange parses the datetime field of a fragment. Formats seen in
// icalBuddy output include:
//
//	2024-01-15 at 2024-01-15T09:00:00 - 2024-01-15T10:00:00
//	2024-01-15T09:00:00 - 2024-01-15T10:00:00
//	2024-01-15T09:00:00 - 10:00:00
//	2024-01-15
//
// A nil start means the field is unusable. allDay is carried on the event by
// the caller and does not change how the field is read.
func (p *Parser) ResolveRange(text string, allDay bool) (start, end *model.Timestamp) {
	if _, after, found := strings.Cut(text, atSeparator); found {
		text = strings.TrimSpace(after)
	}

	left, right, found := strings.Cut(text, rangeSeparator)
	if !found {
		r, ok := p.dates.Parse(text)
		if !ok {
			return nil, nil
		}
		return r.Timestamp(), nil
	}

	startRes, ok := p.dates.Parse(left)
	if !ok {
		return nil, nil
	}
	start = startRes.Timestamp()

	right = strings.TrimSpace(right)
	if right == "" {
		return start, nil
	}

	// An end written as a bare time of day shares the start's date.
	endRes, ok := p.dates.Parse(right)
	switch {
	case ok && endRes.Kind == flexdate.TimeOfDay:
		endRes = endRes.OnDate(startRes.Time)
	case !ok:
		endRes, ok = p.dates.ParseStrict(start.Date() + "T" + right)
	}
	if ok {
		end = endRes.Timestamp()
	}
	return start, end
}
