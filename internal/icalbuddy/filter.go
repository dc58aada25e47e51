package icalbuddy

import (
	"strings"

	"datestack/internal/model"
)

// FilterByKeywords drops events whose title contains any keyword, ignoring
// case. With no keywords the input slice is returned as is.
func FilterByKeywords(events []model.Event, keywords []string) []model.Event {
	if len(keywords) == 0 {
		return events
	}

	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		lowered = append(lowered, strings.ToLower(kw))
	}

	filtered := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if !containsAny(strings.ToLower(ev.Title), lowered) {
			filtered = append(filtered, ev)
		}
	}
	return filtered
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
