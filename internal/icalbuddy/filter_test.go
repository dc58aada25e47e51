package icalbuddy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"datestack/internal/model"
)

func titled(titles ...string) []model.Event {
	events := make([]model.Event, 0, len(titles))
	for _, title := range titles {
		events = append(events, model.Event{Title: title})
	}
	return events
}

func titles(events []model.Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Title)
	}
	return out
}

func TestFilterByKeywords(t *testing.T) {
	tests := []struct {
		name     string
		events   []model.Event
		keywords []string
		want     []string
	}{
		{"substring match", titled("Dentist", "Team Sync"), []string{"dent"}, []string{"Team Sync"}},
		{"case insensitive keyword", titled("lunch", "Standup"), []string{"LUNCH"}, []string{"Standup"}},
		{"any keyword", titled("Gym", "Dentist", "Sync"), []string{"gym", "dent"}, []string{"Sync"}},
		{"no match", titled("A", "B"), []string{"zzz"}, []string{"A", "B"}},
		{"everything removed", titled("Private"), []string{"priv"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titles(FilterByKeywords(tt.events, tt.keywords)))
		})
	}
}

func TestFilterByKeywords_EmptyIsIdentity(t *testing.T) {
	events := titled("B", "A", "C")
	got := FilterByKeywords(events, nil)
	assert.Equal(t, events, got)
	assert.Equal(t, []string{"B", "A", "C"}, titles(got))
}
