package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_String(t *testing.T) {
	tests := []struct {
		name string
		ts   Timestamp
		want string
	}{
		{
			name: "naive",
			ts:   Timestamp{Time: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), Naive: true},
			want: "2024-03-01T10:00:00",
		},
		{
			name: "naive with microseconds",
			ts:   Timestamp{Time: time.Date(2024, 3, 1, 10, 0, 0, 250000000, time.UTC), Naive: true},
			want: "2024-03-01T10:00:00.250000",
		},
		{
			name: "utc offset",
			ts:   Timestamp{Time: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
			want: "2024-03-01T10:00:00+00:00",
		},
		{
			name: "negative offset preserved",
			ts:   Timestamp{Time: time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("", -5*3600))},
			want: "2024-03-01T10:00:00-05:00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ts.String())
		})
	}
}

func TestEvent_JSON(t *testing.T) {
	ev := Event{
		Title:     "Team Sync",
		StartTime: NewTimestamp(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), true),
		Location:  StringPtr("Room A"),
	}

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Team Sync", got["title"])
	assert.Equal(t, "2024-03-01T10:00:00", got["start_time"])
	assert.Nil(t, got["end_time"])
	assert.Equal(t, "Room A", got["location"])
	assert.Nil(t, got["notes"])
	assert.Nil(t, got["calendar_name"])
	assert.Equal(t, false, got["all_day"])
}

func TestDeref(t *testing.T) {
	assert.Equal(t, "", Deref(nil))
	assert.Equal(t, "x", Deref(StringPtr("x")))
}
