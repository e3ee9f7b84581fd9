package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSlot(t *testing.T) {
	// 2022-10-21 - пятница (weekday 4)
	start := time.Date(2022, 10, 21, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		from     time.Time
		weekday  int
		hour     int
		minute   int
		expected time.Time
	}{
		{"same day, time ahead", start, 4, 10, 0, time.Date(2022, 10, 21, 10, 0, 0, 0, time.UTC)},
		{"same day, time passed", start, 4, 6, 0, time.Date(2022, 10, 28, 6, 0, 0, 0, time.UTC)},
		{"later weekday, time ahead", start, 6, 10, 0, time.Date(2022, 10, 23, 10, 0, 0, 0, time.UTC)},
		{"later weekday, earlier time", start, 6, 6, 0, time.Date(2022, 10, 23, 6, 0, 0, 0, time.UTC)},
		{"earlier weekday wraps", start, 1, 10, 0, time.Date(2022, 10, 25, 10, 0, 0, 0, time.UTC)},
		{"earlier weekday wraps, earlier time", start, 1, 6, 0, time.Date(2022, 10, 25, 6, 0, 0, 0, time.UTC)},
		{"exact time rolls a week", start, 4, 8, 0, time.Date(2022, 10, 28, 8, 0, 0, 0, time.UTC)},
		{"seconds are zeroed", start.Add(42 * time.Second), 4, 10, 0, time.Date(2022, 10, 21, 10, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NextSlot(tt.from, tt.weekday, tt.hour, tt.minute))
		})
	}
}

func TestNextSlot_Properties(t *testing.T) {
	from := time.Date(2023, 3, 1, 13, 37, 11, 0, time.UTC)

	for weekday := 0; weekday < 7; weekday++ {
		for _, clock := range [][2]int{{0, 0}, {9, 30}, {13, 37}, {23, 59}} {
			next := NextSlot(from, weekday, clock[0], clock[1])

			require.True(t, next.After(from), "next slot must be strictly after from")
			require.LessOrEqual(t, next.Sub(from), 7*24*time.Hour)
			require.Equal(t, clock[0], next.Hour())
			require.Equal(t, clock[1], next.Minute())
			require.Zero(t, next.Second())
		}
	}
}

func TestWeeklySlot_DurationMinutes(t *testing.T) {
	tests := []struct {
		name                                         string
		startHour, startMinute, endHour, endMinute   int
		expected                                     int
	}{
		{"one hour", 10, 0, 11, 0, 60},
		{"ninety minutes", 9, 30, 11, 0, 90},
		{"wraps past midnight", 22, 0, 1, 0, 180},
		{"wraps with minutes", 23, 45, 0, 15, 30},
		{"zero duration", 10, 0, 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &WeeklySlot{StartHour: tt.startHour, StartMinute: tt.startMinute, EndHour: tt.endHour, EndMinute: tt.endMinute}
			assert.Equal(t, tt.expected, w.DurationMinutes())
		})
	}
}
