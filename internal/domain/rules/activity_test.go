package rules

import (
	"testing"
	"time"
)

func atHour(h int) time.Time {
	return time.Date(2025, time.March, 14, h, 30, 0, 0, time.UTC)
}

func TestIsActiveHourDaytimeWindow(t *testing.T) {
	tests := []struct {
		hour int
		want bool
	}{
		{hour: 7, want: false},
		{hour: 8, want: true},
		{hour: 15, want: true},
		{hour: 22, want: true},
		{hour: 23, want: false},
	}

	for _, tt := range tests {
		if got := IsActiveHour(atHour(tt.hour), 8, 22); got != tt.want {
			t.Fatalf("IsActiveHour(hour=%d, 8, 22) = %v, want %v", tt.hour, got, tt.want)
		}
	}
}

func TestIsActiveHourOvernightWindow(t *testing.T) {
	tests := []struct {
		hour int
		want bool
	}{
		{hour: 22, want: true},
		{hour: 23, want: true},
		{hour: 0, want: true},
		{hour: 6, want: true},
		{hour: 7, want: false},
		{hour: 12, want: false},
		{hour: 21, want: false},
	}

	for _, tt := range tests {
		if got := IsActiveHour(atHour(tt.hour), 22, 6); got != tt.want {
			t.Fatalf("IsActiveHour(hour=%d, 22, 6) = %v, want %v", tt.hour, got, tt.want)
		}
	}
}

func TestIsActiveHourFullDay(t *testing.T) {
	for h := 0; h < 24; h++ {
		if !IsActiveHour(atHour(h), 0, 23) {
			t.Fatalf("expected hour %d active in 0-23 window", h)
		}
	}
}
