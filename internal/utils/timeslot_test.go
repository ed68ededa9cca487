package utils

import (
	"testing"
	"time"
)

func TestNextAvailableQuarterHour(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"mid slot", time.Date(2025, 6, 10, 10, 3, 27, 0, time.UTC), "10:15"},
		{"just before boundary", time.Date(2025, 6, 10, 10, 14, 59, 0, time.UTC), "10:15"},
		{"on boundary advances", time.Date(2025, 6, 10, 10, 15, 0, 0, time.UTC), "10:30"},
		{"top of hour advances", time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC), "10:15"},
		{"rolls over the hour", time.Date(2025, 6, 10, 10, 50, 0, 0, time.UTC), "11:00"},
		{"rolls over midnight", time.Date(2025, 6, 10, 23, 50, 0, 0, time.UTC), "00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextAvailableQuarterHour(tt.now)
			if got.Format(TimeLayout) != tt.want {
				t.Errorf("got %s, want %s", got.Format(TimeLayout), tt.want)
			}
			if got.Second() != 0 || got.Nanosecond() != 0 {
				t.Errorf("seconds should be zeroed, got %v", got)
			}
			diff := got.Sub(tt.now)
			if diff <= 0 || diff > 15*time.Minute {
				t.Errorf("result must be 1 to 15 minutes ahead, got %v", diff)
			}
		})
	}
}

func TestMinStartTime(t *testing.T) {
	now := time.Date(2025, 6, 10, 10, 3, 0, 0, time.UTC)
	if got := MinStartTime("2025-06-10", now); got != "10:15" {
		t.Errorf("today should floor to the next quarter hour, got %q", got)
	}
	if got := MinStartTime("2025-06-11", now); got != "00:00" {
		t.Errorf("future dates have no floor, got %q", got)
	}
}

func TestIsAllowedDuration(t *testing.T) {
	for _, h := range AllowedDurations {
		if !IsAllowedDuration(h) {
			t.Errorf("%d hours should be allowed", h)
		}
	}
	for _, h := range []int{0, 7, 9, 13, 48, -1} {
		if IsAllowedDuration(h) {
			t.Errorf("%d hours should not be allowed", h)
		}
	}
}
