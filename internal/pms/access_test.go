package pms

import (
	"testing"
	"time"
)

func TestStayStage(t *testing.T) {
	arrival := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	departure := time.Date(2026, 6, 13, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"before arrival", time.Date(2026, 6, 8, 12, 0, 0, 0, time.UTC), "pre_arrival"},
		{"arrival day", time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC), "in_stay"},
		{"mid stay", time.Date(2026, 6, 11, 23, 0, 0, 0, time.UTC), "in_stay"},
		{"departure day", time.Date(2026, 6, 13, 8, 0, 0, 0, time.UTC), "in_stay"},
		{"after departure", time.Date(2026, 6, 14, 1, 0, 0, 0, time.UTC), "post_stay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StayStage(arrival, departure, tt.now); got != tt.want {
				t.Errorf("StayStage(now=%v) = %q, want %q", tt.now, got, tt.want)
			}
		})
	}
}
