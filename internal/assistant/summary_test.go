package assistant

import (
	"testing"
	"time"

	"github.com/hostscout/concierge/internal/model"
)

func TestShouldRefresh(t *testing.T) {
	throttle := 10 * time.Minute
	s := &Summarizer{throttle: throttle}

	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-1 * time.Minute)
	stale := now.Add(-30 * time.Minute)

	tests := []struct {
		name      string
		session   model.ChatSession
		lastMsgAt *time.Time
		force     bool
		want      bool
	}{
		{
			name:    "force overrides everything",
			session: model.ChatSession{IsResolved: true},
			force:   true,
			want:    true,
		},
		{
			name:      "resolved sessions stop refreshing",
			session:   model.ChatSession{IsResolved: true},
			lastMsgAt: &recent,
			want:      false,
		},
		{
			name:    "no messages, nothing to summarize",
			session: model.ChatSession{},
			want:    false,
		},
		{
			name:      "never summarized runs immediately",
			session:   model.ChatSession{},
			lastMsgAt: &recent,
			want:      true,
		},
		{
			name:      "no new messages since last summary",
			session:   model.ChatSession{AISummaryUpdatedAt: &recent},
			lastMsgAt: &stale,
			want:      false,
		},
		{
			name:      "new messages but inside throttle",
			session:   model.ChatSession{AISummaryUpdatedAt: &recent},
			lastMsgAt: &now,
			want:      false,
		},
		{
			name:      "new messages past the throttle",
			session:   model.ChatSession{AISummaryUpdatedAt: &stale},
			lastMsgAt: &recent,
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.ShouldRefresh(&tt.session, tt.lastMsgAt, tt.force, now)
			if got != tt.want {
				t.Errorf("ShouldRefresh() = %v, want %v", got, tt.want)
			}
		})
	}
}
