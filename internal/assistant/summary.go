package assistant

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hostscout/concierge/internal/model"
	"github.com/hostscout/concierge/prometheus"
)

// Summarizer maintains the per-session AI summary shown on the admin inbox
type Summarizer struct {
	db       *gorm.DB
	llm      *OpenAIClient
	maxMsgs  int
	throttle time.Duration
}

// NewSummarizer creates a Summarizer
func NewSummarizer(db *gorm.DB, llm *OpenAIClient, maxMsgs int, throttle time.Duration) *Summarizer {
	return &Summarizer{db: db, llm: llm, maxMsgs: maxMsgs, throttle: throttle}
}

// ShouldRefresh decides whether to call the model again.
//   - force overrides everything (the manual refresh button)
//   - resolved chats stop auto-refreshing
//   - only new messages since the last summary warrant a refresh
//   - refreshes are throttled
func (s *Summarizer) ShouldRefresh(session *model.ChatSession, lastMsgAt *time.Time, force bool, now time.Time) bool {
	if force {
		return true
	}
	if session.IsResolved {
		return false
	}
	if lastMsgAt == nil {
		return false
	}
	if session.AISummaryUpdatedAt == nil {
		return true
	}
	if !lastMsgAt.After(*session.AISummaryUpdatedAt) {
		return false
	}
	return now.Sub(*session.AISummaryUpdatedAt) >= s.throttle
}

// Refresh regenerates and stores the summary when warranted. Returns whether
// the model ran and the summary currently stored.
func (s *Summarizer) Refresh(ctx context.Context, sessionID uint, force bool) (bool, string, error) {
	log := zap.L().With(zap.Uint("session_id", sessionID))

	var session model.ChatSession
	if err := s.db.First(&session, sessionID).Error; err != nil {
		return false, "", err
	}

	var prop model.Property
	if err := s.db.First(&prop, session.PropertyID).Error; err != nil {
		return false, "", err
	}

	// Last N messages, newest first, then back to chronological order
	var messages []model.ChatMessage
	if err := s.db.Where("session_id = ?", session.ID).
		Order("created_at DESC, id DESC").
		Limit(s.maxMsgs).
		Find(&messages).Error; err != nil {
		return false, "", err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	var lastMsgAt *time.Time
	if len(messages) > 0 {
		t := messages[len(messages)-1].CreatedAt
		lastMsgAt = &t
	}

	if !s.ShouldRefresh(&session, lastMsgAt, force, time.Now().UTC()) {
		return false, session.AISummary, nil
	}

	transcript := ConversationTranscript(messages)
	if transcript == "" {
		return false, session.AISummary, nil
	}

	start := time.Now()
	summary, err := s.llm.Summarize(ctx, []Message{
		{Role: "system", Content: BuildSummaryPrompt(&session, &prop)},
		{Role: "user", Content: transcript},
	})
	prometheus.ObserveLLM("summary", start)
	if err != nil {
		log.Warn("summary generation failed", zap.Error(err))
		return false, session.AISummary, err
	}
	if summary == "" {
		summary = "**What the guest wants**\n- (No summary generated)\n"
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"ai_summary":            summary,
		"ai_summary_updated_at": now,
	}
	if err := s.db.Model(&session).Updates(updates).Error; err != nil {
		return false, "", err
	}

	log.Debug("summary refreshed", zap.Int("messages", len(messages)))
	return true, summary, nil
}
