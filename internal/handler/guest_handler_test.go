package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/hostscout/concierge/internal/model"
)

func TestListGuestMessagesReturnsInsertionOrder(t *testing.T) {
	db := setupHandlerDB(t)

	prop := model.Property{PMCID: 1, IntegrationID: 1, ExternalPropertyID: "hw-100", Name: "Seaside Villa"}
	if err := db.Create(&prop).Error; err != nil {
		t.Fatalf("failed to seed property: %v", err)
	}
	session := model.ChatSession{PropertyID: prop.ID, Token: "tok-order-test"}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}

	// The whole exchange lands within one clock tick, so ordering has to
	// fall back to insertion order rather than the timestamp alone.
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	contents := []struct {
		sender, text string
	}{
		{"guest", "what is the wifi password"},
		{"assistant", "You can find the wifi details in the house guide."},
		{"guest", "thanks"},
		{"assistant", "Happy to help!"},
	}
	for _, m := range contents {
		msg := model.ChatMessage{
			SessionID: session.ID,
			Sender:    m.sender,
			Content:   m.text,
			CreatedAt: at,
		}
		if err := db.Create(&msg).Error; err != nil {
			t.Fatalf("failed to seed message: %v", err)
		}
	}

	c, rec := newGuestContext(t, http.MethodGet, "/api/guest/session/messages", session.Token)
	if err := ListGuestMessages(c); err != nil {
		t.Fatalf("ListGuestMessages: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var messages []model.ChatMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &messages); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(messages) != len(contents) {
		t.Fatalf("messages = %d, want %d", len(messages), len(contents))
	}
	for i, m := range messages {
		if m.Content != contents[i].text {
			t.Errorf("message %d = %q, want %q", i, m.Content, contents[i].text)
		}
		if i > 0 && messages[i-1].ID >= m.ID {
			t.Errorf("message ids out of order: %d before %d", messages[i-1].ID, m.ID)
		}
	}
}

func TestListGuestMessagesRejectsUnknownToken(t *testing.T) {
	setupHandlerDB(t)

	c, rec := newGuestContext(t, http.MethodGet, "/api/guest/session/messages", "tok-nobody")
	if err := ListGuestMessages(c); err != nil {
		t.Fatalf("ListGuestMessages: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
