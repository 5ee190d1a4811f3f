package assistant

import (
	"strings"
	"testing"

	"github.com/hostscout/concierge/internal/model"
)

func TestBuildConciergePrompt(t *testing.T) {
	prop := &model.Property{
		Name:         "Seaside Cottage",
		CheckinTime:  "15:00",
		CheckoutTime: "11:00",
		HouseRules:   "No smoking. Quiet hours after 10pm.",
	}
	session := &model.ChatSession{
		GuestName:         "Dana",
		ReservationStatus: "in_stay",
		ArrivalDate:       "2026-06-10",
		DepartureDate:     "2026-06-13",
	}
	guides := []model.Guide{
		{Title: "Hot Tub", ShortDescription: "How to use the hot tub"},
		{Title: "Beach Access"},
	}

	prompt := BuildConciergePrompt(prop, session, guides)

	for _, want := range []string{
		"Seaside Cottage",
		"15:00",
		"No smoking",
		"Dana",
		"in_stay",
		"2026-06-10",
		"Hot Tub: How to use the hot tub",
		"Beach Access",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	if !strings.Contains(prompt, "Never invent door codes") {
		t.Error("prompt must forbid inventing door codes")
	}
}

func TestBuildConciergePromptUnknownFields(t *testing.T) {
	prompt := BuildConciergePrompt(&model.Property{Name: "Cabin"}, &model.ChatSession{}, nil)

	if !strings.Contains(prompt, "(unknown)") {
		t.Error("missing guest fields should render as (unknown)")
	}
	if strings.Contains(prompt, "House rules:") {
		t.Error("empty house rules should be omitted")
	}
}

func TestConversationTranscript(t *testing.T) {
	messages := []model.ChatMessage{
		{Sender: "guest", Content: "Is there parking?"},
		{Sender: "assistant", Content: "Yes, in the driveway."},
		{Sender: "guest", Content: "   "},
		{Sender: "", Content: "system note"},
	}

	got := ConversationTranscript(messages)
	want := "GUEST: Is there parking?\nASSISTANT: Yes, in the driveway.\nUNKNOWN: system note"
	if got != want {
		t.Errorf("transcript = %q, want %q", got, want)
	}
}

func TestBuildSummaryPromptSections(t *testing.T) {
	session := &model.ChatSession{PropertyID: 7, GuestName: "Lee"}
	prompt := BuildSummaryPrompt(session, &model.Property{Name: "Lakehouse"})

	for _, want := range []string{
		"Lakehouse",
		"What the guest wants",
		"Key facts",
		"Risks / sentiment",
		"Recommended next action",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("summary prompt missing %q", want)
		}
	}
}
