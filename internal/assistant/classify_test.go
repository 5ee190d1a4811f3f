package assistant

import (
	"strings"
	"testing"
)

func TestClassifyCategory(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"The wifi isn't working", CategoryWifi},
		{"how do I connect to the internet?", CategoryWifi},
		{"The TV remote is missing", CategoryTV},
		{"can you stock the fridge before we arrive", CategoryFridge},
		{"is early check-in possible?", CategoryCheckin},
		{"we need housekeeping tomorrow", CategoryCleaning},
		{"the shower is broken", CategoryMaintenance},
		{"there's a leak under the sink", CategoryMaintenance},
		{"EMERGENCY we smell gas", CategoryUrgent},
		{"what's the best restaurant nearby?", CategoryGeneral},
		{"", CategoryGeneral},
	}

	for _, tt := range tests {
		if got := ClassifyCategory(tt.message); got != tt.want {
			t.Errorf("ClassifyCategory(%q) = %q, want %q", tt.message, got, tt.want)
		}
	}
}

func TestDetectLogType(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"please stock the fridge", "Fridge Request"},
		{"can we check-in early", "Early Access"},
		{"the room needs cleaning", "Cleaning"},
		{"the AC is broken", "Maintenance"},
		{"urgent: water everywhere", "Urgent"},
		{"hello there", "General"},
	}

	for _, tt := range tests {
		if got := DetectLogType(tt.message); got != tt.want {
			t.Errorf("DetectLogType(%q) = %q, want %q", tt.message, got, tt.want)
		}
	}
}

func TestFallbackReplyAlwaysAnswers(t *testing.T) {
	categories := []string{
		CategoryWifi, CategoryTV, CategoryFridge, CategoryCheckin,
		CategoryCleaning, CategoryMaintenance, CategoryUrgent, CategoryGeneral,
		"something-unmapped",
	}
	for _, cat := range categories {
		if reply := FallbackReply(cat, ""); reply == "" {
			t.Errorf("FallbackReply(%q) returned empty reply", cat)
		}
	}
}

func TestFallbackReplyUrgentIncludesEmergencyPhone(t *testing.T) {
	reply := FallbackReply(CategoryUrgent, "+1 555 0100")
	if !strings.Contains(reply, "+1 555 0100") {
		t.Errorf("urgent reply should include the emergency phone, got %q", reply)
	}

	reply = FallbackReply(CategoryUrgent, "")
	if !strings.Contains(strings.ToLower(reply), "emergency") {
		t.Errorf("urgent reply without a phone should still mention emergencies, got %q", reply)
	}
}

func TestHeatDelta(t *testing.T) {
	if HeatDelta(CategoryUrgent) <= HeatDelta(CategoryMaintenance) {
		t.Error("urgent messages must heat the session more than maintenance")
	}
	if HeatDelta(CategoryMaintenance) <= HeatDelta(CategoryCleaning) {
		t.Error("maintenance must heat the session more than cleaning")
	}
	if HeatDelta(CategoryGeneral) != 0 {
		t.Error("general chatter must not raise the heat score")
	}
}
