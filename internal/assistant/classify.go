package assistant

import (
	"fmt"
	"strings"
)

// Message categories recognized by the keyword rules
const (
	CategoryWifi        = "wifi"
	CategoryTV          = "tv"
	CategoryFridge      = "fridge request"
	CategoryCheckin     = "check-in"
	CategoryCleaning    = "cleaning"
	CategoryMaintenance = "maintenance"
	CategoryUrgent      = "urgent"
	CategoryGeneral     = "general"
)

// ClassifyCategory buckets a guest message with keyword rules. This runs on
// every message and feeds triage, so it stays cheap and local; the LLM never
// gates it.
func ClassifyCategory(message string) string {
	msg := strings.ToLower(message)

	containsAny := func(terms ...string) bool {
		for _, term := range terms {
			if strings.Contains(msg, term) {
				return true
			}
		}
		return false
	}

	switch {
	case containsAny("wifi", "internet", "connection"):
		return CategoryWifi
	case containsAny("tv", "remote", "netflix", "streaming"):
		return CategoryTV
	case containsAny("fridge", "grocery", "stock", "food"):
		return CategoryFridge
	case containsAny("checkin", "check-in", "early", "arrival"):
		return CategoryCheckin
	case containsAny("clean", "housekeeping", "maid"):
		return CategoryCleaning
	case containsAny("broken", "leak", "issue", "not working"):
		return CategoryMaintenance
	case containsAny("emergency", "urgent", "help"):
		return CategoryUrgent
	default:
		return CategoryGeneral
	}
}

// DetectLogType labels the message for the admin activity log
func DetectLogType(message string) string {
	msg := strings.ToLower(message)

	switch {
	case strings.Contains(msg, "fridge") || strings.Contains(msg, "stock"):
		return "Fridge Request"
	case strings.Contains(msg, "checkin") || strings.Contains(msg, "check-in") || strings.Contains(msg, "early"):
		return "Early Access"
	case strings.Contains(msg, "clean"):
		return "Cleaning"
	case strings.Contains(msg, "broken") || strings.Contains(msg, "maintenance"):
		return "Maintenance"
	case strings.Contains(msg, "emergency") || strings.Contains(msg, "urgent"):
		return "Urgent"
	default:
		return "General"
	}
}

// FallbackReply returns the canned per-category reply used when the LLM is
// unavailable. Chat must degrade, not fail.
func FallbackReply(category, emergencyPhone string) string {
	switch category {
	case CategoryWifi:
		return "Try restarting the router. If that doesn't work, I'll notify the host for you."
	case CategoryTV:
		return "Please check if the remote has batteries and the TV is set to HDMI. Need help? I'll alert the host."
	case CategoryFridge:
		return "Got it, do you want me to pass this to the host to stock the fridge for you?"
	case CategoryCheckin:
		return "Let me check with the host if early check-in is available. I'll get back to you shortly."
	case CategoryCleaning:
		return "Noted! I'll forward your request to the host right away."
	case CategoryMaintenance:
		return "Thanks for letting us know. I'll alert the host and get someone to assist."
	case CategoryUrgent:
		if emergencyPhone != "" {
			return fmt.Sprintf("If this is an emergency, please call %s. I'm also alerting the host.", emergencyPhone)
		}
		return "If this is an emergency, please call your local emergency number. I'm also alerting the host."
	default:
		return "Thanks for your message! I'll pass this along to the host and reply soon."
	}
}

// HeatDelta scores how much a message should raise the session's heat score
func HeatDelta(category string) int {
	switch category {
	case CategoryUrgent:
		return 40
	case CategoryMaintenance:
		return 15
	case CategoryCleaning, CategoryFridge:
		return 5
	default:
		return 0
	}
}
