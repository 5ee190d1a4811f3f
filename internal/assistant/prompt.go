package assistant

import (
	"fmt"
	"strings"

	"github.com/hostscout/concierge/internal/model"
)

// BuildConciergePrompt assembles the system prompt for guest chat from the
// property, session stay context, and the property's active guides.
func BuildConciergePrompt(prop *model.Property, session *model.ChatSession, guides []model.Guide) string {
	var b strings.Builder

	b.WriteString("You are a friendly concierge assistant for a vacation-rental property.\n")
	b.WriteString("Answer only using the property context below. If you don't know, say so and offer to forward the question to the host.\n\n")

	b.WriteString("Property context:\n")
	fmt.Fprintf(&b, "- Property: %s\n", prop.Name)
	if prop.CheckinTime != "" {
		fmt.Fprintf(&b, "- Check-in time: %s\n", prop.CheckinTime)
	}
	if prop.CheckoutTime != "" {
		fmt.Fprintf(&b, "- Checkout time: %s\n", prop.CheckoutTime)
	}
	if prop.HouseRules != "" {
		fmt.Fprintf(&b, "- House rules: %s\n", prop.HouseRules)
	}

	b.WriteString("\nGuest context:\n")
	fmt.Fprintf(&b, "- Guest name: %s\n", orUnknown(session.GuestName))
	fmt.Fprintf(&b, "- Reservation stage: %s\n", orUnknown(session.ReservationStatus))
	fmt.Fprintf(&b, "- Arrival date: %s\n", orUnknown(session.ArrivalDate))
	fmt.Fprintf(&b, "- Departure date: %s\n", orUnknown(session.DepartureDate))

	if len(guides) > 0 {
		b.WriteString("\nAvailable guest guides (mention them when relevant):\n")
		for _, g := range guides {
			if g.ShortDescription != "" {
				fmt.Fprintf(&b, "- %s: %s\n", g.Title, g.ShortDescription)
			} else {
				fmt.Fprintf(&b, "- %s\n", g.Title)
			}
		}
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Be concise and warm.\n")
	b.WriteString("- Never invent door codes, addresses, or prices.\n")
	b.WriteString("- For emergencies, tell the guest to contact local emergency services first.\n")

	return b.String()
}

// ConversationTranscript renders messages as "SENDER: content" lines for
// summary prompts.
func ConversationTranscript(messages []model.ChatMessage) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		sender := strings.ToUpper(strings.TrimSpace(m.Sender))
		if sender == "" {
			sender = "UNKNOWN"
		}
		lines = append(lines, sender+": "+content)
	}
	return strings.Join(lines, "\n")
}

// BuildSummaryPrompt assembles the system prompt for the admin-dashboard
// conversation summary.
func BuildSummaryPrompt(session *model.ChatSession, prop *model.Property) string {
	propertyName := "Unknown property"
	if prop != nil && prop.Name != "" {
		propertyName = prop.Name
	}

	lines := []string{
		"You are an operations assistant for a short-term rental host.",
		"",
		"Context (booking + account):",
		fmt.Sprintf("- Property: %s (property_id=%d)", propertyName, session.PropertyID),
		fmt.Sprintf("- Guest name: %s", orUnknown(session.GuestName)),
		fmt.Sprintf("- Reservation stage: %s", orUnknown(session.ReservationStatus)),
		fmt.Sprintf("- Source: %s", orUnknown(session.Source)),
		fmt.Sprintf("- Arrival date: %s", orUnknown(session.ArrivalDate)),
		fmt.Sprintf("- Departure date: %s", orUnknown(session.DepartureDate)),
		"",
		"Task:",
		"Summarize the conversation for an admin dashboard.",
		"",
		"Return **markdown** with exactly these sections:",
		"1) **What the guest wants**",
		"2) **Key facts** (dates, unit details, constraints)",
		"3) **Risks / sentiment** (urgent/unhappy signals)",
		"4) **Recommended next action** (clear steps)",
		"",
		"Rules:",
		"- Keep it short, scannable, and operational.",
		"- If dates/times are mentioned, repeat them clearly.",
		"- If missing info blocks action, say what to ask the guest for.",
	}
	return strings.Join(lines, "\n")
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(unknown)"
	}
	return s
}
