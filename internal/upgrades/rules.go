// Package upgrades decides whether a paid upgrade can be offered for a stay.
// Early check-in and late checkout have selling windows and are blocked by
// same-day turnovers; anything else is sellable while active.
package upgrades

import (
	"fmt"
	"strings"
	"time"
)

// Upgrade kinds with time-window rules
const (
	KindEarlyCheckin = "EARLY_CHECKIN"
	KindLateCheckout = "LATE_CHECKOUT"
)

// Rule holds the selling-window constraints for one upgrade kind
type Rule struct {
	// Window opens this many days before the stay boundary
	DaysPriorWindowOpen int
	// Stop selling this close to the boundary
	CutoffHours int
	// Block when another stay turns over the same day
	RequiresNoTurnover bool
}

// Default rules, keyed by kind
var rules = map[string]Rule{
	KindEarlyCheckin: {DaysPriorWindowOpen: 2, CutoffHours: 6, RequiresNoTurnover: true},
	KindLateCheckout: {DaysPriorWindowOpen: 2, CutoffHours: 2, RequiresNoTurnover: true},
}

// StayContext is everything the rules need to know about the stay
type StayContext struct {
	PropertyID uint

	ArrivalDate   time.Time
	DepartureDate time.Time

	CheckinTime  time.Time // time-of-day only
	CheckoutTime time.Time

	// Derived from the reservations table
	HasTurnoverOnArrival   bool
	HasTurnoverOnDeparture bool
}

// UpgradeContext is the subset of the upgrade row the rules read
type UpgradeContext struct {
	ID         uint
	PropertyID uint
	Slug       string
	IsActive   bool
}

// Result is the eligibility verdict for one upgrade
type Result struct {
	Eligible bool
	Reason   string
	OpensAt  *time.Time
}

// SlugToKind maps an upgrade slug to a rules kind by intent. Slugs are
// host-authored, so matching is deliberately loose: "early-check-in",
// "early_checkin" and "earlyarrival" all count.
func SlugToKind(slug string) string {
	s := strings.ToLower(strings.TrimSpace(slug))

	if strings.Contains(s, "early") && (strings.Contains(s, "check") || strings.Contains(s, "arrival")) {
		return KindEarlyCheckin
	}
	if strings.Contains(s, "late") && (strings.Contains(s, "check") || strings.Contains(s, "depart")) {
		return KindLateCheckout
	}
	return ""
}

// Evaluate returns whether the upgrade can be sold for the stay right now
func Evaluate(upgrade UpgradeContext, stay StayContext, now time.Time) Result {
	if !upgrade.IsActive {
		return Result{Eligible: false, Reason: "Not available for this stay."}
	}
	if upgrade.PropertyID != stay.PropertyID {
		return Result{Eligible: false, Reason: "Invalid upgrade for this property."}
	}

	kind := SlugToKind(upgrade.Slug)
	switch kind {
	case KindEarlyCheckin:
		return evalEarly(rules[kind], stay, now)
	case KindLateCheckout:
		return evalLate(rules[kind], stay, now)
	default:
		// Unknown upgrade type: sellable while active
		return Result{Eligible: true}
	}
}

func evalEarly(rule Rule, stay StayContext, now time.Time) Result {
	arrival := combineUTC(stay.ArrivalDate, stay.CheckinTime)

	if rule.DaysPriorWindowOpen > 0 {
		opens := arrival.AddDate(0, 0, -rule.DaysPriorWindowOpen)
		if now.Before(opens) {
			return Result{
				Eligible: false,
				Reason:   fmt.Sprintf("Early check-in opens %d days before arrival.", rule.DaysPriorWindowOpen),
				OpensAt:  &opens,
			}
		}
	}

	if rule.CutoffHours > 0 {
		cutoff := arrival.Add(-time.Duration(rule.CutoffHours) * time.Hour)
		if now.After(cutoff) {
			return Result{Eligible: false, Reason: "It's too close to check-in to purchase early check-in."}
		}
	}

	if rule.RequiresNoTurnover && stay.HasTurnoverOnArrival {
		return Result{Eligible: false, Reason: "Not available due to same-day turnover."}
	}

	if !now.Before(arrival) {
		return Result{Eligible: false, Reason: "Arrival has already started."}
	}

	return Result{Eligible: true}
}

func evalLate(rule Rule, stay StayContext, now time.Time) Result {
	departure := combineUTC(stay.DepartureDate, stay.CheckoutTime)

	if rule.DaysPriorWindowOpen > 0 {
		opens := departure.AddDate(0, 0, -rule.DaysPriorWindowOpen)
		if now.Before(opens) {
			return Result{
				Eligible: false,
				Reason:   fmt.Sprintf("Late checkout opens %d days before departure.", rule.DaysPriorWindowOpen),
				OpensAt:  &opens,
			}
		}
	}

	if rule.CutoffHours > 0 {
		cutoff := departure.Add(-time.Duration(rule.CutoffHours) * time.Hour)
		if now.After(cutoff) {
			return Result{Eligible: false, Reason: "It's too close to checkout to purchase late checkout."}
		}
	}

	if rule.RequiresNoTurnover && stay.HasTurnoverOnDeparture {
		return Result{Eligible: false, Reason: "Not available due to same-day turnover."}
	}

	if !now.Before(departure) {
		return Result{Eligible: false, Reason: "Checkout has already started."}
	}

	return Result{Eligible: true}
}

// combineUTC merges a calendar date with a time-of-day into one UTC instant
func combineUTC(d time.Time, t time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// ParseTimeLoose parses the stay-time strings PMSs emit: "15:00",
// "15:00:00", "4:00 PM", "10:00AM". Falls back to the given default.
func ParseTimeLoose(raw string, fallback time.Time) time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return fallback
	}

	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	upper := strings.ToUpper(s)
	for _, layout := range []string{"3:04 PM", "3:04PM"} {
		if t, err := time.Parse(layout, upper); err == nil {
			return t
		}
	}
	return fallback
}
