package upgrades

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clock(h, min int) time.Time {
	return time.Date(0, 1, 1, h, min, 0, 0, time.UTC)
}

// A stay arriving June 10 at 15:00 and departing June 13 at 11:00
func testStay() StayContext {
	return StayContext{
		PropertyID:    1,
		ArrivalDate:   date(2026, 6, 10),
		DepartureDate: date(2026, 6, 13),
		CheckinTime:   clock(15, 0),
		CheckoutTime:  clock(11, 0),
	}
}

func earlyCheckin() UpgradeContext {
	return UpgradeContext{ID: 1, PropertyID: 1, Slug: "early-check-in", IsActive: true}
}

func lateCheckout() UpgradeContext {
	return UpgradeContext{ID: 2, PropertyID: 1, Slug: "late-checkout", IsActive: true}
}

func TestSlugToKind(t *testing.T) {
	tests := []struct {
		slug string
		want string
	}{
		{"early-check-in", KindEarlyCheckin},
		{"early_checkin", KindEarlyCheckin},
		{"Early Arrival", KindEarlyCheckin},
		{"late-checkout", KindLateCheckout},
		{"late_check_out", KindLateCheckout},
		{"late-departure", KindLateCheckout},
		{"mid-stay-clean", ""},
		{"firewood-bundle", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SlugToKind(tt.slug); got != tt.want {
			t.Errorf("SlugToKind(%q) = %q, want %q", tt.slug, got, tt.want)
		}
	}
}

func TestEvaluateEarlyCheckin(t *testing.T) {
	tests := []struct {
		name         string
		now          time.Time
		turnover     bool
		wantEligible bool
	}{
		{
			name:         "window not open yet",
			now:          time.Date(2026, 6, 5, 12, 0, 0, 0, time.UTC),
			wantEligible: false,
		},
		{
			name:         "window opens two days before arrival",
			now:          time.Date(2026, 6, 8, 16, 0, 0, 0, time.UTC),
			wantEligible: true,
		},
		{
			name:         "inside cutoff before check-in",
			now:          time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC),
			wantEligible: false,
		},
		{
			name:         "just before cutoff",
			now:          time.Date(2026, 6, 10, 8, 0, 0, 0, time.UTC),
			wantEligible: true,
		},
		{
			name:         "after arrival",
			now:          time.Date(2026, 6, 10, 16, 0, 0, 0, time.UTC),
			wantEligible: false,
		},
		{
			name:         "same-day turnover blocks",
			now:          time.Date(2026, 6, 8, 16, 0, 0, 0, time.UTC),
			turnover:     true,
			wantEligible: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stay := testStay()
			stay.HasTurnoverOnArrival = tt.turnover

			got := Evaluate(earlyCheckin(), stay, tt.now)
			if got.Eligible != tt.wantEligible {
				t.Errorf("Eligible = %v, want %v (reason: %s)", got.Eligible, tt.wantEligible, got.Reason)
			}
			if !got.Eligible && got.Reason == "" {
				t.Error("ineligible result must carry a reason")
			}
		})
	}
}

func TestEvaluateEarlyCheckinOpensAt(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	got := Evaluate(earlyCheckin(), testStay(), now)

	if got.Eligible {
		t.Fatal("expected ineligible before window opens")
	}
	if got.OpensAt == nil {
		t.Fatal("expected OpensAt to be set")
	}
	want := time.Date(2026, 6, 8, 15, 0, 0, 0, time.UTC)
	if !got.OpensAt.Equal(want) {
		t.Errorf("OpensAt = %v, want %v", got.OpensAt, want)
	}
}

func TestEvaluateLateCheckout(t *testing.T) {
	tests := []struct {
		name         string
		now          time.Time
		turnover     bool
		wantEligible bool
	}{
		{
			name:         "window not open yet",
			now:          time.Date(2026, 6, 9, 12, 0, 0, 0, time.UTC),
			wantEligible: false,
		},
		{
			name:         "window opens two days before departure",
			now:          time.Date(2026, 6, 11, 12, 0, 0, 0, time.UTC),
			wantEligible: true,
		},
		{
			name:         "inside cutoff before checkout",
			now:          time.Date(2026, 6, 13, 10, 0, 0, 0, time.UTC),
			wantEligible: false,
		},
		{
			name:         "just before cutoff",
			now:          time.Date(2026, 6, 13, 8, 0, 0, 0, time.UTC),
			wantEligible: true,
		},
		{
			name:         "same-day turnover blocks",
			now:          time.Date(2026, 6, 11, 12, 0, 0, 0, time.UTC),
			turnover:     true,
			wantEligible: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stay := testStay()
			stay.HasTurnoverOnDeparture = tt.turnover

			got := Evaluate(lateCheckout(), stay, tt.now)
			if got.Eligible != tt.wantEligible {
				t.Errorf("Eligible = %v, want %v (reason: %s)", got.Eligible, tt.wantEligible, got.Reason)
			}
		})
	}
}

func TestEvaluateGuards(t *testing.T) {
	now := time.Date(2026, 6, 8, 16, 0, 0, 0, time.UTC)

	inactive := earlyCheckin()
	inactive.IsActive = false
	if got := Evaluate(inactive, testStay(), now); got.Eligible {
		t.Error("inactive upgrade must not be eligible")
	}

	wrongProperty := earlyCheckin()
	wrongProperty.PropertyID = 99
	if got := Evaluate(wrongProperty, testStay(), now); got.Eligible {
		t.Error("upgrade for another property must not be eligible")
	}

	// Upgrades without a time-window kind sell while active
	firewood := UpgradeContext{ID: 3, PropertyID: 1, Slug: "firewood-bundle", IsActive: true}
	if got := Evaluate(firewood, testStay(), now); !got.Eligible {
		t.Errorf("kindless upgrade should be eligible, got reason: %s", got.Reason)
	}
}

func TestParseTimeLoose(t *testing.T) {
	fallback := clock(15, 0)

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"15:00", clock(15, 0)},
		{"09:30", clock(9, 30)},
		{"15:00:00", clock(15, 0)},
		{"4:00 PM", clock(16, 0)},
		{"10:00AM", clock(10, 0)},
		{"", fallback},
		{"noonish", fallback},
	}

	for _, tt := range tests {
		got := ParseTimeLoose(tt.raw, fallback)
		if got.Hour() != tt.want.Hour() || got.Minute() != tt.want.Minute() {
			t.Errorf("ParseTimeLoose(%q) = %02d:%02d, want %02d:%02d",
				tt.raw, got.Hour(), got.Minute(), tt.want.Hour(), tt.want.Minute())
		}
	}
}
