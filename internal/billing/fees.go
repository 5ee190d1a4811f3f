package billing

import "math"

// Platform fee: 2% + 30¢ per upgrade purchase, never negative, and always
// leaving the host at least one cent.
const (
	feePercent    = 0.02
	feeFlatCents  = 30
	minimumAmount = 1
)

// PlatformFeeCents computes the platform's cut of an upgrade purchase
func PlatformFeeCents(amountCents int64) int64 {
	if amountCents <= 0 {
		return 0
	}

	fee := int64(math.Round(float64(amountCents)*feePercent)) + feeFlatCents
	if fee < 0 {
		fee = 0
	}
	if fee >= amountCents {
		fee = amountCents - minimumAmount
		if fee < 0 {
			fee = 0
		}
	}
	return fee
}
