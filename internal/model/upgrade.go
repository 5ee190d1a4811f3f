package model

import (
	"time"

	"gorm.io/gorm"
)

// Upgrade is a paid add-on a guest can purchase for their stay,
// e.g. early check-in or late checkout.
type Upgrade struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	PropertyID uint `json:"property_id" gorm:"index;not null;uniqueIndex:uq_upgrades_property_slug"`

	// e.g. "early-check-in"; unique per property, not globally
	Slug string `json:"slug" gorm:"type:varchar(100);not null;uniqueIndex:uq_upgrades_property_slug"`

	Title            string `json:"title" gorm:"type:varchar(255);not null"`
	ShortDescription string `json:"short_description,omitempty" gorm:"type:varchar(512)"`
	LongDescription  string `json:"long_description,omitempty" gorm:"type:text"`
	ImageURL         string `json:"image_url,omitempty" gorm:"type:varchar(512)"`

	PriceCents int64  `json:"price_cents" gorm:"not null;default:0"`
	Currency   string `json:"currency" gorm:"type:varchar(3);not null;default:usd"`

	StripePriceID string `json:"stripe_price_id,omitempty" gorm:"type:varchar(255)"`

	IsActive  bool `json:"is_active" gorm:"default:true"`
	SortOrder int  `json:"sort_order" gorm:"default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// UpgradePurchase status values
const (
	PurchasePending  = "pending"
	PurchasePaid     = "paid"
	PurchaseRefunded = "refunded"
	PurchaseCanceled = "canceled"
	PurchaseFailed   = "failed"
)

// UpgradePurchase tracks one guest checkout for one upgrade. Abandoned
// checkouts leave pending rows behind, so a (session, upgrade) pair may have
// several rows; double-charging is prevented by the paid-status check in the
// checkout flow, not by a constraint.
type UpgradePurchase struct {
	ID uint `json:"id" gorm:"primaryKey"`

	PMCID      uint `json:"pmc_id" gorm:"index;not null"`
	PropertyID uint `json:"property_id" gorm:"index;not null"`
	UpgradeID  uint `json:"upgrade_id" gorm:"not null;index"`

	// The verified guest chat session the purchase belongs to
	GuestSessionID uint `json:"guest_session_id" gorm:"index"`

	AmountCents      int64 `json:"amount_cents" gorm:"not null"`
	PlatformFeeCents int64 `json:"platform_fee_cents" gorm:"not null;default:0"`
	NetAmountCents   int64 `json:"net_amount_cents" gorm:"not null"`

	Currency string `json:"currency" gorm:"type:varchar(3);not null;default:usd"`

	Status string `json:"status" gorm:"type:varchar(20);not null;default:pending;index"`

	// Nullable so rows created before (or without) a Stripe session don't
	// collide on the unique index.
	StripeCheckoutSessionID    *string `json:"stripe_checkout_session_id,omitempty" gorm:"type:varchar(255);uniqueIndex"`
	StripePaymentIntentID      string  `json:"-" gorm:"type:varchar(255);index"`
	StripeTransferID           string  `json:"-" gorm:"type:varchar(255);index"`
	StripeDestinationAccountID string  `json:"-" gorm:"type:varchar(255);index"`

	PaidAt              *time.Time `json:"paid_at,omitempty"`
	RefundedAt          *time.Time `json:"refunded_at,omitempty"`
	RefundedAmountCents int64      `json:"refunded_amount_cents" gorm:"not null;default:0"`

	Upgrade *Upgrade `json:"upgrade,omitempty" gorm:"foreignKey:UpgradeID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
