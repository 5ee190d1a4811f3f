package model

import (
	"time"

	"gorm.io/gorm"
)

// PMC billing status values
const (
	BillingPending = "pending"
	BillingActive  = "active"
	BillingPastDue = "past_due"
	BillingCancel  = "canceled"
)

// PMC represents a Property Management Company, the tenant of the platform.
// Every property, guide, upgrade and chat session is ultimately scoped to one PMC.
type PMC struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"type:varchar(255);not null"`
	Email       string `json:"email" gorm:"type:varchar(255);not null;index"`
	MainContact string `json:"main_contact,omitempty" gorm:"type:varchar(255)"`

	SubscriptionPlan string `json:"subscription_plan,omitempty" gorm:"type:varchar(100)"`

	Active       bool       `json:"active" gorm:"default:true"`
	SyncEnabled  bool       `json:"sync_enabled" gorm:"default:true"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`

	// Billing (platform subscription, not guest upgrades)
	BillingStatus            string     `json:"billing_status" gorm:"type:varchar(20);default:pending"`
	StripeCustomerID         string     `json:"-" gorm:"type:varchar(255);index"`
	StripeSubscriptionID     string     `json:"-" gorm:"type:varchar(255);index"`
	StripeSubscriptionItemID string     `json:"-" gorm:"type:varchar(255)"`
	SignupPaidAt             *time.Time `json:"signup_paid_at,omitempty"`

	// Webhook idempotency: last Stripe event id applied to this PMC
	LastStripeEventID string `json:"-" gorm:"type:varchar(255)"`

	Properties   []Property       `json:"properties,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Users        []PMCUser        `json:"users,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Integrations []PMCIntegration `json:"integrations,omitempty" gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// PMCUser represents a staff account on the admin dashboard
type PMCUser struct {
	ID    uint `json:"id" gorm:"primaryKey"`
	PMCID uint `json:"pmc_id" gorm:"index;not null;uniqueIndex:uq_pmc_users_pmc_email"`

	Email    string `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:uq_pmc_users_pmc_email"`
	Password string `json:"-" gorm:"type:varchar(255)"`
	FullName string `json:"full_name,omitempty" gorm:"type:varchar(255)"`

	// owner | admin | staff
	Role string `json:"role" gorm:"type:varchar(20);not null;default:staff"`

	IsActive          bool   `json:"is_active" gorm:"default:true"`
	NotificationPrefs string `json:"notification_prefs,omitempty" gorm:"type:jsonb;default:'{}'"`
	Timezone          string `json:"timezone,omitempty" gorm:"type:varchar(64)"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// Integration provider names
const (
	ProviderHostaway      = "hostaway"
	ProviderStripeConnect = "stripe_connect"
)

// PMCIntegration represents a PMC's connection to an external provider
// (a PMS like hostaway, or stripe_connect for payouts).
// One row per (pmc, provider).
type PMCIntegration struct {
	ID    uint `json:"id" gorm:"primaryKey"`
	PMCID uint `json:"pmc_id" gorm:"not null;index;uniqueIndex:uq_pmc_integrations_pmc_provider"`

	Provider string `json:"provider" gorm:"type:varchar(50);not null;uniqueIndex:uq_pmc_integrations_pmc_provider"`

	AccountID string `json:"account_id,omitempty" gorm:"type:varchar(255)"`
	APIKey    string `json:"-" gorm:"type:varchar(255)"`
	APISecret string `json:"-" gorm:"type:varchar(255)"`

	// OAuth-style providers
	AccessToken    string     `json:"-" gorm:"type:text"`
	RefreshToken   string     `json:"-" gorm:"type:text"`
	TokenExpiresAt *time.Time `json:"-"`

	IsConnected  bool       `json:"is_connected" gorm:"default:false"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	LastError    string     `json:"last_error,omitempty" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
