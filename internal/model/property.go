package model

import (
	"time"

	"gorm.io/gorm"
)

// Property represents a rental listing synced from the PMS
type Property struct {
	ID    uint `json:"id" gorm:"primaryKey"`
	PMCID uint `json:"pmc_id" gorm:"index;not null"`

	// The pmc_integrations row this listing was synced through
	IntegrationID uint `json:"integration_id" gorm:"index;uniqueIndex:uq_properties_integration_external"`

	Provider string `json:"provider,omitempty" gorm:"type:varchar(50);index"`

	// PMS-native listing id (Hostaway listing id), normalized to a string
	ExternalPropertyID string `json:"external_property_id" gorm:"type:varchar(100);index;uniqueIndex:uq_properties_integration_external"`

	Name         string `json:"name" gorm:"type:varchar(255);not null"`
	HeroImageURL string `json:"hero_image_url,omitempty" gorm:"type:varchar(512)"`

	// Free-form house rules and notes fed into the concierge prompt
	HouseRules     string `json:"house_rules,omitempty" gorm:"type:text"`
	EmergencyPhone string `json:"emergency_phone,omitempty" gorm:"type:varchar(40)"`

	// Default stay times, PMS strings like "15:00" or "4:00 PM"
	CheckinTime  string `json:"checkin_time,omitempty" gorm:"type:varchar(20)"`
	CheckoutTime string `json:"checkout_time,omitempty" gorm:"type:varchar(20)"`

	ChatEnabled      bool `json:"chat_enabled" gorm:"not null;default:false"`
	ConciergeEnabled bool `json:"concierge_enabled" gorm:"not null;default:false"`

	LastSynced *time.Time `json:"last_synced,omitempty"`

	Reservations []Reservation `json:"reservations,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Guides       []Guide       `json:"guides,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Upgrades     []Upgrade     `json:"upgrades,omitempty" gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// Reservation represents a stay synced from the PMS.
// Dates are calendar days; times come through as PMS strings.
type Reservation struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	PropertyID uint `json:"property_id" gorm:"index;not null"`

	PMSReservationID string `json:"pms_reservation_id" gorm:"type:varchar(100);uniqueIndex"`

	GuestName  string `json:"guest_name,omitempty" gorm:"type:varchar(255)"`
	PhoneLast4 string `json:"-" gorm:"type:varchar(4);index"`

	ArrivalDate   time.Time `json:"arrival_date" gorm:"type:date;not null;index"`
	DepartureDate time.Time `json:"departure_date" gorm:"type:date;not null;index"`

	CheckinTime  string `json:"checkin_time,omitempty" gorm:"type:varchar(20)"`
	CheckoutTime string `json:"checkout_time,omitempty" gorm:"type:varchar(20)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Guide is host-authored content shown to guests (local recommendations,
// appliance instructions, and so on).
type Guide struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	PropertyID uint `json:"property_id" gorm:"index;not null"`

	Title            string `json:"title" gorm:"type:varchar(255);not null"`
	ImageURL         string `json:"image_url,omitempty" gorm:"type:varchar(512)"`
	ShortDescription string `json:"short_description,omitempty" gorm:"type:varchar(512)"`
	LongDescription  string `json:"long_description,omitempty" gorm:"type:text"`
	BodyHTML         string `json:"body_html,omitempty" gorm:"type:text"`

	Category string `json:"category,omitempty" gorm:"type:varchar(100)"`

	IsActive  bool `json:"is_active" gorm:"default:true"`
	SortOrder int  `json:"sort_order" gorm:"default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
