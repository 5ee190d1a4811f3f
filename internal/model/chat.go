package model

import (
	"time"
)

// Chat message senders
const (
	SenderGuest     = "guest"
	SenderAssistant = "assistant"
	SenderSystem    = "system"
)

// Triage priorities
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

// ChatSession is one guest conversation for a property. A session starts
// unverified; matching the reservation's phone digits unlocks the stay and
// binds the session to the reservation.
type ChatSession struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	PropertyID uint `json:"property_id" gorm:"index:ix_chat_sessions_property_last_activity;not null"`

	// guest_web | widget | admin_test
	Source string `json:"source" gorm:"type:varchar(30);default:guest_web"`

	// Bearer token the guest app presents on every session-scoped call
	Token string `json:"-" gorm:"type:varchar(64);uniqueIndex"`

	// pre_booking | pre_arrival | in_stay | post_stay
	ReservationStatus string `json:"reservation_status" gorm:"type:varchar(30);default:pre_booking"`

	IsVerified       bool   `json:"is_verified" gorm:"default:false"`
	PhoneLast4       string `json:"-" gorm:"type:varchar(4)"`
	PMSReservationID string `json:"pms_reservation_id,omitempty" gorm:"type:varchar(100)"`
	GuestName        string `json:"guest_name,omitempty" gorm:"type:varchar(255)"`
	Language         string `json:"language,omitempty" gorm:"type:varchar(10)"`

	// Stay dates, stored as "YYYY-MM-DD"
	ArrivalDate   string `json:"arrival_date,omitempty" gorm:"type:varchar(10)"`
	DepartureDate string `json:"departure_date,omitempty" gorm:"type:varchar(10)"`

	// Admin routing / triage
	ActionPriority   string `json:"action_priority,omitempty" gorm:"type:varchar(10);index"`
	EscalationLevel  string `json:"escalation_level,omitempty" gorm:"type:varchar(10);index"`
	AssignedTo       string `json:"assigned_to,omitempty" gorm:"type:varchar(255)"`
	InternalNote     string `json:"internal_note,omitempty" gorm:"type:text"`
	HeatScore        int    `json:"heat_score" gorm:"default:0"`
	GuestMood        string `json:"guest_mood,omitempty" gorm:"type:varchar(30)"`
	EmotionalSignals string `json:"emotional_signals" gorm:"type:jsonb;default:'[]'"`

	AISummary          string     `json:"ai_summary,omitempty" gorm:"type:text"`
	AISummaryUpdatedAt *time.Time `json:"ai_summary_updated_at,omitempty"`

	IsResolved bool       `json:"is_resolved" gorm:"default:false"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	LastActivityAt time.Time `json:"last_activity_at" gorm:"not null;index:ix_chat_sessions_property_last_activity"`

	Messages []ChatMessage `json:"messages,omitempty" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessage is a single message in a session. Messages are only ever
// appended; listing order is (created_at, id).
type ChatMessage struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	SessionID uint `json:"session_id" gorm:"index;not null"`

	// guest | assistant | system
	Sender  string `json:"sender" gorm:"type:varchar(20);not null"`
	Content string `json:"content" gorm:"type:text;not null"`

	// Keyword-rule intelligence fields
	Category  string `json:"category,omitempty" gorm:"type:varchar(50)"`
	LogType   string `json:"log_type,omitempty" gorm:"type:varchar(50)"`
	Sentiment string `json:"sentiment,omitempty" gorm:"type:varchar(20)"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// AdminMessage is a PMC inbox row raised by system events
// (upgrade purchases, urgent guest requests, sync failures).
type AdminMessage struct {
	ID uint `json:"id" gorm:"primaryKey"`

	PMCID      uint `json:"pmc_id" gorm:"index"`
	PropertyID uint `json:"property_id,omitempty" gorm:"index"`

	// upgrade_purchase | upgrade_request | urgent_chat | sync_failure | ...
	Kind string `json:"kind" gorm:"type:varchar(50);not null;index"`

	Subject string `json:"subject,omitempty" gorm:"type:varchar(255)"`
	Body    string `json:"body,omitempty" gorm:"type:text"`
	Meta    string `json:"meta,omitempty" gorm:"type:jsonb"`

	ReadAt *time.Time `json:"read_at,omitempty" gorm:"index"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// AnalyticsEvent is an append-only event row scoped to a PMC and optionally
// a property and chat session. The payload stays schemaless on purpose.
type AnalyticsEvent struct {
	ID uint `json:"id" gorm:"primaryKey"`

	PMCID      uint `json:"pmc_id" gorm:"index;not null"`
	PropertyID uint `json:"property_id,omitempty" gorm:"index"`
	SessionID  uint `json:"session_id,omitempty" gorm:"index"`

	EventName string `json:"event_name" gorm:"type:varchar(100);not null;index"`

	// user | bot | system
	Sender  string `json:"sender,omitempty" gorm:"type:varchar(20)"`
	Variant string `json:"variant,omitempty" gorm:"type:varchar(20)"`
	Length  int    `json:"length,omitempty"`

	Data string `json:"data" gorm:"type:jsonb;default:'{}'"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}
