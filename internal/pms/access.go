package pms

import (
	"time"

	"gorm.io/gorm"

	"github.com/hostscout/concierge/internal/model"
)

// StayAccess is what a guest gets back after unlocking their stay.
// Business rule: the door code is the last 4 digits of the guest's phone.
type StayAccess struct {
	Reservation *model.Reservation
	DoorCode    string
}

// FindStayByPhoneDigits matches the guest-supplied phone digits against the
// property's current or upcoming reservations. The current stay wins over an
// upcoming one.
func FindStayByPhoneDigits(db *gorm.DB, propertyID uint, phoneLast4 string) (*StayAccess, error) {
	if len(phoneLast4) != 4 {
		return nil, nil
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)

	var current model.Reservation
	err := db.Where("property_id = ? AND phone_last4 = ? AND arrival_date <= ? AND departure_date >= ?",
		propertyID, phoneLast4, today, today).
		Order("arrival_date ASC").
		First(&current).Error
	if err == nil {
		return &StayAccess{Reservation: &current, DoorCode: phoneLast4}, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var upcoming model.Reservation
	err = db.Where("property_id = ? AND phone_last4 = ? AND arrival_date >= ?",
		propertyID, phoneLast4, today).
		Order("arrival_date ASC").
		First(&upcoming).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &StayAccess{Reservation: &upcoming, DoorCode: phoneLast4}, nil
}

// StayStage buckets a reservation relative to now for the session's
// reservation_status field.
func StayStage(arrival, departure time.Time, now time.Time) string {
	today := now.UTC().Truncate(24 * time.Hour)
	switch {
	case today.Before(arrival):
		return "pre_arrival"
	case today.After(departure):
		return "post_stay"
	default:
		return "in_stay"
	}
}
