package upgrades

import (
	"time"

	"gorm.io/gorm"

	"github.com/hostscout/concierge/internal/model"
)

// Default stay boundaries when neither the reservation nor the property
// carries a time string.
var (
	DefaultCheckin  = time.Date(0, 1, 1, 15, 0, 0, 0, time.UTC)
	DefaultCheckout = time.Date(0, 1, 1, 11, 0, 0, 0, time.UTC)
)

// BuildStayContext assembles the rules input for one reservation, including
// same-day turnover detection against the property's other reservations.
func BuildStayContext(db *gorm.DB, reservation *model.Reservation) (StayContext, error) {
	stay := StayContext{
		PropertyID:    reservation.PropertyID,
		ArrivalDate:   reservation.ArrivalDate,
		DepartureDate: reservation.DepartureDate,
		CheckinTime:   ParseTimeLoose(reservation.CheckinTime, DefaultCheckin),
		CheckoutTime:  ParseTimeLoose(reservation.CheckoutTime, DefaultCheckout),
	}

	// Another stay departing the day this one arrives
	var departing int64
	err := db.Model(&model.Reservation{}).
		Where("property_id = ? AND id <> ? AND departure_date = ?",
			reservation.PropertyID, reservation.ID, reservation.ArrivalDate).
		Count(&departing).Error
	if err != nil {
		return stay, err
	}
	stay.HasTurnoverOnArrival = departing > 0

	// Another stay arriving the day this one departs
	var arriving int64
	err = db.Model(&model.Reservation{}).
		Where("property_id = ? AND id <> ? AND arrival_date = ?",
			reservation.PropertyID, reservation.ID, reservation.DepartureDate).
		Count(&arriving).Error
	if err != nil {
		return stay, err
	}
	stay.HasTurnoverOnDeparture = arriving > 0

	return stay, nil
}
