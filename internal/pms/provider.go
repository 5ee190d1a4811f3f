package pms

import (
	"context"
	"time"
)

// Listing is a provider-normalized rental listing
type Listing struct {
	ExternalID   string
	Name         string
	InternalName string
	HeroImageURL string
	CheckinTime  string
	CheckoutTime string
}

// Reservation is a provider-normalized stay
type Reservation struct {
	ExternalID    string
	GuestName     string
	Phone         string
	ArrivalDate   time.Time
	DepartureDate time.Time
	CheckinTime   string
	CheckoutTime  string
}

// Credentials are the per-PMC secrets stored on the integration row
type Credentials struct {
	AccountID    string
	ClientID     string
	ClientSecret string
}

// Provider is the adapter interface a PMS integration must implement.
// Hostaway is the only adapter today; Guesty and Lodgify slot in here later.
type Provider interface {
	Name() string
	FetchListings(ctx context.Context, creds Credentials) ([]Listing, error)
	FetchReservations(ctx context.Context, creds Credentials, listingID string, from, to time.Time) ([]Reservation, error)
}
