package pms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hostscout/concierge/pkg/config"
)

func TestPhoneLast4(t *testing.T) {
	tests := []struct {
		phone string
		want  string
	}{
		{"+1 (555) 123-4567", "4567"},
		{"555.123.4567", "4567"},
		{"0041 79 123 45 67", "4567"},
		{"4567", "4567"},
		{"123", ""},
		{"no digits here", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := PhoneLast4(tt.phone); got != tt.want {
			t.Errorf("PhoneLast4(%q) = %q, want %q", tt.phone, got, tt.want)
		}
	}
}

func TestHourToClock(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{15, "15:00"},
		{9, "09:00"},
		{23, "23:00"},
		{0, ""},
		{-1, ""},
		{24, ""},
	}

	for _, tt := range tests {
		if got := hourToClock(tt.hour); got != tt.want {
			t.Errorf("hourToClock(%d) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}

// fake Hostaway API serving the token grant plus listings and reservations
func newHostawayStub(t *testing.T, tokenRequests *int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/accessTokens", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenRequests, 1)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if r.Form.Get("grant_type") != "client_credentials" {
			http.Error(w, "wrong grant", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})

	mux.HandleFunc("/listings", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{
			"status": "success",
			"result": [
				{"id": 101, "name": "Seaside Cottage", "thumbnailUrl": "https://img/1.jpg", "checkInTimeStart": 15, "checkOutTime": 11},
				{"id": 102, "name": "Lakehouse", "checkInTimeStart": 0, "checkOutTime": 10}
			]
		}`))
	})

	mux.HandleFunc("/reservations", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("listingId") != "101" {
			http.Error(w, "unexpected listing", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{
			"status": "success",
			"result": [
				{"id": 9001, "guestName": "Dana Lee", "phone": "+1 555 123 4567",
				 "arrivalDate": "2026-06-10", "departureDate": "2026-06-13",
				 "checkInTime": 16, "checkOutTime": 10},
				{"id": 9002, "guestName": "Bad Dates", "phone": "555",
				 "arrivalDate": "not-a-date", "departureDate": "2026-06-20"}
			]
		}`))
	})

	return httptest.NewServer(mux)
}

func testCreds() Credentials {
	return Credentials{AccountID: "acc-1", ClientID: "client-1", ClientSecret: "secret"}
}

func newTestClient(baseURL string) *HostawayClient {
	return NewHostawayClient(&config.HostawayConfig{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	})
}

func TestFetchListings(t *testing.T) {
	var tokenRequests int32
	srv := newHostawayStub(t, &tokenRequests)
	defer srv.Close()

	client := newTestClient(srv.URL)
	listings, err := client.FetchListings(context.Background(), testCreds())
	if err != nil {
		t.Fatalf("FetchListings: %v", err)
	}

	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(listings))
	}
	first := listings[0]
	if first.ExternalID != "101" || first.Name != "Seaside Cottage" {
		t.Errorf("unexpected first listing: %+v", first)
	}
	if first.CheckinTime != "15:00" || first.CheckoutTime != "11:00" {
		t.Errorf("unexpected stay times: %q / %q", first.CheckinTime, first.CheckoutTime)
	}
	if listings[1].CheckinTime != "" {
		t.Errorf("unset check-in hour should map to empty string, got %q", listings[1].CheckinTime)
	}
}

func TestFetchReservationsSkipsBadDates(t *testing.T) {
	var tokenRequests int32
	srv := newHostawayStub(t, &tokenRequests)
	defer srv.Close()

	client := newTestClient(srv.URL)
	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	reservations, err := client.FetchReservations(context.Background(), testCreds(), "101", from, to)
	if err != nil {
		t.Fatalf("FetchReservations: %v", err)
	}

	if len(reservations) != 1 {
		t.Fatalf("got %d reservations, want 1 (unparseable dates skipped)", len(reservations))
	}
	r := reservations[0]
	if r.ExternalID != "9001" || r.GuestName != "Dana Lee" {
		t.Errorf("unexpected reservation: %+v", r)
	}
	if !r.ArrivalDate.Equal(time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("arrival = %v", r.ArrivalDate)
	}
	if r.CheckinTime != "16:00" {
		t.Errorf("checkin time = %q, want 16:00", r.CheckinTime)
	}
}

func TestTokenIsCachedAcrossRequests(t *testing.T) {
	var tokenRequests int32
	srv := newHostawayStub(t, &tokenRequests)
	defer srv.Close()

	client := newTestClient(srv.URL)
	ctx := context.Background()

	if _, err := client.FetchListings(ctx, testCreds()); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, err := client.FetchListings(ctx, testCreds()); err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if n := atomic.LoadInt32(&tokenRequests); n != 1 {
		t.Errorf("token endpoint hit %d times, want 1", n)
	}
}
