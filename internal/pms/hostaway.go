package pms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hostscout/concierge/pkg/config"
)

const hostawayDateLayout = "2006-01-02"

// HostawayClient talks to the Hostaway public API. Access tokens are obtained
// via the client-credentials grant and cached until shortly before expiry.
type HostawayClient struct {
	baseURL    string
	httpClient *http.Client

	mu     sync.Mutex
	tokens map[string]cachedToken // keyed by client id
}

type cachedToken struct {
	value   string
	expires time.Time
}

type hostawayTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type hostawayEnvelope struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
}

type hostawayListing struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	InternalListingName string `json:"internalListingName"`
	ThumbnailURL        string `json:"thumbnailUrl"`
	CheckInTimeStart    int    `json:"checkInTimeStart"`
	CheckOutTime        int    `json:"checkOutTime"`
}

type hostawayReservation struct {
	ID            int    `json:"id"`
	GuestName     string `json:"guestName"`
	Phone         string `json:"phone"`
	ArrivalDate   string `json:"arrivalDate"`
	DepartureDate string `json:"departureDate"`
	CheckInTime   int    `json:"checkInTime"`
	CheckOutTime  int    `json:"checkOutTime"`
}

// NewHostawayClient creates a Hostaway API client
func NewHostawayClient(cfg *config.HostawayConfig) *HostawayClient {
	return &HostawayClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tokens:     make(map[string]cachedToken),
	}
}

// Name implements Provider
func (c *HostawayClient) Name() string { return "hostaway" }

// token returns a cached access token for the credentials, requesting a new
// one through POST /accessTokens when the cache is cold or stale.
func (c *HostawayClient) token(ctx context.Context, creds Credentials) (string, error) {
	c.mu.Lock()
	cached, ok := c.tokens[creds.ClientID]
	c.mu.Unlock()
	if ok && time.Now().Before(cached.expires) {
		return cached.value, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", creds.ClientID)
	form.Set("client_secret", creds.ClientSecret)
	form.Set("scope", "general")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/accessTokens", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("hostaway token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("hostaway authentication failed: %d %s", resp.StatusCode, string(body))
	}

	var tokenResp hostawayTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("hostaway token decode: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("hostaway returned an empty access token")
	}

	// Refresh a minute early so in-flight requests never race expiry
	expires := time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - time.Minute)

	c.mu.Lock()
	c.tokens[creds.ClientID] = cachedToken{value: tokenResp.AccessToken, expires: expires}
	c.mu.Unlock()

	return tokenResp.AccessToken, nil
}

func (c *HostawayClient) get(ctx context.Context, creds Credentials, path string, query url.Values) (json.RawMessage, error) {
	token, err := c.token(ctx, creds)
	if err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hostaway request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hostaway request %s: %d %s", path, resp.StatusCode, string(body))
	}

	var envelope hostawayEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("hostaway response decode: %w", err)
	}
	return envelope.Result, nil
}

// FetchListings returns all listings visible to the credentials
func (c *HostawayClient) FetchListings(ctx context.Context, creds Credentials) ([]Listing, error) {
	result, err := c.get(ctx, creds, "/listings", nil)
	if err != nil {
		return nil, err
	}

	var raw []hostawayListing
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, fmt.Errorf("hostaway listings decode: %w", err)
	}

	listings := make([]Listing, 0, len(raw))
	for _, l := range raw {
		listings = append(listings, Listing{
			ExternalID:   fmt.Sprintf("%d", l.ID),
			Name:         l.Name,
			InternalName: l.InternalListingName,
			HeroImageURL: l.ThumbnailURL,
			CheckinTime:  hourToClock(l.CheckInTimeStart),
			CheckoutTime: hourToClock(l.CheckOutTime),
		})
	}
	return listings, nil
}

// FetchReservations returns reservations for one listing within a date range
func (c *HostawayClient) FetchReservations(ctx context.Context, creds Credentials, listingID string, from, to time.Time) ([]Reservation, error) {
	query := url.Values{}
	query.Set("listingId", listingID)
	query.Set("dateFrom", from.Format(hostawayDateLayout))
	query.Set("dateTo", to.Format(hostawayDateLayout))

	result, err := c.get(ctx, creds, "/reservations", query)
	if err != nil {
		return nil, err
	}

	var raw []hostawayReservation
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, fmt.Errorf("hostaway reservations decode: %w", err)
	}

	reservations := make([]Reservation, 0, len(raw))
	for _, r := range raw {
		arrival, err := time.Parse(hostawayDateLayout, r.ArrivalDate)
		if err != nil {
			continue
		}
		departure, err := time.Parse(hostawayDateLayout, r.DepartureDate)
		if err != nil {
			continue
		}
		reservations = append(reservations, Reservation{
			ExternalID:    fmt.Sprintf("%d", r.ID),
			GuestName:     r.GuestName,
			Phone:         r.Phone,
			ArrivalDate:   arrival,
			DepartureDate: departure,
			CheckinTime:   hourToClock(r.CheckInTime),
			CheckoutTime:  hourToClock(r.CheckOutTime),
		})
	}
	return reservations, nil
}

// hourToClock renders Hostaway's integer hours ("15") as "15:00".
// Zero means the listing did not set a time.
func hourToClock(hour int) string {
	if hour <= 0 || hour > 23 {
		return ""
	}
	return fmt.Sprintf("%02d:00", hour)
}

// PhoneLast4 extracts the last four digits of a raw phone string,
// ignoring separators and country prefixes.
func PhoneLast4(phone string) string {
	digits := make([]rune, 0, len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) < 4 {
		return ""
	}
	return string(digits[len(digits)-4:])
}
