package pms

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hostscout/concierge/internal/model"
	"github.com/hostscout/concierge/prometheus"
)

// Syncer pulls listings and reservations from connected PMS accounts and
// upserts them into the local tables. Conflicts are last-write-wins: the PMS
// is the source of truth for everything it owns.
type Syncer struct {
	db        *gorm.DB
	providers map[string]Provider
}

// SyncResult summarizes one sync run for a PMC
type SyncResult struct {
	PMCID             uint   `json:"pmc_id"`
	Properties        int    `json:"properties"`
	Reservations      int    `json:"reservations"`
	Error             string `json:"error,omitempty"`
	SyncedAt          string `json:"synced_at"`
	Provider          string `json:"provider"`
	SkippedNoProvider bool   `json:"skipped_no_provider,omitempty"`
}

// NewSyncer creates a sync service over the given providers
func NewSyncer(db *gorm.DB, providers ...Provider) *Syncer {
	m := make(map[string]Provider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &Syncer{db: db, providers: m}
}

// SyncAll syncs every active, sync-enabled PMC that has a connected PMS
// integration. A failing PMC is recorded and skipped; it never aborts the run.
func (s *Syncer) SyncAll(ctx context.Context) []SyncResult {
	log := zap.L()

	var pmcs []model.PMC
	if err := s.db.Where("active = ? AND sync_enabled = ?", true, true).Find(&pmcs).Error; err != nil {
		log.Error("sync: failed to list PMCs", zap.Error(err))
		return nil
	}

	results := make([]SyncResult, 0, len(pmcs))
	for i := range pmcs {
		result := s.SyncPMC(ctx, &pmcs[i])
		results = append(results, result)
	}
	return results
}

// SyncPMC syncs one PMC's connected PMS integration
func (s *Syncer) SyncPMC(ctx context.Context, pmc *model.PMC) SyncResult {
	log := zap.L().With(zap.Uint("pmc_id", pmc.ID))
	result := SyncResult{PMCID: pmc.ID, SyncedAt: time.Now().UTC().Format(time.RFC3339)}

	var integration model.PMCIntegration
	err := s.db.Where("pmc_id = ? AND is_connected = ? AND provider <> ?",
		pmc.ID, true, model.ProviderStripeConnect).First(&integration).Error
	if err != nil {
		result.SkippedNoProvider = true
		return result
	}

	provider, ok := s.providers[integration.Provider]
	if !ok {
		result.SkippedNoProvider = true
		log.Warn("sync: no adapter for provider", zap.String("provider", integration.Provider))
		return result
	}
	result.Provider = provider.Name()

	creds := Credentials{
		AccountID:    integration.AccountID,
		ClientID:     integration.AccountID,
		ClientSecret: integration.APISecret,
	}
	if integration.APIKey != "" {
		creds.ClientID = integration.APIKey
	}

	listings, err := provider.FetchListings(ctx, creds)
	if err != nil {
		result.Error = err.Error()
		prometheus.SyncErrorCounter.WithLabelValues(provider.Name()).Inc()
		s.recordFailure(pmc, &integration, err)
		log.Error("sync: fetching listings failed", zap.Error(err))
		return result
	}

	now := time.Now().UTC()
	for _, listing := range listings {
		prop, err := s.upsertProperty(pmc, &integration, listing, now)
		if err != nil {
			log.Error("sync: property upsert failed",
				zap.String("external_id", listing.ExternalID), zap.Error(err))
			continue
		}
		result.Properties++

		count, err := s.syncReservations(ctx, provider, creds, prop, now)
		if err != nil {
			log.Error("sync: reservations failed",
				zap.Uint("property_id", prop.ID), zap.Error(err))
			continue
		}
		result.Reservations += count
	}

	s.db.Model(pmc).Updates(map[string]interface{}{"last_synced_at": now})
	s.db.Model(&integration).Updates(map[string]interface{}{"last_synced_at": now, "last_error": ""})

	prometheus.SyncRunCounter.WithLabelValues(provider.Name()).Inc()
	prometheus.SyncedPropertiesCounter.WithLabelValues(provider.Name()).Add(float64(result.Properties))

	log.Info("sync: completed",
		zap.Int("properties", result.Properties),
		zap.Int("reservations", result.Reservations))
	return result
}

// upsertProperty creates or refreshes the local row for a PMS listing.
// Identity is (integration, external id); names and images always follow
// the PMS, while local toggles like chat_enabled are preserved.
func (s *Syncer) upsertProperty(pmc *model.PMC, integration *model.PMCIntegration, listing Listing, now time.Time) (*model.Property, error) {
	name := listing.InternalName
	if name == "" {
		name = listing.Name
	}

	var prop model.Property
	err := s.db.Where("integration_id = ? AND external_property_id = ?",
		integration.ID, listing.ExternalID).First(&prop).Error

	if err == gorm.ErrRecordNotFound {
		prop = model.Property{
			PMCID:              pmc.ID,
			IntegrationID:      integration.ID,
			Provider:           integration.Provider,
			ExternalPropertyID: listing.ExternalID,
			Name:               name,
			HeroImageURL:       listing.HeroImageURL,
			CheckinTime:        listing.CheckinTime,
			CheckoutTime:       listing.CheckoutTime,
			LastSynced:         &now,
		}
		if err := s.db.Create(&prop).Error; err != nil {
			return nil, err
		}
		return &prop, nil
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":        name,
		"provider":    integration.Provider,
		"last_synced": now,
	}
	if listing.HeroImageURL != "" {
		updates["hero_image_url"] = listing.HeroImageURL
	}
	if listing.CheckinTime != "" {
		updates["checkin_time"] = listing.CheckinTime
	}
	if listing.CheckoutTime != "" {
		updates["checkout_time"] = listing.CheckoutTime
	}
	if err := s.db.Model(&prop).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &prop, nil
}

// syncReservations upserts the current month's reservations for a property
func (s *Syncer) syncReservations(ctx context.Context, provider Provider, creds Credentials, prop *model.Property, now time.Time) (int, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	reservations, err := provider.FetchReservations(ctx, creds, prop.ExternalPropertyID, monthStart, monthEnd)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, r := range reservations {
		row := model.Reservation{
			PropertyID:       prop.ID,
			PMSReservationID: r.ExternalID,
			GuestName:        r.GuestName,
			PhoneLast4:       PhoneLast4(r.Phone),
			ArrivalDate:      r.ArrivalDate,
			DepartureDate:    r.DepartureDate,
			CheckinTime:      r.CheckinTime,
			CheckoutTime:     r.CheckoutTime,
		}

		var existing model.Reservation
		err := s.db.Where("pms_reservation_id = ?", r.ExternalID).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := s.db.Create(&row).Error; err != nil {
				return count, err
			}
			count++
			continue
		}
		if err != nil {
			return count, err
		}

		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
		if err := s.db.Save(&row).Error; err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// recordFailure stamps the error on the integration and raises an inbox row
// so the failure is visible on the dashboard (sync failures are manual
// follow-up, not auto-retried).
func (s *Syncer) recordFailure(pmc *model.PMC, integration *model.PMCIntegration, syncErr error) {
	s.db.Model(integration).Update("last_error", syncErr.Error())

	msg := model.AdminMessage{
		PMCID:   pmc.ID,
		Kind:    "sync_failure",
		Subject: fmt.Sprintf("%s sync failed", integration.Provider),
		Body:    syncErr.Error(),
	}
	s.db.Create(&msg)
}
