package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/hostscout/concierge/internal/model"
)

func TestCreateUpgradeRejectsDuplicateSlug(t *testing.T) {
	db := setupHandlerDB(t)

	prop := model.Property{PMCID: 1, IntegrationID: 1, ExternalPropertyID: "hw-100", Name: "Seaside Villa"}
	if err := db.Create(&prop).Error; err != nil {
		t.Fatalf("failed to seed property: %v", err)
	}
	if err := db.Create(&model.Upgrade{
		PropertyID: prop.ID,
		Slug:       "early-check-in",
		Title:      "Early check-in",
		PriceCents: 5000,
		Currency:   "usd",
	}).Error; err != nil {
		t.Fatalf("failed to seed upgrade: %v", err)
	}

	// Slug matching is case-insensitive, so this collides with the seed row.
	body := `{"slug":"Early-Check-In","title":"Early arrival","price_cents":6000}`
	c, rec := newJSONContext(t, http.MethodPost, "/api/admin/properties/1/upgrades", body, 1)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprintf("%d", prop.ID))

	if err := CreateUpgrade(c); err != nil {
		t.Fatalf("CreateUpgrade: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusConflict, rec.Body.String())
	}

	var count int64
	db.Model(&model.Upgrade{}).Where("property_id = ?", prop.ID).Count(&count)
	if count != 1 {
		t.Errorf("upgrade rows = %d, want 1", count)
	}
}

func TestCreateUpgradeAllowsSameSlugOnAnotherProperty(t *testing.T) {
	db := setupHandlerDB(t)

	first := model.Property{PMCID: 1, IntegrationID: 1, ExternalPropertyID: "hw-100", Name: "Seaside Villa"}
	second := model.Property{PMCID: 1, IntegrationID: 1, ExternalPropertyID: "hw-101", Name: "Mountain Cabin"}
	for _, p := range []*model.Property{&first, &second} {
		if err := db.Create(p).Error; err != nil {
			t.Fatalf("failed to seed property: %v", err)
		}
	}
	if err := db.Create(&model.Upgrade{
		PropertyID: first.ID,
		Slug:       "early-check-in",
		Title:      "Early check-in",
		PriceCents: 5000,
		Currency:   "usd",
	}).Error; err != nil {
		t.Fatalf("failed to seed upgrade: %v", err)
	}

	body := `{"slug":"early-check-in","title":"Early check-in","price_cents":5000}`
	c, rec := newJSONContext(t, http.MethodPost, "/api/admin/properties/2/upgrades", body, 1)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprintf("%d", second.ID))

	if err := CreateUpgrade(c); err != nil {
		t.Fatalf("CreateUpgrade: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var created model.Upgrade
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.PropertyID != second.ID || created.Slug != "early-check-in" {
		t.Errorf("created upgrade = property %d slug %q", created.PropertyID, created.Slug)
	}
}
