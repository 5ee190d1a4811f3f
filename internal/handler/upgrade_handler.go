package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hostscout/concierge/internal/model"
	"github.com/hostscout/concierge/pkg/database"
	"github.com/hostscout/concierge/pkg/logger"
)

type UpgradeRequest struct {
	Slug             string `json:"slug"`
	Title            string `json:"title"`
	ShortDescription string `json:"short_description"`
	LongDescription  string `json:"long_description"`
	ImageURL         string `json:"image_url"`
	PriceCents       *int64 `json:"price_cents"`
	Currency         string `json:"currency"`
	StripePriceID    string `json:"stripe_price_id"`
	IsActive         *bool  `json:"is_active"`
	SortOrder        *int   `json:"sort_order"`
}

// ListUpgrades returns all upgrades configured on a property
func ListUpgrades(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB()

	property, err := propertyForPMC(db, c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Property not found"})
	}

	var upgrades []model.Upgrade
	result := db.Where("property_id = ?", property.ID).
		Order("sort_order ASC, id ASC").
		Find(&upgrades)
	if result.Error != nil {
		log.Error("Failed to list upgrades", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve upgrades"})
	}

	return c.JSON(http.StatusOK, upgrades)
}

// CreateUpgrade adds a purchasable upgrade to a property
func CreateUpgrade(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB()

	property, err := propertyForPMC(db, c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Property not found"})
	}

	var req UpgradeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	req.Slug = strings.TrimSpace(strings.ToLower(req.Slug))
	if req.Slug == "" || req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Slug and title are required"})
	}
	if req.PriceCents == nil || *req.PriceCents <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Price must be greater than zero"})
	}

	// Check slug uniqueness within the property
	var count int64
	db.Model(&model.Upgrade{}).
		Where("property_id = ? AND slug = ?", property.ID, req.Slug).
		Count(&count)
	if count > 0 {
		log.Warn("Upgrade slug already exists",
			zap.Uint("property_id", property.ID),
			zap.String("slug", req.Slug))
		return c.JSON(http.StatusConflict, echo.Map{"error": "An upgrade with this slug already exists for this property"})
	}

	upgrade := model.Upgrade{
		PropertyID:       property.ID,
		Slug:             req.Slug,
		Title:            req.Title,
		ShortDescription: req.ShortDescription,
		LongDescription:  req.LongDescription,
		ImageURL:         req.ImageURL,
		PriceCents:       *req.PriceCents,
		Currency:         "usd",
		StripePriceID:    req.StripePriceID,
		IsActive:         true,
	}
	if req.Currency != "" {
		upgrade.Currency = strings.ToLower(req.Currency)
	}
	if req.IsActive != nil {
		upgrade.IsActive = *req.IsActive
	}
	if req.SortOrder != nil {
		upgrade.SortOrder = *req.SortOrder
	}

	if result := db.Create(&upgrade); result.Error != nil {
		log.Error("Failed to create upgrade", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create upgrade"})
	}

	log.Info("Upgrade created",
		zap.Uint("property_id", property.ID),
		zap.String("slug", upgrade.Slug),
		zap.Int64("price_cents", upgrade.PriceCents))

	return c.JSON(http.StatusCreated, upgrade)
}

// UpdateUpgrade updates an upgrade on a property
func UpdateUpgrade(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB()

	property, err := propertyForPMC(db, c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Property not found"})
	}

	var upgrade model.Upgrade
	if result := db.Where("property_id = ?", property.ID).First(&upgrade, c.Param("upgradeId")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Upgrade not found"})
	}

	var req UpgradeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if req.Slug != "" {
		slug := strings.TrimSpace(strings.ToLower(req.Slug))
		if slug != upgrade.Slug {
			var count int64
			db.Model(&model.Upgrade{}).
				Where("property_id = ? AND slug = ? AND id != ?", property.ID, slug, upgrade.ID).
				Count(&count)
			if count > 0 {
				return c.JSON(http.StatusConflict, echo.Map{"error": "An upgrade with this slug already exists for this property"})
			}
			upgrade.Slug = slug
		}
	}
	if req.Title != "" {
		upgrade.Title = req.Title
	}
	if req.ShortDescription != "" {
		upgrade.ShortDescription = req.ShortDescription
	}
	if req.LongDescription != "" {
		upgrade.LongDescription = req.LongDescription
	}
	if req.ImageURL != "" {
		upgrade.ImageURL = req.ImageURL
	}
	if req.PriceCents != nil {
		if *req.PriceCents <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Price must be greater than zero"})
		}
		upgrade.PriceCents = *req.PriceCents
	}
	if req.Currency != "" {
		upgrade.Currency = strings.ToLower(req.Currency)
	}
	if req.StripePriceID != "" {
		upgrade.StripePriceID = req.StripePriceID
	}
	if req.IsActive != nil {
		upgrade.IsActive = *req.IsActive
	}
	if req.SortOrder != nil {
		upgrade.SortOrder = *req.SortOrder
	}

	if result := db.Save(&upgrade); result.Error != nil {
		log.Error("Failed to update upgrade", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update upgrade"})
	}

	return c.JSON(http.StatusOK, upgrade)
}

// DeleteUpgrade removes an upgrade. Purchases keep their rows.
func DeleteUpgrade(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB()

	property, err := propertyForPMC(db, c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Property not found"})
	}

	result := db.Where("property_id = ?", property.ID).Delete(&model.Upgrade{}, c.Param("upgradeId"))
	if result.Error != nil {
		log.Error("Failed to delete upgrade", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete upgrade"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Upgrade not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Upgrade deleted successfully"})
}

// ReorderUpgrades rewrites sort_order to match the submitted id sequence
func ReorderUpgrades(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB()

	property, err := propertyForPMC(db, c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Property not found"})
	}

	var req ReorderRequest
	if err := c.Bind(&req); err != nil || len(req.IDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "A non-empty ids list is required"})
	}

	tx := db.Begin()
	for i, id := range req.IDs {
		result := tx.Model(&model.Upgrade{}).
			Where("id = ? AND property_id = ?", id, property.ID).
			Update("sort_order", i)
		if result.Error != nil {
			tx.Rollback()
			log.Error("Failed to reorder upgrades", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to reorder upgrades"})
		}
	}
	if err := tx.Commit().Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to reorder upgrades"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Upgrades reordered successfully"})
}

// ListPurchases returns a property's upgrade purchases, newest first
func ListPurchases(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB()

	property, err := propertyForPMC(db, c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Property not found"})
	}

	query := db.Preload("Upgrade").
		Where("property_id = ?", property.ID).
		Order("created_at DESC")
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var purchases []model.UpgradePurchase
	if result := query.Find(&purchases); result.Error != nil {
		log.Error("Failed to list purchases", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve purchases"})
	}

	return c.JSON(http.StatusOK, purchases)
}
