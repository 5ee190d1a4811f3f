package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hostscout/concierge/internal/middleware"
	"github.com/hostscout/concierge/internal/model"
	"github.com/hostscout/concierge/pkg/database"
	"github.com/hostscout/concierge/pkg/logger"
)

// ListProperties returns the PMC's properties
func ListProperties(c echo.Context) error {
	log := logger.FromEcho(c)
	pmcID := middleware.PMCID(c)

	var properties []model.Property
	result := database.GetDB().
		Where("pmc_id = ?", pmcID).
		Order("name ASC").
		Find(&properties)
	if result.Error != nil {
		log.Error("Failed to list properties", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve properties"})
	}

	return c.JSON(http.StatusOK, properties)
}

// GetProperty returns one property with its guides and upgrades
func GetProperty(c echo.Context) error {
	log := logger.FromEcho(c)
	pmcID := middleware.PMCID(c)
	id := c.Param("id")

	var property model.Property
	result := database.GetDB().
		Preload("Guides", "is_active = ?", true).
		Preload("Upgrades").
		Where("pmc_id = ?", pmcID).
		First(&property, id)
	if result.Error != nil {
		log.Warn("Property not found", zap.String("property_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Property not found"})
	}

	return c.JSON(http.StatusOK, property)
}

// PropertyRequest carries the host-editable property fields. Everything else
// on the row belongs to the PMS and is overwritten by sync.
type PropertyRequest struct {
	HouseRules       *string `json:"house_rules"`
	EmergencyPhone   *string `json:"emergency_phone"`
	HeroImageURL     *string `json:"hero_image_url"`
	ChatEnabled      *bool   `json:"chat_enabled"`
	ConciergeEnabled *bool   `json:"concierge_enabled"`
}

// UpdateProperty updates the host-editable fields on a property
func UpdateProperty(c echo.Context) error {
	log := logger.FromEcho(c)
	pmcID := middleware.PMCID(c)
	id := c.Param("id")

	var req PropertyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	db := database.GetDB()

	var property model.Property
	if result := db.Where("pmc_id = ?", pmcID).First(&property, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Property not found"})
	}

	updates := map[string]interface{}{}
	if req.HouseRules != nil {
		updates["house_rules"] = *req.HouseRules
	}
	if req.EmergencyPhone != nil {
		updates["emergency_phone"] = *req.EmergencyPhone
	}
	if req.HeroImageURL != nil {
		updates["hero_image_url"] = *req.HeroImageURL
	}
	if req.ChatEnabled != nil {
		updates["chat_enabled"] = *req.ChatEnabled
	}
	if req.ConciergeEnabled != nil {
		updates["concierge_enabled"] = *req.ConciergeEnabled
	}

	if len(updates) > 0 {
		if result := db.Model(&property).Updates(updates); result.Error != nil {
			log.Error("Failed to update property",
				zap.String("property_id", id),
				zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update property"})
		}
	}

	log.Info("Property updated", zap.String("property_id", id))
	return c.JSON(http.StatusOK, property)
}

// ListReservations returns a property's reservations, soonest arrival first
func ListReservations(c echo.Context) error {
	log := logger.FromEcho(c)
	pmcID := middleware.PMCID(c)
	id := c.Param("id")

	db := database.GetDB()

	var property model.Property
	if result := db.Where("pmc_id = ?", pmcID).First(&property, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Property not found"})
	}

	var reservations []model.Reservation
	result := db.Where("property_id = ?", property.ID).
		Order("arrival_date ASC").
		Find(&reservations)
	if result.Error != nil {
		log.Error("Failed to list reservations", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve reservations"})
	}

	return c.JSON(http.StatusOK, reservations)
}
