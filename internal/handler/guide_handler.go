package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hostscout/concierge/internal/middleware"
	"github.com/hostscout/concierge/internal/model"
	"github.com/hostscout/concierge/pkg/database"
	"github.com/hostscout/concierge/pkg/logger"
	"gorm.io/gorm"
)

type GuideRequest struct {
	Title            string `json:"title"`
	ImageURL         string `json:"image_url"`
	ShortDescription string `json:"short_description"`
	LongDescription  string `json:"long_description"`
	BodyHTML         string `json:"body_html"`
	Category         string `json:"category"`
	IsActive         *bool  `json:"is_active"`
	SortOrder        *int   `json:"sort_order"`
}

// propertyForPMC loads a property scoped to the caller's PMC.
func propertyForPMC(db *gorm.DB, c echo.Context, idParam string) (*model.Property, error) {
	var property model.Property
	result := db.Where("pmc_id = ?", middleware.PMCID(c)).First(&property, c.Param(idParam))
	if result.Error != nil {
		return nil, result.Error
	}
	return &property, nil
}

// ListGuides returns all guides for a property, active or not
func ListGuides(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB()

	property, err := propertyForPMC(db, c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Property not found"})
	}

	var guides []model.Guide
	result := db.Where("property_id = ?", property.ID).
		Order("sort_order ASC, id ASC").
		Find(&guides)
	if result.Error != nil {
		log.Error("Failed to list guides", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve guides"})
	}

	return c.JSON(http.StatusOK, guides)
}

// CreateGuide adds a guide to a property
func CreateGuide(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB()

	property, err := propertyForPMC(db, c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Property not found"})
	}

	var req GuideRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Title is required"})
	}

	guide := model.Guide{
		PropertyID:       property.ID,
		Title:            req.Title,
		ImageURL:         req.ImageURL,
		ShortDescription: req.ShortDescription,
		LongDescription:  req.LongDescription,
		BodyHTML:         req.BodyHTML,
		Category:         req.Category,
		IsActive:         true,
	}
	if req.IsActive != nil {
		guide.IsActive = *req.IsActive
	}
	if req.SortOrder != nil {
		guide.SortOrder = *req.SortOrder
	}

	if result := db.Create(&guide); result.Error != nil {
		log.Error("Failed to create guide", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create guide"})
	}

	log.Info("Guide created",
		zap.Uint("property_id", property.ID),
		zap.Uint("guide_id", guide.ID),
		zap.String("title", guide.Title))

	return c.JSON(http.StatusCreated, guide)
}

// UpdateGuide updates a guide on a property
func UpdateGuide(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB()

	property, err := propertyForPMC(db, c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Property not found"})
	}

	var guide model.Guide
	if result := db.Where("property_id = ?", property.ID).First(&guide, c.Param("guideId")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Guide not found"})
	}

	var req GuideRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if req.Title != "" {
		guide.Title = req.Title
	}
	if req.ImageURL != "" {
		guide.ImageURL = req.ImageURL
	}
	if req.ShortDescription != "" {
		guide.ShortDescription = req.ShortDescription
	}
	if req.LongDescription != "" {
		guide.LongDescription = req.LongDescription
	}
	if req.BodyHTML != "" {
		guide.BodyHTML = req.BodyHTML
	}
	if req.Category != "" {
		guide.Category = req.Category
	}
	if req.IsActive != nil {
		guide.IsActive = *req.IsActive
	}
	if req.SortOrder != nil {
		guide.SortOrder = *req.SortOrder
	}

	if result := db.Save(&guide); result.Error != nil {
		log.Error("Failed to update guide", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update guide"})
	}

	return c.JSON(http.StatusOK, guide)
}

// DeleteGuide removes a guide from a property
func DeleteGuide(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB()

	property, err := propertyForPMC(db, c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Property not found"})
	}

	result := db.Where("property_id = ?", property.ID).Delete(&model.Guide{}, c.Param("guideId"))
	if result.Error != nil {
		log.Error("Failed to delete guide", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete guide"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Guide not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Guide deleted successfully"})
}

type ReorderRequest struct {
	IDs []uint `json:"ids"`
}

// ReorderGuides rewrites sort_order to match the submitted id sequence
func ReorderGuides(c echo.Context) error {
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
		result := tx.Model(&model.Guide{}).
			Where("id = ? AND property_id = ?", id, property.ID).
			Update("sort_order", i)
		if result.Error != nil {
			tx.Rollback()
			log.Error("Failed to reorder guides", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to reorder guides"})
		}
	}
	if err := tx.Commit().Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to reorder guides"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Guides reordered successfully"})
}
