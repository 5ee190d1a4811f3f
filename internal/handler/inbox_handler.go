package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hostscout/concierge/internal/middleware"
	"github.com/hostscout/concierge/internal/model"
	"github.com/hostscout/concierge/pkg/database"
	"github.com/hostscout/concierge/pkg/logger"
)

// ListAdminMessages returns the PMC's system inbox, newest first.
// Filters: kind, unread=true.
func ListAdminMessages(c echo.Context) error {
	log := logger.FromEcho(c)
	pmcID := middleware.PMCID(c)

	query := database.GetDB().Where("pmc_id = ?", pmcID)
	if kind := c.QueryParam("kind"); kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if c.QueryParam("unread") == "true" {
		query = query.Where("read_at IS NULL")
	}

	var messages []model.AdminMessage
	result := query.Order("created_at DESC").Limit(100).Find(&messages)
	if result.Error != nil {
		log.Error("Failed to list admin messages", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve messages"})
	}

	var unread int64
	database.GetDB().Model(&model.AdminMessage{}).
		Where("pmc_id = ? AND read_at IS NULL", pmcID).
		Count(&unread)

	return c.JSON(http.StatusOK, echo.Map{
		"messages":     messages,
		"unread_count": unread,
	})
}

// MarkAdminMessageRead stamps one inbox message as read
func MarkAdminMessageRead(c echo.Context) error {
	pmcID := middleware.PMCID(c)
	db := database.GetDB()

	var msg model.AdminMessage
	if result := db.Where("pmc_id = ?", pmcID).First(&msg, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Message not found"})
	}

	if msg.ReadAt == nil {
		now := time.Now().UTC()
		if err := db.Model(&msg).Update("read_at", now).Error; err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to mark message read"})
		}
	}

	return c.JSON(http.StatusOK, msg)
}

// MarkAllAdminMessagesRead stamps the whole inbox as read
func MarkAllAdminMessagesRead(c echo.Context) error {
	pmcID := middleware.PMCID(c)

	now := time.Now().UTC()
	result := database.GetDB().Model(&model.AdminMessage{}).
		Where("pmc_id = ? AND read_at IS NULL", pmcID).
		Update("read_at", now)
	if result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to mark messages read"})
	}

	return c.JSON(http.StatusOK, echo.Map{"marked_read": result.RowsAffected})
}
