package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hostscout/concierge/internal/middleware"
	"github.com/hostscout/concierge/internal/model"
	"github.com/hostscout/concierge/pkg/database"
	"github.com/hostscout/concierge/pkg/logger"
)

type AnalyticsEventRequest struct {
	EventName  string          `json:"event_name"`
	PropertyID uint            `json:"property_id"`
	SessionID  uint            `json:"session_id"`
	Sender     string          `json:"sender"`
	Variant    string          `json:"variant"`
	Length     int             `json:"length"`
	Data       json.RawMessage `json:"data"`
}

// IngestGuestEvent records an analytics event from the guest app. The event
// is attributed to the PMC through the session's property.
func IngestGuestEvent(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB()

	session, err := guestSession(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	}

	var property model.Property
	if result := db.First(&property, session.PropertyID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Property not found"})
	}

	var req AnalyticsEventRequest
	if err := c.Bind(&req); err != nil || req.EventName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_name is required"})
	}

	event := model.AnalyticsEvent{
		PMCID:      property.PMCID,
		PropertyID: property.ID,
		SessionID:  session.ID,
		EventName:  req.EventName,
		Sender:     req.Sender,
		Variant:    req.Variant,
		Length:     req.Length,
		Data:       "{}",
	}
	if len(req.Data) > 0 {
		event.Data = string(req.Data)
	}

	if result := db.Create(&event); result.Error != nil {
		log.Error("Failed to store analytics event", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to record event"})
	}

	return c.JSON(http.StatusCreated, echo.Map{"id": event.ID})
}

// eventCount is one row of the per-event aggregate
type eventCount struct {
	EventName string `json:"event_name"`
	Count     int64  `json:"count"`
}

// GetAnalyticsSummary returns per-event counts plus chat volume for the
// PMC over a trailing window (days query param, default 30).
func GetAnalyticsSummary(c echo.Context) error {
	log := logger.FromEcho(c)
	pmcID := middleware.PMCID(c)
	db := database.GetDB()

	days := 30
	if raw := c.QueryParam("days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 365 {
			days = n
		}
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	var counts []eventCount
	err := db.Model(&model.AnalyticsEvent{}).
		Select("event_name, COUNT(*) as count").
		Where("pmc_id = ? AND created_at >= ?", pmcID, since).
		Group("event_name").
		Order("count DESC").
		Scan(&counts).Error
	if err != nil {
		log.Error("Failed to aggregate events", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve analytics"})
	}

	var sessionCount int64
	pmcSessions(db, pmcID).
		Where("chat_sessions.created_at >= ?", since).
		Count(&sessionCount)

	var verifiedCount int64
	pmcSessions(db, pmcID).
		Where("chat_sessions.created_at >= ? AND chat_sessions.is_verified = ?", since, true).
		Count(&verifiedCount)

	var messageCount int64
	db.Model(&model.ChatMessage{}).
		Joins("JOIN chat_sessions ON chat_sessions.id = chat_messages.session_id").
		Joins("JOIN properties ON properties.id = chat_sessions.property_id").
		Where("properties.pmc_id = ? AND chat_messages.created_at >= ?", pmcID, since).
		Count(&messageCount)

	type categoryCount struct {
		Category string `json:"category"`
		Count    int64  `json:"count"`
	}
	var byCategory []categoryCount
	db.Model(&model.ChatMessage{}).
		Select("chat_messages.category, COUNT(*) as count").
		Joins("JOIN chat_sessions ON chat_sessions.id = chat_messages.session_id").
		Joins("JOIN properties ON properties.id = chat_sessions.property_id").
		Where("properties.pmc_id = ? AND chat_messages.created_at >= ? AND chat_messages.sender = ?",
			pmcID, since, model.SenderGuest).
		Group("chat_messages.category").
		Order("count DESC").
		Scan(&byCategory)

	type dayCount struct {
		Day   string `json:"day"`
		Count int64  `json:"count"`
	}
	var sessionsByDay []dayCount
	pmcSessions(db, pmcID).
		Select("TO_CHAR(chat_sessions.created_at, 'YYYY-MM-DD') as day, COUNT(*) as count").
		Where("chat_sessions.created_at >= ?", since).
		Group("day").
		Order("day ASC").
		Scan(&sessionsByDay)

	var paidPurchases int64
	var revenueCents int64
	db.Model(&model.UpgradePurchase{}).
		Where("pmc_id = ? AND status = ? AND paid_at >= ?", pmcID, model.PurchasePaid, since).
		Count(&paidPurchases)
	db.Model(&model.UpgradePurchase{}).
		Where("pmc_id = ? AND status = ? AND paid_at >= ?", pmcID, model.PurchasePaid, since).
		Select("COALESCE(SUM(net_amount_cents), 0)").
		Scan(&revenueCents)

	return c.JSON(http.StatusOK, echo.Map{
		"days":                  days,
		"events":                counts,
		"chat_sessions":         sessionCount,
		"verified_sessions":     verifiedCount,
		"chat_messages":         messageCount,
		"messages_by_category":  byCategory,
		"sessions_by_day":       sessionsByDay,
		"paid_purchases":        paidPurchases,
		"upgrade_revenue_cents": revenueCents,
	})
}
