package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hostscout/concierge/internal/middleware"
	"github.com/hostscout/concierge/internal/model"
	"github.com/hostscout/concierge/pkg/database"
	"github.com/hostscout/concierge/pkg/logger"
)

// pmcSessions scopes chat sessions to the caller's PMC through the
// properties table.
func pmcSessions(db *gorm.DB, pmcID uint) *gorm.DB {
	return db.Model(&model.ChatSession{}).
		Joins("JOIN properties ON properties.id = chat_sessions.property_id").
		Where("properties.pmc_id = ?", pmcID)
}

// ListChatSessions returns the PMC's chat inbox, most recent activity first.
// Filters: property_id, resolved, priority, verified.
func ListChatSessions(c echo.Context) error {
	log := logger.FromEcho(c)
	pmcID := middleware.PMCID(c)

	query := pmcSessions(database.GetDB(), pmcID)

	if propertyID := c.QueryParam("property_id"); propertyID != "" {
		query = query.Where("chat_sessions.property_id = ?", propertyID)
	}
	if resolved := c.QueryParam("resolved"); resolved != "" {
		query = query.Where("chat_sessions.is_resolved = ?", resolved == "true")
	}
	if priority := c.QueryParam("priority"); priority != "" {
		query = query.Where("chat_sessions.action_priority = ?", priority)
	}
	if verified := c.QueryParam("verified"); verified != "" {
		query = query.Where("chat_sessions.is_verified = ?", verified == "true")
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if raw := c.QueryParam("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			offset = n
		}
	}

	var sessions []model.ChatSession
	result := query.Order("chat_sessions.last_activity_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&sessions)
	if result.Error != nil {
		log.Error("Failed to list chat sessions", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve chat sessions"})
	}

	return c.JSON(http.StatusOK, sessions)
}

// pmcSession loads one chat session scoped to the caller's PMC
func pmcSession(c echo.Context, idParam string) (*model.ChatSession, error) {
	var session model.ChatSession
	err := pmcSessions(database.GetDB(), middleware.PMCID(c)).
		Where("chat_sessions.id = ?", c.Param(idParam)).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetChatSession returns one session with its messages in order
func GetChatSession(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB()

	session, err := pmcSession(c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Chat session not found"})
	}

	var messages []model.ChatMessage
	result := db.Where("session_id = ?", session.ID).
		Order("created_at ASC, id ASC").
		Find(&messages)
	if result.Error != nil {
		log.Error("Failed to load messages", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve messages"})
	}
	session.Messages = messages

	return c.JSON(http.StatusOK, session)
}

type SessionTriageRequest struct {
	ActionPriority  *string `json:"action_priority"`
	EscalationLevel *string `json:"escalation_level"`
	AssignedTo      *string `json:"assigned_to"`
	InternalNote    *string `json:"internal_note"`
	GuestMood       *string `json:"guest_mood"`
}

var validPriorities = map[string]bool{
	model.PriorityUrgent: true,
	model.PriorityHigh:   true,
	model.PriorityNormal: true,
	model.PriorityLow:    true,
	"":                   true,
}

// UpdateChatSession edits the admin triage fields on a session
func UpdateChatSession(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB()

	session, err := pmcSession(c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Chat session not found"})
	}

	var req SessionTriageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	updates := map[string]interface{}{}
	if req.ActionPriority != nil {
		if !validPriorities[*req.ActionPriority] {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid priority"})
		}
		updates["action_priority"] = *req.ActionPriority
	}
	if req.EscalationLevel != nil {
		updates["escalation_level"] = *req.EscalationLevel
	}
	if req.AssignedTo != nil {
		updates["assigned_to"] = *req.AssignedTo
	}
	if req.InternalNote != nil {
		updates["internal_note"] = *req.InternalNote
	}
	if req.GuestMood != nil {
		updates["guest_mood"] = *req.GuestMood
	}

	if len(updates) > 0 {
		if err := db.Model(session).Updates(updates).Error; err != nil {
			log.Error("Failed to update session", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update session"})
		}
	}

	return c.JSON(http.StatusOK, session)
}

type ResolveRequest struct {
	Resolved bool `json:"resolved"`
}

// ResolveChatSession marks a session resolved or reopens it
func ResolveChatSession(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB()

	session, err := pmcSession(c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Chat session not found"})
	}

	req := ResolveRequest{Resolved: true}
	_ = c.Bind(&req)

	updates := map[string]interface{}{"is_resolved": req.Resolved}
	if req.Resolved {
		now := time.Now().UTC()
		updates["resolved_at"] = now
		updates["heat_score"] = 0
	} else {
		updates["resolved_at"] = nil
	}

	if err := db.Model(session).Updates(updates).Error; err != nil {
		log.Error("Failed to resolve session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update session"})
	}

	log.Info("Chat session resolution changed",
		zap.Uint("session_id", session.ID),
		zap.Bool("resolved", req.Resolved))

	return c.JSON(http.StatusOK, session)
}

type AdminReplyRequest struct {
	Message string `json:"message"`
}

// SendAdminReply appends a host reply to a session as the assistant sender,
// so the guest sees it in the same thread.
func SendAdminReply(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB()

	session, err := pmcSession(c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Chat session not found"})
	}

	var req AdminReplyRequest
	if err := c.Bind(&req); err != nil || req.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Message is required"})
	}

	msg := model.ChatMessage{
		SessionID: session.ID,
		Sender:    model.SenderAssistant,
		Content:   req.Message,
		LogType:   "Host Reply",
	}
	if result := db.Create(&msg); result.Error != nil {
		log.Error("Failed to store admin reply", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to send reply"})
	}

	db.Model(session).Update("last_activity_at", time.Now().UTC())

	return c.JSON(http.StatusCreated, msg)
}

// RefreshSessionSummary regenerates the session's AI summary. Pass
// force=true to bypass the refresh throttle.
func RefreshSessionSummary(c echo.Context) error {
	log := logger.FromEcho(c)

	session, err := pmcSession(c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Chat session not found"})
	}

	if svc.Summarizer == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "Summaries are not configured"})
	}

	force := c.QueryParam("force") == "true"
	ran, summary, err := svc.Summarizer.Refresh(c.Request().Context(), session.ID, force)
	if err != nil {
		log.Warn("Summary refresh failed",
			zap.Uint("session_id", session.ID),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "Failed to refresh summary"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"refreshed": ran,
		"summary":   summary,
	})
}
