package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hostscout/concierge/internal/assistant"
	"github.com/hostscout/concierge/internal/billing"
	"github.com/hostscout/concierge/internal/model"
	"github.com/hostscout/concierge/internal/pms"
	"github.com/hostscout/concierge/internal/upgrades"
	"github.com/hostscout/concierge/pkg/database"
	"github.com/hostscout/concierge/pkg/logger"
	"github.com/hostscout/concierge/prometheus"
)

// GuestTokenHeader carries the guest session token on session-scoped calls
const GuestTokenHeader = "X-Guest-Token"

// How much recent conversation the concierge model sees
const chatHistoryLimit = 12

// guestSession resolves the caller's chat session from the token header
func guestSession(c echo.Context) (*model.ChatSession, error) {
	token := strings.TrimSpace(c.Request().Header.Get(GuestTokenHeader))
	if token == "" {
		return nil, errors.New("missing guest token")
	}

	var session model.ChatSession
	if err := database.GetDB().Where("token = ?", token).First(&session).Error; err != nil {
		return nil, errors.New("invalid guest token")
	}
	return &session, nil
}

// GetGuestProperty returns the public view of a property for the guest app
func GetGuestProperty(c echo.Context) error {
	db := database.GetDB()

	var property model.Property
	if result := db.First(&property, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Property not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":                property.ID,
		"name":              property.Name,
		"hero_image_url":    property.HeroImageURL,
		"checkin_time":      property.CheckinTime,
		"checkout_time":     property.CheckoutTime,
		"house_rules":       property.HouseRules,
		"chat_enabled":      property.ChatEnabled,
		"concierge_enabled": property.ConciergeEnabled,
	})
}

// ListGuestGuides returns a property's active guides in display order
func ListGuestGuides(c echo.Context) error {
	db := database.GetDB()

	var property model.Property
	if result := db.First(&property, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Property not found"})
	}

	var guides []model.Guide
	result := db.Where("property_id = ? AND is_active = ?", property.ID, true).
		Order("sort_order ASC, id ASC").
		Find(&guides)
	if result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve guides"})
	}

	return c.JSON(http.StatusOK, guides)
}

type StartSessionRequest struct {
	Source    string `json:"source"`
	GuestName string `json:"guest_name"`
	Language  string `json:"language"`
}

// StartGuestSession opens a new unverified chat session for a property and
// returns the token the guest app presents on every following call.
func StartGuestSession(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB()

	var property model.Property
	if result := db.First(&property, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Property not found"})
	}
	if !property.ChatEnabled {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Chat is not enabled for this property"})
	}

	var req StartSessionRequest
	_ = c.Bind(&req)

	session := model.ChatSession{
		PropertyID:        property.ID,
		Source:            "guest_web",
		Token:             uuid.New().String(),
		ReservationStatus: "pre_booking",
		GuestName:         req.GuestName,
		Language:          req.Language,
		LastActivityAt:    time.Now().UTC(),
	}
	if req.Source != "" {
		session.Source = req.Source
	}

	if result := db.Create(&session); result.Error != nil {
		log.Error("Failed to create chat session", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to start session"})
	}

	log.Info("Guest session started",
		zap.Uint("property_id", property.ID),
		zap.Uint("session_id", session.ID))

	return c.JSON(http.StatusCreated, echo.Map{
		"session_id": session.ID,
		"token":      session.Token,
	})
}

type UnlockRequest struct {
	PhoneLast4 string `json:"phone_last4"`
}

// UnlockStay matches the guest's phone digits against the property's
// reservations. A match verifies the session and returns the door code.
func UnlockStay(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB()

	session, err := guestSession(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	}

	var req UnlockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	digits := pms.PhoneLast4(req.PhoneLast4)
	if len(digits) != 4 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Please enter the last 4 digits of your phone number"})
	}

	access, err := pms.FindStayByPhoneDigits(db, session.PropertyID, digits)
	if err != nil {
		log.Error("Stay lookup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to look up your stay"})
	}
	if access == nil {
		prometheus.StayUnlockCounter.WithLabelValues("no_match").Inc()
		log.Info("Stay unlock failed",
			zap.Uint("property_id", session.PropertyID),
			zap.Uint("session_id", session.ID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "We couldn't find a reservation matching those digits"})
	}

	resv := access.Reservation
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"is_verified":        true,
		"phone_last4":        digits,
		"pms_reservation_id": resv.PMSReservationID,
		"guest_name":         resv.GuestName,
		"arrival_date":       resv.ArrivalDate.Format("2006-01-02"),
		"departure_date":     resv.DepartureDate.Format("2006-01-02"),
		"reservation_status": pms.StayStage(resv.ArrivalDate, resv.DepartureDate, now),
		"last_activity_at":   now,
	}
	if err := db.Model(session).Updates(updates).Error; err != nil {
		log.Error("Failed to verify session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to unlock your stay"})
	}

	prometheus.StayUnlockCounter.WithLabelValues("verified").Inc()
	log.Info("Stay unlocked",
		zap.Uint("property_id", session.PropertyID),
		zap.Uint("session_id", session.ID),
		zap.String("pms_reservation_id", resv.PMSReservationID))

	return c.JSON(http.StatusOK, echo.Map{
		"verified":           true,
		"door_code":          access.DoorCode,
		"guest_name":         resv.GuestName,
		"arrival_date":       resv.ArrivalDate.Format("2006-01-02"),
		"departure_date":     resv.DepartureDate.Format("2006-01-02"),
		"checkin_time":       resv.CheckinTime,
		"checkout_time":      resv.CheckoutTime,
		"reservation_status": updates["reservation_status"],
	})
}

type ChatRequest struct {
	Message string `json:"message"`
}

// GuestChat appends the guest's message and answers it. The LLM reply is
// best-effort: when the call fails the guest gets a canned reply for the
// detected category instead of an error.
func GuestChat(c echo.Context) error {
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
	if !property.ChatEnabled {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Chat is not enabled for this property"})
	}

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	content := strings.TrimSpace(req.Message)
	if content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Message is required"})
	}

	category := assistant.ClassifyCategory(content)
	logType := assistant.DetectLogType(content)

	guestMsg := model.ChatMessage{
		SessionID: session.ID,
		Sender:    model.SenderGuest,
		Content:   content,
		Category:  category,
		LogType:   logType,
	}
	if result := db.Create(&guestMsg); result.Error != nil {
		log.Error("Failed to store guest message", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to send message"})
	}
	prometheus.ChatMessageCounter.WithLabelValues(model.SenderGuest).Inc()

	now := time.Now().UTC()
	sessionUpdates := map[string]interface{}{"last_activity_at": now}
	if delta := assistant.HeatDelta(category); delta > 0 {
		sessionUpdates["heat_score"] = gorm.Expr("heat_score + ?", delta)
	}
	if category == assistant.CategoryUrgent {
		sessionUpdates["action_priority"] = model.PriorityUrgent
	}
	if err := db.Model(session).Updates(sessionUpdates).Error; err != nil {
		log.Warn("Failed to update session activity", zap.Error(err))
	}

	if category == assistant.CategoryUrgent {
		db.Create(&model.AdminMessage{
			PMCID:      property.PMCID,
			PropertyID: property.ID,
			Kind:       "urgent_chat",
			Subject:    "Urgent guest message",
			Body:       content,
		})
	}

	reply := assistant.FallbackReply(category, property.EmergencyPhone)
	usedFallback := true

	if property.ConciergeEnabled && svc.LLM != nil {
		var guides []model.Guide
		db.Where("property_id = ? AND is_active = ?", property.ID, true).
			Order("sort_order ASC, id ASC").
			Find(&guides)

		var history []model.ChatMessage
		db.Where("session_id = ?", session.ID).
			Order("created_at DESC, id DESC").
			Limit(chatHistoryLimit).
			Find(&history)
		for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
			history[i], history[j] = history[j], history[i]
		}

		messages := []assistant.Message{
			{Role: "system", Content: assistant.BuildConciergePrompt(&property, session, guides)},
		}
		for _, m := range history {
			role := "assistant"
			if m.Sender == model.SenderGuest {
				role = "user"
			}
			messages = append(messages, assistant.Message{Role: role, Content: m.Content})
		}

		start := time.Now()
		answer, llmErr := svc.LLM.Chat(c.Request().Context(), messages)
		prometheus.ObserveLLM("chat", start)
		if llmErr != nil || answer == "" {
			prometheus.ChatFallbackCounter.Inc()
			log.Warn("LLM chat failed, serving fallback reply",
				zap.Uint("session_id", session.ID),
				zap.Error(llmErr))
		} else {
			reply = answer
			usedFallback = false
		}
	}

	assistantMsg := model.ChatMessage{
		SessionID: session.ID,
		Sender:    model.SenderAssistant,
		Content:   reply,
		Category:  category,
	}
	if result := db.Create(&assistantMsg); result.Error != nil {
		log.Error("Failed to store assistant message", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to send message"})
	}
	prometheus.ChatMessageCounter.WithLabelValues(model.SenderAssistant).Inc()

	return c.JSON(http.StatusOK, echo.Map{
		"message":  guestMsg,
		"reply":    assistantMsg,
		"fallback": usedFallback,
	})
}

// ListGuestMessages returns the session's messages in insertion order
func ListGuestMessages(c echo.Context) error {
	session, err := guestSession(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	}

	var messages []model.ChatMessage
	result := database.GetDB().
		Where("session_id = ?", session.ID).
		Order("created_at ASC, id ASC").
		Find(&messages)
	if result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve messages"})
	}

	return c.JSON(http.StatusOK, messages)
}

// GuestUpgradeView is one upgrade plus its eligibility verdict for the stay
type GuestUpgradeView struct {
	model.Upgrade
	Eligible bool       `json:"eligible"`
	Reason   string     `json:"reason,omitempty"`
	OpensAt  *time.Time `json:"opens_at,omitempty"`
}

// stayForSession loads the reservation a verified session is bound to
func stayForSession(db *gorm.DB, session *model.ChatSession) (*model.Reservation, error) {
	if !session.IsVerified || session.PMSReservationID == "" {
		return nil, errors.New("session is not verified")
	}
	var resv model.Reservation
	err := db.Where("property_id = ? AND pms_reservation_id = ?",
		session.PropertyID, session.PMSReservationID).First(&resv).Error
	if err != nil {
		return nil, err
	}
	return &resv, nil
}

// ListGuestUpgrades returns the property's active upgrades with per-stay
// eligibility. An unverified session sees the catalog with everything locked.
func ListGuestUpgrades(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB()

	session, err := guestSession(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	}

	var list []model.Upgrade
	result := db.Where("property_id = ? AND is_active = ?", session.PropertyID, true).
		Order("sort_order ASC, id ASC").
		Find(&list)
	if result.Error != nil {
		log.Error("Failed to list upgrades", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve upgrades"})
	}

	views := make([]GuestUpgradeView, 0, len(list))

	resv, stayErr := stayForSession(db, session)
	if stayErr != nil {
		for _, u := range list {
			views = append(views, GuestUpgradeView{
				Upgrade: u,
				Reason:  "Unlock your stay to purchase upgrades.",
			})
		}
		return c.JSON(http.StatusOK, views)
	}

	stay, err := upgrades.BuildStayContext(db, resv)
	if err != nil {
		log.Error("Failed to build stay context", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to check availability"})
	}
	applyPropertyTimes(&stay, resv, sessionProperty(db, session))

	now := time.Now().UTC()
	for _, u := range list {
		verdict := upgrades.Evaluate(upgrades.UpgradeContext{
			ID:         u.ID,
			PropertyID: u.PropertyID,
			Slug:       u.Slug,
			IsActive:   u.IsActive,
		}, stay, now)
		views = append(views, GuestUpgradeView{
			Upgrade:  u,
			Eligible: verdict.Eligible,
			Reason:   verdict.Reason,
			OpensAt:  verdict.OpensAt,
		})
	}

	return c.JSON(http.StatusOK, views)
}

func sessionProperty(db *gorm.DB, session *model.ChatSession) *model.Property {
	var property model.Property
	db.First(&property, session.PropertyID)
	return &property
}

// applyPropertyTimes fills stay times from the property when the reservation
// didn't carry its own.
func applyPropertyTimes(stay *upgrades.StayContext, resv *model.Reservation, prop *model.Property) {
	if resv.CheckinTime == "" && prop.CheckinTime != "" {
		stay.CheckinTime = upgrades.ParseTimeLoose(prop.CheckinTime, upgrades.DefaultCheckin)
	}
	if resv.CheckoutTime == "" && prop.CheckoutTime != "" {
		stay.CheckoutTime = upgrades.ParseTimeLoose(prop.CheckoutTime, upgrades.DefaultCheckout)
	}
}

// CreateGuestCheckout starts a Stripe Checkout for one upgrade on the
// guest's verified stay.
func CreateGuestCheckout(c echo.Context) error {
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

	var upgrade model.Upgrade
	if result := db.Where("property_id = ? AND is_active = ?", property.ID, true).
		First(&upgrade, c.Param("upgradeId")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Upgrade not found"})
	}

	resv, stayErr := stayForSession(db, session)
	if stayErr != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Unlock your stay before purchasing upgrades"})
	}

	stay, err := upgrades.BuildStayContext(db, resv)
	if err != nil {
		log.Error("Failed to build stay context", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to check availability"})
	}
	applyPropertyTimes(&stay, resv, &property)

	verdict := upgrades.Evaluate(upgrades.UpgradeContext{
		ID:         upgrade.ID,
		PropertyID: upgrade.PropertyID,
		Slug:       upgrade.Slug,
		IsActive:   upgrade.IsActive,
	}, stay, time.Now().UTC())
	if !verdict.Eligible {
		prometheus.CheckoutCounter.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": verdict.Reason})
	}

	result, err := svc.Billing.CreateUpgradeCheckout(&property, &upgrade, session)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrAlreadyPurchased):
			prometheus.CheckoutCounter.WithLabelValues("rejected").Inc()
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		case errors.Is(err, billing.ErrNotAcceptingPayments):
			prometheus.CheckoutCounter.WithLabelValues("rejected").Inc()
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
		case errors.Is(err, billing.ErrInvalidAmount):
			prometheus.CheckoutCounter.WithLabelValues("rejected").Inc()
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		default:
			prometheus.CheckoutCounter.WithLabelValues("error").Inc()
			log.Error("Checkout creation failed",
				zap.Uint("upgrade_id", upgrade.ID),
				zap.Error(err))
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "Failed to start checkout"})
		}
	}

	prometheus.CheckoutCounter.WithLabelValues("created").Inc()
	return c.JSON(http.StatusOK, result)
}

// GetGuestPurchase returns one purchase's status for polling after redirect
func GetGuestPurchase(c echo.Context) error {
	session, err := guestSession(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	}

	var purchase model.UpgradePurchase
	result := database.GetDB().
		Where("guest_session_id = ?", session.ID).
		First(&purchase, c.Param("purchaseId"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Purchase not found"})
	}

	// The redirect back from Stripe carries the checkout session id; when the
	// caller sends it, it has to match the purchase being polled.
	if checkoutID := c.QueryParam("checkout_session_id"); checkoutID != "" &&
		purchase.StripeCheckoutSessionID != nil && *purchase.StripeCheckoutSessionID != checkoutID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Purchase not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":           purchase.ID,
		"upgrade_id":   purchase.UpgradeID,
		"status":       purchase.Status,
		"amount_cents": purchase.AmountCents,
		"currency":     purchase.Currency,
		"paid_at":      purchase.PaidAt,
	})
}

// ListGuestPurchases returns the session's paid upgrades
func ListGuestPurchases(c echo.Context) error {
	session, err := guestSession(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	}

	var purchases []model.UpgradePurchase
	result := database.GetDB().
		Preload("Upgrade").
		Where("guest_session_id = ? AND status = ?", session.ID, model.PurchasePaid).
		Order("paid_at DESC").
		Find(&purchases)
	if result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve purchases"})
	}

	return c.JSON(http.StatusOK, purchases)
}
