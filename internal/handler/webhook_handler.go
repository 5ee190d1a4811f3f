package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hostscout/concierge/pkg/logger"
	"github.com/hostscout/concierge/prometheus"
)

// Stripe retries on non-2xx, so only signature failures and handler errors
// return one. Unhandled event types are acknowledged and dropped.
func StripeWebhook(c echo.Context) error {
	log := logger.FromEcho(c)

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Failed to read payload"})
	}

	event, err := svc.Billing.VerifyAndParse(payload, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		log.Warn("Webhook signature verification failed", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid signature"})
	}

	prometheus.WebhookEventCounter.WithLabelValues(event.Type).Inc()
	log.Info("Stripe webhook received",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type))

	if err := svc.Billing.HandleEvent(event); err != nil {
		log.Error("Webhook handling failed",
			zap.String("event_id", event.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to process event"})
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
