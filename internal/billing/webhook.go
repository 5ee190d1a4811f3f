package billing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"github.com/hostscout/concierge/internal/model"
)

// Webhook event types we react to; everything else is acknowledged and dropped
var handledEvents = map[string]bool{
	"checkout.session.completed":      true,
	"invoice.payment_failed":          true,
	"invoice.payment_action_required": true,
	"customer.subscription.updated":   true,
	"customer.subscription.deleted":   true,
}

// WebhookEvent is the slice of a Stripe event this service reads
type WebhookEvent struct {
	ID     string
	Type   string
	Object webhookObject
}

type webhookObject struct {
	ID              string            `json:"id"`
	Customer        string            `json:"customer"`
	Subscription    string            `json:"subscription"`
	PaymentIntent   string            `json:"payment_intent"`
	Status          string            `json:"status"`
	CustomerEmail   string            `json:"customer_email"`
	CustomerDetails *customerDetails  `json:"customer_details"`
	Metadata        map[string]string `json:"metadata"`
}

type customerDetails struct {
	Email string `json:"email"`
}

// VerifyAndParse checks the webhook signature and extracts the fields this
// service cares about.
func (s *Service) VerifyAndParse(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.cfg.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook signature: %w", err)
	}

	var obj webhookObject
	if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
		return nil, fmt.Errorf("webhook object decode: %w", err)
	}

	return &WebhookEvent{ID: event.ID, Type: string(event.Type), Object: obj}, nil
}

// HandleEvent applies one verified webhook event. Unknown types and unmatched
// PMCs are acknowledged silently so Stripe stops retrying.
func (s *Service) HandleEvent(event *WebhookEvent) error {
	if !handledEvents[event.Type] {
		return nil
	}

	log := zap.L().With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))

	// Guest upgrade purchases resolve by purchase metadata and return early so
	// PMC billing logic never touches them.
	if event.Type == "checkout.session.completed" && event.Object.Metadata["type"] == "upgrade_purchase" {
		return s.applyUpgradePaid(log, event)
	}

	pmc := s.findPMC(&event.Object)
	if pmc == nil {
		log.Warn("webhook matched no PMC")
		return nil
	}

	// Duplicate deliveries of the same event are no-ops
	if pmc.LastStripeEventID == event.ID {
		return nil
	}

	updates := map[string]interface{}{"last_stripe_event_id": event.ID}

	switch event.Type {
	case "checkout.session.completed":
		checkoutType := event.Object.Metadata["type"]
		if checkoutType != "" && checkoutType != "pmc_full_activation" && checkoutType != "pmc_signup_onetime" {
			break
		}
		if event.Object.Customer != "" {
			updates["stripe_customer_id"] = event.Object.Customer
		}
		if event.Object.Subscription != "" {
			updates["stripe_subscription_id"] = event.Object.Subscription
		}
		updates["billing_status"] = model.BillingActive
		updates["active"] = true
		updates["sync_enabled"] = true
		updates["signup_paid_at"] = time.Now().UTC()
		log.Info("PMC activated via checkout", zap.Uint("pmc_id", pmc.ID))

	case "invoice.payment_failed", "invoice.payment_action_required":
		updates["billing_status"] = model.BillingPastDue
		updates["active"] = false
		log.Warn("PMC payment issue", zap.Uint("pmc_id", pmc.ID))

	case "customer.subscription.deleted":
		updates["billing_status"] = model.BillingCancel
		updates["active"] = false
		log.Info("PMC subscription canceled", zap.Uint("pmc_id", pmc.ID))

	case "customer.subscription.updated":
		switch strings.ToLower(event.Object.Status) {
		case "active", "trialing":
			updates["billing_status"] = model.BillingActive
			updates["active"] = true
		case "past_due", "unpaid", "incomplete", "incomplete_expired":
			updates["billing_status"] = model.BillingPastDue
			updates["active"] = false
		case "canceled":
			updates["billing_status"] = model.BillingCancel
			updates["active"] = false
		}
	}

	return s.db.Model(pmc).Updates(updates).Error
}

// applyUpgradePaid idempotently marks an upgrade purchase as paid
func (s *Service) applyUpgradePaid(log *zap.Logger, event *WebhookEvent) error {
	purchaseID, err := strconv.ParseUint(event.Object.Metadata["purchase_id"], 10, 64)
	if err != nil {
		log.Warn("upgrade purchase webhook missing purchase_id")
		return nil
	}

	var purchase model.UpgradePurchase
	if err := s.db.First(&purchase, uint(purchaseID)).Error; err != nil {
		log.Warn("upgrade purchase not found", zap.Uint64("purchase_id", purchaseID))
		return nil
	}

	// Already applied: duplicate delivery
	if purchase.Status == model.PurchasePaid {
		return nil
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":  model.PurchasePaid,
		"paid_at": now,
	}
	if purchase.StripeCheckoutSessionID == nil && event.Object.ID != "" {
		updates["stripe_checkout_session_id"] = event.Object.ID
	}
	if purchase.StripePaymentIntentID == "" && event.Object.PaymentIntent != "" {
		updates["stripe_payment_intent_id"] = event.Object.PaymentIntent
	}
	if err := s.db.Model(&purchase).Updates(updates).Error; err != nil {
		return err
	}

	// Surface the sale on the PMC inbox
	var upgrade model.Upgrade
	subject := "Upgrade purchased"
	if err := s.db.First(&upgrade, purchase.UpgradeID).Error; err == nil {
		subject = fmt.Sprintf("Upgrade purchased: %s", upgrade.Title)
	}
	meta, _ := json.Marshal(map[string]interface{}{
		"purchase_id": purchase.ID,
		"upgrade_id":  purchase.UpgradeID,
		"session_id":  purchase.GuestSessionID,
	})
	s.db.Create(&model.AdminMessage{
		PMCID:      purchase.PMCID,
		PropertyID: purchase.PropertyID,
		Kind:       "upgrade_purchase",
		Subject:    subject,
		Body:       fmt.Sprintf("A guest paid %d %s.", purchase.AmountCents, strings.ToUpper(purchase.Currency)),
		Meta:       string(meta),
	})

	log.Info("upgrade purchase paid",
		zap.Uint("purchase_id", purchase.ID),
		zap.Int64("amount_cents", purchase.AmountCents))
	return nil
}

// findPMC resolves a billing event to a PMC: metadata pmc_id, then customer
// id, then subscription id, then email.
func (s *Service) findPMC(obj *webhookObject) *model.PMC {
	var pmc model.PMC

	if raw := obj.Metadata["pmc_id"]; raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			if err := s.db.First(&pmc, uint(id)).Error; err == nil {
				return &pmc
			}
		}
	}

	if obj.Customer != "" {
		if err := s.db.Where("stripe_customer_id = ?", obj.Customer).First(&pmc).Error; err == nil {
			return &pmc
		}
	}

	subscriptionID := obj.Subscription
	if subscriptionID == "" && strings.HasPrefix(obj.ID, "sub_") {
		subscriptionID = obj.ID
	}
	if subscriptionID != "" && strings.HasPrefix(subscriptionID, "sub_") {
		if err := s.db.Where("stripe_subscription_id = ?", subscriptionID).First(&pmc).Error; err == nil {
			return &pmc
		}
	}

	email := obj.CustomerEmail
	if obj.CustomerDetails != nil && obj.CustomerDetails.Email != "" {
		email = obj.CustomerDetails.Email
	}
	if email != "" {
		email = strings.ToLower(strings.TrimSpace(email))
		if err := s.db.Where("LOWER(email) = ?", email).Order("id DESC").First(&pmc).Error; err == nil {
			return &pmc
		}
	}

	return nil
}
