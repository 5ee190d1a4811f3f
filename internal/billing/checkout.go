package billing

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hostscout/concierge/internal/model"
	"github.com/hostscout/concierge/pkg/config"
)

// Checkout flow errors, mapped to HTTP statuses by the handlers
var (
	ErrAlreadyPurchased     = errors.New("this upgrade has already been purchased for this stay")
	ErrNotAcceptingPayments = errors.New("this property is not accepting upgrade payments yet")
	ErrInvalidAmount        = errors.New("invalid upgrade amount")
)

// Service owns the Stripe-facing purchase flow
type Service struct {
	db  *gorm.DB
	cfg *config.StripeConfig
	// Base URL the guest is redirected back to after checkout
	appBaseURL string
}

// CheckoutResult is returned to the guest app to start the redirect
type CheckoutResult struct {
	CheckoutURL string `json:"checkout_url"`
	PurchaseID  uint   `json:"purchase_id"`
}

// NewService creates the billing service
func NewService(db *gorm.DB, cfg *config.StripeConfig, appBaseURL string) *Service {
	stripe.Key = cfg.SecretKey
	return &Service{db: db, cfg: cfg, appBaseURL: appBaseURL}
}

// CreateUpgradeCheckout creates a pending purchase and its hosted Stripe
// Checkout Session. The charge lands on the PMC's connected account with the
// platform fee withheld.
func (s *Service) CreateUpgradeCheckout(prop *model.Property, upgrade *model.Upgrade, session *model.ChatSession) (*CheckoutResult, error) {
	log := zap.L().With(
		zap.Uint("property_id", prop.ID),
		zap.Uint("upgrade_id", upgrade.ID),
		zap.Uint("session_id", session.ID))

	destination, err := s.connectedAccount(prop.PMCID)
	if err != nil {
		return nil, err
	}

	purchase, err := s.preparePurchase(prop, upgrade, session, destination)
	if err != nil {
		return nil, err
	}

	successURL := fmt.Sprintf(
		"%s/guest/%d?screen=upgrades&upgrade=success&purchase_id=%d&upgrade_id=%d&session_id={CHECKOUT_SESSION_ID}",
		s.appBaseURL, prop.ID, purchase.ID, upgrade.ID)
	cancelURL := fmt.Sprintf(
		"%s/guest/%d?screen=upgrades&upgrade=cancel&purchase_id=%d&upgrade_id=%d",
		s.appBaseURL, prop.ID, purchase.ID, upgrade.ID)

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(upgrade.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(upgrade.Title),
					},
					UnitAmount: stripe.Int64(purchase.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(purchase.PlatformFeeCents),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(destination),
			},
		},
	}
	metadata := map[string]string{
		"type":        "upgrade_purchase",
		"purchase_id": fmt.Sprintf("%d", purchase.ID),
		"pmc_id":      fmt.Sprintf("%d", prop.PMCID),
		"property_id": fmt.Sprintf("%d", prop.ID),
		"upgrade_id":  fmt.Sprintf("%d", upgrade.ID),
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
		params.PaymentIntentData.AddMetadata(k, v)
	}

	checkout, err := checkoutsession.New(params)
	if err != nil {
		// The pending row stays behind for reconciliation; it can never be
		// confused with a paid purchase.
		log.Error("stripe checkout session creation failed", zap.Error(err))
		return nil, fmt.Errorf("checkout session creation failed: %w", err)
	}

	if err := s.db.Model(purchase).
		Update("stripe_checkout_session_id", checkout.ID).Error; err != nil {
		return nil, err
	}

	log.Info("upgrade checkout created",
		zap.Uint("purchase_id", purchase.ID),
		zap.Int64("amount_cents", purchase.AmountCents),
		zap.Int64("fee_cents", purchase.PlatformFeeCents))

	return &CheckoutResult{CheckoutURL: checkout.URL, PurchaseID: purchase.ID}, nil
}

// preparePurchase returns the pending purchase row the Stripe session will be
// attached to. A paid row for the same (session, upgrade) pair blocks the
// checkout; an abandoned pending row is reused so retries don't pile up.
func (s *Service) preparePurchase(prop *model.Property, upgrade *model.Upgrade, session *model.ChatSession, destination string) (*model.UpgradePurchase, error) {
	var paid int64
	s.db.Model(&model.UpgradePurchase{}).
		Where("guest_session_id = ? AND upgrade_id = ? AND status = ?",
			session.ID, upgrade.ID, model.PurchasePaid).
		Count(&paid)
	if paid > 0 {
		return nil, ErrAlreadyPurchased
	}

	amount := upgrade.PriceCents
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	fee := PlatformFeeCents(amount)
	net := amount - fee
	if net <= 0 {
		return nil, ErrInvalidAmount
	}

	var purchase model.UpgradePurchase
	err := s.db.Where("guest_session_id = ? AND upgrade_id = ? AND status = ?",
		session.ID, upgrade.ID, model.PurchasePending).
		Order("id DESC").First(&purchase).Error
	if err == nil {
		// Price or destination may have changed since the abandoned attempt;
		// the stale Stripe session id is cleared until the new one is created.
		updates := map[string]interface{}{
			"amount_cents":                  amount,
			"platform_fee_cents":            fee,
			"net_amount_cents":              net,
			"currency":                      upgrade.Currency,
			"stripe_destination_account_id": destination,
			"stripe_checkout_session_id":    nil,
		}
		if err := s.db.Model(&purchase).Updates(updates).Error; err != nil {
			return nil, err
		}
		purchase.AmountCents = amount
		purchase.PlatformFeeCents = fee
		purchase.NetAmountCents = net
		purchase.Currency = upgrade.Currency
		purchase.StripeDestinationAccountID = destination
		purchase.StripeCheckoutSessionID = nil
		return &purchase, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	purchase = model.UpgradePurchase{
		PMCID:                      prop.PMCID,
		PropertyID:                 prop.ID,
		UpgradeID:                  upgrade.ID,
		GuestSessionID:             session.ID,
		AmountCents:                amount,
		PlatformFeeCents:           fee,
		NetAmountCents:             net,
		Currency:                   upgrade.Currency,
		Status:                     model.PurchasePending,
		StripeDestinationAccountID: destination,
	}
	if err := s.db.Create(&purchase).Error; err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}
	return &purchase, nil
}

// connectedAccount returns the PMC's Stripe Connect account id, or
// ErrNotAcceptingPayments when no connected integration exists.
func (s *Service) connectedAccount(pmcID uint) (string, error) {
	var integration model.PMCIntegration
	err := s.db.Where("pmc_id = ? AND provider = ? AND is_connected = ?",
		pmcID, model.ProviderStripeConnect, true).First(&integration).Error
	if err != nil || integration.AccountID == "" {
		return "", ErrNotAcceptingPayments
	}
	return integration.AccountID, nil
}
