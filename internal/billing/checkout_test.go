package billing

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hostscout/concierge/internal/model"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.Upgrade{}, &model.UpgradePurchase{}, &model.ChatSession{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return &Service{db: db}
}

func seedUpgrade(t *testing.T, db *gorm.DB, propertyID uint, slug string, price int64) *model.Upgrade {
	t.Helper()
	u := &model.Upgrade{
		PropertyID: propertyID,
		Slug:       slug,
		Title:      slug,
		PriceCents: price,
		Currency:   "usd",
		IsActive:   true,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("failed to seed upgrade: %v", err)
	}
	return u
}

func TestPreparePurchaseCreatesPendingRow(t *testing.T) {
	svc := newTestService(t)
	prop := &model.Property{ID: 1, PMCID: 1}
	upgrade := seedUpgrade(t, svc.db, prop.ID, "early-check-in", 5000)
	session := &model.ChatSession{ID: 10}

	purchase, err := svc.preparePurchase(prop, upgrade, session, "acct_test")
	if err != nil {
		t.Fatalf("preparePurchase: %v", err)
	}
	if purchase.Status != model.PurchasePending {
		t.Errorf("status = %q, want %q", purchase.Status, model.PurchasePending)
	}
	if purchase.StripeCheckoutSessionID != nil {
		t.Errorf("checkout session id should be unset before the Stripe call, got %q",
			*purchase.StripeCheckoutSessionID)
	}
	if purchase.AmountCents != 5000 || purchase.PlatformFeeCents != PlatformFeeCents(5000) {
		t.Errorf("amounts = %d/%d, want 5000/%d",
			purchase.AmountCents, purchase.PlatformFeeCents, PlatformFeeCents(5000))
	}
	if purchase.NetAmountCents != purchase.AmountCents-purchase.PlatformFeeCents {
		t.Errorf("net = %d, want %d", purchase.NetAmountCents, purchase.AmountCents-purchase.PlatformFeeCents)
	}
}

// Two stays checking out before their Stripe sessions exist must both get
// rows; the nullable checkout session id column cannot collide on "".
func TestPreparePurchaseUnrelatedStaysDoNotCollide(t *testing.T) {
	svc := newTestService(t)
	prop := &model.Property{ID: 1, PMCID: 1}
	upgrade := seedUpgrade(t, svc.db, prop.ID, "late-checkout", 4000)

	first, err := svc.preparePurchase(prop, upgrade, &model.ChatSession{ID: 11}, "acct_test")
	if err != nil {
		t.Fatalf("first stay: %v", err)
	}
	second, err := svc.preparePurchase(prop, upgrade, &model.ChatSession{ID: 12}, "acct_test")
	if err != nil {
		t.Fatalf("second stay: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("both stays share purchase row %d", first.ID)
	}

	var count int64
	svc.db.Model(&model.UpgradePurchase{}).Where("upgrade_id = ?", upgrade.ID).Count(&count)
	if count != 2 {
		t.Errorf("purchase rows = %d, want 2", count)
	}
}

// A guest who abandoned checkout gets the same pending row back on retry
// instead of an ever-growing pile of rows.
func TestPreparePurchaseReusesAbandonedPendingRow(t *testing.T) {
	svc := newTestService(t)
	prop := &model.Property{ID: 1, PMCID: 1}
	upgrade := seedUpgrade(t, svc.db, prop.ID, "early-check-in", 5000)
	session := &model.ChatSession{ID: 20}

	first, err := svc.preparePurchase(prop, upgrade, session, "acct_test")
	if err != nil {
		t.Fatalf("first attempt: %v", err)
	}

	// The abandoned attempt got as far as a Stripe session id.
	stale := "cs_test_stale"
	if err := svc.db.Model(first).Update("stripe_checkout_session_id", stale).Error; err != nil {
		t.Fatalf("failed to attach stale session id: %v", err)
	}

	// The host also raised the price in the meantime.
	upgrade.PriceCents = 6000
	retry, err := svc.preparePurchase(prop, upgrade, session, "acct_test")
	if err != nil {
		t.Fatalf("retry after abandoned checkout: %v", err)
	}
	if retry.ID != first.ID {
		t.Errorf("retry created row %d instead of reusing %d", retry.ID, first.ID)
	}
	if retry.StripeCheckoutSessionID != nil {
		t.Errorf("stale checkout session id survived the retry: %q", *retry.StripeCheckoutSessionID)
	}
	if retry.AmountCents != 6000 || retry.PlatformFeeCents != PlatformFeeCents(6000) {
		t.Errorf("retry amounts = %d/%d, want 6000/%d",
			retry.AmountCents, retry.PlatformFeeCents, PlatformFeeCents(6000))
	}

	var count int64
	svc.db.Model(&model.UpgradePurchase{}).
		Where("guest_session_id = ? AND upgrade_id = ?", session.ID, upgrade.ID).Count(&count)
	if count != 1 {
		t.Errorf("purchase rows = %d, want 1", count)
	}
}

func TestPreparePurchaseBlocksAfterPaid(t *testing.T) {
	svc := newTestService(t)
	prop := &model.Property{ID: 1, PMCID: 1}
	upgrade := seedUpgrade(t, svc.db, prop.ID, "early-check-in", 5000)
	session := &model.ChatSession{ID: 30}

	purchase, err := svc.preparePurchase(prop, upgrade, session, "acct_test")
	if err != nil {
		t.Fatalf("preparePurchase: %v", err)
	}
	if err := svc.db.Model(purchase).Update("status", model.PurchasePaid).Error; err != nil {
		t.Fatalf("failed to mark paid: %v", err)
	}

	if _, err := svc.preparePurchase(prop, upgrade, session, "acct_test"); !errors.Is(err, ErrAlreadyPurchased) {
		t.Errorf("err = %v, want ErrAlreadyPurchased", err)
	}
}

// A refunded purchase frees the slot; the guest can buy the upgrade again.
func TestPreparePurchaseAllowsRebuyAfterRefund(t *testing.T) {
	svc := newTestService(t)
	prop := &model.Property{ID: 1, PMCID: 1}
	upgrade := seedUpgrade(t, svc.db, prop.ID, "late-checkout", 4000)
	session := &model.ChatSession{ID: 40}

	first, err := svc.preparePurchase(prop, upgrade, session, "acct_test")
	if err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	if err := svc.db.Model(first).Update("status", model.PurchaseRefunded).Error; err != nil {
		t.Fatalf("failed to mark refunded: %v", err)
	}

	rebuy, err := svc.preparePurchase(prop, upgrade, session, "acct_test")
	if err != nil {
		t.Fatalf("rebuy after refund: %v", err)
	}
	if rebuy.ID == first.ID {
		t.Errorf("rebuy reused the refunded row %d", first.ID)
	}
}

func TestPreparePurchaseRejectsFreeUpgrade(t *testing.T) {
	svc := newTestService(t)
	prop := &model.Property{ID: 1, PMCID: 1}
	upgrade := seedUpgrade(t, svc.db, prop.ID, "welcome-basket", 0)

	if _, err := svc.preparePurchase(prop, upgrade, &model.ChatSession{ID: 50}, "acct_test"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("err = %v, want ErrInvalidAmount", err)
	}
}
