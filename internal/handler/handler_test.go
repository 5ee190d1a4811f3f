package handler

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hostscout/concierge/internal/model"
	"github.com/hostscout/concierge/pkg/database"
)

// setupHandlerDB swaps the package-global DB for an in-memory one so the
// handlers under test run against it.
func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Property{},
		&model.Upgrade{},
		&model.ChatSession{},
		&model.ChatMessage{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })
	return db
}

// newJSONContext builds an Echo context the way AuthMiddleware would have
// left it for a PMC admin request.
func newJSONContext(t *testing.T, method, path, body string, pmcID uint) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.Set("logger", zap.NewNop())
	if pmcID != 0 {
		c.Set("pmc_id", pmcID)
	}
	return c, rec
}

// newGuestContext builds an Echo context carrying the guest session token.
func newGuestContext(t *testing.T, method, path, token string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(GuestTokenHeader, token)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.Set("logger", zap.NewNop())
	return c, rec
}
