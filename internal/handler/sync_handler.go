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

// TriggerSync runs a PMS sync for the caller's PMC right now
func TriggerSync(c echo.Context) error {
	log := logger.FromEcho(c)
	pmcID := middleware.PMCID(c)
	db := database.GetDB()

	var pmc model.PMC
	if result := db.First(&pmc, pmcID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Account not found"})
	}
	if !pmc.SyncEnabled {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "Sync is not enabled for this account"})
	}

	log.Info("Manual PMS sync requested", zap.Uint("pmc_id", pmc.ID))

	result := svc.Syncer.SyncPMC(c.Request().Context(), &pmc)
	if result.Error != "" {
		return c.JSON(http.StatusBadGateway, result)
	}
	if result.SkippedNoProvider {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "No connected PMS integration to sync"})
	}

	return c.JSON(http.StatusOK, result)
}

type IntegrationRequest struct {
	Provider  string `json:"provider"`
	AccountID string `json:"account_id"`
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
}

// ConnectIntegration creates or replaces the PMC's credentials for a
// provider. One integration row per (pmc, provider).
func ConnectIntegration(c echo.Context) error {
	log := logger.FromEcho(c)
	pmcID := middleware.PMCID(c)
	db := database.GetDB()

	var req IntegrationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.Provider == "" || req.AccountID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Provider and account_id are required"})
	}
	if req.Provider != model.ProviderHostaway && req.Provider != model.ProviderStripeConnect {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Unsupported provider"})
	}

	var integration model.PMCIntegration
	err := db.Where("pmc_id = ? AND provider = ?", pmcID, req.Provider).First(&integration).Error
	if err != nil {
		integration = model.PMCIntegration{
			PMCID:    pmcID,
			Provider: req.Provider,
		}
	}

	integration.AccountID = req.AccountID
	integration.APIKey = req.APIKey
	integration.APISecret = req.APISecret
	integration.IsConnected = true
	integration.LastError = ""

	if err := db.Save(&integration).Error; err != nil {
		log.Error("Failed to save integration",
			zap.String("provider", req.Provider),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to save integration"})
	}

	log.Info("Integration connected",
		zap.Uint("pmc_id", pmcID),
		zap.String("provider", req.Provider))

	return c.JSON(http.StatusOK, integration)
}

// ListIntegrations returns the PMC's integrations and their sync health
func ListIntegrations(c echo.Context) error {
	pmcID := middleware.PMCID(c)

	var integrations []model.PMCIntegration
	result := database.GetDB().
		Where("pmc_id = ?", pmcID).
		Order("provider ASC").
		Find(&integrations)
	if result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve integrations"})
	}

	return c.JSON(http.StatusOK, integrations)
}

// DisconnectIntegration marks an integration as disconnected without
// deleting its history
func DisconnectIntegration(c echo.Context) error {
	log := logger.FromEcho(c)
	pmcID := middleware.PMCID(c)
	db := database.GetDB()

	var integration model.PMCIntegration
	if result := db.Where("pmc_id = ?", pmcID).First(&integration, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Integration not found"})
	}

	updates := map[string]interface{}{
		"is_connected": false,
		"api_key":      "",
		"api_secret":   "",
	}
	if err := db.Model(&integration).Updates(updates).Error; err != nil {
		log.Error("Failed to disconnect integration", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to disconnect integration"})
	}

	log.Info("Integration disconnected",
		zap.Uint("pmc_id", pmcID),
		zap.String("provider", integration.Provider))

	return c.JSON(http.StatusOK, echo.Map{"message": "Integration disconnected"})
}

// SyncStatus reports the PMC's last sync timestamps per integration
func SyncStatus(c echo.Context) error {
	pmcID := middleware.PMCID(c)
	db := database.GetDB()

	var pmc model.PMC
	if result := db.First(&pmc, pmcID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Account not found"})
	}

	var integrations []model.PMCIntegration
	db.Where("pmc_id = ?", pmcID).Find(&integrations)

	type integrationStatus struct {
		Provider     string     `json:"provider"`
		IsConnected  bool       `json:"is_connected"`
		LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
		LastError    string     `json:"last_error,omitempty"`
	}
	statuses := make([]integrationStatus, 0, len(integrations))
	for _, in := range integrations {
		statuses = append(statuses, integrationStatus{
			Provider:     in.Provider,
			IsConnected:  in.IsConnected,
			LastSyncedAt: in.LastSyncedAt,
			LastError:    in.LastError,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"sync_enabled":   pmc.SyncEnabled,
		"last_synced_at": pmc.LastSyncedAt,
		"integrations":   statuses,
	})
}
