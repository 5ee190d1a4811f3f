package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hostscout/concierge/internal/middleware"
	"github.com/hostscout/concierge/internal/model"
	"github.com/hostscout/concierge/pkg/database"
	"github.com/hostscout/concierge/pkg/jwtutil"
	"github.com/hostscout/concierge/pkg/logger"
	"github.com/hostscout/concierge/prometheus"
)

// Signup creates a new PMC together with its owner account.
// Billing starts as pending; the Stripe webhook flips it to active.
func Signup(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		CompanyName string `json:"company_name"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		FullName    string `json:"full_name"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.CompanyName == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "company_name, email and password are required"})
	}

	db := database.GetDB()

	var count int64
	db.Model(&model.PMCUser{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		log.Warn("Signup with existing email", zap.String("email", req.Email))
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}

	tx := db.Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	pmc := model.PMC{
		Name:          req.CompanyName,
		Email:         req.Email,
		BillingStatus: model.BillingPending,
		Active:        true,
		SyncEnabled:   false,
	}
	if result := tx.Create(&pmc); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create PMC", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}

	user := model.PMCUser{
		PMCID:    pmc.ID,
		Email:    req.Email,
		Password: string(hashed),
		FullName: req.FullName,
		Role:     "owner",
		IsActive: true,
	}
	if result := tx.Create(&user); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create owner user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit signup", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}

	token, err := jwtutil.GenerateToken(user.Email, user.ID, pmc.ID, pmc.Name, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("PMC signed up",
		zap.Uint("pmc_id", pmc.ID),
		zap.String("company", pmc.Name))

	return c.JSON(http.StatusCreated, echo.Map{
		"token": token,
		"pmc":   pmc,
		"user":  user,
	})
}

// Login authenticates a dashboard user and issues a PMC-scoped token
func Login(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	db := database.GetDB()

	var user model.PMCUser
	result := db.Where("email = ? AND is_active = ?", req.Email, true).First(&user)
	if result.Error != nil {
		log.Warn("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	var pmc model.PMC
	if result := db.First(&pmc, user.PMCID); result.Error != nil {
		log.Error("PMC missing for user", zap.Uint("pmc_id", user.PMCID))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	token, err := jwtutil.GenerateToken(user.Email, user.ID, pmc.ID, pmc.Name, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	now := time.Now().UTC()
	db.Model(&user).Update("last_login_at", now)

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.Uint("pmc_id", pmc.ID),
		zap.String("role", user.Role))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user": echo.Map{
			"id":        user.ID,
			"email":     user.Email,
			"full_name": user.FullName,
			"role":      user.Role,
		},
		"pmc": echo.Map{
			"id":             pmc.ID,
			"name":           pmc.Name,
			"billing_status": pmc.BillingStatus,
		},
	})
}

// Me returns the authenticated user's profile and PMC
func Me(c echo.Context) error {
	claims := middleware.Claims(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	db := database.GetDB()

	var user model.PMCUser
	if result := db.First(&user, claims.UserID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	var pmc model.PMC
	if result := db.First(&pmc, claims.PMCID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "PMC not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"user": user, "pmc": pmc})
}
