package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hostscout/concierge/internal/middleware"
	"github.com/hostscout/concierge/internal/model"
	"github.com/hostscout/concierge/pkg/database"
	"github.com/hostscout/concierge/pkg/logger"
)

var validRoles = map[string]bool{
	"owner": true,
	"admin": true,
	"staff": true,
}

// ListTeamMembers returns all staff accounts on the PMC
func ListTeamMembers(c echo.Context) error {
	log := logger.FromEcho(c)
	pmcID := middleware.PMCID(c)

	var users []model.PMCUser
	result := database.GetDB().
		Where("pmc_id = ?", pmcID).
		Order("created_at ASC").
		Find(&users)
	if result.Error != nil {
		log.Error("Failed to list team members", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve team members"})
	}

	return c.JSON(http.StatusOK, users)
}

type TeamMemberRequest struct {
	Email             string          `json:"email"`
	Password          string          `json:"password"`
	FullName          string          `json:"full_name"`
	Role              string          `json:"role"`
	Timezone          string          `json:"timezone"`
	IsActive          *bool           `json:"is_active"`
	NotificationPrefs json.RawMessage `json:"notification_prefs"`
}

// CreateTeamMember invites a staff account onto the PMC.
// Only owners and admins can manage the team.
func CreateTeamMember(c echo.Context) error {
	log := logger.FromEcho(c)
	pmcID := middleware.PMCID(c)
	claims := middleware.Claims(c)
	db := database.GetDB()

	if claims == nil || (claims.Role != "owner" && claims.Role != "admin") {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Only owners and admins can manage the team"})
	}

	var req TeamMemberRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email and password are required"})
	}
	if req.Role == "" {
		req.Role = "staff"
	}
	if !validRoles[req.Role] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid role"})
	}

	// Check email uniqueness within the PMC
	var count int64
	db.Model(&model.PMCUser{}).
		Where("pmc_id = ? AND email = ?", pmcID, req.Email).
		Count(&count)
	if count > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "A team member with this email already exists"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create team member"})
	}

	user := model.PMCUser{
		PMCID:    pmcID,
		Email:    req.Email,
		Password: string(hashed),
		FullName: req.FullName,
		Role:     req.Role,
		Timezone: req.Timezone,
		IsActive: true,
	}
	if result := db.Create(&user); result.Error != nil {
		log.Error("Failed to create team member", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create team member"})
	}

	log.Info("Team member created",
		zap.Uint("pmc_id", pmcID),
		zap.String("email", user.Email),
		zap.String("role", user.Role))

	return c.JSON(http.StatusCreated, user)
}

// UpdateTeamMember edits a staff account
func UpdateTeamMember(c echo.Context) error {
	log := logger.FromEcho(c)
	pmcID := middleware.PMCID(c)
	claims := middleware.Claims(c)
	db := database.GetDB()

	if claims == nil || (claims.Role != "owner" && claims.Role != "admin") {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Only owners and admins can manage the team"})
	}

	var user model.PMCUser
	if result := db.Where("pmc_id = ?", pmcID).First(&user, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Team member not found"})
	}

	var req TeamMemberRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Timezone != "" {
		user.Timezone = req.Timezone
	}
	if req.Role != "" {
		if !validRoles[req.Role] {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid role"})
		}
		// The last owner cannot be demoted
		if user.Role == "owner" && req.Role != "owner" {
			var owners int64
			db.Model(&model.PMCUser{}).
				Where("pmc_id = ? AND role = ? AND is_active = ?", pmcID, "owner", true).
				Count(&owners)
			if owners <= 1 {
				return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "Cannot demote the only owner"})
			}
		}
		user.Role = req.Role
	}
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update team member"})
		}
		user.Password = string(hashed)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if len(req.NotificationPrefs) > 0 {
		user.NotificationPrefs = string(req.NotificationPrefs)
	}

	if result := db.Save(&user); result.Error != nil {
		log.Error("Failed to update team member", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update team member"})
	}

	return c.JSON(http.StatusOK, user)
}

// DeleteTeamMember removes a staff account. Owners cannot be deleted; demote
// them first.
func DeleteTeamMember(c echo.Context) error {
	log := logger.FromEcho(c)
	pmcID := middleware.PMCID(c)
	claims := middleware.Claims(c)
	db := database.GetDB()

	if claims == nil || (claims.Role != "owner" && claims.Role != "admin") {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Only owners and admins can manage the team"})
	}

	var user model.PMCUser
	if result := db.Where("pmc_id = ?", pmcID).First(&user, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Team member not found"})
	}
	if user.Role == "owner" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "Owners cannot be deleted"})
	}
	if claims.UserID == user.ID {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "You cannot delete your own account"})
	}

	if result := db.Delete(&user); result.Error != nil {
		log.Error("Failed to delete team member", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete team member"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Team member deleted successfully"})
}
