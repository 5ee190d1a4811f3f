package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hostscout/concierge/pkg/jwtutil"
	"github.com/hostscout/concierge/pkg/logger"
	"github.com/hostscout/concierge/prometheus"
)

// AuthMiddleware validates the bearer token and stores the claims plus the
// PMC scope in the request context. Every admin handler reads pmc_id from
// here; the URL never decides the tenant.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing authorization header")
			prometheus.RecordAuthError("missing_header")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Missing authorization header"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			log.Warn("Invalid authorization header format")
			prometheus.RecordAuthError("invalid_header")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid authorization header format"})
		}

		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Warn("Invalid or expired token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"})
		}

		c.Set("user", claims)
		c.Set("user_id", claims.UserID)
		c.Set("pmc_id", claims.PMCID)

		log.Debug("JWT token validated",
			zap.Uint("user_id", claims.UserID),
			zap.Uint("pmc_id", claims.PMCID))

		return next(c)
	}
}

// PMCID returns the tenant scope set by AuthMiddleware
func PMCID(c echo.Context) uint {
	id, _ := c.Get("pmc_id").(uint)
	return id
}

// Claims returns the validated JWT claims set by AuthMiddleware
func Claims(c echo.Context) *jwtutil.UserClaims {
	claims, _ := c.Get("user").(*jwtutil.UserClaims)
	return claims
}
