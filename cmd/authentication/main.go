// This is a **mock authentication service**, designed to provide JWT tokens
// for the CRM API, simulating user authentication.
package main

import (
	"fmt"
	"net/http"

	"github.com/gartstein/crm/internal/crm/auth"
	"github.com/gartstein/crm/internal/crm/config"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TokenResponse represents the response structure
type TokenResponse struct {
	Token string `json:"token"`
}

// tokenHandler signs a token for the user named by the user_id query parameter.
func tokenHandler(secret string, logger *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := uuid.Parse(c.QueryParam("user_id"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "user_id must be a uuid")
		}

		token, err := auth.GenerateToken(userID.String(), secret)
		if err != nil {
			logger.Error("Failed to generate token", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
		}
		return c.JSON(http.StatusOK, TokenResponse{Token: token})
	}
}

func newApp(secret string, logger *zap.Logger) *echo.Echo {
	app := echo.New()
	app.HideBanner = true
	app.GET("/token", tokenHandler(secret, logger))
	return app
}

func main() {
	logger, _ := zap.NewProduction()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	cfg, err := config.Load(config.Path())
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	addr := fmt.Sprintf(":%d", cfg.AuthPort)
	logger.Info("Authentication service running", zap.String("endpoint", addr))
	if err := newApp(cfg.JWTSecret, logger).Start(addr); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Authentication service failed", zap.Error(err))
	}
}
