package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	e "github.com/gartstein/crm/internal/crm/errors"
	"github.com/gartstein/crm/internal/crm/models"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type contextKey string

const actorContextKey contextKey = "actor"

// ActorLoader loads the user a token was issued for.
type ActorLoader interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// WithActor returns a copy of ctx carrying the acting user.
func WithActor(ctx context.Context, actor *models.User) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFrom returns the acting user stored by the middleware, or nil.
func ActorFrom(ctx context.Context) *models.User {
	actor, _ := ctx.Value(actorContextKey).(*models.User)
	return actor
}

// Middleware authenticates requests with a Bearer JWT whose subject is an
// active user id. The user is stored on the request context.
func Middleware(jwtSecret string, users ActorLoader, logger *zap.Logger) echo.MiddlewareFunc {
	logger = logger.Named("auth")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := extractTokenFromHeader(c.Request())
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			claims, err := validateToken(tokenString, jwtSecret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, err := claims.GetSubject()
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
			}
			id, err := uuid.Parse(sub)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
			}

			ctx := c.Request().Context()
			actor, err := users.GetUser(ctx, id)
			if err != nil {
				if errors.Is(err, e.ErrNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
				}
				logger.Error("Failed to load actor", zap.String("user_id", sub), zap.Error(err))
				return echo.NewHTTPError(http.StatusInternalServerError, "failed to authenticate")
			}
			if !actor.IsActive {
				return echo.NewHTTPError(http.StatusUnauthorized, "user is inactive")
			}

			c.SetRequest(c.Request().WithContext(WithActor(ctx, actor)))
			return next(c)
		}
	}
}

func extractTokenFromHeader(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header required")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errors.New("invalid authorization format: missing Bearer prefix")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" {
		return "", errors.New("invalid authorization format: empty token")
	}

	return tokenString, nil
}
