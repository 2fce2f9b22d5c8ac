package handlers

import (
	"errors"
	"net/http"

	e "github.com/gartstein/crm/internal/crm/errors"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type detail struct {
	Detail string `json:"detail"`
}

// errorHandler writes err as a JSON response. Validation failures become
// a field to messages map; unexpected errors are logged and hidden.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := mapServiceError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Request failed",
				zap.Error(err),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
	}
}

func mapServiceError(err error) (int, any) {
	var verr *e.ValidationError
	var herr *echo.HTTPError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Fields()
	case errors.As(err, &herr):
		msg, ok := herr.Message.(string)
		if !ok {
			msg = http.StatusText(herr.Code)
		}
		return herr.Code, detail{Detail: msg}
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound, detail{Detail: "Not found."}
	case errors.Is(err, e.ErrForbidden):
		return http.StatusForbidden, detail{Detail: "You do not have permission to perform this action."}
	case errors.Is(err, e.ErrDuplicate):
		return http.StatusConflict, detail{Detail: "A record with these values already exists."}
	default:
		return http.StatusInternalServerError, detail{Detail: "Internal server error."}
	}
}
