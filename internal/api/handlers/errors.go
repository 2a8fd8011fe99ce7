package handlers

import (
	"errors"
	"net/http"

	"property-bidding/internal/domain"

	"github.com/labstack/echo/v4"
)

// errorJSON maps the domain error taxonomy onto HTTP statuses: validation
// 400, missing references 404, lock exhaustion 503 (retryable), anything
// else 500.
func errorJSON(c echo.Context, err error) error {
	return c.JSON(errorStatus(err), map[string]string{"error": err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrListingNotFound), errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBidContention):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
