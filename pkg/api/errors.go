package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/storyforge-ai/storyforge/pkg/apperrors"
)

// mapServiceError maps a store/service error to an HTTP error response,
// following the taxonomy->status table in spec.md §7.
func mapServiceError(err error) *echo.HTTPError {
	if apperrors.IsValidationError(err) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if apperrors.IsInvariantViolation(err) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "resource not found")
	}
	if apperrors.IsAdapterError(err) {
		slog.Error("adapter error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	slog.Error("unexpected service error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
