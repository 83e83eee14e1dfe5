package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes. Coverage gaps inside
	// the decision tree never surface here; they are decision branches.
	switch {
	case errors.Is(err, domain.ErrShipmentNotFound):
		return http.StatusNotFound, "shipment not found"
	case errors.Is(err, domain.ErrPredictionNotFound):
		return http.StatusNotFound, "no active prediction for shipment"
	case errors.Is(err, domain.ErrHubNotFound):
		return http.StatusNotFound, "hub not found"
	case errors.Is(err, domain.ErrNoHubCoverage):
		return http.StatusNotFound, "no active hub covers pincode"
	case errors.Is(err, domain.ErrNoPartnerZone):
		return http.StatusNotFound, "no active partner zone covers pincode"
	case errors.Is(err, domain.ErrShipmentTerminal):
		return http.StatusUnprocessableEntity, "shipment is in a terminal status"
	case errors.Is(err, domain.ErrInvalidPincode):
		return http.StatusBadRequest, err.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
