package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dispatchgrid/fulfillment-engine/internal/api/metrics"
	"github.com/dispatchgrid/fulfillment-engine/internal/core/ports"
)

// TransitHandler handles transit-time estimates and the aggregation job.
type TransitHandler struct {
	service ports.TransitTimeService
}

func NewTransitHandler(service ports.TransitTimeService) *TransitHandler {
	return &TransitHandler{service: service}
}

type transitTimeResponse struct {
	OriginPincode      string  `json:"origin_pincode"`
	DestinationPincode string  `json:"destination_pincode"`
	RouteType          string  `json:"route_type"`
	AvgTransitMinutes  float64 `json:"avg_transit_minutes"`
	StdDevMinutes      float64 `json:"std_dev_minutes"`
	Percentile90       float64 `json:"percentile_90"`
	OnTimePercentage   float64 `json:"on_time_percentage"`
	SampleCount        int     `json:"sample_count"`
	Source             string  `json:"source"`
}

type aggregationResponse struct {
	ShipmentsScanned int `json:"shipments_scanned"`
	PairsSeen        int `json:"pairs_seen"`
	RoutesUpserted   int `json:"routes_upserted"`
	PairsSkipped     int `json:"pairs_skipped"`
}

// Estimate handles GET /v1/transit-time — best-effort statistics for a route.
//
// @Summary      Estimate transit time between two pincodes
// @Tags         transit
// @Produce      json
// @Param        origin       query     string  true  "Origin pincode (6 digits)"
// @Param        destination  query     string  true  "Destination pincode (6 digits)"
// @Success      200          {object}  transitTimeResponse
// @Failure      422          {object}  errorResponse
// @Failure      500          {object}  errorResponse
// @Router       /v1/transit-time [get]
func (h *TransitHandler) Estimate(c echo.Context) error {
	var q routeQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	result, err := h.service.CalculateTransitTime(c.Request().Context(), q.Origin, q.Destination)
	if err != nil {
		return err
	}

	metrics.TransitLookupsTotal.WithLabelValues(result.Source).Inc()
	return c.JSON(http.StatusOK, transitTimeResponse{
		OriginPincode:      result.OriginPincode,
		DestinationPincode: result.DestinationPincode,
		RouteType:          string(result.RouteType),
		AvgTransitMinutes:  result.AvgTransitMinutes,
		StdDevMinutes:      result.StdDevMinutes,
		Percentile90:       result.Percentile90,
		OnTimePercentage:   result.OnTimePercentage,
		SampleCount:        result.SampleCount,
		Source:             result.Source,
	})
}

// Aggregate handles POST /v1/transit-times/aggregate — recomputes historical
// statistics from recently delivered shipments. Intended for a cron caller.
//
// @Summary      Recompute historical transit-time statistics
// @Tags         transit
// @Produce      json
// @Success      200  {object}  aggregationResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/transit-times/aggregate [post]
func (h *TransitHandler) Aggregate(c echo.Context) error {
	result, err := h.service.AggregateHistoricalTransitTimes(c.Request().Context())
	if err != nil {
		return err
	}

	metrics.AggregatedRoutesTotal.Add(float64(result.RoutesUpserted))
	return c.JSON(http.StatusOK, aggregationResponse{
		ShipmentsScanned: result.ShipmentsScanned,
		PairsSeen:        result.PairsSeen,
		RoutesUpserted:   result.RoutesUpserted,
		PairsSkipped:     result.PairsSkipped,
	})
}
