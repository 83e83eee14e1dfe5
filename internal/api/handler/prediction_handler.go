package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dispatchgrid/fulfillment-engine/internal/api/metrics"
	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
	"github.com/dispatchgrid/fulfillment-engine/internal/core/ports"
)

// PredictionHandler handles ETA prediction reads, refreshes, and batch runs.
type PredictionHandler struct {
	service ports.PredictionService
}

func NewPredictionHandler(service ports.PredictionService) *PredictionHandler {
	return &PredictionHandler{service: service}
}

type awbParam struct {
	AWB string `param:"awb" validate:"required,min=6,max=32"`
}

type batchPredictionRequest struct {
	AWBs       []string `json:"awbs"`
	Statuses   []string `json:"statuses"`
	RiskLevels []string `json:"risk_levels"`
	Limit      int      `json:"limit"  validate:"omitempty,min=1"`
	Offset     int      `json:"offset" validate:"omitempty,min=0"`
}

// Get handles GET /v1/shipments/:awb/prediction — the active snapshot only.
//
// @Summary      Fetch the active ETA prediction for a shipment
// @Tags         predictions
// @Produce      json
// @Param        awb  path      string  true  "Air waybill number"
// @Success      200  {object}  domain.ETAPrediction
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/shipments/{awb}/prediction [get]
func (h *PredictionHandler) Get(c echo.Context) error {
	var p awbParam
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid awb")
	}
	if err := c.Validate(&p); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	prediction, err := h.service.GetActivePrediction(c.Request().Context(), p.AWB)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prediction)
}

// Refresh handles POST /v1/shipments/:awb/prediction — recompute and store,
// superseding the previous active snapshot.
//
// @Summary      Recompute the ETA prediction for a shipment
// @Tags         predictions
// @Produce      json
// @Param        awb  path      string  true  "Air waybill number"
// @Success      201  {object}  domain.ETAPrediction
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/shipments/{awb}/prediction [post]
func (h *PredictionHandler) Refresh(c echo.Context) error {
	var p awbParam
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid awb")
	}
	if err := c.Validate(&p); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	prediction, err := h.service.RefreshPrediction(c.Request().Context(), p.AWB)
	if err != nil {
		metrics.PredictionFailuresTotal.WithLabelValues("on_demand").Inc()
		return err
	}

	metrics.PredictionsGeneratedTotal.WithLabelValues(string(prediction.DelayRisk)).Inc()
	return c.JSON(http.StatusCreated, prediction)
}

// Batch handles POST /v1/predictions/batch — score a selection of live
// shipments in one run. Per-shipment failures are counted, not fatal.
//
// @Summary      Generate ETA predictions for a batch of shipments
// @Tags         predictions
// @Accept       json
// @Produce      json
// @Param        body  body      batchPredictionRequest  true  "Shipment selection"
// @Success      200   {object}  ports.BatchPredictionResult
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /v1/predictions/batch [post]
func (h *PredictionHandler) Batch(c echo.Context) error {
	var req batchPredictionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	input := ports.BatchPredictionInput{
		AWBs:   req.AWBs,
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	for _, s := range req.Statuses {
		input.Statuses = append(input.Statuses, domain.ShipmentStatus(s))
	}
	for _, r := range req.RiskLevels {
		input.RiskLevels = append(input.RiskLevels, domain.DelayRiskLevel(r))
	}

	start := time.Now()
	result, err := h.service.GenerateBatchPredictions(c.Request().Context(), input)
	if err != nil {
		return err
	}
	metrics.BatchDuration.Observe(time.Since(start).Seconds())

	for _, p := range result.Predictions {
		metrics.PredictionsGeneratedTotal.WithLabelValues(string(p.DelayRisk)).Inc()
	}
	if result.Summary.Failed > 0 {
		metrics.PredictionFailuresTotal.WithLabelValues("batch").Add(float64(result.Summary.Failed))
	}

	return c.JSON(http.StatusOK, result)
}
