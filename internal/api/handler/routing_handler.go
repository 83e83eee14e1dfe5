package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dispatchgrid/fulfillment-engine/internal/api/metrics"
	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
	"github.com/dispatchgrid/fulfillment-engine/internal/core/ports"
)

// RoutingHandler handles HTTP requests for fulfillment decisions and journey
// plans.
type RoutingHandler struct {
	service ports.RoutingService
}

func NewRoutingHandler(service ports.RoutingService) *RoutingHandler {
	return &RoutingHandler{service: service}
}

// --- Request / Response types ---

type routeQuery struct {
	Origin      string `query:"origin"      validate:"required,len=6,numeric"`
	Destination string `query:"destination" validate:"required,len=6,numeric"`
}

type journeyLegResponse struct {
	Sequence      int    `json:"sequence"`
	Type          string `json:"type"`
	From          string `json:"from"`
	To            string `json:"to"`
	Mode          string `json:"mode"`
	EstimatedDays int    `json:"estimated_days"`
}

type decisionResponse struct {
	Mode                 string               `json:"mode"`
	OriginHubID          string               `json:"origin_hub_id,omitempty"`
	DestinationHubID     string               `json:"destination_hub_id,omitempty"`
	PartnerID            string               `json:"partner_id,omitempty"`
	PartnerHandoverHubID string               `json:"partner_handover_hub_id,omitempty"`
	EstimatedTransitDays int                  `json:"estimated_transit_days"`
	Legs                 []journeyLegResponse `json:"legs"`
	Reason               string               `json:"reason"`
}

type createJourneyPlanRequest struct {
	AWB                string `json:"awb"`
	OriginPincode      string `json:"origin_pincode"      validate:"required,len=6,numeric"`
	DestinationPincode string `json:"destination_pincode" validate:"required,len=6,numeric"`
}

type journeyPlanResponse struct {
	ID                    string               `json:"id,omitempty"`
	AWB                   string               `json:"awb,omitempty"`
	OriginPincode         string               `json:"origin_pincode"`
	DestinationPincode    string               `json:"destination_pincode"`
	OriginHubID           string               `json:"origin_hub_id,omitempty"`
	DestinationHubID      string               `json:"destination_hub_id,omitempty"`
	FulfillmentMode       string               `json:"fulfillment_mode"`
	TotalLegs             int                  `json:"total_legs"`
	Legs                  []journeyLegResponse `json:"legs"`
	EstimatedTransitDays  int                  `json:"estimated_transit_days"`
	EstimatedDeliveryDate time.Time            `json:"estimated_delivery_date"`
	PartnerHandoverLeg    *int                 `json:"partner_handover_leg,omitempty"`
	Reason                string               `json:"reason"`
}

// Decide handles GET /v1/routes/decision — classifies a route without
// persisting anything.
//
// @Summary      Classify a route as OWN_FLEET, PARTNER, or HYBRID
// @Tags         routing
// @Produce      json
// @Param        origin       query     string  true  "Origin pincode (6 digits)"
// @Param        destination  query     string  true  "Destination pincode (6 digits)"
// @Success      200          {object}  decisionResponse
// @Failure      422          {object}  errorResponse
// @Failure      500          {object}  errorResponse
// @Router       /v1/routes/decision [get]
func (h *RoutingHandler) Decide(c echo.Context) error {
	var q routeQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	decision, err := h.service.DetermineFulfillment(c.Request().Context(), q.Origin, q.Destination)
	if err != nil {
		return err
	}

	metrics.DecisionsTotal.WithLabelValues(string(decision.Mode)).Inc()
	return c.JSON(http.StatusOK, toDecisionResponse(decision))
}

// CreatePlan handles POST /v1/journey-plans — runs the decision engine and
// persists the plan.
//
// @Summary      Create and persist a journey plan
// @Tags         routing
// @Accept       json
// @Produce      json
// @Param        body  body      createJourneyPlanRequest  true  "Route endpoints"
// @Success      201   {object}  journeyPlanResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /v1/journey-plans [post]
func (h *RoutingHandler) CreatePlan(c echo.Context) error {
	var req createJourneyPlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	plan, err := h.service.CreateJourneyPlan(c.Request().Context(), ports.CreateJourneyPlanInput{
		AWB:                req.AWB,
		OriginPincode:      req.OriginPincode,
		DestinationPincode: req.DestinationPincode,
	})
	if err != nil {
		return err
	}

	metrics.JourneyPlansCreatedTotal.WithLabelValues(string(plan.FulfillmentMode)).Inc()
	return c.JSON(http.StatusCreated, toPlanResponse(plan))
}

// --- Mappers ---

func toLegResponses(legs []domain.JourneyLeg) []journeyLegResponse {
	out := make([]journeyLegResponse, len(legs))
	for i, leg := range legs {
		out[i] = journeyLegResponse{
			Sequence:      leg.Sequence,
			Type:          string(leg.Type),
			From:          leg.From,
			To:            leg.To,
			Mode:          string(leg.Mode),
			EstimatedDays: leg.EstimatedDays,
		}
	}
	return out
}

func toDecisionResponse(d *domain.FulfillmentDecision) decisionResponse {
	return decisionResponse{
		Mode:                 string(d.Mode),
		OriginHubID:          d.OriginHubID,
		DestinationHubID:     d.DestinationHubID,
		PartnerID:            d.PartnerID,
		PartnerHandoverHubID: d.PartnerHandoverHubID,
		EstimatedTransitDays: d.EstimatedTransitDays,
		Legs:                 toLegResponses(d.Legs),
		Reason:               d.Reason,
	}
}

func toPlanResponse(p *domain.JourneyPlan) journeyPlanResponse {
	return journeyPlanResponse{
		ID:                    p.ID,
		AWB:                   p.AWB,
		OriginPincode:         p.OriginPincode,
		DestinationPincode:    p.DestinationPincode,
		OriginHubID:           p.OriginHubID,
		DestinationHubID:      p.DestinationHubID,
		FulfillmentMode:       string(p.FulfillmentMode),
		TotalLegs:             p.TotalLegs,
		Legs:                  toLegResponses(p.Legs),
		EstimatedTransitDays:  p.EstimatedTransitDays,
		EstimatedDeliveryDate: p.EstimatedDeliveryDate.UTC(),
		PartnerHandoverLeg:    p.PartnerHandoverLeg,
		Reason:                p.Reason,
	}
}
