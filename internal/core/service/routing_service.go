package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
	"github.com/dispatchgrid/fulfillment-engine/internal/core/ports"
)

// Decision reasons. Coverage gaps are branches of the decision tree, not
// errors, and each branch records why it was taken.
const (
	reasonFullNetwork     = "origin and destination covered by hub network"
	reasonOriginUncovered = "origin not covered by hub network"
	reasonPartnerZone     = "destination in partner zone, handover after line haul"
	reasonDestUncovered   = "destination not covered, routing via partner"
)

type routingService struct {
	hubs  ports.HubRepository
	zones ports.PartnerZoneRepository
	plans ports.JourneyPlanRepository
	cfg   EngineConfig
	clock clockwork.Clock
	log   zerolog.Logger
}

// NewRoutingService returns a RoutingService backed by the given stores.
func NewRoutingService(
	hubs ports.HubRepository,
	zones ports.PartnerZoneRepository,
	plans ports.JourneyPlanRepository,
	cfg EngineConfig,
	clock clockwork.Clock,
	log zerolog.Logger,
) ports.RoutingService {
	return &routingService{hubs: hubs, zones: zones, plans: plans, cfg: cfg, clock: clock, log: log}
}

// FindNearestHub resolves the covering hub for a pincode and direction.
func (s *routingService) FindNearestHub(ctx context.Context, pincode string, t domain.MappingType) (*domain.Hub, *domain.HubPincodeMapping, error) {
	return s.hubs.FindNearestMapping(ctx, pincode, t)
}

// GetPartnerZone resolves the partner zone covering a pincode.
func (s *routingService) GetPartnerZone(ctx context.Context, pincode string) (*domain.PartnerZoneMapping, error) {
	return s.zones.FindZoneForPincode(ctx, pincode)
}

// DetermineFulfillment classifies an origin/destination pair as OWN_FLEET,
// PARTNER, or HYBRID and builds the journey legs. Branches are evaluated in
// fixed order; the first matching one wins:
//
//  1. no origin hub            → PARTNER, single direct leg
//  2. partner zone, no dest hub → HYBRID, handover after optional line haul
//  3. both hubs                → OWN_FLEET
//  4. anything else            → PARTNER fallback, default TAT
func (s *routingService) DetermineFulfillment(ctx context.Context, originPincode, destinationPincode string) (*domain.FulfillmentDecision, error) {
	originHub, _, err := s.coveringHub(ctx, originPincode, domain.MappingPickup)
	if err != nil {
		return nil, fmt.Errorf("determine fulfillment: origin hub lookup: %w", err)
	}

	if originHub == nil {
		decision, err := s.directPartnerDecision(ctx, originPincode, destinationPincode, reasonOriginUncovered)
		if err != nil {
			return nil, err
		}
		s.logDecision(originPincode, destinationPincode, decision)
		return decision, nil
	}

	destHub, _, err := s.coveringHub(ctx, destinationPincode, domain.MappingDelivery)
	if err != nil {
		return nil, fmt.Errorf("determine fulfillment: destination hub lookup: %w", err)
	}

	zone, err := s.coveringZone(ctx, destinationPincode)
	if err != nil {
		return nil, fmt.Errorf("determine fulfillment: partner zone lookup: %w", err)
	}

	var decision *domain.FulfillmentDecision
	switch {
	case zone != nil && destHub == nil:
		decision = s.hybridDecision(originPincode, destinationPincode, originHub, zone)
	case destHub != nil:
		decision = s.ownFleetDecision(originPincode, destinationPincode, originHub, destHub)
	default:
		decision = &domain.FulfillmentDecision{
			Mode:   domain.ModePartner,
			Reason: reasonDestUncovered,
			Legs: []domain.JourneyLeg{{
				Type:          domain.LegFirstMile,
				From:          originPincode,
				To:            destinationPincode,
				Mode:          domain.ModePartner,
				EstimatedDays: s.cfg.DefaultPartnerTATDays,
			}},
		}
		finalizeLegs(decision)
	}

	s.logDecision(originPincode, destinationPincode, decision)
	return decision, nil
}

// directPartnerDecision builds the single-leg PARTNER plan used when the hub
// network cannot pick the shipment up at all. The partner zone TAT is taken
// from whichever pincode falls in a zone, origin first, defaulting otherwise.
func (s *routingService) directPartnerDecision(ctx context.Context, originPincode, destinationPincode, reason string) (*domain.FulfillmentDecision, error) {
	days := s.cfg.DefaultPartnerTATDays
	var partnerID, handoverHubID string

	zone, err := s.coveringZone(ctx, originPincode)
	if err != nil {
		return nil, fmt.Errorf("determine fulfillment: partner zone lookup: %w", err)
	}
	if zone == nil {
		zone, err = s.coveringZone(ctx, destinationPincode)
		if err != nil {
			return nil, fmt.Errorf("determine fulfillment: partner zone lookup: %w", err)
		}
	}
	if zone != nil {
		days = zone.EstimatedTATDays
		partnerID = zone.PartnerID
		handoverHubID = zone.HandoverHubID
	}

	decision := &domain.FulfillmentDecision{
		Mode:                 domain.ModePartner,
		PartnerID:            partnerID,
		PartnerHandoverHubID: handoverHubID,
		Reason:               reason,
		Legs: []domain.JourneyLeg{{
			Type:          domain.LegFirstMile,
			From:          originPincode,
			To:            destinationPincode,
			Mode:          domain.ModePartner,
			EstimatedDays: days,
		}},
	}
	finalizeLegs(decision)
	return decision, nil
}

// hybridDecision moves the shipment on the own fleet up to the partner's
// handover hub, then hands the last mile to the partner. The line haul is
// omitted when the origin hub already is the handover hub.
func (s *routingService) hybridDecision(originPincode, destinationPincode string, originHub *domain.Hub, zone *domain.PartnerZoneMapping) *domain.FulfillmentDecision {
	legs := []domain.JourneyLeg{{
		Type:          domain.LegFirstMile,
		From:          originPincode,
		To:            originHub.ID,
		Mode:          domain.ModeOwnFleet,
		EstimatedDays: s.cfg.OwnFleetLegDays,
	}}
	if originHub.ID != zone.HandoverHubID {
		legs = append(legs, domain.JourneyLeg{
			Type:          domain.LegLineHaul,
			From:          originHub.ID,
			To:            zone.HandoverHubID,
			Mode:          domain.ModeOwnFleet,
			EstimatedDays: s.cfg.OwnFleetLegDays,
		})
	}
	legs = append(legs, domain.JourneyLeg{
		Type:          domain.LegLastMile,
		From:          zone.HandoverHubID,
		To:            destinationPincode,
		Mode:          domain.ModePartner,
		EstimatedDays: zone.EstimatedTATDays,
	})

	decision := &domain.FulfillmentDecision{
		Mode:                 domain.ModeHybrid,
		OriginHubID:          originHub.ID,
		PartnerID:            zone.PartnerID,
		PartnerHandoverHubID: zone.HandoverHubID,
		Legs:                 legs,
		Reason:               reasonPartnerZone,
	}
	finalizeLegs(decision)
	return decision
}

// ownFleetDecision keeps the whole journey on the network. The line haul is
// omitted when origin and destination resolve to the same hub.
func (s *routingService) ownFleetDecision(originPincode, destinationPincode string, originHub, destHub *domain.Hub) *domain.FulfillmentDecision {
	legs := []domain.JourneyLeg{{
		Type:          domain.LegFirstMile,
		From:          originPincode,
		To:            originHub.ID,
		Mode:          domain.ModeOwnFleet,
		EstimatedDays: s.cfg.OwnFleetLegDays,
	}}
	if originHub.ID != destHub.ID {
		legs = append(legs, domain.JourneyLeg{
			Type:          domain.LegLineHaul,
			From:          originHub.ID,
			To:            destHub.ID,
			Mode:          domain.ModeOwnFleet,
			EstimatedDays: s.cfg.OwnFleetLegDays,
		})
	}
	legs = append(legs, domain.JourneyLeg{
		Type:          domain.LegLastMile,
		From:          destHub.ID,
		To:            destinationPincode,
		Mode:          domain.ModeOwnFleet,
		EstimatedDays: s.cfg.OwnFleetLegDays,
	})

	decision := &domain.FulfillmentDecision{
		Mode:             domain.ModeOwnFleet,
		OriginHubID:      originHub.ID,
		DestinationHubID: destHub.ID,
		Legs:             legs,
		Reason:           reasonFullNetwork,
	}
	finalizeLegs(decision)
	return decision
}

// CreateJourneyPlan runs the decision engine and persists the result. The
// stored destination hub falls back to the partner handover hub when no true
// destination hub exists.
func (s *routingService) CreateJourneyPlan(ctx context.Context, input ports.CreateJourneyPlanInput) (*domain.JourneyPlan, error) {
	decision, err := s.DetermineFulfillment(ctx, input.OriginPincode, input.DestinationPincode)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	destinationHubID := decision.DestinationHubID
	if destinationHubID == "" {
		destinationHubID = decision.PartnerHandoverHubID
	}

	var handoverLeg *int
	if decision.Mode == domain.ModeHybrid {
		if idx := decision.FirstLegOfMode(domain.ModePartner); idx >= 0 {
			handoverLeg = &idx
		}
	}

	plan := &domain.JourneyPlan{
		AWB:                   input.AWB,
		OriginPincode:         input.OriginPincode,
		DestinationPincode:    input.DestinationPincode,
		OriginHubID:           decision.OriginHubID,
		DestinationHubID:      destinationHubID,
		PartnerID:             decision.PartnerID,
		FulfillmentMode:       decision.Mode,
		TotalLegs:             len(decision.Legs),
		Legs:                  decision.Legs,
		EstimatedTransitDays:  decision.EstimatedTransitDays,
		EstimatedDeliveryDate: now.AddDate(0, 0, decision.EstimatedTransitDays),
		PartnerHandoverLeg:    handoverLeg,
		Reason:                decision.Reason,
		CreatedAt:             now,
	}

	if err := s.plans.Create(ctx, plan); err != nil {
		s.log.Error().Err(err).Str("origin", input.OriginPincode).Str("destination", input.DestinationPincode).Msg("failed to persist journey plan")
		return nil, fmt.Errorf("create journey plan: %w", err)
	}

	s.log.Info().
		Str("awb", input.AWB).
		Str("mode", string(plan.FulfillmentMode)).
		Int("legs", plan.TotalLegs).
		Int("transit_days", plan.EstimatedTransitDays).
		Msg("journey plan created")

	return plan, nil
}

// coveringHub wraps the repository lookup, converting the coverage-gap
// sentinel into a nil hub so callers can branch on it.
func (s *routingService) coveringHub(ctx context.Context, pincode string, t domain.MappingType) (*domain.Hub, *domain.HubPincodeMapping, error) {
	hub, mapping, err := s.hubs.FindNearestMapping(ctx, pincode, t)
	if errors.Is(err, domain.ErrNoHubCoverage) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return hub, mapping, nil
}

// coveringZone wraps the zone lookup the same way.
func (s *routingService) coveringZone(ctx context.Context, pincode string) (*domain.PartnerZoneMapping, error) {
	zone, err := s.zones.FindZoneForPincode(ctx, pincode)
	if errors.Is(err, domain.ErrNoPartnerZone) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return zone, nil
}

// finalizeLegs assigns sequence numbers by array position and recomputes the
// transit-day total so the sum invariant always holds.
func finalizeLegs(d *domain.FulfillmentDecision) {
	total := 0
	for i := range d.Legs {
		d.Legs[i].Sequence = i
		total += d.Legs[i].EstimatedDays
	}
	d.EstimatedTransitDays = total
}

func (s *routingService) logDecision(origin, destination string, d *domain.FulfillmentDecision) {
	s.log.Debug().
		Str("origin", origin).
		Str("destination", destination).
		Str("mode", string(d.Mode)).
		Int("legs", len(d.Legs)).
		Int("transit_days", d.EstimatedTransitDays).
		Str("reason", d.Reason).
		Msg("fulfillment decision")
}
