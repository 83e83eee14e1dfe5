package domain

import "time"

// FulfillmentMode says who moves the shipment: the operator's own fleet, a
// third-party partner, or a hybrid with a mid-journey handover. Individual
// legs reuse the same values to mark who operates that segment.
type FulfillmentMode string

const (
	ModeOwnFleet FulfillmentMode = "OWN_FLEET"
	ModePartner  FulfillmentMode = "PARTNER"
	ModeHybrid   FulfillmentMode = "HYBRID"
)

// LegType identifies the role a segment plays in the journey.
type LegType string

const (
	LegFirstMile     LegType = "FIRST_MILE"
	LegLineHaul      LegType = "LINE_HAUL"
	LegTransshipment LegType = "TRANSSHIPMENT"
	LegLastMile      LegType = "LAST_MILE"
)

// JourneyLeg is one directional segment of a planned journey.
//
// From and To carry hub IDs for internal segments; the first leg's From and
// the last leg's To are raw pincodes. Sequence is assigned by array position
// at build time, so an omitted line haul compacts the numbering — consumers
// needing a specific leg should key on Type, not position.
type JourneyLeg struct {
	Sequence      int             `json:"sequence" bson:"sequence"`
	Type          LegType         `json:"type" bson:"type"`
	From          string          `json:"from" bson:"from"`
	To            string          `json:"to" bson:"to"`
	Mode          FulfillmentMode `json:"mode" bson:"mode"`
	EstimatedDays int             `json:"estimated_days" bson:"estimated_days"`
}

// FulfillmentDecision is the output of the routing engine for one
// origin/destination pair. EstimatedTransitDays always equals the sum of the
// emitted legs' EstimatedDays.
type FulfillmentDecision struct {
	Mode                 FulfillmentMode `json:"mode"`
	OriginHubID          string          `json:"origin_hub_id,omitempty"`
	DestinationHubID     string          `json:"destination_hub_id,omitempty"`
	PartnerID            string          `json:"partner_id,omitempty"`
	PartnerHandoverHubID string          `json:"partner_handover_hub_id,omitempty"`
	EstimatedTransitDays int             `json:"estimated_transit_days"`
	Legs                 []JourneyLeg    `json:"legs"`
	Reason               string          `json:"reason"`
}

// FirstLegOfMode returns the array index of the first leg operated in the
// given mode, or -1 when no such leg exists.
func (d FulfillmentDecision) FirstLegOfMode(mode FulfillmentMode) int {
	for i, leg := range d.Legs {
		if leg.Mode == mode {
			return i
		}
	}
	return -1
}

// JourneyPlan is the persisted form of a fulfillment decision. Plans are
// written once at booking time and never mutated; re-routing produces a new
// plan outside this core.
type JourneyPlan struct {
	ID                    string          `json:"id" bson:"_id,omitempty"`
	AWB                   string          `json:"awb,omitempty" bson:"awb,omitempty"`
	OriginPincode         string          `json:"origin_pincode" bson:"origin_pincode"`
	DestinationPincode    string          `json:"destination_pincode" bson:"destination_pincode"`
	OriginHubID           string          `json:"origin_hub_id,omitempty" bson:"origin_hub_id,omitempty"`
	DestinationHubID      string          `json:"destination_hub_id,omitempty" bson:"destination_hub_id,omitempty"`
	PartnerID             string          `json:"partner_id,omitempty" bson:"partner_id,omitempty"`
	FulfillmentMode       FulfillmentMode `json:"fulfillment_mode" bson:"fulfillment_mode"`
	TotalLegs             int             `json:"total_legs" bson:"total_legs"`
	Legs                  []JourneyLeg    `json:"legs" bson:"legs"`
	EstimatedTransitDays  int             `json:"estimated_transit_days" bson:"estimated_transit_days"`
	EstimatedDeliveryDate time.Time       `json:"estimated_delivery_date" bson:"estimated_delivery_date"`
	PartnerHandoverLeg    *int            `json:"partner_handover_leg,omitempty" bson:"partner_handover_leg,omitempty"`
	Reason                string          `json:"reason" bson:"reason"`
	CreatedAt             time.Time       `json:"created_at" bson:"created_at"`
}
