package domain

// MappingType restricts a hub-pincode mapping to a direction of service.
type MappingType string

const (
	MappingPickup   MappingType = "PICKUP"
	MappingDelivery MappingType = "DELIVERY"
	MappingBoth     MappingType = "BOTH"
)

// Hub is an owned facility node on the operator's network.
type Hub struct {
	ID              string `json:"id" bson:"_id,omitempty"`
	Code            string `json:"code" bson:"code"`
	Name            string `json:"name" bson:"name"`
	Pincode         string `json:"pincode" bson:"pincode"`
	SortingCapacity int    `json:"sorting_capacity" bson:"sorting_capacity"`
	IsActive        bool   `json:"is_active" bson:"is_active"`
}

// HubPincodeMapping declares that a hub serves a pincode for pickup,
// delivery, or both. When several active mappings cover the same pincode,
// the one with the lowest Priority wins.
type HubPincodeMapping struct {
	ID       string      `json:"id" bson:"_id,omitempty"`
	Pincode  string      `json:"pincode" bson:"pincode"`
	HubID    string      `json:"hub_id" bson:"hub_id"`
	Type     MappingType `json:"type" bson:"type"`
	Priority int         `json:"priority" bson:"priority"`
	IsActive bool        `json:"is_active" bson:"is_active"`
}

// Matches reports whether the mapping serves the requested direction.
// A BOTH mapping matches every request; a BOTH request matches every mapping.
func (m HubPincodeMapping) Matches(t MappingType) bool {
	return m.Type == t || m.Type == MappingBoth || t == MappingBoth
}

// PartnerZoneMapping marks a set of pincodes as serviceable only through a
// third-party partner, handed over at a designated hub.
//
// Overlapping zones are resolved by ascending Priority, then insertion order.
// The legacy behavior was an undocumented "first match in iteration order";
// the ordered query makes the tie-break explicit.
type PartnerZoneMapping struct {
	ID               string   `json:"id" bson:"_id,omitempty"`
	PartnerID        string   `json:"partner_id" bson:"partner_id"`
	HandoverHubID    string   `json:"handover_hub_id" bson:"handover_hub_id"`
	EstimatedTATDays int      `json:"estimated_tat_days" bson:"estimated_tat_days"`
	BaseRate         float64  `json:"base_rate" bson:"base_rate"`
	RatePerKg        float64  `json:"rate_per_kg" bson:"rate_per_kg"`
	Pincodes         []string `json:"pincodes" bson:"pincodes"`
	Priority         int      `json:"priority" bson:"priority"`
	IsActive         bool     `json:"is_active" bson:"is_active"`
}

// Covers reports whether the zone's pincode set contains the pincode.
func (z PartnerZoneMapping) Covers(pincode string) bool {
	for _, p := range z.Pincodes {
		if p == pincode {
			return true
		}
	}
	return false
}
