package domain

import "time"

// ShipmentStatus represents the lifecycle state of a shipment.
type ShipmentStatus string

const (
	StatusBooked           ShipmentStatus = "BOOKED"
	StatusPickupScheduled  ShipmentStatus = "PICKUP_SCHEDULED"
	StatusPickedUp         ShipmentStatus = "PICKED_UP"
	StatusAtOriginHub      ShipmentStatus = "AT_ORIGIN_HUB"
	StatusInTransit        ShipmentStatus = "IN_TRANSIT"
	StatusAtDestinationHub ShipmentStatus = "AT_DESTINATION_HUB"
	StatusOutForDelivery   ShipmentStatus = "OUT_FOR_DELIVERY"
	StatusDelivered        ShipmentStatus = "DELIVERED"
	StatusCancelled        ShipmentStatus = "CANCELLED"
	StatusRTOInitiated     ShipmentStatus = "RTO_INITIATED"
	StatusRTODelivered     ShipmentStatus = "RTO_DELIVERED"
)

// TerminalStatuses end the shipment lifecycle and are excluded from
// prediction and risk scoring.
var TerminalStatuses = []ShipmentStatus{StatusDelivered, StatusCancelled, StatusRTODelivered}

// statusProgress maps a status to the fraction of the planned journey
// expected to have elapsed when a shipment reaches it.
var statusProgress = map[ShipmentStatus]float64{
	StatusBooked:           0,
	StatusPickupScheduled:  0.05,
	StatusPickedUp:         0.15,
	StatusAtOriginHub:      0.30,
	StatusInTransit:        0.60,
	StatusAtDestinationHub: 0.80,
	StatusOutForDelivery:   0.95,
	StatusDelivered:        1.0,
}

// statusLegsRemaining estimates how many journey legs a shipment still has
// ahead of it, keyed by status.
var statusLegsRemaining = map[ShipmentStatus]int{
	StatusBooked:           4,
	StatusPickupScheduled:  4,
	StatusPickedUp:         3,
	StatusAtOriginHub:      3,
	StatusInTransit:        2,
	StatusAtDestinationHub: 1,
	StatusOutForDelivery:   1,
}

// HubOccupancyStatuses are the statuses in which a shipment physically
// occupies a hub and counts toward its congestion.
var HubOccupancyStatuses = []ShipmentStatus{StatusAtOriginHub, StatusAtDestinationHub}

var hubResidentStatuses = map[ShipmentStatus]bool{
	StatusAtOriginHub:      true,
	StatusAtDestinationHub: true,
}

// IsTerminal reports whether the status ends the shipment lifecycle.
func (s ShipmentStatus) IsTerminal() bool {
	for _, t := range TerminalStatuses {
		if s == t {
			return true
		}
	}
	return false
}

// Progress returns the expected journey progress fraction for the status.
// Unknown statuses report zero progress.
func (s ShipmentStatus) Progress() float64 {
	return statusProgress[s]
}

// LegsRemaining returns the estimated number of journey legs still ahead.
func (s ShipmentStatus) LegsRemaining() int {
	return statusLegsRemaining[s]
}

// OccupiesHub reports whether a shipment in this status sits inside a hub.
func (s ShipmentStatus) OccupiesHub() bool {
	return hubResidentStatuses[s]
}

// Shipment is the live operational view of a consignment as seen by the
// routing and prediction engine. The surrounding order-management system owns
// the full record; this core only reads the fields it routes and scores on.
type Shipment struct {
	ID                   string          `json:"id" bson:"_id,omitempty"`
	AWB                  string          `json:"awb" bson:"awb"`
	OriginPincode        string          `json:"origin_pincode" bson:"origin_pincode"`
	DestinationPincode   string          `json:"destination_pincode" bson:"destination_pincode"`
	Status               ShipmentStatus  `json:"status" bson:"status"`
	CurrentHubID         string          `json:"current_hub_id,omitempty" bson:"current_hub_id,omitempty"`
	FulfillmentMode      FulfillmentMode `json:"fulfillment_mode" bson:"fulfillment_mode"`
	ExpectedDeliveryDate *time.Time      `json:"expected_delivery_date,omitempty" bson:"expected_delivery_date,omitempty"`
	DeliveredAt          *time.Time      `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at" bson:"created_at"`
}
