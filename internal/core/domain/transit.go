package domain

import "time"

// RouteType classifies an origin/destination pair by geography, used to pick
// static transit-time defaults when no history exists.
type RouteType string

const (
	RouteLocal    RouteType = "LOCAL"    // same state
	RouteZonal    RouteType = "ZONAL"    // same zone, different state
	RouteNational RouteType = "NATIONAL" // cross-zone
)

// Transit-time result source tags. Downstream consumers weight confidence by
// whether the numbers came from delivered-shipment history or static defaults.
const (
	TransitSourceHistorical = "historical"
	TransitSourceEstimated  = "estimated"
)

// HistoricalTransitTime is one aggregated statistics row for an exact
// origin/destination pincode pair over an aggregation period. Rows are
// recomputed daily from delivered shipments; pairs with fewer than the
// configured minimum samples are never written.
type HistoricalTransitTime struct {
	ID                    string    `json:"id" bson:"_id,omitempty"`
	OriginPincode         string    `json:"origin_pincode" bson:"origin_pincode"`
	DestinationPincode    string    `json:"destination_pincode" bson:"destination_pincode"`
	OriginRegion          string    `json:"origin_region" bson:"origin_region"`           // first 3 pincode digits
	DestinationRegion     string    `json:"destination_region" bson:"destination_region"` // first 3 pincode digits
	SampleCount           int       `json:"sample_count" bson:"sample_count"`
	AvgTransitMinutes     float64   `json:"avg_transit_minutes" bson:"avg_transit_minutes"`
	MedianTransitMinutes  float64   `json:"median_transit_minutes" bson:"median_transit_minutes"`
	StdDevMinutes         float64   `json:"std_dev_minutes" bson:"std_dev_minutes"`
	Percentile10          float64   `json:"percentile_10" bson:"percentile_10"`
	Percentile90          float64   `json:"percentile_90" bson:"percentile_90"`
	OnTimePercentage      float64   `json:"on_time_percentage" bson:"on_time_percentage"`
	PeriodStart           time.Time `json:"period_start" bson:"period_start"`
}

// TransitTimeResult is the engine's best-effort transit estimate for a route.
type TransitTimeResult struct {
	OriginPincode      string    `json:"origin_pincode"`
	DestinationPincode string    `json:"destination_pincode"`
	RouteType          RouteType `json:"route_type"`
	AvgTransitMinutes  float64   `json:"avg_transit_minutes"`
	StdDevMinutes      float64   `json:"std_dev_minutes"`
	Percentile90       float64   `json:"percentile_90"`
	OnTimePercentage   float64   `json:"on_time_percentage"`
	SampleCount        int       `json:"sample_count"`
	Source             string    `json:"source"`
}
