// internal/models/gap.models.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// GapReason classifies why an unmatched load has no viable carrier.
type GapReason string

const (
	GapNoCapacity        GapReason = "no_capacity"
	GapNoSuitableVehicle GapReason = "no_suitable_vehicle"
	GapNoCarriersInArea  GapReason = "no_carriers_in_area"
	GapPriceMismatch     GapReason = "price_mismatch"
	GapOther             GapReason = "other"
)

// Gap is the diagnosis for one unmatched load. Derived on demand,
// never persisted.
type Gap struct {
	LoadID          uuid.UUID
	ShipmentNumber  string
	Route           string
	VehicleType     string
	WeightKg        float64
	Reason          GapReason
	Details         string
	Recommendations []string
}

// GapTrendPoint is one day of the unmatched-load series.
type GapTrendPoint struct {
	Date           time.Time
	UnmatchedCount int
}

// GapAnalytics is the rollup view over a broker's current gaps.
type GapAnalytics struct {
	TotalUnmatched     int
	TotalCapacityKg    float64
	ReservedCapacityKg float64
	UtilizationPercent float64
	ByReason           map[GapReason]int
	ByRoute            map[string]int
	ByVehicleType      map[string]int
	Trend              []GapTrendPoint
}
