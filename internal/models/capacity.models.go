// internal/models/capacity.models.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// RoutePair is one of a carrier's declared preferred lanes.
type RoutePair struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// CarrierCapacity is a carrier's declared availability toward one broker.
// A carrier may hold one capacity row per broker relationship.
type CarrierCapacity struct {
	ID        uuid.UUID
	BrokerID  uuid.UUID
	CarrierID uuid.UUID

	IsAvailable   bool
	AvailableFrom time.Time
	AvailableTo   time.Time // zero means open-ended

	CurrentLocation  string
	CurrentLatitude  float64
	CurrentLongitude float64

	AvailableWeightKg  float64
	AvailableVolumeM3  float64
	TotalCapacityKg    float64
	TotalCapacityM3    float64
	DeclaredRatePerKm  float64 // 0 when the carrier has not quoted a rate

	ServiceAreas    []string
	PreferredRoutes []RoutePair
	VehicleTypes    []string
	ServiceRadiusKm float64

	Notes         string
	LastUpdatedAt time.Time
	CreatedAt     time.Time
}

// CoversWindow reports whether the validity window includes the given date.
func (c CarrierCapacity) CoversWindow(at time.Time) bool {
	if !c.AvailableFrom.IsZero() && at.Before(c.AvailableFrom) {
		return false
	}
	if !c.AvailableTo.IsZero() && at.After(c.AvailableTo) {
		return false
	}
	return true
}

// CarrierReliability is the aggregate performance profile of a carrier.
// It is read-only input to the scorer; completed-shipment outcomes maintain
// it elsewhere.
type CarrierReliability struct {
	CarrierID               uuid.UUID
	ReliabilityRating       float64 // 0..5
	TotalShipmentsAssigned  int
	OnTimeRate              float64 // percent
	CompletionRate          float64 // percent
	AverageRating           float64 // 0..5
}

// CapacityForecast is a derived projection of a carrier's available weight
// on one future date. It is recomputed on demand, never stored.
type CapacityForecast struct {
	CarrierID                  uuid.UUID
	ForecastDate               time.Time
	PredictedAvailableWeightKg float64
	CurrentAssignments         int
	HistoricalUtilization      float64 // percent
	ConfidenceLevel            ConfidenceLevel
}

type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)
