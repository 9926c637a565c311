// internal/models/match.models.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type MatchType string

const (
	MatchAISuggested MatchType = "ai_suggested"
	MatchManual      MatchType = "manual"
	MatchAutomated   MatchType = "automated"
)

type MatchStatus string

const (
	MatchSuggested MatchStatus = "suggested"
	MatchPending   MatchStatus = "pending"
	MatchConfirmed MatchStatus = "confirmed"
	MatchRejected  MatchStatus = "rejected"
	MatchCompleted MatchStatus = "completed"
	MatchCancelled MatchStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s MatchStatus) Terminal() bool {
	return s == MatchRejected || s == MatchCompleted || s == MatchCancelled
}

// ScoreBreakdown carries the per-factor sub-scores behind a match score.
// DistanceKm is informational and does not contribute to the total.
type ScoreBreakdown struct {
	RouteCompatibility float64 `json:"route_compatibility"`
	VehicleMatch       float64 `json:"vehicle_match"`
	CapacityMatch      float64 `json:"capacity_match"`
	CostOptimization   float64 `json:"cost_optimization"`
	ReliabilityScore   float64 `json:"reliability_score"`
	DeliveryTimeMatch  float64 `json:"delivery_time_match"`
	DistanceKm         float64 `json:"distance_km"`
}

// Match is a proposed or confirmed pairing of a load with a carrier.
// Records are retained forever for audit and analytics; transitions happen
// only through the lifecycle manager.
type Match struct {
	ID        uuid.UUID
	BrokerID  uuid.UUID
	LoadID    uuid.UUID
	CarrierID uuid.UUID

	// CapacityID points at the capacity snapshot the match reserves
	// against. Zero for manual matches created without one.
	CapacityID uuid.UUID

	MatchType   MatchType
	MatchStatus MatchStatus

	MatchScore     float64
	ScoreBreakdown ScoreBreakdown

	SuggestedAt time.Time
	ConfirmedAt time.Time // zero until the confirmed transition, set once
	RejectedAt  time.Time // zero until rejected/cancelled, set once

	BrokerNotes     string
	RejectionReason string
}

// Active reports whether the match currently claims the load.
func (m Match) Active() bool {
	return m.MatchStatus == MatchConfirmed || m.MatchStatus == MatchCompleted
}

// Suggestion is one ranked scoring result for a load, before any match
// record exists.
type Suggestion struct {
	CarrierID         uuid.UUID
	CapacityID        uuid.UUID
	MatchScore        float64
	ScoreBreakdown    ScoreBreakdown
	AvailableWeightKg float64
	ReliabilityRating float64
}
