// internal/models/rule.models.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type RuleAction string

const (
	RuleAutoAssign   RuleAction = "auto_assign"
	RuleNotifyBroker RuleAction = "notify_broker"
	RuleSuggestOnly  RuleAction = "suggest_only"
)

// RuleConditions narrows which loads and carriers a matching rule applies
// to. Zero values mean "not checked".
type RuleConditions struct {
	RouteOrigin      string   `json:"route_origin,omitempty"`
	RouteDestination string   `json:"route_destination,omitempty"`
	MinCarrierRating float64  `json:"min_carrier_rating,omitempty"`
	FreightTypes     []string `json:"freight_types,omitempty"`
	MaxDistanceKm    float64  `json:"max_distance_km,omitempty"`
}

// MatchingRule is a broker-configured automation rule evaluated against a
// load's ranked suggestions.
type MatchingRule struct {
	ID       uuid.UUID
	BrokerID uuid.UUID

	Name        string
	Description string
	IsActive    bool
	Priority    int

	Conditions RuleConditions
	Action     RuleAction

	TimesTriggered    int
	SuccessfulMatches int
	LastTriggeredAt   time.Time

	CreatedAt time.Time
}
