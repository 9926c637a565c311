// store/store.go
package store

import (
	"context"
	"time"

	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/models"
	"github.com/google/uuid"
)

// LoadStore defines the persistence interface for loads (shipments seeking
// carrier assignment).
type LoadStore interface {
	GetLoad(ctx context.Context, id uuid.UUID) (models.Load, error)
	GetLoadsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Load, error)

	// GetUnmatchedLoads returns the broker's matchable loads that have no
	// confirmed or completed match, ordered by scheduled pickup date.
	GetUnmatchedLoads(ctx context.Context, brokerID uuid.UUID) ([]models.Load, error)

	// RouteMedianQuote returns the median quoted price across loads on the
	// given lane, or 0 when no quotes exist.
	RouteMedianQuote(ctx context.Context, origin, destination string) (float64, error)
}

// CapacityUpdate holds the mutable fields of a capacity record. Nil fields
// are left untouched.
type CapacityUpdate struct {
	IsAvailable       *bool
	AvailableFrom     *time.Time
	AvailableTo       *time.Time
	CurrentLocation   *string
	CurrentLatitude   *float64
	CurrentLongitude  *float64
	AvailableWeightKg *float64
	AvailableVolumeM3 *float64
	TotalCapacityKg   *float64
	DeclaredRatePerKm *float64
	ServiceAreas      []string
	PreferredRoutes   []models.RoutePair
	VehicleTypes      []string
	ServiceRadiusKm   *float64
	Notes             *string
}

// CapacityStore defines the persistence interface for the capacity ledger.
type CapacityStore interface {
	GetCapacity(ctx context.Context, id uuid.UUID) (models.CarrierCapacity, error)
	GetCarrierCapacity(ctx context.Context, carrierID, brokerID uuid.UUID) ([]models.CarrierCapacity, error)

	// GetAvailableCapacity returns every is_available capacity record in
	// the broker's network.
	GetAvailableCapacity(ctx context.Context, brokerID uuid.UUID) ([]models.CarrierCapacity, error)

	CreateCapacity(ctx context.Context, cap models.CarrierCapacity) (models.CarrierCapacity, error)

	// UpdateCapacity applies the non-nil fields and stamps LastUpdatedAt.
	UpdateCapacity(ctx context.Context, id uuid.UUID, updates CapacityUpdate) (models.CarrierCapacity, error)
}

// CarrierStore exposes the read-only reliability profiles of network
// carriers. Completed-shipment workflows maintain these elsewhere.
type CarrierStore interface {
	GetReliability(ctx context.Context, carrierID uuid.UUID) (models.CarrierReliability, error)
	GetNetworkCarriers(ctx context.Context, brokerID uuid.UUID) ([]models.CarrierReliability, error)
}

// MatchFilter narrows ListMatches. Zero values mean "any".
type MatchFilter struct {
	BrokerID  uuid.UUID
	LoadID    uuid.UUID
	CarrierID uuid.UUID
	Status    models.MatchStatus
}

// MatchStore defines the persistence interface for match records.
//
// TransitionMatch is the single atomic primitive behind the lifecycle
// state machine: it moves a match from one of the allowed source states to
// the target state in one transaction. Moving to confirmed additionally
// enforces the one-confirmed-match-per-load invariant (a competing
// confirmed/completed match fails the call with ErrMatchConflict) and
// reserves the load's weight against the match's capacity record; moving a
// confirmed match to cancelled releases that reservation. Timestamps are
// written exactly once by the transition that owns them.
type MatchStore interface {
	CreateMatch(ctx context.Context, m models.Match) (models.Match, error)
	GetMatch(ctx context.Context, id uuid.UUID) (models.Match, error)
	ListMatches(ctx context.Context, f MatchFilter) ([]models.Match, error)

	TransitionMatch(ctx context.Context, id uuid.UUID, from []models.MatchStatus, to models.MatchStatus, reason string) (models.Match, error)

	// CountActiveAssignments returns the carrier's confirmed-or-pending
	// match count toward the broker, used by the capacity forecaster.
	CountActiveAssignments(ctx context.Context, brokerID, carrierID uuid.UUID) (int, error)
}

// CommissionStore exposes the immutable commission history the analytics
// aggregator reduces over.
type CommissionStore interface {
	ListCommissions(ctx context.Context, brokerID uuid.UUID, from, to time.Time) ([]models.Commission, error)
	CreateCommission(ctx context.Context, c models.Commission) (models.Commission, error)
}

// RuleStore defines the persistence interface for broker matching rules.
type RuleStore interface {
	GetRule(ctx context.Context, id uuid.UUID) (models.MatchingRule, error)

	// ListRules returns the broker's rules, highest priority first.
	ListRules(ctx context.Context, brokerID uuid.UUID, activeOnly bool) ([]models.MatchingRule, error)

	CreateRule(ctx context.Context, r models.MatchingRule) (models.MatchingRule, error)
	UpdateRule(ctx context.Context, r models.MatchingRule) (models.MatchingRule, error)
	DeleteRule(ctx context.Context, id uuid.UUID) error

	// RecordRuleTrigger bumps the trigger counters and stamps
	// LastTriggeredAt; successful marks the trigger as having produced a
	// confirmed match.
	RecordRuleTrigger(ctx context.Context, id uuid.UUID, successful bool) error
}

// Store aggregates every persistence interface of the matching service.
// PostgresStore and MemoryStore both implement it.
type Store interface {
	LoadStore
	CapacityStore
	CarrierStore
	MatchStore
	CommissionStore
	RuleStore
}
