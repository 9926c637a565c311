// internal/lifecycle/manager.go
package lifecycle

import (
	"context"
	"fmt"
	"log"
	"strings"

	domainErr "github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/domain/errors"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/kafka"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/models"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/store"
	"github.com/google/uuid"
)

// Manager drives matches through their state machine. Every transition
// delegates the actual compare-and-swap to the store, so two brokers
// racing to confirm the same load resolve there, not here.
type Manager struct {
	matches   store.MatchStore
	loads     store.LoadStore
	publisher kafka.Publisher
}

func NewManager(matches store.MatchStore, loads store.LoadStore, publisher kafka.Publisher) *Manager {
	return &Manager{matches: matches, loads: loads, publisher: publisher}
}

// CreateMatch records a new match in the suggested state.
func (mg *Manager) CreateMatch(ctx context.Context, m models.Match) (models.Match, error) {
	if m.LoadID == uuid.Nil || m.CarrierID == uuid.Nil || m.BrokerID == uuid.Nil {
		return models.Match{}, domainErr.ErrInvalidInput
	}
	if m.MatchType == "" {
		m.MatchType = models.MatchManual
	}
	m.MatchStatus = models.MatchSuggested

	// The load has to exist and still be matchable before we suggest against it.
	load, err := mg.loads.GetLoad(ctx, m.LoadID)
	if err != nil {
		return models.Match{}, err
	}
	if !load.Matchable() {
		return models.Match{}, domainErr.ErrInvalidTransition
	}

	created, err := mg.matches.CreateMatch(ctx, m)
	if err != nil {
		return models.Match{}, fmt.Errorf("failed to create match: %w", err)
	}
	mg.publish(ctx, created, kafka.EventMatchSuggested)
	return created, nil
}

// BatchResult reports the outcome of one entry in a batch creation.
type BatchResult struct {
	Index int
	Match models.Match
	Err   error
}

// CreateMatches creates each match independently. One bad entry does
// not abort the rest; callers inspect the per-item results.
func (mg *Manager) CreateMatches(ctx context.Context, ms []models.Match) []BatchResult {
	results := make([]BatchResult, len(ms))
	for i, m := range ms {
		created, err := mg.CreateMatch(ctx, m)
		results[i] = BatchResult{Index: i, Match: created, Err: err}
	}
	return results
}

// MarkPending moves a suggested match to pending, meaning the broker
// has put it in front of the carrier.
func (mg *Manager) MarkPending(ctx context.Context, id uuid.UUID) (models.Match, error) {
	m, err := mg.matches.TransitionMatch(ctx, id,
		[]models.MatchStatus{models.MatchSuggested}, models.MatchPending, "")
	if err != nil {
		return models.Match{}, err
	}
	mg.publish(ctx, m, kafka.EventMatchPending)
	return m, nil
}

// Confirm commits the match. The store enforces the one-confirmed-match
// invariant and reserves the carrier's weight in the same transaction;
// ErrMatchConflict and ErrInsufficientCapacity pass through untouched so
// callers can tell the broker why the confirmation lost.
func (mg *Manager) Confirm(ctx context.Context, id uuid.UUID) (models.Match, error) {
	m, err := mg.matches.TransitionMatch(ctx, id,
		[]models.MatchStatus{models.MatchSuggested, models.MatchPending}, models.MatchConfirmed, "")
	if err != nil {
		return models.Match{}, err
	}
	mg.publish(ctx, m, kafka.EventMatchConfirmed)
	return m, nil
}

// Reject declines a match. A reason is mandatory; "no" without a why is
// useless to the carrier relations team.
func (mg *Manager) Reject(ctx context.Context, id uuid.UUID, reason string) (models.Match, error) {
	if strings.TrimSpace(reason) == "" {
		return models.Match{}, domainErr.ErrRejectionReason
	}
	m, err := mg.matches.TransitionMatch(ctx, id,
		[]models.MatchStatus{models.MatchSuggested, models.MatchPending}, models.MatchRejected, reason)
	if err != nil {
		return models.Match{}, err
	}
	mg.publish(ctx, m, kafka.EventMatchRejected)
	return m, nil
}

// Cancel backs out a match that was already confirmed, or abandons one
// still open. Cancelling a confirmed match releases its capacity
// reservation inside the store transaction.
func (mg *Manager) Cancel(ctx context.Context, id uuid.UUID, reason string) (models.Match, error) {
	m, err := mg.matches.TransitionMatch(ctx, id,
		[]models.MatchStatus{models.MatchSuggested, models.MatchPending, models.MatchConfirmed},
		models.MatchCancelled, reason)
	if err != nil {
		return models.Match{}, err
	}
	mg.publish(ctx, m, kafka.EventMatchCancelled)
	return m, nil
}

// Complete closes out a confirmed match after delivery.
func (mg *Manager) Complete(ctx context.Context, id uuid.UUID) (models.Match, error) {
	m, err := mg.matches.TransitionMatch(ctx, id,
		[]models.MatchStatus{models.MatchConfirmed}, models.MatchCompleted, "")
	if err != nil {
		return models.Match{}, err
	}
	mg.publish(ctx, m, kafka.EventMatchCompleted)
	return m, nil
}

func (mg *Manager) GetMatch(ctx context.Context, id uuid.UUID) (models.Match, error) {
	return mg.matches.GetMatch(ctx, id)
}

func (mg *Manager) ListMatches(ctx context.Context, f store.MatchFilter) ([]models.Match, error) {
	return mg.matches.ListMatches(ctx, f)
}

// publish emits the lifecycle event, keyed by load ID so events for one
// load stay ordered. Event delivery failing never rolls a transition
// back; the state in the store is the source of truth.
func (mg *Manager) publish(ctx context.Context, m models.Match, eventType string) {
	if mg.publisher == nil {
		return
	}
	if err := mg.publisher.PublishEvent(ctx, m.LoadID.String(), eventType, m); err != nil {
		log.Printf("failed to publish %s for match %s: %v", eventType, m.ID, err)
	}
}
