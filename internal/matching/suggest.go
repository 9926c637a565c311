// internal/matching/suggest.go
package matching

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Tanmoy095/LogiSynapse/services/matching-service/config"
	domainErr "github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/domain/errors"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/lifecycle"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/models"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/store"
	"github.com/google/uuid"
)

// Service produces ranked carrier suggestions for a load and runs the
// manual and automated acceptance flows on top of the lifecycle manager.
type Service struct {
	store     store.Store
	scorer    *Scorer
	lifecycle *lifecycle.Manager
	cfg       config.MatchingConfig
}

func NewService(st store.Store, scorer *Scorer, lc *lifecycle.Manager, cfg config.MatchingConfig) *Service {
	return &Service{store: st, scorer: scorer, lifecycle: lc, cfg: cfg}
}

// SuggestMatches scores every eligible capacity in the broker's network
// against the load and returns suggestions at or above minScore, best
// first. minScore <= 0 falls back to the configured floor.
func (s *Service) SuggestMatches(ctx context.Context, brokerID, loadID uuid.UUID, minScore float64) ([]models.Suggestion, error) {
	if minScore <= 0 {
		minScore = s.cfg.MinSuggestionScore
	}

	load, err := s.store.GetLoad(ctx, loadID)
	if err != nil {
		return nil, err
	}
	if !load.Matchable() {
		return nil, domainErr.ErrInvalidTransition
	}

	capacities, err := s.store.GetAvailableCapacity(ctx, brokerID)
	if err != nil {
		return nil, err
	}

	median, err := s.store.RouteMedianQuote(ctx, load.PickupLocation, load.DeliveryLocation)
	if err != nil {
		return nil, err
	}
	routeMedianRate := ratePerKmFromQuote(load, median)

	var suggestions []models.Suggestion
	for _, cap := range capacities {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !eligible(load, cap) {
			continue
		}
		rel, err := s.store.GetReliability(ctx, cap.CarrierID)
		if err != nil {
			// An unrated carrier is still a candidate, just with no history.
			rel = models.CarrierReliability{CarrierID: cap.CarrierID}
		}
		score, breakdown := s.scorer.Score(load, cap, rel, routeMedianRate)
		if score < minScore {
			continue
		}
		suggestions = append(suggestions, models.Suggestion{
			CarrierID:         cap.CarrierID,
			CapacityID:        cap.ID,
			MatchScore:        score,
			ScoreBreakdown:    breakdown,
			AvailableWeightKg: cap.AvailableWeightKg,
			ReliabilityRating: rel.ReliabilityRating,
		})
	}

	RankSuggestions(suggestions)
	return suggestions, nil
}

// eligible applies the hard filters that no score can buy back: the
// capacity must be on, heavy enough for the load, and valid on pickup day.
func eligible(load models.Load, cap models.CarrierCapacity) bool {
	if !cap.IsAvailable {
		return false
	}
	if load.WeightKg > cap.AvailableWeightKg {
		return false
	}
	if !load.ScheduledPickupDate.IsZero() && !cap.CoversWindow(load.ScheduledPickupDate) {
		return false
	}
	return true
}

// ratePerKmFromQuote converts the route's median quoted price into a
// per-km rate comparable with a carrier's declared rate. Zero when the
// lane has no distance or no quote history.
func ratePerKmFromQuote(load models.Load, medianQuote float64) float64 {
	if medianQuote <= 0 {
		return 0
	}
	dist := DistanceKm(load.PickupLatitude, load.PickupLongitude, load.DeliveryLatitude, load.DeliveryLongitude)
	if dist <= 0 {
		return 0
	}
	return medianQuote / dist
}

// SaveSuggestions persists suggestions as ai_suggested matches so the
// broker can review them later. Each row is created independently.
func (s *Service) SaveSuggestions(ctx context.Context, brokerID, loadID uuid.UUID, suggestions []models.Suggestion) []lifecycle.BatchResult {
	ms := make([]models.Match, len(suggestions))
	for i, sg := range suggestions {
		ms[i] = models.Match{
			BrokerID:       brokerID,
			LoadID:         loadID,
			CarrierID:      sg.CarrierID,
			CapacityID:     sg.CapacityID,
			MatchType:      models.MatchAISuggested,
			MatchScore:     sg.MatchScore,
			ScoreBreakdown: sg.ScoreBreakdown,
		}
	}
	return s.lifecycle.CreateMatches(ctx, ms)
}

// ManualMatch records a broker-picked carrier for the load and confirms
// it immediately. The score is still computed so the record carries a
// breakdown the broker can read back.
func (s *Service) ManualMatch(ctx context.Context, brokerID, loadID, carrierID, capacityID uuid.UUID, notes string) (models.Match, error) {
	load, err := s.store.GetLoad(ctx, loadID)
	if err != nil {
		return models.Match{}, err
	}

	cap, err := s.store.GetCapacity(ctx, capacityID)
	if err != nil {
		return models.Match{}, err
	}
	if cap.CarrierID != carrierID {
		return models.Match{}, domainErr.ErrInvalidInput
	}

	rel, err := s.store.GetReliability(ctx, carrierID)
	if err != nil {
		rel = models.CarrierReliability{CarrierID: carrierID}
	}
	median, err := s.store.RouteMedianQuote(ctx, load.PickupLocation, load.DeliveryLocation)
	if err != nil {
		return models.Match{}, err
	}
	score, breakdown := s.scorer.Score(load, cap, rel, ratePerKmFromQuote(load, median))

	m, err := s.lifecycle.CreateMatch(ctx, models.Match{
		BrokerID:       brokerID,
		LoadID:         loadID,
		CarrierID:      carrierID,
		CapacityID:     capacityID,
		MatchType:      models.MatchManual,
		MatchScore:     score,
		ScoreBreakdown: breakdown,
		BrokerNotes:    notes,
	})
	if err != nil {
		return models.Match{}, err
	}
	return s.lifecycle.Confirm(ctx, m.ID)
}

// AcceptSuggestion confirms an existing suggested or pending match.
func (s *Service) AcceptSuggestion(ctx context.Context, matchID uuid.UUID) (models.Match, error) {
	return s.lifecycle.Confirm(ctx, matchID)
}

// Unmatch cancels the load's active match, releasing its reservation.
func (s *Service) Unmatch(ctx context.Context, loadID uuid.UUID, reason string) (models.Match, error) {
	matches, err := s.store.ListMatches(ctx, store.MatchFilter{LoadID: loadID, Status: models.MatchConfirmed})
	if err != nil {
		return models.Match{}, err
	}
	if len(matches) == 0 {
		return models.Match{}, domainErr.ErrMatchNotFound
	}
	return s.lifecycle.Cancel(ctx, matches[0].ID, reason)
}

// TryAutoAccept evaluates the load's auto-accept criteria against the
// best suggestion. On acceptance it creates and confirms an automated
// match in one go. The bool reports whether a match was confirmed; the
// string carries the evaluator's reason either way.
func (s *Service) TryAutoAccept(ctx context.Context, brokerID, loadID uuid.UUID) (models.Match, bool, string, error) {
	load, err := s.store.GetLoad(ctx, loadID)
	if err != nil {
		return models.Match{}, false, "", err
	}
	if !load.AutoAccept.Enabled {
		return models.Match{}, false, "auto-accept disabled", nil
	}

	suggestions, err := s.SuggestMatches(ctx, brokerID, loadID, 0)
	if err != nil {
		return models.Match{}, false, "", err
	}
	if len(suggestions) == 0 {
		return models.Match{}, false, "no eligible carriers", nil
	}
	top := suggestions[0]

	accept, reason := EvaluateAutoAccept(load.AutoAccept, AutoAcceptInput{
		Price:         load.QuotedPrice,
		CarrierRating: top.ReliabilityRating,
		DeliveryDays:  deliveryDays(load, time.Now()),
	})
	if !accept {
		return models.Match{}, false, reason, nil
	}

	m, err := s.lifecycle.CreateMatch(ctx, models.Match{
		BrokerID:       brokerID,
		LoadID:         loadID,
		CarrierID:      top.CarrierID,
		CapacityID:     top.CapacityID,
		MatchType:      models.MatchAutomated,
		MatchScore:     top.MatchScore,
		ScoreBreakdown: top.ScoreBreakdown,
	})
	if err != nil {
		return models.Match{}, false, "", err
	}
	confirmed, err := s.lifecycle.Confirm(ctx, m.ID)
	if err != nil {
		return models.Match{}, false, "", fmt.Errorf("auto-accept confirmation failed: %w", err)
	}
	log.Printf("auto-accepted load %s with carrier %s (score %.0f)", loadID, top.CarrierID, top.MatchScore)
	return confirmed, true, reason, nil
}

// deliveryDays estimates days until pickup, the figure the auto-accept
// max-delivery-days threshold compares against. Past or unset pickup
// dates count as zero.
func deliveryDays(load models.Load, now time.Time) int {
	if load.ScheduledPickupDate.IsZero() {
		return 0
	}
	d := load.ScheduledPickupDate.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d.Hours()/24) + 1
}
