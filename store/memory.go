// store/memory.go
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainErr "github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/domain/errors"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/models"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by tests and local development.
// All mutation goes through one mutex, which also makes TransitionMatch a
// genuine compare-and-swap: two concurrent confirmations for the same load
// serialize and the loser observes the winner's row.
type MemoryStore struct {
	mu sync.Mutex

	loads       map[uuid.UUID]models.Load
	capacities  map[uuid.UUID]models.CarrierCapacity
	carriers    map[uuid.UUID]models.CarrierReliability
	matches     map[uuid.UUID]models.Match
	commissions []models.Commission
	rules       map[uuid.UUID]models.MatchingRule

	// broker network membership, normally the join tables
	shipperNetwork map[uuid.UUID]map[uuid.UUID]bool // brokerID -> shipperIDs
	carrierNetwork map[uuid.UUID]map[uuid.UUID]bool // brokerID -> carrierIDs
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		loads:          make(map[uuid.UUID]models.Load),
		capacities:     make(map[uuid.UUID]models.CarrierCapacity),
		carriers:       make(map[uuid.UUID]models.CarrierReliability),
		matches:        make(map[uuid.UUID]models.Match),
		rules:          make(map[uuid.UUID]models.MatchingRule),
		shipperNetwork: make(map[uuid.UUID]map[uuid.UUID]bool),
		carrierNetwork: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

// --- seeding helpers (test/dev setup; Postgres rows come from migrations) ---

func (s *MemoryStore) PutLoad(l models.Load) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	s.loads[l.ID] = l
}

func (s *MemoryStore) PutCarrier(brokerID uuid.UUID, rel models.CarrierReliability) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carriers[rel.CarrierID] = rel
	if s.carrierNetwork[brokerID] == nil {
		s.carrierNetwork[brokerID] = make(map[uuid.UUID]bool)
	}
	s.carrierNetwork[brokerID][rel.CarrierID] = true
}

func (s *MemoryStore) AddShipperToNetwork(brokerID, shipperID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shipperNetwork[brokerID] == nil {
		s.shipperNetwork[brokerID] = make(map[uuid.UUID]bool)
	}
	s.shipperNetwork[brokerID][shipperID] = true
}

// --- LoadStore ---

func (s *MemoryStore) GetLoad(ctx context.Context, id uuid.UUID) (models.Load, error) {
	if err := ctx.Err(); err != nil {
		return models.Load{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loads[id]
	if !ok {
		return models.Load{}, domainErr.ErrLoadNotFound
	}
	return l, nil
}

func (s *MemoryStore) GetLoadsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Load, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]models.Load, len(ids))
	for _, id := range ids {
		if l, ok := s.loads[id]; ok {
			out[id] = l
		}
	}
	return out, nil
}

func (s *MemoryStore) GetUnmatchedLoads(ctx context.Context, brokerID uuid.UUID) ([]models.Load, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Load
	for _, l := range s.loads {
		if !s.shipperNetwork[brokerID][l.ShipperID] {
			continue
		}
		if !l.Matchable() {
			continue
		}
		if s.activeMatchForLoadLocked(l.ID) != nil {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledPickupDate.Before(out[j].ScheduledPickupDate)
	})
	return out, nil
}

func (s *MemoryStore) RouteMedianQuote(ctx context.Context, origin, destination string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var quotes []float64
	for _, l := range s.loads {
		if l.QuotedPrice <= 0 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(l.PickupLocation), strings.TrimSpace(origin)) &&
			strings.EqualFold(strings.TrimSpace(l.DeliveryLocation), strings.TrimSpace(destination)) {
			quotes = append(quotes, l.QuotedPrice)
		}
	}
	if len(quotes) == 0 {
		return 0, nil
	}
	sort.Float64s(quotes)
	mid := len(quotes) / 2
	if len(quotes)%2 == 1 {
		return quotes[mid], nil
	}
	return (quotes[mid-1] + quotes[mid]) / 2, nil
}

// --- CapacityStore ---

func (s *MemoryStore) GetCapacity(ctx context.Context, id uuid.UUID) (models.CarrierCapacity, error) {
	if err := ctx.Err(); err != nil {
		return models.CarrierCapacity{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.capacities[id]
	if !ok {
		return models.CarrierCapacity{}, domainErr.ErrCapacityNotFound
	}
	return c, nil
}

func (s *MemoryStore) GetCarrierCapacity(ctx context.Context, carrierID, brokerID uuid.UUID) ([]models.CarrierCapacity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CarrierCapacity
	for _, c := range s.capacities {
		if c.CarrierID == carrierID && c.BrokerID == brokerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AvailableFrom.Before(out[j].AvailableFrom)
	})
	return out, nil
}

func (s *MemoryStore) GetAvailableCapacity(ctx context.Context, brokerID uuid.UUID) ([]models.CarrierCapacity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CarrierCapacity
	for _, c := range s.capacities {
		if c.BrokerID == brokerID && c.IsAvailable {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *MemoryStore) CreateCapacity(ctx context.Context, cap models.CarrierCapacity) (models.CarrierCapacity, error) {
	if err := ctx.Err(); err != nil {
		return models.CarrierCapacity{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cap.ID == uuid.Nil {
		cap.ID = uuid.New()
	}
	now := time.Now()
	cap.CreatedAt = now
	cap.LastUpdatedAt = now
	s.capacities[cap.ID] = cap
	return cap, nil
}

func (s *MemoryStore) UpdateCapacity(ctx context.Context, id uuid.UUID, updates CapacityUpdate) (models.CarrierCapacity, error) {
	if err := ctx.Err(); err != nil {
		return models.CarrierCapacity{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.capacities[id]
	if !ok {
		return models.CarrierCapacity{}, domainErr.ErrCapacityNotFound
	}

	if updates.IsAvailable != nil {
		c.IsAvailable = *updates.IsAvailable
	}
	if updates.AvailableFrom != nil {
		c.AvailableFrom = *updates.AvailableFrom
	}
	if updates.AvailableTo != nil {
		c.AvailableTo = *updates.AvailableTo
	}
	if updates.CurrentLocation != nil {
		c.CurrentLocation = *updates.CurrentLocation
	}
	if updates.CurrentLatitude != nil {
		c.CurrentLatitude = *updates.CurrentLatitude
	}
	if updates.CurrentLongitude != nil {
		c.CurrentLongitude = *updates.CurrentLongitude
	}
	if updates.AvailableWeightKg != nil {
		c.AvailableWeightKg = *updates.AvailableWeightKg
	}
	if updates.AvailableVolumeM3 != nil {
		c.AvailableVolumeM3 = *updates.AvailableVolumeM3
	}
	if updates.TotalCapacityKg != nil {
		c.TotalCapacityKg = *updates.TotalCapacityKg
	}
	if updates.DeclaredRatePerKm != nil {
		c.DeclaredRatePerKm = *updates.DeclaredRatePerKm
	}
	if updates.ServiceAreas != nil {
		c.ServiceAreas = updates.ServiceAreas
	}
	if updates.PreferredRoutes != nil {
		c.PreferredRoutes = updates.PreferredRoutes
	}
	if updates.VehicleTypes != nil {
		c.VehicleTypes = updates.VehicleTypes
	}
	if updates.ServiceRadiusKm != nil {
		c.ServiceRadiusKm = *updates.ServiceRadiusKm
	}
	if updates.Notes != nil {
		c.Notes = *updates.Notes
	}

	c.LastUpdatedAt = time.Now()
	s.capacities[id] = c
	return c, nil
}

// --- CarrierStore ---

func (s *MemoryStore) GetReliability(ctx context.Context, carrierID uuid.UUID) (models.CarrierReliability, error) {
	if err := ctx.Err(); err != nil {
		return models.CarrierReliability{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rel, ok := s.carriers[carrierID]
	if !ok {
		return models.CarrierReliability{}, domainErr.ErrCarrierNotFound
	}
	return rel, nil
}

func (s *MemoryStore) GetNetworkCarriers(ctx context.Context, brokerID uuid.UUID) ([]models.CarrierReliability, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CarrierReliability
	for carrierID := range s.carrierNetwork[brokerID] {
		if rel, ok := s.carriers[carrierID]; ok {
			out = append(out, rel)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CarrierID.String() < out[j].CarrierID.String()
	})
	return out, nil
}

// --- MatchStore ---

func (s *MemoryStore) CreateMatch(ctx context.Context, m models.Match) (models.Match, error) {
	if err := ctx.Err(); err != nil {
		return models.Match{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.MatchStatus == "" {
		m.MatchStatus = models.MatchSuggested
	}
	if m.SuggestedAt.IsZero() {
		m.SuggestedAt = time.Now()
	}
	s.matches[m.ID] = m
	return m, nil
}

func (s *MemoryStore) GetMatch(ctx context.Context, id uuid.UUID) (models.Match, error) {
	if err := ctx.Err(); err != nil {
		return models.Match{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return models.Match{}, domainErr.ErrMatchNotFound
	}
	return m, nil
}

func (s *MemoryStore) ListMatches(ctx context.Context, f MatchFilter) ([]models.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Match
	for _, m := range s.matches {
		if f.BrokerID != uuid.Nil && m.BrokerID != f.BrokerID {
			continue
		}
		if f.LoadID != uuid.Nil && m.LoadID != f.LoadID {
			continue
		}
		if f.CarrierID != uuid.Nil && m.CarrierID != f.CarrierID {
			continue
		}
		if f.Status != "" && m.MatchStatus != f.Status {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SuggestedAt.Equal(out[j].SuggestedAt) {
			return out[i].SuggestedAt.After(out[j].SuggestedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *MemoryStore) TransitionMatch(ctx context.Context, id uuid.UUID, from []models.MatchStatus, to models.MatchStatus, reason string) (models.Match, error) {
	if err := ctx.Err(); err != nil {
		return models.Match{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[id]
	if !ok {
		return models.Match{}, domainErr.ErrMatchNotFound
	}

	allowed := false
	for _, st := range from {
		if m.MatchStatus == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return models.Match{}, domainErr.ErrInvalidTransition
	}

	wasConfirmed := m.MatchStatus == models.MatchConfirmed

	if to == models.MatchConfirmed {
		// The single-confirmed invariant: exactly one active match per
		// load, checked and set under the same lock.
		if other := s.activeMatchForLoadLocked(m.LoadID); other != nil && other.ID != m.ID {
			return models.Match{}, domainErr.ErrMatchConflict
		}
		if err := s.reserveCapacityLocked(m); err != nil {
			return models.Match{}, err
		}
		if m.ConfirmedAt.IsZero() {
			m.ConfirmedAt = time.Now()
		}
	}

	if to == models.MatchRejected || to == models.MatchCancelled {
		if to == models.MatchCancelled && wasConfirmed {
			s.releaseCapacityLocked(m)
		}
		if m.RejectedAt.IsZero() {
			m.RejectedAt = time.Now()
		}
		if reason != "" {
			m.RejectionReason = reason
		}
	}

	m.MatchStatus = to
	s.matches[id] = m
	return m, nil
}

func (s *MemoryStore) CountActiveAssignments(ctx context.Context, brokerID, carrierID uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.matches {
		if m.BrokerID == brokerID && m.CarrierID == carrierID &&
			(m.MatchStatus == models.MatchConfirmed || m.MatchStatus == models.MatchPending) {
			n++
		}
	}
	return n, nil
}

// activeMatchForLoadLocked returns the confirmed/completed match claiming
// the load, if any. Callers must hold s.mu.
func (s *MemoryStore) activeMatchForLoadLocked(loadID uuid.UUID) *models.Match {
	for _, m := range s.matches {
		if m.LoadID == loadID && m.Active() {
			found := m
			return &found
		}
	}
	return nil
}

// reserveCapacityLocked decrements the capacity snapshot by the load's
// weight as part of the confirming transition. Matches without a capacity
// reference skip the reservation.
func (s *MemoryStore) reserveCapacityLocked(m models.Match) error {
	if m.CapacityID == uuid.Nil {
		return nil
	}
	c, ok := s.capacities[m.CapacityID]
	if !ok {
		return domainErr.ErrCapacityNotFound
	}
	l, ok := s.loads[m.LoadID]
	if !ok {
		return domainErr.ErrLoadNotFound
	}
	if c.AvailableWeightKg < l.WeightKg {
		return domainErr.ErrInsufficientCapacity
	}
	c.AvailableWeightKg -= l.WeightKg
	c.LastUpdatedAt = time.Now()
	s.capacities[m.CapacityID] = c
	return nil
}

// releaseCapacityLocked gives the reservation back when a confirmed match
// is cancelled.
func (s *MemoryStore) releaseCapacityLocked(m models.Match) {
	if m.CapacityID == uuid.Nil {
		return
	}
	c, ok := s.capacities[m.CapacityID]
	if !ok {
		return
	}
	l, ok := s.loads[m.LoadID]
	if !ok {
		return
	}
	c.AvailableWeightKg += l.WeightKg
	if c.TotalCapacityKg > 0 && c.AvailableWeightKg > c.TotalCapacityKg {
		c.AvailableWeightKg = c.TotalCapacityKg
	}
	c.LastUpdatedAt = time.Now()
	s.capacities[m.CapacityID] = c
}

// --- CommissionStore ---

func (s *MemoryStore) ListCommissions(ctx context.Context, brokerID uuid.UUID, from, to time.Time) ([]models.Commission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Commission
	for _, c := range s.commissions {
		if c.BrokerID != brokerID {
			continue
		}
		if !from.IsZero() && c.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && c.CreatedAt.After(to) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *MemoryStore) CreateCommission(ctx context.Context, c models.Commission) (models.Commission, error) {
	if err := ctx.Err(); err != nil {
		return models.Commission{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.commissions = append(s.commissions, c)
	return c, nil
}

// --- RuleStore ---

func (s *MemoryStore) GetRule(ctx context.Context, id uuid.UUID) (models.MatchingRule, error) {
	if err := ctx.Err(); err != nil {
		return models.MatchingRule{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[id]
	if !ok {
		return models.MatchingRule{}, domainErr.ErrRuleNotFound
	}
	return r, nil
}

func (s *MemoryStore) ListRules(ctx context.Context, brokerID uuid.UUID, activeOnly bool) ([]models.MatchingRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MatchingRule
	for _, r := range s.rules {
		if r.BrokerID != brokerID {
			continue
		}
		if activeOnly && !r.IsActive {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) CreateRule(ctx context.Context, r models.MatchingRule) (models.MatchingRule, error) {
	if err := ctx.Err(); err != nil {
		return models.MatchingRule{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	s.rules[r.ID] = r
	return r, nil
}

func (s *MemoryStore) UpdateRule(ctx context.Context, r models.MatchingRule) (models.MatchingRule, error) {
	if err := ctx.Err(); err != nil {
		return models.MatchingRule{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[r.ID]; !ok {
		return models.MatchingRule{}, domainErr.ErrRuleNotFound
	}
	s.rules[r.ID] = r
	return r, nil
}

func (s *MemoryStore) DeleteRule(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return domainErr.ErrRuleNotFound
	}
	delete(s.rules, id)
	return nil
}

func (s *MemoryStore) RecordRuleTrigger(ctx context.Context, id uuid.UUID, successful bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[id]
	if !ok {
		return domainErr.ErrRuleNotFound
	}
	r.TimesTriggered++
	if successful {
		r.SuccessfulMatches++
	}
	r.LastTriggeredAt = time.Now()
	s.rules[id] = r
	return nil
}
