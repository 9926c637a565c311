package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Tanmoy095/LogiSynapse/services/matching-service/config"
	domainErr "github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/domain/errors"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/lifecycle"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/models"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/store"
	"github.com/google/uuid"
)

func setupService(t *testing.T) (*Service, *store.MemoryStore, uuid.UUID) {
	t.Helper()
	st := store.NewMemoryStore()
	cfg := config.DefaultMatchingConfig()
	lc := lifecycle.NewManager(st, st, nil)
	svc := NewService(st, NewScorer(cfg.Weights), lc, cfg)
	return svc, st, uuid.New()
}

func seedSuggestLoad(st *store.MemoryStore, auto models.AutoAcceptCriteria) models.Load {
	l := models.Load{
		ID:                   uuid.New(),
		ShipperID:            uuid.New(),
		PickupLocation:       "Douala",
		DeliveryLocation:     "Yaoundé",
		ScheduledPickupDate:  time.Now().AddDate(0, 0, 2),
		WeightKg:             10000,
		PreferredVehicleType: "Flatbed",
		QuotedPrice:          90000,
		Status:               models.LoadOpenForBidding,
		AutoAccept:           auto,
	}
	st.PutLoad(l)
	return l
}

func seedSuggestCapacity(t *testing.T, st *store.MemoryStore, brokerID uuid.UUID, availableKg float64, vehicles []string, rating float64) models.CarrierCapacity {
	t.Helper()
	carrierID := uuid.New()
	st.PutCarrier(brokerID, models.CarrierReliability{
		CarrierID:         carrierID,
		ReliabilityRating: rating,
		OnTimeRate:        90,
		CompletionRate:    95,
		AverageRating:     rating,
	})
	c, err := st.CreateCapacity(context.Background(), models.CarrierCapacity{
		BrokerID:          brokerID,
		CarrierID:         carrierID,
		IsAvailable:       true,
		CurrentLocation:   "Douala",
		AvailableWeightKg: availableKg,
		TotalCapacityKg:   availableKg,
		VehicleTypes:      vehicles,
	})
	if err != nil {
		t.Fatalf("CreateCapacity failed: %v", err)
	}
	return c
}

func TestSuggestMatchesFiltersAndRanks(t *testing.T) {
	svc, st, brokerID := setupService(t)
	load := seedSuggestLoad(st, models.AutoAcceptCriteria{})

	strong := seedSuggestCapacity(t, st, brokerID, 12000, []string{"Flatbed"}, 4.8)
	seedSuggestCapacity(t, st, brokerID, 12000, []string{"Box Truck"}, 4.8) // wrong vehicle, scores low
	seedSuggestCapacity(t, st, brokerID, 5000, []string{"Flatbed"}, 5.0)    // underweight, filtered

	// Switched-off capacity never appears.
	off := seedSuggestCapacity(t, st, brokerID, 30000, []string{"Flatbed"}, 5.0)
	if _, err := st.UpdateCapacity(context.Background(), off.ID, store.CapacityUpdate{IsAvailable: boolPtr(false)}); err != nil {
		t.Fatalf("UpdateCapacity failed: %v", err)
	}

	suggestions, err := svc.SuggestMatches(context.Background(), brokerID, load.ID, 0)
	if err != nil {
		t.Fatalf("SuggestMatches failed: %v", err)
	}
	if len(suggestions) == 0 {
		t.Fatal("Expected at least one suggestion")
	}
	if suggestions[0].CapacityID != strong.ID {
		t.Errorf("Expected the Flatbed carrier ranked first")
	}
	for _, sg := range suggestions {
		if sg.CapacityID == off.ID {
			t.Error("Unavailable capacity leaked into suggestions")
		}
		if sg.MatchScore < svc.cfg.MinSuggestionScore {
			t.Errorf("Suggestion below the %.0f floor: %.1f", svc.cfg.MinSuggestionScore, sg.MatchScore)
		}
	}
}

func TestSuggestMatchesUnmatchableLoad(t *testing.T) {
	svc, st, brokerID := setupService(t)
	load := seedSuggestLoad(st, models.AutoAcceptCriteria{})
	load.Status = models.LoadDelivered
	st.PutLoad(load)

	if _, err := svc.SuggestMatches(context.Background(), brokerID, load.ID, 0); !errors.Is(err, domainErr.ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition for a delivered load, got %v", err)
	}
}

func TestManualMatchConfirms(t *testing.T) {
	svc, st, brokerID := setupService(t)
	load := seedSuggestLoad(st, models.AutoAcceptCriteria{})
	cap := seedSuggestCapacity(t, st, brokerID, 15000, []string{"Flatbed"}, 4.5)

	m, err := svc.ManualMatch(context.Background(), brokerID, load.ID, cap.CarrierID, cap.ID, "spoke with dispatcher")
	if err != nil {
		t.Fatalf("ManualMatch failed: %v", err)
	}
	if m.MatchStatus != models.MatchConfirmed {
		t.Errorf("Expected confirmed, got %s", m.MatchStatus)
	}
	if m.MatchType != models.MatchManual {
		t.Errorf("Expected manual match type, got %s", m.MatchType)
	}
	if m.BrokerNotes != "spoke with dispatcher" {
		t.Errorf("Expected notes carried through, got %q", m.BrokerNotes)
	}

	// The confirmation reserved the load's weight.
	c, _ := st.GetCapacity(context.Background(), cap.ID)
	if c.AvailableWeightKg != 5000 {
		t.Errorf("Expected 5000 kg left, got %.0f", c.AvailableWeightKg)
	}

	// Mismatched carrier/capacity pairing is rejected.
	other := seedSuggestCapacity(t, st, brokerID, 15000, []string{"Flatbed"}, 4.5)
	if _, err := svc.ManualMatch(context.Background(), brokerID, load.ID, uuid.New(), other.ID, ""); !errors.Is(err, domainErr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for carrier/capacity mismatch, got %v", err)
	}
}

func TestUnmatchReleasesLoad(t *testing.T) {
	svc, st, brokerID := setupService(t)
	load := seedSuggestLoad(st, models.AutoAcceptCriteria{})
	cap := seedSuggestCapacity(t, st, brokerID, 15000, []string{"Flatbed"}, 4.5)

	if _, err := svc.ManualMatch(context.Background(), brokerID, load.ID, cap.CarrierID, cap.ID, ""); err != nil {
		t.Fatalf("ManualMatch failed: %v", err)
	}

	cancelled, err := svc.Unmatch(context.Background(), load.ID, "shipper postponed")
	if err != nil {
		t.Fatalf("Unmatch failed: %v", err)
	}
	if cancelled.MatchStatus != models.MatchCancelled {
		t.Errorf("Expected cancelled, got %s", cancelled.MatchStatus)
	}

	c, _ := st.GetCapacity(context.Background(), cap.ID)
	if c.AvailableWeightKg != 15000 {
		t.Errorf("Expected reservation released back to 15000 kg, got %.0f", c.AvailableWeightKg)
	}

	// No active match left to unmatch.
	if _, err := svc.Unmatch(context.Background(), load.ID, "again"); !errors.Is(err, domainErr.ErrMatchNotFound) {
		t.Errorf("Expected ErrMatchNotFound on second unmatch, got %v", err)
	}
}

func TestTryAutoAccept(t *testing.T) {
	svc, st, brokerID := setupService(t)
	seedSuggestCapacity(t, st, brokerID, 15000, []string{"Flatbed"}, 4.8)

	// Disabled: never confirms.
	disabled := seedSuggestLoad(st, models.AutoAcceptCriteria{Enabled: false})
	_, accepted, _, err := svc.TryAutoAccept(context.Background(), brokerID, disabled.ID)
	if err != nil {
		t.Fatalf("TryAutoAccept failed: %v", err)
	}
	if accepted {
		t.Fatal("Disabled criteria must never auto-accept")
	}

	// Price over threshold: held for review with a reason.
	pricey := seedSuggestLoad(st, models.AutoAcceptCriteria{Enabled: true, MaxPrice: 80000})
	_, accepted, reason, err := svc.TryAutoAccept(context.Background(), brokerID, pricey.ID)
	if err != nil {
		t.Fatalf("TryAutoAccept failed: %v", err)
	}
	if accepted || reason == "" {
		t.Fatalf("Expected a reasoned hold, got accepted=%v reason=%q", accepted, reason)
	}

	// All thresholds pass: confirmed as automated.
	ok := seedSuggestLoad(st, models.AutoAcceptCriteria{Enabled: true, MaxPrice: 90000, MinRating: 4.0})
	m, accepted, _, err := svc.TryAutoAccept(context.Background(), brokerID, ok.ID)
	if err != nil {
		t.Fatalf("TryAutoAccept failed: %v", err)
	}
	if !accepted {
		t.Fatal("Expected auto-acceptance at the price boundary")
	}
	if m.MatchType != models.MatchAutomated {
		t.Errorf("Expected automated match type, got %s", m.MatchType)
	}
	if m.MatchStatus != models.MatchConfirmed {
		t.Errorf("Expected confirmed, got %s", m.MatchStatus)
	}
}

func boolPtr(b bool) *bool { return &b }
