package rules

import (
	"context"
	"errors"
	"testing"

	domainErr "github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/domain/errors"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/lifecycle"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/models"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/store"
	"github.com/google/uuid"
)

func setupEngine(t *testing.T) (*Engine, *store.MemoryStore, uuid.UUID, models.Load) {
	t.Helper()
	st := store.NewMemoryStore()
	brokerID := uuid.New()
	lc := lifecycle.NewManager(st, st, nil)
	engine := NewEngine(st, lc, nil)

	load := models.Load{
		ID:               uuid.New(),
		PickupLocation:   "Douala",
		DeliveryLocation: "Yaoundé",
		FreightType:      "General",
		WeightKg:         5000,
		Status:           models.LoadOpenForBidding,
	}
	st.PutLoad(load)
	return engine, st, brokerID, load
}

func addRule(t *testing.T, e *Engine, brokerID uuid.UUID, name string, priority int, action models.RuleAction, cond models.RuleConditions) models.MatchingRule {
	t.Helper()
	r, err := e.CreateRule(context.Background(), models.MatchingRule{
		BrokerID:   brokerID,
		Name:       name,
		IsActive:   true,
		Priority:   priority,
		Conditions: cond,
		Action:     action,
	})
	if err != nil {
		t.Fatalf("CreateRule failed: %v", err)
	}
	return r
}

func suggestionFor(rating float64) models.Suggestion {
	return models.Suggestion{
		CarrierID:         uuid.New(),
		MatchScore:        85,
		ReliabilityRating: rating,
	}
}

func TestEvaluateAutoAssign(t *testing.T) {
	engine, _, brokerID, load := setupEngine(t)
	rule := addRule(t, engine, brokerID, "trusted lane", 10, models.RuleAutoAssign,
		models.RuleConditions{RouteOrigin: "Douala", MinCarrierRating: 4.0})

	top := suggestionFor(4.5)
	out, err := engine.Evaluate(context.Background(), brokerID, load, []models.Suggestion{top})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !out.Applied || out.Action != models.RuleAutoAssign {
		t.Fatalf("Expected auto_assign applied, got %+v", out)
	}
	if out.Match.MatchStatus != models.MatchConfirmed {
		t.Errorf("Expected confirmed match, got %s", out.Match.MatchStatus)
	}
	if out.Match.MatchType != models.MatchAutomated {
		t.Errorf("Expected automated match type, got %s", out.Match.MatchType)
	}
	if out.Match.CarrierID != top.CarrierID {
		t.Errorf("Expected the top suggestion's carrier assigned")
	}

	stored, err := engine.GetRule(context.Background(), rule.ID)
	if err != nil {
		t.Fatalf("GetRule failed: %v", err)
	}
	if stored.TimesTriggered != 1 || stored.SuccessfulMatches != 1 {
		t.Errorf("Expected trigger stats 1/1, got %d/%d", stored.TimesTriggered, stored.SuccessfulMatches)
	}
}

func TestEvaluatePriorityOrder(t *testing.T) {
	engine, _, brokerID, load := setupEngine(t)
	addRule(t, engine, brokerID, "low priority assigner", 1, models.RuleAutoAssign, models.RuleConditions{})
	addRule(t, engine, brokerID, "high priority annotation", 99, models.RuleSuggestOnly, models.RuleConditions{})

	out, err := engine.Evaluate(context.Background(), brokerID, load, []models.Suggestion{suggestionFor(5)})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if out.Action != models.RuleSuggestOnly {
		t.Fatalf("Expected the higher-priority rule to win, got %s", out.Action)
	}
	if out.Match.ID != uuid.Nil {
		t.Error("suggest_only must not create a match")
	}
}

func TestEvaluateConditionFiltering(t *testing.T) {
	engine, _, brokerID, load := setupEngine(t)
	addRule(t, engine, brokerID, "picky", 10, models.RuleAutoAssign, models.RuleConditions{
		RouteOrigin:      "Garoua", // wrong origin
		MinCarrierRating: 4.0,
	})

	out, err := engine.Evaluate(context.Background(), brokerID, load, []models.Suggestion{suggestionFor(5)})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if out.Applied {
		t.Fatalf("Expected no rule to fire for a non-matching origin, got %+v", out)
	}
}

func TestEvaluateSkipsLowRatedCarriers(t *testing.T) {
	engine, _, brokerID, load := setupEngine(t)
	addRule(t, engine, brokerID, "quality floor", 10, models.RuleAutoAssign,
		models.RuleConditions{MinCarrierRating: 4.0})

	// The best-ranked carrier is under the floor but the runner-up
	// qualifies; the rule must pick the runner-up rather than give up.
	low := suggestionFor(3.0)
	ok := suggestionFor(4.2)
	out, err := engine.Evaluate(context.Background(), brokerID, load, []models.Suggestion{low, ok})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !out.Applied {
		t.Fatal("Expected the rule to fire on the second suggestion")
	}
	if out.Match.CarrierID != ok.CarrierID {
		t.Errorf("Expected the qualifying carrier, got %s", out.Match.CarrierID)
	}
}

func TestEvaluateFreightTypeCondition(t *testing.T) {
	engine, _, brokerID, load := setupEngine(t)
	addRule(t, engine, brokerID, "general freight only", 10, models.RuleSuggestOnly,
		models.RuleConditions{FreightTypes: []string{"general"}})

	// Normalized match: "general" covers the load's "General".
	out, err := engine.Evaluate(context.Background(), brokerID, load, []models.Suggestion{suggestionFor(5)})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !out.Applied {
		t.Error("Expected freight type to match case-insensitively")
	}
}

func TestRuleCRUDAndToggle(t *testing.T) {
	engine, _, brokerID, _ := setupEngine(t)
	ctx := context.Background()

	if _, err := engine.CreateRule(ctx, models.MatchingRule{BrokerID: brokerID}); !errors.Is(err, domainErr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for a nameless rule, got %v", err)
	}

	r := addRule(t, engine, brokerID, "toggle me", 5, models.RuleNotifyBroker, models.RuleConditions{})

	toggled, err := engine.ToggleRule(ctx, r.ID)
	if err != nil {
		t.Fatalf("ToggleRule failed: %v", err)
	}
	if toggled.IsActive {
		t.Error("Expected rule switched off")
	}

	active, err := engine.ListRules(ctx, brokerID, true)
	if err != nil {
		t.Fatalf("ListRules failed: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("Expected no active rules after toggle, got %d", len(active))
	}

	if err := engine.DeleteRule(ctx, r.ID); err != nil {
		t.Fatalf("DeleteRule failed: %v", err)
	}
	if _, err := engine.GetRule(ctx, r.ID); !errors.Is(err, domainErr.ErrRuleNotFound) {
		t.Errorf("Expected ErrRuleNotFound after delete, got %v", err)
	}
}

func TestReorderRules(t *testing.T) {
	engine, _, brokerID, _ := setupEngine(t)
	ctx := context.Background()

	first := addRule(t, engine, brokerID, "a", 1, models.RuleSuggestOnly, models.RuleConditions{})
	second := addRule(t, engine, brokerID, "b", 2, models.RuleSuggestOnly, models.RuleConditions{})

	// Put "a" on top.
	if err := engine.ReorderRules(ctx, []uuid.UUID{first.ID, second.ID}); err != nil {
		t.Fatalf("ReorderRules failed: %v", err)
	}

	rules, err := engine.ListRules(ctx, brokerID, false)
	if err != nil {
		t.Fatalf("ListRules failed: %v", err)
	}
	if len(rules) != 2 || rules[0].ID != first.ID {
		t.Errorf("Expected rule %q first after reorder", "a")
	}
}
