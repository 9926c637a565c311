// internal/rules/engine.go
package rules

import (
	"context"
	"log"
	"strings"

	domainErr "github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/domain/errors"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/kafka"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/lifecycle"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/matching"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/models"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/store"
	"github.com/google/uuid"
)

// Engine evaluates a broker's matching rules against a load's ranked
// suggestions. Rules run in priority order and the first whose
// conditions hold fires; later rules never see the load.
type Engine struct {
	rules     store.RuleStore
	lifecycle *lifecycle.Manager
	publisher kafka.Publisher
}

func NewEngine(rules store.RuleStore, lc *lifecycle.Manager, publisher kafka.Publisher) *Engine {
	return &Engine{rules: rules, lifecycle: lc, publisher: publisher}
}

// Outcome reports what, if anything, a rule evaluation did.
type Outcome struct {
	Rule    models.MatchingRule
	Action  models.RuleAction
	Match   models.Match
	Applied bool
}

// Evaluate runs the broker's active rules against the load and its
// suggestions, best suggestion first. auto_assign confirms the top
// matching suggestion through the lifecycle manager; notify_broker
// emits an event and leaves the decision to a human; suggest_only is
// an annotation with no side effect.
func (e *Engine) Evaluate(ctx context.Context, brokerID uuid.UUID, load models.Load, suggestions []models.Suggestion) (Outcome, error) {
	ruleSet, err := e.rules.ListRules(ctx, brokerID, true)
	if err != nil {
		return Outcome{}, err
	}

	for _, rule := range ruleSet {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		sg, ok := firstEligible(rule.Conditions, load, suggestions)
		if !ok {
			continue
		}

		switch rule.Action {
		case models.RuleAutoAssign:
			m, err := e.autoAssign(ctx, brokerID, rule, load, sg)
			if err != nil {
				// The rule fired but the assignment lost; record the
				// trigger and surface the error.
				_ = e.rules.RecordRuleTrigger(ctx, rule.ID, false)
				return Outcome{Rule: rule, Action: rule.Action}, err
			}
			if err := e.rules.RecordRuleTrigger(ctx, rule.ID, true); err != nil {
				log.Printf("failed to record trigger for rule %s: %v", rule.ID, err)
			}
			return Outcome{Rule: rule, Action: rule.Action, Match: m, Applied: true}, nil

		case models.RuleNotifyBroker:
			if e.publisher != nil {
				if err := e.publisher.PublishEvent(ctx, load.ID.String(), kafka.EventBrokerNotify, map[string]interface{}{
					"rule_id":    rule.ID,
					"rule_name":  rule.Name,
					"load_id":    load.ID,
					"carrier_id": sg.CarrierID,
					"score":      sg.MatchScore,
				}); err != nil {
					log.Printf("failed to publish broker notification for rule %s: %v", rule.ID, err)
				}
			}
			if err := e.rules.RecordRuleTrigger(ctx, rule.ID, false); err != nil {
				log.Printf("failed to record trigger for rule %s: %v", rule.ID, err)
			}
			return Outcome{Rule: rule, Action: rule.Action, Applied: true}, nil

		case models.RuleSuggestOnly:
			return Outcome{Rule: rule, Action: rule.Action, Applied: true}, nil
		}
	}

	return Outcome{}, nil
}

func (e *Engine) autoAssign(ctx context.Context, brokerID uuid.UUID, rule models.MatchingRule, load models.Load, sg models.Suggestion) (models.Match, error) {
	m, err := e.lifecycle.CreateMatch(ctx, models.Match{
		BrokerID:       brokerID,
		LoadID:         load.ID,
		CarrierID:      sg.CarrierID,
		CapacityID:     sg.CapacityID,
		MatchType:      models.MatchAutomated,
		MatchScore:     sg.MatchScore,
		ScoreBreakdown: sg.ScoreBreakdown,
		BrokerNotes:    "assigned by rule: " + rule.Name,
	})
	if err != nil {
		return models.Match{}, err
	}
	return e.lifecycle.Confirm(ctx, m.ID)
}

// firstEligible returns the best-ranked suggestion satisfying the rule's
// conditions, assuming suggestions arrive already ranked.
func firstEligible(c models.RuleConditions, load models.Load, suggestions []models.Suggestion) (models.Suggestion, bool) {
	if !loadMatches(c, load) {
		return models.Suggestion{}, false
	}
	for _, sg := range suggestions {
		if c.MinCarrierRating > 0 && sg.ReliabilityRating < c.MinCarrierRating {
			continue
		}
		if c.MaxDistanceKm > 0 && sg.ScoreBreakdown.DistanceKm > c.MaxDistanceKm {
			continue
		}
		return sg, true
	}
	return models.Suggestion{}, false
}

func loadMatches(c models.RuleConditions, load models.Load) bool {
	if c.RouteOrigin != "" && !strings.EqualFold(strings.TrimSpace(c.RouteOrigin), strings.TrimSpace(load.PickupLocation)) {
		return false
	}
	if c.RouteDestination != "" && !strings.EqualFold(strings.TrimSpace(c.RouteDestination), strings.TrimSpace(load.DeliveryLocation)) {
		return false
	}
	if len(c.FreightTypes) > 0 {
		found := false
		for _, ft := range c.FreightTypes {
			if tier, _ := matching.TieredMatch(ft, load.FreightType); tier > 0 {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// --- CRUD passthrough ---

func (e *Engine) GetRule(ctx context.Context, id uuid.UUID) (models.MatchingRule, error) {
	return e.rules.GetRule(ctx, id)
}

func (e *Engine) ListRules(ctx context.Context, brokerID uuid.UUID, activeOnly bool) ([]models.MatchingRule, error) {
	return e.rules.ListRules(ctx, brokerID, activeOnly)
}

func (e *Engine) CreateRule(ctx context.Context, r models.MatchingRule) (models.MatchingRule, error) {
	if r.BrokerID == uuid.Nil || strings.TrimSpace(r.Name) == "" || r.Action == "" {
		return models.MatchingRule{}, domainErr.ErrInvalidInput
	}
	return e.rules.CreateRule(ctx, r)
}

func (e *Engine) UpdateRule(ctx context.Context, r models.MatchingRule) (models.MatchingRule, error) {
	return e.rules.UpdateRule(ctx, r)
}

func (e *Engine) DeleteRule(ctx context.Context, id uuid.UUID) error {
	return e.rules.DeleteRule(ctx, id)
}

// ToggleRule flips is_active without touching anything else.
func (e *Engine) ToggleRule(ctx context.Context, id uuid.UUID) (models.MatchingRule, error) {
	r, err := e.rules.GetRule(ctx, id)
	if err != nil {
		return models.MatchingRule{}, err
	}
	r.IsActive = !r.IsActive
	return e.rules.UpdateRule(ctx, r)
}

// ReorderRules rewrites priorities so ids[0] gets the highest priority.
func (e *Engine) ReorderRules(ctx context.Context, ids []uuid.UUID) error {
	for i, id := range ids {
		r, err := e.rules.GetRule(ctx, id)
		if err != nil {
			return err
		}
		r.Priority = len(ids) - i
		if _, err := e.rules.UpdateRule(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
