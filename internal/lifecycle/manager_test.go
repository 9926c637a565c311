package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"

	domainErr "github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/domain/errors"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/models"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/store"
	"github.com/google/uuid"
)

// --- MOCKS ---
// MockPublisher records the events the manager emits.
type MockPublisher struct {
	mu     sync.Mutex
	Events []string
	Err    error
}

func (m *MockPublisher) PublishEvent(ctx context.Context, key string, eventType string, payload interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, eventType)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

func (m *MockPublisher) Recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Events...)
}

func setupManager(t *testing.T) (*Manager, *store.MemoryStore, *MockPublisher, models.Load) {
	t.Helper()
	st := store.NewMemoryStore()
	pub := &MockPublisher{}
	mg := NewManager(st, st, pub)

	load := models.Load{
		ID:       uuid.New(),
		WeightKg: 5000,
		Status:   models.LoadOpenForBidding,
	}
	st.PutLoad(load)
	return mg, st, pub, load
}

func TestCreateMatchValidation(t *testing.T) {
	mg, st, _, load := setupManager(t)
	ctx := context.Background()

	// Missing references fail fast.
	if _, err := mg.CreateMatch(ctx, models.Match{LoadID: load.ID}); !errors.Is(err, domainErr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput without carrier/broker, got %v", err)
	}

	// A delivered load is no longer matchable.
	done := models.Load{ID: uuid.New(), Status: models.LoadDelivered}
	st.PutLoad(done)
	_, err := mg.CreateMatch(ctx, models.Match{
		BrokerID: uuid.New(), LoadID: done.ID, CarrierID: uuid.New(),
	})
	if !errors.Is(err, domainErr.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition for delivered load, got %v", err)
	}

	// Happy path lands in suggested with the type defaulted.
	m, err := mg.CreateMatch(ctx, models.Match{
		BrokerID: uuid.New(), LoadID: load.ID, CarrierID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("CreateMatch failed: %v", err)
	}
	if m.MatchStatus != models.MatchSuggested {
		t.Errorf("Expected status suggested, got %s", m.MatchStatus)
	}
	if m.MatchType != models.MatchManual {
		t.Errorf("Expected default type manual, got %s", m.MatchType)
	}
	if m.SuggestedAt.IsZero() {
		t.Error("Expected SuggestedAt set at creation")
	}
}

func TestLifecycleHappyPath(t *testing.T) {
	mg, _, pub, load := setupManager(t)
	ctx := context.Background()

	m, err := mg.CreateMatch(ctx, models.Match{
		BrokerID: uuid.New(), LoadID: load.ID, CarrierID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("CreateMatch failed: %v", err)
	}

	if m, err = mg.MarkPending(ctx, m.ID); err != nil {
		t.Fatalf("MarkPending failed: %v", err)
	}
	if m.MatchStatus != models.MatchPending {
		t.Fatalf("Expected pending, got %s", m.MatchStatus)
	}

	if m, err = mg.Confirm(ctx, m.ID); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if m.ConfirmedAt.IsZero() {
		t.Error("Expected ConfirmedAt on confirm")
	}

	if m, err = mg.Complete(ctx, m.ID); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if m.MatchStatus != models.MatchCompleted {
		t.Fatalf("Expected completed, got %s", m.MatchStatus)
	}

	// Terminal states admit no further transitions.
	if _, err := mg.Cancel(ctx, m.ID, "too late"); !errors.Is(err, domainErr.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition cancelling a completed match, got %v", err)
	}

	want := []string{"match.suggested", "match.pending", "match.confirmed", "match.completed"}
	got := pub.Recorded()
	if len(got) != len(want) {
		t.Fatalf("Expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestRejectRequiresReason(t *testing.T) {
	mg, _, _, load := setupManager(t)
	ctx := context.Background()

	m, _ := mg.CreateMatch(ctx, models.Match{
		BrokerID: uuid.New(), LoadID: load.ID, CarrierID: uuid.New(),
	})

	if _, err := mg.Reject(ctx, m.ID, "   "); !errors.Is(err, domainErr.ErrRejectionReason) {
		t.Fatalf("Expected ErrRejectionReason for blank reason, got %v", err)
	}

	rejected, err := mg.Reject(ctx, m.ID, "rate too high")
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if rejected.RejectionReason != "rate too high" {
		t.Errorf("Expected reason recorded, got %q", rejected.RejectionReason)
	}
	if rejected.RejectedAt.IsZero() {
		t.Error("Expected RejectedAt set on rejection")
	}
}

func TestConfirmConflict(t *testing.T) {
	mg, _, _, load := setupManager(t)
	ctx := context.Background()

	first, _ := mg.CreateMatch(ctx, models.Match{
		BrokerID: uuid.New(), LoadID: load.ID, CarrierID: uuid.New(),
	})
	second, _ := mg.CreateMatch(ctx, models.Match{
		BrokerID: uuid.New(), LoadID: load.ID, CarrierID: uuid.New(),
	})

	if _, err := mg.Confirm(ctx, first.ID); err != nil {
		t.Fatalf("First confirm failed: %v", err)
	}
	if _, err := mg.Confirm(ctx, second.ID); !errors.Is(err, domainErr.ErrMatchConflict) {
		t.Fatalf("Expected ErrMatchConflict on second confirm, got %v", err)
	}

	// The winner is untouched by the losing attempt.
	m, err := mg.GetMatch(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetMatch failed: %v", err)
	}
	if m.MatchStatus != models.MatchConfirmed {
		t.Errorf("Expected first match still confirmed, got %s", m.MatchStatus)
	}
}

func TestCreateMatchesPartialFailure(t *testing.T) {
	mg, _, _, load := setupManager(t)
	ctx := context.Background()

	batch := []models.Match{
		{BrokerID: uuid.New(), LoadID: load.ID, CarrierID: uuid.New()},
		{BrokerID: uuid.New(), LoadID: uuid.New(), CarrierID: uuid.New()}, // unknown load
		{BrokerID: uuid.New(), LoadID: load.ID, CarrierID: uuid.New()},
	}

	results := mg.CreateMatches(ctx, batch)
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if results[0].Err != nil {
		t.Errorf("Expected item 0 to succeed, got %v", results[0].Err)
	}
	if !errors.Is(results[1].Err, domainErr.ErrLoadNotFound) {
		t.Errorf("Expected item 1 to fail with ErrLoadNotFound, got %v", results[1].Err)
	}
	if results[2].Err != nil {
		t.Errorf("Expected item 2 unaffected by item 1's failure, got %v", results[2].Err)
	}
}

func TestPublishFailureDoesNotRollBack(t *testing.T) {
	mg, st, pub, load := setupManager(t)
	ctx := context.Background()

	m, err := mg.CreateMatch(ctx, models.Match{
		BrokerID: uuid.New(), LoadID: load.ID, CarrierID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("CreateMatch failed: %v", err)
	}

	pub.Err = errors.New("kafka down")
	confirmed, err := mg.Confirm(ctx, m.ID)
	if err != nil {
		t.Fatalf("Confirm should survive a publish failure, got %v", err)
	}
	if confirmed.MatchStatus != models.MatchConfirmed {
		t.Errorf("Expected confirmed despite publish failure, got %s", confirmed.MatchStatus)
	}

	stored, _ := st.GetMatch(ctx, m.ID)
	if stored.MatchStatus != models.MatchConfirmed {
		t.Errorf("Expected store to hold confirmed, got %s", stored.MatchStatus)
	}
}
