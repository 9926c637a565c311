// internal/capacity/ledger.go
package capacity

import (
	"context"

	domainErr "github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/domain/errors"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/models"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/store"
	"github.com/google/uuid"
)

// Ledger owns carrier capacity declarations. Reservation and release
// themselves run inside the match store's confirm/cancel transaction,
// so the ledger only ever does plain reads and declared-value writes.
type Ledger struct {
	store store.CapacityStore
}

func NewLedger(st store.CapacityStore) *Ledger {
	return &Ledger{store: st}
}

func (l *Ledger) Get(ctx context.Context, id uuid.UUID) (models.CarrierCapacity, error) {
	return l.store.GetCapacity(ctx, id)
}

// GetAvailable lists every capacity record currently switched on for the
// broker's network.
func (l *Ledger) GetAvailable(ctx context.Context, brokerID uuid.UUID) ([]models.CarrierCapacity, error) {
	return l.store.GetAvailableCapacity(ctx, brokerID)
}

func (l *Ledger) GetForCarrier(ctx context.Context, carrierID, brokerID uuid.UUID) ([]models.CarrierCapacity, error) {
	return l.store.GetCarrierCapacity(ctx, carrierID, brokerID)
}

// Declare records a new capacity. Available weight defaults to the total
// when the carrier did not split them, and may never exceed it.
func (l *Ledger) Declare(ctx context.Context, c models.CarrierCapacity) (models.CarrierCapacity, error) {
	if c.CarrierID == uuid.Nil || c.BrokerID == uuid.Nil {
		return models.CarrierCapacity{}, domainErr.ErrInvalidInput
	}
	if c.TotalCapacityKg <= 0 {
		return models.CarrierCapacity{}, domainErr.ErrInvalidInput
	}
	if c.AvailableWeightKg == 0 {
		c.AvailableWeightKg = c.TotalCapacityKg
	}
	if c.AvailableWeightKg > c.TotalCapacityKg {
		return models.CarrierCapacity{}, domainErr.ErrInvalidInput
	}
	return l.store.CreateCapacity(ctx, c)
}

// Update applies a partial update. The store stamps LastUpdatedAt on
// every write, whatever fields changed.
func (l *Ledger) Update(ctx context.Context, id uuid.UUID, u store.CapacityUpdate) (models.CarrierCapacity, error) {
	if u.AvailableWeightKg != nil && *u.AvailableWeightKg < 0 {
		return models.CarrierCapacity{}, domainErr.ErrInvalidInput
	}
	return l.store.UpdateCapacity(ctx, id, u)
}

// SetAvailability flips the availability switch without touching the
// declared weights.
func (l *Ledger) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (models.CarrierCapacity, error) {
	return l.store.UpdateCapacity(ctx, id, store.CapacityUpdate{IsAvailable: &available})
}
