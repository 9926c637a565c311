// internal/models/commission.models.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Commission is one realized brokerage fee for a completed pairing.
// Rows are immutable history; every analytics figure is re-derived from
// them on demand.
type Commission struct {
	ID        uuid.UUID
	BrokerID  uuid.UUID
	LoadID    uuid.UUID
	ShipperID uuid.UUID
	CarrierID uuid.UUID

	GrossAmount      float64
	CommissionRate   float64 // percent
	CommissionAmount float64

	CreatedAt time.Time
}
