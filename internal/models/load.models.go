// internal/models/load.models.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type LoadStatus string

const (
	LoadDraft          LoadStatus = "draft"
	LoadOpenForBidding LoadStatus = "open_for_bidding"
	LoadBidAwarded     LoadStatus = "bid_awarded"
	LoadInTransit      LoadStatus = "in_transit"
	LoadDelivered      LoadStatus = "delivered"
	LoadCancelled      LoadStatus = "cancelled"
)

// Load is a shipment seeking carrier assignment.
type Load struct {
	ID             uuid.UUID
	ShipmentNumber string
	ShipperID      uuid.UUID

	PickupLocation    string
	PickupLatitude    float64 // 0 when the shipper gave no coordinates
	PickupLongitude   float64
	DeliveryLocation  string
	DeliveryLatitude  float64
	DeliveryLongitude float64

	ScheduledPickupDate  time.Time
	FreightType          string
	WeightKg             float64
	PreferredVehicleType string
	QuotedPrice          float64 // shipper's asking price, 0 when not quoted

	Status LoadStatus

	AutoAccept AutoAcceptCriteria

	CreatedAt time.Time
}

// AutoAcceptCriteria are the per-load thresholds that let a match be
// confirmed without manual review. A zero threshold means that dimension
// is not checked.
type AutoAcceptCriteria struct {
	Enabled         bool
	MaxPrice        float64
	MinRating       float64
	MaxDeliveryDays int
}

// Matchable reports whether the load is still in a state where the broker
// can pair it with a carrier.
func (l Load) Matchable() bool {
	return l.Status == LoadOpenForBidding || l.Status == LoadBidAwarded
}
