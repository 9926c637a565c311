// internal/matching/autoaccept.go
package matching

import (
	"fmt"

	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/models"
)

// AutoAcceptInput carries the candidate-side facts evaluated against a
// load's auto-accept criteria.
type AutoAcceptInput struct {
	Price         float64
	CarrierRating float64
	DeliveryDays  int
}

// EvaluateAutoAccept decides whether a candidate may be confirmed without
// manual review.
//
// The decision is a conjunction over the thresholds the shipper actually
// configured: every present threshold must pass, absent thresholds are not
// checked, and boundary values pass (price == MaxPrice accepts). Disabled
// criteria never accept. Unconfigured criteria are not an error, just
// "criteria not met".
func EvaluateAutoAccept(criteria models.AutoAcceptCriteria, in AutoAcceptInput) (bool, string) {
	if !criteria.Enabled {
		return false, "auto-accept disabled"
	}

	if criteria.MaxPrice > 0 && in.Price > criteria.MaxPrice {
		return false, fmt.Sprintf("price %.2f exceeds threshold %.2f", in.Price, criteria.MaxPrice)
	}

	if criteria.MinRating > 0 && in.CarrierRating < criteria.MinRating {
		return false, fmt.Sprintf("rating %.1f below minimum %.1f", in.CarrierRating, criteria.MinRating)
	}

	if criteria.MaxDeliveryDays > 0 && in.DeliveryDays > criteria.MaxDeliveryDays {
		return false, fmt.Sprintf("delivery takes %d days, limit is %d", in.DeliveryDays, criteria.MaxDeliveryDays)
	}

	return true, ""
}
