// internal/matching/scorer.go
package matching

import (
	"math"
	"sort"
	"strings"

	"github.com/Tanmoy095/LogiSynapse/services/matching-service/config"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/models"
)

// Scorer computes the compatibility between one load and one carrier
// capacity snapshot. It is a pure function of its inputs: no store access,
// no clock, no randomness, so identical inputs always produce identical
// output.
//
// Callers filter ineligible carriers (unavailable, underweight capacity,
// validity window) before scoring; the scorer only scores.
type Scorer struct {
	weights config.ScoringWeights
}

func NewScorer(weights config.ScoringWeights) *Scorer {
	return &Scorer{weights: weights}
}

// Score returns the weighted total (0..100) and the per-factor breakdown.
// routeMedianRate is the median quoted rate for the load's lane; pass 0
// when unknown and the cost factor scores neutral.
func (s *Scorer) Score(load models.Load, cap models.CarrierCapacity, rel models.CarrierReliability, routeMedianRate float64) (float64, models.ScoreBreakdown) {
	bd := models.ScoreBreakdown{}

	bd.RouteCompatibility, bd.DistanceKm = s.routeScore(load, cap)
	bd.VehicleMatch = s.vehicleScore(load, cap)
	bd.CapacityMatch = s.capacityScore(load, cap)
	bd.CostOptimization = s.costScore(cap, routeMedianRate)
	bd.ReliabilityScore = s.reliabilityScore(rel)
	bd.DeliveryTimeMatch = s.deliveryTimeScore(load, cap)

	w := s.weights
	weightSum := w.RouteCompatibility + w.VehicleMatch + w.CapacityMatch +
		w.CostOptimization + w.ReliabilityScore + w.DeliveryTimeMatch
	if weightSum <= 0 {
		return 0, bd
	}

	total := bd.RouteCompatibility*w.RouteCompatibility +
		bd.VehicleMatch*w.VehicleMatch +
		bd.CapacityMatch*w.CapacityMatch +
		bd.CostOptimization*w.CostOptimization +
		bd.ReliabilityScore*w.ReliabilityScore +
		bd.DeliveryTimeMatch*w.DeliveryTimeMatch

	return clamp(math.Round(total/weightSum), 0, 100), bd
}

// routeScore grades how well the carrier's base, service radius, declared
// service areas and preferred lanes line up with the load's lane. The
// second return is the informational distance from the carrier's current
// position to the pickup point (0 when coordinates are missing).
func (s *Scorer) routeScore(load models.Load, cap models.CarrierCapacity) (float64, float64) {
	score := 0.0
	distanceKm := 0.0

	// Radius-based matching when both sides have coordinates.
	if cap.CurrentLatitude != 0 && load.PickupLatitude != 0 {
		distToPickup := DistanceKm(cap.CurrentLatitude, cap.CurrentLongitude, load.PickupLatitude, load.PickupLongitude)
		distToDelivery := DistanceKm(cap.CurrentLatitude, cap.CurrentLongitude, load.DeliveryLatitude, load.DeliveryLongitude)
		distanceKm = math.Round(distToPickup)

		if cap.ServiceRadiusKm > 0 {
			switch {
			case distToPickup <= cap.ServiceRadiusKm && distToDelivery <= cap.ServiceRadiusKm:
				score = 100
			case distToPickup <= cap.ServiceRadiusKm || distToDelivery <= cap.ServiceRadiusKm:
				score = 60
			}
		}
	}

	// Same-city fallback when no coordinates are declared.
	if distanceKm == 0 && sameCity(cap.CurrentLocation, load.PickupLocation) {
		score = math.Max(score, 90)
	}

	// Declared service areas.
	for _, area := range cap.ServiceAreas {
		if sameCity(area, load.PickupLocation) {
			score = math.Max(score, 70)
		} else if sameCity(area, load.DeliveryLocation) {
			score = math.Max(score, 40)
		}
	}

	// An exact preferred lane beats everything.
	for _, r := range cap.PreferredRoutes {
		if sameCity(r.Origin, load.PickupLocation) && sameCity(r.Destination, load.DeliveryLocation) {
			score = 100
			break
		}
	}

	return score, distanceKm
}

// sameCity compares two location strings with the tiered strategy so that
// "Douala" and "douala " still match.
func sameCity(a, b string) bool {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return false
	}
	tier, _ := TieredMatch(a, b)
	return tier > 0
}

func (s *Scorer) vehicleScore(load models.Load, cap models.CarrierCapacity) float64 {
	if strings.TrimSpace(load.PreferredVehicleType) == "" {
		// No preference: any vehicle will do.
		return 100
	}
	best := 0.0
	for _, vt := range cap.VehicleTypes {
		if _, conf := TieredMatch(load.PreferredVehicleType, vt); conf*100 > best {
			best = conf * 100
		}
	}
	return best
}

// capacityScore rewards carriers whose free capacity is neither dangerously
// tight nor wastefully oversized. The sweet band is a utilization ratio of
// 0.5 to 0.85 of the available weight.
func (s *Scorer) capacityScore(load models.Load, cap models.CarrierCapacity) float64 {
	if cap.AvailableWeightKg <= 0 || load.WeightKg <= 0 {
		return 0
	}
	ratio := load.WeightKg / cap.AvailableWeightKg
	switch {
	case ratio > 1:
		// Caller should have filtered this carrier out.
		return 0
	case ratio >= 0.5 && ratio <= 0.85:
		return 100
	case ratio > 0.85:
		// Tight fit: slides from 100 down to 60 at full utilization.
		return 100 - (ratio-0.85)/0.15*40
	default:
		// Oversized: slides from 60 up to 100 as the fit improves.
		return 60 + ratio/0.5*40
	}
}

// costScore is an inverse function of the carrier's declared rate against
// the lane's median quoted rate. Matching the median scores 100; double the
// median scores 0; missing data scores neutral.
func (s *Scorer) costScore(cap models.CarrierCapacity, routeMedianRate float64) float64 {
	if cap.DeclaredRatePerKm <= 0 || routeMedianRate <= 0 {
		return 50
	}
	ratio := cap.DeclaredRatePerKm / routeMedianRate
	return clamp(100*(2-ratio), 0, 100)
}

func (s *Scorer) reliabilityScore(rel models.CarrierReliability) float64 {
	if rel.OnTimeRate == 0 && rel.CompletionRate == 0 && rel.AverageRating == 0 {
		// Only the coarse network rating is known.
		return clamp(rel.ReliabilityRating*20, 0, 100)
	}
	score := rel.OnTimeRate*0.35 + rel.CompletionRate*0.35 + rel.AverageRating*20*0.30
	return clamp(score, 0, 100)
}

// deliveryTimeScore grades how well the carrier's earliest availability
// aligns with the scheduled pickup. Every day the carrier would arrive late
// costs 15 points.
func (s *Scorer) deliveryTimeScore(load models.Load, cap models.CarrierCapacity) float64 {
	if load.ScheduledPickupDate.IsZero() || cap.AvailableFrom.IsZero() {
		return 100
	}
	if !cap.AvailableTo.IsZero() && cap.AvailableTo.Before(load.ScheduledPickupDate) {
		return 0
	}
	if !cap.AvailableFrom.After(load.ScheduledPickupDate) {
		return 100
	}
	lateDays := math.Ceil(cap.AvailableFrom.Sub(load.ScheduledPickupDate).Hours() / 24)
	return clamp(100-lateDays*15, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RankSuggestions orders suggestions best-first: total score descending,
// ties broken by reliability score descending, then carrier ID ascending.
// The sort is stable and deterministic so repeated runs over the same
// inputs rank identically.
func RankSuggestions(suggestions []models.Suggestion) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.MatchScore != b.MatchScore {
			return a.MatchScore > b.MatchScore
		}
		if a.ScoreBreakdown.ReliabilityScore != b.ScoreBreakdown.ReliabilityScore {
			return a.ScoreBreakdown.ReliabilityScore > b.ScoreBreakdown.ReliabilityScore
		}
		return a.CarrierID.String() < b.CarrierID.String()
	})
}
