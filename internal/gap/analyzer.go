// internal/gap/analyzer.go
package gap

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Tanmoy095/LogiSynapse/services/matching-service/config"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/matching"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/models"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/store"
	"github.com/google/uuid"
)

// Analyzer diagnoses why unmatched loads have no viable carrier. The
// scan is O(loads × carriers) so every loop checks ctx.
type Analyzer struct {
	loads      store.LoadStore
	capacities store.CapacityStore
	cfg        config.MatchingConfig
}

func NewAnalyzer(loads store.LoadStore, capacities store.CapacityStore, cfg config.MatchingConfig) *Analyzer {
	return &Analyzer{loads: loads, capacities: capacities, cfg: cfg}
}

// FindGaps classifies every unmatched load in the broker's scope.
// Classification is a strict decision tree; each load gets the first
// reason that applies:
//
//	no_capacity → no_suitable_vehicle → no_carriers_in_area → price_mismatch
//
// An underweight carrier with the right vehicle type therefore never
// softens a no_capacity diagnosis.
func (a *Analyzer) FindGaps(ctx context.Context, brokerID uuid.UUID) ([]models.Gap, error) {
	loads, err := a.loads.GetUnmatchedLoads(ctx, brokerID)
	if err != nil {
		return nil, err
	}
	capacities, err := a.capacities.GetAvailableCapacity(ctx, brokerID)
	if err != nil {
		return nil, err
	}

	gaps := make([]models.Gap, 0, len(loads))
	for _, load := range loads {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		gaps = append(gaps, a.classify(load, capacities))
	}
	return gaps, nil
}

func (a *Analyzer) classify(load models.Load, capacities []models.CarrierCapacity) models.Gap {
	g := models.Gap{
		LoadID:         load.ID,
		ShipmentNumber: load.ShipmentNumber,
		Route:          routeKey(load),
		VehicleType:    load.PreferredVehicleType,
		WeightKg:       load.WeightKg,
	}

	// Step 1: anyone strong enough?
	var withWeight []models.CarrierCapacity
	maxAvailable := 0.0
	for _, cap := range capacities {
		if cap.AvailableWeightKg > maxAvailable {
			maxAvailable = cap.AvailableWeightKg
		}
		if cap.AvailableWeightKg >= load.WeightKg {
			withWeight = append(withWeight, cap)
		}
	}
	if len(withWeight) == 0 {
		g.Reason = models.GapNoCapacity
		g.Details = fmt.Sprintf("load needs %.0f kg but the largest available capacity is %.0f kg", load.WeightKg, maxAvailable)
		g.Recommendations = []string{
			"recruit carriers with higher-capacity vehicles",
			"ask existing carriers to update their declared availability",
			"consider splitting the load across multiple shipments",
		}
		return g
	}

	// Step 2: right vehicle among them?
	withVehicle := withWeight
	if load.PreferredVehicleType != "" {
		withVehicle = nil
		for _, cap := range withWeight {
			if hasVehicleType(cap, load.PreferredVehicleType) {
				withVehicle = append(withVehicle, cap)
			}
		}
	}
	if len(withVehicle) == 0 {
		g.Reason = models.GapNoSuitableVehicle
		g.Details = fmt.Sprintf("%d carrier(s) have the weight but none operates a %q", len(withWeight), load.PreferredVehicleType)
		g.Recommendations = []string{
			fmt.Sprintf("recruit carriers operating %s vehicles", load.PreferredVehicleType),
			"check with the shipper whether an alternative vehicle type is acceptable",
		}
		return g
	}

	// Step 3: anyone close enough to pickup?
	var nearby []models.CarrierCapacity
	for _, cap := range withVehicle {
		if a.inArea(load, cap) {
			nearby = append(nearby, cap)
		}
	}
	if len(nearby) == 0 {
		g.Reason = models.GapNoCarriersInArea
		g.Details = fmt.Sprintf("%d qualifying carrier(s) exist but none within %.0f km of %s", len(withVehicle), a.cfg.ProximityRadiusKm, load.PickupLocation)
		g.Recommendations = []string{
			fmt.Sprintf("expand the carrier network around %s", load.PickupLocation),
			"offer a repositioning incentive to qualifying carriers",
		}
		return g
	}

	// Step 4: capable, nearby, still unmatched. Pricing is the only
	// constraint left.
	g.Reason = models.GapPriceMismatch
	g.Details = fmt.Sprintf("%d nearby qualifying carrier(s) available; the quoted price is the likely blocker", len(nearby))
	g.Recommendations = []string{
		"revisit the quoted price against the route median",
		"negotiate rates with the nearby carriers directly",
	}
	return g
}

// inArea is true when the carrier's current position is inside the
// proximity radius, or, lacking coordinates, when its declared service
// areas cover the pickup city.
func (a *Analyzer) inArea(load models.Load, cap models.CarrierCapacity) bool {
	if cap.CurrentLatitude != 0 || cap.CurrentLongitude != 0 {
		if load.PickupLatitude != 0 || load.PickupLongitude != 0 {
			d := matching.DistanceKm(cap.CurrentLatitude, cap.CurrentLongitude, load.PickupLatitude, load.PickupLongitude)
			return d <= a.cfg.ProximityRadiusKm
		}
	}
	pickup := strings.ToLower(strings.TrimSpace(load.PickupLocation))
	if strings.EqualFold(strings.TrimSpace(cap.CurrentLocation), load.PickupLocation) {
		return true
	}
	for _, area := range cap.ServiceAreas {
		if strings.ToLower(strings.TrimSpace(area)) == pickup {
			return true
		}
	}
	return false
}

func hasVehicleType(cap models.CarrierCapacity, wanted string) bool {
	for _, vt := range cap.VehicleTypes {
		if tier, _ := matching.TieredMatch(wanted, vt); tier > 0 {
			return true
		}
	}
	return false
}

func routeKey(load models.Load) string {
	return load.PickupLocation + " → " + load.DeliveryLocation
}

// Analytics rolls the current gaps up into the dashboard view. It is a
// pure reduction over FindGaps output plus the capacity ledger, so
// recomputing it never drifts from the underlying records.
func (a *Analyzer) Analytics(ctx context.Context, brokerID uuid.UUID) (models.GapAnalytics, error) {
	gaps, err := a.FindGaps(ctx, brokerID)
	if err != nil {
		return models.GapAnalytics{}, err
	}
	capacities, err := a.capacities.GetAvailableCapacity(ctx, brokerID)
	if err != nil {
		return models.GapAnalytics{}, err
	}
	loads, err := a.loads.GetUnmatchedLoads(ctx, brokerID)
	if err != nil {
		return models.GapAnalytics{}, err
	}

	out := models.GapAnalytics{
		TotalUnmatched: len(gaps),
		ByReason:       make(map[models.GapReason]int),
		ByRoute:        make(map[string]int),
		ByVehicleType:  make(map[string]int),
	}
	for _, g := range gaps {
		out.ByReason[g.Reason]++
		out.ByRoute[g.Route]++
		if g.VehicleType != "" {
			out.ByVehicleType[g.VehicleType]++
		}
	}

	for _, cap := range capacities {
		out.TotalCapacityKg += cap.TotalCapacityKg
		out.ReservedCapacityKg += cap.TotalCapacityKg - cap.AvailableWeightKg
	}
	if out.TotalCapacityKg > 0 {
		out.UtilizationPercent = out.ReservedCapacityKg / out.TotalCapacityKg * 100
	}

	out.Trend = trend(loads)
	return out, nil
}

// trend buckets the currently-unmatched loads by scheduled pickup day.
// Loads without a pickup date are left out of the series.
func trend(loads []models.Load) []models.GapTrendPoint {
	buckets := make(map[time.Time]int)
	for _, l := range loads {
		if l.ScheduledPickupDate.IsZero() {
			continue
		}
		day := l.ScheduledPickupDate.UTC().Truncate(24 * time.Hour)
		buckets[day]++
	}

	points := make([]models.GapTrendPoint, 0, len(buckets))
	for day, n := range buckets {
		points = append(points, models.GapTrendPoint{Date: day, UnmatchedCount: n})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}
