// internal/capacity/forecast.go
package capacity

import (
	"context"
	"time"

	"github.com/Tanmoy095/LogiSynapse/services/matching-service/config"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/models"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/store"
	"github.com/google/uuid"
)

// Forecaster projects a carrier's available weight over the coming days.
// Forecasts are derived on demand from the carrier's declared capacity
// and shipment history; nothing here is ever persisted.
type Forecaster struct {
	capacities store.CapacityStore
	carriers   store.CarrierStore
	matches    store.MatchStore
	cfg        config.MatchingConfig
}

func NewForecaster(capacities store.CapacityStore, carriers store.CarrierStore, matches store.MatchStore, cfg config.MatchingConfig) *Forecaster {
	return &Forecaster{capacities: capacities, carriers: carriers, matches: matches, cfg: cfg}
}

// Forecast returns one entry per day, starting tomorrow, for each of the
// broker's carriers with declared capacity.
//
//	utilization = min(ceiling, base + shipments/10 × step)
//	predicted   = total_capacity × (1 − utilization)
//
// Historical volume sets the confidence: more completed shipments means
// the utilization estimate rests on more evidence.
func (f *Forecaster) Forecast(ctx context.Context, brokerID uuid.UUID, days int) ([]models.CapacityForecast, error) {
	if days <= 0 {
		days = 7
	}

	capacities, err := f.capacities.GetAvailableCapacity(ctx, brokerID)
	if err != nil {
		return nil, err
	}

	start := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)

	var forecasts []models.CapacityForecast
	for _, cap := range capacities {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rel, err := f.carriers.GetReliability(ctx, cap.CarrierID)
		if err != nil {
			rel = models.CarrierReliability{CarrierID: cap.CarrierID}
		}
		assignments, err := f.matches.CountActiveAssignments(ctx, brokerID, cap.CarrierID)
		if err != nil {
			return nil, err
		}

		utilization := f.utilization(rel.TotalShipmentsAssigned)
		predicted := cap.TotalCapacityKg * (1 - utilization/100)
		confidence := f.confidence(rel.TotalShipmentsAssigned)

		for d := 0; d < days; d++ {
			forecasts = append(forecasts, models.CapacityForecast{
				CarrierID:                  cap.CarrierID,
				ForecastDate:               start.AddDate(0, 0, d),
				PredictedAvailableWeightKg: predicted,
				CurrentAssignments:         assignments,
				HistoricalUtilization:      utilization,
				ConfidenceLevel:            confidence,
			})
		}
	}
	return forecasts, nil
}

// utilization grows with shipment history and saturates at the ceiling,
// so the predicted free weight never goes negative.
func (f *Forecaster) utilization(totalShipments int) float64 {
	u := f.cfg.ForecastBaseUtilization + float64(totalShipments/10)*f.cfg.ForecastUtilizationStep
	if u > f.cfg.ForecastUtilizationCeiling {
		return f.cfg.ForecastUtilizationCeiling
	}
	return u
}

func (f *Forecaster) confidence(totalShipments int) models.ConfidenceLevel {
	switch {
	case totalShipments > f.cfg.ForecastHighThreshold:
		return models.ConfidenceHigh
	case totalShipments > f.cfg.ForecastMediumThreshold:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
