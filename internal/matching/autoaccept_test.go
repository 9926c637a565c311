package matching

import (
	"testing"

	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/models"
)

func TestEvaluateAutoAccept(t *testing.T) {
	tests := []struct {
		name     string
		criteria models.AutoAcceptCriteria
		input    AutoAcceptInput
		expect   bool
	}{
		{
			name:     "disabled never accepts",
			criteria: models.AutoAcceptCriteria{Enabled: false, MaxPrice: 1000000},
			input:    AutoAcceptInput{Price: 1, CarrierRating: 5},
			expect:   false,
		},
		{
			name:     "price at boundary accepts",
			criteria: models.AutoAcceptCriteria{Enabled: true, MaxPrice: 100000},
			input:    AutoAcceptInput{Price: 100000},
			expect:   true,
		},
		{
			name:     "price one over boundary rejects",
			criteria: models.AutoAcceptCriteria{Enabled: true, MaxPrice: 100000},
			input:    AutoAcceptInput{Price: 100001},
			expect:   false,
		},
		{
			name:     "rating at boundary accepts",
			criteria: models.AutoAcceptCriteria{Enabled: true, MinRating: 4.0},
			input:    AutoAcceptInput{CarrierRating: 4.0},
			expect:   true,
		},
		{
			name:     "rating below minimum rejects",
			criteria: models.AutoAcceptCriteria{Enabled: true, MinRating: 4.0},
			input:    AutoAcceptInput{CarrierRating: 3.9},
			expect:   false,
		},
		{
			name:     "delivery days at boundary accepts",
			criteria: models.AutoAcceptCriteria{Enabled: true, MaxDeliveryDays: 3},
			input:    AutoAcceptInput{DeliveryDays: 3},
			expect:   true,
		},
		{
			name:     "delivery days over limit rejects",
			criteria: models.AutoAcceptCriteria{Enabled: true, MaxDeliveryDays: 3},
			input:    AutoAcceptInput{DeliveryDays: 4},
			expect:   false,
		},
		{
			name:     "enabled with no thresholds accepts anything",
			criteria: models.AutoAcceptCriteria{Enabled: true},
			input:    AutoAcceptInput{Price: 9999999, CarrierRating: 0, DeliveryDays: 365},
			expect:   true,
		},
		{
			name:     "conjunction requires every configured threshold",
			criteria: models.AutoAcceptCriteria{Enabled: true, MaxPrice: 100000, MinRating: 4.0, MaxDeliveryDays: 3},
			input:    AutoAcceptInput{Price: 50000, CarrierRating: 4.5, DeliveryDays: 5},
			expect:   false,
		},
		{
			name:     "all configured thresholds satisfied",
			criteria: models.AutoAcceptCriteria{Enabled: true, MaxPrice: 100000, MinRating: 4.0, MaxDeliveryDays: 3},
			input:    AutoAcceptInput{Price: 50000, CarrierRating: 4.5, DeliveryDays: 2},
			expect:   true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, reason := EvaluateAutoAccept(tc.criteria, tc.input)
			if got != tc.expect {
				t.Errorf("EvaluateAutoAccept = %v (reason %q), want %v", got, reason, tc.expect)
			}
			if !got && reason == "" {
				t.Errorf("rejection without a reason")
			}
		})
	}
}
