// internal/analytics/aggregator.go
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/models"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/store"
	"github.com/google/uuid"
)

// Granularity selects the trend bucket size.
type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// RankedEntry is one row of a top-N breakdown.
type RankedEntry struct {
	Key              string
	TransactionCount int
	CommissionTotal  float64
}

// TrendPoint is one time bucket of the commission series.
type TrendPoint struct {
	Bucket           string
	TransactionCount int
	CommissionTotal  float64
	GrossTotal       float64
}

// Summary is the full rollup the reporting layer reads.
type Summary struct {
	TotalRevenue          float64
	TotalGross            float64
	TransactionCount      int
	AverageCommissionRate float64
	TopClients            []RankedEntry
	TopRoutes             []RankedEntry
	ByFreightType         []RankedEntry
	Trend                 []TrendPoint
}

// Aggregator reduces commission history into summaries. Every call
// recomputes from the records; there are no running counters to drift.
type Aggregator struct {
	commissions store.CommissionStore
	loads       store.LoadStore
}

func NewAggregator(commissions store.CommissionStore, loads store.LoadStore) *Aggregator {
	return &Aggregator{commissions: commissions, loads: loads}
}

// Summarize rolls up the broker's commissions in [from, to] with trend
// buckets at the requested granularity. topN caps the breakdown lists.
func (a *Aggregator) Summarize(ctx context.Context, brokerID uuid.UUID, from, to time.Time, granularity Granularity, topN int) (Summary, error) {
	if topN <= 0 {
		topN = 5
	}
	commissions, err := a.commissions.ListCommissions(ctx, brokerID, from, to)
	if err != nil {
		return Summary{}, err
	}
	if len(commissions) == 0 {
		return Summary{}, nil
	}

	// One batched load fetch gives the route and freight-type dimensions.
	loadIDs := make([]uuid.UUID, 0, len(commissions))
	seen := make(map[uuid.UUID]bool)
	for _, c := range commissions {
		if !seen[c.LoadID] {
			seen[c.LoadID] = true
			loadIDs = append(loadIDs, c.LoadID)
		}
	}
	loads, err := a.loads.GetLoadsByIDs(ctx, loadIDs)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{TransactionCount: len(commissions)}
	var rateSum float64
	clients := make(map[string]*RankedEntry)
	routes := make(map[string]*RankedEntry)
	freight := make(map[string]*RankedEntry)
	trendBuckets := make(map[string]*TrendPoint)

	for _, c := range commissions {
		s.TotalRevenue += c.CommissionAmount
		s.TotalGross += c.GrossAmount
		rateSum += c.CommissionRate

		bump(clients, c.ShipperID.String(), c.CommissionAmount)
		if load, ok := loads[c.LoadID]; ok {
			bump(routes, load.PickupLocation+" → "+load.DeliveryLocation, c.CommissionAmount)
			if load.FreightType != "" {
				bump(freight, load.FreightType, c.CommissionAmount)
			}
		}

		b := bucketKey(c.CreatedAt, granularity)
		tp, ok := trendBuckets[b]
		if !ok {
			tp = &TrendPoint{Bucket: b}
			trendBuckets[b] = tp
		}
		tp.TransactionCount++
		tp.CommissionTotal += c.CommissionAmount
		tp.GrossTotal += c.GrossAmount
	}
	s.AverageCommissionRate = rateSum / float64(len(commissions))

	s.TopClients = rank(clients, topN)
	s.TopRoutes = rank(routes, topN)
	s.ByFreightType = rank(freight, 0)

	s.Trend = make([]TrendPoint, 0, len(trendBuckets))
	for _, tp := range trendBuckets {
		s.Trend = append(s.Trend, *tp)
	}
	sort.Slice(s.Trend, func(i, j int) bool { return s.Trend[i].Bucket < s.Trend[j].Bucket })

	return s, nil
}

func bump(m map[string]*RankedEntry, key string, amount float64) {
	e, ok := m[key]
	if !ok {
		e = &RankedEntry{Key: key}
		m[key] = e
	}
	e.TransactionCount++
	e.CommissionTotal += amount
}

// rank orders by commission total descending, key ascending on ties.
// topN <= 0 returns everything.
func rank(m map[string]*RankedEntry, topN int) []RankedEntry {
	out := make([]RankedEntry, 0, len(m))
	for _, e := range m {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CommissionTotal != out[j].CommissionTotal {
			return out[i].CommissionTotal > out[j].CommissionTotal
		}
		return out[i].Key < out[j].Key
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// bucketKey formats sortable bucket labels: 2026-02-03 daily,
// 2026-W06 weekly, 2026-02 monthly.
func bucketKey(t time.Time, g Granularity) string {
	t = t.UTC()
	switch g {
	case Weekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case Monthly:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// RecordCommission books the broker's cut of a completed match.
func (a *Aggregator) RecordCommission(ctx context.Context, c models.Commission) (models.Commission, error) {
	c.CommissionAmount = c.GrossAmount * c.CommissionRate
	return a.commissions.CreateCommission(ctx, c)
}
