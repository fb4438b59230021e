package funding

import (
	"maps"
	"math"
	"slices"
	"sort"

	"fundingarb/internal/domain"
)

// Thresholds are the profitability gates for opportunity detection, all in
// percent units.
type Thresholds struct {
	MinExpectedProfit float64 // different_period: short-side rate magnitude must exceed this
	MinAnnualYield    float64 // same_period: annualized differential must exceed this
	NoiseFloor        float64 // same_period: raw differentials below this are noise
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinExpectedProfit: 0.005,
		MinAnnualYield:    1,
		NoiseFloor:        0.001,
	}
}

// DetectOpportunities compares every pair of rates sharing a symbol and
// returns the ranked opportunity list: different_period entries first, then
// descending annual yield within each type. The function is pure; identical
// inputs produce an identically ordered output.
func DetectOpportunities(rates []domain.Rate, th Thresholds) []domain.ArbitrageOpportunity {
	bySymbol := make(map[string][]domain.Rate)
	for _, r := range rates {
		bySymbol[r.Symbol] = append(bySymbol[r.Symbol], r)
	}

	symbols := slices.Collect(maps.Keys(bySymbol))
	slices.Sort(symbols)

	var out []domain.ArbitrageOpportunity
	for _, symbol := range symbols {
		group := bySymbol[symbol]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if opp, ok := comparePair(group[i], group[j], th); ok {
					out = append(out, opp)
				}
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type == domain.OpportunityDifferentPeriod
		}
		return out[i].AnnualYield > out[j].AnnualYield
	})
	return out
}

func comparePair(r1, r2 domain.Rate, th Thresholds) (domain.ArbitrageOpportunity, bool) {
	if r1.SettlementInterval != r2.SettlementInterval {
		return differentPeriod(r1, r2, th)
	}
	return samePeriod(r1, r2, th)
}

// differentPeriod pairs the imminently settling venue against one that has
// not been charged yet. The exploitable signal is negative funding on the
// short-period side: going long there collects the payment.
func differentPeriod(r1, r2 domain.Rate, th Thresholds) (domain.ArbitrageOpportunity, bool) {
	short, long := r1, r2
	if r2.SettlementInterval < r1.SettlementInterval {
		short, long = r2, r1
	}

	shortRate := float64(short.CurrentRate)
	if shortRate >= 0 {
		return domain.ArbitrageOpportunity{}, false
	}
	expectedProfit := math.Abs(shortRate)
	if expectedProfit <= th.MinExpectedProfit {
		return domain.ArbitrageOpportunity{}, false
	}
	annualYield := expectedProfit * (24 / short.SettlementInterval) * 365

	return domain.ArbitrageOpportunity{
		Symbol: short.Symbol,
		Type:   domain.OpportunityDifferentPeriod,
		// longExchange is the short-period venue actually held long; the
		// field naming is part of the wire contract and stays inverted.
		LongExchange:      short.Exchange,
		ShortExchange:     long.Exchange,
		LongRate:          short.CurrentRate,
		ShortRate:         long.CurrentRate,
		RateDiff:          domain.Percent(expectedProfit),
		AnnualYield:       annualYield,
		SettlementPeriod1: short.SettlementInterval,
		SettlementPeriod2: long.SettlementInterval,
		ExpectedProfit:    domain.Percent(expectedProfit),
	}, true
}

// samePeriod exploits a rate differential between two venues settling on the
// same cycle: long the cheaper side, short the richer one.
func samePeriod(r1, r2 domain.Rate, th Thresholds) (domain.ArbitrageOpportunity, bool) {
	diff := math.Abs(float64(r1.CurrentRate) - float64(r2.CurrentRate))
	if diff < th.NoiseFloor {
		return domain.ArbitrageOpportunity{}, false
	}
	interval := r1.SettlementInterval
	annualYield := diff * (24 / interval) * 365
	if annualYield <= th.MinAnnualYield {
		return domain.ArbitrageOpportunity{}, false
	}

	low, high := r1, r2
	if r2.CurrentRate < r1.CurrentRate {
		low, high = r2, r1
	}

	return domain.ArbitrageOpportunity{
		Symbol:           r1.Symbol,
		Type:             domain.OpportunitySamePeriod,
		LongExchange:     low.Exchange,
		ShortExchange:    high.Exchange,
		LongRate:         low.CurrentRate,
		ShortRate:        high.CurrentRate,
		RateDiff:         domain.Percent(diff),
		AnnualYield:      annualYield,
		SettlementPeriod: interval,
	}, true
}
