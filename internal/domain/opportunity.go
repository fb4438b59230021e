package domain

// OpportunityType selects the arbitrage strategy that produced an opportunity.
type OpportunityType string

const (
	OpportunitySamePeriod      OpportunityType = "same_period"
	OpportunityDifferentPeriod OpportunityType = "different_period"
)

// ArbitrageOpportunity is a derived record computed from a pair of rates
// sharing a symbol. Opportunities are recomputed wholesale on every refresh
// and never mutated individually.
//
// For different_period opportunities the longExchange field names the side
// that is actually held long (the short-period venue with negative funding).
// The dashboard depends on these field semantics, so they are kept as-is.
type ArbitrageOpportunity struct {
	Symbol        string          `json:"symbol"`
	Type          OpportunityType `json:"type"`
	LongExchange  Exchange        `json:"longExchange"`
	ShortExchange Exchange        `json:"shortExchange"`
	LongRate      Percent         `json:"longRate"`
	ShortRate     Percent         `json:"shortRate"`
	RateDiff      Percent         `json:"rateDiff"`
	AnnualYield   float64         `json:"annualYield"`

	// same_period only.
	SettlementPeriod float64 `json:"settlementPeriod,omitempty"`

	// different_period only; period 1 is the shorter interval.
	SettlementPeriod1 float64 `json:"settlementPeriod1,omitempty"`
	SettlementPeriod2 float64 `json:"settlementPeriod2,omitempty"`
	ExpectedProfit    Percent `json:"expectedProfit,omitempty"`
}
