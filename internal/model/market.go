package model

import "time"

// CitySummary is a median-based city-level aggregate of a scored dataset.
type CitySummary struct {
	City                string    `json:"city"`
	State               string    `json:"state"`
	MedianLTV           float64   `json:"median_ltv"`
	MedianEquityPct     float64   `json:"median_equity_pct"`
	MedianEquityDollars float64   `json:"median_equity_dollars"`
	MedianLoanAgeMonths int       `json:"median_loan_age_months"`
	RecordCount         int       `json:"record_count"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ZipSummary is a median-based ZIP-level aggregate of a scored dataset.
type ZipSummary struct {
	Zip                 string    `json:"zip"`
	City                string    `json:"city"`
	State               string    `json:"state"`
	MedianScore         float64   `json:"median_score"`
	MedianLTV           float64   `json:"median_ltv"`
	MedianEquityPct     float64   `json:"median_equity_pct"`
	MedianEquityDollars float64   `json:"median_equity_dollars"`
	MedianLoanAgeMonths int       `json:"median_loan_age_months"`
	RecordCount         int       `json:"record_count"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// MarketPulse is the global market snapshot served by the pulse endpoint.
type MarketPulse struct {
	MedianScore float64   `json:"median_score"`
	MedianLTV   float64   `json:"median_ltv"`
	Markets     int       `json:"count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MarketIntel bundles a city summary with its ZIP breakdowns for the
// market-intel endpoint.
type MarketIntel struct {
	City CitySummary  `json:"summary"`
	Zips []ZipSummary `json:"zips"`
}
