// Package model defines the core domain types shared across the ingestion
// and scoring pipeline.
package model

import "time"

// Canonical field names produced by the alias mapper. Vendor files arrive
// with arbitrary column names; everything downstream of the mapper speaks
// these.
const (
	FieldPropertyAddress = "property_address"
	FieldCity            = "city"
	FieldState           = "state"
	FieldZip             = "zip"
	FieldOwnerName       = "owner_name"
	FieldLoanDate        = "loan_date"
	FieldLoanBalance     = "loan_balance"
	FieldPropertyValue   = "property_value"
	FieldDNCFlag         = "dnc_flag"
	FieldConsent         = "consent"
)

// RawRecord is one input row keyed by column name. Before alias mapping the
// keys are whatever the vendor shipped; after mapping, matched columns use
// canonical names and everything else passes through unchanged.
type RawRecord map[string]string

// Clone returns an independent copy of the record.
func (r RawRecord) Clone() RawRecord {
	out := make(RawRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Record is a canonicalized, typed property/loan record. Pointer fields are
// nil when the source row had no parsable value; the metric engine applies
// documented defaults for those.
type Record struct {
	PropertyAddress string     `json:"property_address"`
	City            string     `json:"city"`
	State           string     `json:"state"`
	Zip             string     `json:"zip"`
	OwnerName       string     `json:"owner_name,omitempty"`
	LoanDate        *time.Time `json:"loan_date,omitempty"`
	LoanBalance     *float64   `json:"loan_balance,omitempty"`
	PropertyValue   *float64   `json:"property_value,omitempty"`
	DNCFlag         *bool      `json:"dnc_flag,omitempty"`
	Consent         *bool      `json:"consent,omitempty"`

	// Extra holds vendor columns that did not map to a canonical field.
	Extra map[string]string `json:"extra,omitempty"`

	// Metrics is set exactly once by the scoring stage. Re-running the full
	// stage replaces it wholesale; nothing mutates individual fields.
	Metrics *Metrics `json:"metrics,omitempty"`
}

// Metrics holds the computed per-record fields. LTV is a fraction in [0,2],
// EquityPct a fraction in [0,1]; Score, ChurnIndex, and CCI are 0-100.
type Metrics struct {
	LTV           float64 `json:"ltv"`
	EquityPct     float64 `json:"equity_pct"`
	EquityDollars float64 `json:"equity_dollars"`
	LoanAgeMonths int     `json:"loan_age_months"`
	Score         float64 `json:"score"`
	Tier          string  `json:"tier"`
	ChurnIndex    float64 `json:"churn_index"`
	CCI           float64 `json:"cci"`
	CyclePhase    float64 `json:"cycle_phase"`
	Velocity      float64 `json:"velocity"`
}

// LoanOrZero returns the loan balance, treating a missing value as zero.
func (r *Record) LoanOrZero() float64 {
	if r.LoanBalance == nil {
		return 0
	}
	return *r.LoanBalance
}

// ValueOrZero returns the property value, treating a missing value as zero.
// A zero value deliberately yields the worst-case LTV of 2.0 downstream.
func (r *Record) ValueOrZero() float64 {
	if r.PropertyValue == nil {
		return 0
	}
	return *r.PropertyValue
}
