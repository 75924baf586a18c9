// Package feed routes scored records into output feeds and writes the
// per-feed artifacts.
package feed

import (
	"github.com/ar-rehman786/Axis-trade-market/internal/model"
)

// Built-in feed labels. Labels are opaque strings end to end; nothing
// outside the classifier switches on them.
const (
	ChurnAlert = "churn_alert"
	CoreEquity = "core_equity"
	Nurture    = "nurture"
)

// Classifier assigns a record to a feed. Implementations must be
// deterministic and context-free: the chunked counting pass and the
// output-partition pass classify independently, and their counts are
// required to agree.
type Classifier interface {
	Classify(rec model.Record) string
}

// RuleClassifier is the default threshold-driven classifier. Rules are
// checked in order; the first match wins.
type RuleClassifier struct {
	// ChurnThreshold routes high churn-index records to the churn feed.
	ChurnThreshold float64

	// EquityThreshold routes high-equity records to the core equity feed.
	EquityThreshold float64
}

// NewRuleClassifier returns a classifier with the given thresholds.
func NewRuleClassifier(churnThreshold, equityThreshold float64) *RuleClassifier {
	return &RuleClassifier{ChurnThreshold: churnThreshold, EquityThreshold: equityThreshold}
}

// Classify routes by churn index first, then equity dollars, falling back
// to the nurture feed. Records without metrics nurture by definition.
func (c *RuleClassifier) Classify(rec model.Record) string {
	if rec.Metrics == nil {
		return Nurture
	}
	if rec.Metrics.ChurnIndex >= c.ChurnThreshold {
		return ChurnAlert
	}
	if rec.Metrics.EquityDollars >= c.EquityThreshold {
		return CoreEquity
	}
	return Nurture
}

// Partition groups records by feed label, preserving input order within
// each feed.
func Partition(c Classifier, records []model.Record) map[string][]model.Record {
	out := make(map[string][]model.Record)
	for _, rec := range records {
		label := c.Classify(rec)
		out[label] = append(out[label], rec)
	}
	return out
}
