// Package quality produces the post-run data health report. The report is
// informational: it is attached to completed jobs and printed by the CLI,
// and never gates the pipeline.
package quality

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ar-rehman786/Axis-trade-market/internal/model"
)

var zipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// Report runs every check over a scored dataset.
func Report(records []model.Record, filtered int, now time.Time) model.HealthReport {
	return model.HealthReport{
		rowVolume(records),
		valueCoverage(records),
		loanCoverage(records),
		dateCoverage(records),
		zipValidity(records),
		duplicateAddresses(records),
		scoreDistribution(records),
		tierSpread(records),
		dncLeakage(records, filtered),
		dateSanity(records, now),
	}
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func rowVolume(records []model.Record) model.HealthCheck {
	n := len(records)
	c := model.HealthCheck{Name: "row_volume", Value: fmt.Sprintf("%d rows", n)}
	switch {
	case n >= 1000:
		c.Status = model.CheckExcellent
	case n >= 100:
		c.Status = model.CheckPass
	case n > 0:
		c.Status = model.CheckWarn
		c.Message = "small dataset, aggregates will be noisy"
	default:
		c.Status = model.CheckFail
		c.Message = "no rows survived processing"
	}
	return c
}

func coverageCheck(name string, present, total int) model.HealthCheck {
	p := pct(present, total)
	c := model.HealthCheck{Name: name, Value: fmt.Sprintf("%.1f%%", p)}
	switch {
	case p >= 95:
		c.Status = model.CheckExcellent
	case p >= 80:
		c.Status = model.CheckPass
	case p >= 50:
		c.Status = model.CheckWarn
	default:
		c.Status = model.CheckFail
	}
	return c
}

func valueCoverage(records []model.Record) model.HealthCheck {
	present := 0
	for i := range records {
		if records[i].PropertyValue != nil {
			present++
		}
	}
	c := coverageCheck("property_value_coverage", present, len(records))
	if c.Status == model.CheckFail {
		c.Message = "missing values score as worst-case LTV"
	}
	return c
}

func loanCoverage(records []model.Record) model.HealthCheck {
	present := 0
	for i := range records {
		if records[i].LoanBalance != nil {
			present++
		}
	}
	return coverageCheck("loan_balance_coverage", present, len(records))
}

func dateCoverage(records []model.Record) model.HealthCheck {
	present := 0
	for i := range records {
		if records[i].LoanDate != nil {
			present++
		}
	}
	c := coverageCheck("loan_date_coverage", present, len(records))
	if c.Status == model.CheckWarn || c.Status == model.CheckFail {
		c.Message = "missing dates score as zero-age loans"
	}
	return c
}

func zipValidity(records []model.Record) model.HealthCheck {
	valid := 0
	for i := range records {
		if zipPattern.MatchString(strings.TrimSpace(records[i].Zip)) {
			valid++
		}
	}
	return coverageCheck("zip_validity", valid, len(records))
}

func duplicateAddresses(records []model.Record) model.HealthCheck {
	seen := make(map[string]bool, len(records))
	dupes := 0
	for i := range records {
		key := strings.ToLower(strings.TrimSpace(records[i].PropertyAddress))
		if key == "" {
			continue
		}
		if seen[key] {
			dupes++
		}
		seen[key] = true
	}
	p := pct(dupes, len(records))
	c := model.HealthCheck{Name: "duplicate_addresses", Value: fmt.Sprintf("%d (%.1f%%)", dupes, p)}
	switch {
	case p == 0:
		c.Status = model.CheckExcellent
	case p < 2:
		c.Status = model.CheckPass
	case p < 10:
		c.Status = model.CheckWarn
	default:
		c.Status = model.CheckFail
		c.Message = "dataset looks deduplicated upstream of purchase"
	}
	return c
}

// scoreDistribution flags datasets whose scores collapse to one band,
// which usually means a column mapping went wrong.
func scoreDistribution(records []model.Record) model.HealthCheck {
	if len(records) == 0 {
		return model.HealthCheck{Name: "score_distribution", Status: model.CheckFail, Value: "n/a"}
	}
	lo, hi := 101.0, -1.0
	for i := range records {
		if m := records[i].Metrics; m != nil {
			if m.Score < lo {
				lo = m.Score
			}
			if m.Score > hi {
				hi = m.Score
			}
		}
	}
	spread := hi - lo
	c := model.HealthCheck{Name: "score_distribution", Value: fmt.Sprintf("spread %.1f", spread)}
	switch {
	case spread >= 30:
		c.Status = model.CheckExcellent
	case spread >= 10:
		c.Status = model.CheckPass
	default:
		c.Status = model.CheckWarn
		c.Message = "scores clustered in a narrow band"
	}
	return c
}

func tierSpread(records []model.Record) model.HealthCheck {
	tiers := make(map[string]bool)
	for i := range records {
		if m := records[i].Metrics; m != nil && m.Tier != "" {
			tiers[m.Tier] = true
		}
	}
	c := model.HealthCheck{Name: "tier_spread", Value: fmt.Sprintf("%d tiers", len(tiers))}
	switch {
	case len(tiers) >= 3:
		c.Status = model.CheckExcellent
	case len(tiers) == 2:
		c.Status = model.CheckPass
	case len(tiers) == 1:
		c.Status = model.CheckWarn
		c.Message = "all records landed in one tier"
	default:
		c.Status = model.CheckFail
	}
	return c
}

// dncLeakage verifies the consent filter did its job: no surviving record
// may carry an affirmative do-not-contact flag.
func dncLeakage(records []model.Record, filtered int) model.HealthCheck {
	leaked := 0
	for i := range records {
		if records[i].DNCFlag != nil && *records[i].DNCFlag {
			leaked++
		}
	}
	c := model.HealthCheck{
		Name:  "dnc_leakage",
		Value: fmt.Sprintf("%d leaked, %d filtered", leaked, filtered),
	}
	if leaked == 0 {
		c.Status = model.CheckPass
	} else {
		c.Status = model.CheckFail
		c.Message = "do-not-contact records survived filtering"
	}
	return c
}

func dateSanity(records []model.Record, now time.Time) model.HealthCheck {
	future := 0
	for i := range records {
		if d := records[i].LoanDate; d != nil && d.After(now) {
			future++
		}
	}
	c := model.HealthCheck{Name: "date_sanity", Value: fmt.Sprintf("%d future dates", future)}
	if future == 0 {
		c.Status = model.CheckPass
	} else {
		c.Status = model.CheckWarn
		c.Message = "loan dates in the future score as zero-age"
	}
	return c
}
