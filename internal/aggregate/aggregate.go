// Package aggregate reduces a scored dataset to the city, ZIP, and market
// pulse summaries persisted for the intel endpoints.
package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/ar-rehman786/Axis-trade-market/internal/model"
)

// minZipRecords is the floor below which a ZIP's medians are too noisy to
// publish; smaller ZIPs are skipped entirely.
const minZipRecords = 5

// Summary is the full aggregate output for one completed dataset.
type Summary struct {
	City  model.CitySummary
	Zips  []model.ZipSummary
	Pulse model.MarketPulse
}

// Summarize computes median-based aggregates over a scored dataset. City
// and state come from the most frequent spelling after normalization, so
// "WEST JORDAN" and "West Jordan" land in the same bucket.
func Summarize(records []model.Record, now time.Time) Summary {
	var s Summary
	if len(records) == 0 {
		return s
	}

	s.City = citySummary(records, now)
	s.Zips = zipSummaries(records, now)
	s.Pulse = pulse(records, s.Zips, now)
	return s
}

func citySummary(records []model.Record, now time.Time) model.CitySummary {
	cityVotes := make(map[string]int)
	stateVotes := make(map[string]int)
	var ltvs, eqPcts, eqDollars []float64
	var ages []int

	for i := range records {
		rec := &records[i]
		if c := titleCase(rec.City); c != "" {
			cityVotes[c]++
		}
		if st := stateAbbreviation(rec.State); st != "" {
			stateVotes[st]++
		}
		if m := rec.Metrics; m != nil {
			ltvs = append(ltvs, m.LTV)
			eqPcts = append(eqPcts, m.EquityPct)
			eqDollars = append(eqDollars, m.EquityDollars)
			ages = append(ages, m.LoanAgeMonths)
		}
	}

	return model.CitySummary{
		City:                mode(cityVotes),
		State:               mode(stateVotes),
		MedianLTV:           median(ltvs),
		MedianEquityPct:     median(eqPcts),
		MedianEquityDollars: median(eqDollars),
		MedianLoanAgeMonths: medianInt(ages),
		RecordCount:         len(records),
		UpdatedAt:           now,
	}
}

func zipSummaries(records []model.Record, now time.Time) []model.ZipSummary {
	byZip := make(map[string][]*model.Record)
	for i := range records {
		zip := strings.TrimSpace(records[i].Zip)
		if zip == "" {
			continue
		}
		byZip[zip] = append(byZip[zip], &records[i])
	}

	zips := make([]string, 0, len(byZip))
	for zip, recs := range byZip {
		if len(recs) >= minZipRecords {
			zips = append(zips, zip)
		}
	}
	sort.Strings(zips)

	out := make([]model.ZipSummary, 0, len(zips))
	for _, zip := range zips {
		recs := byZip[zip]
		var scores, ltvs, eqPcts, eqDollars []float64
		var ages []int
		cityVotes := make(map[string]int)
		stateVotes := make(map[string]int)

		for _, rec := range recs {
			if c := titleCase(rec.City); c != "" {
				cityVotes[c]++
			}
			if st := stateAbbreviation(rec.State); st != "" {
				stateVotes[st]++
			}
			if m := rec.Metrics; m != nil {
				scores = append(scores, m.Score)
				ltvs = append(ltvs, m.LTV)
				eqPcts = append(eqPcts, m.EquityPct)
				eqDollars = append(eqDollars, m.EquityDollars)
				ages = append(ages, m.LoanAgeMonths)
			}
		}

		out = append(out, model.ZipSummary{
			Zip:                 zip,
			City:                mode(cityVotes),
			State:               mode(stateVotes),
			MedianScore:         median(scores),
			MedianLTV:           median(ltvs),
			MedianEquityPct:     median(eqPcts),
			MedianEquityDollars: median(eqDollars),
			MedianLoanAgeMonths: medianInt(ages),
			RecordCount:         len(recs),
			UpdatedAt:           now,
		})
	}
	return out
}

func pulse(records []model.Record, zips []model.ZipSummary, now time.Time) model.MarketPulse {
	var scores, ltvs []float64
	for i := range records {
		if m := records[i].Metrics; m != nil {
			scores = append(scores, m.Score)
			ltvs = append(ltvs, m.LTV)
		}
	}
	return model.MarketPulse{
		MedianScore: median(scores),
		MedianLTV:   median(ltvs),
		Markets:     len(zips),
		UpdatedAt:   now,
	}
}

// median returns the middle value, averaging the two middles for even
// lengths. Zero for an empty slice.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func medianInt(vals []int) int {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]int(nil), vals...)
	sort.Ints(sorted)
	return sorted[len(sorted)/2]
}

// mode returns the most frequent key, breaking ties lexicographically so
// the result is stable.
func mode(votes map[string]int) string {
	best, bestCount := "", 0
	for k, n := range votes {
		if n > bestCount || (n == bestCount && k < best) {
			best, bestCount = k, n
		}
	}
	return best
}

// titleCase converts "WEST JORDAN" to "West Jordan".
func titleCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// stateAbbreviation converts full state names to two-letter abbreviations.
// If the input is already a 2-letter abbreviation, it is returned as-is
// (uppercased).
func stateAbbreviation(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	upper := strings.ToUpper(s)
	if len(upper) == 2 {
		return upper
	}
	if abbr, ok := stateMap[upper]; ok {
		return abbr
	}
	return titleCase(s)
}

var stateMap = map[string]string{
	"ALABAMA":              "AL",
	"ALASKA":               "AK",
	"ARIZONA":              "AZ",
	"ARKANSAS":             "AR",
	"CALIFORNIA":           "CA",
	"COLORADO":             "CO",
	"CONNECTICUT":          "CT",
	"DELAWARE":             "DE",
	"DISTRICT OF COLUMBIA": "DC",
	"FLORIDA":              "FL",
	"GEORGIA":              "GA",
	"HAWAII":               "HI",
	"IDAHO":                "ID",
	"ILLINOIS":             "IL",
	"INDIANA":              "IN",
	"IOWA":                 "IA",
	"KANSAS":               "KS",
	"KENTUCKY":             "KY",
	"LOUISIANA":            "LA",
	"MAINE":                "ME",
	"MARYLAND":             "MD",
	"MASSACHUSETTS":        "MA",
	"MICHIGAN":             "MI",
	"MINNESOTA":            "MN",
	"MISSISSIPPI":          "MS",
	"MISSOURI":             "MO",
	"MONTANA":              "MT",
	"NEBRASKA":             "NE",
	"NEVADA":               "NV",
	"NEW HAMPSHIRE":        "NH",
	"NEW JERSEY":           "NJ",
	"NEW MEXICO":           "NM",
	"NEW YORK":             "NY",
	"NORTH CAROLINA":       "NC",
	"NORTH DAKOTA":         "ND",
	"OHIO":                 "OH",
	"OKLAHOMA":             "OK",
	"OREGON":               "OR",
	"PENNSYLVANIA":         "PA",
	"RHODE ISLAND":         "RI",
	"SOUTH CAROLINA":       "SC",
	"SOUTH DAKOTA":         "SD",
	"TENNESSEE":            "TN",
	"TEXAS":                "TX",
	"UTAH":                 "UT",
	"VERMONT":              "VT",
	"VIRGINIA":             "VA",
	"WASHINGTON":           "WA",
	"WEST VIRGINIA":        "WV",
	"WISCONSIN":            "WI",
	"WYOMING":              "WY",
}
