// Package metrics implements the pure per-record financial calculations:
// loan-to-value, equity, loan age, composite scores, tiering, and the
// churn-propensity index. Every function is deterministic and side-effect
// free so identical inputs always reproduce identical outputs.
package metrics

import "time"

// Tier labels, ordered best to worst.
const (
	TierPlatinum = "Platinum"
	TierGold     = "Gold"
	TierSilver   = "Silver"
	TierNurture  = "Nurture"
)

// Clip bounds v to [lo, hi].
func Clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// LTV returns the loan-to-value ratio clipped to [0, 2]. A non-positive
// property value yields the worst-case 2.0 rather than dividing by zero.
func LTV(loan, value float64) float64 {
	if value <= 0 {
		return 2.0
	}
	return Clip(loan/value, 0, 2)
}

// EquityPct converts an LTV ratio to an equity fraction, floored at 0.
func EquityPct(ltv float64) float64 {
	if e := 1 - ltv; e > 0 {
		return e
	}
	return 0
}

// EquityDollars returns value minus loan, floored at 0.
func EquityDollars(value, loan float64) float64 {
	if e := value - loan; e > 0 {
		return e
	}
	return 0
}

// MonthsBetween returns the calendar month difference between two dates,
// floored at 0. A nil date on either side yields 0.
func MonthsBetween(a, b *time.Time) int {
	if a == nil || b == nil {
		return 0
	}
	months := (a.Year()-b.Year())*12 + int(a.Month()) - int(b.Month())
	if months < 0 {
		return 0
	}
	return months
}

// LoanAgeMonths returns the age of a loan in whole months as of today.
// Missing or unparsable loan dates yield 0.
func LoanAgeMonths(today time.Time, loanDate *time.Time) int {
	return MonthsBetween(&today, loanDate)
}

// WeightedScore is the canonical per-record composite score in [0, 100]:
// equity percentage weighted 40%, a loan-age band score 30%, and inverse
// LTV 30%. ltvPct and equityPct are percentages in [0, 100]. This is the
// form used for tier assignment and CCI; the exponential LiveScore exists
// only for the single-record calculation surface.
func WeightedScore(equityPct float64, loanAgeMonths int, ltvPct float64) float64 {
	equityScore := equityPct
	ageScore := loanAgeBandScore(loanAgeMonths)
	ltvScore := 100 - ltvPct

	return equityScore*0.40 + ageScore*0.30 + ltvScore*0.30
}

// loanAgeBandScore scores loan age on a 0-100 band. The 18-36 month window
// is optimal; younger loans ramp up, older loans decay with a floor of 40.
func loanAgeBandScore(months int) float64 {
	age := float64(months)
	switch {
	case months < 18:
		return age / 18 * 50
	case months <= 36:
		return 100
	case months <= 60:
		return 100 - (age-36)/24*30
	default:
		score := 70 - (age-60)/60*30
		if score < 40 {
			return 40
		}
		return score
	}
}

// Tier assigns one of the four opportunity tiers. Bands are evaluated
// top-down and the first match wins, so a record that clears the Platinum
// score but not its equity floor can still land in Gold. ltvPct is a
// percentage in [0, 100], equityDollars an absolute amount.
func Tier(score, ltvPct, equityDollars float64) string {
	switch {
	case score >= 80 && ltvPct <= 30 && equityDollars >= 500000:
		return TierPlatinum
	case score >= 65 && ltvPct <= 50 && equityDollars >= 300000:
		return TierGold
	case score >= 50 && ltvPct <= 65 && equityDollars >= 200000:
		return TierSilver
	default:
		return TierNurture
	}
}

// CCI is the 0-100 credit-confidence index: up to 40 points for equity,
// 35 for low LTV, and 25 for loan age seasoning. Percent inputs are in
// [0, 100].
func CCI(equityPct float64, ltvPct float64, loanAgeMonths int) float64 {
	equityComponent := equityPct / 100 * 40
	if equityComponent > 40 {
		equityComponent = 40
	}

	ltvComponent := 35 - ltvPct/100*35
	if ltvComponent < 0 {
		ltvComponent = 0
	}

	age := float64(loanAgeMonths)
	var ageComponent float64
	if loanAgeMonths >= 18 {
		ageComponent = 25 * age / 60
		if ageComponent > 25 {
			ageComponent = 25
		}
	} else {
		ageComponent = age / 18 * 15
	}

	return equityComponent + ltvComponent + ageComponent
}
