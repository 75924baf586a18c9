package metrics

import "math"

// LiveScore is the exponential-form composite used by the single-record
// calculation endpoint. It is NOT the canonical score: tier assignment and
// CCI always use WeightedScore. The two formulas disagree near tier
// boundaries and are deliberately kept separate.
//
// Starting from 100, it subtracts up to 40 points for LTV, 30 for missing
// equity, and 20 for loan youth (exponential decay with a 36-month
// constant), then adds up to 10 bonus points for recent equity growth via
// a tanh ramp centered at zero delta.
func LiveScore(ltv, equityPct float64, loanAgeMonths int, equityDelta float64) float64 {
	score := 100.0
	score -= 40 * Clip(ltv, 0, 1)
	score -= 30 * Clip(1-equityPct, 0, 1)
	score -= 20 * math.Exp(-float64(loanAgeMonths)/36)
	score += 10 * 0.5 * (math.Tanh(equityDelta/25000) + 1)

	return Clip(score, 0, 100)
}
