package metrics

// CyclePhase derives a 0-1 equity cycle position from loan age. The phase
// rises linearly to 0.5 over months 0-18, to 1.0 over months 18-36, then
// decays toward a floor of 0.3 reached at month 96.
func CyclePhase(loanAgeMonths int) float64 {
	age := float64(loanAgeMonths)
	switch {
	case loanAgeMonths < 18:
		return age / 18 * 0.5
	case loanAgeMonths <= 36:
		return 0.5 + (age-18)/18*0.5
	default:
		phase := 1.0 - (age-36)/60*0.7
		if phase < 0.3 {
			return 0.3
		}
		return phase
	}
}

// VelocityFromEquityDelta normalizes a 90-day equity delta (in percentage
// points) to a 0-1 velocity signal. A zero delta is neutral (0.5); ±5
// points saturate the signal.
func VelocityFromEquityDelta(equityDelta float64) float64 {
	return Clip((equityDelta+5)/10, 0, 1)
}

// ChurnIndex combines the cycle phase with a velocity signal into a 0-100
// refinance/sale propensity estimate. Both inputs are clipped to [0, 1]
// before weighting (velocity 35%, phase 65%).
func ChurnIndex(cyclePhase, velocity float64) float64 {
	return Clip(100*(0.35*Clip(velocity, 0, 1)+0.65*Clip(cyclePhase, 0, 1)), 0, 100)
}

// VelocityIndex measures refinance activity change over 90 days on a 0-100
// scale where 50 is neutral. A missing baseline reads as neutral.
func VelocityIndex(refiNow, refi90 float64) float64 {
	if refi90 <= 0 {
		return 50.0
	}
	denom := refi90
	if denom < 1 {
		denom = 1
	}
	ratio := Clip((refiNow-refi90)/denom, -1, 1)
	return (ratio + 1) * 50
}
