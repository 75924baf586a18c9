package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCyclePhase_Ramp(t *testing.T) {
	assert.InDelta(t, 0.0, CyclePhase(0), 1e-9)
	// Rising segment: 9 months -> 0.25.
	assert.InDelta(t, 0.25, CyclePhase(9), 1e-9)
	// Peak segment: 18 -> 0.5, 36 -> 1.0.
	assert.InDelta(t, 0.5, CyclePhase(18), 1e-9)
	assert.InDelta(t, 1.0, CyclePhase(36), 1e-9)
	// Decay: 66 months -> 1.0 - (30/60)*0.7 = 0.65.
	assert.InDelta(t, 0.65, CyclePhase(66), 1e-9)
	// Floor at 0.3 from month 96 on.
	assert.InDelta(t, 0.3, CyclePhase(96), 1e-9)
	assert.InDelta(t, 0.3, CyclePhase(240), 1e-9)
}

func TestVelocityFromEquityDelta(t *testing.T) {
	// Zero delta is neutral.
	assert.InDelta(t, 0.5, VelocityFromEquityDelta(0), 1e-9)
	// ±5 points saturate.
	assert.InDelta(t, 1.0, VelocityFromEquityDelta(5), 1e-9)
	assert.InDelta(t, 0.0, VelocityFromEquityDelta(-5), 1e-9)
	assert.InDelta(t, 1.0, VelocityFromEquityDelta(50), 1e-9)
}

func TestChurnIndex_Weighting(t *testing.T) {
	// 100 * (0.35*0.6 + 0.65*0.8) = 73.
	assert.InDelta(t, 73.0, ChurnIndex(0.8, 0.6), 1e-9)
}

func TestChurnIndex_ClipsInputs(t *testing.T) {
	assert.InDelta(t, 100.0, ChurnIndex(5, 5), 1e-9)
	assert.InDelta(t, 0.0, ChurnIndex(-1, -1), 1e-9)
}

func TestVelocityIndex(t *testing.T) {
	// (120-100)/100 = 0.2 -> (0.2+1)*50 = 60.
	assert.InDelta(t, 60.0, VelocityIndex(120, 100), 1e-9)
	// No baseline reads neutral.
	assert.InDelta(t, 50.0, VelocityIndex(120, 0), 1e-9)
	// Halved activity: (-0.5+1)*50 = 25.
	assert.InDelta(t, 25.0, VelocityIndex(50, 100), 1e-9)
}
