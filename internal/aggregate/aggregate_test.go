package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ar-rehman786/Axis-trade-market/internal/model"
)

func rec(zip, city, state string, score, ltv float64) model.Record {
	return model.Record{
		Zip:   zip,
		City:  city,
		State: state,
		Metrics: &model.Metrics{
			Score:     score,
			LTV:       ltv,
			EquityPct: 1 - ltv,
		},
	}
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, median(nil))
	assert.Equal(t, 3.0, median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, median([]float64{1, 4, 2, 3}))
}

func TestMode_StableTieBreak(t *testing.T) {
	assert.Equal(t, "Atlanta", mode(map[string]int{"Atlanta": 2, "Boston": 2, "Chicago": 1}))
	assert.Equal(t, "", mode(nil))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "West Jordan", titleCase("WEST JORDAN"))
	assert.Equal(t, "Salt Lake City", titleCase("  salt  lake   city "))
	assert.Equal(t, "", titleCase("  "))
}

func TestStateAbbreviation(t *testing.T) {
	assert.Equal(t, "UT", stateAbbreviation("Utah"))
	assert.Equal(t, "GA", stateAbbreviation("ga"))
	assert.Equal(t, "Narnia", stateAbbreviation("NARNIA"))
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, time.Now())
	assert.Equal(t, 0, s.City.RecordCount)
	assert.Empty(t, s.Zips)
}

func TestSummarize_SkipsSmallZips(t *testing.T) {
	now := time.Now()
	var records []model.Record
	for i := 0; i < 5; i++ {
		records = append(records, rec("30301", "ATLANTA", "Georgia", 70, 0.4))
	}
	// only 4 records: below the publishing floor
	for i := 0; i < 4; i++ {
		records = append(records, rec("30302", "Atlanta", "GA", 50, 0.6))
	}

	s := Summarize(records, now)
	require.Len(t, s.Zips, 1)
	assert.Equal(t, "30301", s.Zips[0].Zip)
	assert.Equal(t, 5, s.Zips[0].RecordCount)
	assert.Equal(t, "Atlanta", s.Zips[0].City)
	assert.Equal(t, "GA", s.Zips[0].State)
	assert.Equal(t, 70.0, s.Zips[0].MedianScore)
}

func TestSummarize_CityNormalizationBuckets(t *testing.T) {
	records := []model.Record{
		rec("1", "WEST JORDAN", "Utah", 60, 0.5),
		rec("2", "west jordan", "UT", 60, 0.5),
		rec("3", "West Jordan", "utah", 60, 0.5),
	}
	s := Summarize(records, time.Now())
	assert.Equal(t, "West Jordan", s.City.City)
	assert.Equal(t, "UT", s.City.State)
	assert.Equal(t, 3, s.City.RecordCount)
}

func TestSummarize_PulseAcrossDataset(t *testing.T) {
	now := time.Now()
	var records []model.Record
	for i := 0; i < 5; i++ {
		records = append(records, rec("30301", "Atlanta", "GA", 80, 0.2))
	}
	for i := 0; i < 5; i++ {
		records = append(records, rec("30302", "Atlanta", "GA", 40, 0.8))
	}

	s := Summarize(records, now)
	assert.Equal(t, 2, s.Pulse.Markets)
	assert.Equal(t, 60.0, s.Pulse.MedianScore)
	assert.InDelta(t, 0.5, s.Pulse.MedianLTV, 1e-9)
	assert.Equal(t, now, s.Pulse.UpdatedAt)
}
