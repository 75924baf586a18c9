package quality

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ar-rehman786/Axis-trade-market/internal/model"
)

func healthyRecord(i int) model.Record {
	v := 400000.0
	l := 200000.0
	d := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	return model.Record{
		PropertyAddress: fmt.Sprintf("%d Oak St", i),
		Zip:             "30301",
		PropertyValue:   &v,
		LoanBalance:     &l,
		LoanDate:        &d,
		Metrics:         &model.Metrics{Score: float64(30 + i%50), Tier: []string{"Gold", "Silver", "Nurture"}[i%3]},
	}
}

func TestReport_HealthyDataset(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]model.Record, 200)
	for i := range records {
		records[i] = healthyRecord(i)
	}

	report := Report(records, 3, now)
	require.Len(t, report, 10)

	_, _, fail := report.Summary()
	assert.Zero(t, fail)
}

func TestReport_Empty(t *testing.T) {
	report := Report(nil, 0, time.Now())
	byName := indexByName(report)
	assert.Equal(t, model.CheckFail, byName["row_volume"].Status)
}

func TestRowVolume_Bands(t *testing.T) {
	assert.Equal(t, model.CheckFail, rowVolume(nil).Status)
	assert.Equal(t, model.CheckWarn, rowVolume(make([]model.Record, 10)).Status)
	assert.Equal(t, model.CheckPass, rowVolume(make([]model.Record, 100)).Status)
	assert.Equal(t, model.CheckExcellent, rowVolume(make([]model.Record, 1000)).Status)
}

func TestDNCLeakage(t *testing.T) {
	yes := true
	no := false

	clean := []model.Record{{DNCFlag: &no}, {}}
	assert.Equal(t, model.CheckPass, dncLeakage(clean, 5).Status)

	leaky := []model.Record{{DNCFlag: &yes}}
	c := dncLeakage(leaky, 0)
	assert.Equal(t, model.CheckFail, c.Status)
	assert.Contains(t, c.Value, "1 leaked")
}

func TestZipValidity(t *testing.T) {
	records := []model.Record{
		{Zip: "30301"}, {Zip: "30301-1234"}, {Zip: "3030"}, {Zip: "abcde"},
	}
	c := zipValidity(records)
	assert.Equal(t, "50.0%", c.Value)
	assert.Equal(t, model.CheckWarn, c.Status)
}

func TestDuplicateAddresses(t *testing.T) {
	records := []model.Record{
		{PropertyAddress: "12 Oak St"},
		{PropertyAddress: "12 oak st "},
		{PropertyAddress: "9 Elm St"},
		{PropertyAddress: ""},
	}
	c := duplicateAddresses(records)
	assert.Contains(t, c.Value, "1 ")
}

func TestScoreDistribution_NarrowBand(t *testing.T) {
	records := []model.Record{
		{Metrics: &model.Metrics{Score: 50}},
		{Metrics: &model.Metrics{Score: 52}},
	}
	assert.Equal(t, model.CheckWarn, scoreDistribution(records).Status)
}

func TestTierSpread(t *testing.T) {
	one := []model.Record{{Metrics: &model.Metrics{Tier: "Nurture"}}}
	assert.Equal(t, model.CheckWarn, tierSpread(one).Status)

	three := []model.Record{
		{Metrics: &model.Metrics{Tier: "Gold"}},
		{Metrics: &model.Metrics{Tier: "Silver"}},
		{Metrics: &model.Metrics{Tier: "Nurture"}},
	}
	assert.Equal(t, model.CheckExcellent, tierSpread(three).Status)
}

func TestDateSanity_FutureDates(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	c := dateSanity([]model.Record{{LoanDate: &future}}, now)
	assert.Equal(t, model.CheckWarn, c.Status)
}

func indexByName(report model.HealthReport) map[string]model.HealthCheck {
	out := make(map[string]model.HealthCheck, len(report))
	for _, c := range report {
		out[c.Name] = c
	}
	return out
}
