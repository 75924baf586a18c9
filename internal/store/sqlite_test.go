package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ar-rehman786/Axis-trade-market/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "market.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleZip(zip string) model.ZipSummary {
	return model.ZipSummary{
		Zip:                 zip,
		City:                "Atlanta",
		State:               "GA",
		MedianScore:         67.5,
		MedianLTV:           0.45,
		MedianEquityPct:     0.55,
		MedianEquityDollars: 210000,
		MedianLoanAgeMonths: 28,
		RecordCount:         12,
		UpdatedAt:           time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestSQLiteStore_ZipRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertZipSummaries(ctx, []model.ZipSummary{sampleZip("30301"), sampleZip("30302")}))

	got, err := s.GetZip(ctx, "30301")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Atlanta", got.City)
	assert.Equal(t, 67.5, got.MedianScore)
	assert.Equal(t, 12, got.RecordCount)
}

func TestSQLiteStore_ZipUpsertReplaces(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	z := sampleZip("30301")
	require.NoError(t, s.UpsertZipSummaries(ctx, []model.ZipSummary{z}))

	z.MedianScore = 80
	z.RecordCount = 40
	require.NoError(t, s.UpsertZipSummaries(ctx, []model.ZipSummary{z}))

	got, err := s.GetZip(ctx, "30301")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 80.0, got.MedianScore)
	assert.Equal(t, 40, got.RecordCount)
}

func TestSQLiteStore_GetZip_Missing(t *testing.T) {
	s := newTestSQLite(t)
	got, err := s.GetZip(context.Background(), "00000")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_ListZipsForCity(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	other := sampleZip("99999")
	other.City = "Boston"
	other.State = "MA"
	require.NoError(t, s.UpsertZipSummaries(ctx, []model.ZipSummary{
		sampleZip("30302"), sampleZip("30301"), other,
	}))

	zips, err := s.ListZipsForCity(ctx, "Atlanta")
	require.NoError(t, err)
	require.Len(t, zips, 2)
	assert.Equal(t, "30301", zips[0].Zip) // ordered
	assert.Equal(t, "30302", zips[1].Zip)
}

func TestSQLiteStore_CityRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	c := model.CitySummary{
		City: "Atlanta", State: "GA",
		MedianLTV: 0.5, MedianEquityPct: 0.5, MedianEquityDollars: 150000,
		MedianLoanAgeMonths: 30, RecordCount: 100,
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.UpsertCitySummary(ctx, c))

	got, err := s.GetCity(ctx, "Atlanta", "GA")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 100, got.RecordCount)

	missing, err := s.GetCity(ctx, "Atlanta", "TX")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteStore_PulseSingleton(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	empty, err := s.GetPulse(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty)

	require.NoError(t, s.UpdatePulse(ctx, model.MarketPulse{MedianScore: 60, MedianLTV: 0.5, Markets: 3, UpdatedAt: time.Now().UTC()}))
	require.NoError(t, s.UpdatePulse(ctx, model.MarketPulse{MedianScore: 65, MedianLTV: 0.4, Markets: 4, UpdatedAt: time.Now().UTC()}))

	got, err := s.GetPulse(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 65.0, got.MedianScore)
	assert.Equal(t, 4, got.Markets)
}

func TestSQLiteStore_EmptyZipUpsertIsNoop(t *testing.T) {
	s := newTestSQLite(t)
	assert.NoError(t, s.UpsertZipSummaries(context.Background(), nil))
}
