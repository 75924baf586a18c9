// Package store persists the city, ZIP, and pulse aggregates behind the
// market intel endpoints. SQLite is the default backend; Postgres serves
// shared deployments.
package store

import (
	"context"

	"github.com/ar-rehman786/Axis-trade-market/internal/model"
)

// Store is the persistence interface for market aggregates. Upserts
// replace any prior aggregate for the same key; readers return nil
// without error when nothing has been stored yet.
type Store interface {
	UpsertCitySummary(ctx context.Context, s model.CitySummary) error
	UpsertZipSummaries(ctx context.Context, zips []model.ZipSummary) error
	UpdatePulse(ctx context.Context, p model.MarketPulse) error

	GetCity(ctx context.Context, city, state string) (*model.CitySummary, error)
	GetZip(ctx context.Context, zip string) (*model.ZipSummary, error)
	ListZipsForCity(ctx context.Context, city string) ([]model.ZipSummary, error)
	GetPulse(ctx context.Context) (*model.MarketPulse, error)

	Migrate(ctx context.Context) error
	Close() error
}
