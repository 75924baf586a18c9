package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/ar-rehman786/Axis-trade-market/internal/db"
	"github.com/ar-rehman786/Axis-trade-market/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_zip":   `SELECT zip, city, state, median_score, median_ltv, median_equity_pct, median_equity_dollars, median_loan_age_months, record_count, updated_at FROM zip_metrics WHERE zip = $1`,
	"get_city":  `SELECT city, state, median_ltv, median_equity_pct, median_equity_dollars, median_loan_age_months, record_count, updated_at FROM city_metrics WHERE city = $1 AND state = $2`,
	"get_pulse": `SELECT median_score, median_ltv, markets, updated_at FROM market_pulse WHERE id = 1`,
	"list_zips": `SELECT zip, city, state, median_score, median_ltv, median_equity_pct, median_equity_dollars, median_loan_age_months, record_count, updated_at FROM zip_metrics WHERE city = $1 ORDER BY zip`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS city_metrics (
	city                   TEXT NOT NULL,
	state                  TEXT NOT NULL,
	median_ltv             DOUBLE PRECISION NOT NULL,
	median_equity_pct      DOUBLE PRECISION NOT NULL,
	median_equity_dollars  DOUBLE PRECISION NOT NULL,
	median_loan_age_months INTEGER NOT NULL,
	record_count           INTEGER NOT NULL,
	updated_at             TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (city, state)
);

CREATE TABLE IF NOT EXISTS zip_metrics (
	zip                    TEXT PRIMARY KEY,
	city                   TEXT NOT NULL,
	state                  TEXT NOT NULL,
	median_score           DOUBLE PRECISION NOT NULL,
	median_ltv             DOUBLE PRECISION NOT NULL,
	median_equity_pct      DOUBLE PRECISION NOT NULL,
	median_equity_dollars  DOUBLE PRECISION NOT NULL,
	median_loan_age_months INTEGER NOT NULL,
	record_count           INTEGER NOT NULL,
	updated_at             TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS market_pulse (
	id           INTEGER PRIMARY KEY CHECK (id = 1),
	median_score DOUBLE PRECISION NOT NULL,
	median_ltv   DOUBLE PRECISION NOT NULL,
	markets      INTEGER NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_zip_metrics_city ON zip_metrics(city);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

var zipColumns = []string{
	"zip", "city", "state", "median_score", "median_ltv", "median_equity_pct",
	"median_equity_dollars", "median_loan_age_months", "record_count", "updated_at",
}

func (s *PostgresStore) UpsertCitySummary(ctx context.Context, c model.CitySummary) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO city_metrics (city, state, median_ltv, median_equity_pct, median_equity_dollars, median_loan_age_months, record_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (city, state) DO UPDATE SET
			median_ltv = EXCLUDED.median_ltv,
			median_equity_pct = EXCLUDED.median_equity_pct,
			median_equity_dollars = EXCLUDED.median_equity_dollars,
			median_loan_age_months = EXCLUDED.median_loan_age_months,
			record_count = EXCLUDED.record_count,
			updated_at = EXCLUDED.updated_at`,
		c.City, c.State, c.MedianLTV, c.MedianEquityPct, c.MedianEquityDollars,
		c.MedianLoanAgeMonths, c.RecordCount, c.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert city %s", c.City)
}

// UpsertZipSummaries bulk-upserts via COPY into a temp table; a quarterly
// drop can carry hundreds of ZIPs.
func (s *PostgresStore) UpsertZipSummaries(ctx context.Context, zips []model.ZipSummary) error {
	if len(zips) == 0 {
		return nil
	}
	rows := make([][]any, len(zips))
	for i, z := range zips {
		rows[i] = []any{
			z.Zip, z.City, z.State, z.MedianScore, z.MedianLTV, z.MedianEquityPct,
			z.MedianEquityDollars, z.MedianLoanAgeMonths, z.RecordCount, z.UpdatedAt,
		}
	}
	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "zip_metrics",
		Columns:      zipColumns,
		ConflictKeys: []string{"zip"},
	}, rows)
	return eris.Wrap(err, "postgres: upsert zip summaries")
}

func (s *PostgresStore) UpdatePulse(ctx context.Context, p model.MarketPulse) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO market_pulse (id, median_score, median_ltv, markets, updated_at)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			median_score = EXCLUDED.median_score,
			median_ltv = EXCLUDED.median_ltv,
			markets = EXCLUDED.markets,
			updated_at = EXCLUDED.updated_at`,
		p.MedianScore, p.MedianLTV, p.Markets, p.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: update pulse")
}

func (s *PostgresStore) GetCity(ctx context.Context, city, state string) (*model.CitySummary, error) {
	var c model.CitySummary
	err := s.pool.QueryRow(ctx,
		`SELECT city, state, median_ltv, median_equity_pct, median_equity_dollars, median_loan_age_months, record_count, updated_at FROM city_metrics WHERE city = $1 AND state = $2`,
		city, state,
	).Scan(&c.City, &c.State, &c.MedianLTV, &c.MedianEquityPct, &c.MedianEquityDollars,
		&c.MedianLoanAgeMonths, &c.RecordCount, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get city %s", city)
	}
	return &c, nil
}

func (s *PostgresStore) GetZip(ctx context.Context, zip string) (*model.ZipSummary, error) {
	var z model.ZipSummary
	err := s.pool.QueryRow(ctx,
		`SELECT zip, city, state, median_score, median_ltv, median_equity_pct, median_equity_dollars, median_loan_age_months, record_count, updated_at FROM zip_metrics WHERE zip = $1`,
		zip,
	).Scan(&z.Zip, &z.City, &z.State, &z.MedianScore, &z.MedianLTV, &z.MedianEquityPct,
		&z.MedianEquityDollars, &z.MedianLoanAgeMonths, &z.RecordCount, &z.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get zip %s", zip)
	}
	return &z, nil
}

func (s *PostgresStore) ListZipsForCity(ctx context.Context, city string) ([]model.ZipSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT zip, city, state, median_score, median_ltv, median_equity_pct, median_equity_dollars, median_loan_age_months, record_count, updated_at FROM zip_metrics WHERE city = $1 ORDER BY zip`,
		city)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list zips for %s", city)
	}
	defer rows.Close()

	var out []model.ZipSummary
	for rows.Next() {
		var z model.ZipSummary
		if err := rows.Scan(&z.Zip, &z.City, &z.State, &z.MedianScore, &z.MedianLTV, &z.MedianEquityPct,
			&z.MedianEquityDollars, &z.MedianLoanAgeMonths, &z.RecordCount, &z.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan zip row")
		}
		out = append(out, z)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate zip rows")
}

func (s *PostgresStore) GetPulse(ctx context.Context) (*model.MarketPulse, error) {
	var p model.MarketPulse
	err := s.pool.QueryRow(ctx,
		`SELECT median_score, median_ltv, markets, updated_at FROM market_pulse WHERE id = 1`,
	).Scan(&p.MedianScore, &p.MedianLTV, &p.Markets, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get pulse")
	}
	return &p, nil
}
