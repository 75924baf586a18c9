package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ar-rehman786/Axis-trade-market/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS city_metrics (
	city                   TEXT NOT NULL,
	state                  TEXT NOT NULL,
	median_ltv             REAL NOT NULL,
	median_equity_pct      REAL NOT NULL,
	median_equity_dollars  REAL NOT NULL,
	median_loan_age_months INTEGER NOT NULL,
	record_count           INTEGER NOT NULL,
	updated_at             DATETIME NOT NULL,
	PRIMARY KEY (city, state)
);

CREATE TABLE IF NOT EXISTS zip_metrics (
	zip                    TEXT PRIMARY KEY,
	city                   TEXT NOT NULL,
	state                  TEXT NOT NULL,
	median_score           REAL NOT NULL,
	median_ltv             REAL NOT NULL,
	median_equity_pct      REAL NOT NULL,
	median_equity_dollars  REAL NOT NULL,
	median_loan_age_months INTEGER NOT NULL,
	record_count           INTEGER NOT NULL,
	updated_at             DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS market_pulse (
	id           INTEGER PRIMARY KEY CHECK (id = 1),
	median_score REAL NOT NULL,
	median_ltv   REAL NOT NULL,
	markets      INTEGER NOT NULL,
	updated_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_zip_metrics_city ON zip_metrics(city);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertCitySummary(ctx context.Context, c model.CitySummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO city_metrics (city, state, median_ltv, median_equity_pct, median_equity_dollars, median_loan_age_months, record_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (city, state) DO UPDATE SET
			median_ltv = excluded.median_ltv,
			median_equity_pct = excluded.median_equity_pct,
			median_equity_dollars = excluded.median_equity_dollars,
			median_loan_age_months = excluded.median_loan_age_months,
			record_count = excluded.record_count,
			updated_at = excluded.updated_at`,
		c.City, c.State, c.MedianLTV, c.MedianEquityPct, c.MedianEquityDollars,
		c.MedianLoanAgeMonths, c.RecordCount, c.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert city %s", c.City)
}

func (s *SQLiteStore) UpsertZipSummaries(ctx context.Context, zips []model.ZipSummary) error {
	if len(zips) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO zip_metrics (zip, city, state, median_score, median_ltv, median_equity_pct, median_equity_dollars, median_loan_age_months, record_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (zip) DO UPDATE SET
			city = excluded.city,
			state = excluded.state,
			median_score = excluded.median_score,
			median_ltv = excluded.median_ltv,
			median_equity_pct = excluded.median_equity_pct,
			median_equity_dollars = excluded.median_equity_dollars,
			median_loan_age_months = excluded.median_loan_age_months,
			record_count = excluded.record_count,
			updated_at = excluded.updated_at`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare zip upsert")
	}
	defer stmt.Close()

	for _, z := range zips {
		if _, err := stmt.ExecContext(ctx,
			z.Zip, z.City, z.State, z.MedianScore, z.MedianLTV, z.MedianEquityPct,
			z.MedianEquityDollars, z.MedianLoanAgeMonths, z.RecordCount, z.UpdatedAt,
		); err != nil {
			return eris.Wrapf(err, "sqlite: upsert zip %s", z.Zip)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit zip upsert")
}

func (s *SQLiteStore) UpdatePulse(ctx context.Context, p model.MarketPulse) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO market_pulse (id, median_score, median_ltv, markets, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			median_score = excluded.median_score,
			median_ltv = excluded.median_ltv,
			markets = excluded.markets,
			updated_at = excluded.updated_at`,
		p.MedianScore, p.MedianLTV, p.Markets, p.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: update pulse")
}

func (s *SQLiteStore) GetCity(ctx context.Context, city, state string) (*model.CitySummary, error) {
	var c model.CitySummary
	err := s.db.QueryRowContext(ctx, `
		SELECT city, state, median_ltv, median_equity_pct, median_equity_dollars, median_loan_age_months, record_count, updated_at
		FROM city_metrics WHERE city = ? AND state = ?`, city, state,
	).Scan(&c.City, &c.State, &c.MedianLTV, &c.MedianEquityPct, &c.MedianEquityDollars,
		&c.MedianLoanAgeMonths, &c.RecordCount, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get city %s", city)
	}
	return &c, nil
}

func (s *SQLiteStore) GetZip(ctx context.Context, zip string) (*model.ZipSummary, error) {
	var z model.ZipSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT zip, city, state, median_score, median_ltv, median_equity_pct, median_equity_dollars, median_loan_age_months, record_count, updated_at
		FROM zip_metrics WHERE zip = ?`, zip,
	).Scan(&z.Zip, &z.City, &z.State, &z.MedianScore, &z.MedianLTV, &z.MedianEquityPct,
		&z.MedianEquityDollars, &z.MedianLoanAgeMonths, &z.RecordCount, &z.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get zip %s", zip)
	}
	return &z, nil
}

func (s *SQLiteStore) ListZipsForCity(ctx context.Context, city string) ([]model.ZipSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT zip, city, state, median_score, median_ltv, median_equity_pct, median_equity_dollars, median_loan_age_months, record_count, updated_at
		FROM zip_metrics WHERE city = ? ORDER BY zip`, city)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list zips for %s", city)
	}
	defer rows.Close()

	var out []model.ZipSummary
	for rows.Next() {
		var z model.ZipSummary
		if err := rows.Scan(&z.Zip, &z.City, &z.State, &z.MedianScore, &z.MedianLTV, &z.MedianEquityPct,
			&z.MedianEquityDollars, &z.MedianLoanAgeMonths, &z.RecordCount, &z.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan zip row")
		}
		out = append(out, z)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate zip rows")
}

func (s *SQLiteStore) GetPulse(ctx context.Context) (*model.MarketPulse, error) {
	var p model.MarketPulse
	err := s.db.QueryRowContext(ctx, `
		SELECT median_score, median_ltv, markets, updated_at FROM market_pulse WHERE id = 1`,
	).Scan(&p.MedianScore, &p.MedianLTV, &p.Markets, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get pulse")
	}
	return &p, nil
}
