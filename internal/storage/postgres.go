package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/arbitrage-pro/dashboard/pkg/types"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const createTableQuery = `
	CREATE TABLE IF NOT EXISTS opportunity_observations (
		observed_at          TIMESTAMPTZ      NOT NULL,
		opportunity_id       TEXT             NOT NULL,
		token_symbol         TEXT             NOT NULL,
		chain_from           TEXT             NOT NULL,
		chain_to             TEXT             NOT NULL,
		price_diff_usd       DOUBLE PRECISION NOT NULL,
		price_diff_percent   DOUBLE PRECISION,
		gas_cost_usd         DOUBLE PRECISION NOT NULL,
		net_profit_usd       DOUBLE PRECISION NOT NULL,
		estimated_profit_usd DOUBLE PRECISION NOT NULL,
		score                DOUBLE PRECISION NOT NULL,
		roi                  DOUBLE PRECISION,
		flagged              BOOLEAN          NOT NULL,
		flag_reasons         TEXT[]           NOT NULL,
		PRIMARY KEY (observed_at, opportunity_id)
	)
`

const insertObservationQuery = `
	INSERT INTO opportunity_observations (
		observed_at, opportunity_id, token_symbol, chain_from, chain_to,
		price_diff_usd, price_diff_percent, gas_cost_usd, net_profit_usd,
		estimated_profit_usd, score, roi, flagged, flag_reasons
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
	)
	ON CONFLICT (observed_at, opportunity_id) DO NOTHING
`

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage connects to PostgreSQL and creates the table if needed.
func NewPostgresStorage(ctx context.Context, cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	p := newPostgresStorage(db, cfg.Logger)

	err = p.Ping(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	err = p.EnsureSchema(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return p, nil
}

func newPostgresStorage(db *sql.DB, logger *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the observations table if it does not exist.
func (p *PostgresStorage) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, createTableQuery)
	if err != nil {
		return fmt.Errorf("create observations table: %w", err)
	}
	return nil
}

// StoreOpportunities inserts one row per opportunity in a single transaction.
func (p *PostgresStorage) StoreOpportunities(ctx context.Context, opps []types.Opportunity, observedAt time.Time) (err error) {
	if len(opps) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertObservationQuery)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range opps {
		o := &opps[i]
		reasons := o.FlagReasons
		if reasons == nil {
			reasons = []string{}
		}
		_, err = stmt.ExecContext(ctx,
			observedAt.UTC(),
			o.ID,
			o.TokenSymbol,
			o.ChainFrom,
			o.ChainTo,
			o.PriceDiffUSD,
			nullFloat(o.PriceDiffPercent, o.HasPriceDiffPercent),
			o.GasCostUSD,
			o.NetProfitUSD,
			o.EstimatedProfitUSD,
			o.Score,
			nullFloat(o.ROI, o.HasROI),
			o.Flagged,
			pq.Array(reasons),
		)
		if err != nil {
			return fmt.Errorf("insert opportunity %s: %w", o.ID, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	p.logger.Debug("opportunities-stored",
		zap.Int("count", len(opps)),
		zap.Time("observed-at", observedAt))

	return nil
}

// Ping checks the database connection.
func (p *PostgresStorage) Ping(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}

func nullFloat(v float64, valid bool) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: valid}
}
