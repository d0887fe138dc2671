package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"v3kit/internal/model"
)

// Schema creates the tables the store writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS pool_snapshots (
	chain_id       BIGINT      NOT NULL,
	pool_address   TEXT        NOT NULL,
	block_number   BIGINT      NOT NULL,
	token0         TEXT        NOT NULL,
	token1         TEXT        NOT NULL,
	fee            INTEGER     NOT NULL,
	tick_spacing   INTEGER     NOT NULL,
	sqrt_price_x96 NUMERIC(78) NOT NULL,
	tick           INTEGER     NOT NULL,
	liquidity      NUMERIC(78) NOT NULL,
	tick_window    JSONB,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, pool_address, block_number)
);

CREATE TABLE IF NOT EXISTS swap_replays (
	chain_id         BIGINT  NOT NULL,
	pool_address     TEXT    NOT NULL,
	block_number     BIGINT  NOT NULL,
	tx_hash          TEXT    NOT NULL,
	log_index        INTEGER NOT NULL,
	block_ts         BIGINT,
	trade_type       TEXT    NOT NULL,
	amount_specified TEXT    NOT NULL,
	chain_amount     TEXT    NOT NULL,
	sim_amount       TEXT,
	chain_sqrt_price TEXT    NOT NULL,
	sim_sqrt_price   TEXT,
	chain_tick       INTEGER NOT NULL,
	sim_tick         INTEGER NOT NULL,
	matched          BOOLEAN NOT NULL,
	skipped          BOOLEAN NOT NULL,
	error            TEXT,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, tx_hash, log_index)
);

CREATE TABLE IF NOT EXISTS replay_cursors (
	name                 TEXT        PRIMARY KEY,
	last_processed_block BIGINT      NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for snapshots, replay results and cursors.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutSnapshots inserts or updates pool snapshots keyed by pool and block.
func (s *Store) PutSnapshots(ctx context.Context, snapshots []model.PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		window, err := tickWindowJSON(snap.TickWindow)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO pool_snapshots (
				chain_id, pool_address, block_number, token0, token1, fee, tick_spacing,
				sqrt_price_x96, tick, liquidity, tick_window, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10::numeric, $11, now(), now())
			ON CONFLICT (chain_id, pool_address, block_number)
			DO UPDATE SET
				sqrt_price_x96 = EXCLUDED.sqrt_price_x96,
				tick = EXCLUDED.tick,
				liquidity = EXCLUDED.liquidity,
				tick_window = COALESCE(EXCLUDED.tick_window, pool_snapshots.tick_window),
				updated_at = now()
		`,
			int64(snap.ChainID),
			snap.Address,
			int64(snap.BlockNumber),
			snap.Token0.Address,
			snap.Token1.Address,
			int64(snap.Fee),
			snap.TickSpacing,
			snap.SqrtPriceX96,
			snap.Tick,
			snap.Liquidity,
			window,
		)
	}
	return s.sendBatch(ctx, batch, len(snapshots))
}

// PutReplayResults inserts or updates replay results keyed by log.
func (s *Store) PutReplayResults(ctx context.Context, results []model.ReplayResult) error {
	if len(results) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range results {
		batch.Queue(`
			INSERT INTO swap_replays (
				chain_id, pool_address, block_number, tx_hash, log_index, block_ts, trade_type,
				amount_specified, chain_amount, sim_amount, chain_sqrt_price, sim_sqrt_price,
				chain_tick, sim_tick, matched, skipped, error, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,now())
			ON CONFLICT (chain_id, tx_hash, log_index)
			DO UPDATE SET
				trade_type = EXCLUDED.trade_type,
				sim_amount = EXCLUDED.sim_amount,
				sim_sqrt_price = EXCLUDED.sim_sqrt_price,
				sim_tick = EXCLUDED.sim_tick,
				matched = EXCLUDED.matched,
				skipped = EXCLUDED.skipped,
				error = EXCLUDED.error,
				updated_at = now()
		`,
			int64(r.ChainID),
			r.Pool,
			int64(r.BlockNumber),
			r.TxHash,
			int64(r.LogIndex),
			nullableInt(r.Timestamp),
			r.TradeType,
			r.AmountSpecified,
			r.ChainAmount,
			nullableText(r.SimAmount),
			r.ChainSqrtPrice,
			nullableText(r.SimSqrtPrice),
			r.ChainTick,
			r.SimTick,
			r.Match,
			r.Skipped,
			nullableText(r.Error),
		)
	}
	return s.sendBatch(ctx, batch, len(results))
}

// LoadCursor returns the last processed block for a replay name.
func (s *Store) LoadCursor(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("cursor name required")
	}
	var block int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_block FROM replay_cursors WHERE name=$1`, name)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(block), true, nil
}

// SaveCursor upserts the last processed block for a replay name.
func (s *Store) SaveCursor(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("cursor name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO replay_cursors (name, last_processed_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_block = EXCLUDED.last_processed_block, updated_at = now()
	`, name, int64(block))
	return err
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, n int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func tickWindowJSON(window *model.TickWindow) ([]byte, error) {
	if window == nil {
		return nil, nil
	}
	data, err := json.Marshal(window)
	if err != nil {
		return nil, fmt.Errorf("marshal tick window: %w", err)
	}
	return data, nil
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableInt(v uint64) *int64 {
	if v == 0 {
		return nil
	}
	n := int64(v)
	return &n
}
