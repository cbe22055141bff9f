package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liquidityDesk/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS activity (
	chain_id      BIGINT      NOT NULL,
	tx_hash       TEXT        NOT NULL,
	kind          TEXT        NOT NULL,
	label         TEXT        NOT NULL DEFAULT '',
	to_address    TEXT        NOT NULL DEFAULT '',
	status        TEXT        NOT NULL,
	block_number  BIGINT      NOT NULL DEFAULT 0,
	gas_used      BIGINT      NOT NULL DEFAULT 0,
	explorer_url  TEXT        NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, tx_hash)
)`

// Store provides Postgres persistence for the activity journal.
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

// Migrate creates the activity table when it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// PutActivity inserts or updates activity records. Status, block and gas follow the newest write.
func (s *Store) PutActivity(ctx context.Context, records []model.ActivityRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO activity (
				chain_id, tx_hash, kind, label, to_address, status, block_number, gas_used, explorer_url, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
			ON CONFLICT (chain_id, tx_hash)
			DO UPDATE SET
				status = EXCLUDED.status,
				block_number = GREATEST(activity.block_number, EXCLUDED.block_number),
				gas_used = GREATEST(activity.gas_used, EXCLUDED.gas_used),
				explorer_url = COALESCE(NULLIF(EXCLUDED.explorer_url, ''), activity.explorer_url),
				updated_at = now()
		`,
			int64(r.ChainID),
			r.TxHash,
			string(r.Kind),
			r.Label,
			r.To,
			string(r.Status),
			int64(r.BlockNumber),
			int64(r.GasUsed),
			r.ExplorerURL,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadActivity returns the newest records for chainID. A limit of zero returns everything.
func (s *Store) LoadActivity(ctx context.Context, chainID uint64, limit int) ([]model.ActivityRecord, error) {
	query := `
		SELECT chain_id, tx_hash, kind, label, to_address, status, block_number, gas_used, explorer_url,
			to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS"Z"'),
			to_char(updated_at AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS"Z"')
		FROM activity WHERE chain_id = $1
		ORDER BY created_at DESC`
	args := []interface{}{int64(chainID)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ActivityRecord
	for rows.Next() {
		var (
			r                 model.ActivityRecord
			chain, block, gas int64
			kind, status      string
		)
		if err := rows.Scan(&chain, &r.TxHash, &kind, &r.Label, &r.To, &status, &block, &gas, &r.ExplorerURL, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.ChainID = uint64(chain)
		r.Kind = model.ActivityKind(kind)
		r.Status = model.ActivityStatus(status)
		r.BlockNumber = uint64(block)
		r.GasUsed = uint64(gas)
		out = append(out, r)
	}
	return out, rows.Err()
}
