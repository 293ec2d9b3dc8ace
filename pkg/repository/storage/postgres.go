package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/napryag/salon_bot/pkg/utils/errs"
)

// PGStorage keeps keys in a single client_storage table:
//
//	CREATE TABLE client_storage (
//	    key        text PRIMARY KEY,
//	    value      text NOT NULL,
//	    updated_at timestamptz NOT NULL DEFAULT now()
//	);
type PGStorage struct{ pool *pgxpool.Pool }

func NewPGStorage(ctx context.Context, dsn string) (*PGStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errs.New("failed to create pg pool").Wrap(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errs.New("failed to ping postgres").Wrap(err)
	}
	s := &PGStorage{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PGStorage) migrate(ctx context.Context) error {
	const q = `
		CREATE TABLE IF NOT EXISTS client_storage (
			key        text PRIMARY KEY,
			value      text NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		);
	`
	if _, err := s.pool.Exec(ctx, q); err != nil {
		return errs.New("failed to create client_storage").Wrap(err)
	}
	return nil
}

func (s *PGStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.pool.QueryRow(ctx, `SELECT value FROM client_storage WHERE key=$1`, key).Scan(&v)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, errs.New("failed to read key").Arg("key", key).Wrap(err)
	}
	return v, true, nil
}

func (s *PGStorage) Set(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO client_storage (key, value, updated_at)
		VALUES ($1,$2,now())
		ON CONFLICT (key) DO UPDATE
		   SET value=EXCLUDED.value, updated_at=now()
	`, key, value)
	if err != nil {
		return errs.New("failed to write key").Arg("key", key).Wrap(err)
	}
	return nil
}

func (s *PGStorage) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM client_storage WHERE key=$1`, key); err != nil {
		return errs.New("failed to delete key").Arg("key", key).Wrap(err)
	}
	return nil
}

func (s *PGStorage) Close() {
	s.pool.Close()
}
