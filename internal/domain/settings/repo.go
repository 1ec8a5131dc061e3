package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const KeyBaseChannel = "base_channel"

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *Repo) Set(ctx context.Context, key, value string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO settings (key, value) VALUES ($1,$2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	return err
}

func (r *Repo) Delete(ctx context.Context, key string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM settings WHERE key = $1`, key)
	return err
}

// BaseChannel returns the mirror channel id; ok is false when mirroring is off.
func (r *Repo) BaseChannel(ctx context.Context) (id int64, ok bool, err error) {
	v, ok, err := r.Get(ctx, KeyBaseChannel)
	if err != nil || !ok {
		return 0, false, err
	}
	id, err = strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse base channel %q: %w", v, err)
	}
	return id, true, nil
}

func (r *Repo) SetBaseChannel(ctx context.Context, id int64) error {
	return r.Set(ctx, KeyBaseChannel, strconv.FormatInt(id, 10))
}

func (r *Repo) ClearBaseChannel(ctx context.Context) error {
	return r.Delete(ctx, KeyBaseChannel)
}
