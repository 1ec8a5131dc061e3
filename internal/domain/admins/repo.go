package admins

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the secondary admin set. The primary admin is never stored here.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Exists(ctx context.Context, tgID int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM admins WHERE telegram_id = $1)`, tgID).Scan(&ok)
	return ok, err
}

// Add returns ErrExists when the id is already in the set.
func (r *Repo) Add(ctx context.Context, tgID int64) error {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO admins (telegram_id) VALUES ($1)
		ON CONFLICT (telegram_id) DO NOTHING
		RETURNING telegram_id
	`, tgID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrExists
	}
	return err
}

func (r *Repo) Remove(ctx context.Context, tgID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM admins WHERE telegram_id = $1`, tgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) List(ctx context.Context) ([]Admin, error) {
	rows, err := r.pool.Query(ctx, `SELECT telegram_id, created_at FROM admins ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Admin
	for rows.Next() {
		var a Admin
		if err := rows.Scan(&a.TelegramID, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
