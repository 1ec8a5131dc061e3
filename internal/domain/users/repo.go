package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) GetByTelegramID(ctx context.Context, tgID int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT telegram_id, username, first_name, last_name, created_at
		FROM users WHERE telegram_id = $1
	`, tgID)

	var u User
	if err := row.Scan(&u.TelegramID, &u.Username, &u.FirstName, &u.LastName, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// EnsureExists создаёт пользователя при первом контакте; существующую запись не трогаем.
func (r *Repo) EnsureExists(ctx context.Context, u User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (telegram_id, username, first_name, last_name)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (telegram_id) DO NOTHING
	`, u.TelegramID, u.Username, u.FirstName, u.LastName)
	return err
}

func (r *Repo) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT telegram_id FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (r *Repo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n)
	return n, err
}
