package channels

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Upsert(ctx context.Context, ch Channel) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO channels (channel_id, title, link) VALUES ($1,$2,$3)
		ON CONFLICT (channel_id) DO UPDATE SET title = EXCLUDED.title, link = EXCLUDED.link
	`, ch.ChannelID, ch.Title, ch.Link)
	return err
}

func (r *Repo) List(ctx context.Context) ([]Channel, error) {
	rows, err := r.pool.Query(ctx, `SELECT channel_id, title, link FROM channels ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Channel
	for rows.Next() {
		var c Channel
		if err := rows.Scan(&c.ChannelID, &c.Title, &c.Link); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) Delete(ctx context.Context, channelID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM channels WHERE channel_id = $1`, channelID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
