package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const entryColumns = `code, title, kind, chat_id, message_id, parts, views, created_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	var parts []byte
	if err := row.Scan(&e.Code, &e.Title, &e.Kind, &e.Location.ChatID, &e.Location.MessageID,
		&parts, &e.Views, &e.CreatedAt); err != nil {
		return nil, err
	}
	if len(parts) > 0 {
		if err := json.Unmarshal(parts, &e.Parts); err != nil {
			return nil, fmt.Errorf("decode parts of %s: %w", e.Code, err)
		}
	}
	return &e, nil
}

// Insert returns ErrCodeTaken when the code already exists, whatever its kind.
func (r *Repo) Insert(ctx context.Context, e Entry) error {
	parts := e.Parts
	if parts == nil {
		parts = []Location{}
	}
	raw, err := json.Marshal(parts)
	if err != nil {
		return err
	}
	var code string
	err = r.pool.QueryRow(ctx, `
		INSERT INTO catalog_entries (code, title, kind, chat_id, message_id, parts, views)
		VALUES ($1,$2,$3,$4,$5,$6,0)
		ON CONFLICT (code) DO NOTHING
		RETURNING code
	`, e.Code, e.Title, string(e.Kind), e.Location.ChatID, e.Location.MessageID, raw).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrCodeTaken
	}
	return err
}

func (r *Repo) Exists(ctx context.Context, code string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM catalog_entries WHERE code = $1)`, code).Scan(&ok)
	return ok, err
}

// Find matches the exact code or a case-insensitive substring of the title.
// An exact code match wins over title matches; otherwise the oldest entry wins.
func (r *Repo) Find(ctx context.Context, query string) (*Entry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM catalog_entries
		WHERE code = $1 OR title ILIKE '%' || $2 || '%' ESCAPE '\'
		ORDER BY (code = $1) DESC, created_at
		LIMIT 1
	`, query, escapeLike(query))
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

func (r *Repo) IncrementViews(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE catalog_entries SET views = views + 1 WHERE code = $1`, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Top(ctx context.Context, limit int) ([]Entry, error) {
	return r.list(ctx, `SELECT `+entryColumns+` FROM catalog_entries ORDER BY views DESC, created_at LIMIT $1`, limit)
}

func (r *Repo) All(ctx context.Context) ([]Entry, error) {
	return r.list(ctx, `SELECT `+entryColumns+` FROM catalog_entries ORDER BY created_at`)
}

func (r *Repo) list(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *Repo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM catalog_entries`).Scan(&n)
	return n, err
}

func (r *Repo) Delete(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM catalog_entries WHERE code = $1`, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NextSeq advances the persisted single-entry counter. The counter starts
// after the current catalog size and never goes back, so deleting entries
// does not hand out old codes again.
func (r *Repo) NextSeq(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO settings (key, value)
		VALUES ('single_code_seq', ((SELECT count(*) FROM catalog_entries) + 1)::text)
		ON CONFLICT (key) DO UPDATE
		  SET value = (settings.value::bigint + 1)::text, updated_at = now()
		RETURNING value::bigint
	`).Scan(&n)
	return n, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
