package submissions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const columns = `id, submitter_id, file_id, caption, chat_id, message_id, status, created_at,
	coalesce(reviewed_by, 0), coalesce(reviewed_at, 'epoch'::timestamptz)`

func scan(row pgx.Row) (*Submission, error) {
	var s Submission
	err := row.Scan(&s.ID, &s.SubmitterID, &s.FileID, &s.Caption, &s.ChatID, &s.MessageID,
		&s.Status, &s.CreatedAt, &s.ReviewedBy, &s.ReviewedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) Create(ctx context.Context, s Submission) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO submissions (id, submitter_id, file_id, caption, chat_id, message_id, status)
		VALUES ($1,$2,$3,$4,$5,$6,'pending')
	`, s.ID, s.SubmitterID, s.FileID, s.Caption, s.ChatID, s.MessageID)
	return err
}

func (r *Repo) Get(ctx context.Context, id uuid.UUID) (*Submission, error) {
	s, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM submissions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// Decide moves a pending submission to status exactly once. When the
// submission is already decided it returns the current row and ErrAlreadyDecided.
func (r *Repo) Decide(ctx context.Context, id uuid.UUID, status Status, reviewerID int64) (*Submission, error) {
	if status != StatusApproved && status != StatusRejected {
		return nil, ErrInvalidDecision
	}
	s, err := scan(r.pool.QueryRow(ctx, `
		UPDATE submissions
		SET status = $2, reviewed_by = $3, reviewed_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+columns, id, string(status), reviewerID))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	cur, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return cur, ErrAlreadyDecided
}

// Reopen moves an approved submission back to pending so the approval can be
// retried. It returns ErrNotFound when no approved row matches id.
func (r *Repo) Reopen(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE submissions
		SET status = 'pending', reviewed_by = NULL, reviewed_at = NULL
		WHERE id = $1 AND status = 'approved'
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM submissions WHERE status = 'pending'`).Scan(&n)
	return n, err
}
