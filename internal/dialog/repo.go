package dialog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore keeps sessions in the dialog_states table.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore { return &PGStore{pool: pool} }

func (r *PGStore) Get(ctx context.Context, key Key) (*Session, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT state, payload FROM dialog_states WHERE chat_id = $1 AND user_id = $2`,
		key.ChatID, key.UserID)
	var state string
	var raw []byte
	if err := row.Scan(&state, &raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get dialog state: %w", err)
	}
	if !State(state).Valid() {
		// состояние из старой версии бота: считаем, что его нет
		return nil, nil
	}
	p, err := decodePayload(raw)
	if err != nil {
		return nil, fmt.Errorf("decode dialog payload: %w", err)
	}
	return &Session{Key: key, State: State(state), Payload: p}, nil
}

func (r *PGStore) Set(ctx context.Context, key Key, state State, fields Payload) error {
	if !state.Valid() {
		return ErrInvalidState
	}
	raw, err := encodePayload(fields)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO dialog_states (chat_id, user_id, state, payload, updated_at)
		VALUES ($1,$2,$3,$4,now())
		ON CONFLICT (chat_id, user_id) DO UPDATE SET
		  state=EXCLUDED.state,
		  payload=dialog_states.payload || EXCLUDED.payload,
		  updated_at=now()
	`, key.ChatID, key.UserID, string(state), raw)
	return err
}

func (r *PGStore) Update(ctx context.Context, key Key, fields Payload) error {
	raw, err := encodePayload(fields)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE dialog_states SET payload = payload || $3, updated_at = now()
		WHERE chat_id = $1 AND user_id = $2
	`, key.ChatID, key.UserID, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoSession
	}
	return nil
}

func (r *PGStore) Clear(ctx context.Context, key Key) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM dialog_states WHERE chat_id = $1 AND user_id = $2`, key.ChatID, key.UserID)
	return err
}
