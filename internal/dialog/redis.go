package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisMaxRetries = 5

// RedisStore keeps each session as one JSON value with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

type redisRecord struct {
	State   State           `json:"state"`
	Payload json.RawMessage `json:"payload"`
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key Key) (*Session, error) {
	raw, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get dialog state: %w", err)
	}
	var rec redisRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode dialog state: %w", err)
	}
	if !rec.State.Valid() {
		return nil, nil
	}
	p, err := decodePayload(rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode dialog payload: %w", err)
	}
	return &Session{Key: key, State: rec.State, Payload: p}, nil
}

func (s *RedisStore) Set(ctx context.Context, key Key, state State, fields Payload) error {
	if !state.Valid() {
		return ErrInvalidState
	}
	return s.mutate(ctx, key, func(cur *redisRecord) (*redisRecord, error) {
		p := Payload{}
		if cur != nil {
			var err error
			if p, err = decodePayload(cur.Payload); err != nil {
				return nil, err
			}
		}
		raw, err := encodePayload(merge(p, fields))
		if err != nil {
			return nil, err
		}
		return &redisRecord{State: state, Payload: raw}, nil
	})
}

func (s *RedisStore) Update(ctx context.Context, key Key, fields Payload) error {
	return s.mutate(ctx, key, func(cur *redisRecord) (*redisRecord, error) {
		if cur == nil {
			return nil, ErrNoSession
		}
		p, err := decodePayload(cur.Payload)
		if err != nil {
			return nil, err
		}
		raw, err := encodePayload(merge(p, fields))
		if err != nil {
			return nil, err
		}
		return &redisRecord{State: cur.State, Payload: raw}, nil
	})
}

func (s *RedisStore) Clear(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, redisKey(key)).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

// mutate runs a read-modify-write under WATCH, retrying on concurrent writes.
func (s *RedisStore) mutate(ctx context.Context, key Key, fn func(cur *redisRecord) (*redisRecord, error)) error {
	k := redisKey(key)
	for i := 0; i < redisMaxRetries; i++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			var cur *redisRecord
			raw, err := tx.Get(ctx, k).Bytes()
			switch {
			case err == redis.Nil:
			case err != nil:
				return err
			default:
				cur = &redisRecord{}
				if err := json.Unmarshal(raw, cur); err != nil {
					return fmt.Errorf("decode dialog state: %w", err)
				}
			}

			next, err := fn(cur)
			if err != nil {
				return err
			}
			data, err := json.Marshal(next)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, k, data, s.ttl)
				return nil
			})
			return err
		}, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("dialog: too many concurrent updates for %s", k)
}

func redisKey(key Key) string {
	return fmt.Sprintf("kinobot:dialog:%d:%d", key.ChatID, key.UserID)
}
