package dialog

import (
	"context"
	"errors"
	"testing"

	"github.com/Spok95/kino-bot/internal/infra/db/dbtest"
)

func TestPGStoreMergesPayload(t *testing.T) {
	s := NewPGStore(dbtest.Pool(t))
	ctx := context.Background()
	key := Key{ChatID: 10, UserID: 20}

	if err := s.Update(ctx, key, Payload{"x": 1}); !errors.Is(err, ErrNoSession) {
		t.Fatalf("update without session: err = %v, want ErrNoSession", err)
	}

	if err := s.Set(ctx, key, StateSeriesTitle, Payload{"code": "S001"}); err != nil {
		t.Fatalf("set title: %v", err)
	}
	if err := s.Set(ctx, key, StateSeriesParts, Payload{"title": "Shogun"}); err != nil {
		t.Fatalf("set parts: %v", err)
	}
	if err := s.Update(ctx, key, Payload{"title": "Shogun 2024"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	sess, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sess == nil || sess.State != StateSeriesParts {
		t.Fatalf("session = %+v", sess)
	}
	if sess.Payload["code"] != "S001" || sess.Payload["title"] != "Shogun 2024" {
		t.Fatalf("payload = %v", sess.Payload)
	}

	if err := s.Clear(ctx, key); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if sess, err := s.Get(ctx, key); err != nil || sess != nil {
		t.Fatalf("after clear = %+v, %v", sess, err)
	}
}
