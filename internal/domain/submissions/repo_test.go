package submissions_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Spok95/kino-bot/internal/domain/submissions"
	"github.com/Spok95/kino-bot/internal/infra/db/dbtest"
)

func TestRepoDecideAppliesOnce(t *testing.T) {
	r := submissions.NewRepo(dbtest.Pool(t))
	ctx := context.Background()
	s := submissions.New(100, "file", "Dune", 100, 5)
	if err := r.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := r.Decide(ctx, s.ID, submissions.StatusApproved, 2)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if got.Status != submissions.StatusApproved || got.ReviewedBy != 2 {
		t.Fatalf("decided = %+v", got)
	}

	got, err = r.Decide(ctx, s.ID, submissions.StatusRejected, 1)
	if !errors.Is(err, submissions.ErrAlreadyDecided) {
		t.Fatalf("second decide err = %v, want ErrAlreadyDecided", err)
	}
	if got.Status != submissions.StatusApproved || got.ReviewedBy != 2 {
		t.Fatalf("current row = %+v", got)
	}

	pending, err := r.CountPending(ctx)
	if err != nil || pending != 0 {
		t.Fatalf("pending = %d, %v", pending, err)
	}
}

func TestRepoReopenApproved(t *testing.T) {
	r := submissions.NewRepo(dbtest.Pool(t))
	ctx := context.Background()
	s := submissions.New(100, "file", "", 100, 6)
	if err := r.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.Reopen(ctx, s.ID); !errors.Is(err, submissions.ErrNotFound) {
		t.Fatalf("reopen pending: err = %v, want ErrNotFound", err)
	}

	if _, err := r.Decide(ctx, s.ID, submissions.StatusApproved, 2); err != nil {
		t.Fatalf("decide: %v", err)
	}
	if err := r.Reopen(ctx, s.ID); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := r.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != submissions.StatusPending || got.ReviewedBy != 0 {
		t.Fatalf("reopened = %+v", got)
	}
	if _, err := r.Decide(ctx, s.ID, submissions.StatusApproved, 1); err != nil {
		t.Fatalf("decide after reopen: %v", err)
	}
}
