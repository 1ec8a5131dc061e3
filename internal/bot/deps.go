package bot

import (
	"context"

	"github.com/google/uuid"

	"github.com/Spok95/kino-bot/internal/domain/catalog"
	"github.com/Spok95/kino-bot/internal/domain/channels"
	"github.com/Spok95/kino-bot/internal/domain/submissions"
	"github.com/Spok95/kino-bot/internal/domain/users"
)

type UserStore interface {
	EnsureExists(ctx context.Context, u users.User) error
	ListIDs(ctx context.Context) ([]int64, error)
	Count(ctx context.Context) (int64, error)
}

type CatalogStore interface {
	Insert(ctx context.Context, e catalog.Entry) error
	Exists(ctx context.Context, code string) (bool, error)
	Find(ctx context.Context, query string) (*catalog.Entry, error)
	IncrementViews(ctx context.Context, code string) error
	Top(ctx context.Context, limit int) ([]catalog.Entry, error)
	All(ctx context.Context) ([]catalog.Entry, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, code string) error
	NextSeq(ctx context.Context) (int64, error)
}

type ChannelStore interface {
	Upsert(ctx context.Context, ch channels.Channel) error
	List(ctx context.Context) ([]channels.Channel, error)
	Delete(ctx context.Context, channelID string) error
}

type SubmissionStore interface {
	Create(ctx context.Context, s submissions.Submission) error
	Decide(ctx context.Context, id uuid.UUID, status submissions.Status, reviewerID int64) (*submissions.Submission, error)
	Reopen(ctx context.Context, id uuid.UUID) error
	CountPending(ctx context.Context) (int64, error)
}

type SettingsStore interface {
	BaseChannel(ctx context.Context) (int64, bool, error)
	SetBaseChannel(ctx context.Context, id int64) error
	ClearBaseChannel(ctx context.Context) error
}
