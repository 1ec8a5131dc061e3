package access

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Spok95/kino-bot/internal/domain/channels"
)

// Membership statuses as reported by Telegram getChatMember.
const (
	StatusLeft   = "left"
	StatusKicked = "kicked"
)

// ChannelLister lists the configured mandatory channels.
type ChannelLister interface {
	List(ctx context.Context) ([]channels.Channel, error)
}

// MembershipChecker returns the member status of userID in channelID.
type MembershipChecker interface {
	MemberStatus(ctx context.Context, channelID string, userID int64) (string, error)
}

// Result of a subscription check. Channels is the full configured list, used
// to render the join prompt; it is empty when the set is empty.
type Result struct {
	Subscribed bool
	Channels   []channels.Channel
	FailedOn   string
}

type Gate struct {
	channels ChannelLister
	members  MembershipChecker
	log      *slog.Logger
}

func NewGate(ch ChannelLister, members MembershipChecker, log *slog.Logger) *Gate {
	return &Gate{channels: ch, members: members, log: log}
}

// Check requires membership in every configured channel and stops at the
// first channel that fails. Lookup errors count as not subscribed.
func (g *Gate) Check(ctx context.Context, userID int64) (Result, error) {
	list, err := g.channels.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list channels: %w", err)
	}
	res := Result{Subscribed: true, Channels: list}
	for _, ch := range list {
		status, err := g.members.MemberStatus(ctx, ch.ChannelID, userID)
		if err != nil {
			g.log.Warn("membership lookup failed", "channel", ch.ChannelID, "user", userID, "err", err)
			res.Subscribed = false
			res.FailedOn = ch.ChannelID
			return res, nil
		}
		if status == StatusLeft || status == StatusKicked {
			res.Subscribed = false
			res.FailedOn = ch.ChannelID
			return res, nil
		}
	}
	return res, nil
}
