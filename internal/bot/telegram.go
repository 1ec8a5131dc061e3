package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Members answers membership lookups for the access gate via getChatMember.
type Members struct {
	api API
}

func NewMembers(api API) *Members { return &Members{api: api} }

func (m *Members) MemberStatus(_ context.Context, channelID string, userID int64) (string, error) {
	cfg := tgbotapi.GetChatMemberConfig{ChatConfigWithUser: tgbotapi.ChatConfigWithUser{UserID: userID}}
	if id, err := strconv.ParseInt(channelID, 10, 64); err == nil {
		cfg.ChatID = id
	} else {
		cfg.SuperGroupUsername = channelID
	}
	member, err := m.api.GetChatMember(cfg)
	if err != nil {
		return "", err
	}
	return member.Status, nil
}

// resolveChat looks a chat up by numeric id, @handle or t.me link.
func (b *Bot) resolveChat(input string) (tgbotapi.Chat, error) {
	cfg := tgbotapi.ChatInfoConfig{}
	if id, err := strconv.ParseInt(input, 10, 64); err == nil {
		cfg.ChatID = id
	} else {
		h := strings.TrimPrefix(input, "https://")
		h = strings.TrimPrefix(h, "http://")
		h = strings.TrimPrefix(h, "t.me/")
		h = strings.TrimPrefix(h, "@")
		cfg.SuperGroupUsername = "@" + h
	}
	return b.api.GetChat(cfg)
}
