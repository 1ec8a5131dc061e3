package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Spok95/kino-bot/internal/dialog"
	"github.com/Spok95/kino-bot/internal/domain/channels"
)

func (b *Bot) menuChannels(ctx context.Context, ev *event) {
	b.clearState(ctx, ev)
	b.replyKB(ev.chat, "🔍 Majburiy kanallar:", channelKeyboard())
}

func (b *Bot) menuChannelAdd(ctx context.Context, ev *event) {
	if !b.begin(ctx, ev, dialog.StateChannelAdd, nil) {
		return
	}
	b.replyKB(ev.chat,
		"Kanal ID, @username yoki havolasini yuboring.\nBot kanalda admin bo'lishi kerak.",
		backKeyboard())
}

// stepChannelAdd resolves the input to a chat and stores it under its
// numeric id, whatever form the admin typed.
func (b *Bot) stepChannelAdd(ctx context.Context, ev *event) {
	if ev.text == "" {
		b.reply(ev.chat, "Kanal ID yoki @username yuboring.")
		return
	}
	chat, err := b.resolveChat(ev.text)
	if err != nil {
		b.log.Warn("resolve channel failed", "input", ev.text, "err", err)
		b.reply(ev.chat, "❌ Kanal topilmadi. Bot kanalga admin qilinganini tekshiring.")
		return
	}
	title := chat.Title
	if title == "" {
		title = ev.text
	}
	ch := channels.Channel{
		ChannelID: strconv.FormatInt(chat.ID, 10),
		Title:     title,
		Link:      channels.JoinLink(chat.UserName, ev.text),
	}
	if err := b.channels.Upsert(ctx, ch); err != nil {
		b.log.Error("upsert channel failed", "channel", ch.ChannelID, "err", err)
		b.reply(ev.chat, "Xatolik yuz berdi, keyinroq urinib ko'ring.")
		return
	}
	b.clearState(ctx, ev)
	b.replyKB(ev.chat, "✅ Kanal qo'shildi: "+ch.Title+" ("+ch.ChannelID+")", channelKeyboard())
}

func (b *Bot) menuChannelRemove(ctx context.Context, ev *event) {
	list, ok := b.listChannels(ctx, ev)
	if !ok {
		return
	}
	b.replyKB(ev.chat, "O'chiriladigan kanalni tanlang:", channelRemoveKeyboard(list))
}

func (b *Bot) menuChannelList(ctx context.Context, ev *event) {
	list, ok := b.listChannels(ctx, ev)
	if !ok {
		return
	}
	var sb strings.Builder
	sb.WriteString("📋 Majburiy kanallar:\n\n")
	for i, ch := range list {
		sb.WriteString(strconv.Itoa(i+1) + ". " + ch.Title + "\n   ID: " + ch.ChannelID + "\n   " + ch.Link + "\n")
	}
	b.reply(ev.chat, sb.String())
}

func (b *Bot) listChannels(ctx context.Context, ev *event) ([]channels.Channel, bool) {
	list, err := b.channels.List(ctx)
	if err != nil {
		b.log.Error("list channels failed", "err", err)
		b.reply(ev.chat, "Xatolik yuz berdi, keyinroq urinib ko'ring.")
		return nil, false
	}
	if len(list) == 0 {
		b.reply(ev.chat, "Majburiy kanallar yo'q.")
		return nil, false
	}
	return list, true
}

func (b *Bot) cbRemoveChannel(ctx context.Context, ev *event, channelID string) {
	err := b.channels.Delete(ctx, channelID)
	switch {
	case errors.Is(err, channels.ErrNotFound):
		_ = b.answerCallback(ev.cb, "Kanal topilmadi.", true)
	case err != nil:
		b.log.Error("delete channel failed", "channel", channelID, "err", err)
		_ = b.answerCallback(ev.cb, "Xatolik yuz berdi.", true)
	default:
		_ = b.answerCallback(ev.cb, "✅ O'chirildi", false)
		if ev.cb.Message != nil {
			b.editTextAndClear(ev.chat, ev.cb.Message.MessageID, "✅ Kanal o'chirildi: "+channelID)
		}
	}
}
