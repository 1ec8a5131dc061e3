package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Spok95/kino-bot/internal/dialog"
	"github.com/Spok95/kino-bot/internal/domain/catalog"
)

const topLimit = 10

func (b *Bot) menuSearch(ctx context.Context, ev *event) {
	if !b.begin(ctx, ev, dialog.StateSearch, nil) {
		return
	}
	b.replyKB(ev.chat, "🔎 Kino kodini yoki nomini yuboring:", backKeyboard())
}

// stepSearch looks the query up by exact code or title substring and
// replays the first match. The flow ends on hit and on miss.
func (b *Bot) stepSearch(ctx context.Context, ev *event) {
	if ev.text == "" {
		b.reply(ev.chat, "Kino kodini yoki nomini matn ko'rinishida yuboring.")
		return
	}

	e, err := b.catalog.Find(ctx, ev.text)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		b.metrics.Search(false)
		b.reply(ev.chat, "❌ Bunday kino topilmadi.")
	case err != nil:
		b.log.Error("catalog search failed", "query", ev.text, "err", err)
		b.reply(ev.chat, "Xatolik yuz berdi, keyinroq urinib ko'ring.")
	default:
		b.metrics.Search(true)
		if err := b.catalog.IncrementViews(ctx, e.Code); err != nil {
			b.log.Error("increment views failed", "code", e.Code, "err", err)
		}
		b.replay(ev.chat, e)
	}
	b.finish(ctx, ev)
}

// replay copies every media message of e into chatID with its original
// caption, then names the entry in a separate message.
func (b *Bot) replay(chatID int64, e *catalog.Entry) {
	for i, loc := range e.Media() {
		if err := b.copyTo(chatID, loc.ChatID, loc.MessageID, ""); err != nil {
			b.log.Error("replay failed", "code", e.Code, "part", i+1, "err", err)
		}
	}
	b.reply(chatID, entryCaption(*e))
}

func entryCaption(e catalog.Entry) string {
	return fmt.Sprintf("🎬 %s\n🔢 Kod: %s", e.Title, e.Code)
}

func (b *Bot) menuTop(ctx context.Context, ev *event) {
	list, err := b.catalog.Top(ctx, topLimit)
	if err != nil {
		b.log.Error("top entries failed", "err", err)
		b.reply(ev.chat, "Xatolik yuz berdi, keyinroq urinib ko'ring.")
		return
	}
	if len(list) == 0 {
		b.reply(ev.chat, "Hozircha kinolar yo'q.")
		return
	}
	var sb strings.Builder
	sb.WriteString("🏆 Eng ko'p ko'rilgan kinolar:\n\n")
	for i, e := range list {
		fmt.Fprintf(&sb, "%d. %s — %s (👁 %d)\n", i+1, e.Code, e.Title, e.Views)
	}
	b.reply(ev.chat, sb.String())
}

func (b *Bot) menuStats(ctx context.Context, ev *event) {
	usersN, err1 := b.users.Count(ctx)
	entriesN, err2 := b.catalog.Count(ctx)
	pendingN, err3 := b.subs.CountPending(ctx)
	if err := errors.Join(err1, err2, err3); err != nil {
		b.log.Error("stats failed", "err", err)
		b.reply(ev.chat, "Xatolik yuz berdi, keyinroq urinib ko'ring.")
		return
	}
	b.reply(ev.chat, fmt.Sprintf(
		"📊 Statistika\n\n👥 Foydalanuvchilar: %d\n🎬 Kinolar: %d\n⏳ Moderatsiyada: %d",
		usersN, entriesN, pendingN))
}
