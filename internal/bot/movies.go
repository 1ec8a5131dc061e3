package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Spok95/kino-bot/internal/dialog"
	"github.com/Spok95/kino-bot/internal/domain/catalog"
)

// codeAttempts bounds how many sequence numbers addSingle skips when a code
// is already taken by a series with a numeric code.
const codeAttempts = 5

func (b *Bot) menuAddMovie(ctx context.Context, ev *event) {
	if !b.begin(ctx, ev, dialog.StateAwaitMovie, nil) {
		return
	}
	b.replyKB(ev.chat, "🎬 Kinoni video ko'rinishida yuboring (izoh nom sifatida olinadi):", backKeyboard())
}

func (b *Bot) stepAwaitMovie(ctx context.Context, ev *event) {
	if !ev.isVideo() {
		b.reply(ev.chat, "Iltimos, video yuboring.")
		return
	}
	b.addFromMessage(ctx, ev)
	b.finish(ctx, ev)
}

// handleQuickAdd stores an admin's video sent outside any flow.
func (b *Bot) handleQuickAdd(ctx context.Context, ev *event) {
	b.addFromMessage(ctx, ev)
}

func (b *Bot) addFromMessage(ctx context.Context, ev *event) {
	e, err := b.addSingle(ctx, ev.msg.Chat.ID, ev.msg.MessageID, ev.msg.Caption)
	if err != nil {
		b.log.Error("add single failed", "user", ev.actor, "err", err)
		b.reply(ev.chat, "❌ Kinoni saqlab bo'lmadi.")
		return
	}
	b.reply(ev.chat, fmt.Sprintf("✅ Kino saqlandi!\n🎬 %s\n🔢 Kod: %s", e.Title, e.Code))
}

// addSingle stores a single entry under the next free sequence code and
// mirrors it to the base channel.
func (b *Bot) addSingle(ctx context.Context, chatID int64, messageID int, caption string) (*catalog.Entry, error) {
	for i := 0; i < codeAttempts; i++ {
		seq, err := b.catalog.NextSeq(ctx)
		if err != nil {
			return nil, fmt.Errorf("next code: %w", err)
		}
		code := catalog.FormatCode(seq)
		title := caption
		if title == "" {
			title = "Kino #" + code
		}
		e := catalog.Entry{
			Code:     code,
			Title:    title,
			Kind:     catalog.KindSingle,
			Location: catalog.Location{ChatID: chatID, MessageID: messageID},
		}
		err = b.catalog.Insert(ctx, e)
		if errors.Is(err, catalog.ErrCodeTaken) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("insert %s: %w", code, err)
		}
		b.mirror(ctx, e)
		return &e, nil
	}
	return nil, catalog.ErrCodeTaken
}

// mirror copies the last media message of e to the base channel, if one is set.
func (b *Bot) mirror(ctx context.Context, e catalog.Entry) {
	baseID, ok, err := b.settings.BaseChannel(ctx)
	if err != nil {
		b.log.Error("read base channel failed", "err", err)
		return
	}
	if !ok {
		return
	}
	last, ok := e.Last()
	if !ok {
		return
	}
	if err := b.copyTo(baseID, last.ChatID, last.MessageID, entryCaption(e)); err != nil {
		b.log.Error("mirror failed", "code", e.Code, "base", baseID, "err", err)
	}
}

/*** ENTRY REMOVAL ***/

func (b *Bot) menuRemoveEntry(ctx context.Context, ev *event) {
	if !b.begin(ctx, ev, dialog.StateEntryRemove, nil) {
		return
	}
	b.replyKB(ev.chat, "O'chiriladigan kino kodini yuboring:", backKeyboard())
}

func (b *Bot) stepEntryRemove(ctx context.Context, ev *event) {
	if ev.text == "" {
		b.reply(ev.chat, "Kodni matn ko'rinishida yuboring.")
		return
	}
	err := b.catalog.Delete(ctx, ev.text)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		b.reply(ev.chat, "❌ Bunday kodli kino topilmadi.")
		return
	case err != nil:
		b.log.Error("delete entry failed", "code", ev.text, "err", err)
		b.reply(ev.chat, "Xatolik yuz berdi, keyinroq urinib ko'ring.")
		return
	}
	b.reply(ev.chat, "✅ Kino o'chirildi: "+ev.text)
	b.finish(ctx, ev)
}

/*** BASE CHANNEL ***/

func (b *Bot) menuBaseChannel(ctx context.Context, ev *event) {
	current := "o'rnatilmagan"
	if id, ok, err := b.settings.BaseChannel(ctx); err != nil {
		b.log.Error("read base channel failed", "err", err)
	} else if ok {
		current = strconv.FormatInt(id, 10)
	}
	if !b.begin(ctx, ev, dialog.StateBaseChannel, nil) {
		return
	}
	b.replyKB(ev.chat,
		"🗄 Joriy baza kanal: "+current+"\n\nYangi kanal ID yoki @username yuboring:",
		baseChannelKeyboard())
}

func (b *Bot) stepBaseChannel(ctx context.Context, ev *event) {
	if ev.text == btnBaseOff {
		if err := b.settings.ClearBaseChannel(ctx); err != nil {
			b.log.Error("clear base channel failed", "err", err)
			b.reply(ev.chat, "Xatolik yuz berdi, keyinroq urinib ko'ring.")
			return
		}
		b.reply(ev.chat, "✅ Baza kanal o'chirildi.")
		b.finish(ctx, ev)
		return
	}
	if ev.text == "" {
		b.reply(ev.chat, "Kanal ID yoki @username yuboring.")
		return
	}
	chat, err := b.resolveChat(ev.text)
	if err != nil {
		b.log.Warn("resolve base channel failed", "input", ev.text, "err", err)
		b.reply(ev.chat, "❌ Kanal topilmadi. Bot kanalga admin qilinganini tekshiring.")
		return
	}
	if err := b.settings.SetBaseChannel(ctx, chat.ID); err != nil {
		b.log.Error("set base channel failed", "err", err)
		b.reply(ev.chat, "Xatolik yuz berdi, keyinroq urinib ko'ring.")
		return
	}
	b.reply(ev.chat, fmt.Sprintf("✅ Baza kanal o'rnatildi: %s (%d)", chat.Title, chat.ID))
	b.finish(ctx, ev)
}
