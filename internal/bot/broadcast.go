package bot

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Spok95/kino-bot/internal/dialog"
)

// fanout delivers to every recipient with at most b.workers sends in flight.
// A failed delivery is counted as skipped and never stops the rest.
func (b *Bot) fanout(ctx context.Context, kind string, recipients []int64, deliver func(id int64) error) (sent, skipped int64) {
	var okN, failN atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for _, id := range recipients {
		id := id
		g.Go(func() error {
			if ctx.Err() != nil {
				failN.Add(1)
				return nil
			}
			if err := deliver(id); err != nil {
				b.log.Warn("fan-out delivery failed", "kind", kind, "to", id, "err", err)
				b.metrics.Delivery(kind, false)
				failN.Add(1)
				return nil
			}
			b.metrics.Delivery(kind, true)
			okN.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return okN.Load(), failN.Load()
}

// runAs runs fn in the background, serialized with the initiator's own
// updates. It outlives the handler that started it.
func (b *Bot) runAs(ctx context.Context, actor int64, fn func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)
	b.background(func() {
		unlock := b.locks.Lock(actor)
		defer unlock()
		fn(ctx)
	})
}

func (b *Bot) menuBroadcast(ctx context.Context, ev *event) {
	if !b.begin(ctx, ev, dialog.StateBroadcast, nil) {
		return
	}
	b.replyKB(ev.chat, "📢 Barcha foydalanuvchilarga yuboriladigan xabarni yuboring:", backKeyboard())
}

// stepBroadcast copies the admin's message to every known user.
func (b *Bot) stepBroadcast(ctx context.Context, ev *event) {
	src, msgID, chat := ev.msg.Chat.ID, ev.msg.MessageID, ev.chat
	b.finish(ctx, ev)
	b.reply(chat, "⏳ Xabar yuborilmoqda...")

	b.runAs(ctx, ev.actor, func(ctx context.Context) {
		ids, err := b.users.ListIDs(ctx)
		if err != nil {
			b.log.Error("list users failed", "err", err)
			b.reply(chat, "❌ Foydalanuvchilar ro'yxatini olib bo'lmadi.")
			return
		}
		sent, skipped := b.fanout(ctx, "broadcast", ids, func(id int64) error {
			return b.copyTo(id, src, msgID, "")
		})
		b.log.Info("broadcast done", "by", ev.actor, "sent", sent, "skipped", skipped)
		b.reply(chat, fmt.Sprintf("✅ Xabar %d ta foydalanuvchiga yuborildi.\n⚠️ O'tkazib yuborildi: %d", sent, skipped))
	})
}
