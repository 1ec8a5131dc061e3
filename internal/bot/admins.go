package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Spok95/kino-bot/internal/dialog"
	"github.com/Spok95/kino-bot/internal/domain/admins"
)

func (b *Bot) menuAddAdmin(ctx context.Context, ev *event) {
	if !b.begin(ctx, ev, dialog.StateAdminAdd, nil) {
		return
	}
	b.replyKB(ev.chat, "👑 Yangi admin Telegram ID raqamini yuboring:", backKeyboard())
}

func (b *Bot) stepAdminAdd(ctx context.Context, ev *event) {
	id, ok := b.parseAdminID(ev)
	if !ok {
		return
	}
	err := b.roles.Grant(ctx, id)
	switch {
	case errors.Is(err, admins.ErrPrimary):
		b.reply(ev.chat, "Bu foydalanuvchi asosiy admin.")
	case errors.Is(err, admins.ErrExists):
		b.reply(ev.chat, "Bu foydalanuvchi allaqachon admin.")
	case err != nil:
		b.log.Error("grant admin failed", "target", id, "err", err)
		b.reply(ev.chat, "Xatolik yuz berdi, keyinroq urinib ko'ring.")
		return
	default:
		b.log.Info("admin granted", "by", ev.actor, "target", id)
		b.reply(ev.chat, fmt.Sprintf("✅ %d admin qilib tayinlandi.", id))
		b.reply(id, "👑 Siz botda admin qilib tayinlandingiz. /start bosing.")
	}
	b.finish(ctx, ev)
}

func (b *Bot) menuRemoveAdmin(ctx context.Context, ev *event) {
	if !b.begin(ctx, ev, dialog.StateAdminRemove, nil) {
		return
	}
	b.replyKB(ev.chat, "🗑 O'chiriladigan admin Telegram ID raqamini yuboring:", backKeyboard())
}

func (b *Bot) stepAdminRemove(ctx context.Context, ev *event) {
	id, ok := b.parseAdminID(ev)
	if !ok {
		return
	}
	err := b.roles.Revoke(ctx, id)
	switch {
	case errors.Is(err, admins.ErrPrimary):
		b.reply(ev.chat, "❌ Asosiy adminni o'chirib bo'lmaydi.")
	case errors.Is(err, admins.ErrNotFound):
		b.reply(ev.chat, "❌ Bunday admin topilmadi.")
	case err != nil:
		b.log.Error("revoke admin failed", "target", id, "err", err)
		b.reply(ev.chat, "Xatolik yuz berdi, keyinroq urinib ko'ring.")
		return
	default:
		b.log.Info("admin revoked", "by", ev.actor, "target", id)
		b.reply(ev.chat, fmt.Sprintf("✅ %d adminlikdan olindi.", id))
	}
	b.finish(ctx, ev)
}

// parseAdminID re-prompts on anything that is not a positive numeric id.
func (b *Bot) parseAdminID(ev *event) (int64, bool) {
	id, err := strconv.ParseInt(ev.text, 10, 64)
	if err != nil || id <= 0 {
		b.reply(ev.chat, "❌ ID faqat raqamlardan iborat bo'lishi kerak. Qayta yuboring:")
		return 0, false
	}
	return id, true
}

func (b *Bot) menuListAdmins(ctx context.Context, ev *event) {
	list, err := b.roles.Secondary(ctx)
	if err != nil {
		b.log.Error("list admins failed", "err", err)
		b.reply(ev.chat, "Xatolik yuz berdi, keyinroq urinib ko'ring.")
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "👑 Asosiy admin: %d\n", b.roles.PrimaryID())
	if len(list) == 0 {
		sb.WriteString("\nQo'shimcha adminlar yo'q.")
	} else {
		sb.WriteString("\nAdminlar:\n")
		for _, a := range list {
			fmt.Fprintf(&sb, "• %d\n", a.TelegramID)
		}
	}
	b.reply(ev.chat, sb.String())
}
