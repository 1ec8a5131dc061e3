package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/Spok95/kino-bot/internal/dialog"
	"github.com/Spok95/kino-bot/internal/domain/submissions"
	"github.com/Spok95/kino-bot/internal/domain/users"
)

func (b *Bot) menuSubmit(ctx context.Context, ev *event) {
	if !b.begin(ctx, ev, dialog.StateAwaitUserVideo, nil) {
		return
	}
	b.replyKB(ev.chat, "📤 Kinoni video ko'rinishida yuboring. Izohda nomini yozing:", backKeyboard())
}

// stepUserVideo records the submission and notifies every admin.
func (b *Bot) stepUserVideo(ctx context.Context, ev *event) {
	if !ev.isVideo() {
		b.reply(ev.chat, "Iltimos, video yuboring.")
		return
	}
	sub := submissions.New(ev.actor, ev.msg.Video.FileID, ev.msg.Caption, ev.msg.Chat.ID, ev.msg.MessageID)
	if err := b.subs.Create(ctx, sub); err != nil {
		b.log.Error("create submission failed", "user", ev.actor, "err", err)
		b.reply(ev.chat, "Xatolik yuz berdi, keyinroq urinib ko'ring.")
		return
	}
	b.reply(ev.chat, "✅ Kino moderatsiyaga yuborildi. Rahmat!")
	b.finish(ctx, ev)

	card := moderationCard(sub, submitterOf(ev.from))
	b.runAs(ctx, ev.actor, func(ctx context.Context) {
		admins, err := b.roles.Recipients(ctx)
		if err != nil {
			b.log.Error("list moderators failed", "err", err)
		}
		b.fanout(ctx, "moderation", admins, func(id int64) error {
			if _, err := b.api.Send(tgbotapi.NewForward(id, sub.ChatID, sub.MessageID)); err != nil {
				return err
			}
			m := tgbotapi.NewMessage(id, card)
			m.ReplyMarkup = moderationKeyboard(sub.ID.String())
			_, err := b.api.Send(m)
			return err
		})
	})
}

func submitterOf(u *tgbotapi.User) users.User {
	return users.User{TelegramID: u.ID, Username: u.UserName, FirstName: u.FirstName, LastName: u.LastName}
}

func moderationCard(s submissions.Submission, from users.User) string {
	caption := s.Caption
	if caption == "" {
		caption = "—"
	}
	return fmt.Sprintf("📥 Yangi kino taklifi\n\n👤 %s (ID: %d)\n📝 %s", from.DisplayName(), from.TelegramID, caption)
}

func (b *Bot) cbApproveSubmission(ctx context.Context, ev *event, arg string) {
	b.decide(ctx, ev, arg, submissions.StatusApproved)
}

func (b *Bot) cbRejectSubmission(ctx context.Context, ev *event, arg string) {
	b.decide(ctx, ev, arg, submissions.StatusRejected)
}

// decide applies one terminal transition. Repeating the same decision is a
// silent no-op, the opposite one gets an "already processed" alert.
func (b *Bot) decide(ctx context.Context, ev *event, arg string, status submissions.Status) {
	id, err := uuid.Parse(arg)
	if err != nil {
		_ = b.answerCallback(ev.cb, "Noto'g'ri so'rov.", true)
		return
	}

	sub, err := b.subs.Decide(ctx, id, status, ev.actor)
	outcome, err := submissions.Classify(status, sub, err)
	switch {
	case errors.Is(err, submissions.ErrNotFound):
		_ = b.answerCallback(ev.cb, "Taklif topilmadi.", true)
		return
	case err != nil:
		b.log.Error("decide submission failed", "id", id, "err", err)
		_ = b.answerCallback(ev.cb, "Xatolik yuz berdi.", true)
		return
	case outcome == submissions.Repeated:
		_ = b.answerCallback(ev.cb, "", false)
		return
	case outcome == submissions.Conflict:
		_ = b.answerCallback(ev.cb, "⚠️ Bu taklif allaqachon ko'rib chiqilgan.", true)
		return
	}

	var verdict string
	if status == submissions.StatusApproved {
		e, err := b.addSingle(ctx, sub.ChatID, sub.MessageID, sub.Caption)
		if err != nil {
			b.log.Error("store approved submission failed", "id", id, "err", err)
			// back to pending so the next Approve press retries the insert
			if rerr := b.subs.Reopen(ctx, id); rerr != nil {
				b.log.Error("reopen submission failed", "id", id, "err", rerr)
			}
			_ = b.answerCallback(ev.cb, "Kinoni saqlab bo'lmadi, qayta urinib ko'ring.", true)
			return
		}
		verdict = "✅ Tasdiqlandi. Kod: " + e.Code
		b.reply(sub.SubmitterID, fmt.Sprintf("🎉 Siz yuborgan kino tasdiqlandi!\n🔢 Kod: %s", e.Code))
	} else {
		verdict = "❌ Rad etildi"
		b.reply(sub.SubmitterID, "😔 Siz yuborgan kino rad etildi.")
	}

	_ = b.answerCallback(ev.cb, verdict, false)
	if ev.cb.Message != nil {
		b.editTextAndClear(ev.chat, ev.cb.Message.MessageID, ev.cb.Message.Text+"\n\n"+verdict)
	}
}

/*** CONTACT ADMIN ***/

func (b *Bot) menuContact(ctx context.Context, ev *event) {
	if !b.begin(ctx, ev, dialog.StateContactAdmin, nil) {
		return
	}
	b.replyKB(ev.chat, "✍️ Adminga xabaringizni yozing:", backKeyboard())
}

func (b *Bot) stepContactAdmin(ctx context.Context, ev *event) {
	if ev.text == "" {
		b.reply(ev.chat, "Xabarni matn ko'rinishida yozing.")
		return
	}
	from := submitterOf(ev.from)
	text := fmt.Sprintf("📩 Yangi xabar\n\n👤 %s (ID: %d)\n\n%s", from.DisplayName(), from.TelegramID, ev.text)
	if _, err := b.api.Send(tgbotapi.NewMessage(b.roles.PrimaryID(), text)); err != nil {
		b.log.Error("contact admin failed", "user", ev.actor, "err", err)
		b.reply(ev.chat, "❌ Xabarni yuborib bo'lmadi.")
	} else {
		b.reply(ev.chat, "✅ Xabaringiz adminga yuborildi.")
	}
	b.finish(ctx, ev)
}
