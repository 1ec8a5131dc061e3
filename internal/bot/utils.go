package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/kino-bot/internal/dialog"
)

/*** HELPERS ***/

func (b *Bot) answerCallback(cb *tgbotapi.CallbackQuery, text string, alert bool) error {
	resp := tgbotapi.NewCallback(cb.ID, text)
	resp.ShowAlert = alert
	_, err := b.api.Request(resp)
	return err
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send failed", "err", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) replyKB(chatID int64, text string, kb any) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ReplyMarkup = kb
	b.send(m)
}

func (b *Bot) editTextAndClear(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		chatID, messageID, text,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
	)
	b.send(edit)
}

// copyTo copies a stored message into dest. An empty caption keeps the original.
func (b *Bot) copyTo(dest, fromChat int64, messageID int, caption string) error {
	c := tgbotapi.NewCopyMessage(dest, fromChat, messageID)
	if caption != "" {
		c.Caption = caption
	}
	_, err := b.api.CopyMessage(c)
	return err
}

/*** SESSION ***/

// begin resets the actor's session and enters state with fresh fields.
func (b *Bot) begin(ctx context.Context, ev *event, st dialog.State, fields dialog.Payload) bool {
	if err := b.states.Clear(ctx, ev.key); err != nil {
		b.log.Error("clear session failed", "user", ev.actor, "err", err)
	}
	return b.setState(ctx, ev, st, fields)
}

func (b *Bot) setState(ctx context.Context, ev *event, st dialog.State, fields dialog.Payload) bool {
	if err := b.states.Set(ctx, ev.key, st, fields); err != nil {
		b.log.Error("set session failed", "user", ev.actor, "state", st, "err", err)
		b.reply(ev.chat, "Xatolik yuz berdi, keyinroq urinib ko'ring.")
		return false
	}
	return true
}

func (b *Bot) clearState(ctx context.Context, ev *event) {
	if err := b.states.Clear(ctx, ev.key); err != nil {
		b.log.Error("clear session failed", "user", ev.actor, "err", err)
	}
	ev.session = nil
}

// finish ends the current flow and shows the home menu for the actor's role.
func (b *Bot) finish(ctx context.Context, ev *event) {
	b.clearState(ctx, ev)
	b.home(ev)
}

func (b *Bot) home(ev *event) {
	if ev.role.IsAdmin() {
		b.replyKB(ev.chat, "Admin panel:", adminKeyboard())
		return
	}
	b.replyKB(ev.chat, "Asosiy menyu:", userKeyboard(false))
}
