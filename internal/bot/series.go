package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/Spok95/kino-bot/internal/dialog"
	"github.com/Spok95/kino-bot/internal/domain/catalog"
)

// series payload fields
const (
	fCode   = "code"
	fTitle  = "title"
	fParts  = "parts"
	fResume = "resume"
)

func (b *Bot) menuAddSeries(ctx context.Context, ev *event) {
	if !b.begin(ctx, ev, dialog.StateSeriesCode, nil) {
		return
	}
	b.replyKB(ev.chat, "📺 Serial kodini kiriting:", backKeyboard())
}

// stepSeriesCode accepts a free-form code that is not used yet. After a
// conflict at completion the flow resumes here and jumps back to parts.
func (b *Bot) stepSeriesCode(ctx context.Context, ev *event) {
	if ev.text == "" {
		b.reply(ev.chat, "Kodni matn ko'rinishida yuboring.")
		return
	}
	taken, err := b.catalog.Exists(ctx, ev.text)
	if err != nil {
		b.log.Error("check code failed", "code", ev.text, "err", err)
		b.reply(ev.chat, "Xatolik yuz berdi, keyinroq urinib ko'ring.")
		return
	}
	if taken {
		b.reply(ev.chat, "❌ Bu kod band. Boshqa kod kiriting:")
		return
	}

	var resume bool
	_ = dialog.Decode(ev.session.Payload, fResume, &resume)
	if resume {
		if !b.setState(ctx, ev, dialog.StateSeriesParts, dialog.Payload{fCode: ev.text, fResume: false}) {
			return
		}
		parts := seriesParts(ev.session.Payload)
		b.replyKB(ev.chat,
			fmt.Sprintf("✅ Yangi kod: %s. Qismlar soni: %d. Davom eting yoki yakunlang.", ev.text, len(parts)),
			seriesPartsKeyboard())
		return
	}

	if !b.setState(ctx, ev, dialog.StateSeriesTitle, dialog.Payload{fCode: ev.text}) {
		return
	}
	b.reply(ev.chat, "📝 Serial nomini kiriting:")
}

func (b *Bot) stepSeriesTitle(ctx context.Context, ev *event) {
	if ev.text == "" {
		b.reply(ev.chat, "Nomni matn ko'rinishida yuboring.")
		return
	}
	fields := dialog.Payload{fTitle: ev.text, fParts: []catalog.Location{}}
	if !b.setState(ctx, ev, dialog.StateSeriesParts, fields) {
		return
	}
	b.replyKB(ev.chat,
		"🎞 Endi qismlarni video ko'rinishida ketma-ket yuboring.\nTugatgach «"+btnSeriesDone+"» tugmasini bosing.",
		seriesPartsKeyboard())
}

func (b *Bot) stepSeriesParts(ctx context.Context, ev *event) {
	parts := seriesParts(ev.session.Payload)
	switch {
	case ev.isVideo():
		parts = append(parts, catalog.Location{ChatID: ev.msg.Chat.ID, MessageID: ev.msg.MessageID})
		if err := b.states.Update(ctx, ev.key, dialog.Payload{fParts: parts}); err != nil {
			b.log.Error("store series part failed", "user", ev.actor, "err", err)
			b.reply(ev.chat, "Xatolik yuz berdi, qismni qayta yuboring.")
			return
		}
		b.reply(ev.chat, fmt.Sprintf("✅ %d-qism qabul qilindi.", len(parts)))

	case ev.text == btnSeriesDone:
		b.completeSeries(ctx, ev, parts)

	default:
		b.reply(ev.chat, "Video yuboring yoki «"+btnSeriesDone+"» tugmasini bosing.")
	}
}

func (b *Bot) completeSeries(ctx context.Context, ev *event, parts []catalog.Location) {
	if len(parts) == 0 {
		b.reply(ev.chat, "❌ Kamida bitta qism yuboring.")
		return
	}
	code, _ := dialog.GetString(ev.session.Payload, fCode)
	title, _ := dialog.GetString(ev.session.Payload, fTitle)
	e := catalog.Entry{Code: code, Title: title, Kind: catalog.KindSeries, Parts: parts}

	err := b.catalog.Insert(ctx, e)
	if errors.Is(err, catalog.ErrCodeTaken) {
		if b.setState(ctx, ev, dialog.StateSeriesCode, dialog.Payload{fResume: true}) {
			b.replyKB(ev.chat, "❌ "+code+" kodi band bo'lib qoldi. Yangi kod kiriting:", backKeyboard())
		}
		return
	}
	if err != nil {
		b.log.Error("insert series failed", "code", code, "err", err)
		b.reply(ev.chat, "Xatolik yuz berdi, qayta urinib ko'ring.")
		return
	}

	b.mirror(ctx, e)
	b.reply(ev.chat, fmt.Sprintf("✅ Serial saqlandi!\n📺 %s\n🔢 Kod: %s\n🎞 Qismlar: %d", title, code, len(parts)))
	b.finish(ctx, ev)
}

func seriesParts(p dialog.Payload) []catalog.Location {
	var parts []catalog.Location
	if err := dialog.Decode(p, fParts, &parts); err != nil {
		return nil
	}
	return parts
}
