package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/kino-bot/internal/access"
	"github.com/Spok95/kino-bot/internal/domain/channels"
)

// Menu labels. Routing compares them with exact equality.
const (
	btnBack = "🔙 Orqaga"

	btnSearch     = "🎬 Kino qidirish"
	btnTop        = "🏆 Top kinolar"
	btnSubmit     = "📤 Kino yuborish"
	btnContact    = "✍️ Adminga yozish"
	btnStats      = "📊 Statistika"
	btnAdminPanel = "👑 Admin panel"

	btnAddMovie    = "🆕 Kino qo'shish"
	btnAddSeries   = "📺 Serial qo'shish"
	btnRemoveEntry = "❌ Kino o'chirish"
	btnBroadcast   = "📢 Xabar yuborish"
	btnChannels    = "🔍 Majburiy kanallar"
	btnBaseChannel = "🗄 Baza kanal"
	btnAddAdmin    = "👑 Admin qo'shish"
	btnRemoveAdmin = "🗑 Admin o'chirish"
	btnListAdmins  = "📋 Adminlar"
	btnExport      = "📥 Eksport"
	btnUserMenu    = "🏠 Asosiy menyu"

	btnChannelAdd    = "➕ Kanal qo'shish"
	btnChannelRemove = "➖ Kanalni olib tashlash"
	btnChannelList   = "📋 Ro'yxat"

	btnSeriesDone = "✅ Yakunlandi"
	btnBaseOff    = "🚫 O'chirish"
)

// Callback tokens.
const (
	cbCheckSub  = "sub:check"
	cbApprove   = "mod:ok:"
	cbReject    = "mod:no:"
	cbChannelRm = "ch:rm:"
)

func replyKeyboard(rows ...[]string) tgbotapi.ReplyKeyboardMarkup {
	kb := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, r := range rows {
		row := make([]tgbotapi.KeyboardButton, 0, len(r))
		for _, label := range r {
			row = append(row, tgbotapi.NewKeyboardButton(label))
		}
		kb = append(kb, row)
	}
	return tgbotapi.ReplyKeyboardMarkup{ResizeKeyboard: true, Keyboard: kb}
}

// userKeyboard Нижняя панель пользователя; админам добавляется вход в админку
func userKeyboard(isAdmin bool) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]string{
		{btnSearch},
		{btnTop, btnSubmit},
		{btnContact, btnStats},
	}
	if isAdmin {
		rows = append(rows, []string{btnAdminPanel})
	}
	return replyKeyboard(rows...)
}

func adminKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(
		[]string{btnAddMovie, btnAddSeries},
		[]string{btnRemoveEntry, btnExport},
		[]string{btnBroadcast, btnChannels},
		[]string{btnBaseChannel, btnListAdmins},
		[]string{btnAddAdmin, btnRemoveAdmin},
		[]string{btnUserMenu},
	)
}

func channelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(
		[]string{btnChannelAdd},
		[]string{btnChannelRemove},
		[]string{btnChannelList, btnBack},
	)
}

func backKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard([]string{btnBack})
}

func seriesPartsKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard([]string{btnSeriesDone}, []string{btnBack})
}

func baseChannelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard([]string{btnBaseOff}, []string{btnBack})
}

// joinKeyboard lists every mandatory channel plus the re-check button.
// Links that are not URLs (raw ids of private channels) get no button.
func joinKeyboard(res access.Result) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, ch := range res.Channels {
		if !isURL(ch.Link) {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(channelTitle(ch), ch.Link),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Tekshirish", cbCheckSub),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func moderationKeyboard(id string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Tasdiqlash", cbApprove+id),
			tgbotapi.NewInlineKeyboardButtonData("❌ Rad etish", cbReject+id),
		),
	)
}

func channelRemoveKeyboard(list []channels.Channel) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(list))
	for _, ch := range list {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ "+channelTitle(ch), cbChannelRm+ch.ChannelID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func channelTitle(ch channels.Channel) string {
	if ch.Title != "" {
		return ch.Title
	}
	if ch.Link != "" {
		return ch.Link
	}
	return ch.ChannelID
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "tg://")
}
