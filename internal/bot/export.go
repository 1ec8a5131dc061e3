package bot

import (
	"bytes"
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/kino-bot/internal/domain/catalog"
)

// menuExport sends the whole catalog as an .xlsx document.
func (b *Bot) menuExport(ctx context.Context, ev *event) {
	entries, err := b.catalog.All(ctx)
	if err != nil {
		b.log.Error("load catalog failed", "err", err)
		b.reply(ev.chat, "Xatolik yuz berdi, keyinroq urinib ko'ring.")
		return
	}
	if len(entries) == 0 {
		b.reply(ev.chat, "Katalog bo'sh.")
		return
	}

	data, err := catalogWorkbook(entries)
	if err != nil {
		b.log.Error("build catalog workbook failed", "err", err)
		b.reply(ev.chat, "Faylni tayyorlab bo'lmadi.")
		return
	}

	doc := tgbotapi.NewDocument(ev.chat, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("catalog_%s.xlsx", time.Now().Format("20060102_150405")),
		Bytes: data,
	})
	doc.Caption = fmt.Sprintf("📥 Katalog: %d ta yozuv", len(entries))
	b.send(doc)
}

func catalogWorkbook(entries []catalog.Entry) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{"code", "title", "kind", "parts", "views", "created_at"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	for i, e := range entries {
		row := []interface{}{
			e.Code,
			e.Title,
			string(e.Kind),
			len(e.Media()),
			e.Views,
			e.CreatedAt.Format("2006-01-02 15:04"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
