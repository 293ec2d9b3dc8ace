// Package keyboards has layout helpers for inline keyboards.
package keyboards

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Button is a label and its callback data.
type Button struct {
	Text string
	Data string
}

func (b Button) inline() tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data)
}

// Row puts buttons on one line.
func Row(buttons ...Button) []tgbotapi.InlineKeyboardButton {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		row = append(row, b.inline())
	}
	return row
}

// Grid lays buttons out perRow to a line.
func Grid(buttons []Button, perRow int) [][]tgbotapi.InlineKeyboardButton {
	if perRow <= 0 {
		perRow = 1
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(buttons); i += perRow {
		end := i + perRow
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, Row(buttons[i:end]...))
	}
	return rows
}

// Pager renders "◀️ n/total ▶️" for page (0-based); nil when one page.
func Pager(prefix string, page, pages int) []tgbotapi.InlineKeyboardButton {
	if pages <= 1 {
		return nil
	}
	var row []Button
	if page > 0 {
		row = append(row, Button{"◀️", prefix + strconv.Itoa(page-1)})
	}
	row = append(row, Button{strconv.Itoa(page+1) + "/" + strconv.Itoa(pages), prefix + strconv.Itoa(page)})
	if page < pages-1 {
		row = append(row, Button{"▶️", prefix + strconv.Itoa(page+1)})
	}
	return Row(row...)
}

// Markup builds the keyboard, skipping empty rows.
func Markup(rows ...[]tgbotapi.InlineKeyboardButton) tgbotapi.InlineKeyboardMarkup {
	kept := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, r := range rows {
		if len(r) > 0 {
			kept = append(kept, r)
		}
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: kept}
}
