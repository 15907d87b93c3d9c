package bot

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const menuCaption = "Привет! Я бот для поднятия тем. Выбери действие:"

// menuKeyboard builds the main menu; the author button needs AUTHOR_URL
func (b *Bot) menuKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Список тем для апа", cbListThreads),
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить тему", cbAddThread),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить тему", cbDeleteThread),
			tgbotapi.NewInlineKeyboardButtonData("🚀 Поднять темы", cbBumpThreads),
		),
	}
	if b.opts.AuthorURL != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("👤 Автор", b.opts.AuthorURL),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// sendMenu shows the main menu, as a photo when MENU_IMAGE_URL is set
func (b *Bot) sendMenu(chatID int64) {
	keyboard := b.menuKeyboard()

	if b.opts.MenuImageURL != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(b.opts.MenuImageURL))
		photo.Caption = menuCaption
		photo.ReplyMarkup = keyboard
		b.sendMessage(photo)
		return
	}

	msg := tgbotapi.NewMessage(chatID, menuCaption)
	msg.ReplyMarkup = keyboard
	b.sendMessage(msg)
}

// handleList shows every thread with its title and a link
func (b *Bot) handleList(ctx context.Context, chatID int64) {
	b.sendMessage(tgbotapi.NewMessage(chatID, "⏳ Получаю названия тем..."))

	threads, err := b.threads.ListWithTitles(ctx)
	if err != nil {
		b.logger.Error("Failed to list threads", zap.Error(err), zap.Int64("chat_id", chatID))
		b.sendMessage(tgbotapi.NewMessage(chatID, fmt.Sprintf("Ошибка: %v", err)))
		return
	}

	if len(threads) == 0 {
		b.sendMessage(tgbotapi.NewMessage(chatID, "Список тем пуст."))
		b.sendMenu(chatID)
		return
	}

	lines := make([]string, 0, len(threads)+1)
	lines = append(lines, "Список тем:")
	for _, thread := range threads {
		lines = append(lines, fmt.Sprintf("%s - %s (<a href=\"%s\">Перейти</a>)",
			thread.ID,
			html.EscapeString(truncate(thread.Title, maxTitleLength)),
			html.EscapeString(b.threadLink(thread.ID)),
		))
	}

	for _, chunk := range splitMessage(lines, maxMessageLength) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		b.sendMessage(msg)
	}
	b.sendMenu(chatID)
}

// handleBump runs a bump pass and reports one line per thread
func (b *Bot) handleBump(ctx context.Context, chatID int64) {
	ids, err := b.threads.List(ctx)
	if err != nil {
		b.logger.Error("Failed to list threads before bump", zap.Error(err))
		b.sendMessage(tgbotapi.NewMessage(chatID, fmt.Sprintf("Ошибка: %v", err)))
		return
	}
	if len(ids) == 0 {
		b.sendMessage(tgbotapi.NewMessage(chatID, "Список тем пуст."))
		b.sendMenu(chatID)
		return
	}

	b.sendMessage(tgbotapi.NewMessage(chatID, fmt.Sprintf("🚀 Поднимаю темы: %d. Это займёт некоторое время...", len(ids))))

	results, err := b.threads.BumpAll(ctx)
	for _, result := range results {
		b.sendMessage(tgbotapi.NewMessage(chatID, result.Message()))
	}
	if err != nil {
		b.logger.Error("Bump pass failed", zap.Error(err), zap.Int64("chat_id", chatID))
		b.sendMessage(tgbotapi.NewMessage(chatID, fmt.Sprintf("Ошибка: %v", err)))
	}

	b.sendMenu(chatID)
}

func (b *Bot) threadLink(threadID string) string {
	return strings.TrimRight(b.opts.ThreadLinkBase, "/") + "/" + threadID
}
