package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"bumpbot/internal/bumper"
)

// handleDeleteMenu shows one button per thread
func (b *Bot) handleDeleteMenu(ctx context.Context, chatID int64) {
	threads, err := b.threads.ListWithTitles(ctx)
	if err != nil {
		b.logger.Error("Failed to list threads for delete menu", zap.Error(err))
		b.sendMessage(tgbotapi.NewMessage(chatID, fmt.Sprintf("Ошибка: %v", err)))
		return
	}

	if len(threads) == 0 {
		b.sendMessage(tgbotapi.NewMessage(chatID, "Список тем пуст."))
		b.sendMenu(chatID)
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, thread := range threads {
		button := tgbotapi.NewInlineKeyboardButtonData(
			truncate(fmt.Sprintf("%s - %s", thread.ID, thread.Title), maxButtonText),
			cbDeletePrefix+thread.ID,
		)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button))
	}

	msg := tgbotapi.NewMessage(chatID, "Выберите тему для удаления:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.sendMessage(msg)
}

// handleDeleteCallback removes the selected thread, then shows the delete
// menu again while threads remain
func (b *Bot) handleDeleteCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := callbackChatID(query)
	threadID := strings.TrimPrefix(query.Data, cbDeletePrefix)

	if !bumper.IsThreadID(threadID) {
		b.logger.Warn("Invalid thread id in delete callback", zap.String("callback_data", query.Data))
		b.answerCallback(query.ID, "Некорректный ID темы.")
		return
	}

	if err := b.threads.Remove(ctx, threadID); err != nil {
		b.logger.Error("Failed to remove thread", zap.Error(err), zap.String("thread_id", threadID))
		b.answerCallback(query.ID, "Не удалось удалить тему.")
		b.sendMessage(tgbotapi.NewMessage(chatID, fmt.Sprintf("Ошибка: %v", err)))
		return
	}
	b.answerCallback(query.ID, fmt.Sprintf("Тема %s удалена.", threadID))

	remaining, err := b.threads.List(ctx)
	if err != nil {
		b.logger.Error("Failed to list threads after delete", zap.Error(err))
		b.sendMessage(tgbotapi.NewMessage(chatID, fmt.Sprintf("Ошибка: %v", err)))
		return
	}
	if len(remaining) == 0 {
		b.sendMenu(chatID)
		return
	}
	b.handleDeleteMenu(ctx, chatID)
}
