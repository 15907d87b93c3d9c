package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Callback data values of the main menu
const (
	cbListThreads  = "list_threads"
	cbAddThread    = "add_thread"
	cbDeleteThread = "delete_thread"
	cbBumpThreads  = "bump_threads"

	cbDeletePrefix = "delete:"
)

type callbackHandler func(ctx context.Context, query *tgbotapi.CallbackQuery)

// handleMessage processes a single message
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage", zap.Any("panic", r))
			msg := tgbotapi.NewMessage(message.Chat.ID, "Произошла ошибка при обработке запроса. Попробуйте ещё раз.")
			b.sendMessage(msg)
		}
	}()

	userID := message.From.ID

	// Any command interrupts a pending conversation
	if message.IsCommand() {
		b.clearState(userID)
		b.handleCommand(ctx, message)
		return
	}

	if state := b.takeState(userID); state != nil {
		b.handleConversation(ctx, message, state)
		return
	}

	// A comma-separated list is a batch add even without the Add button
	if strings.Contains(message.Text, ",") {
		b.handleAddThreads(ctx, message)
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, "Не понимаю сообщение. Используйте /start, чтобы открыть меню.")
	b.sendMessage(msg)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	switch message.Command() {
	case "start", "help":
		b.sendMenu(chatID)
	case "list":
		b.handleList(ctx, chatID)
	case "add":
		b.handleAddStart(chatID, message.From.ID)
	case "delete":
		b.handleDeleteMenu(ctx, chatID)
	case "bump":
		b.handleBump(ctx, chatID)
	case "cancel":
		b.sendMessage(tgbotapi.NewMessage(chatID, "Действие отменено."))
		b.sendMenu(chatID)
	default:
		msg := tgbotapi.NewMessage(chatID, "Неизвестная команда. Используйте /start, чтобы увидеть меню.")
		b.sendMessage(msg)
	}
}

func (b *Bot) callbackRoutes() map[string]callbackHandler {
	return map[string]callbackHandler{
		cbListThreads: func(ctx context.Context, q *tgbotapi.CallbackQuery) {
			b.handleList(ctx, callbackChatID(q))
		},
		cbAddThread: func(ctx context.Context, q *tgbotapi.CallbackQuery) {
			b.handleAddStart(callbackChatID(q), q.From.ID)
		},
		cbDeleteThread: func(ctx context.Context, q *tgbotapi.CallbackQuery) {
			b.handleDeleteMenu(ctx, callbackChatID(q))
		},
		cbBumpThreads: func(ctx context.Context, q *tgbotapi.CallbackQuery) {
			b.handleBump(ctx, callbackChatID(q))
		},
	}
}

// handleCallbackQuery processes inline keyboard button clicks
func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Recover from panics
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery", zap.Any("panic", r))
		}
	}()

	data := query.Data

	// Deleting answers with a toast, so it acknowledges the query itself
	if strings.HasPrefix(data, cbDeletePrefix) {
		b.handleDeleteCallback(ctx, query)
		return
	}

	// Answer the callback query to remove loading state
	b.answerCallback(query.ID, "")

	if route, ok := b.callbackRoutes()[data]; ok {
		route(ctx, query)
		return
	}

	b.logger.Warn("Unknown callback data", zap.String("callback_data", data))
}

func (b *Bot) answerCallback(queryID, text string) {
	if b.sender == nil {
		return // For testing
	}
	if _, err := b.sender.Request(tgbotapi.NewCallback(queryID, text)); err != nil {
		b.logger.Warn("Failed to answer callback query", zap.Error(err))
	}
}

// callbackChatID is the chat the pressed keyboard lives in
func callbackChatID(query *tgbotapi.CallbackQuery) int64 {
	if query.Message != nil && query.Message.Chat != nil {
		return query.Message.Chat.ID
	}
	return query.From.ID
}
