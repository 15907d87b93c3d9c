package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const commandAdd = "add"

// handleAddStart asks for ids and waits for the next text message
func (b *Bot) handleAddStart(chatID, userID int64) {
	b.setState(userID, &ConversationState{Command: commandAdd, Step: 1})

	msg := tgbotapi.NewMessage(chatID, "Введите ID тем через запятую для добавления:")
	b.sendMessage(msg)
}

// handleConversation continues a pending multi-step command
func (b *Bot) handleConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	switch state.Command {
	case commandAdd:
		b.handleAddThreads(ctx, message)
	default:
		b.logger.Warn("Unknown conversation state", zap.String("command", state.Command))
	}
}

// handleAddThreads stores the ids from a comma-separated message
func (b *Bot) handleAddThreads(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	result, err := b.threads.AddMany(ctx, message.Text)
	if err != nil {
		b.logger.Error("Failed to add threads", zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.Strings("added", result.Added),
		)
		text := fmt.Sprintf("Ошибка при добавлении тем: %v", err)
		// Ids stored before the failure stay in the list
		if len(result.Added) > 0 {
			text = "Добавлены темы с ID: " + strings.Join(result.Added, ", ") + "\n" + text
		}
		b.reply(message, text)
		return
	}

	var text strings.Builder
	if len(result.Added) > 0 {
		text.WriteString("Добавлены темы с ID: " + strings.Join(result.Added, ", "))
	}
	if len(result.Duplicates) > 0 {
		if text.Len() > 0 {
			text.WriteString("\n")
		}
		text.WriteString("Уже в списке: " + strings.Join(result.Duplicates, ", "))
	}
	if text.Len() == 0 {
		text.WriteString("Не удалось добавить темы. Убедитесь, что вы ввели корректные ID через запятую.")
	}

	b.reply(message, text.String())
	b.sendMenu(chatID)
}

func (b *Bot) setState(userID int64, state *ConversationState) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	b.states[userID] = state
}

// takeState returns and clears the pending conversation of userID
func (b *Bot) takeState(userID int64) *ConversationState {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	state, ok := b.states[userID]
	if !ok {
		return nil
	}
	delete(b.states, userID)
	return state
}

func (b *Bot) clearState(userID int64) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	delete(b.states, userID)
}
