package bot

import (
	"context"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"bumpbot/internal/models"
)

const (
	// Telegram rejects longer messages
	maxMessageLength = 4096
	maxButtonText    = 64
	// Titles are cut before markup is added so a listing line always fits
	maxTitleLength = 256
)

// sendMessage sends any chattable and logs failures
func (b *Bot) sendMessage(c tgbotapi.Chattable) {
	if b.sender == nil {
		return // For testing
	}
	if _, err := b.sender.Send(c); err != nil {
		b.logger.Warn("Failed to send message", zap.Error(err))
	}
}

// reply answers a specific message
func (b *Bot) reply(message *tgbotapi.Message, text string) {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyToMessageID = message.MessageID
	b.sendMessage(msg)
}

// ReportBumps sends the results of an unattended pass to the report chat
func (b *Bot) ReportBumps(ctx context.Context, results []models.BumpResult) {
	if b.opts.ReportChatID == 0 || len(results) == 0 {
		return
	}

	lines := make([]string, 0, len(results)+1)
	lines = append(lines, "⏰ Плановое поднятие тем:")
	for _, r := range results {
		lines = append(lines, r.Message())
	}
	for _, chunk := range splitMessage(lines, maxMessageLength) {
		b.sendMessage(tgbotapi.NewMessage(b.opts.ReportChatID, chunk))
	}
}

// splitMessage joins lines with newlines into chunks of at most limit runes.
// A single line longer than limit is cut, so HTML lines must be bounded by the caller.
func splitMessage(lines []string, limit int) []string {
	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, line := range lines {
		line = truncate(line, limit)
		lineLen := utf8.RuneCountInString(line)

		if currentLen > 0 && currentLen+1+lineLen > limit {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
		if currentLen > 0 {
			current.WriteByte('\n')
			currentLen++
		}
		current.WriteString(line)
		currentLen += lineLen
	}
	if currentLen > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
