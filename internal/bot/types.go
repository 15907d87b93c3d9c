package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"bumpbot/internal/models"
)

// Sender is the part of the Telegram API the bot talks through
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// ThreadService is what the chat menu operates on
type ThreadService interface {
	AddMany(ctx context.Context, raw string) (models.AddResult, error)
	Remove(ctx context.Context, threadID string) error
	List(ctx context.Context) ([]string, error)
	ListWithTitles(ctx context.Context) ([]models.Thread, error)
	BumpAll(ctx context.Context) ([]models.BumpResult, error)
}

// Options controls presentation details of the menu
type Options struct {
	ThreadLinkBase string
	MenuImageURL   string
	AuthorURL      string
	// ReportChatID receives results of scheduled passes; 0 disables it
	ReportChatID int64
}

// Bot represents the Telegram bot wrapper
type Bot struct {
	api          *tgbotapi.BotAPI
	sender       Sender
	threads      ThreadService
	allowedUsers map[int64]bool
	states       map[int64]*ConversationState
	statesMu     sync.Mutex
	opts         Options
	logger       *zap.Logger

	// ctx bounds update handling; set by Start or StartWebhook
	ctx      context.Context
	ctxMu    sync.RWMutex
	inflight sync.WaitGroup
}

// ConversationState tracks a pending multi-step command
type ConversationState struct {
	Command string
	Step    int
}
