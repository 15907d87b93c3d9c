package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// NewBot creates a new Telegram bot
func NewBot(token string, threads ThreadService, allowedUserIDs []int64, opts Options, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("Failed to create bot API", zap.Error(err))
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot created", zap.String("bot_username", api.Self.UserName))

	b := newBot(api, threads, allowedUserIDs, opts, logger)
	b.api = api
	return b, nil
}

// newBot wires a bot around any sender; tests pass a fake
func newBot(sender Sender, threads ThreadService, allowedUserIDs []int64, opts Options, logger *zap.Logger) *Bot {
	allowedUsers := make(map[int64]bool)
	for _, id := range allowedUserIDs {
		allowedUsers[id] = true
	}

	return &Bot{
		sender:       sender,
		threads:      threads,
		allowedUsers: allowedUsers,
		states:       make(map[int64]*ConversationState),
		opts:         opts,
		logger:       logger,
		ctx:          context.Background(),
	}
}

// GetAPI returns the bot API
func (b *Bot) GetAPI() *tgbotapi.BotAPI {
	return b.api
}

// setContext makes ctx the parent of every update handled from now on
func (b *Bot) setContext(ctx context.Context) {
	b.ctxMu.Lock()
	defer b.ctxMu.Unlock()
	b.ctx = ctx
}

func (b *Bot) lifetime() context.Context {
	b.ctxMu.RLock()
	defer b.ctxMu.RUnlock()
	return b.ctx
}

// Wait blocks until in-flight updates finish or ctx expires
func (b *Bot) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
