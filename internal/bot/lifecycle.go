package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Start runs the bot in polling mode until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot in polling mode")
	b.setContext(ctx)

	// Remove webhook (if any was set previously)
	_, err := b.api.Request(tgbotapi.DeleteWebhookConfig{})
	if err != nil {
		b.logger.Warn("Failed to delete webhook", zap.Error(err))
	}
	b.registerCommands()

	// Create update configuration
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	// Get updates channel
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Bot started successfully. Waiting for updates...")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("Stopped receiving updates")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			// Bump and list passes take seconds per thread; keep the loop free
			go b.HandleWebhookUpdate(update)
		}
	}
}

// StartWebhook sets up the bot to receive updates via webhook.
// Updates delivered later are handled under ctx.
func (b *Bot) StartWebhook(ctx context.Context, webhookURL string) error {
	b.logger.Info("Setting up webhook", zap.String("webhook_url", webhookURL))
	b.setContext(ctx)

	// Configure webhook
	webhookConfig, err := tgbotapi.NewWebhook(webhookURL + "/telegram-webhook")
	if err != nil {
		return err
	}
	webhookConfig.MaxConnections = 40

	_, err = b.api.Request(webhookConfig)
	if err != nil {
		b.logger.Error("Failed to set webhook", zap.Error(err), zap.String("webhook_url", webhookURL))
		return err
	}

	// Get webhook info to verify
	info, err := b.api.GetWebhookInfo()
	if err != nil {
		b.logger.Warn("Failed to get webhook info", zap.Error(err))
	} else {
		b.logger.Info("Webhook set successfully",
			zap.String("url", info.URL),
			zap.Int("pending_updates", info.PendingUpdateCount),
		)
	}

	b.registerCommands()
	b.logger.Info("Bot configured for webhook mode")
	return nil
}

// HandleWebhookUpdate processes a single update
func (b *Bot) HandleWebhookUpdate(update tgbotapi.Update) {
	b.inflight.Add(1)
	defer b.inflight.Done()
	ctx := b.lifetime()

	// Handle regular messages
	if update.Message != nil && update.Message.From != nil {
		userID := update.Message.From.ID
		if !b.allowedUsers[userID] {
			b.logger.Warn("Unauthorized access attempt",
				zap.Int64("user_id", userID),
				zap.String("username", update.Message.From.UserName),
				zap.String("first_name", update.Message.From.FirstName),
				zap.String("last_name", update.Message.From.LastName),
				zap.String("text", update.Message.Text),
			)
			msg := tgbotapi.NewMessage(update.Message.Chat.ID, "Извините, у вас нет доступа к этому боту.")
			b.sendMessage(msg)
			return
		}
		b.handleMessage(ctx, update.Message)
	}

	// Handle callback queries (inline keyboard button clicks)
	if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		userID := update.CallbackQuery.From.ID
		if !b.allowedUsers[userID] {
			b.logger.Warn("Unauthorized callback query attempt",
				zap.Int64("user_id", userID),
				zap.String("username", update.CallbackQuery.From.UserName),
				zap.String("callback_data", update.CallbackQuery.Data),
			)
			return
		}
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

// registerCommands publishes the command list shown in the Telegram menu
func (b *Bot) registerCommands() {
	commands := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Главное меню"},
		tgbotapi.BotCommand{Command: "list", Description: "Список тем"},
		tgbotapi.BotCommand{Command: "add", Description: "Добавить темы"},
		tgbotapi.BotCommand{Command: "delete", Description: "Удалить тему"},
		tgbotapi.BotCommand{Command: "bump", Description: "Поднять все темы"},
		tgbotapi.BotCommand{Command: "cancel", Description: "Отменить ввод"},
	)
	if _, err := b.sender.Request(commands); err != nil {
		b.logger.Warn("Failed to register bot commands", zap.Error(err))
	}
}
