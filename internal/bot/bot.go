package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"news_bot/internal/config"
	"news_bot/internal/model"
	"news_bot/internal/pipeline"
	"news_bot/internal/state"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Runner starts pipeline runs on behalf of admin commands.
type Runner interface {
	TriggerScheduled(ctx context.Context) pipeline.Outcome
	TriggerPreview(ctx context.Context) pipeline.Outcome
}

// Bot delivers notifications and serves the admin commands.
type Bot struct {
	api    telegramAPI
	cfg    *config.Config
	state  *state.Store
	runner Runner
	log    *slog.Logger
}

// New creates a Bot with the given Telegram token.
func New(token string, cfg *config.Config, st *state.Store, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:   api,
		cfg:   cfg,
		state: st,
		log:   log,
	}, nil
}

// SetRunner attaches the pipeline used by /run and /preview.
func (b *Bot) SetRunner(r Runner) {
	b.runner = r
}

// Notify sends an HTML message to the chat behind ch.
func (b *Bot) Notify(_ context.Context, ch model.Channel, text string) error {
	chatID, err := b.chatFor(ch)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send notification", "channel", ch, "chat_id", chatID, "error", err)
		return fmt.Errorf("send to %s: %w", ch, err)
	}
	return nil
}

func (b *Bot) chatFor(ch model.Channel) (int64, error) {
	switch ch {
	case model.ChannelPrimary:
		return b.cfg.PrimaryChatID, nil
	case model.ChannelAdmin:
		return b.cfg.AdminChatID, nil
	}
	return 0, fmt.Errorf("unknown channel %q", ch)
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if update.Message.From == nil || !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "status":
		b.handleStatus(ctx, chatID)
	case "settings":
		b.handleSettings(ctx, chatID)
	case "set":
		b.handleSet(ctx, chatID, args)
	case "unset":
		b.handleUnset(ctx, chatID, args)
	case "preview":
		b.handlePreview(ctx, chatID)
	case "run":
		b.handleRun(ctx, chatID)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
