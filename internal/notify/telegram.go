package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalDesk/models"
)

// TelegramOptions configures the Telegram notifier
type TelegramOptions struct {
	Token       string
	ChatID      int64
	APIEndpoint string // defaults to the public Bot API
	Timeout     time.Duration
}

// TelegramNotifier sends plays to one Telegram chat
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// NewTelegramNotifier authenticates the bot and returns a notifier for the chat
func NewTelegramNotifier(opts TelegramOptions) (*TelegramNotifier, error) {
	if opts.APIEndpoint == "" {
		opts.APIEndpoint = tgbotapi.APIEndpoint
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}

	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, opts.APIEndpoint, &http.Client{Timeout: opts.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger := log.With().Str("component", "telegram").Logger()
	logger.Info().Str("bot", bot.Self.UserName).Msg("Authorized on account")

	return &TelegramNotifier{bot: bot, chatID: opts.ChatID, logger: logger}, nil
}

// Send delivers the formatted play. Context cancellation is checked before sending.
func (n *TelegramNotifier) Send(ctx context.Context, play models.Play, snap *models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, FormatPlay(play, snap))
	msg.DisableWebPagePreview = true

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send %s: %w", play.ID, err)
	}

	n.logger.Info().Str("rule", play.ID).Str("direction", string(play.Direction)).
		Int("quality", play.Quality.Value).Msg("Play sent")
	return nil
}

// LogNotifier writes plays to the log instead of delivering them
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier returns the dry-run notifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: log.With().Str("component", "dry_run").Logger()}
}

// Send logs the formatted play
func (n *LogNotifier) Send(_ context.Context, play models.Play, snap *models.Snapshot) error {
	n.logger.Info().Str("rule", play.ID).Str("direction", string(play.Direction)).
		Int("quality", play.Quality.Value).Msg(FormatPlay(play, snap))
	return nil
}

var (
	_ models.Notifier = (*TelegramNotifier)(nil)
	_ models.Notifier = (*LogNotifier)(nil)
)
