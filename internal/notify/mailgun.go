// Package notify sends operational email to bot owners.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	mg "github.com/mailgun/mailgun-go/v5"

	"github.com/botdeckhq/botdeck/internal/config"
	"github.com/botdeckhq/botdeck/internal/registry"
)

// Mailer sends registry notifications through Mailgun.
type Mailer struct {
	client *mg.Client
	domain string
	from   string
	logger *slog.Logger
}

// NewMailer creates a Mailgun-backed notifier.
func NewMailer(log *slog.Logger, cfg config.MailgunConfig) *Mailer {
	if log == nil {
		log = slog.Default()
	}
	client := mg.NewMailgun(cfg.APIKey)
	if cfg.Region == "eu" {
		client.SetAPIBase(mg.APIBaseEU)
	}
	from := cfg.From
	if from == "" {
		from = fmt.Sprintf("noreply@%s", cfg.Domain)
	}
	return &Mailer{
		client: client,
		domain: cfg.Domain,
		from:   from,
		logger: log.With(slog.String("service", "notify")),
	}
}

// BotAdded mails the bot owner a confirmation that the bot is listed.
func (m *Mailer) BotAdded(ctx context.Context, bot registry.Bot) error {
	subject := fmt.Sprintf("%s is now listed", bot.Name)
	body := fmt.Sprintf(
		"Your bot %q is registered and can be installed into rooms.\n\n"+
			"Keyword: /%s\nEndpoint: %s\n",
		bot.Name, bot.Keyword, bot.URL)

	message := mg.NewMessage(m.domain, m.from, subject, body, bot.Email)
	resp, err := m.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	m.logger.Debug("owner notified",
		slog.String("bot_id", bot.ID),
		slog.String("message_id", resp.ID),
	)
	return nil
}

// Noop is the notifier used when no mail provider is configured.
type Noop struct{}

func (Noop) BotAdded(context.Context, registry.Bot) error { return nil }

var (
	_ registry.Notifier = (*Mailer)(nil)
	_ registry.Notifier = Noop{}
)
