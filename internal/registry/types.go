package registry

import (
	"context"
	"time"
)

// Bot is a slash-command handler registered with the platform. Bots are
// global; a tenant only matches a bot it has installed.
type Bot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Keyword   string    `json:"keyword"`
	URL       string    `json:"url"`
	Homepage  string    `json:"homepage"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// AddBotRequest is the input for registering a bot.
type AddBotRequest struct {
	Name     string `json:"name" validate:"required"`
	Keyword  string `json:"keyword" validate:"required,excludesall= "`
	URL      string `json:"url" validate:"required,url"`
	Homepage string `json:"homepage" validate:"required,url"`
	Email    string `json:"email" validate:"required,email"`
}

// InstallRequest is the input for installing bots for a tenant.
type InstallRequest struct {
	ClientKey string   `json:"client_key" validate:"required"`
	BotIDs    []string `json:"bot_ids" validate:"required,min=1"`
}

// ListBotsResponse wraps a list of bots.
type ListBotsResponse struct {
	Items []Bot `json:"items"`
}

// Store is the persistence contract behind the registry service.
// Installation writes must be atomic per tenant: either every id in the
// batch is recorded or none are.
type Store interface {
	CreateBot(ctx context.Context, bot Bot) error
	GetBot(ctx context.Context, id string) (Bot, error)
	ListBots(ctx context.Context) ([]Bot, error)
	// InstallBots records the installation idempotently. It returns
	// ErrUnknownBot if any id does not exist, without writing anything.
	InstallBots(ctx context.Context, clientKey string, botIDs []string) error
	// FindInstalledBotByKeyword returns the bot with the given keyword
	// from the tenant's installed set. The bool reports whether a row
	// was found.
	FindInstalledBotByKeyword(ctx context.Context, clientKey, keyword string) (Bot, bool, error)
	// KeywordExists reports whether any bot carries the keyword,
	// regardless of tenant.
	KeywordExists(ctx context.Context, keyword string) (bool, error)
}

// Notifier receives registry lifecycle events.
type Notifier interface {
	BotAdded(ctx context.Context, bot Bot) error
}
