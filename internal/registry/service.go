// Package registry owns bot definitions and per-tenant install state.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	// ErrBotNotFound means the keyword is unknown globally.
	ErrBotNotFound = errors.New("bot not found")
	// ErrBotNotInstalled means the keyword exists but the tenant has not
	// installed the bot. A bot never matches for a tenant that did not
	// install it, even if it exists globally.
	ErrBotNotInstalled = errors.New("bot not installed for tenant")
	// ErrUnknownBot means an install referenced a bot id that does not
	// exist in the registry.
	ErrUnknownBot = errors.New("unknown bot id")
)

const notifyTimeout = 30 * time.Second

// Service provides bot registration, installation, and keyword lookup.
type Service struct {
	store    Store
	logger   *slog.Logger
	validate *validator.Validate
	notifier Notifier
}

// NewService creates a registry service on top of a store.
func NewService(log *slog.Logger, store Store) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:    store,
		logger:   log.With(slog.String("service", "registry")),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// SetNotifier registers an optional lifecycle notifier.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// AddBot validates the definition, assigns an id, and persists the bot.
// Keyword collisions are allowed here: uniqueness only matters within a
// tenant's installed set, so the conflict is resolved at install time.
func (s *Service) AddBot(ctx context.Context, req AddBotRequest) (Bot, error) {
	if s.store == nil {
		return Bot{}, fmt.Errorf("registry store not configured")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Keyword = strings.TrimSpace(req.Keyword)
	req.URL = strings.TrimSpace(req.URL)
	req.Homepage = strings.TrimSpace(req.Homepage)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return Bot{}, fmt.Errorf("invalid bot definition: %w", err)
	}

	bot := Bot{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Keyword:   req.Keyword,
		URL:       req.URL,
		Homepage:  req.Homepage,
		Email:     req.Email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateBot(ctx, bot); err != nil {
		return Bot{}, err
	}
	s.logger.Info("bot registered",
		slog.String("bot_id", bot.ID),
		slog.String("keyword", bot.Keyword),
	)
	s.enqueueAddedNotification(bot)
	return bot, nil
}

// GetBot returns a bot by id.
func (s *Service) GetBot(ctx context.Context, id string) (Bot, error) {
	if s.store == nil {
		return Bot{}, fmt.Errorf("registry store not configured")
	}
	return s.store.GetBot(ctx, strings.TrimSpace(id))
}

// ListBots returns every registered bot.
func (s *Service) ListBots(ctx context.Context) ([]Bot, error) {
	if s.store == nil {
		return nil, fmt.Errorf("registry store not configured")
	}
	return s.store.ListBots(ctx)
}

// InstallBots records that the tenant installed the given bots. The
// operation is idempotent and all-or-nothing: one unknown id fails the
// whole batch with ErrUnknownBot and nothing is written.
func (s *Service) InstallBots(ctx context.Context, clientKey string, botIDs []string) error {
	if s.store == nil {
		return fmt.Errorf("registry store not configured")
	}
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		return fmt.Errorf("client key is required")
	}
	ids := make([]string, 0, len(botIDs))
	for _, id := range botIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return fmt.Errorf("at least one bot id is required")
	}
	if err := s.store.InstallBots(ctx, clientKey, ids); err != nil {
		return err
	}
	s.logger.Info("bots installed",
		slog.String("client_key", clientKey),
		slog.Int("count", len(ids)),
	)
	return nil
}

// FindBotByKeyword resolves a keyword within the tenant's installed set.
// It returns ErrBotNotInstalled when the keyword exists globally but the
// tenant has not installed it, and ErrBotNotFound when no bot carries
// the keyword at all. Matching is exact-case.
func (s *Service) FindBotByKeyword(ctx context.Context, clientKey, keyword string) (Bot, error) {
	if s.store == nil {
		return Bot{}, fmt.Errorf("registry store not configured")
	}
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		return Bot{}, fmt.Errorf("client key is required")
	}
	if keyword == "" {
		return Bot{}, ErrBotNotFound
	}
	bot, found, err := s.store.FindInstalledBotByKeyword(ctx, clientKey, keyword)
	if err != nil {
		return Bot{}, err
	}
	if found {
		return bot, nil
	}
	exists, err := s.store.KeywordExists(ctx, keyword)
	if err != nil {
		return Bot{}, err
	}
	if exists {
		return Bot{}, ErrBotNotInstalled
	}
	return Bot{}, ErrBotNotFound
}

func (s *Service) enqueueAddedNotification(bot Bot) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.BotAdded(ctx, bot); err != nil {
			s.logger.Warn("bot added notification failed",
				slog.String("bot_id", bot.ID),
				slog.Any("error", err),
			)
		}
	}()
}
