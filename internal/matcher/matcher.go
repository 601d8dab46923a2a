// Package matcher parses inbound room messages into bot commands.
package matcher

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/botdeckhq/botdeck/internal/registry"
)

// CommandPrefix marks the first token of a message as a bot keyword.
const CommandPrefix = "/"

// ErrNotACommand means the message does not start with a command token.
// The registry is never consulted in that case.
var ErrNotACommand = errors.New("message is not a bot command")

// Match is a resolved command: the installed bot plus the message text
// that followed the keyword.
type Match struct {
	Bot       registry.Bot
	Remainder string
}

type botFinder interface {
	FindBotByKeyword(ctx context.Context, clientKey, keyword string) (registry.Bot, error)
}

// Matcher resolves message text against a tenant's installed bots.
type Matcher struct {
	registry botFinder
	logger   *slog.Logger
}

// New creates a Matcher over the registry.
func New(log *slog.Logger, finder botFinder) *Matcher {
	if log == nil {
		log = slog.Default()
	}
	return &Matcher{
		registry: finder,
		logger:   log.With(slog.String("service", "matcher")),
	}
}

// ParseCommand splits message text into a command keyword and the
// remainder. ok is false when the first whitespace-delimited token does
// not begin with the command prefix, or the text is blank.
func ParseCommand(text string) (keyword, remainder string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", "", false
	}
	first := fields[0]
	if !strings.HasPrefix(first, CommandPrefix) {
		return "", "", false
	}
	keyword = strings.TrimPrefix(first, CommandPrefix)
	if keyword == "" {
		return "", "", false
	}
	return keyword, strings.Join(fields[1:], " "), true
}

// Match extracts the command keyword from text and looks it up in the
// tenant's installed set. Keyword matching is exact-case.
func (m *Matcher) Match(ctx context.Context, clientKey, text string) (Match, error) {
	keyword, remainder, ok := ParseCommand(text)
	if !ok {
		return Match{}, ErrNotACommand
	}
	bot, err := m.registry.FindBotByKeyword(ctx, clientKey, keyword)
	if err != nil {
		return Match{}, err
	}
	m.logger.Debug("command matched",
		slog.String("client_key", clientKey),
		slog.String("keyword", keyword),
		slog.String("bot_id", bot.ID),
	)
	return Match{Bot: bot, Remainder: remainder}, nil
}
