// Package dispatch turns an inbound message event into a delivered bot
// reply, or a designed non-delivery.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/botdeckhq/botdeck/internal/matcher"
	"github.com/botdeckhq/botdeck/internal/registry"
)

// Event is one inbound room message, as delivered by the platform
// webhook. Events are ephemeral; nothing here is persisted.
type Event struct {
	ClientKey string
	RoomID    int64
	Text      string
}

// Outcome describes a completed dispatch: which bot replied and with
// what text.
type Outcome struct {
	Bot   registry.Bot
	Reply string
}

// NoShowError marks the designed "silently do not reply" outcome: the
// message was not a command, the keyword is unknown, or the bot is not
// installed for the tenant. It is expected and never alert-worthy, in
// contrast to invocation and delivery failures, which pass through
// unwrapped by it.
type NoShowError struct {
	Cause error
}

func (e *NoShowError) Error() string {
	return "no reply: " + e.Cause.Error()
}

func (e *NoShowError) Unwrap() error {
	return e.Cause
}

// NoShow distinguishes the marker from genuine errors.
func (e *NoShowError) NoShow() bool { return true }

// IsNoShow reports whether err is a designed non-delivery outcome.
func IsNoShow(err error) bool {
	var ns *NoShowError
	return errors.As(err, &ns)
}

// Matcher resolves message text to an installed bot.
type Matcher interface {
	Match(ctx context.Context, clientKey, text string) (matcher.Match, error)
}

// Invoker runs a matched bot's reply logic.
type Invoker interface {
	Invoke(ctx context.Context, bot registry.Bot, remainder string, roomID int64) (string, error)
}

// Sender delivers a reply into the originating room on behalf of the
// tenant.
type Sender interface {
	SendMessage(ctx context.Context, clientKey string, roomID int64, text string) error
}

// Engine orchestrates match, invoke, and deliver for one event.
type Engine struct {
	matcher Matcher
	invoker Invoker
	sender  Sender
	logger  *slog.Logger
}

// NewEngine creates a dispatch engine.
func NewEngine(log *slog.Logger, m Matcher, invoker Invoker, sender Sender) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		matcher: m,
		invoker: invoker,
		sender:  sender,
		logger:  log.With(slog.String("service", "dispatch")),
	}
}

// Dispatch runs the pipeline for one event. Steps are strictly
// sequential: match, then invoke, then deliver. Expected resolution
// failures return a *NoShowError and never reach the sender; failures
// after a successful match are genuine errors and are returned as-is
// for the caller to log or alert on.
func (e *Engine) Dispatch(ctx context.Context, event Event) (Outcome, error) {
	match, err := e.matcher.Match(ctx, event.ClientKey, event.Text)
	if err != nil {
		if isExpectedMiss(err) {
			return Outcome{}, &NoShowError{Cause: err}
		}
		return Outcome{}, fmt.Errorf("match: %w", err)
	}

	reply, err := e.invoker.Invoke(ctx, match.Bot, match.Remainder, event.RoomID)
	if err != nil {
		return Outcome{}, fmt.Errorf("invoke bot %s: %w", match.Bot.ID, err)
	}

	if err := e.sender.SendMessage(ctx, event.ClientKey, event.RoomID, reply); err != nil {
		return Outcome{}, fmt.Errorf("deliver reply from bot %s: %w", match.Bot.ID, err)
	}

	e.logger.Debug("reply delivered",
		slog.String("client_key", event.ClientKey),
		slog.Int64("room_id", event.RoomID),
		slog.String("bot_id", match.Bot.ID),
	)
	return Outcome{Bot: match.Bot, Reply: reply}, nil
}

func isExpectedMiss(err error) bool {
	return errors.Is(err, matcher.ErrNotACommand) ||
		errors.Is(err, registry.ErrBotNotFound) ||
		errors.Is(err, registry.ErrBotNotInstalled)
}
