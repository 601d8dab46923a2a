// Package botclient calls a registered bot's HTTP endpoint to produce a
// reply for a matched command.
package botclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/botdeckhq/botdeck/internal/registry"
)

// DefaultTimeout bounds a single bot invocation. Bots are third-party
// endpoints; a slow one must not hold the dispatch pipeline hostage.
const DefaultTimeout = 15 * time.Second

// Client invokes bot endpoints over HTTP.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a bot invoker with the given per-call timeout. Zero
// means DefaultTimeout.
func NewClient(log *slog.Logger, timeout time.Duration) *Client {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.With(slog.String("service", "botclient")),
	}
}

type invokeRequest struct {
	Message string `json:"message"`
	RoomID  int64  `json:"room_id"`
}

type invokeResponse struct {
	Message string `json:"message"`
}

// Invoke posts the command remainder to the bot and returns its reply
// text. A reachable bot that answers with a non-2xx status or an empty
// reply is an invocation failure.
func (c *Client) Invoke(ctx context.Context, bot registry.Bot, remainder string, roomID int64) (string, error) {
	payload, err := json.Marshal(invokeRequest{Message: remainder, RoomID: roomID})
	if err != nil {
		return "", fmt.Errorf("encode invocation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, bot.URL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build invocation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call bot endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("bot endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var reply invokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("decode bot reply: %w", err)
	}
	if strings.TrimSpace(reply.Message) == "" {
		return "", fmt.Errorf("bot returned an empty reply")
	}

	c.logger.Debug("bot invoked",
		slog.String("bot_id", bot.ID),
		slog.String("keyword", bot.Keyword),
	)
	return reply.Message, nil
}
