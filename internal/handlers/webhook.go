package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/botdeckhq/botdeck/internal/dispatch"
)

// Dispatcher runs the match-invoke-deliver pipeline for one inbound
// event.
type Dispatcher interface {
	Dispatch(ctx context.Context, event dispatch.Event) (dispatch.Outcome, error)
}

// WebhookHandler receives room_message callbacks from the chat
// platform.
type WebhookHandler struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

func NewWebhookHandler(log *slog.Logger, dispatcher Dispatcher) *WebhookHandler {
	return &WebhookHandler{
		dispatcher: dispatcher,
		logger:     log.With(slog.String("handler", "webhook")),
	}
}

func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST("/webhook", h.RoomMessage)
}

type roomMessagePayload struct {
	Event string `json:"event"`
	Item  struct {
		Message struct {
			Message string `json:"message"`
		} `json:"message"`
		Room struct {
			ID int64 `json:"id"`
		} `json:"room"`
	} `json:"item"`
	OAuthClientID string `json:"oauth_client_id"`
}

// RoomMessage acknowledges the webhook immediately and dispatches in
// the background. The platform retries on non-2xx, and a retry of a
// message we already handled would double-deliver, so the response
// never depends on the dispatch outcome.
func (h *WebhookHandler) RoomMessage(c echo.Context) error {
	var payload roomMessagePayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	event := dispatch.Event{
		ClientKey: payload.OAuthClientID,
		RoomID:    payload.Item.Room.ID,
		Text:      payload.Item.Message.Message,
	}

	if err := c.NoContent(http.StatusOK); err != nil {
		return err
	}

	// The request context dies when this handler returns; dispatch
	// carries on without it.
	ctx := context.WithoutCancel(c.Request().Context())
	go h.dispatch(ctx, event)
	return nil
}

func (h *WebhookHandler) dispatch(ctx context.Context, event dispatch.Event) {
	if _, err := h.dispatcher.Dispatch(ctx, event); err != nil {
		if dispatch.IsNoShow(err) {
			h.logger.Debug("no reply for message",
				slog.String("client_key", event.ClientKey),
				slog.Int64("room_id", event.RoomID),
				slog.Any("reason", err),
			)
			return
		}
		h.logger.Error("dispatch failed",
			slog.String("client_key", event.ClientKey),
			slog.Int64("room_id", event.RoomID),
			slog.Any("error", err),
		)
	}
}
