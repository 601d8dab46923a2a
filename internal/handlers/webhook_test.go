package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botdeckhq/botdeck/internal/dispatch"
)

const roomMessageBody = `{
	"event": "room_message",
	"item": {
		"message": {"message": "/random0 foobar"},
		"room": {"id": 1337}
	},
	"oauth_client_id": "1234"
}`

// blockingDispatcher parks in Dispatch until released, so tests can
// observe the HTTP response while dispatch is still in flight.
type blockingDispatcher struct {
	started chan dispatch.Event
	release chan struct{}
}

func newBlockingDispatcher() *blockingDispatcher {
	return &blockingDispatcher{
		started: make(chan dispatch.Event, 1),
		release: make(chan struct{}),
	}
}

func (d *blockingDispatcher) Dispatch(_ context.Context, event dispatch.Event) (dispatch.Outcome, error) {
	d.started <- event
	<-d.release
	return dispatch.Outcome{}, nil
}

func postWebhook(h *WebhookHandler, body string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, h.RoomMessage(c)
}

func TestRoomMessageAcknowledgesBeforeDispatchCompletes(t *testing.T) {
	dispatcher := newBlockingDispatcher()
	h := NewWebhookHandler(slog.Default(), dispatcher)

	rec, err := postWebhook(h, roomMessageBody)
	require.NoError(t, err)

	// The handler has returned and written the status, yet dispatch is
	// still parked on the release channel.
	assert.Equal(t, http.StatusOK, rec.Code)

	select {
	case event := <-dispatcher.started:
		assert.Equal(t, dispatch.Event{ClientKey: "1234", RoomID: 1337, Text: "/random0 foobar"}, event)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch never started")
	}
	close(dispatcher.release)
}

func TestRoomMessageMalformedPayload(t *testing.T) {
	dispatcher := newBlockingDispatcher()
	h := NewWebhookHandler(slog.Default(), dispatcher)

	_, err := postWebhook(h, `{"item": `)
	require.Error(t, err)

	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)

	select {
	case <-dispatcher.started:
		t.Fatal("malformed payload must not be dispatched")
	case <-time.After(50 * time.Millisecond):
	}
}

// erringDispatcher fails every dispatch and records that it ran.
type erringDispatcher struct {
	err  error
	done chan struct{}
}

func (d *erringDispatcher) Dispatch(context.Context, dispatch.Event) (dispatch.Outcome, error) {
	close(d.done)
	return dispatch.Outcome{}, d.err
}

func TestRoomMessageDispatchFailureDoesNotAffectResponse(t *testing.T) {
	dispatcher := &erringDispatcher{
		err:  &dispatch.NoShowError{Cause: assert.AnError},
		done: make(chan struct{}),
	}
	h := NewWebhookHandler(slog.Default(), dispatcher)

	rec, err := postWebhook(h, roomMessageBody)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	select {
	case <-dispatcher.done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch never ran")
	}
}
