package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botdeckhq/botdeck/internal/tenants"
)

type recordingCache struct {
	forgotten []string
}

func (r *recordingCache) Forget(clientKey string) {
	r.forgotten = append(r.forgotten, clientKey)
}

func newLifecycleHandler(t *testing.T) (*LifecycleHandler, *tenants.Service, *recordingCache) {
	t.Helper()
	svc := tenants.NewService(nil, tenants.NewMemoryStore())
	cache := &recordingCache{}
	h := NewLifecycleHandler(slog.Default(), svc, cache, "https://botdeck.example.com/")
	return h, svc, cache
}

func TestDescriptor(t *testing.T) {
	h, _, _ := newLifecycleHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/descriptor", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Descriptor(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	var descriptor struct {
		Key          string `json:"key"`
		Capabilities struct {
			Installable struct {
				CallbackURL string `json:"callbackUrl"`
			} `json:"installable"`
			Webhook []struct {
				URL   string `json:"url"`
				Event string `json:"event"`
			} `json:"webhook"`
		} `json:"capabilities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &descriptor))
	assert.Equal(t, "com.botdeck.addon", descriptor.Key)
	assert.Equal(t, "https://botdeck.example.com/installed", descriptor.Capabilities.Installable.CallbackURL)
	require.Len(t, descriptor.Capabilities.Webhook, 1)
	assert.Equal(t, "https://botdeck.example.com/webhook", descriptor.Capabilities.Webhook[0].URL)
	assert.Equal(t, "room_message", descriptor.Capabilities.Webhook[0].Event)
}

func TestInstalledRegistersTenant(t *testing.T) {
	h, svc, _ := newLifecycleHandler(t)

	rec, c := jsonRequest(http.MethodPost, "/installed",
		`{"oauthId": "1234", "oauthSecret": "secret", "roomId": 1337}`)
	require.NoError(t, h.Installed(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	tenant, err := svc.Get(context.Background(), "1234")
	require.NoError(t, err)
	assert.Equal(t, "secret", tenant.OAuthSecret)
	assert.Equal(t, int64(1337), tenant.RoomID)
}

func TestInstalledMissingSecret(t *testing.T) {
	h, _, _ := newLifecycleHandler(t)

	_, c := jsonRequest(http.MethodPost, "/installed", `{"oauthId": "1234"}`)
	err := h.Installed(c)
	require.Error(t, err)

	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestUninstalledRemovesTenant(t *testing.T) {
	h, svc, cache := newLifecycleHandler(t)

	require.NoError(t, svc.Register(context.Background(), tenants.Tenant{
		ClientKey:   "1234",
		OAuthSecret: "secret",
	}))

	uninstall := func() (*httptest.ResponseRecorder, error) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodDelete, "/installed/1234", strings.NewReader(""))
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("client_key")
		c.SetParamValues("1234")
		return rec, h.Uninstalled(c)
	}

	rec, err := uninstall()
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"1234"}, cache.forgotten)

	_, err = svc.Get(context.Background(), "1234")
	assert.ErrorIs(t, err, tenants.ErrTenantNotFound)

	// The platform may deliver the callback twice.
	rec, err = uninstall()
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
