package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/botdeckhq/botdeck/internal/tenants"
)

// credentialCache drops cached per-tenant API credentials, typically
// held by the chat delivery client.
type credentialCache interface {
	Forget(clientKey string)
}

// LifecycleHandler implements the add-on install contract: the
// capability descriptor plus the installed and uninstalled callbacks.
type LifecycleHandler struct {
	tenants     *tenants.Service
	credentials credentialCache
	baseURL     string
	logger      *slog.Logger
}

func NewLifecycleHandler(log *slog.Logger, service *tenants.Service, credentials credentialCache, baseURL string) *LifecycleHandler {
	return &LifecycleHandler{
		tenants:     service,
		credentials: credentials,
		baseURL:     strings.TrimRight(baseURL, "/"),
		logger:      log.With(slog.String("handler", "lifecycle")),
	}
}

func (h *LifecycleHandler) Register(e *echo.Echo) {
	e.GET("/descriptor", h.Descriptor)
	e.POST("/installed", h.Installed)
	e.DELETE("/installed/:client_key", h.Uninstalled)
}

// Descriptor serves the capability descriptor the platform reads when
// an admin installs the add-on.
func (h *LifecycleHandler) Descriptor(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"key":         "com.botdeck.addon",
		"name":        "BotDeck",
		"description": "Slash-command bots for your rooms",
		"links": map[string]string{
			"self": h.baseURL + "/descriptor",
		},
		"capabilities": map[string]any{
			"hipchatApiConsumer": map[string]any{
				"scopes": []string{"send_notification", "view_messages"},
			},
			"installable": map[string]any{
				"callbackUrl": h.baseURL + "/installed",
				"allowGlobal": false,
				"allowRoom":   true,
			},
			"webhook": []map[string]string{
				{
					"url":   h.baseURL + "/webhook",
					"event": "room_message",
					"name":  "message",
				},
			},
		},
	})
}

type installedPayload struct {
	OAuthID         string `json:"oauthId"`
	OAuthSecret     string `json:"oauthSecret"`
	CapabilitiesURL string `json:"capabilitiesUrl"`
	RoomID          int64  `json:"roomId"`
	TokenURL        string `json:"tokenUrl"`
	APIURL          string `json:"apiUrl"`
}

// Installed records the tenant the platform just provisioned.
func (h *LifecycleHandler) Installed(c echo.Context) error {
	var payload installedPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenant := tenants.Tenant{
		ClientKey:       payload.OAuthID,
		OAuthSecret:     payload.OAuthSecret,
		RoomID:          payload.RoomID,
		CapabilitiesURL: payload.CapabilitiesURL,
		TokenURL:        payload.TokenURL,
		APIURL:          payload.APIURL,
	}
	if err := h.tenants.Register(c.Request().Context(), tenant); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusOK)
}

// Uninstalled removes the tenant and any cached credentials for it.
func (h *LifecycleHandler) Uninstalled(c echo.Context) error {
	clientKey := c.Param("client_key")
	if clientKey == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "client_key is required")
	}

	if err := h.tenants.Remove(c.Request().Context(), clientKey); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if h.credentials != nil {
		h.credentials.Forget(clientKey)
	}
	return c.NoContent(http.StatusNoContent)
}
