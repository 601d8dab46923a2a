// Package chat delivers messages into rooms through the platform's REST
// API, authenticating per tenant with OAuth2 client credentials.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/botdeckhq/botdeck/internal/config"
	"github.com/botdeckhq/botdeck/internal/tenants"
)

const sendScope = "send_notification"

// tenantSource resolves the credentials of an installed tenant.
type tenantSource interface {
	Get(ctx context.Context, clientKey string) (tenants.Tenant, error)
}

// Client posts room notifications on behalf of tenants. Access tokens
// are cached per tenant and refreshed automatically before expiry.
type Client struct {
	tenants    tenantSource
	apiURL     string
	tokenURL   string
	httpClient *http.Client
	logger     *slog.Logger

	mu      sync.Mutex
	sources map[string]oauth2.TokenSource
}

// NewClient creates a chat delivery client. The configured API URL is
// the fallback for tenants that did not advertise their own endpoints
// at install time.
func NewClient(log *slog.Logger, cfg config.ChatConfig, source tenantSource) *Client {
	if log == nil {
		log = slog.Default()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	return &Client{
		tenants:    source,
		apiURL:     apiURL,
		tokenURL:   apiURL + "/v2/oauth/token",
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.With(slog.String("service", "chat")),
		sources:    make(map[string]oauth2.TokenSource),
	}
}

type notification struct {
	Message       string `json:"message"`
	MessageFormat string `json:"message_format"`
}

// SendMessage posts text into the room as a notification from the
// add-on.
func (c *Client) SendMessage(ctx context.Context, clientKey string, roomID int64, text string) error {
	tenant, err := c.tenants.Get(ctx, clientKey)
	if err != nil {
		return fmt.Errorf("resolve tenant %s: %w", clientKey, err)
	}

	token, err := c.tokenFor(tenant).Token()
	if err != nil {
		return fmt.Errorf("obtain token for tenant %s: %w", clientKey, err)
	}

	body, err := json.Marshal(notification{Message: text, MessageFormat: "text"})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	url := fmt.Sprintf("%s/v2/room/%d/notification", c.baseURLFor(tenant), roomID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("chat api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	c.logger.Debug("notification sent",
		slog.String("client_key", clientKey),
		slog.Int64("room_id", roomID),
	)
	return nil
}

// tokenFor returns the cached token source for the tenant, creating it
// on first use. The source refreshes expired tokens on its own.
func (c *Client) tokenFor(tenant tenants.Tenant) oauth2.TokenSource {
	c.mu.Lock()
	defer c.mu.Unlock()

	if source, ok := c.sources[tenant.ClientKey]; ok {
		return source
	}

	tokenURL := tenant.TokenURL
	if tokenURL == "" {
		tokenURL = c.tokenURL
	}
	conf := &clientcredentials.Config{
		ClientID:     tenant.ClientKey,
		ClientSecret: tenant.OAuthSecret,
		TokenURL:     tokenURL,
		Scopes:       []string{sendScope},
	}
	// The source outlives any single request, so it must not be bound
	// to a request context.
	httpCtx := context.WithValue(context.Background(), oauth2.HTTPClient, c.httpClient)
	source := conf.TokenSource(httpCtx)
	c.sources[tenant.ClientKey] = source
	return source
}

func (c *Client) baseURLFor(tenant tenants.Tenant) string {
	if tenant.APIURL != "" {
		return strings.TrimRight(tenant.APIURL, "/")
	}
	return c.apiURL
}

// Forget drops cached credentials for a tenant, typically after
// uninstall.
func (c *Client) Forget(clientKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sources, clientKey)
}
