// Package tenants tracks workspaces that installed the add-on, keyed by
// the opaque client key the platform issues at install time.
package tenants

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrTenantNotFound means no tenant record exists for the client key.
var ErrTenantNotFound = errors.New("tenant not found")

// Tenant is one installation of the add-on.
type Tenant struct {
	ClientKey       string    `json:"client_key"`
	OAuthSecret     string    `json:"-"`
	RoomID          int64     `json:"room_id,omitempty"`
	CapabilitiesURL string    `json:"capabilities_url,omitempty"`
	TokenURL        string    `json:"token_url,omitempty"`
	APIURL          string    `json:"api_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Store is the persistence contract for tenant records.
type Store interface {
	UpsertTenant(ctx context.Context, tenant Tenant) error
	GetTenant(ctx context.Context, clientKey string) (Tenant, error)
	DeleteTenant(ctx context.Context, clientKey string) error
}

// Service manages tenant lifecycle records.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a tenant service on top of a store.
func NewService(log *slog.Logger, store Store) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:  store,
		logger: log.With(slog.String("service", "tenants")),
	}
}

// Register records a new installation, replacing any previous record
// for the same client key. The platform may re-deliver the installed
// callback, so this is an upsert.
func (s *Service) Register(ctx context.Context, tenant Tenant) error {
	if s.store == nil {
		return fmt.Errorf("tenant store not configured")
	}
	tenant.ClientKey = strings.TrimSpace(tenant.ClientKey)
	if tenant.ClientKey == "" {
		return fmt.Errorf("client key is required")
	}
	if strings.TrimSpace(tenant.OAuthSecret) == "" {
		return fmt.Errorf("oauth secret is required")
	}
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = time.Now().UTC()
	}
	if err := s.store.UpsertTenant(ctx, tenant); err != nil {
		return err
	}
	s.logger.Info("tenant registered", slog.String("client_key", tenant.ClientKey))
	return nil
}

// Get returns the tenant for the client key.
func (s *Service) Get(ctx context.Context, clientKey string) (Tenant, error) {
	if s.store == nil {
		return Tenant{}, fmt.Errorf("tenant store not configured")
	}
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		return Tenant{}, fmt.Errorf("client key is required")
	}
	return s.store.GetTenant(ctx, clientKey)
}

// Remove deletes the tenant record. Removing an unknown tenant is not
// an error; the platform may deliver the uninstalled callback twice.
func (s *Service) Remove(ctx context.Context, clientKey string) error {
	if s.store == nil {
		return fmt.Errorf("tenant store not configured")
	}
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		return fmt.Errorf("client key is required")
	}
	if err := s.store.DeleteTenant(ctx, clientKey); err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return nil
		}
		return err
	}
	s.logger.Info("tenant removed", slog.String("client_key", clientKey))
	return nil
}
