package tenants

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndGet(t *testing.T) {
	svc := NewService(nil, NewMemoryStore())

	err := svc.Register(context.Background(), Tenant{
		ClientKey:   "1234",
		OAuthSecret: "secret",
		RoomID:      1337,
		TokenURL:    "https://chat.example.com/v2/oauth/token",
		APIURL:      "https://chat.example.com",
	})
	require.NoError(t, err)

	tenant, err := svc.Get(context.Background(), "1234")
	require.NoError(t, err)
	assert.Equal(t, "secret", tenant.OAuthSecret)
	assert.Equal(t, int64(1337), tenant.RoomID)
	assert.False(t, tenant.CreatedAt.IsZero(), "created_at defaults to now")
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(nil, NewMemoryStore())

	tests := []struct {
		name   string
		tenant Tenant
	}{
		{"missing client key", Tenant{OAuthSecret: "secret"}},
		{"blank client key", Tenant{ClientKey: "   ", OAuthSecret: "secret"}},
		{"missing oauth secret", Tenant{ClientKey: "1234"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, svc.Register(context.Background(), tt.tenant))
		})
	}
}

func TestRegisterReplacesPreviousInstall(t *testing.T) {
	svc := NewService(nil, NewMemoryStore())

	require.NoError(t, svc.Register(context.Background(), Tenant{ClientKey: "1234", OAuthSecret: "old"}))
	require.NoError(t, svc.Register(context.Background(), Tenant{ClientKey: "1234", OAuthSecret: "new"}))

	tenant, err := svc.Get(context.Background(), "1234")
	require.NoError(t, err)
	assert.Equal(t, "new", tenant.OAuthSecret)
}

func TestGetUnknownTenant(t *testing.T) {
	svc := NewService(nil, NewMemoryStore())

	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestRemoveIsIdempotent(t *testing.T) {
	svc := NewService(nil, NewMemoryStore())

	require.NoError(t, svc.Register(context.Background(), Tenant{ClientKey: "1234", OAuthSecret: "secret"}))
	require.NoError(t, svc.Remove(context.Background(), "1234"))
	require.NoError(t, svc.Remove(context.Background(), "1234"), "second uninstall callback is tolerated")

	_, err := svc.Get(context.Background(), "1234")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}
