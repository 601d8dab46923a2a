package tenants

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the pgx-backed Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Store on the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) UpsertTenant(ctx context.Context, tenant Tenant) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tenants (client_key, oauth_secret, room_id, capabilities_url, token_url, api_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (client_key) DO UPDATE SET
		     oauth_secret = EXCLUDED.oauth_secret,
		     room_id = EXCLUDED.room_id,
		     capabilities_url = EXCLUDED.capabilities_url,
		     token_url = EXCLUDED.token_url,
		     api_url = EXCLUDED.api_url`,
		tenant.ClientKey, tenant.OAuthSecret, nullableInt64(tenant.RoomID),
		nullableText(tenant.CapabilitiesURL), nullableText(tenant.TokenURL),
		nullableText(tenant.APIURL), tenant.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert tenant: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTenant(ctx context.Context, clientKey string) (Tenant, error) {
	var (
		tenant    Tenant
		roomID    pgtype.Int8
		capsURL   pgtype.Text
		tokenURL  pgtype.Text
		apiURL    pgtype.Text
		createdAt pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx,
		`SELECT client_key, oauth_secret, room_id, capabilities_url, token_url, api_url, created_at
		 FROM tenants WHERE client_key = $1`, clientKey).
		Scan(&tenant.ClientKey, &tenant.OAuthSecret, &roomID, &capsURL, &tokenURL, &apiURL, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tenant{}, ErrTenantNotFound
		}
		return Tenant{}, fmt.Errorf("get tenant: %w", err)
	}
	if roomID.Valid {
		tenant.RoomID = roomID.Int64
	}
	tenant.CapabilitiesURL = capsURL.String
	tenant.TokenURL = tokenURL.String
	tenant.APIURL = apiURL.String
	if createdAt.Valid {
		tenant.CreatedAt = createdAt.Time
	} else {
		tenant.CreatedAt = time.Time{}
	}
	return tenant, nil
}

func (s *PostgresStore) DeleteTenant(ctx context.Context, clientKey string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tenants WHERE client_key = $1`, clientKey)
	if err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

func nullableText(value string) pgtype.Text {
	return pgtype.Text{String: value, Valid: value != ""}
}

func nullableInt64(value int64) pgtype.Int8 {
	return pgtype.Int8{Int64: value, Valid: value != 0}
}

var _ Store = (*PostgresStore)(nil)
