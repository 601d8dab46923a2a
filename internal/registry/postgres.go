package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/botdeckhq/botdeck/internal/db"
)

// PostgresStore is the pgx-backed Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Store on the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateBot(ctx context.Context, bot Bot) error {
	botUUID, err := db.ParseUUID(bot.ID)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO bots (id, name, keyword, url, homepage, email, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		botUUID, bot.Name, bot.Keyword, bot.URL, bot.Homepage, bot.Email, bot.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert bot: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetBot(ctx context.Context, id string) (Bot, error) {
	botUUID, err := db.ParseUUID(id)
	if err != nil {
		return Bot{}, ErrBotNotFound
	}
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, keyword, url, homepage, email, created_at
		 FROM bots WHERE id = $1`, botUUID)
	bot, err := scanBot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bot{}, ErrBotNotFound
		}
		return Bot{}, err
	}
	return bot, nil
}

func (s *PostgresStore) ListBots(ctx context.Context) ([]Bot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, keyword, url, homepage, email, created_at
		 FROM bots ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list bots: %w", err)
	}
	defer rows.Close()

	items := make([]Bot, 0)
	for rows.Next() {
		bot, err := scanBot(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, bot)
	}
	return items, rows.Err()
}

func (s *PostgresStore) InstallBots(ctx context.Context, clientKey string, botIDs []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin install: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, id := range botIDs {
		botUUID, err := db.ParseUUID(id)
		if err != nil {
			return ErrUnknownBot
		}
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM bots WHERE id = $1)`, botUUID).Scan(&exists); err != nil {
			return fmt.Errorf("check bot %s: %w", id, err)
		}
		if !exists {
			return ErrUnknownBot
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO installations (client_key, bot_id)
			 VALUES ($1, $2)
			 ON CONFLICT (client_key, bot_id) DO NOTHING`,
			clientKey, botUUID); err != nil {
			return fmt.Errorf("install bot %s: %w", id, err)
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) FindInstalledBotByKeyword(ctx context.Context, clientKey, keyword string) (Bot, bool, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT b.id, b.name, b.keyword, b.url, b.homepage, b.email, b.created_at
		 FROM bots b
		 JOIN installations i ON i.bot_id = b.id
		 WHERE i.client_key = $1 AND b.keyword = $2
		 ORDER BY i.installed_at
		 LIMIT 1`, clientKey, keyword)
	bot, err := scanBot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bot{}, false, nil
		}
		return Bot{}, false, err
	}
	return bot, true, nil
}

func (s *PostgresStore) KeywordExists(ctx context.Context, keyword string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bots WHERE keyword = $1)`, keyword).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("keyword lookup: %w", err)
	}
	return exists, nil
}

func scanBot(row pgx.Row) (Bot, error) {
	var (
		id        pgtype.UUID
		bot       Bot
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &bot.Name, &bot.Keyword, &bot.URL, &bot.Homepage, &bot.Email, &createdAt); err != nil {
		return Bot{}, err
	}
	bot.ID = id.String()
	if createdAt.Valid {
		bot.CreatedAt = createdAt.Time
	} else {
		bot.CreatedAt = time.Time{}
	}
	return bot, nil
}

var _ Store = (*PostgresStore)(nil)
