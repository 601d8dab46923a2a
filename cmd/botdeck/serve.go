package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/botdeckhq/botdeck/internal/botclient"
	"github.com/botdeckhq/botdeck/internal/chat"
	"github.com/botdeckhq/botdeck/internal/config"
	"github.com/botdeckhq/botdeck/internal/db"
	"github.com/botdeckhq/botdeck/internal/dispatch"
	"github.com/botdeckhq/botdeck/internal/handlers"
	"github.com/botdeckhq/botdeck/internal/logger"
	"github.com/botdeckhq/botdeck/internal/matcher"
	"github.com/botdeckhq/botdeck/internal/notify"
	"github.com/botdeckhq/botdeck/internal/registry"
	"github.com/botdeckhq/botdeck/internal/server"
	"github.com/botdeckhq/botdeck/internal/tenants"
	"github.com/botdeckhq/botdeck/internal/version"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideStores,
			provideRegistryService,
			provideTenantsService,
			provideChatClient,
			provideBotClient,
			provideMatcher,
			provideEngine,
			provideServerHandler(providePingHandler),
			provideServerHandler(provideWebhookHandler),
			provideServerHandler(provideBotsHandler),
			provideServerHandler(provideLifecycleHandler),
			provideServer,
		),
		fx.Invoke(
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return config.Config{}, fmt.Errorf("auth.jwt_secret is required")
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

// provideStores selects the persistence backend. The postgres driver
// migrates the schema on startup and closes the pool on shutdown; the
// memory driver keeps everything in-process.
func provideStores(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) (registry.Store, tenants.Store, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return registry.NewMemoryStore(), tenants.NewMemoryStore(), nil
	}

	if err := db.Migrate(log, cfg.Postgres); err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})
	return registry.NewPostgresStore(pool), tenants.NewPostgresStore(pool), nil
}

func provideRegistryService(log *slog.Logger, store registry.Store, cfg config.Config) *registry.Service {
	svc := registry.NewService(log, store)
	if cfg.Mailgun.APIKey != "" && cfg.Mailgun.Domain != "" {
		svc.SetNotifier(notify.NewMailer(log, cfg.Mailgun))
	} else {
		svc.SetNotifier(notify.Noop{})
	}
	return svc
}

func provideTenantsService(log *slog.Logger, store tenants.Store) *tenants.Service {
	return tenants.NewService(log, store)
}

func provideChatClient(log *slog.Logger, cfg config.Config, tenantsService *tenants.Service) *chat.Client {
	return chat.NewClient(log, cfg.Chat, tenantsService)
}

func provideBotClient(log *slog.Logger, cfg config.Config) *botclient.Client {
	return botclient.NewClient(log, time.Duration(cfg.Chat.TimeoutSeconds)*time.Second)
}

func provideMatcher(log *slog.Logger, registryService *registry.Service) *matcher.Matcher {
	return matcher.New(log, registryService)
}

func provideEngine(log *slog.Logger, m *matcher.Matcher, invoker *botclient.Client, sender *chat.Client) *dispatch.Engine {
	return dispatch.NewEngine(log, m, invoker, sender)
}

func providePingHandler(log *slog.Logger) *handlers.PingHandler {
	return handlers.NewPingHandler(log)
}

func provideWebhookHandler(log *slog.Logger, engine *dispatch.Engine) *handlers.WebhookHandler {
	return handlers.NewWebhookHandler(log, engine)
}

func provideBotsHandler(log *slog.Logger, registryService *registry.Service) *handlers.BotsHandler {
	return handlers.NewBotsHandler(log, registryService)
}

func provideLifecycleHandler(log *slog.Logger, tenantsService *tenants.Service, credentials *chat.Client, cfg config.Config) *handlers.LifecycleHandler {
	return handlers.NewLifecycleHandler(log, tenantsService, credentials, cfg.Server.BaseURL)
}

type serverParams struct {
	fx.In
	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.New(params.Logger, params.Config, params.ServerHandlers)
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting BotDeck %s\n", version.Info())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
