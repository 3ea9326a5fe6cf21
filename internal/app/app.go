package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/fadedpez/wagerescrow/internal/bot"
	"github.com/fadedpez/wagerescrow/internal/config"
	"github.com/fadedpez/wagerescrow/internal/discord"
	"github.com/fadedpez/wagerescrow/internal/logging"
	"github.com/fadedpez/wagerescrow/pkg/api"
	"github.com/fadedpez/wagerescrow/pkg/authority"
	"github.com/fadedpez/wagerescrow/pkg/catalog"
	"github.com/fadedpez/wagerescrow/pkg/repositories/history"
	"github.com/fadedpez/wagerescrow/pkg/repositories/ledger"
	"github.com/fadedpez/wagerescrow/pkg/scheduler"
	"github.com/fadedpez/wagerescrow/pkg/services/escrow"
	"github.com/fadedpez/wagerescrow/pkg/services/wager"
	"github.com/fadedpez/wagerescrow/pkg/services/wallet"
)

// App is the wired set of services behind every surface
type App struct {
	Config  *config.Config
	Store   ledger.Store
	History history.Repository
	Games   *wager.Service
	Wallets *wallet.Service

	logger *logging.Logger
}

// New opens storage and wires the lifecycle services described by cfg
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.Default.WithPrefix("APP")

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	events, err := openHistory(ctx, cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	custody, err := escrow.New(cfg.Custody, escrow.ReserveSchedule{
		PerByteYear:        cfg.RentPerByteYear,
		ExemptionThreshold: cfg.RentExemptionThreshold,
	})
	if err != nil {
		events.Close()
		store.Close()
		return nil, err
	}

	auth, err := authority.FromConfig(cfg.AuthorityMode, cfg.Authorities, cfg.AuthorityAdmin)
	if err != nil {
		events.Close()
		store.Close()
		return nil, err
	}

	games := wager.NewService(store, catalog.Default(), auth, custody, wager.Options{
		AllowAddressReuse: cfg.AllowAddressReuse,
		History:           events,
	})

	logger.Info("Storage %s, %s custody, %s authority", cfg.StorageType, custody.Kind(), auth.Mode())
	return &App{
		Config:  cfg,
		Store:   store,
		History: events,
		Games:   games,
		Wallets: wallet.NewService(store, cfg.StartingBalance),
		logger:  logger,
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (ledger.Store, error) {
	switch cfg.StorageType {
	case "sqlite":
		return ledger.NewSQLiteStore(ctx, cfg.SQLitePath)
	case "postgres":
		return ledger.NewPostgresStore(ctx, cfg.DatabaseURL)
	case "", "memory":
		return ledger.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}
}

// openHistory keeps events next to the ledger's database, mirrored into
// Elasticsearch when configured
func openHistory(ctx context.Context, cfg *config.Config, store ledger.Store, logger *logging.Logger) (history.Repository, error) {
	var base history.Repository
	switch s := store.(type) {
	case *ledger.SQLiteStore:
		base = history.NewSQLiteRepositoryFromDB(s.DB())
	case *ledger.PostgresStore:
		repo, err := history.NewPostgresRepository(ctx, s.DB())
		if err != nil {
			return nil, err
		}
		base = repo
	default:
		if cfg.ElasticsearchURL == "" {
			logger.Debug("Game history is kept in memory")
		}
		base = history.NewMemoryRepository()
	}

	if cfg.ElasticsearchURL == "" {
		return base, nil
	}

	es, err := history.NewElasticsearchRepository(base, &history.ElasticsearchConfig{
		URL:         cfg.ElasticsearchURL,
		Username:    cfg.ElasticsearchUsername,
		Password:    cfg.ElasticsearchPassword,
		IndexPrefix: cfg.ElasticsearchIndexPrefix,
	})
	if err != nil {
		return nil, err
	}
	return es, nil
}

// Run serves the configured surfaces until ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	if a.Config.HTTPAddr == "" && a.Config.Token == "" {
		return errors.New("nothing to serve: set HTTP_ADDR and/or DISCORD_TOKEN")
	}

	maintenance := scheduler.NewHistoryMaintenanceScheduler(a.History, a.Config.HistoryRetention, 0)
	maintenance.Start(ctx)
	defer maintenance.Stop()

	if a.Config.Token != "" {
		session, err := discord.NewSession(a.Config.Token)
		if err != nil {
			return fmt.Errorf("failed to create Discord session: %w", err)
		}
		discordBot := bot.New(a.Config, session, a.Games, a.Wallets)
		if err := discordBot.Start(); err != nil {
			return err
		}
		defer discordBot.Shutdown()
		a.logger.Info("Discord bot is running")
	}

	if a.Config.HTTPAddr != "" {
		server := api.NewServer(a.Games, a.Wallets, api.NewJWTManager(a.Config.JWTSecret), api.Options{
			AllowFunding: a.Config.IsDevelopment(),
		})
		return server.Run(ctx, a.Config.HTTPAddr)
	}

	<-ctx.Done()
	return nil
}

// Close releases history and storage
func (a *App) Close() error {
	return errors.Join(a.History.Close(), a.Store.Close())
}
