// Package cli provides CLI commands using Bubble Tea TUI.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/bnema/shadowtab/internal/app/messaging"
	"github.com/bnema/shadowtab/internal/app/session"
	"github.com/bnema/shadowtab/internal/cli/styles"
	"github.com/bnema/shadowtab/internal/config"
	"github.com/bnema/shadowtab/internal/infrastructure/persistence/sqlite"
	"github.com/bnema/shadowtab/internal/logging"
)

// App holds CLI dependencies.
type App struct {
	Config  *config.Config
	Theme   *styles.Theme
	Manager *session.Manager
	Handler *messaging.Handler

	cfgMgr *config.Manager
	db     *sql.DB
	ctx    context.Context
}

// NewApp creates a new CLI application with all dependencies. The CLI
// runs without a tab host: it reads and manages stored sessions but
// never records new tabs.
func NewApp() (*App, error) {
	cfg, cfgMgr := loadConfig()
	theme := styles.NewTheme()

	logLevel := cfg.Logging.Level
	if envLevel := os.Getenv("SHADOWTAB_LOG_LEVEL"); envLevel != "" {
		logLevel = envLevel
	}
	logger := logging.New(logging.Config{
		Level:      logging.ParseLevel(logLevel),
		Format:     cfg.Logging.Format,
		TimeFormat: "15:04:05",
	})
	ctx := logging.WithContext(context.Background(), logger)
	ctx = logging.WithNamespace(ctx, cfg.Session.Namespace)

	db, err := sqlite.NewConnection(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	repo := sqlite.NewStoreRepository(db, cfg.Session.Namespace)
	manager := session.New(repo, nil, session.Options{
		Namespace:     cfg.Session.Namespace,
		Logger:        logger,
		DebounceDelay: cfg.Session.DebounceDelay,
	})
	if !manager.Initialize(ctx) {
		logger.Warn().Msg("session manager initialized with degraded state")
	}

	handler := messaging.NewHandler(manager, nil, logger)

	return &App{
		Config:  cfg,
		Theme:   theme,
		Manager: manager,
		Handler: handler,
		cfgMgr:  cfgMgr,
		db:      db,
		ctx:     ctx,
	}, nil
}

// ConfigManager returns the live config manager, or nil when the app is
// running on built-in defaults because no config could be loaded.
func (a *App) ConfigManager() *config.Manager {
	return a.cfgMgr
}

// Close releases all resources.
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Ctx returns the application context with logger.
func (a *App) Ctx() context.Context {
	return a.ctx
}

// loadConfig loads configuration from standard locations. The returned
// manager is nil when loading fell back to built-in defaults.
func loadConfig() (*config.Config, *config.Manager) {
	bootlog := logging.NewFromEnv()
	mgr, err := config.NewManager()
	if err != nil {
		bootlog.Warn().Err(err).Msg("config manager unavailable, using defaults")
		return config.DefaultConfig(), nil
	}
	if err := mgr.Load(); err != nil {
		bootlog.Warn().Err(err).Msg("config load failed, using defaults")
		return config.DefaultConfig(), nil
	}
	return mgr.Get(), mgr
}
