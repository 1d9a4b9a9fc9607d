// Command reaperd runs the terminal reaper: a board of tasks counting
// down to their deadlines, and a graveyard where the expired ones wait
// a day to be raised or forgotten.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ruishinor/reaperd/internal/config"
	"github.com/ruishinor/reaperd/internal/engine"
	"github.com/ruishinor/reaperd/internal/logging"
	"github.com/ruishinor/reaperd/internal/scheduler"
	"github.com/ruishinor/reaperd/internal/storage"
	"github.com/ruishinor/reaperd/internal/update"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "reaperd failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	defaultDir, err := config.DefaultDir()
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	dir := flag.String("config", defaultDir, "configuration directory")
	flag.Parse()

	cfg, err := config.Load(*dir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.EnsureDir(cfg); err != nil {
		return fmt.Errorf("prepare config dir: %w", err)
	}

	logger, closeLog, err := logging.Setup(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer func() { _ = closeLog() }()

	repo, closeRepo := openRepository(cfg, logger)
	defer closeRepo()

	queue := scheduler.NewQueue(cfg.TimerBuffer)
	queue.Start()
	defer queue.Stop()

	eng, err := engine.New(context.Background(), repo,
		engine.WithTimers(queue),
		engine.WithLogger(logger),
	)
	if err != nil {
		// A store that cannot be read should not keep the app from
		// starting; run on memory and leave the broken file alone.
		logger.Warn("hydration failed, continuing on memory store", "error", err)
		eng, err = engine.New(context.Background(), storage.NewMemoryRepository(),
			engine.WithTimers(queue),
			engine.WithLogger(logger),
		)
		if err != nil {
			return fmt.Errorf("start engine: %w", err)
		}
	}
	defer func() {
		if cerr := eng.Close(); cerr != nil {
			logger.Error("final save failed", "error", cerr)
		}
	}()

	var notifier update.DesktopNotifier
	desktop := update.DesktopNotificationsEnabledFromEnv()
	if desktop {
		notifier = update.ExecDesktopNotifier{}
	}
	m := update.NewModelWithConfig(eng, queue, notifier, update.RuntimeConfig{
		DefaultLifespan:      cfg.DefaultDuration,
		Presets:              cfg.Presets,
		DesktopNotifications: desktop,
	})

	logger.Info("reaperd starting", "db", cfg.DBPath, "timer_buffer", cfg.TimerBuffer)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// openRepository opens the sqlite store, falling back to the in-memory
// repository when the file cannot be opened or migrated. The app stays
// usable either way; only durability across restarts is lost.
func openRepository(cfg config.Config, logger *slog.Logger) (storage.Repository, func()) {
	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		logger.Warn("sqlite unavailable, using memory store", "path", cfg.DBPath, "error", err)
		return storage.NewMemoryRepository(), func() {}
	}
	if err := storage.MigrateUp(db); err != nil {
		logger.Warn("sqlite migration failed, using memory store", "path", cfg.DBPath, "error", err)
		_ = db.Close()
		return storage.NewMemoryRepository(), func() {}
	}
	repo, err := storage.NewSQLiteRepository(db)
	if err != nil {
		logger.Warn("sqlite repository failed, using memory store", "path", cfg.DBPath, "error", err)
		_ = db.Close()
		return storage.NewMemoryRepository(), func() {}
	}
	return repo, func() { _ = repo.Close() }
}
