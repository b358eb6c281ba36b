package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/dropplan/internal/config"
	"github.com/example/dropplan/internal/persistence/sqlite"
	"github.com/example/dropplan/internal/persistence/sqlite/migration"
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	out        io.Writer
}

func newRootCommand(out io.Writer) *cobra.Command {
	a := &app{out: out}
	root := &cobra.Command{
		Use:           "dropplan",
		Short:         "Project planning API with drop-plan capacity tracking",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(a.serveCommand())
	root.AddCommand(a.migrateCommand())
	root.AddCommand(a.createAdminCommand())
	root.AddCommand(a.hashPasswordCommand())
	return root
}

func (a *app) loadConfig() (config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// openStore opens the database and brings its schema up to date.
func openStore(ctx context.Context, path string, logger *slog.Logger) (*sqlite.Store, error) {
	store, err := sqlite.Open(migration.DefaultSQLiteConfig(path), logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return store, nil
}

func closeStore(store *sqlite.Store, logger *slog.Logger) {
	if err := store.Close(); err != nil {
		logger.Error("failed to close storage", "error", err)
	}
}
