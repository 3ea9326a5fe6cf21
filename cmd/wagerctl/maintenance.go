package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fadedpez/wagerescrow/internal/app"
	"github.com/fadedpez/wagerescrow/internal/config"
	"github.com/fadedpez/wagerescrow/pkg/db/migrations"
	"github.com/spf13/cobra"

	_ "github.com/mattn/go-sqlite3"
)

var (
	pruneOlderThan time.Duration
	migrationsDir  string
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete recorded events older than the retention window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			retention := a.Config.HistoryRetention
			if pruneOlderThan > 0 {
				retention = pruneOlderThan
			}
			cutoff := time.Now().Add(-retention)

			n, err := a.History.Prune(ctx, cutoff)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d events older than %s\n", n, cutoff.Format(time.RFC3339))
			return nil
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQLite migrations to SQLITE_PATH",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.StorageType != "sqlite" {
			return errors.New("migrate applies to STORAGE_TYPE=sqlite; postgres migrates on startup")
		}

		// Ensure database directory exists
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return fmt.Errorf("error creating database directory: %w", err)
		}

		db, err := sql.Open("sqlite3", cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("error opening database: %w", err)
		}
		defer db.Close()

		if err := migrations.NewMigrator(db, migrations.SQLite()).MigrateUp(cmd.Context()); err != nil {
			return fmt.Errorf("error applying migrations: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied successfully!")
		return nil
	},
}

var migrationCmd = &cobra.Command{
	Use:   "migration",
	Short: "Manage migration files",
}

var migrationCreateCmd = &cobra.Command{
	Use:   "create <description>",
	Short: "Create the next numbered migration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath, err := migrations.CreateMigration(migrationsDir, args[0])
		if err != nil {
			return fmt.Errorf("error creating migration: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created migration file: %s\n", filePath)
		fmt.Fprintln(cmd.OutOrStdout(), "Edit this file to add your database schema changes.")
		return nil
	},
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "Override HISTORY_RETENTION")
	migrationCreateCmd.Flags().StringVar(&migrationsDir, "dir", filepath.Join("pkg", "db", "migrations", "sqlite"), "Directory to store migrations")
	migrationCmd.AddCommand(migrationCreateCmd)
}
