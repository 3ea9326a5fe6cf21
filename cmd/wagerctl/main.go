// wagerctl is the operator CLI for the wager escrow ledger.
//
// Usage:
//
//	wagerctl token <identity>             - Issue an API token
//	wagerctl fund <identity> <amount>     - Credit a wallet
//	wagerctl balance <identity>           - Show a wallet
//	wagerctl game <type> <code>           - Show an open game
//	wagerctl history <type> <code>        - Show a game's events
//	wagerctl prune                        - Drop events past retention
//	wagerctl migrate                      - Apply SQLite migrations
//	wagerctl migration create <desc>      - Start a new migration file
//	wagerctl catalog                      - List game types
//
// Configuration comes from the environment and .env, as for wagerd.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fadedpez/wagerescrow/internal/app"
	"github.com/fadedpez/wagerescrow/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "wagerctl",
	Short:         "Operate the wager escrow ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(fundCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(gameCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrationCmd)
	rootCmd.AddCommand(catalogCmd)
}

// withApp loads the configuration, wires the services and closes them after fn
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
