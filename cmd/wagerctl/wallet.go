package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/fadedpez/wagerescrow/internal/app"
	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/spf13/cobra"
)

var (
	fundNote     string
	balanceLimit int
)

var fundCmd = &cobra.Command{
	Use:   "fund <identity> <amount>",
	Short: "Credit a wallet from outside the ledger",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[1], err)
		}
		id := entities.Identity(args[0])

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Wallets.Fund(ctx, id, amount, fundNote); err != nil {
				return err
			}
			balance, err := a.Wallets.GetBalance(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s balance: %d\n", id, balance)
			return nil
		})
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance <identity>",
	Short: "Show a wallet balance and its recent transactions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := entities.Identity(args[0])

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			balance, err := a.Wallets.GetBalance(ctx, id)
			if err != nil {
				return err
			}
			txs, err := a.Wallets.GetRecentTransactions(ctx, id, balanceLimit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s balance: %d\n", id, balance)
			if len(txs) == 0 {
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tTYPE\tFROM\tTO\tAMOUNT")
			for _, t := range txs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", t.Timestamp.Format("2006-01-02 15:04:05"), t.Type, t.From, t.To, t.Amount)
			}
			return w.Flush()
		})
	},
}

func init() {
	fundCmd.Flags().StringVar(&fundNote, "note", "operator funding", "Transaction description")
	balanceCmd.Flags().IntVar(&balanceLimit, "limit", 10, "Number of transactions to show")
}
