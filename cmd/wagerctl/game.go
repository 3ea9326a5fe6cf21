package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/fadedpez/wagerescrow/internal/app"
	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historyPlayer string
)

var gameCmd = &cobra.Command{
	Use:   "game <type> <code>",
	Short: "Show an open game and its escrow",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			gameType, err := a.Games.Catalog().ParseGameType(args[0])
			if err != nil {
				return err
			}
			view, err := a.Games.GetGame(ctx, gameType, args[1])
			if err != nil {
				return err
			}

			rec := view.Record
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s at %s\n", view.Name, rec.Code, rec.Address)
			fmt.Fprintf(out, "wager %d, escrow %d, players %d/%d (min %d)\n",
				rec.Wager, view.Escrow, rec.PlayersJoined, rec.MaxPlayers, rec.MinPlayers)
			for i, id := range rec.JoinedPlayers() {
				fmt.Fprintf(out, "  %d %-6s %s\n", i, rec.Markers[i], id)
			}
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [<type> <code>]",
	Short: "Show recorded events for a game, or for a player with --player",
	Args: func(cmd *cobra.Command, args []string) error {
		if historyPlayer != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			var (
				events []*entities.GameEvent
				err    error
			)
			if historyPlayer != "" {
				events, err = a.Games.PlayerHistory(ctx, entities.Identity(historyPlayer), historyLimit)
			} else {
				gameType, perr := a.Games.Catalog().ParseGameType(args[0])
				if perr != nil {
					return perr
				}
				events, err = a.Games.GameHistory(ctx, gameType, args[1], historyLimit)
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tEVENT\tGAME\tACTOR\tAMOUNT\tWINNER")
			for _, e := range events {
				fmt.Fprintf(w, "%s\t%s\t%s/%s\t%s\t%d\t%s\n",
					e.Timestamp.Format("2006-01-02 15:04:05"), e.Type, a.Games.Catalog().Name(e.GameType), e.Code, e.Actor, e.Amount, e.Winner)
			}
			return w.Flush()
		})
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the supported game types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPLAYERS\tMARKERS")
			for _, e := range a.Games.Catalog().Entries() {
				fmt.Fprintf(w, "%d\t%s\t%d-%d\t%v\n", e.Type, e.Name, e.Limits.Min, e.Limits.Max, e.Markers)
			}
			return w.Flush()
		})
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of events to show")
	historyCmd.Flags().StringVar(&historyPlayer, "player", "", "Show events involving this identity")
}
