package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/fadedpez/wagerescrow/internal/config"
	"github.com/fadedpez/wagerescrow/pkg/api"
	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/spf13/cobra"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <identity>",
	Short: "Issue an API bearer token for an identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.JWTSecret == "" {
			return errors.New("JWT_SECRET is not set")
		}

		token, err := api.NewJWTManager(cfg.JWTSecret).Generate(entities.Identity(args[0]), tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
}
