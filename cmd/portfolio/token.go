package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio/internal/server"
)

var tokenSubject string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the analytics summary endpoint",
	Long:  "Signs a token with the configured jwt_secret. The token grants read access to GET /api/analytics/summary until it expires.",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "owner", "Subject recorded in the token")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(commandContext(cmd))
	if err != nil {
		return err
	}

	jwtCfg, err := cfg.JWT()
	if err != nil {
		return err
	}
	if jwtCfg == nil {
		return errors.New("jwt_secret is not configured (set PORTFOLIO_JWT_SECRET)")
	}

	token, err := server.NewJWTService(jwtCfg).GenerateToken(tokenSubject)
	if err != nil {
		return fmt.Errorf("failed to mint token: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}
