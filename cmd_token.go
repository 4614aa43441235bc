package main

import (
	"fmt"
	"time"

	"rigcheck/internal/config"

	"github.com/spf13/cobra"
)

var tokenUser string // Owner id embedded in the token

// tokenCmd mints build-owner tokens; the HTTP API has no token endpoint.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the saved-builds API",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id that will own saved builds")
	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	auth, err := newAuthService(cfg)
	if err != nil {
		return err
	}
	token, expiresAt, err := auth.GenerateToken(tokenUser)
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, token)
	fmt.Fprintf(out, "user:    %s\n", tokenUser)
	fmt.Fprintf(out, "expires: %s\n", expiresAt.Format(time.RFC3339))
	fmt.Fprintf(out, "ws:      ws://%s/ws?token=%s\n", cfg.Server.Addr, token)
	return nil
}
