package main

import (
	"errors"
	"fmt"
	"time"

	"asset-inventory-api/internal/middleware"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		flagUsername string
		flagTTL      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a bearer token signed with JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := cfg.Auth.JWTSecret.Value()
			if secret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			token, err := middleware.IssueToken([]byte(secret), args[0], flagUsername, flagTTL)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagUsername, "username", "", "Username recorded in the audit trail")
	cmd.Flags().DurationVar(&flagTTL, "ttl", 24*time.Hour, "Token lifetime")

	return cmd
}
