package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spk-docs/doctracker/internal/auth"
)

func tokenCmd(g *globalFlags) *cobra.Command {
	var (
		p   auth.Principal
		ttl time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if ttl == 0 {
				ttl = cfg.JWT.TokenTTL
			}
			tok, err := auth.IssueToken(cfg.JWT.Secret, p, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&p.Subject, "sub", "", "Token subject (required)")
	cmd.Flags().StringVar(&p.Name, "name", "", "Display name")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Lifetime (defaults to JWT_TOKEN_TTL minutes)")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
