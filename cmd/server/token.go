package main

import (
	"fmt"
	"time"

	"github.com/dkeye/WatchParty/internal/auth"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/spf13/cobra"
)

var tokenFlags struct {
	sub   string
	name  string
	admin bool
	ttl   time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development credential signed with auth.secret",
	RunE:  runToken,
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenFlags.sub, "sub", "", "subject id (required)")
	f.StringVar(&tokenFlags.name, "name", "", "display name, defaults to the subject")
	f.BoolVar(&tokenFlags.admin, "admin", false, "grant room administration")
	f.DurationVar(&tokenFlags.ttl, "ttl", 0, "lifetime, defaults to auth.token_ttl")
	_ = tokenCmd.MarkFlagRequired("sub")
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	id, err := domain.NewIdentity(tokenFlags.sub, tokenFlags.name, tokenFlags.admin)
	if err != nil {
		return err
	}
	ttl := tokenFlags.ttl
	if ttl <= 0 {
		ttl = cfg.Auth.TokenTTL
	}
	signer, err := auth.NewSigner(cfg.Auth.Secret, ttl)
	if err != nil {
		return err
	}
	tok, err := signer.Sign(id)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
	return err
}
