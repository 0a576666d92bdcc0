package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/aquadose/aquadose/internal/auth"
	"github.com/aquadose/aquadose/internal/config"
)

type tokenOptions struct {
	subject string
	role    string
	ttl     time.Duration
}

func newTokenCmd() *cobra.Command {
	var o tokenOptions

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator token for the admin API",
		Long: `token signs an operator JWT with the key in JWT_SIGNING_KEY, using the
same issuer and audience settings as the API server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.UsesDevSigningKey() {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: signing with the development key")
			}
			return runToken(cmd.OutOrStdout(), cmd.ErrOrStderr(), auth.NewJWTService(cfg.JWT()), o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.subject, "subject", "", "operator identity, e.g. an email address")
	f.StringVar(&o.role, "role", auth.RoleViewer, "operator role: admin or viewer")
	f.DurationVar(&o.ttl, "ttl", auth.DefaultTokenExpiry, "token lifetime, capped at 24h")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func runToken(out, errOut io.Writer, jwtService *auth.JWTService, o tokenOptions) error {
	token, expiresAt, err := jwtService.GenerateAccessToken(o.subject, o.role, o.ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	fmt.Fprintf(errOut, "expires %s\n", expiresAt.UTC().Format(time.RFC3339))
	return nil
}
