package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"eco-rewards/internal/application/auth"
	"eco-rewards/internal/infrastructure/config"
	otelinfra "eco-rewards/internal/infrastructure/observability/otel"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Bearer token utilities",
	}

	var userID string
	var ttl time.Duration
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a signed bearer token for a user",
		Long: `Signs a token with JWT_SECRET (and JWT_ISSUER when set) that the REST API,
the gRPC service and the event stream all accept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jwtConfig, err := config.LoadJWT()
			if err != nil {
				return err
			}

			logger := otelinfra.NewLogger(otel.Tracer("ecoctl"), otelinfra.WithOutput(os.Stderr))
			svc := auth.NewTokenApplicationService(jwtConfig, logger)

			resp, err := svc.IssueToken(cmd.Context(), &auth.IssueTokenRequest{UserID: userID, TTL: ttl})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	issue.Flags().StringVar(&userID, "user", "", "user ID to embed in the token")
	issue.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_EXPIRATION)")
	_ = issue.MarkFlagRequired("user")

	cmd.AddCommand(issue)
	return cmd
}
