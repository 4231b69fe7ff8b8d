package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mazmed/portal/modules/tenancy/infrastructure/api"
	"github.com/mazmed/portal/modules/tenancy/services"
	"github.com/mazmed/portal/pkg/apiclient"
)

type resolveOutput struct {
	Host        string `json:"host"`
	Platform    bool   `json:"platform"`
	TenantID    string `json:"tenantId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	MaxUsers    int    `json:"maxUsers,omitempty"`
	MaxCases    int    `json:"maxCases,omitempty"`
	Error       string `json:"error,omitempty"`
}

func newResolveCmd() *cobra.Command {
	var (
		apiURL         string
		loopbackMarker string
		timeout        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "resolve <host>",
		Short: "Resolve a host to its tenant the way the portal does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := apiclient.New(apiclient.Options{BaseURL: apiURL, Timeout: timeout})
			resolver := services.NewResolverService(api.NewPublicConfigRepository(client), loopbackMarker)

			res, err := resolver.Resolve(cmd.Context(), args[0])
			out := resolveOutput{Host: args[0], Platform: res.Platform(), TenantID: res.TenantID}
			if err != nil {
				out.Error = err.Error()
			} else if !res.Platform() {
				out.DisplayName = res.Tenant.Name()
				out.MaxUsers = res.Tenant.MaxUsers()
				out.MaxCases = res.Tenant.MaxCases()
			}
			if werr := writeJSON(cmd.OutOrStdout(), out); werr != nil {
				return werr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&apiURL, "api-url", envOr("API_URL", "http://localhost:7071"), "backend API base URL")
	cmd.Flags().StringVar(&loopbackMarker, "loopback-marker", envOr("LOOPBACK_MARKER", "localhost"), "host label treated as the local platform host")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "backend call timeout")
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
