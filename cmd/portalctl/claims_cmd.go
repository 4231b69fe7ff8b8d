package main

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mazmed/portal/modules/identity/domain/session"
	"github.com/mazmed/portal/modules/identity/infrastructure/oidc"
	"github.com/mazmed/portal/pkg/configuration"
)

type claimsOutput struct {
	Username      string         `json:"username"`
	Name          string         `json:"name,omitempty"`
	TenantID      string         `json:"tenantId,omitempty"`
	PlatformAdmin bool           `json:"platformAdmin"`
	ExpiresAt     *time.Time     `json:"expiresAt,omitempty"`
	Validated     bool           `json:"validated"`
	Claims        map[string]any `json:"claims"`
}

func newClaimsCmd() *cobra.Command {
	var (
		clientID string
		issuer   string
	)

	cmd := &cobra.Command{
		Use:   "claims <id_token>",
		Short: "Show the portal identity derived from an ID token",
		Long: "Decodes the token without verifying its signature. With --client-id the " +
			"audience, issuer and expiry are validated as at sign-in.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := args[0]
			var (
				claims    map[string]any
				expiry    *time.Time
				validated bool
			)
			if clientID != "" {
				provider := oidc.NewProvider(configuration.OIDCOptions{ClientID: clientID, Issuer: issuer}, nil)
				tok, err := provider.ParseIDToken(raw, "")
				if err != nil {
					return err
				}
				claims, expiry, validated = tok.Claims, &tok.Expiry, true
			} else {
				mc := jwt.MapClaims{}
				if _, _, err := jwt.NewParser().ParseUnverified(raw, mc); err != nil {
					return errors.Wrap(err, "decode id_token")
				}
				if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
					expiry = &exp.Time
				}
				claims = mc
			}

			ident := session.FromClaims(claims)
			return writeJSON(cmd.OutOrStdout(), claimsOutput{
				Username:      ident.Username(),
				Name:          ident.Name(),
				TenantID:      ident.TenantID(),
				PlatformAdmin: ident.IsPlatformAdmin(),
				ExpiresAt:     expiry,
				Validated:     validated,
				Claims:        ident.Claims(),
			})
		},
	}
	cmd.Flags().StringVar(&clientID, "client-id", "", "validate the audience against this client id")
	cmd.Flags().StringVar(&issuer, "issuer", "", "expected issuer when validating")
	return cmd
}
