package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/paw-chain/settlement/api"
)

const flagTTL = "ttl"

// TokenCmd issues a gateway bearer token for an address using the node's
// configured signing secret.
func TokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token [address]",
		Short: "Issue an API bearer token for an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := sdk.AccAddressFromBech32(args[0])
			if err != nil {
				return fmt.Errorf("invalid address: %w", err)
			}
			cfg, err := LoadNodeConfig(homeDir(cmd))
			if err != nil {
				return err
			}
			if cfg.API.JWTSecret == "" {
				return fmt.Errorf("api.jwt_secret is not configured; tokens signed now would not verify against the running node")
			}

			ttl := cfg.API.TokenTTL
			if raw, _ := cmd.Flags().GetString(flagTTL); raw != "" {
				ttl, err = cast.ToDurationE(raw)
				if err != nil {
					return fmt.Errorf("invalid --%s: %w", flagTTL, err)
				}
			}

			if ttl <= 0 {
				return fmt.Errorf("token ttl must be positive")
			}
			auth := api.NewAuthService([]byte(cfg.API.JWTSecret), ttl)
			token, expiresAt, err := auth.IssueToken(addr)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(struct {
				Address   string    `json:"address"`
				Token     string    `json:"token"`
				ExpiresAt time.Time `json:"expires_at"`
			}{addr.String(), token, expiresAt})
		},
	}
	cmd.Flags().String(flagTTL, "", "token lifetime, e.g. 1h (defaults to api.token_ttl)")
	return cmd
}
