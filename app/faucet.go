package app

import (
	"context"
	"fmt"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// FaucetConfig gates the dev faucet. Every request dispenses AmountPerRequest;
// an address may draw again once Cooldown has passed in block time.
type FaucetConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	AmountPerRequest sdk.Coins     `mapstructure:"amount_per_request"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
}

// DefaultFaucetConfig returns a disabled faucet that would dispense 1000 of
// each default denom.
func DefaultFaucetConfig() FaucetConfig {
	return FaucetConfig{
		Enabled: false,
		AmountPerRequest: sdk.NewCoins(
			sdk.NewCoin(NativeDenom, math.NewInt(1_000_000_000)),
			sdk.NewCoin(StableDenom, math.NewInt(1_000_000_000)),
		),
		Cooldown: time.Hour,
	}
}

// Validate checks the dispensed amount when the faucet is enabled.
func (c FaucetConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.AmountPerRequest.IsZero() {
		return fmt.Errorf("faucet amount per request cannot be empty")
	}
	if err := c.AmountPerRequest.Validate(); err != nil {
		return fmt.Errorf("invalid faucet amount: %w", err)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("faucet cooldown cannot be negative")
	}
	return nil
}

// Faucet mints the configured allocation to recipient in its own block.
func (app *SettlementApp) Faucet(ctx context.Context, recipient sdk.AccAddress) (Result, error) {
	cfg := app.config.Faucet
	if !cfg.Enabled {
		return Result{}, ErrFaucetDisabled
	}
	return app.Deliver(ctx, "faucet", func(ctx sdk.Context) error {
		meta := ctx.KVStore(app.keys[MetaStoreKey])
		key := append([]byte("faucet/"), recipient...)
		if bz := meta.Get(key); bz != nil {
			var last time.Time
			if err := last.UnmarshalBinary(bz); err != nil {
				return fmt.Errorf("failed to decode faucet timestamp: %w", err)
			}
			if next := last.Add(cfg.Cooldown); ctx.BlockTime().Before(next) {
				return ErrFaucetLimit.Wrapf("%s may draw again at %s", recipient, next.Format(time.RFC3339))
			}
		}

		if err := app.BankKeeper.MintCoins(ctx, FaucetModuleName, cfg.AmountPerRequest); err != nil {
			return fmt.Errorf("failed to mint faucet coins: %w", err)
		}
		if err := app.BankKeeper.SendCoinsFromModuleToAccount(ctx, FaucetModuleName, recipient, cfg.AmountPerRequest); err != nil {
			return fmt.Errorf("failed to send faucet coins: %w", err)
		}

		bz, err := ctx.BlockTime().MarshalBinary()
		if err != nil {
			return err
		}
		meta.Set(key, bz)
		ctx.Logger().Info("faucet drip", "recipient", recipient.String(), "amount", cfg.AmountPerRequest.String())
		return nil
	})
}
