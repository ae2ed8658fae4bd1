package types

import (
	"fmt"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Params are the governance-controlled knobs of the settlement engine.
type Params struct {
	NativeDenom string `json:"native_denom"`
	StableDenom string `json:"stable_denom"`

	MinPriceNative math.Int `json:"min_price_native"`
	MaxPriceNative math.Int `json:"max_price_native"`
	MinPriceStable math.Int `json:"min_price_stable"`
	MaxPriceStable math.Int `json:"max_price_stable"`

	MinDepositNative math.Int `json:"min_deposit_native"`
	MinDepositStable math.Int `json:"min_deposit_stable"`

	MinProofInterval       uint64 `json:"min_proof_interval"`
	MaxProofInterval       uint64 `json:"max_proof_interval"`
	MinProvenUnitsPerProof uint64 `json:"min_proven_units_per_proof"`

	MaxSessionDurationSeconds uint64 `json:"max_session_duration_seconds"`
	DisputeWindowSeconds      uint64 `json:"dispute_window_seconds"`
	TimeoutIntervalMultiplier uint64 `json:"timeout_interval_multiplier"`

	ProtocolFeeBps      uint64 `json:"protocol_fee_bps"`
	MinEarlyCancelUnits uint64 `json:"min_early_cancel_units"`

	MinHostStake         math.Int `json:"min_host_stake"`
	MinStakeAfterSlash   math.Int `json:"min_stake_after_slash"`
	MaxSlashBps          uint64   `json:"max_slash_bps"`
	SlashCooldownSeconds uint64   `json:"slash_cooldown_seconds"`
	SlashingAuthority    string   `json:"slashing_authority,omitempty"`
	StrictContentRefs    bool     `json:"strict_content_refs"`
	MaxMetadataLength    uint64   `json:"max_metadata_length"`
	MaxEndpointLength    uint64   `json:"max_endpoint_length"`
	MaxContentRefLength  uint64   `json:"max_content_ref_length"`
	MaxModelsPerHost     uint64   `json:"max_models_per_host"`
}

// DefaultParams returns default settlement parameters
func DefaultParams() Params {
	maxNative, _ := math.NewIntFromString("22727272727273000")
	return Params{
		NativeDenom:               "upaw",
		StableDenom:               "uusdc",
		MinPriceNative:            math.NewInt(227_273),
		MaxPriceNative:            maxNative,
		MinPriceStable:            math.NewInt(1),
		MaxPriceStable:            math.NewInt(100_000_000),
		MinDepositNative:          math.NewInt(1_000_000),
		MinDepositStable:          math.NewInt(500_000),
		MinProofInterval:          100,
		MaxProofInterval:          1_000_000,
		MinProvenUnitsPerProof:    100,
		MaxSessionDurationSeconds: uint64((30 * 24 * time.Hour).Seconds()),
		DisputeWindowSeconds:      30,
		TimeoutIntervalMultiplier: 3,
		ProtocolFeeBps:            1000,
		MinEarlyCancelUnits:       100,
		MinHostStake:              math.NewInt(1_000_000),
		MinStakeAfterSlash:        math.NewInt(600_000),
		MaxSlashBps:               5000,
		SlashCooldownSeconds:      uint64((24 * time.Hour).Seconds()),
		StrictContentRefs:         false,
		MaxMetadataLength:         4096,
		MaxEndpointLength:         512,
		MaxContentRefLength:       256,
		MaxModelsPerHost:          64,
	}
}

// Validate performs basic validation of settlement parameters
func (p Params) Validate() error {
	if err := sdk.ValidateDenom(p.NativeDenom); err != nil {
		return ErrInvalidParams.Wrapf("native denom: %v", err)
	}
	if err := sdk.ValidateDenom(p.StableDenom); err != nil {
		return ErrInvalidParams.Wrapf("stable denom: %v", err)
	}
	if p.NativeDenom == p.StableDenom {
		return ErrInvalidParams.Wrap("native and stable denoms must differ")
	}
	if err := validateRange("native price", p.MinPriceNative, p.MaxPriceNative); err != nil {
		return err
	}
	if err := validateRange("stable price", p.MinPriceStable, p.MaxPriceStable); err != nil {
		return err
	}
	for name, v := range map[string]math.Int{
		"min deposit native":    p.MinDepositNative,
		"min deposit stable":    p.MinDepositStable,
		"min host stake":        p.MinHostStake,
		"min stake after slash": p.MinStakeAfterSlash,
	} {
		if v.IsNil() || !v.IsPositive() {
			return ErrInvalidParams.Wrapf("%s must be positive", name)
		}
	}
	if p.MinStakeAfterSlash.GT(p.MinHostStake) {
		return ErrInvalidParams.Wrap("min stake after slash cannot exceed min host stake")
	}
	if p.MinProofInterval == 0 || p.MinProofInterval > p.MaxProofInterval {
		return ErrInvalidParams.Wrapf("invalid proof interval range [%d, %d]", p.MinProofInterval, p.MaxProofInterval)
	}
	if p.MinProvenUnitsPerProof == 0 {
		return ErrInvalidParams.Wrap("min proven units per proof must be positive")
	}
	if p.MaxSessionDurationSeconds == 0 {
		return ErrInvalidParams.Wrap("max session duration must be positive")
	}
	if p.TimeoutIntervalMultiplier == 0 {
		return ErrInvalidParams.Wrap("timeout interval multiplier must be positive")
	}
	if p.ProtocolFeeBps > BasisPoints {
		return ErrInvalidParams.Wrapf("protocol fee %d bps exceeds %d", p.ProtocolFeeBps, BasisPoints)
	}
	if p.MaxSlashBps == 0 || p.MaxSlashBps > BasisPoints {
		return ErrInvalidParams.Wrapf("max slash %d bps out of range", p.MaxSlashBps)
	}
	if p.SlashingAuthority != "" {
		if _, err := sdk.AccAddressFromBech32(p.SlashingAuthority); err != nil {
			return ErrInvalidParams.Wrapf("slashing authority: %v", err)
		}
	}
	if p.MaxMetadataLength == 0 || p.MaxEndpointLength == 0 || p.MaxContentRefLength == 0 {
		return ErrInvalidParams.Wrap("length limits must be positive")
	}
	if p.MaxModelsPerHost == 0 {
		return ErrInvalidParams.Wrap("max models per host must be positive")
	}
	return nil
}

func validateRange(name string, lo, hi math.Int) error {
	if lo.IsNil() || hi.IsNil() {
		return ErrInvalidParams.Wrapf("%s range is unset", name)
	}
	if !lo.IsPositive() || lo.GT(hi) {
		return ErrInvalidParams.Wrapf("invalid %s range [%s, %s]", name, lo, hi)
	}
	return nil
}

// AssetClassOf maps a denom onto its pricing class.
func (p Params) AssetClassOf(denom string) (AssetClass, error) {
	switch denom {
	case p.NativeDenom:
		return AssetClassNative, nil
	case p.StableDenom:
		return AssetClassStable, nil
	default:
		return "", ErrUnknownAsset.Wrapf("denom %q", denom)
	}
}

// DenomOf returns the denom backing an asset class.
func (p Params) DenomOf(class AssetClass) (string, error) {
	switch class {
	case AssetClassNative:
		return p.NativeDenom, nil
	case AssetClassStable:
		return p.StableDenom, nil
	default:
		return "", ErrInvalidAssetClass.Wrapf("%q", class)
	}
}

// PriceRange returns the valid minimum-price bounds for an asset class.
func (p Params) PriceRange(class AssetClass) (math.Int, math.Int, error) {
	switch class {
	case AssetClassNative:
		return p.MinPriceNative, p.MaxPriceNative, nil
	case AssetClassStable:
		return p.MinPriceStable, p.MaxPriceStable, nil
	default:
		return math.Int{}, math.Int{}, ErrInvalidAssetClass.Wrapf("%q", class)
	}
}

// ValidatePrice checks that price lies within the class range.
func (p Params) ValidatePrice(class AssetClass, price math.Int) error {
	lo, hi, err := p.PriceRange(class)
	if err != nil {
		return err
	}
	if price.IsNil() || price.LT(lo) || price.GT(hi) {
		return ErrInvalidPrice.Wrapf("%s price %s outside [%s, %s]", class, price, lo, hi)
	}
	return nil
}

// MinDeposit returns the deposit floor for an asset class.
func (p Params) MinDeposit(class AssetClass) math.Int {
	if class == AssetClassNative {
		return p.MinDepositNative
	}
	return p.MinDepositStable
}

// DisputeWindow returns the host completion delay as a duration.
func (p Params) DisputeWindow() time.Duration {
	return SecondsToDuration(p.DisputeWindowSeconds)
}

// SlashCooldown returns the minimum delay between two slashes of the same host.
func (p Params) SlashCooldown() time.Duration {
	return SecondsToDuration(p.SlashCooldownSeconds)
}

// String implements fmt.Stringer for log output.
func (p Params) String() string {
	return fmt.Sprintf("native=%s stable=%s fee_bps=%d dispute_window=%ds timeout_x=%d min_stake=%s",
		p.NativeDenom, p.StableDenom, p.ProtocolFeeBps, p.DisputeWindowSeconds,
		p.TimeoutIntervalMultiplier, p.MinHostStake)
}
