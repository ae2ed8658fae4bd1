package types

import (
	"strings"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Message type names
const (
	TypeMsgRegisterHost          = "register_host"
	TypeMsgUpdatePricing         = "update_pricing"
	TypeMsgSetModelPricing       = "set_model_pricing"
	TypeMsgClearModelPricing     = "clear_model_pricing"
	TypeMsgUpdateMetadata        = "update_metadata"
	TypeMsgUpdateEndpoint        = "update_endpoint"
	TypeMsgUpdateSupportedModels = "update_supported_models"
	TypeMsgAddStake              = "add_stake"
	TypeMsgUnregisterHost        = "unregister_host"
	TypeMsgSlashHost             = "slash_host"
	TypeMsgCreateSession         = "create_session"
	TypeMsgCreateSessionForPayer = "create_session_for_payer"
	TypeMsgSubmitProof           = "submit_proof"
	TypeMsgCompleteSession       = "complete_session"
	TypeMsgTriggerTimeout        = "trigger_timeout"
	TypeMsgWithdrawEarnings      = "withdraw_earnings"
	TypeMsgWithdrawAllEarnings   = "withdraw_all_earnings"
	TypeMsgSetDelegate           = "set_delegate"
	TypeMsgWithdrawTreasury      = "withdraw_treasury"
	TypeMsgUpdateParams          = "update_params"
)

func validateAddress(field, addr string) error {
	if _, err := sdk.AccAddressFromBech32(addr); err != nil {
		return ErrInvalidAddress.Wrapf("%s: %v", field, err)
	}
	return nil
}

func validateModelList(modelIDs []string) error {
	if len(modelIDs) == 0 {
		return ErrNoModels
	}
	seen := make(map[string]struct{}, len(modelIDs))
	for _, id := range modelIDs {
		if strings.TrimSpace(id) == "" {
			return ErrModelNotApproved.Wrap("empty model id")
		}
		if _, dup := seen[id]; dup {
			return ErrDuplicateModel.Wrapf("model %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func validatePositive(field string, v math.Int) error {
	if v.IsNil() || !v.IsPositive() {
		return ErrInvalidAmount.Wrapf("%s must be positive", field)
	}
	return ValidateAmountBitLen(field, v)
}

// ValidateAmountBitLen rejects amounts wider than MaxAmountBitLen bits.
func ValidateAmountBitLen(field string, v math.Int) error {
	if v.IsNil() {
		return ErrInvalidAmount.Wrapf("%s is required", field)
	}
	if n := v.BigInt().BitLen(); n > MaxAmountBitLen {
		return ErrInvalidAmount.Wrapf("%s is %d bits wide, limit %d", field, n, MaxAmountBitLen)
	}
	return nil
}

// MsgRegisterHost registers the sender as a host and escrows its stake.
type MsgRegisterHost struct {
	Host           string   `json:"host"`
	Metadata       string   `json:"metadata"`
	Endpoint       string   `json:"endpoint"`
	ModelIDs       []string `json:"model_ids"`
	MinPriceNative math.Int `json:"min_price_native"`
	MinPriceStable math.Int `json:"min_price_stable"`
}

func (msg MsgRegisterHost) ValidateBasic() error {
	if err := validateAddress("host", msg.Host); err != nil {
		return err
	}
	if err := validateModelList(msg.ModelIDs); err != nil {
		return err
	}
	if err := validatePositive("min price native", msg.MinPriceNative); err != nil {
		return ErrInvalidPrice.Wrap(err.Error())
	}
	if err := validatePositive("min price stable", msg.MinPriceStable); err != nil {
		return ErrInvalidPrice.Wrap(err.Error())
	}
	return nil
}

// MsgUpdatePricing sets the host-level minimum price for an asset class.
type MsgUpdatePricing struct {
	Host     string     `json:"host"`
	Class    AssetClass `json:"class"`
	MinPrice math.Int   `json:"min_price"`
}

func (msg MsgUpdatePricing) ValidateBasic() error {
	if err := validateAddress("host", msg.Host); err != nil {
		return err
	}
	if err := msg.Class.Validate(); err != nil {
		return err
	}
	if err := validatePositive("min price", msg.MinPrice); err != nil {
		return ErrInvalidPrice.Wrap(err.Error())
	}
	return nil
}

// MsgSetModelPricing sets an explicit per-(model, class) minimum price.
type MsgSetModelPricing struct {
	Host     string     `json:"host"`
	ModelID  string     `json:"model_id"`
	Class    AssetClass `json:"class"`
	MinPrice math.Int   `json:"min_price"`
}

func (msg MsgSetModelPricing) ValidateBasic() error {
	if err := validateAddress("host", msg.Host); err != nil {
		return err
	}
	if msg.ModelID == "" {
		return ErrModelNotSupported.Wrap("model id required")
	}
	if err := msg.Class.Validate(); err != nil {
		return err
	}
	if err := validatePositive("min price", msg.MinPrice); err != nil {
		return ErrInvalidPrice.Wrap(err.Error())
	}
	return nil
}

// MsgClearModelPricing removes a per-(model, class) price.
type MsgClearModelPricing struct {
	Host    string     `json:"host"`
	ModelID string     `json:"model_id"`
	Class   AssetClass `json:"class"`
}

func (msg MsgClearModelPricing) ValidateBasic() error {
	if err := validateAddress("host", msg.Host); err != nil {
		return err
	}
	if msg.ModelID == "" {
		return ErrModelNotSupported.Wrap("model id required")
	}
	return msg.Class.Validate()
}

// MsgUpdateMetadata replaces the host's metadata blob.
type MsgUpdateMetadata struct {
	Host     string `json:"host"`
	Metadata string `json:"metadata"`
}

func (msg MsgUpdateMetadata) ValidateBasic() error {
	return validateAddress("host", msg.Host)
}

// MsgUpdateEndpoint replaces the host's API endpoint.
type MsgUpdateEndpoint struct {
	Host     string `json:"host"`
	Endpoint string `json:"endpoint"`
}

func (msg MsgUpdateEndpoint) ValidateBasic() error {
	return validateAddress("host", msg.Host)
}

// MsgUpdateSupportedModels replaces the host's supported model list.
type MsgUpdateSupportedModels struct {
	Host     string   `json:"host"`
	ModelIDs []string `json:"model_ids"`
}

func (msg MsgUpdateSupportedModels) ValidateBasic() error {
	if err := validateAddress("host", msg.Host); err != nil {
		return err
	}
	return validateModelList(msg.ModelIDs)
}

// MsgAddStake tops up the host's stake in the native denom.
type MsgAddStake struct {
	Host   string   `json:"host"`
	Amount math.Int `json:"amount"`
}

func (msg MsgAddStake) ValidateBasic() error {
	if err := validateAddress("host", msg.Host); err != nil {
		return err
	}
	return validatePositive("amount", msg.Amount)
}

// MsgUnregisterHost removes the host and returns its stake.
type MsgUnregisterHost struct {
	Host string `json:"host"`
}

func (msg MsgUnregisterHost) ValidateBasic() error {
	return validateAddress("host", msg.Host)
}

// MsgSlashHost penalizes a host's stake.
type MsgSlashHost struct {
	Authority   string   `json:"authority"`
	Host        string   `json:"host"`
	Amount      math.Int `json:"amount"`
	EvidenceRef string   `json:"evidence_ref"`
	Reason      string   `json:"reason"`
}

func (msg MsgSlashHost) ValidateBasic() error {
	if err := validateAddress("authority", msg.Authority); err != nil {
		return err
	}
	if err := validateAddress("host", msg.Host); err != nil {
		return err
	}
	if err := validatePositive("slash amount", msg.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(msg.EvidenceRef) == "" || strings.TrimSpace(msg.Reason) == "" {
		return ErrInvalidEvidence.Wrap("evidence and reason are required")
	}
	return nil
}

// SessionTerms are the economic terms requested when opening a session.
type SessionTerms struct {
	Host               string   `json:"host"`
	ModelID            string   `json:"model_id,omitempty"`
	Denom              string   `json:"denom"`
	Deposit            math.Int `json:"deposit"`
	PricePerUnit       math.Int `json:"price_per_unit"`
	MaxDurationSeconds uint64   `json:"max_duration_seconds"`
	ProofInterval      uint64   `json:"proof_interval"`
}

// ValidateBasic performs stateless checks on the terms.
func (t SessionTerms) ValidateBasic() error {
	if err := validateAddress("host", t.Host); err != nil {
		return err
	}
	if err := sdk.ValidateDenom(t.Denom); err != nil {
		return ErrUnknownAsset.Wrap(err.Error())
	}
	if t.Deposit.IsNil() || !t.Deposit.IsPositive() {
		return ErrDepositTooLow.Wrap("deposit must be positive")
	}
	if t.PricePerUnit.IsNil() || !t.PricePerUnit.IsPositive() {
		return ErrInvalidPrice.Wrap("price per unit must be positive")
	}
	if err := ValidateAmountBitLen("deposit", t.Deposit); err != nil {
		return err
	}
	if err := ValidateAmountBitLen("price per unit", t.PricePerUnit); err != nil {
		return err
	}
	if t.MaxDurationSeconds == 0 {
		return ErrInvalidDuration.Wrap("max duration must be positive")
	}
	if t.ProofInterval == 0 {
		return ErrInvalidProofInterval.Wrap("proof interval must be positive")
	}
	return nil
}

// MsgCreateSession opens a session funded by the sender.
type MsgCreateSession struct {
	Depositor string       `json:"depositor"`
	Terms     SessionTerms `json:"terms"`
}

func (msg MsgCreateSession) ValidateBasic() error {
	if err := validateAddress("depositor", msg.Depositor); err != nil {
		return err
	}
	return msg.Terms.ValidateBasic()
}

// MsgCreateSessionForPayer opens a session funded by payer on behalf of the sender.
type MsgCreateSessionForPayer struct {
	Creator string       `json:"creator"`
	Payer   string       `json:"payer"`
	Terms   SessionTerms `json:"terms"`
}

func (msg MsgCreateSessionForPayer) ValidateBasic() error {
	if err := validateAddress("creator", msg.Creator); err != nil {
		return err
	}
	if err := validateAddress("payer", msg.Payer); err != nil {
		return err
	}
	return msg.Terms.ValidateBasic()
}

// MsgCreateSessionResponse carries the new session id.
type MsgCreateSessionResponse struct {
	SessionID uint64 `json:"session_id"`
}

// MsgSubmitProof records a proof checkpoint for a session.
type MsgSubmitProof struct {
	Host         string `json:"host"`
	SessionID    uint64 `json:"session_id"`
	UnitsClaimed uint64 `json:"units_claimed"`
	ProofHash    string `json:"proof_hash"`
	ProofRef     string `json:"proof_ref,omitempty"`
	DeltaRef     string `json:"delta_ref,omitempty"`
}

func (msg MsgSubmitProof) ValidateBasic() error {
	if err := validateAddress("host", msg.Host); err != nil {
		return err
	}
	if msg.SessionID == 0 {
		return ErrSessionNotFound.Wrap("session id cannot be zero")
	}
	if msg.UnitsClaimed == 0 {
		return ErrUnitsBelowMinimum.Wrap("units claimed must be positive")
	}
	_, err := DecodeProofHash(msg.ProofHash)
	return err
}

// MsgSubmitProofResponse reports the session's running total.
type MsgSubmitProofResponse struct {
	ProvenUnits uint64 `json:"proven_units"`
	ProofCount  uint64 `json:"proof_count"`
}

// MsgCompleteSession ends a session through the normal completion path.
type MsgCompleteSession struct {
	Caller          string `json:"caller"`
	SessionID       uint64 `json:"session_id"`
	ConversationRef string `json:"conversation_ref,omitempty"`
}

func (msg MsgCompleteSession) ValidateBasic() error {
	if err := validateAddress("caller", msg.Caller); err != nil {
		return err
	}
	if msg.SessionID == 0 {
		return ErrSessionNotFound.Wrap("session id cannot be zero")
	}
	return nil
}

// MsgTriggerTimeout ends a stalled or expired session.
type MsgTriggerTimeout struct {
	Caller    string `json:"caller"`
	SessionID uint64 `json:"session_id"`
}

func (msg MsgTriggerTimeout) ValidateBasic() error {
	if err := validateAddress("caller", msg.Caller); err != nil {
		return err
	}
	if msg.SessionID == 0 {
		return ErrSessionNotFound.Wrap("session id cannot be zero")
	}
	return nil
}

// MsgSettleResponse returns the applied split.
type MsgSettleResponse struct {
	Settlement SettlementSummary `json:"settlement"`
}

// MsgWithdrawEarnings pays out a host's balance in one denom.
type MsgWithdrawEarnings struct {
	Host  string `json:"host"`
	Denom string `json:"denom"`
}

func (msg MsgWithdrawEarnings) ValidateBasic() error {
	if err := validateAddress("host", msg.Host); err != nil {
		return err
	}
	if err := sdk.ValidateDenom(msg.Denom); err != nil {
		return ErrUnknownAsset.Wrap(err.Error())
	}
	return nil
}

// MsgWithdrawAllEarnings pays out every non-zero balance of a host.
type MsgWithdrawAllEarnings struct {
	Host string `json:"host"`
}

func (msg MsgWithdrawAllEarnings) ValidateBasic() error {
	return validateAddress("host", msg.Host)
}

// MsgWithdrawResponse lists what was paid.
type MsgWithdrawResponse struct {
	Amount sdk.Coins `json:"amount"`
}

// MsgSetDelegate grants or revokes a delegate's right to open sessions for the payer.
type MsgSetDelegate struct {
	Payer      string `json:"payer"`
	Delegate   string `json:"delegate"`
	Authorized bool   `json:"authorized"`
}

func (msg MsgSetDelegate) ValidateBasic() error {
	if err := validateAddress("payer", msg.Payer); err != nil {
		return err
	}
	if err := validateAddress("delegate", msg.Delegate); err != nil {
		return err
	}
	if msg.Payer == msg.Delegate {
		return ErrSelfDelegation
	}
	return nil
}

// MsgWithdrawTreasury moves accumulated protocol revenue to a recipient.
type MsgWithdrawTreasury struct {
	Authority string   `json:"authority"`
	Recipient string   `json:"recipient"`
	Denom     string   `json:"denom"`
	Amount    math.Int `json:"amount"`
}

func (msg MsgWithdrawTreasury) ValidateBasic() error {
	if err := validateAddress("authority", msg.Authority); err != nil {
		return err
	}
	if err := validateAddress("recipient", msg.Recipient); err != nil {
		return err
	}
	if err := sdk.ValidateDenom(msg.Denom); err != nil {
		return ErrUnknownAsset.Wrap(err.Error())
	}
	return validatePositive("amount", msg.Amount)
}

// MsgUpdateParams replaces the module parameters.
type MsgUpdateParams struct {
	Authority string `json:"authority"`
	Params    Params `json:"params"`
}

func (msg MsgUpdateParams) ValidateBasic() error {
	if err := validateAddress("authority", msg.Authority); err != nil {
		return err
	}
	return msg.Params.Validate()
}
