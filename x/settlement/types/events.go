package types

// Event types for the settlement module
// All event types use lowercase with underscore separator (module_action format)
const (
	// Host registry events
	EventTypeHostRegistered      = "settlement_host_registered"
	EventTypeHostUnregistered    = "settlement_host_unregistered"
	EventTypeHostPricingUpdated  = "settlement_host_pricing_updated"
	EventTypeHostModelPricing    = "settlement_host_model_pricing"
	EventTypeHostMetadataUpdated = "settlement_host_metadata_updated"
	EventTypeHostEndpointUpdated = "settlement_host_endpoint_updated"
	EventTypeHostModelsUpdated   = "settlement_host_models_updated"
	EventTypeHostStakeAdded      = "settlement_host_stake_added"
	EventTypeHostSlashed         = "settlement_host_slashed"

	// Session events
	EventTypeSessionCreated   = "settlement_session_created"
	EventTypeProofSubmitted   = "settlement_proof_submitted"
	EventTypeSessionCompleted = "settlement_session_completed"
	EventTypeSessionTimedOut  = "settlement_session_timed_out"

	// Ledger events
	EventTypeEarningsCredited   = "settlement_earnings_credited"
	EventTypeEarningsWithdrawn  = "settlement_earnings_withdrawn"
	EventTypeTreasuryAccrued    = "settlement_treasury_accrued"
	EventTypeTreasuryWithdrawn  = "settlement_treasury_withdrawn"
	EventTypeDelegateAuthorized = "settlement_delegate_authorized"
	EventTypeDelegateRevoked    = "settlement_delegate_revoked"
	EventTypeParamsUpdated      = "settlement_params_updated"

	// EventTypeAuditTrail is emitted for every appended audit record
	EventTypeAuditTrail = "settlement_audit_trail"
)

// Event attribute keys for the settlement module
const (
	AttributeKeySessionID       = "session_id"
	AttributeKeyHost            = "host"
	AttributeKeyDepositor       = "depositor"
	AttributeKeyCreator         = "creator"
	AttributeKeyDelegate        = "delegate"
	AttributeKeyActor           = "actor"
	AttributeKeyModelID         = "model_id"
	AttributeKeyDenom           = "denom"
	AttributeKeyAssetClass      = "asset_class"
	AttributeKeyAmount          = "amount"
	AttributeKeyDeposit         = "deposit"
	AttributeKeyPricePerUnit    = "price_per_unit"
	AttributeKeyUnits           = "units"
	AttributeKeyProvenUnits     = "proven_units"
	AttributeKeyProofHash       = "proof_hash"
	AttributeKeyProofRef        = "proof_ref"
	AttributeKeyDeltaRef        = "delta_ref"
	AttributeKeyConversationRef = "conversation_ref"
	AttributeKeyHostPayout      = "host_payout"
	AttributeKeyTreasuryFee     = "treasury_fee"
	AttributeKeyRefund          = "refund"
	AttributeKeyEarlyCancel     = "early_cancel"
	AttributeKeyStake           = "stake"
	AttributeKeyStakeReturned   = "stake_returned"
	AttributeKeyEvidenceRef     = "evidence_ref"
	AttributeKeyReason          = "reason"
	AttributeKeyAutoUnregister  = "auto_unregistered"
	AttributeKeyAuthorized      = "authorized"
	AttributeKeyRecipient       = "recipient"
	AttributeKeySequence        = "sequence"
	AttributeKeyKind            = "kind"
)
