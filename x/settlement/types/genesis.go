package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/shared/replay"
)

// GenesisState is the full exported state of the settlement module.
type GenesisState struct {
	Params         Params            `json:"params"`
	Hosts          []Host            `json:"hosts"`
	ModelPrices    []ModelPrice      `json:"model_prices"`
	Sessions       []SessionJob      `json:"sessions"`
	Proofs         []ProofSubmission `json:"proofs"`
	Earnings       []Earnings        `json:"earnings"`
	Treasury       []TreasuryBalance `json:"treasury"`
	Delegations    []Delegation      `json:"delegations"`
	SlashRecords   []SlashRecord     `json:"slash_records"`
	ConsumedProofs []replay.Record   `json:"consumed_proofs"`
	NextSessionID  uint64            `json:"next_session_id"`
	NextAuditSeq   uint64            `json:"next_audit_seq"`
}

// DefaultGenesis returns the default genesis state
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params:        DefaultParams(),
		NextSessionID: 1,
		NextAuditSeq:  1,
	}
}

// Validate performs basic genesis state validation returning an error upon any
// failure.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	if gs.NextSessionID == 0 {
		return ErrInvalidGenesis.Wrap("next session id must be at least 1")
	}

	hosts := make(map[string]Host, len(gs.Hosts))
	for i, h := range gs.Hosts {
		if _, err := sdk.AccAddressFromBech32(h.Address); err != nil {
			return ErrInvalidGenesis.Wrapf("host %d: invalid address: %v", i, err)
		}
		if _, dup := hosts[h.Address]; dup {
			return ErrInvalidGenesis.Wrapf("host %d: duplicate address %s", i, h.Address)
		}
		if h.Stake.IsNil() || h.Stake.IsNegative() {
			return ErrInvalidGenesis.Wrapf("host %s: invalid stake", h.Address)
		}
		if len(h.SupportedModels) == 0 {
			return ErrInvalidGenesis.Wrapf("host %s: no supported models", h.Address)
		}
		hosts[h.Address] = h
	}

	for i, p := range gs.ModelPrices {
		h, ok := hosts[p.Host]
		if !ok {
			return ErrInvalidGenesis.Wrapf("model price %d: unknown host %s", i, p.Host)
		}
		if !h.SupportsModel(p.ModelID) {
			return ErrInvalidGenesis.Wrapf("model price %d: host %s does not support %s", i, p.Host, p.ModelID)
		}
		if err := gs.Params.ValidatePrice(p.Class, p.Price); err != nil {
			return ErrInvalidGenesis.Wrapf("model price %d: %v", i, err)
		}
	}

	seen := make(map[uint64]bool, len(gs.Sessions))
	for i, s := range gs.Sessions {
		if s.ID == 0 || s.ID >= gs.NextSessionID {
			return ErrInvalidGenesis.Wrapf("session %d: id %d out of range", i, s.ID)
		}
		if seen[s.ID] {
			return ErrInvalidGenesis.Wrapf("session %d: duplicate id %d", i, s.ID)
		}
		seen[s.ID] = true
		if _, err := sdk.AccAddressFromBech32(s.Depositor); err != nil {
			return ErrInvalidGenesis.Wrapf("session %d: invalid depositor: %v", s.ID, err)
		}
		if _, err := gs.Params.AssetClassOf(s.Denom); err != nil {
			return ErrInvalidGenesis.Wrapf("session %d: %v", s.ID, err)
		}
		if s.Deposit.IsNil() || !s.Deposit.IsPositive() || s.PricePerUnit.IsNil() || !s.PricePerUnit.IsPositive() {
			return ErrInvalidGenesis.Wrapf("session %d: deposit and price must be positive", s.ID)
		}
		switch s.Status {
		case SessionStatusActive:
			if s.Settlement != nil {
				return ErrInvalidGenesis.Wrapf("session %d: active session has a settlement", s.ID)
			}
		case SessionStatusCompleted, SessionStatusTimedOut:
			if s.Settlement == nil || !s.Settlement.Total().Equal(s.Deposit) {
				return ErrInvalidGenesis.Wrapf("session %d: settlement does not sum to deposit", s.ID)
			}
		default:
			return ErrInvalidGenesis.Wrapf("session %d: invalid status %s", s.ID, s.Status)
		}
	}

	for i, p := range gs.Proofs {
		if !seen[p.SessionID] {
			return ErrInvalidGenesis.Wrapf("proof %d: unknown session %d", i, p.SessionID)
		}
	}

	for i, e := range gs.Earnings {
		if _, err := sdk.AccAddressFromBech32(e.Host); err != nil {
			return ErrInvalidGenesis.Wrapf("earnings %d: invalid host: %v", i, err)
		}
		if e.Amount.IsNil() || e.Amount.IsNegative() {
			return ErrInvalidGenesis.Wrapf("earnings %d: negative amount", i)
		}
	}
	for i, t := range gs.Treasury {
		if t.Amount.IsNil() || t.Amount.IsNegative() {
			return ErrInvalidGenesis.Wrapf("treasury %d: negative amount", i)
		}
	}
	for i, d := range gs.Delegations {
		if d.Payer == d.Delegate {
			return ErrInvalidGenesis.Wrapf("delegation %d: self delegation", i)
		}
	}

	consumed := make(map[string]bool, len(gs.ConsumedProofs))
	for i, rec := range gs.ConsumedProofs {
		if rec.ID == "" || consumed[rec.ID] {
			return ErrInvalidGenesis.Wrapf("consumed proof %d: empty or duplicate id", i)
		}
		consumed[rec.ID] = true
	}
	return nil
}
