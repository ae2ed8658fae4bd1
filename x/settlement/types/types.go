package types

import (
	"encoding/json"
	"fmt"
	"time"

	"cosmossdk.io/math"
)

// AssetClass groups denoms that share a pricing range and deposit floor.
type AssetClass string

const (
	AssetClassNative AssetClass = "native"
	AssetClassStable AssetClass = "stable"
)

// AllAssetClasses lists the classes in a stable order.
var AllAssetClasses = []AssetClass{AssetClassNative, AssetClassStable}

// Validate rejects unknown classes.
func (c AssetClass) Validate() error {
	switch c {
	case AssetClassNative, AssetClassStable:
		return nil
	default:
		return ErrInvalidAssetClass.Wrapf("%q", string(c))
	}
}

// Host is a registered compute provider.
type Host struct {
	Address         string            `json:"address"`
	Stake           math.Int          `json:"stake"`
	Active          bool              `json:"active"`
	Metadata        string            `json:"metadata"`
	Endpoint        string            `json:"endpoint"`
	SupportedModels []string          `json:"supported_models"`
	MinPriceNative  math.Int          `json:"min_price_native"`
	MinPriceStable  math.Int          `json:"min_price_stable"`
	RegisteredAt    time.Time         `json:"registered_at"`
	LastSlashAt     time.Time         `json:"last_slash_at"`
	TotalSlashed    math.Int          `json:"total_slashed"`
	SchemaVersion   uint32            `json:"schema_version"`
	Extensions      map[string]string `json:"extensions,omitempty"`
}

// HostPrice returns the host-level minimum for a class.
func (h Host) HostPrice(class AssetClass) math.Int {
	if class == AssetClassStable {
		return h.MinPriceStable
	}
	return h.MinPriceNative
}

// SupportsModel reports whether modelID is in the host's supported list.
func (h Host) SupportsModel(modelID string) bool {
	for _, m := range h.SupportedModels {
		if m == modelID {
			return true
		}
	}
	return false
}

// ModelPrice is a per-(host, model, class) published minimum price.
type ModelPrice struct {
	Host    string     `json:"host"`
	ModelID string     `json:"model_id"`
	Class   AssetClass `json:"class"`
	Price   math.Int   `json:"price"`
}

// SessionStatus is the lifecycle state of a session.
type SessionStatus int32

const (
	SessionStatusUnspecified SessionStatus = iota
	SessionStatusActive
	SessionStatusCompleted
	SessionStatusTimedOut
)

var sessionStatusNames = map[SessionStatus]string{
	SessionStatusUnspecified: "unspecified",
	SessionStatusActive:      "active",
	SessionStatusCompleted:   "completed",
	SessionStatusTimedOut:    "timed_out",
}

func (s SessionStatus) String() string {
	if name, ok := sessionStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SessionStatus(%d)", int32(s))
}

// IsTerminal reports whether no further transition is possible.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusTimedOut
}

func (s SessionStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SessionStatus) UnmarshalJSON(bz []byte) error {
	var name string
	if err := json.Unmarshal(bz, &name); err != nil {
		return err
	}
	for status, n := range sessionStatusNames {
		if n == name {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown session status %q", name)
}

// SettlementSummary records how a terminal session's deposit was split.
type SettlementSummary struct {
	BillableUnits uint64    `json:"billable_units"`
	Payment       math.Int  `json:"payment"`
	HostPayout    math.Int  `json:"host_payout"`
	TreasuryFee   math.Int  `json:"treasury_fee"`
	Refund        math.Int  `json:"refund"`
	EarlyCancel   bool      `json:"early_cancel"`
	EndedBy       string    `json:"ended_by"`
	EndedAt       time.Time `json:"ended_at"`
}

// Total is the sum of all three parts of the split.
func (s SettlementSummary) Total() math.Int {
	return s.HostPayout.Add(s.TreasuryFee).Add(s.Refund)
}

// SessionJob is an escrowed, metered engagement between a depositor and a host.
type SessionJob struct {
	ID                 uint64             `json:"id"`
	Depositor          string             `json:"depositor"`
	Creator            string             `json:"creator"`
	Host               string             `json:"host"`
	ModelID            string             `json:"model_id,omitempty"`
	Denom              string             `json:"denom"`
	Deposit            math.Int           `json:"deposit"`
	PricePerUnit       math.Int           `json:"price_per_unit"`
	ProvenUnits        uint64             `json:"proven_units"`
	ProofCount         uint64             `json:"proof_count"`
	StartTime          time.Time          `json:"start_time"`
	MaxDurationSeconds uint64             `json:"max_duration_seconds"`
	ProofInterval      uint64             `json:"proof_interval"`
	LastProofTime      time.Time          `json:"last_proof_time"`
	LastProofHash      string             `json:"last_proof_hash,omitempty"`
	LastProofRef       string             `json:"last_proof_ref,omitempty"`
	DeltaRef           string             `json:"delta_ref,omitempty"`
	ConversationRef    string             `json:"conversation_ref,omitempty"`
	Status             SessionStatus      `json:"status"`
	Settlement         *SettlementSummary `json:"settlement,omitempty"`
	SchemaVersion      uint32             `json:"schema_version"`
	Extensions         map[string]string  `json:"extensions,omitempty"`
}

// IsDelegated reports whether the session was opened by someone other than the payer.
func (s SessionJob) IsDelegated() bool {
	return s.Creator != "" && s.Creator != s.Depositor
}

// LastActivity is the later of start and last proof time.
func (s SessionJob) LastActivity() time.Time {
	if s.LastProofTime.After(s.StartTime) {
		return s.LastProofTime
	}
	return s.StartTime
}

// ProofSubmission is the audit record of an accepted proof batch.
type ProofSubmission struct {
	SessionID   uint64    `json:"session_id"`
	Index       uint64    `json:"index"`
	Units       uint64    `json:"units"`
	ProofHash   string    `json:"proof_hash"`
	ProofRef    string    `json:"proof_ref,omitempty"`
	DeltaRef    string    `json:"delta_ref,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Earnings is a host's withdrawable balance in one denom.
type Earnings struct {
	Host   string   `json:"host"`
	Denom  string   `json:"denom"`
	Amount math.Int `json:"amount"`
}

// Delegation is a payer's authorization for a delegate to open sessions on its behalf.
type Delegation struct {
	Payer      string    `json:"payer"`
	Delegate   string    `json:"delegate"`
	Authorized bool      `json:"authorized"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TreasuryBalance is the accumulated protocol revenue in one denom.
type TreasuryBalance struct {
	Denom  string   `json:"denom"`
	Amount math.Int `json:"amount"`
}

// SlashRecord is stored for every applied slash.
type SlashRecord struct {
	Host             string    `json:"host"`
	Authority        string    `json:"authority"`
	Amount           math.Int  `json:"amount"`
	StakeAfter       math.Int  `json:"stake_after"`
	EvidenceRef      string    `json:"evidence_ref"`
	Reason           string    `json:"reason"`
	AutoUnregistered bool      `json:"auto_unregistered"`
	Height           int64     `json:"height"`
	Timestamp        time.Time `json:"timestamp"`
}

// AuditAmount is a denom/amount pair carried by an audit record.
type AuditAmount struct {
	Label  string `json:"label"`
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// AuditRecord is an append-only, sequence-keyed entry for external indexers.
type AuditRecord struct {
	Seq       uint64            `json:"seq"`
	Kind      string            `json:"kind"`
	Actor     string            `json:"actor"`
	SessionID uint64            `json:"session_id,omitempty"`
	Host      string            `json:"host,omitempty"`
	Amounts   []AuditAmount     `json:"amounts,omitempty"`
	Refs      map[string]string `json:"refs,omitempty"`
	Height    int64             `json:"height"`
	Time      time.Time         `json:"time"`
}
