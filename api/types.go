package api

import (
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// TxResponse describes a committed transaction
type TxResponse struct {
	Height int64       `json:"height"`
	Time   time.Time   `json:"time"`
	Result interface{} `json:"result,omitempty"`
	Events sdk.Events  `json:"events,omitempty"`
}

// StatusResponse reports the executor's chain position
type StatusResponse struct {
	ChainID       string    `json:"chain_id"`
	Height        int64     `json:"height"`
	LastBlockTime time.Time `json:"last_block_time"`
}

// PageResponse wraps one page of a dense index
type PageResponse struct {
	Items  interface{} `json:"items"`
	Total  uint64      `json:"total"`
	Offset uint64      `json:"offset"`
	Limit  uint64      `json:"limit"`
}

// WithdrawRequest withdraws one denom, or every denom when Denom is empty
type WithdrawRequest struct {
	Denom string `json:"denom"`
}

// DelegateRequest grants or revokes a delegate
type DelegateRequest struct {
	Authorized *bool `json:"authorized" binding:"required"`
}

// FaucetRequest asks the dev faucet for test tokens
type FaucetRequest struct {
	Address string `json:"address" binding:"required"`
}

// ApproveModelRequest adds a model to the whitelist
type ApproveModelRequest struct {
	ID         string `json:"id" binding:"required"`
	Name       string `json:"name"`
	ContentRef string `json:"content_ref"`
}

// DelegationResponse reports whether delegate may act for payer
type DelegationResponse struct {
	Payer      string `json:"payer"`
	Delegate   string `json:"delegate"`
	Authorized bool   `json:"authorized"`
}

// AuditResponse is one page of the audit trail
type AuditResponse struct {
	Records interface{} `json:"records"`
	NextSeq uint64      `json:"next_seq"`
}
