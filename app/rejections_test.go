package app

import (
	"fmt"
	"testing"

	"cosmossdk.io/log"
	govtypes "github.com/cosmos/cosmos-sdk/x/gov/types"
	"github.com/stretchr/testify/require"

	settlementtypes "github.com/paw-chain/settlement/x/settlement/types"
	whitelisttypes "github.com/paw-chain/settlement/x/whitelist/types"
)

func TestSeverityOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Severity
	}{
		{"invariant", ErrInvariantBroken.Wrap("escrow: uusdc short"), SeverityCritical},
		{"executor panic", ErrPanicRecovered.Wrap("create_session: boom"), SeverityCritical},
		{"keeper panic", settlementtypes.ErrPanicRecovered.Wrap("submit_proof: boom"), SeverityCritical},
		{"unregistered", fmt.Errorf("disk full"), SeverityHigh},
		{"wrapped unregistered", fmt.Errorf("commit: %w", fmt.Errorf("io")), SeverityHigh},
		{"authorization", settlementtypes.ErrNotSessionHost.Wrap("x"), SeverityLow},
		{"validation", settlementtypes.ErrPriceBelowMinimum.Wrap("x"), SeverityLow},
		{"replay", settlementtypes.ErrProofReplayed.Wrap("x"), SeverityLow},
		{"state", settlementtypes.ErrSessionNotActive.Wrap("x"), SeverityMedium},
		{"deposit floor", settlementtypes.ErrDepositTooLow.Wrap("x"), SeverityLow},
		{"economic", settlementtypes.ErrInsufficientFunds.Wrap("x"), SeverityMedium},
		{"other codespace", whitelisttypes.ErrModelNotFound.Wrap("x"), SeverityLow},
		{"signer", govtypes.ErrInvalidSigner, SeverityLow},
		{"app codespace", ErrFaucetLimit, SeverityLow},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, SeverityOf(tc.err))
		})
	}
}

func TestLogRejection(t *testing.T) {
	require.Equal(t, SeverityCritical, logRejection(log.NewNopLogger(), "op", 3, ErrInvariantBroken))
	require.Equal(t, "critical", SeverityCritical.String())
	require.Equal(t, "unknown", Severity(42).String())
}
