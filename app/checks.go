package app

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/app/health"
)

// HealthChecks returns the executor's checks for the health server.
func (app *SettlementApp) HealthChecks() []health.Check {
	return []health.Check{
		{Name: "store", Fn: app.checkStore},
		{Name: "invariants", Fn: app.checkInvariants, Detailed: true},
	}
}

// checkStore verifies committed state is readable
func (app *SettlementApp) checkStore(ctx context.Context) health.ComponentHealth {
	if !app.Initialized() {
		return health.ComponentHealth{Status: health.StatusUnhealthy, Message: "chain not initialized"}
	}

	start := time.Now()
	var sessions uint64
	err := app.Query(ctx, func(ctx sdk.Context) error {
		if _, err := app.SettlementKeeper.GetParams(ctx); err != nil {
			return err
		}
		sessions = app.SettlementKeeper.NextSessionID(ctx) - 1
		return nil
	})
	duration := time.Since(start)
	if err != nil {
		return health.ComponentHealth{
			Status:  health.StatusUnhealthy,
			Message: fmt.Sprintf("store query failed: %v", err),
		}
	}

	status := health.StatusHealthy
	message := "store is responsive"
	if duration > time.Second {
		status = health.StatusDegraded
		message = "store response time is degraded"
	}
	return health.ComponentHealth{
		Status:  status,
		Message: message,
		Metrics: map[string]interface{}{
			"height":        app.LastHeight(),
			"sessions":      sessions,
			"query_time_ms": duration.Milliseconds(),
		},
	}
}

// checkInvariants runs every registered invariant
func (app *SettlementApp) checkInvariants(ctx context.Context) health.ComponentHealth {
	if err := app.CheckInvariants(ctx); err != nil {
		return health.ComponentHealth{Status: health.StatusUnhealthy, Message: err.Error()}
	}
	return health.ComponentHealth{
		Status:  health.StatusHealthy,
		Message: "all invariants hold",
		Metrics: map[string]interface{}{"routes": app.InvariantRoutes()},
	}
}
