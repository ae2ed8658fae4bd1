package keeper

import (
	"fmt"
	"sort"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// RegisterInvariants registers all settlement module invariants
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "module-solvency",
		ModuleSolvencyInvariant(k))
	ir.RegisterRoute(types.ModuleName, "session-status",
		SessionStatusInvariant(k))
	ir.RegisterRoute(types.ModuleName, "host-index",
		HostIndexInvariant(k))
}

// AllInvariants runs all invariants of the settlement module
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		res, stop := ModuleSolvencyInvariant(k)(ctx)
		if stop {
			return res, stop
		}
		res, stop = SessionStatusInvariant(k)(ctx)
		if stop {
			return res, stop
		}
		return HostIndexInvariant(k)(ctx)
	}
}

// Liabilities sums, per denom, everything the module account owes: deposits of
// active sessions, unwithdrawn earnings, treasury and host stakes.
func (k Keeper) Liabilities(ctx sdk.Context) (sdk.Coins, error) {
	owed := sdk.NewCoins()
	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, err
	}

	if err := k.IterateSessions(ctx, func(s types.SessionJob) (bool, error) {
		if s.Status == types.SessionStatusActive {
			owed = owed.Add(sdk.NewCoin(s.Denom, s.Deposit))
		}
		return false, nil
	}); err != nil {
		return nil, err
	}
	if err := k.IterateEarnings(ctx, func(e types.Earnings) bool {
		owed = owed.Add(sdk.NewCoin(e.Denom, e.Amount))
		return false
	}); err != nil {
		return nil, err
	}
	treasury, err := k.GetAllTreasury(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range treasury {
		owed = owed.Add(sdk.NewCoin(t.Denom, t.Amount))
	}
	if err := k.IterateHosts(ctx, func(h types.Host) (bool, error) {
		owed = owed.Add(sdk.NewCoin(params.NativeDenom, h.Stake))
		return false, nil
	}); err != nil {
		return nil, err
	}
	return owed, nil
}

// ModuleSolvencyInvariant checks that the module account holds at least what it owes
// in every denom
func ModuleSolvencyInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		owed, err := k.Liabilities(ctx)
		if err != nil {
			return sdk.FormatInvariant(
				types.ModuleName, "module-solvency",
				fmt.Sprintf("error summing liabilities: %v", err),
			), true
		}

		moduleAddr := k.ModuleAddress()
		var shortfalls []string
		for _, coin := range owed {
			held := k.bankKeeper.GetBalance(ctx, moduleAddr, coin.Denom)
			if held.Amount.LT(coin.Amount) {
				shortfalls = append(shortfalls, fmt.Sprintf("%s: owes %s, holds %s", coin.Denom, coin.Amount, held.Amount))
			}
		}
		if len(shortfalls) > 0 {
			return sdk.FormatInvariant(
				types.ModuleName, "module-solvency",
				fmt.Sprintf("module account is short: %v", shortfalls),
			), true
		}
		return sdk.FormatInvariant(
			types.ModuleName, "module-solvency",
			fmt.Sprintf("module account covers %s", owed),
		), false
	}
}

// SessionStatusInvariant checks that every terminal session carries a settlement
// whose parts sum to its deposit, and no active session does
func SessionStatusInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var problems []string
		err := k.IterateSessions(ctx, func(s types.SessionJob) (bool, error) {
			switch {
			case s.Status == types.SessionStatusActive:
				if s.Settlement != nil {
					problems = append(problems, fmt.Sprintf("session %d is active but settled", s.ID))
				}
			case s.Status.IsTerminal():
				if s.Settlement == nil {
					problems = append(problems, fmt.Sprintf("session %d is %s without settlement", s.ID, s.Status))
				} else if !s.Settlement.Total().Equal(s.Deposit) {
					problems = append(problems, fmt.Sprintf("session %d splits %s of deposit %s", s.ID, s.Settlement.Total(), s.Deposit))
				}
			default:
				problems = append(problems, fmt.Sprintf("session %d has status %s", s.ID, s.Status))
			}
			return false, nil
		})
		if err != nil {
			problems = append(problems, fmt.Sprintf("error iterating sessions: %v", err))
		}
		if len(problems) > 0 {
			return sdk.FormatInvariant(
				types.ModuleName, "session-status",
				fmt.Sprintf("%d problems: %v", len(problems), problems),
			), true
		}
		return sdk.FormatInvariant(types.ModuleName, "session-status", "all sessions consistent"), false
	}
}

// HostIndexInvariant checks that the dense host indexes agree with the host table
func HostIndexInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		store := k.getStore(ctx)
		var problems []string

		active := map[string]types.Host{}
		models := map[string]struct{}{}
		err := k.IterateHosts(ctx, func(h types.Host) (bool, error) {
			if h.Active {
				active[h.Address] = h
			}
			for _, id := range h.SupportedModels {
				models[id] = struct{}{}
			}
			return false, nil
		})
		if err != nil {
			problems = append(problems, fmt.Sprintf("error iterating hosts: %v", err))
		}

		indexed := activeHostIndex().members(store)
		if uint64(len(indexed)) != activeHostIndex().len(store) {
			problems = append(problems, "active host index has holes")
		}
		if len(indexed) != len(active) {
			problems = append(problems, fmt.Sprintf("active index holds %d hosts, table %d", len(indexed), len(active)))
		}
		for _, addr := range indexed {
			if _, ok := active[addr]; !ok {
				problems = append(problems, fmt.Sprintf("active index references %s", addr))
			}
		}

		modelIDs := make([]string, 0, len(models))
		for id := range models {
			modelIDs = append(modelIDs, id)
		}
		sort.Strings(modelIDs)
		for _, id := range modelIDs {
			idx := modelHostIndex(id)
			members := idx.members(store)
			seen := make(map[string]struct{}, len(members))
			for _, addr := range members {
				seen[addr] = struct{}{}
				h, ok := active[addr]
				if !ok || !h.SupportsModel(id) {
					problems = append(problems, fmt.Sprintf("model %q index references %s", id, addr))
				}
			}
			for addr, h := range active {
				if _, ok := seen[addr]; !ok && h.SupportsModel(id) {
					problems = append(problems, fmt.Sprintf("model %q index misses %s", id, addr))
				}
			}
		}

		if len(problems) > 0 {
			sort.Strings(problems)
			return sdk.FormatInvariant(
				types.ModuleName, "host-index",
				fmt.Sprintf("%d problems: %v", len(problems), problems),
			), true
		}
		return sdk.FormatInvariant(types.ModuleName, "host-index", "indexes consistent"), false
	}
}
