package engine

import (
	"context"
	"time"

	"github.com/stakehaus/stake-engine/internal/domain"
	"github.com/stakehaus/stake-engine/internal/store"
	"github.com/stakehaus/stake-engine/internal/store/schema"
)

// requiredVaultBalance is the worst-case obligation of a vault-backed token
// emission: every seat staked at the given rate from `from` until the end of
// the window. A window already over requires nothing.
func requiredVaultBalance(rate uint64, maxStakers uint32, from, end time.Time) uint64 {
	if !end.After(from) {
		return 0
	}
	return rate * uint64(maxStakers) * uint64(seconds(from, end))
}

// checkSolvency verifies a vault-backed emission can cover a new worst-case
// obligation with what remains after rewards already owed are set aside. A
// vault exactly equal to the requirement passes. Mint-backed emissions have
// no vault to exhaust and always pass.
func (e *Engine) checkSolvency(ctx context.Context, tx store.Store, em *schema.Emission, collection *schema.Collection, rate uint64, end time.Time) error {
	if !em.TokenVault {
		return nil
	}
	now := e.clock.Now()
	owed, err := outstandingRewards(ctx, tx, em, now)
	if err != nil {
		return err
	}
	available := em.VaultBalance
	if owed > available {
		available = 0
	} else {
		available -= owed
	}
	if available < requiredVaultBalance(rate, collection.MaxStakers, now, end) {
		return domain.ErrInsufficientBalanceInVault
	}
	return nil
}
