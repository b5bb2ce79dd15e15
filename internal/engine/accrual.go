package engine

import (
	"context"
	"time"

	"github.com/stakehaus/stake-engine/internal/domain"
	"github.com/stakehaus/stake-engine/internal/store"
	"github.com/stakehaus/stake-engine/internal/store/schema"
)

// accruedReward computes the tokens owed to a stake under a token emission:
// the sum over the emission's rate history of rate times the overlap of each
// step with [stakedAt, now], clamped to the emission's start and end. Rate
// changes only affect time staked after the change took effect.
func accruedReward(em *schema.Emission, stakedAt, now time.Time) uint64 {
	if em.Kind != domain.RewardToken {
		return 0
	}

	from := stakedAt.Unix()
	if start := em.StartAt.Unix(); start > from {
		from = start
	}
	until := now.Unix()
	if em.EndAt != nil && em.EndAt.Unix() < until {
		until = em.EndAt.Unix()
	}
	if until <= from {
		return 0
	}

	steps := em.RewardSteps
	if len(steps) == 0 {
		return em.RewardRate * uint64(until-from)
	}

	var total uint64
	for i, step := range steps {
		stepFrom := step.Since
		if stepFrom < from {
			stepFrom = from
		}
		stepUntil := until
		if i+1 < len(steps) && steps[i+1].Since < stepUntil {
			stepUntil = steps[i+1].Since
		}
		if stepUntil > stepFrom {
			total += step.Rate * uint64(stepUntil-stepFrom)
		}
	}
	return total
}

// minimumPeriodMet reports whether the stake has aged past the emission's
// minimum period. Emissions without one always pass.
func minimumPeriodMet(em *schema.Emission, stakedAt, now time.Time) bool {
	if em.MinimumPeriod == nil {
		return true
	}
	return seconds(stakedAt, now) >= *em.MinimumPeriod
}

// outstandingRewards sums the rewards already owed to every live stake under
// the emission's collection. Vault funds covering these are spoken for and
// cannot back new obligations.
func outstandingRewards(ctx context.Context, tx store.Store, em *schema.Emission, now time.Time) (uint64, error) {
	records, err := tx.ListStakeRecordsByCollection(ctx, em.CollectionID)
	if err != nil {
		return 0, err
	}
	var owed uint64
	for _, record := range records {
		owed += accruedReward(em, record.StakedAt, now)
	}
	return owed, nil
}
