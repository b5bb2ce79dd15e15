package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/stakehaus/stake-engine/internal/domain"
	"github.com/stakehaus/stake-engine/internal/store"
	"github.com/stakehaus/stake-engine/internal/store/schema"
)

// feeKind selects which base fee of the program config an operation is
// charged against
type feeKind int

const (
	feeStake feeKind = iota
	feeUnstake
	feeClaim
)

// baseFee returns the configured base fee for the operation
func baseFee(cfg *schema.ProgramConfig, kind feeKind) uint64 {
	switch kind {
	case feeStake:
		return cfg.StakeFee
	case feeUnstake:
		return cfg.UnstakeFee
	case feeClaim:
		return cfg.ClaimFee
	}
	return 0
}

// customFee returns the tenant's explicit override for the operation
func customFee(fees domain.CustomFees, kind feeKind) uint64 {
	switch kind {
	case feeStake:
		return fees.StakeFee
	case feeUnstake:
		return fees.UnstakeFee
	case feeClaim:
		return fees.ClaimFee
	}
	return 0
}

// effectiveTier returns the tier governing fee discounts right now. A pending
// downgrade keeps the previous tier in force until SubscriptionLiveAt.
func effectiveTier(staker *schema.Staker, now time.Time) domain.SubscriptionTier {
	if staker.PrevSubscription != nil && staker.SubscriptionLiveAt != nil &&
		now.Before(*staker.SubscriptionLiveAt) {
		return *staker.PrevSubscription
	}
	return staker.Subscription
}

// tierPrice returns the monthly price of a tier. Custom tiers price from the
// tenant's explicit override.
func tierPrice(cfg *schema.ProgramConfig, staker *schema.Staker, tier domain.SubscriptionTier) uint64 {
	switch tier {
	case domain.TierAdvanced:
		return cfg.AdvancedFee
	case domain.TierPro:
		return cfg.ProFee
	case domain.TierUltimate:
		return cfg.UltimateFee
	case domain.TierCustom:
		if staker.CustomFees != nil {
			return staker.CustomFees.Data().Amount
		}
	}
	return 0
}

// operationFee computes the fee charged for a stake, unstake, or claim under
// the tenant's subscription state at the given instant.
//
// A custom subscription substitutes its explicit per-operation override for
// the configured base fee; everything else about delinquency still applies
// to it. An on-time subscription pays the tier rate (pro 1/5, advanced 1/2,
// ultimate nothing, free and custom the full base); inside the short grace
// window after the due date the fee is half the base; past the grace window
// a tenant still carrying add-ons pays double, and one without add-ons
// lapses to the base rate.
func operationFee(cfg *schema.ProgramConfig, staker *schema.Staker, collections int64, kind feeKind, now time.Time) uint64 {
	fee := baseFee(cfg, kind)
	tier := effectiveTier(staker, now)

	if tier == domain.TierCustom && staker.CustomFees != nil {
		fee = customFee(staker.CustomFees.Data(), kind)
	}

	// Free subscriptions never have a payment due, so grace and penalty
	// windows do not apply to them.
	if tier == domain.TierFree || subscriptionAmount(cfg, staker, collections) == 0 {
		return tierFee(fee, tier)
	}

	switch {
	case now.Before(staker.NextPaymentAt):
		return tierFee(fee, tier)
	case now.Before(staker.NextPaymentAt.Add(domain.SHORT_GRACE_WINDOW)):
		return fee / 2
	default:
		if hasAddOns(staker, collections) {
			return fee * 2
		}
		return fee
	}
}

// tierFee applies the on-time tier discount to a base fee
func tierFee(fee uint64, tier domain.SubscriptionTier) uint64 {
	switch tier {
	case domain.TierPro:
		return fee / 5
	case domain.TierAdvanced:
		return fee / 2
	case domain.TierUltimate:
		return 0
	}
	return fee
}

// hasAddOns reports whether the tenant carries any paid extras that survive a
// lapse into the penalty window
func hasAddOns(staker *schema.Staker, collections int64) bool {
	return staker.OwnDomain || staker.RemoveBranding || collections > 1
}

// subscriptionAmount is the tenant's monthly bill: the tier price plus the
// branding-removal add-on plus one extra-collection charge per collection
// beyond the first. The own-domain add-on is a one-off and is not part of
// the recurring amount.
func subscriptionAmount(cfg *schema.ProgramConfig, staker *schema.Staker, collections int64) uint64 {
	amount := tierPrice(cfg, staker, staker.Subscription)
	if staker.RemoveBranding {
		amount += cfg.RemoveBrandingFee
	}
	if collections > 1 {
		amount += uint64(collections-1) * cfg.ExtraCollectionFee
	}
	return amount
}

// isInArrears reports whether the tenant's payment is overdue past the short
// grace window. Tenants with nothing to pay are never in arrears.
func isInArrears(cfg *schema.ProgramConfig, staker *schema.Staker, collections int64, now time.Time) bool {
	if subscriptionAmount(cfg, staker, collections) == 0 {
		return false
	}
	return now.After(staker.NextPaymentAt.Add(domain.SHORT_GRACE_WINDOW))
}

// proRataFee charges a monthly fee in proportion to how little of the current
// billing cycle remains: the fee times the whole number of remaining-period
// lengths that fit in one cycle. More than a full cycle remaining charges
// nothing; a cycle already over charges the full fee.
func proRataFee(fee uint64, nextPaymentAt, now time.Time) uint64 {
	if fee == 0 {
		return 0
	}
	remaining := nextPaymentAt.Sub(now)
	if remaining <= 0 {
		return fee
	}
	return fee * uint64(domain.BILLING_CYCLE/remaining)
}

// chargeOperationFee moves the computed fee to the platform fee sink. A
// transfer failure aborts the caller's operation.
func (e *Engine) chargeOperationFee(ctx context.Context, tx store.Store, cfg *schema.ProgramConfig, staker *schema.Staker, payer string, kind feeKind) (uint64, error) {
	collections, err := tx.CountCollectionsByStaker(ctx, staker.ID)
	if err != nil {
		return 0, err
	}
	fee := operationFee(cfg, staker, collections, kind, e.clock.Now())
	if fee == 0 {
		return 0, nil
	}
	if err := e.custodian.TransferSol(ctx, payer, cfg.FeeSink, fee); err != nil {
		return 0, fmt.Errorf("failed to transfer operation fee: %w", err)
	}
	return fee, nil
}
