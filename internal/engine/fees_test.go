package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"

	"github.com/stakehaus/stake-engine/internal/domain"
	"github.com/stakehaus/stake-engine/internal/store/schema"
)

func feeConfig() *schema.ProgramConfig {
	return &schema.ProgramConfig{
		Authority:          adminAddr,
		FeeSink:            feeSinkAddr,
		StakeFee:           1000,
		UnstakeFee:         500,
		ClaimFee:           800,
		AdvancedFee:        100_000,
		ProFee:             200_000,
		UltimateFee:        400_000,
		ExtraCollectionFee: 50_000,
		RemoveBrandingFee:  30_000,
		OwnDomainFee:       20_000,
	}
}

func tierStaker(tier domain.SubscriptionTier, nextPaymentAt time.Time) *schema.Staker {
	return &schema.Staker{
		Subscription:  tier,
		NextPaymentAt: nextPaymentAt,
	}
}

func TestOperationFeeOnTimeTiers(t *testing.T) {
	cfg := feeConfig()
	now := time.Unix(1_700_000_000, 0)
	due := now.Add(10 * 24 * time.Hour)

	assert.Equal(t, uint64(200), operationFee(cfg, tierStaker(domain.TierPro, due), 1, feeStake, now))
	assert.Equal(t, uint64(500), operationFee(cfg, tierStaker(domain.TierAdvanced, due), 1, feeStake, now))
	assert.Equal(t, uint64(0), operationFee(cfg, tierStaker(domain.TierUltimate, due), 1, feeStake, now))
	assert.Equal(t, uint64(1000), operationFee(cfg, tierStaker(domain.TierFree, due), 1, feeStake, now))

	assert.Equal(t, uint64(100), operationFee(cfg, tierStaker(domain.TierPro, due), 1, feeUnstake, now))
	assert.Equal(t, uint64(160), operationFee(cfg, tierStaker(domain.TierPro, due), 1, feeClaim, now))
}

func TestOperationFeeGraceWindow(t *testing.T) {
	cfg := feeConfig()
	due := time.Unix(1_700_000_000, 0)

	// Inside the ten-day grace window the fee is half the base regardless
	// of tier.
	inGrace := due.Add(3 * 24 * time.Hour)
	assert.Equal(t, uint64(500), operationFee(cfg, tierStaker(domain.TierPro, due), 1, feeStake, inGrace))
	assert.Equal(t, uint64(500), operationFee(cfg, tierStaker(domain.TierUltimate, due), 1, feeStake, inGrace))

	// The instant the due date passes the discount flips from the tier
	// rate to the grace rate.
	assert.Equal(t, uint64(200), operationFee(cfg, tierStaker(domain.TierPro, due), 1, feeStake, due.Add(-time.Second)))
	assert.Equal(t, uint64(500), operationFee(cfg, tierStaker(domain.TierPro, due), 1, feeStake, due))
}

func TestOperationFeeLapsed(t *testing.T) {
	cfg := feeConfig()
	due := time.Unix(1_700_000_000, 0)
	lapsed := due.Add(domain.SHORT_GRACE_WINDOW + time.Hour)

	// Past the grace window a tenant still carrying add-ons pays double.
	withBranding := tierStaker(domain.TierPro, due)
	withBranding.RemoveBranding = true
	assert.Equal(t, uint64(2000), operationFee(cfg, withBranding, 1, feeStake, lapsed))

	withDomain := tierStaker(domain.TierPro, due)
	withDomain.OwnDomain = true
	assert.Equal(t, uint64(2000), operationFee(cfg, withDomain, 1, feeStake, lapsed))

	assert.Equal(t, uint64(2000), operationFee(cfg, tierStaker(domain.TierPro, due), 2, feeStake, lapsed))

	// Without add-ons the subscription simply lapses to the free rate.
	assert.Equal(t, uint64(1000), operationFee(cfg, tierStaker(domain.TierPro, due), 1, feeStake, lapsed))
}

func TestOperationFeeCustomOverrides(t *testing.T) {
	cfg := feeConfig()
	due := time.Unix(1_700_000_000, 0)

	custom := func() *schema.Staker {
		staker := tierStaker(domain.TierCustom, due)
		fees := datatypes.NewJSONType(domain.CustomFees{
			Amount:     123_456,
			StakeFee:   700,
			UnstakeFee: 800,
			ClaimFee:   900,
		})
		staker.CustomFees = &fees
		return staker
	}

	// On time the override replaces the base fee with no tier discount.
	onTime := due.Add(-time.Hour)
	assert.Equal(t, uint64(700), operationFee(cfg, custom(), 1, feeStake, onTime))
	assert.Equal(t, uint64(800), operationFee(cfg, custom(), 1, feeUnstake, onTime))
	assert.Equal(t, uint64(900), operationFee(cfg, custom(), 1, feeClaim, onTime))

	// Delinquency windows apply to the override the same as any other
	// paying tier: half inside grace, double past it with add-ons.
	inGrace := due.Add(time.Hour)
	assert.Equal(t, uint64(350), operationFee(cfg, custom(), 1, feeStake, inGrace))

	lapsed := due.Add(domain.SHORT_GRACE_WINDOW + time.Hour)
	assert.Equal(t, uint64(700), operationFee(cfg, custom(), 1, feeStake, lapsed))

	withBranding := custom()
	withBranding.RemoveBranding = true
	assert.Equal(t, uint64(1400), operationFee(cfg, withBranding, 1, feeStake, lapsed))
}

func TestOperationFeeFreeTierSkipsGraceWindows(t *testing.T) {
	cfg := feeConfig()
	due := time.Unix(1_700_000_000, 0)

	// A free subscription has no payment due, so delinquency windows
	// never apply to it.
	longPast := due.Add(domain.SHORT_GRACE_WINDOW + 90*24*time.Hour)
	assert.Equal(t, uint64(1000), operationFee(cfg, tierStaker(domain.TierFree, due), 1, feeStake, longPast))
}

func TestEffectiveTierPendingDowngrade(t *testing.T) {
	liveAt := time.Unix(1_700_000_000, 0)
	prev := domain.TierPro
	staker := &schema.Staker{
		Subscription:       domain.TierFree,
		PrevSubscription:   &prev,
		SubscriptionLiveAt: &liveAt,
	}

	assert.Equal(t, domain.TierPro, effectiveTier(staker, liveAt.Add(-time.Second)))
	assert.Equal(t, domain.TierFree, effectiveTier(staker, liveAt))
	assert.Equal(t, domain.TierFree, effectiveTier(staker, liveAt.Add(time.Second)))
}

func TestSubscriptionAmount(t *testing.T) {
	cfg := feeConfig()

	staker := tierStaker(domain.TierAdvanced, time.Time{})
	assert.Equal(t, uint64(100_000), subscriptionAmount(cfg, staker, 1))

	staker.RemoveBranding = true
	assert.Equal(t, uint64(130_000), subscriptionAmount(cfg, staker, 1))

	// Each collection beyond the first adds the extra-collection price.
	assert.Equal(t, uint64(230_000), subscriptionAmount(cfg, staker, 3))

	// The own-domain add-on is a one-off, never part of the recurring bill.
	staker.OwnDomain = true
	assert.Equal(t, uint64(230_000), subscriptionAmount(cfg, staker, 3))

	assert.Equal(t, uint64(0), subscriptionAmount(cfg, tierStaker(domain.TierFree, time.Time{}), 1))
}

func TestProRataFee(t *testing.T) {
	due := time.Unix(1_700_000_000, 0)

	// More than a whole cycle remaining charges nothing.
	assert.Equal(t, uint64(0), proRataFee(30_000, due, due.Add(-31*24*time.Hour)))

	// Exactly one cycle remaining charges the fee once.
	assert.Equal(t, uint64(30_000), proRataFee(30_000, due, due.Add(-domain.BILLING_CYCLE)))

	// The multiplier grows as the remaining time shrinks, by whole steps.
	assert.Equal(t, uint64(60_000), proRataFee(30_000, due, due.Add(-15*24*time.Hour)))
	assert.Equal(t, uint64(90_000), proRataFee(30_000, due, due.Add(-10*24*time.Hour)))
	assert.Equal(t, uint64(30_000*30), proRataFee(30_000, due, due.Add(-24*time.Hour)))

	// A cycle already over charges the plain fee.
	assert.Equal(t, uint64(30_000), proRataFee(30_000, due, due))
	assert.Equal(t, uint64(30_000), proRataFee(30_000, due, due.Add(time.Hour)))

	assert.Equal(t, uint64(0), proRataFee(0, due, due))
}

func TestIsInArrears(t *testing.T) {
	cfg := feeConfig()
	due := time.Unix(1_700_000_000, 0)

	staker := tierStaker(domain.TierPro, due)
	assert.False(t, isInArrears(cfg, staker, 1, due.Add(domain.SHORT_GRACE_WINDOW)))
	assert.True(t, isInArrears(cfg, staker, 1, due.Add(domain.SHORT_GRACE_WINDOW+time.Second)))

	// Nothing owed, never in arrears.
	free := tierStaker(domain.TierFree, due)
	assert.False(t, isInArrears(cfg, free, 1, due.Add(365*24*time.Hour)))
}
