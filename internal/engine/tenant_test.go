package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakehaus/stake-engine/internal/domain"
)

func TestInitProgramConfigOnce(t *testing.T) {
	env := newTestEnv(t)

	err := env.engine.InitProgramConfig(context.Background(), InitProgramConfigParams{
		Authority: adminAddr,
		FeeSink:   feeSinkAddr,
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyInitialized)
}

func TestUpdateProgramConfigAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	newFee := uint64(9999)
	err := env.engine.UpdateProgramConfig(ctx, tenantAddr, UpdateProgramConfigParams{StakeFee: &newFee})
	assert.ErrorIs(t, err, domain.ErrAdminOnly)

	require.NoError(t, env.engine.UpdateProgramConfig(ctx, adminAddr, UpdateProgramConfigParams{StakeFee: &newFee}))
	cfg, err := env.store.GetProgramConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(9999), cfg.StakeFee)
	// Untouched fields keep their values.
	assert.Equal(t, uint64(500), cfg.UnstakeFee)
}

func TestInitStakerValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.engine.InitStaker(ctx, InitStakerParams{Slug: "", Name: "x", Authority: tenantAddr, Tier: domain.TierFree})
	assert.ErrorIs(t, err, domain.ErrSlugRequired)

	_, err = env.engine.InitStaker(ctx, InitStakerParams{Slug: "Bad Slug", Name: "x", Authority: tenantAddr, Tier: domain.TierFree})
	assert.ErrorIs(t, err, domain.ErrInvalidSlug)

	_, err = env.engine.InitStaker(ctx, InitStakerParams{Slug: "gallery", Name: "x", Authority: "not-an-address", Tier: domain.TierFree})
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)

	// Custom subscriptions are admin-assigned, never self-selected.
	_, err = env.engine.InitStaker(ctx, InitStakerParams{Slug: "gallery", Name: "x", Authority: tenantAddr, Tier: domain.TierCustom})
	assert.ErrorIs(t, err, domain.ErrAdminOnly)

	staker, err := env.engine.InitStaker(ctx, InitStakerParams{Slug: "gallery", Name: "Gallery", Authority: tenantAddr, Tier: domain.TierPro})
	require.NoError(t, err)
	assert.False(t, staker.Active)
	assert.Equal(t, env.clock.Now().Add(domain.BILLING_CYCLE), staker.NextPaymentAt)

	_, err = env.engine.InitStaker(ctx, InitStakerParams{Slug: "gallery", Name: "Other", Authority: tenantAddr, Tier: domain.TierFree})
	assert.ErrorIs(t, err, domain.ErrSlugExists)
}

func TestUpdateSubscriptionUpgradeChargesProRata(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newTenant(t, "gallery", domain.TierAdvanced)

	// Half the cycle remains: the new tier's price is charged twice over.
	env.clock.Advance(15 * 24 * time.Hour)
	require.NoError(t, env.engine.UpdateSubscription(ctx, tenantAddr, "gallery", domain.TierPro, nil))

	assert.Equal(t, uint64(2*200_000), env.custodian.paidTo("transfer_sol", feeSinkAddr))

	staker, err := env.store.GetStakerBySlug(ctx, "gallery")
	require.NoError(t, err)
	assert.Equal(t, domain.TierPro, staker.Subscription)
	assert.Nil(t, staker.PrevSubscription)
	assert.Equal(t, env.clock.Now().Add(domain.BILLING_CYCLE), staker.NextPaymentAt)
}

func TestUpdateSubscriptionDowngradeDefers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newTenant(t, "gallery", domain.TierPro)

	dueAt := env.clock.Now().Add(domain.BILLING_CYCLE)
	env.clock.Advance(10 * 24 * time.Hour)
	require.NoError(t, env.engine.UpdateSubscription(ctx, tenantAddr, "gallery", domain.TierFree, nil))

	// Nothing charged on the way down.
	assert.Equal(t, uint64(0), env.custodian.paidTo("transfer_sol", feeSinkAddr))

	staker, err := env.store.GetStakerBySlug(ctx, "gallery")
	require.NoError(t, err)
	assert.Equal(t, domain.TierFree, staker.Subscription)
	require.NotNil(t, staker.PrevSubscription)
	assert.Equal(t, domain.TierPro, *staker.PrevSubscription)
	require.NotNil(t, staker.SubscriptionLiveAt)
	assert.Equal(t, dueAt, *staker.SubscriptionLiveAt)

	// The richer tier's discount stays in force until the paid-for cycle
	// runs out.
	assert.Equal(t, domain.TierPro, effectiveTier(staker, dueAt.Add(-time.Second)))
	assert.Equal(t, domain.TierFree, effectiveTier(staker, dueAt))
}

func TestUpdateSubscriptionCustomAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newTenant(t, "gallery", domain.TierFree)

	custom := &domain.CustomFees{Amount: 50_000, StakeFee: 1, UnstakeFee: 2, ClaimFee: 3}
	err := env.engine.UpdateSubscription(ctx, tenantAddr, "gallery", domain.TierCustom, custom)
	assert.ErrorIs(t, err, domain.ErrAdminOnly)

	require.NoError(t, env.engine.UpdateSubscription(ctx, adminAddr, "gallery", domain.TierCustom, custom))
	staker, err := env.store.GetStakerBySlug(ctx, "gallery")
	require.NoError(t, err)
	assert.Equal(t, domain.TierCustom, staker.Subscription)
	require.NotNil(t, staker.CustomFees)
	assert.Equal(t, uint64(50_000), staker.CustomFees.Data().Amount)
}

func TestPaySubscription(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newTenant(t, "gallery", domain.TierPro)
	dueAt := env.clock.Now().Add(domain.BILLING_CYCLE)

	// Payment opens one day into the cycle.
	_, err := env.engine.PaySubscription(ctx, tenantAddr, "gallery")
	assert.ErrorIs(t, err, domain.ErrPaymentNotDueYet)

	env.clock.Advance(24*time.Hour + time.Second)
	amount, err := env.engine.PaySubscription(ctx, tenantAddr, "gallery")
	require.NoError(t, err)
	assert.Equal(t, uint64(200_000), amount)

	// Paying before the grace window expires extends the existing due
	// date by a whole cycle.
	staker, err := env.store.GetStakerBySlug(ctx, "gallery")
	require.NoError(t, err)
	assert.Equal(t, dueAt.Add(domain.BILLING_CYCLE), staker.NextPaymentAt)
}

func TestPaySubscriptionLateRestartsCycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newTenant(t, "gallery", domain.TierPro)

	env.clock.Advance(domain.BILLING_CYCLE + domain.SHORT_GRACE_WINDOW + time.Hour)
	_, err := env.engine.PaySubscription(ctx, tenantAddr, "gallery")
	require.NoError(t, err)

	staker, err := env.store.GetStakerBySlug(ctx, "gallery")
	require.NoError(t, err)
	assert.Equal(t, env.clock.Now().Add(domain.BILLING_CYCLE), staker.NextPaymentAt)
}

func TestPaySubscriptionNothingDue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newTenant(t, "gallery", domain.TierFree)

	env.clock.Advance(domain.BILLING_CYCLE)
	_, err := env.engine.PaySubscription(ctx, tenantAddr, "gallery")
	assert.ErrorIs(t, err, domain.ErrNoPaymentDue)
}

func TestUpdateRemoveBrandingChargesOnEnable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newTenant(t, "gallery", domain.TierPro)

	// Fifteen days left of the cycle: the add-on price doubles pro-rata.
	env.clock.Advance(15 * 24 * time.Hour)
	require.NoError(t, env.engine.UpdateRemoveBranding(ctx, tenantAddr, "gallery", true))
	assert.Equal(t, uint64(60_000), env.custodian.paidTo("transfer_sol", feeSinkAddr))

	// Re-enabling or disabling charges nothing.
	require.NoError(t, env.engine.UpdateRemoveBranding(ctx, tenantAddr, "gallery", true))
	require.NoError(t, env.engine.UpdateRemoveBranding(ctx, tenantAddr, "gallery", false))
	assert.Equal(t, uint64(60_000), env.custodian.paidTo("transfer_sol", feeSinkAddr))
}

func TestArrearsBlocksSubscriptionChanges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newTenant(t, "gallery", domain.TierPro)

	env.clock.Advance(domain.BILLING_CYCLE + domain.SHORT_GRACE_WINDOW + time.Hour)

	err := env.engine.UpdateSubscription(ctx, tenantAddr, "gallery", domain.TierUltimate, nil)
	assert.ErrorIs(t, err, domain.ErrStakerInArrears)

	err = env.engine.UpdateRemoveBranding(ctx, tenantAddr, "gallery", true)
	assert.ErrorIs(t, err, domain.ErrStakerInArrears)

	// The platform admin is not blocked by a tenant's arrears.
	require.NoError(t, env.engine.UpdateSubscription(ctx, adminAddr, "gallery", domain.TierUltimate, nil))
}

func TestCloseStakerRequiresEmptyTenant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newTenant(t, "gallery", domain.TierFree)
	env.newCollection(t, "gallery", 10, false)

	err := env.engine.CloseStaker(ctx, tenantAddr, "gallery")
	assert.ErrorIs(t, err, domain.ErrStillHasCollections)
}

func TestAddToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newTenant(t, "gallery", domain.TierFree)

	// A mint-backed token hands its authority to the platform.
	require.NoError(t, env.engine.AddToken(ctx, tenantAddr, "gallery", mintAddr, false))
	grants := env.custodian.callsOf("set_mint_authority")
	require.Len(t, grants, 1)
	assert.Equal(t, adminAddr, grants[0].to)

	err := env.engine.AddToken(ctx, tenantAddr, "gallery", mintAddr, true)
	assert.ErrorIs(t, err, domain.ErrTokenExists)
}
