package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakehaus/stake-engine/internal/domain"
)

func TestInitCollectionDefaultsAndWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newTenant(t, "gallery", domain.TierFree)

	collection, err := env.engine.InitCollection(ctx, tenantAddr, "gallery", InitCollectionParams{
		CollectionMint: collMint,
		MaxStakers:     10,
	})
	require.NoError(t, err)
	assert.Equal(t, env.clock.Now(), collection.StartAt)
	assert.Equal(t, time.Unix(domain.DEFAULT_STAKING_ENDS, 0), collection.EndAt)
	assert.True(t, collection.Active)

	past := env.clock.Now().Add(-time.Hour)
	_, err = env.engine.InitCollection(ctx, tenantAddr, "gallery", InitCollectionParams{
		CollectionMint: collMint,
		MaxStakers:     10,
		StartAt:        &past,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStartTime)
}

func TestInitCollectionExtraCollectionCharge(t *testing.T) {
	env := newTestEnv(t)
	env.newTenant(t, "gallery", domain.TierPro)

	// The first collection is free of the add-on charge.
	env.newCollection(t, "gallery", 10, false)
	assert.Equal(t, uint64(0), env.custodian.paidTo("transfer_sol", feeSinkAddr))

	// A whole cycle remains, so the second charges the full monthly price.
	env.newCollection(t, "gallery", 10, false)
	assert.Equal(t, uint64(50_000), env.custodian.paidTo("transfer_sol", feeSinkAddr))
}

func TestAddEmissionSolvencyBoundary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newTenant(t, "gallery", domain.TierPro)
	require.NoError(t, env.engine.AddToken(ctx, tenantAddr, "gallery", mintAddr, true))
	collectionID := env.newCollection(t, "gallery", 10, false)
	end := env.clock.Now().Add(time.Hour)

	// Ten seats at ten per second for an hour needs exactly 360000.
	_, err := env.engine.AddEmission(ctx, tenantAddr, "gallery", collectionID, AddEmissionParams{
		Kind:       domain.RewardToken,
		RewardRate: 10,
		EndAt:      &end,
		FundAmount: 359_999,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientBalanceInVault)

	emission, err := env.engine.AddEmission(ctx, tenantAddr, "gallery", collectionID, AddEmissionParams{
		Kind:       domain.RewardToken,
		RewardRate: 10,
		EndAt:      &end,
		FundAmount: 360_000,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(360_000), emission.VaultBalance)
	funded := env.custodian.callsOf("transfer_token")
	require.Len(t, funded, 1)
	assert.Equal(t, uint64(360_000), funded[0].amount)
}

func TestAddEmissionOnePerKind(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newTenant(t, "gallery", domain.TierFree)
	collectionID := env.newCollection(t, "gallery", 10, false)

	_, err := env.engine.AddEmission(ctx, tenantAddr, "gallery", collectionID, AddEmissionParams{Kind: domain.RewardPoints})
	require.NoError(t, err)
	_, err = env.engine.AddEmission(ctx, tenantAddr, "gallery", collectionID, AddEmissionParams{Kind: domain.RewardPoints})
	assert.ErrorIs(t, err, domain.ErrEmissionExists)

	// A second kind coexists.
	_, err = env.engine.AddEmission(ctx, tenantAddr, "gallery", collectionID, AddEmissionParams{Kind: domain.RewardDistribution})
	require.NoError(t, err)

	// Closing a kind frees its slot.
	require.NoError(t, env.engine.CloseEmission(ctx, tenantAddr, "gallery", collectionID, domain.RewardPoints))
	_, err = env.engine.AddEmission(ctx, tenantAddr, "gallery", collectionID, AddEmissionParams{Kind: domain.RewardPoints})
	require.NoError(t, err)
}

func TestAddEmissionVaultRequiresEndDate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newTenant(t, "gallery", domain.TierFree)
	require.NoError(t, env.engine.AddToken(ctx, tenantAddr, "gallery", mintAddr, true))
	collectionID := env.newCollection(t, "gallery", 10, false)

	_, err := env.engine.AddEmission(ctx, tenantAddr, "gallery", collectionID, AddEmissionParams{
		Kind:       domain.RewardToken,
		RewardRate: 10,
		FundAmount: 1_000_000,
	})
	assert.ErrorIs(t, err, domain.ErrDurationRequired)

	_, err = env.engine.AddEmission(ctx, tenantAddr, "gallery", collectionID, AddEmissionParams{
		Kind: domain.RewardToken,
	})
	assert.ErrorIs(t, err, domain.ErrRewardRequired)
}

func TestChangeReward(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	collectionID := setupVaultEmission(t, env, 10, 10, time.Hour)

	env.clock.Advance(30 * time.Minute)

	// Doubling the rate for the remaining half hour needs the full vault;
	// with vault exactly equal to the requirement this passes.
	require.NoError(t, env.engine.ChangeReward(ctx, tenantAddr, "gallery", collectionID, 20))

	// Tripling cannot be covered.
	err := env.engine.ChangeReward(ctx, tenantAddr, "gallery", collectionID, 30)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalanceInVault)

	collection, err := env.store.GetCollectionByID(ctx, collectionID)
	require.NoError(t, err)
	emission, err := env.store.GetEmissionByID(ctx, *collection.TokenEmissionID)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), emission.RewardRate)
	require.Len(t, emission.RewardSteps, 2)
	assert.Equal(t, uint64(10), emission.RewardSteps[0].Rate)
	assert.Equal(t, uint64(20), emission.RewardSteps[1].Rate)
}

func TestChangeRewardAccountsForAccruedObligations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	collectionID := setupVaultEmission(t, env, 10, 10, time.Hour)
	env.stake(t, collectionID, nftMint)

	// Half an hour in, one stake is already owed 18000; the vault can no
	// longer cover a doubled rate for everyone.
	env.clock.Advance(30 * time.Minute)
	err := env.engine.ChangeReward(ctx, tenantAddr, "gallery", collectionID, 20)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalanceInVault)
}

func TestExtendEmission(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	collectionID := setupVaultEmission(t, env, 10, 10, time.Hour)
	start := env.clock.Now()

	// Shrinking or reversing the window is refused.
	err := env.engine.ExtendEmission(ctx, tenantAddr, "gallery", collectionID, start.Add(30*time.Minute))
	assert.ErrorIs(t, err, domain.ErrInvalidStakeEndTime)

	// Extending doubles the obligation; the vault only covers the first
	// hour.
	err = env.engine.ExtendEmission(ctx, tenantAddr, "gallery", collectionID, start.Add(2*time.Hour))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalanceInVault)

	collection, err := env.store.GetCollectionByID(ctx, collectionID)
	require.NoError(t, err)
	require.NoError(t, env.engine.AddFunds(ctx, tenantAddr, "gallery", collectionID, *collection.TokenEmissionID, 360_000))
	require.NoError(t, env.engine.ExtendEmission(ctx, tenantAddr, "gallery", collectionID, start.Add(2*time.Hour)))
}

func TestExtendEmissionRequiresEndDate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newTenant(t, "gallery", domain.TierFree)
	// Mint-backed emissions may run open-ended.
	require.NoError(t, env.engine.AddToken(ctx, tenantAddr, "gallery", mintAddr, false))
	collectionID := env.newCollection(t, "gallery", 10, false)
	_, err := env.engine.AddEmission(ctx, tenantAddr, "gallery", collectionID, AddEmissionParams{
		Kind:       domain.RewardToken,
		RewardRate: 10,
	})
	require.NoError(t, err)

	err = env.engine.ExtendEmission(ctx, tenantAddr, "gallery", collectionID, env.clock.Now().Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrCannotExtendNoEndDate)
}

func TestRemoveFunds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	collectionID := setupVaultEmission(t, env, 10, 10, time.Hour)
	collection, err := env.store.GetCollectionByID(ctx, collectionID)
	require.NoError(t, err)
	emissionID := *collection.TokenEmissionID

	// A live collection keeps its vault.
	_, err = env.engine.RemoveFunds(ctx, tenantAddr, "gallery", collectionID, emissionID)
	assert.ErrorIs(t, err, domain.ErrCollectionActive)

	require.NoError(t, env.engine.ToggleCollectionActive(ctx, tenantAddr, "gallery", collectionID, false))
	recovered, err := env.engine.RemoveFunds(ctx, tenantAddr, "gallery", collectionID, emissionID)
	require.NoError(t, err)
	assert.Equal(t, uint64(360_000), recovered)
	assert.Equal(t, uint64(360_000), env.custodian.paidTo("transfer_token", tenantAddr))

	emission, err := env.store.GetEmissionByID(ctx, emissionID)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), emission.VaultBalance)
}

func TestRemoveFundsBlockedByStakers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	collectionID := setupVaultEmission(t, env, 10, 10, time.Hour)
	env.stake(t, collectionID, nftMint)
	collection, err := env.store.GetCollectionByID(ctx, collectionID)
	require.NoError(t, err)

	require.NoError(t, env.engine.ToggleCollectionActive(ctx, tenantAddr, "gallery", collectionID, false))
	_, err = env.engine.RemoveFunds(ctx, tenantAddr, "gallery", collectionID, *collection.TokenEmissionID)
	assert.ErrorIs(t, err, domain.ErrCollectionHasStakers)
}

func TestCloseCollectionPreconditions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	collectionID := setupVaultEmission(t, env, 10, 10, time.Hour)
	env.stake(t, collectionID, nftMint)

	err := env.engine.CloseCollection(ctx, tenantAddr, "gallery", collectionID, nil)
	assert.ErrorIs(t, err, domain.ErrStillHasEmissions)

	require.NoError(t, env.engine.CloseEmission(ctx, tenantAddr, "gallery", collectionID, domain.RewardToken))
	err = env.engine.CloseCollection(ctx, tenantAddr, "gallery", collectionID, nil)
	assert.ErrorIs(t, err, domain.ErrCollectionHasStakers)

	_, err = env.engine.Unstake(ctx, UnstakeParams{Slug: "gallery", NftMint: nftMint, Owner: ownerAddr})
	require.NoError(t, err)
	require.NoError(t, env.engine.CloseCollection(ctx, tenantAddr, "gallery", collectionID, nil))
}

func TestCloseCollectionMintBackedSiblings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newTenant(t, "gallery", domain.TierPro)
	require.NoError(t, env.engine.AddToken(ctx, tenantAddr, "gallery", mintAddr, false))

	first := env.newCollection(t, "gallery", 10, false)
	second := env.newCollection(t, "gallery", 10, false)
	for _, id := range []uint64{first, second} {
		_, err := env.engine.AddEmission(ctx, tenantAddr, "gallery", id, AddEmissionParams{
			Kind:       domain.RewardToken,
			RewardRate: 10,
		})
		require.NoError(t, err)
	}
	require.NoError(t, env.engine.CloseEmission(ctx, tenantAddr, "gallery", first, domain.RewardToken))
	require.NoError(t, env.engine.CloseEmission(ctx, tenantAddr, "gallery", second, domain.RewardToken))

	// Closing one without naming the other collection on the same mint is
	// refused.
	err := env.engine.CloseCollection(ctx, tenantAddr, "gallery", first, nil)
	assert.ErrorIs(t, err, domain.ErrCollectionsMissing)

	require.NoError(t, env.engine.CloseCollection(ctx, tenantAddr, "gallery", first, []uint64{second}))
	// Siblings remain, the platform keeps the mint authority.
	assert.Len(t, env.custodian.callsOf("set_mint_authority"), 1)

	// Closing the last one hands the authority back to the tenant.
	require.NoError(t, env.engine.CloseCollection(ctx, tenantAddr, "gallery", second, nil))
	grants := env.custodian.callsOf("set_mint_authority")
	require.Len(t, grants, 2)
	assert.Equal(t, tenantAddr, grants[1].to)
}
