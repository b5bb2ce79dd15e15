package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakehaus/stake-engine/internal/domain"
)

// setupDistribution builds a tenant with a distribution emission and three
// live stakes
func setupDistribution(t *testing.T, env *testEnv, params InitDistributionParams) (uint64, uint64) {
	t.Helper()
	ctx := context.Background()
	env.newTenant(t, "gallery", domain.TierFree)
	collectionID := env.newCollection(t, "gallery", 10, false)
	_, err := env.engine.AddEmission(ctx, tenantAddr, "gallery", collectionID, AddEmissionParams{
		Kind: domain.RewardDistribution,
	})
	require.NoError(t, err)
	if params.Label == "" {
		params.Label = "season one"
	}
	distribution, err := env.engine.InitDistribution(ctx, tenantAddr, "gallery", collectionID, params)
	require.NoError(t, err)

	for _, mint := range []string{nftMint, nftMint2, testAddr(0x09)} {
		env.stake(t, collectionID, mint)
	}
	return collectionID, distribution.ID
}

func TestDistributeSplitsEqually(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, distributionID := setupDistribution(t, env, InitDistributionParams{})

	// 1000 over three stakes: 333 each, one lamport left in the pot.
	require.NoError(t, env.engine.Distribute(ctx, tenantAddr, "gallery", distributionID, 1000))

	var credited uint64
	for _, mint := range []string{nftMint, nftMint2, testAddr(0x09)} {
		record, err := env.store.GetStakeRecordByMint(ctx, mint)
		require.NoError(t, err)
		assert.Equal(t, uint64(333), record.SolBalance)
		credited += record.SolBalance
	}

	distribution, err := env.store.GetDistributionByID(ctx, distributionID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), distribution.TotalFunded)
	assert.Equal(t, uint64(1), distribution.Balance)
	// Nothing minted, nothing lost.
	assert.Equal(t, uint64(1000), credited+distribution.Balance)
}

func TestDistributeWeightsByFixedShares(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, distributionID := setupDistribution(t, env, InitDistributionParams{Shares: 10})

	// A fixed ten-share pot pays a tenth of the funding per live stake,
	// regardless of how many happen to be staked.
	require.NoError(t, env.engine.Distribute(ctx, tenantAddr, "gallery", distributionID, 1000))

	for _, mint := range []string{nftMint, nftMint2, testAddr(0x09)} {
		record, err := env.store.GetStakeRecordByMint(ctx, mint)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), record.SolBalance)
	}

	distribution, err := env.store.GetDistributionByID(ctx, distributionID)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), distribution.SharesFunded)
	assert.Equal(t, uint64(700), distribution.Balance)
	assert.Equal(t, uint64(1000), distribution.TotalFunded)

	// Three stakes consume three shares per funding: the fourth funding
	// would push past ten.
	require.NoError(t, env.engine.Distribute(ctx, tenantAddr, "gallery", distributionID, 1000))
	require.NoError(t, env.engine.Distribute(ctx, tenantAddr, "gallery", distributionID, 1000))
	err = env.engine.Distribute(ctx, tenantAddr, "gallery", distributionID, 1000)
	assert.ErrorIs(t, err, domain.ErrTotalSharesFunded)

	distribution, err = env.store.GetDistributionByID(ctx, distributionID)
	require.NoError(t, err)
	assert.Equal(t, uint32(9), distribution.SharesFunded)
}

func TestInitDistributionSeedFunding(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newTenant(t, "gallery", domain.TierFree)
	collectionID := env.newCollection(t, "gallery", 10, false)
	_, err := env.engine.AddEmission(ctx, tenantAddr, "gallery", collectionID, AddEmissionParams{
		Kind: domain.RewardDistribution,
	})
	require.NoError(t, err)

	distribution, err := env.engine.InitDistribution(ctx, tenantAddr, "gallery", collectionID, InitDistributionParams{
		Label:  "season one",
		URI:    "https://arweave.net/season-one-log",
		Shares: 10,
		Amount: 5000,
	})
	require.NoError(t, err)

	// Seed funding moves into the pot immediately and waits there.
	assert.Equal(t, uint64(5000), env.custodian.paidTo("transfer_sol", ""))
	assert.Equal(t, uint64(5000), distribution.Balance)
	assert.Equal(t, uint64(5000), distribution.TotalFunded)
	assert.Equal(t, uint32(10), distribution.Shares)
	assert.Equal(t, "https://arweave.net/season-one-log", distribution.URI)
}

func TestDistributeTokenPotUsesShareRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	payout := mintAddr
	_, distributionID := setupDistribution(t, env, InitDistributionParams{TokenMint: &payout})

	require.NoError(t, env.engine.Distribute(ctx, tenantAddr, "gallery", distributionID, 900))
	require.NoError(t, env.engine.Distribute(ctx, tenantAddr, "gallery", distributionID, 300))

	// Shares accumulate across fundings.
	share, err := env.store.GetShareRecord(ctx, distributionID, nftMint)
	require.NoError(t, err)
	require.NotNil(t, share)
	assert.Equal(t, uint64(400), share.Amount)

	distribution, err := env.store.GetDistributionByID(ctx, distributionID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1200), distribution.TotalFunded)
	assert.Equal(t, uint64(0), distribution.Balance)
}

func TestClaimDrainsTokenShares(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	payout := mintAddr
	_, distributionID := setupDistribution(t, env, InitDistributionParams{TokenMint: &payout})
	require.NoError(t, env.engine.Distribute(ctx, tenantAddr, "gallery", distributionID, 900))

	paid, err := env.engine.Claim(ctx, ClaimParams{Slug: "gallery", NftMint: nftMint, Owner: ownerAddr})
	require.NoError(t, err)
	assert.Equal(t, uint64(300), paid)
	assert.Equal(t, uint64(300), env.custodian.paidTo("transfer_token", ownerAddr))

	share, err := env.store.GetShareRecord(ctx, distributionID, nftMint)
	require.NoError(t, err)
	require.NotNil(t, share)
	assert.Equal(t, uint64(0), share.Amount)

	distribution, err := env.store.GetDistributionByID(ctx, distributionID)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), distribution.ClaimedAmount)

	// Drained means drained: a second claim finds nothing.
	_, err = env.engine.Claim(ctx, ClaimParams{Slug: "gallery", NftMint: nftMint, Owner: ownerAddr})
	assert.ErrorIs(t, err, domain.ErrNoTokensToClaim)
}

func TestUnstakeDrainsTokenShares(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	payout := mintAddr
	_, distributionID := setupDistribution(t, env, InitDistributionParams{TokenMint: &payout})
	require.NoError(t, env.engine.Distribute(ctx, tenantAddr, "gallery", distributionID, 900))

	env.clock.Advance(time.Hour)
	paid, err := env.engine.Unstake(ctx, UnstakeParams{Slug: "gallery", NftMint: nftMint, Owner: ownerAddr})
	require.NoError(t, err)
	assert.Equal(t, uint64(300), paid)
	assert.Equal(t, uint64(300), env.custodian.paidTo("transfer_token", ownerAddr))
}

func TestDistributeWithNoStakersKeepsBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newTenant(t, "gallery", domain.TierFree)
	collectionID := env.newCollection(t, "gallery", 10, false)
	_, err := env.engine.AddEmission(ctx, tenantAddr, "gallery", collectionID, AddEmissionParams{
		Kind: domain.RewardDistribution,
	})
	require.NoError(t, err)
	distribution, err := env.engine.InitDistribution(ctx, tenantAddr, "gallery", collectionID, InitDistributionParams{Label: "empty"})
	require.NoError(t, err)

	require.NoError(t, env.engine.Distribute(ctx, tenantAddr, "gallery", distribution.ID, 777))

	stored, err := env.store.GetDistributionByID(ctx, distribution.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(777), stored.Balance)
	assert.Equal(t, uint64(777), stored.TotalFunded)
}

func TestDistributeClosedEmissionFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	collectionID, distributionID := setupDistribution(t, env, InitDistributionParams{})

	require.NoError(t, env.engine.CloseEmission(ctx, tenantAddr, "gallery", collectionID, domain.RewardDistribution))
	err := env.engine.Distribute(ctx, tenantAddr, "gallery", distributionID, 500)
	assert.ErrorIs(t, err, domain.ErrInvalidEmission)
}

func TestClaimDrainsDistributedBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, distributionID := setupDistribution(t, env, InitDistributionParams{})
	require.NoError(t, env.engine.Distribute(ctx, tenantAddr, "gallery", distributionID, 900))

	paid, err := env.engine.Claim(ctx, ClaimParams{Slug: "gallery", NftMint: nftMint, Owner: ownerAddr})
	require.NoError(t, err)
	assert.Equal(t, uint64(300), paid)

	record, err := env.store.GetStakeRecordByMint(ctx, nftMint)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), record.SolBalance)

	// Drained means drained: a second claim finds nothing.
	_, err = env.engine.Claim(ctx, ClaimParams{Slug: "gallery", NftMint: nftMint, Owner: ownerAddr})
	assert.ErrorIs(t, err, domain.ErrNoTokensToClaim)
}

func TestUnstakeDrainsDistributedBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, distributionID := setupDistribution(t, env, InitDistributionParams{})
	require.NoError(t, env.engine.Distribute(ctx, tenantAddr, "gallery", distributionID, 900))

	env.clock.Advance(time.Hour)
	paid, err := env.engine.Unstake(ctx, UnstakeParams{Slug: "gallery", NftMint: nftMint, Owner: ownerAddr})
	require.NoError(t, err)
	assert.Equal(t, uint64(300), paid)

	record, err := env.store.GetStakeRecordByMint(ctx, nftMint)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestInitDistributionValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newTenant(t, "gallery", domain.TierFree)
	collectionID := env.newCollection(t, "gallery", 10, false)

	_, err := env.engine.InitDistribution(ctx, tenantAddr, "gallery", collectionID, InitDistributionParams{Label: "season one"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmission)

	_, err = env.engine.InitDistribution(ctx, tenantAddr, "gallery", collectionID, InitDistributionParams{Label: "a label that is far too long"})
	assert.ErrorIs(t, err, domain.ErrLabelTooLong)

	_, err = env.engine.InitDistribution(ctx, tenantAddr, "gallery", collectionID, InitDistributionParams{
		Label: "season one",
		URI:   "https://arweave.net/" + strings.Repeat("x", 64),
	})
	assert.ErrorIs(t, err, domain.ErrURITooLong)
}
