package store

import (
	"context"
	"time"

	"github.com/stakehaus/stake-engine/internal/store/schema"
)

// Store defines the interface for database operations
type Store interface {
	// Atomic runs fn inside a single transaction. The Store passed to fn
	// issues all of its operations against that transaction; returning an
	// error rolls everything back.
	Atomic(ctx context.Context, fn func(tx Store) error) error

	// GetProgramConfig retrieves the platform configuration singleton
	GetProgramConfig(ctx context.Context) (*schema.ProgramConfig, error)
	// SaveProgramConfig creates or updates the platform configuration singleton
	SaveProgramConfig(ctx context.Context, cfg *schema.ProgramConfig) error

	// CreateStaker creates a new tenant record
	CreateStaker(ctx context.Context, staker *schema.Staker) error
	// GetStakerByID retrieves a tenant by its internal ID
	GetStakerByID(ctx context.Context, id uint64) (*schema.Staker, error)
	// GetStakerBySlug retrieves a tenant by its slug
	GetStakerBySlug(ctx context.Context, slug string) (*schema.Staker, error)
	// SaveStaker persists changes to a tenant record
	SaveStaker(ctx context.Context, staker *schema.Staker) error
	// DeleteStaker removes a tenant record
	DeleteStaker(ctx context.Context, id uint64) error
	// ListStakersDue retrieves active tenants whose next payment time is at
	// or before the cutoff
	ListStakersDue(ctx context.Context, cutoff time.Time, limit int) ([]*schema.Staker, error)
	// CountCollectionsByStaker counts the collections belonging to a tenant
	CountCollectionsByStaker(ctx context.Context, stakerID uint64) (int64, error)

	// CreateCollection creates a new collection record
	CreateCollection(ctx context.Context, collection *schema.Collection) error
	// GetCollectionByID retrieves a collection by its internal ID
	GetCollectionByID(ctx context.Context, id uint64) (*schema.Collection, error)
	// GetCollectionByMint retrieves a tenant's collection by its verified
	// collection mint address
	GetCollectionByMint(ctx context.Context, stakerID uint64, mint string) (*schema.Collection, error)
	// ListCollectionsByStaker retrieves all collections belonging to a tenant
	ListCollectionsByStaker(ctx context.Context, stakerID uint64) ([]*schema.Collection, error)
	// ListCollectionIDsByRewardMint retrieves the IDs of every collection
	// whose token emission pays out the given mint
	ListCollectionIDsByRewardMint(ctx context.Context, stakerID uint64, mint string) ([]uint64, error)
	// SaveCollection persists changes to a collection record
	SaveCollection(ctx context.Context, collection *schema.Collection) error
	// DeleteCollection removes a collection record
	DeleteCollection(ctx context.Context, id uint64) error

	// CreateEmission creates a new emission record
	CreateEmission(ctx context.Context, emission *schema.Emission) error
	// GetEmissionByID retrieves an emission by its internal ID
	GetEmissionByID(ctx context.Context, id uint64) (*schema.Emission, error)
	// ListEmissionsByCollection retrieves all emissions attached to a collection
	ListEmissionsByCollection(ctx context.Context, collectionID uint64) ([]*schema.Emission, error)
	// SaveEmission persists changes to an emission record
	SaveEmission(ctx context.Context, emission *schema.Emission) error
	// DeleteEmission removes an emission record
	DeleteEmission(ctx context.Context, id uint64) error

	// CreateStakeRecord creates a new stake record
	CreateStakeRecord(ctx context.Context, record *schema.StakeRecord) error
	// GetStakeRecordByMint retrieves the live stake record for an NFT, or
	// nil when the NFT is not staked
	GetStakeRecordByMint(ctx context.Context, nftMint string) (*schema.StakeRecord, error)
	// ListStakeRecordsByCollection retrieves all live stake records under a
	// collection
	ListStakeRecordsByCollection(ctx context.Context, collectionID uint64) ([]*schema.StakeRecord, error)
	// SaveStakeRecord persists changes to a stake record
	SaveStakeRecord(ctx context.Context, record *schema.StakeRecord) error
	// DeleteStakeRecord removes a stake record
	DeleteStakeRecord(ctx context.Context, id uint64) error

	// GetNftRecord retrieves the points ledger row for an NFT under a tenant,
	// or nil when none exists
	GetNftRecord(ctx context.Context, stakerID uint64, nftMint string) (*schema.NftRecord, error)
	// AddNftRecordPoints credits points to an NFT's ledger row, creating the
	// row when it does not exist yet
	AddNftRecordPoints(ctx context.Context, stakerID uint64, nftMint string, points uint64) error

	// CreateDistribution creates a new distribution pot
	CreateDistribution(ctx context.Context, distribution *schema.Distribution) error
	// GetDistributionByID retrieves a distribution pot by its internal ID
	GetDistributionByID(ctx context.Context, id uint64) (*schema.Distribution, error)
	// SaveDistribution persists changes to a distribution pot
	SaveDistribution(ctx context.Context, distribution *schema.Distribution) error
	// ListDistributionsByCollection retrieves all distribution pots under a
	// collection
	ListDistributionsByCollection(ctx context.Context, collectionID uint64) ([]*schema.Distribution, error)
	// AddShareAmount credits a token share to an NFT under a distribution
	// pot, creating the row when it does not exist yet
	AddShareAmount(ctx context.Context, distributionID uint64, nftMint string, amount uint64) error
	// SaveShareRecord persists changes to a share row
	SaveShareRecord(ctx context.Context, record *schema.ShareRecord) error
	// GetShareRecord retrieves an NFT's share row under a distribution pot,
	// or nil when none exists
	GetShareRecord(ctx context.Context, distributionID uint64, nftMint string) (*schema.ShareRecord, error)

	// CreateWebhookEndpoint registers a delivery endpoint for a tenant
	CreateWebhookEndpoint(ctx context.Context, endpoint *schema.WebhookEndpoint) error
	// ListActiveWebhookEndpoints retrieves a tenant's active endpoints
	ListActiveWebhookEndpoints(ctx context.Context, stakerID uint64) ([]*schema.WebhookEndpoint, error)
	// CreateWebhookDelivery records a delivery attempt row
	CreateWebhookDelivery(ctx context.Context, delivery *schema.WebhookDelivery) error
	// SaveWebhookDelivery persists changes to a delivery row
	SaveWebhookDelivery(ctx context.Context, delivery *schema.WebhookDelivery) error
	// ListWebhookDeliveries retrieves an endpoint's delivery rows, newest
	// first
	ListWebhookDeliveries(ctx context.Context, endpointID uint64, limit int) ([]*schema.WebhookDelivery, error)
}
