package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stakehaus/stake-engine/internal/domain"
	"github.com/stakehaus/stake-engine/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// It accesses the underlying *sql.DB and sets the pool configuration.
// If any of the pool settings are 0 or empty, reasonable defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	// Set defaults if not provided
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// Atomic runs fn inside a single transaction
func (s *pgStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pgStore{db: tx})
	})
}

// GetProgramConfig retrieves the platform configuration singleton
func (s *pgStore) GetProgramConfig(ctx context.Context) (*schema.ProgramConfig, error) {
	var cfg schema.ProgramConfig
	err := s.db.WithContext(ctx).Where("id = ?", schema.ProgramConfigID).First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get program config: %w", err)
	}
	return &cfg, nil
}

// SaveProgramConfig creates or updates the platform configuration singleton
func (s *pgStore) SaveProgramConfig(ctx context.Context, cfg *schema.ProgramConfig) error {
	cfg.ID = schema.ProgramConfigID
	if err := s.db.WithContext(ctx).Save(cfg).Error; err != nil {
		return fmt.Errorf("failed to save program config: %w", err)
	}
	return nil
}

// CreateStaker creates a new tenant record
func (s *pgStore) CreateStaker(ctx context.Context, staker *schema.Staker) error {
	if err := s.db.WithContext(ctx).Create(staker).Error; err != nil {
		return fmt.Errorf("failed to create staker: %w", err)
	}
	return nil
}

// GetStakerByID retrieves a tenant by its internal ID
func (s *pgStore) GetStakerByID(ctx context.Context, id uint64) (*schema.Staker, error) {
	var staker schema.Staker
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&staker).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get staker: %w", err)
	}
	return &staker, nil
}

// GetStakerBySlug retrieves a tenant by its slug
func (s *pgStore) GetStakerBySlug(ctx context.Context, slug string) (*schema.Staker, error) {
	var staker schema.Staker
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&staker).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get staker by slug: %w", err)
	}
	return &staker, nil
}

// SaveStaker persists changes to a tenant record
func (s *pgStore) SaveStaker(ctx context.Context, staker *schema.Staker) error {
	if err := s.db.WithContext(ctx).Save(staker).Error; err != nil {
		return fmt.Errorf("failed to save staker: %w", err)
	}
	return nil
}

// DeleteStaker removes a tenant record
func (s *pgStore) DeleteStaker(ctx context.Context, id uint64) error {
	if err := s.db.WithContext(ctx).Delete(&schema.Staker{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete staker: %w", err)
	}
	return nil
}

// ListStakersDue retrieves active paying tenants whose next payment time is
// at or before the cutoff
func (s *pgStore) ListStakersDue(ctx context.Context, cutoff time.Time, limit int) ([]*schema.Staker, error) {
	var stakers []*schema.Staker
	err := s.db.WithContext(ctx).
		Where("active = ? AND subscription <> ? AND next_payment_at <= ?", true, domain.TierFree, cutoff).
		Order("next_payment_at ASC").
		Limit(limit).
		Find(&stakers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stakers due: %w", err)
	}
	return stakers, nil
}

// CountCollectionsByStaker counts the collections belonging to a tenant
func (s *pgStore) CountCollectionsByStaker(ctx context.Context, stakerID uint64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&schema.Collection{}).
		Where("staker_id = ?", stakerID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count collections: %w", err)
	}
	return count, nil
}

// CreateCollection creates a new collection record
func (s *pgStore) CreateCollection(ctx context.Context, collection *schema.Collection) error {
	if err := s.db.WithContext(ctx).Create(collection).Error; err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// GetCollectionByID retrieves a collection by its internal ID
func (s *pgStore) GetCollectionByID(ctx context.Context, id uint64) (*schema.Collection, error) {
	var collection schema.Collection
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&collection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return &collection, nil
}

// GetCollectionByMint retrieves a tenant's collection by its verified
// collection mint address
func (s *pgStore) GetCollectionByMint(ctx context.Context, stakerID uint64, mint string) (*schema.Collection, error) {
	var collection schema.Collection
	err := s.db.WithContext(ctx).
		Where("staker_id = ? AND collection_mint = ?", stakerID, mint).
		First(&collection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get collection by mint: %w", err)
	}
	return &collection, nil
}

// ListCollectionsByStaker retrieves all collections belonging to a tenant
func (s *pgStore) ListCollectionsByStaker(ctx context.Context, stakerID uint64) ([]*schema.Collection, error) {
	var collections []*schema.Collection
	err := s.db.WithContext(ctx).
		Where("staker_id = ?", stakerID).
		Order("id ASC").
		Find(&collections).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return collections, nil
}

// ListCollectionIDsByRewardMint retrieves the IDs of every collection whose
// token emission pays out the given mint
func (s *pgStore) ListCollectionIDsByRewardMint(ctx context.Context, stakerID uint64, mint string) ([]uint64, error) {
	var ids []uint64
	err := s.db.WithContext(ctx).
		Model(&schema.Emission{}).
		Joins("JOIN collections ON collections.id = emissions.collection_id").
		Where("collections.staker_id = ? AND emissions.kind = ? AND emissions.token_mint = ?",
			stakerID, domain.RewardToken, mint).
		Distinct().
		Pluck("collections.id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list collections by reward mint: %w", err)
	}
	return ids, nil
}

// SaveCollection persists changes to a collection record
func (s *pgStore) SaveCollection(ctx context.Context, collection *schema.Collection) error {
	if err := s.db.WithContext(ctx).Save(collection).Error; err != nil {
		return fmt.Errorf("failed to save collection: %w", err)
	}
	return nil
}

// DeleteCollection removes a collection record
func (s *pgStore) DeleteCollection(ctx context.Context, id uint64) error {
	if err := s.db.WithContext(ctx).Delete(&schema.Collection{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return nil
}

// CreateEmission creates a new emission record
func (s *pgStore) CreateEmission(ctx context.Context, emission *schema.Emission) error {
	if err := s.db.WithContext(ctx).Create(emission).Error; err != nil {
		return fmt.Errorf("failed to create emission: %w", err)
	}
	return nil
}

// GetEmissionByID retrieves an emission by its internal ID
func (s *pgStore) GetEmissionByID(ctx context.Context, id uint64) (*schema.Emission, error) {
	var emission schema.Emission
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&emission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get emission: %w", err)
	}
	return &emission, nil
}

// ListEmissionsByCollection retrieves all emissions attached to a collection
func (s *pgStore) ListEmissionsByCollection(ctx context.Context, collectionID uint64) ([]*schema.Emission, error) {
	var emissions []*schema.Emission
	err := s.db.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		Order("id ASC").
		Find(&emissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list emissions: %w", err)
	}
	return emissions, nil
}

// SaveEmission persists changes to an emission record
func (s *pgStore) SaveEmission(ctx context.Context, emission *schema.Emission) error {
	if err := s.db.WithContext(ctx).Save(emission).Error; err != nil {
		return fmt.Errorf("failed to save emission: %w", err)
	}
	return nil
}

// DeleteEmission removes an emission record
func (s *pgStore) DeleteEmission(ctx context.Context, id uint64) error {
	if err := s.db.WithContext(ctx).Delete(&schema.Emission{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete emission: %w", err)
	}
	return nil
}

// CreateStakeRecord creates a new stake record
func (s *pgStore) CreateStakeRecord(ctx context.Context, record *schema.StakeRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create stake record: %w", err)
	}
	return nil
}

// GetStakeRecordByMint retrieves the live stake record for an NFT
func (s *pgStore) GetStakeRecordByMint(ctx context.Context, nftMint string) (*schema.StakeRecord, error) {
	var record schema.StakeRecord
	err := s.db.WithContext(ctx).Where("nft_mint = ?", nftMint).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get stake record: %w", err)
	}
	return &record, nil
}

// ListStakeRecordsByCollection retrieves all live stake records under a collection
func (s *pgStore) ListStakeRecordsByCollection(ctx context.Context, collectionID uint64) ([]*schema.StakeRecord, error) {
	var records []*schema.StakeRecord
	err := s.db.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stake records: %w", err)
	}
	return records, nil
}

// SaveStakeRecord persists changes to a stake record
func (s *pgStore) SaveStakeRecord(ctx context.Context, record *schema.StakeRecord) error {
	if err := s.db.WithContext(ctx).Save(record).Error; err != nil {
		return fmt.Errorf("failed to save stake record: %w", err)
	}
	return nil
}

// DeleteStakeRecord removes a stake record
func (s *pgStore) DeleteStakeRecord(ctx context.Context, id uint64) error {
	if err := s.db.WithContext(ctx).Delete(&schema.StakeRecord{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete stake record: %w", err)
	}
	return nil
}

// GetNftRecord retrieves the points ledger row for an NFT under a tenant
func (s *pgStore) GetNftRecord(ctx context.Context, stakerID uint64, nftMint string) (*schema.NftRecord, error) {
	var record schema.NftRecord
	err := s.db.WithContext(ctx).
		Where("staker_id = ? AND nft_mint = ?", stakerID, nftMint).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get nft record: %w", err)
	}
	return &record, nil
}

// AddNftRecordPoints credits points to an NFT's ledger row, creating the row
// when it does not exist yet
func (s *pgStore) AddNftRecordPoints(ctx context.Context, stakerID uint64, nftMint string, points uint64) error {
	record := schema.NftRecord{
		StakerID: stakerID,
		NftMint:  nftMint,
		Points:   points,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "staker_id"}, {Name: "nft_mint"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"points": gorm.Expr("nft_records.points + ?", points),
		}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to add nft record points: %w", err)
	}
	return nil
}

// CreateDistribution creates a new distribution pot
func (s *pgStore) CreateDistribution(ctx context.Context, distribution *schema.Distribution) error {
	if err := s.db.WithContext(ctx).Create(distribution).Error; err != nil {
		return fmt.Errorf("failed to create distribution: %w", err)
	}
	return nil
}

// GetDistributionByID retrieves a distribution pot by its internal ID
func (s *pgStore) GetDistributionByID(ctx context.Context, id uint64) (*schema.Distribution, error) {
	var distribution schema.Distribution
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&distribution).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get distribution: %w", err)
	}
	return &distribution, nil
}

// SaveDistribution persists changes to a distribution pot
func (s *pgStore) SaveDistribution(ctx context.Context, distribution *schema.Distribution) error {
	if err := s.db.WithContext(ctx).Save(distribution).Error; err != nil {
		return fmt.Errorf("failed to save distribution: %w", err)
	}
	return nil
}

// ListDistributionsByCollection retrieves all distribution pots under a collection
func (s *pgStore) ListDistributionsByCollection(ctx context.Context, collectionID uint64) ([]*schema.Distribution, error) {
	var distributions []*schema.Distribution
	err := s.db.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		Order("id ASC").
		Find(&distributions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list distributions: %w", err)
	}
	return distributions, nil
}

// AddShareAmount credits a token share to an NFT under a distribution pot,
// creating the row when it does not exist yet
func (s *pgStore) AddShareAmount(ctx context.Context, distributionID uint64, nftMint string, amount uint64) error {
	record := schema.ShareRecord{
		DistributionID: distributionID,
		NftMint:        nftMint,
		Amount:         amount,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "distribution_id"}, {Name: "nft_mint"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"amount": gorm.Expr("share_records.amount + ?", amount),
		}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to add share amount: %w", err)
	}
	return nil
}

// SaveShareRecord persists changes to a share row
func (s *pgStore) SaveShareRecord(ctx context.Context, record *schema.ShareRecord) error {
	if err := s.db.WithContext(ctx).Save(record).Error; err != nil {
		return fmt.Errorf("failed to save share record: %w", err)
	}
	return nil
}

// GetShareRecord retrieves an NFT's share row under a distribution pot
func (s *pgStore) GetShareRecord(ctx context.Context, distributionID uint64, nftMint string) (*schema.ShareRecord, error) {
	var record schema.ShareRecord
	err := s.db.WithContext(ctx).
		Where("distribution_id = ? AND nft_mint = ?", distributionID, nftMint).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get share record: %w", err)
	}
	return &record, nil
}

// CreateWebhookEndpoint registers a delivery endpoint for a tenant
func (s *pgStore) CreateWebhookEndpoint(ctx context.Context, endpoint *schema.WebhookEndpoint) error {
	if err := s.db.WithContext(ctx).Create(endpoint).Error; err != nil {
		return fmt.Errorf("failed to create webhook endpoint: %w", err)
	}
	return nil
}

// ListActiveWebhookEndpoints retrieves a tenant's active endpoints
func (s *pgStore) ListActiveWebhookEndpoints(ctx context.Context, stakerID uint64) ([]*schema.WebhookEndpoint, error) {
	var endpoints []*schema.WebhookEndpoint
	err := s.db.WithContext(ctx).
		Where("staker_id = ? AND active = ?", stakerID, true).
		Find(&endpoints).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook endpoints: %w", err)
	}
	return endpoints, nil
}

// CreateWebhookDelivery records a delivery attempt row
func (s *pgStore) CreateWebhookDelivery(ctx context.Context, delivery *schema.WebhookDelivery) error {
	if err := s.db.WithContext(ctx).Create(delivery).Error; err != nil {
		return fmt.Errorf("failed to create webhook delivery: %w", err)
	}
	return nil
}

// SaveWebhookDelivery persists changes to a delivery row
func (s *pgStore) SaveWebhookDelivery(ctx context.Context, delivery *schema.WebhookDelivery) error {
	if err := s.db.WithContext(ctx).Save(delivery).Error; err != nil {
		return fmt.Errorf("failed to save webhook delivery: %w", err)
	}
	return nil
}

// ListWebhookDeliveries retrieves an endpoint's delivery rows, newest first
func (s *pgStore) ListWebhookDeliveries(ctx context.Context, endpointID uint64, limit int) ([]*schema.WebhookDelivery, error) {
	var deliveries []*schema.WebhookDelivery
	query := s.db.WithContext(ctx).
		Where("endpoint_id = ?", endpointID).
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&deliveries).Error; err != nil {
		return nil, fmt.Errorf("failed to list webhook deliveries: %w", err)
	}
	return deliveries, nil
}
