package schema

import (
	"time"

	"github.com/stakehaus/stake-engine/internal/domain"
)

// Collection represents the collections table - one staking policy bound to
// one NFT collection under one tenant
type Collection struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// StakerID references the owning tenant
	StakerID uint64 `gorm:"column:staker_id;not null;index"`
	// CollectionMint is the NFT collection's mint address
	CollectionMint string `gorm:"column:collection_mint;not null;type:text;index"`
	// Custodial indicates staked NFTs are transferred into platform escrow;
	// non-custodial collections lock/delegate the NFT in the owner's wallet
	Custodial bool `gorm:"column:custodial;not null;default:false"`
	// Active indicates whether the collection accepts new stakes
	Active bool `gorm:"column:active;not null;default:true"`
	// MaxStakers caps concurrent stake records
	MaxStakers uint32 `gorm:"column:max_stakers;not null"`
	// CurrentStakers is the live stake record count; never exceeds MaxStakers
	CurrentStakers uint32 `gorm:"column:current_stakers;not null;default:0"`
	// StartAt is when the staking window opens
	StartAt time.Time `gorm:"column:start_at;not null;type:timestamptz"`
	// EndAt is when the staking window closes
	EndAt time.Time `gorm:"column:end_at;not null;type:timestamptz"`
	// LockMinimumPeriod forbids unstaking before an emission's minimum period;
	// when unset, early unstake is permitted and simply forfeits the reward
	LockMinimumPeriod bool `gorm:"column:lock_minimum_period;not null;default:false"`
	// TokenEmissionID is the current token emission, at most one per collection
	TokenEmissionID *uint64 `gorm:"column:token_emission_id"`
	// PointsEmissionID is the current points emission
	PointsEmissionID *uint64 `gorm:"column:points_emission_id"`
	// DistributionEmissionID is the current distribution emission
	DistributionEmissionID *uint64 `gorm:"column:distribution_emission_id"`
	// SelectionEmissionID is the current selection emission
	SelectionEmissionID *uint64 `gorm:"column:selection_emission_id"`
	// CreatedAt is the timestamp this collection was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp this collection was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`

	// Associations
	Emissions    []Emission    `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE"`
	StakeRecords []StakeRecord `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Collection model
func (Collection) TableName() string {
	return "collections"
}

// EmissionRef returns a pointer to the collection's current-emission field for
// the given kind column so callers can read and clear it uniformly
func (c *Collection) EmissionRef(kind domain.RewardKind) **uint64 {
	switch kind {
	case domain.RewardToken:
		return &c.TokenEmissionID
	case domain.RewardPoints:
		return &c.PointsEmissionID
	case domain.RewardDistribution:
		return &c.DistributionEmissionID
	case domain.RewardSelection:
		return &c.SelectionEmissionID
	}
	return nil
}

// HasEmissions reports whether any emission kind is still attached
func (c *Collection) HasEmissions() bool {
	return c.TokenEmissionID != nil ||
		c.PointsEmissionID != nil ||
		c.DistributionEmissionID != nil ||
		c.SelectionEmissionID != nil
}
