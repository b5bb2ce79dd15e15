package schema

import (
	"time"
)

// StakeRecord represents the stake_records table - one row per currently
// staked NFT. Destroyed on unstake; re-staking creates a fresh row.
type StakeRecord struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// CollectionID references the collection the NFT is staked under
	CollectionID uint64 `gorm:"column:collection_id;not null;index"`
	// StakerID references the owning tenant, denormalized for tenant-wide counts
	StakerID uint64 `gorm:"column:staker_id;not null;index"`
	// NftMint is the staked NFT's mint address; unique because an NFT can hold
	// at most one live stake record
	NftMint string `gorm:"column:nft_mint;not null;uniqueIndex;type:text"`
	// Owner is the wallet that staked the NFT and may claim or unstake it
	Owner string `gorm:"column:owner;not null;type:text;index"`
	// StakedAt is the accrual clock: set at stake, re-based to now on claim
	StakedAt time.Time `gorm:"column:staked_at;not null;type:timestamptz"`
	// SolBalance is SOL credited by distributions, drained by claim/unstake
	SolBalance uint64 `gorm:"column:sol_balance;not null;default:0"`
	// SelectionOption is the index chosen at stake time under a selection
	// emission; nil otherwise
	SelectionOption *int `gorm:"column:selection_option"`
	// CreatedAt is the timestamp this record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the StakeRecord model
func (StakeRecord) TableName() string {
	return "stake_records"
}
