package schema

import (
	"time"
)

// NftRecord represents the nft_records table. It is a per-NFT ledger of
// accumulated points that survives unstaking and changes of owner.
type NftRecord struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// StakerID references the tenant the points were earned under
	StakerID uint64 `gorm:"column:staker_id;not null;uniqueIndex:idx_nft_records_staker_mint"`
	// NftMint is the NFT's mint address
	NftMint string `gorm:"column:nft_mint;not null;uniqueIndex:idx_nft_records_staker_mint;type:text"`
	// Points is the total staked duration in seconds, credited at unstake
	Points uint64 `gorm:"column:points;not null;default:0"`
	// CreatedAt is the timestamp this record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the NftRecord model
func (NftRecord) TableName() string {
	return "nft_records"
}
