package schema

import (
	"time"
)

// ShareRecord represents the share_records table - the per-NFT share of a
// token denominated distribution pot, claimable independently of the SOL
// balance carried on the stake record.
type ShareRecord struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// DistributionID references the pot the share was credited from
	DistributionID uint64 `gorm:"column:distribution_id;not null;uniqueIndex:idx_share_records_dist_mint"`
	// NftMint is the NFT the share is credited to
	NftMint string `gorm:"column:nft_mint;not null;uniqueIndex:idx_share_records_dist_mint;type:text"`
	// Amount is the credited share, drained to zero on payout
	Amount uint64 `gorm:"column:amount;not null;default:0"`
	// CreatedAt is the timestamp this record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the ShareRecord model
func (ShareRecord) TableName() string {
	return "share_records"
}
