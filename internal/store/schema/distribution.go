package schema

import (
	"time"
)

// Distribution represents the distributions table. A distribution is a
// labelled pot attached to a distribution emission that splits funded
// amounts equally across the stakers live at funding time.
type Distribution struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// CollectionID references the collection this distribution belongs to
	CollectionID uint64 `gorm:"column:collection_id;not null;index"`
	// EmissionID references the distribution emission this pot is attached to
	EmissionID uint64 `gorm:"column:emission_id;not null;index"`
	// Label is a short human readable name for the pot
	Label string `gorm:"column:label;not null;type:varchar(20)"`
	// URI links the offchain distribution log
	URI string `gorm:"column:uri;type:varchar(63)"`
	// TokenMint is the SPL mint paid out, nil for SOL
	TokenMint *string `gorm:"column:token_mint;type:text"`
	// Shares fixes the pot's share weighting at creation; zero means each
	// funding splits equally across the stakes live at that moment
	Shares uint32 `gorm:"column:shares;not null;default:0"`
	// SharesFunded counts the shares consumed by fundings so far
	SharesFunded uint32 `gorm:"column:shares_funded;not null;default:0"`
	// TotalFunded is the cumulative amount paid into the pot
	TotalFunded uint64 `gorm:"column:total_funded;not null;default:0"`
	// Balance is the undistributed amount left in the pot
	Balance uint64 `gorm:"column:balance;not null;default:0"`
	// ClaimedAmount is the cumulative token shares drained to owners
	ClaimedAmount uint64 `gorm:"column:claimed_amount;not null;default:0"`
	// CreatedAt is the timestamp this record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Distribution model
func (Distribution) TableName() string {
	return "distributions"
}
