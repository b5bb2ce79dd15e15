package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/stakehaus/stake-engine/internal/domain"
)

// Emission represents the emissions table - one reward strategy attached to a
// collection, with its own schedule, rate history, and vault balance
type Emission struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// CollectionID references the collection this emission rewards
	CollectionID uint64 `gorm:"column:collection_id;not null;index"`
	// Kind is the reward strategy (token, points, distribution, selection)
	Kind domain.RewardKind `gorm:"column:kind;not null;type:text"`
	// Active indicates whether the emission still accrues and pays
	Active bool `gorm:"column:active;not null;default:true"`
	// RewardRate is the current reward per staked NFT per second, in the
	// emission token's base unit. Zero for points and distribution emissions.
	RewardRate uint64 `gorm:"column:reward_rate;not null;default:0"`
	// RewardSteps is the append-only rate history used for accrual; the last
	// entry always mirrors RewardRate
	RewardSteps datatypes.JSONSlice[domain.RewardStep] `gorm:"column:reward_steps;type:jsonb"`
	// Options holds the choices of a selection emission
	Options datatypes.JSONSlice[domain.SelectionOption] `gorm:"column:options;type:jsonb"`
	// StartAt is when accrual begins
	StartAt time.Time `gorm:"column:start_at;not null;type:timestamptz"`
	// EndAt is when accrual stops; nil means open-ended
	EndAt *time.Time `gorm:"column:end_at;type:timestamptz"`
	// MinimumPeriod is the seconds a stake must age before claim pays; nil
	// means no minimum
	MinimumPeriod *int64 `gorm:"column:minimum_period"`
	// TokenMint is the reward token's mint address, for token emissions
	TokenMint *string `gorm:"column:token_mint;type:text"`
	// TokenVault indicates the emission pays from a pre-funded vault; unset
	// token emissions pay by minting directly
	TokenVault bool `gorm:"column:token_vault;not null;default:false"`
	// VaultBalance is the funds remaining in the emission's vault, in the
	// token's base unit
	VaultBalance uint64 `gorm:"column:vault_balance;not null;default:0"`
	// StakedItems is the count of stake records attached while this emission
	// was active
	StakedItems uint32 `gorm:"column:staked_items;not null;default:0"`
	// CreatedAt is the timestamp this emission was added
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp this emission was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Emission model
func (Emission) TableName() string {
	return "emissions"
}
