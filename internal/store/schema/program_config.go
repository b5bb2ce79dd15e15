package schema

import (
	"time"
)

// ProgramConfigID is the fixed primary key of the singleton row.
const ProgramConfigID uint64 = 1

// ProgramConfig represents the program_config table - the singleton platform
// fee schedule read by every fee computation
type ProgramConfig struct {
	// ID is always 1; the table holds a single row
	ID uint64 `gorm:"column:id;primaryKey"`
	// Authority is the platform admin address allowed to mutate this config
	Authority string `gorm:"column:authority;not null;type:text"`
	// FeeSink is the address operation fees are transferred to
	FeeSink string `gorm:"column:fee_sink;not null;type:text"`
	// StakeFee is the base fee charged on stake, in lamports
	StakeFee uint64 `gorm:"column:stake_fee;not null;default:0"`
	// UnstakeFee is the base fee charged on unstake, in lamports
	UnstakeFee uint64 `gorm:"column:unstake_fee;not null;default:0"`
	// ClaimFee is the base fee charged on claim, in lamports
	ClaimFee uint64 `gorm:"column:claim_fee;not null;default:0"`
	// AdvancedFee is the monthly price of the advanced tier, in lamports
	AdvancedFee uint64 `gorm:"column:advanced_fee;not null;default:0"`
	// ProFee is the monthly price of the pro tier, in lamports
	ProFee uint64 `gorm:"column:pro_fee;not null;default:0"`
	// UltimateFee is the monthly price of the ultimate tier, in lamports
	UltimateFee uint64 `gorm:"column:ultimate_fee;not null;default:0"`
	// ExtraCollectionFee is the monthly add-on price per collection beyond the first
	ExtraCollectionFee uint64 `gorm:"column:extra_collection_fee;not null;default:0"`
	// RemoveBrandingFee is the monthly add-on price for removing platform branding
	RemoveBrandingFee uint64 `gorm:"column:remove_branding_fee;not null;default:0"`
	// OwnDomainFee is the one-off price for attaching a custom domain
	OwnDomainFee uint64 `gorm:"column:own_domain_fee;not null;default:0"`
	// CreatedAt is the timestamp the platform was initialized
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp of the last fee-schedule change
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the ProgramConfig model
func (ProgramConfig) TableName() string {
	return "program_config"
}
