package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/stakehaus/stake-engine/internal/domain"
)

// Staker represents the stakers table - one row per tenant running a staking
// platform instance
type Staker struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Slug is the tenant's unique, URL-safe identifier
	Slug string `gorm:"column:slug;not null;uniqueIndex;type:varchar(50)"`
	// Name is the tenant's display name
	Name string `gorm:"column:name;not null;type:varchar(50)"`
	// Authority is the wallet address that owns this tenant
	Authority string `gorm:"column:authority;not null;type:text;index"`
	// Active indicates whether the tenant may accept stakes
	Active bool `gorm:"column:active;not null;default:true"`
	// Subscription is the tenant's current subscription tier
	Subscription domain.SubscriptionTier `gorm:"column:subscription;not null;type:text"`
	// PrevSubscription holds the richer tier during a pending downgrade
	PrevSubscription *domain.SubscriptionTier `gorm:"column:prev_subscription;type:text"`
	// SubscriptionLiveAt is when the current Subscription value takes effect;
	// before it, PrevSubscription still governs fee discounts
	SubscriptionLiveAt *time.Time `gorm:"column:subscription_live_at;type:timestamptz"`
	// CustomFees holds the price and fee overrides of a custom subscription
	CustomFees *datatypes.JSONType[domain.CustomFees] `gorm:"column:custom_fees;type:jsonb"`
	// NextPaymentAt is the billing clock: when the next subscription payment is due
	NextPaymentAt time.Time `gorm:"column:next_payment_at;not null;type:timestamptz;index"`
	// LastBillingNoticeAt is when the billing sweeper last published a due or
	// lapsed notice for this tenant
	LastBillingNoticeAt *time.Time `gorm:"column:last_billing_notice_at;type:timestamptz"`
	// StartDate is when the tenant's platform went live
	StartDate time.Time `gorm:"column:start_date;not null;type:timestamptz"`
	// RemoveBranding indicates the branding-removal add-on is enabled
	RemoveBranding bool `gorm:"column:remove_branding;not null;default:false"`
	// OwnDomain indicates the custom-domain add-on is enabled
	OwnDomain bool `gorm:"column:own_domain;not null;default:false"`
	// CustomDomain is the tenant's custom domain, when OwnDomain is set
	CustomDomain *string `gorm:"column:custom_domain;type:text"`
	// Theme is the tenant's stored presentation settings
	Theme *datatypes.JSONType[domain.Theme] `gorm:"column:theme;type:jsonb"`
	// TokenMint is the tenant's reward token mint, once attached via AddToken
	TokenMint *string `gorm:"column:token_mint;type:text"`
	// TokenVault indicates rewards are paid from a pre-funded vault rather than
	// by minting with a handed-over mint authority
	TokenVault bool `gorm:"column:token_vault;not null;default:false"`
	// NumberStaked is the count of NFTs currently staked across all collections
	NumberStaked uint32 `gorm:"column:number_staked;not null;default:0"`
	// CreatedAt is the timestamp this tenant was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp this tenant was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`

	// Associations
	Collections []Collection `gorm:"foreignKey:StakerID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Staker model
func (Staker) TableName() string {
	return "stakers"
}
