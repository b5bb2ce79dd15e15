package dto

import (
	"time"

	"github.com/stakehaus/stake-engine/internal/api/shared/errors"
	"github.com/stakehaus/stake-engine/internal/domain"
)

// InitProgramConfigRequest bootstraps the platform fee schedule
type InitProgramConfigRequest struct {
	Authority          string `json:"authority" binding:"required"`
	FeeSink            string `json:"fee_sink" binding:"required"`
	StakeFee           uint64 `json:"stake_fee"`
	UnstakeFee         uint64 `json:"unstake_fee"`
	ClaimFee           uint64 `json:"claim_fee"`
	AdvancedFee        uint64 `json:"advanced_fee"`
	ProFee             uint64 `json:"pro_fee"`
	UltimateFee        uint64 `json:"ultimate_fee"`
	ExtraCollectionFee uint64 `json:"extra_collection_fee"`
	RemoveBrandingFee  uint64 `json:"remove_branding_fee"`
	OwnDomainFee       uint64 `json:"own_domain_fee"`
}

func (r *InitProgramConfigRequest) Validate() error {
	if !domain.Address(r.Authority).Valid() {
		return errors.NewValidationError("authority is not a valid address")
	}
	if !domain.Address(r.FeeSink).Valid() {
		return errors.NewValidationError("fee_sink is not a valid address")
	}
	return nil
}

// UpdateProgramConfigRequest mutates parts of the platform fee schedule.
// Absent fields are left unchanged.
type UpdateProgramConfigRequest struct {
	FeeSink            *string `json:"fee_sink"`
	StakeFee           *uint64 `json:"stake_fee"`
	UnstakeFee         *uint64 `json:"unstake_fee"`
	ClaimFee           *uint64 `json:"claim_fee"`
	AdvancedFee        *uint64 `json:"advanced_fee"`
	ProFee             *uint64 `json:"pro_fee"`
	UltimateFee        *uint64 `json:"ultimate_fee"`
	ExtraCollectionFee *uint64 `json:"extra_collection_fee"`
	RemoveBrandingFee  *uint64 `json:"remove_branding_fee"`
	OwnDomainFee       *uint64 `json:"own_domain_fee"`
}

func (r *UpdateProgramConfigRequest) Validate() error {
	if r.FeeSink != nil && !domain.Address(*r.FeeSink).Valid() {
		return errors.NewValidationError("fee_sink is not a valid address")
	}
	return nil
}

// CreateStakerRequest registers a new tenant
type CreateStakerRequest struct {
	Slug      string                  `json:"slug" binding:"required"`
	Name      string                  `json:"name" binding:"required"`
	Authority string                  `json:"authority" binding:"required"`
	Tier      domain.SubscriptionTier `json:"tier" binding:"required"`
	Theme     *domain.Theme           `json:"theme"`
}

func (r *CreateStakerRequest) Validate() error {
	if err := domain.ValidateSlug(r.Slug); err != nil {
		return errors.NewValidationError(err.Error())
	}
	if err := domain.ValidateName(r.Name); err != nil {
		return errors.NewValidationError(err.Error())
	}
	if !domain.Address(r.Authority).Valid() {
		return errors.NewValidationError("authority is not a valid address")
	}
	if !domain.IsValidTier(r.Tier) {
		return errors.NewValidationError("unknown subscription tier")
	}
	return nil
}

// UpdateSubscriptionRequest changes a tenant's subscription tier
type UpdateSubscriptionRequest struct {
	Tier       domain.SubscriptionTier `json:"tier" binding:"required"`
	CustomFees *domain.CustomFees      `json:"custom_fees"`
}

func (r *UpdateSubscriptionRequest) Validate() error {
	if !domain.IsValidTier(r.Tier) {
		return errors.NewValidationError("unknown subscription tier")
	}
	return nil
}

// UpdateOwnDomainRequest toggles the custom-domain add-on
type UpdateOwnDomainRequest struct {
	Enable       bool    `json:"enable"`
	CustomDomain *string `json:"custom_domain"`
}

// UpdateRemoveBrandingRequest toggles the branding-removal add-on
type UpdateRemoveBrandingRequest struct {
	Enable bool `json:"enable"`
}

// UpdateNextPaymentTimeRequest moves a tenant's billing clock. Admin only.
type UpdateNextPaymentTimeRequest struct {
	NextPaymentAt time.Time `json:"next_payment_at" binding:"required"`
}

// ToggleActiveRequest enables or disables a tenant or collection
type ToggleActiveRequest struct {
	Active bool `json:"active"`
}

// AddTokenRequest attaches a reward token mint to a tenant
type AddTokenRequest struct {
	Mint       string `json:"mint" binding:"required"`
	TokenVault bool   `json:"token_vault"`
}

func (r *AddTokenRequest) Validate() error {
	if !domain.Address(r.Mint).Valid() {
		return errors.NewValidationError("mint is not a valid address")
	}
	return nil
}

// CreateCollectionRequest binds a staking policy to an NFT collection
type CreateCollectionRequest struct {
	CollectionMint    string     `json:"collection_mint" binding:"required"`
	Custodial         bool       `json:"custodial"`
	MaxStakers        uint32     `json:"max_stakers" binding:"required"`
	StartAt           *time.Time `json:"start_at"`
	EndAt             *time.Time `json:"end_at"`
	LockMinimumPeriod bool       `json:"lock_minimum_period"`
}

func (r *CreateCollectionRequest) Validate() error {
	if !domain.Address(r.CollectionMint).Valid() {
		return errors.NewValidationError("collection_mint is not a valid address")
	}
	return nil
}

// CloseCollectionRequest tears a collection down. Mint-backed collections
// must name every sibling collection sharing the reward mint.
type CloseCollectionRequest struct {
	SiblingIDs []uint64 `json:"sibling_ids"`
}

// AddEmissionRequest attaches a reward strategy to a collection
type AddEmissionRequest struct {
	Kind          domain.RewardKind        `json:"kind" binding:"required"`
	RewardRate    uint64                   `json:"reward_rate"`
	EndAt         *time.Time               `json:"end_at"`
	MinimumPeriod *int64                   `json:"minimum_period"`
	Options       []domain.SelectionOption `json:"options"`
	FundAmount    uint64                   `json:"fund_amount"`
}

func (r *AddEmissionRequest) Validate() error {
	if !domain.IsValidRewardKind(r.Kind) {
		return errors.NewValidationError("unknown reward kind")
	}
	return nil
}

// ChangeRewardRequest changes a token emission's reward rate going forward
type ChangeRewardRequest struct {
	RewardRate uint64 `json:"reward_rate" binding:"required"`
}

// ExtendEmissionRequest pushes a token emission's end date out
type ExtendEmissionRequest struct {
	EndAt time.Time `json:"end_at" binding:"required"`
}

// AddFundsRequest tops up a vault-backed emission
type AddFundsRequest struct {
	EmissionID uint64 `json:"emission_id" binding:"required"`
	Amount     uint64 `json:"amount" binding:"required"`
}

// StakeRequest locks an NFT into a collection
type StakeRequest struct {
	CollectionID    uint64 `json:"collection_id" binding:"required"`
	NftMint         string `json:"nft_mint" binding:"required"`
	SelectionOption *int   `json:"selection_option"`
}

func (r *StakeRequest) Validate() error {
	if !domain.Address(r.NftMint).Valid() {
		return errors.NewValidationError("nft_mint is not a valid address")
	}
	return nil
}

// NftRequest identifies a live stake by its NFT mint
type NftRequest struct {
	NftMint string `json:"nft_mint" binding:"required"`
}

func (r *NftRequest) Validate() error {
	if !domain.Address(r.NftMint).Valid() {
		return errors.NewValidationError("nft_mint is not a valid address")
	}
	return nil
}

// CreateDistributionRequest opens a funding pot on a collection's
// distribution emission
type CreateDistributionRequest struct {
	CollectionID uint64  `json:"collection_id" binding:"required"`
	Label        string  `json:"label" binding:"required"`
	URI          string  `json:"uri"`
	Shares       uint32  `json:"shares"`
	Amount       uint64  `json:"amount"`
	TokenMint    *string `json:"token_mint"`
}

func (r *CreateDistributionRequest) Validate() error {
	if r.TokenMint != nil && !domain.Address(*r.TokenMint).Valid() {
		return errors.NewValidationError("token_mint is not a valid address")
	}
	return nil
}

// DistributeRequest deposits into a distribution pot, split across live stakers
type DistributeRequest struct {
	Amount uint64 `json:"amount" binding:"required"`
}

// CreateWebhookEndpointRequest registers a signed-event delivery endpoint
type CreateWebhookEndpointRequest struct {
	URL          string   `json:"url" binding:"required"`
	Secret       string   `json:"secret" binding:"required"`
	EventFilters []string `json:"event_filters"`
	MaxAttempts  *int     `json:"max_attempts"`
}

func (r *CreateWebhookEndpointRequest) Validate() error {
	if r.MaxAttempts != nil && (*r.MaxAttempts < 1 || *r.MaxAttempts > 10) {
		return errors.NewValidationError("max_attempts must be between 1 and 10")
	}
	return nil
}
