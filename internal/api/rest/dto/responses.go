package dto

import (
	"time"

	"github.com/stakehaus/stake-engine/internal/domain"
	"github.com/stakehaus/stake-engine/internal/store/schema"
)

// StakerResponse is the public view of a tenant
type StakerResponse struct {
	ID             uint64                  `json:"id"`
	Slug           string                  `json:"slug"`
	Name           string                  `json:"name"`
	Authority      string                  `json:"authority"`
	Active         bool                    `json:"active"`
	Subscription   domain.SubscriptionTier `json:"subscription"`
	NextPaymentAt  time.Time               `json:"next_payment_at"`
	StartDate      time.Time               `json:"start_date"`
	RemoveBranding bool                    `json:"remove_branding"`
	OwnDomain      bool                    `json:"own_domain"`
	CustomDomain   *string                 `json:"custom_domain,omitempty"`
	Theme          *domain.Theme           `json:"theme,omitempty"`
	TokenMint      *string                 `json:"token_mint,omitempty"`
	TokenVault     bool                    `json:"token_vault"`
	NumberStaked   uint32                  `json:"number_staked"`
}

// MapStaker converts a tenant record to its response form
func MapStaker(s *schema.Staker) *StakerResponse {
	resp := &StakerResponse{
		ID:             s.ID,
		Slug:           s.Slug,
		Name:           s.Name,
		Authority:      s.Authority,
		Active:         s.Active,
		Subscription:   s.Subscription,
		NextPaymentAt:  s.NextPaymentAt,
		StartDate:      s.StartDate,
		RemoveBranding: s.RemoveBranding,
		OwnDomain:      s.OwnDomain,
		CustomDomain:   s.CustomDomain,
		TokenMint:      s.TokenMint,
		TokenVault:     s.TokenVault,
		NumberStaked:   s.NumberStaked,
	}
	if s.Theme != nil {
		theme := s.Theme.Data()
		resp.Theme = &theme
	}
	return resp
}

// CollectionResponse is the public view of a staking collection
type CollectionResponse struct {
	ID                uint64    `json:"id"`
	CollectionMint    string    `json:"collection_mint"`
	Custodial         bool      `json:"custodial"`
	Active            bool      `json:"active"`
	MaxStakers        uint32    `json:"max_stakers"`
	CurrentStakers    uint32    `json:"current_stakers"`
	StartAt           time.Time `json:"start_at"`
	EndAt             time.Time `json:"end_at"`
	LockMinimumPeriod bool      `json:"lock_minimum_period"`
}

// MapCollection converts a collection record to its response form
func MapCollection(c *schema.Collection) *CollectionResponse {
	return &CollectionResponse{
		ID:                c.ID,
		CollectionMint:    c.CollectionMint,
		Custodial:         c.Custodial,
		Active:            c.Active,
		MaxStakers:        c.MaxStakers,
		CurrentStakers:    c.CurrentStakers,
		StartAt:           c.StartAt,
		EndAt:             c.EndAt,
		LockMinimumPeriod: c.LockMinimumPeriod,
	}
}

// EmissionResponse is the public view of a reward emission
type EmissionResponse struct {
	ID            uint64                   `json:"id"`
	CollectionID  uint64                   `json:"collection_id"`
	Kind          domain.RewardKind        `json:"kind"`
	Active        bool                     `json:"active"`
	RewardRate    uint64                   `json:"reward_rate"`
	Options       []domain.SelectionOption `json:"options,omitempty"`
	StartAt       time.Time                `json:"start_at"`
	EndAt         *time.Time               `json:"end_at,omitempty"`
	MinimumPeriod *int64                   `json:"minimum_period,omitempty"`
	TokenMint     *string                  `json:"token_mint,omitempty"`
	TokenVault    bool                     `json:"token_vault"`
	VaultBalance  uint64                   `json:"vault_balance"`
	StakedItems   uint32                   `json:"staked_items"`
}

// MapEmission converts an emission record to its response form
func MapEmission(e *schema.Emission) *EmissionResponse {
	return &EmissionResponse{
		ID:            e.ID,
		CollectionID:  e.CollectionID,
		Kind:          e.Kind,
		Active:        e.Active,
		RewardRate:    e.RewardRate,
		Options:       e.Options,
		StartAt:       e.StartAt,
		EndAt:         e.EndAt,
		MinimumPeriod: e.MinimumPeriod,
		TokenMint:     e.TokenMint,
		TokenVault:    e.TokenVault,
		VaultBalance:  e.VaultBalance,
		StakedItems:   e.StakedItems,
	}
}

// StakeRecordResponse is the public view of a live stake
type StakeRecordResponse struct {
	ID              uint64    `json:"id"`
	CollectionID    uint64    `json:"collection_id"`
	NftMint         string    `json:"nft_mint"`
	Owner           string    `json:"owner"`
	StakedAt        time.Time `json:"staked_at"`
	SolBalance      uint64    `json:"sol_balance"`
	SelectionOption *int      `json:"selection_option,omitempty"`
}

// MapStakeRecord converts a stake record to its response form
func MapStakeRecord(r *schema.StakeRecord) *StakeRecordResponse {
	return &StakeRecordResponse{
		ID:              r.ID,
		CollectionID:    r.CollectionID,
		NftMint:         r.NftMint,
		Owner:           r.Owner,
		StakedAt:        r.StakedAt,
		SolBalance:      r.SolBalance,
		SelectionOption: r.SelectionOption,
	}
}

// DistributionResponse is the public view of a distribution pot
type DistributionResponse struct {
	ID            uint64  `json:"id"`
	CollectionID  uint64  `json:"collection_id"`
	Label         string  `json:"label"`
	URI           string  `json:"uri,omitempty"`
	TokenMint     *string `json:"token_mint,omitempty"`
	Shares        uint32  `json:"shares"`
	SharesFunded  uint32  `json:"shares_funded"`
	TotalFunded   uint64  `json:"total_funded"`
	Balance       uint64  `json:"balance"`
	ClaimedAmount uint64  `json:"claimed_amount"`
}

// MapDistribution converts a distribution record to its response form
func MapDistribution(d *schema.Distribution) *DistributionResponse {
	return &DistributionResponse{
		ID:            d.ID,
		CollectionID:  d.CollectionID,
		Label:         d.Label,
		URI:           d.URI,
		TokenMint:     d.TokenMint,
		Shares:        d.Shares,
		SharesFunded:  d.SharesFunded,
		TotalFunded:   d.TotalFunded,
		Balance:       d.Balance,
		ClaimedAmount: d.ClaimedAmount,
	}
}

// AmountResponse reports the lamports moved by an operation
type AmountResponse struct {
	Amount uint64 `json:"amount"`
}

// WebhookEndpointResponse is the public view of a webhook endpoint.
// The signing secret is never echoed back.
type WebhookEndpointResponse struct {
	ID           uint64   `json:"id"`
	URL          string   `json:"url"`
	EventFilters []string `json:"event_filters,omitempty"`
	Active       bool     `json:"active"`
	MaxAttempts  int      `json:"max_attempts"`
}

// MapWebhookEndpoint converts a webhook endpoint record to its response form
func MapWebhookEndpoint(e *schema.WebhookEndpoint) *WebhookEndpointResponse {
	return &WebhookEndpointResponse{
		ID:           e.ID,
		URL:          e.URL,
		EventFilters: e.EventFilters,
		Active:       e.Active,
		MaxAttempts:  e.MaxAttempts,
	}
}
