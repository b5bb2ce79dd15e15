package domain

import (
	"regexp"

	"github.com/mr-tron/base58"
)

// Address is a base58-encoded ed25519 public key identifying a wallet,
// token mint, or NFT mint on the settlement ledger
type Address string

// String returns the string representation of the Address
func (a Address) String() string {
	return string(a)
}

// Valid checks that the address decodes to a 32-byte public key
func (a Address) Valid() bool {
	raw, err := base58.Decode(string(a))
	if err != nil {
		return false
	}
	return len(raw) == 32
}

// SubscriptionTier represents a tenant's subscription level
type SubscriptionTier string

const (
	TierFree     SubscriptionTier = "free"
	TierAdvanced SubscriptionTier = "advanced"
	TierPro      SubscriptionTier = "pro"
	TierUltimate SubscriptionTier = "ultimate"
	TierCustom   SubscriptionTier = "custom"
)

// IsValidTier checks if a tier is one of the known subscription tiers
func IsValidTier(tier SubscriptionTier) bool {
	switch tier {
	case TierFree, TierAdvanced, TierPro, TierUltimate, TierCustom:
		return true
	}
	return false
}

// CustomFees carries the explicit price and per-operation fee overrides of a
// custom (admin-assigned) subscription. Overrides bypass the tier fee tables.
type CustomFees struct {
	Amount     uint64 `json:"amount"`
	StakeFee   uint64 `json:"stake_fee"`
	UnstakeFee uint64 `json:"unstake_fee"`
	ClaimFee   uint64 `json:"claim_fee"`
}

// RewardKind represents the reward strategy of an emission
type RewardKind string

const (
	// RewardToken pays reward_rate tokens per staked second, from a pre-funded
	// vault or by minting directly
	RewardToken RewardKind = "token"
	// RewardPoints accrues durable per-NFT points, credited at unstake
	RewardPoints RewardKind = "points"
	// RewardDistribution pays pooled SOL deposits split across live stakers
	RewardDistribution RewardKind = "distribution"
	// RewardSelection lets the staker pick one of several (reward, duration,
	// lock) options at stake time
	RewardSelection RewardKind = "selection"
)

// IsValidRewardKind checks if a kind is one of the known reward strategies
func IsValidRewardKind(kind RewardKind) bool {
	switch kind {
	case RewardToken, RewardPoints, RewardDistribution, RewardSelection:
		return true
	}
	return false
}

// RewardStep is one segment of an emission's reward-rate history. Accrual over
// [stakedAt, now] sums rate × overlap per step, so rate changes never rewrite
// rewards already earned at the old rate.
type RewardStep struct {
	// Rate is the reward per staked NFT per second
	Rate uint64 `json:"rate"`
	// Since is the unix second this rate took effect
	Since int64 `json:"since"`
}

// SelectionOption is one choice of a selection emission
type SelectionOption struct {
	// Reward is the total payout for completing the option's duration
	Reward uint64 `json:"reward"`
	// Duration is the staking commitment in seconds
	Duration int64 `json:"duration"`
	// Lock forbids unstaking before the duration elapses
	Lock bool `json:"lock"`
}

// slugPattern accepts lowercase URL-slug shapes: "gallery", "night-owls-2"
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidateSlug checks a tenant slug for emptiness, length, and shape.
// Uniqueness is enforced by the slug registry, not here.
func ValidateSlug(slug string) error {
	if slug == "" {
		return ErrSlugRequired
	}
	if len(slug) > MAX_SLUG_LENGTH {
		return ErrSlugTooLong
	}
	if !slugPattern.MatchString(slug) {
		return ErrInvalidSlug
	}
	return nil
}

// ValidateName checks a tenant display name
func ValidateName(name string) error {
	if name == "" {
		return ErrNameRequired
	}
	if len(name) > MAX_NAME_LENGTH {
		return ErrNameTooLong
	}
	return nil
}

// ValidateLabel checks a distribution label
func ValidateLabel(label string) error {
	if len(label) > MAX_LABEL_LENGTH {
		return ErrLabelTooLong
	}
	return nil
}
