package domain

import "errors"

// Validation errors are rejected before any state mutation.
var (
	// ErrSlugRequired is returned when a tenant slug is empty
	ErrSlugRequired = errors.New("slug required")

	// ErrSlugTooLong is returned when a tenant slug exceeds the length limit
	ErrSlugTooLong = errors.New("slug too long")

	// ErrInvalidSlug is returned when a tenant slug is not URL-safe
	ErrInvalidSlug = errors.New("invalid slug")

	// ErrSlugExists is returned when a tenant slug is already registered
	ErrSlugExists = errors.New("slug exists")

	// ErrNameRequired is returned when a tenant name is empty
	ErrNameRequired = errors.New("name required")

	// ErrNameTooLong is returned when a tenant name exceeds the length limit
	ErrNameTooLong = errors.New("name too long")

	// ErrLabelTooLong is returned when a distribution label exceeds the length limit
	ErrLabelTooLong = errors.New("label too long")

	// ErrURITooLong is returned when a distribution log URI exceeds the length limit
	ErrURITooLong = errors.New("uri too long")

	// ErrTotalSharesFunded is returned when a funding would exceed a
	// distribution's fixed share count
	ErrTotalSharesFunded = errors.New("total shares funded")

	// ErrInvalidAddress is returned when an address is not a valid base58 pubkey
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidImage is returned when a theme image is not hosted on permanent storage
	ErrInvalidImage = errors.New("invalid image")

	// ErrImageTooLong is returned when a theme image URL exceeds the length limit
	ErrImageTooLong = errors.New("image too long")

	// ErrInvalidColor is returned when a theme color is not six hex digits
	ErrInvalidColor = errors.New("invalid color")

	// ErrInvalidTier is returned when a subscription tier is not recognized,
	// or a custom tier is requested without its fee overrides
	ErrInvalidTier = errors.New("invalid tier")

	// ErrInvalidWebhookURL is returned when a webhook endpoint URL is empty
	ErrInvalidWebhookURL = errors.New("invalid webhook url")

	// ErrInvalidWebhookSecret is returned when a webhook secret is not hex-encoded
	ErrInvalidWebhookSecret = errors.New("invalid webhook secret")
)

// Authorization errors.
var (
	// ErrUnauthorized is returned when the caller does not own the target record
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAdminOnly is returned when a platform-admin operation is attempted by a tenant
	ErrAdminOnly = errors.New("admin only")

	// ErrUpdateAuthRequired is returned when a mutation requires the update authority
	ErrUpdateAuthRequired = errors.New("update authority required")
)

// Lifecycle and timing errors.
var (
	// ErrAccountNotInitialized is returned when a referenced record does not exist
	ErrAccountNotInitialized = errors.New("account not initialized")

	// ErrAlreadyInitialized is returned when the platform config already exists
	ErrAlreadyInitialized = errors.New("already initialized")

	// ErrInvalidStartTime is returned when a staking window would open in the past
	ErrInvalidStartTime = errors.New("invalid start time")

	// ErrStakeNotLive is returned when staking is attempted before the window opens
	ErrStakeNotLive = errors.New("staking not live yet")

	// ErrStakeOver is returned when the staking window has already closed
	ErrStakeOver = errors.New("staking is over")

	// ErrStakerInactive is returned when the tenant has been deactivated
	ErrStakerInactive = errors.New("staker inactive")

	// ErrStakerInArrears is returned when a tenant mutation is blocked by overdue billing
	ErrStakerInArrears = errors.New("staker in arrears")

	// ErrCollectionInactive is returned when an operation needs an active collection
	ErrCollectionInactive = errors.New("collection inactive")

	// ErrCollectionActive is returned when an operation needs a deactivated collection
	ErrCollectionActive = errors.New("collection active")

	// ErrMaxStakersReached is returned when a collection is at capacity
	ErrMaxStakersReached = errors.New("max stakers reached")

	// ErrMinimumPeriodNotReached is returned when the lock period has not elapsed
	ErrMinimumPeriodNotReached = errors.New("minimum period not reached")

	// ErrAlreadyStaked is returned when the NFT already has a live stake record
	ErrAlreadyStaked = errors.New("already staked")

	// ErrNotStaked is returned when no live stake record exists for the NFT
	ErrNotStaked = errors.New("not staked")

	// ErrPaymentNotDueYet is returned when a renewal is attempted too early
	ErrPaymentNotDueYet = errors.New("payment not due yet")

	// ErrNoPaymentDue is returned when the subscription amount is zero
	ErrNoPaymentDue = errors.New("no payment due")

	// ErrCannotExtendNoEndDate is returned when extending an open-ended emission
	ErrCannotExtendNoEndDate = errors.New("cannot extend emission without end date")

	// ErrInvalidStakeEndTime is returned when a new end time is not in the future
	ErrInvalidStakeEndTime = errors.New("invalid stake end time")
)

// Solvency and referential-completeness errors.
var (
	// ErrInsufficientBalanceInVault is returned when the vault cannot cover the
	// emission's worst-case obligation
	ErrInsufficientBalanceInVault = errors.New("insufficient balance in vault")

	// ErrDurationRequired is returned when a vault-backed emission lacks a duration
	ErrDurationRequired = errors.New("duration required")

	// ErrRewardRequired is returned when an emission lacks a reward rate
	ErrRewardRequired = errors.New("reward required")

	// ErrInvalidEmission is returned when the emission kind does not support the
	// operation, or a duplicate emission of the same kind is already attached
	ErrInvalidEmission = errors.New("invalid emission")

	// ErrEmissionExists is returned when the collection already carries an
	// emission of the requested kind
	ErrEmissionExists = errors.New("emission exists")

	// ErrNoTokensToClaim is returned when a reclaim finds an empty vault
	ErrNoTokensToClaim = errors.New("no tokens to claim")

	// ErrCollectionHasStakers is returned when a teardown needs zero occupancy
	ErrCollectionHasStakers = errors.New("collection has stakers")

	// ErrCollectionsMissing is returned when closing a mint-backed collection
	// without naming every sibling collection sharing the mint
	ErrCollectionsMissing = errors.New("collections missing")

	// ErrStillHasEmissions is returned when closing a collection with live emissions
	ErrStillHasEmissions = errors.New("still has emissions")

	// ErrStillHasCollections is returned when closing a tenant with live collections
	ErrStillHasCollections = errors.New("still has collections")

	// ErrStillHasStakedItems is returned when closing a tenant with live stakes
	ErrStillHasStakedItems = errors.New("still has staked items")

	// ErrTokenExists is returned when the tenant already has a reward token attached
	ErrTokenExists = errors.New("token exists")
)
