package domain

import "time"

const (
	// Billing constants
	BILLING_CYCLE      = 30 * 24 * time.Hour
	SHORT_GRACE_WINDOW = 10 * 24 * time.Hour
	// EARLIEST_PAY_OFFSET is how far before the due date a renewal payment is accepted
	EARLIEST_PAY_OFFSET = BILLING_CYCLE - 24*time.Hour

	// Validation limits
	MAX_SLUG_LENGTH  = 50
	MAX_NAME_LENGTH  = 50
	MAX_LABEL_LENGTH = 20
	MAX_IMAGE_LENGTH = 63

	// Theme image URLs must live on permanent storage
	ARWEAVE_URL_PREFIX = "https://arweave.net/"
)

// DEFAULT_STAKING_ENDS is the sentinel end time (unix seconds) for emissions
// created without an explicit duration
const DEFAULT_STAKING_ENDS int64 = 2015762363
